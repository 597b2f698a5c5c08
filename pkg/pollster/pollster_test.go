package pollster

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock advances virtual time instead of sleeping so tests can assert
// on exact sleep counts.
type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return nil
}

type vmStatus string

const (
	statusRunning vmStatus = "Running"
	statusStopped vmStatus = "Stopped"
)

func sequenceAccessor(seq []vmStatus, calls *int) func(context.Context) (vmStatus, error) {
	return func(ctx context.Context) (vmStatus, error) {
		idx := *calls
		*calls++
		if idx >= len(seq) {
			idx = len(seq) - 1
		}
		return seq[idx], nil
	}
}

func TestPollSatisfiedOnNthCall(t *testing.T) {
	for _, n := range []int{1, 2, 5} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			clock := newFakeClock()
			calls := 0
			seq := make([]vmStatus, n)
			for i := range seq {
				seq[i] = statusRunning
			}
			seq[n-1] = statusStopped

			res, err := Poll(context.Background(), Request[vmStatus]{
				Describe:  "vm to stop",
				Accessor:  sequenceAccessor(seq, &calls),
				Predicate: func(s vmStatus) bool { return s == statusStopped },
				Interval:  5 * time.Second,
				Clock:     clock,
			})

			require.NoError(t, err)
			assert.Equal(t, OutcomeSatisfied, res.Outcome)
			assert.Equal(t, statusStopped, res.Status)
			assert.Equal(t, n, calls, "accessor must be called exactly N times")
			assert.Len(t, clock.sleeps, n-1, "exactly N-1 sleeps for satisfaction on call N")
		})
	}
}

func TestPollSleepsUseConfiguredInterval(t *testing.T) {
	clock := newFakeClock()
	calls := 0
	seq := []vmStatus{statusRunning, statusRunning, statusStopped}

	res, err := Poll(context.Background(), Request[vmStatus]{
		Describe:  "vm to stop",
		Accessor:  sequenceAccessor(seq, &calls),
		Predicate: func(s vmStatus) bool { return s == statusStopped },
		Interval:  5 * time.Second,
		Clock:     clock,
	})

	require.NoError(t, err)
	assert.Equal(t, OutcomeSatisfied, res.Outcome)
	assert.Equal(t, 3, res.Attempts)
	require.Len(t, clock.sleeps, 2)
	for _, d := range clock.sleeps {
		assert.Equal(t, 5*time.Second, d)
	}
}

func TestPollTimedOutAfterExactlyMaxAttempts(t *testing.T) {
	clock := newFakeClock()
	calls := 0

	res, err := Poll(context.Background(), Request[vmStatus]{
		Describe:    "vm to stop",
		Accessor:    sequenceAccessor([]vmStatus{statusRunning}, &calls),
		Predicate:   func(s vmStatus) bool { return s == statusStopped },
		Interval:    time.Second,
		MaxAttempts: 3,
		Clock:       clock,
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimedOut)
	assert.Equal(t, OutcomeTimedOut, res.Outcome)
	assert.Equal(t, 3, calls, "never K+1 accessor calls")
	assert.Equal(t, 3, res.Attempts)
	assert.Equal(t, statusRunning, res.Status, "last observed status is reported")
}

func TestPollFatalErrorFailsImmediately(t *testing.T) {
	clock := newFakeClock()
	boom := errors.New("quota exceeded for resource group")
	calls := 0

	res, err := Poll(context.Background(), Request[vmStatus]{
		Describe: "vm to stop",
		Accessor: func(ctx context.Context) (vmStatus, error) {
			calls++
			return "", boom
		},
		Predicate: func(s vmStatus) bool { return s == statusStopped },
		Interval:  time.Second,
		Clock:     clock,
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, boom, "provider diagnostic must survive intact")
	assert.Equal(t, OutcomeFailed, res.Outcome)
	assert.Equal(t, 1, calls)
	assert.Empty(t, clock.sleeps, "zero sleeps on first-tick fatal error")
}

func TestPollTransientErrorsBehaveLikeNotReady(t *testing.T) {
	clock := newFakeClock()
	calls := 0

	res, err := Poll(context.Background(), Request[vmStatus]{
		Describe: "endpoint to accept connections",
		Accessor: func(ctx context.Context) (vmStatus, error) {
			calls++
			if calls < 4 {
				return "", &net.OpError{Op: "dial", Err: errors.New("connection refused")}
			}
			return statusRunning, nil
		},
		Predicate: func(s vmStatus) bool { return s == statusRunning },
		Interval:  2 * time.Second,
		IsTransient: func(err error) bool {
			var opErr *net.OpError
			return errors.As(err, &opErr)
		},
		Clock: clock,
	})

	require.NoError(t, err)
	assert.Equal(t, OutcomeSatisfied, res.Outcome)
	assert.Equal(t, 4, calls)
	assert.Len(t, clock.sleeps, 3, "identical to a non-erroring accessor satisfying on attempt 4")
}

func TestPollNilTransientClassifierTreatsErrorsAsFatal(t *testing.T) {
	clock := newFakeClock()

	res, err := Poll(context.Background(), Request[vmStatus]{
		Describe: "vm to stop",
		Accessor: func(ctx context.Context) (vmStatus, error) {
			return "", errors.New("dial tcp: connection refused")
		},
		Predicate: func(s vmStatus) bool { return s == statusStopped },
		Interval:  time.Second,
		Clock:     clock,
	})

	require.Error(t, err)
	assert.Equal(t, OutcomeFailed, res.Outcome)
	assert.Empty(t, clock.sleeps)
}

func TestPollMaxDurationBudget(t *testing.T) {
	clock := newFakeClock()
	calls := 0

	res, err := Poll(context.Background(), Request[vmStatus]{
		Describe:    "vm to stop",
		Accessor:    sequenceAccessor([]vmStatus{statusRunning}, &calls),
		Predicate:   func(s vmStatus) bool { return s == statusStopped },
		Interval:    10 * time.Second,
		MaxDuration: 25 * time.Second,
		Clock:       clock,
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimedOut)
	assert.Equal(t, OutcomeTimedOut, res.Outcome)
	// 0s: attempt 1, sleep; 10s: attempt 2, next sleep would end at 30s > 25s.
	assert.Equal(t, 3, res.Attempts)
}

func TestPollContextCancellationFailsThePoll(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	clock := newFakeClock()
	calls := 0

	res, err := Poll(ctx, Request[vmStatus]{
		Describe: "vm to stop",
		Accessor: func(c context.Context) (vmStatus, error) {
			calls++
			if calls == 2 {
				cancel()
			}
			return statusRunning, nil
		},
		Predicate: func(s vmStatus) bool { return s == statusStopped },
		Interval:  time.Second,
		Clock:     clock,
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, OutcomeFailed, res.Outcome)
}

func TestPollRejectsMissingAccessorOrInterval(t *testing.T) {
	_, err := Poll(context.Background(), Request[vmStatus]{
		Predicate: func(s vmStatus) bool { return true },
		Interval:  time.Second,
	})
	require.Error(t, err)

	_, err = Poll(context.Background(), Request[vmStatus]{
		Accessor:  func(ctx context.Context) (vmStatus, error) { return statusRunning, nil },
		Predicate: func(s vmStatus) bool { return true },
	})
	require.Error(t, err)
}

func TestPollStoppedScenario(t *testing.T) {
	// accessor sequence [false, false, true] for "stopped", 5s interval,
	// unbounded: Satisfied after 3 calls and 2 simulated sleeps.
	clock := newFakeClock()
	calls := 0
	seq := []vmStatus{statusRunning, statusRunning, statusStopped}

	res, err := Poll(context.Background(), Request[vmStatus]{
		Describe:  "vm to report stopped",
		Accessor:  sequenceAccessor(seq, &calls),
		Predicate: func(s vmStatus) bool { return s == statusStopped },
		Interval:  5 * time.Second,
		Clock:     clock,
	})

	require.NoError(t, err)
	assert.Equal(t, statusStopped, res.Status)
	assert.Equal(t, 3, calls)
	assert.Len(t, clock.sleeps, 2)
}

func TestPollImportStatusScenario(t *testing.T) {
	// Image import sequence [Uploading, Uploading, Ready] polled every 60s:
	// Satisfied(Ready) on the third check.
	clock := newFakeClock()
	calls := 0
	seq := []vmStatus{"Uploading", "Uploading", "Ready"}

	res, err := Poll(context.Background(), Request[vmStatus]{
		Describe:    "template image import",
		Accessor:    sequenceAccessor(seq, &calls),
		Predicate:   func(s vmStatus) bool { return s == "Ready" },
		Interval:    60 * time.Second,
		MaxDuration: time.Hour,
		Clock:       clock,
	})

	require.NoError(t, err)
	assert.Equal(t, vmStatus("Ready"), res.Status)
	assert.Equal(t, 3, res.Attempts)
	assert.Len(t, clock.sleeps, 2)
	assert.Equal(t, 2*time.Minute, res.Elapsed)
}
