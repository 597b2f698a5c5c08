// Package pollster waits for an externally observed resource to reach a
// desired state: call an accessor, evaluate a predicate, sleep a fixed
// interval, repeat until satisfied or the configured budget runs out.
package pollster

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bacalhau-project/imagesmith/pkg/logger"
)

// ErrTimedOut is returned when the attempt or duration budget is exhausted
// before the predicate holds. The Result still carries the last observed
// status so callers can decide to alert, abort, or extend.
var ErrTimedOut = errors.New("polling timed out before the condition was satisfied")

// Outcome classifies how a poll ended.
type Outcome int

const (
	OutcomeSatisfied Outcome = iota
	OutcomeTimedOut
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSatisfied:
		return "satisfied"
	case OutcomeTimedOut:
		return "timed-out"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Request describes one polling operation.
//
// The accessor performs exactly one externally observable query per tick;
// the predicate is only ever evaluated on the value the most recent accessor
// call returned. IsTransient decides whether an accessor error means "not
// ready yet" (keep polling) or is fatal; the poller itself never classifies
// errors. A nil IsTransient treats every accessor error as fatal.
type Request[S any] struct {
	// Describe names what is being waited on, for log lines.
	Describe string

	Accessor  func(ctx context.Context) (S, error)
	Predicate func(status S) bool

	// Interval is the fixed sleep between ticks. Required.
	Interval time.Duration

	// MaxAttempts bounds the number of ticks; 0 means unbounded.
	MaxAttempts int

	// MaxDuration bounds total elapsed time; 0 means unbounded. Checked
	// before each sleep so the poller never starts a wait it cannot finish
	// inside the budget.
	MaxDuration time.Duration

	IsTransient func(err error) bool

	// Clock defaults to the system clock. Tests inject a fake.
	Clock Clock
}

// Result reports how the poll ended. Status holds the final status on
// OutcomeSatisfied and the last observed status on OutcomeTimedOut; it is
// the zero value when no accessor call ever succeeded.
type Result[S any] struct {
	Outcome  Outcome
	Status   S
	Attempts int
	Elapsed  time.Duration
}

// Poll runs req until the predicate holds, the budget is exhausted, or the
// accessor fails fatally. The returned error is nil on OutcomeSatisfied,
// wraps ErrTimedOut on OutcomeTimedOut, and carries the accessor's error
// (provider diagnostic intact) on OutcomeFailed.
func Poll[S any](ctx context.Context, req Request[S]) (Result[S], error) {
	l := logger.Get()
	var res Result[S]

	if req.Accessor == nil || req.Predicate == nil {
		res.Outcome = OutcomeFailed
		return res, fmt.Errorf("pollster: accessor and predicate are required")
	}
	if req.Interval <= 0 {
		res.Outcome = OutcomeFailed
		return res, fmt.Errorf("pollster: interval must be positive, got %s", req.Interval)
	}

	clock := req.Clock
	if clock == nil {
		clock = NewSystemClock()
	}
	if req.MaxAttempts == 0 && req.MaxDuration == 0 {
		l.Warnf("pollster: %q has no attempt or duration bound and can wait forever", req.Describe)
	}

	start := clock.Now()

	for {
		res.Attempts++

		status, err := req.Accessor(ctx)
		if err != nil {
			if req.IsTransient == nil || !req.IsTransient(err) {
				res.Outcome = OutcomeFailed
				res.Elapsed = clock.Now().Sub(start)
				return res, err
			}
			l.Debugf("pollster: %q attempt %d not ready: %v", req.Describe, res.Attempts, err)
		} else {
			res.Status = status
			if req.Predicate(status) {
				res.Outcome = OutcomeSatisfied
				res.Elapsed = clock.Now().Sub(start)
				l.Debugf("pollster: %q satisfied after %d attempt(s)", req.Describe, res.Attempts)
				return res, nil
			}
		}

		if req.MaxAttempts > 0 && res.Attempts >= req.MaxAttempts {
			res.Outcome = OutcomeTimedOut
			res.Elapsed = clock.Now().Sub(start)
			return res, fmt.Errorf("%q after %d attempt(s): %w", req.Describe, res.Attempts, ErrTimedOut)
		}
		if req.MaxDuration > 0 && clock.Now().Sub(start)+req.Interval > req.MaxDuration {
			res.Outcome = OutcomeTimedOut
			res.Elapsed = clock.Now().Sub(start)
			return res, fmt.Errorf("%q after %s: %w", req.Describe, res.Elapsed, ErrTimedOut)
		}

		if err := clock.Sleep(ctx, req.Interval); err != nil {
			res.Outcome = OutcomeFailed
			res.Elapsed = clock.Now().Sub(start)
			return res, err
		}
	}
}
