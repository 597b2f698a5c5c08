package workflow

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/bacalhau-project/imagesmith/pkg/models"
	"github.com/bacalhau-project/imagesmith/pkg/pollster"
	"github.com/bacalhau-project/imagesmith/pkg/providers/azure"
)

// Default polling budgets. Every wait in the runbook is bounded; a build VM
// that never reaches the target state surfaces as ErrTimedOut instead of a
// hung process.
const (
	defaultEndpointInterval = 10 * time.Second
	defaultEndpointTimeout  = 15 * time.Minute

	defaultPowerInterval = 10 * time.Second
	defaultPowerTimeout  = 20 * time.Minute

	defaultImportInterval = 60 * time.Second
	defaultImportTimeout  = 2 * time.Hour

	endpointDialTimeout = 5 * time.Second
)

// Dialer is the TCP probe used for endpoint readiness; tests inject a fake.
type Dialer func(network, address string, timeout time.Duration) (net.Conn, error)

func (w *Workflow) interval(fallback time.Duration) time.Duration {
	if w.PollInterval > 0 {
		return w.PollInterval
	}
	return fallback
}

func (w *Workflow) timeout(fallback time.Duration) time.Duration {
	if w.PollTimeout > 0 {
		return w.PollTimeout
	}
	return fallback
}

// waitForEndpoint blocks until the remote-desktop port accepts a TCP
// connection. A successful connect is a readiness heuristic: the listener
// answering does not prove the session stack behind it is fully up, but it
// is the signal the capture workflow keys off. Every dial failure is
// treated as "not ready yet".
func (w *Workflow) waitForEndpoint(ctx context.Context, endpoint string) error {
	dial := w.Dial
	if dial == nil {
		dial = net.DialTimeout
	}

	_, err := pollster.Poll(ctx, pollster.Request[bool]{
		Describe: fmt.Sprintf("endpoint %s to accept connections", endpoint),
		Accessor: func(ctx context.Context) (bool, error) {
			conn, dialErr := dial("tcp", endpoint, endpointDialTimeout)
			if dialErr != nil {
				return false, dialErr
			}
			_ = conn.Close()
			return true, nil
		},
		Predicate:   func(up bool) bool { return up },
		Interval:    w.interval(defaultEndpointInterval),
		MaxDuration: w.timeout(defaultEndpointTimeout),
		IsTransient: func(error) bool { return true },
		Clock:       w.Clock,
	})
	return err
}

// waitForPowerState blocks until the VM instance view reports the wanted
// lifecycle state. Accessor errors are control-plane failures and fatal.
func (w *Workflow) waitForPowerState(
	ctx context.Context,
	resourceGroup, vmName string,
	want func(models.PowerState) bool,
	describe string,
) (models.PowerState, error) {
	res, err := pollster.Poll(ctx, pollster.Request[models.PowerState]{
		Describe: describe,
		Accessor: func(ctx context.Context) (models.PowerState, error) {
			return w.Client.GetPowerState(ctx, resourceGroup, vmName)
		},
		Predicate:   want,
		Interval:    w.interval(defaultPowerInterval),
		MaxDuration: w.timeout(defaultPowerTimeout),
		Clock:       w.Clock,
	})
	return res.Status, err
}

// waitForImport blocks until the gallery image version reports Ready. A
// Failed import state is terminal and aborts the poll immediately.
func (w *Workflow) waitForImport(ctx context.Context, req azure.PublishRequest) error {
	_, err := pollster.Poll(ctx, pollster.Request[models.ImportState]{
		Describe: fmt.Sprintf("gallery image %s/%s version %s import",
			req.GalleryName, req.GalleryImageName, req.Version),
		Accessor: func(ctx context.Context) (models.ImportState, error) {
			state, accErr := w.Client.GetImportState(
				ctx, req.GalleryResourceGroup, req.GalleryName, req.GalleryImageName, req.Version)
			if accErr != nil {
				return state, accErr
			}
			if state == models.ImportStateFailed {
				return state, azure.ErrImportFailed
			}
			return state, nil
		},
		Predicate:   func(s models.ImportState) bool { return s == models.ImportStateReady },
		Interval:    w.interval(defaultImportInterval),
		MaxDuration: w.timeout(defaultImportTimeout),
		Clock:       w.Clock,
	})
	return err
}
