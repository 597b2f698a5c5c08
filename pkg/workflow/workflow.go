// Package workflow is the image-bake runbook: a strictly sequential chain
// of control-plane calls, each asynchronous transition bridged by the
// condition poller. No step starts before the previous step's wait is
// satisfied, and nothing is cleaned up on mid-flight failure — partially
// built artifacts are left in place for inspection.
package workflow

import (
	"time"

	"github.com/bacalhau-project/imagesmith/pkg/pollster"
	"github.com/bacalhau-project/imagesmith/pkg/providers/azure"
	"github.com/bacalhau-project/imagesmith/pkg/remote"
)

// Workflow carries the collaborators both phases share. Credentials and
// clients are constructed once and passed down; nothing reads ambient
// global state.
type Workflow struct {
	Client   azure.Client
	StateDir string

	// PollInterval/PollTimeout override every wait's defaults when set.
	PollInterval time.Duration
	PollTimeout  time.Duration

	// Test seams.
	Clock       pollster.Clock
	Dial        Dialer
	OpenSession remote.OpenSessionSeam
}

func New(client azure.Client, stateDir string) *Workflow {
	return &Workflow{
		Client:      client,
		StateDir:    stateDir,
		OpenSession: remote.OpenSession,
	}
}
