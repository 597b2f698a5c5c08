package remote

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/masterzen/winrm"

	"github.com/bacalhau-project/imagesmith/pkg/logger"
)

const winrmTimeout = 60 * time.Second

// WinRMSession executes commands over WinRM (HTTPS) on Windows build VMs.
type WinRMSession struct {
	client *winrm.Client
}

func NewWinRMSession(
	ctx context.Context,
	endpoint Endpoint,
	creds Credentials,
	opts Options,
) (*WinRMSession, error) {
	l := logger.Get()
	l.Debugf("opening WinRM session to %s (insecure=%v)", endpoint.Address(), opts.SkipCertValidation)

	winrmEndpoint := winrm.NewEndpoint(
		endpoint.Host,
		endpoint.Port,
		true, // HTTPS
		opts.SkipCertValidation,
		nil, nil, nil,
		winrmTimeout,
	)

	client, err := winrm.NewClient(winrmEndpoint, creds.Username, creds.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to create WinRM client for %s: %w", endpoint.Address(), err)
	}
	return &WinRMSession{client: client}, nil
}

func (s *WinRMSession) Run(ctx context.Context, command string) (string, string, error) {
	var stdout, stderr bytes.Buffer
	exitCode, err := s.client.RunWithContext(ctx, command, &stdout, &stderr)
	if err != nil {
		return stdout.String(), stderr.String(), fmt.Errorf("winrm command failed: %w", err)
	}
	if exitCode != 0 {
		return stdout.String(), stderr.String(), fmt.Errorf(
			"winrm command exited with code %d: %s", exitCode, stderr.String())
	}
	return stdout.String(), stderr.String(), nil
}

// Close is a no-op; WinRM is connectionless between commands.
func (s *WinRMSession) Close() error {
	return nil
}
