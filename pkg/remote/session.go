// Package remote opens a command-execution session on the build VM. The
// capture phase uses it exactly once, to launch the in-guest generalization
// utility that shuts the machine down when it finishes.
package remote

import (
	"context"
	"fmt"

	"github.com/bacalhau-project/imagesmith/pkg/models"
)

// Endpoint is a host/port pair the session dials.
type Endpoint struct {
	Host string
	Port int
}

func (e Endpoint) Address() string {
	return fmt.Sprintf("%s:%d", e.Host, e.Port)
}

// Credentials for the session transport. Linux sessions prefer the private
// key when set; Windows sessions always authenticate with the password.
type Credentials struct {
	Username       string
	Password       string
	PrivateKeyPath string
}

// Session runs commands in the guest.
type Session interface {
	Run(ctx context.Context, command string) (stdout, stderr string, err error)
	Close() error
}

// Options tune the session transport.
type Options struct {
	// SkipCertValidation disables TLS verification on the WinRM listener.
	// Build VMs come up with self-signed certificates, so this defaults on
	// for them; it has no effect on SSH.
	SkipCertValidation bool
}

// OpenSession dials the right transport for the build's OS type.
func OpenSession(
	ctx context.Context,
	osType models.OSType,
	endpoint Endpoint,
	creds Credentials,
	opts Options,
) (Session, error) {
	switch osType {
	case models.OSTypeWindows:
		return NewWinRMSession(ctx, endpoint, creds, opts)
	case models.OSTypeLinux:
		return NewSSHSession(ctx, endpoint, creds)
	default:
		return nil, fmt.Errorf("no session transport for os type %q", osType)
	}
}

// OpenSessionSeam is the signature callers hold so tests can substitute a
// fake session factory.
type OpenSessionSeam func(
	ctx context.Context,
	osType models.OSType,
	endpoint Endpoint,
	creds Credentials,
	opts Options,
) (Session, error)
