package remote

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"

	"github.com/bacalhau-project/imagesmith/pkg/logger"
)

const (
	sshDialTimeout    = 10 * time.Second
	sshDialMaxRetries = 5
)

// SSHSession executes commands over SSH on Linux build VMs.
type SSHSession struct {
	client *ssh.Client
}

// NewSSHSession dials the endpoint, retrying with exponential backoff: the
// sshd on a freshly booted VM can lag the TCP listener by a few seconds.
func NewSSHSession(ctx context.Context, endpoint Endpoint, creds Credentials) (*SSHSession, error) {
	l := logger.Get()

	authMethods, err := sshAuthMethods(creds)
	if err != nil {
		return nil, err
	}

	clientConfig := &ssh.ClientConfig{
		User:            creds.Username,
		Auth:            authMethods,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), //nolint:gosec
		Timeout:         sshDialTimeout,
	}

	var client *ssh.Client
	dial := func() error {
		var dialErr error
		client, dialErr = ssh.Dial("tcp", endpoint.Address(), clientConfig)
		if dialErr != nil {
			l.Debugf("ssh dial %s failed, will retry: %v", endpoint.Address(), dialErr)
		}
		return dialErr
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), sshDialMaxRetries),
		ctx,
	)
	if err := backoff.Retry(dial, policy); err != nil {
		return nil, fmt.Errorf("failed to establish SSH connection to %s: %w", endpoint.Address(), err)
	}

	return &SSHSession{client: client}, nil
}

func sshAuthMethods(creds Credentials) ([]ssh.AuthMethod, error) {
	if creds.PrivateKeyPath != "" {
		keyBytes, err := os.ReadFile(creds.PrivateKeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read private key %s: %w", creds.PrivateKeyPath, err)
		}
		signer, err := ssh.ParsePrivateKey(keyBytes)
		if err != nil {
			return nil, fmt.Errorf("failed to parse private key: %w", err)
		}
		return []ssh.AuthMethod{ssh.PublicKeys(signer)}, nil
	}
	if creds.Password != "" {
		return []ssh.AuthMethod{ssh.Password(creds.Password)}, nil
	}
	return nil, fmt.Errorf("ssh session needs a private key path or a password")
}

// Run executes one command in a fresh SSH session and returns its output.
func (s *SSHSession) Run(ctx context.Context, command string) (string, string, error) {
	session, err := s.client.NewSession()
	if err != nil {
		return "", "", fmt.Errorf("failed to create SSH session: %w", err)
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	done := make(chan error, 1)
	go func() {
		done <- session.Run(command)
	}()

	select {
	case <-ctx.Done():
		_ = session.Signal(ssh.SIGKILL)
		return stdout.String(), stderr.String(), ctx.Err()
	case err := <-done:
		return stdout.String(), stderr.String(), err
	}
}

// UploadFile pushes content to path on the VM over SFTP.
func (s *SSHSession) UploadFile(path string, content []byte, mode os.FileMode) error {
	sftpClient, err := sftp.NewClient(s.client)
	if err != nil {
		return fmt.Errorf("failed to open SFTP subsystem: %w", err)
	}
	defer sftpClient.Close()

	f, err := sftpClient.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create remote file %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.Write(content); err != nil {
		return fmt.Errorf("failed to write remote file %s: %w", path, err)
	}
	if err := sftpClient.Chmod(path, mode); err != nil {
		return fmt.Errorf("failed to chmod remote file %s: %w", path, err)
	}
	return nil
}

func (s *SSHSession) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}
