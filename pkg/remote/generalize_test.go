package remote

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bacalhau-project/imagesmith/pkg/models"
)

type fakeUploadSession struct {
	uploadedPath    string
	uploadedContent []byte
	uploadedMode    os.FileMode
}

func (f *fakeUploadSession) Run(ctx context.Context, command string) (string, string, error) {
	return "", "", nil
}

func (f *fakeUploadSession) Close() error { return nil }

func (f *fakeUploadSession) UploadFile(path string, content []byte, mode os.FileMode) error {
	f.uploadedPath = path
	f.uploadedContent = content
	f.uploadedMode = mode
	return nil
}

type plainSession struct{}

func (plainSession) Run(ctx context.Context, command string) (string, string, error) {
	return "", "", nil
}

func (plainSession) Close() error { return nil }

func TestGeneralizeCommandPerOS(t *testing.T) {
	assert.Contains(t, GeneralizeCommand(models.OSTypeWindows), "sysprep.exe /generalize")
	assert.Contains(t, GeneralizeCommand(models.OSTypeWindows), "/shutdown")
	assert.Contains(t, GeneralizeCommand(models.OSTypeLinux), "sudo bash /tmp/imagesmith-generalize.sh")
}

func TestPrepareGeneralizeUploadsLinuxScript(t *testing.T) {
	session := &fakeUploadSession{}
	err := PrepareGeneralize(context.Background(), models.OSTypeLinux, session)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/imagesmith-generalize.sh", session.uploadedPath)
	assert.Contains(t, string(session.uploadedContent), "waagent -deprovision+user -force")
	assert.Contains(t, string(session.uploadedContent), "shutdown -h")
	assert.Equal(t, os.FileMode(0700), session.uploadedMode)
}

func TestPrepareGeneralizeWindowsIsNoop(t *testing.T) {
	err := PrepareGeneralize(context.Background(), models.OSTypeWindows, plainSession{})
	require.NoError(t, err)
}

func TestPrepareGeneralizeLinuxNeedsUploader(t *testing.T) {
	err := PrepareGeneralize(context.Background(), models.OSTypeLinux, plainSession{})
	require.Error(t, err)
}

func TestEndpointAddress(t *testing.T) {
	assert.Equal(t, "20.13.1.7:5986", Endpoint{Host: "20.13.1.7", Port: 5986}.Address())
}
