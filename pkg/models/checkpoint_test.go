package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckpointSaveAndLoad(t *testing.T) {
	stateDir := t.TempDir()

	saved := &Checkpoint{
		RunID:         uuid.New().String(),
		VMName:        "bake-vm-01",
		ResourceGroup: "image-builds",
		Location:      "westeurope",
		OSType:        OSTypeWindows,
		EndpointHost:  "20.13.1.7",
		AdminUsername: "bakeadmin",
		SourceImage:   "MicrosoftWindowsServer:WindowsServer:2022-datacenter (latest)",
		CreatedAt:     time.Now().UTC().Truncate(time.Second),
	}

	path, err := SaveCheckpoint(stateDir, saved)
	require.NoError(t, err)
	assert.FileExists(t, path)

	loaded, err := LoadCheckpoint(stateDir, "bake-vm-01")
	require.NoError(t, err)
	assert.Equal(t, saved.RunID, loaded.RunID)
	assert.Equal(t, saved.EndpointHost, loaded.EndpointHost)
	assert.Equal(t, saved.OSType, loaded.OSType)
	assert.True(t, saved.CreatedAt.Equal(loaded.CreatedAt))
}

func TestLoadCheckpointMissing(t *testing.T) {
	_, err := LoadCheckpoint(t.TempDir(), "never-provisioned")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no checkpoint")
}

func TestSaveCheckpointRejectsIncomplete(t *testing.T) {
	_, err := SaveCheckpoint(t.TempDir(), &Checkpoint{VMName: "x"})
	require.Error(t, err)
}

func TestBuildSpecValidate(t *testing.T) {
	spec := &BuildSpec{
		VMName:        "bake-vm-01",
		ResourceGroup: "image-builds",
		VNetName:      "build-vnet",
		SubnetName:    "default",
		OSType:        OSTypeLinux,
		Source:        CustomImageSelector{Name: "golden-base"},
	}
	require.NoError(t, spec.Validate())

	assert.Equal(t, 22, spec.RemoteDesktopPort())
	assert.Equal(t, 22, spec.RemoteExecPort())

	spec.OSType = OSTypeWindows
	assert.Equal(t, 3389, spec.RemoteDesktopPort())
	assert.Equal(t, 5986, spec.RemoteExecPort())

	spec.Source = nil
	require.Error(t, spec.Validate())
}
