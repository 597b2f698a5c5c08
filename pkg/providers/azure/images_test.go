package azure

import (
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/compute/armcompute"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bacalhau-project/imagesmith/pkg/models"
)

func TestLatestImageVersion(t *testing.T) {
	cases := []struct {
		name     string
		versions []string
		want     string
	}{
		{
			name:     "picks numerically highest",
			versions: []string{"22.4.100", "22.4.99", "22.10.2"},
			want:     "22.10.2",
		},
		{
			name:     "single version",
			versions: []string{"1.0.0"},
			want:     "1.0.0",
		},
		{
			name:     "skips non-semantic entries",
			versions: []string{"latest", "2024.06.01", "not-a-version"},
			want:     "2024.06.01",
		},
		{
			name:     "empty list",
			versions: nil,
			want:     "",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, latestImageVersion(tc.versions))
		})
	}
}

func TestImportStateFrom(t *testing.T) {
	cases := []struct {
		provisioning string
		aggregated   string
		want         models.ImportState
	}{
		{"Creating", "", models.ImportStateUploading},
		{"Succeeded", "InProgress", models.ImportStateUploading},
		{"Succeeded", "Completed", models.ImportStateReady},
		{"Succeeded", "", models.ImportStateReady},
		{"Failed", "", models.ImportStateFailed},
		{"Succeeded", "Failed", models.ImportStateFailed},
		{"", "", models.ImportStateUploading},
	}

	for _, tc := range cases {
		got := importStateFrom(tc.provisioning, tc.aggregated)
		assert.Equal(t, tc.want, got,
			"provisioning=%q aggregated=%q", tc.provisioning, tc.aggregated)
	}
}

func TestNewVirtualMachineParametersLinuxKeyAuth(t *testing.T) {
	spec := &models.BuildSpec{
		VMName:   "bake-vm-01",
		Location: "westeurope",
		VMSize:   "Standard_D4s_v5",
		OSType:   models.OSTypeLinux,
		Admin: models.AdminCredentials{
			Username:     "bakeadmin",
			SSHPublicKey: "ssh-ed25519 AAAA test",
		},
	}
	imageRef := &armcompute.ImageReference{
		Publisher: to.Ptr("Canonical"),
		Offer:     to.Ptr("ubuntu-24_04-lts"),
		SKU:       to.Ptr("server"),
		Version:   to.Ptr("24.4.1"),
	}

	vm, err := NewVirtualMachineParameters(spec, imageRef, "/subscriptions/s/nic-id", nil)
	require.NoError(t, err)

	require.NotNil(t, vm.Properties)
	assert.Equal(t, "westeurope", *vm.Location)
	assert.Equal(t,
		armcompute.VirtualMachineSizeTypes("Standard_D4s_v5"),
		*vm.Properties.HardwareProfile.VMSize)

	linux := vm.Properties.OSProfile.LinuxConfiguration
	require.NotNil(t, linux)
	assert.True(t, *linux.DisablePasswordAuthentication)
	require.Len(t, linux.SSH.PublicKeys, 1)
	assert.Equal(t, "ssh-ed25519 AAAA test", *linux.SSH.PublicKeys[0].KeyData)
	assert.Nil(t, vm.Properties.OSProfile.WindowsConfiguration)
}

func TestNewVirtualMachineParametersWindows(t *testing.T) {
	spec := &models.BuildSpec{
		VMName:   "bake-vm-02",
		Location: "westeurope",
		VMSize:   "Standard_D4s_v5",
		OSType:   models.OSTypeWindows,
		Admin: models.AdminCredentials{
			Username: "bakeadmin",
			Password: "correct-horse-battery",
		},
	}
	imageRef := &armcompute.ImageReference{ID: to.Ptr("/subscriptions/s/images/golden-base")}

	vm, err := NewVirtualMachineParameters(spec, imageRef, "/subscriptions/s/nic-id", nil)
	require.NoError(t, err)

	win := vm.Properties.OSProfile.WindowsConfiguration
	require.NotNil(t, win)
	assert.True(t, *win.ProvisionVMAgent)
	assert.Equal(t, "correct-horse-battery", *vm.Properties.OSProfile.AdminPassword)
	assert.Nil(t, vm.Properties.OSProfile.LinuxConfiguration)
}

func TestNewVirtualMachineParametersRequiresImageAndNIC(t *testing.T) {
	spec := &models.BuildSpec{VMName: "x", OSType: models.OSTypeLinux}

	_, err := NewVirtualMachineParameters(spec, nil, "nic", nil)
	require.Error(t, err)

	_, err = NewVirtualMachineParameters(spec, &armcompute.ImageReference{}, "", nil)
	require.Error(t, err)
}
