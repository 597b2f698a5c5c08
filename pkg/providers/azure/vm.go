package azure

import (
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/compute/armcompute"

	"github.com/bacalhau-project/imagesmith/pkg/models"
)

// Resource names derived from the VM name, matching what provision creates
// and what capture later looks up.
func PublicIPName(vmName string) string {
	return vmName + "-ip"
}

func NICName(vmName string) string {
	return vmName + "-nic"
}

// NewVirtualMachineParameters assembles the create-VM request for a build
// spec. OS-specific configuration: Linux VMs get key-only SSH when a public
// key is present, Windows VMs get the admin password and provisioning
// agent.
func NewVirtualMachineParameters(
	spec *models.BuildSpec,
	imageRef *armcompute.ImageReference,
	nicID string,
	tags map[string]*string,
) (armcompute.VirtualMachine, error) {
	if imageRef == nil {
		return armcompute.VirtualMachine{}, fmt.Errorf("image reference is required")
	}
	if nicID == "" {
		return armcompute.VirtualMachine{}, fmt.Errorf("network interface ID is required")
	}

	osProfile := &armcompute.OSProfile{
		ComputerName:  to.Ptr(spec.VMName),
		AdminUsername: to.Ptr(spec.Admin.Username),
	}

	switch spec.OSType {
	case models.OSTypeLinux:
		if spec.Admin.SSHPublicKey != "" {
			osProfile.LinuxConfiguration = &armcompute.LinuxConfiguration{
				DisablePasswordAuthentication: to.Ptr(true),
				SSH: &armcompute.SSHConfiguration{
					PublicKeys: []*armcompute.SSHPublicKey{
						{
							Path: to.Ptr(
								fmt.Sprintf("/home/%s/.ssh/authorized_keys", spec.Admin.Username)),
							KeyData: to.Ptr(spec.Admin.SSHPublicKey),
						},
					},
				},
			}
		} else {
			osProfile.AdminPassword = to.Ptr(spec.Admin.Password)
			osProfile.LinuxConfiguration = &armcompute.LinuxConfiguration{
				DisablePasswordAuthentication: to.Ptr(false),
			}
		}
	case models.OSTypeWindows:
		osProfile.AdminPassword = to.Ptr(spec.Admin.Password)
		osProfile.WindowsConfiguration = &armcompute.WindowsConfiguration{
			ProvisionVMAgent:       to.Ptr(true),
			EnableAutomaticUpdates: to.Ptr(false),
		}
	default:
		return armcompute.VirtualMachine{}, fmt.Errorf("unsupported os type %q", spec.OSType)
	}

	vm := armcompute.VirtualMachine{
		Location: to.Ptr(spec.Location),
		Tags:     tags,
		Properties: &armcompute.VirtualMachineProperties{
			HardwareProfile: &armcompute.HardwareProfile{
				VMSize: to.Ptr(armcompute.VirtualMachineSizeTypes(spec.VMSize)),
			},
			OSProfile: osProfile,
			StorageProfile: &armcompute.StorageProfile{
				ImageReference: imageRef,
				OSDisk: &armcompute.OSDisk{
					CreateOption: to.Ptr(armcompute.DiskCreateOptionTypesFromImage),
					ManagedDisk: &armcompute.ManagedDiskParameters{
						StorageAccountType: to.Ptr(armcompute.StorageAccountTypesStandardSSDLRS),
					},
				},
			},
			NetworkProfile: &armcompute.NetworkProfile{
				NetworkInterfaces: []*armcompute.NetworkInterfaceReference{
					{
						ID: to.Ptr(nicID),
						Properties: &armcompute.NetworkInterfaceReferenceProperties{
							Primary: to.Ptr(true),
						},
					},
				},
			},
		},
	}
	return vm, nil
}
