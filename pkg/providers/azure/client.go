package azure

import (
	"context"

	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/compute/armcompute"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/network/armnetwork"

	"github.com/bacalhau-project/imagesmith/pkg/models"
)

// PublishRequest names everything a gallery image version import needs.
type PublishRequest struct {
	GalleryResourceGroup string
	GalleryName          string
	GalleryImageName     string
	Version              string
	Location             string
	SourceImageID        string
	ReplicaRegions       []string
}

// Client wraps the Azure SDK calls the bake workflow performs. The live
// implementation is LiveClient; tests swap in MockClient.
type Client interface {
	// VM provisioning
	VMExists(ctx context.Context, resourceGroup, vmName string) (bool, error)
	GetSubnet(ctx context.Context, resourceGroup, vnetName, subnetName string) (*armnetwork.Subnet, error)
	CreatePublicIP(ctx context.Context, resourceGroup, location, name string, tags map[string]*string) (*armnetwork.PublicIPAddress, error)
	CreateNetworkInterface(ctx context.Context, resourceGroup, location, name string, subnet *armnetwork.Subnet, publicIP *armnetwork.PublicIPAddress, tags map[string]*string) (*armnetwork.Interface, error)
	CreateVirtualMachine(ctx context.Context, resourceGroup, vmName string, parameters armcompute.VirtualMachine) (*armcompute.VirtualMachine, error)
	GetPublicIPAddress(ctx context.Context, resourceGroup, name string) (string, error)

	// VMResourceID builds the ARM resource ID image capture references.
	VMResourceID(resourceGroup, vmName string) string

	// VM lifecycle
	GetPowerState(ctx context.Context, resourceGroup, vmName string) (models.PowerState, error)
	StartVM(ctx context.Context, resourceGroup, vmName string) error
	PowerOffVM(ctx context.Context, resourceGroup, vmName string, keepAllocated bool) error
	GeneralizeVM(ctx context.Context, resourceGroup, vmName string) error

	// Images
	ResolveImage(ctx context.Context, location, resourceGroup string, selector models.ImageSelector) (*armcompute.ImageReference, error)
	CaptureImage(ctx context.Context, resourceGroup, imageName, location, sourceVMID string) (*armcompute.Image, error)
	PublishImageVersion(ctx context.Context, req PublishRequest) error
	GetImportState(ctx context.Context, galleryResourceGroup, galleryName, galleryImageName, version string) (models.ImportState, error)
}

// NewClientFunc is the seam tests use to substitute a mock client.
var NewClientFunc = NewLiveClient
