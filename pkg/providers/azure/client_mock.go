package azure

import (
	"context"

	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/compute/armcompute"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/network/armnetwork"
	"github.com/stretchr/testify/mock"

	"github.com/bacalhau-project/imagesmith/pkg/models"
)

// MockClient is the testify mock for Client used by workflow tests.
type MockClient struct {
	mock.Mock
}

func NewMockClient() *MockClient {
	return new(MockClient)
}

func (m *MockClient) VMExists(ctx context.Context, resourceGroup, vmName string) (bool, error) {
	args := m.Called(ctx, resourceGroup, vmName)
	return args.Bool(0), args.Error(1)
}

func (m *MockClient) GetSubnet(
	ctx context.Context,
	resourceGroup, vnetName, subnetName string,
) (*armnetwork.Subnet, error) {
	args := m.Called(ctx, resourceGroup, vnetName, subnetName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*armnetwork.Subnet), args.Error(1)
}

func (m *MockClient) CreatePublicIP(
	ctx context.Context,
	resourceGroup, location, name string,
	tags map[string]*string,
) (*armnetwork.PublicIPAddress, error) {
	args := m.Called(ctx, resourceGroup, location, name, tags)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*armnetwork.PublicIPAddress), args.Error(1)
}

func (m *MockClient) CreateNetworkInterface(
	ctx context.Context,
	resourceGroup, location, name string,
	subnet *armnetwork.Subnet,
	publicIP *armnetwork.PublicIPAddress,
	tags map[string]*string,
) (*armnetwork.Interface, error) {
	args := m.Called(ctx, resourceGroup, location, name, subnet, publicIP, tags)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*armnetwork.Interface), args.Error(1)
}

func (m *MockClient) CreateVirtualMachine(
	ctx context.Context,
	resourceGroup, vmName string,
	parameters armcompute.VirtualMachine,
) (*armcompute.VirtualMachine, error) {
	args := m.Called(ctx, resourceGroup, vmName, parameters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*armcompute.VirtualMachine), args.Error(1)
}

func (m *MockClient) GetPublicIPAddress(
	ctx context.Context,
	resourceGroup, name string,
) (string, error) {
	args := m.Called(ctx, resourceGroup, name)
	return args.String(0), args.Error(1)
}

func (m *MockClient) VMResourceID(resourceGroup, vmName string) string {
	args := m.Called(resourceGroup, vmName)
	return args.String(0)
}

func (m *MockClient) GetPowerState(
	ctx context.Context,
	resourceGroup, vmName string,
) (models.PowerState, error) {
	args := m.Called(ctx, resourceGroup, vmName)
	return args.Get(0).(models.PowerState), args.Error(1)
}

func (m *MockClient) StartVM(ctx context.Context, resourceGroup, vmName string) error {
	args := m.Called(ctx, resourceGroup, vmName)
	return args.Error(0)
}

func (m *MockClient) PowerOffVM(
	ctx context.Context,
	resourceGroup, vmName string,
	keepAllocated bool,
) error {
	args := m.Called(ctx, resourceGroup, vmName, keepAllocated)
	return args.Error(0)
}

func (m *MockClient) GeneralizeVM(ctx context.Context, resourceGroup, vmName string) error {
	args := m.Called(ctx, resourceGroup, vmName)
	return args.Error(0)
}

func (m *MockClient) ResolveImage(
	ctx context.Context,
	location, resourceGroup string,
	selector models.ImageSelector,
) (*armcompute.ImageReference, error) {
	args := m.Called(ctx, location, resourceGroup, selector)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*armcompute.ImageReference), args.Error(1)
}

func (m *MockClient) CaptureImage(
	ctx context.Context,
	resourceGroup, imageName, location, sourceVMID string,
) (*armcompute.Image, error) {
	args := m.Called(ctx, resourceGroup, imageName, location, sourceVMID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*armcompute.Image), args.Error(1)
}

func (m *MockClient) PublishImageVersion(ctx context.Context, req PublishRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockClient) GetImportState(
	ctx context.Context,
	galleryResourceGroup, galleryName, galleryImageName, version string,
) (models.ImportState, error) {
	args := m.Called(ctx, galleryResourceGroup, galleryName, galleryImageName, version)
	return args.Get(0).(models.ImportState), args.Error(1)
}
