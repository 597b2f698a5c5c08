package azure

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/compute/armcompute"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/network/armnetwork"

	"github.com/bacalhau-project/imagesmith/pkg/logger"
	"github.com/bacalhau-project/imagesmith/pkg/models"
)

// LiveClient wraps the Azure SDK clients the workflow touches.
type LiveClient struct {
	subscriptionID             string
	virtualMachinesClient      *armcompute.VirtualMachinesClient
	imagesClient               *armcompute.ImagesClient
	vmImagesClient             *armcompute.VirtualMachineImagesClient
	galleryImageVersionsClient *armcompute.GalleryImageVersionsClient
	publicIPAddressesClient    *armnetwork.PublicIPAddressesClient
	interfacesClient           *armnetwork.InterfacesClient
	subnetsClient              *armnetwork.SubnetsClient
}

// NewLiveClient builds a client from the default credential chain (env,
// workload identity, managed identity, CLI).
func NewLiveClient(subscriptionID string) (Client, error) {
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to obtain Azure credential: %w", err)
	}

	virtualMachinesClient, err := armcompute.NewVirtualMachinesClient(subscriptionID, cred, nil)
	if err != nil {
		return nil, err
	}
	imagesClient, err := armcompute.NewImagesClient(subscriptionID, cred, nil)
	if err != nil {
		return nil, err
	}
	vmImagesClient, err := armcompute.NewVirtualMachineImagesClient(subscriptionID, cred, nil)
	if err != nil {
		return nil, err
	}
	galleryImageVersionsClient, err := armcompute.NewGalleryImageVersionsClient(subscriptionID, cred, nil)
	if err != nil {
		return nil, err
	}
	publicIPAddressesClient, err := armnetwork.NewPublicIPAddressesClient(subscriptionID, cred, nil)
	if err != nil {
		return nil, err
	}
	interfacesClient, err := armnetwork.NewInterfacesClient(subscriptionID, cred, nil)
	if err != nil {
		return nil, err
	}
	subnetsClient, err := armnetwork.NewSubnetsClient(subscriptionID, cred, nil)
	if err != nil {
		return nil, err
	}

	return &LiveClient{
		subscriptionID:             subscriptionID,
		virtualMachinesClient:      virtualMachinesClient,
		imagesClient:               imagesClient,
		vmImagesClient:             vmImagesClient,
		galleryImageVersionsClient: galleryImageVersionsClient,
		publicIPAddressesClient:    publicIPAddressesClient,
		interfacesClient:           interfacesClient,
		subnetsClient:              subnetsClient,
	}, nil
}

func (c *LiveClient) VMResourceID(resourceGroup, vmName string) string {
	return fmt.Sprintf(
		"/subscriptions/%s/resourceGroups/%s/providers/Microsoft.Compute/virtualMachines/%s",
		c.subscriptionID, resourceGroup, vmName,
	)
}

func (c *LiveClient) VMExists(ctx context.Context, resourceGroup, vmName string) (bool, error) {
	_, err := c.virtualMachinesClient.Get(ctx, resourceGroup, vmName, nil)
	if err != nil {
		if IsNotFound(err) {
			return false, nil
		}
		return false, wrapProviderError("failed to check for existing VM", err)
	}
	return true, nil
}

func (c *LiveClient) GetSubnet(
	ctx context.Context,
	resourceGroup, vnetName, subnetName string,
) (*armnetwork.Subnet, error) {
	resp, err := c.subnetsClient.Get(ctx, resourceGroup, vnetName, subnetName, nil)
	if err != nil {
		return nil, wrapProviderError(
			fmt.Sprintf("failed to get subnet %s/%s", vnetName, subnetName), err)
	}
	return &resp.Subnet, nil
}

func (c *LiveClient) CreatePublicIP(
	ctx context.Context,
	resourceGroup, location, name string,
	tags map[string]*string,
) (*armnetwork.PublicIPAddress, error) {
	l := logger.Get()
	l.Debugf("creating public IP %s in %s", name, resourceGroup)

	publicIP := armnetwork.PublicIPAddress{
		Location: to.Ptr(location),
		Tags:     tags,
		Properties: &armnetwork.PublicIPAddressPropertiesFormat{
			PublicIPAllocationMethod: to.Ptr(armnetwork.IPAllocationMethodStatic),
		},
	}

	poller, err := c.publicIPAddressesClient.BeginCreateOrUpdate(ctx, resourceGroup, name, publicIP, nil)
	if err != nil {
		return nil, wrapProviderError("failed to start creating public IP", err)
	}
	resp, err := poller.PollUntilDone(ctx, nil)
	if err != nil {
		return nil, wrapProviderError("failed to create public IP", err)
	}
	return &resp.PublicIPAddress, nil
}

func (c *LiveClient) CreateNetworkInterface(
	ctx context.Context,
	resourceGroup, location, name string,
	subnet *armnetwork.Subnet,
	publicIP *armnetwork.PublicIPAddress,
	tags map[string]*string,
) (*armnetwork.Interface, error) {
	nic := armnetwork.Interface{
		Location: to.Ptr(location),
		Tags:     tags,
		Properties: &armnetwork.InterfacePropertiesFormat{
			IPConfigurations: []*armnetwork.InterfaceIPConfiguration{
				{
					Name: to.Ptr("ipconfig"),
					Properties: &armnetwork.InterfaceIPConfigurationPropertiesFormat{
						Subnet:                    subnet,
						PrivateIPAllocationMethod: to.Ptr(armnetwork.IPAllocationMethodDynamic),
						PublicIPAddress:           publicIP,
					},
				},
			},
		},
	}

	poller, err := c.interfacesClient.BeginCreateOrUpdate(ctx, resourceGroup, name, nic, nil)
	if err != nil {
		return nil, wrapProviderError("failed to start creating network interface", err)
	}
	resp, err := poller.PollUntilDone(ctx, nil)
	if err != nil {
		return nil, wrapProviderError("failed to create network interface", err)
	}
	return &resp.Interface, nil
}

func (c *LiveClient) CreateVirtualMachine(
	ctx context.Context,
	resourceGroup, vmName string,
	parameters armcompute.VirtualMachine,
) (*armcompute.VirtualMachine, error) {
	l := logger.Get()
	l.Infof("creating virtual machine %s in %s", vmName, resourceGroup)

	poller, err := c.virtualMachinesClient.BeginCreateOrUpdate(ctx, resourceGroup, vmName, parameters, nil)
	if err != nil {
		return nil, wrapProviderError("failed to start creating virtual machine", err)
	}
	resp, err := poller.PollUntilDone(ctx, nil)
	if err != nil {
		return nil, wrapProviderError("failed to create virtual machine", err)
	}
	return &resp.VirtualMachine, nil
}

func (c *LiveClient) GetPublicIPAddress(
	ctx context.Context,
	resourceGroup, name string,
) (string, error) {
	resp, err := c.publicIPAddressesClient.Get(ctx, resourceGroup, name, nil)
	if err != nil {
		return "", wrapProviderError("failed to get public IP address", err)
	}
	if resp.Properties == nil || resp.Properties.IPAddress == nil {
		return "", fmt.Errorf("public IP %s has no address assigned yet", name)
	}
	return *resp.Properties.IPAddress, nil
}

// GetPowerState reads the instance view and reports the VM lifecycle state.
func (c *LiveClient) GetPowerState(
	ctx context.Context,
	resourceGroup, vmName string,
) (models.PowerState, error) {
	resp, err := c.virtualMachinesClient.InstanceView(ctx, resourceGroup, vmName, nil)
	if err != nil {
		return models.PowerStateUnknown, wrapProviderError("failed to get VM instance view", err)
	}

	state := models.PowerStateUnknown
	for _, status := range resp.Statuses {
		if status == nil || status.Code == nil {
			continue
		}
		if mapped := models.PowerStateFromCode(*status.Code); mapped != models.PowerStateUnknown {
			state = mapped
		}
	}
	return state, nil
}

// StartVM issues the start request without waiting; callers poll the
// instance view for Running.
func (c *LiveClient) StartVM(ctx context.Context, resourceGroup, vmName string) error {
	_, err := c.virtualMachinesClient.BeginStart(ctx, resourceGroup, vmName, nil)
	if err != nil {
		return wrapProviderError("failed to start VM", err)
	}
	return nil
}

// PowerOffVM issues the stop request without waiting; callers poll the
// instance view for Stopped. keepAllocated keeps the compute allocation so
// the machine can restart quickly between captures.
func (c *LiveClient) PowerOffVM(
	ctx context.Context,
	resourceGroup, vmName string,
	keepAllocated bool,
) error {
	if keepAllocated {
		_, err := c.virtualMachinesClient.BeginPowerOff(ctx, resourceGroup, vmName, nil)
		if err != nil {
			return wrapProviderError("failed to power off VM", err)
		}
		return nil
	}
	_, err := c.virtualMachinesClient.BeginDeallocate(ctx, resourceGroup, vmName, nil)
	if err != nil {
		return wrapProviderError("failed to deallocate VM", err)
	}
	return nil
}

// GeneralizeVM marks the VM generalized on the control plane after the
// in-guest generalization utility has run and shut the machine down.
func (c *LiveClient) GeneralizeVM(ctx context.Context, resourceGroup, vmName string) error {
	_, err := c.virtualMachinesClient.Generalize(ctx, resourceGroup, vmName, nil)
	if err != nil {
		return wrapProviderError("failed to generalize VM", err)
	}
	return nil
}
