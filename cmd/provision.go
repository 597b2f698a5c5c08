package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bacalhau-project/imagesmith/pkg/display"
	"github.com/bacalhau-project/imagesmith/pkg/models"
)

var (
	provVMName        string
	provResourceGroup string
	provLocation      string
	provVNet          string
	provSubnet        string
	provVMSize        string
	provOSType        string
	provImageFamily   string
	provCustomImage   string
	provAdminUser     string
	provAdminPassword string
	provSSHPublicKey  string
)

// provisionCmd creates the build VM and stops once its remote-desktop
// endpoint answers. The operator then customizes the machine interactively
// and comes back with `imagesmith capture`.
var provisionCmd = &cobra.Command{
	Use:   "provision",
	Short: "Provision a build VM from a base image",
	Long: `Provision creates the build VM and waits until its remote-desktop
endpoint accepts connections, then writes a checkpoint and exits. Customize
the machine over RDP or SSH, then run "imagesmith capture" to finish the bake.`,
	RunE: runProvision,
}

func init() {
	provisionCmd.Flags().StringVar(&provVMName, "name", "", "Name of the build VM")
	provisionCmd.Flags().StringVar(&provResourceGroup, "resource-group", "", "Resource group for the build VM")
	provisionCmd.Flags().StringVar(&provLocation, "location", "", "Azure location for the build VM")
	provisionCmd.Flags().StringVar(&provVNet, "vnet", "", "Virtual network the build VM joins")
	provisionCmd.Flags().StringVar(&provSubnet, "subnet", "default", "Subnet inside the virtual network")
	provisionCmd.Flags().StringVar(&provVMSize, "size", "Standard_D2s_v5", "VM size")
	provisionCmd.Flags().StringVar(&provOSType, "os", "windows", "Guest OS type: windows or linux")
	provisionCmd.Flags().StringVar(&provImageFamily, "image-family", "",
		"Marketplace base image as publisher:offer:sku (latest version)")
	provisionCmd.Flags().StringVar(&provCustomImage, "custom-image", "",
		"Name of a managed image in the resource group to build from")
	provisionCmd.Flags().StringVar(&provAdminUser, "admin-username", "", "Admin account on the build VM")
	provisionCmd.Flags().StringVar(&provAdminPassword, "admin-password", "",
		"Admin password (or set IMAGESMITH_ADMIN_PASSWORD)")
	provisionCmd.Flags().StringVar(&provSSHPublicKey, "ssh-public-key", "",
		"Path to the SSH public key baked into Linux build VMs")

	_ = provisionCmd.MarkFlagRequired("name")
	_ = provisionCmd.MarkFlagRequired("resource-group")
	_ = provisionCmd.MarkFlagRequired("vnet")
	_ = provisionCmd.MarkFlagRequired("admin-username")
	provisionCmd.MarkFlagsMutuallyExclusive("image-family", "custom-image")
	provisionCmd.MarkFlagsOneRequired("image-family", "custom-image")
}

func runProvision(cmd *cobra.Command, args []string) error {
	spec, err := provisionSpecFromFlags()
	if err != nil {
		return err
	}

	w, err := newWorkflow()
	if err != nil {
		return err
	}

	s := display.NewSpinner(fmt.Sprintf("Provisioning build VM %s", spec.VMName))
	checkpoint, err := w.Provision(cmd.Context(), spec)
	s.Stop()
	if err != nil {
		return err
	}

	fmt.Printf("Build VM %s is reachable at %s:%d.\n",
		checkpoint.VMName, checkpoint.EndpointHost, spec.RemoteDesktopPort())
	fmt.Printf("Customize the machine, then run: imagesmith capture --name %s\n", checkpoint.VMName)
	return nil
}

func provisionSpecFromFlags() (*models.BuildSpec, error) {
	osType, ok := models.ParseOSType(provOSType)
	if !ok {
		return nil, fmt.Errorf("unknown os type %q, expected windows or linux", provOSType)
	}

	source, err := models.ParseImageSelector(provImageFamily, provCustomImage)
	if err != nil {
		return nil, err
	}

	password := provAdminPassword
	if password == "" {
		password = viper.GetString("admin_password")
	}

	var publicKey string
	if provSSHPublicKey != "" {
		data, err := os.ReadFile(provSSHPublicKey)
		if err != nil {
			return nil, fmt.Errorf("failed to read ssh public key: %w", err)
		}
		publicKey = strings.TrimSpace(string(data))
	}

	location := provLocation
	if location == "" {
		location = viper.GetString("azure.location")
	}
	if location == "" {
		return nil, fmt.Errorf("location is required (flag --location or config azure.location)")
	}

	return &models.BuildSpec{
		VMName:        provVMName,
		ResourceGroup: provResourceGroup,
		Location:      location,
		VNetName:      provVNet,
		SubnetName:    provSubnet,
		VMSize:        provVMSize,
		OSType:        osType,
		Source:        source,
		Admin: models.AdminCredentials{
			Username:     provAdminUser,
			Password:     password,
			SSHPublicKey: publicKey,
		},
	}, nil
}
