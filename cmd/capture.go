package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bacalhau-project/imagesmith/pkg/display"
	"github.com/bacalhau-project/imagesmith/pkg/models"
)

var (
	capVMName           string
	capSpecializedName  string
	capGeneralizedName  string
	capGalleryRG        string
	capGalleryName      string
	capGalleryImage     string
	capGalleryVersion   string
	capGalleryLocation  string
	capReplicaRegions   string
	capAdminPassword    string
	capSSHPrivateKey    string
	capValidateWinRMTLS bool
)

// captureCmd resumes from the provision checkpoint and runs the second
// phase of the bake: specialized capture, in-guest generalization,
// generalized capture, gallery import.
var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Capture images from a customized build VM",
	Long: `Capture stops the customized build VM and snapshots it as a
specialized image, restarts it to run in-guest generalization, snapshots the
generalized result, and imports it into the compute gallery. It resumes from
the checkpoint "imagesmith provision" wrote.`,
	RunE: runCapture,
}

func init() {
	captureCmd.Flags().StringVar(&capVMName, "name", "", "Name of the build VM to capture")
	captureCmd.Flags().StringVar(&capSpecializedName, "specialized-image", "",
		"Name for the specialized image (default <name>-specialized)")
	captureCmd.Flags().StringVar(&capGeneralizedName, "generalized-image", "",
		"Name for the generalized image (default <name>-generalized)")
	captureCmd.Flags().StringVar(&capGalleryRG, "gallery-resource-group", "",
		"Resource group of the gallery (default: the build VM's)")
	captureCmd.Flags().StringVar(&capGalleryName, "gallery", "", "Compute gallery to import into")
	captureCmd.Flags().StringVar(&capGalleryImage, "gallery-image", "", "Gallery image definition name")
	captureCmd.Flags().StringVar(&capGalleryVersion, "gallery-version", "1.0.0", "Gallery image version to publish")
	captureCmd.Flags().StringVar(&capGalleryLocation, "gallery-location", "",
		"Location of the gallery version (default: the build VM's)")
	captureCmd.Flags().StringVar(&capReplicaRegions, "replica-regions", "",
		"Comma-separated extra regions to replicate the gallery version to")
	captureCmd.Flags().StringVar(&capAdminPassword, "admin-password", "",
		"Admin password for the generalization session (or set IMAGESMITH_ADMIN_PASSWORD)")
	captureCmd.Flags().StringVar(&capSSHPrivateKey, "ssh-private-key", "",
		"Path to the SSH private key for Linux generalization sessions")
	captureCmd.Flags().BoolVar(&capValidateWinRMTLS, "validate-winrm-tls", false,
		"Verify the WinRM listener certificate instead of accepting the self-signed default")

	_ = captureCmd.MarkFlagRequired("name")
	_ = captureCmd.MarkFlagRequired("gallery")
	_ = captureCmd.MarkFlagRequired("gallery-image")
}

func runCapture(cmd *cobra.Command, args []string) error {
	w, err := newWorkflow()
	if err != nil {
		return err
	}

	checkpoint, err := models.LoadCheckpoint(w.StateDir, capVMName)
	if err != nil {
		return err
	}

	spec := captureSpecFromFlags(checkpoint)

	s := display.NewSpinner(fmt.Sprintf("Capturing images from %s", checkpoint.VMName))
	result, err := w.Capture(cmd.Context(), spec, checkpoint)
	s.Stop()
	if err != nil {
		return err
	}

	table := display.NewStatusTable(cmd.OutOrStdout())
	table.AddRow("Specialized image", result.SpecializedImageID)
	table.AddRow("Generalized image", result.GeneralizedImageID)
	table.AddRow("Gallery", result.GalleryName)
	table.AddRow("Gallery image", result.GalleryImageName)
	table.AddRow("Version", result.GalleryVersion)
	table.Render()
	return nil
}

func captureSpecFromFlags(checkpoint *models.Checkpoint) *models.BuildSpec {
	specializedName := capSpecializedName
	if specializedName == "" {
		specializedName = checkpoint.VMName + "-specialized"
	}
	generalizedName := capGeneralizedName
	if generalizedName == "" {
		generalizedName = checkpoint.VMName + "-generalized"
	}

	password := capAdminPassword
	if password == "" {
		password = viper.GetString("admin_password")
	}

	var replicaRegions []string
	if capReplicaRegions != "" {
		for _, region := range strings.Split(capReplicaRegions, ",") {
			if region = strings.TrimSpace(region); region != "" {
				replicaRegions = append(replicaRegions, region)
			}
		}
	}

	return &models.BuildSpec{
		VMName:        checkpoint.VMName,
		ResourceGroup: checkpoint.ResourceGroup,
		Location:      checkpoint.Location,
		OSType:        checkpoint.OSType,
		Admin: models.AdminCredentials{
			Username:          checkpoint.AdminUsername,
			Password:          password,
			SSHPrivateKeyPath: capSSHPrivateKey,
		},
		SpecializedImageName: specializedName,
		GeneralizedImageName: generalizedName,
		GalleryResourceGroup: capGalleryRG,
		GalleryName:          capGalleryName,
		GalleryImageName:     capGalleryImage,
		GalleryImageVersion:  capGalleryVersion,
		GalleryLocation:      capGalleryLocation,
		ReplicaRegions:       replicaRegions,
		SkipCertValidation:   !capValidateWinRMTLS,
	}
}
