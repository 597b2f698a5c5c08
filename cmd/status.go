package cmd

import (
	"github.com/spf13/cobra"

	"github.com/bacalhau-project/imagesmith/pkg/display"
	"github.com/bacalhau-project/imagesmith/pkg/logger"
	"github.com/bacalhau-project/imagesmith/pkg/models"
)

var statusVMName string

// statusCmd shows the checkpoint for a build plus the VM's live power state.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the state of an in-flight image bake",
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusVMName, "name", "", "Name of the build VM")
	_ = statusCmd.MarkFlagRequired("name")
}

func runStatus(cmd *cobra.Command, args []string) error {
	w, err := newWorkflow()
	if err != nil {
		return err
	}

	checkpoint, err := models.LoadCheckpoint(w.StateDir, statusVMName)
	if err != nil {
		return err
	}

	powerState := models.PowerStateUnknown
	state, err := w.Client.GetPowerState(cmd.Context(), checkpoint.ResourceGroup, checkpoint.VMName)
	if err != nil {
		logger.Get().Warnf("could not read power state for %s: %v", checkpoint.VMName, err)
	} else {
		powerState = state
	}

	table := display.NewStatusTable(cmd.OutOrStdout())
	table.AddRow("Build VM", checkpoint.VMName)
	table.AddRow("Run ID", checkpoint.RunID)
	table.AddRow("Resource group", checkpoint.ResourceGroup)
	table.AddRow("Location", checkpoint.Location)
	table.AddRow("OS type", string(checkpoint.OSType))
	table.AddRow("Source image", checkpoint.SourceImage)
	table.AddRow("Endpoint", checkpoint.EndpointHost)
	table.AddRow("Admin user", checkpoint.AdminUsername)
	table.AddRow("Power state", string(powerState))
	table.AddRow("Provisioned", checkpoint.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	table.Render()
	return nil
}
