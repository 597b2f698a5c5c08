package workflow

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/google/uuid"

	"github.com/bacalhau-project/imagesmith/pkg/logger"
	"github.com/bacalhau-project/imagesmith/pkg/models"
	"github.com/bacalhau-project/imagesmith/pkg/providers/azure"
)

// Provision creates the build VM and waits until its remote-desktop
// endpoint answers, then writes the checkpoint the capture phase resumes
// from. The operator customizes the machine between the two phases.
func (w *Workflow) Provision(ctx context.Context, spec *models.BuildSpec) (*models.Checkpoint, error) {
	l := logger.Get()

	if err := spec.Validate(); err != nil {
		return nil, err
	}

	// Precondition: refuse to touch an existing VM. This aborts before any
	// mutation, distinct from provider failures later in the flow.
	exists, err := w.Client.VMExists(ctx, spec.ResourceGroup, spec.VMName)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%q in %q: %w", spec.VMName, spec.ResourceGroup, azure.ErrVMAlreadyExists)
	}

	imageRef, err := w.Client.ResolveImage(ctx, spec.Location, spec.ResourceGroup, spec.Source)
	if err != nil {
		return nil, err
	}

	runID := uuid.New().String()
	tags := map[string]*string{
		"managed-by": to.Ptr("imagesmith"),
		"run-id":     to.Ptr(runID),
	}

	subnet, err := w.Client.GetSubnet(ctx, spec.ResourceGroup, spec.VNetName, spec.SubnetName)
	if err != nil {
		return nil, err
	}

	publicIP, err := w.Client.CreatePublicIP(
		ctx, spec.ResourceGroup, spec.Location, azure.PublicIPName(spec.VMName), tags)
	if err != nil {
		return nil, err
	}

	nic, err := w.Client.CreateNetworkInterface(
		ctx, spec.ResourceGroup, spec.Location, azure.NICName(spec.VMName), subnet, publicIP, tags)
	if err != nil {
		return nil, err
	}
	if nic.ID == nil {
		return nil, fmt.Errorf("created network interface has no ID")
	}

	vmParams, err := azure.NewVirtualMachineParameters(spec, imageRef, *nic.ID, tags)
	if err != nil {
		return nil, err
	}
	if _, err := w.Client.CreateVirtualMachine(ctx, spec.ResourceGroup, spec.VMName, vmParams); err != nil {
		return nil, err
	}

	endpointHost, err := w.Client.GetPublicIPAddress(
		ctx, spec.ResourceGroup, azure.PublicIPName(spec.VMName))
	if err != nil {
		return nil, err
	}

	endpoint := net.JoinHostPort(endpointHost, strconv.Itoa(spec.RemoteDesktopPort()))
	l.Infof("waiting for %s to accept connections", endpoint)
	if err := w.waitForEndpoint(ctx, endpoint); err != nil {
		return nil, err
	}

	checkpoint := &models.Checkpoint{
		RunID:         runID,
		VMName:        spec.VMName,
		ResourceGroup: spec.ResourceGroup,
		Location:      spec.Location,
		OSType:        spec.OSType,
		EndpointHost:  endpointHost,
		AdminUsername: spec.Admin.Username,
		SourceImage:   spec.Source.String(),
		CreatedAt:     time.Now().UTC(),
	}
	path, err := models.SaveCheckpoint(w.StateDir, checkpoint)
	if err != nil {
		return nil, err
	}

	l.Infof("build VM %s is reachable at %s; checkpoint written to %s", spec.VMName, endpointHost, path)
	return checkpoint, nil
}
