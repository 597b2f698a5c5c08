package workflow

import (
	"context"
	"fmt"

	"github.com/bacalhau-project/imagesmith/pkg/logger"
	"github.com/bacalhau-project/imagesmith/pkg/models"
	"github.com/bacalhau-project/imagesmith/pkg/providers/azure"
	"github.com/bacalhau-project/imagesmith/pkg/remote"
)

// CaptureResult names the artifacts one capture run produced.
type CaptureResult struct {
	SpecializedImageID string
	GeneralizedImageID string
	GalleryName        string
	GalleryImageName   string
	GalleryVersion     string
}

// Capture resumes from the provision checkpoint: stop and snapshot the
// customized VM (specialized), restart it, run in-guest generalization,
// snapshot again (generalized), and import the generalized image into the
// gallery.
func (w *Workflow) Capture(
	ctx context.Context,
	spec *models.BuildSpec,
	checkpoint *models.Checkpoint,
) (*CaptureResult, error) {
	l := logger.Get()

	if err := checkpoint.Validate(); err != nil {
		return nil, err
	}
	if spec.SpecializedImageName == "" || spec.GeneralizedImageName == "" {
		return nil, fmt.Errorf("capture: specialized and generalized image names are required")
	}
	if spec.GalleryName == "" || spec.GalleryImageName == "" {
		return nil, fmt.Errorf("capture: gallery and gallery image names are required")
	}

	resourceGroup := checkpoint.ResourceGroup
	vmName := checkpoint.VMName
	vmID := w.Client.VMResourceID(resourceGroup, vmName)

	// Specialized snapshot: stop the guest but keep the allocation so the
	// machine identity and a fast restart survive for the generalize pass.
	l.Infof("stopping %s for the specialized capture", vmName)
	if err := w.Client.PowerOffVM(ctx, resourceGroup, vmName, true); err != nil {
		return nil, err
	}
	if _, err := w.waitForPowerState(
		ctx, resourceGroup, vmName,
		models.PowerState.Halted,
		fmt.Sprintf("%s to stop", vmName),
	); err != nil {
		return nil, err
	}

	specializedImage, err := w.Client.CaptureImage(
		ctx, resourceGroup, spec.SpecializedImageName, checkpoint.Location, vmID)
	if err != nil {
		return nil, err
	}

	// Restart for the in-guest generalization step.
	l.Infof("restarting %s for generalization", vmName)
	if err := w.Client.StartVM(ctx, resourceGroup, vmName); err != nil {
		return nil, err
	}
	if _, err := w.waitForPowerState(
		ctx, resourceGroup, vmName,
		func(s models.PowerState) bool { return s == models.PowerStateRunning },
		fmt.Sprintf("%s to run", vmName),
	); err != nil {
		return nil, err
	}

	if err := w.runGeneralization(ctx, spec, checkpoint); err != nil {
		return nil, err
	}

	// The generalization utility powers the guest off when it finishes.
	if _, err := w.waitForPowerState(
		ctx, resourceGroup, vmName,
		models.PowerState.Halted,
		fmt.Sprintf("%s to shut down after generalization", vmName),
	); err != nil {
		return nil, err
	}

	if err := w.Client.GeneralizeVM(ctx, resourceGroup, vmName); err != nil {
		return nil, err
	}

	generalizedImage, err := w.Client.CaptureImage(
		ctx, resourceGroup, spec.GeneralizedImageName, checkpoint.Location, vmID)
	if err != nil {
		return nil, err
	}
	if generalizedImage.ID == nil {
		return nil, fmt.Errorf("captured generalized image has no ID")
	}

	galleryLocation := spec.GalleryLocation
	if galleryLocation == "" {
		galleryLocation = checkpoint.Location
	}
	galleryResourceGroup := spec.GalleryResourceGroup
	if galleryResourceGroup == "" {
		galleryResourceGroup = resourceGroup
	}
	publishReq := azure.PublishRequest{
		GalleryResourceGroup: galleryResourceGroup,
		GalleryName:          spec.GalleryName,
		GalleryImageName:     spec.GalleryImageName,
		Version:              spec.GalleryImageVersion,
		Location:             galleryLocation,
		SourceImageID:        *generalizedImage.ID,
		ReplicaRegions:       spec.ReplicaRegions,
	}
	if err := w.Client.PublishImageVersion(ctx, publishReq); err != nil {
		return nil, err
	}

	l.Infof("waiting for gallery import of %s/%s version %s",
		spec.GalleryName, spec.GalleryImageName, spec.GalleryImageVersion)
	if err := w.waitForImport(ctx, publishReq); err != nil {
		return nil, err
	}

	result := &CaptureResult{
		GalleryName:      spec.GalleryName,
		GalleryImageName: spec.GalleryImageName,
		GalleryVersion:   spec.GalleryImageVersion,
	}
	if specializedImage.ID != nil {
		result.SpecializedImageID = *specializedImage.ID
	}
	result.GeneralizedImageID = *generalizedImage.ID
	return result, nil
}

// runGeneralization opens the remote session and launches the in-guest
// generalization utility. The utility shuts the guest down, which usually
// tears the transport out from under the command; a transport error after
// launch is therefore logged, not fatal — the authoritative signal is the
// power-state poll that follows.
func (w *Workflow) runGeneralization(
	ctx context.Context,
	spec *models.BuildSpec,
	checkpoint *models.Checkpoint,
) error {
	l := logger.Get()

	openSession := w.OpenSession
	if openSession == nil {
		openSession = remote.OpenSession
	}

	endpoint := remote.Endpoint{Host: checkpoint.EndpointHost, Port: spec.RemoteExecPort()}
	session, err := openSession(ctx, checkpoint.OSType, endpoint, remote.Credentials{
		Username:       spec.Admin.Username,
		Password:       spec.Admin.Password,
		PrivateKeyPath: spec.Admin.SSHPrivateKeyPath,
	}, remote.Options{SkipCertValidation: spec.SkipCertValidation})
	if err != nil {
		return fmt.Errorf("failed to open remote session on %s: %w", endpoint.Address(), err)
	}
	defer session.Close()

	if err := remote.PrepareGeneralize(ctx, checkpoint.OSType, session); err != nil {
		return err
	}

	command := remote.GeneralizeCommand(checkpoint.OSType)
	l.Infof("running generalization on %s: %s", checkpoint.VMName, command)
	stdout, stderr, err := session.Run(ctx, command)
	if err != nil {
		l.Warnf("generalization command ended with %v (expected when the guest powers off); stdout=%q stderr=%q",
			err, stdout, stderr)
	}
	return nil
}
