package azure

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/compute/armcompute"

	"github.com/bacalhau-project/imagesmith/pkg/logger"
	"github.com/bacalhau-project/imagesmith/pkg/models"
)

// ResolveImage turns an ImageSelector into a concrete image reference: a
// family lookup resolves to the newest published marketplace version, a
// custom selector resolves to the managed image's resource ID.
func (c *LiveClient) ResolveImage(
	ctx context.Context,
	location, resourceGroup string,
	selector models.ImageSelector,
) (*armcompute.ImageReference, error) {
	l := logger.Get()

	switch sel := selector.(type) {
	case models.FamilySelector:
		resp, err := c.vmImagesClient.List(ctx, location, sel.Publisher, sel.Offer, sel.SKU, nil)
		if err != nil {
			return nil, wrapProviderError(
				fmt.Sprintf("failed to list image versions for %s", sel), err)
		}

		var versions []string
		for _, img := range resp.VirtualMachineImageResourceArray {
			if img != nil && img.Name != nil {
				versions = append(versions, *img.Name)
			}
		}
		latest := latestImageVersion(versions)
		if latest == "" {
			return nil, fmt.Errorf("no published versions found for image family %s", sel)
		}
		l.Infof("resolved %s to version %s", sel, latest)

		return &armcompute.ImageReference{
			Publisher: to.Ptr(sel.Publisher),
			Offer:     to.Ptr(sel.Offer),
			SKU:       to.Ptr(sel.SKU),
			Version:   to.Ptr(latest),
		}, nil

	case models.CustomImageSelector:
		resp, err := c.imagesClient.Get(ctx, resourceGroup, sel.Name, nil)
		if err != nil {
			return nil, wrapProviderError(
				fmt.Sprintf("failed to get %s", sel), err)
		}
		return &armcompute.ImageReference{ID: resp.ID}, nil

	default:
		return nil, fmt.Errorf("unsupported image selector %T", selector)
	}
}

// CaptureImage creates a managed image from the build VM. Whether the
// result is specialized or generalized depends solely on whether
// GeneralizeVM ran beforehand.
func (c *LiveClient) CaptureImage(
	ctx context.Context,
	resourceGroup, imageName, location, sourceVMID string,
) (*armcompute.Image, error) {
	l := logger.Get()
	l.Infof("capturing image %s from %s", imageName, sourceVMID)

	image := armcompute.Image{
		Location: to.Ptr(location),
		Properties: &armcompute.ImageProperties{
			SourceVirtualMachine: &armcompute.SubResource{
				ID: to.Ptr(sourceVMID),
			},
		},
	}

	poller, err := c.imagesClient.BeginCreateOrUpdate(ctx, resourceGroup, imageName, image, nil)
	if err != nil {
		return nil, wrapProviderError("failed to start image capture", err)
	}
	resp, err := poller.PollUntilDone(ctx, nil)
	if err != nil {
		return nil, wrapProviderError("failed to capture image", err)
	}
	return &resp.Image, nil
}

// PublishImageVersion starts the gallery image version import and returns
// without waiting. The workflow watches GetImportState instead of the SDK's
// internal poller so every wait in the runbook goes through the same
// polling primitive.
func (c *LiveClient) PublishImageVersion(ctx context.Context, req PublishRequest) error {
	l := logger.Get()
	l.Infof("publishing %s to gallery %s/%s as version %s",
		req.SourceImageID, req.GalleryName, req.GalleryImageName, req.Version)

	targetRegions := []*armcompute.TargetRegion{
		{Name: to.Ptr(req.Location)},
	}
	for _, region := range req.ReplicaRegions {
		if region == req.Location {
			continue
		}
		targetRegions = append(targetRegions, &armcompute.TargetRegion{Name: to.Ptr(region)})
	}

	version := armcompute.GalleryImageVersion{
		Location: to.Ptr(req.Location),
		Properties: &armcompute.GalleryImageVersionProperties{
			PublishingProfile: &armcompute.GalleryImageVersionPublishingProfile{
				TargetRegions: targetRegions,
			},
			StorageProfile: &armcompute.GalleryImageVersionStorageProfile{
				Source: &armcompute.GalleryArtifactVersionSource{
					ID: to.Ptr(req.SourceImageID),
				},
			},
		},
	}

	_, err := c.galleryImageVersionsClient.BeginCreateOrUpdate(
		ctx,
		req.GalleryResourceGroup,
		req.GalleryName,
		req.GalleryImageName,
		req.Version,
		version,
		nil,
	)
	if err != nil {
		return wrapProviderError("failed to start gallery image import", err)
	}
	return nil
}

// GetImportState reports where a gallery image version import stands.
func (c *LiveClient) GetImportState(
	ctx context.Context,
	galleryResourceGroup, galleryName, galleryImageName, version string,
) (models.ImportState, error) {
	expand := armcompute.ReplicationStatusTypesReplicationStatus
	resp, err := c.galleryImageVersionsClient.Get(
		ctx,
		galleryResourceGroup,
		galleryName,
		galleryImageName,
		version,
		&armcompute.GalleryImageVersionsClientGetOptions{Expand: &expand},
	)
	if err != nil {
		if IsNotFound(err) {
			// The import request was accepted but the version resource has
			// not materialized yet.
			return models.ImportStateUploading, nil
		}
		return models.ImportStateFailed, wrapProviderError("failed to get gallery image version", err)
	}

	provisioningState := ""
	aggregatedState := ""
	if resp.Properties != nil {
		if resp.Properties.ProvisioningState != nil {
			provisioningState = string(*resp.Properties.ProvisioningState)
		}
		if resp.Properties.ReplicationStatus != nil &&
			resp.Properties.ReplicationStatus.AggregatedState != nil {
			aggregatedState = string(*resp.Properties.ReplicationStatus.AggregatedState)
		}
	}
	return importStateFrom(provisioningState, aggregatedState), nil
}

// importStateFrom collapses the provisioning and replication states into
// the three-valued import status the workflow polls on.
func importStateFrom(provisioningState, aggregatedState string) models.ImportState {
	if strings.EqualFold(provisioningState, "Failed") ||
		strings.EqualFold(aggregatedState, "Failed") {
		return models.ImportStateFailed
	}
	if strings.EqualFold(provisioningState, "Succeeded") &&
		(aggregatedState == "" || strings.EqualFold(aggregatedState, "Completed")) {
		return models.ImportStateReady
	}
	return models.ImportStateUploading
}

// latestImageVersion picks the highest semantic version from the
// marketplace listing. Non-numeric versions sort last.
func latestImageVersion(versions []string) string {
	best := ""
	var bestParts [3]int64
	for _, v := range versions {
		parts, ok := parseImageVersion(v)
		if !ok {
			continue
		}
		if best == "" || versionLess(bestParts, parts) {
			best = v
			bestParts = parts
		}
	}
	return best
}

func parseImageVersion(v string) ([3]int64, bool) {
	var parts [3]int64
	fields := strings.Split(v, ".")
	if len(fields) != 3 {
		return parts, false
	}
	for i, f := range fields {
		n, err := strconv.ParseInt(f, 10, 64)
		if err != nil {
			return parts, false
		}
		parts[i] = n
	}
	return parts, true
}

func versionLess(a, b [3]int64) bool {
	for i := 0; i < 3; i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}
