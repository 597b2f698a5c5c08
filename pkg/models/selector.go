package models

import (
	"fmt"
	"strings"
)

// ImageSelector names the base image a build VM boots from. Exactly two
// variants exist: a marketplace family lookup resolved to its latest
// version, or an explicit custom managed image in the build resource group.
type ImageSelector interface {
	isImageSelector()
	String() string
}

// FamilySelector looks up a marketplace image family ("publisher:offer:sku")
// and resolves to the newest published version.
type FamilySelector struct {
	Publisher string
	Offer     string
	SKU       string
}

func (FamilySelector) isImageSelector() {}

func (s FamilySelector) String() string {
	return fmt.Sprintf("%s:%s:%s (latest)", s.Publisher, s.Offer, s.SKU)
}

// CustomImageSelector names a managed image that already exists in the
// build resource group.
type CustomImageSelector struct {
	Name string
}

func (CustomImageSelector) isImageSelector() {}

func (s CustomImageSelector) String() string {
	return fmt.Sprintf("custom image %q", s.Name)
}

// ParseImageSelector builds the selector from the two mutually exclusive
// CLI flags. Supplying neither or both is a configuration error at parse
// time, never a runtime failure.
func ParseImageSelector(family, custom string) (ImageSelector, error) {
	family = strings.TrimSpace(family)
	custom = strings.TrimSpace(custom)

	switch {
	case family == "" && custom == "":
		return nil, fmt.Errorf("a source image is required: set --image-family or --custom-image")
	case family != "" && custom != "":
		return nil, fmt.Errorf("--image-family and --custom-image are mutually exclusive")
	case custom != "":
		return CustomImageSelector{Name: custom}, nil
	}

	parts := strings.Split(family, ":")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return nil, fmt.Errorf(
			"invalid image family %q: expected publisher:offer:sku",
			family,
		)
	}
	return FamilySelector{Publisher: parts[0], Offer: parts[1], SKU: parts[2]}, nil
}
