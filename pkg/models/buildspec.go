package models

import "fmt"

// AdminCredentials is the build VM's admin account, constructed once and
// passed down explicitly rather than read from ambient global state.
type AdminCredentials struct {
	Username string
	Password string
	// SSHPublicKey is the authorized key material baked into Linux build
	// VMs; SSHPrivateKeyPath is its counterpart for the capture session.
	SSHPublicKey      string
	SSHPrivateKeyPath string
}

// BuildSpec describes one image bake end to end.
type BuildSpec struct {
	VMName        string
	ResourceGroup string
	Location      string
	VNetName      string
	SubnetName    string
	VMSize        string
	OSType        OSType
	Source        ImageSelector
	Admin         AdminCredentials

	SpecializedImageName string
	GeneralizedImageName string

	GalleryResourceGroup string
	GalleryName          string
	GalleryImageName     string
	GalleryImageVersion  string
	GalleryLocation      string
	ReplicaRegions       []string

	// SkipCertValidation applies to the WinRM session only; build VMs use
	// self-signed listener certificates.
	SkipCertValidation bool
}

func (s *BuildSpec) Validate() error {
	if s.VMName == "" {
		return fmt.Errorf("build spec: vm name is required")
	}
	if s.ResourceGroup == "" {
		return fmt.Errorf("build spec: resource group is required")
	}
	if s.VNetName == "" || s.SubnetName == "" {
		return fmt.Errorf("build spec: virtual network and subnet are required")
	}
	if s.Source == nil {
		return fmt.Errorf("build spec: source image selector is required")
	}
	if s.OSType != OSTypeLinux && s.OSType != OSTypeWindows {
		return fmt.Errorf("build spec: os type must be linux or windows, got %q", s.OSType)
	}
	return nil
}

// RemoteDesktopPort is the port the provision phase probes for readiness:
// RDP for Windows, SSH for Linux. A successful TCP connect is a readiness
// heuristic, not a guarantee the session stack is fully up.
func (s *BuildSpec) RemoteDesktopPort() int {
	if s.OSType == OSTypeWindows {
		return 3389
	}
	return 22
}

// RemoteExecPort is the port the capture phase opens its command session on.
func (s *BuildSpec) RemoteExecPort() int {
	if s.OSType == OSTypeWindows {
		return 5986 // WinRM over HTTPS
	}
	return 22
}
