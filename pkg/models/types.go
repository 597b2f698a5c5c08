package models

import "strings"

// OSType selects the remote-execution transport and the in-guest
// generalization command for a build.
type OSType string

const (
	OSTypeLinux   OSType = "linux"
	OSTypeWindows OSType = "windows"
)

func ParseOSType(s string) (OSType, bool) {
	switch strings.ToLower(s) {
	case "linux":
		return OSTypeLinux, true
	case "windows":
		return OSTypeWindows, true
	default:
		return "", false
	}
}

// PowerState is the VM lifecycle state reported by the instance view.
type PowerState string

const (
	PowerStateProvisioning PowerState = "Provisioning"
	PowerStateRunning      PowerState = "Running"
	PowerStateStopped      PowerState = "Stopped"
	PowerStateDeallocated  PowerState = "Deallocated"
	PowerStateUnknown      PowerState = "Unknown"
)

// PowerStateFromCode maps an instance-view status code such as
// "PowerState/running" to a PowerState.
func PowerStateFromCode(code string) PowerState {
	switch code {
	case "PowerState/starting":
		return PowerStateProvisioning
	case "PowerState/running":
		return PowerStateRunning
	case "PowerState/stopping", "PowerState/stopped":
		return PowerStateStopped
	case "PowerState/deallocating", "PowerState/deallocated":
		return PowerStateDeallocated
	default:
		return PowerStateUnknown
	}
}

// Halted reports whether the guest is no longer running, regardless of
// whether the compute allocation was released.
func (p PowerState) Halted() bool {
	return p == PowerStateStopped || p == PowerStateDeallocated
}

// ImportState is the status of a gallery image version import.
type ImportState string

const (
	ImportStateUploading ImportState = "Uploading"
	ImportStateReady     ImportState = "Ready"
	ImportStateFailed    ImportState = "Failed"
)

// OSState distinguishes the two capture flavors: a specialized image keeps
// the machine identity for iterative rebuilds, a generalized image is taken
// only after the in-guest generalization step has run.
type OSState string

const (
	OSStateSpecialized OSState = "Specialized"
	OSStateGeneralized OSState = "Generalized"
)
