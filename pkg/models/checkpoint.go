package models

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"sigs.k8s.io/yaml"
)

const checkpointFilePermissions = 0600

// Checkpoint is the resumable boundary between the provision and capture
// phases: provision writes it once the VM endpoint answers, the operator
// customizes the machine at their own pace, and capture reads it back.
type Checkpoint struct {
	RunID         string    `json:"run_id"`
	VMName        string    `json:"vm_name"`
	ResourceGroup string    `json:"resource_group"`
	Location      string    `json:"location"`
	OSType        OSType    `json:"os_type"`
	EndpointHost  string    `json:"endpoint_host"`
	AdminUsername string    `json:"admin_username"`
	SourceImage   string    `json:"source_image"`
	CreatedAt     time.Time `json:"created_at"`
}

func (c *Checkpoint) Validate() error {
	if c.VMName == "" || c.ResourceGroup == "" {
		return fmt.Errorf("checkpoint: vm name and resource group are required")
	}
	if c.EndpointHost == "" {
		return fmt.Errorf("checkpoint: endpoint host is required")
	}
	return nil
}

// CheckpointPath returns where the checkpoint for vmName lives under stateDir.
func CheckpointPath(stateDir, vmName string) string {
	return filepath.Join(stateDir, vmName+".yaml")
}

// SaveCheckpoint writes the checkpoint as YAML, creating stateDir if needed.
func SaveCheckpoint(stateDir string, c *Checkpoint) (string, error) {
	if err := c.Validate(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(stateDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create state dir %s: %w", stateDir, err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to marshal checkpoint: %w", err)
	}

	path := CheckpointPath(stateDir, c.VMName)
	if err := os.WriteFile(path, data, checkpointFilePermissions); err != nil {
		return "", fmt.Errorf("failed to write checkpoint %s: %w", path, err)
	}
	return path, nil
}

// LoadCheckpoint reads the checkpoint for vmName back from stateDir.
func LoadCheckpoint(stateDir, vmName string) (*Checkpoint, error) {
	path := CheckpointPath(stateDir, vmName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("no checkpoint for %q (did provision finish?): %w", vmName, err)
	}

	var c Checkpoint
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse checkpoint %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}
