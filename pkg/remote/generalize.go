package remote

import (
	"context"
	"fmt"
	"os"

	"github.com/bacalhau-project/imagesmith/pkg/logger"
	"github.com/bacalhau-project/imagesmith/pkg/models"
)

// Windows: sysprep strips the machine identity and powers the guest off.
const windowsGeneralizeCommand = `C:\Windows\System32\Sysprep\sysprep.exe /generalize /oobe /shutdown /quiet`

// Linux: deprovision through the platform agent, then halt. Pushed as a
// script so the whole sequence survives the SSH connection dropping at
// shutdown.
const linuxGeneralizeScript = `#!/bin/bash
set -e
waagent -deprovision+user -force
nohup shutdown -h +0 >/dev/null 2>&1 &
`

const linuxGeneralizeScriptPath = "/tmp/imagesmith-generalize.sh"

// GeneralizeCommand is what the capture phase runs for the given OS.
func GeneralizeCommand(osType models.OSType) string {
	if osType == models.OSTypeWindows {
		return windowsGeneralizeCommand
	}
	return fmt.Sprintf("sudo bash %s", linuxGeneralizeScriptPath)
}

// PrepareGeneralize stages anything the generalization command needs. For
// Linux that means uploading the deprovision script; Windows needs nothing.
func PrepareGeneralize(ctx context.Context, osType models.OSType, session Session) error {
	if osType != models.OSTypeLinux {
		return nil
	}
	uploader, ok := session.(interface {
		UploadFile(path string, content []byte, mode os.FileMode) error
	})
	if !ok {
		return fmt.Errorf("session transport cannot upload the generalize script")
	}

	l := logger.Get()
	l.Debugf("uploading generalize script to %s", linuxGeneralizeScriptPath)
	return uploader.UploadFile(linuxGeneralizeScriptPath, []byte(linuxGeneralizeScript), 0700)
}
