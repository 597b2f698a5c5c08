package azure

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
)

// ErrVMAlreadyExists is the precondition failure for provisioning: the
// workflow refuses to reuse or overwrite an existing build VM.
var ErrVMAlreadyExists = errors.New("a virtual machine with this name already exists in the resource group")

// ErrImportFailed reports a gallery image version whose replication ended
// in a failed state; retrying the poll cannot help.
var ErrImportFailed = errors.New("gallery image import reported a failed state")

// IsNotFound reports whether err is the control plane saying the resource
// does not exist.
func IsNotFound(err error) bool {
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		return respErr.StatusCode == http.StatusNotFound
	}
	return false
}

// wrapProviderError keeps the provider's diagnostic intact while adding the
// operation that failed.
func wrapProviderError(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}
