package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseImageSelectorFamily(t *testing.T) {
	sel, err := ParseImageSelector("Canonical:ubuntu-24_04-lts:server", "")
	require.NoError(t, err)

	family, ok := sel.(FamilySelector)
	require.True(t, ok)
	assert.Equal(t, "Canonical", family.Publisher)
	assert.Equal(t, "ubuntu-24_04-lts", family.Offer)
	assert.Equal(t, "server", family.SKU)
}

func TestParseImageSelectorCustom(t *testing.T) {
	sel, err := ParseImageSelector("", "golden-base-2024-06")
	require.NoError(t, err)

	custom, ok := sel.(CustomImageSelector)
	require.True(t, ok)
	assert.Equal(t, "golden-base-2024-06", custom.Name)
}

func TestParseImageSelectorRejectsNeither(t *testing.T) {
	_, err := ParseImageSelector("", "")
	require.Error(t, err)
}

func TestParseImageSelectorRejectsBoth(t *testing.T) {
	_, err := ParseImageSelector("Canonical:ubuntu-24_04-lts:server", "golden-base")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mutually exclusive")
}

func TestParseImageSelectorRejectsMalformedFamily(t *testing.T) {
	for _, bad := range []string{"Canonical", "Canonical:offer", "a::c", ":offer:sku"} {
		_, err := ParseImageSelector(bad, "")
		assert.Error(t, err, "family %q should be rejected", bad)
	}
}

func TestPowerStateFromCode(t *testing.T) {
	cases := map[string]PowerState{
		"PowerState/running":      PowerStateRunning,
		"PowerState/starting":     PowerStateProvisioning,
		"PowerState/stopped":      PowerStateStopped,
		"PowerState/stopping":     PowerStateStopped,
		"PowerState/deallocated":  PowerStateDeallocated,
		"PowerState/deallocating": PowerStateDeallocated,
		"ProvisioningState/ok":    PowerStateUnknown,
	}
	for code, want := range cases {
		assert.Equal(t, want, PowerStateFromCode(code), "code %s", code)
	}

	assert.True(t, PowerStateStopped.Halted())
	assert.True(t, PowerStateDeallocated.Halted())
	assert.False(t, PowerStateRunning.Halted())
}
