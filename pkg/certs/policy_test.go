package certs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roostdev/roost/pkg/rooterr"
)

func TestValidateDomainNameAcceptsAllowedTLD(t *testing.T) {
	require.NoError(t, ValidateDomainName("api.local", false))
	require.NoError(t, ValidateDomainName("my-app.dev", false))
}

func TestValidateDomainNameRejectsBareLocalhost(t *testing.T) {
	err := ValidateDomainName("localhost", false)
	assert.ErrorIs(t, err, rooterr.ErrInvalidDomain)
}

func TestValidateDomainNameRejectsWildcardPrefix(t *testing.T) {
	err := ValidateDomainName("*.api.local", false)
	assert.ErrorIs(t, err, rooterr.ErrInvalidDomain)
}

func TestValidateDomainNameRejectsDisallowedTLDUnlessAllowed(t *testing.T) {
	err := ValidateDomainName("api.com", false)
	assert.ErrorIs(t, err, rooterr.ErrInvalidDomain)

	require.NoError(t, ValidateDomainName("api.com", true))
}

func TestValidateDomainNameRejectsBadLabel(t *testing.T) {
	err := ValidateDomainName("-bad.local", false)
	assert.ErrorIs(t, err, rooterr.ErrInvalidDomain)
}

func TestValidateDomainNameRejectsSingleLabel(t *testing.T) {
	err := ValidateDomainName("widgets", false)
	assert.ErrorIs(t, err, rooterr.ErrInvalidDomain)
}
