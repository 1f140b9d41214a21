package certs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCAIsSelfSignedAndCA(t *testing.T) {
	_, key, cert, err := GenerateCA("roost")
	require.NoError(t, err)
	require.NotNil(t, key)

	assert.True(t, cert.IsCA)
	assert.Equal(t, cert.Issuer.CommonName, cert.Subject.CommonName)
	assert.WithinDuration(t, cert.NotBefore.Add(CAValidity), cert.NotAfter, 1e9)
}

func TestIssueLeafSANPolicy(t *testing.T) {
	_, caKey, caCert, err := GenerateCA("roost")
	require.NoError(t, err)

	_, _, leaf, err := IssueLeaf("api.local", []string{"api.local", "*.api.local"}, caCert, caKey)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"api.local", "*.api.local"}, leaf.DNSNames)
	assert.False(t, leaf.IsCA)
	assert.Equal(t, caCert.Subject.CommonName, leaf.Issuer.CommonName)
}

func TestIssueLeafExactPolicyHasNoWildcard(t *testing.T) {
	_, caKey, caCert, err := GenerateCA("roost")
	require.NoError(t, err)

	_, _, leaf, err := IssueLeaf("exact.local", []string{"exact.local"}, caCert, caKey)
	require.NoError(t, err)

	assert.Equal(t, []string{"exact.local"}, leaf.DNSNames)
}

func TestNeedsRenewal(t *testing.T) {
	_, caKey, caCert, err := GenerateCA("roost")
	require.NoError(t, err)
	_, _, leaf, err := IssueLeaf("soon.local", []string{"soon.local"}, caCert, caKey)
	require.NoError(t, err)

	assert.False(t, NeedsRenewal(leaf))
	assert.True(t, NeedsRenewal(nil))
}

func TestSerialsAreUnique(t *testing.T) {
	_, caKey, caCert, err := GenerateCA("roost")
	require.NoError(t, err)

	_, _, leaf1, err := IssueLeaf("a.local", []string{"a.local"}, caCert, caKey)
	require.NoError(t, err)
	_, _, leaf2, err := IssueLeaf("b.local", []string{"b.local"}, caCert, caKey)
	require.NoError(t, err)

	assert.NotEqual(t, leaf1.SerialNumber, leaf2.SerialNumber)
}
