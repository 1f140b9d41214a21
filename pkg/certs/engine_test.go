package certs

import (
	"crypto/tls"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roostdev/roost/pkg/rooterr"
	"github.com/roostdev/roost/pkg/store"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	s, err := store.New(t.TempDir())
	require.NoError(t, err)
	return New(s)
}

func TestCreateCAAndIssueWildcardDomain(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.CreateCA("roost")
	require.NoError(t, err)

	d, err := e.IssueDomain("api.local", "roost", false, false)
	require.NoError(t, err)
	assert.Equal(t, "roost", d.CA)
	assert.False(t, d.Exact)

	cert, err := e.Lookup("api.local")
	require.NoError(t, err)
	assert.Contains(t, cert.Leaf.DNSNames, "*.api.local")

	cert2, err := e.Lookup("sub.api.local")
	require.NoError(t, err)
	assert.Equal(t, cert.Leaf.SerialNumber, cert2.Leaf.SerialNumber)
}

func TestLookupExactDomainRejectsSubdomain(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.CreateCA("roost")
	require.NoError(t, err)
	_, err = e.IssueDomain("exact.local", "roost", true, false)
	require.NoError(t, err)

	_, err = e.Lookup("sub.exact.local")
	require.ErrorIs(t, err, rooterr.ErrNoMapping)
}

func TestLookupUnknownDomainMisses(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.CreateCA("roost")
	require.NoError(t, err)

	_, err = e.Lookup("nowhere.local")
	require.ErrorIs(t, err, rooterr.ErrNoMapping)
}

func TestCreateCADuplicateRejected(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.CreateCA("roost")
	require.NoError(t, err)

	_, err = e.CreateCA("roost")
	require.ErrorIs(t, err, rooterr.ErrCAExists)
}

func TestRemoveCARefusesWhenInUse(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.CreateCA("roost")
	require.NoError(t, err)
	_, err = e.IssueDomain("api.local", "roost", false, false)
	require.NoError(t, err)

	err = e.RemoveCA("roost")
	require.ErrorIs(t, err, rooterr.ErrCAInUse)
}

func TestRemoveDomainInvalidatesCache(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.CreateCA("roost")
	require.NoError(t, err)
	_, err = e.IssueDomain("api.local", "roost", false, false)
	require.NoError(t, err)
	_, err = e.Lookup("api.local")
	require.NoError(t, err)

	require.NoError(t, e.RemoveDomain("api.local"))

	_, err = e.Lookup("api.local")
	require.ErrorIs(t, err, rooterr.ErrNoMapping)
}

func TestGetCertificateRequiresSNI(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.GetCertificate(&tls.ClientHelloInfo{ServerName: ""})
	require.ErrorIs(t, err, rooterr.ErrHandshakeFailed)
}

func TestLookupDetectsDiskChangeWithoutInvalidate(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.CreateCA("roost")
	require.NoError(t, err)
	_, err = e.IssueDomain("api.local", "roost", false, false)
	require.NoError(t, err)

	first, err := e.Lookup("api.local")
	require.NoError(t, err)

	cached := e.cachedFor("api.local")
	require.NotNil(t, cached)
	cached.mtime = time.Now().Add(-time.Hour)

	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(e.store.CertPath("api.local"), future, future))

	second, err := e.Lookup("api.local")
	require.NoError(t, err)
	assert.Equal(t, first.Leaf.SerialNumber, second.Leaf.SerialNumber)
}

func TestIsDirectSubdomain(t *testing.T) {
	assert.True(t, isDirectSubdomain("foo.local", "foo.local"))
	assert.True(t, isDirectSubdomain("bar.foo.local", "foo.local"))
	assert.False(t, isDirectSubdomain("baz.bar.foo.local", "foo.local"))
	assert.False(t, isDirectSubdomain("notfoo.local", "foo.local"))
}
