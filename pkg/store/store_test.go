package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roostdev/roost/pkg/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestNewCreatesDirectoryTree(t *testing.T) {
	home := t.TempDir()
	s, err := New(home)
	require.NoError(t, err)

	for _, dir := range []string{s.Home(), filepath.Join(s.Home(), certsDirName), filepath.Join(s.Home(), casDirName)} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestReadLedgerMissingFileReturnsEmpty(t *testing.T) {
	s := newTestStore(t)

	ledger, err := s.ReadLedger()
	require.NoError(t, err)
	assert.Empty(t, ledger.CAs)
	assert.Empty(t, ledger.Domains)
}

func TestWriteReadLedgerRoundTrip(t *testing.T) {
	s := newTestStore(t)

	ledger := &types.Ledger{
		DefaultCA: "roost",
		CAs: []types.CA{
			{Name: "roost", CreatedAt: time.Now().Truncate(time.Second)},
		},
		Domains: []types.Domain{
			{Name: "api.local", CA: "roost", Exact: false, CreatedAt: time.Now().Truncate(time.Second)},
		},
	}

	require.NoError(t, s.WriteLedger(ledger))

	got, err := s.ReadLedger()
	require.NoError(t, err)
	assert.Equal(t, ledger.DefaultCA, got.DefaultCA)
	require.Len(t, got.Domains, 1)
	assert.Equal(t, "api.local", got.Domains[0].Name)
	assert.False(t, got.Domains[0].Exact)
}

func TestReadLedgerCorruptFile(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.WriteFile(s.ledgerPath(), []byte("not = [valid toml"), 0o600))

	_, err := s.ReadLedger()
	require.Error(t, err)
}

func TestWriteCertPairPermissions(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.WriteCertPair("api.local", []byte("cert"), []byte("key")))

	certInfo, err := os.Stat(s.CertPath("api.local"))
	require.NoError(t, err)
	keyInfo, err := os.Stat(s.KeyPath("api.local"))
	require.NoError(t, err)

	assert.Equal(t, os.FileMode(0o600), keyInfo.Mode().Perm())
	assert.NotZero(t, certInfo.Size())
}

func TestRemoveDomainFilesIgnoresMissing(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.RemoveDomainFiles("never-existed.local"))
}

func TestListDomainsAndCAs(t *testing.T) {
	s := newTestStore(t)
	ledger := &types.Ledger{
		CAs:     []types.CA{{Name: "roost"}},
		Domains: []types.Domain{{Name: "a.local"}, {Name: "b.local"}},
	}
	require.NoError(t, s.WriteLedger(ledger))

	domains, err := s.ListDomains()
	require.NoError(t, err)
	assert.Len(t, domains, 2)

	cas, err := s.ListCAs()
	require.NoError(t, err)
	assert.Len(t, cas, 1)
}
