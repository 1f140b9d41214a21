package doctor

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roostdev/roost/pkg/hosts"
	"github.com/roostdev/roost/pkg/store"
	"github.com/roostdev/roost/pkg/types"
)

type fakeTrustBackend struct {
	installed map[string]bool
}

func (f fakeTrustBackend) Install(name, certPath string) error { return nil }
func (f fakeTrustBackend) Uninstall(name string) error         { return nil }
func (f fakeTrustBackend) IsInstalled(name string) (bool, error) {
	return f.installed[name], nil
}

type fakeHostsExec struct{}

func (fakeHostsExec) Run(name string, args ...string) error {
	tmp := args[len(args)-2]
	target := args[len(args)-1]
	data, err := os.ReadFile(tmp)
	if err != nil {
		return err
	}
	return os.WriteFile(target, data, 0o644)
}

func newTestSuite(t *testing.T) (*store.Store, *Suite) {
	t.Helper()
	s, err := store.New(t.TempDir())
	require.NoError(t, err)
	t.Setenv("ROOST_HOSTS_FILE", t.TempDir()+"/hosts")
	hf := hosts.New(fakeHostsExec{})
	return s, New(s, fakeTrustBackend{installed: map[string]bool{}}, hf)
}

func TestCAPresenceFailsWhenNoCA(t *testing.T) {
	s, _ := newTestSuite(t)
	result := caPresenceChecker{store: s}.Check(context.Background())
	assert.False(t, result.Healthy)
}

func TestCAPresencePassesWithCA(t *testing.T) {
	s, _ := newTestSuite(t)
	require.NoError(t, s.WriteLedger(&types.Ledger{CAs: []types.CA{{Name: "dev"}}}))
	result := caPresenceChecker{store: s}.Check(context.Background())
	assert.True(t, result.Healthy)
}

func TestTrustStoreChecksEachCA(t *testing.T) {
	s, _ := newTestSuite(t)
	require.NoError(t, s.WriteLedger(&types.Ledger{CAs: []types.CA{{Name: "dev"}}}))

	missing := trustStoreChecker{store: s, backend: fakeTrustBackend{installed: map[string]bool{}}}
	result := missing.Check(context.Background())
	assert.False(t, result.Healthy)

	trusted := trustStoreChecker{store: s, backend: fakeTrustBackend{installed: map[string]bool{"dev": true}}}
	result = trusted.Check(context.Background())
	assert.True(t, result.Healthy)
}

func TestHostsBlockDetectsMissingDomain(t *testing.T) {
	s, suite := newTestSuite(t)
	require.NoError(t, s.WriteLedger(&types.Ledger{Domains: []types.Domain{{Name: "api.local"}}}))

	results := suite.Run(context.Background())
	var hostsResult types.CheckResult
	for _, r := range results {
		if r.Name == "hosts-block" {
			hostsResult = r
		}
	}
	assert.False(t, hostsResult.Healthy)
}

func TestSuiteRunReturnsAllChecks(t *testing.T) {
	_, suite := newTestSuite(t)
	results := suite.Run(context.Background())
	assert.Len(t, results, 4)
}
