package hosts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeExec simulates a PrivilegedExec that performs the requested "copy
// tmp over target" without needing real OS elevation, so tests can run the
// full Ensure/Remove/Clear path against a scratch file.
type fakeExec struct{}

func (fakeExec) Run(name string, args ...string) error {
	tmp := args[len(args)-2]
	target := args[len(args)-1]
	data, err := os.ReadFile(tmp)
	if err != nil {
		return err
	}
	return os.WriteFile(target, data, 0o644)
}

func newTestFile(t *testing.T, initial string) *File {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hosts")
	if initial != "" {
		require.NoError(t, os.WriteFile(path, []byte(initial), 0o644))
	}
	t.Setenv("ROOST_HOSTS_FILE", path)
	return New(fakeExec{})
}

func TestEnsureAppendsBlockWhenMissing(t *testing.T) {
	f := newTestFile(t, "127.0.0.1 localhost\n")

	require.NoError(t, f.Ensure([]string{"api.local"}))

	data, err := os.ReadFile(f.path)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "127.0.0.1 localhost")
	assert.Contains(t, content, beginMarker)
	assert.Contains(t, content, "127.0.0.1 api.local")
	assert.Contains(t, content, "::1 api.local")
	assert.Contains(t, content, endMarker)
}

func TestEnsureDeduplicatesAndSorts(t *testing.T) {
	f := newTestFile(t, "")

	require.NoError(t, f.Ensure([]string{"b.local", "a.local", "a.local"}))

	domains, err := f.Domains()
	require.NoError(t, err)
	assert.Equal(t, []string{"a.local", "b.local"}, domains)
}

func TestEnsureReplacesExistingBlockOnly(t *testing.T) {
	initial := "10.0.0.1 other\n" + beginMarker + "\n127.0.0.1 old.local\n::1 old.local\n" + endMarker + "\n192.168.0.1 another\n"
	f := newTestFile(t, initial)

	require.NoError(t, f.Ensure([]string{"new.local"}))

	data, err := os.ReadFile(f.path)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "10.0.0.1 other")
	assert.Contains(t, content, "192.168.0.1 another")
	assert.NotContains(t, content, "old.local")
	assert.Contains(t, content, "new.local")
}

func TestRemoveDeletesOnlyOneDomain(t *testing.T) {
	f := newTestFile(t, "")
	require.NoError(t, f.Ensure([]string{"a.local", "b.local"}))

	require.NoError(t, f.Remove("a.local"))

	domains, err := f.Domains()
	require.NoError(t, err)
	assert.Equal(t, []string{"b.local"}, domains)
}

func TestClearEmptiesBlock(t *testing.T) {
	f := newTestFile(t, "")
	require.NoError(t, f.Ensure([]string{"a.local"}))

	require.NoError(t, f.Clear())

	domains, err := f.Domains()
	require.NoError(t, err)
	assert.Empty(t, domains)
}
