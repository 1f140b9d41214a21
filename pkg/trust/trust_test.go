package trust

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExec struct {
	calls [][]string
	err   error
}

func (f *fakeExec) Run(name string, args ...string) error {
	f.calls = append(f.calls, append([]string{name}, args...))
	return f.err
}

func TestNewSkipInstallReturnsNoop(t *testing.T) {
	t.Setenv("ROOST_SKIP_TRUST_INSTALL", "1")
	b := New(&fakeExec{})

	require.NoError(t, b.Install("roost", "/tmp/ca.pem"))
	installed, err := b.IsInstalled("roost")
	require.NoError(t, err)
	assert.True(t, installed)
}

func TestNewWithoutSkipUsesPlatformBackend(t *testing.T) {
	t.Setenv("ROOST_SKIP_TRUST_INSTALL", "")
	b := New(&fakeExec{})
	assert.NotNil(t, b)
}
