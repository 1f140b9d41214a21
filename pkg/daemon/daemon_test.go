package daemon

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roostdev/roost/pkg/rooterr"
	"github.com/roostdev/roost/pkg/store"
	"github.com/roostdev/roost/pkg/types"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	s, err := store.New(t.TempDir())
	require.NoError(t, err)
	return New(s)
}

func TestReadStateMissingFileReturnsNotRunning(t *testing.T) {
	m := newTestManager(t)
	_, err := m.ReadState()
	assert.ErrorIs(t, err, rooterr.ErrDaemonNotRunning)
}

func TestWriteReadStateRoundTrip(t *testing.T) {
	m := newTestManager(t)
	state := &types.DaemonState{PID: os.Getpid(), StartedAt: time.Now(), ListenPorts: []int{80, 443}}
	require.NoError(t, m.WriteState(state))

	loaded, err := m.ReadState()
	require.NoError(t, err)
	assert.Equal(t, state.PID, loaded.PID)
	assert.Equal(t, state.ListenPorts, loaded.ListenPorts)
}

func TestStatusReportsAliveForOwnProcess(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.WriteState(&types.DaemonState{PID: os.Getpid()}))

	state, alive, err := m.Status()
	require.NoError(t, err)
	assert.True(t, alive)
	assert.Equal(t, os.Getpid(), state.PID)
}

func TestStatusCleansUpStalePID(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.WriteState(&types.DaemonState{PID: 999999999}))

	_, alive, err := m.Status()
	assert.False(t, alive)
	assert.ErrorIs(t, err, rooterr.ErrDaemonNotRunning)

	_, statErr := os.Stat(m.store.DaemonStatePath())
	assert.True(t, os.IsNotExist(statErr))
}

func TestStopWithNoDaemonReturnsNotRunning(t *testing.T) {
	m := newTestManager(t)
	err := m.Stop()
	assert.ErrorIs(t, err, rooterr.ErrDaemonNotRunning)
}

func TestClearStateIgnoresMissingFile(t *testing.T) {
	m := newTestManager(t)
	assert.NoError(t, m.ClearState())
}
