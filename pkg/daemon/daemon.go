// Package daemon manages roost's long-lived proxy process: spawning it
// detached from the invoking terminal, tracking it via daemon.json, and
// signaling it to stop or reload.
package daemon

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/roostdev/roost/pkg/rooterr"
	"github.com/roostdev/roost/pkg/store"
	"github.com/roostdev/roost/pkg/types"
)

// ChildFlag is the internal flag the re-exec'd child process checks for to
// know it should run the proxy loop rather than the CLI's normal command
// dispatch.
const ChildFlag = "--daemon-child"

const (
	stopGrace = 10 * time.Second
)

// Manager starts, stops, and inspects the daemon process from the CLI's
// point of view. It never runs the proxy loop itself; that happens in the
// re-exec'd child (see cmd/roost's daemon-child entry point).
type Manager struct {
	store *store.Store
}

// New returns a Manager persisting state through s.
func New(s *store.Store) *Manager {
	return &Manager{store: s}
}

// ReadState reads daemon.json. A missing file is reported as
// rooterr.ErrDaemonNotRunning.
func (m *Manager) ReadState() (*types.DaemonState, error) {
	data, err := os.ReadFile(m.store.DaemonStatePath())
	if os.IsNotExist(err) {
		return nil, rooterr.ErrDaemonNotRunning
	}
	if err != nil {
		return nil, fmt.Errorf("read daemon state: %w", err)
	}
	var state types.DaemonState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parse daemon state: %w", err)
	}
	return &state, nil
}

// WriteState atomically writes daemon.json. The child process calls it as
// soon as the proxy reports at least one bound listen port, so ports still
// being bound at that moment are not recorded.
func (m *Manager) WriteState(state *types.DaemonState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal daemon state: %w", err)
	}
	path := m.store.DaemonStatePath()
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write daemon state: %w", err)
	}
	return os.Rename(tmp, path)
}

// ClearState removes daemon.json, ignoring a missing file.
func (m *Manager) ClearState() error {
	err := os.Remove(m.store.DaemonStatePath())
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Status reports whether the daemon recorded in daemon.json is actually
// alive, cleaning up a stale file if the PID is gone.
func (m *Manager) Status() (*types.DaemonState, bool, error) {
	state, err := m.ReadState()
	if err != nil {
		return nil, false, err
	}
	if !processAlive(state.PID) {
		_ = m.ClearState()
		return nil, false, rooterr.ErrDaemonNotRunning
	}
	return state, true, nil
}

// Start spawns the daemon as a detached child re-exec'ing the current
// binary with ChildFlag.
func (m *Manager) Start() error {
	if _, alive, err := m.Status(); err == nil && alive {
		return rooterr.ErrDaemonAlreadyUp
	}
	return startDetached()
}

// Stop signals the running daemon to terminate, waiting up to stopGrace
// before forcing termination, then clears daemon.json.
func (m *Manager) Stop() error {
	state, alive, err := m.Status()
	if err != nil {
		return err
	}
	if !alive {
		return rooterr.ErrDaemonNotRunning
	}
	if err := terminate(state.PID, stopGrace); err != nil {
		return err
	}
	return m.ClearState()
}

// Reload signals the running daemon to re-merge config and reload certs.
func (m *Manager) Reload() error {
	state, alive, err := m.Status()
	if err != nil {
		return err
	}
	if !alive {
		return rooterr.ErrDaemonNotRunning
	}
	return reload(state.PID)
}
