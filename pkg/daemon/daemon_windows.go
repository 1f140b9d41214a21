// +build windows

package daemon

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"

	"golang.org/x/sys/windows"
)

func reloadEventName(pid int) string {
	return fmt.Sprintf("Global\\roost-reload-%d", pid)
}

// signalReloadEvent opens the named event the daemon child waits on and
// sets it, the Windows analogue of sending SIGHUP.
func signalReloadEvent(pid int) error {
	name, err := windows.UTF16PtrFromString(reloadEventName(pid))
	if err != nil {
		return err
	}
	handle, err := windows.OpenEvent(windows.EVENT_MODIFY_STATE, false, name)
	if err != nil {
		return fmt.Errorf("open reload event: %w", err)
	}
	defer windows.CloseHandle(handle)
	return windows.SetEvent(handle)
}

// startDetached re-execs the current binary with ChildFlag as a detached
// process, since Windows has no Setsid; CREATE_NEW_PROCESS_GROUP plus
// DETACHED_PROCESS keeps the child alive after the parent console exits.
func startDetached() error {
	self, err := os.Executable()
	if err != nil {
		return err
	}
	cmd := exec.Command(self, ChildFlag)
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP | 0x00000008, // DETACHED_PROCESS
	}
	return cmd.Start()
}

func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}

// terminate has no SIGTERM equivalent on Windows; Kill is immediate, so
// the grace period is unused but kept for interface parity with the
// POSIX implementation.
func terminate(pid int, grace time.Duration) error {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return proc.Kill()
}

// reload is delivered as a named event on Windows rather than a signal,
// opened by the name "Global\roost-reload-<pid>". The daemon child does not
// create that event, so OpenEvent fails unless another process created it.
func reload(pid int) error {
	return signalReloadEvent(pid)
}
