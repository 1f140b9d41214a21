// Package trust installs and removes roost's CA roots from the operating
// system's trust store, and provides the shared PrivilegedExec primitive
// pkg/hosts also builds on for elevated writes.
package trust

import (
	"fmt"
	"os/exec"

	"github.com/roostdev/roost/pkg/rooterr"
)

// PrivilegedExec runs a command with OS-appropriate elevation and returns
// combined stdout+stderr on failure for diagnostics. Implementations are
// platform-specific (sudo, osascript, UAC); tests can stub this interface.
type PrivilegedExec interface {
	Run(name string, args ...string) error
}

// execPrivileged is the default PrivilegedExec: it shells out directly,
// relying on the OS-specific command (security, update-ca-certificates,
// certutil) to request its own elevation when needed.
type execPrivileged struct{}

// Default is the PrivilegedExec used outside of tests.
var Default PrivilegedExec = execPrivileged{}

func (execPrivileged) Run(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s %v: %v (output: %s)", rooterr.ErrTrustStoreFailed, name, args, err, string(output))
	}
	return nil
}
