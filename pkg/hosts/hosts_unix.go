// +build darwin linux

package hosts

import (
	"os"

	"golang.org/x/sys/unix"
)

func lockFile(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_EX)
}

func unlockFile(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_UN)
}

// elevateCommand returns the command used to copy the staged hosts file
// into place with elevated privileges.
func elevateCommand() string {
	return "sudo"
}

func elevateArgs(tmpPath, targetPath string) []string {
	return []string{"cp", tmpPath, targetPath}
}
