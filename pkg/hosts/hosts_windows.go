// +build windows

package hosts

import "os"

// Windows has no portable flock equivalent via golang.org/x/sys/unix, so
// lockFile and unlockFile do nothing: the lock file is opened but never
// locked, and concurrent roost invocations are not serialized on Windows.
func lockFile(f *os.File) error {
	return nil
}

func unlockFile(f *os.File) error {
	return nil
}

func elevateCommand() string {
	return "powershell"
}

func elevateArgs(tmpPath, targetPath string) []string {
	return []string{
		"-Command",
		"Start-Process", "cmd", "-Verb", "RunAs", "-ArgumentList",
		"'/c copy /Y " + tmpPath + " " + targetPath + "'",
	}
}
