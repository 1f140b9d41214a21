// +build linux

package trust

import (
	"fmt"
	"os"
	"path/filepath"
)

const linuxCADir = "/usr/local/share/ca-certificates"

type linuxBackend struct {
	exec PrivilegedExec
}

func newPlatformBackend(exec PrivilegedExec) Backend {
	return linuxBackend{exec: exec}
}

func (b linuxBackend) installedPath(caName string) string {
	return filepath.Join(linuxCADir, fmt.Sprintf("roost-%s.crt", caName))
}

// Install copies certPath into linuxCADir via sudo, since that directory is
// root-owned, then refreshes the system bundle, also via sudo.
func (b linuxBackend) Install(caName, certPath string) error {
	if err := b.exec.Run("sudo", "cp", certPath, b.installedPath(caName)); err != nil {
		return fmt.Errorf("copy ca cert into %s: %w", linuxCADir, err)
	}
	return b.exec.Run("sudo", "update-ca-certificates")
}

func (b linuxBackend) Uninstall(caName string) error {
	if err := b.exec.Run("sudo", "rm", "-f", b.installedPath(caName)); err != nil {
		return fmt.Errorf("remove installed ca cert: %w", err)
	}
	return b.exec.Run("sudo", "update-ca-certificates", "--fresh")
}

func (b linuxBackend) IsInstalled(caName string) (bool, error) {
	_, err := os.Stat(b.installedPath(caName))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat installed ca cert: %w", err)
	}
	return true, nil
}
