// +build darwin

package trust

import "fmt"

type darwinBackend struct {
	exec PrivilegedExec
}

func newPlatformBackend(exec PrivilegedExec) Backend {
	return darwinBackend{exec: exec}
}

func (b darwinBackend) Install(caName, certPath string) error {
	return b.exec.Run("security", "add-trusted-cert", "-d", "-r", "trustRoot",
		"-k", "/Library/Keychains/System.keychain", certPath)
}

func (b darwinBackend) Uninstall(caName string) error {
	return b.exec.Run("security", "delete-certificate", "-c", commonName(caName))
}

func (b darwinBackend) IsInstalled(caName string) (bool, error) {
	err := b.exec.Run("security", "find-certificate", "-c", commonName(caName), "-a")
	if err != nil {
		return false, nil
	}
	return true, nil
}

func commonName(caName string) string {
	return fmt.Sprintf("roost %s CA", caName)
}
