// +build !darwin,!linux,!windows

package trust

import "fmt"

type unsupportedBackend struct{}

func newPlatformBackend(exec PrivilegedExec) Backend {
	return unsupportedBackend{}
}

func (unsupportedBackend) Install(caName, certPath string) error {
	return fmt.Errorf("trust store installation is not supported on this platform")
}

func (unsupportedBackend) Uninstall(caName string) error {
	return fmt.Errorf("trust store removal is not supported on this platform")
}

func (unsupportedBackend) IsInstalled(caName string) (bool, error) {
	return false, nil
}
