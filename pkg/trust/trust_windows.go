// +build windows

package trust

type windowsBackend struct {
	exec PrivilegedExec
}

func newPlatformBackend(exec PrivilegedExec) Backend {
	return windowsBackend{exec: exec}
}

func (b windowsBackend) Install(caName, certPath string) error {
	return b.exec.Run("certutil", "-addstore", "-f", "Root", certPath)
}

func (b windowsBackend) Uninstall(caName string) error {
	return b.exec.Run("certutil", "-delstore", "Root", caName)
}

func (b windowsBackend) IsInstalled(caName string) (bool, error) {
	err := b.exec.Run("certutil", "-store", "Root", caName)
	if err != nil {
		return false, nil
	}
	return true, nil
}
