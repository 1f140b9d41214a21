package trust

import "os"

// Backend is the per-OS capability contract for managing CA roots in the
// system trust store.
type Backend interface {
	Install(caName, certPath string) error
	Uninstall(caName string) error
	IsInstalled(caName string) (bool, error)
}

// New returns the Backend for the current platform (selected via build
// tags on trust_<os>.go). If ROOST_SKIP_TRUST_INSTALL is set, Install is
// a no-op that always reports success.
func New(exec PrivilegedExec) Backend {
	if os.Getenv("ROOST_SKIP_TRUST_INSTALL") != "" {
		return noopBackend{}
	}
	return newPlatformBackend(exec)
}

type noopBackend struct{}

func (noopBackend) Install(string, string) error     { return nil }
func (noopBackend) Uninstall(string) error           { return nil }
func (noopBackend) IsInstalled(string) (bool, error) { return true, nil }
