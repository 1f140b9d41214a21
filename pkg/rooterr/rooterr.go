// Package rooterr defines roost's error-kind taxonomy as sentinel errors.
//
// Callers compare with errors.Is against the sentinels below rather than
// matching error strings. The CLI's main exits with status 1 for any error,
// whatever its kind; lower layers wrap a sentinel with context via
// fmt.Errorf's %w.
package rooterr

import "errors"

var (
	ErrInvalidDomain      = errors.New("invalid domain")
	ErrDomainExists       = errors.New("domain already registered")
	ErrDomainMissing      = errors.New("domain not registered")
	ErrCAExists           = errors.New("ca already exists")
	ErrCAMissing          = errors.New("ca not found")
	ErrCAInUse            = errors.New("ca is in use by one or more domains")
	ErrPermissionDenied   = errors.New("privileged operation was not authorized")
	ErrTrustStoreFailed   = errors.New("trust store operation failed")
	ErrStoreCorrupt       = errors.New("store file is corrupt")
	ErrNoMapping          = errors.New("no backend mapping for host")
	ErrBackendUnreachable = errors.New("backend unreachable")
	ErrHandshakeFailed    = errors.New("tls handshake failed")
	ErrBindFailed         = errors.New("listener bind failed")
	ErrDaemonNotRunning   = errors.New("daemon is not running")
	ErrDaemonAlreadyUp    = errors.New("daemon is already running")
)
