/*
Package trust installs and removes roost CA roots from the OS trust store.

Each platform ships its own Backend (trust_darwin.go, trust_linux.go,
trust_windows.go) behind a single Install/Uninstall/IsInstalled contract;
New selects the right one via build tags and wraps it in a no-op when
ROOST_SKIP_TRUST_INSTALL is set, so tests and CI never need real root
access. The actual OS command is invoked through PrivilegedExec, which
pkg/hosts shares for its own elevated writes.
*/
package trust
