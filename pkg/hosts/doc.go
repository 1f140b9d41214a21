/*
Package hosts manages the roost-owned block of the OS hosts file: lines
between "# BEGIN ROOST" and "# END ROOST", one 127.0.0.1/::1 pair per
registered domain. Everything outside the block is preserved byte-for-byte.

Writes go through a staged temp file and a PrivilegedExec-driven copy into
place (see hosts_unix.go / hosts_windows.go), since the real hosts path
usually isn't writable by an unprivileged process. On POSIX, a flock on the
sibling "<hosts path>.roost.lock" file serializes concurrent roost
invocations across processes; on Windows the lock is a no-op.
*/
package hosts
