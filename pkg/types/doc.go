/*
Package types defines the core data structures shared across roost's
packages: CAs, Domains, the merged Ledger and RCFile configuration shapes,
the RouteTable snapshot the proxy dispatches against, and DaemonState.

These are plain data types with no behavior beyond small derived helpers
(Domain.SANPolicy, RouteTable.PrimaryPort). Every mutation goes through the
owning package (store, config, certs) — types itself never touches disk.
*/
package types
