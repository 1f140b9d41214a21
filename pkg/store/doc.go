/*
Package store provides typed, atomic access to roost's on-disk state under
$ROOST_HOME (default ~/.roost):

	~/.roost/
	  config.toml       CA + Domain ledger (types.Ledger)
	  daemon.json       DaemonState
	  cas/<name>.pem, <name>-key.pem
	  certs/<domain>.pem, <domain>-key.pem

All writes go through atomicWrite: content is written to a uniquely-named
temp file in the same directory, fsynced, then renamed over the target.
Rename is atomic on a POSIX filesystem, so readers never observe a partial
ledger or certificate even if the process is killed mid-write. The ledger
itself is a single TOML document; there is no partial-update API — callers
read the whole Ledger, mutate it in memory, and write it back.

Store does not interpret the ledger's contents (domain policy, CA lifetime,
renewal) — that belongs to pkg/certs and pkg/config. Store only guarantees
the bytes on disk are whichever version was last atomically committed.
*/
package store
