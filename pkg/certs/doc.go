/*
Package certs implements roost's certificate lifecycle: CA generation, leaf
issuance with the exact/wildcard SAN policy, a 30-day renewal scan, and the
in-memory SNI resolver cache that backs the proxy's tls.Config.GetCertificate
callback.

Keys are ECDSA P-256 throughout — both CA and leaf — with 128-bit random
serials (crypto/rand). Leaves are valid for 825 days or the remaining CA
validity, whichever is shorter; RenewalScan re-issues any leaf within 30
days of its NotAfter. All key material is written through pkg/store, never
directly, so every write is atomic.

Engine.Lookup implements the SNI match order the proxy depends on: exact
Domain match first, then any non-exact Domain whose wildcard SAN covers a
direct (single-label) subdomain. A miss returns rooterr.ErrNoMapping, which
the proxy's TLS layer turns into a handshake abort.
*/
package certs
