// Package routes holds the live, atomically-swapped RouteTable the proxy
// dispatches backend selection against.
package routes

import (
	"sync/atomic"

	"github.com/roostdev/roost/pkg/types"
)

// Table owns the current RouteTable snapshot behind an atomic.Pointer, so
// readers never observe a partially-updated map and reloads never block
// in-flight requests.
type Table struct {
	current atomic.Pointer[types.RouteTable]
}

// New returns a Table seeded with an empty snapshot (generation 0).
func New() *Table {
	t := &Table{}
	t.Store(&types.RouteTable{
		Mappings: map[string]int{},
		Origins:  map[string]types.Origin{},
		Ports:    []int{80, 443},
	})
	return t
}

// Store installs rt as the current snapshot.
func (t *Table) Store(rt *types.RouteTable) {
	t.current.Store(rt)
}

// Load returns the current snapshot. The returned value must never be
// mutated by the caller.
func (t *Table) Load() *types.RouteTable {
	return t.current.Load()
}

// Backend resolves the backend port for a connection accepted on
// listenPort with SNI/Host name host: the primary HTTPS port routes
// through the domain→port mapping, every other configured port is a
// port-preserving passthrough.
func (t *Table) Backend(listenPort int, host string) (int, bool) {
	rt := t.Load()
	if primary, ok := rt.PrimaryPort(); ok && listenPort == primary {
		port, ok := rt.Mappings[host]
		return port, ok
	}
	return listenPort, true
}

// RedirectsHTTP reports whether port 80 should 301-redirect to HTTPS,
// which is the case exactly when both 80 and 443 are configured.
func (t *Table) RedirectsHTTP() bool {
	rt := t.Load()
	has80, has443 := false, false
	for _, p := range rt.Ports {
		if p == 80 {
			has80 = true
		}
		if p == 443 {
			has443 = true
		}
	}
	return has80 && has443
}
