package routes

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roostdev/roost/pkg/types"
)

func TestBackendUsesMappingOnPrimaryPort(t *testing.T) {
	tbl := New()
	tbl.Store(&types.RouteTable{
		Mappings: map[string]int{"api.local": 3000},
		Ports:    []int{80, 443},
	})

	port, ok := tbl.Backend(443, "api.local")
	assert.True(t, ok)
	assert.Equal(t, 3000, port)
}

func TestBackendMissingMappingOnPrimaryPort(t *testing.T) {
	tbl := New()
	tbl.Store(&types.RouteTable{Mappings: map[string]int{}, Ports: []int{80, 443}})

	_, ok := tbl.Backend(443, "unknown.local")
	assert.False(t, ok)
}

func TestBackendPassthroughOnNonPrimaryPort(t *testing.T) {
	tbl := New()
	tbl.Store(&types.RouteTable{Mappings: map[string]int{"api.local": 3000}, Ports: []int{80, 443, 5173}})

	port, ok := tbl.Backend(5173, "anything")
	assert.True(t, ok)
	assert.Equal(t, 5173, port)
}

func TestRedirectsHTTPRequiresBothPorts(t *testing.T) {
	tbl := New()
	tbl.Store(&types.RouteTable{Ports: []int{80, 443}})
	assert.True(t, tbl.RedirectsHTTP())

	tbl.Store(&types.RouteTable{Ports: []int{80}})
	assert.False(t, tbl.RedirectsHTTP())

	tbl.Store(&types.RouteTable{Ports: []int{443}})
	assert.False(t, tbl.RedirectsHTTP())
}

func TestPrimaryPortPrefers443ThenMin(t *testing.T) {
	tbl := New()
	tbl.Store(&types.RouteTable{Mappings: map[string]int{"x": 1}, Ports: []int{8080, 443, 80}})
	port, ok := tbl.Backend(443, "x")
	assert.True(t, ok)
	assert.Equal(t, 1, port)

	tbl.Store(&types.RouteTable{Mappings: map[string]int{"x": 1}, Ports: []int{8080, 9090}})
	port, ok = tbl.Backend(8080, "x")
	assert.True(t, ok)
	assert.Equal(t, 1, port)
}
