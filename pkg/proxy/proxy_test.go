package proxy

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roostdev/roost/pkg/routes"
	"github.com/roostdev/roost/pkg/types"
)

func TestIsWebSocketUpgrade(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Upgrade", "websocket")
	r.Header.Set("Connection", "Upgrade")
	assert.True(t, isWebSocketUpgrade(r))

	plain := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.False(t, isWebSocketUpgrade(plain))
}

func TestHostOnlyStripsPort(t *testing.T) {
	assert.Equal(t, "api.local", hostOnly("api.local:8443"))
	assert.Equal(t, "api.local", hostOnly("api.local"))
}

func TestRedirectToHTTPSPreservesPathAndQuery(t *testing.T) {
	p := &Proxy{}
	r := httptest.NewRequest(http.MethodGet, "/widgets?x=1", nil)
	r.Host = "api.local"
	w := httptest.NewRecorder()

	p.redirectToHTTPS(w, r)

	require.Equal(t, http.StatusMovedPermanently, w.Code)
	assert.Equal(t, "https://api.local/widgets?x=1", w.Header().Get("Location"))
}

func TestForwardSetsForwardedHeadersAndStreamsBody(t *testing.T) {
	var gotHost, gotProto, gotFor string
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHost = r.Host
		gotProto = r.Header.Get("X-Forwarded-Proto")
		gotFor = r.Header.Get("X-Forwarded-For")
		w.Write([]byte("ok"))
	}))
	defer backend.Close()

	backendURL, err := url.Parse(backend.URL)
	require.NoError(t, err)
	backendPort, err := strconv.Atoi(backendURL.Port())
	require.NoError(t, err)

	p := &Proxy{table: routes.New()}
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Host = "api.local"
	r.RemoteAddr = "10.0.0.5:5555"
	w := httptest.NewRecorder()

	p.forward(w, r, backendPort, 443)

	assert.Equal(t, "api.local", gotHost)
	assert.Equal(t, "https", gotProto)
	assert.Equal(t, "10.0.0.5", gotFor)
	assert.Equal(t, "ok", w.Body.String())
}

func TestHandlerForReturnsBadGatewayOnNoMapping(t *testing.T) {
	tbl := routes.New()
	tbl.Store(&types.RouteTable{Mappings: map[string]int{}, Ports: []int{80, 443}})
	p := &Proxy{table: tbl}

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Host = "unmapped.local"
	w := httptest.NewRecorder()

	p.handlerFor(443).ServeHTTP(w, r)

	assert.Equal(t, http.StatusBadGateway, w.Code)
}
