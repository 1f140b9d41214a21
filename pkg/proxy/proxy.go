package proxy

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/roostdev/roost/pkg/certs"
	"github.com/roostdev/roost/pkg/log"
	"github.com/roostdev/roost/pkg/metrics"
	"github.com/roostdev/roost/pkg/routes"
)

const (
	handshakeTimeout      = 10 * time.Second
	backendConnectTimeout = 5 * time.Second
	idleTimeout           = 60 * time.Second
	portQuiescence        = 1 * time.Second
)

// Proxy terminates TLS on every configured listen port (except port 80 while
// it is redirecting) and forwards requests over HTTP/1.1 (including
// WebSocket upgrades) to the backend selected by the routes.Table routing
// rule.
type Proxy struct {
	table  *routes.Table
	engine *certs.Engine

	mu        sync.Mutex
	listeners map[int]net.Listener
	servers   map[int]*http.Server
}

// New returns a Proxy dispatching against table and resolving certificates
// through engine.
func New(table *routes.Table, engine *certs.Engine) *Proxy {
	return &Proxy{
		table:     table,
		engine:    engine,
		listeners: make(map[int]net.Listener),
		servers:   make(map[int]*http.Server),
	}
}

// Start binds every port in the current RouteTable snapshot and serves
// until ctx is cancelled. Binding one port does not abort the others;
// failures are logged and counted, and the remaining ports keep serving.
func (p *Proxy) Start(ctx context.Context) error {
	rt := p.table.Load()

	for _, port := range rt.Ports {
		if err := p.bind(port); err != nil {
			log.Warn(fmt.Sprintf("failed to bind port %d: %v", port, err))
			metrics.ProxyBindFailuresTotal.WithLabelValues(strconv.Itoa(port)).Inc()
			continue
		}
	}
	metrics.ProxyListenersActive.Set(float64(len(p.listeners)))

	<-ctx.Done()
	return p.Shutdown()
}

func (p *Proxy) bind(port int) error {
	addr := fmt.Sprintf(":%d", port)

	if port == 80 && p.table.RedirectsHTTP() {
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			return err
		}
		srv := &http.Server{Handler: http.HandlerFunc(p.redirectToHTTPS), ReadTimeout: idleTimeout, IdleTimeout: idleTimeout}
		p.mu.Lock()
		p.listeners[port] = ln
		p.servers[port] = srv
		p.mu.Unlock()
		go func() {
			if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
				log.Error(fmt.Sprintf("http listener on %d: %v", port, err))
			}
		}()
		log.Info(fmt.Sprintf("listening on :%d (HTTP redirect)", port))
		return nil
	}

	tlsConfig := &tls.Config{
		MinVersion:     tls.VersionTLS12,
		GetCertificate: p.engine.GetCertificate,
		NextProtos:     []string{"h2", "http/1.1"},
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	tlsLn := tls.NewListener(ln, tlsConfig)

	srv := &http.Server{
		Handler:           p.handlerFor(port),
		ReadTimeout:       idleTimeout,
		ReadHeaderTimeout: handshakeTimeout,
		IdleTimeout:       idleTimeout,
	}
	p.mu.Lock()
	p.listeners[port] = tlsLn
	p.servers[port] = srv
	p.mu.Unlock()

	go func() {
		if err := srv.Serve(tlsLn); err != nil && err != http.ErrServerClosed {
			log.Error(fmt.Sprintf("tls listener on %d: %v", port, err))
		}
	}()
	log.Info(fmt.Sprintf("listening on :%d (TLS)", port))
	return nil
}

func (p *Proxy) redirectToHTTPS(w http.ResponseWriter, r *http.Request) {
	host := r.Host
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	target := "https://" + host + r.URL.RequestURI()
	http.Redirect(w, r, target, http.StatusMovedPermanently)
}

func (p *Proxy) handlerFor(listenPort int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		backend, ok := p.table.Backend(listenPort, hostOnly(r.Host))
		if !ok {
			metrics.ProxyBackendErrorsTotal.WithLabelValues("no_mapping").Inc()
			http.Error(w, "no mapping for host", http.StatusBadGateway)
			return
		}

		if isWebSocketUpgrade(r) {
			p.proxyWebSocket(w, r, backend, listenPort)
			return
		}

		p.forward(w, r, backend, listenPort)
		metrics.ProxyRequestDuration.WithLabelValues(strconv.Itoa(listenPort)).Observe(time.Since(start).Seconds())
	})
}

func hostOnly(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return host
}

// forward builds a per-request httputil.ReverseProxy targeting backend,
// a dynamic target chosen by the routing rule in routes.Table.Backend.
func (p *Proxy) forward(w http.ResponseWriter, r *http.Request, backend, listenPort int) {
	target, err := url.Parse(fmt.Sprintf("http://127.0.0.1:%d", backend))
	if err != nil {
		metrics.ProxyBackendErrorsTotal.WithLabelValues("bad_target").Inc()
		http.Error(w, "bad gateway", http.StatusBadGateway)
		return
	}

	originalHost := r.Host

	rp := httputil.NewSingleHostReverseProxy(target)
	rp.Transport = &http.Transport{
		DialContext: (&net.Dialer{Timeout: backendConnectTimeout}).DialContext,
	}
	director := rp.Director
	rp.Director = func(req *http.Request) {
		director(req)
		req.Host = originalHost
		req.Header.Set("X-Forwarded-Proto", "https")
		req.Header.Set("X-Forwarded-Host", originalHost)
		req.Header.Set("X-Forwarded-Port", strconv.Itoa(listenPort))
		// X-Forwarded-For is left to ReverseProxy, which appends the
		// client IP to any value the request already carries.
	}
	failed := false
	rp.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		failed = true
		log.Error(fmt.Sprintf("backend error for %s: %v", originalHost, err))
		metrics.ProxyBackendErrorsTotal.WithLabelValues("unreachable").Inc()
		metrics.ProxyRequestsTotal.WithLabelValues(strconv.Itoa(listenPort), "error").Inc()
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}

	rp.ServeHTTP(w, r)
	if !failed {
		metrics.ProxyRequestsTotal.WithLabelValues(strconv.Itoa(listenPort), "ok").Inc()
	}
}

func isWebSocketUpgrade(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket") &&
		strings.Contains(strings.ToLower(r.Header.Get("Connection")), "upgrade")
}

// proxyWebSocket hijacks the client connection and raw-copies bytes to and
// from the backend, since httputil.ReverseProxy cannot hijack through its
// Director.
func (p *Proxy) proxyWebSocket(w http.ResponseWriter, r *http.Request, backend, listenPort int) {
	hijacker, ok := w.(http.Hijacker)
	if !ok {
		http.Error(w, "upgrade not supported", http.StatusInternalServerError)
		return
	}

	backendConn, err := net.DialTimeout("tcp", fmt.Sprintf("127.0.0.1:%d", backend), backendConnectTimeout)
	if err != nil {
		metrics.ProxyBackendErrorsTotal.WithLabelValues("unreachable").Inc()
		http.Error(w, "bad gateway", http.StatusBadGateway)
		return
	}
	defer backendConn.Close()

	if err := r.Write(backendConn); err != nil {
		metrics.ProxyBackendErrorsTotal.WithLabelValues("unreachable").Inc()
		return
	}

	clientConn, _, err := hijacker.Hijack()
	if err != nil {
		log.Error(fmt.Sprintf("websocket hijack failed: %v", err))
		return
	}
	defer clientConn.Close()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); io.Copy(backendConn, clientConn) }()
	go func() { defer wg.Done(); io.Copy(clientConn, backendConn) }()
	wg.Wait()

	metrics.ProxyRequestsTotal.WithLabelValues(strconv.Itoa(listenPort), "websocket").Inc()
}

// Reload binds any newly configured ports and closes any that were
// removed, after a brief quiescence so in-flight accepts can finish. The
// dispatch snapshot itself is swapped by routes.Table.Store before Reload
// is called; existing listeners for unchanged ports are left untouched.
func (p *Proxy) Reload() error {
	rt := p.table.Load()

	wanted := make(map[int]bool, len(rt.Ports))
	for _, port := range rt.Ports {
		wanted[port] = true
	}

	p.mu.Lock()
	var toClose []int
	for port := range p.listeners {
		if !wanted[port] {
			toClose = append(toClose, port)
		}
	}
	var toBind []int
	for port := range wanted {
		if _, ok := p.listeners[port]; !ok {
			toBind = append(toBind, port)
		}
	}
	p.mu.Unlock()

	for _, port := range toBind {
		if err := p.bind(port); err != nil {
			log.Warn(fmt.Sprintf("failed to bind port %d on reload: %v", port, err))
			metrics.ProxyBindFailuresTotal.WithLabelValues(strconv.Itoa(port)).Inc()
		}
	}

	if len(toClose) > 0 {
		time.Sleep(portQuiescence)
		p.mu.Lock()
		for _, port := range toClose {
			if ln, ok := p.listeners[port]; ok {
				ln.Close()
				delete(p.listeners, port)
			}
			if srv, ok := p.servers[port]; ok {
				go srv.Close()
				delete(p.servers, port)
			}
		}
		p.mu.Unlock()
	}

	p.mu.Lock()
	metrics.ProxyListenersActive.Set(float64(len(p.listeners)))
	p.mu.Unlock()
	return nil
}

// Shutdown closes every listener and gives in-flight connections 30s to
// finish before forcing termination.
func (p *Proxy) Shutdown() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var firstErr error
	for port, srv := range p.servers {
		if err := srv.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("shutdown port %d: %w", port, err)
		}
	}
	metrics.ProxyListenersActive.Set(0)
	return firstErr
}

// ListenPorts returns the ports currently bound.
func (p *Proxy) ListenPorts() []int {
	p.mu.Lock()
	defer p.mu.Unlock()
	ports := make([]int, 0, len(p.listeners))
	for port := range p.listeners {
		ports = append(ports, port)
	}
	return ports
}
