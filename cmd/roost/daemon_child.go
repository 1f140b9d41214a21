package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/roostdev/roost/pkg/certs"
	"github.com/roostdev/roost/pkg/config"
	"github.com/roostdev/roost/pkg/daemon"
	"github.com/roostdev/roost/pkg/log"
	"github.com/roostdev/roost/pkg/metrics"
	"github.com/roostdev/roost/pkg/proxy"
	"github.com/roostdev/roost/pkg/routes"
	"github.com/roostdev/roost/pkg/store"
	"github.com/roostdev/roost/pkg/types"
)

// runDaemonChild is the detached process body re-exec'd by
// daemon.Manager.Start. It owns the proxy's lifetime, persists daemon.json
// once listeners are up, and reloads on SIGHUP. SIGHUP is the only reload
// trigger watched here; the child neither creates nor waits on the named
// event that the Windows daemon.Manager.Reload signals.
func runDaemonChild() {
	log.Init(log.Config{Level: log.InfoLevel, JSONOutput: true})

	home, err := store.DefaultHome()
	if err != nil {
		log.Fatal("resolve roost home: " + err.Error())
	}
	s, err := store.New(home)
	if err != nil {
		log.Fatal("open store: " + err.Error())
	}

	engine := certs.New(s)
	if err := engine.WatchFiles(); err != nil {
		log.Error("cert file watcher: " + err.Error())
	}
	defer engine.Close()

	table := routes.New()
	merger := config.New(s.Home())
	rt, err := merger.Merge(1)
	if err != nil {
		log.Fatal("merge config: " + err.Error())
	}
	table.Store(rt)

	p := proxy.New(table, engine)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	mgr := daemon.New(s)
	go persistStateOnceBound(mgr, p)

	stop := make(chan struct{})
	engine.StartRenewalTicker(stop)
	defer close(stop)

	go serveMetrics()

	generation := rt.Generation
	reload := make(chan os.Signal, 1)
	signal.Notify(reload, syscall.SIGHUP)
	go func() {
		for {
			select {
			case <-reload:
				generation++
				next, err := merger.Merge(generation)
				if err != nil {
					log.Error("reload: merge config: " + err.Error())
					continue
				}
				table.Store(next)
				if err := p.Reload(); err != nil {
					log.Error("reload: rebind listeners: " + err.Error())
				}
				if _, err := engine.RenewalScan(); err != nil {
					log.Error("reload: renewal scan: " + err.Error())
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	if err := p.Start(ctx); err != nil {
		log.Error("proxy stopped: " + err.Error())
	}
	_ = mgr.ClearState()
}

// persistStateOnceBound polls the proxy's bound listen ports and writes
// daemon.json as soon as at least one port is live, giving callers of
// `roost daemon status` an accurate view shortly after start.
func persistStateOnceBound(mgr *daemon.Manager, p *proxy.Proxy) {
	for i := 0; i < 50; i++ {
		if ports := p.ListenPorts(); len(ports) > 0 {
			_ = mgr.WriteState(&types.DaemonState{
				PID:         os.Getpid(),
				StartedAt:   time.Now(),
				ListenPorts: ports,
			})
			return
		}
		time.Sleep(100 * time.Millisecond)
	}
}

// serveMetrics exposes Prometheus metrics on loopback only; there is no
// roost-wide need for this to be reachable off the workstation.
func serveMetrics() {
	srv := &http.Server{
		Addr:    "127.0.0.1:9797",
		Handler: metrics.Handler(),
	}
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("metrics listener: " + err.Error())
	}
}
