// Package doctor runs roost's one-shot diagnostic checks: CA presence,
// trust-store installation, hosts-block integrity, and leaf expiry. Each
// check is a single pass/fail report suited to a CLI command, not a
// continuously retried health probe.
package doctor

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/roostdev/roost/pkg/certs"
	"github.com/roostdev/roost/pkg/hosts"
	"github.com/roostdev/roost/pkg/store"
	"github.com/roostdev/roost/pkg/trust"
	"github.com/roostdev/roost/pkg/types"
)

// Checker performs a single diagnostic check.
type Checker interface {
	Check(ctx context.Context) types.CheckResult
}

// Suite runs every registered Checker and collects their results.
type Suite struct {
	checkers []Checker
}

// New returns a Suite covering CA presence, trust-store installation for
// every CA, hosts-block integrity, and leaf expiry, backed by s.
func New(s *store.Store, trustBackend trust.Backend, hostsFile *hosts.File) *Suite {
	return &Suite{checkers: []Checker{
		caPresenceChecker{store: s},
		trustStoreChecker{store: s, backend: trustBackend},
		hostsBlockChecker{store: s, hosts: hostsFile},
		leafExpiryChecker{store: s},
	}}
}

// Run executes every check and returns its results in registration order.
func (s *Suite) Run(ctx context.Context) []types.CheckResult {
	results := make([]types.CheckResult, 0, len(s.checkers))
	for _, c := range s.checkers {
		results = append(results, c.Check(ctx))
	}
	return results
}

type caPresenceChecker struct{ store *store.Store }

func (c caPresenceChecker) Check(ctx context.Context) types.CheckResult {
	now := time.Now()
	ledger, err := c.store.ReadLedger()
	if err != nil {
		return types.CheckResult{Name: "ca-presence", Healthy: false, Message: err.Error(), CheckedAt: now}
	}
	if len(ledger.CAs) == 0 {
		return types.CheckResult{Name: "ca-presence", Healthy: false, Message: "no CA registered; run `roost ca create`", CheckedAt: now}
	}
	return types.CheckResult{
		Name:      "ca-presence",
		Healthy:   true,
		Message:   fmt.Sprintf("%d CA(s) registered", len(ledger.CAs)),
		CheckedAt: now,
	}
}

type trustStoreChecker struct {
	store   *store.Store
	backend trust.Backend
}

func (c trustStoreChecker) Check(ctx context.Context) types.CheckResult {
	now := time.Now()
	ledger, err := c.store.ReadLedger()
	if err != nil {
		return types.CheckResult{Name: "trust-store", Healthy: false, Message: err.Error(), CheckedAt: now}
	}
	var missing []string
	for _, ca := range ledger.CAs {
		installed, err := c.backend.IsInstalled(ca.Name)
		if err != nil || !installed {
			missing = append(missing, ca.Name)
		}
	}
	if len(missing) > 0 {
		return types.CheckResult{
			Name:      "trust-store",
			Healthy:   false,
			Message:   fmt.Sprintf("not installed in system trust store: %v", missing),
			CheckedAt: now,
		}
	}
	return types.CheckResult{Name: "trust-store", Healthy: true, Message: "all CAs trusted", CheckedAt: now}
}

type hostsBlockChecker struct {
	store *store.Store
	hosts *hosts.File
}

func (c hostsBlockChecker) Check(ctx context.Context) types.CheckResult {
	now := time.Now()
	ledger, err := c.store.ReadLedger()
	if err != nil {
		return types.CheckResult{Name: "hosts-block", Healthy: false, Message: err.Error(), CheckedAt: now}
	}
	present, err := c.hosts.Domains()
	if err != nil {
		return types.CheckResult{Name: "hosts-block", Healthy: false, Message: err.Error(), CheckedAt: now}
	}
	have := make(map[string]bool, len(present))
	for _, d := range present {
		have[d] = true
	}
	var missing []string
	for _, d := range ledger.Domains {
		if !have[d.Name] {
			missing = append(missing, d.Name)
		}
	}
	if len(missing) > 0 {
		return types.CheckResult{
			Name:      "hosts-block",
			Healthy:   false,
			Message:   fmt.Sprintf("missing from hosts file: %v", missing),
			CheckedAt: now,
		}
	}
	return types.CheckResult{Name: "hosts-block", Healthy: true, Message: "all domains present", CheckedAt: now}
}

type leafExpiryChecker struct{ store *store.Store }

func (c leafExpiryChecker) Check(ctx context.Context) types.CheckResult {
	now := time.Now()
	ledger, err := c.store.ReadLedger()
	if err != nil {
		return types.CheckResult{Name: "leaf-expiry", Healthy: false, Message: err.Error(), CheckedAt: now}
	}
	var expiring []string
	for _, d := range ledger.Domains {
		certPEM, err := os.ReadFile(c.store.CertPath(d.Name))
		if err != nil {
			expiring = append(expiring, d.Name+" (missing)")
			continue
		}
		cert, err := certs.DecodeCert(certPEM)
		if err != nil {
			expiring = append(expiring, d.Name+" (unreadable)")
			continue
		}
		if certs.NeedsRenewal(cert) {
			expiring = append(expiring, d.Name)
		}
	}
	if len(expiring) > 0 {
		return types.CheckResult{
			Name:      "leaf-expiry",
			Healthy:   false,
			Message:   fmt.Sprintf("due for renewal: %v", expiring),
			CheckedAt: now,
		}
	}
	return types.CheckResult{Name: "leaf-expiry", Healthy: true, Message: "all leaves current", CheckedAt: now}
}
