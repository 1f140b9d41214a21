package types

import "time"

// CA represents a locally generated certificate authority.
type CA struct {
	Name      string
	CertPath  string
	KeyPath   string
	NotAfter  time.Time
	Installed bool
	CreatedAt time.Time
}

// Domain represents a registered local development domain and the CA that
// issued its leaf certificate.
type Domain struct {
	Name      string
	CA        string
	Exact     bool
	CreatedAt time.Time
	NotAfter  time.Time
}

// SANPolicy returns the SAN list that an issued leaf for this domain must carry.
func (d Domain) SANPolicy() []string {
	if d.Exact {
		return []string{d.Name}
	}
	return []string{d.Name, "*." + d.Name}
}

// Ledger is the persisted content of config.toml: the CA and Domain registries.
type Ledger struct {
	DefaultCA string   `toml:"default_ca"`
	CAs       []CA     `toml:"cas"`
	Domains   []Domain `toml:"domains"`
}

// PortMapping is one domain→backend-port entry in a .roostrc [serve] table.
type PortMapping struct {
	Domain string `toml:"domain"`
	Port   int    `toml:"port"`
}

// RCServe is the [serve] table of a .roostrc file.
type RCServe struct {
	Ports    []int         `toml:"ports"`
	Mappings []PortMapping `toml:"mappings"`
}

// RCFile is the full parsed content of a .roostrc file.
type RCFile struct {
	Serve RCServe `toml:"serve"`
}

// Origin identifies which config file a merged mapping came from.
type Origin string

const (
	OriginProject Origin = "project"
	OriginGlobal  Origin = "global"
)

// RouteTable is an immutable snapshot of the merged routing configuration.
// A new RouteTable is built on every reload and swapped in atomically; it is
// never mutated after construction.
type RouteTable struct {
	Mappings   map[string]int
	Origins    map[string]Origin
	Ports      []int
	Generation uint64
}

// PrimaryPort returns the listen port used for domain→backend dispatch: 443
// if configured, else the smallest configured port.
func (rt *RouteTable) PrimaryPort() (int, bool) {
	if rt == nil || len(rt.Ports) == 0 {
		return 0, false
	}
	for _, p := range rt.Ports {
		if p == 443 {
			return 443, true
		}
	}
	min := rt.Ports[0]
	for _, p := range rt.Ports[1:] {
		if p < min {
			min = p
		}
	}
	return min, true
}

// DaemonState is the persisted content of daemon.json.
type DaemonState struct {
	PID         int       `json:"pid"`
	StartedAt   time.Time `json:"started_at"`
	ListenPorts []int     `json:"listen_ports"`
	Socket      string    `json:"socket"`
}

// DefaultAllowedTLDs lists the top-level domain labels Roost will issue
// leaves for without an explicit --allow override.
var DefaultAllowedTLDs = map[string]bool{
	"test":      true,
	"local":     true,
	"localhost": true,
	"dev":       true,
	"example":   true,
	"invalid":   true,
}

// CheckResult is the outcome of a single doctor check.
type CheckResult struct {
	Name      string
	Healthy   bool
	Message   string
	CheckedAt time.Time
}
