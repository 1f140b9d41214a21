// Package store owns every file under $ROOST_HOME: the CA/Domain ledger
// (config.toml), leaf and CA certificate/key files, and daemon.json. Other
// packages get these paths from Store; ledger and certificate writes go
// through it, while pkg/certs and pkg/doctor read cert/key files, pkg/certs
// removes CA files, and pkg/daemon reads, writes and removes daemon.json at
// those paths directly.
package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pelletier/go-toml/v2"

	"github.com/roostdev/roost/pkg/rooterr"
	"github.com/roostdev/roost/pkg/types"
)

const (
	ledgerFileName = "config.toml"
	daemonFileName = "daemon.json"
	certsDirName   = "certs"
	casDirName     = "cas"
)

// Store provides typed, atomic access to roost's on-disk state.
type Store struct {
	home string
}

// New returns a Store rooted at home, creating the directory tree (mode
// 0700) if it does not already exist.
func New(home string) (*Store, error) {
	if home == "" {
		var err error
		home, err = DefaultHome()
		if err != nil {
			return nil, err
		}
	}
	for _, dir := range []string{home, filepath.Join(home, certsDirName), filepath.Join(home, casDirName)} {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return &Store{home: home}, nil
}

// DefaultHome returns $ROOST_HOME if set, else ~/.roost.
func DefaultHome() (string, error) {
	if v := os.Getenv("ROOST_HOME"); v != "" {
		return v, nil
	}
	dir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(dir, ".roost"), nil
}

// Home returns the root directory this Store manages.
func (s *Store) Home() string { return s.home }

// CertsDir returns the directory holding all leaf certificate/key files.
func (s *Store) CertsDir() string {
	return filepath.Join(s.home, certsDirName)
}

// CertPath returns the path of a domain's leaf certificate.
func (s *Store) CertPath(domain string) string {
	return filepath.Join(s.home, certsDirName, domain+".pem")
}

// KeyPath returns the path of a domain's leaf private key.
func (s *Store) KeyPath(domain string) string {
	return filepath.Join(s.home, certsDirName, domain+"-key.pem")
}

// CACertPath returns the path of a CA's certificate.
func (s *Store) CACertPath(name string) string {
	return filepath.Join(s.home, casDirName, name+".pem")
}

// CAKeyPath returns the path of a CA's private key.
func (s *Store) CAKeyPath(name string) string {
	return filepath.Join(s.home, casDirName, name+"-key.pem")
}

// DaemonStatePath returns the path of daemon.json.
func (s *Store) DaemonStatePath() string {
	return filepath.Join(s.home, daemonFileName)
}

func (s *Store) ledgerPath() string {
	return filepath.Join(s.home, ledgerFileName)
}

// ReadLedger loads and parses config.toml. A missing file returns an empty
// Ledger, not an error; an unparsable file returns ErrStoreCorrupt.
func (s *Store) ReadLedger() (*types.Ledger, error) {
	data, err := os.ReadFile(s.ledgerPath())
	if os.IsNotExist(err) {
		return &types.Ledger{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}
	var ledger types.Ledger
	if err := toml.Unmarshal(data, &ledger); err != nil {
		return nil, fmt.Errorf("%w: %v", rooterr.ErrStoreCorrupt, err)
	}
	return &ledger, nil
}

// WriteLedger atomically replaces config.toml with the given ledger.
func (s *Store) WriteLedger(ledger *types.Ledger) error {
	data, err := toml.Marshal(ledger)
	if err != nil {
		return fmt.Errorf("marshal ledger: %w", err)
	}
	return s.atomicWrite(s.ledgerPath(), data, 0o600)
}

// ListDomains returns the domain entries currently in the ledger.
func (s *Store) ListDomains() ([]types.Domain, error) {
	ledger, err := s.ReadLedger()
	if err != nil {
		return nil, err
	}
	return ledger.Domains, nil
}

// ListCAs returns the CA entries currently in the ledger.
func (s *Store) ListCAs() ([]types.CA, error) {
	ledger, err := s.ReadLedger()
	if err != nil {
		return nil, err
	}
	return ledger.CAs, nil
}

// atomicWrite writes data to a temp file beside target, fsyncs it, then
// renames it over target — rename is atomic within a single directory.
func (s *Store) atomicWrite(target string, data []byte, mode os.FileMode) error {
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp := filepath.Join(dir, filepath.Base(target)+".tmp-"+uuid.NewString())
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, mode)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename temp file: %w", err)
	}
	if dirF, err := os.Open(dir); err == nil {
		dirF.Sync()
		dirF.Close()
	}
	return nil
}

// WriteCertPair atomically writes a leaf certificate and key for domain.
func (s *Store) WriteCertPair(domain string, certPEM, keyPEM []byte) error {
	if err := s.atomicWrite(s.CertPath(domain), certPEM, 0o644); err != nil {
		return err
	}
	return s.atomicWrite(s.KeyPath(domain), keyPEM, 0o600)
}

// WriteCAPair atomically writes a CA certificate and key.
func (s *Store) WriteCAPair(name string, certPEM, keyPEM []byte) error {
	if err := s.atomicWrite(s.CACertPath(name), certPEM, 0o644); err != nil {
		return err
	}
	return s.atomicWrite(s.CAKeyPath(name), keyPEM, 0o600)
}

// RemoveDomainFiles deletes a domain's cert and key files, ignoring
// not-exist errors.
func (s *Store) RemoveDomainFiles(domain string) error {
	for _, p := range []string{s.CertPath(domain), s.KeyPath(domain)} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove %s: %w", p, err)
		}
	}
	return nil
}
