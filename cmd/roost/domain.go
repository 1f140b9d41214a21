package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roostdev/roost/pkg/certs"
	"github.com/roostdev/roost/pkg/daemon"
	"github.com/roostdev/roost/pkg/hosts"
	"github.com/roostdev/roost/pkg/rooterr"
	"github.com/roostdev/roost/pkg/store"
	"github.com/roostdev/roost/pkg/trust"
)

var domainCmd = &cobra.Command{
	Use:   "domain",
	Short: "Manage local domains and their leaf certificates",
}

func init() {
	domainAddCmd.Flags().Bool("exact", false, "Issue for this exact name only, no wildcard SAN")
	domainAddCmd.Flags().Bool("allow", false, "Allow a TLD outside the built-in allowlist")
	domainAddCmd.Flags().String("ca", "", "CA to issue from (default: the ledger's default CA)")
	domainCmd.AddCommand(domainListCmd, domainAddCmd, domainRemoveCmd, domainSetCACmd, domainGetPathCmd)
}

var domainListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered domains",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		domains, err := s.ListDomains()
		if err != nil {
			return err
		}
		if len(domains) == 0 {
			fmt.Println("no domains registered")
			return nil
		}
		for _, d := range domains {
			kind := "wildcard"
			if d.Exact {
				kind = "exact"
			}
			fmt.Printf("%s\tca=%s\t%s\texpires %s\n", d.Name, d.CA, kind, d.NotAfter.Format("2006-01-02"))
		}
		return nil
	},
}

var domainAddCmd = &cobra.Command{
	Use:   "add <domain>",
	Short: "Register a domain and issue its leaf certificate",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		exact, _ := cmd.Flags().GetBool("exact")
		allow, _ := cmd.Flags().GetBool("allow")
		ca, _ := cmd.Flags().GetString("ca")

		d, err := certs.New(s).IssueDomain(args[0], ca, exact, allow)
		if err != nil {
			return err
		}
		if err := syncHostsFile(s); err != nil {
			return err
		}
		reloadDaemon(s)
		printOK("issued leaf for %q from CA %q", d.Name, d.CA)
		return nil
	},
}

var domainRemoveCmd = &cobra.Command{
	Use:   "remove <domain>",
	Short: "Unregister a domain and delete its leaf certificate",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		if err := certs.New(s).RemoveDomain(args[0]); err != nil {
			return err
		}
		if err := hosts.New(trust.Default).Remove(args[0]); err != nil {
			return err
		}
		reloadDaemon(s)
		printOK("removed domain %q", args[0])
		return nil
	},
}

var domainSetCACmd = &cobra.Command{
	Use:   "set-ca <domain> <ca>",
	Short: "Re-issue a domain's leaf from a different CA",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		ledger, err := s.ReadLedger()
		if err != nil {
			return err
		}
		exact := false
		found := false
		for _, d := range ledger.Domains {
			if d.Name == args[0] {
				exact = d.Exact
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%w: %s", rooterr.ErrDomainMissing, args[0])
		}
		if _, err := certs.New(s).IssueDomain(args[0], args[1], exact, true); err != nil {
			return err
		}
		printOK("%q now issued by CA %q", args[0], args[1])
		return nil
	},
}

var domainGetPathCmd = &cobra.Command{
	Use:   "get-path {cert|key} <domain>",
	Short: "Print the absolute path to a domain's cert or key file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		ledger, err := s.ReadLedger()
		if err != nil {
			return err
		}
		domain := args[1]
		found := false
		for _, d := range ledger.Domains {
			if d.Name == domain {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%w: %s", rooterr.ErrDomainMissing, domain)
		}
		switch args[0] {
		case "cert":
			fmt.Println(s.CertPath(domain))
		case "key":
			fmt.Println(s.KeyPath(domain))
		default:
			return fmt.Errorf("unknown path kind %q, want cert or key", args[0])
		}
		return nil
	},
}

// syncHostsFile rewrites the hosts block so it contains exactly the
// ledger's registered domain names, keeping it in step with domain add.
func syncHostsFile(s *store.Store) error {
	domains, err := s.ListDomains()
	if err != nil {
		return err
	}
	names := make([]string, 0, len(domains))
	for _, d := range domains {
		names = append(names, d.Name)
	}
	return hosts.New(trust.Default).Ensure(names)
}

// reloadDaemon best-effort signals a running daemon to pick up the newly
// issued or removed domain; it is a no-op when the daemon isn't running.
func reloadDaemon(s *store.Store) {
	if err := daemon.New(s).Reload(); err != nil && !errors.Is(err, rooterr.ErrDaemonNotRunning) {
		printFail("notify daemon to reload: %v", err)
	}
}
