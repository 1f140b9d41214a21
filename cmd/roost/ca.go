package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roostdev/roost/pkg/certs"
	"github.com/roostdev/roost/pkg/store"
	"github.com/roostdev/roost/pkg/trust"
)

var caCmd = &cobra.Command{
	Use:   "ca",
	Short: "Manage local certificate authorities",
}

func init() {
	caCmd.AddCommand(caListCmd, caCreateCmd, caRemoveCmd, caInstallCmd, caUninstallCmd)
}

func openStore() (*store.Store, error) {
	home, err := store.DefaultHome()
	if err != nil {
		return nil, err
	}
	return store.New(home)
}

var caListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered CAs",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		cas, err := s.ListCAs()
		if err != nil {
			return err
		}
		if len(cas) == 0 {
			fmt.Println("no CAs registered")
			return nil
		}
		for _, ca := range cas {
			fmt.Printf("%s\texpires %s\n", ca.Name, ca.NotAfter.Format("2006-01-02"))
		}
		return nil
	},
}

var caCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a new CA",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		ca, err := certs.New(s).CreateCA(args[0])
		if err != nil {
			return err
		}
		printOK("created CA %q", ca.Name)
		return nil
	},
}

var caRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a CA not currently in use",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		if err := certs.New(s).RemoveCA(args[0]); err != nil {
			return err
		}
		printOK("removed CA %q", args[0])
		return nil
	},
}

var caInstallCmd = &cobra.Command{
	Use:   "install [name]",
	Short: "Install a CA into the system trust store",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		name, err := resolveCAName(s, args)
		if err != nil {
			return err
		}
		backend := trust.New(trust.Default)
		installErr := backend.Install(name, s.CACertPath(name))
		if err := setCAInstalled(s, name, installErr == nil); err != nil {
			return err
		}
		if installErr != nil {
			return installErr
		}
		printOK("installed %q into system trust store", name)
		return nil
	},
}

var caUninstallCmd = &cobra.Command{
	Use:   "uninstall [name]",
	Short: "Remove a CA from the system trust store",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		name, err := resolveCAName(s, args)
		if err != nil {
			return err
		}
		backend := trust.New(trust.Default)
		if err := backend.Uninstall(name); err != nil {
			return err
		}
		if err := setCAInstalled(s, name, false); err != nil {
			return err
		}
		printOK("uninstalled %q from system trust store", name)
		return nil
	},
}

// setCAInstalled persists the Installed flag for the named CA in the
// ledger, recording whether it is currently trusted by the OS.
func setCAInstalled(s *store.Store, name string, installed bool) error {
	ledger, err := s.ReadLedger()
	if err != nil {
		return err
	}
	for i := range ledger.CAs {
		if ledger.CAs[i].Name == name {
			ledger.CAs[i].Installed = installed
			return s.WriteLedger(ledger)
		}
	}
	return nil
}

// resolveCAName returns args[0] if given, else the ledger's default CA.
func resolveCAName(s *store.Store, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	ledger, err := s.ReadLedger()
	if err != nil {
		return "", err
	}
	if ledger.DefaultCA == "" {
		return "", errors.New("no CA name given and no default CA configured")
	}
	return ledger.DefaultCA, nil
}
