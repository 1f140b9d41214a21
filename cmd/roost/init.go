package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roostdev/roost/pkg/certs"
	"github.com/roostdev/roost/pkg/config"
	"github.com/roostdev/roost/pkg/rooterr"
	"github.com/roostdev/roost/pkg/store"
	"github.com/roostdev/roost/pkg/trust"
	"github.com/roostdev/roost/pkg/types"
)

const defaultCAName = "roost"

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Set up $ROOST_HOME, a default CA, and trust-store installation",
	RunE: func(cmd *cobra.Command, args []string) error {
		home, err := store.DefaultHome()
		if err != nil {
			return err
		}
		s, err := store.New(home)
		if err != nil {
			return err
		}
		fmt.Printf("roost home: %s\n", s.Home())

		engine := certs.New(s)
		ca, err := engine.CreateCA(defaultCAName)
		switch {
		case errors.Is(err, rooterr.ErrCAExists):
			printOK("CA %q already exists", defaultCAName)
		case err != nil:
			return err
		default:
			printOK("created CA %q", ca.Name)
		}

		backend := trust.New(trust.Default)
		installErr := backend.Install(defaultCAName, s.CACertPath(defaultCAName))
		if err := setCAInstalled(s, defaultCAName, installErr == nil); err != nil {
			return err
		}
		if installErr != nil {
			printFail("install %q into system trust store: %v", defaultCAName, installErr)
		} else {
			printOK("installed %q into system trust store", defaultCAName)
		}

		globalRC := config.GlobalPath(s.Home())
		if _, err := os.Stat(globalRC); os.IsNotExist(err) {
			if err := config.Save(globalRC, &types.RCFile{}); err != nil {
				return err
			}
		}
		printOK("ready: %s", globalRC)
		return nil
	},
}
