package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/roostdev/roost/pkg/doctor"
	"github.com/roostdev/roost/pkg/hosts"
	"github.com/roostdev/roost/pkg/store"
	"github.com/roostdev/roost/pkg/trust"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check CA, trust store, hosts block, and leaf expiry health",
	RunE: func(cmd *cobra.Command, args []string) error {
		home, err := store.DefaultHome()
		if err != nil {
			return err
		}
		s, err := store.New(home)
		if err != nil {
			return err
		}

		backend := trust.New(trust.Default)
		hostsFile := hosts.New(trust.Default)
		suite := doctor.New(s, backend, hostsFile)

		results := suite.Run(context.Background())
		failed := 0
		for _, r := range results {
			if !r.Healthy {
				failed++
				printFail("%s: %s", r.Name, r.Message)
				continue
			}
			printOK("%s: %s", r.Name, r.Message)
		}
		if failed > 0 {
			cmd.SilenceUsage = true
			return &doctorFailure{count: failed}
		}
		return nil
	},
}

type doctorFailure struct{ count int }

func (e *doctorFailure) Error() string {
	if e.count == 1 {
		return "1 check failed"
	}
	return "multiple checks failed"
}
