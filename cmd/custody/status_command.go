package main

import (
	"strconv"

	"github.com/spf13/cobra"

	"custody/internal/ledger"
	"custody/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show environment, store, and queue status",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.openRuntime(true)
			if err != nil {
				return err
			}
			defer rt.Close()

			checks := preflight.RunAll(cmd.Context(), rt.cfg)
			rows := make([][]string, 0, len(checks))
			for _, check := range checks {
				rows = append(rows, []string{check.Name, passFail(check.Passed), check.Detail})
			}
			cmd.Println(renderTable(
				[]string{"Check", "Result", "Detail"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft},
			))

			ids, err := rt.store.ListManifests()
			if err != nil {
				return err
			}
			entries, err := ledger.ReadAll(rt.cfg.LedgerPath())
			if err != nil {
				return err
			}
			cmd.Printf("Evidence items: %d, ledger entries: %d\n", len(ids), len(entries))

			health, err := rt.queue.Health(cmd.Context())
			if err != nil {
				return err
			}
			cmd.Println(renderTable(
				[]string{"Queue", "Count"},
				[][]string{
					{"Pending", strconv.Itoa(health.Pending)},
					{"Processing", strconv.Itoa(health.Processing)},
					{"Completed", strconv.Itoa(health.Completed)},
					{"Failed", strconv.Itoa(health.Failed)},
					{"Review", strconv.Itoa(health.Review)},
				},
				[]columnAlignment{alignLeft, alignRight},
			))

			if !preflight.Passed(checks) && stdoutIsTerminal() {
				cmd.Println("Some checks failed; fix them before ingesting evidence.")
			}
			return nil
		},
	}
}
