package main

import (
	"time"

	"github.com/spf13/cobra"

	"custody/internal/media"
	"custody/internal/normalize"
)

func newNormalizeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "normalize <evidence-id>...",
		Short: "Derive secondary artifacts for stored evidence",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.openRuntime(false)
			if err != nil {
				return err
			}
			defer rt.Close()

			tools := media.NewToolset(rt.cfg, rt.logger)
			normalizer := normalize.New(rt.store, rt.ledger, tools, rt.cfg, rt.logger)

			for _, evidenceID := range args {
				result, err := normalizer.Run(cmd.Context(), evidenceID)
				if err != nil {
					return err
				}

				rows := make([][]string, 0, len(result.Derivatives))
				for _, d := range result.Derivatives {
					detail := shortID(d.SHA256)
					if !d.Succeeded {
						detail = d.Error
					}
					rows = append(rows, []string{
						string(d.Type),
						yesNo(d.Succeeded),
						d.Elapsed.Round(time.Millisecond).String(),
						detail,
					})
				}
				cmd.Printf("%s (%s): succeeded=%s\n", evidenceID, result.Class, yesNo(result.Succeeded))
				if len(rows) > 0 {
					cmd.Println(renderTable(
						[]string{"Derivative", "OK", "Elapsed", "Detail"},
						rows,
						[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
					))
				}
			}
			return nil
		},
	}
}
