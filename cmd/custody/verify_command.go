package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"custody/internal/ledger"
)

func newVerifyCommand(ctx *commandContext) *cobra.Command {
	var rehashStore bool

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify the ledger hash chain and optionally rehash stored originals",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			problems, err := ledger.Verify(cfg.LedgerPath())
			if err != nil {
				return err
			}
			if len(problems) == 0 {
				entries, err := ledger.ReadAll(cfg.LedgerPath())
				if err != nil {
					return err
				}
				cmd.Printf("Ledger chain intact (%d entries).\n", len(entries))
			} else {
				for _, problem := range problems {
					cmd.Printf("LEDGER %s\n", problem.Error())
				}
			}

			if rehashStore {
				if err := rehashOriginals(cmd, ctx); err != nil {
					return err
				}
			}

			if len(problems) > 0 {
				return fmt.Errorf("ledger verification found %d problems", len(problems))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&rehashStore, "store", false, "Also rehash every stored original against its content address")
	return cmd
}

func rehashOriginals(cmd *cobra.Command, ctx *commandContext) error {
	rt, err := ctx.openRuntime(false)
	if err != nil {
		return err
	}
	defer rt.Close()

	ids, err := rt.store.ListManifests()
	if err != nil {
		return err
	}

	seen := make(map[string]struct{})
	bad := 0
	for _, evidenceID := range ids {
		manifest, err := rt.store.LoadManifest(evidenceID)
		if err != nil {
			cmd.Printf("STORE %s: %v\n", evidenceID, err)
			bad++
			continue
		}
		if _, done := seen[manifest.Ingest.SHA256]; done {
			continue
		}
		seen[manifest.Ingest.SHA256] = struct{}{}

		ok, detail := rt.store.VerifyOriginal(manifest.Ingest.SHA256)
		if !ok {
			cmd.Printf("STORE %s: %s\n", shortID(manifest.Ingest.SHA256), detail)
			bad++
		}
	}
	if bad == 0 {
		cmd.Printf("Store intact (%d distinct originals rehashed).\n", len(seen))
		return nil
	}
	return fmt.Errorf("store verification found %d problems", bad)
}
