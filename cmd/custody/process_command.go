package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"custody/internal/devicewatch"
	"custody/internal/export"
	"custody/internal/ingest"
	"custody/internal/jobs"
	"custody/internal/media"
	"custody/internal/normalize"
	"custody/internal/workflow"
)

func newProcessCommand(ctx *commandContext) *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Process queued jobs; with --watch, keep running and react to docked drives",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.openRuntime(true)
			if err != nil {
				return err
			}
			defer rt.Close()

			tools := media.NewToolset(rt.cfg, rt.logger)
			normalizer := normalize.New(rt.store, rt.ledger, tools, rt.cfg, rt.logger)
			packager := export.New(rt.store, rt.ledger, rt.cfg, rt.logger)

			manager := workflow.NewManager(rt.cfg, rt.queue, rt.logger)
			manager.Register(jobs.KindNormalize, normalize.NewHandler(normalizer, rt.store, rt.cfg, rt.logger))
			manager.Register(jobs.KindExport, export.NewHandler(packager, rt.logger))

			if !watch {
				processed, err := manager.RunOnce(cmd.Context())
				if err != nil {
					return err
				}
				cmd.Printf("Processed %d jobs.\n", processed)
				return nil
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			ingester := ingest.New(rt.store, rt.ledger, rt.cfg, rt.logger)
			monitor := devicewatch.NewMonitor(rt.cfg, rt.logger, func(ctx context.Context, mountRoot string) error {
				result, err := ingester.RunBatch(ctx, mountRoot)
				if err != nil {
					return err
				}
				for _, record := range result.Files {
					if record.Status != ingest.StatusIngested {
						continue
					}
					if _, err := rt.queue.Enqueue(ctx, jobs.KindNormalize, record.EvidenceID, "", ""); err != nil {
						return err
					}
				}
				return nil
			})

			if err := manager.Start(runCtx); err != nil {
				return err
			}
			defer manager.Stop()
			if err := monitor.Start(runCtx); err != nil {
				return err
			}
			defer monitor.Stop()

			cmd.Println("Processing queue; press Ctrl-C to stop.")
			<-runCtx.Done()
			return nil
		},
	}

	cmd.Flags().BoolVar(&watch, "watch", false, "Keep running, polling the queue and watching for docked drives")
	return cmd
}
