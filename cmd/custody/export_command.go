package main

import (
	"time"

	"github.com/spf13/cobra"

	"custody/internal/export"
	"custody/internal/jobs"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	var (
		caseRef            string
		includeDerivatives bool
		includeIndex       bool
		timestampFlag      string
		queueJob           bool
	)

	cmd := &cobra.Command{
		Use:   "export <evidence-id>...",
		Short: "Build a sealed export package for a case",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.openRuntime(queueJob)
			if err != nil {
				return err
			}
			defer rt.Close()

			if queueJob {
				payload, err := export.EncodeJobPayload(export.JobPayload{
					CaseRef:            caseRef,
					EvidenceIDs:        args,
					IncludeDerivatives: includeDerivatives,
					IncludeIndex:       includeIndex,
				})
				if err != nil {
					return err
				}
				job, err := rt.queue.Enqueue(cmd.Context(), jobs.KindExport, "", caseRef, payload)
				if err != nil {
					return err
				}
				cmd.Printf("Queued export job %d for case %s; run `custody process` to execute it.\n", job.ID, caseRef)
				return nil
			}

			request := export.Request{
				CaseRef:            caseRef,
				EvidenceIDs:        args,
				IncludeDerivatives: includeDerivatives,
				IncludeIndex:       includeIndex,
			}
			if timestampFlag != "" {
				ts, err := time.Parse(time.RFC3339, timestampFlag)
				if err != nil {
					return err
				}
				request.Timestamp = ts
			}

			packager := export.New(rt.store, rt.ledger, rt.cfg, rt.logger)
			result, err := packager.Export(cmd.Context(), request)
			if err != nil {
				return err
			}

			cmd.Printf("Sealed %s\n", result.ArchivePath)
			cmd.Printf("  archive sha256:  %s\n", result.ArchiveSHA256)
			cmd.Printf("  composite hash:  %s\n", result.CompositeHash)
			cmd.Printf("  files: %d, total: %s, tier: %s\n", result.FileCount, formatBytes(result.TotalBytes), result.SizeTier)
			for _, warning := range result.Warnings {
				cmd.Printf("  warning: %s\n", warning)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&caseRef, "case", "", "Case reference for the package name and manifest")
	cmd.Flags().BoolVar(&includeDerivatives, "derivatives", true, "Include stored derivatives")
	cmd.Flags().BoolVar(&includeIndex, "index", false, "Include a filtered search index snapshot")
	cmd.Flags().StringVar(&timestampFlag, "timestamp", "", "Pin the archive timestamp (RFC 3339)")
	cmd.Flags().BoolVar(&queueJob, "queue", false, "Queue the export instead of running it now")
	_ = cmd.MarkFlagRequired("case")
	return cmd
}
