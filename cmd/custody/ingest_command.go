package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"custody/internal/ingest"
	"custody/internal/jobs"
)

func newIngestCommand(ctx *commandContext) *cobra.Command {
	var enqueueNormalize bool

	cmd := &cobra.Command{
		Use:   "ingest <folder>",
		Short: "Ingest every supported file in a folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.openRuntime(enqueueNormalize)
			if err != nil {
				return err
			}
			defer rt.Close()

			ingester := ingest.New(rt.store, rt.ledger, rt.cfg, rt.logger)
			result, err := ingester.RunBatch(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			printBatchResult(cmd, result)

			if enqueueNormalize {
				queued := 0
				for _, record := range result.Files {
					if record.Status != ingest.StatusIngested {
						continue
					}
					if _, err := rt.queue.Enqueue(cmd.Context(), jobs.KindNormalize, record.EvidenceID, "", ""); err != nil {
						return fmt.Errorf("enqueue normalize for %s: %w", record.EvidenceID, err)
					}
					queued++
				}
				cmd.Printf("Queued %d normalize jobs; run `custody process` to execute them.\n", queued)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&enqueueNormalize, "enqueue-normalize", false, "Queue a normalize job for every newly ingested file")
	return cmd
}

func printBatchResult(cmd *cobra.Command, result *ingest.BatchIngestResult) {
	cmd.Printf("Batch %s: %d found, %d ingested, %d duplicates, %d errors\n",
		shortID(result.BatchID), result.FoundCount, result.IngestedCount, result.DuplicateCount, result.ErrorCount)

	if len(result.Files) > 0 {
		rows := make([][]string, 0, len(result.Files))
		for _, record := range result.Files {
			recorded := ""
			if record.Timestamp != nil {
				recorded = record.Timestamp.UTC().Format(time.RFC3339)
			}
			rows = append(rows, []string{
				record.Filename,
				string(record.Status),
				shortID(record.EvidenceID),
				record.DeviceLabel,
				recorded,
				formatBytes(record.SizeBytes),
			})
		}
		cmd.Println(renderTable(
			[]string{"File", "Status", "Evidence", "Device", "Recorded", "Size"},
			rows,
			[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
		))
	}

	for _, record := range result.Errors {
		cmd.Printf("ERROR %s (%s): %s\n", record.Filename, record.ErrorID, record.Error)
	}

	if len(result.Groups) > 0 {
		rows := make([][]string, 0, len(result.Groups))
		for _, group := range result.Groups {
			rows = append(rows, []string{
				group.Name,
				strings.Join(group.DeviceLabels, ", "),
				group.StartTime.UTC().Format("2006-01-02 15:04"),
				group.EndTime.UTC().Format("2006-01-02 15:04"),
				fmt.Sprintf("%d", len(group.EvidenceIDs)),
			})
		}
		cmd.Println(renderTable(
			[]string{"Sequence group", "Devices", "Start", "End", "Members"},
			rows,
			[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
		))
	}

	if result.ManifestPath != "" {
		cmd.Printf("Batch manifest: %s\n", result.ManifestPath)
	}
}
