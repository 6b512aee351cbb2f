package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"custody/internal/jobs"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the processing queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newQueueListCommand(ctx))
	cmd.AddCommand(newQueueRetryCommand(ctx))
	cmd.AddCommand(newQueueClearCommand(ctx))
	cmd.AddCommand(newQueueHealthCommand(ctx))
	return cmd
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var statusFlag string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queued jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.openRuntime(true)
			if err != nil {
				return err
			}
			defer rt.Close()

			var statuses []jobs.Status
			if statusFlag != "" {
				status, ok := jobs.ParseStatus(statusFlag)
				if !ok {
					return fmt.Errorf("unknown status %q", statusFlag)
				}
				statuses = append(statuses, status)
			}

			list, err := rt.queue.List(cmd.Context(), statuses...)
			if err != nil {
				return err
			}
			if len(list) == 0 {
				cmd.Println("Queue is empty.")
				return nil
			}

			rows := make([][]string, 0, len(list))
			for _, job := range list {
				subject := shortID(job.EvidenceID)
				if job.CaseRef != "" {
					subject = job.CaseRef
				}
				rows = append(rows, []string{
					strconv.FormatInt(job.ID, 10),
					string(job.Kind),
					subject,
					string(job.Status),
					job.ProgressMessage,
					job.UpdatedAt.UTC().Format(time.RFC3339),
				})
			}
			cmd.Println(renderTable(
				[]string{"ID", "Kind", "Subject", "Status", "Progress", "Updated"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().StringVar(&statusFlag, "status", "", "Only show jobs with this status")
	return cmd
}

func newQueueRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry [job-id]...",
		Short: "Return failed jobs to pending",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.openRuntime(true)
			if err != nil {
				return err
			}
			defer rt.Close()

			ids := make([]int64, 0, len(args))
			for _, arg := range args {
				id, err := strconv.ParseInt(arg, 10, 64)
				if err != nil {
					return fmt.Errorf("invalid job id %q", arg)
				}
				ids = append(ids, id)
			}

			retried, err := rt.queue.RetryFailed(cmd.Context(), ids...)
			if err != nil {
				return err
			}
			cmd.Printf("Returned %d jobs to pending.\n", retried)
			return nil
		},
	}
}

func newQueueClearCommand(ctx *commandContext) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove completed jobs from the queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.openRuntime(true)
			if err != nil {
				return err
			}
			defer rt.Close()

			var removed int64
			if all {
				removed, err = rt.queue.Clear(cmd.Context())
			} else {
				removed, err = rt.queue.ClearCompleted(cmd.Context())
			}
			if err != nil {
				return err
			}
			cmd.Printf("Removed %d jobs.\n", removed)
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Remove every job regardless of status")
	return cmd
}

func newQueueHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Summarize queue health",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.openRuntime(true)
			if err != nil {
				return err
			}
			defer rt.Close()

			health, err := rt.queue.Health(cmd.Context())
			if err != nil {
				return err
			}

			rows := [][]string{
				{"Total", strconv.Itoa(health.Total)},
				{"Pending", strconv.Itoa(health.Pending)},
				{"Processing", strconv.Itoa(health.Processing)},
				{"Completed", strconv.Itoa(health.Completed)},
				{"Failed", strconv.Itoa(health.Failed)},
				{"Review", strconv.Itoa(health.Review)},
			}
			cmd.Println(renderTable(
				[]string{"Metric", "Count"},
				rows,
				[]columnAlignment{alignLeft, alignRight},
			))
			return nil
		},
	}
}
