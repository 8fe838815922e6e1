package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"storycast/internal/ipc"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the job queue",
	}

	queueCmd.AddCommand(newQueueStatusCommand(ctx))
	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueShowCommand(ctx))
	queueCmd.AddCommand(newQueueRetryCommand(ctx))
	queueCmd.AddCommand(newQueueCancelCommand(ctx))
	queueCmd.AddCommand(newQueueRemoveCommand(ctx))
	queueCmd.AddCommand(newQueueClearCommand(ctx))
	queueCmd.AddCommand(newQueueDispatchCommand(ctx))

	return queueCmd
}

func newQueueDispatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "dispatch",
		Short: "Wake the scheduler for an immediate dispatch attempt",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				if _, err := client.ForceDispatch(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Dispatch requested")
				return nil
			})
		},
	}
}

func newQueueStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show queue status summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withQueue(func(q queueAPI) error {
				counts, err := q.Counts(cmd.Context())
				if err != nil {
					return err
				}
				rows := buildQueueCountRows(counts)
				if len(rows) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}
				table := renderTable([]string{"Status", "Count"}, rows, []columnAlignment{alignLeft, alignRight})
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var listStatuses []string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queued jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withQueue(func(q queueAPI) error {
				jobs, err := q.List(cmd.Context(), listStatuses)
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, jobs)
				}
				if len(jobs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}
				table := renderTable(
					[]string{"ID", "Kind", "Prompt", "Status", "Progress", "Created"},
					buildQueueListRows(jobs),
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
				)
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&listStatuses, "status", "s", nil, "Filter by job status (repeatable)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the listing as JSON")
	return cmd
}

func newQueueShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	var showScript bool

	cmd := &cobra.Command{
		Use:   "show <jobID>",
		Short: "Show details for a single job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid job id %q", args[0])
			}
			return ctx.withQueue(func(q queueAPI) error {
				job, err := q.Describe(cmd.Context(), id)
				if err != nil {
					return err
				}
				if job == nil {
					return fmt.Errorf("job %d not found", id)
				}
				if jsonOut {
					return writeJSON(cmd, job)
				}
				out := cmd.OutOrStdout()
				for _, line := range renderJobDetails(job) {
					fmt.Fprintln(out, line)
				}
				if showScript && len(job.Script) > 0 {
					fmt.Fprintln(out)
					fmt.Fprintln(out, string(job.Script))
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the job as JSON")
	cmd.Flags().BoolVar(&showScript, "script", false, "Include the stored script payload")
	return cmd
}

func newQueueRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry <jobID>",
		Short: "Requeue an errored job at the back of the queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid job id %q", args[0])
			}
			return ctx.withQueue(func(q queueAPI) error {
				job, err := q.Retry(cmd.Context(), id)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Job %d requeued (position %d)\n", job.ID, job.QueuePosition)
				return nil
			})
		},
	}
}

func newQueueCancelCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <jobID>",
		Short: "Cancel a waiting, reviewing, or processing job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid job id %q", args[0])
			}
			return ctx.withQueue(func(q queueAPI) error {
				job, err := q.Cancel(cmd.Context(), id)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Job %d is now %s\n", job.ID, job.Status)
				return nil
			})
		},
	}
}

func newQueueRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <jobID>",
		Short: "Remove a job from the queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid job id %q", args[0])
			}
			return ctx.withQueue(func(q queueAPI) error {
				if err := q.Remove(cmd.Context(), id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Job %d removed\n", id)
				return nil
			})
		},
	}
}

func newQueueClearCommand(ctx *commandContext) *cobra.Command {
	var clearCompleted bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove queued jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withQueue(func(q queueAPI) error {
				removed, err := q.Clear(cmd.Context(), clearCompleted)
				if err != nil {
					return err
				}
				if clearCompleted {
					fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d completed jobs\n", removed)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d jobs\n", removed)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&clearCompleted, "completed", false, "Remove only completed jobs")
	return cmd
}
