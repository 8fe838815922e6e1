package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"storycast/internal/queue"
)

func newReviewCommand(ctx *commandContext) *cobra.Command {
	reviewCmd := &cobra.Command{
		Use:   "review",
		Short: "Inspect and resolve jobs waiting at the review checkpoint",
	}

	reviewCmd.AddCommand(newReviewListCommand(ctx))
	reviewCmd.AddCommand(newReviewShowCommand(ctx))
	reviewCmd.AddCommand(newReviewConfirmCommand(ctx))
	reviewCmd.AddCommand(newReviewRejectCommand(ctx))

	return reviewCmd
}

func newReviewListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List jobs awaiting review",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withQueue(func(q queueAPI) error {
				jobs, err := q.List(cmd.Context(), []string{string(queue.StatusAwaitingReview)})
				if err != nil {
					return err
				}
				if len(jobs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No jobs awaiting review")
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
}

func newReviewShowCommand(ctx *commandContext) *cobra.Command {
	var scriptOnly bool

	cmd := &cobra.Command{
		Use:   "show <jobID>",
		Short: "Print the drafted script for a job awaiting review",
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
				if len(job.Script) == 0 {
					return fmt.Errorf("job %d has no drafted script", id)
				}
				out := cmd.OutOrStdout()
				if !scriptOnly {
					for _, line := range renderJobDetails(job) {
						fmt.Fprintln(out, line)
					}
					fmt.Fprintln(out)
				}
				fmt.Fprintln(out, string(job.Script))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&scriptOnly, "script-only", false, "Print only the script JSON, suitable for editing")
	return cmd
}

func newReviewConfirmCommand(ctx *commandContext) *cobra.Command {
	var scriptPath string

	cmd := &cobra.Command{
		Use:   "confirm <jobID>",
		Short: "Approve a drafted script so voice synthesis can proceed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid job id %q", args[0])
			}

			var edited string
			if path := strings.TrimSpace(scriptPath); path != "" {
				data, readErr := os.ReadFile(path)
				if readErr != nil {
					return fmt.Errorf("read edited script: %w", readErr)
				}
				edited = string(data)
			}

			return ctx.withQueue(func(q queueAPI) error {
				job, err := q.ConfirmReview(cmd.Context(), id, edited)
				if err != nil {
					return err
				}
				if edited != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "Job %d approved with edited script\n", job.ID)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "Job %d approved\n", job.ID)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&scriptPath, "script", "", "Path to an edited script JSON to store before approval")
	return cmd
}

func newReviewRejectCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reject <jobID>",
		Short: "Reject a drafted script and fail the job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid job id %q", args[0])
			}
			return ctx.withQueue(func(q queueAPI) error {
				job, err := q.RejectReview(cmd.Context(), id)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Job %d rejected (%s)\n", job.ID, job.ErrorMessage)
				return nil
			})
		},
	}
}
