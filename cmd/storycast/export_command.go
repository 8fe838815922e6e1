package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"storycast/internal/export"
	"storycast/internal/queue"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "export <jobID>",
		Short: "Copy a completed job's artifacts into the media library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid job id %q", args[0])
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := queue.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			job, err := store.GetByID(cmd.Context(), id)
			if err != nil {
				return err
			}
			if job == nil {
				return fmt.Errorf("job %d not found", id)
			}

			result, err := export.Episode(cfg, job)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Exported %d files to %s\n", len(result.Copied), result.Destination)
			for _, missing := range result.Missing {
				fmt.Fprintf(out, "Skipped %s (not found on this host)\n", missing)
			}
			return nil
		},
	}
}
