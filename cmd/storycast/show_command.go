package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"storycast/internal/ipc"
	"storycast/internal/logs"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	var follow bool
	var lines int

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Display daemon logs",
		RunE: func(cmd *cobra.Command, args []string) error {
			initialLimit := lines
			if initialLimit < 0 {
				initialLimit = 0
			}
			initialOffset := int64(-1)
			if initialLimit == 0 {
				initialOffset = 0
			}

			client, dialErr := ctx.dialClient()
			if dialErr == nil {
				defer client.Close()
				offset := initialOffset
				limit := initialLimit
				printed := false
				for {
					resp, err := client.LogTail(ipc.LogTailRequest{
						Offset:     offset,
						Limit:      limit,
						Follow:     follow,
						WaitMillis: 1000,
					})
					if err != nil {
						return fmt.Errorf("tail logs: %w", err)
					}
					if resp == nil {
						return errors.New("log tail response missing")
					}
					for _, line := range resp.Lines {
						fmt.Fprintln(cmd.OutOrStdout(), line)
						printed = true
					}
					offset = resp.Offset
					limit = 0
					if !follow {
						if !printed {
							fmt.Fprintln(cmd.OutOrStdout(), "No log entries available")
						}
						return nil
					}
					select {
					case <-cmd.Context().Done():
						return nil
					default:
					}
				}
			}

			// Without a daemon the log file is read directly. Following is
			// pointless then since nothing appends to it.
			cfg, cfgErr := ctx.ensureConfig()
			if cfgErr != nil {
				return cfgErr
			}
			logPath := filepath.Join(cfg.Paths.LogDir, "storycast.log")
			result, tailErr := logs.Tail(cmd.Context(), logPath, logs.TailOptions{
				Offset: initialOffset,
				Limit:  initialLimit,
			})
			if tailErr != nil {
				return tailErr
			}
			if len(result.Lines) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No log entries available")
				return nil
			}
			for _, line := range result.Lines {
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Stream new log lines as they arrive")
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of trailing lines to show")
	return cmd
}
