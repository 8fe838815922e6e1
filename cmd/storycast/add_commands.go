package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"storycast/internal/api"
)

func newAddCommand(ctx *commandContext) *cobra.Command {
	var assistantRef string
	var voiceRef string
	var duration int
	var wordCount int
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "add <prompt>",
		Short: "Queue a new narrated podcast from a topic prompt",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt := strings.TrimSpace(strings.Join(args, " "))
			return ctx.withQueue(func(q queueAPI) error {
				job, err := q.Add(cmd.Context(), api.EnqueueRequest{
					Prompt:          prompt,
					AssistantRef:    assistantRef,
					VoiceRef:        voiceRef,
					TargetDuration:  duration,
					TargetWordCount: wordCount,
				})
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, job)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Queued job %d (%s)\n", job.ID, truncate(job.Prompt, 60))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&assistantRef, "assistant", "", "Assistant or model reference for script generation")
	cmd.Flags().StringVar(&voiceRef, "voice", "", "Default voice for synthesized narration")
	cmd.Flags().IntVar(&duration, "duration", 0, "Target episode duration in minutes")
	cmd.Flags().IntVar(&wordCount, "words", 0, "Target script word count")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the created job as JSON")
	return cmd
}

func newVideoCommand(ctx *commandContext) *cobra.Command {
	var force bool
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "video <jobID>",
		Short: "Queue video assembly for a completed podcast job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sourceID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid job id %q", args[0])
			}
			return ctx.withQueue(func(q queueAPI) error {
				job, err := q.AddVideo(cmd.Context(), sourceID, force)
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, job)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Queued video job %d for podcast job %d\n", job.ID, sourceID)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&force, "force-regenerate", false, "Regenerate images even when cached results exist")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the created job as JSON")
	return cmd
}
