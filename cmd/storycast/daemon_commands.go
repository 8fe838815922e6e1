package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"storycast/internal/daemonctl"
	"storycast/internal/ipc"
)

func newDaemonCommands(ctx *commandContext) []*cobra.Command {
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start the storycast daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			exe, err := daemonExecutable()
			if err != nil {
				return err
			}

			result, err := daemonctl.EnsureStarted(
				ctx.socketPath(),
				exe,
				daemonLaunchOptions(ctx),
				10*time.Second,
			)
			if err != nil {
				return err
			}

			if result.Launched {
				fmt.Fprintln(stdout, "Daemon not running, launching...")
			}

			switch result.State {
			case daemonctl.StartStateStarted:
				fmt.Fprintln(stdout, "Daemon started")
			case daemonctl.StartStateAlreadyRunning:
				fmt.Fprintln(stdout, "Daemon already running")
			case daemonctl.StartStateRequested:
				if strings.TrimSpace(result.Message) != "" {
					fmt.Fprintln(stdout, result.Message)
					return nil
				}
				fmt.Fprintln(stdout, "Start request sent")
			}
			return nil
		},
	}

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the storycast daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			result, err := daemonctl.Stop(ctx.socketPath(), 5*time.Second)
			if errors.Is(err, daemonctl.ErrDaemonNotRunning) {
				fmt.Fprintln(stdout, "Daemon is not running")
				return nil
			}
			if err != nil {
				return err
			}
			if !result.StopAcknowledged {
				fmt.Fprintln(stdout, "Stop request sent")
			}
			fmt.Fprintln(stdout, "Daemon stopped")
			return nil
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon and queue status",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)

			statusResp, err := daemonctl.FetchStatus(ctx.socketPath())
			if errors.Is(err, daemonctl.ErrDaemonNotRunning) {
				statusResp = &ipc.StatusResponse{}
			} else if err != nil {
				return err
			}

			for _, line := range renderSectionHeader("Daemon", colorize) {
				fmt.Fprintln(stdout, line)
			}
			for _, line := range daemonStatusLines(statusResp, colorize) {
				fmt.Fprintln(stdout, line)
			}
			fmt.Fprintln(stdout)

			if len(statusResp.StageHealth) > 0 {
				for _, line := range renderSectionHeader("Stage Health", colorize) {
					fmt.Fprintln(stdout, line)
				}
				for _, health := range statusResp.StageHealth {
					fmt.Fprintln(stdout, stageHealthLine(health.Name, health.Ready, health.Detail, colorize))
				}
				fmt.Fprintln(stdout)
			}

			for _, line := range renderSectionHeader("Queue Status", colorize) {
				fmt.Fprintln(stdout, line)
			}
			return ctx.withQueue(func(q queueAPI) error {
				counts, err := q.Counts(cmd.Context())
				if err != nil {
					return err
				}
				rows := buildQueueCountRows(counts)
				if len(rows) == 0 {
					fmt.Fprintln(stdout, "Queue is empty")
					return nil
				}
				table := renderTable([]string{"Status", "Count"}, rows, []columnAlignment{alignLeft, alignRight})
				fmt.Fprintln(stdout, table)
				return nil
			})
		},
	}

	return []*cobra.Command{startCmd, stopCmd, statusCmd}
}

func daemonStatusLines(status *ipc.StatusResponse, colorize bool) []string {
	lines := make([]string, 0, 4)
	if status.Running {
		detail := "Running"
		if status.PID > 0 {
			detail = fmt.Sprintf("Running (pid %d)", status.PID)
		}
		lines = append(lines, renderStatusLine("Storycast", statusOK, detail, colorize))
	} else {
		lines = append(lines, renderStatusLine("Storycast", statusWarn, "Not running (run `storycast start`)", colorize))
	}
	if status.APIAddress != "" {
		lines = append(lines, renderStatusLine("HTTP API", statusOK, status.APIAddress, colorize))
	}
	if status.LastError != "" {
		lines = append(lines, renderStatusLine("Last error", statusError, status.LastError, colorize))
	}
	if status.LastJob != nil {
		detail := fmt.Sprintf("job %d (%s)", status.LastJob.ID, status.LastJob.Status)
		lines = append(lines, renderStatusLine("Last job", statusInfo, detail, colorize))
	}
	return lines
}

func daemonExecutable() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolve executable: %w", err)
	}
	return exe, nil
}

func daemonLaunchOptions(ctx *commandContext) daemonctl.LaunchOptions {
	opts := daemonctl.LaunchOptions{}
	if ctx.socketFlag != nil {
		if socket := strings.TrimSpace(*ctx.socketFlag); socket != "" {
			opts.SocketPath = socket
		}
	}
	if ctx.configFlag != nil {
		if config := strings.TrimSpace(*ctx.configFlag); config != "" {
			opts.ConfigPath = config
		}
	}
	return opts
}
