package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"subburn/internal/api"
	"subburn/internal/client"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon and pipeline status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(c *client.Client) error {
				status, err := c.Status(cmd.Context())
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, status)
				}
				printDaemonStatus(cmd, status)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit machine-readable JSON")
	return cmd
}

func printDaemonStatus(cmd *cobra.Command, status *api.DaemonStatus) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	for _, line := range renderSectionHeader("Daemon", colorize) {
		fmt.Fprintln(out, line)
	}
	runningKind := statusOK
	runningMsg := fmt.Sprintf("pid %d", status.PID)
	if !status.Running {
		runningKind = statusError
		runningMsg = ""
	}
	fmt.Fprintln(out, renderStatusLine("Running", runningKind, runningMsg, colorize))
	fmt.Fprintln(out, renderStatusLine("Job database", statusInfo, status.JobDBPath, colorize))
	fmt.Fprintln(out, renderStatusLine("Lock file", statusInfo, status.LockFilePath, colorize))
	fmt.Fprintln(out)

	for _, line := range renderSectionHeader("Pipeline", colorize) {
		fmt.Fprintln(out, line)
	}
	pipelineKind := statusOK
	if !status.Pipeline.Running {
		pipelineKind = statusWarn
	}
	fmt.Fprintln(out, renderStatusLine("Dispatcher", pipelineKind, "", colorize))
	if status.Pipeline.LastError != "" {
		fmt.Fprintln(out, renderStatusLine("Last error", statusError, status.Pipeline.LastError, colorize))
	}
	if counts := formatJobStats(status.Pipeline.JobStats); counts != "" {
		fmt.Fprintln(out, renderStatusLine("Jobs", statusInfo, counts, colorize))
	}
	for _, health := range status.Pipeline.StageHealth {
		kind := statusOK
		if !health.Ready {
			kind = statusError
		}
		fmt.Fprintln(out, renderStatusLine(health.Name, kind, health.Detail, colorize))
	}
	if job := status.Pipeline.LastJob; job != nil {
		fmt.Fprintln(out)
		for _, line := range renderSectionHeader("Last job", colorize) {
			fmt.Fprintln(out, line)
		}
		fmt.Fprintln(out, renderStatusLine("Job", statusInfo,
			fmt.Sprintf("#%d %s", job.ID, job.SourceFile), colorize))
		fmt.Fprintln(out, renderStatusLine("Status", statusInfo,
			fmt.Sprintf("%s (%d%%)", job.Status, job.Progress.Percent), colorize))
	}
}

func formatJobStats(stats map[string]int) string {
	if len(stats) == 0 {
		return ""
	}
	names := make([]string, 0, len(stats))
	for name := range stats {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s=%d", name, stats[name]))
	}
	return strings.Join(parts, " ")
}
