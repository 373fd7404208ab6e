package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"subburn/internal/api"
)

func renderJobTable(views []api.JobView) string {
	headers := []string{"ID", "File", "Status", "Progress", "Languages", "Updated"}
	aligns := []columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft, alignLeft}

	rows := make([][]string, 0, len(views))
	for _, view := range views {
		status := view.Status
		if view.AwaitingReview {
			status += " (review)"
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", view.ID),
			view.SourceFile,
			status,
			fmt.Sprintf("%d%%", view.Progress.Percent),
			languagePair(view),
			view.UpdatedAt,
		})
	}
	return renderTable(headers, rows, aligns)
}

func languagePair(view api.JobView) string {
	source := view.DetectedLanguage
	if source == "" {
		source = view.SourceLanguage
	}
	if source == "" {
		source = "auto"
	}
	return source + " -> " + view.TargetLanguage
}

func printJobDetail(cmd *cobra.Command, view *api.JobView) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	for _, line := range renderSectionHeader(fmt.Sprintf("Job %d", view.ID), colorize) {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintln(out, renderStatusLine("File", statusInfo, view.SourceFile, colorize))
	fmt.Fprintln(out, renderStatusLine("Status", jobStatusKind(view), view.Status, colorize))
	fmt.Fprintln(out, renderStatusLine("Progress", statusInfo,
		fmt.Sprintf("%d%% %s", view.Progress.Percent, view.Progress.Message), colorize))
	fmt.Fprintln(out, renderStatusLine("Languages", statusInfo, languagePair(*view), colorize))
	fmt.Fprintln(out, renderStatusLine("Awaiting review", statusInfo, yesNo(view.AwaitingReview), colorize))
	if view.OutputFile != "" {
		fmt.Fprintln(out, renderStatusLine("Output", statusOK, view.OutputFile, colorize))
	}
	if view.ErrorMessage != "" {
		detail := view.ErrorMessage
		if view.ErrorKind != "" {
			detail = fmt.Sprintf("%s (%s)", detail, view.ErrorKind)
		}
		fmt.Fprintln(out, renderStatusLine("Error", statusError, detail, colorize))
	}
	fmt.Fprintln(out, renderStatusLine("Created", statusInfo, view.CreatedAt, colorize))
	fmt.Fprintln(out, renderStatusLine("Updated", statusInfo, view.UpdatedAt, colorize))
}

func jobStatusKind(view *api.JobView) statusKind {
	switch {
	case view.Status == "failed":
		return statusError
	case view.Status == "completed":
		return statusOK
	case view.AwaitingReview:
		return statusWarn
	case strings.HasSuffix(view.Status, "ing"):
		return statusInfo
	default:
		return statusInfo
	}
}
