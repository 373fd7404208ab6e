package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"subburn/internal/api"
	"subburn/internal/client"
)

func newTranscriptCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var outputPath string

	cmd := &cobra.Command{
		Use:   "transcript <id>",
		Short: "Fetch the transcript of a job paused for review",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseJobID(args[0])
			if err != nil {
				return err
			}
			return ctx.withClient(func(c *client.Client) error {
				view, err := c.Transcript(cmd.Context(), id)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, view)
				}
				if outputPath != "" {
					if err := writeTranscriptFile(outputPath, view.Segments); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d segment(s) to %s\n", len(view.Segments), outputPath)
					fmt.Fprintf(cmd.OutOrStdout(), "Edit the file and resume with `subburn continue %d --texts %s`\n", id, outputPath)
					return nil
				}
				out := cmd.OutOrStdout()
				if view.DetectedLanguage != "" {
					fmt.Fprintf(out, "Detected language: %s\n", view.DetectedLanguage)
				}
				for i, segment := range view.Segments {
					fmt.Fprintf(out, "%3d  [%7.2f - %7.2f]  %s\n", i+1, segment.Start, segment.End, segment.Text)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit machine-readable JSON")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write segment texts to a file for editing, one line per segment")
	return cmd
}

func newContinueCommand(ctx *commandContext) *cobra.Command {
	var textsPath string

	cmd := &cobra.Command{
		Use:   "continue <id>",
		Short: "Resume a reviewed job, optionally with edited transcript texts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseJobID(args[0])
			if err != nil {
				return err
			}
			var texts []string
			if textsPath != "" {
				texts, err = readTextsFile(textsPath)
				if err != nil {
					return err
				}
			}
			return ctx.withClient(func(c *client.Client) error {
				job, err := c.Continue(cmd.Context(), id, texts)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(texts) > 0 {
					fmt.Fprintf(out, "Applied %d edited segment(s)\n", len(texts))
				}
				fmt.Fprintf(out, "Job %d resumed (%s)\n", job.ID, job.Status)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&textsPath, "texts", "", "File with edited segment texts, one line per segment")
	return cmd
}

// writeTranscriptFile stores one segment text per line so the file can be
// hand-edited and fed back through the continue command.
func writeTranscriptFile(path string, segments []api.SegmentView) error {
	var builder strings.Builder
	for _, segment := range segments {
		builder.WriteString(strings.ReplaceAll(segment.Text, "\n", " "))
		builder.WriteByte('\n')
	}
	if err := os.WriteFile(path, []byte(builder.String()), 0o644); err != nil {
		return fmt.Errorf("write transcript file: %w", err)
	}
	return nil
}

func readTextsFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open texts file: %w", err)
	}
	defer f.Close()

	var texts []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		texts = append(texts, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read texts file: %w", err)
	}
	return texts, nil
}
