package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"subburn/internal/client"
)

func newUploadCommand(ctx *commandContext) *cobra.Command {
	var sourceLang string
	var targetLang string
	var startNow bool

	cmd := &cobra.Command{
		Use:   "upload <video-file>",
		Short: "Upload a video and create a subtitle job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if targetLang == "" {
				return errors.New("--target is required")
			}
			path := args[0]
			if _, err := os.Stat(path); err != nil {
				return fmt.Errorf("inspect %q: %w", path, err)
			}
			return ctx.withClient(func(c *client.Client) error {
				job, err := c.Upload(cmd.Context(), path, sourceLang, targetLang)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Created job %d for %s\n", job.ID, job.SourceFile)
				if !startNow {
					fmt.Fprintf(out, "Run `subburn start %d` to begin processing\n", job.ID)
					return nil
				}
				if _, err := c.Start(cmd.Context(), job.ID); err != nil {
					return err
				}
				fmt.Fprintf(out, "Job %d queued for processing\n", job.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&sourceLang, "source", "s", "", "Spoken language of the video (blank lets transcription detect it)")
	cmd.Flags().StringVarP(&targetLang, "target", "t", "", "Language to translate the subtitles into")
	cmd.Flags().BoolVar(&startNow, "start", false, "Queue the job immediately after upload")
	return cmd
}

func newStartCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "start <id>",
		Short: "Queue an uploaded job for processing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseJobID(args[0])
			if err != nil {
				return err
			}
			return ctx.withClient(func(c *client.Client) error {
				job, err := c.Start(cmd.Context(), id)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Job %d queued (%s)\n", job.ID, job.Status)
				return nil
			})
		},
	}
}
