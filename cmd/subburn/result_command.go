package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"subburn/internal/client"
)

func newResultCommand(ctx *commandContext) *cobra.Command {
	var outputDir string

	cmd := &cobra.Command{
		Use:   "result <id>",
		Short: "Download the rendered video of a completed job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseJobID(args[0])
			if err != nil {
				return err
			}
			return ctx.withClient(func(c *client.Client) error {
				path, err := c.Result(cmd.Context(), id, outputDir)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", path)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "Directory to save the video into (default: current directory)")
	return cmd
}
