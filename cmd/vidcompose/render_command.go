package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/melody-ding/go-vidcompose/internal/render"
)

func newRenderCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool
	var verbose bool

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the test composition to the output directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			cfg.DryRun = dryRun
			cfg.Verbose = verbose

			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			runner, err := render.NewRunner(cfg, logger)
			if err != nil {
				return err
			}

			res, err := runner.Run(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if res.DryRun {
				fmt.Fprintf(out, "%s %s\n", cfg.FFmpegBinary, strings.Join(res.Args, " "))
				return nil
			}
			fmt.Fprintln(out, res.OutputPath)
			if res.Location != "" {
				fmt.Fprintln(out, res.Location)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the ffmpeg command without rendering")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show ffmpeg progress and debug logs")
	return cmd
}
