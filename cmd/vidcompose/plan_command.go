package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/melody-ding/go-vidcompose/internal/render"
	"github.com/melody-ding/go-vidcompose/internal/types"
)

func newPlanCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	var showArgs bool

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Load the clips and show where each one is placed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			runner, err := render.NewRunner(cfg, logger)
			if err != nil {
				return err
			}

			tl, err := runner.Compose(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if showArgs {
				fmt.Fprintf(out, "%s %s\n", cfg.FFmpegBinary, strings.Join(runner.Encoder.Args(tl, cfg.OutputPath()), " "))
				return nil
			}

			meta := render.PlacementMetadata(tl.Placements)
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(meta)
			}
			fmt.Fprintln(out, renderPlacementTable(meta))
			fmt.Fprintf(out, "canvas %s %s, %gs -> %s\n", runner.Canvas.Size, runner.Canvas.Color, runner.Canvas.Duration, cfg.OutputPath())
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print placements as JSON")
	cmd.Flags().BoolVar(&showArgs, "args", false, "Print the ffmpeg command instead of the table")
	return cmd
}

func renderPlacementTable(meta []types.PlacementMetadata) string {
	tw := newTable(table.Row{"#", "Clip", "Start", "End", "Trim", "Position", "Size"}, "#", "Start", "End", "Trim", "Position")
	for _, m := range meta {
		trim := seconds(m.Trim)
		if !m.IsTrimmed {
			trim += " (full)"
		}
		tw.AppendRow(table.Row{
			m.Index,
			m.Key,
			seconds(m.Start),
			seconds(m.End),
			trim,
			fmt.Sprintf("%d,%d", m.X, m.Y),
			fmt.Sprintf("%dx%d", m.Size[0], m.Size[1]),
		})
	}
	return tw.Render()
}

func seconds(v float64) string {
	return fmt.Sprintf("%.2fs", v)
}
