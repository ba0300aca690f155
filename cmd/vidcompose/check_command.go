package main

import (
	"errors"
	"fmt"
	"os/exec"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

type binaryStatus struct {
	name      string
	path      string
	available bool
}

func lookupBinaries(names ...string) []binaryStatus {
	statuses := make([]binaryStatus, 0, len(names))
	for _, name := range names {
		status := binaryStatus{name: name}
		if path, err := exec.LookPath(name); err == nil {
			status.path = path
			status.available = true
		}
		statuses = append(statuses, status)
	}
	return statuses
}

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check that ffmpeg and ffprobe are installed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			statuses := lookupBinaries(cfg.FFmpegBinary, "ffprobe")
			tw := newTable(table.Row{"Binary", "Status", "Path"})
			missing := 0
			for _, s := range statuses {
				state, detail := "ok", s.path
				if !s.available {
					state, detail = "missing", "not found in PATH"
					missing++
				}
				tw.AppendRow(table.Row{s.name, state, detail})
			}
			fmt.Fprintln(cmd.OutOrStdout(), tw.Render())
			if missing > 0 {
				return errors.New("required binaries are missing")
			}
			return nil
		},
	}
}
