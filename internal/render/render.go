// Package render runs the composition test end to end: load the fixed plan's
// clips, place them, compose the graph, encode, verify and optionally publish.
package render

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/melody-ding/go-vidcompose/internal/compose"
	"github.com/melody-ding/go-vidcompose/internal/config"
	"github.com/melody-ding/go-vidcompose/internal/encode"
	"github.com/melody-ding/go-vidcompose/internal/layout"
	"github.com/melody-ding/go-vidcompose/internal/logging"
	"github.com/melody-ding/go-vidcompose/internal/probe"
	"github.com/melody-ding/go-vidcompose/internal/publish"
	"github.com/melody-ding/go-vidcompose/internal/source"
	"github.com/melody-ding/go-vidcompose/internal/types"
)

// Encoder renders a timeline to a file.
type Encoder interface {
	Args(tl *compose.Timeline, outputPath string) []string
	Encode(ctx context.Context, tl *compose.Timeline, outputPath string) error
}

// Publisher uploads a rendered file.
type Publisher interface {
	Upload(ctx context.Context, obj publish.Object) (string, error)
}

// Result summarises one run.
type Result struct {
	RunID      string
	OutputPath string
	Placements []layout.Placement
	Args       []string
	DryRun     bool

	Duration float64
	Size     layout.Size
	Bytes    int64
	Location string
}

// Runner holds the collaborators of a render.
type Runner struct {
	Config    *config.Config
	Canvas    layout.Canvas
	Plan      []layout.Request
	Inspector source.Inspector
	Encoder   Encoder
	Publisher Publisher
	Log       *slog.Logger
}

// NewRunner wires the real ffprobe, ffmpeg and S3 collaborators from cfg.
func NewRunner(cfg *config.Config, log *slog.Logger) (*Runner, error) {
	enc := encode.New(cfg.FFmpegBinary, log)
	enc.Verbose = cfg.Verbose

	r := &Runner{
		Config:    cfg,
		Canvas:    layout.DefaultCanvas(),
		Plan:      layout.TestPlan(),
		Inspector: probe.NewProber(cfg.ProbeTimeout()),
		Encoder:   enc,
		Log:       log,
	}
	if cfg.Publish.Enabled {
		pub, err := publish.New(cfg.Publish)
		if err != nil {
			return nil, err
		}
		r.Publisher = pub
	}
	return r, nil
}

// Place loads every clip of the plan and applies the placement rule. A
// missing or unreadable clip stops the run here, before any output exists.
func (r *Runner) Place(ctx context.Context) ([]layout.Placement, error) {
	loader := source.NewLoader(r.Inspector)
	placements := make([]layout.Placement, 0, len(r.Plan))
	for _, req := range r.Plan {
		meta, err := loader.Load(ctx, r.Config.ClipPath(req.File))
		if err != nil {
			return nil, err
		}
		p, err := layout.Place(meta, req.Start, req.Pos, req.Cap)
		if err != nil {
			return nil, err
		}
		r.logger().Debug("clip placed",
			"clip", meta.Key,
			"source_duration", meta.Duration,
			"trim", p.Trim,
			"start", p.Start,
			"x", p.Pos.X,
			"y", p.Pos.Y,
		)
		placements = append(placements, p)
	}
	return placements, nil
}

// PlacementMetadata reports placements in plan order.
func PlacementMetadata(placements []layout.Placement) []types.PlacementMetadata {
	out := make([]types.PlacementMetadata, 0, len(placements))
	for i, p := range placements {
		out = append(out, p.Metadata(i))
	}
	return out
}

// Compose places the clips and builds the timeline.
func (r *Runner) Compose(ctx context.Context) (*compose.Timeline, error) {
	placements, err := r.Place(ctx)
	if err != nil {
		return nil, err
	}
	return compose.Compose(r.Canvas, placements)
}

// Run executes the whole render.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	runID := uuid.NewString()
	log := r.logger().With(logging.FieldRunID, runID)
	output := r.Config.OutputPath()
	log.Info("starting test render", "canvas", r.Canvas.Size.String(), "duration", r.Canvas.Duration)

	tl, err := r.Compose(ctx)
	if err != nil {
		return nil, err
	}

	res := &Result{
		RunID:      runID,
		OutputPath: output,
		Placements: tl.Placements,
		Args:       r.Encoder.Args(tl, output),
		DryRun:     r.Config.DryRun,
	}

	log.Info("composing clips", "clips", len(tl.Placements), "inputs", len(tl.Inputs))
	for _, chain := range tl.Chains() {
		log.Debug("filter chain", "chain", chain)
	}

	if r.Config.DryRun {
		log.Warn("dry run, nothing will be written", "args", strings.Join(res.Args, " "))
		return res, nil
	}

	log.Info("rendering", "output", output)
	started := time.Now()
	if err := r.Encoder.Encode(ctx, tl, output); err != nil {
		return nil, err
	}

	if err := r.verify(ctx, log, res); err != nil {
		return nil, err
	}
	log.Info("render complete",
		"output", output,
		"duration", res.Duration,
		"resolution", res.Size.String(),
		"size", humanize.Bytes(uint64(res.Bytes)),
		"elapsed", time.Since(started),
	)

	if r.Publisher != nil {
		loc, err := r.Publisher.Upload(ctx, publish.Object{
			Path: output,
			Metadata: map[string]string{
				"run-id":   runID,
				"canvas":   r.Canvas.Size.String(),
				"duration": fmt.Sprintf("%g", r.Canvas.Duration),
			},
		})
		if err != nil {
			return nil, err
		}
		res.Location = loc
		log.Info("published", "location", loc)
	}
	return res, nil
}

// verify probes the rendered file and warns when it strays from the canvas.
func (r *Runner) verify(ctx context.Context, log *slog.Logger, res *Result) error {
	result, err := r.Inspector.Inspect(ctx, res.OutputPath)
	if err != nil {
		return fmt.Errorf("verify output: %w", err)
	}
	res.Duration = result.DurationSeconds()
	res.Bytes = result.SizeBytes()
	if video, ok := result.VideoStream(); ok {
		res.Size = layout.Size{Width: video.Width, Height: video.Height}
	}

	if res.Size != r.Canvas.Size {
		log.Warn("output resolution differs from canvas", "want", r.Canvas.Size.String(), "got", res.Size.String())
	}
	if math.Abs(res.Duration-r.Canvas.Duration) > 1.0/layout.FrameRate {
		log.Warn("output duration differs from canvas", "want", r.Canvas.Duration, "got", res.Duration)
	}
	return nil
}

func (r *Runner) logger() *slog.Logger {
	if r.Log == nil {
		return logging.NewNop()
	}
	return r.Log
}
