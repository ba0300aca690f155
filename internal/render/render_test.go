package render

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/melody-ding/go-vidcompose/internal/compose"
	"github.com/melody-ding/go-vidcompose/internal/config"
	"github.com/melody-ding/go-vidcompose/internal/layout"
	"github.com/melody-ding/go-vidcompose/internal/logging"
	"github.com/melody-ding/go-vidcompose/internal/probe"
	"github.com/melody-ding/go-vidcompose/internal/publish"
)

type fakeInspector struct {
	results map[string]probe.Result
}

func (f *fakeInspector) Inspect(_ context.Context, path string) (probe.Result, error) {
	result, ok := f.results[path]
	if !ok {
		return probe.Result{}, errors.New("no probe result for " + path)
	}
	return result, nil
}

type fakeEncoder struct {
	calls    int
	timeline *compose.Timeline
	err      error
}

func (f *fakeEncoder) Args(_ *compose.Timeline, outputPath string) []string {
	return []string{"-i", "x", outputPath}
}

func (f *fakeEncoder) Encode(_ context.Context, tl *compose.Timeline, outputPath string) error {
	f.calls++
	f.timeline = tl
	if f.err != nil {
		return f.err
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(outputPath, []byte("mp4"), 0o644)
}

type fakePublisher struct {
	obj publish.Object
}

func (f *fakePublisher) Upload(_ context.Context, obj publish.Object) (string, error) {
	f.obj = obj
	return "s3://renders/" + filepath.Base(obj.Path), nil
}

func videoResult(duration string, w, h int, audio bool) probe.Result {
	streams := []probe.Stream{{CodecType: "video", Duration: duration, Width: w, Height: h, RFrameRate: "30/1"}}
	if audio {
		streams = append(streams, probe.Stream{CodecType: "audio"})
	}
	return probe.Result{Streams: streams, Format: probe.Format{Duration: duration, Size: "1048576"}}
}

func setup(t *testing.T, clips ...string) (*Runner, *fakeEncoder, *config.Config) {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.ClipsDir = filepath.Join(dir, "clips")
	cfg.OutputDir = filepath.Join(dir, "output")
	if err := os.MkdirAll(cfg.ClipsDir, 0o755); err != nil {
		t.Fatal(err)
	}

	inspector := &fakeInspector{results: map[string]probe.Result{
		cfg.OutputPath(): videoResult("6.000000", 1920, 1080, true),
	}}
	for _, name := range clips {
		path := cfg.ClipPath(name)
		if err := os.WriteFile(path, []byte("clip"), 0o644); err != nil {
			t.Fatal(err)
		}
		inspector.results[path] = videoResult("3.5", 1280, 720, name == "baeuh.mp4")
	}

	enc := &fakeEncoder{}
	r := &Runner{
		Config:    &cfg,
		Canvas:    layout.DefaultCanvas(),
		Plan:      layout.TestPlan(),
		Inspector: inspector,
		Encoder:   enc,
		Log:       logging.NewNop(),
	}
	return r, enc, &cfg
}

func TestRunTestPlan(t *testing.T) {
	r, enc, cfg := setup(t, "baeuh.mp4", "boom.mp4")

	res, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if enc.calls != 1 {
		t.Fatalf("expected one encode, got %d", enc.calls)
	}
	if res.OutputPath != cfg.OutputPath() {
		t.Errorf("unexpected output path %q", res.OutputPath)
	}
	if res.RunID == "" {
		t.Error("expected run id")
	}
	if res.Duration != 6.0 || res.Size != (layout.Size{Width: 1920, Height: 1080}) {
		t.Errorf("unexpected verification %v %v", res.Duration, res.Size)
	}
	if res.Bytes != 1048576 {
		t.Errorf("unexpected size %d", res.Bytes)
	}

	if len(res.Placements) != 3 {
		t.Fatalf("expected 3 placements, got %d", len(res.Placements))
	}
	for i, p := range res.Placements {
		if p.Trim != 2.0 {
			t.Errorf("placement %d trim = %v, want 2", i, p.Trim)
		}
		if p.Size != (layout.Size{Width: 960, Height: 540}) {
			t.Errorf("placement %d size = %v", i, p.Size)
		}
	}
	if got := enc.timeline.Inputs; len(got) != 2 {
		t.Errorf("expected baeuh declared once, inputs = %v", got)
	}
}

func TestRunMissingClipFailsBeforeOutput(t *testing.T) {
	r, enc, cfg := setup(t, "baeuh.mp4")

	_, err := r.Run(context.Background())
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
	if !strings.Contains(err.Error(), "boom.mp4") {
		t.Errorf("error should name the missing clip: %v", err)
	}
	if enc.calls != 0 {
		t.Error("encoder must not run when loading fails")
	}
	if _, err := os.Stat(cfg.OutputPath()); !os.IsNotExist(err) {
		t.Error("no output file should exist")
	}
}

func TestRunDryRun(t *testing.T) {
	r, enc, cfg := setup(t, "baeuh.mp4", "boom.mp4")
	cfg.DryRun = true

	res, err := r.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !res.DryRun || enc.calls != 0 {
		t.Fatalf("dry run encoded anyway: %+v", res)
	}
	if len(res.Args) == 0 || res.Args[len(res.Args)-1] != cfg.OutputPath() {
		t.Errorf("unexpected args %v", res.Args)
	}
}

func TestRunPublishes(t *testing.T) {
	r, _, cfg := setup(t, "baeuh.mp4", "boom.mp4")
	pub := &fakePublisher{}
	r.Publisher = pub

	res, err := r.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if pub.obj.Path != cfg.OutputPath() {
		t.Errorf("published %q", pub.obj.Path)
	}
	if pub.obj.Metadata["run-id"] != res.RunID {
		t.Errorf("run id not attached: %v", pub.obj.Metadata)
	}
	if res.Location != "s3://renders/test_render.mp4" {
		t.Errorf("unexpected location %q", res.Location)
	}
}

func TestRunEncodeError(t *testing.T) {
	r, enc, _ := setup(t, "baeuh.mp4", "boom.mp4")
	enc.err = errors.New("ffmpeg encode: exit status 1")
	if _, err := r.Run(context.Background()); err == nil {
		t.Fatal("expected encode error")
	}
}

func TestVerifyWarnsOnMismatch(t *testing.T) {
	r, _, cfg := setup(t, "baeuh.mp4", "boom.mp4")
	var buf bytes.Buffer
	log, err := logging.New(logging.Options{Writer: &buf})
	if err != nil {
		t.Fatal(err)
	}
	r.Log = log
	r.Inspector.(*fakeInspector).results[cfg.OutputPath()] = videoResult("5.2", 1280, 720, false)

	if _, err := r.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"output resolution differs", "output duration differs", "run_id="} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %q:\n%s", want, out)
		}
	}
}

func TestPlacementMetadata(t *testing.T) {
	r, _, _ := setup(t, "baeuh.mp4", "boom.mp4")
	placements, err := r.Place(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	meta := PlacementMetadata(placements)
	if meta[1].Key != "boom" || meta[1].X != 960 || meta[1].Start != 2 || meta[1].End != 4 || !meta[1].IsTrimmed {
		t.Errorf("unexpected metadata %+v", meta[1])
	}
}
