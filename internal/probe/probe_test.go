package probe

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"
)

const sampleJSON = `{
  "streams": [
    {"index": 0, "codec_name": "h264", "codec_type": "video", "width": 1280, "height": 720,
     "r_frame_rate": "30000/1001", "duration": "3.003000", "nb_frames": "90"},
    {"index": 1, "codec_name": "aac", "codec_type": "audio", "sample_rate": "48000", "channels": 2,
     "duration": "3.008000"}
  ],
  "format": {"filename": "clip.mp4", "duration": "3.008000", "size": "204800", "bit_rate": "544000",
             "format_name": "mov,mp4,m4a,3gp,3g2,mj2"}
}`

func TestParseSample(t *testing.T) {
	result, err := Parse([]byte(sampleJSON))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	video, ok := result.VideoStream()
	if !ok {
		t.Fatal("expected video stream")
	}
	if video.Width != 1280 || video.Height != 720 {
		t.Fatalf("unexpected frame size %dx%d", video.Width, video.Height)
	}
	if !result.HasAudio() {
		t.Fatal("expected audio stream")
	}
	if got := result.DurationSeconds(); got != 3.003 {
		t.Fatalf("expected video stream duration, got %v", got)
	}
	if got := video.FrameRate(); math.Abs(got-29.97) > 0.01 {
		t.Fatalf("unexpected frame rate %v", got)
	}
	if result.SizeBytes() != 204800 {
		t.Fatalf("unexpected size %d", result.SizeBytes())
	}
}

func TestDurationFallbacks(t *testing.T) {
	tests := []struct {
		name   string
		result Result
		want   float64
	}{
		{
			name: "container duration",
			result: Result{
				Streams: []Stream{{CodecType: "video", Duration: "N/A"}},
				Format:  Format{Duration: "4.5"},
			},
			want: 4.5,
		},
		{
			name: "frames over rate",
			result: Result{
				Streams: []Stream{{CodecType: "video", NBFrames: "50", RFrameRate: "25/1"}},
			},
			want: 2,
		},
		{
			name:   "nothing usable",
			result: Result{Streams: []Stream{{CodecType: "video", RFrameRate: "0/0"}}},
			want:   0,
		},
		{
			name:   "negative rejected",
			result: Result{Format: Format{Duration: "-1"}},
			want:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.result.DurationSeconds(); got != tt.want {
				t.Errorf("DurationSeconds() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestInspectUsesRunner(t *testing.T) {
	var gotPath string
	var gotTimeout time.Duration
	p := NewProberWithRunner(5*time.Second, func(path string, timeout time.Duration) (string, error) {
		gotPath, gotTimeout = path, timeout
		return sampleJSON, nil
	})

	result, err := p.Inspect(context.Background(), " clips/a.mp4 ")
	if err != nil {
		t.Fatalf("Inspect() error = %v", err)
	}
	if gotPath != "clips/a.mp4" || gotTimeout != 5*time.Second {
		t.Fatalf("runner called with %q %v", gotPath, gotTimeout)
	}
	if len(result.Streams) != 2 {
		t.Fatalf("expected 2 streams, got %d", len(result.Streams))
	}
}

func TestInspectErrors(t *testing.T) {
	boom := errors.New("exit status 1")
	p := NewProberWithRunner(time.Second, func(string, time.Duration) (string, error) {
		return "", boom
	})

	if _, err := p.Inspect(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty path")
	}

	_, err := p.Inspect(context.Background(), "missing.mp4")
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped runner error, got %v", err)
	}
	if !strings.Contains(err.Error(), "missing.mp4") {
		t.Fatalf("error should name the path: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Inspect(ctx, "a.mp4"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	bad := NewProberWithRunner(time.Second, func(string, time.Duration) (string, error) {
		return "not json", nil
	})
	if _, err := bad.Inspect(context.Background(), "a.mp4"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestInspectReturnsOnCancel(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	started := make(chan struct{})
	p := NewProberWithRunner(time.Minute, func(string, time.Duration) (string, error) {
		close(started)
		<-release
		return sampleJSON, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	if _, err := p.Inspect(ctx, "a.mp4"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestInspectTimeoutFollowsDeadline(t *testing.T) {
	var gotTimeout time.Duration
	p := NewProberWithRunner(time.Minute, func(_ string, timeout time.Duration) (string, error) {
		gotTimeout = timeout
		return sampleJSON, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := p.Inspect(ctx, "a.mp4"); err != nil {
		t.Fatal(err)
	}
	if gotTimeout <= 0 || gotTimeout > 5*time.Second {
		t.Fatalf("timeout = %v, want at most the context deadline", gotTimeout)
	}
}
