package probe

import (
	"context"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// Result represents the parsed output from an ffprobe inspection.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream describes a single stream in the media container.
type Stream struct {
	Index      int    `json:"index"`
	CodecName  string `json:"codec_name"`
	CodecType  string `json:"codec_type"`
	Duration   string `json:"duration"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	RFrameRate string `json:"r_frame_rate"`
	NBFrames   string `json:"nb_frames"`
	SampleRate string `json:"sample_rate"`
	Channels   int    `json:"channels"`
}

// Format captures container-level metadata extracted by ffprobe.
type Format struct {
	Filename   string `json:"filename"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
	BitRate    string `json:"bit_rate"`
	FormatName string `json:"format_name"`
}

// RunFunc returns raw ffprobe JSON for a file.
type RunFunc func(path string, timeout time.Duration) (string, error)

// Prober inspects media files.
type Prober struct {
	Timeout time.Duration
	run     RunFunc
}

// NewProber returns a Prober backed by ffmpeg-go.
func NewProber(timeout time.Duration) *Prober {
	return &Prober{Timeout: timeout, run: ffprobeRun}
}

// NewProberWithRunner returns a Prober using run instead of ffprobe.
func NewProberWithRunner(timeout time.Duration, run RunFunc) *Prober {
	return &Prober{Timeout: timeout, run: run}
}

func ffprobeRun(path string, timeout time.Duration) (string, error) {
	return ffmpeg.ProbeWithTimeout(path, timeout, ffmpeg.KwArgs{})
}

// Inspect probes path and decodes the JSON response. ffprobe runs with the
// prober timeout, shortened to ctx's deadline. Inspect returns as soon as ctx
// is done; the ffprobe process itself is bounded by that timeout.
func (p *Prober) Inspect(ctx context.Context, path string) (Result, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{}, errors.New("ffprobe inspect: empty path")
	}
	if err := ctx.Err(); err != nil {
		return Result{}, errors.WithStack(err)
	}

	type response struct {
		output string
		err    error
	}
	done := make(chan response, 1)
	timeout := p.timeout(ctx)
	go func() {
		output, err := p.run(path, timeout)
		done <- response{output, err}
	}()

	select {
	case <-ctx.Done():
		return Result{}, errors.WithStack(ctx.Err())
	case resp := <-done:
		if resp.err != nil {
			return Result{}, errors.Wrapf(resp.err, "ffprobe inspect %s", path)
		}
		return Parse([]byte(resp.output))
	}
}

func (p *Prober) timeout(ctx context.Context) time.Duration {
	timeout := p.Timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); timeout <= 0 || remaining < timeout {
			timeout = remaining
		}
	}
	return timeout
}

// Parse decodes raw ffprobe JSON.
func Parse(data []byte) (Result, error) {
	var result Result
	if err := json.Unmarshal(data, &result); err != nil {
		return Result{}, errors.Wrap(err, "ffprobe parse")
	}
	return result, nil
}

// VideoStream returns the first video stream.
func (r Result) VideoStream() (Stream, bool) {
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, "video") {
			return stream, true
		}
	}
	return Stream{}, false
}

// HasAudio reports whether any audio stream is present.
func (r Result) HasAudio() bool {
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, "audio") {
			return true
		}
	}
	return false
}

// DurationSeconds resolves the clip duration from the video stream, then the
// container, then frame count over frame rate. Returns 0 when none is usable.
func (r Result) DurationSeconds() float64 {
	video, hasVideo := r.VideoStream()
	if hasVideo {
		if d := parsePositive(video.Duration); d > 0 {
			return d
		}
	}
	if d := parsePositive(r.Format.Duration); d > 0 {
		return d
	}
	if hasVideo {
		frames := parsePositive(video.NBFrames)
		rate := video.FrameRate()
		if frames > 0 && rate > 0 {
			return frames / rate
		}
	}
	return 0
}

// SizeBytes returns the reported container size in bytes, or 0 when unavailable.
func (r Result) SizeBytes() int64 {
	return int64(parsePositive(r.Format.Size))
}

// FrameRate parses r_frame_rate ("30000/1001" or "25").
func (s Stream) FrameRate() float64 {
	raw := strings.TrimSpace(s.RFrameRate)
	if raw == "" {
		return 0
	}
	num, den, found := strings.Cut(raw, "/")
	if !found {
		return parsePositive(num)
	}
	n := parsePositive(num)
	d := parsePositive(den)
	if d == 0 {
		return 0
	}
	return n / d
}

func parsePositive(value string) float64 {
	parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) || parsed < 0 {
		return 0
	}
	return parsed
}
