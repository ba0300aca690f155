// Package encode renders a composed timeline to a file with ffmpeg.
//
// Output parameters are fixed: H.264 video at 30 fps and 5000k with the
// medium preset, AAC audio, yuv420p, cut at the canvas duration.
package encode

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/flock"
	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/melody-ding/go-vidcompose/internal/compose"
	"github.com/melody-ding/go-vidcompose/internal/layout"
)

const (
	VideoCodec   = "libx264"
	AudioCodec   = "aac"
	VideoBitrate = "5000k"
	Preset       = "medium"
	PixelFormat  = "yuv420p"
)

// ErrLocked is returned when another render holds the output lock.
var ErrLocked = errors.New("output is locked by another render")

// Encoder runs ffmpeg for a composed timeline.
type Encoder struct {
	Binary string
	// Verbose copies ffmpeg's stderr to Stderr while it runs.
	Verbose bool
	Stderr  io.Writer
	log     *slog.Logger
}

// New returns an Encoder that runs binary.
func New(binary string, log *slog.Logger) *Encoder {
	if strings.TrimSpace(binary) == "" {
		binary = "ffmpeg"
	}
	return &Encoder{Binary: binary, Stderr: os.Stderr, log: log}
}

// Args returns the ffmpeg arguments, without the binary, that render tl to outputPath.
func (e *Encoder) Args(tl *compose.Timeline, outputPath string) []string {
	return e.command(context.Background(), tl, outputPath).GetArgs()
}

func (e *Encoder) command(ctx context.Context, tl *compose.Timeline, outputPath string) *ffmpeg.Stream {
	global := []string{"-hide_banner", "-nostdin", "-loglevel", "error"}
	if e.Verbose {
		global = []string{"-hide_banner", "-nostdin", "-loglevel", "info", "-stats"}
	}
	stream := ffmpeg.Output([]*ffmpeg.Stream{tl.Video, tl.Audio}, outputPath, ffmpeg.KwArgs{
		"f":        "mp4",
		"r":        strconv.Itoa(layout.FrameRate),
		"t":        strconv.FormatFloat(tl.Duration(), 'f', -1, 64),
		"c:v":      VideoCodec,
		"b:v":      VideoBitrate,
		"preset":   Preset,
		"pix_fmt":  PixelFormat,
		"c:a":      AudioCodec,
		"movflags": "+faststart",
	}).GlobalArgs(global...)
	stream.Context = ctx
	return stream.OverWriteOutput().SetFfmpegPath(e.Binary)
}

// Encode renders tl to outputPath. The output directory is created when
// absent. ffmpeg writes to a hidden partial file that is renamed into place
// only on success, so a failed encode leaves no output behind.
func (e *Encoder) Encode(ctx context.Context, tl *compose.Timeline, outputPath string) error {
	dir := filepath.Dir(outputPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	unlock, err := lockOutput(outputPath)
	if err != nil {
		return err
	}
	defer unlock()

	partial := filepath.Join(dir, "."+filepath.Base(outputPath)+".partial")
	stream := e.command(ctx, tl, partial)
	e.logger().Debug("ffmpeg command", "binary", e.Binary, "args", strings.Join(stream.GetArgs(), " "))

	started := time.Now()
	if err := e.run(ctx, stream); err != nil {
		_ = os.Remove(partial)
		return err
	}

	if err := os.Rename(partial, outputPath); err != nil {
		_ = os.Remove(partial)
		return fmt.Errorf("move rendered file into place: %w", err)
	}
	e.logger().Debug("ffmpeg finished", "elapsed", time.Since(started))
	return nil
}

func (e *Encoder) run(ctx context.Context, stream *ffmpeg.Stream) error {
	var stderrBuf bytes.Buffer
	var stderr io.Writer = &stderrBuf
	if e.Verbose && e.Stderr != nil {
		stderr = io.MultiWriter(&stderrBuf, e.Stderr)
	}

	if err := stream.WithErrorOutput(stderr).Silent(true).Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("ffmpeg encode: %w", ctxErr)
		}
		return &ExecError{Err: err, Stderr: stderrBuf.String()}
	}
	return nil
}

// lockOutput takes the render lock for outputPath. The lock file is removed
// while still held, so a render that opened the old file before removal
// finds its inode no longer at lockPath and gives up.
func lockOutput(outputPath string) (func(), error) {
	lockPath := outputPath + ".lock"
	lock := flock.New(lockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock output: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("%s: %w", outputPath, ErrLocked)
	}
	if !holdsPath(lock, lockPath) {
		_ = lock.Unlock()
		return nil, fmt.Errorf("%s: %w", outputPath, ErrLocked)
	}
	return func() {
		_ = os.Remove(lockPath)
		_ = lock.Unlock()
	}, nil
}

// holdsPath reports whether the locked file is still the one at path.
func holdsPath(lock *flock.Flock, path string) bool {
	held, err := lock.Stat()
	if err != nil {
		return false
	}
	current, err := os.Stat(path)
	if err != nil {
		return false
	}
	return os.SameFile(held, current)
}

func (e *Encoder) logger() *slog.Logger {
	if e.log == nil {
		return slog.New(slog.DiscardHandler)
	}
	return e.log
}
