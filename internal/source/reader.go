package source

import (
	"context"
	"os"

	"github.com/pkg/errors"

	"github.com/melody-ding/go-vidcompose/internal/probe"
	"github.com/melody-ding/go-vidcompose/internal/types"
)

// Inspector probes a media file.
type Inspector interface {
	Inspect(ctx context.Context, path string) (probe.Result, error)
}

// Loader opens source clips and remembers what it already probed, so a
// clip placed several times is inspected once.
type Loader struct {
	inspector Inspector
	cache     map[string]types.ClipMetadata
}

// NewLoader returns a Loader backed by inspector.
func NewLoader(inspector Inspector) *Loader {
	return &Loader{inspector: inspector, cache: make(map[string]types.ClipMetadata)}
}

// Load stats and probes the clip at path.
func (l *Loader) Load(ctx context.Context, path string) (types.ClipMetadata, error) {
	if meta, ok := l.cache[path]; ok {
		return meta, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return types.ClipMetadata{}, errors.Wrapf(err, "load clip %s", path)
	}
	if info.IsDir() {
		return types.ClipMetadata{}, errors.Errorf("load clip %s: is a directory", path)
	}

	result, err := l.inspector.Inspect(ctx, path)
	if err != nil {
		return types.ClipMetadata{}, errors.Wrapf(err, "load clip %s", path)
	}

	video, ok := result.VideoStream()
	if !ok {
		return types.ClipMetadata{}, errors.Errorf("load clip %s: no video stream found", path)
	}
	duration := result.DurationSeconds()
	if duration <= 0 {
		return types.ClipMetadata{}, errors.Errorf("load clip %s: could not determine duration", path)
	}

	clip := types.NewClip(path)
	meta := types.ClipMetadata{
		Key:      clip.Key,
		Path:     clip.Path,
		Duration: duration,
		Width:    video.Width,
		Height:   video.Height,
		FPS:      video.FrameRate(),
		HasAudio: result.HasAudio(),
	}
	l.cache[path] = meta
	return meta, nil
}
