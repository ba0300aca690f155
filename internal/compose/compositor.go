package compose

import (
	"fmt"
	"strconv"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/melody-ding/go-vidcompose/internal/layout"
	"github.com/melody-ding/go-vidcompose/internal/types"
)

const (
	audioSampleRate = 44100
	audioLayout     = "stereo"
)

// Timeline is the composed filter graph ready for encoding
type Timeline struct {
	Video  *ffmpeg.Stream
	Audio  *ffmpeg.Stream
	Canvas layout.Canvas
	// Placements in stacking order, bottom first
	Placements []layout.Placement
	// Inputs lists each source path once, in first-use order
	Inputs []string
}

// Duration returns the timeline length in seconds
func (t *Timeline) Duration() float64 {
	return t.Canvas.Duration
}

// Chains returns the video and audio filter chain of every placement as text
func (t *Timeline) Chains() []string {
	chains := make([]string, 0, len(t.Placements))
	for _, p := range t.Placements {
		chain := fmt.Sprintf("%s: %s,overlay=x=%d:y=%d", p.Source.Key, ComposeTransforms(VideoTransforms(p)...), p.Pos.X, p.Pos.Y)
		if p.Source.HasAudio {
			chain += " | " + ComposeTransforms(AudioTransforms(p)...)
		}
		chains = append(chains, chain)
	}
	return chains
}

// VideoTransforms returns the chain that shifts, trims and resizes a placement
func VideoTransforms(p layout.Placement) []Transform {
	return []Transform{
		ShiftTransform{Offset: p.Start},
		TrimTransform{Start: p.Start, End: p.End()},
		ScaleTransform{Width: p.Size.Width, Height: p.Size.Height},
	}
}

// AudioTransforms returns the chain that delays and trims a placement's audio
func AudioTransforms(p layout.Placement) []Transform {
	return []Transform{
		AudioDelayTransform{Offset: p.Start},
		AudioTrimTransform{End: p.End()},
		AudioResetTransform{},
	}
}

// Compose stacks placements over the canvas. Later placements are drawn on top.
func Compose(canvas layout.Canvas, placements []layout.Placement) (*Timeline, error) {
	if canvas.Size.Width <= 0 || canvas.Size.Height <= 0 {
		return nil, fmt.Errorf("compose: invalid canvas size %s", canvas.Size)
	}
	if canvas.Duration <= 0 {
		return nil, fmt.Errorf("compose: invalid canvas duration %v", canvas.Duration)
	}
	for i, p := range placements {
		if p.Size.Width <= 0 || p.Size.Height <= 0 || p.Trim <= 0 {
			return nil, fmt.Errorf("compose: placement %d (%s) has empty size or trim", i, p.Source.Key)
		}
		if !canvas.Contains(p) {
			return nil, fmt.Errorf("compose: placement %d (%s) at %d,%d: %w", i, p.Source.Key, p.Pos.X, p.Pos.Y, layout.ErrOutsideCanvas)
		}
	}

	color := canvas.Color
	if color == "" {
		color = "black"
	}
	duration := seconds(canvas.Duration)
	video := ffmpeg.Input(
		fmt.Sprintf("color=c=%s:s=%s:r=%d:d=%s", color, canvas.Size, layout.FrameRate, duration),
		ffmpeg.KwArgs{"f": "lavfi"},
	).Video()
	audio := ffmpeg.Input(
		fmt.Sprintf("anullsrc=r=%d:cl=%s", audioSampleRate, audioLayout),
		ffmpeg.KwArgs{"f": "lavfi", "t": duration},
	).Audio()

	timeline := &Timeline{Canvas: canvas, Placements: placements}
	sources := make(map[string]*sourceBranches)
	mix := []*ffmpeg.Stream{audio}

	for _, p := range placements {
		src, ok := sources[p.Source.Path]
		if !ok {
			src = newSourceBranches(ffmpeg.Input(p.Source.Path), placements, p.Source)
			sources[p.Source.Path] = src
			timeline.Inputs = append(timeline.Inputs, p.Source.Path)
		}

		layer := ApplyTransforms(src.nextVideo(), VideoTransforms(p)...)
		video = ffmpeg.Filter([]*ffmpeg.Stream{video, layer}, "overlay", ffmpeg.Args{}, ffmpeg.KwArgs{
			"x":          strconv.Itoa(p.Pos.X),
			"y":          strconv.Itoa(p.Pos.Y),
			"eof_action": "pass",
		})

		if p.Source.HasAudio {
			mix = append(mix, ApplyTransforms(src.nextAudio(), AudioTransforms(p)...))
		}
	}

	if len(mix) > 1 {
		audio = ffmpeg.Filter(mix, "amix", ffmpeg.Args{}, ffmpeg.KwArgs{
			"inputs":             strconv.Itoa(len(mix)),
			"duration":           "first",
			"dropout_transition": "0",
			"normalize":          "0",
		})
	}

	timeline.Video = video
	timeline.Audio = audio
	return timeline, nil
}

// sourceBranches hands out one stream per placement of a source. A source
// used more than once goes through split/asplit, since a filter output can
// feed only one consumer.
type sourceBranches struct {
	video, audio []*ffmpeg.Stream
	v, a         int
}

func newSourceBranches(in *ffmpeg.Stream, placements []layout.Placement, src types.ClipMetadata) *sourceBranches {
	uses := 0
	for _, p := range placements {
		if p.Source.Path == src.Path {
			uses++
		}
	}
	b := &sourceBranches{video: branch(in.Video(), uses, (*ffmpeg.Stream).Split)}
	if src.HasAudio {
		b.audio = branch(in.Audio(), uses, (*ffmpeg.Stream).ASplit)
	}
	return b
}

func branch(s *ffmpeg.Stream, n int, split func(*ffmpeg.Stream) *ffmpeg.Node) []*ffmpeg.Stream {
	if n <= 1 {
		return []*ffmpeg.Stream{s}
	}
	node := split(s)
	out := make([]*ffmpeg.Stream, n)
	for i := range out {
		out[i] = node.Get(strconv.Itoa(i))
	}
	return out
}

func (b *sourceBranches) nextVideo() *ffmpeg.Stream {
	s := b.video[b.v]
	b.v++
	return s
}

func (b *sourceBranches) nextAudio() *ffmpeg.Stream {
	s := b.audio[b.a]
	b.a++
	return s
}
