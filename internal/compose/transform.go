package compose

import (
	"fmt"
	"strconv"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// Transform is one filter applied to a stream of the composition graph
type Transform interface {
	// Apply adds the filter to the graph and returns its output
	Apply(s *ffmpeg.Stream) *ffmpeg.Stream
	// FFmpegArgs returns the filter in ffmpeg filtergraph notation
	FFmpegArgs() []string
}

// ShiftTransform moves a video stream so its first frame lands at Offset seconds
type ShiftTransform struct {
	Offset float64
}

func (t ShiftTransform) expr() string {
	return fmt.Sprintf("PTS-STARTPTS+%s/TB", seconds(t.Offset))
}

func (t ShiftTransform) Apply(s *ffmpeg.Stream) *ffmpeg.Stream {
	return s.Filter("setpts", ffmpeg.Args{t.expr()})
}

func (t ShiftTransform) FFmpegArgs() []string {
	return []string{"setpts=" + t.expr()}
}

// TrimTransform keeps frames with timestamps in [Start, End)
type TrimTransform struct {
	Start float64
	End   float64
}

func (t TrimTransform) Apply(s *ffmpeg.Stream) *ffmpeg.Stream {
	return s.Filter("trim", ffmpeg.Args{}, ffmpeg.KwArgs{
		"start": seconds(t.Start),
		"end":   seconds(t.End),
	})
}

func (t TrimTransform) FFmpegArgs() []string {
	return []string{fmt.Sprintf("trim=start=%s:end=%s", seconds(t.Start), seconds(t.End))}
}

// ScaleTransform resizes the video
type ScaleTransform struct {
	Width  int
	Height int
}

func (t ScaleTransform) Apply(s *ffmpeg.Stream) *ffmpeg.Stream {
	return s.Filter("scale", ffmpeg.Args{}, ffmpeg.KwArgs{
		"w": strconv.Itoa(t.Width),
		"h": strconv.Itoa(t.Height),
	})
}

func (t ScaleTransform) FFmpegArgs() []string {
	return []string{fmt.Sprintf("scale=%d:%d", t.Width, t.Height)}
}

// AudioDelayTransform pads an audio stream with Offset seconds of silence
type AudioDelayTransform struct {
	Offset float64
}

func (t AudioDelayTransform) millis() string {
	return strconv.FormatInt(int64(t.Offset*1000+0.5), 10)
}

func (t AudioDelayTransform) Apply(s *ffmpeg.Stream) *ffmpeg.Stream {
	return s.Filter("adelay", ffmpeg.Args{}, ffmpeg.KwArgs{
		"delays": t.millis(),
		"all":    "1",
	})
}

func (t AudioDelayTransform) FFmpegArgs() []string {
	return []string{fmt.Sprintf("adelay=delays=%s:all=1", t.millis())}
}

// AudioTrimTransform cuts an audio stream at End seconds
type AudioTrimTransform struct {
	End float64
}

func (t AudioTrimTransform) Apply(s *ffmpeg.Stream) *ffmpeg.Stream {
	return s.Filter("atrim", ffmpeg.Args{}, ffmpeg.KwArgs{"end": seconds(t.End)})
}

func (t AudioTrimTransform) FFmpegArgs() []string {
	return []string{"atrim=end=" + seconds(t.End)}
}

// AudioResetTransform rebases audio timestamps to zero
type AudioResetTransform struct{}

func (AudioResetTransform) Apply(s *ffmpeg.Stream) *ffmpeg.Stream {
	return s.Filter("asetpts", ffmpeg.Args{"PTS-STARTPTS"})
}

func (AudioResetTransform) FFmpegArgs() []string {
	return []string{"asetpts=PTS-STARTPTS"}
}

// ApplyTransforms chains transforms onto s in order
func ApplyTransforms(s *ffmpeg.Stream, transforms ...Transform) *ffmpeg.Stream {
	for _, t := range transforms {
		s = t.Apply(s)
	}
	return s
}

// ComposeTransforms combines multiple transformations into a filter chain string
func ComposeTransforms(transforms ...Transform) string {
	var args []string
	for _, t := range transforms {
		args = append(args, t.FFmpegArgs()...)
	}
	return strings.Join(args, ",")
}

func seconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
