// Package layout holds the canvas geometry and the rule that turns a loaded
// source clip into a placed clip on the master timeline.
package layout

import (
	"errors"
	"fmt"
	"math"

	"github.com/melody-ding/go-vidcompose/internal/types"
)

const (
	CanvasWidth  = 1920
	CanvasHeight = 1080
	CellWidth    = 960
	CellHeight   = 540

	// CanvasDuration is the length of the rendered timeline in seconds.
	CanvasDuration = 6.0
	// TrimCap bounds how much of each source is used, in seconds.
	TrimCap = 2.0
	// FrameRate is the timeline and output frame rate.
	FrameRate = 30
)

// Size is a frame size in pixels.
type Size struct {
	Width  int
	Height int
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// Point is a top-left pixel position on the canvas.
type Point struct {
	X int
	Y int
}

// Canvas is the solid-colour base layer.
type Canvas struct {
	Size     Size
	Color    string
	Duration float64
}

// DefaultCanvas returns the black 1920x1080 six second canvas.
func DefaultCanvas() Canvas {
	return Canvas{
		Size:     Size{Width: CanvasWidth, Height: CanvasHeight},
		Color:    "black",
		Duration: CanvasDuration,
	}
}

// Placement is a trimmed, resized clip anchored to a start time and position.
type Placement struct {
	Source types.ClipMetadata
	// Trim is the used length of the source, starting at 0.
	Trim  float64
	Size  Size
	Start float64
	Pos   Point
}

// End returns the timeline time at which the clip stops.
func (p Placement) End() float64 {
	return p.Start + p.Trim
}

// IsTrimmed reports whether less than the whole source is used.
func (p Placement) IsTrimmed() bool {
	return p.Trim < p.Source.Duration
}

// Metadata describes the placement for reporting.
func (p Placement) Metadata(index int) types.PlacementMetadata {
	return types.PlacementMetadata{
		Index:     index,
		Key:       p.Source.Key,
		Path:      p.Source.Path,
		Start:     p.Start,
		End:       p.End(),
		Trim:      p.Trim,
		X:         p.Pos.X,
		Y:         p.Pos.Y,
		Size:      []int{p.Size.Width, p.Size.Height},
		IsTrimmed: p.IsTrimmed(),
	}
}

// Place trims src to min(trimCap, src.Duration) and anchors it into a cell
// at start and pos. A source shorter than trimCap is used in full.
func Place(src types.ClipMetadata, start float64, pos Point, trimCap float64) (Placement, error) {
	switch {
	case math.IsNaN(start) || start < 0:
		return Placement{}, fmt.Errorf("place %s: invalid start %v", src.Key, start)
	case math.IsNaN(trimCap) || trimCap <= 0:
		return Placement{}, fmt.Errorf("place %s: invalid trim cap %v", src.Key, trimCap)
	case math.IsNaN(src.Duration) || src.Duration <= 0:
		return Placement{}, fmt.Errorf("place %s: source has no duration", src.Key)
	}

	return Placement{
		Source: src,
		Trim:   math.Min(trimCap, src.Duration),
		Size:   Size{Width: CellWidth, Height: CellHeight},
		Start:  start,
		Pos:    pos,
	}, nil
}

// Cell returns the top-left pixel of the grid cell at col, row.
func Cell(col, row int) Point {
	return Point{X: col * CellWidth, Y: row * CellHeight}
}

// Contains reports whether the placement lies fully inside the canvas.
func (c Canvas) Contains(p Placement) bool {
	return p.Pos.X >= 0 && p.Pos.Y >= 0 &&
		p.Pos.X+p.Size.Width <= c.Size.Width &&
		p.Pos.Y+p.Size.Height <= c.Size.Height
}

// ErrOutsideCanvas is returned when a placement does not fit the canvas.
var ErrOutsideCanvas = errors.New("placement outside canvas")
