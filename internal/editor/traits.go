// Package editor implements the generic two-axis graph editor: a sorted
// collection of points on a beats-by-rows plane with a viewport, a selection,
// a pointer-driven focus state machine, snapping and reversible actions.
//
// The editor is parameterised by its point type. Point-specific behaviour is
// supplied as a Traits bundle chosen at construction time; the editor itself
// never inspects the points beyond what the bundle exposes.
package editor

import (
	"github.com/schvv31n/wavexp/internal/app"
	"github.com/schvv31n/wavexp/internal/draw"
	"github.com/schvv31n/wavexp/internal/music"
)

// VisualContext carries the sound-specific values point drawing needs; it is
// computed lazily by the caller, only when a redraw actually happens.
type VisualContext struct {
	// BlockOffset is the absolute offset of the owning sound block.
	BlockOffset music.Beats
	// RepCount is the pattern repetition count of the owning sound.
	RepCount uint32
	// AudioDur is the baked input duration in beats divided by the sound's
	// playback speed; 0 when not applicable.
	AudioDur music.Beats
}

// Traits is the capability bundle of one point type.
type Traits[P any] struct {
	EditorName string

	// YBound is the allowed row range of a point.
	YBound [2]float64
	// ScaleYBound and OffsetYBound bound the vertical viewport.
	ScaleYBound  [2]float64
	OffsetYBound [2]float64
	// YSnap is the vertical snap step.
	YSnap float64

	// Less is the natural order of points; the editor keeps its data sorted
	// by it at all times.
	Less func(a, b P) bool
	// Loc maps a point to its plane location [x beats, y row].
	Loc func(p P) [2]float64
	// Move translates a live point; meta switches to the secondary drag
	// behaviour of the point type (e.g. stretching instead of moving).
	Move func(p *P, delta [2]float64, meta bool)
	// MoveLoc translates a ghost location during creation drags.
	MoveLoc func(loc *[2]float64, delta [2]float64, meta bool)
	// Create builds a new point at a plane location.
	Create func(loc [2]float64) P
	// InHitbox reports whether the point intersects the area rectangle
	// ([x0,x1], [y0,y1], inclusive).
	InHitbox func(p P, area [2][2]float64, vc VisualContext) bool
	// FmtLoc renders a location for hints.
	FmtLoc func(loc [2]float64) string

	// OnMove fires while a point drag is in progress. point is the dragged
	// index, or -1 when a whole selection is moving.
	OnMove func(e *GraphEditor[P], ctx *app.Context, cur app.Cursor, loc [2]float64, point int)
	// OnRedraw strokes point geometry into solid and decorative or ghost
	// geometry into dotted.
	OnRedraw func(e *GraphEditor[P], ctx *app.Context, pb app.PlaybackState, canvasSize [2]float64, solid, dotted *draw.Path, vc VisualContext)

	// Hover hints; any may be nil.
	PlaneHoverHint     func(cur app.Cursor) [2]string
	PointHoverHint     func(loc [2]float64, cur app.Cursor) [2]string
	SelectionHoverHint func(n int, cur app.Cursor) [2]string
}

// Horizontal viewport bounds, shared by all point types.
var (
	scaleXBound  = [2]float64{4, 96}
	offsetXBound = [2]float64{0, 1 << 20}
)

// SnapSteps are the selectable horizontal snap intervals; 0 disables
// snapping.
var SnapSteps = []music.Beats{0, 1, 0.5, 0.25, 0.125}
