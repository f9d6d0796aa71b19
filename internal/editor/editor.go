package editor

import (
	"fmt"
	"math"
	"sort"

	"github.com/schvv31n/wavexp/internal/app"
	"github.com/schvv31n/wavexp/internal/music"
)

// GraphEditor owns an ordered collection of points of one type, a viewport
// onto the plane, a selection, and the pointer focus machine. All mutation
// registers reversible actions with the dispatch context.
type GraphEditor[P any] struct {
	id        app.EditorID
	tr        Traits[P]
	data      []P
	selection []int

	// scale is the world extent visible across the canvas, offset the world
	// coordinate of the top-left corner.
	scale  [2]float64
	offset [2]float64
	size   [2]float64
	snap   music.Beats

	focus      focus[P]
	lastCursor app.Cursor
	redraw     bool
}

func NewGraphEditor[P any](ctx *app.Context, tr Traits[P], points []P) *GraphEditor[P] {
	e := &GraphEditor[P]{
		id:    ctx.NextEditorID(),
		tr:    tr,
		data:  append([]P(nil), points...),
		scale: [2]float64{20, tr.ScaleYBound[1]},
		offset: [2]float64{
			offsetXBound[0],
			clamp(tr.OffsetYBound[0], tr.OffsetYBound[0], tr.OffsetYBound[1]),
		},
		size: [2]float64{80, 24},
		snap: 1,
	}
	e.focus.point = -1
	sort.SliceStable(e.data, func(i, j int) bool { return tr.Less(e.data[i], e.data[j]) })
	return e
}

func (e *GraphEditor[P]) ID() app.EditorID { return e.id }

func (e *GraphEditor[P]) EditorName() string { return e.tr.EditorName }

// Data is the sorted point slice; callers must not reorder it.
func (e *GraphEditor[P]) Data() []P { return e.data }

func (e *GraphEditor[P]) Len() int { return len(e.data) }

func (e *GraphEditor[P]) Get(i int) (P, error) {
	var zero P
	if i < 0 || i >= len(e.data) {
		return zero, fmt.Errorf("%s: point %d out of range (%d points)", e.tr.EditorName, i, len(e.data))
	}
	return e.data[i], nil
}

// GetMut returns a pointer into the live data; the caller is responsible for
// keeping the order invariant (or calling Resort).
func (e *GraphEditor[P]) GetMut(i int) (*P, error) {
	if i < 0 || i >= len(e.data) {
		return nil, fmt.Errorf("%s: point %d out of range (%d points)", e.tr.EditorName, i, len(e.data))
	}
	return &e.data[i], nil
}

func (e *GraphEditor[P]) First() (P, bool) {
	var zero P
	if len(e.data) == 0 {
		return zero, false
	}
	return e.data[0], true
}

func (e *GraphEditor[P]) Last() (P, bool) {
	var zero P
	if len(e.data) == 0 {
		return zero, false
	}
	return e.data[len(e.data)-1], true
}

// Selection returns the selected indices, ascending.
func (e *GraphEditor[P]) Selection() []int { return e.selection }

// SetSelection replaces the selection, registering a reversible action.
func (e *GraphEditor[P]) SetSelection(indices []int, ctx *app.Context) error {
	cleaned := make([]int, 0, len(indices))
	for _, i := range indices {
		if i < 0 || i >= len(e.data) {
			return fmt.Errorf("%s: selection index %d out of range", e.tr.EditorName, i)
		}
		cleaned = append(cleaned, i)
	}
	sort.Ints(cleaned)
	ctx.RegisterAction(app.SetSelectionAction{
		Editor: e.id,
		From:   append([]int(nil), e.selection...),
		To:     append([]int(nil), cleaned...),
	})
	e.selection = cleaned
	e.redraw = true
	return nil
}

// AddPoint inserts p at its sorted position and returns the insertion index.
func (e *GraphEditor[P]) AddPoint(p P, ctx *app.Context) int {
	idx := sort.Search(len(e.data), func(i int) bool { return e.tr.Less(p, e.data[i]) })
	e.data = append(e.data, p)
	copy(e.data[idx+1:], e.data[idx:])
	e.data[idx] = p
	for i, s := range e.selection {
		if s >= idx {
			e.selection[i] = s + 1
		}
	}
	ctx.RegisterAction(app.AddPointAction{Editor: e.id, Index: idx, Snapshot: p})
	e.redraw = true
	return idx
}

// RemovePoints removes the given indices, keeping their snapshots for undo.
func (e *GraphEditor[P]) RemovePoints(indices []int, ctx *app.Context) error {
	if len(indices) == 0 {
		return nil
	}
	asc := append([]int(nil), indices...)
	sort.Ints(asc)
	for i, idx := range asc {
		if idx < 0 || idx >= len(e.data) {
			return fmt.Errorf("%s: cannot remove point %d (%d points)", e.tr.EditorName, idx, len(e.data))
		}
		if i > 0 && asc[i-1] == idx {
			return fmt.Errorf("%s: duplicate removal index %d", e.tr.EditorName, idx)
		}
	}
	snapshots := make([]any, len(asc))
	for i, idx := range asc {
		snapshots[i] = e.data[idx]
	}
	for i := len(asc) - 1; i >= 0; i-- {
		idx := asc[i]
		e.data = append(e.data[:idx], e.data[idx+1:]...)
	}
	e.selection = remapAfterRemoval(e.selection, asc)
	ctx.RegisterAction(app.RemovePointsAction{Editor: e.id, Indices: asc, Snapshots: snapshots})
	e.redraw = true
	return nil
}

// SetData replaces the whole point collection without touching history; used
// when loading a saved project. The selection is cleared.
func (e *GraphEditor[P]) SetData(points []P) {
	e.data = append(e.data[:0:0], points...)
	sort.SliceStable(e.data, func(i, j int) bool { return e.tr.Less(e.data[i], e.data[j]) })
	e.selection = nil
	e.redraw = true
}

// Resort restores the order invariant after offsets changed and remaps the
// selection through the resulting permutation.
func (e *GraphEditor[P]) Resort() (oldToNew []int) {
	n := len(e.data)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return e.tr.Less(e.data[order[a]], e.data[order[b]]) })
	newData := make([]P, n)
	oldToNew = make([]int, n)
	for newIdx, oldIdx := range order {
		newData[newIdx] = e.data[oldIdx]
		oldToNew[oldIdx] = newIdx
	}
	e.data = newData
	for i, s := range e.selection {
		e.selection[i] = oldToNew[s]
	}
	sort.Ints(e.selection)
	return oldToNew
}

// Viewport accessors.

func (e *GraphEditor[P]) Scale() [2]float64     { return e.scale }
func (e *GraphEditor[P]) Offset() [2]float64    { return e.offset }
func (e *GraphEditor[P]) Size() [2]float64      { return e.size }
func (e *GraphEditor[P]) SnapStep() music.Beats { return e.snap }

func (e *GraphEditor[P]) SetSize(w, h float64) {
	if w > 0 && h > 0 {
		e.size = [2]float64{w, h}
		e.redraw = true
	}
}

// StepPx is the pixel size of one world unit on each axis.
func (e *GraphEditor[P]) StepPx() [2]float64 {
	return [2]float64{e.size[0] / e.scale[0], e.size[1] / e.scale[1]}
}

// LocToPx maps a plane location to canvas pixels.
func (e *GraphEditor[P]) LocToPx(loc [2]float64) [2]float64 {
	step := e.StepPx()
	return [2]float64{(loc[0] - e.offset[0]) * step[0], (loc[1] - e.offset[1]) * step[1]}
}

// PxToLoc maps canvas pixels to a plane location.
func (e *GraphEditor[P]) PxToLoc(px [2]float64) [2]float64 {
	step := e.StepPx()
	return [2]float64{px[0]/step[0] + e.offset[0], px[1]/step[1] + e.offset[1]}
}

func (e *GraphEditor[P]) setOffset(x, y float64) {
	e.offset[0] = clamp(x, offsetXBound[0], offsetXBound[1])
	e.offset[1] = clamp(y, e.tr.OffsetYBound[0], e.tr.OffsetYBound[1])
}

// Zoom scales the viewport by the given factors, clamped to the bounds of the
// point type.
func (e *GraphEditor[P]) Zoom(fx, fy float64) {
	if fx > 0 {
		e.scale[0] = clamp(e.scale[0]*fx, scaleXBound[0], scaleXBound[1])
	}
	if fy > 0 {
		e.scale[1] = clamp(e.scale[1]*fy, e.tr.ScaleYBound[0], e.tr.ScaleYBound[1])
	}
	e.redraw = true
}

// ForceRedraw makes the next Redraw call produce a frame.
func (e *GraphEditor[P]) ForceRedraw() { e.redraw = true }

// NeedsRedraw reports whether a redraw is pending.
func (e *GraphEditor[P]) NeedsRedraw() bool { return e.redraw }

// Focus exposes the current state of the pointer machine.
func (e *GraphEditor[P]) Focus() FocusKind { return e.focus.kind }

// FocusPoint is the hovered or dragged point index, -1 if none.
func (e *GraphEditor[P]) FocusPoint() int {
	switch e.focus.kind {
	case FocusHoverPoint, FocusMovePoint:
		return e.focus.point
	}
	return -1
}

// HandleEvent processes the non-pointer events the editor owns. Pointer
// events are routed by the owner through Hover.
func (e *GraphEditor[P]) HandleEvent(event app.Event, ctx *app.Context, vc func() VisualContext) {
	switch ev := event.(type) {
	case app.Snap:
		e.snap = ev.Step

	case app.KeyPress:
		if ev.Key == "esc" {
			e.CancelDrag()
		}

	case app.KeyToggle:
		if e.focus.kind != FocusNone {
			cur := e.lastCursor
			cur.Meta = ev.Meta
			cur.Shift = ev.Shift
			e.Hover(&cur, ctx, vc)
		}

	case app.RedrawEditorPlane:
		e.redraw = true

	case app.FetchHint:
		switch e.focus.kind {
		case FocusHoverPoint:
			e.emitPointHint(ctx, e.focus.point, e.lastCursor)
		case FocusHoverPlane:
			e.emitPlaneHint(ctx, e.lastCursor)
		}

	case app.Undo:
		e.applyUndo(ev.Actions)

	case app.Redo:
		e.applyRedo(ev.Actions)
	}
}

func remapAfterRemoval(selection []int, removed []int) []int {
	var res []int
	for _, s := range selection {
		shift := 0
		dropped := false
		for _, r := range removed {
			if r == s {
				dropped = true
				break
			}
			if r < s {
				shift++
			}
		}
		if !dropped {
			res = append(res, s-shift)
		}
	}
	return res
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
