package editor

import (
	"math"

	"github.com/schvv31n/wavexp/internal/app"
)

// Hover feeds one pointer sample into the focus machine. A nil cursor is a
// pointer-leave. State transitions are atomic relative to one call.
func (e *GraphEditor[P]) Hover(cur *app.Cursor, ctx *app.Context, vc func() VisualContext) {
	if cur == nil {
		// Leaving only drops hover states; an active drag keeps the pointer.
		if !e.focus.kind.Dragging() {
			e.focus = focus[P]{point: -1}
			e.redraw = true
		}
		return
	}
	defer func() { e.lastCursor = *cur }()

	loc := e.PxToLoc([2]float64{float64(cur.X), float64(cur.Y)})
	pressed := cur.Left && !e.lastCursor.Left
	released := !cur.Left && e.lastCursor.Left

	if e.focus.kind == FocusNone {
		e.focus.kind = FocusHoverPlane
		e.emitPlaneHint(ctx, *cur)
		e.redraw = true
	}

	switch e.focus.kind {
	case FocusHoverPlane:
		if pressed {
			if idx := e.pointAt(loc, vc); idx >= 0 {
				e.beginMovePoint(idx, loc, *cur)
			} else if cur.Shift {
				e.beginSelect(loc)
			} else if cur.Meta {
				e.beginAddDrag(loc)
			} else {
				e.beginMovePlane()
			}
		} else if idx := e.pointAt(loc, vc); idx >= 0 {
			e.focus.kind = FocusHoverPoint
			e.focus.point = idx
			e.emitPointHint(ctx, idx, *cur)
			e.redraw = true
		}

	case FocusHoverPoint:
		if pressed {
			e.beginMovePoint(e.focus.point, loc, *cur)
		} else if idx := e.pointAt(loc, vc); idx < 0 {
			e.focus.kind = FocusHoverPlane
			e.focus.point = -1
			e.emitPlaneHint(ctx, *cur)
			e.redraw = true
		} else if idx != e.focus.point {
			e.focus.point = idx
			e.emitPointHint(ctx, idx, *cur)
		}

	case FocusMovePlane:
		if released {
			e.focus.kind = FocusHoverPlane
		} else {
			step := e.StepPx()
			dx := float64(cur.X-e.lastCursor.X) / step[0]
			dy := float64(cur.Y-e.lastCursor.Y) / step[1]
			e.setOffset(e.offset[0]-dx, e.offset[1]-dy)
			e.redraw = true
		}

	case FocusMovePoint:
		if released {
			e.commitMove(ctx)
		} else {
			delta := e.clampDelta([2]float64{loc[0] - e.focus.lastLoc[0], loc[1] - e.focus.lastLoc[1]})
			if delta != [2]float64{} {
				for _, idx := range e.focus.snapIdx {
					e.tr.Move(&e.data[idx], delta, e.focus.meta)
				}
				e.focus.delta[0] += delta[0]
				e.focus.delta[1] += delta[1]
				e.focus.lastLoc[0] += delta[0]
				e.focus.lastLoc[1] += delta[1]
				e.focus.moved = true
				if e.tr.OnMove != nil {
					point := e.focus.point
					if len(e.focus.snapIdx) > 1 {
						point = -1
					}
					e.tr.OnMove(e, ctx, *cur, loc, point)
				}
				e.redraw = true
			}
		}

	case FocusAddDrag:
		if released {
			e.commitAdd(ctx)
		} else {
			delta := [2]float64{loc[0] - e.focus.lastLoc[0], loc[1] - e.focus.lastLoc[1]}
			e.tr.MoveLoc(&e.focus.ghost, delta, cur.Meta)
			e.focus.lastLoc = loc
			e.redraw = true
		}

	case FocusSelect:
		if released {
			e.commitSelect(ctx, vc)
		} else {
			e.focus.rect[1] = loc
			e.redraw = true
		}
	}
}

// CancelDrag aborts the drag in progress, restoring the pre-drag snapshot.
func (e *GraphEditor[P]) CancelDrag() {
	switch e.focus.kind {
	case FocusMovePoint:
		for i, idx := range e.focus.snapIdx {
			e.data[idx] = e.focus.snapshots[i]
		}
	case FocusMovePlane:
		e.offset = e.focus.origOffset
	case FocusAddDrag, FocusSelect:
		// nothing applied yet
	default:
		return
	}
	e.focus = focus[P]{kind: FocusHoverPlane, point: -1}
	e.redraw = true
}

func (e *GraphEditor[P]) beginMovePoint(idx int, loc [2]float64, cur app.Cursor) {
	affected := []int{idx}
	if containsInt(e.selection, idx) {
		affected = append([]int(nil), e.selection...)
	}
	snapshots := make([]P, len(affected))
	for i, a := range affected {
		snapshots[i] = e.data[a]
	}
	e.focus = focus[P]{
		kind:      FocusMovePoint,
		point:     idx,
		anchorLoc: loc,
		lastLoc:   loc,
		meta:      cur.Meta,
		snapIdx:   affected,
		snapshots: snapshots,
	}
}

func (e *GraphEditor[P]) beginMovePlane() {
	e.focus = focus[P]{kind: FocusMovePlane, point: -1, origOffset: e.offset}
}

func (e *GraphEditor[P]) beginAddDrag(loc [2]float64) {
	e.focus = focus[P]{kind: FocusAddDrag, point: -1, anchorLoc: loc, lastLoc: loc, ghost: loc}
}

func (e *GraphEditor[P]) beginSelect(loc [2]float64) {
	e.focus = focus[P]{kind: FocusSelect, point: -1, anchorLoc: loc, rect: [2][2]float64{loc, loc}}
}

func (e *GraphEditor[P]) commitMove(ctx *app.Context) {
	dragged := e.focus.point
	if !e.focus.moved {
		// A click: replace the selection with the clicked point, or toggle
		// its membership with the meta modifier held.
		for i, idx := range e.focus.snapIdx {
			e.data[idx] = e.focus.snapshots[i]
		}
		var to []int
		if e.lastCursor.Meta {
			to = toggleInt(e.selection, dragged)
		} else {
			to = []int{dragged}
		}
		e.focus = focus[P]{kind: FocusHoverPoint, point: dragged}
		if err := e.SetSelection(to, ctx); err != nil {
			ctx.ReportError(err)
		}
		return
	}

	// Snapping applies on commit, not during the drag: one uniform
	// correction derived from the anchor point keeps the group translation
	// rigid.
	target := [2]float64{
		e.focus.anchorLoc[0] + e.focus.delta[0],
		e.focus.anchorLoc[1] + e.focus.delta[1],
	}
	extra := [2]float64{
		e.snapCoord(target[0]) - target[0],
		e.snapY(target[1]) - target[1],
	}
	if extra != [2]float64{} {
		for _, idx := range e.focus.snapIdx {
			e.tr.Move(&e.data[idx], extra, e.focus.meta)
		}
		e.focus.delta[0] += extra[0]
		e.focus.delta[1] += extra[1]
	}

	oldToNew := e.Resort()
	indices := make([]int, len(e.focus.snapIdx))
	for i, idx := range e.focus.snapIdx {
		indices[i] = oldToNew[idx]
	}
	ctx.RegisterAction(app.MovePointsAction{
		Editor:  e.id,
		Indices: indices,
		Delta:   e.focus.delta,
		Meta:    e.focus.meta,
	})
	ctx.EmitEvent(app.RedrawEditorPlane{})
	e.focus = focus[P]{kind: FocusHoverPlane, point: -1}
	e.redraw = true
}

func (e *GraphEditor[P]) commitAdd(ctx *app.Context) {
	loc := [2]float64{e.snapCoord(e.focus.ghost[0]), e.snapY(e.focus.ghost[1])}
	loc[1] = clamp(loc[1], e.tr.YBound[0], maxY(e.tr.YBound, e.tr.YSnap))
	p := e.tr.Create(loc)
	e.focus = focus[P]{kind: FocusHoverPlane, point: -1}
	e.AddPoint(p, ctx)
	ctx.EmitEvent(app.RedrawEditorPlane{})
}

func (e *GraphEditor[P]) commitSelect(ctx *app.Context, vc func() VisualContext) {
	area := normalizeRect(e.focus.rect)
	var to []int
	vctx := VisualContext{}
	if vc != nil {
		vctx = vc()
	}
	for i := range e.data {
		if e.tr.InHitbox(e.data[i], area, vctx) {
			to = append(to, i)
		}
	}
	e.focus = focus[P]{kind: FocusHoverPlane, point: -1}
	if err := e.SetSelection(to, ctx); err != nil {
		ctx.ReportError(err)
	}
	ctx.EmitEvent(app.RedrawEditorPlane{})
}

// clampDelta shrinks a drag delta so every affected point stays inside the
// vertical bound of the point type.
func (e *GraphEditor[P]) clampDelta(delta [2]float64) [2]float64 {
	lo, hi := e.tr.YBound[0], maxY(e.tr.YBound, e.tr.YSnap)
	for _, idx := range e.focus.snapIdx {
		y := e.tr.Loc(e.data[idx])[1]
		delta[1] = clamp(delta[1], lo-y, hi-y)
	}
	return delta
}

func (e *GraphEditor[P]) snapCoord(x float64) float64 {
	if e.snap <= 0 {
		return x
	}
	step := float64(e.snap)
	return math.Round(x/step) * step
}

func (e *GraphEditor[P]) snapY(y float64) float64 {
	if e.tr.YSnap <= 0 {
		return y
	}
	return math.Round(y/e.tr.YSnap) * e.tr.YSnap
}

// pointAt hit-tests the cursor location against all points, using a half-cell
// tolerance box.
func (e *GraphEditor[P]) pointAt(loc [2]float64, vc func() VisualContext) int {
	step := e.StepPx()
	ex := 0.5 / step[0]
	ey := 0.5 / step[1]
	area := [2][2]float64{{loc[0] - ex, loc[0] + ex}, {loc[1] - ey, loc[1] + ey}}
	vctx := VisualContext{}
	if vc != nil {
		vctx = vc()
	}
	for i := range e.data {
		if e.tr.InHitbox(e.data[i], area, vctx) {
			return i
		}
	}
	return -1
}

func (e *GraphEditor[P]) emitPlaneHint(ctx *app.Context, cur app.Cursor) {
	if e.tr.PlaneHoverHint == nil {
		return
	}
	hint := e.tr.PlaneHoverHint(cur)
	ctx.EmitEvent(app.SetHint{Main: hint[0], Aux: hint[1]})
}

func (e *GraphEditor[P]) emitPointHint(ctx *app.Context, idx int, cur app.Cursor) {
	if len(e.selection) > 1 && containsInt(e.selection, idx) {
		if e.tr.SelectionHoverHint != nil {
			hint := e.tr.SelectionHoverHint(len(e.selection), cur)
			ctx.EmitEvent(app.SetHint{Main: hint[0], Aux: hint[1]})
		}
		return
	}
	if e.tr.PointHoverHint == nil {
		return
	}
	hint := e.tr.PointHoverHint(e.tr.Loc(e.data[idx]), cur)
	ctx.EmitEvent(app.SetHint{Main: hint[0], Aux: hint[1]})
}

func maxY(bound [2]float64, ysnap float64) float64 {
	if ysnap > 0 {
		return bound[1] - ysnap
	}
	return bound[1]
}

func normalizeRect(r [2][2]float64) [2][2]float64 {
	return [2][2]float64{
		{math.Min(r[0][0], r[1][0]), math.Max(r[0][0], r[1][0])},
		{math.Min(r[0][1], r[1][1]), math.Max(r[0][1], r[1][1])},
	}
}

func containsInt(s []int, v int) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

func toggleInt(s []int, v int) []int {
	var res []int
	found := false
	for _, x := range s {
		if x == v {
			found = true
			continue
		}
		res = append(res, x)
	}
	if !found {
		res = append(res, v)
	}
	return res
}
