package editor

import (
	"math"

	"github.com/schvv31n/wavexp/internal/app"
	"github.com/schvv31n/wavexp/internal/draw"
)

// RedrawFrame is one rendered editor frame in canvas-pixel space: grid lines,
// solid point geometry and dotted decorative/ghost geometry.
type RedrawFrame struct {
	Grid   draw.Path
	Solid  draw.Path
	Dotted draw.Path
	// SelectionPx are the canvas locations of the selected points.
	SelectionPx [][2]float64
}

// Redraw renders the current state if a redraw is pending. The visual context
// thunk is only invoked when drawing actually happens.
func (e *GraphEditor[P]) Redraw(ctx *app.Context, pb app.PlaybackState, vc func() VisualContext) (*RedrawFrame, bool) {
	if !e.redraw {
		return nil, false
	}
	e.redraw = false
	f := &RedrawFrame{}
	e.drawGrid(&f.Grid)

	if e.tr.OnRedraw != nil {
		vctx := VisualContext{}
		if vc != nil {
			vctx = vc()
		}
		e.tr.OnRedraw(e, ctx, pb, e.size, &f.Solid, &f.Dotted, vctx)
	}

	switch e.focus.kind {
	case FocusSelect:
		area := normalizeRect(e.focus.rect)
		a := e.LocToPx([2]float64{area[0][0], area[1][0]})
		b := e.LocToPx([2]float64{area[0][1], area[1][1]})
		f.Dotted.Rect(a[0], a[1], b[0]-a[0], b[1]-a[1])

	case FocusAddDrag:
		step := e.StepPx()
		px := e.LocToPx([2]float64{e.snapCoord(e.focus.ghost[0]), e.snapY(e.focus.ghost[1])})
		f.Dotted.Rect(px[0], px[1], step[0], step[1])
	}

	for _, idx := range e.selection {
		f.SelectionPx = append(f.SelectionPx, e.LocToPx(e.tr.Loc(e.data[idx])))
	}
	return f, true
}

// drawGrid emits vertical lines at whole beats and horizontal lines at YSnap
// rows, covering the visible viewport.
func (e *GraphEditor[P]) drawGrid(grid *draw.Path) {
	for x := math.Ceil(e.offset[0]); x <= e.offset[0]+e.scale[0]; x++ {
		px := e.LocToPx([2]float64{x, 0})[0]
		grid.MoveTo(px, 0)
		grid.LineTo(px, e.size[1])
	}
	ys := e.tr.YSnap
	if ys <= 0 {
		return
	}
	start := math.Ceil(e.offset[1]/ys) * ys
	for y := start; y <= e.offset[1]+e.scale[1]; y += ys {
		py := e.LocToPx([2]float64{0, y})[1]
		grid.MoveTo(0, py)
		grid.LineTo(e.size[0], py)
	}
}
