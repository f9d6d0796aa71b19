package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schvv31n/wavexp/internal/app"
	"github.com/schvv31n/wavexp/internal/audiograph"
)

// testPoint is a minimal point type for exercising the editor: a free cell on
// the plane with no secondary drag behaviour.
type testPoint struct {
	X, Y float64
}

func testTraits() Traits[testPoint] {
	return Traits[testPoint]{
		EditorName:   "Test Editor",
		YBound:       [2]float64{0, 10},
		ScaleYBound:  [2]float64{10, 10},
		OffsetYBound: [2]float64{0, 0},
		YSnap:        1,
		Less:         func(a, b testPoint) bool { return a.X < b.X },
		Loc:          func(p testPoint) [2]float64 { return [2]float64{p.X, p.Y} },
		Move: func(p *testPoint, delta [2]float64, _ bool) {
			p.X += delta[0]
			if p.X < 0 {
				p.X = 0
			}
			p.Y += delta[1]
		},
		MoveLoc: func(loc *[2]float64, delta [2]float64, _ bool) {
			loc[0] += delta[0]
			loc[1] += delta[1]
		},
		Create: func(loc [2]float64) testPoint { return testPoint{X: loc[0], Y: loc[1]} },
		InHitbox: func(p testPoint, area [2][2]float64, _ VisualContext) bool {
			return p.X >= area[0][0] && p.X <= area[0][1] &&
				p.Y >= area[1][0] && p.Y <= area[1][1]
		},
		FmtLoc: func([2]float64) string { return "" },
	}
}

func newTestEditor(t *testing.T, points ...testPoint) (*GraphEditor[testPoint], *app.Context) {
	t.Helper()
	ctx := app.NewContext(audiograph.NewMemGraph(44100), 2)
	e := NewGraphEditor(ctx, testTraits(), points)
	// One world unit per cell on both axes.
	e.SetSize(20, 10)
	return e, ctx
}

func cursor(x, y int, left, meta, shift bool) *app.Cursor {
	return &app.Cursor{X: x, Y: y, Left: left, Meta: meta, Shift: shift}
}

func assertSorted(t *testing.T, e *GraphEditor[testPoint]) {
	t.Helper()
	data := e.Data()
	for i := 1; i < len(data); i++ {
		assert.LessOrEqual(t, data[i-1].X, data[i].X, "data out of order at %d", i)
	}
	for _, s := range e.Selection() {
		assert.GreaterOrEqual(t, s, 0)
		assert.Less(t, s, len(data))
	}
}

func TestEditorSortsOnConstruction(t *testing.T) {
	e, _ := newTestEditor(t, testPoint{X: 5}, testPoint{X: 1}, testPoint{X: 3})
	assertSorted(t, e)
	first, _ := e.First()
	assert.Equal(t, 1.0, first.X)
}

func TestAddPointKeepsOrderAndSelection(t *testing.T) {
	e, ctx := newTestEditor(t, testPoint{X: 1}, testPoint{X: 5})
	require.NoError(t, e.SetSelection([]int{1}, ctx))

	idx := e.AddPoint(testPoint{X: 3}, ctx)
	assert.Equal(t, 1, idx)
	assertSorted(t, e)
	// The selected point at X=5 shifted to index 2.
	assert.Equal(t, []int{2}, e.Selection())
}

func TestRemovePointsRemapsSelection(t *testing.T) {
	e, ctx := newTestEditor(t, testPoint{X: 1}, testPoint{X: 2}, testPoint{X: 3}, testPoint{X: 4})
	require.NoError(t, e.SetSelection([]int{1, 3}, ctx))

	require.NoError(t, e.RemovePoints([]int{1}, ctx))
	assertSorted(t, e)
	assert.Equal(t, []int{2}, e.Selection(), "selection follows the surviving point")

	assert.Error(t, e.RemovePoints([]int{99}, ctx))
	assert.Error(t, e.RemovePoints([]int{0, 0}, ctx))
}

func TestSelectionBounds(t *testing.T) {
	e, ctx := newTestEditor(t, testPoint{X: 1})
	assert.Error(t, e.SetSelection([]int{5}, ctx))
	assert.NoError(t, e.SetSelection([]int{0}, ctx))
}

func TestAddUndoRedoRoundTrip(t *testing.T) {
	e, ctx := newTestEditor(t)

	e.AddPoint(testPoint{X: 2, Y: 4}, ctx)
	ctx.FinishBatch()
	require.Equal(t, 1, e.Len())

	require.True(t, ctx.Undo())
	for _, ev := range ctx.DrainEmitted() {
		e.HandleEvent(ev, ctx, nil)
	}
	assert.Equal(t, 0, e.Len())
	assert.Empty(t, e.Selection())

	require.True(t, ctx.Redo())
	for _, ev := range ctx.DrainEmitted() {
		e.HandleEvent(ev, ctx, nil)
	}
	require.Equal(t, 1, e.Len())
	got, _ := e.Get(0)
	assert.Equal(t, testPoint{X: 2, Y: 4}, got)
}

func TestEqualEditsAndUndosRestoreInitialState(t *testing.T) {
	e, ctx := newTestEditor(t, testPoint{X: 1, Y: 1})

	e.AddPoint(testPoint{X: 4, Y: 2}, ctx)
	ctx.FinishBatch()
	require.NoError(t, e.RemovePoints([]int{0}, ctx))
	ctx.FinishBatch()
	e.AddPoint(testPoint{X: 0.5, Y: 3}, ctx)
	ctx.FinishBatch()

	for i := 0; i < 3; i++ {
		require.True(t, ctx.Undo())
		for _, ev := range ctx.DrainEmitted() {
			e.HandleEvent(ev, ctx, nil)
		}
	}
	require.Equal(t, 1, e.Len())
	got, _ := e.Get(0)
	assert.Equal(t, testPoint{X: 1, Y: 1}, got)
}

func TestFocusMachineHoverAndPan(t *testing.T) {
	e, ctx := newTestEditor(t, testPoint{X: 3, Y: 2})
	require.Equal(t, FocusNone, e.Focus())

	// Pointer enter over empty plane.
	e.Hover(cursor(8, 8, false, false, false), ctx, nil)
	assert.Equal(t, FocusHoverPlane, e.Focus())

	// Over the point.
	e.Hover(cursor(3, 2, false, false, false), ctx, nil)
	assert.Equal(t, FocusHoverPoint, e.Focus())
	assert.Equal(t, 0, e.FocusPoint())

	// Back to the plane, then pan.
	e.Hover(cursor(9, 9, false, false, false), ctx, nil)
	assert.Equal(t, FocusHoverPlane, e.Focus())

	e.Hover(cursor(9, 9, true, false, false), ctx, nil)
	assert.Equal(t, FocusMovePlane, e.Focus())
	e.Hover(cursor(5, 9, true, false, false), ctx, nil)
	assert.Equal(t, 4.0, e.Offset()[0], "panning left scrolls the viewport right")

	e.Hover(cursor(5, 9, false, false, false), ctx, nil)
	assert.Equal(t, FocusHoverPlane, e.Focus())

	// Leave drops hover focus entirely.
	e.Hover(nil, ctx, nil)
	assert.Equal(t, FocusNone, e.Focus())
}

func TestFocusMachineAddDrag(t *testing.T) {
	e, ctx := newTestEditor(t)

	e.Hover(cursor(6, 3, false, true, false), ctx, nil)
	e.Hover(cursor(6, 3, true, true, false), ctx, nil)
	assert.Equal(t, FocusAddDrag, e.Focus())

	e.Hover(cursor(7, 4, true, true, false), ctx, nil)
	e.Hover(cursor(7, 4, false, true, false), ctx, nil)
	assert.Equal(t, FocusHoverPlane, e.Focus())

	require.Equal(t, 1, e.Len())
	got, _ := e.Get(0)
	// Snap=1 on both axes commits the ghost to whole cells.
	assert.Equal(t, testPoint{X: 7, Y: 4}, got)
	assertSorted(t, e)
}

func TestFocusMachineMoveCommitsAndResorts(t *testing.T) {
	e, ctx := newTestEditor(t, testPoint{X: 1, Y: 1}, testPoint{X: 5, Y: 7})

	// Click the point at X=5 to select it.
	e.Hover(cursor(5, 7, false, false, false), ctx, nil)
	e.Hover(cursor(5, 7, true, false, false), ctx, nil)
	e.Hover(cursor(5, 7, false, false, false), ctx, nil)
	ctx.FinishBatch()
	require.Equal(t, []int{1}, e.Selection())

	// Drag it before the other point; the order flips.
	e.Hover(cursor(5, 7, true, false, false), ctx, nil)
	assert.Equal(t, FocusMovePoint, e.Focus())
	e.Hover(cursor(0, 7, true, false, false), ctx, nil)
	e.Hover(cursor(0, 7, false, false, false), ctx, nil)
	ctx.FinishBatch()

	assertSorted(t, e)
	require.Equal(t, 2, e.Len())
	moved, _ := e.Get(0)
	assert.Equal(t, 7.0, moved.Y, "the dragged point stays selected by identity")
	assert.Equal(t, []int{0}, e.Selection())

	// Undo restores the original layout.
	require.True(t, ctx.Undo())
	for _, ev := range ctx.DrainEmitted() {
		e.HandleEvent(ev, ctx, nil)
	}
	assertSorted(t, e)
	back, _ := e.Get(1)
	assert.Equal(t, 5.0, back.X)
	assert.Equal(t, 7.0, back.Y)
}

func TestSelectionDragMovesAllPoints(t *testing.T) {
	e, ctx := newTestEditor(t, testPoint{X: 1, Y: 1}, testPoint{X: 3, Y: 3}, testPoint{X: 8, Y: 8})
	require.NoError(t, e.SetSelection([]int{0, 1}, ctx))

	e.Hover(cursor(1, 1, false, false, false), ctx, nil)
	e.Hover(cursor(1, 1, true, false, false), ctx, nil)
	e.Hover(cursor(2, 2, true, false, false), ctx, nil)
	e.Hover(cursor(2, 2, false, false, false), ctx, nil)
	ctx.FinishBatch()

	a, _ := e.Get(0)
	b, _ := e.Get(1)
	assert.Equal(t, testPoint{X: 2, Y: 2}, a)
	assert.Equal(t, testPoint{X: 4, Y: 4}, b)
	c, _ := e.Get(2)
	assert.Equal(t, testPoint{X: 8, Y: 8}, c, "unselected points stay put")
}

func TestSelectionDragClampsToYBound(t *testing.T) {
	e, ctx := newTestEditor(t, testPoint{X: 2, Y: 1}, testPoint{X: 4, Y: 5})
	require.NoError(t, e.SetSelection([]int{0, 1}, ctx))

	// Dragging up by 3 would push Y=1 below the bound; the whole group clamps
	// to a delta of -1.
	e.Hover(cursor(2, 1, false, false, false), ctx, nil)
	e.Hover(cursor(2, 1, true, false, false), ctx, nil)
	e.Hover(cursor(2, -2, true, false, false), ctx, nil)
	e.Hover(cursor(2, -2, false, false, false), ctx, nil)

	a, _ := e.Get(0)
	b, _ := e.Get(1)
	assert.Equal(t, 0.0, a.Y)
	assert.Equal(t, 4.0, b.Y)
}

func TestMarqueeSelect(t *testing.T) {
	e, ctx := newTestEditor(t, testPoint{X: 1, Y: 1}, testPoint{X: 3, Y: 3}, testPoint{X: 9, Y: 9})

	e.Hover(cursor(0, 0, false, false, true), ctx, nil)
	e.Hover(cursor(0, 0, true, false, true), ctx, nil)
	assert.Equal(t, FocusSelect, e.Focus())
	e.Hover(cursor(4, 4, true, false, true), ctx, nil)
	e.Hover(cursor(4, 4, false, false, true), ctx, nil)

	assert.Equal(t, []int{0, 1}, e.Selection())
}

func TestClickTogglesSelectionWithMeta(t *testing.T) {
	e, ctx := newTestEditor(t, testPoint{X: 1, Y: 1}, testPoint{X: 3, Y: 3})
	require.NoError(t, e.SetSelection([]int{0}, ctx))

	// Meta-click the second point: both selected.
	e.Hover(cursor(3, 3, false, true, false), ctx, nil)
	e.Hover(cursor(3, 3, true, true, false), ctx, nil)
	e.Hover(cursor(3, 3, false, true, false), ctx, nil)
	assert.Equal(t, []int{0, 1}, e.Selection())

	// Meta-click it again: membership toggles off.
	e.Hover(cursor(3, 3, true, true, false), ctx, nil)
	e.Hover(cursor(3, 3, false, true, false), ctx, nil)
	assert.Equal(t, []int{0}, e.Selection())
}

func TestEscapeCancelsDrag(t *testing.T) {
	e, ctx := newTestEditor(t, testPoint{X: 5, Y: 5})

	e.Hover(cursor(5, 5, false, false, false), ctx, nil)
	e.Hover(cursor(5, 5, true, false, false), ctx, nil)
	e.Hover(cursor(8, 8, true, false, false), ctx, nil)
	moved, _ := e.Get(0)
	require.NotEqual(t, 5.0, moved.X)

	e.HandleEvent(app.KeyPress{Key: "esc"}, ctx, nil)
	restored, _ := e.Get(0)
	assert.Equal(t, testPoint{X: 5, Y: 5}, restored)
	assert.Equal(t, FocusHoverPlane, e.Focus())
}

func TestLeaveDuringDragKeepsPointer(t *testing.T) {
	e, ctx := newTestEditor(t, testPoint{X: 5, Y: 5})
	e.Hover(cursor(5, 5, false, false, false), ctx, nil)
	e.Hover(cursor(5, 5, true, false, false), ctx, nil)
	e.Hover(nil, ctx, nil)
	assert.Equal(t, FocusMovePoint, e.Focus(), "an active drag owns the pointer")
}

func TestFocusMachineAlwaysTerminates(t *testing.T) {
	// Arbitrary pointer sequences must land in a well-defined state with no
	// orphaned capture.
	e, ctx := newTestEditor(t, testPoint{X: 2, Y: 2}, testPoint{X: 6, Y: 6})
	seq := []struct {
		x, y              int
		left, meta, shift bool
	}{
		{2, 2, false, false, false},
		{2, 2, true, false, false},
		{4, 4, true, true, false},
		{4, 4, false, false, false},
		{9, 9, true, false, true},
		{1, 1, true, false, true},
		{1, 1, false, false, false},
		{6, 6, true, true, false},
		{6, 6, false, true, false},
	}
	for _, s := range seq {
		e.Hover(cursor(s.x, s.y, s.left, s.meta, s.shift), ctx, nil)
		assert.NotEqual(t, FocusKind(-1), e.Focus())
	}
	assert.False(t, e.Focus().Dragging(), "released pointer leaves no focus owner")
	assertSorted(t, e)
}

func TestSnapAppliesOnCommitOnly(t *testing.T) {
	e, ctx := newTestEditor(t, testPoint{X: 2, Y: 2})
	e.HandleEvent(app.Snap{Step: 0.5}, ctx, nil)

	e.Hover(cursor(2, 2, false, false, false), ctx, nil)
	e.Hover(cursor(2, 2, true, false, false), ctx, nil)
	e.Hover(cursor(3, 2, true, false, false), ctx, nil)
	// Mid-drag the point rides the cursor unsnapped.
	mid, _ := e.Get(0)
	assert.Equal(t, 3.0, mid.X)
	e.Hover(cursor(3, 2, false, false, false), ctx, nil)

	done, _ := e.Get(0)
	assert.Equal(t, 3.0, done.X, "already on the snap grid")
}

func TestZoomClamped(t *testing.T) {
	e, _ := newTestEditor(t)
	for i := 0; i < 20; i++ {
		e.Zoom(0.1, 0.1)
	}
	assert.GreaterOrEqual(t, e.Scale()[0], 4.0)
	assert.Equal(t, 10.0, e.Scale()[1], "test traits pin the vertical scale")
	for i := 0; i < 20; i++ {
		e.Zoom(10, 10)
	}
	assert.LessOrEqual(t, e.Scale()[0], 96.0)
}

func TestRedrawProtocol(t *testing.T) {
	e, ctx := newTestEditor(t, testPoint{X: 1, Y: 1})

	vcCalls := 0
	vc := func() VisualContext {
		vcCalls++
		return VisualContext{}
	}
	_, ok := e.Redraw(ctx, app.PlaybackState{}, vc)
	require.True(t, ok, "a fresh editor has a pending redraw")
	assert.Equal(t, 0, vcCalls, "the visual context thunk is lazy: no point hook, no call")

	_, ok = e.Redraw(ctx, app.PlaybackState{}, nil)
	assert.False(t, ok, "redraw flag clears after a frame")

	e.ForceRedraw()
	frame, ok := e.Redraw(ctx, app.PlaybackState{}, nil)
	require.True(t, ok)
	assert.False(t, frame.Grid.Empty(), "grid lines cover the viewport")
}
