package sound

import (
	"fmt"
	"math"

	"github.com/schvv31n/wavexp/internal/app"
	"github.com/schvv31n/wavexp/internal/draw"
	"github.com/schvv31n/wavexp/internal/editor"
	"github.com/schvv31n/wavexp/internal/music"
	"github.com/schvv31n/wavexp/internal/types"
)

// Vertical viewport constants shared by both pattern editors: the 36 note
// rows padded up to the next multiple of ten, vertically centred.
var (
	patternYBound       = [2]float64{0, music.NNotes}
	patternScaleYBound  = [2]float64{40, 40}
	patternOffsetYBound = [2]float64{-2, -2}
)

// NoteBlockTraits is the capability bundle of the note pattern editor.
func NoteBlockTraits() editor.Traits[types.NoteBlock] {
	return editor.Traits[types.NoteBlock]{
		EditorName:   "Note Editor",
		YBound:       patternYBound,
		ScaleYBound:  patternScaleYBound,
		OffsetYBound: patternOffsetYBound,
		YSnap:        1,

		Less: func(a, b types.NoteBlock) bool { return a.Offset < b.Offset },

		Loc: func(p types.NoteBlock) [2]float64 {
			return [2]float64{float64(p.Offset), float64(p.Value.Recip().Index())}
		},

		Move: func(p *types.NoteBlock, delta [2]float64, meta bool) {
			if meta {
				p.Len += music.Beats(delta[0])
			} else {
				p.Offset = music.Beats(math.Max(0, float64(p.Offset)+delta[0]))
			}
			if shift := int(math.Round(delta[1])); shift != 0 {
				if moved, ok := p.Value.Sub(shift); ok {
					p.Value = moved
				}
			}
		},

		MoveLoc: func(loc *[2]float64, delta [2]float64, meta bool) {
			if !meta {
				loc[0] += delta[0]
			}
			loc[1] += delta[1]
		},

		Create: func(loc [2]float64) types.NoteBlock {
			return types.NoteBlock{
				Offset: music.Beats(math.Max(0, loc[0])),
				Value:  music.SaturatedNote(int(math.Round(loc[1]))).Recip(),
				Len:    1,
			}
		},

		InHitbox: func(p types.NoteBlock, area [2][2]float64, _ editor.VisualContext) bool {
			row := float64(p.Value.Recip().Index())
			if row < math.Floor(area[1][0]+0.5)-0.5 || row > math.Floor(area[1][1]+0.5)+0.5 {
				return false
			}
			lo := float64(p.Offset)
			hi := lo + math.Max(0, float64(p.Len))
			return lo <= area[0][1] && hi >= area[0][0]
		},

		FmtLoc: fmtPatternLoc,

		OnMove: func(e *editor.GraphEditor[types.NoteBlock], ctx *app.Context, _ app.Cursor, _ [2]float64, point int) {
			// The pattern row in the sequencer is sized by the last block, so
			// moving it changes the outer plane too.
			last := e.Len() - 1
			if last < 0 {
				return
			}
			if point == last || (point < 0 && containsIdx(e.Selection(), last)) {
				ctx.EmitEvent(app.RedrawEditorPlane{})
			}
		},

		OnRedraw: func(e *editor.GraphEditor[types.NoteBlock], ctx *app.Context, pb app.PlaybackState, canvasSize [2]float64, solid, _ *draw.Path, vc editor.VisualContext) {
			step := e.StepPx()
			for _, block := range e.Data() {
				px := e.LocToPx([2]float64{float64(block.Offset), float64(block.Value.Recip().Index())})
				solid.Rect(px[0], px[1], math.Max(0, float64(block.Len))*step[0], step[1])
			}
			var totalLen music.Beats
			if last, ok := e.Last(); ok {
				totalLen = last.Offset + last.Len
			}
			drawPlayheadCursor(e.ForceRedraw, ctx, pb, canvasSize, solid, vc, totalLen,
				func(x float64) float64 { return (x-e.Offset()[0])*step[0] })
		},

		PlaneHoverHint:     patternPlaneHint("Note Editor", "note"),
		PointHoverHint:     patternPointHint("Note", true),
		SelectionHoverHint: patternSelectionHint("notes", true),
	}
}

// CustomBlockTraits is the capability bundle of the custom-audio pattern
// editor. Block width on screen derives from the baked input duration and the
// block's pitch coefficient, supplied through the visual context.
func CustomBlockTraits() editor.Traits[types.CustomBlock] {
	return editor.Traits[types.CustomBlock]{
		EditorName:   "Custom Audio Editor",
		YBound:       patternYBound,
		ScaleYBound:  patternScaleYBound,
		OffsetYBound: patternOffsetYBound,
		YSnap:        1,

		Less: func(a, b types.CustomBlock) bool { return a.Offset < b.Offset },

		Loc: func(p types.CustomBlock) [2]float64 {
			return [2]float64{float64(p.Offset), float64(p.Pitch.Recip().Index())}
		},

		Move: func(p *types.CustomBlock, delta [2]float64, _ bool) {
			p.Offset = music.Beats(math.Max(0, float64(p.Offset)+delta[0]))
			if shift := int(math.Round(delta[1])); shift != 0 {
				if moved, ok := p.Pitch.Sub(shift); ok {
					p.Pitch = moved
				}
			}
		},

		MoveLoc: func(loc *[2]float64, delta [2]float64, _ bool) {
			loc[0] += delta[0]
			loc[1] += delta[1]
		},

		Create: func(loc [2]float64) types.CustomBlock {
			return types.CustomBlock{
				Offset: music.Beats(math.Max(0, loc[0])),
				Pitch:  music.SaturatedNote(int(math.Round(loc[1]))).Recip(),
			}
		},

		InHitbox: func(p types.CustomBlock, area [2][2]float64, vc editor.VisualContext) bool {
			row := float64(p.Pitch.Recip().Index())
			if row < math.Floor(area[1][0]+0.5)-0.5 || row > math.Floor(area[1][1]+0.5)+0.5 {
				return false
			}
			lo := float64(p.Offset)
			hi := lo + float64(vc.AudioDur)/p.Pitch.PitchCoef()
			return lo <= area[0][1] && hi >= area[0][0]
		},

		FmtLoc: fmtPatternLoc,

		OnMove: func(e *editor.GraphEditor[types.CustomBlock], ctx *app.Context, _ app.Cursor, _ [2]float64, point int) {
			last := e.Len() - 1
			if last < 0 {
				return
			}
			if point == last || (point < 0 && containsIdx(e.Selection(), last)) {
				ctx.EmitEvent(app.RedrawEditorPlane{})
			}
		},

		OnRedraw: func(e *editor.GraphEditor[types.CustomBlock], ctx *app.Context, pb app.PlaybackState, canvasSize [2]float64, solid, _ *draw.Path, vc editor.VisualContext) {
			step := e.StepPx()
			for _, block := range e.Data() {
				px := e.LocToPx([2]float64{float64(block.Offset), float64(block.Pitch.Recip().Index())})
				solid.Rect(px[0], px[1], float64(vc.AudioDur)/block.Pitch.PitchCoef()*step[0], step[1])
			}
			var totalLen music.Beats
			if last, ok := e.Last(); ok {
				totalLen = last.Offset + music.Beats(float64(vc.AudioDur)/last.Pitch.PitchCoef())
			}
			drawPlayheadCursor(e.ForceRedraw, ctx, pb, canvasSize, solid, vc, totalLen,
				func(x float64) float64 { return (x-e.Offset()[0])*step[0] })
		},

		PlaneHoverHint:     patternPlaneHint("Custom Audio Editor", "block"),
		PointHoverHint:     patternPointHint("Block", false),
		SelectionHoverHint: patternSelectionHint("blocks", false),
	}
}

// drawPlayheadCursor strokes the vertical playback line when the playhead is
// inside the pattern, and keeps the editor animating while it is.
func drawPlayheadCursor(
	forceRedraw func(),
	ctx *app.Context,
	pb app.PlaybackState,
	canvasSize [2]float64,
	path *draw.Path,
	vc editor.VisualContext,
	totalLen music.Beats,
	beatToPx func(float64) float64,
) {
	if pb.Kind != app.PlaybackAll || !music.Finite(float64(pb.Start)) || totalLen <= 0 {
		return
	}
	progress := (ctx.Now - pb.Start).ToBeats(ctx.Bps) - vc.BlockOffset
	if progress < 0 || progress >= totalLen*music.Beats(max32(vc.RepCount, 1)) {
		return
	}
	forceRedraw()
	x := beatToPx(math.Mod(float64(progress), float64(totalLen)))
	path.MoveTo(x, 0)
	path.LineTo(x, canvasSize[1])
}

func fmtPatternLoc(loc [2]float64) string {
	return fmt.Sprintf("%.3f, %s", loc[0], music.SaturatedNote(int(math.Round(loc[1]))).Recip())
}

func patternPlaneHint(name, noun string) func(app.Cursor) [2]string {
	return func(cur app.Cursor) [2]string {
		switch {
		case cur.Left && cur.Meta:
			return [2]string{name + ": Adding", "Release to add a " + noun}
		case cur.Left && cur.Shift:
			return [2]string{name + ": Selecting", "Release to select"}
		case cur.Left:
			return [2]string{name + ": Moving", "Release to stop"}
		case cur.Meta:
			return [2]string{name, "Hold & drag to add a " + noun + ", Shift to select"}
		default:
			return [2]string{name, "Hold & drag to move around (press Meta for actions)"}
		}
	}
}

// patternPointHint builds the point hints; stretch says whether Meta-drag
// stretches the point type instead of moving it.
func patternPointHint(noun string, stretch bool) func([2]float64, app.Cursor) [2]string {
	return func(loc [2]float64, cur app.Cursor) [2]string {
		at := fmt.Sprintf("%s @ %s", noun, fmtPatternLoc(loc))
		switch {
		case cur.Left && cur.Meta && stretch:
			return [2]string{at + ": stretching", "Release to stop"}
		case cur.Left:
			return [2]string{at + ": moving", "Release to stop"}
		case !stretch:
			return [2]string{at, "LMB to move"}
		case cur.Meta:
			return [2]string{at, "Hold LMB to stretch it"}
		default:
			return [2]string{at, "LMB to move, LMB + Meta to stretch"}
		}
	}
}

func patternSelectionHint(noun string, stretch bool) func(int, app.Cursor) [2]string {
	return func(n int, cur app.Cursor) [2]string {
		head := fmt.Sprintf("%d %s", n, noun)
		if cur.Left {
			return [2]string{head + ": moving", "Release to stop"}
		}
		if !stretch {
			return [2]string{head, "LMB to move"}
		}
		return [2]string{head, "LMB to move, LMB + Meta to stretch"}
	}
}

func containsIdx(s []int, v int) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

func max32(v uint32, lo uint32) uint32 {
	if v < lo {
		return lo
	}
	return v
}
