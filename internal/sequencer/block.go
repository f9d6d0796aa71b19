// Package sequencer owns the top-level editor plane of sound blocks, the
// master output chain and the event pump that drives playback.
package sequencer

import (
	"fmt"
	"math"

	"github.com/schvv31n/wavexp/internal/app"
	"github.com/schvv31n/wavexp/internal/draw"
	"github.com/schvv31n/wavexp/internal/editor"
	"github.com/schvv31n/wavexp/internal/music"
	"github.com/schvv31n/wavexp/internal/sound"
)

// SoundBlock is one coloured block on the editor plane. It exclusively owns
// its sound; destroying the block destroys the sound's nested editors.
type SoundBlock struct {
	Sound  sound.Sound
	Layer  int
	Offset music.Beats
}

// Loc is the block's plane location: beats horizontally, layer vertically.
func (b *SoundBlock) Loc() [2]float64 {
	return [2]float64{float64(b.Offset), float64(b.Layer)}
}

func (b *SoundBlock) Desc() string { return b.Sound.Name() }

// blockTraits builds the capability bundle of the top-level plane. The
// closures capture the sequencer for the tempo-dependent block lengths.
func (s *Sequencer) blockTraits() editor.Traits[SoundBlock] {
	return editor.Traits[SoundBlock]{
		EditorName:   "Editor Plane",
		YBound:       [2]float64{0, math.Inf(1)},
		ScaleYBound:  [2]float64{5, 30},
		OffsetYBound: [2]float64{-1, math.Inf(1)},
		YSnap:        1,

		Less: func(a, b SoundBlock) bool {
			if a.Offset != b.Offset {
				return a.Offset < b.Offset
			}
			return a.Layer < b.Layer
		},

		Loc: func(p SoundBlock) [2]float64 { return (&p).Loc() },

		Move: func(p *SoundBlock, delta [2]float64, _ bool) {
			p.Offset = music.Beats(math.Max(0, float64(p.Offset)+delta[0]))
			p.Layer += int(math.Round(delta[1]))
		},

		MoveLoc: func(loc *[2]float64, delta [2]float64, _ bool) {
			loc[0] += delta[0]
			loc[1] += delta[1]
		},

		Create: func(loc [2]float64) SoundBlock {
			return SoundBlock{
				Sound:  sound.NoneSound{},
				Layer:  int(math.Round(loc[1])),
				Offset: music.Beats(math.Max(0, loc[0])),
			}
		},

		InHitbox: func(p SoundBlock, area [2][2]float64, _ editor.VisualContext) bool {
			layer := float64(p.Layer)
			if layer < math.Floor(area[1][0]+0.5)-0.5 || layer > math.Floor(area[1][1]+0.5)+0.5 {
				return false
			}
			lo := float64(p.Offset)
			hi := lo + float64(p.Sound.Len(s.bps))*float64(p.Sound.RepCount())
			return lo <= area[0][1] && hi >= area[0][0]
		},

		FmtLoc: func(loc [2]float64) string {
			return fmt.Sprintf("%.3f, layer %d", loc[0], int(math.Round(loc[1])))
		},

		OnRedraw: func(e *editor.GraphEditor[SoundBlock], ctx *app.Context, pb app.PlaybackState, canvasSize [2]float64, solid, _ *draw.Path, _ editor.VisualContext) {
			step := e.StepPx()
			for i := range e.Data() {
				block := &e.Data()[i]
				px := e.LocToPx(block.Loc())
				w := float64(block.Sound.Len(s.bps)) * float64(block.Sound.RepCount()) * step[0]
				solid.Rect(px[0], px[1], w, step[1])
			}
			if pb.Kind == app.PlaybackAll && music.Finite(float64(pb.Start)) {
				e.ForceRedraw()
				progress := (ctx.Now - pb.Start).ToBeats(ctx.Bps)
				x := e.LocToPx([2]float64{float64(progress), 0})[0]
				solid.MoveTo(x, 0)
				solid.LineTo(x, canvasSize[1])
			}
		},

		PlaneHoverHint: func(cur app.Cursor) [2]string {
			switch {
			case cur.Left && cur.Meta:
				return [2]string{"Editor Plane: Adding", "Release to add a block"}
			case cur.Left && cur.Shift:
				return [2]string{"Editor Plane: Selecting", "Release to select"}
			case cur.Left:
				return [2]string{"Editor Plane: Moving", "Release to stop"}
			case cur.Meta:
				return [2]string{"Editor Plane", "Hold & drag to add a block, Shift to select"}
			default:
				return [2]string{"Editor Plane", "Hold & drag to move around (press Meta for actions)"}
			}
		},

		PointHoverHint: func(loc [2]float64, cur app.Cursor) [2]string {
			at := fmt.Sprintf("Block @ %.3f, layer %d", loc[0], int(math.Round(loc[1])))
			if cur.Left {
				return [2]string{at + ": moving", "Release to stop"}
			}
			return [2]string{at, "Click to open, hold & drag to move"}
		},

		SelectionHoverHint: func(n int, cur app.Cursor) [2]string {
			head := fmt.Sprintf("%d blocks", n)
			if cur.Left {
				return [2]string{head + ": moving", "Release to stop"}
			}
			return [2]string{head, "Click to de-select, hold & drag to move"}
		},
	}
}
