package sound

import (
	"fmt"

	"github.com/schvv31n/wavexp/internal/app"
	"github.com/schvv31n/wavexp/internal/audiograph"
	"github.com/schvv31n/wavexp/internal/editor"
	"github.com/schvv31n/wavexp/internal/music"
	"github.com/schvv31n/wavexp/internal/types"
)

// CustomSound plays a pattern of buffer-source triggers over a shared audio
// input. Each block plays the whole baked buffer, sped up by the sound's
// speed and the block's pitch coefficient.
type CustomSound struct {
	Pattern *editor.GraphEditor[types.CustomBlock]
	// Src is a reference into the project input pool, not owned.
	Src     *types.AudioInput
	Volume  float64
	Attack  music.Beats
	Decay   music.Beats
	Sustain float64
	Release music.Beats
	Reps    uint32
	// Speed multiplies the playback rate of every block; > 0.
	Speed float64
}

func NewCustomSound(ctx *app.Context) *CustomSound {
	return &CustomSound{
		Pattern: editor.NewGraphEditor(ctx, CustomBlockTraits(), nil),
		Volume:  1,
		Sustain: 1,
		Reps:    1,
		Speed:   1,
	}
}

func (s *CustomSound) Type() types.SoundType { return types.SoundCustom }
func (s *CustomSound) Name() string          { return types.SoundCustom.Name() }

func (s *CustomSound) Tabs() []string { return []string{"General", "Envelope", "Pattern"} }

// Prepare bakes the referenced input; a no-op without one.
func (s *CustomSound) Prepare(g audiograph.Graph, bps float64) error {
	if s.Src == nil {
		return nil
	}
	return s.Src.Bake(g, bps)
}

func (s *CustomSound) Reset(_ *app.Context, id int, offset music.Beats, schedule func(Event)) error {
	first, ok := s.Pattern.First()
	if !ok || s.Src == nil {
		return nil
	}
	schedule(BlockStart{ID: id, At: offset + first.Offset, State: 0})
	return nil
}

func (s *CustomSound) Poll(plug audiograph.Node, ctx *app.Context, ev Event, schedule func(Event)) error {
	switch e := ev.(type) {
	case BlockStart:
		data := s.Pattern.Data()
		n := len(data)
		if n == 0 || s.Src == nil {
			return invalidEvent(s.Name(), ev)
		}
		baked := s.Src.Baked()
		if baked == nil {
			return fmt.Errorf("%s: input %q is not baked", s.Name(), s.Src.Name())
		}
		cur := data[e.State%n]
		coef := cur.Pitch.PitchCoef()
		// One repetition of the buffer at this sound's speed, before the
		// per-block pitch scaling.
		srcLen := music.Secs(float64(s.Src.BakedDuration()) / s.Speed)
		blockLen := music.Secs(float64(srcLen) / coef)

		g := ctx.Graph
		gain, err := g.CreateGain()
		if err != nil {
			return err
		}
		if err := scheduleEnvelope(
			gain.Gain(), ctx.Now, s.Attack, s.Decay, s.Sustain, s.Volume, s.Release,
			blockLen, ctx.Bps,
		); err != nil {
			return err
		}

		src, err := g.CreateBufferSource()
		if err != nil {
			return err
		}
		src.SetBuffer(baked)
		src.PlaybackRate().SetValue(s.Speed * coef)
		if _, err := src.Connect(gain); err != nil {
			return err
		}
		if _, err := gain.Connect(plug); err != nil {
			return err
		}
		start := float64(ctx.Now)
		if err := src.Start(start); err != nil {
			return err
		}
		if err := src.Stop(start + float64(blockLen)); err != nil {
			return err
		}
		src.SetOnEnded(func() {
			_ = gain.Disconnect()
			_ = src.Disconnect()
		})

		blockLenBeats := blockLen.ToBeats(ctx.Bps)
		schedule(BlockEnd{ID: e.ID, At: e.At + blockLenBeats + s.Release + tearDownDelay(ctx.Bps), Gain: gain})

		next := e.State + 1
		if next < n*int(s.Reps) {
			schedule(BlockStart{ID: e.ID, At: e.At + s.stride(e.State, ctx.Bps), State: next})
		}
		return nil

	case BlockEnd:
		return e.Gain.Disconnect()

	default:
		return invalidEvent(s.Name(), ev)
	}
}

func (s *CustomSound) stride(state int, bps float64) music.Beats {
	data := s.Pattern.Data()
	n := len(data)
	cur := data[state%n]
	if (state+1)%n == 0 {
		return s.Len(bps) - cur.Offset + data[0].Offset
	}
	return data[(state+1)%n].Offset - cur.Offset
}

// Len is the pattern length: the last block's offset plus the time it takes
// to play the baked input at that block's rate. Zero without a source.
func (s *CustomSound) Len(bps float64) music.Beats {
	last, ok := s.Pattern.Last()
	if !ok || s.Src == nil {
		return 0
	}
	dur := s.Src.BakedDuration().ToBeats(bps)
	return music.Beats(float64(dur)/s.Speed/last.Pitch.PitchCoef()) + last.Offset
}

func (s *CustomSound) RepCount() uint32 { return s.Reps }

func (s *CustomSound) HandleEvent(event app.Event, ctx *app.Context, pb app.PlaybackState, offset music.Beats) {
	vc := func() editor.VisualContext {
		vctx := editor.VisualContext{BlockOffset: offset, RepCount: s.Reps}
		if s.Src != nil {
			vctx.AudioDur = music.Beats(float64(s.Src.BakedDuration().ToBeats(ctx.Bps)) / s.Speed)
		}
		return vctx
	}
	switch e := event.(type) {
	case app.Volume:
		ctx.RegisterAction(app.SetVolumeAction{From: s.Volume, To: e.Value})
		s.Volume = e.Value

	case app.Attack:
		ctx.RegisterAction(app.SetAttackAction{From: s.Attack, To: e.Value})
		s.Attack = e.Value

	case app.Decay:
		ctx.RegisterAction(app.SetDecayAction{From: s.Decay, To: e.Value})
		s.Decay = e.Value

	case app.Sustain:
		ctx.RegisterAction(app.SetSustainAction{From: s.Sustain, To: e.Value})
		s.Sustain = e.Value

	case app.Release:
		ctx.RegisterAction(app.SetReleaseAction{From: s.Release, To: e.Value})
		s.Release = e.Value

	case app.RepCount:
		ctx.RegisterAction(app.SetRepCountAction{From: s.Reps, To: e.Count})
		s.Reps = e.Count
		ctx.EmitEvent(app.RedrawEditorPlane{})

	case app.Speed:
		if e.Value > 0 {
			ctx.RegisterAction(app.SetSpeedAction{From: s.Speed, To: e.Value})
			s.Speed = e.Value
			ctx.EmitEvent(app.RedrawEditorPlane{})
		} else {
			ctx.ReportError(fmt.Errorf("%s: speed must be positive, got %f", s.Name(), e.Value))
		}

	case app.SelectInput:
		ctx.RegisterAction(app.SelectInputAction{From: s.Src, To: e.Input})
		s.Src = e.Input
		ctx.EmitEvent(app.RedrawEditorPlane{})

	case app.FocusTab:
		s.Pattern.Hover(&e.Cursor, ctx, vc)
	case app.HoverTab:
		s.Pattern.Hover(&e.Cursor, ctx, vc)
	case app.LeaveTab:
		s.Pattern.Hover(nil, ctx, vc)

	case app.Undo:
		for i := len(e.Actions) - 1; i >= 0; i-- {
			switch a := e.Actions[i].(type) {
			case app.SetVolumeAction:
				s.Volume = a.From
			case app.SetAttackAction:
				s.Attack = a.From
			case app.SetDecayAction:
				s.Decay = a.From
			case app.SetSustainAction:
				s.Sustain = a.From
			case app.SetReleaseAction:
				s.Release = a.From
			case app.SetRepCountAction:
				s.Reps = a.From
				ctx.EmitEvent(app.RedrawEditorPlane{})
			case app.SetSpeedAction:
				s.Speed = a.From
				ctx.EmitEvent(app.RedrawEditorPlane{})
			case app.SelectInputAction:
				s.Src = a.From
				ctx.EmitEvent(app.RedrawEditorPlane{})
			}
		}
		s.Pattern.HandleEvent(event, ctx, vc)

	case app.Redo:
		for _, action := range e.Actions {
			switch a := action.(type) {
			case app.SetVolumeAction:
				s.Volume = a.To
			case app.SetAttackAction:
				s.Attack = a.To
			case app.SetDecayAction:
				s.Decay = a.To
			case app.SetSustainAction:
				s.Sustain = a.To
			case app.SetReleaseAction:
				s.Release = a.To
			case app.SetRepCountAction:
				s.Reps = a.To
				ctx.EmitEvent(app.RedrawEditorPlane{})
			case app.SetSpeedAction:
				s.Speed = a.To
				ctx.EmitEvent(app.RedrawEditorPlane{})
			case app.SelectInputAction:
				s.Src = a.To
				ctx.EmitEvent(app.RedrawEditorPlane{})
			}
		}
		s.Pattern.HandleEvent(event, ctx, vc)

	default:
		s.Pattern.HandleEvent(event, ctx, vc)
	}
}
