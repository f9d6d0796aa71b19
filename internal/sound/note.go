package sound

import (
	"math"

	"github.com/schvv31n/wavexp/internal/app"
	"github.com/schvv31n/wavexp/internal/audiograph"
	"github.com/schvv31n/wavexp/internal/editor"
	"github.com/schvv31n/wavexp/internal/music"
	"github.com/schvv31n/wavexp/internal/types"
)

// NoteSound plays a pattern of pitched oscillator blocks, each shaped by the
// shared ADSR envelope.
type NoteSound struct {
	Pattern *editor.GraphEditor[types.NoteBlock]
	Volume  float64
	Attack  music.Beats
	Decay   music.Beats
	Sustain float64
	Release music.Beats
	Reps    uint32
}

func NewNoteSound(ctx *app.Context) *NoteSound {
	return &NoteSound{
		Pattern: editor.NewGraphEditor(ctx, NoteBlockTraits(), nil),
		Volume:  1,
		Sustain: 1,
		Reps:    1,
	}
}

func (s *NoteSound) Type() types.SoundType { return types.SoundNote }
func (s *NoteSound) Name() string          { return types.SoundNote.Name() }

func (s *NoteSound) Tabs() []string { return []string{"General", "Envelope", "Pattern"} }

func (s *NoteSound) Prepare(audiograph.Graph, float64) error { return nil }

func (s *NoteSound) Reset(_ *app.Context, id int, offset music.Beats, schedule func(Event)) error {
	first, ok := s.Pattern.First()
	if !ok {
		return nil
	}
	schedule(BlockStart{ID: id, At: offset + first.Offset, State: 0})
	return nil
}

func (s *NoteSound) Poll(plug audiograph.Node, ctx *app.Context, ev Event, schedule func(Event)) error {
	switch e := ev.(type) {
	case BlockStart:
		data := s.Pattern.Data()
		n := len(data)
		if n == 0 {
			return invalidEvent(s.Name(), ev)
		}
		cur := data[e.State%n]
		effLen := music.Beats(math.Max(0, float64(cur.Len)))

		g := ctx.Graph
		gain, err := g.CreateGain()
		if err != nil {
			return err
		}
		if err := scheduleEnvelope(
			gain.Gain(), ctx.Now, s.Attack, s.Decay, s.Sustain, s.Volume, s.Release,
			effLen.ToSecs(ctx.Bps), ctx.Bps,
		); err != nil {
			return err
		}

		osc, err := g.CreateOscillator()
		if err != nil {
			return err
		}
		osc.Frequency().SetValue(cur.Value.Freq())
		if _, err := osc.Connect(gain); err != nil {
			return err
		}
		if _, err := gain.Connect(plug); err != nil {
			return err
		}
		start := float64(ctx.Now)
		if err := osc.Start(start); err != nil {
			return err
		}
		if err := osc.Stop(start + float64(effLen.ToSecs(ctx.Bps))); err != nil {
			return err
		}
		osc.SetOnEnded(func() {
			_ = gain.Disconnect()
			_ = osc.Disconnect()
		})

		schedule(BlockEnd{ID: e.ID, At: e.At + effLen + s.Release + tearDownDelay(ctx.Bps), Gain: gain})

		next := e.State + 1
		if next < n*int(s.Reps) {
			schedule(BlockStart{ID: e.ID, At: e.At + s.stride(e.State), State: next})
		}
		return nil

	case BlockEnd:
		return e.Gain.Disconnect()

	default:
		return invalidEvent(s.Name(), ev)
	}
}

// stride is the beat distance from pattern state to state+1, crossing the
// repetition boundary when the next state wraps to the first block.
func (s *NoteSound) stride(state int) music.Beats {
	data := s.Pattern.Data()
	n := len(data)
	cur := data[state%n]
	if (state+1)%n == 0 {
		last := data[n-1]
		return last.Offset + last.Len - cur.Offset + data[0].Offset
	}
	return data[(state+1)%n].Offset - cur.Offset
}

func (s *NoteSound) Len(float64) music.Beats {
	last, ok := s.Pattern.Last()
	if !ok {
		return 0
	}
	return last.Offset + last.Len
}

func (s *NoteSound) RepCount() uint32 { return s.Reps }

const notePatternTab = 2

func (s *NoteSound) HandleEvent(event app.Event, ctx *app.Context, pb app.PlaybackState, offset music.Beats) {
	vc := func() editor.VisualContext {
		return editor.VisualContext{BlockOffset: offset, RepCount: s.Reps}
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
			}
		}
		s.Pattern.HandleEvent(event, ctx, vc)

	default:
		s.Pattern.HandleEvent(event, ctx, vc)
	}
}
