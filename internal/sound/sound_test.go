package sound

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schvv31n/wavexp/internal/app"
	"github.com/schvv31n/wavexp/internal/audiograph"
	"github.com/schvv31n/wavexp/internal/music"
	"github.com/schvv31n/wavexp/internal/types"
)

func newTestCtx(bps float64) (*app.Context, *audiograph.MemGraph) {
	g := audiograph.NewMemGraph(100)
	ctx := app.NewContext(g, bps)
	return ctx, g
}

func opsOfKind(ops []audiograph.Op, kind string) []audiograph.Op {
	var res []audiograph.Op
	for _, op := range ops {
		if op.Kind == kind {
			res = append(res, op)
		}
	}
	return res
}

func TestNoteSoundEnvelopeSchedule(t *testing.T) {
	// One block of one beat at bps=2, played with a flat envelope starting at
	// t=10s: the gain pins 0 at 10, ramps to full immediately, holds, and
	// releases at 10.5.
	ctx, g := newTestCtx(2)
	s := NewNoteSound(ctx)
	c4, _ := music.NewNote(24)
	s.Pattern.SetData([]types.NoteBlock{{Offset: 0, Value: c4, Len: 1}})

	var scheduled []Event
	require.NoError(t, s.Reset(ctx, 0, 0, func(ev Event) { scheduled = append(scheduled, ev) }))
	require.Len(t, scheduled, 1)
	assert.Equal(t, music.Beats(0), scheduled[0].When())

	g.SetNow(10)
	ctx.Now = 10
	plug, _ := g.CreateGain()
	scheduled = scheduled[:0]
	require.NoError(t, s.Poll(plug, ctx, BlockStart{ID: 0, At: 0, State: 0}, func(ev Event) {
		scheduled = append(scheduled, ev)
	}))

	gains := opsOfKind(g.Ops(), "gain")
	var automation []audiograph.Op
	for _, op := range gains {
		if op.Param == "gain" && op.Node != plug.ID() {
			automation = append(automation, op)
		}
	}
	require.Len(t, automation, 5)
	assert.Equal(t, audiograph.OpSetValueAtTime, automation[0].Op)
	assert.Equal(t, 10.0, automation[0].At)
	assert.Equal(t, 0.0, automation[0].Value)
	assert.Equal(t, audiograph.OpLinearRamp, automation[1].Op)
	assert.Equal(t, 10.0, automation[1].At)
	assert.Equal(t, 1.0, automation[1].Value)
	assert.Equal(t, 10.0, automation[2].At)
	assert.Equal(t, 1.0, automation[2].Value)
	assert.Equal(t, audiograph.OpSetValueAtTime, automation[3].Op)
	assert.Equal(t, 10.5, automation[3].At)
	assert.Equal(t, 1.0, automation[3].Value)
	assert.Equal(t, audiograph.OpLinearRamp, automation[4].Op)
	assert.Equal(t, 10.5, automation[4].At)
	assert.Equal(t, 0.0, automation[4].Value)

	oscs := opsOfKind(g.Ops(), "oscillator")
	var freqSet, start, stop *audiograph.Op
	for i := range oscs {
		switch {
		case oscs[i].Param == "frequency":
			freqSet = &oscs[i]
		case oscs[i].Op == audiograph.OpStart:
			start = &oscs[i]
		case oscs[i].Op == audiograph.OpStop:
			stop = &oscs[i]
		}
	}
	require.NotNil(t, freqSet)
	assert.InDelta(t, 261.63, freqSet.Value, 1e-9)
	require.NotNil(t, start)
	assert.Equal(t, 10.0, start.At)
	require.NotNil(t, stop)
	assert.Equal(t, 10.5, stop.At)

	// The gain teardown trails the release by the safety margin.
	require.Len(t, scheduled, 1)
	end, ok := scheduled[0].(BlockEnd)
	require.True(t, ok)
	assert.InDelta(t, 1.2, float64(end.At), 1e-9)
}

func TestNoteSoundStatesCrossRepetitions(t *testing.T) {
	ctx, g := newTestCtx(2)
	s := NewNoteSound(ctx)
	s.Reps = 3
	s.Pattern.SetData([]types.NoteBlock{
		{Offset: 0, Value: music.MidNote, Len: 1},
		{Offset: 1, Value: music.MidNote, Len: 1},
	})
	plug, _ := g.CreateGain()

	// Walk the whole chain of BlockStart events.
	var when music.Beats
	state := 0
	for {
		var next *BlockStart
		err := s.Poll(plug, ctx, BlockStart{ID: 0, At: when, State: state}, func(ev Event) {
			if bs, ok := ev.(BlockStart); ok {
				next = &bs
			}
		})
		require.NoError(t, err)
		if next == nil {
			break
		}
		assert.Equal(t, state+1, next.State)
		when, state = next.At, next.State
	}
	assert.Equal(t, 5, state, "two blocks over three repetitions walk six states")
	assert.Equal(t, music.Beats(5), when, "blocks sit one beat apart across the repetition boundary")
}

func TestNoteSoundLen(t *testing.T) {
	ctx, _ := newTestCtx(2)
	s := NewNoteSound(ctx)
	assert.Equal(t, music.Beats(0), s.Len(2))
	s.Pattern.SetData([]types.NoteBlock{
		{Offset: 0, Value: music.MidNote, Len: 1},
		{Offset: 2, Value: music.MidNote, Len: 1.5},
	})
	assert.Equal(t, music.Beats(3.5), s.Len(2))
}

func TestNoteFrequencyTable(t *testing.T) {
	assert.InDelta(t, 185.0, music.MidNote.Freq(), 1e-9, "the reference pitch is F#3")
}

func TestNoiseSoundLifecycle(t *testing.T) {
	ctx, g := newTestCtx(2)
	s, err := NewNoiseSound(ctx)
	require.NoError(t, err)
	s.Dur = 2
	s.Reps = 2

	var scheduled []Event
	require.NoError(t, s.Reset(ctx, 3, 1, func(ev Event) { scheduled = append(scheduled, ev) }))
	require.Len(t, scheduled, 1)
	start, ok := scheduled[0].(Start)
	require.True(t, ok)
	assert.Equal(t, music.Beats(1), start.At)
	assert.Equal(t, 3, start.ID)

	plug, _ := g.CreateGain()
	scheduled = scheduled[:0]
	require.NoError(t, s.Poll(plug, ctx, start, func(ev Event) { scheduled = append(scheduled, ev) }))
	require.Len(t, scheduled, 1)
	stop, ok := scheduled[0].(Stop)
	require.True(t, ok)
	assert.Equal(t, music.Beats(5), stop.At, "stop after len*reps beats")

	require.NoError(t, s.Poll(plug, ctx, stop, func(Event) {}))
}

func TestNoiseSoundDefaults(t *testing.T) {
	ctx, _ := newTestCtx(2)
	s, err := NewNoiseSound(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0.2, s.Volume())
	assert.Equal(t, music.Beats(1), s.Dur)
	assert.Equal(t, uint32(1), s.Reps)

	s.SetVolume(0.7)
	assert.Equal(t, 0.7, s.Volume())
}

func TestCustomSoundPlaybackRate(t *testing.T) {
	// Baked duration 4s, speed 2, pitch one octave up: the source plays at
	// rate 4 and the effective block length is 1s.
	ctx, g := newTestCtx(2)
	buf, err := g.CreateBuffer(types.ChannelCount, 400, 100)
	require.NoError(t, err)
	in, err := types.NewAudioInput("clip", "", g, buf)
	require.NoError(t, err)

	s := NewCustomSound(ctx)
	s.Src = in
	s.Speed = 2
	up, _ := music.MidNote.Add(12)
	s.Pattern.SetData([]types.CustomBlock{{Offset: 0, Pitch: up}})

	plug, _ := g.CreateGain()
	var scheduled []Event
	require.NoError(t, s.Poll(plug, ctx, BlockStart{ID: 0, At: 0, State: 0}, func(ev Event) {
		scheduled = append(scheduled, ev)
	}))

	srcs := opsOfKind(g.Ops(), "bufferSource")
	var rate, start, stop *audiograph.Op
	for i := range srcs {
		switch {
		case srcs[i].Param == "playbackRate":
			rate = &srcs[i]
		case srcs[i].Op == audiograph.OpStart:
			start = &srcs[i]
		case srcs[i].Op == audiograph.OpStop:
			stop = &srcs[i]
		}
	}
	require.NotNil(t, rate)
	assert.InDelta(t, 4.0, rate.Value, 1e-9)
	require.NotNil(t, start)
	require.NotNil(t, stop)
	assert.InDelta(t, 1.0, stop.At-start.At, 1e-9)

	require.Len(t, scheduled, 1)
	end, ok := scheduled[0].(BlockEnd)
	require.True(t, ok)
	// blockLen 1s = 2 beats, plus the 0.2 beat teardown margin.
	assert.InDelta(t, 2.2, float64(end.At), 1e-9)
}

func TestCustomSoundRequiresBakedInput(t *testing.T) {
	ctx, g := newTestCtx(2)
	buf, _ := g.CreateBuffer(types.ChannelCount, 400, 100)
	in, _ := types.NewAudioInput("clip", "", g, buf)

	s := NewCustomSound(ctx)
	s.Src = in
	s.Pattern.SetData([]types.CustomBlock{{Offset: 0, Pitch: music.MidNote}})
	in.ChangesMut().Reversed = true

	plug, _ := g.CreateGain()
	err := s.Poll(plug, ctx, BlockStart{ID: 0, At: 0, State: 0}, func(Event) {})
	assert.Error(t, err, "unbaked input cannot play")

	require.NoError(t, s.Prepare(g, ctx.Bps))
	assert.NoError(t, s.Poll(plug, ctx, BlockStart{ID: 0, At: 0, State: 0}, func(Event) {}))
}

func TestCustomSoundLen(t *testing.T) {
	ctx, g := newTestCtx(2)
	buf, _ := g.CreateBuffer(types.ChannelCount, 400, 100)
	in, _ := types.NewAudioInput("clip", "", g, buf)

	s := NewCustomSound(ctx)
	assert.Equal(t, music.Beats(0), s.Len(2), "no source, no length")

	s.Src = in
	s.Speed = 2
	up, _ := music.MidNote.Add(12)
	s.Pattern.SetData([]types.CustomBlock{{Offset: 1.5, Pitch: up}})
	// 4s at bps=2 is 8 beats; /speed /coef = 2, plus the offset.
	assert.InDelta(t, 3.5, float64(s.Len(2)), 1e-9)
}

func TestSoundNone(t *testing.T) {
	s := NoneSound{}
	assert.Equal(t, music.Beats(1), s.Len(2), "an undefined block is one beat long visually")
	assert.Equal(t, uint32(1), s.RepCount())
	assert.NoError(t, s.Reset(nil, 0, 0, nil))
}

func TestValueEventsRegisterReversibleActions(t *testing.T) {
	ctx, _ := newTestCtx(2)
	s := NewNoteSound(ctx)

	s.HandleEvent(app.Volume{Value: 0.4}, ctx, app.PlaybackState{}, 0)
	assert.Equal(t, 0.4, s.Volume)
	ctx.FinishBatch()

	require.True(t, ctx.Undo())
	events := ctx.DrainEmitted()
	require.Len(t, events, 1)
	s.HandleEvent(events[0], ctx, app.PlaybackState{}, 0)
	assert.Equal(t, 1.0, s.Volume)

	require.True(t, ctx.Redo())
	events = ctx.DrainEmitted()
	s.HandleEvent(events[0], ctx, app.PlaybackState{}, 0)
	assert.Equal(t, 0.4, s.Volume)
}

func TestInvalidEventIsLogicFailure(t *testing.T) {
	ctx, g := newTestCtx(2)
	s := NewNoteSound(ctx)
	s.Pattern.SetData([]types.NoteBlock{{Offset: 0, Value: music.MidNote, Len: 1}})
	plug, _ := g.CreateGain()
	assert.Error(t, s.Poll(plug, ctx, Start{ID: 0, At: 0}, func(Event) {}))
}
