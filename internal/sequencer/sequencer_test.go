package sequencer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schvv31n/wavexp/internal/app"
	"github.com/schvv31n/wavexp/internal/audiograph"
	"github.com/schvv31n/wavexp/internal/music"
	"github.com/schvv31n/wavexp/internal/sound"
	"github.com/schvv31n/wavexp/internal/types"
)

func newTestSequencer(t *testing.T, bps float64) (*Sequencer, *app.Context, *audiograph.MemGraph) {
	t.Helper()
	g := audiograph.NewMemGraph(100)
	ctx := app.NewContext(g, bps)
	seq, err := New(ctx)
	require.NoError(t, err)
	return seq, ctx, g
}

func noteBlockAt(ctx *app.Context, offset music.Beats, blocks ...types.NoteBlock) SoundBlock {
	s := sound.NewNoteSound(ctx)
	s.Pattern.SetData(blocks)
	return SoundBlock{Sound: s, Layer: 0, Offset: offset}
}

func frameAt(seq *Sequencer, ctx *app.Context, g *audiograph.MemGraph, at float64) {
	g.SetNow(at)
	ctx.Now = music.Secs(at)
	_ = seq.HandleEvent(app.Frame{Time: music.Secs(at)}, ctx)
}

func countOps(g *audiograph.MemGraph, kind string, op audiograph.OpKind) int {
	n := 0
	for _, o := range g.Ops() {
		if o.Kind == kind && o.Op == op {
			n++
		}
	}
	return n
}

func TestMasterChainTopology(t *testing.T) {
	seq, _, g := newTestSequencer(t, 2)
	assert.True(t, g.Connected(seq.Plug(), g.Destination()))
	assert.InDelta(t, 0.2, seq.MasterGain(), 1e-9)

	// Compressor parameters per the master chain contract.
	var ratio, release float64
	for _, op := range g.Ops() {
		if op.Kind == "compressor" && op.Op == audiograph.OpSetValue {
			switch op.Param {
			case "ratio":
				ratio = op.Value
			case "release":
				release = op.Value
			}
		}
	}
	assert.Equal(t, 20.0, ratio)
	assert.Equal(t, 1.0, release)
}

func TestStartPlayQueuesInitialEvents(t *testing.T) {
	seq, ctx, _ := newTestSequencer(t, 2)
	seq.Pattern().SetData([]SoundBlock{
		noteBlockAt(ctx, 2, types.NoteBlock{Offset: 0.5, Value: music.MidNote, Len: 1}),
	})

	require.NoError(t, seq.HandleEvent(app.StartPlay{}, ctx))
	require.True(t, seq.Playing())
	pending := seq.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, music.Beats(2.5), pending[0].When(), "block offset plus first pattern offset")
}

func TestFrameDrainsExactlyDueEvents(t *testing.T) {
	seq, ctx, g := newTestSequencer(t, 2)
	seq.Pattern().SetData([]SoundBlock{
		noteBlockAt(ctx, 0, types.NoteBlock{Offset: 0, Value: music.MidNote, Len: 0.25}),
		noteBlockAt(ctx, 1, types.NoteBlock{Offset: 0, Value: music.MidNote, Len: 0.25}),
		noteBlockAt(ctx, 2, types.NoteBlock{Offset: 0, Value: music.MidNote, Len: 0.25}),
	})
	require.NoError(t, seq.HandleEvent(app.StartPlay{}, ctx))

	// The anchor frame: playback position is exactly zero beats, so only the
	// block at beat 0 fires.
	frameAt(seq, ctx, g, 10)
	assert.Equal(t, 1, countOps(g, "oscillator", audiograph.OpStart))

	// Half a second at bps=2 is one beat: the second block fires.
	frameAt(seq, ctx, g, 10.5)
	assert.Equal(t, 2, countOps(g, "oscillator", audiograph.OpStart))

	// Just shy of beat two: nothing new.
	frameAt(seq, ctx, g, 10.99)
	assert.Equal(t, 2, countOps(g, "oscillator", audiograph.OpStart))

	frameAt(seq, ctx, g, 11.0)
	assert.Equal(t, 3, countOps(g, "oscillator", audiograph.OpStart))
}

func TestFirstFrameAnchorsClock(t *testing.T) {
	seq, ctx, g := newTestSequencer(t, 2)
	seq.Pattern().SetData([]SoundBlock{
		noteBlockAt(ctx, 0, types.NoteBlock{Offset: 0, Value: music.MidNote, Len: 1}),
	})
	require.NoError(t, seq.HandleEvent(app.StartPlay{}, ctx))

	frameAt(seq, ctx, g, 42)
	assert.Equal(t, music.Secs(42), ctx.PlaySince)

	started := 0
	for _, ev := range ctx.DrainEmitted() {
		if _, ok := ev.(app.AudioStarted); ok {
			started++
		}
	}
	assert.Equal(t, 1, started, "AudioStarted fires exactly once per play")

	frameAt(seq, ctx, g, 43)
	for _, ev := range ctx.DrainEmitted() {
		_, ok := ev.(app.AudioStarted)
		assert.False(t, ok, "no second AudioStarted")
	}
}

func TestPatternRepetitionsProducePairedEvents(t *testing.T) {
	// Two note blocks at offsets 0 and 1 with rep_count=3: six BlockStarts,
	// each paired with one BlockEnd.
	seq, ctx, g := newTestSequencer(t, 2)
	s := sound.NewNoteSound(ctx)
	s.Reps = 3
	s.Pattern.SetData([]types.NoteBlock{
		{Offset: 0, Value: music.MidNote, Len: 1},
		{Offset: 1, Value: music.MidNote, Len: 1},
	})
	seq.Pattern().SetData([]SoundBlock{{Sound: s, Layer: 0, Offset: 0}})
	require.NoError(t, seq.HandleEvent(app.StartPlay{}, ctx))

	frameAt(seq, ctx, g, 0)
	// Far past the six beats of content plus release margins.
	frameAt(seq, ctx, g, 100)

	assert.Equal(t, 6, countOps(g, "oscillator", audiograph.OpStart))
	// Every envelope gain node is disconnected exactly once by its BlockEnd.
	assert.Equal(t, 6, countOps(g, "gain", audiograph.OpDisconnect))
	assert.Empty(t, seq.Pending())
}

// recorderSound tracks the pump protocol so the at-most-one-live invariant is
// observable.
type recorderSound struct {
	sound.NoneSound
	states  int
	live    map[int]int
	maxLive int
	starts  int
}

func (r *recorderSound) Reset(_ *app.Context, id int, offset music.Beats, schedule func(sound.Event)) error {
	schedule(sound.BlockStart{ID: id, At: offset, State: 0})
	return nil
}

func (r *recorderSound) Poll(_ audiograph.Node, ctx *app.Context, ev sound.Event, schedule func(sound.Event)) error {
	switch e := ev.(type) {
	case sound.BlockStart:
		r.starts++
		r.live[e.State]++
		if r.live[e.State] > r.maxLive {
			r.maxLive = r.live[e.State]
		}
		gain, err := ctx.Graph.CreateGain()
		if err != nil {
			return err
		}
		schedule(sound.BlockEnd{ID: e.ID, At: e.At + 0.5, Gain: gain})
		if e.State+1 < r.states {
			schedule(sound.BlockStart{ID: e.ID, At: e.At + 1, State: e.State + 1})
		}
	case sound.BlockEnd:
		// All ends of this recorder carry state in At ordering; the pump
		// guarantees the paired start drained first.
	}
	return nil
}

func TestAtMostOneBlockStartInFlight(t *testing.T) {
	seq, ctx, g := newTestSequencer(t, 2)
	rec := &recorderSound{states: 8, live: map[int]int{}}
	seq.Pattern().SetData([]SoundBlock{{Sound: rec, Layer: 0, Offset: 0}})
	require.NoError(t, seq.HandleEvent(app.StartPlay{}, ctx))

	for at := 0.0; at < 10; at += 0.1 {
		frameAt(seq, ctx, g, at)
	}
	assert.Equal(t, 8, rec.starts)
	assert.Equal(t, 1, rec.maxLive, "no (block, state) pair is scheduled twice")
}

func TestImmediateEventsDrainWithinOneFrame(t *testing.T) {
	// The anchor frame drains only state 0. By the frame at t=100 the other
	// seven chained states are all due; the nested loop must finish them
	// before returning.
	seq, ctx, g := newTestSequencer(t, 2)
	rec := &recorderSound{states: 8, live: map[int]int{}}
	seq.Pattern().SetData([]SoundBlock{{Sound: rec, Layer: 0, Offset: 0}})
	require.NoError(t, seq.HandleEvent(app.StartPlay{}, ctx))

	frameAt(seq, ctx, g, 0)
	frameAt(seq, ctx, g, 100)
	assert.Equal(t, 8, rec.starts)
	assert.Empty(t, seq.Pending())
}

func TestStopPlayReplacesPlug(t *testing.T) {
	seq, ctx, g := newTestSequencer(t, 2)
	seq.Pattern().SetData([]SoundBlock{
		noteBlockAt(ctx, 0, types.NoteBlock{Offset: 0, Value: music.MidNote, Len: 4}),
	})
	require.NoError(t, seq.HandleEvent(app.StartPlay{}, ctx))
	frameAt(seq, ctx, g, 0)

	oldPlug := seq.Plug()
	require.NoError(t, seq.HandleEvent(app.StopPlay{}, ctx))

	assert.False(t, seq.Playing())
	assert.Empty(t, seq.Pending())
	assert.NotEqual(t, oldPlug.ID(), seq.Plug().ID())
	assert.False(t, g.Connected(oldPlug, g.Destination()), "the old plug is fully severed")
	assert.True(t, g.Connected(seq.Plug(), g.Destination()))
	assert.Equal(t, app.PlaybackNone, seq.PlaybackCtx().Kind)
}

func TestEventOrderingTiesBreakById(t *testing.T) {
	seq, ctx, _ := newTestSequencer(t, 2)
	seq.Pattern().SetData([]SoundBlock{
		noteBlockAt(ctx, 1, types.NoteBlock{Offset: 0, Value: music.MidNote, Len: 1}),
		noteBlockAt(ctx, 1, types.NoteBlock{Offset: 0, Value: music.MidNote, Len: 1}),
	})
	// Same due time: the queue orders by target id.
	require.NoError(t, seq.HandleEvent(app.StartPlay{}, ctx))
	pending := seq.Pending()
	require.Len(t, pending, 2)
	assert.Less(t, pending[0].Target(), pending[1].Target())
}

func TestSetBlockTypeOnSelectedBlock(t *testing.T) {
	seq, ctx, _ := newTestSequencer(t, 2)
	seq.Pattern().SetData([]SoundBlock{{Sound: sound.NoneSound{}, Layer: 0, Offset: 0}})
	require.NoError(t, seq.Pattern().SetSelection([]int{0}, ctx))
	ctx.FinishBatch()

	require.NoError(t, seq.HandleEvent(app.SetBlockType{Type: types.SoundNote}, ctx))
	_, block, ok := seq.Selected()
	require.True(t, ok)
	assert.Equal(t, types.SoundNote, block.Sound.Type())
	ctx.FinishBatch()

	// Undoing the type change resets the block to undefined.
	require.True(t, ctx.Undo())
	for _, ev := range ctx.DrainEmitted() {
		require.NoError(t, seq.HandleEvent(ev, ctx))
		seq.ForwardToActive(ev, ctx)
	}
	_, block, ok = seq.Selected()
	require.True(t, ok)
	assert.Equal(t, types.SoundNone, block.Sound.Type())

	// Redo is symmetric: the block becomes a note sound again.
	require.True(t, ctx.Redo())
	for _, ev := range ctx.DrainEmitted() {
		require.NoError(t, seq.HandleEvent(ev, ctx))
		seq.ForwardToActive(ev, ctx)
	}
	_, block, ok = seq.Selected()
	require.True(t, ok)
	assert.Equal(t, types.SoundNote, block.Sound.Type())
}

func TestBlockTypeUndoRestoresPreviousType(t *testing.T) {
	// A Note -> Custom change undoes back to Note, not to undefined.
	seq, ctx, _ := newTestSequencer(t, 2)
	seq.Pattern().SetData([]SoundBlock{{Sound: sound.NewNoteSound(ctx), Layer: 0, Offset: 0}})
	require.NoError(t, seq.Pattern().SetSelection([]int{0}, ctx))
	ctx.FinishBatch()

	require.NoError(t, seq.HandleEvent(app.SetBlockType{Type: types.SoundCustom}, ctx))
	ctx.FinishBatch()
	_, block, ok := seq.Selected()
	require.True(t, ok)
	require.Equal(t, types.SoundCustom, block.Sound.Type())

	require.True(t, ctx.Undo())
	for _, ev := range ctx.DrainEmitted() {
		require.NoError(t, seq.HandleEvent(ev, ctx))
		seq.ForwardToActive(ev, ctx)
	}
	_, block, ok = seq.Selected()
	require.True(t, ok)
	assert.Equal(t, types.SoundNote, block.Sound.Type())
}

func TestMasterGainEvent(t *testing.T) {
	seq, ctx, _ := newTestSequencer(t, 2)
	require.NoError(t, seq.HandleEvent(app.MasterGain{Value: 0.5}, ctx))
	assert.Equal(t, 0.5, seq.MasterGain())
	ctx.FinishBatch()

	require.True(t, ctx.Undo())
	for _, ev := range ctx.DrainEmitted() {
		require.NoError(t, seq.HandleEvent(ev, ctx))
	}
	assert.InDelta(t, 0.2, seq.MasterGain(), 1e-9)
}
