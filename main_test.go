package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schvv31n/wavexp/internal/app"
	"github.com/schvv31n/wavexp/internal/audiograph"
	"github.com/schvv31n/wavexp/internal/sequencer"
	"github.com/schvv31n/wavexp/internal/sound"
	"github.com/schvv31n/wavexp/internal/types"
)

func newOfflineStudio(t *testing.T) *studioModel {
	t.Helper()
	memG := audiograph.NewMemGraph(44100)
	saveFile := filepath.Join(t.TempDir(), "project.json.gz")
	m, err := newStudioModel(memG, nil, memG, 2, saveFile, false)
	require.NoError(t, err)
	m.termW, m.termH = 120, 40
	m.recalcLayout()
	return m
}

func TestStudioStartsEmpty(t *testing.T) {
	m := newOfflineStudio(t)
	assert.Equal(t, 0, m.seq.Pattern().Len())
	assert.False(t, m.seq.Playing())
}

func TestDispatchDrainsEmittedEvents(t *testing.T) {
	m := newOfflineStudio(t)
	// A hint emitted by the plane's hover handling lands on the model within
	// the same dispatch.
	m.dispatch(app.HoverPlane{Cursor: app.Cursor{X: 5, Y: 5}})
	assert.NotEmpty(t, m.hintMain)
}

func TestBlockLifecycleThroughDispatch(t *testing.T) {
	m := newOfflineStudio(t)

	// Add a block, select it, give it a type; then unwind everything.
	m.seq.Pattern().AddPoint(sequencer.SoundBlock{Sound: sound.NoneSound{}, Layer: 2, Offset: 1}, m.ctx)
	m.ctx.FinishBatch()
	require.NoError(t, m.seq.Pattern().SetSelection([]int{0}, m.ctx))
	m.ctx.FinishBatch()

	m.dispatch(app.SetBlockType{Type: types.SoundNote})
	_, block, ok := m.seq.Selected()
	require.True(t, ok)
	require.Equal(t, types.SoundNote, block.Sound.Type())

	// Undo the type change: the block resets to undefined.
	require.True(t, m.ctx.Undo())
	for _, ev := range m.ctx.DrainEmitted() {
		m.dispatch(ev)
	}
	_, block, ok = m.seq.Selected()
	require.True(t, ok)
	assert.Equal(t, types.SoundNone, block.Sound.Type())

	// Redo restores the note sound, then undo it again.
	require.True(t, m.ctx.Redo())
	for _, ev := range m.ctx.DrainEmitted() {
		m.dispatch(ev)
	}
	_, block, ok = m.seq.Selected()
	require.True(t, ok)
	require.Equal(t, types.SoundNote, block.Sound.Type())
	require.True(t, m.ctx.Undo())
	for _, ev := range m.ctx.DrainEmitted() {
		m.dispatch(ev)
	}

	// Undo the selection, then the add: back to an empty plane.
	require.True(t, m.ctx.Undo())
	for _, ev := range m.ctx.DrainEmitted() {
		m.dispatch(ev)
	}
	require.True(t, m.ctx.Undo())
	for _, ev := range m.ctx.DrainEmitted() {
		m.dispatch(ev)
	}
	assert.Equal(t, 0, m.seq.Pattern().Len())
}

func TestPopupOpenCloseThroughDispatch(t *testing.T) {
	m := newOfflineStudio(t)
	m.dispatch(app.OpenPopup{Popup: app.Popup{Kind: app.PopupChooseInput, InputIdx: -1}})
	assert.Equal(t, 1, m.popups.Depth())
	m.dispatch(app.ClosePopup{})
	assert.Equal(t, 0, m.popups.Depth())
}

func TestAddInputGrowsPool(t *testing.T) {
	m := newOfflineStudio(t)
	buf, err := m.ctx.Graph.CreateBuffer(types.ChannelCount, 100, 44100)
	require.NoError(t, err)
	in, err := types.NewAudioInput("clip", "", m.ctx.Graph, buf)
	require.NoError(t, err)

	m.dispatch(app.AddInput{Input: in})
	require.Len(t, m.inputs, 1)
	assert.Equal(t, "clip", m.inputs[0].Name())
}

func TestSnapshotReflectsModelState(t *testing.T) {
	m := newOfflineStudio(t)
	m.seq.Pattern().AddPoint(sequencer.SoundBlock{Sound: sound.NoneSound{}, Layer: 0, Offset: 3}, m.ctx)
	m.ctx.FinishBatch()

	data := m.snapshot()
	require.Len(t, data.Blocks, 1)
	assert.Equal(t, 2.0, data.Bps)
}
