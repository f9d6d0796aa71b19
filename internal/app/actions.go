package app

import (
	"github.com/schvv31n/wavexp/internal/music"
	"github.com/schvv31n/wavexp/internal/types"
)

// EditorID addresses one graph editor instance; ids are handed out by the
// context and stay stable for the editor's lifetime.
type EditorID int

// EditorAction is one reversible mutation. Every action stores enough to
// fully reverse itself without re-reading live state.
type EditorAction interface{ editorAction() }

// Value changes.
type SetVolumeAction struct{ From, To float64 }
type SetAttackAction struct{ From, To music.Beats }
type SetDecayAction struct{ From, To music.Beats }
type SetSustainAction struct{ From, To float64 }
type SetReleaseAction struct{ From, To music.Beats }
type SetRepCountAction struct{ From, To uint32 }
type SetSpeedAction struct{ From, To float64 }
type SetDurationAction struct{ From, To music.Beats }
type SetMasterGainAction struct{ From, To float64 }

// SetBlockTypeAction records a sound block turning from one variant into
// another; undo resets the block to the From type (normally SoundNone).
type SetBlockTypeAction struct{ From, To types.SoundType }

// Structural changes. Snapshots are the point values themselves, type-erased
// because actions from editors of different point types share one history.
type AddPointAction struct {
	Editor   EditorID
	Index    int
	Snapshot any
}

type RemovePointsAction struct {
	Editor    EditorID
	Indices   []int // ascending
	Snapshots []any // parallel to Indices
}

type MovePointsAction struct {
	Editor  EditorID
	Indices []int // indices after the move's re-sort
	Delta   [2]float64
	Meta    bool
}

// SetSelectionAction records a selection replacement.
type SetSelectionAction struct {
	Editor   EditorID
	From, To []int
}

// SelectInputAction records the active custom sound switching its source
// input.
type SelectInputAction struct{ From, To *types.AudioInput }

// UI actions; replayed without re-running side effects.
type OpenPopupAction struct{ Popup Popup }
type ClosePopupAction struct{ Popup Popup }

func (SetVolumeAction) editorAction()     {}
func (SetAttackAction) editorAction()     {}
func (SetDecayAction) editorAction()      {}
func (SetSustainAction) editorAction()    {}
func (SetReleaseAction) editorAction()    {}
func (SetRepCountAction) editorAction()   {}
func (SetSpeedAction) editorAction()      {}
func (SetDurationAction) editorAction()   {}
func (SetMasterGainAction) editorAction() {}
func (SetBlockTypeAction) editorAction()  {}
func (AddPointAction) editorAction()      {}
func (RemovePointsAction) editorAction()  {}
func (MovePointsAction) editorAction()    {}
func (SetSelectionAction) editorAction()  {}
func (SelectInputAction) editorAction()   {}
func (OpenPopupAction) editorAction()     {}
func (ClosePopupAction) editorAction()    {}
