// Package app carries the event bus, the reversible action model and the
// dispatch context shared by every component of the workstation. One Event is
// delivered to the components in a fixed order (sequencer, then the active
// sound, then its nested editor, then the popup stack); components consume
// the variants relevant to them and ignore the rest.
package app

import (
	"github.com/schvv31n/wavexp/internal/music"
	"github.com/schvv31n/wavexp/internal/types"
)

// Event is the single broadcast type of the application.
type Event interface{ appEvent() }

// Frame fires once per animation tick with the current graph time.
type Frame struct{ Time music.Secs }

// Resize reports a new canvas size in cells.
type Resize struct{ W, H int }

// KeyPress is a non-pointer key the UI did not consume itself.
type KeyPress struct{ Key string }

// StartPlay requests playback. Input selects preview of a single audio input;
// nil plays the whole arrangement.
type StartPlay struct{ Input *types.AudioInput }

// StopPlay kills all playback immediately.
type StopPlay struct{}

// AudioStarted is emitted once per play, on the first frame that advanced it.
type AudioStarted struct{ At music.Secs }

// SetBlockType turns the selected block into a fresh sound of the given type.
type SetBlockType struct{ Type types.SoundType }

// Value-change events; each is one committed slider/counter interaction.
type Volume struct{ Value float64 }
type Attack struct{ Value music.Beats }
type Decay struct{ Value music.Beats }
type Sustain struct{ Value float64 }
type Release struct{ Value music.Beats }
type RepCount struct{ Count uint32 }
type Speed struct{ Value float64 }
type Duration struct{ Value music.Beats }
type MasterGain struct{ Value float64 }
type Snap struct{ Step music.Beats }
type Bps struct{ Value float64 }

// AddInput registers a freshly decoded audio input in the project pool.
type AddInput struct{ Input *types.AudioInput }

// SelectInput points the active custom sound at a pool input.
type SelectInput struct{ Input *types.AudioInput }

// Undo and Redo carry the action batch being replayed; every component
// reverses or reapplies the actions it owns.
type Undo struct{ Actions []EditorAction }
type Redo struct{ Actions []EditorAction }

// OpenPopup pushes p onto the popup stack; ClosePopup pops the top.
type OpenPopup struct{ Popup Popup }
type ClosePopup struct{}

// RedrawEditorPlane asks the sequencer's plane to redraw on the next frame.
type RedrawEditorPlane struct{}

// SetTab switches the parameter tab of the active sound.
type SetTab struct{ Index int }

// SetHint publishes the hover hint shown in the status footer.
type SetHint struct{ Main, Aux string }

// FetchHint asks the hovered component to re-emit its hint.
type FetchHint struct{}

// Pointer events. Plane events target the sequencer's top-level editor, Tab
// events target the nested pattern editor of the active sound.
type FocusPlane struct{ Cursor Cursor }
type HoverPlane struct{ Cursor Cursor }
type LeavePlane struct{}
type FocusTab struct{ Cursor Cursor }
type HoverTab struct{ Cursor Cursor }
type LeaveTab struct{}

// KeyToggle re-delivers the last cursor with changed modifier state.
type KeyToggle struct{ Meta, Shift bool }

// Cursor is one pointer sample in canvas cell coordinates.
type Cursor struct {
	X, Y  int
	Left  bool
	Meta  bool
	Shift bool
}

func (Frame) appEvent()             {}
func (Resize) appEvent()            {}
func (KeyPress) appEvent()          {}
func (StartPlay) appEvent()         {}
func (StopPlay) appEvent()          {}
func (AudioStarted) appEvent()      {}
func (SetBlockType) appEvent()      {}
func (Volume) appEvent()            {}
func (Attack) appEvent()            {}
func (Decay) appEvent()             {}
func (Sustain) appEvent()           {}
func (Release) appEvent()           {}
func (RepCount) appEvent()          {}
func (Speed) appEvent()             {}
func (Duration) appEvent()          {}
func (MasterGain) appEvent()        {}
func (Snap) appEvent()              {}
func (Bps) appEvent()               {}
func (AddInput) appEvent()          {}
func (SelectInput) appEvent()       {}
func (Undo) appEvent()              {}
func (Redo) appEvent()              {}
func (OpenPopup) appEvent()         {}
func (ClosePopup) appEvent()        {}
func (RedrawEditorPlane) appEvent() {}
func (SetTab) appEvent()            {}
func (SetHint) appEvent()           {}
func (FetchHint) appEvent()         {}
func (FocusPlane) appEvent()        {}
func (HoverPlane) appEvent()        {}
func (LeavePlane) appEvent()        {}
func (FocusTab) appEvent()          {}
func (HoverTab) appEvent()          {}
func (LeaveTab) appEvent()          {}
func (KeyToggle) appEvent()         {}
