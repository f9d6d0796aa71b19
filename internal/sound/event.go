// Package sound implements the sound model: the tagged Sound variants, their
// pattern editors and the per-variant scheduling of envelope segments against
// the audio graph.
package sound

import (
	"github.com/schvv31n/wavexp/internal/audiograph"
	"github.com/schvv31n/wavexp/internal/music"
)

// Event is one scheduled sequencer event. When is an offset from the start of
// playback, in beats.
type Event interface {
	Target() int
	When() music.Beats
}

// BlockStart begins the State-th pattern block of the target sound. State
// counts across repetitions: block index = State mod pattern length.
type BlockStart struct {
	ID    int
	At    music.Beats
	State int
}

// BlockEnd tears down the gain node of a finished pattern block.
type BlockEnd struct {
	ID   int
	At   music.Beats
	Gain audiograph.GainNode
}

// Start connects a continuous source (noise) to the plug.
type Start struct {
	ID int
	At music.Beats
}

// Stop disconnects a continuous source.
type Stop struct {
	ID int
	At music.Beats
}

func (e BlockStart) Target() int       { return e.ID }
func (e BlockStart) When() music.Beats { return e.At }
func (e BlockEnd) Target() int         { return e.ID }
func (e BlockEnd) When() music.Beats   { return e.At }
func (e Start) Target() int            { return e.ID }
func (e Start) When() music.Beats      { return e.At }
func (e Stop) Target() int             { return e.ID }
func (e Stop) When() music.Beats       { return e.At }
