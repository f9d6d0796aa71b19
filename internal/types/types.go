// Package types holds the shared data model of the workstation: sound block
// kinds, the pattern point types, and audio inputs with their pending
// transformations.
package types

import (
	"github.com/schvv31n/wavexp/internal/music"
)

// SoundType tags the variant of a sound block.
type SoundType int

const (
	SoundNone SoundType = iota
	SoundNote
	SoundNoise
	SoundCustom
)

// SoundTypes lists every selectable type, in menu order.
var SoundTypes = []SoundType{SoundNote, SoundNoise, SoundCustom}

func (t SoundType) Name() string {
	switch t {
	case SoundNote:
		return "Simple Wave"
	case SoundNoise:
		return "White Noise"
	case SoundCustom:
		return "Custom Audio"
	default:
		return "Undefined"
	}
}

// NoteBlock is one pitched block inside a note pattern, ordered by offset.
type NoteBlock struct {
	Offset music.Beats `json:"offset"`
	Value  music.Note  `json:"value"`
	Len    music.Beats `json:"len"`
}

// CustomBlock is one playback trigger inside a custom-audio pattern, ordered
// by offset. The block has no length of its own: it plays the baked input at
// the pitch-derived rate.
type CustomBlock struct {
	Offset music.Beats `json:"offset"`
	Pitch  music.Note  `json:"pitch"`
}
