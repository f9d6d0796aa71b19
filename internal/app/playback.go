package app

import (
	"github.com/schvv31n/wavexp/internal/music"
	"github.com/schvv31n/wavexp/internal/types"
)

// PlaybackKind tags what the sequencer is currently playing.
type PlaybackKind int

const (
	PlaybackNone PlaybackKind = iota
	// PlaybackAll plays the whole arrangement.
	PlaybackAll
	// PlaybackInput previews a single audio input.
	PlaybackInput
)

// PlaybackState is the sequencer's externally visible playback context.
// Invariant: a non-None state implies the master chain is connected.
type PlaybackState struct {
	Kind  PlaybackKind
	Start music.Secs
	Input *types.AudioInput
}
