// Package music holds the pitch and timing primitives: the 36-note pitch
// range of the workstation and conversions between musical beats and wall
// seconds at a constant tempo.
package music

import (
	"math"
)

// Beats is musical time; the tempo is a single constant beats-per-second
// value, so conversion to seconds is a plain division.
type Beats float64

// Secs is wall-clock time on the audio graph.
type Secs float64

// MSecs is wall-clock time in milliseconds.
type MSecs float64

func (b Beats) ToSecs(bps float64) Secs   { return Secs(float64(b) / bps) }
func (b Beats) ToMSecs(bps float64) MSecs { return MSecs(float64(b) / bps * 1000) }
func (s Secs) ToBeats(bps float64) Beats  { return Beats(float64(s) * bps) }

// Finite reports whether v is a usable real number. NaN and infinities are
// treated as failures throughout the workstation.
func Finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Note is a pitch index into the C2..B4 range.
// Invariant: 0 <= Note <= MaxNote.
type Note uint8

const (
	// NNotes is the number of representable pitches.
	NNotes = 36
	// MaxNote is the highest pitch, B4.
	MaxNote Note = NNotes - 1
	// MidNote is the reference pitch for the pitch coefficient, F#3.
	MidNote Note = NNotes / 2
)

var noteFreqs = [NNotes]float64{
	65.410,  // C2
	69.300,  // C#2
	73.420,  // D2
	77.780,  // D#2
	82.410,  // E2
	87.310,  // F2
	92.500,  // F#2
	98.000,  // G2
	103.83,  // G#2
	110.00,  // A2
	116.54,  // A#2
	123.47,  // B2
	130.81,  // C3
	138.59,  // C#3
	146.83,  // D3
	155.56,  // D#3
	164.81,  // E3
	174.61,  // F3
	185.00,  // F#3
	196.00,  // G3
	207.65,  // G#3
	220.00,  // A3
	233.08,  // A#3
	246.94,  // B3
	261.63,  // C4
	277.18,  // C#4
	293.66,  // D4
	311.13,  // D#4
	329.63,  // E4
	349.23,  // F4
	369.99,  // F#4
	392.00,  // G4
	415.30,  // G#4
	440.00,  // A4
	466.16,  // A#4
	493.88,  // B4
}

var noteNames = [NNotes]string{
	"C2", "C#2", "D2", "D#2", "E2", "F2", "F#2", "G2", "G#2", "A2", "A#2", "B2",
	"C3", "C#3", "D3", "D#3", "E3", "F3", "F#3", "G3", "G#3", "A3", "A#3", "B3",
	"C4", "C#4", "D4", "D#4", "E4", "F4", "F#4", "G4", "G#4", "A4", "A#4", "B4",
}

// NewNote returns the note at index, or false when the index is out of range.
func NewNote(index int) (Note, bool) {
	if index < 0 || index > int(MaxNote) {
		return 0, false
	}
	return Note(index), true
}

// SaturatedNote clamps index into the valid range.
func SaturatedNote(index int) Note {
	if index < 0 {
		return 0
	}
	if index > int(MaxNote) {
		return MaxNote
	}
	return Note(index)
}

func (n Note) Index() int { return int(n) }

func (n Note) Freq() float64 { return noteFreqs[n] }

func (n Note) Name() string { return noteNames[n] }

func (n Note) String() string { return n.Name() }

// Recip mirrors the note around the middle of the range; used to flip between
// editor rows (top row = highest pitch) and pitch indices.
func (n Note) Recip() Note { return MaxNote - n }

// PitchCoef is the playback-rate multiplier for this pitch relative to
// MidNote: one octave up doubles the rate.
func (n Note) PitchCoef() float64 {
	return math.Exp2(float64(int(n)-int(MidNote)) / 12)
}

// Add shifts the note by delta semitones; false when the result would escape
// the range.
func (n Note) Add(delta int) (Note, bool) {
	return NewNote(int(n) + delta)
}

// Sub shifts the note down by delta semitones; false on range escape.
func (n Note) Sub(delta int) (Note, bool) {
	return NewNote(int(n) - delta)
}
