package sound

import (
	"fmt"

	"github.com/schvv31n/wavexp/internal/app"
	"github.com/schvv31n/wavexp/internal/audiograph"
	"github.com/schvv31n/wavexp/internal/music"
	"github.com/schvv31n/wavexp/internal/types"
)

// Sound is one variant of a sound block's audio behaviour. A sound
// exclusively owns its nested pattern editor, if it has one.
type Sound interface {
	Type() types.SoundType
	Name() string
	// Tabs lists the parameter tabs the sound exposes, in display order.
	Tabs() []string
	// Prepare runs before playback starts; custom sounds bake their input.
	Prepare(g audiograph.Graph, bps float64) error
	// Reset clears playback state and schedules the sound's initial events.
	Reset(ctx *app.Context, id int, offset music.Beats, schedule func(Event)) error
	// Poll handles one due event; it may schedule both immediate and future
	// follow-ups.
	Poll(plug audiograph.Node, ctx *app.Context, ev Event, schedule func(Event)) error
	// Len is the length of one pattern pass in beats.
	Len(bps float64) music.Beats
	RepCount() uint32
	// HandleEvent consumes the app events the sound owns. Block-type
	// transitions (and their undo/redo) are the owning sequencer's job, not
	// the variant's.
	HandleEvent(event app.Event, ctx *app.Context, pb app.PlaybackState, offset music.Beats)
}

// New builds a fresh sound of the requested type with default parameters.
func New(t types.SoundType, ctx *app.Context) (Sound, error) {
	switch t {
	case types.SoundNone:
		return NoneSound{}, nil
	case types.SoundNote:
		return NewNoteSound(ctx), nil
	case types.SoundNoise:
		return NewNoiseSound(ctx)
	case types.SoundCustom:
		return NewCustomSound(ctx), nil
	default:
		return nil, fmt.Errorf("unknown sound type %d", t)
	}
}

// NoneSound is the placeholder an undefined block carries; it makes no audio
// and its editor row is one beat long purely as a visual placeholder.
type NoneSound struct{}

func (NoneSound) Type() types.SoundType { return types.SoundNone }
func (NoneSound) Name() string          { return types.SoundNone.Name() }
func (NoneSound) Tabs() []string        { return []string{"Choose Sound Type"} }

func (NoneSound) Prepare(audiograph.Graph, float64) error { return nil }

func (NoneSound) Reset(*app.Context, int, music.Beats, func(Event)) error { return nil }

func (NoneSound) Poll(audiograph.Node, *app.Context, Event, func(Event)) error { return nil }

func (NoneSound) Len(float64) music.Beats { return 1 }

func (NoneSound) RepCount() uint32 { return 1 }

func (NoneSound) HandleEvent(app.Event, *app.Context, app.PlaybackState, music.Beats) {}

// invalidEvent is the shared logic-failure report for events a sound cannot
// be in a state to receive.
func invalidEvent(name string, ev Event) error {
	return fmt.Errorf("%s: unexpected event %T at beat %f", name, ev, float64(ev.When()))
}
