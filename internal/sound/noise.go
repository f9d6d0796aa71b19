package sound

import (
	"math/rand"

	"github.com/schvv31n/wavexp/internal/app"
	"github.com/schvv31n/wavexp/internal/audiograph"
	"github.com/schvv31n/wavexp/internal/music"
	"github.com/schvv31n/wavexp/internal/types"
)

// NoiseSound loops a one-second white-noise buffer through a persistent gain
// node for a configurable number of beats.
type NoiseSound struct {
	gen  audiograph.BufferSourceNode
	src  *audiograph.Buffer
	gain audiograph.GainNode

	// Dur is the playback length of one repetition in beats.
	Dur  music.Beats
	Reps uint32
}

func NewNoiseSound(ctx *app.Context) (*NoiseSound, error) {
	g := ctx.Graph
	rate := g.SampleRate()
	frames := int(rate)
	src, err := g.CreateBuffer(types.ChannelCount, frames, rate)
	if err != nil {
		return nil, err
	}
	samples := make([]float32, frames)
	for i := range samples {
		samples[i] = rand.Float32()*2 - 1
	}
	for ch := 0; ch < types.ChannelCount; ch++ {
		if err := src.CopyToChannel(samples, ch); err != nil {
			return nil, err
		}
	}
	gain, err := g.CreateGain()
	if err != nil {
		return nil, err
	}
	gain.Gain().SetValue(0.2)
	gen, err := g.CreateBufferSource()
	if err != nil {
		return nil, err
	}
	return &NoiseSound{gen: gen, src: src, gain: gain, Dur: 1, Reps: 1}, nil
}

func (s *NoiseSound) Type() types.SoundType { return types.SoundNoise }
func (s *NoiseSound) Name() string          { return types.SoundNoise.Name() }

func (s *NoiseSound) Tabs() []string { return []string{"General", "Volume"} }

// Volume is the gain of the persistent output node.
func (s *NoiseSound) Volume() float64 { return s.gain.Gain().Value() }

func (s *NoiseSound) SetVolume(v float64) { s.gain.Gain().SetValue(v) }

func (s *NoiseSound) Prepare(audiograph.Graph, float64) error { return nil }

// Reset swaps in a fresh looping source; buffer sources are single-shot, so
// every playback needs a new generator feeding the persistent gain.
func (s *NoiseSound) Reset(ctx *app.Context, id int, offset music.Beats, schedule func(Event)) error {
	if err := s.gen.Disconnect(); err != nil {
		return err
	}
	gen, err := ctx.Graph.CreateBufferSource()
	if err != nil {
		return err
	}
	s.gen = gen
	gen.SetLoop(true)
	gen.SetBuffer(s.src)
	if err := gen.Start(float64(ctx.Graph.Now())); err != nil {
		return err
	}
	if _, err := gen.Connect(s.gain); err != nil {
		return err
	}
	schedule(Start{ID: id, At: offset})
	return nil
}

func (s *NoiseSound) Poll(plug audiograph.Node, _ *app.Context, ev Event, schedule func(Event)) error {
	switch e := ev.(type) {
	case Start:
		if _, err := s.gain.Connect(plug); err != nil {
			return err
		}
		schedule(Stop{ID: e.ID, At: e.At + s.Dur*music.Beats(s.Reps)})
		return nil

	case Stop:
		return s.gain.Disconnect()

	default:
		return invalidEvent(s.Name(), ev)
	}
}

func (s *NoiseSound) Len(float64) music.Beats { return s.Dur }

func (s *NoiseSound) RepCount() uint32 { return s.Reps }

func (s *NoiseSound) HandleEvent(event app.Event, ctx *app.Context, _ app.PlaybackState, _ music.Beats) {
	switch e := event.(type) {
	case app.Volume:
		ctx.RegisterAction(app.SetVolumeAction{From: s.Volume(), To: e.Value})
		s.SetVolume(e.Value)

	case app.Duration:
		ctx.RegisterAction(app.SetDurationAction{From: s.Dur, To: e.Value})
		s.Dur = e.Value
		ctx.EmitEvent(app.RedrawEditorPlane{})

	case app.RepCount:
		ctx.RegisterAction(app.SetRepCountAction{From: s.Reps, To: e.Count})
		s.Reps = e.Count
		ctx.EmitEvent(app.RedrawEditorPlane{})

	case app.Undo:
		for i := len(e.Actions) - 1; i >= 0; i-- {
			switch a := e.Actions[i].(type) {
			case app.SetVolumeAction:
				s.SetVolume(a.From)
			case app.SetDurationAction:
				s.Dur = a.From
				ctx.EmitEvent(app.RedrawEditorPlane{})
			case app.SetRepCountAction:
				s.Reps = a.From
				ctx.EmitEvent(app.RedrawEditorPlane{})
			}
		}

	case app.Redo:
		for _, action := range e.Actions {
			switch a := action.(type) {
			case app.SetVolumeAction:
				s.SetVolume(a.To)
			case app.SetDurationAction:
				s.Dur = a.To
				ctx.EmitEvent(app.RedrawEditorPlane{})
			case app.SetRepCountAction:
				s.Reps = a.To
				ctx.EmitEvent(app.RedrawEditorPlane{})
			}
		}
	}
}
