package types

import (
	"fmt"

	"github.com/schvv31n/wavexp/internal/audiograph"
	"github.com/schvv31n/wavexp/internal/music"
)

// ChannelCount is the channel layout every input is normalised to.
const ChannelCount = 2

// AudioInputChanges are the transformations requested on an input but not
// necessarily materialised yet.
type AudioInputChanges struct {
	// Reversed plays the input backwards.
	Reversed bool `json:"reversed"`
	// CutStart drops this many beats from the start.
	CutStart music.Beats `json:"cutStart"`
	// CutEnd drops this many beats from the end.
	CutEnd music.Beats `json:"cutEnd"`
}

// AudioInput is a named, immutable raw PCM buffer plus a baked rendition of
// it with the pending changes applied.
// Invariant: the baked buffer is valid iff pending == baked changes.
type AudioInput struct {
	name        string
	path        string
	raw         *audiograph.Buffer
	rawDuration music.Secs
	pending     AudioInputChanges
	bakedCh     AudioInputChanges
	baked       *audiograph.Buffer
	duration    music.Secs
}

// NewAudioInput wraps a decoded buffer, normalising it to the sequencer's
// channel layout. path may be empty for inputs that did not come from a file.
func NewAudioInput(name, path string, g audiograph.Graph, buffer *audiograph.Buffer) (*AudioInput, error) {
	if buffer.NumberOfChannels() != ChannelCount {
		normalised, err := g.CreateBuffer(ChannelCount, buffer.Length(), buffer.SampleRate())
		if err != nil {
			return nil, fmt.Errorf("normalising %q: %w", name, err)
		}
		main, err := buffer.ChannelData(0)
		if err != nil {
			return nil, err
		}
		for ch := 0; ch < ChannelCount; ch++ {
			if err := normalised.CopyToChannel(main, ch); err != nil {
				return nil, err
			}
		}
		buffer = normalised
	}
	dur := music.Secs(buffer.Duration())
	return &AudioInput{
		name:        name,
		path:        path,
		raw:         buffer,
		rawDuration: dur,
		baked:       buffer,
		duration:    dur,
	}, nil
}

// Name of the input, exists solely for the user's convenience.
func (in *AudioInput) Name() string { return in.name }

// SetName renames the input, returning the old name.
func (in *AudioInput) SetName(name string) string {
	old := in.name
	in.name = name
	return old
}

// Path is the file the input was decoded from, empty if none.
func (in *AudioInput) Path() string { return in.path }

// Raw is the untouched buffer the input was created with.
func (in *AudioInput) Raw() *audiograph.Buffer { return in.raw }

// RawDuration is the duration of the raw buffer.
func (in *AudioInput) RawDuration() music.Secs { return in.rawDuration }

// BakedDuration is the duration of the buffer with all changes applied.
func (in *AudioInput) BakedDuration() music.Secs { return in.duration }

// Changes returns the transformations not yet baked in.
func (in *AudioInput) Changes() AudioInputChanges { return in.pending }

// ChangesMut exposes the pending changes for mutation; call Bake afterwards.
func (in *AudioInput) ChangesMut() *AudioInputChanges { return &in.pending }

// Bake materialises the pending changes. A no-op when nothing changed. On
// failure the input is left unbaked and Baked returns nil until a later Bake
// succeeds.
func (in *AudioInput) Bake(g audiograph.Graph, bps float64) error {
	if in.pending == in.bakedCh {
		return nil
	}
	rate := in.raw.SampleRate()
	cutStart := int(float64(in.pending.CutStart.ToSecs(bps)) * rate)
	cutEnd := int(float64(in.pending.CutEnd.ToSecs(bps)) * rate)
	length := in.raw.Length() - cutStart - cutEnd
	if cutStart < 0 || cutEnd < 0 || length <= 0 {
		return fmt.Errorf("cuts of %q leave no audio (%d frames)", in.name, length)
	}
	baked, err := g.CreateBuffer(ChannelCount, length, rate)
	if err != nil {
		return fmt.Errorf("baking %q: %w", in.name, err)
	}
	for ch := 0; ch < ChannelCount; ch++ {
		src, err := in.raw.ChannelData(ch)
		if err != nil {
			return err
		}
		data := make([]float32, len(src))
		copy(data, src)
		if in.pending.Reversed {
			for i, j := 0, len(data)-1; i < j; i, j = i+1, j-1 {
				data[i], data[j] = data[j], data[i]
			}
		}
		if err := baked.CopyToChannel(data[cutStart:len(data)-cutEnd], ch); err != nil {
			return err
		}
	}
	in.baked = baked
	in.duration = music.Secs(baked.Duration())
	in.bakedCh = in.pending
	return nil
}

// Baked returns the transformed buffer, or nil while changes are pending.
func (in *AudioInput) Baked() *audiograph.Buffer {
	if in.pending != in.bakedCh {
		return nil
	}
	return in.baked
}

// Desc is the human-readable summary shown in input selectors.
func (in *AudioInput) Desc(bps float64) string {
	return fmt.Sprintf("%s, %.2f beats", in.name, float64(in.duration.ToBeats(bps)))
}
