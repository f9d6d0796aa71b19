package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/schvv31n/wavexp/internal/app"
	"github.com/schvv31n/wavexp/internal/audiograph"
	"github.com/schvv31n/wavexp/internal/types"
)

// LoadWAV decodes a WAV file into an audio input. This is the only async
// boundary of the workstation: callers run it off the UI goroutine and
// deliver the result through an AddInput event.
func LoadWAV(path string, ctx *app.Context) (*types.AudioInput, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%s is not a decodable WAV file", path)
	}
	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}

	buffer, err := bufferFromPCM(pcm, ctx.Graph)
	if err != nil {
		return nil, fmt.Errorf("converting %s: %w", path, err)
	}
	name := fmt.Sprintf("File %q", filepath.Base(path))
	return types.NewAudioInput(name, path, ctx.Graph, buffer)
}

// bufferFromPCM converts a decoded integer PCM buffer into the graph's
// float32 layout, scaling to [-1, 1].
func bufferFromPCM(pcm *audio.IntBuffer, g audiograph.Graph) (*audiograph.Buffer, error) {
	channels := pcm.Format.NumChannels
	if channels <= 0 {
		return nil, fmt.Errorf("invalid channel count %d", channels)
	}
	frames := len(pcm.Data) / channels
	buffer, err := g.CreateBuffer(channels, frames, float64(pcm.Format.SampleRate))
	if err != nil {
		return nil, err
	}
	bitDepth := pcm.SourceBitDepth
	if bitDepth <= 0 || bitDepth > 32 {
		bitDepth = 16
	}
	scale := float32(int64(1) << (bitDepth - 1))
	for ch := 0; ch < channels; ch++ {
		data, err := buffer.ChannelData(ch)
		if err != nil {
			return nil, err
		}
		for i := 0; i < frames; i++ {
			data[i] = float32(pcm.Data[i*channels+ch]) / scale
		}
	}
	return buffer, nil
}
