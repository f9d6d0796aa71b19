package audiograph

import "fmt"

// Buffer holds decoded PCM, one float32 slice per channel. All channels have
// the same length.
type Buffer struct {
	sampleRate float64
	data       [][]float32
}

func NewBuffer(channels, length int, sampleRate float64) (*Buffer, error) {
	if channels <= 0 || length < 0 || sampleRate <= 0 {
		return nil, fmt.Errorf("invalid buffer shape: %d channels, %d frames, %f Hz", channels, length, sampleRate)
	}
	data := make([][]float32, channels)
	for i := range data {
		data[i] = make([]float32, length)
	}
	return &Buffer{sampleRate: sampleRate, data: data}, nil
}

func (b *Buffer) NumberOfChannels() int { return len(b.data) }

func (b *Buffer) Length() int {
	if len(b.data) == 0 {
		return 0
	}
	return len(b.data[0])
}

func (b *Buffer) SampleRate() float64 { return b.sampleRate }

// Duration is the buffer length in seconds.
func (b *Buffer) Duration() float64 {
	return float64(b.Length()) / b.sampleRate
}

// ChannelData returns the backing slice for channel i; mutations are visible
// to every holder of the buffer.
func (b *Buffer) ChannelData(i int) ([]float32, error) {
	if i < 0 || i >= len(b.data) {
		return nil, fmt.Errorf("channel %d out of range (buffer has %d)", i, len(b.data))
	}
	return b.data[i], nil
}

// CopyToChannel writes src into channel i starting at frame 0. Excess source
// frames are dropped, a short source leaves the tail untouched.
func (b *Buffer) CopyToChannel(src []float32, i int) error {
	dst, err := b.ChannelData(i)
	if err != nil {
		return err
	}
	copy(dst, src)
	return nil
}
