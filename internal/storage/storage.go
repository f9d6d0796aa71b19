// Package storage persists the arrangement to a gzipped JSON file and loads
// audio inputs from WAV files. Decoded PCM is never persisted: inputs are
// saved as their file path plus pending changes and re-decoded on load.
package storage

import (
	"compress/gzip"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/schvv31n/wavexp/internal/app"
	"github.com/schvv31n/wavexp/internal/music"
	"github.com/schvv31n/wavexp/internal/sequencer"
	"github.com/schvv31n/wavexp/internal/sound"
	"github.com/schvv31n/wavexp/internal/types"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	mu           sync.Mutex
	timer        *time.Timer
	debounceTime = 1 * time.Second
)

// SaveData is the wire format of one project file.
type SaveData struct {
	Bps        float64     `json:"bps"`
	MasterGain float64     `json:"masterGain"`
	Snap       music.Beats `json:"snap"`
	Inputs     []InputData `json:"inputs"`
	Blocks     []BlockData `json:"blocks"`
}

type InputData struct {
	Name    string                  `json:"name"`
	Path    string                  `json:"path"`
	Changes types.AudioInputChanges `json:"changes"`
}

type BlockData struct {
	Layer  int         `json:"layer"`
	Offset music.Beats `json:"offset"`
	Sound  SoundData   `json:"sound"`
}

type SoundData struct {
	Type    types.SoundType     `json:"type"`
	Volume  float64             `json:"volume,omitempty"`
	Attack  music.Beats         `json:"attack,omitempty"`
	Decay   music.Beats         `json:"decay,omitempty"`
	Sustain float64             `json:"sustain,omitempty"`
	Release music.Beats         `json:"release,omitempty"`
	Reps    uint32              `json:"reps,omitempty"`
	Speed   float64             `json:"speed,omitempty"`
	Dur     music.Beats         `json:"dur,omitempty"`
	Input   int                 `json:"input"` // index into Inputs, -1 for none
	Notes   []types.NoteBlock   `json:"notes,omitempty"`
	Customs []types.CustomBlock `json:"customs,omitempty"`
}

// Snapshot flattens the live arrangement into its wire format.
func Snapshot(seq *sequencer.Sequencer, inputs []*types.AudioInput, bps float64, snap music.Beats) SaveData {
	data := SaveData{Bps: bps, MasterGain: seq.MasterGain(), Snap: snap}
	for _, in := range inputs {
		data.Inputs = append(data.Inputs, InputData{Name: in.Name(), Path: in.Path(), Changes: in.Changes()})
	}
	inputIdx := func(in *types.AudioInput) int {
		for i, candidate := range inputs {
			if candidate == in {
				return i
			}
		}
		return -1
	}
	for i := range seq.Pattern().Data() {
		block := &seq.Pattern().Data()[i]
		bd := BlockData{Layer: block.Layer, Offset: block.Offset, Sound: SoundData{Type: block.Sound.Type(), Input: -1}}
		switch s := block.Sound.(type) {
		case *sound.NoteSound:
			bd.Sound.Volume = s.Volume
			bd.Sound.Attack = s.Attack
			bd.Sound.Decay = s.Decay
			bd.Sound.Sustain = s.Sustain
			bd.Sound.Release = s.Release
			bd.Sound.Reps = s.Reps
			bd.Sound.Notes = append([]types.NoteBlock(nil), s.Pattern.Data()...)
		case *sound.NoiseSound:
			bd.Sound.Volume = s.Volume()
			bd.Sound.Dur = s.Dur
			bd.Sound.Reps = s.Reps
		case *sound.CustomSound:
			bd.Sound.Volume = s.Volume
			bd.Sound.Attack = s.Attack
			bd.Sound.Decay = s.Decay
			bd.Sound.Sustain = s.Sustain
			bd.Sound.Release = s.Release
			bd.Sound.Reps = s.Reps
			bd.Sound.Speed = s.Speed
			bd.Sound.Input = inputIdx(s.Src)
			bd.Sound.Customs = append([]types.CustomBlock(nil), s.Pattern.Data()...)
		}
		data.Blocks = append(data.Blocks, bd)
	}
	return data
}

// DoSave writes the project file immediately.
func DoSave(path string, data SaveData) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating save dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating save file: %w", err)
	}
	defer f.Close()
	zw := gzip.NewWriter(f)
	if err := json.NewEncoder(zw).Encode(data); err != nil {
		zw.Close()
		return fmt.Errorf("encoding save data: %w", err)
	}
	return zw.Close()
}

// AutoSave schedules a debounced save; rapid edits collapse into one write.
func AutoSave(path string, snapshot func() SaveData) {
	mu.Lock()
	defer mu.Unlock()
	if timer != nil {
		timer.Stop()
	}
	timer = time.AfterFunc(debounceTime, func() {
		start := time.Now()
		if err := DoSave(path, snapshot()); err != nil {
			log.Printf("autosave failed: %v", err)
			return
		}
		log.Printf("autosaved in %d ms", time.Since(start).Milliseconds())
	})
}

// LoadFile reads a project file back into its wire format.
func LoadFile(path string) (SaveData, error) {
	var data SaveData
	f, err := os.Open(path)
	if err != nil {
		return data, err
	}
	defer f.Close()
	zr, err := gzip.NewReader(f)
	if err != nil {
		return data, fmt.Errorf("reading save file: %w", err)
	}
	defer zr.Close()
	if err := json.NewDecoder(zr).Decode(&data); err != nil {
		return data, fmt.Errorf("decoding save data: %w", err)
	}
	return data, nil
}

// Restore rebuilds the live arrangement from its wire format. Inputs that
// fail to decode are skipped with a log line; blocks referencing them lose
// their source.
func Restore(data SaveData, seq *sequencer.Sequencer, ctx *app.Context) (inputs []*types.AudioInput, err error) {
	loaded := make([]*types.AudioInput, len(data.Inputs))
	for i, id := range data.Inputs {
		in, err := LoadWAV(id.Path, ctx)
		if err != nil {
			log.Printf("skipping input %q: %v", id.Name, err)
			continue
		}
		in.SetName(id.Name)
		*in.ChangesMut() = id.Changes
		loaded[i] = in
		inputs = append(inputs, in)
	}

	blocks := make([]sequencer.SoundBlock, 0, len(data.Blocks))
	for _, bd := range data.Blocks {
		snd, err := restoreSound(bd.Sound, loaded, ctx)
		if err != nil {
			return inputs, err
		}
		blocks = append(blocks, sequencer.SoundBlock{Sound: snd, Layer: bd.Layer, Offset: bd.Offset})
	}
	seq.Pattern().SetData(blocks)
	return inputs, nil
}

func restoreSound(sd SoundData, inputs []*types.AudioInput, ctx *app.Context) (sound.Sound, error) {
	snd, err := sound.New(sd.Type, ctx)
	if err != nil {
		return nil, err
	}
	switch s := snd.(type) {
	case *sound.NoteSound:
		s.Volume = sd.Volume
		s.Attack = sd.Attack
		s.Decay = sd.Decay
		s.Sustain = sd.Sustain
		s.Release = sd.Release
		s.Reps = defaultReps(sd.Reps)
		s.Pattern.SetData(sd.Notes)
	case *sound.NoiseSound:
		s.SetVolume(sd.Volume)
		s.Dur = sd.Dur
		s.Reps = defaultReps(sd.Reps)
	case *sound.CustomSound:
		s.Volume = sd.Volume
		s.Attack = sd.Attack
		s.Decay = sd.Decay
		s.Sustain = sd.Sustain
		s.Release = sd.Release
		s.Reps = defaultReps(sd.Reps)
		if sd.Speed > 0 {
			s.Speed = sd.Speed
		}
		if sd.Input >= 0 && sd.Input < len(inputs) {
			s.Src = inputs[sd.Input]
		}
		s.Pattern.SetData(sd.Customs)
	}
	return snd, nil
}

func defaultReps(r uint32) uint32 {
	if r == 0 {
		return 1
	}
	return r
}
