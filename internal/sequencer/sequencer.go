package sequencer

import (
	"fmt"
	"sort"

	"github.com/schvv31n/wavexp/internal/app"
	"github.com/schvv31n/wavexp/internal/audiograph"
	"github.com/schvv31n/wavexp/internal/editor"
	"github.com/schvv31n/wavexp/internal/sound"
	"github.com/schvv31n/wavexp/internal/types"
)

// Sequencer owns the master output chain
//
//	block sum -> compressor(ratio 20, release 1s) -> gain(0.2) -> analyser -> destination
//
// and a priority queue of pending sound events drained against the playback
// clock every frame.
type Sequencer struct {
	graph    audiograph.Graph
	pattern  *editor.GraphEditor[SoundBlock]
	pending  []sound.Event
	plug     audiograph.CompressorNode
	gain     audiograph.GainNode
	analyser audiograph.AnalyserNode

	playing    bool
	usedToPlay bool
	pb         app.PlaybackState
	bps        float64
	preview    audiograph.BufferSourceNode
}

const (
	compressorRatio   = 20
	compressorRelease = 1.0
	defaultMasterGain = 0.2
)

func New(ctx *app.Context) (*Sequencer, error) {
	s := &Sequencer{graph: ctx.Graph, bps: ctx.Bps}
	s.pattern = editor.NewGraphEditor(ctx, s.blockTraits(), nil)

	plug, err := newPlug(ctx.Graph)
	if err != nil {
		return nil, err
	}
	gain, err := ctx.Graph.CreateGain()
	if err != nil {
		return nil, err
	}
	gain.Gain().SetValue(defaultMasterGain)
	analyser, err := ctx.Graph.CreateAnalyser()
	if err != nil {
		return nil, err
	}
	if _, err := plug.Connect(gain); err != nil {
		return nil, err
	}
	if _, err := gain.Connect(analyser); err != nil {
		return nil, err
	}
	if _, err := analyser.Connect(ctx.Graph.Destination()); err != nil {
		return nil, err
	}
	s.plug, s.gain, s.analyser = plug, gain, analyser
	return s, nil
}

func newPlug(g audiograph.Graph) (audiograph.CompressorNode, error) {
	plug, err := g.CreateCompressor()
	if err != nil {
		return nil, err
	}
	plug.Ratio().SetValue(compressorRatio)
	plug.Release().SetValue(compressorRelease)
	return plug, nil
}

func (s *Sequencer) Pattern() *editor.GraphEditor[SoundBlock] { return s.pattern }

func (s *Sequencer) Playing() bool { return s.playing }

// PlaybackCtx is the externally visible playback context; editors use it to
// draw their playback cursors.
func (s *Sequencer) PlaybackCtx() app.PlaybackState { return s.pb }

// MasterGain is the current master output level.
func (s *Sequencer) MasterGain() float64 { return s.gain.Gain().Value() }

// Plug is the node sounds connect into: the head of the master chain.
func (s *Sequencer) Plug() audiograph.CompressorNode { return s.plug }

// Analyser exposes the spectrum node for the visualiser.
func (s *Sequencer) Analyser() audiograph.AnalyserNode { return s.analyser }

// Pending exposes the scheduled event queue, ordered by due time.
func (s *Sequencer) Pending() []sound.Event { return s.pending }

// Selected returns the single selected block, if exactly one is selected.
func (s *Sequencer) Selected() (int, *SoundBlock, bool) {
	sel := s.pattern.Selection()
	if len(sel) != 1 {
		return -1, nil, false
	}
	block, err := s.pattern.GetMut(sel[0])
	if err != nil {
		return -1, nil, false
	}
	return sel[0], block, true
}

// pushSorted inserts ev keeping the queue ordered by due time, ties broken by
// target id, equal keys FIFO.
func (s *Sequencer) pushSorted(ev sound.Event) {
	idx := sort.Search(len(s.pending), func(i int) bool {
		if s.pending[i].When() != ev.When() {
			return s.pending[i].When() > ev.When()
		}
		return s.pending[i].Target() > ev.Target()
	})
	s.pending = append(s.pending, ev)
	copy(s.pending[idx+1:], s.pending[idx:])
	s.pending[idx] = ev
}

// HandleEvent processes one broadcast event. Pointer events here address the
// top-level plane; tab pointer events are routed to the active sound by the
// owner.
func (s *Sequencer) HandleEvent(event app.Event, ctx *app.Context) error {
	s.bps = ctx.Bps
	switch e := event.(type) {
	case app.StartPlay:
		if e.Input != nil {
			return s.startInputPreview(e.Input, ctx)
		}
		return s.startPlay(ctx)

	case app.StopPlay:
		return s.stopPlay(ctx)

	case app.MasterGain:
		ctx.RegisterAction(app.SetMasterGainAction{From: s.gain.Gain().Value(), To: e.Value})
		s.gain.Gain().SetValue(e.Value)

	case app.Frame:
		return s.frame(ctx)

	case app.FocusPlane:
		s.pattern.Hover(&e.Cursor, ctx, nil)
	case app.HoverPlane:
		s.pattern.Hover(&e.Cursor, ctx, nil)
	case app.LeavePlane:
		s.pattern.Hover(nil, ctx, nil)

	case app.SetBlockType:
		if _, block, ok := s.Selected(); ok {
			if block.Sound.Type() == e.Type {
				break
			}
			from := block.Sound.Type()
			snd, err := sound.New(e.Type, ctx)
			if err != nil {
				return err
			}
			block.Sound = snd
			ctx.RegisterAction(app.SetBlockTypeAction{From: from, To: e.Type})
			ctx.EmitEvent(app.RedrawEditorPlane{})
		}

	case app.Undo:
		for i := len(e.Actions) - 1; i >= 0; i-- {
			switch a := e.Actions[i].(type) {
			case app.SetMasterGainAction:
				s.gain.Gain().SetValue(a.From)
			case app.SetBlockTypeAction:
				s.rebuildSelectedSound(a.From, ctx)
			}
		}
		s.pattern.HandleEvent(event, ctx, nil)

	case app.Redo:
		for _, action := range e.Actions {
			switch a := action.(type) {
			case app.SetMasterGainAction:
				s.gain.Gain().SetValue(a.To)
			case app.SetBlockTypeAction:
				s.rebuildSelectedSound(a.To, ctx)
			}
		}
		s.pattern.HandleEvent(event, ctx, nil)

	default:
		s.pattern.HandleEvent(event, ctx, nil)
	}
	return nil
}

// ForwardToActive routes an event to the selected block's sound.
func (s *Sequencer) ForwardToActive(event app.Event, ctx *app.Context) {
	_, block, ok := s.Selected()
	if !ok {
		return
	}
	block.Sound.HandleEvent(event, ctx, s.pb, block.Offset)
}

// rebuildSelectedSound is the undo/redo replay of a block-type change: the
// selected block gets a fresh sound of the recorded type. Both directions run
// here so the transition never depends on the outgoing variant.
func (s *Sequencer) rebuildSelectedSound(t types.SoundType, ctx *app.Context) {
	_, block, ok := s.Selected()
	if !ok {
		return
	}
	if block.Sound.Type() == t {
		return
	}
	snd, err := sound.New(t, ctx)
	if err != nil {
		ctx.ReportError(err)
		return
	}
	block.Sound = snd
	ctx.EmitEvent(app.RedrawEditorPlane{})
}

// startPlay resets every sound and collects their initial events; the clock
// anchors on the first frame that advances playback.
func (s *Sequencer) startPlay(ctx *app.Context) error {
	s.pending = s.pending[:0]
	data := s.pattern.Data()
	for id := range data {
		block := &data[id]
		if err := block.Sound.Prepare(ctx.Graph, ctx.Bps); err != nil {
			ctx.ReportError(fmt.Errorf("preparing block %d: %w", id, err))
			continue
		}
		if err := block.Sound.Reset(ctx, id, block.Offset, s.pushSorted); err != nil {
			ctx.ReportError(fmt.Errorf("resetting block %d: %w", id, err))
		}
	}
	s.playing = true
	s.usedToPlay = false
	return nil
}

func (s *Sequencer) startInputPreview(input *types.AudioInput, ctx *app.Context) error {
	if err := input.Bake(ctx.Graph, ctx.Bps); err != nil {
		return err
	}
	src, err := ctx.Graph.CreateBufferSource()
	if err != nil {
		return err
	}
	src.SetBuffer(input.Baked())
	if _, err := src.Connect(s.plug); err != nil {
		return err
	}
	now := ctx.Graph.Now()
	if err := src.Start(now); err != nil {
		return err
	}
	if err := src.Stop(now + input.Baked().Duration()); err != nil {
		return err
	}
	src.SetOnEnded(func() { _ = src.Disconnect() })
	s.preview = src
	s.pb = app.PlaybackState{Kind: app.PlaybackInput, Start: ctx.Now, Input: input}
	return nil
}

// stopPlay is immediate and complete: the queue is cleared and the plug and
// master gain are replaced, so no scheduled automation on the old chain
// reaches the output. The new gain keeps the current master level.
func (s *Sequencer) stopPlay(ctx *app.Context) error {
	s.pending = s.pending[:0]
	if err := s.plug.Disconnect(); err != nil {
		return err
	}
	if err := s.gain.Disconnect(); err != nil {
		return err
	}
	plug, err := newPlug(ctx.Graph)
	if err != nil {
		return err
	}
	gain, err := ctx.Graph.CreateGain()
	if err != nil {
		return err
	}
	gain.Gain().SetValue(s.gain.Gain().Value())
	if _, err := plug.Connect(gain); err != nil {
		return err
	}
	if _, err := gain.Connect(s.analyser); err != nil {
		return err
	}
	s.plug, s.gain = plug, gain
	s.preview = nil
	s.playing = false
	s.usedToPlay = false
	s.pb = app.PlaybackState{}
	s.pattern.ForceRedraw()
	return nil
}

// frame drains all events due at the current playback clock. Events produced
// by a poll that are already due are processed in FIFO order before control
// returns; future ones go back into the queue.
func (s *Sequencer) frame(ctx *app.Context) error {
	if !s.playing {
		return nil
	}
	if !s.usedToPlay {
		// The clock anchors here, so the first frame's playback position is
		// exactly zero beats.
		s.usedToPlay = true
		ctx.PlaySince = ctx.Now
		s.pb = app.PlaybackState{Kind: app.PlaybackAll, Start: ctx.Now}
		s.pattern.ForceRedraw()
		ctx.EmitEvent(app.AudioStarted{At: ctx.Now})
	}
	now := (ctx.Now - ctx.PlaySince).ToBeats(ctx.Bps)

	nDue := sort.Search(len(s.pending), func(i int) bool { return s.pending[i].When() > now })
	if nDue == 0 {
		return nil
	}
	due := make([]sound.Event, nDue)
	copy(due, s.pending)
	s.pending = s.pending[:copy(s.pending, s.pending[nDue:])]

	for _, ev := range due {
		id := ev.Target()
		block, err := s.pattern.GetMut(id)
		if err != nil {
			ctx.ReportError(err)
			continue
		}
		dueNow := []sound.Event{ev}
		for len(dueNow) > 0 {
			batch := dueNow
			dueNow = nil
			for _, cur := range batch {
				err := block.Sound.Poll(s.plug, ctx, cur, func(next sound.Event) {
					if next.When() > now {
						s.pushSorted(next)
					} else {
						dueNow = append(dueNow, next)
					}
				})
				if err != nil {
					// The responsible event is dropped, the rest of the
					// queue continues.
					ctx.ReportError(err)
				}
			}
		}
	}
	return nil
}
