// Package oscgraph implements the audio graph over OSC: every node creation,
// connection and parameter automation is forwarded as an OSC message to a
// synthesis server (SuperCollider with the workstation synthdefs loaded).
// Buffers stay client-side; a buffer source is sent its buffer's length and
// sample rate, not a buffer id. File-backed inputs are announced with their
// path, under a buffer id, so the server can load them directly.
package oscgraph

import (
	"fmt"
	"sort"
	"time"

	"github.com/hypebeast/go-osc/osc"

	"github.com/schvv31n/wavexp/internal/audiograph"
)

type Graph struct {
	client     *osc.Client
	sampleRate float64
	started    time.Time
	nextID     int
	nextBufID  int
	dest       *node
	ended      []*endedEntry
}

type endedEntry struct {
	at    float64
	fired bool
	cb    func()
}

func New(host string, port int, sampleRate float64) *Graph {
	g := &Graph{
		client:     osc.NewClient(host, port),
		sampleRate: sampleRate,
		started:    time.Now(),
	}
	g.dest = g.newNode("destination")
	return g
}

func (g *Graph) Now() float64 {
	return time.Since(g.started).Seconds()
}

func (g *Graph) SampleRate() float64 { return g.sampleRate }

// FireDueEnded runs the "ended" callbacks of every source whose stop time has
// passed. The host calls this once per frame so callbacks stay on the UI
// goroutine.
func (g *Graph) FireDueEnded() {
	now := g.Now()
	for _, e := range g.ended {
		if !e.fired && e.at <= now && e.cb != nil {
			e.fired = true
			e.cb()
		}
	}
}

func (g *Graph) send(addr string, args ...interface{}) {
	msg := osc.NewMessage(addr)
	for _, a := range args {
		msg.Append(a)
	}
	// A lost message is an audio glitch, not a fatal error.
	_ = g.client.Send(msg)
}

func (g *Graph) newNode(kind string) *node {
	n := &node{graph: g, id: g.nextID, kind: kind}
	g.nextID++
	g.send("/node/new", int32(n.id), kind)
	return n
}

func (g *Graph) CreateGain() (audiograph.GainNode, error) {
	n := g.newNode("gain")
	return &gainNode{node: n, gain: n.param("gain", 1)}, nil
}

func (g *Graph) CreateOscillator() (audiograph.OscillatorNode, error) {
	n := g.newNode("oscillator")
	return &oscillatorNode{node: n, freq: n.param("frequency", 440)}, nil
}

func (g *Graph) CreateBufferSource() (audiograph.BufferSourceNode, error) {
	n := g.newNode("bufferSource")
	return &bufferSourceNode{node: n, rate: n.param("playbackRate", 1)}, nil
}

func (g *Graph) CreateCompressor() (audiograph.CompressorNode, error) {
	n := g.newNode("compressor")
	return &compressorNode{node: n, ratio: n.param("ratio", 12), release: n.param("release", 0.25)}, nil
}

func (g *Graph) CreateAnalyser() (audiograph.AnalyserNode, error) {
	return &analyserNode{node: g.newNode("analyser")}, nil
}

func (g *Graph) CreateBuffer(channels, length int, sampleRate float64) (*audiograph.Buffer, error) {
	return audiograph.NewBuffer(channels, length, sampleRate)
}

func (g *Graph) Destination() audiograph.Node { return g.dest }

// AnnounceBufferFile tells the server to load an audio file so that buffer
// ids referencing it resolve server-side. Returns the buffer id.
func (g *Graph) AnnounceBufferFile(path string) int {
	id := g.nextBufID
	g.nextBufID++
	g.send("/buffer/read", int32(id), path)
	return id
}

type node struct {
	graph *Graph
	id    int
	kind  string
}

func (n *node) ID() int { return n.id }

func (n *node) Connect(dst audiograph.Node) (audiograph.Node, error) {
	n.graph.send("/node/connect", int32(n.id), int32(dst.ID()))
	return dst, nil
}

func (n *node) Disconnect() error {
	n.graph.send("/node/disconnect", int32(n.id))
	return nil
}

func (n *node) param(name string, initial float64) *param {
	return &param{node: n, name: name, value: initial}
}

type param struct {
	node  *node
	name  string
	value float64
}

func (p *param) Value() float64 { return p.value }

func (p *param) SetValue(v float64) {
	p.value = v
	p.node.graph.send("/node/set", int32(p.node.id), p.name, float32(v))
}

func (p *param) SetValueAtTime(v, at float64) error {
	if at < 0 {
		return fmt.Errorf("%s#%d.%s: negative schedule time %f", p.node.kind, p.node.id, p.name, at)
	}
	p.value = v
	p.node.graph.send("/node/set_at", int32(p.node.id), p.name, float32(v), float32(at))
	return nil
}

func (p *param) LinearRampToValueAtTime(v, at float64) error {
	if at < 0 {
		return fmt.Errorf("%s#%d.%s: negative ramp time %f", p.node.kind, p.node.id, p.name, at)
	}
	p.value = v
	p.node.graph.send("/node/ramp", int32(p.node.id), p.name, float32(v), float32(at))
	return nil
}

type source struct {
	ended *endedEntry
}

func (s *source) start(n *node, at float64) error {
	n.graph.send("/node/start", int32(n.id), float32(at))
	return nil
}

func (s *source) stop(n *node, at float64) error {
	n.graph.send("/node/stop", int32(n.id), float32(at))
	if s.ended == nil {
		s.ended = &endedEntry{}
		n.graph.ended = append(n.graph.ended, s.ended)
	}
	s.ended.at = at
	return nil
}

func (s *source) onEnded(n *node, cb func()) {
	if s.ended == nil {
		s.ended = &endedEntry{at: maxFloat}
		n.graph.ended = append(n.graph.ended, s.ended)
	}
	s.ended.cb = cb
}

const maxFloat = 1e300

type gainNode struct {
	*node
	gain *param
}

func (n *gainNode) Gain() audiograph.Param { return n.gain }

type oscillatorNode struct {
	*node
	source
	freq *param
}

func (n *oscillatorNode) Frequency() audiograph.Param { return n.freq }
func (n *oscillatorNode) Start(at float64) error      { return n.start(n.node, at) }
func (n *oscillatorNode) Stop(at float64) error       { return n.stop(n.node, at) }
func (n *oscillatorNode) SetOnEnded(cb func())        { n.onEnded(n.node, cb) }

type bufferSourceNode struct {
	*node
	source
	rate *param
}

func (n *bufferSourceNode) SetBuffer(b *audiograph.Buffer) {
	// Only the buffer's length and sample rate are sent; the PCM samples of
	// client-side buffers (noise, baked inputs) are not transmitted.
	n.graph.send("/node/buffer", int32(n.id), int32(b.Length()), float32(b.SampleRate()))
}

func (n *bufferSourceNode) PlaybackRate() audiograph.Param { return n.rate }

func (n *bufferSourceNode) SetLoop(loop bool) {
	v := int32(0)
	if loop {
		v = 1
	}
	n.graph.send("/node/loop", int32(n.id), v)
}

func (n *bufferSourceNode) Start(at float64) error { return n.start(n.node, at) }
func (n *bufferSourceNode) Stop(at float64) error  { return n.stop(n.node, at) }
func (n *bufferSourceNode) SetOnEnded(cb func())   { n.onEnded(n.node, cb) }

type compressorNode struct {
	*node
	ratio   *param
	release *param
}

func (n *compressorNode) Ratio() audiograph.Param   { return n.ratio }
func (n *compressorNode) Release() audiograph.Param { return n.release }

type analyserNode struct {
	*node
	spectrum []byte
}

// UpdateSpectrum stores the latest spectrum frame received over OSC.
func (n *analyserNode) UpdateSpectrum(bins []byte) {
	n.spectrum = append(n.spectrum[:0], bins...)
}

func (n *analyserNode) ByteFrequencyData(buf []byte) {
	copy(buf, n.spectrum)
	for i := len(n.spectrum); i < len(buf); i++ {
		buf[i] = 0
	}
}

// Prune drops fired ended-entries; called occasionally to bound memory.
func (g *Graph) Prune() {
	live := g.ended[:0]
	for _, e := range g.ended {
		if !e.fired {
			live = append(live, e)
		}
	}
	g.ended = live
	sort.Slice(g.ended, func(i, j int) bool { return g.ended[i].at < g.ended[j].at })
}
