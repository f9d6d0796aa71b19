package audiograph

import (
	"fmt"
	"math"
	"sort"
)

// OpKind tags one recorded graph operation.
type OpKind int

const (
	OpSetValue OpKind = iota
	OpSetValueAtTime
	OpLinearRamp
	OpStart
	OpStop
	OpConnect
	OpDisconnect
)

func (k OpKind) String() string {
	switch k {
	case OpSetValue:
		return "setValue"
	case OpSetValueAtTime:
		return "setValueAtTime"
	case OpLinearRamp:
		return "linearRampToValueAtTime"
	case OpStart:
		return "start"
	case OpStop:
		return "stop"
	case OpConnect:
		return "connect"
	case OpDisconnect:
		return "disconnect"
	default:
		return "unknown"
	}
}

// Op is one recorded operation on a MemGraph node.
type Op struct {
	Node   int
	Kind   string // node kind: gain, oscillator, bufferSource, compressor, analyser, destination
	Param  string // parameter name for value ops, empty otherwise
	Op     OpKind
	At     float64 // absolute seconds; for immediate ops, the clock at call time
	Value  float64
	Target int // destination node id for OpConnect
}

// MemGraph is an in-memory Graph that records every operation instead of
// producing sound. The clock is advanced manually, which makes scheduling
// fully deterministic for tests and offline use.
type MemGraph struct {
	now        float64
	sampleRate float64
	nextID     int
	ops        []Op
	dest       *memNode
	ended      []*memEnded
}

type memEnded struct {
	stopAt float64
	fired  bool
	cb     func()
}

func NewMemGraph(sampleRate float64) *MemGraph {
	g := &MemGraph{sampleRate: sampleRate}
	g.dest = g.newNode("destination")
	return g
}

func (g *MemGraph) Now() float64        { return g.now }
func (g *MemGraph) SampleRate() float64 { return g.sampleRate }

// SetNow moves the clock without firing callbacks; use Advance to simulate
// playback progress.
func (g *MemGraph) SetNow(t float64) { g.now = t }

// Advance moves the clock forward and fires "ended" callbacks of every source
// whose scheduled stop time has been passed.
func (g *MemGraph) Advance(to float64) {
	if to > g.now {
		g.now = to
	}
	for _, e := range g.ended {
		if !e.fired && e.stopAt <= g.now && e.cb != nil {
			e.fired = true
			e.cb()
		}
	}
}

// Ops returns every recorded operation in call order.
func (g *MemGraph) Ops() []Op { return g.ops }

// OpsFor returns the recorded operations on one node, in call order.
func (g *MemGraph) OpsFor(node Node) []Op {
	var res []Op
	for _, op := range g.ops {
		if op.Node == node.ID() {
			res = append(res, op)
		}
	}
	return res
}

// ScheduledOps returns all time-scheduled operations sorted by time.
func (g *MemGraph) ScheduledOps() []Op {
	var res []Op
	for _, op := range g.ops {
		switch op.Op {
		case OpSetValueAtTime, OpLinearRamp, OpStart, OpStop:
			res = append(res, op)
		}
	}
	sort.SliceStable(res, func(i, j int) bool { return res[i].At < res[j].At })
	return res
}

func (g *MemGraph) record(op Op) { g.ops = append(g.ops, op) }

func (g *MemGraph) newNode(kind string) *memNode {
	n := &memNode{graph: g, id: g.nextID, kind: kind}
	g.nextID++
	return n
}

func (g *MemGraph) CreateGain() (GainNode, error) {
	n := g.newNode("gain")
	return &memGain{memNode: n, gain: n.param("gain", 1)}, nil
}

func (g *MemGraph) CreateOscillator() (OscillatorNode, error) {
	n := g.newNode("oscillator")
	return &memOscillator{memNode: n, freq: n.param("frequency", 440)}, nil
}

func (g *MemGraph) CreateBufferSource() (BufferSourceNode, error) {
	n := g.newNode("bufferSource")
	return &memBufferSource{memNode: n, rate: n.param("playbackRate", 1)}, nil
}

func (g *MemGraph) CreateCompressor() (CompressorNode, error) {
	n := g.newNode("compressor")
	return &memCompressor{memNode: n, ratio: n.param("ratio", 12), release: n.param("release", 0.25)}, nil
}

func (g *MemGraph) CreateAnalyser() (AnalyserNode, error) {
	return &memAnalyser{memNode: g.newNode("analyser")}, nil
}

func (g *MemGraph) CreateBuffer(channels, length int, sampleRate float64) (*Buffer, error) {
	return NewBuffer(channels, length, sampleRate)
}

func (g *MemGraph) Destination() Node { return g.dest }

// Connected reports whether src currently feeds into dst, directly or through
// intermediate nodes.
func (g *MemGraph) Connected(src, dst Node) bool {
	seen := map[int]bool{}
	var walk func(n *memNode) bool
	walk = func(n *memNode) bool {
		if n.id == dst.ID() {
			return true
		}
		if seen[n.id] {
			return false
		}
		seen[n.id] = true
		for _, out := range n.outputs {
			if walk(out) {
				return true
			}
		}
		return false
	}
	return walk(src.(interface{ base() *memNode }).base())
}

type memNode struct {
	graph   *MemGraph
	id      int
	kind    string
	outputs []*memNode
}

func (n *memNode) base() *memNode { return n }

func (n *memNode) ID() int { return n.id }

func (n *memNode) Connect(dst Node) (Node, error) {
	d, ok := dst.(interface{ base() *memNode })
	if !ok {
		return nil, fmt.Errorf("cannot connect %s#%d to a foreign node", n.kind, n.id)
	}
	n.outputs = append(n.outputs, d.base())
	n.graph.record(Op{Node: n.id, Kind: n.kind, Op: OpConnect, At: n.graph.now, Target: dst.ID()})
	return dst, nil
}

func (n *memNode) Disconnect() error {
	n.outputs = nil
	n.graph.record(Op{Node: n.id, Kind: n.kind, Op: OpDisconnect, At: n.graph.now})
	return nil
}

func (n *memNode) param(name string, initial float64) *memParam {
	return &memParam{node: n, name: name, value: initial}
}

type memParam struct {
	node  *memNode
	name  string
	value float64
}

func (p *memParam) Value() float64 { return p.value }

func (p *memParam) SetValue(v float64) {
	p.value = v
	g := p.node.graph
	g.record(Op{Node: p.node.id, Kind: p.node.kind, Param: p.name, Op: OpSetValue, At: g.now, Value: v})
}

func (p *memParam) SetValueAtTime(v, at float64) error {
	if math.IsNaN(v) || math.IsNaN(at) || at < 0 {
		return fmt.Errorf("%s#%d.%s: invalid automation point (%f @ %f)", p.node.kind, p.node.id, p.name, v, at)
	}
	p.value = v
	g := p.node.graph
	g.record(Op{Node: p.node.id, Kind: p.node.kind, Param: p.name, Op: OpSetValueAtTime, At: at, Value: v})
	return nil
}

func (p *memParam) LinearRampToValueAtTime(v, at float64) error {
	if math.IsNaN(v) || math.IsNaN(at) || at < 0 {
		return fmt.Errorf("%s#%d.%s: invalid ramp target (%f @ %f)", p.node.kind, p.node.id, p.name, v, at)
	}
	p.value = v
	g := p.node.graph
	g.record(Op{Node: p.node.id, Kind: p.node.kind, Param: p.name, Op: OpLinearRamp, At: at, Value: v})
	return nil
}

type memGain struct {
	*memNode
	gain *memParam
}

func (n *memGain) Gain() Param { return n.gain }

type memSource struct {
	started bool
	stopped bool
	ended   *memEnded
}

func (s *memSource) start(n *memNode, at float64) error {
	if s.started {
		return fmt.Errorf("%s#%d started twice", n.kind, n.id)
	}
	s.started = true
	n.graph.record(Op{Node: n.id, Kind: n.kind, Op: OpStart, At: at})
	return nil
}

func (s *memSource) stop(n *memNode, at float64) error {
	if !s.started {
		return fmt.Errorf("%s#%d stopped before start", n.kind, n.id)
	}
	s.stopped = true
	n.graph.record(Op{Node: n.id, Kind: n.kind, Op: OpStop, At: at})
	if s.ended == nil {
		s.ended = &memEnded{}
		n.graph.ended = append(n.graph.ended, s.ended)
	}
	s.ended.stopAt = at
	return nil
}

func (s *memSource) onEnded(n *memNode, cb func()) {
	if s.ended == nil {
		s.ended = &memEnded{stopAt: math.Inf(1)}
		n.graph.ended = append(n.graph.ended, s.ended)
	}
	s.ended.cb = cb
}

type memOscillator struct {
	*memNode
	memSource
	freq *memParam
}

func (n *memOscillator) Frequency() Param       { return n.freq }
func (n *memOscillator) Start(at float64) error { return n.start(n.memNode, at) }
func (n *memOscillator) Stop(at float64) error  { return n.stop(n.memNode, at) }
func (n *memOscillator) SetOnEnded(cb func())   { n.onEnded(n.memNode, cb) }

type memBufferSource struct {
	*memNode
	memSource
	rate   *memParam
	buffer *Buffer
	loop   bool
}

func (n *memBufferSource) SetBuffer(b *Buffer)    { n.buffer = b }
func (n *memBufferSource) Buffer() *Buffer        { return n.buffer }
func (n *memBufferSource) PlaybackRate() Param    { return n.rate }
func (n *memBufferSource) SetLoop(loop bool)      { n.loop = loop }
func (n *memBufferSource) Loop() bool             { return n.loop }
func (n *memBufferSource) Start(at float64) error { return n.start(n.memNode, at) }
func (n *memBufferSource) Stop(at float64) error  { return n.stop(n.memNode, at) }
func (n *memBufferSource) SetOnEnded(cb func())   { n.onEnded(n.memNode, cb) }

type memCompressor struct {
	*memNode
	ratio   *memParam
	release *memParam
}

func (n *memCompressor) Ratio() Param   { return n.ratio }
func (n *memCompressor) Release() Param { return n.release }

type memAnalyser struct {
	*memNode
}

func (n *memAnalyser) ByteFrequencyData(buf []byte) {
	for i := range buf {
		buf[i] = 0
	}
}
