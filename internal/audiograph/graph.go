// Package audiograph defines the audio backend contract the workstation
// schedules against. Node handles are opaque: a Graph implementation may keep
// the whole signal chain in memory (MemGraph, used offline and in tests) or
// forward every operation to an external synthesis server (oscgraph).
package audiograph

// Param is an automatable scalar parameter of a node. Automation times are
// absolute seconds on the graph's clock.
type Param interface {
	Value() float64
	SetValue(v float64)
	SetValueAtTime(v, at float64) error
	LinearRampToValueAtTime(v, at float64) error
}

// Node is anything that can sit in the signal chain.
type Node interface {
	// Connect routes this node's output into dst and returns dst so that
	// chains can be written as a.Connect(b).Connect(c).
	Connect(dst Node) (Node, error)
	// Disconnect severs all outgoing connections.
	Disconnect() error
	// ID is a stable per-graph identifier, usable as a map key.
	ID() int
}

type GainNode interface {
	Node
	Gain() Param
}

type OscillatorNode interface {
	Node
	Frequency() Param
	Start(at float64) error
	Stop(at float64) error
	SetOnEnded(cb func())
}

type BufferSourceNode interface {
	Node
	SetBuffer(b *Buffer)
	PlaybackRate() Param
	SetLoop(loop bool)
	Start(at float64) error
	Stop(at float64) error
	SetOnEnded(cb func())
}

type CompressorNode interface {
	Node
	Ratio() Param
	Release() Param
}

type AnalyserNode interface {
	Node
	// ByteFrequencyData fills buf with the current spectrum, 0-255 per bin.
	ByteFrequencyData(buf []byte)
}

// Graph is the top-level audio backend handle.
type Graph interface {
	// Now is the current time of the audio clock in seconds.
	Now() float64
	SampleRate() float64
	CreateGain() (GainNode, error)
	CreateOscillator() (OscillatorNode, error)
	CreateBufferSource() (BufferSourceNode, error)
	CreateCompressor() (CompressorNode, error)
	CreateAnalyser() (AnalyserNode, error)
	CreateBuffer(channels, length int, sampleRate float64) (*Buffer, error)
	Destination() Node
}
