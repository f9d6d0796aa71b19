package app

import (
	"log"

	"github.com/schvv31n/wavexp/internal/audiograph"
	"github.com/schvv31n/wavexp/internal/music"
)

// Context is the dispatch state threaded through every event handler. It owns
// the action history, collects actions registered during one dispatch into a
// single undoable batch, and queues follow-up events so a handler can emit
// without recursing into the bus.
type Context struct {
	Graph audiograph.Graph
	// Bps is the constant tempo in beats per second.
	Bps float64
	// Now is the graph clock at the start of the current dispatch.
	Now music.Secs
	// PlaySince is the graph time the current playback was anchored at.
	PlaySince music.Secs
	// SelectedTab is the parameter tab of the active sound.
	SelectedTab int

	history  History
	batch    []EditorAction
	queued   []Event
	errFlag  bool
	nextEdID EditorID
}

func NewContext(g audiograph.Graph, bps float64) *Context {
	return &Context{Graph: g, Bps: bps}
}

// NextEditorID hands out a stable id for a freshly created graph editor.
func (c *Context) NextEditorID() EditorID {
	id := c.nextEdID
	c.nextEdID++
	return id
}

// RegisterAction records a into the batch of the current dispatch.
func (c *Context) RegisterAction(a EditorAction) {
	c.batch = append(c.batch, a)
}

// FinishBatch closes the current dispatch: all registered actions become one
// undoable unit. Call once per top-level event.
func (c *Context) FinishBatch() {
	if len(c.batch) == 0 {
		return
	}
	c.history.Push(c.batch)
	c.batch = nil
}

// EmitEvent queues a follow-up event to be dispatched after the current one.
func (c *Context) EmitEvent(e Event) {
	c.queued = append(c.queued, e)
}

// DrainEmitted returns and clears the queued follow-up events.
func (c *Context) DrainEmitted() []Event {
	q := c.queued
	c.queued = nil
	return q
}

// History exposes the undo/redo stacks.
func (c *Context) History() *History { return &c.history }

// Undo pops the latest batch and queues the Undo broadcast. Actions
// registered by the dispatch that called Undo are discarded, not recorded.
func (c *Context) Undo() bool {
	c.batch = nil
	batch := c.history.Undo()
	if batch == nil {
		return false
	}
	c.EmitEvent(Undo{Actions: batch})
	return true
}

// Redo re-applies the latest undone batch via the Redo broadcast.
func (c *Context) Redo() bool {
	c.batch = nil
	batch := c.history.Redo()
	if batch == nil {
		return false
	}
	c.EmitEvent(Redo{Actions: batch})
	return true
}

// ReportError logs err, sets the persistent error indicator and drops the
// offending mutation. Errors never cross the frame boundary.
func (c *Context) ReportError(err error) {
	if err == nil {
		return
	}
	log.Printf("error: %v", err)
	c.errFlag = true
}

// ErrorFlag reports whether any error was recorded this session.
func (c *Context) ErrorFlag() bool { return c.errFlag }
