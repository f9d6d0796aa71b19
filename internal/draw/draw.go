// Package draw collects geometry produced by editor redraws. A Path is a flat
// list of primitives in canvas-pixel space; the views package rasterises it
// onto the terminal cell grid.
package draw

type OpKind int

const (
	OpRect OpKind = iota
	OpMoveTo
	OpLineTo
)

type Op struct {
	Kind       OpKind
	X, Y, W, H float64
}

// Path is an append-only list of drawing primitives.
type Path struct {
	ops []Op
}

func (p *Path) Rect(x, y, w, h float64) {
	p.ops = append(p.ops, Op{Kind: OpRect, X: x, Y: y, W: w, H: h})
}

func (p *Path) MoveTo(x, y float64) {
	p.ops = append(p.ops, Op{Kind: OpMoveTo, X: x, Y: y})
}

func (p *Path) LineTo(x, y float64) {
	p.ops = append(p.ops, Op{Kind: OpLineTo, X: x, Y: y})
}

func (p *Path) Ops() []Op { return p.ops }

func (p *Path) Clear() { p.ops = p.ops[:0] }

func (p *Path) Empty() bool { return len(p.ops) == 0 }
