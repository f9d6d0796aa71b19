// Package views renders the workstation to the terminal: the editor canvases
// rasterised from redraw paths, the parameter panels, popups and the status
// footer.
package views

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/schvv31n/wavexp/internal/draw"
)

// Canvas is a cell grid the redraw paths rasterise onto.
type Canvas struct {
	w, h   int
	runes  [][]rune
	colors [][]string
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{w: w, h: h}
	c.runes = make([][]rune, h)
	c.colors = make([][]string, h)
	for y := 0; y < h; y++ {
		c.runes[y] = make([]rune, w)
		c.colors[y] = make([]string, w)
		for x := 0; x < w; x++ {
			c.runes[y][x] = ' '
		}
	}
	return c
}

func (c *Canvas) set(x, y int, r rune, color string) {
	if x < 0 || x >= c.w || y < 0 || y >= c.h {
		return
	}
	c.runes[y][x] = r
	c.colors[y][x] = color
}

// Stroke rasterises a path. Rects fill with the fill rune; lines draw with
// the line rune. colorFor may be nil for the default foreground.
func (c *Canvas) Stroke(p *draw.Path, fill, line rune, colorFor func(op draw.Op) string) {
	var penX, penY float64
	for _, op := range p.Ops() {
		color := ""
		if colorFor != nil {
			color = colorFor(op)
		}
		switch op.Kind {
		case draw.OpRect:
			x0, y0 := int(op.X), int(op.Y)
			x1, y1 := int(op.X+op.W), int(op.Y+op.H)
			if x1 == x0 {
				x1 = x0 + 1
			}
			if y1 == y0 {
				y1 = y0 + 1
			}
			for y := y0; y < y1; y++ {
				for x := x0; x < x1; x++ {
					c.set(x, y, fill, color)
				}
			}
		case draw.OpMoveTo:
			penX, penY = op.X, op.Y
		case draw.OpLineTo:
			c.line(penX, penY, op.X, op.Y, line, color)
			penX, penY = op.X, op.Y
		}
	}
}

// line draws axis-aligned lines cell by cell; editor geometry never needs
// diagonals.
func (c *Canvas) line(x0, y0, x1, y1 float64, r rune, color string) {
	if int(x0) == int(x1) {
		y := int(minf(y0, y1))
		end := int(maxf(y0, y1))
		for ; y <= end; y++ {
			c.set(int(x0), y, r, color)
		}
		return
	}
	x := int(minf(x0, x1))
	end := int(maxf(x0, x1))
	for ; x <= end; x++ {
		c.set(x, int(y0), r, color)
	}
}

// Mark overlays a single cell, used for selection markers.
func (c *Canvas) Mark(x, y int, r rune, color string) { c.set(x, y, r, color) }

// String renders the canvas with per-cell colouring.
func (c *Canvas) String() string {
	var b strings.Builder
	for y := 0; y < c.h; y++ {
		var runStart int
		var runColor string
		flush := func(end int) {
			if end <= runStart {
				return
			}
			text := string(c.runes[y][runStart:end])
			if runColor == "" {
				b.WriteString(text)
			} else {
				b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(runColor)).Render(text))
			}
		}
		runColor = c.colors[y][0]
		for x := 1; x < c.w; x++ {
			if c.colors[y][x] != runColor {
				flush(x)
				runStart, runColor = x, c.colors[y][x]
			}
		}
		flush(c.w)
		if y < c.h-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
