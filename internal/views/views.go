package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/termenv"

	"github.com/schvv31n/wavexp/internal/draw"
	"github.com/schvv31n/wavexp/internal/editor"
	"github.com/schvv31n/wavexp/internal/music"
	"github.com/schvv31n/wavexp/internal/sound"
	"github.com/schvv31n/wavexp/internal/types"
)

var (
	borderStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("8"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	selStyle    = lipgloss.NewStyle().Background(lipgloss.Color("7")).Foreground(lipgloss.Color("0"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	playStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))

	gridColor   = "240"
	dottedColor = "244"
	cursorColor = "10"
)

func init() {
	// On terminals without colour support the grid, dotted and cursor colours
	// are dropped; layer colours are unaffected.
	if termenv.ColorProfile() == termenv.Ascii {
		gridColor, dottedColor, cursorColor = "", "", ""
	}
}

// LayerColor maps an editor layer (or note row) to a stable colour from a
// perceptually even ramp.
func LayerColor(layer int) string {
	hue := float64(((layer*49)%360 + 360) % 360)
	c := colorful.Hsv(hue, 0.55, 0.92)
	return c.Hex()
}

// RenderEditorFrame rasterises one editor redraw frame into a bordered
// terminal canvas. rowOf maps a canvas pixel row to the colour-determining
// integer row (layer or note index).
func RenderEditorFrame(frame *editor.RedrawFrame, w, h int, rowOf func(pxY float64) int) string {
	if w <= 2 || h <= 2 {
		return ""
	}
	c := NewCanvas(w-2, h-2)
	c.Stroke(&frame.Grid, '·', '┊', func(draw.Op) string { return gridColor })
	c.Stroke(&frame.Solid, '█', '│', func(op draw.Op) string {
		if op.Kind != draw.OpRect {
			return cursorColor
		}
		if rowOf == nil {
			return ""
		}
		return LayerColor(rowOf(op.Y))
	})
	c.Stroke(&frame.Dotted, '░', '╌', func(draw.Op) string { return dottedColor })
	for _, px := range frame.SelectionPx {
		c.Mark(int(px[0]), int(px[1]), '▸', cursorColor)
	}
	return borderStyle.Render(c.String())
}

// ParamRow is one adjustable control in the parameter panel.
type ParamRow struct {
	Name  string
	Value string
}

// ParamRows lists the controls of the given sound tab, mirroring the tabs the
// sound reports.
func ParamRows(s sound.Sound, tab int, bps float64) []ParamRow {
	switch snd := s.(type) {
	case sound.NoneSound:
		rows := make([]ParamRow, 0, len(types.SoundTypes))
		for _, t := range types.SoundTypes {
			rows = append(rows, ParamRow{Name: t.Name()})
		}
		return rows

	case *sound.NoteSound:
		switch tab {
		case 0:
			return []ParamRow{
				{"Note Volume", fmtRatio(snd.Volume)},
				{"Number Of Pattern Repetitions", fmt.Sprintf("%d", snd.Reps)},
			}
		case 1:
			return []ParamRow{
				{"Note Attack Time", fmtBeats(snd.Attack)},
				{"Note Decay Time", fmtBeats(snd.Decay)},
				{"Note Sustain Level", fmtRatio(snd.Sustain)},
				{"Note Release Time", fmtBeats(snd.Release)},
			}
		}

	case *sound.NoiseSound:
		switch tab {
		case 0:
			return []ParamRow{
				{"Noise Duration", fmtBeats(snd.Dur)},
				{"Number Of Pattern Repetitions", fmt.Sprintf("%d", snd.Reps)},
			}
		case 1:
			return []ParamRow{
				{"Noise Volume", fmtRatio(snd.Volume())},
			}
		}

	case *sound.CustomSound:
		switch tab {
		case 0:
			src := "none"
			if snd.Src != nil {
				src = snd.Src.Desc(bps)
			}
			return []ParamRow{
				{"Audio Input", src},
				{"Custom Audio Volume", fmtRatio(snd.Volume)},
				{"Playback Speed", fmt.Sprintf("%.2fx", snd.Speed)},
				{"Number Of Pattern Repetitions", fmt.Sprintf("%d", snd.Reps)},
			}
		case 1:
			return []ParamRow{
				{"Attack Time", fmtBeats(snd.Attack)},
				{"Decay Time", fmtBeats(snd.Decay)},
				{"Sustain Level", fmtRatio(snd.Sustain)},
				{"Release Time", fmtBeats(snd.Release)},
			}
		}
	}
	return nil
}

// RenderParams renders the parameter panel of the active sound with one row
// highlighted.
func RenderParams(s sound.Sound, tab, selRow int, bps float64, width int) string {
	var b strings.Builder
	tabs := s.Tabs()
	for i, name := range tabs {
		if i == tab {
			b.WriteString(selStyle.Render(" " + name + " "))
		} else {
			b.WriteString(labelStyle.Render(" " + name + " "))
		}
	}
	b.WriteByte('\n')
	for i, row := range ParamRows(s, tab, bps) {
		line := fmt.Sprintf("%-32s %s", row.Name, row.Value)
		if len(line) > width && width > 0 {
			line = line[:width]
		}
		if i == selRow {
			b.WriteString(selStyle.Render(line))
		} else {
			b.WriteString(valueStyle.Render(line))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// RenderFooter renders the status line: hints, tempo, snap, playback and
// error state.
func RenderFooter(hintMain, hintAux string, bps float64, snapLabel string, playing, errFlag bool, width int) string {
	left := valueStyle.Render(hintMain)
	if hintAux != "" {
		left += labelStyle.Render("  " + hintAux)
	}
	right := labelStyle.Render(fmt.Sprintf("bps %.2f  snap %s", bps, snapLabel))
	if playing {
		right += playStyle.Render(" ▶")
	}
	if errFlag {
		right += errStyle.Render(" !")
	}
	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}

func fmtBeats(b music.Beats) string { return fmt.Sprintf("%.3f beats", float64(b)) }

func fmtRatio(v float64) string { return fmt.Sprintf("%.2f", v) }
