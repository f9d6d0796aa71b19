package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"

	"github.com/schvv31n/wavexp/internal/app"
	"github.com/schvv31n/wavexp/internal/types"
)

// RenderPopup renders the top popup as a centred modal. The text input is
// active in rename/load rows; selRow highlights the focused row.
func RenderPopup(p app.Popup, inputs []*types.AudioInput, ti *textinput.Model, bps float64, selRow, w, h int) string {
	var b strings.Builder
	switch p.Kind {
	case app.PopupChooseInput:
		b.WriteString(valueStyle.Render("Choose Audio Input"))
		b.WriteByte('\n')
		for i, in := range inputs {
			line := fmt.Sprintf("%2d. %s", i+1, in.Desc(bps))
			if i == selRow {
				b.WriteString(selStyle.Render(line))
			} else {
				b.WriteString(valueStyle.Render(line))
			}
			b.WriteByte('\n')
		}
		loadRow := len(inputs)
		label := "load a WAV file: "
		if selRow == loadRow {
			b.WriteString(selStyle.Render(label))
		} else {
			b.WriteString(labelStyle.Render(label))
		}
		b.WriteString(ti.View())
		b.WriteByte('\n')
		b.WriteString(labelStyle.Render("enter to pick · esc to close"))

	case app.PopupEditInput:
		if p.InputIdx < 0 || p.InputIdx >= len(inputs) {
			b.WriteString(errStyle.Render("input no longer exists"))
			break
		}
		in := inputs[p.InputIdx]
		ch := in.Changes()
		b.WriteString(valueStyle.Render("Edit " + in.Name()))
		b.WriteByte('\n')
		rows := []string{
			"name: " + ti.View(),
			fmt.Sprintf("reversed: %v", ch.Reversed),
			fmt.Sprintf("cut from start: %.3f beats", float64(ch.CutStart)),
			fmt.Sprintf("cut from end: %.3f beats", float64(ch.CutEnd)),
		}
		for i, row := range rows {
			if i == selRow {
				b.WriteString(selStyle.Render(row))
			} else {
				b.WriteString(valueStyle.Render(row))
			}
			b.WriteByte('\n')
		}
		baked := "baked"
		if in.Baked() == nil {
			baked = "pending changes"
		}
		b.WriteString(labelStyle.Render(fmt.Sprintf("%.2fs raw, %s · esc to close", float64(in.RawDuration()), baked)))

	case app.PopupExport:
		b.WriteString(valueStyle.Render("Export"))
		b.WriteByte('\n')
		b.WriteString(labelStyle.Render("the arrangement autosaves to the project file · esc to close"))
	}

	body := borderStyle.Padding(1, 2).Render(b.String())
	return lipgloss.Place(w, h, lipgloss.Center, lipgloss.Center, body)
}
