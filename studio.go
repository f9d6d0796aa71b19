package main

import (
	"log"
	"math"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/schvv31n/wavexp/internal/app"
	"github.com/schvv31n/wavexp/internal/audiograph"
	"github.com/schvv31n/wavexp/internal/editor"
	"github.com/schvv31n/wavexp/internal/input"
	"github.com/schvv31n/wavexp/internal/music"
	"github.com/schvv31n/wavexp/internal/oscgraph"
	"github.com/schvv31n/wavexp/internal/sequencer"
	"github.com/schvv31n/wavexp/internal/sound"
	"github.com/schvv31n/wavexp/internal/storage"
	"github.com/schvv31n/wavexp/internal/types"
	"github.com/schvv31n/wavexp/internal/views"
)

// studioModel wires the workstation into the bubbletea loop: it owns the
// dispatch order (sequencer, then the active sound, then popups), the input
// pool and the rendered canvases.
type studioModel struct {
	ctx  *app.Context
	seq  *sequencer.Sequencer
	oscG *oscgraph.Graph
	memG *audiograph.MemGraph

	popups   app.Popups
	inputs   []*types.AudioInput
	mouse    input.State
	layout   input.Layout
	saveFile string

	splash        *views.SplashState
	showingSplash bool

	termW, termH int
	hintMain     string
	hintAux      string
	snapStep     music.Beats
	paramRow     int
	popupRow     int
	ti           textinput.Model

	planeStr         string
	patternStr       string
	startedAt        time.Time
	lastHistoryDepth int
}

func newStudioModel(graph audiograph.Graph, oscG *oscgraph.Graph, memG *audiograph.MemGraph, bps float64, saveFile string, showSplash bool) (*studioModel, error) {
	ctx := app.NewContext(graph, bps)
	seq, err := sequencer.New(ctx)
	if err != nil {
		return nil, err
	}

	ti := textinput.New()
	ti.CharLimit = 256
	ti.Width = 40

	m := &studioModel{
		ctx:           ctx,
		seq:           seq,
		oscG:          oscG,
		memG:          memG,
		saveFile:      saveFile,
		splash:        views.NewSplashState(2 * time.Second),
		showingSplash: showSplash,
		snapStep:      1,
		ti:            ti,
		startedAt:     time.Now(),
	}

	if data, err := storage.LoadFile(saveFile); err == nil {
		if data.Bps > 0 {
			ctx.Bps = data.Bps
		}
		if data.Snap >= 0 {
			m.snapStep = data.Snap
		}
		inputs, err := storage.Restore(data, seq, ctx)
		m.inputs = inputs
		if err != nil {
			log.Printf("restoring %s: %v", saveFile, err)
		} else {
			log.Printf("loaded saved state from %s", saveFile)
		}
		m.announceInputs()
	} else if !os.IsNotExist(err) {
		log.Printf("no saved state in %s: %v", saveFile, err)
	}
	return m, nil
}

// announceInputs registers file-backed inputs with the OSC backend so the
// server can resolve their buffers.
func (m *studioModel) announceInputs() {
	if m.oscG == nil {
		return
	}
	for _, in := range m.inputs {
		if in.Path() != "" {
			m.oscG.AnnounceBufferFile(in.Path())
		}
	}
}

func (m *studioModel) Init() tea.Cmd {
	if m.showingSplash {
		return tea.Batch(tickSplash(), tickFrame())
	}
	return tickFrame()
}

// dispatch runs one event through every component in deterministic order,
// then drains follow-up events and closes the action batch.
func (m *studioModel) dispatch(ev app.Event) {
	m.ctx.Now = music.Secs(m.ctx.Graph.Now())
	queue := []app.Event{ev}
	for guard := 0; len(queue) > 0 && guard < 256; guard++ {
		cur := queue[0]
		queue = queue[1:]
		m.handleAppLevel(cur)
		if err := m.seq.HandleEvent(cur, m.ctx); err != nil {
			m.ctx.ReportError(err)
		}
		m.seq.ForwardToActive(cur, m.ctx)
		m.popups.HandleEvent(cur, m.ctx)
		queue = append(queue, m.ctx.DrainEmitted()...)
	}
	m.ctx.FinishBatch()

	if depth := m.ctx.History().DoneDepth(); depth != m.lastHistoryDepth {
		m.lastHistoryDepth = depth
		data := m.snapshot()
		storage.AutoSave(m.saveFile, func() storage.SaveData { return data })
	}
}

// handleAppLevel consumes the events owned by the top-level app itself.
func (m *studioModel) handleAppLevel(ev app.Event) {
	switch e := ev.(type) {
	case app.AddInput:
		m.inputs = append(m.inputs, e.Input)
		if m.oscG != nil && e.Input.Path() != "" {
			m.oscG.AnnounceBufferFile(e.Input.Path())
		}

	case app.SetHint:
		m.hintMain, m.hintAux = e.Main, e.Aux

	case app.Snap:
		m.snapStep = e.Step

	case app.Bps:
		if e.Value > 0 && music.Finite(e.Value) {
			m.ctx.Bps = e.Value
		}

	case app.SetTab:
		if e.Index >= 0 {
			m.ctx.SelectedTab = e.Index
		} else if _, block, ok := m.seq.Selected(); ok {
			m.ctx.SelectedTab = (m.ctx.SelectedTab + 1) % len(block.Sound.Tabs())
		}
		m.paramRow = 0

	case app.AudioStarted:
		log.Printf("audio started at %.3fs", float64(e.At))
	}
}

func (m *studioModel) snapshot() storage.SaveData {
	return storage.Snapshot(m.seq, m.inputs, m.ctx.Bps, m.snapStep)
}

func (m *studioModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.termW, m.termH = msg.Width, msg.Height
		m.recalcLayout()
		m.dispatch(app.Resize{W: msg.Width, H: msg.Height})
		return m, nil

	case splashTickMsg:
		if m.showingSplash {
			return m, tickSplash()
		}
		return m, nil

	case frameTickMsg:
		if m.memG != nil {
			m.memG.Advance(time.Since(m.startedAt).Seconds())
		}
		if m.oscG != nil {
			m.oscG.FireDueEnded()
		}
		m.dispatch(app.Frame{Time: music.Secs(m.ctx.Graph.Now())})
		m.refreshCanvases()
		return m, tickFrame()

	case backendReadyMsg:
		m.showingSplash = false
		return m, nil

	case inputLoadedMsg:
		if msg.err != nil {
			m.ctx.ReportError(msg.err)
			return m, nil
		}
		return m, nil

	case inputDecodedMsg:
		m.dispatch(app.AddInput{Input: msg.input})
		return m, nil

	case tea.MouseMsg:
		for _, ev := range m.mouse.TranslateMouse(msg, m.layout) {
			m.dispatch(ev)
		}
		return m, nil

	case tea.KeyMsg:
		if m.showingSplash {
			m.showingSplash = false
			return m, nil
		}
		return m.handleKey(msg)
	}
	return m, nil
}

type inputDecodedMsg struct {
	input *types.AudioInput
}

func loadInputCmd(path string, ctx *app.Context) tea.Cmd {
	return func() tea.Msg {
		in, err := storage.LoadWAV(path, ctx)
		if err != nil {
			return inputLoadedMsg{path: path, err: err}
		}
		return inputDecodedMsg{input: in}
	}
}

func (m *studioModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.popups.Depth() > 0 {
		return m.handlePopupKey(msg)
	}

	switch msg.String() {
	case "ctrl+q", "ctrl+c":
		if err := storage.DoSave(m.saveFile, m.snapshot()); err != nil {
			log.Printf("save on exit failed: %v", err)
		}
		return m, tea.Quit

	case " ", "space":
		if m.seq.Playing() {
			m.dispatch(app.StopPlay{})
		} else {
			m.dispatch(app.StartPlay{})
		}

	case "ctrl+z":
		if m.ctx.Undo() {
			m.dispatch(app.RedrawEditorPlane{})
		}

	case "ctrl+y", "ctrl+r":
		if m.ctx.Redo() {
			m.dispatch(app.RedrawEditorPlane{})
		}

	case "tab":
		m.dispatch(app.SetTab{Index: -1})

	case "up":
		if m.paramRow > 0 {
			m.paramRow--
		}

	case "down":
		if _, block, ok := m.seq.Selected(); ok {
			if rows := views.ParamRows(block.Sound, m.ctx.SelectedTab, m.ctx.Bps); m.paramRow < len(rows)-1 {
				m.paramRow++
			}
		}

	case "left":
		m.adjustParam(-1)

	case "right":
		m.adjustParam(1)

	case "enter":
		return m.activateParam()

	case "backspace", "delete":
		if sel := m.seq.Pattern().Selection(); len(sel) > 0 {
			if err := m.seq.Pattern().RemovePoints(append([]int(nil), sel...), m.ctx); err != nil {
				m.ctx.ReportError(err)
			}
			m.dispatch(app.RedrawEditorPlane{})
		}

	case "+", "=":
		m.seq.Pattern().Zoom(0.8, 1)
	case "-", "_":
		m.seq.Pattern().Zoom(1.25, 1)

	default:
		for _, ev := range input.TranslateKey(msg) {
			m.dispatch(ev)
		}
	}
	return m, nil
}

// adjustParam maps left/right on the highlighted parameter row to the
// matching value-change event; each keypress is one committed interaction.
func (m *studioModel) adjustParam(dir int) {
	_, block, ok := m.seq.Selected()
	if !ok {
		return
	}
	d := float64(dir)
	switch snd := block.Sound.(type) {
	case *sound.NoteSound:
		switch m.ctx.SelectedTab {
		case 0:
			switch m.paramRow {
			case 0:
				m.dispatch(app.Volume{Value: clamp01(snd.Volume + d*0.05)})
			case 1:
				m.dispatch(app.RepCount{Count: bumpReps(snd.Reps, dir)})
			}
		case 1:
			switch m.paramRow {
			case 0:
				m.dispatch(app.Attack{Value: bumpBeats(snd.Attack, d)})
			case 1:
				m.dispatch(app.Decay{Value: bumpBeats(snd.Decay, d)})
			case 2:
				m.dispatch(app.Sustain{Value: clamp01(snd.Sustain + d*0.05)})
			case 3:
				m.dispatch(app.Release{Value: bumpBeats(snd.Release, d)})
			}
		}

	case *sound.NoiseSound:
		switch m.ctx.SelectedTab {
		case 0:
			switch m.paramRow {
			case 0:
				m.dispatch(app.Duration{Value: bumpBeats(snd.Dur, d*2.5)})
			case 1:
				m.dispatch(app.RepCount{Count: bumpReps(snd.Reps, dir)})
			}
		case 1:
			m.dispatch(app.Volume{Value: clamp01(snd.Volume() + d*0.05)})
		}

	case *sound.CustomSound:
		switch m.ctx.SelectedTab {
		case 0:
			switch m.paramRow {
			case 1:
				m.dispatch(app.Volume{Value: clamp01(snd.Volume + d*0.05)})
			case 2:
				m.dispatch(app.Speed{Value: math.Max(0.1, snd.Speed+d*0.1)})
			case 3:
				m.dispatch(app.RepCount{Count: bumpReps(snd.Reps, dir)})
			}
		case 1:
			switch m.paramRow {
			case 0:
				m.dispatch(app.Attack{Value: bumpBeats(snd.Attack, d)})
			case 1:
				m.dispatch(app.Decay{Value: bumpBeats(snd.Decay, d)})
			case 2:
				m.dispatch(app.Sustain{Value: clamp01(snd.Sustain + d*0.05)})
			case 3:
				m.dispatch(app.Release{Value: bumpBeats(snd.Release, d)})
			}
		}
	}
}

// activateParam handles enter on the highlighted row: picking a sound type on
// an undefined block, or opening the input chooser on a custom sound.
func (m *studioModel) activateParam() (tea.Model, tea.Cmd) {
	_, block, ok := m.seq.Selected()
	if !ok {
		return m, nil
	}
	switch block.Sound.(type) {
	case sound.NoneSound:
		if m.paramRow < len(types.SoundTypes) {
			m.dispatch(app.SetBlockType{Type: types.SoundTypes[m.paramRow]})
		}
	case *sound.CustomSound:
		if m.ctx.SelectedTab == 0 && m.paramRow == 0 {
			m.popupRow = 0
			m.ti.SetValue("")
			m.ti.Focus()
			m.dispatch(app.OpenPopup{Popup: app.Popup{Kind: app.PopupChooseInput, InputIdx: -1}})
		}
	}
	return m, nil
}

func (m *studioModel) handlePopupKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	top, _ := m.popups.Top()
	switch msg.String() {
	case "esc":
		m.dispatch(app.ClosePopup{})
		return m, nil

	case "up":
		if m.popupRow > 0 {
			m.popupRow--
		}
		return m, nil

	case "down":
		if m.popupRow < m.popupRowMax(top) {
			m.popupRow++
		}
		return m, nil
	}

	switch top.Kind {
	case app.PopupChooseInput:
		if msg.String() == "ctrl+p" {
			if m.popupRow < len(m.inputs) {
				m.dispatch(app.StartPlay{Input: m.inputs[m.popupRow]})
			}
			return m, nil
		}
		if msg.String() == "enter" {
			if m.popupRow < len(m.inputs) {
				m.dispatch(app.SelectInput{Input: m.inputs[m.popupRow]})
				m.dispatch(app.ClosePopup{})
				return m, nil
			}
			if path := m.ti.Value(); path != "" {
				m.ti.SetValue("")
				return m, loadInputCmd(path, m.ctx)
			}
			return m, nil
		}
		var cmd tea.Cmd
		m.ti, cmd = m.ti.Update(msg)
		return m, cmd

	case app.PopupEditInput:
		return m.handleEditInputKey(msg, top)
	}
	return m, nil
}

func (m *studioModel) handleEditInputKey(msg tea.KeyMsg, top app.Popup) (tea.Model, tea.Cmd) {
	if top.InputIdx < 0 || top.InputIdx >= len(m.inputs) {
		return m, nil
	}
	in := m.inputs[top.InputIdx]
	key := msg.String()
	switch m.popupRow {
	case 0: // name
		if key == "enter" {
			if v := m.ti.Value(); v != "" {
				in.SetName(v)
			}
			return m, nil
		}
		var cmd tea.Cmd
		m.ti, cmd = m.ti.Update(msg)
		return m, cmd

	case 1: // reversed
		if key == "enter" || key == "left" || key == "right" {
			in.ChangesMut().Reversed = !in.Changes().Reversed
		}

	case 2: // cut start
		if key == "left" {
			in.ChangesMut().CutStart = maxBeats(0, in.Changes().CutStart-0.25)
		} else if key == "right" {
			in.ChangesMut().CutStart += 0.25
		}

	case 3: // cut end
		if key == "left" {
			in.ChangesMut().CutEnd = maxBeats(0, in.Changes().CutEnd-0.25)
		} else if key == "right" {
			in.ChangesMut().CutEnd += 0.25
		}
	}
	return m, nil
}

func (m *studioModel) popupRowMax(p app.Popup) int {
	switch p.Kind {
	case app.PopupChooseInput:
		return len(m.inputs)
	case app.PopupEditInput:
		return 3
	default:
		return 0
	}
}

// recalcLayout splits the screen: plane on the left, params and the nested
// pattern on the right, one footer line.
func (m *studioModel) recalcLayout() {
	planeW := m.termW * 5 / 8
	rightW := m.termW - planeW
	bodyH := m.termH - 1
	patternH := bodyH / 2

	m.layout = input.Layout{
		Plane: input.Rect{X: 1, Y: 1, W: planeW - 2, H: bodyH - 2},
		Tab:   input.Rect{X: planeW + 1, Y: bodyH - patternH + 1, W: rightW - 2, H: patternH - 2},
	}
	m.seq.Pattern().SetSize(float64(planeW-2), float64(bodyH-2))
	m.resizeActivePattern(float64(rightW-2), float64(patternH-2))
	m.seq.Pattern().ForceRedraw()
}

func (m *studioModel) resizeActivePattern(w, h float64) {
	_, block, ok := m.seq.Selected()
	if !ok {
		return
	}
	switch snd := block.Sound.(type) {
	case *sound.NoteSound:
		snd.Pattern.SetSize(w, h)
	case *sound.CustomSound:
		snd.Pattern.SetSize(w, h)
	}
}

// refreshCanvases polls the editors' redraw flags and re-rasterises the ones
// that changed.
func (m *studioModel) refreshCanvases() {
	planeW := m.termW * 5 / 8
	bodyH := m.termH - 1
	pe := m.seq.Pattern()
	if frame, ok := pe.Redraw(m.ctx, m.seq.PlaybackCtx(), nil); ok {
		rowOf := func(pxY float64) int {
			return int(pe.PxToLoc([2]float64{0, pxY})[1])
		}
		m.planeStr = views.RenderEditorFrame(frame, planeW, bodyH, rowOf)
	}

	m.patternStr = ""
	_, block, ok := m.seq.Selected()
	if !ok {
		return
	}
	rightW := m.termW - planeW
	patternH := bodyH / 2
	offset := block.Offset
	switch snd := block.Sound.(type) {
	case *sound.NoteSound:
		vc := func() editor.VisualContext {
			return editor.VisualContext{BlockOffset: offset, RepCount: snd.Reps}
		}
		if frame, ok := snd.Pattern.Redraw(m.ctx, m.seq.PlaybackCtx(), vc); ok {
			ed := snd.Pattern
			rowOf := func(pxY float64) int { return int(ed.PxToLoc([2]float64{0, pxY})[1]) }
			m.patternStr = views.RenderEditorFrame(frame, rightW, patternH, rowOf)
		}
	case *sound.CustomSound:
		vc := func() editor.VisualContext {
			vctx := editor.VisualContext{BlockOffset: offset, RepCount: snd.Reps}
			if snd.Src != nil {
				vctx.AudioDur = music.Beats(float64(snd.Src.BakedDuration().ToBeats(m.ctx.Bps)) / snd.Speed)
			}
			return vctx
		}
		if frame, ok := snd.Pattern.Redraw(m.ctx, m.seq.PlaybackCtx(), vc); ok {
			ed := snd.Pattern
			rowOf := func(pxY float64) int { return int(ed.PxToLoc([2]float64{0, pxY})[1]) }
			m.patternStr = views.RenderEditorFrame(frame, rightW, patternH, rowOf)
		}
	}
}

func (m *studioModel) View() string {
	if m.termW == 0 || m.termH == 0 {
		return ""
	}
	if m.showingSplash {
		return views.RenderSplash(m.termW, m.termH, m.splash)
	}
	if top, ok := m.popups.Top(); ok {
		return views.RenderPopup(top, m.inputs, &m.ti, m.ctx.Bps, m.popupRow, m.termW, m.termH)
	}

	planeW := m.termW * 5 / 8
	rightW := m.termW - planeW
	bodyH := m.termH - 1
	patternH := bodyH / 2

	var right string
	if _, block, ok := m.seq.Selected(); ok {
		right = views.RenderParams(block.Sound, m.ctx.SelectedTab, m.paramRow, m.ctx.Bps, rightW)
	} else {
		right = labelStyleRender("select a block to edit its sound")
	}
	right = lipgloss.NewStyle().Width(rightW).Height(bodyH - patternH).Render(right)
	if m.patternStr != "" {
		right = lipgloss.JoinVertical(lipgloss.Left, right, m.patternStr)
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top, m.planeStr, right)
	footer := views.RenderFooter(
		m.hintMain, m.hintAux, m.ctx.Bps, input.SnapLabel(m.snapStep),
		m.seq.Playing(), m.ctx.ErrorFlag(), m.termW,
	)
	return lipgloss.JoinVertical(lipgloss.Left, body, footer)
}

func labelStyleRender(s string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Padding(1, 2).Render(s)
}

func clamp01(v float64) float64 { return math.Min(1, math.Max(0, v)) }

func bumpBeats(b music.Beats, d float64) music.Beats {
	return music.Beats(math.Max(0, float64(b)+d*0.1))
}

func bumpReps(r uint32, dir int) uint32 {
	if dir < 0 && r > 1 {
		return r - 1
	}
	if dir > 0 {
		return r + 1
	}
	return r
}

func maxBeats(a, b music.Beats) music.Beats {
	if a > b {
		return a
	}
	return b
}
