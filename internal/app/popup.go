package app

// PopupKind selects which modal dialog a Popup shows.
type PopupKind int

const (
	// PopupChooseInput lists the project input pool for the active custom sound.
	PopupChooseInput PopupKind = iota
	// PopupEditInput edits one input: rename, reverse, cut start/end.
	PopupEditInput
	// PopupExport shows a note that the arrangement autosaves to the project
	// file.
	PopupExport
)

// Popup identifies one modal dialog. InputIdx indexes the project input pool
// where relevant, -1 otherwise.
type Popup struct {
	Kind     PopupKind
	InputIdx int
}

// Popups is the stack of open modals, owned by the top-level app. Editors and
// sounds only request open/close through events; undo/redo replays the stack
// operations without re-running side effects.
type Popups struct {
	stack []Popup
}

func (p *Popups) Top() (Popup, bool) {
	if len(p.stack) == 0 {
		return Popup{}, false
	}
	return p.stack[len(p.stack)-1], true
}

func (p *Popups) Depth() int { return len(p.stack) }

func (p *Popups) push(popup Popup) { p.stack = append(p.stack, popup) }

func (p *Popups) pop() (Popup, bool) {
	if len(p.stack) == 0 {
		return Popup{}, false
	}
	top := p.stack[len(p.stack)-1]
	p.stack = p.stack[:len(p.stack)-1]
	return top, true
}

// HandleEvent processes the subset of events the popup stack owns.
func (p *Popups) HandleEvent(event Event, ctx *Context) {
	switch e := event.(type) {
	case OpenPopup:
		p.push(e.Popup)
		ctx.RegisterAction(OpenPopupAction{Popup: e.Popup})

	case ClosePopup:
		if top, ok := p.pop(); ok {
			ctx.RegisterAction(ClosePopupAction{Popup: top})
		}

	case Undo:
		for i := len(e.Actions) - 1; i >= 0; i-- {
			switch a := e.Actions[i].(type) {
			case OpenPopupAction:
				p.pop()
			case ClosePopupAction:
				p.push(a.Popup)
			}
		}

	case Redo:
		for _, action := range e.Actions {
			switch a := action.(type) {
			case OpenPopupAction:
				p.push(a.Popup)
			case ClosePopupAction:
				p.pop()
			}
		}
	}
}
