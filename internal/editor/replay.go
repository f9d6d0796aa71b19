package editor

import (
	"sort"

	"github.com/schvv31n/wavexp/internal/app"
)

// applyUndo reverses the actions this editor owns, newest first. Stale
// indices that no longer resolve drop the action instead of corrupting state.
func (e *GraphEditor[P]) applyUndo(actions []app.EditorAction) {
	for i := len(actions) - 1; i >= 0; i-- {
		switch a := actions[i].(type) {
		case app.AddPointAction:
			if a.Editor != e.id {
				continue
			}
			if a.Index >= 0 && a.Index < len(e.data) {
				e.data = append(e.data[:a.Index], e.data[a.Index+1:]...)
				e.selection = remapAfterRemoval(e.selection, []int{a.Index})
			}
			e.redraw = true

		case app.RemovePointsAction:
			if a.Editor != e.id {
				continue
			}
			for j, idx := range a.Indices {
				p, ok := a.Snapshots[j].(P)
				if !ok || idx < 0 || idx > len(e.data) {
					continue
				}
				e.data = append(e.data, p)
				copy(e.data[idx+1:], e.data[idx:])
				e.data[idx] = p
				for k, s := range e.selection {
					if s >= idx {
						e.selection[k] = s + 1
					}
				}
			}
			e.Resort()
			e.redraw = true

		case app.MovePointsAction:
			if a.Editor != e.id {
				continue
			}
			back := [2]float64{-a.Delta[0], -a.Delta[1]}
			for _, idx := range a.Indices {
				if idx >= 0 && idx < len(e.data) {
					e.tr.Move(&e.data[idx], back, a.Meta)
				}
			}
			e.Resort()
			e.redraw = true

		case app.SetSelectionAction:
			if a.Editor != e.id {
				continue
			}
			e.selection = sanitizeSelection(a.From, len(e.data))
			e.redraw = true
		}
	}
}

// applyRedo re-applies the actions this editor owns, oldest first.
func (e *GraphEditor[P]) applyRedo(actions []app.EditorAction) {
	for _, action := range actions {
		switch a := action.(type) {
		case app.AddPointAction:
			if a.Editor != e.id {
				continue
			}
			p, ok := a.Snapshot.(P)
			if !ok || a.Index < 0 || a.Index > len(e.data) {
				continue
			}
			e.data = append(e.data, p)
			copy(e.data[a.Index+1:], e.data[a.Index:])
			e.data[a.Index] = p
			for i, s := range e.selection {
				if s >= a.Index {
					e.selection[i] = s + 1
				}
			}
			e.redraw = true

		case app.RemovePointsAction:
			if a.Editor != e.id {
				continue
			}
			for j := len(a.Indices) - 1; j >= 0; j-- {
				idx := a.Indices[j]
				if idx >= 0 && idx < len(e.data) {
					e.data = append(e.data[:idx], e.data[idx+1:]...)
				}
			}
			e.selection = remapAfterRemoval(e.selection, a.Indices)
			e.redraw = true

		case app.MovePointsAction:
			if a.Editor != e.id {
				continue
			}
			for _, idx := range a.Indices {
				if idx >= 0 && idx < len(e.data) {
					e.tr.Move(&e.data[idx], a.Delta, a.Meta)
				}
			}
			e.Resort()
			e.redraw = true

		case app.SetSelectionAction:
			if a.Editor != e.id {
				continue
			}
			e.selection = sanitizeSelection(a.To, len(e.data))
			e.redraw = true
		}
	}
}

func sanitizeSelection(sel []int, n int) []int {
	var res []int
	for _, s := range sel {
		if s >= 0 && s < n {
			res = append(res, s)
		}
	}
	sort.Ints(res)
	return res
}
