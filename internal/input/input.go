// Package input translates bubbletea terminal messages into the app's event
// vocabulary. The terminal mouse is the "pointer": cell coordinates become
// cursor positions, alt maps to the meta modifier.
package input

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/schvv31n/wavexp/internal/app"
	"github.com/schvv31n/wavexp/internal/editor"
	"github.com/schvv31n/wavexp/internal/music"
)

// Region says which canvas the pointer is over.
type Region int

const (
	RegionNone Region = iota
	RegionPlane
	RegionTab
)

// Rect is a screen-cell rectangle.
type Rect struct {
	X, Y, W, H int
}

func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// Layout locates the two editor canvases on screen; the main view publishes
// it after every resize.
type Layout struct {
	Plane Rect
	Tab   Rect
}

// State tracks pointer continuity between messages so that region exits
// produce leave events.
type State struct {
	lastRegion Region
	left       bool
}

// TranslateMouse converts one mouse message into app events, including the
// leave event for the previously hovered region.
func (st *State) TranslateMouse(msg tea.MouseMsg, layout Layout) []app.Event {
	var events []app.Event

	region := RegionNone
	var rect Rect
	switch {
	case layout.Plane.Contains(msg.X, msg.Y):
		region, rect = RegionPlane, layout.Plane
	case layout.Tab.Contains(msg.X, msg.Y):
		region, rect = RegionTab, layout.Tab
	}

	if region != st.lastRegion {
		switch st.lastRegion {
		case RegionPlane:
			events = append(events, app.LeavePlane{})
		case RegionTab:
			events = append(events, app.LeaveTab{})
		}
	}
	st.lastRegion = region
	if region == RegionNone {
		return events
	}

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button == tea.MouseButtonLeft {
			st.left = true
		}
	case tea.MouseActionRelease:
		st.left = false
	}

	cur := app.Cursor{
		X:     msg.X - rect.X,
		Y:     msg.Y - rect.Y,
		Left:  st.left,
		Meta:  msg.Alt,
		Shift: msg.Shift,
	}
	pressed := msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft
	switch region {
	case RegionPlane:
		if pressed {
			events = append(events, app.FocusPlane{Cursor: cur})
		} else {
			events = append(events, app.HoverPlane{Cursor: cur})
		}
	case RegionTab:
		if pressed {
			events = append(events, app.FocusTab{Cursor: cur})
		} else {
			events = append(events, app.HoverTab{Cursor: cur})
		}
	}
	return events
}

// TranslateKey converts the keys with a direct event meaning; anything it
// does not recognise is returned as a raw KeyPress for the host to route.
func TranslateKey(msg tea.KeyMsg) []app.Event {
	switch msg.String() {
	case "esc":
		return []app.Event{app.KeyPress{Key: "esc"}}
	case "1", "2", "3", "4", "5":
		idx := int(msg.String()[0] - '1')
		if idx < len(editor.SnapSteps) {
			return []app.Event{app.Snap{Step: editor.SnapSteps[idx]}}
		}
	case "tab":
		return []app.Event{app.SetTab{Index: -1}} // -1 = advance to next tab
	}
	return []app.Event{app.KeyPress{Key: msg.String()}}
}

// SnapLabel names a snap step for the footer.
func SnapLabel(step music.Beats) string {
	switch step {
	case 0:
		return "off"
	case 1:
		return "1"
	case 0.5:
		return "1/2"
	case 0.25:
		return "1/4"
	case 0.125:
		return "1/8"
	default:
		return "custom"
	}
}
