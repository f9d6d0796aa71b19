package input

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schvv31n/wavexp/internal/app"
)

var layout = Layout{
	Plane: Rect{X: 1, Y: 1, W: 40, H: 20},
	Tab:   Rect{X: 50, Y: 10, W: 30, H: 10},
}

func TestMouseOverPlaneProducesHover(t *testing.T) {
	var st State
	events := st.TranslateMouse(tea.MouseMsg{X: 5, Y: 5, Action: tea.MouseActionMotion}, layout)
	require.Len(t, events, 1)
	hover, ok := events[0].(app.HoverPlane)
	require.True(t, ok)
	// Cursor coordinates are relative to the canvas.
	assert.Equal(t, 4, hover.Cursor.X)
	assert.Equal(t, 4, hover.Cursor.Y)
}

func TestMousePressAndRelease(t *testing.T) {
	var st State
	events := st.TranslateMouse(tea.MouseMsg{X: 5, Y: 5, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft, Alt: true}, layout)
	require.Len(t, events, 1)
	focus, ok := events[0].(app.FocusPlane)
	require.True(t, ok)
	assert.True(t, focus.Cursor.Left)
	assert.True(t, focus.Cursor.Meta)

	events = st.TranslateMouse(tea.MouseMsg{X: 6, Y: 5, Action: tea.MouseActionMotion, Button: tea.MouseButtonLeft}, layout)
	require.Len(t, events, 1)
	hover := events[0].(app.HoverPlane)
	assert.True(t, hover.Cursor.Left, "the button stays down while dragging")

	events = st.TranslateMouse(tea.MouseMsg{X: 6, Y: 5, Action: tea.MouseActionRelease}, layout)
	require.Len(t, events, 1)
	hover = events[0].(app.HoverPlane)
	assert.False(t, hover.Cursor.Left)
}

func TestRegionExitEmitsLeave(t *testing.T) {
	var st State
	st.TranslateMouse(tea.MouseMsg{X: 5, Y: 5, Action: tea.MouseActionMotion}, layout)
	events := st.TranslateMouse(tea.MouseMsg{X: 55, Y: 12, Action: tea.MouseActionMotion}, layout)
	require.Len(t, events, 2)
	_, ok := events[0].(app.LeavePlane)
	assert.True(t, ok)
	_, ok = events[1].(app.HoverTab)
	assert.True(t, ok)
}

func TestMouseOutsideAllRegions(t *testing.T) {
	var st State
	st.TranslateMouse(tea.MouseMsg{X: 5, Y: 5, Action: tea.MouseActionMotion}, layout)
	events := st.TranslateMouse(tea.MouseMsg{X: 0, Y: 0, Action: tea.MouseActionMotion}, layout)
	require.Len(t, events, 1)
	_, ok := events[0].(app.LeavePlane)
	assert.True(t, ok)
}

func TestKeyTranslation(t *testing.T) {
	events := TranslateKey(tea.KeyMsg{Type: tea.KeyEscape})
	require.Len(t, events, 1)
	key, ok := events[0].(app.KeyPress)
	require.True(t, ok)
	assert.Equal(t, "esc", key.Key)

	events = TranslateKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'3'}})
	require.Len(t, events, 1)
	snap, ok := events[0].(app.Snap)
	require.True(t, ok)
	assert.InDelta(t, 0.5, float64(snap.Step), 1e-9)
}

func TestSnapLabels(t *testing.T) {
	assert.Equal(t, "off", SnapLabel(0))
	assert.Equal(t, "1/8", SnapLabel(0.125))
	assert.Equal(t, "custom", SnapLabel(0.3))
}
