package views

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/fogleman/ease"
)

// SplashState animates the startup banner shown until the synthesis backend
// reports ready.
type SplashState struct {
	started time.Time
	period  time.Duration
}

func NewSplashState(period time.Duration) *SplashState {
	if period <= 0 {
		period = 2 * time.Second
	}
	return &SplashState{started: time.Now(), period: period}
}

const splashBanner = `
 █   █  ▄▀▄  █ █ ▄▀▀ █ █ █▀▄
 █ █ █  █▀█  ▀▄▀ █▀  ▄▀▄ █▀
  ▀ ▀   ▀ ▀   ▀  ▀▀▀ ▀ ▀ ▀
`

// RenderSplash centres the banner with a breathing highlight sweep.
func RenderSplash(w, h int, s *SplashState) string {
	t := float64(time.Since(s.started)%s.period) / float64(s.period)
	// Ease in and out so the sweep slows near both edges of the banner.
	glow := ease.InOutSine(t)

	lines := strings.Split(strings.Trim(splashBanner, "\n"), "\n")
	bannerWidth := 0
	for _, line := range lines {
		if len([]rune(line)) > bannerWidth {
			bannerWidth = len([]rune(line))
		}
	}
	sweep := int(glow * float64(bannerWidth))

	var b strings.Builder
	for _, line := range lines {
		runes := []rune(line)
		for i, r := range runes {
			style := labelStyle
			if abs(i-sweep) < 6 {
				style = valueStyle
			}
			b.WriteString(style.Render(string(r)))
		}
		b.WriteByte('\n')
	}
	b.WriteString(labelStyle.Render("waiting for the audio backend… press any key to skip"))

	return lipgloss.Place(w, h, lipgloss.Center, lipgloss.Center, b.String())
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
