package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// styles is the set of lipgloss styles derived from one theme.
type styles struct {
	canvas lipgloss.Style
	stats  lipgloss.Style
	header lipgloss.Style
	label  lipgloss.Style
	value  lipgloss.Style
	graph  lipgloss.Style
	help   lipgloss.Style

	running lipgloss.Style
	paused  lipgloss.Style
	failed  lipgloss.Style

	spark [3]lipgloss.Style
}

func newStyles(th Theme) styles {
	return styles{
		canvas: lipgloss.NewStyle().Padding(1, 2).Foreground(th.Primary),
		stats: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(th.Muted).
			Padding(1, 2).
			Width(48),
		header:  lipgloss.NewStyle().Foreground(th.Accent).Bold(true).MarginBottom(1),
		label:   lipgloss.NewStyle().Foreground(th.Muted).Width(12),
		value:   lipgloss.NewStyle().Foreground(th.Text),
		graph:   lipgloss.NewStyle().Foreground(th.Secondary).Padding(1, 0),
		help:    lipgloss.NewStyle().Foreground(th.Muted).MarginTop(1),
		running: lipgloss.NewStyle().Bold(true).Foreground(th.Success),
		paused:  lipgloss.NewStyle().Bold(true).Foreground(th.Warning),
		failed:  lipgloss.NewStyle().Bold(true).Foreground(th.Error),
		spark: [3]lipgloss.Style{
			lipgloss.NewStyle().Foreground(th.Secondary),
			lipgloss.NewStyle().Foreground(th.Primary),
			lipgloss.NewStyle().Foreground(th.Accent),
		},
	}
}

var sparkRunes = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Sparkline renders the last width values as bars scaled between their min
// and max. Empty input renders a flat rule.
func (s styles) Sparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return strings.Repeat("─", width)
	}
	if len(values) > width {
		values = values[len(values)-width:]
	}
	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	rng := hi - lo
	if rng == 0 {
		rng = 1
	}

	var b strings.Builder
	for _, v := range values {
		norm := (v - lo) / rng
		idx := int(norm * float64(len(sparkRunes)-1))
		idx = max(0, min(idx, len(sparkRunes)-1))
		band := 0
		if norm > 0.7 {
			band = 2
		} else if norm > 0.3 {
			band = 1
		}
		b.WriteString(s.spark[band].Render(string(sparkRunes[idx])))
	}
	return b.String()
}
