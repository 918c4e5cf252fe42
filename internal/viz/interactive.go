package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/fibersim/internal/config"
)

var (
	cyan    = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white   = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim     = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	magenta = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
	red     = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)

const (
	stateMenu = iota
	stateSim
)

// Builder turns a preset name into a ready live view.
type Builder func(preset string) (Model, error)

// App lists the presets and, once one is chosen, hands every message to the
// live view built for it.
type App struct {
	state   int
	cursor  int
	presets []string
	build   Builder
	live    Model
	err     error
}

func NewApp(build Builder) App {
	return App{presets: config.ListPresets(), build: build}
}

func (a App) Init() tea.Cmd { return nil }

// Selected returns the preset under the cursor.
func (a App) Selected() string {
	if len(a.presets) == 0 {
		return ""
	}
	return a.presets[a.cursor]
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if a.state == stateSim {
		next, cmd := a.live.Update(msg)
		a.live = next.(Model)
		return a, cmd
	}
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return a, nil
	}
	switch key.String() {
	case "q", "ctrl+c":
		return a, tea.Quit
	case "up", "k":
		if a.cursor > 0 {
			a.cursor--
		}
	case "down", "j":
		if a.cursor < len(a.presets)-1 {
			a.cursor++
		}
	case "enter":
		live, err := a.build(a.Selected())
		if err != nil {
			a.err = err
			return a, nil
		}
		a.live, a.state, a.err = live, stateSim, nil
		return a, live.Init()
	}
	return a, nil
}

func (a App) View() string {
	if a.state == stateSim {
		return a.live.View()
	}
	var b strings.Builder
	b.WriteString(magenta.Render("FIBERSIM") + dim.Render("  pick a preset") + "\n\n")
	for i, name := range a.presets {
		desc := config.Presets[name].Description
		line := fmt.Sprintf("%-10s %s", name, dim.Render(desc))
		if i == a.cursor {
			b.WriteString(cyan.Render("> ") + white.Render(line) + "\n")
		} else {
			b.WriteString("  " + line + "\n")
		}
	}
	if a.err != nil {
		b.WriteString("\n" + red.Render(a.err.Error()) + "\n")
	}
	b.WriteString("\n" + dim.Render("↑↓:Select Enter:Start Q:Quit"))
	return b.String()
}
