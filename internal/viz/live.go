package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/fibersim/internal/config"
	"github.com/san-kum/fibersim/internal/membrane"
	"github.com/san-kum/fibersim/internal/mesh"
	"github.com/san-kum/fibersim/internal/metrics"
	"github.com/san-kum/fibersim/internal/projection"
	"github.com/san-kum/fibersim/internal/sim"
)

const (
	canvasWidth     = 60
	canvasHeight    = 24
	statsWidth      = 52
	historyCapacity = 600
	cameraStep      = 0.25
)

type TickMsg time.Time

type viewMode int

const (
	viewSurface viewMode = iota
	viewHeatmap
)

// Model drives an engine from bubbletea ticks and draws the projected
// surface, one engine tick per TickMsg while running.
type Model struct {
	engine *membrane.Engine
	cfg    *config.Config
	title  string
	log    logrus.FieldLogger

	cam    projection.Camera
	screen projection.Screen
	proj   *projection.Projector
	canvas *Canvas

	interval time.Duration
	running  bool
	view     viewMode
	theme    int
	styles   styles
	showHelp bool
	err      error

	center []float64
	energy []float64
	maxAbs float64
}

// NewModel builds a live view over eng. cfg supplies the camera, the tick
// interval, the theme and the initial condition restored on reset.
func NewModel(eng *membrane.Engine, cfg *config.Config, title string, log logrus.FieldLogger) (Model, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	cam, screen := cfg.View()
	proj, err := projection.NewProjector(cam, screen)
	if err != nil {
		return Model{}, err
	}
	interval := cfg.Run.Interval
	if interval <= 0 {
		interval = config.DefaultInterval
	}
	theme := ThemeIndex(cfg.Render.Theme)

	return Model{
		engine:   eng,
		cfg:      cfg,
		title:    title,
		log:      log,
		cam:      cam,
		screen:   screen,
		proj:     proj,
		canvas:   NewCanvas(canvasWidth, canvasHeight),
		interval: interval,
		running:  true,
		theme:    theme,
		styles:   newStyles(Themes[theme]),
		center:   make([]float64, 0, historyCapacity),
		energy:   make([]float64, 0, historyCapacity),
	}, nil
}

func (m Model) Init() tea.Cmd { return tick(m.interval) }

func tick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		w := max(msg.Width-statsWidth-6, 10)
		h := max(msg.Height-4, 6)
		m.canvas = NewCanvas(w, h)
	case TickMsg:
		if m.running {
			m.step()
		}
		return m, tick(m.interval)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case " ":
		if m.err == nil {
			m.running = !m.running
		}
	case "n":
		if !m.running && m.err == nil {
			m.step()
		}
	case "g":
		m.engine.SetAcceleration(!m.engine.GravityEnabled())
	case "r":
		m.reset()
	case "v":
		if m.view == viewSurface {
			m.view = viewHeatmap
		} else {
			m.view = viewSurface
		}
	case "t":
		m.theme = (m.theme + 1) % len(Themes)
		m.styles = newStyles(Themes[m.theme])
	case "left":
		m.moveCamera(r3.Vec{X: -cameraStep})
	case "right":
		m.moveCamera(r3.Vec{X: cameraStep})
	case "up":
		m.moveCamera(r3.Vec{Y: cameraStep})
	case "down":
		m.moveCamera(r3.Vec{Y: -cameraStep})
	case "+", "=":
		m.moveCamera(r3.Scale(cameraStep, r3.Unit(m.cam.Direction)))
	case "-":
		m.moveCamera(r3.Scale(-cameraStep, r3.Unit(m.cam.Direction)))
	case "c":
		cam, _ := m.cfg.View()
		m.setCamera(cam)
	case "?":
		m.showHelp = !m.showHelp
	}
	return m, nil
}

func (m *Model) step() {
	g, err := m.engine.Advance()
	if err != nil {
		m.err = err
		m.running = false
		m.log.WithError(err).Warn("live view stopped")
		return
	}
	m.record(g)
}

func (m *Model) record(g *membrane.Grid) {
	k, p := metrics.GridEnergy(g)
	m.center = appendCapped(m.center, float64(g.Nodes[membrane.CenterIndex(g.Side)].Height))
	m.energy = appendCapped(m.energy, k+p)
	m.maxAbs = metrics.MaxAbsHeight(g)
}

func appendCapped(s []float64, v float64) []float64 {
	if len(s) == historyCapacity {
		copy(s, s[1:])
		s = s[:len(s)-1]
	}
	return append(s, v)
}

func (m *Model) reset() {
	m.engine.Reset()
	if err := sim.SeedEngine(m.engine, m.cfg); err != nil {
		m.err = err
		m.running = false
		return
	}
	m.center = m.center[:0]
	m.energy = m.energy[:0]
	m.maxAbs = 0
	m.err = nil
	m.running = true
}

func (m *Model) moveCamera(d r3.Vec) {
	cam := m.cam
	cam.Position = r3.Add(cam.Position, d)
	m.setCamera(cam)
}

func (m *Model) setCamera(cam projection.Camera) {
	proj, err := projection.NewProjector(cam, m.screen)
	if err != nil {
		m.log.WithError(err).Debug("camera move rejected")
		return
	}
	m.cam, m.proj = cam, proj
}

// render draws the current generation and reports how many triangles were
// drawn and dropped.
func (m Model) render() (view string, drawn, dropped int) {
	g := m.engine.Snapshot()
	if m.view == viewHeatmap {
		return m.styles.canvas.Render(Heatmap(g, Themes[m.theme], 1)), 0, 0
	}
	m.canvas.Clear()
	ms := mesh.Build(g, m.proj)
	drawn = DrawMesh(m.canvas, ms)
	return m.styles.canvas.Render(m.canvas.String()), drawn, ms.Dropped
}

func (m Model) View() string {
	canvasView, drawn, dropped := m.render()
	st := m.styles

	var s strings.Builder
	s.WriteString(st.header.Render(strings.ToUpper(m.title)) + "\n")
	switch {
	case m.err != nil:
		s.WriteString(st.failed.Render("STOPPED") + "\n\n")
	case m.running:
		s.WriteString(st.running.Render("RUNNING") + "\n\n")
	default:
		s.WriteString(st.paused.Render("PAUSED") + "\n\n")
	}

	if len(m.center) > 1 {
		chart := asciigraph.Plot(m.center, asciigraph.Height(6), asciigraph.Width(36), asciigraph.Caption("center height"))
		s.WriteString(st.graph.Render(chart) + "\n")
	}

	stats := m.engine.Stats()
	gravity := "off"
	if m.engine.GravityEnabled() {
		gravity = fmt.Sprintf("on (%.3f)", m.engine.Acceleration())
	}
	energy := 0.0
	if len(m.energy) > 0 {
		energy = m.energy[len(m.energy)-1]
	}
	row := func(label, value string) {
		s.WriteString(st.label.Render(label) + st.value.Render(value) + "\n")
	}
	row("Time", fmt.Sprintf("%.2f", m.engine.Time()))
	row("Ticks", fmt.Sprintf("%d", stats.Ticks))
	row("Gravity", gravity)
	row("Backend", m.engine.StepperName())
	row("Energy", fmt.Sprintf("%.4f", energy))
	row("Max |h|", fmt.Sprintf("%.4f", m.maxAbs))
	if m.view == viewSurface {
		row("Triangles", fmt.Sprintf("%d drawn, %d dropped", drawn, dropped))
	}
	if stats.ClampedNodes > 0 {
		row("Clamped", fmt.Sprintf("%d nodes", stats.ClampedNodes))
	}
	p := m.cam.Position
	row("Camera", fmt.Sprintf("(%.2f, %.2f, %.2f)", p.X, p.Y, p.Z))
	row("Theme", Themes[m.theme].Name)
	s.WriteString("\n" + st.label.Render("Energy") + st.Sparkline(m.energy, 30) + "\n")

	if m.err != nil {
		s.WriteString("\n" + st.failed.Render(wrap(m.err.Error(), statsWidth-6)) + "\n")
	}
	s.WriteString(st.help.Render("SP:Pause N:Step G:Gravity R:Reset\nV:View T:Theme ←↑↓→ +/-:Camera ?:Help Q:Quit"))

	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, st.stats.Render(s.String()))
	if m.showHelp {
		return helpText + "\n" + mainView
	}
	return mainView
}

const helpText = `
╔══════════════════════════════════════╗
║          KEYBOARD SHORTCUTS          ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume             ║
║  N        - Single tick while paused ║
║  G        - Toggle gravity           ║
║  R        - Reset to initial state   ║
║  V        - Surface / heatmap view   ║
║  T        - Cycle themes             ║
║  Arrows   - Move camera in x/y       ║
║  + / -    - Move camera along view   ║
║  C        - Restore camera           ║
║  ?        - Toggle this help         ║
║  Q        - Quit                     ║
╚══════════════════════════════════════╝`

func wrap(text string, width int) string {
	if width <= 0 || len(text) <= width {
		return text
	}
	var b strings.Builder
	line := 0
	for _, word := range strings.Fields(text) {
		if line > 0 && line+1+len(word) > width {
			b.WriteByte('\n')
			line = 0
		} else if line > 0 {
			b.WriteByte(' ')
			line++
		}
		b.WriteString(word)
		line += len(word)
	}
	return b.String()
}

// Run starts a full-screen program for m.
func Run(m tea.Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
