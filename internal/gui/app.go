// Package gui shows a running membrane in a window: one engine tick per
// ebiten update, then the projected mesh drawn as colored triangles over the
// clear color.
package gui

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/sirupsen/logrus"

	"github.com/san-kum/fibersim/internal/config"
	"github.com/san-kum/fibersim/internal/membrane"
	"github.com/san-kum/fibersim/internal/mesh"
	"github.com/san-kum/fibersim/internal/projection"
	"github.com/san-kum/fibersim/internal/sim"
)

var whiteImage = ebiten.NewImage(3, 3)

// whiteSubImage is a 1x1 opaque source so vertex colors reach the screen
// unchanged.
var whiteSubImage = whiteImage.SubImage(image.Rect(1, 1, 2, 2)).(*ebiten.Image)

func init() {
	whiteImage.Fill(color.White)
}

type Game struct {
	engine *membrane.Engine
	cfg    *config.Config
	proj   *projection.Projector
	log    logrus.FieldLogger

	width, height int
	clear         color.NRGBA
	paused        bool
	showHUD       bool
	err           error

	batches []batch
	last    *mesh.Mesh
}

func NewGame(eng *membrane.Engine, cfg *config.Config, log logrus.FieldLogger) (*Game, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	cam, screen := cfg.View()
	proj, err := projection.NewProjector(cam, screen)
	if err != nil {
		return nil, err
	}
	return &Game{
		engine:  eng,
		cfg:     cfg,
		proj:    proj,
		log:     log,
		width:   cfg.Render.Width,
		height:  cfg.Render.Height,
		clear:   toColor(cfg.Render.ClearColor),
		showHUD: true,
	}, nil
}

func (g *Game) Update() error {
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyEscape), inpututil.IsKeyJustPressed(ebiten.KeyQ):
		return ebiten.Termination
	case inpututil.IsKeyJustPressed(ebiten.KeyG):
		g.engine.SetAcceleration(!g.engine.GravityEnabled())
	case inpututil.IsKeyJustPressed(ebiten.KeySpace):
		if g.err == nil {
			g.paused = !g.paused
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyR):
		g.reset()
	case inpututil.IsKeyJustPressed(ebiten.KeyH):
		g.showHUD = !g.showHUD
	}

	if g.paused || g.err != nil {
		return nil
	}
	return g.tick()
}

// tick advances the engine once. Numeric failures stop the simulation but
// keep the window up with the last good frame.
func (g *Game) tick() error {
	if _, err := g.engine.Advance(); err != nil {
		if errors.Is(err, membrane.ErrNumericInstability) {
			g.err = err
			g.log.WithError(err).Error("simulation stopped")
			return nil
		}
		return err
	}
	return nil
}

func (g *Game) reset() {
	g.engine.Reset()
	if err := sim.SeedEngine(g.engine, g.cfg); err != nil {
		g.err = err
		return
	}
	g.err = nil
	g.paused = false
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(g.clear)

	g.last = mesh.Build(g.engine.Snapshot(), g.proj)
	g.batches = appendBatches(g.batches, g.last, g.width, g.height)
	for _, b := range g.batches {
		screen.DrawTriangles(b.vertices, b.indices, whiteSubImage, nil)
	}

	if g.showHUD {
		ebitenutil.DebugPrint(screen, g.hud())
	}
}

func (g *Game) hud() string {
	gravity := "off"
	if g.engine.GravityEnabled() {
		gravity = "on"
	}
	s := fmt.Sprintf("t=%.2f ticks=%d tps=%.0f\ngravity %s [G]  pause [Space]  reset [R]  hud [H]",
		g.engine.Time(), g.engine.Stats().Ticks, ebiten.ActualTPS(), gravity)
	if g.last != nil && g.last.Dropped > 0 {
		s += fmt.Sprintf("\ndropped %d triangles", g.last.Dropped)
	}
	if g.paused {
		s += "\nPAUSED"
	}
	if g.err != nil {
		s += "\n" + g.err.Error()
	}
	return s
}

func (g *Game) Layout(_, _ int) (int, int) { return g.width, g.height }

// Run opens the window and blocks until it is closed.
func Run(g *Game, title string) error {
	ebiten.SetWindowSize(g.width, g.height)
	ebiten.SetWindowTitle(title)
	ebiten.SetTPS(g.cfg.Render.TPS)
	if err := ebiten.RunGame(g); err != nil && !errors.Is(err, ebiten.Termination) {
		return err
	}
	return nil
}
