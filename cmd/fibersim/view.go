package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/san-kum/fibersim/internal/compute"
	"github.com/san-kum/fibersim/internal/config"
	"github.com/san-kum/fibersim/internal/gui"
	"github.com/san-kum/fibersim/internal/logger"
	"github.com/san-kum/fibersim/internal/sim"
	"github.com/san-kum/fibersim/internal/viz"
)

func runGUI(cmd *cobra.Command, args []string) error {
	cfg, name, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	log := logger.Component("gui")

	eng, backend, err := sim.NewEngine(cfg, log)
	if err != nil {
		return err
	}
	defer backend.Cleanup()

	game, err := gui.NewGame(eng, cfg, log)
	if err != nil {
		return err
	}
	return gui.Run(game, "fibersim "+orDefault(name, "fiber"))
}

func runLive(cmd *cobra.Command, args []string) error {
	log := logger.Component("live")

	var backends []compute.Backend
	defer func() {
		for _, b := range backends {
			b.Cleanup()
		}
	}()

	build := func(cfg *config.Config, title string) (viz.Model, error) {
		eng, backend, err := sim.NewEngine(cfg, log)
		if err != nil {
			return viz.Model{}, err
		}
		backends = append(backends, backend)
		return viz.NewModel(eng, cfg, title, log)
	}

	if preset == "" && configFile == "" {
		app := viz.NewApp(func(name string) (viz.Model, error) {
			cfg := config.GetPreset(name)
			if cfg == nil {
				return viz.Model{}, fmt.Errorf("unknown preset: %s", name)
			}
			applyFlags(cmd, cfg)
			if err := cfg.Validate(); err != nil {
				return viz.Model{}, err
			}
			return build(cfg, name)
		})
		return viz.Run(app)
	}

	cfg, name, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if !viz.HasTheme(cfg.Render.Theme) {
		log.WithField("theme", cfg.Render.Theme).Warnf("unknown theme, using %s (available: %s)",
			viz.Themes[0].Name, strings.Join(viz.ThemeNames(), ", "))
	}
	m, err := build(cfg, orDefault(name, "fiber"))
	if err != nil {
		return err
	}
	return viz.Run(m)
}
