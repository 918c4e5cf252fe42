package sim

import (
	"github.com/sirupsen/logrus"

	"github.com/san-kum/fibersim/internal/compute"
	"github.com/san-kum/fibersim/internal/config"
	"github.com/san-kum/fibersim/internal/membrane"
)

// NewEngine validates cfg, selects its backend, and returns a seeded engine.
// The caller owns the backend and must Cleanup it.
func NewEngine(cfg *config.Config, log logrus.FieldLogger) (*membrane.Engine, compute.Backend, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	backend, err := compute.Select(cfg.Sim.Backend, cfg.Sim.Workers, log)
	if err != nil {
		return nil, nil, err
	}

	eng, err := membrane.NewEngine(membrane.EngineConfig{
		Side:     cfg.Grid.Side,
		TimeStep: cfg.Sim.TimeStep,
		Damping:  cfg.Sim.Damping,
		Gravity:  cfg.Sim.Gravity,
		Stepper:  backend,
		Guard:    cfg.Guard(),
		Logger:   log,
	})
	if err != nil {
		backend.Cleanup()
		return nil, nil, err
	}

	if err := SeedEngine(eng, cfg); err != nil {
		backend.Cleanup()
		return nil, nil, err
	}

	log.WithFields(logrus.Fields{
		"side":    cfg.Grid.Side,
		"backend": backend.Name(),
		"init":    cfg.Grid.Init,
		"gravity": cfg.Sim.Gravity,
	}).Debug("engine ready")
	return eng, backend, nil
}

// SeedEngine loads the configured initial condition into eng.
func SeedEngine(eng *membrane.Engine, cfg *config.Config) error {
	g, err := membrane.NewGrid(eng.Side())
	if err != nil {
		return err
	}
	if err := membrane.Seed(g, membrane.InitMode(cfg.Grid.Init), cfg.Grid.Seed, cfg.Grid.Amplitude); err != nil {
		return err
	}
	return eng.Load(g)
}

// RunConfig extracts the run bounds from cfg.
func RunConfig(cfg *config.Config) Config {
	return Config{
		Ticks:    cfg.Run.Ticks,
		Interval: cfg.Run.Interval,
		ProbeX:   cfg.Run.ProbeX,
		ProbeY:   cfg.Run.ProbeY,
	}
}
