package sim

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/fibersim/internal/membrane"
	"github.com/san-kum/fibersim/internal/metrics"
)

// Simulator drives an engine at a fixed period: one tick, then the
// observers, strictly in sequence.
type Simulator struct {
	engine    *membrane.Engine
	metrics   []Metric
	observers []Observer
	log       logrus.FieldLogger
}

func New(engine *membrane.Engine, log logrus.FieldLogger) *Simulator {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Simulator{
		engine:    engine,
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
		log:       log.WithField("component", "sim"),
	}
}

func (s *Simulator) Engine() *membrane.Engine { return s.engine }

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

// Run advances the engine cfg.Ticks times. On a failed tick or a cancelled
// context it returns the partial result together with the error.
func (s *Simulator) Run(ctx context.Context, cfg Config) (*Result, error) {
	side := s.engine.Side()
	if err := validateConfig(cfg, side); err != nil {
		return nil, err
	}
	px, py := cfg.ProbeX, cfg.ProbeY
	if px < 0 && py < 0 {
		c := membrane.CenterIndex(side)
		px, py = c%side, c/side
	}

	result := &Result{
		Trace:   make([]Sample, 0, cfg.Ticks),
		Metrics: make(map[string]float64),
	}
	for _, m := range s.metrics {
		m.Reset()
	}

	var ticker *time.Ticker
	if cfg.Interval > 0 {
		ticker = time.NewTicker(cfg.Interval)
		defer ticker.Stop()
	}

	start := time.Now()
	defer func() {
		result.Elapsed = time.Since(start)
		result.Stats = s.engine.Stats()
		result.Final = s.engine.Snapshot()
		for _, m := range s.metrics {
			result.Metrics[m.Name()] = m.Value()
		}
	}()

	for i := 0; i < cfg.Ticks; i++ {
		if ticker != nil && i > 0 {
			select {
			case <-ctx.Done():
				return result, ctx.Err()
			case <-ticker.C:
			}
		}
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		t := s.engine.Time()
		clampedBefore := s.engine.Stats().ClampedNodes
		g, err := s.engine.Advance()
		if err != nil {
			s.log.WithError(err).WithField("tick", i).Error("tick failed")
			return result, err
		}

		k, p := metrics.GridEnergy(g)
		result.Trace = append(result.Trace, Sample{
			Tick:   i,
			Time:   t,
			Center: g.Nodes[membrane.CenterIndex(g.Side)].Height,
			Probe:  g.At(px, py).Height,
			Energy: k + p,
			MaxAbs: metrics.MaxAbsHeight(g),
		})
		result.TicksTaken++

		clamped := s.engine.Stats().ClampedNodes - clampedBefore
		for _, m := range s.metrics {
			if cm, ok := m.(ClampMetric); ok {
				cm.ObserveClamped(clamped)
			}
			m.Observe(g, t)
		}
		for _, obs := range s.observers {
			obs.OnTick(i, t, g)
		}
	}

	s.log.WithFields(logrus.Fields{
		"ticks":   result.TicksTaken,
		"elapsed": time.Since(start),
	}).Debug("run finished")
	return result, nil
}

func validateConfig(cfg Config, side int) error {
	if cfg.Ticks <= 0 {
		return fmt.Errorf("%w: ticks must be positive, got %d", membrane.ErrConfiguration, cfg.Ticks)
	}
	if cfg.Interval < 0 {
		return fmt.Errorf("%w: interval must not be negative, got %v", membrane.ErrConfiguration, cfg.Interval)
	}
	if cfg.ProbeX < 0 && cfg.ProbeY < 0 {
		return nil
	}
	if cfg.ProbeX < 0 || cfg.ProbeX >= side || cfg.ProbeY < 0 || cfg.ProbeY >= side {
		return fmt.Errorf("%w: probe (%d,%d) outside %dx%d grid", membrane.ErrConfiguration, cfg.ProbeX, cfg.ProbeY, side, side)
	}
	return nil
}
