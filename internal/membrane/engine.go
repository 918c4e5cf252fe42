package membrane

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// EngineConfig describes a simulation before its first tick.
type EngineConfig struct {
	Side     int
	TimeStep float32
	Damping  float32
	Gravity  bool
	Stepper  Stepper
	Guard    Guard
	Logger   logrus.FieldLogger
}

// Stats counts what the guard did over the engine's lifetime.
type Stats struct {
	Ticks        int
	ClampedNodes int
	ClampedTicks int
}

// Engine owns the two generations and the oscillator clock. Each tick reads
// the current generation, writes the other one, forces the boundary, then
// swaps.
type Engine struct {
	mu sync.Mutex

	cur, next *Grid
	stepper   Stepper
	guard     Guard
	log       logrus.FieldLogger

	damping float32
	accel   float32
	dt      float32
	time    float32
	stats   Stats
}

func NewEngine(cfg EngineConfig) (*Engine, error) {
	if cfg.Side == 0 {
		cfg.Side = DefaultSide
	}
	if cfg.TimeStep == 0 {
		cfg.TimeStep = DefaultTimeStep
	}
	if cfg.Damping == 0 {
		cfg.Damping = DefaultDamping
	}
	if !validDamping(cfg.Damping) {
		return nil, fmt.Errorf("%w: damping must be positive and finite, got %f", ErrConfiguration, cfg.Damping)
	}
	if cfg.Stepper == nil {
		cfg.Stepper = NewCPUStepper(0)
	}
	if cfg.Guard.Policy == "" {
		cfg.Guard.Policy = PolicyError
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}

	cur, err := NewGrid(cfg.Side)
	if err != nil {
		return nil, err
	}
	next, _ := NewGrid(cfg.Side)

	return &Engine{
		cur:     cur,
		next:    next,
		stepper: cfg.Stepper,
		guard:   cfg.Guard,
		log:     cfg.Logger.WithField("component", "engine"),
		damping: cfg.Damping,
		accel:   AccelerationFor(cfg.Gravity),
		dt:      cfg.TimeStep,
	}, nil
}

// Tick runs one generation forcing the center with the current clock, then
// advances the clock by dt. The returned grid is a private copy.
// On failure the engine keeps its previous generation and clock.
func (e *Engine) Tick(dt, acceleration float32) (*Grid, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.tickLocked(dt, acceleration); err != nil {
		return nil, err
	}
	return e.cur.Clone(), nil
}

// Advance ticks with the configured time step and the toggled acceleration.
func (e *Engine) Advance() (*Grid, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.tickLocked(e.dt, e.accel); err != nil {
		return nil, err
	}
	return e.cur.Clone(), nil
}

func (e *Engine) tickLocked(dt, acceleration float32) error {
	p := Params{Damping: e.damping, Acceleration: acceleration, Time: e.time}

	if err := e.stepper.Step(e.cur, e.next, p); err != nil {
		return &TickError{Tick: e.stats.Ticks, Time: e.time, Index: -1, Wrapped: err}
	}
	ApplyBoundary(e.next, p)

	clamped, idx, err := e.guard.Check(e.next)
	if err != nil {
		return &TickError{Tick: e.stats.Ticks, Time: e.time, Index: idx, Wrapped: err}
	}
	if clamped > 0 {
		e.stats.ClampedNodes += clamped
		e.stats.ClampedTicks++
		e.log.WithFields(logrus.Fields{
			"tick":    e.stats.Ticks,
			"clamped": clamped,
			"bound":   e.guard.Bound,
		}).Warn("clamped diverging nodes")
	}

	e.cur, e.next = e.next, e.cur
	e.time += dt
	e.stats.Ticks++
	return nil
}

// SetAcceleration flips gravity; it takes effect on the next Advance.
func (e *Engine) SetAcceleration(enabled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.accel = AccelerationFor(enabled)
}

func (e *Engine) Acceleration() float32 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.accel
}

func (e *Engine) GravityEnabled() bool {
	return e.Acceleration() != 0
}

func (e *Engine) Time() float32 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.time
}

func (e *Engine) TimeStep() float32 { return e.dt }

func (e *Engine) Side() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cur.Side
}

func (e *Engine) StepperName() string { return e.stepper.Name() }

func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}

// Snapshot returns a copy of the current generation.
func (e *Engine) Snapshot() *Grid {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cur.Clone()
}

// Load replaces the current generation, e.g. with a seeded initial state.
func (e *Engine) Load(g *Grid) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cur.CopyFrom(g)
}

// Reset zeroes both generations and the clock. Gravity is left as is.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cur.Reset()
	e.next.Reset()
	e.time = 0
	e.stats = Stats{}
}

// Resize reallocates both generations at the new side and restarts the clock.
func (e *Engine) Resize(side int) error {
	cur, err := NewGrid(side)
	if err != nil {
		return err
	}
	next, _ := NewGrid(side)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.cur, e.next = cur, next
	e.time = 0
	e.stats = Stats{}
	e.log.WithField("side", side).Info("grid resized")
	return nil
}
