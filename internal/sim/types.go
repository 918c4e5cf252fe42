package sim

import (
	"time"

	"github.com/san-kum/fibersim/internal/membrane"
)

type Metric interface {
	Name() string
	Observe(g *membrane.Grid, t float32)
	Value() float64
	Reset()
}

// ClampMetric is a Metric that also wants to know how many nodes the guard
// clamped in each tick. ObserveClamped is called just before Observe.
type ClampMetric interface {
	Metric
	ObserveClamped(nodes int)
}

// Observer sees every published generation. g is a private copy and may be
// retained.
type Observer interface {
	OnTick(tick int, t float32, g *membrane.Grid)
}

type ObserverFunc func(tick int, t float32, g *membrane.Grid)

func (f ObserverFunc) OnTick(tick int, t float32, g *membrane.Grid) { f(tick, t, g) }

// Config bounds one run. Interval 0 ticks as fast as possible.
// ProbeX and ProbeY select the traced node; negative means the driven center.
type Config struct {
	Ticks    int
	Interval time.Duration
	ProbeX   int
	ProbeY   int
}

// Sample is one row of the run trace. Time is the clock value the tick
// forced the center with.
type Sample struct {
	Tick   int     `csv:"tick"`
	Time   float32 `csv:"time"`
	Center float32 `csv:"center"`
	Probe  float32 `csv:"probe"`
	Energy float64 `csv:"energy"`
	MaxAbs float64 `csv:"max_abs"`
}

type Result struct {
	Trace      []Sample
	Final      *membrane.Grid
	Metrics    map[string]float64
	TicksTaken int
	Stats      membrane.Stats
	Elapsed    time.Duration
}

// ProbeSeries returns the probe column of the trace.
func (r *Result) ProbeSeries() []float64 {
	out := make([]float64, len(r.Trace))
	for i, s := range r.Trace {
		out[i] = float64(s.Probe)
	}
	return out
}
