package analysis

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/fibersim/internal/membrane"
)

// SweepPoint is the probe response at one damping value.
type SweepPoint struct {
	Damping float32
	Peak    float64
	RMS     float64
}

// DampingSweep runs one engine per damping value in [min, max], discards the
// first transient ticks, then records |h| at probe for record ticks.
func DampingSweep(
	newEngine func(damping float32) (*membrane.Engine, error),
	min, max float32,
	steps, transient, record int,
	probe int,
) ([]SweepPoint, error) {
	if steps < 2 {
		steps = 2
	}
	if record <= 0 {
		return nil, fmt.Errorf("%w: record must be positive", membrane.ErrConfiguration)
	}
	step := (max - min) / float32(steps-1)

	points := make([]SweepPoint, 0, steps)
	samples := make([]float64, record)
	for i := 0; i < steps; i++ {
		damping := min + float32(i)*step
		if i == steps-1 {
			damping = max
		}
		eng, err := newEngine(damping)
		if err != nil {
			return nil, err
		}
		if probe < 0 || probe >= eng.Side()*eng.Side() {
			return nil, fmt.Errorf("%w: probe %d outside grid", membrane.ErrConfiguration, probe)
		}

		for t := 0; t < transient; t++ {
			if _, err := eng.Advance(); err != nil {
				return nil, err
			}
		}
		for t := 0; t < record; t++ {
			g, err := eng.Advance()
			if err != nil {
				return nil, err
			}
			samples[t] = float64(g.Nodes[probe].Height)
		}

		abs := make([]float64, record)
		for j, s := range samples {
			abs[j] = math.Abs(s)
		}
		points = append(points, SweepPoint{
			Damping: damping,
			Peak:    floats.Max(abs),
			RMS:     floats.Norm(samples, 2) / math.Sqrt(float64(record)),
		})
	}
	return points, nil
}
