package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/fibersim/internal/membrane"
)

// MaxAbsHeight returns the largest |h| in g.
func MaxAbsHeight(g *membrane.Grid) float64 {
	h := g.Heights()
	if len(h) == 0 {
		return 0
	}
	return math.Max(floats.Max(h), -floats.Min(h))
}

// Amplitude tracks the peak |h| over the run.
type Amplitude struct {
	peak float64
}

func NewAmplitude() *Amplitude { return &Amplitude{} }

func (a *Amplitude) Name() string { return "max_amplitude" }

func (a *Amplitude) Observe(g *membrane.Grid, t float32) {
	if m := MaxAbsHeight(g); m > a.peak {
		a.peak = m
	}
}

func (a *Amplitude) Value() float64 { return a.peak }
func (a *Amplitude) Reset()         { a.peak = 0 }

// Roughness averages the standard deviation of the height field.
type Roughness struct {
	sum     float64
	samples int
}

func NewRoughness() *Roughness { return &Roughness{} }

func (r *Roughness) Name() string { return "roughness" }

func (r *Roughness) Observe(g *membrane.Grid, t float32) {
	_, std := stat.MeanStdDev(g.Heights(), nil)
	r.sum += std
	r.samples++
}

func (r *Roughness) Value() float64 {
	if r.samples == 0 {
		return 0
	}
	return r.sum / float64(r.samples)
}

func (r *Roughness) Reset() {
	r.sum = 0
	r.samples = 0
}
