package metrics

import (
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/fibersim/internal/membrane"
)

// GridEnergy returns 0.5*sum(v^2) and 0.5*sum(h^2) for g.
func GridEnergy(g *membrane.Grid) (kinetic, potential float64) {
	h, v := g.Heights(), g.Velocities()
	return 0.5 * floats.Dot(v, v), 0.5 * floats.Dot(h, h)
}

// Energy averages total grid energy over the observed ticks.
type Energy struct {
	total   float64
	last    float64
	samples int
}

func NewEnergy() *Energy { return &Energy{} }

func (e *Energy) Name() string { return "energy" }

func (e *Energy) Observe(g *membrane.Grid, t float32) {
	k, p := GridEnergy(g)
	e.last = k + p
	e.total += e.last
	e.samples++
}

func (e *Energy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.total / float64(e.samples)
}

// Last is the energy of the most recent generation.
func (e *Energy) Last() float64 { return e.last }

func (e *Energy) Reset() {
	e.total, e.last = 0, 0
	e.samples = 0
}
