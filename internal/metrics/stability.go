package metrics

import (
	"math"

	"github.com/san-kum/fibersim/internal/membrane"
)

// Stability is the fraction of ticks in which every |h| stayed at or under
// the threshold and the guard clamped nothing. Clamped generations reach
// Observe already inside the bound, so the clamp count comes separately
// through ObserveClamped.
type Stability struct {
	threshold  float64
	violations int
	samples    int
	clamped    bool
}

func NewStability(threshold float64) *Stability {
	return &Stability{threshold: threshold}
}

func (s *Stability) Name() string { return "stability" }

// ObserveClamped records how many nodes the guard clamped in the tick about
// to be observed.
func (s *Stability) ObserveClamped(nodes int) {
	s.clamped = nodes > 0
}

func (s *Stability) Observe(g *membrane.Grid, t float32) {
	s.samples++
	if s.clamped {
		s.clamped = false
		s.violations++
		return
	}
	for _, n := range g.Nodes {
		if math.Abs(float64(n.Height)) > s.threshold {
			s.violations++
			break
		}
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
	s.clamped = false
}
