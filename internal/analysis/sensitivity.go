package analysis

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/fibersim/internal/membrane"
)

// EngineFactory builds a fresh, identically configured engine.
type EngineFactory func() (*membrane.Engine, error)

// SeparationRate runs a reference engine and a copy whose node height is
// offset by eps, and returns the mean per-tick log growth of their height
// distance:
//
//	rate = ln(|h'(n) - h(n)| / eps) / n
//
// A negative rate means the membrane forgets the perturbation.
func SeparationRate(newEngine EngineFactory, node int, eps float32, ticks int) (float64, error) {
	if eps <= 0 || ticks <= 0 {
		return 0, fmt.Errorf("%w: need eps > 0 and ticks > 0", membrane.ErrConfiguration)
	}
	ref, err := newEngine()
	if err != nil {
		return 0, err
	}
	pert, err := newEngine()
	if err != nil {
		return 0, err
	}

	g := pert.Snapshot()
	if node < 0 || node >= g.Len() {
		return 0, fmt.Errorf("%w: node %d outside grid", membrane.ErrConfiguration, node)
	}
	g.Nodes[node].Height += eps
	if err := pert.Load(g); err != nil {
		return 0, err
	}
	d0 := floats.Distance(ref.Snapshot().Heights(), g.Heights(), 2)

	var a, b *membrane.Grid
	for i := 0; i < ticks; i++ {
		if a, err = ref.Advance(); err != nil {
			return 0, err
		}
		if b, err = pert.Advance(); err != nil {
			return 0, err
		}
	}

	sep := floats.Distance(a.Heights(), b.Heights(), 2)
	if sep == 0 || d0 == 0 {
		return math.Inf(-1), nil
	}
	return math.Log(sep/d0) / float64(ticks), nil
}
