package membrane

import (
	"fmt"
	"math"
)

// InstabilityPolicy selects how Guard reacts to a diverged node.
type InstabilityPolicy string

const (
	PolicyError InstabilityPolicy = "error"
	PolicyClamp InstabilityPolicy = "clamp"
)

const DefaultBound float32 = 1e6

// Guard keeps NaN/Inf and runaway values out of published generations.
type Guard struct {
	Bound  float32
	Policy InstabilityPolicy
}

func DefaultGuard() Guard {
	return Guard{Bound: DefaultBound, Policy: PolicyError}
}

func ParsePolicy(s string) (InstabilityPolicy, error) {
	switch InstabilityPolicy(s) {
	case PolicyError, "":
		return PolicyError, nil
	case PolicyClamp:
		return PolicyClamp, nil
	}
	return "", fmt.Errorf("%w: unknown instability policy %q", ErrConfiguration, s)
}

// Check scans g. Under PolicyError it returns the first offending index and
// ErrNumericInstability without touching g. Under PolicyClamp it clamps every
// offending node into [-Bound, Bound] (NaN becomes 0) and returns how many
// nodes it changed.
func (gd Guard) Check(g *Grid) (clamped int, index int, err error) {
	bound := gd.Bound
	if bound <= 0 {
		bound = DefaultBound
	}
	for i, n := range g.Nodes {
		if withinBound(n.Height, bound) && withinBound(n.Velocity, bound) {
			continue
		}
		if gd.Policy != PolicyClamp {
			return 0, i, fmt.Errorf("%w: h=%g v=%g exceeds bound %g", ErrNumericInstability, n.Height, n.Velocity, bound)
		}
		g.Nodes[i] = Node{Height: clamp(n.Height, bound), Velocity: clamp(n.Velocity, bound)}
		clamped++
	}
	return clamped, -1, nil
}

func withinBound(v, bound float32) bool {
	return finite(v) && v <= bound && v >= -bound
}

func clamp(v, bound float32) float32 {
	if math.IsNaN(float64(v)) {
		return 0
	}
	if v > bound {
		return bound
	}
	if v < -bound {
		return -bound
	}
	return v
}
