package membrane

import (
	"fmt"
	"math"
	"runtime"
)

// Stepper advances prev into next. Implementations must not write prev.
type Stepper interface {
	Name() string
	Step(prev, next *Grid, p Params) error
}

// Step applies the update rule to every node of prev and writes the result
// into next:
//
//	mid = mean(valid neighbor heights)
//	v'  = v/damping + (mid-h)/2
//	h'  = h + v' - acceleration
//
// Boundary forcing is not applied here; see ApplyBoundary.
func Step(prev, next *Grid, p Params) error {
	if err := CheckGenerations(prev, next, p); err != nil {
		return err
	}
	stepRange(prev, next, p, 0, len(prev.Nodes))
	return nil
}

// CPUStepper runs Step across goroutines, each owning a disjoint index range.
type CPUStepper struct {
	Workers  int
	MinChunk int
}

func NewCPUStepper(workers int) *CPUStepper {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &CPUStepper{Workers: workers, MinChunk: 64}
}

func (s *CPUStepper) Name() string { return "cpu" }

func (s *CPUStepper) Step(prev, next *Grid, p Params) error {
	if err := CheckGenerations(prev, next, p); err != nil {
		return err
	}
	ParallelFor(len(prev.Nodes), s.Workers, s.MinChunk, func(start, end int) {
		stepRange(prev, next, p, start, end)
	})
	return nil
}

// CheckGenerations validates a prev/next pair before any Stepper writes next.
func CheckGenerations(prev, next *Grid, p Params) error {
	if prev == nil || next == nil {
		return fmt.Errorf("%w: nil generation", ErrConfiguration)
	}
	if prev.Side < MinSide {
		return fmt.Errorf("%w: side %d is below minimum %d", ErrConfiguration, prev.Side, MinSide)
	}
	if prev.Side != next.Side || len(prev.Nodes) != len(next.Nodes) || len(prev.Nodes) != prev.Side*prev.Side {
		return fmt.Errorf("%w: prev side %d (%d nodes), next side %d (%d nodes)",
			ErrDimensionMismatch, prev.Side, len(prev.Nodes), next.Side, len(next.Nodes))
	}
	if &prev.Nodes[0] == &next.Nodes[0] {
		return ErrAliasedBuffers
	}
	if !validDamping(p.Damping) {
		return fmt.Errorf("%w: damping must be positive and finite, got %f", ErrConfiguration, p.Damping)
	}
	return nil
}

// validDamping also rejects NaN, which compares false against zero.
func validDamping(d float32) bool {
	f := float64(d)
	return f > 0 && !math.IsInf(f, 0)
}

func stepRange(prev, next *Grid, p Params, start, end int) {
	src, dst := prev.Nodes, next.Nodes
	n := len(src)
	offsets := neighborOffsets(prev.Side)

	for idx := start; idx < end; idx++ {
		node := src[idx]

		var sum, count float32
		for _, off := range offsets {
			if j := idx + off; j >= 0 && j < n {
				sum += src[j].Height
				count++
			}
		}
		mid := node.Height
		if count > 0 {
			mid = sum / count
		}

		v := float32(node.Velocity/p.Damping) + float32((mid-node.Height)/2)
		dst[idx] = Node{Height: float32(node.Height+v) - p.Acceleration, Velocity: v}
	}
}
