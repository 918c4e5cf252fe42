package membrane

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrConfiguration indicates a grid or engine setting that cannot start a run.
	ErrConfiguration = errors.New("membrane: invalid configuration")

	// ErrNumericInstability indicates a node diverged past the sanity bound or became NaN/Inf.
	ErrNumericInstability = errors.New("membrane: numeric instability (state diverged)")

	// ErrAliasedBuffers indicates Step was handed the same buffer for both generations.
	ErrAliasedBuffers = errors.New("membrane: previous and next generation share storage")

	// ErrDimensionMismatch indicates generations of different sizes.
	ErrDimensionMismatch = errors.New("membrane: dimension mismatch between generations")
)

// TickError wraps a failed tick with simulation context.
// Index is the offending node, or -1 when the failure is not node specific.
type TickError struct {
	Tick    int
	Time    float32
	Index   int
	Wrapped error
}

func (e *TickError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("tick %d (t=%.4f) node %d: %v", e.Tick, e.Time, e.Index, e.Wrapped)
	}
	return fmt.Sprintf("tick %d (t=%.4f): %v", e.Tick, e.Time, e.Wrapped)
}

func (e *TickError) Unwrap() error {
	return e.Wrapped
}
