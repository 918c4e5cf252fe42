package membrane

import (
	"fmt"
	"math"
)

const (
	DefaultSide = 16
	MinSide     = 3
)

// Node is the simulated state of one grid cell.
type Node struct {
	Height   float32
	Velocity float32
}

// Grid is a square height field stored row-major: idx = y*Side + x.
type Grid struct {
	Side  int
	Nodes []Node
}

func NewGrid(side int) (*Grid, error) {
	if side < MinSide {
		return nil, fmt.Errorf("%w: side %d is below minimum %d", ErrConfiguration, side, MinSide)
	}
	return &Grid{Side: side, Nodes: make([]Node, side*side)}, nil
}

func (g *Grid) Len() int { return len(g.Nodes) }

func (g *Grid) Index(x, y int) int { return y*g.Side + x }

func (g *Grid) At(x, y int) Node { return g.Nodes[y*g.Side+x] }

func (g *Grid) Clone() *Grid {
	c := &Grid{Side: g.Side, Nodes: make([]Node, len(g.Nodes))}
	copy(c.Nodes, g.Nodes)
	return c
}

// CopyFrom overwrites g with src. Both grids must have the same side.
func (g *Grid) CopyFrom(src *Grid) error {
	if g.Side != src.Side || len(g.Nodes) != len(src.Nodes) {
		return fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, g.Side, src.Side)
	}
	copy(g.Nodes, src.Nodes)
	return nil
}

// Reset zeroes every node.
func (g *Grid) Reset() {
	for i := range g.Nodes {
		g.Nodes[i] = Node{}
	}
}

func (g *Grid) IsValid() bool {
	for _, n := range g.Nodes {
		if !finite(n.Height) || !finite(n.Velocity) {
			return false
		}
	}
	return true
}

// Heights returns the height field widened to float64.
func (g *Grid) Heights() []float64 {
	h := make([]float64, len(g.Nodes))
	for i, n := range g.Nodes {
		h[i] = float64(n.Height)
	}
	return h
}

// Velocities returns the velocity field widened to float64.
func (g *Grid) Velocities() []float64 {
	v := make([]float64, len(g.Nodes))
	for i, n := range g.Nodes {
		v[i] = float64(n.Velocity)
	}
	return v
}

// Neighbors returns the flat indices the update rule averages for idx.
// A candidate is kept whenever it lands inside [0, side*side), so column 0
// and column side-1 pick up the adjacent row's far cell through -1/+1.
func (g *Grid) Neighbors(idx int) []int {
	n := len(g.Nodes)
	out := make([]int, 0, 4)
	for _, off := range neighborOffsets(g.Side) {
		if j := idx + off; j >= 0 && j < n {
			out = append(out, j)
		}
	}
	return out
}

func neighborOffsets(side int) [4]int {
	return [4]int{-side, -1, 1, side}
}

func finite(v float32) bool {
	f := float64(v)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
