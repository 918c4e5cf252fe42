package membrane

import "math"

// PinnedIndices returns the four nodes held at rest every tick.
// The third pin is side*side-side-2, which is cell (side-2, side-2) and not
// the bottom-left corner; the rendered ripple pattern depends on that cell.
func PinnedIndices(side int) [4]int {
	return [4]int{0, side - 1, side*side - side - 2, side*side - 1}
}

// CenterIndex returns the driven node.
func CenterIndex(side int) int {
	return side*side/2 - side/2
}

// ApplyBoundary overwrites the pins with (0, 0) and the center with
// (sin(time), 0). It must run on the output generation after Step, so the
// forced value feeds neighbor averages from the following tick on.
func ApplyBoundary(g *Grid, p Params) {
	for _, idx := range PinnedIndices(g.Side) {
		g.Nodes[idx] = Node{}
	}
	g.Nodes[CenterIndex(g.Side)] = Node{Height: float32(math.Sin(float64(p.Time)))}
}

// IsForced reports whether idx is a pin or the driven center.
func IsForced(side, idx int) bool {
	if idx == CenterIndex(side) {
		return true
	}
	for _, pin := range PinnedIndices(side) {
		if pin == idx {
			return true
		}
	}
	return false
}
