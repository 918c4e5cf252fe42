package projection

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// Camera is the viewer. Direction need not be unit length.
type Camera struct {
	Position  r3.Vec
	Direction r3.Vec
}

// Screen describes the projection plane. Size is carried for layout
// compatibility with stored views and is not used by the projection.
type Screen struct {
	Size   float64
	Indent float64
	Top    r3.Vec
}

// Point is a projected position in normalized device style coordinates.
// Values are not guaranteed to fall inside [-1, 1].
type Point struct {
	X, Y float64
}

func DefaultCamera() Camera {
	return Camera{
		Position:  r3.Vec{X: -1, Y: -1, Z: 5},
		Direction: r3.Vec{X: 0.5, Y: 0.5, Z: -0.4},
	}
}

func DefaultScreen() Screen {
	return Screen{Size: 1, Indent: 1, Top: r3.Vec{Z: 1}}
}
