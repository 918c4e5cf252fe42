package projection

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/fibersim/internal/membrane"
)

// ErrDegenerateProjection marks a single point that has no screen position.
// Callers drop that vertex; the frame carries on.
var ErrDegenerateProjection = errors.New("projection: degenerate projection")

const (
	parallelTolerance = 1e-9
	rayTolerance      = 1e-12
)

// Projector holds the per-frame screen basis derived from a camera and screen.
type Projector struct {
	cam    Camera
	screen Screen

	dirLen  float64
	d       r3.Vec
	center  r3.Vec
	onTop   r3.Vec
	onRight r3.Vec
}

// NewProjector validates the view and precomputes the screen basis.
// It fails with membrane.ErrConfiguration when the basis cannot be built.
func NewProjector(cam Camera, screen Screen) (*Projector, error) {
	dir, top := cam.Direction, screen.Top
	dirLen, topLen := r3.Norm(dir), r3.Norm(top)

	switch {
	case !finiteVec(cam.Position) || !finiteVec(dir) || !finiteVec(top):
		return nil, fmt.Errorf("%w: camera and screen vectors must be finite", membrane.ErrConfiguration)
	case dirLen == 0:
		return nil, fmt.Errorf("%w: camera direction is zero", membrane.ErrConfiguration)
	case topLen == 0:
		return nil, fmt.Errorf("%w: screen top is zero", membrane.ErrConfiguration)
	case screen.Indent == 0 || math.IsNaN(screen.Indent) || math.IsInf(screen.Indent, 0):
		return nil, fmt.Errorf("%w: screen indent must be finite and non-zero, got %g", membrane.ErrConfiguration, screen.Indent)
	case r3.Norm(r3.Cross(top, dir)) <= parallelTolerance*dirLen*topLen:
		return nil, fmt.Errorf("%w: screen top %v is parallel to camera direction %v", membrane.ErrConfiguration, top, dir)
	}

	d := r3.Scale(-screen.Indent, dir)
	center := r3.Sub(cam.Position, d)

	cosa := r3.Dot(top, dir) / (topLen * dirLen)
	rawTop := r3.Sub(r3.Sub(r3.Add(center, top), r3.Scale(cosa, dir)), center)
	if r3.Norm(rawTop) == 0 {
		return nil, fmt.Errorf("%w: screen top has no component across the view", membrane.ErrConfiguration)
	}
	onTop := r3.Unit(rawTop)

	return &Projector{
		cam:     cam,
		screen:  screen,
		dirLen:  dirLen,
		d:       d,
		center:  center,
		onTop:   onTop,
		onRight: r3.Cross(dir, onTop),
	}, nil
}

func (p *Projector) Camera() Camera { return p.cam }
func (p *Projector) Screen() Screen { return p.screen }

// Basis returns the screen axes.
func (p *Projector) Basis() (onTop, onRight r3.Vec) { return p.onTop, p.onRight }

// Project maps a world point to screen coordinates.
func (p *Projector) Project(world r3.Vec) (Point, error) {
	ray := r3.Sub(world, p.cam.Position)
	if r3.Norm(ray) == 0 {
		return Point{}, fmt.Errorf("%w: point %v coincides with the camera", ErrDegenerateProjection, world)
	}
	vc := r3.Unit(ray)

	denom := r3.Dot(p.cam.Direction, vc)
	if math.Abs(denom) <= rayTolerance*p.dirLen {
		return Point{}, fmt.Errorf("%w: ray to %v is parallel to the screen plane", ErrDegenerateProjection, world)
	}
	t := r3.Dot(p.cam.Direction, p.d) / denom

	raw := r3.Add(p.cam.Position, r3.Scale(t, vc))
	if !finiteVec(raw) {
		return Point{}, fmt.Errorf("%w: intersection for %v is not finite", ErrDegenerateProjection, world)
	}
	offset := r3.Sub(raw, p.center)

	top, err := signedComponent(p.onTop, offset)
	if err != nil {
		return Point{}, err
	}
	right, err := signedComponent(p.onRight, offset)
	if err != nil {
		return Point{}, err
	}
	return Point{X: right, Y: -top}, nil
}

// signedComponent returns |axis*cos| with the sign of cos, where cos is the
// cosine between axis and v.
func signedComponent(axis, v r3.Vec) (float64, error) {
	l := r3.Norm(axis) * r3.Norm(v)
	if l == 0 {
		return 0, fmt.Errorf("%w: zero-length basis decomposition", ErrDegenerateProjection)
	}
	cosa := r3.Dot(axis, v) / l
	if math.IsNaN(cosa) {
		return 0, fmt.Errorf("%w: undefined angle to screen axis", ErrDegenerateProjection)
	}
	if cosa == 0 {
		return 0, nil
	}
	return r3.Norm(r3.Scale(cosa, axis)) * cosa / math.Abs(cosa), nil
}

func finiteVec(v r3.Vec) bool {
	for _, c := range [3]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}
