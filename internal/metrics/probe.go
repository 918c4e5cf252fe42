package metrics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/fibersim/internal/membrane"
)

// Probe records the height of one node every tick. Its value is the RMS of
// the recorded series.
type Probe struct {
	x, y   int
	series []float64
}

func NewProbe(x, y int) *Probe {
	return &Probe{x: x, y: y}
}

func (p *Probe) Name() string { return fmt.Sprintf("probe_rms(%d,%d)", p.x, p.y) }

func (p *Probe) Observe(g *membrane.Grid, t float32) {
	p.series = append(p.series, float64(g.At(p.x, p.y).Height))
}

func (p *Probe) Value() float64 {
	if len(p.series) == 0 {
		return 0
	}
	return floats.Norm(p.series, 2) / math.Sqrt(float64(len(p.series)))
}

func (p *Probe) Reset() { p.series = p.series[:0] }

// Series returns a copy of the recorded heights.
func (p *Probe) Series() []float64 {
	out := make([]float64, len(p.series))
	copy(out, p.series)
	return out
}

// DriveEffort averages |h| of the driven center, i.e. how hard the forcer
// pushes over the run.
type DriveEffort struct {
	sum     float64
	samples int
}

func NewDriveEffort() *DriveEffort { return &DriveEffort{} }

func (d *DriveEffort) Name() string { return "drive_effort" }

func (d *DriveEffort) Observe(g *membrane.Grid, t float32) {
	h := g.Nodes[membrane.CenterIndex(g.Side)].Height
	if h < 0 {
		h = -h
	}
	d.sum += float64(h)
	d.samples++
}

func (d *DriveEffort) Value() float64 {
	if d.samples == 0 {
		return 0
	}
	return d.sum / float64(d.samples)
}

func (d *DriveEffort) Reset() {
	d.sum = 0
	d.samples = 0
}
