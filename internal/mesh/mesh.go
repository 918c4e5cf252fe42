// Package mesh turns a height field into projected, colored triangles.
//
// Every grid cell contributes two triangles in a fixed corner order, so
// vertex i always belongs to cell ((i/6)%(side-1), (i/6)/(side-1)) and takes
// its color from Palette[i%6]. Vertices that cannot be projected stay in the
// vertex list with Valid unset; Triangles skips any triangle touching one.
package mesh

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/fibersim/internal/membrane"
	"github.com/san-kum/fibersim/internal/projection"
)

// VerticesPerCell is two triangles of three corners each.
const VerticesPerCell = 6

// CornerOffsets is added to a cell's origin to reach each of its six corners.
var CornerOffsets = [VerticesPerCell][2]int{
	{0, 0}, {1, 0}, {0, 1},
	{1, 0}, {0, 1}, {1, 1},
}

// Palette holds the per-corner RGBA colors.
var Palette = [VerticesPerCell][4]float32{
	{0.5, 0.5, 0.5, 1},
	{0.5, 0.5, 1, 1},
	{0.5, 1, 0.5, 1},
	{0.5, 0.5, 1, 1},
	{0.5, 1, 0.5, 1},
	{1, 1, 1, 1},
}

// ClearColor is the background the mesh is drawn over.
var ClearColor = [4]float32{0.3, 0.1, 0.3, 1}

type Vertex struct {
	NDC   [2]float32
	Color [4]float32
	Valid bool
}

type Triangle [3]Vertex

type Mesh struct {
	Side     int
	Vertices []Vertex

	// Degenerate counts vertices the projector rejected.
	Degenerate int
	// Dropped counts triangles left out of Triangles.
	Dropped int
}

// VertexCount returns 6*(side-1)^2, or 0 for grids too small to hold a cell.
func VertexCount(side int) int {
	if side < 2 {
		return 0
	}
	c := side - 1
	return VerticesPerCell * c * c
}

// Corner returns the grid coordinates that vertex i samples.
func Corner(side, i int) (x, y int) {
	cell := i / VerticesPerCell
	off := CornerOffsets[i%VerticesPerCell]
	return cell%(side-1) + off[0], cell/(side-1) + off[1]
}

// WorldPoint returns (x, y, height) for vertex i.
func WorldPoint(g *membrane.Grid, i int) r3.Vec {
	x, y := Corner(g.Side, i)
	return r3.Vec{X: float64(x), Y: float64(y), Z: float64(g.At(x, y).Height)}
}

// Build projects every vertex of g. Projection runs in parallel over vertex
// chunks; g must not be mutated until Build returns.
func Build(g *membrane.Grid, p *projection.Projector) *Mesh {
	m := &Mesh{}
	if g == nil || p == nil {
		return m
	}
	m.Side = g.Side
	m.Vertices = make([]Vertex, VertexCount(g.Side))

	membrane.ParallelFor(len(m.Vertices), 0, 256, func(start, end int) {
		for i := start; i < end; i++ {
			v := Vertex{Color: Palette[i%VerticesPerCell]}
			pt, err := p.Project(WorldPoint(g, i))
			if err == nil {
				v.NDC = [2]float32{float32(pt.X), float32(pt.Y)}
				v.Valid = true
			}
			m.Vertices[i] = v
		}
	})

	for i := 0; i < len(m.Vertices); i += 3 {
		bad := false
		for _, v := range m.Vertices[i : i+3] {
			if !v.Valid {
				m.Degenerate++
				bad = true
			}
		}
		if bad {
			m.Dropped++
		}
	}
	return m
}

// Triangles returns the triangles whose three vertices all projected.
func (m *Mesh) Triangles() []Triangle {
	out := make([]Triangle, 0, len(m.Vertices)/3-m.Dropped)
	for i := 0; i+2 < len(m.Vertices); i += 3 {
		t := Triangle{m.Vertices[i], m.Vertices[i+1], m.Vertices[i+2]}
		if t[0].Valid && t[1].Valid && t[2].Valid {
			out = append(out, t)
		}
	}
	return out
}
