package mesh

import (
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/fibersim/internal/membrane"
	"github.com/san-kum/fibersim/internal/projection"
)

func TestVertexCount(t *testing.T) {
	tests := []struct {
		side int
		want int
	}{
		{1, 0},
		{2, 6},
		{3, 24},
		{16, 1350},
	}

	for _, tt := range tests {
		if got := VertexCount(tt.side); got != tt.want {
			t.Errorf("VertexCount(%d) = %d, want %d", tt.side, got, tt.want)
		}
	}
}

func TestCorner(t *testing.T) {
	tests := []struct {
		name  string
		side  int
		i     int
		wantX int
		wantY int
	}{
		{"first corner", 16, 0, 0, 0},
		{"second corner", 16, 1, 1, 0},
		{"third corner", 16, 2, 0, 1},
		{"shared edge", 16, 3, 1, 0},
		{"far corner", 16, 5, 1, 1},
		{"next cell", 16, 6, 1, 0},
		{"next row", 16, 6 * 15, 0, 1},
		{"last vertex", 16, 1349, 15, 15},
		{"small grid", 3, 6*3 + 5, 2, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y := Corner(tt.side, tt.i)
			if x != tt.wantX || y != tt.wantY {
				t.Errorf("Corner(%d, %d) = (%d, %d), want (%d, %d)", tt.side, tt.i, x, y, tt.wantX, tt.wantY)
			}
		})
	}
}

func TestWorldPointUsesHeight(t *testing.T) {
	g, _ := membrane.NewGrid(4)
	g.Nodes[g.Index(1, 1)].Height = 0.75

	got := WorldPoint(g, 5)
	want := r3.Vec{X: 1, Y: 1, Z: 0.75}
	if got != want {
		t.Errorf("WorldPoint = %v, want %v", got, want)
	}
}

func TestBuildDefaultView(t *testing.T) {
	g, _ := membrane.NewGrid(membrane.DefaultSide)
	p, err := projection.NewProjector(projection.DefaultCamera(), projection.DefaultScreen())
	if err != nil {
		t.Fatal(err)
	}

	m := Build(g, p)
	if len(m.Vertices) != 1350 {
		t.Fatalf("vertices = %d, want 1350", len(m.Vertices))
	}
	if m.Dropped != 0 || m.Degenerate != 0 {
		t.Errorf("dropped %d degenerate %d, want none", m.Dropped, m.Degenerate)
	}
	if n := len(m.Triangles()); n != 450 {
		t.Errorf("triangles = %d, want 450", n)
	}

	for i, v := range m.Vertices {
		if v.Color != Palette[i%6] {
			t.Fatalf("vertex %d color %v, want %v", i, v.Color, Palette[i%6])
		}
		pt, _ := p.Project(WorldPoint(g, i))
		if v.NDC != [2]float32{float32(pt.X), float32(pt.Y)} {
			t.Fatalf("vertex %d NDC %v, want %v", i, v.NDC, pt)
		}
	}
}

func TestBuildDropsDegenerateTriangles(t *testing.T) {
	g, _ := membrane.NewGrid(membrane.DefaultSide)
	// Lift node (0,0) into the camera so vertex 0 cannot be projected.
	g.Nodes[0].Height = 1

	p, err := projection.NewProjector(
		projection.Camera{Position: r3.Vec{Z: 1}, Direction: r3.Vec{Z: -1}},
		projection.Screen{Size: 1, Indent: 1, Top: r3.Vec{Y: 1}},
	)
	if err != nil {
		t.Fatal(err)
	}

	m := Build(g, p)
	if m.Vertices[0].Valid {
		t.Error("vertex 0 should be invalid")
	}
	if m.Vertices[0].Color != Palette[0] {
		t.Error("invalid vertex should keep its palette color")
	}
	if m.Degenerate != 1 || m.Dropped != 1 {
		t.Errorf("degenerate %d dropped %d, want 1 and 1", m.Degenerate, m.Dropped)
	}
	if n := len(m.Triangles()); n != 449 {
		t.Errorf("triangles = %d, want 449", n)
	}
}

func TestBuildNil(t *testing.T) {
	m := Build(nil, nil)
	if len(m.Vertices) != 0 || len(m.Triangles()) != 0 {
		t.Error("nil inputs should produce an empty mesh")
	}
}
