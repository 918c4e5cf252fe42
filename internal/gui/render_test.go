package gui

import (
	"image/color"
	"testing"

	"github.com/san-kum/fibersim/internal/membrane"
	"github.com/san-kum/fibersim/internal/mesh"
	"github.com/san-kum/fibersim/internal/projection"
)

func TestToScreen(t *testing.T) {
	tests := []struct {
		ndc  [2]float32
		x, y float32
	}{
		{[2]float32{-1, 1}, 0, 0},
		{[2]float32{1, -1}, 800, 600},
		{[2]float32{0, 0}, 400, 300},
	}
	for _, tt := range tests {
		x, y := toScreen(tt.ndc, 800, 600)
		if x != tt.x || y != tt.y {
			t.Errorf("toScreen(%v) = (%v, %v), want (%v, %v)", tt.ndc, x, y, tt.x, tt.y)
		}
	}
}

func TestAppendBatchesDefaultView(t *testing.T) {
	g, _ := membrane.NewGrid(membrane.DefaultSide)
	p, err := projection.NewProjector(projection.DefaultCamera(), projection.DefaultScreen())
	if err != nil {
		t.Fatal(err)
	}
	m := mesh.Build(g, p)

	batches := appendBatches(nil, m, 800, 800)
	if len(batches) != 1 {
		t.Fatalf("got %d batches, want 1", len(batches))
	}
	b := batches[0]
	if len(b.vertices) != len(m.Vertices) || len(b.indices) != len(m.Vertices) {
		t.Fatalf("got %d vertices / %d indices, want %d", len(b.vertices), len(b.indices), len(m.Vertices))
	}
	for i, v := range b.vertices {
		want := mesh.Palette[i%mesh.VerticesPerCell]
		if v.ColorR != want[0] || v.ColorG != want[1] || v.ColorB != want[2] || v.ColorA != want[3] {
			t.Fatalf("vertex %d color = %v %v %v %v, want %v", i, v.ColorR, v.ColorG, v.ColorB, v.ColorA, want)
		}
		if int(b.indices[i]) != i {
			t.Fatalf("index %d = %d", i, b.indices[i])
		}
	}

	again := appendBatches(batches, m, 800, 800)
	if len(again) != 1 || len(again[0].vertices) != len(m.Vertices) {
		t.Error("reused batches should be rebuilt, not appended to")
	}
}

func TestAppendBatchesSplits(t *testing.T) {
	n := maxBatchVertices + 300
	m := &mesh.Mesh{Vertices: make([]mesh.Vertex, n)}
	for i := range m.Vertices {
		m.Vertices[i].Valid = true
	}
	batches := appendBatches(nil, m, 10, 10)
	if len(batches) != 2 {
		t.Fatalf("got %d batches, want 2", len(batches))
	}
	if len(batches[0].vertices) != maxBatchVertices || len(batches[1].vertices) != 300 {
		t.Errorf("batch sizes = %d, %d", len(batches[0].vertices), len(batches[1].vertices))
	}
	if batches[1].indices[0] != 0 {
		t.Error("second batch indices should restart at 0")
	}
}

func TestAppendBatchesSkipsInvalid(t *testing.T) {
	m := &mesh.Mesh{Vertices: make([]mesh.Vertex, 6), Dropped: 1}
	for i := range m.Vertices {
		m.Vertices[i].Valid = i != 1
	}
	batches := appendBatches(nil, m, 10, 10)
	if len(batches) != 1 || len(batches[0].vertices) != 3 {
		t.Fatalf("expected one triangle, got %+v", batches)
	}
	if len(appendBatches(nil, nil, 10, 10)) != 0 {
		t.Error("nil mesh should produce no batches")
	}
}

func TestToColor(t *testing.T) {
	got := toColor(mesh.ClearColor)
	want := color.NRGBA{R: 77, G: 26, B: 77, A: 255}
	if got != want {
		t.Errorf("toColor = %v, want %v", got, want)
	}
	if toColor([4]float32{-1, 2, 0, 1}) != (color.NRGBA{R: 0, G: 255, B: 0, A: 255}) {
		t.Error("channels should clamp")
	}
}
