package gui

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/san-kum/fibersim/internal/mesh"
)

// maxBatchVertices is the largest multiple of three addressable by uint16
// indices.
const maxBatchVertices = 65535 - 65535%3

// batch is one DrawTriangles call.
type batch struct {
	vertices []ebiten.Vertex
	indices  []uint16
}

// toScreen maps NDC to pixels: (-1, 1) is the top-left corner.
func toScreen(ndc [2]float32, w, h int) (x, y float32) {
	return (ndc[0] + 1) / 2 * float32(w), (1 - ndc[1]) / 2 * float32(h)
}

// appendBatches converts the drawable triangles of m into vertex batches
// reusing the storage in dst. Every vertex samples the center of a 1x1
// source image and carries its mesh color.
func appendBatches(dst []batch, m *mesh.Mesh, w, h int) []batch {
	dst = dst[:0]
	if m == nil {
		return dst
	}
	var cur *batch
	for _, tri := range m.Triangles() {
		if cur == nil || len(cur.vertices)+3 > maxBatchVertices {
			if len(dst) < cap(dst) {
				dst = dst[:len(dst)+1]
				cur = &dst[len(dst)-1]
				cur.vertices, cur.indices = cur.vertices[:0], cur.indices[:0]
			} else {
				dst = append(dst, batch{})
				cur = &dst[len(dst)-1]
			}
		}
		for _, v := range tri {
			x, y := toScreen(v.NDC, w, h)
			cur.indices = append(cur.indices, uint16(len(cur.vertices)))
			cur.vertices = append(cur.vertices, ebiten.Vertex{
				DstX:   x,
				DstY:   y,
				SrcX:   0.5,
				SrcY:   0.5,
				ColorR: v.Color[0],
				ColorG: v.Color[1],
				ColorB: v.Color[2],
				ColorA: v.Color[3],
			})
		}
	}
	return dst
}

func toColor(c [4]float32) color.NRGBA {
	ch := func(v float32) uint8 {
		if v <= 0 {
			return 0
		}
		if v >= 1 {
			return 255
		}
		return uint8(v*255 + 0.5)
	}
	return color.NRGBA{R: ch(c[0]), G: ch(c[1]), B: ch(c[2]), A: ch(c[3])}
}
