// Package export writes projected frames and traces as SVG.
package export

import (
	"fmt"
	"strings"

	"github.com/san-kum/fibersim/internal/mesh"
	"github.com/san-kum/fibersim/internal/viz"
)

func header(sb *strings.Builder, width, height float64, background string) {
	fmt.Fprintf(sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="%s"/>
`, width, height, width, height, background)
}

// Hex formats an RGBA color in [0, 1] as #rrggbb; alpha is ignored.
func Hex(c [4]float32) string {
	ch := func(v float32) int {
		return int(min(max(v, 0), 1)*255 + 0.5)
	}
	return fmt.Sprintf("#%02x%02x%02x", ch(c[0]), ch(c[1]), ch(c[2]))
}

// MeshToSVG draws every drawable triangle of m as a polygon filled with the
// mean of its vertex colors, over the background color. NDC (-1, 1) maps to
// the top-left corner.
func MeshToSVG(m *mesh.Mesh, width, height int, background [4]float32) string {
	var sb strings.Builder
	header(&sb, float64(width), float64(height), Hex(background))
	if m != nil {
		sb.WriteString("<g stroke=\"none\">\n")
		for _, tri := range m.Triangles() {
			var fill [4]float32
			sb.WriteString(`<polygon points="`)
			for k, v := range tri {
				x := (float64(v.NDC[0]) + 1) / 2 * float64(width)
				y := (1 - float64(v.NDC[1])) / 2 * float64(height)
				if k > 0 {
					sb.WriteByte(' ')
				}
				fmt.Fprintf(&sb, "%.2f,%.2f", x, y)
				for c := range fill {
					fill[c] += v.Color[c] / 3
				}
			}
			fmt.Fprintf(&sb, `" fill="%s"/>`+"\n", Hex(fill))
		}
		sb.WriteString("</g>\n")
	}
	sb.WriteString("</svg>\n")
	return sb.String()
}

// CanvasToSVG draws each raised Braille dot as a circle.
func CanvasToSVG(c *viz.Canvas, scale float64) string {
	if c == nil {
		return ""
	}
	w, h := c.Dots()

	var sb strings.Builder
	header(&sb, float64(w)*scale, float64(h)*scale, "#0a0a0a")
	sb.WriteString("<g fill=\"#8080ff\">\n")
	r := scale * 0.4
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if c.IsSet(x, y) {
				fmt.Fprintf(&sb, `<circle cx="%.1f" cy="%.1f" r="%.1f"/>`+"\n",
					float64(x)*scale+scale/2, float64(y)*scale+scale/2, r)
			}
		}
	}
	sb.WriteString("</g>\n</svg>\n")
	return sb.String()
}

// SeriesToSVG plots values against their index as a polyline, padded by a
// tenth of the range on every side. Fewer than two values give "".
func SeriesToSVG(values []float64, width, height int, stroke string) string {
	if len(values) < 2 {
		return ""
	}
	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	rng := hi - lo
	if rng == 0 {
		rng = 1
	}
	lo -= rng * 0.1
	rng *= 1.2
	step := float64(width) / float64(len(values)-1)

	var sb strings.Builder
	header(&sb, float64(width), float64(height), "#0a0a0a")
	fmt.Fprintf(&sb, `<path fill="none" stroke="%s" stroke-width="1.5" d="M`, stroke)
	for i, v := range values {
		x := float64(i) * step
		y := float64(height) - (v-lo)/rng*float64(height)
		if i > 0 {
			sb.WriteString(" L")
		}
		fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
	}
	sb.WriteString("\"/>\n</svg>\n")
	return sb.String()
}
