package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/fibersim/internal/membrane"
	"github.com/san-kum/fibersim/internal/mesh"
)

// DrawMesh draws the edges of every drawable triangle in m. Edges with an
// endpoint outside the unit NDC square are skipped. It returns the number of
// triangles drawn.
func DrawMesh(c *Canvas, m *mesh.Mesh) int {
	if m == nil {
		return 0
	}
	drawn := 0
	for _, tri := range m.Triangles() {
		var pts [3][2]int
		var in [3]bool
		for k, v := range tri {
			pts[k][0], pts[k][1], in[k] = c.ToDots(v.NDC)
		}
		hit := false
		for k := 0; k < 3; k++ {
			j := (k + 1) % 3
			if in[k] && in[j] {
				c.DrawLine(pts[k][0], pts[k][1], pts[j][0], pts[j][1])
				hit = true
			}
		}
		if hit {
			drawn++
		}
	}
	return drawn
}

var shades = []rune(" .:-=+*#%@")

// Heatmap renders node heights top row first, two characters per node.
// Heights are scaled by scale and clamped to [-1, 1]; positive heights use the
// theme's primary color, negative ones its secondary.
func Heatmap(g *membrane.Grid, th Theme, scale float32) string {
	if g == nil || g.Side == 0 {
		return ""
	}
	if scale <= 0 {
		scale = 1
	}
	up := lipgloss.NewStyle().Foreground(th.Primary)
	down := lipgloss.NewStyle().Foreground(th.Secondary)

	var b strings.Builder
	for y := g.Side - 1; y >= 0; y-- {
		for x := 0; x < g.Side; x++ {
			h := g.At(x, y).Height * scale
			if h > 1 {
				h = 1
			} else if h < -1 {
				h = -1
			}
			mag := h
			if mag < 0 {
				mag = -mag
			}
			r := shades[int(mag*float32(len(shades)-1))]
			cell := string([]rune{r, r})
			if h < 0 {
				b.WriteString(down.Render(cell))
			} else {
				b.WriteString(up.Render(cell))
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}
