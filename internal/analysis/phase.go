package analysis

import (
	"strings"

	"github.com/san-kum/fibersim/internal/membrane"
)

type PhasePoint struct{ X, Y float64 }

// PhasePortrait holds the (height, velocity) trajectory of one node.
type PhasePortrait struct {
	Node   int
	Points []PhasePoint
}

// GeneratePhasePortrait advances eng and records node after every tick.
func GeneratePhasePortrait(eng *membrane.Engine, node, ticks int) (*PhasePortrait, error) {
	portrait := &PhasePortrait{Node: node, Points: make([]PhasePoint, 0, ticks)}
	for i := 0; i < ticks; i++ {
		g, err := eng.Advance()
		if err != nil {
			return portrait, err
		}
		n := g.Nodes[node]
		portrait.Points = append(portrait.Points, PhasePoint{X: float64(n.Height), Y: float64(n.Velocity)})
	}
	return portrait, nil
}

// PhasePortraitToASCII plots the trajectory on a width x height character
// grid with 10% padding and axes where they cross the view.
func PhasePortraitToASCII(portrait *PhasePortrait, width, height int) string {
	if portrait == nil || len(portrait.Points) == 0 || width < 2 || height < 2 {
		return ""
	}

	minX, maxX := portrait.Points[0].X, portrait.Points[0].X
	minY, maxY := portrait.Points[0].Y, portrait.Points[0].Y
	for _, p := range portrait.Points {
		minX, maxX = min(minX, p.X), max(maxX, p.X)
		minY, maxY = min(minY, p.Y), max(maxY, p.Y)
	}

	rangeX, rangeY := maxX-minX, maxY-minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX, rangeY = maxX-minX, maxY-minY

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = []rune(strings.Repeat(" ", width))
	}

	for _, p := range portrait.Points {
		col := int((p.X - minX) / rangeX * float64(width-1))
		row := height - 1 - int((p.Y-minY)/rangeY*float64(height-1))
		if row >= 0 && row < height && col >= 0 && col < width {
			canvas[row][col] = '•'
		}
	}

	if minX <= 0 && maxX >= 0 {
		col := int((0 - minX) / rangeX * float64(width-1))
		for row := 0; row < height; row++ {
			if canvas[row][col] == ' ' {
				canvas[row][col] = '│'
			}
		}
	}
	if minY <= 0 && maxY >= 0 {
		row := height - 1 - int((0-minY)/rangeY*float64(height-1))
		for col := 0; col < width; col++ {
			if canvas[row][col] == ' ' {
				canvas[row][col] = '─'
			}
		}
	}

	var sb strings.Builder
	for _, row := range canvas {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	return sb.String()
}
