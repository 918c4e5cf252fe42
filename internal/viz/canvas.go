package viz

import (
	"math"
	"strings"
)

const blankCell = 0x2800

// Braille cells hold 2x4 dots:
// 1 4
// 2 5
// 3 6
// 7 8
var dotBits = [4][2]rune{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

// Canvas is a character grid addressed in dots. A canvas of Width x Height
// cells has (Width*2) x (Height*4) dots.
type Canvas struct {
	Width, Height int
	cells         [][]rune
}

func NewCanvas(w, h int) *Canvas {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	c := &Canvas{Width: w, Height: h, cells: make([][]rune, h)}
	for i := range c.cells {
		c.cells[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

// Dots returns the canvas size in dots.
func (c *Canvas) Dots() (w, h int) { return c.Width * 2, c.Height * 4 }

func (c *Canvas) cell(x, y int) (row, col int, bit rune, ok bool) {
	if x < 0 || y < 0 {
		return 0, 0, 0, false
	}
	col, row = x/2, y/4
	if col >= c.Width || row >= c.Height {
		return 0, 0, 0, false
	}
	return row, col, dotBits[y%4][x%2], true
}

// Set raises the dot at (x, y). Out of range dots are ignored.
func (c *Canvas) Set(x, y int) {
	if row, col, bit, ok := c.cell(x, y); ok {
		c.cells[row][col] |= bit
	}
}

func (c *Canvas) Unset(x, y int) {
	if row, col, bit, ok := c.cell(x, y); ok {
		c.cells[row][col] &^= bit
	}
}

// IsSet reports whether the dot at (x, y) is raised.
func (c *Canvas) IsSet(x, y int) bool {
	row, col, bit, ok := c.cell(x, y)
	return ok && c.cells[row][col]&bit != 0
}

func (c *Canvas) Clear() {
	for i := range c.cells {
		for j := range c.cells[i] {
			c.cells[i][j] = blankCell
		}
	}
}

// Count returns the number of raised dots.
func (c *Canvas) Count() int {
	n := 0
	for _, row := range c.cells {
		for _, r := range row {
			for bits := r - blankCell; bits != 0; bits &= bits - 1 {
				n++
			}
		}
	}
	return n
}

// DrawLine draws a line using Bresenham's algorithm.
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx, sy := -1, -1
	if x0 < x1 {
		sx = 1
	}
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

// ToDots maps normalized device coordinates onto the canvas. NDC (-1, 1) is
// the top-left dot and (1, -1) the bottom-right one; ok is false outside.
func (c *Canvas) ToDots(ndc [2]float32) (x, y int, ok bool) {
	nx, ny := float64(ndc[0]), float64(ndc[1])
	if math.IsNaN(nx) || math.IsNaN(ny) || nx < -1 || nx > 1 || ny < -1 || ny > 1 {
		return 0, 0, false
	}
	w, h := c.Dots()
	x = int(math.Round((nx + 1) / 2 * float64(w-1)))
	y = int(math.Round((1 - ny) / 2 * float64(h-1)))
	return x, y, true
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.cells {
		b.WriteString(string(row))
		b.WriteByte('\n')
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
