package membrane

import (
	"fmt"

	"github.com/aquilax/go-perlin"
)

const (
	perlinAlpha = 2.0
	perlinBeta  = 2.0
	perlinOct   = 3
)

// InitMode selects the initial height field.
type InitMode string

const (
	InitFlat  InitMode = "flat"
	InitNoise InitMode = "noise"
)

// Seed fills g according to mode. Flat is the quiescent all-zero start;
// noise lays perlin noise of the given amplitude over the heights with zero
// velocity. Forced nodes are left to the first tick.
func Seed(g *Grid, mode InitMode, seed int64, amplitude float32) error {
	switch mode {
	case InitFlat, "":
		g.Reset()
	case InitNoise:
		SeedNoise(g, seed, amplitude)
	default:
		return fmt.Errorf("%w: unknown init mode %q", ErrConfiguration, mode)
	}
	return nil
}

func SeedNoise(g *Grid, seed int64, amplitude float32) {
	p := perlin.NewPerlin(perlinAlpha, perlinBeta, perlinOct, seed)
	side := float64(g.Side)
	for y := 0; y < g.Side; y++ {
		for x := 0; x < g.Side; x++ {
			n := p.Noise2D(float64(x)/side*4, float64(y)/side*4)
			g.Nodes[g.Index(x, y)] = Node{Height: amplitude * float32(n)}
		}
	}
}
