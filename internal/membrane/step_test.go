package membrane_test

import (
	"math"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/fibersim/internal/membrane"
)

func randomGrid(side int, seed int64) *membrane.Grid {
	g, err := membrane.NewGrid(side)
	Expect(err).NotTo(HaveOccurred())
	r := rand.New(rand.NewSource(seed))
	for i := range g.Nodes {
		g.Nodes[i] = membrane.Node{
			Height:   float32(r.Float64()*2 - 1),
			Velocity: float32(r.Float64()*0.5 - 0.25),
		}
	}
	return g
}

func expectedVelocity(prev *membrane.Grid, idx int) float64 {
	n := len(prev.Nodes)
	sum, count := 0.0, 0.0
	for _, off := range []int{-prev.Side, -1, 1, prev.Side} {
		if j := idx + off; j >= 0 && j < n {
			sum += float64(prev.Nodes[j].Height)
			count++
		}
	}
	h := float64(prev.Nodes[idx].Height)
	mid := h
	if count > 0 {
		mid = sum / count
	}
	return float64(prev.Nodes[idx].Velocity)/1.01 + (mid-h)/2
}

var _ = Describe("Step", func() {
	const side = 16

	var (
		prev, next *membrane.Grid
		params     membrane.Params
	)

	BeforeEach(func() {
		prev = randomGrid(side, 7)
		next, _ = membrane.NewGrid(side)
		params = membrane.DefaultParams()
	})

	DescribeTable("interior nodes follow the update rule",
		func(accel float32) {
			params.Acceleration = accel
			Expect(membrane.Step(prev, next, params)).To(Succeed())

			for idx := range next.Nodes {
				if membrane.IsForced(side, idx) {
					continue
				}
				got := next.Nodes[idx]
				Expect(float64(got.Velocity)).To(BeNumerically("~", expectedVelocity(prev, idx), 1e-6), "node %d", idx)
				Expect(got.Height).To(Equal(float32(prev.Nodes[idx].Height+got.Velocity)-accel), "node %d", idx)
			}
		},
		Entry("without gravity", float32(0)),
		Entry("with gravity", membrane.GravityAcceleration),
	)

	It("never writes the previous generation", func() {
		before := prev.Clone()
		Expect(membrane.Step(prev, next, params)).To(Succeed())
		Expect(prev.Nodes).To(Equal(before.Nodes))
	})

	It("only decays velocity when the neighborhood is level", func() {
		for i := range prev.Nodes {
			prev.Nodes[i] = membrane.Node{Height: 0.5, Velocity: 0.3}
		}
		Expect(membrane.Step(prev, next, params)).To(Succeed())

		idx := prev.Index(5, 5)
		Expect(next.Nodes[idx].Velocity).To(Equal(float32(0.3) / 1.01))
	})

	It("leaves a level node at rest unchanged", func() {
		for i := range prev.Nodes {
			prev.Nodes[i] = membrane.Node{Height: 0.5}
		}
		Expect(membrane.Step(prev, next, params)).To(Succeed())

		for idx, n := range next.Nodes {
			Expect(n.Height).To(Equal(float32(0.5)), "node %d", idx)
			Expect(n.Velocity).To(BeZero(), "node %d", idx)
		}
	})

	It("averages across the row seam", func() {
		prev.Reset()
		x0 := prev.Index(0, 3)
		prev.Nodes[x0-1] = membrane.Node{Height: 4}
		Expect(prev.Neighbors(x0)).To(ContainElement(x0 - 1))

		Expect(membrane.Step(prev, next, params)).To(Succeed())
		Expect(next.Nodes[x0].Velocity).To(BeNumerically("~", 0.5, 1e-6))
	})

	It("matches the serial rule when fanned out", func() {
		big := randomGrid(40, 11)
		serial, _ := membrane.NewGrid(40)
		parallel, _ := membrane.NewGrid(40)

		Expect(membrane.Step(big, serial, params)).To(Succeed())
		stepper := &membrane.CPUStepper{Workers: 4, MinChunk: 64}
		Expect(stepper.Step(big, parallel, params)).To(Succeed())
		Expect(parallel.Nodes).To(Equal(serial.Nodes))
	})

	It("rejects aliased generations", func() {
		Expect(membrane.Step(prev, prev, params)).To(MatchError(membrane.ErrAliasedBuffers))
	})

	It("rejects generations of different sizes", func() {
		other, _ := membrane.NewGrid(side + 1)
		Expect(membrane.Step(prev, other, params)).To(MatchError(membrane.ErrDimensionMismatch))
	})

	It("rejects a zero damping divisor", func() {
		Expect(membrane.Step(prev, next, membrane.Params{})).To(MatchError(membrane.ErrConfiguration))
	})

	It("rejects a NaN or infinite damping divisor", func() {
		for _, d := range []float32{float32(math.NaN()), float32(math.Inf(1))} {
			Expect(membrane.Step(prev, next, membrane.Params{Damping: d})).To(MatchError(membrane.ErrConfiguration))
		}
	})
})

var _ = Describe("ApplyBoundary", func() {
	DescribeTable("pins and center are forced for any state and time",
		func(side int, t float32) {
			g := randomGrid(side, int64(side))
			membrane.ApplyBoundary(g, membrane.Params{Damping: membrane.DefaultDamping, Time: t})

			for _, idx := range membrane.PinnedIndices(side) {
				Expect(g.Nodes[idx]).To(Equal(membrane.Node{}), "pin %d", idx)
			}
			c := g.Nodes[membrane.CenterIndex(side)]
			Expect(c.Height).To(Equal(float32(math.Sin(float64(t)))))
			Expect(c.Velocity).To(BeZero())
		},
		Entry("side 16 at t=0", 16, float32(0)),
		Entry("side 16 at t=pi/2", 16, float32(math.Pi/2)),
		Entry("side 16 at t=-3.7", 16, float32(-3.7)),
		Entry("side 3 at t=1", 3, float32(1)),
		Entry("side 33 at t=12.5", 33, float32(12.5)),
	)

	It("keeps the historical pin indices", func() {
		Expect(membrane.PinnedIndices(16)).To(Equal([4]int{0, 15, 238, 255}))
		Expect(membrane.CenterIndex(16)).To(Equal(120))
	})

	It("shows the forced value to neighbors one tick later", func() {
		prev, _ := membrane.NewGrid(16)
		next, _ := membrane.NewGrid(16)
		p := membrane.Params{Damping: membrane.DefaultDamping, Time: math.Pi / 2}
		c := membrane.CenterIndex(16)

		Expect(membrane.Step(prev, next, p)).To(Succeed())
		membrane.ApplyBoundary(next, p)
		Expect(next.Nodes[c].Height).To(BeNumerically("~", 1, 1e-6))
		Expect(next.Nodes[c+1].Height).To(BeZero())

		after, _ := membrane.NewGrid(16)
		Expect(membrane.Step(next, after, p)).To(Succeed())
		Expect(after.Nodes[c+1].Velocity).To(BeNumerically("~", 0.125, 1e-6))
	})
})
