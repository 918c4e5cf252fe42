package membrane_test

import (
	"errors"
	"io"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"

	"github.com/san-kum/fibersim/internal/membrane"
)

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

var _ = Describe("Engine", func() {
	var eng *membrane.Engine

	BeforeEach(func() {
		var err error
		eng, err = membrane.NewEngine(membrane.EngineConfig{Side: 16, Logger: quietLogger()})
		Expect(err).NotTo(HaveOccurred())
	})

	It("stays quiescent from a flat start", func() {
		g, err := eng.Tick(membrane.DefaultTimeStep, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(g.Side).To(Equal(16))
		for idx, n := range g.Nodes {
			Expect(n).To(Equal(membrane.Node{}), "node %d", idx)
		}
	})

	It("forces the center with the clock before advancing it", func() {
		_, err := eng.Tick(0.5, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(eng.Time()).To(Equal(float32(0.5)))

		g, err := eng.Tick(0.5, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(g.Nodes[membrane.CenterIndex(16)].Height).To(Equal(float32(math.Sin(float64(float32(0.5))))))
		Expect(eng.Stats().Ticks).To(Equal(2))
	})

	It("maps the gravity toggle to the acceleration bias", func() {
		Expect(eng.Acceleration()).To(BeZero())
		eng.SetAcceleration(true)
		Expect(eng.Acceleration()).To(Equal(membrane.GravityAcceleration))
		Expect(eng.GravityEnabled()).To(BeTrue())

		g, err := eng.Advance()
		Expect(err).NotTo(HaveOccurred())
		Expect(g.At(3, 4).Height).To(Equal(-membrane.GravityAcceleration))

		eng.SetAcceleration(false)
		Expect(eng.Acceleration()).To(BeZero())
	})

	It("hands out snapshots that later ticks cannot change", func() {
		eng.SetAcceleration(true)
		first, err := eng.Advance()
		Expect(err).NotTo(HaveOccurred())
		kept := first.Clone()

		for i := 0; i < 3; i++ {
			_, err = eng.Advance()
			Expect(err).NotTo(HaveOccurred())
		}
		Expect(first.Nodes).To(Equal(kept.Nodes))
	})

	It("fails the tick on divergence and keeps the previous generation", func() {
		seeded, _ := membrane.NewGrid(16)
		seeded.Nodes[seeded.Index(4, 4)].Height = float32(math.NaN())
		Expect(eng.Load(seeded)).To(Succeed())

		_, err := eng.Advance()
		Expect(err).To(MatchError(membrane.ErrNumericInstability))

		var tickErr *membrane.TickError
		Expect(errors.As(err, &tickErr)).To(BeTrue())
		Expect(tickErr.Tick).To(Equal(0))
		Expect(tickErr.Index).To(BeNumerically(">=", 0))

		Expect(eng.Time()).To(BeZero())
		Expect(eng.Stats().Ticks).To(BeZero())
	})

	It("clamps divergence when asked to", func() {
		clamping, err := membrane.NewEngine(membrane.EngineConfig{
			Side:   16,
			Guard:  membrane.Guard{Bound: 10, Policy: membrane.PolicyClamp},
			Logger: quietLogger(),
		})
		Expect(err).NotTo(HaveOccurred())

		seeded, _ := membrane.NewGrid(16)
		seeded.Nodes[seeded.Index(4, 4)].Height = 1000
		Expect(clamping.Load(seeded)).To(Succeed())

		g, err := clamping.Advance()
		Expect(err).NotTo(HaveOccurred())
		Expect(g.IsValid()).To(BeTrue())
		for _, n := range g.Nodes {
			Expect(n.Height).To(BeNumerically("<=", 10))
			Expect(n.Height).To(BeNumerically(">=", -10))
		}
		Expect(clamping.Stats().ClampedTicks).To(Equal(1))
		Expect(clamping.Stats().ClampedNodes).To(BeNumerically(">", 0))
	})

	It("reallocates both generations on resize", func() {
		_, _ = eng.Advance()
		Expect(eng.Resize(24)).To(Succeed())
		Expect(eng.Side()).To(Equal(24))
		Expect(eng.Time()).To(BeZero())

		g, err := eng.Advance()
		Expect(err).NotTo(HaveOccurred())
		Expect(g.Nodes).To(HaveLen(24 * 24))
	})

	It("refuses damping divisors that are not positive and finite", func() {
		for _, d := range []float32{-1, float32(math.NaN()), float32(math.Inf(1))} {
			_, err := membrane.NewEngine(membrane.EngineConfig{Side: 16, Damping: d, Logger: quietLogger()})
			Expect(err).To(MatchError(membrane.ErrConfiguration), "damping %v", d)
		}
	})

	It("refuses grids too small to pin", func() {
		_, err := membrane.NewEngine(membrane.EngineConfig{Side: 2})
		Expect(err).To(MatchError(membrane.ErrConfiguration))
		Expect(eng.Resize(1)).To(MatchError(membrane.ErrConfiguration))
		Expect(eng.Side()).To(Equal(16))
	})

	It("resets to a quiescent state", func() {
		eng.SetAcceleration(true)
		_, _ = eng.Advance()
		eng.Reset()
		Expect(eng.Time()).To(BeZero())
		for _, n := range eng.Snapshot().Nodes {
			Expect(n).To(Equal(membrane.Node{}))
		}
		Expect(eng.GravityEnabled()).To(BeTrue())
	})
})
