package projection_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/fibersim/internal/membrane"
	"github.com/san-kum/fibersim/internal/projection"
)

var _ = Describe("Projector", func() {
	var (
		cam    projection.Camera
		screen projection.Screen
	)

	BeforeEach(func() {
		cam = projection.Camera{
			Position:  r3.Vec{Z: 5},
			Direction: r3.Vec{Z: -1},
		}
		screen = projection.Screen{Size: 1, Indent: 1, Top: r3.Vec{Y: 1}}
	})

	DescribeTable("maps points on the view axis to the screen center",
		func(direction r3.Vec, world r3.Vec) {
			cam.Direction = direction
			p, err := projection.NewProjector(cam, screen)
			Expect(err).NotTo(HaveOccurred())

			pt, err := p.Project(world)
			Expect(err).NotTo(HaveOccurred())
			Expect(pt.X).To(BeNumerically("~", 0, 1e-4))
			Expect(pt.Y).To(BeNumerically("~", 0, 1e-4))
		},
		Entry("origin, unit direction", r3.Vec{Z: -1}, r3.Vec{}),
		Entry("origin, scaled direction", r3.Vec{Z: -5}, r3.Vec{}),
		Entry("between camera and origin", r3.Vec{Z: -1}, r3.Vec{Z: 2}),
		Entry("beyond the origin", r3.Vec{Z: -1}, r3.Vec{Z: -10}),
	)

	It("builds an orthonormal basis for a unit direction", func() {
		p, err := projection.NewProjector(cam, screen)
		Expect(err).NotTo(HaveOccurred())

		onTop, onRight := p.Basis()
		Expect(onTop).To(Equal(r3.Vec{Y: 1}))
		Expect(onRight.X).To(BeNumerically("~", 1, 1e-12))
		Expect(r3.Dot(onTop, onRight)).To(BeNumerically("~", 0, 1e-12))
		Expect(r3.Dot(onRight, cam.Direction)).To(BeNumerically("~", 0, 1e-12))
	})

	It("returns the signed cosine against each screen axis", func() {
		p, err := projection.NewProjector(cam, screen)
		Expect(err).NotTo(HaveOccurred())

		want := 0.2 / math.Sqrt(4.04)

		pt, err := p.Project(r3.Vec{X: 1})
		Expect(err).NotTo(HaveOccurred())
		Expect(pt.X).To(BeNumerically("~", -want, 1e-9))
		Expect(pt.Y).To(BeNumerically("~", 0, 1e-12))

		pt, err = p.Project(r3.Vec{Y: 1})
		Expect(err).NotTo(HaveOccurred())
		Expect(pt.X).To(BeNumerically("~", 0, 1e-12))
		Expect(pt.Y).To(BeNumerically("~", want, 1e-9))
	})

	It("flags rays parallel to the screen plane", func() {
		p, err := projection.NewProjector(cam, screen)
		Expect(err).NotTo(HaveOccurred())

		pt, err := p.Project(r3.Vec{X: 1, Z: 5})
		Expect(err).To(MatchError(projection.ErrDegenerateProjection))
		Expect(pt).To(Equal(projection.Point{}))
	})

	It("flags a point at the camera", func() {
		p, err := projection.NewProjector(cam, screen)
		Expect(err).NotTo(HaveOccurred())

		_, err = p.Project(cam.Position)
		Expect(err).To(MatchError(projection.ErrDegenerateProjection))
	})

	DescribeTable("rejects views without a screen basis",
		func(mutate func(*projection.Camera, *projection.Screen)) {
			mutate(&cam, &screen)
			_, err := projection.NewProjector(cam, screen)
			Expect(err).To(MatchError(membrane.ErrConfiguration))
		},
		Entry("top parallel to direction", func(c *projection.Camera, s *projection.Screen) { s.Top = r3.Vec{Z: 1} }),
		Entry("top anti-parallel and scaled", func(c *projection.Camera, s *projection.Screen) { s.Top = r3.Vec{Z: -3} }),
		Entry("zero direction", func(c *projection.Camera, s *projection.Screen) { c.Direction = r3.Vec{} }),
		Entry("zero top", func(c *projection.Camera, s *projection.Screen) { s.Top = r3.Vec{} }),
		Entry("zero indent", func(c *projection.Camera, s *projection.Screen) { s.Indent = 0 }),
		Entry("NaN position", func(c *projection.Camera, s *projection.Screen) { c.Position.X = math.NaN() }),
	)

	It("ignores the screen size", func() {
		a, err := projection.NewProjector(cam, screen)
		Expect(err).NotTo(HaveOccurred())
		screen.Size = 40
		b, err := projection.NewProjector(cam, screen)
		Expect(err).NotTo(HaveOccurred())

		world := r3.Vec{X: 0.3, Y: -0.7, Z: 1}
		pa, _ := a.Project(world)
		pb, _ := b.Project(world)
		Expect(pb).To(Equal(pa))
	})

	It("projects the whole default grid to finite coordinates", func() {
		p, err := projection.NewProjector(projection.DefaultCamera(), projection.DefaultScreen())
		Expect(err).NotTo(HaveOccurred())

		for y := 0; y < 16; y++ {
			for x := 0; x < 16; x++ {
				pt, err := p.Project(r3.Vec{X: float64(x), Y: float64(y)})
				Expect(err).NotTo(HaveOccurred())
				Expect(math.Abs(pt.X)).To(BeNumerically("<=", 1))
				Expect(math.Abs(pt.Y)).To(BeNumerically("<=", 1))
			}
		}
	})
})
