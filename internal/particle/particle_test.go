package particle_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/driftsim/internal/particle"
)

// linearLocator maps one grid cell to a tenth of a degree and one level
// to ten metres.
type linearLocator struct {
	calls int
}

func (l *linearLocator) Geo2Grid(lon, lat float64) (float64, float64, bool) {
	l.calls++
	if lon < 0 || lat < 0 {
		return 0, 0, false
	}
	return lon * 10, lat * 10, true
}

func (l *linearLocator) Grid2Geo(x, y float64) (float64, float64) {
	l.calls++
	return x / 10, y / 10
}

func (l *linearLocator) Depth2Z(x, y, depth float64) float64 { l.calls++; return -depth / 10 }
func (l *linearLocator) Z2Depth(x, y, z float64) float64     { l.calls++; return -10 * z }

type counter struct {
	name  string
	steps int
	kill  bool
}

func (c *counter) Name() string { return c.name }

func (c *counter) ApplyStep(p *particle.Particle, t, dt float64) {
	c.steps++
	if c.kill {
		p.Kill(particle.DeadCold)
	}
}

var _ = Describe("GridPoint", func() {
	var (
		loc *linearLocator
		gp  particle.GridPoint
	)

	BeforeEach(func() {
		loc = &linearLocator{}
		gp = particle.NewGridPoint(true, 5)
	})

	It("starts unplaced", func() {
		Expect(gp.X()).To(Equal(-1.0))
		Expect(gp.Z()).To(Equal(-1.0))
		Expect(math.IsNaN(gp.Lon())).To(BeTrue())
		Expect(math.IsNaN(gp.Depth())).To(BeTrue())
	})

	It("converts geographic coordinates lazily", func() {
		gp.SetLon(0.5)
		gp.SetLat(0.3)
		gp.SetDepth(-20)
		Expect(gp.Geo2Grid(loc)).To(BeTrue())
		Expect(gp.X()).To(BeNumerically("~", 5, 1e-12))
		Expect(gp.Y()).To(BeNumerically("~", 3, 1e-12))
		Expect(gp.Z()).To(BeNumerically("~", 2, 1e-12))
		Expect(loc.calls).To(Equal(2))

		Expect(gp.Geo2Grid(loc)).To(BeTrue())
		gp.Grid2Geo(loc)
		Expect(loc.calls).To(Equal(2), "nothing changed, nothing recomputed")
	})

	It("rejects positions outside the domain", func() {
		gp.SetLon(-1)
		gp.SetLat(1)
		Expect(gp.Geo2Grid(loc)).To(BeFalse())
	})

	It("accumulates increments until applied", func() {
		gp.SetX(4)
		gp.SetY(4)
		gp.SetZ(2)
		Expect(gp.Increment(0.5, 0.25, 1, false, false)).To(Succeed())
		Expect(gp.Increment(0.5, 0.25, 0.5, false, false)).To(Succeed())
		dx, dy, dz := gp.Move()
		Expect([]float64{dx, dy, dz}).To(Equal([]float64{1, 0.5, 1.5}))

		gp.ApplyMove()
		Expect(gp.X()).To(Equal(5.0))
		Expect(gp.Y()).To(Equal(4.5))
		Expect(gp.Z()).To(Equal(3.5))
		Expect(gp.GeoStale()).To(BeTrue())

		gp.Grid2Geo(loc)
		Expect(gp.Lon()).To(BeNumerically("~", 0.5, 1e-12))
		Expect(gp.Depth()).To(BeNumerically("~", -35, 1e-12))
		Expect(gp.GeoStale()).To(BeFalse())
	})

	It("lets an exclusive vertical move replace earlier ones", func() {
		gp.SetZ(1)
		Expect(gp.Increment(0.1, 0, 0.8, false, false)).To(Succeed())
		Expect(gp.Increment(0, 0, -0.5, false, true)).To(Succeed())
		Expect(gp.Increment(0.1, 0, 2, false, false)).To(Succeed())
		dx, _, dz := gp.Move()
		Expect(dx).To(BeNumerically("~", 0.2, 1e-12))
		Expect(dz).To(Equal(-0.5))

		Expect(gp.Increment(0, 0, 1, false, true)).To(MatchError(particle.ErrExclusiveMove))

		gp.ApplyMove()
		Expect(gp.Increment(0, 0, 1, false, true)).To(Succeed(), "exclusivity resets each step")
	})

	It("bounds z to the level range", func() {
		gp.SetZ(7)
		Expect(gp.Z()).To(Equal(4.0))
		gp.SetZ(-3)
		Expect(gp.Z()).To(Equal(0.0))
	})

	It("ignores the vertical in 2D", func() {
		flat := particle.NewGridPoint(false, 1)
		flat.SetX(3)
		flat.SetY(3)
		Expect(flat.Increment(1, 1, 5, false, false)).To(Succeed())
		flat.ApplyMove()
		x, y, z := flat.Grid()
		Expect([]float64{x, y, z}).To(Equal([]float64{4, 4, 0}))
	})
})

var _ = Describe("Particle", func() {
	var p *particle.Particle

	BeforeEach(func() {
		p = particle.New(7, true, 5)
		p.SetX(3)
		p.SetY(3)
		p.SetZ(2)
		p.Grid2Geo(&linearLocator{})
	})

	It("is born alive", func() {
		Expect(p.IsLiving()).To(BeTrue())
		Expect(p.Cause()).To(Equal(particle.Alive))
		Expect(p.Index).To(Equal(7))
	})

	It("keeps only the first cause of death", func() {
		p.Kill(particle.DeadBeach)
		p.Kill(particle.DeadOut)
		Expect(p.IsLiving()).To(BeFalse())
		Expect(p.Cause()).To(Equal(particle.DeadBeach))
		Expect(math.IsNaN(p.Lon())).To(BeTrue())
		Expect(math.IsNaN(p.Lat())).To(BeTrue())
		Expect(math.IsNaN(p.Depth())).To(BeTrue())
	})

	It("is never resurrected", func() {
		p.Kill(particle.DeadOut)
		p.SetX(4)
		p.Kill(particle.Alive)
		Expect(p.IsLiving()).To(BeFalse())
		Expect(p.Cause()).To(Equal(particle.DeadOut))
	})

	It("ages by the absolute step", func() {
		p.IncrementAge(-60)
		p.IncrementAge(60)
		Expect(p.Age).To(Equal(120.0))
	})

	It("runs traits in order and stops at death", func() {
		first := &counter{name: "growth", kill: true}
		second := &counter{name: "recruitment"}
		p.AddTrait(first)
		p.AddTrait(second)
		p.ApplyTraits(0, 60)
		Expect(first.steps).To(Equal(1))
		Expect(second.steps).To(Equal(0))
		Expect(p.Cause()).To(Equal(particle.DeadCold))
	})

	It("replaces a trait with the same name", func() {
		p.AddTrait(&counter{name: "growth"})
		replacement := &counter{name: "growth"}
		p.AddTrait(replacement)
		Expect(p.Traits()).To(HaveLen(1))
		tr, ok := p.Trait("growth")
		Expect(ok).To(BeTrue())
		Expect(tr).To(BeIdenticalTo(replacement))
		_, ok = p.Trait("missing")
		Expect(ok).To(BeFalse())
	})

	It("locks and unlocks", func() {
		p.Lock()
		Expect(p.IsLocked()).To(BeTrue())
		p.Unlock()
		Expect(p.IsLocked()).To(BeFalse())
	})

	It("names every cause", func() {
		for _, c := range particle.Causes {
			Expect(c.String()).NotTo(HavePrefix("cause("))
		}
		Expect(particle.DeadHot.Code()).To(Equal(5))
	})
})
