package action

import (
	"math"
	"math/rand"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/driftsim/internal/config"
	"github.com/san-kum/driftsim/internal/dataset"
	"github.com/san-kum/driftsim/internal/drift"
	"github.com/san-kum/driftsim/internal/interp"
	"github.com/san-kum/driftsim/internal/particle"
)

// newEnv builds a 30x20x10 analytic ocean, 100 m deep, with rho level k
// at 10k-95 m and temperature 11.25 + 0.5k degC.
func newEnv(t *testing.T, modify func(*dataset.AnalyticSpec)) (*Env, *interp.Interpolator) {
	t.Helper()
	spec := dataset.DefaultAnalyticSpec()
	if modify != nil {
		modify(&spec)
	}
	a, err := dataset.NewAnalytic(spec)
	require.NoError(t, err)
	log, _ := test.NewNullLogger()
	m := dataset.NewManager(a, []string{dataset.FieldTemp, dataset.FieldSalt, dataset.FieldKv}, drift.Forward, log)
	require.NoError(t, m.Init(spec.Start))
	ip := interp.New(m, log)
	return &Env{
		Field:             ip,
		Rand:              rand.New(rand.NewSource(42)),
		Log:               log,
		TransportDuration: 30 * oneDay,
	}, ip
}

func place(ip *interp.Interpolator, x, y, z float64) *particle.Particle {
	p := particle.New(0, ip.Is3D(), ip.Nz())
	p.SetX(x)
	p.SetY(y)
	p.SetZ(z)
	p.Grid2Geo(ip)
	return p
}

func TestAdvectionForward(t *testing.T) {
	env, ip := newEnv(t, nil)
	for _, scheme := range []string{"euler", "rk4"} {
		a, err := NewAdvection(env, config.Params{"scheme": scheme})
		require.NoError(t, err)
		assert.Equal(t, Physical, a.Phase())

		p := place(ip, 10, 10, 5)
		require.NoError(t, a.Execute(p, 0, 100))
		dx, dy, dz := p.Move()
		want := 0.1 * 100 * ip.Geometry().FaceInvDX(10, 10)
		assert.InDelta(t, want, dx, 1e-8, scheme)
		assert.InDelta(t, 0, dy, 1e-15)
		assert.InDelta(t, 0, dz, 1e-9)
	}
}

func TestAdvectionSwitches(t *testing.T) {
	env, ip := newEnv(t, func(s *dataset.AnalyticSpec) { s.V = 0.05 })
	a, err := NewAdvection(env, config.Params{"scheme": "euler", "horizontal": "false"})
	require.NoError(t, err)
	p := place(ip, 10, 10, 5)
	require.NoError(t, a.Execute(p, 0, 100))
	dx, dy, _ := p.Move()
	assert.Zero(t, dx)
	assert.Zero(t, dy)

	_, err = NewAdvection(env, config.Params{"scheme": "leapfrog"})
	assert.ErrorIs(t, err, drift.ErrInvalidConfig)
}

func TestAdvectionBackward(t *testing.T) {
	env, ip := newEnv(t, func(s *dataset.AnalyticSpec) { s.Start = 86400 })
	a, err := NewAdvection(env, config.Params{"scheme": "euler"})
	require.NoError(t, err)

	// a westward move of about 0.9 cells from x=1.3 crosses the edge
	p := place(ip, 1.3, 10, 5)
	require.NoError(t, a.Execute(p, 86400, -36000))
	assert.Equal(t, particle.DeadOut, p.Cause())

	p = place(ip, 10, 10, 5)
	require.NoError(t, a.Execute(p, 86400, -3600))
	dx, _, _ := p.Move()
	assert.InDelta(t, -0.1*3600*ip.Geometry().FaceInvDX(10, 10), dx, 1e-3)

	one, err := NewAdvection(env, config.Params{"scheme": "euler", "backward_corrector": false})
	require.NoError(t, err)
	p = place(ip, 1.3, 10, 5)
	require.NoError(t, one.Execute(p, 86400, -36000))
	assert.True(t, p.IsLiving())
}

func TestHDispStaysInWater(t *testing.T) {
	env, ip := newEnv(t, func(s *dataset.AnalyticSpec) {
		s.Grid.Depth = func(i, j int) float64 {
			if i == 12 {
				return -1
			}
			return 100
		}
	})
	h, err := NewHDisp(env, config.Params{"epsilon": 1e-3})
	require.NoError(t, err)

	moved := 0
	for n := 0; n < 200; n++ {
		p := place(ip, 11.3, 10, 5)
		require.NoError(t, h.Execute(p, 0, 3600))
		dx, dy, _ := p.Move()
		assert.True(t, ip.IsInWater(p.X()+dx, p.Y()+dy))
		if dx != 0 {
			moved++
		}
	}
	assert.Greater(t, moved, 100)

	_, err = NewHDisp(env, config.Params{"epsilon": 0})
	assert.ErrorIs(t, err, drift.ErrInvalidConfig)
}

func TestVDisp(t *testing.T) {
	env, ip := newEnv(t, nil)
	v, err := NewVDisp(env, config.Params{})
	require.NoError(t, err)

	// constant Kv: no drift, amplitude sqrt(6 Kv dt) over 20 m
	bound := math.Sqrt(6*1e-3*3600) / 20
	for n := 0; n < 50; n++ {
		p := place(ip, 10, 10, 4.5)
		require.NoError(t, v.Execute(p, 0, 3600))
		_, _, dz := p.Move()
		assert.LessOrEqual(t, math.Abs(dz), bound+1e-12)
	}

	vd := v.(*VDisp)
	assert.InDelta(t, 0.3, vd.reflect(0.1, -0.5), 1e-12)
	assert.InDelta(t, -0.3, vd.reflect(8.9, 0.5), 1e-12)
	assert.Equal(t, 0.2, vd.reflect(4, 0.2))

	_, err = NewVDisp(env, config.Params{"kv_field": "AKs"})
	assert.ErrorIs(t, err, drift.ErrMissingVariable)

	flat, _ := newEnv(t, func(s *dataset.AnalyticSpec) { s.Nz = 0 })
	_, err = NewVDisp(flat, config.Params{})
	assert.ErrorIs(t, err, drift.ErrInvalidConfig)
}

func TestWaterDensity(t *testing.T) {
	assert.InDelta(t, 1.02695, WaterDensity(35, 10), 1e-4)
	assert.Less(t, WaterDensity(35, 20), WaterDensity(35, 10))
	assert.Less(t, WaterDensity(30, 10), WaterDensity(35, 10))
}

func TestBuoyancySign(t *testing.T) {
	env, ip := newEnv(t, nil)
	tests := []struct {
		density float64
		rises   bool
	}{
		{1.020, true},
		{1.030, false},
	}
	for _, tt := range tests {
		b, err := NewBuoyancy(env, config.Params{"particle_density": tt.density})
		require.NoError(t, err)
		assert.Equal(t, Biological, b.Phase())

		p := place(ip, 10, 10, 4)
		require.NoError(t, b.Execute(p, 0, 600))
		_, _, dz := p.Move()
		assert.Equal(t, tt.rises, dz > 0, "density %g gave dz %g", tt.density, dz)
		assert.NotZero(t, dz)
	}
}

func TestBuoyancyAgeLimits(t *testing.T) {
	env, ip := newEnv(t, nil)
	b, err := NewBuoyancy(env, config.Params{"age_max": 1})
	require.NoError(t, err)
	p := place(ip, 10, 10, 4)
	p.Age = 2 * oneDay
	require.NoError(t, b.Execute(p, 0, 600))
	_, _, dz := p.Move()
	assert.Zero(t, dz)

	tab, err := NewBuoyancy(env, config.Params{
		"density_ages":   []float64{0, 24},
		"density_values": []float64{1.020, 1.030},
	})
	require.NoError(t, err)
	p = place(ip, 10, 10, 4)
	p.Age = 30 * 3600
	require.NoError(t, tab.Execute(p, 0, 600))
	_, _, dz = p.Move()
	assert.Less(t, dz, 0.0, "older eggs sink with the second density")

	_, err = NewBuoyancy(env, config.Params{"density_ages": []float64{0}})
	assert.ErrorIs(t, err, drift.ErrInvalidConfig)
}

func TestMigration(t *testing.T) {
	env, ip := newEnv(t, nil)
	a, err := NewMigration(env, config.Params{"day_depth": 40, "night_depth": 5, "sunrise": "06:30", "sunset": "19:00"})
	require.NoError(t, err)
	m := a.(*Migration)

	assert.False(t, m.IsDay(6*3600))
	assert.True(t, m.IsDay(6.5*3600))
	assert.True(t, m.IsDay(oneDay+12*3600))
	assert.False(t, m.IsDay(19*3600))
	assert.True(t, m.IsDay(-12*3600))

	p := place(ip, 10, 10, 2)
	require.NoError(t, p.Increment(0, 0, 0.7, false, false))
	require.NoError(t, m.Execute(p, 12*3600, 600))
	_, _, dz := p.Move()
	assert.InDelta(t, 3.5, dz, 1e-9, "day depth replaces earlier vertical moves")

	p = place(ip, 10, 10, 2)
	require.NoError(t, m.Execute(p, 0, 600))
	_, _, dz = p.Move()
	assert.InDelta(t, 7, dz, 1e-9)

	deep, err := NewMigration(env, config.Params{"day_depth": 500, "night_depth": 500})
	require.NoError(t, err)
	p = place(ip, 10, 10, 2)
	require.NoError(t, deep.Execute(p, 12*3600, 600))
	_, _, dz = p.Move()
	assert.InDelta(t, -2, dz, 1e-9, "bounded by the bottom")

	_, err = NewMigration(env, config.Params{"sunrise": "7h"})
	assert.ErrorIs(t, err, drift.ErrInvalidConfig)
}

func TestLethalTemp(t *testing.T) {
	env, ip := newEnv(t, nil)
	l, err := NewLethalTemp(env, config.Params{"cold": 12, "hot": 15})
	require.NoError(t, err)

	p := place(ip, 10, 10, 0)
	require.NoError(t, l.Execute(p, 0, 600))
	assert.Equal(t, particle.DeadCold, p.Cause())

	p = place(ip, 10, 10, 9)
	require.NoError(t, l.Execute(p, 0, 600))
	assert.Equal(t, particle.DeadHot, p.Cause())

	p = place(ip, 10, 10, 4)
	require.NoError(t, l.Execute(p, 0, 600))
	assert.True(t, p.IsLiving())

	byAge, err := NewLethalTemp(env, config.Params{
		"ages":        []float64{0, 48},
		"cold_values": []float64{5, 14},
		"hot_values":  []float64{30, 30},
	})
	require.NoError(t, err)
	p = place(ip, 10, 10, 4)
	require.NoError(t, byAge.Execute(p, 0, 600))
	assert.True(t, p.IsLiving())
	p.Age = 3 * oneDay
	require.NoError(t, byAge.Execute(p, 0, 600))
	assert.Equal(t, particle.DeadCold, p.Cause())
}

func TestGrowth(t *testing.T) {
	env, ip := newEnv(t, nil)
	env.Growth = true
	m, err := NewGrowth(env, config.Params{})
	require.NoError(t, err)

	assert.InDelta(t, 0.02+0.03*15, m.Rate(15, 1, oneDay), 1e-12)
	assert.InDelta(t, (0.02+0.03*10)/2, m.Rate(4, 1, -oneDay/2), 1e-12, "cold water grows at the threshold rate")
	assert.Zero(t, m.Rate(math.NaN(), 1, oneDay))
	assert.Equal(t, Egg, m.Stage(1))
	assert.Equal(t, YolkSac, m.Stage(3))
	assert.Equal(t, Feeding, m.Stage(4.5))

	p := place(ip, 10, 10, 9)
	p.AddTrait(m.NewTrait())
	g, ok := growthOf(p)
	require.True(t, ok)
	assert.Equal(t, 0.025, g.Length)

	p.ApplyTraits(0, oneDay)
	assert.InDelta(t, 0.025+0.02+0.03*15.75, g.Length, 1e-9)

	for g.Stage == Egg {
		p.ApplyTraits(0, oneDay)
	}
	assert.Equal(t, YolkSac, g.Stage)

	_, err = NewGrowth(env, config.Params{"temperature_field": "sst"})
	assert.ErrorIs(t, err, drift.ErrMissingVariable)
	_, err = NewGrowth(env, config.Params{"hatch_length": 5})
	assert.ErrorIs(t, err, drift.ErrInvalidConfig)
}

func TestStageGatesBiology(t *testing.T) {
	env, ip := newEnv(t, nil)
	env.Growth = true
	gm, err := NewGrowth(env, config.Params{})
	require.NoError(t, err)
	b, err := NewBuoyancy(env, config.Params{"particle_density": 1.02})
	require.NoError(t, err)
	l, err := NewLethalTemp(env, config.Params{"cold_egg": 5, "cold_larva": 12})
	require.NoError(t, err)

	p := place(ip, 10, 10, 0)
	tr := gm.NewTrait()
	p.AddTrait(tr)
	require.NoError(t, l.Execute(p, 0, 600))
	assert.True(t, p.IsLiving(), "eggs tolerate 11.25 degC")
	require.NoError(t, b.Execute(p, 0, 600))
	_, _, dz := p.Move()
	assert.Greater(t, dz, 0.0)

	tr.(*Growth).Length = 5
	tr.(*Growth).Stage = gm.Stage(5)
	p.DiscardMove()
	require.NoError(t, b.Execute(p, 0, 600))
	_, _, dz = p.Move()
	assert.Zero(t, dz, "larvae are not passive eggs")
	require.NoError(t, l.Execute(p, 0, 600))
	assert.Equal(t, particle.DeadCold, p.Cause())
}

func TestRecruitment(t *testing.T) {
	env, ip := newEnv(t, nil)
	p := place(ip, 10, 10, 5)
	lon, lat := p.Lon(), p.Lat()

	m, err := NewRecruitment(env, config.Params{
		"polygon":      [][2]float64{{lon - 0.1, lat - 0.1}, {lon + 0.1, lat - 0.1}, {lon + 0.1, lat + 0.1}, {lon - 0.1, lat + 0.1}},
		"duration_min": 1.0 / 24,
		"stop_moving":  true,
	})
	require.NoError(t, err)
	tr := m.NewTrait()
	p.AddTrait(tr)
	r := tr.(*Recruitment)

	// the first step in the zone counts for nothing
	for step := 0; step < 2; step++ {
		p.ApplyTraits(0, 1800)
		assert.False(t, r.Recruited, "step %d", step)
	}
	p.ApplyTraits(0, 1800)
	assert.True(t, r.Recruited)
	assert.Equal(t, 0, r.Zone)
	assert.True(t, p.IsLocked())

	outside := place(ip, 25, 15, 5)
	other := m.NewTrait()
	outside.AddTrait(other)
	for step := 0; step < 10; step++ {
		outside.ApplyTraits(0, 1800)
	}
	assert.False(t, other.(*Recruitment).Recruited)
	assert.Equal(t, -1, other.(*Recruitment).Zone)

	_, err = NewRecruitment(env, config.Params{"polygon": [][2]float64{{0, 0}, {1, 1}, {2, 0}}, "length_min": 10})
	assert.ErrorIs(t, err, drift.ErrInvalidConfig, "length criterion without growth")
	_, err = NewRecruitment(env, config.Params{})
	assert.ErrorIs(t, err, drift.ErrInvalidConfig)
}

// coast is a 12x12 basin whose column i=6 is land.
type coast struct{}

func (coast) IsInWater(x, y float64) bool { return math.Round(x) != 6 }

func (coast) IsOnEdge(x, y float64) bool { return x < 1 || x > 10 || y < 1 || y > 10 }

func movedParticle(dx, dy float64) *particle.Particle {
	p := particle.New(0, false, 0)
	p.SetX(5)
	p.SetY(5)
	if err := p.Increment(dx, dy, 0, false, false); err != nil {
		panic(err)
	}
	return p
}

func TestCoastline(t *testing.T) {
	p := movedParticle(1.2, 0.3)
	Beaching.Move(p, coast{})
	assert.Equal(t, particle.DeadBeach, p.Cause())
	assert.True(t, math.IsNaN(p.Lon()))

	p = movedParticle(1.2, 0.3)
	Standstill.Move(p, coast{})
	assert.True(t, p.IsLiving())
	assert.Equal(t, 5.0, p.X())
	assert.Equal(t, 5.0, p.Y())

	p = movedParticle(1.2, 0)
	Bouncing.Move(p, coast{})
	assert.True(t, p.IsLiving())
	assert.InDelta(t, 4.8, p.X(), 1e-6)
	assert.Equal(t, 5.0, p.Y())

	p = movedParticle(1.2, 0.5)
	Bouncing.Move(p, coast{})
	assert.InDelta(t, 4.8, p.X(), 1e-6)
	assert.InDelta(t, 5.5, p.Y(), 1e-6, "the along-coast component is kept")

	p = movedParticle(0.4, 0)
	NoCoastline.Move(p, coast{})
	assert.Equal(t, 5.4, p.X())
	assert.True(t, p.IsLiving())

	p = movedParticle(-4.5, 0)
	NoCoastline.Move(p, coast{})
	assert.Equal(t, particle.DeadOut, p.Cause())
}

// rim is a 12x12 basin whose outermost column i=11 is land. Positions
// off the array are dry.
type rim struct{}

func (rim) IsInWater(x, y float64) bool {
	i, j := math.Round(x), math.Round(y)
	return i >= 0 && i < 11 && j >= 0 && j < 12
}

func (rim) IsOnEdge(x, y float64) bool { return x < 1 || x > 10 || y < 1 || y > 10 }

func TestCoastlineEdgeFirst(t *testing.T) {
	moves := []struct {
		name   string
		dx, dy float64
	}{
		{"edge water cell", 0.5, 0},
		{"edge land cell", 1.4, 0},
		{"beyond nx", 3, 0},
		{"beyond ny", 0, 3},
	}
	for _, c := range []Coastline{Beaching, Bouncing, Standstill, NoCoastline} {
		for _, m := range moves {
			t.Run(c.String()+"/"+m.name, func(t *testing.T) {
				p := particle.New(0, false, 0)
				p.SetX(9.8)
				p.SetY(9.8)
				require.NoError(t, p.Increment(m.dx, m.dy, 0, false, false))
				c.Move(p, rim{})
				assert.Equal(t, particle.DeadOut, p.Cause())
				assert.True(t, math.IsNaN(p.Lon()))
				assert.InDelta(t, 9.8+m.dx, p.X(), 1e-12)
				assert.InDelta(t, 9.8+m.dy, p.Y(), 1e-12)
			})
		}
	}
}

func TestCoastlineInsideEdge(t *testing.T) {
	p := particle.New(0, false, 0)
	p.SetX(9.2)
	p.SetY(5)
	require.NoError(t, p.Increment(0.6, 0, 0, false, false))
	Beaching.Move(p, rim{})
	assert.True(t, p.IsLiving(), "x=9.8 is wet and inside the edge")
	assert.InDelta(t, 9.8, p.X(), 1e-12)
}

func TestOnFace(t *testing.T) {
	assert.True(t, onFace(5.5))
	assert.True(t, onFace(-0.5))
	assert.False(t, onFace(5.4))
}

func TestParseCoastline(t *testing.T) {
	for _, c := range []Coastline{Beaching, Bouncing, Standstill, NoCoastline} {
		got, err := ParseCoastline(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}
	got, err := ParseCoastline("")
	require.NoError(t, err)
	assert.Equal(t, Beaching, got)
	_, err = ParseCoastline("sticky")
	assert.ErrorIs(t, err, drift.ErrInvalidConfig)
}

func TestInterval(t *testing.T) {
	ages := []float64{0, 10, 20}
	values := []float64{1, 2, 3}
	assert.Equal(t, 1.0, interval(ages, values, 5))
	assert.Equal(t, 2.0, interval(ages, values, 10))
	assert.Equal(t, 3.0, interval(ages, values, 25))
}
