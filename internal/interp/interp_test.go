package interp

import (
	"math"
	"testing"

	"github.com/ctessum/sparse"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/driftsim/internal/dataset"
	"github.com/san-kum/driftsim/internal/drift"
	"github.com/san-kum/driftsim/internal/grid"
	"github.com/san-kum/driftsim/internal/vertical"
)

const (
	nx, ny, nz = 12, 10, 10
	depth      = 100.0
)

type fakeSource struct {
	pair   *dataset.Pair
	static *dataset.Static
}

func (f *fakeSource) Current() *dataset.Pair  { return f.pair }
func (f *fakeSource) Static() *dataset.Static { return f.static }

func fill(a *sparse.DenseArray, v float64) *sparse.DenseArray {
	for n := range a.Elements {
		a.Elements[n] = v
	}
	return a
}

// newSource builds a flat-bottom 3D source with uniform u at both frames.
func newSource(t *testing.T, u0, u1 float64, land ...[2]int) *fakeSource {
	t.Helper()
	g, err := grid.NewRegular(grid.RegularSpec{
		Nx: nx, Ny: ny, Lon0: 3, Lat0: 42, DLon: 0.01, DLat: 0.01,
		Depth: func(i, j int) float64 {
			for _, c := range land {
				if c[0] == i && c[1] == j {
					return -1
				}
			}
			return depth
		},
	})
	require.NoError(t, err)
	l, err := vertical.NewLevels(nz, 0, nil, nil, vertical.Linear, fill(sparse.ZerosDense(ny, nx), depth))
	require.NoError(t, err)

	frame := func(rank int, tm, u float64) *dataset.Frame {
		temp := sparse.ZerosDense(nz, ny, nx)
		for k := 0; k < nz; k++ {
			for n := 0; n < nx*ny; n++ {
				temp.Elements[k*nx*ny+n] = 10 + float64(k)
			}
		}
		return &dataset.Frame{
			Rank: rank, Time: tm,
			U:    fill(sparse.ZerosDense(nz, ny, nx-1), u),
			V:    sparse.ZerosDense(nz, ny-1, nx),
			W:    sparse.ZerosDense(nz+1, ny, nx),
			ZW:   l.ZW(nil), ZRho: l.ZRho(nil),
			Scalars: map[string]*sparse.DenseArray{
				"temp": temp,
				"AKt":  fill(sparse.ZerosDense(nz, ny, nx), 0.01),
			},
		}
	}
	return &fakeSource{
		pair: &dataset.Pair{
			Tp0: frame(0, 0, u0),
			Tp1: frame(1, 3600, u1),
			Dt:  3600,
		},
		static: &dataset.Static{Geometry: g, Levels: l},
	}
}

func TestUniformVelocity(t *testing.T) {
	src := newSource(t, 0.1, 0.1)
	ip := New(src, nil)
	g := ip.Geometry()

	p := drift.Point{X: 5.3, Y: 4, Z: 4.5}
	assert.InDelta(t, 0.1*g.FaceInvDX(5, 4), ip.Ux(p, 0), 1e-15)
	assert.Equal(t, 0.0, ip.Vy(p, 0))
	assert.Equal(t, 0.0, ip.Wz(p, 0))

	v := ip.Velocity(p, 1800)
	assert.InDelta(t, ip.Ux(p, 1800), v.X, 1e-18)
	assert.True(t, ip.Is3D())
	assert.Equal(t, nz, ip.Nz())
}

func TestTimeBlend(t *testing.T) {
	ip := New(newSource(t, 0.1, 0.3), nil)
	g := ip.Geometry()
	p := drift.Point{X: 6, Y: 5, Z: 2}
	f := g.FaceInvDX(6, 5)

	assert.InDelta(t, 0.1*f, ip.Ux(p, 0), 1e-12)
	assert.InDelta(t, 0.2*f, ip.Ux(p, 1800), 1e-12)
	assert.InDelta(t, 0.3*f, ip.Ux(p, 3600), 1e-12)
}

func TestNaNSkipped(t *testing.T) {
	src := newSource(t, 0.1, 0.1)
	for _, f := range []*dataset.Frame{src.pair.Tp0, src.pair.Tp1} {
		for k := 0; k < nz; k++ {
			f.U.Set(math.NaN(), k, 5, 5)
		}
	}
	ip := New(src, nil)
	got := ip.Ux(drift.Point{X: 6.2, Y: 5.3, Z: 3}, 0)
	assert.False(t, math.IsNaN(got))
	assert.InEpsilon(t, 0.1*ip.Geometry().FaceInvDX(6, 5), got, 1e-3)
}

func TestDryStencilGivesZero(t *testing.T) {
	var land [][2]int
	for i := 4; i <= 6; i++ {
		for j := 4; j <= 6; j++ {
			land = append(land, [2]int{i, j})
		}
	}
	src := newSource(t, 99, 99, land...)
	ip := New(src, nil)
	p := drift.Point{X: 5, Y: 5, Z: 2}
	assert.Equal(t, 0.0, ip.Ux(p, 0))
	assert.Equal(t, 0.0, ip.Vy(p, 0))
	v, err := ip.Scalar("temp", p, 0)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(v))
}

func TestOutOfRangeIndexLogs(t *testing.T) {
	src := newSource(t, 0.1, 0.1)
	short := sparse.ZerosDense(nz, ny, nx-4)
	src.pair.Tp0.U, src.pair.Tp1.U = short, short

	log, hook := test.NewNullLogger()
	ip := New(src, log)
	assert.NotPanics(t, func() {
		ip.Ux(drift.Point{X: 8.6, Y: 4.5, Z: 1}, 0)
	})
	require.NotEmpty(t, hook.AllEntries())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Equal(t, "u", hook.LastEntry().Data["field"])
}

func TestWz(t *testing.T) {
	src := newSource(t, 0, 0)
	for _, f := range []*dataset.Frame{src.pair.Tp0, src.pair.Tp1} {
		fill(f.W, 0.001)
	}
	ip := New(src, nil)
	// uniform 10 m layers: two layers between the w levels around rho k
	assert.InDelta(t, 0.001/10, ip.Wz(drift.Point{X: 5.5, Y: 5.5, Z: 4.2}, 0), 1e-15)
}

func TestScalar(t *testing.T) {
	ip := New(newSource(t, 0, 0), nil)
	v, err := ip.Scalar("temp", drift.Point{X: 4.5, Y: 4.5, Z: 1.5}, 100)
	require.NoError(t, err)
	assert.InDelta(t, 11.5, v, 1e-12)

	v, err = ip.Scalar("salt", drift.Point{X: 4.5, Y: 4.5, Z: 1.5}, 100)
	assert.ErrorIs(t, err, drift.ErrUnknownField)
	assert.True(t, math.IsNaN(v))
	assert.True(t, ip.HasField("temp"))
	assert.False(t, ip.HasField("salt"))
}

func TestDepthConversions(t *testing.T) {
	ip := New(newSource(t, 0, 0), nil)
	// linear levels over 100 m: rho level k sits at 10k - 95
	assert.InDelta(t, -65, ip.Z2Depth(4.3, 3.7, 3), 1e-9)
	assert.InDelta(t, -60, ip.Z2Depth(4.3, 3.7, 3.5), 1e-9)
	assert.InDelta(t, -95, ip.Bottom(4.3, 3.7), 1e-9)

	assert.InDelta(t, 3, ip.Depth2Z(4.3, 3.7, -65), 1e-9)
	assert.InDelta(t, 6.25, ip.Depth2Z(4.3, 3.7, -32.5), 1e-9)
	assert.Equal(t, float64(nz-1), ip.Depth2Z(4.3, 3.7, 0))
	assert.Equal(t, 0.0, ip.Depth2Z(4.3, 3.7, -500))

	for _, z := range []float64{0.5, 2.25, 7.75} {
		d := ip.Z2Depth(6.1, 2.2, z)
		assert.InDelta(t, z, ip.Depth2Z(6.1, 2.2, d), 1e-9)
	}
}

func TestKvConstantProfile(t *testing.T) {
	ip := New(newSource(t, 0, 0), nil)
	kv, err := ip.Kv("AKt", drift.Point{X: 5.5, Y: 4.5, Z: 4.4}, 0, 60)
	require.NoError(t, err)
	assert.InDelta(t, 0, kv.Gradient, 1e-12)
	assert.InDelta(t, 0.01, kv.Kv, 1e-12)
	assert.InDelta(t, 20, kv.Hz, 1e-9)

	_, err = ip.Kv("missing", drift.Point{X: 5.5, Y: 4.5, Z: 4.4}, 0, 60)
	assert.ErrorIs(t, err, drift.ErrUnknownField)
}

func TestSplineSegment(t *testing.T) {
	profile := []float64{0, 1, 4, 9, 16}
	s := newSplineSegment(profile, 2)
	assert.InDelta(t, 4, s.eval(0), 1e-12)
	assert.InDelta(t, 9, s.eval(1), 1e-12)
	assert.Equal(t, 0.0, secondDiff(profile, 0))
	assert.Equal(t, 2.0, secondDiff(profile, 2))
	assert.Equal(t, 0.0, secondDiff([]float64{1, 2}, 1))
}
