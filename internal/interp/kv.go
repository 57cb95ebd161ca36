package interp

import (
	"fmt"
	"math"

	"github.com/ctessum/sparse"

	"github.com/san-kum/driftsim/internal/dataset"
	"github.com/san-kum/driftsim/internal/drift"
)

// KvSample is the vertical diffusivity seen by a particle.
type KvSample struct {
	Gradient float64 // dKv/dz
	Kv       float64 // m2/s, never negative
	Hz       float64 // metres per level around the particle
}

// Kv evaluates a natural cubic spline through the diffusivity profile of
// the surrounding columns. The diffusivity itself is taken half a step
// along its gradient, as the random walk scheme requires.
func (ip *Interpolator) Kv(field string, p drift.Point, t, dt float64) (KvSample, error) {
	if !ip.Is3D() {
		return KvSample{}, fmt.Errorf("interp: vertical diffusivity needs a 3D dataset: %w", drift.ErrInvalidConfig)
	}
	pair := ip.src.Current()
	if _, ok := pair.Tp0.Scalar(field); !ok {
		return KvSample{}, fmt.Errorf("interp: field %q: %w", field, drift.ErrUnknownField)
	}

	n := ip.stencil(p.X, p.Y)
	z := math.Max(0, math.Min(p.Z, float64(ip.nz)-1.00001))
	depth := ip.Z2Depth(p.X, p.Y, z)
	i, j := int(p.X), int(p.Y)
	k := int(math.Round(z))
	dx, dy := p.X-math.Floor(p.X), p.Y-math.Floor(p.Y)

	var out KvSample
	var weights float64
	for ii := 0; ii < n; ii++ {
		for jj := 0; jj < n; jj++ {
			if !ip.g.IsInWater(i+ii, j+jj) {
				continue
			}
			co := math.Abs((1 - float64(ii) - dx) * (1 - float64(jj) - dy))
			grad, kv, ok := ip.columnKv(pair, field, i+ii, j+jj, depth, t, dt)
			if !ok {
				continue
			}
			top, ok1 := ip.value(pair.Tp0.ZW, "z_w", k+1, j+jj, i+ii)
			bottom, ok2 := ip.value(pair.Tp0.ZW, "z_w", max(k-1, 0), j+jj, i+ii)
			if !ok1 || !ok2 {
				continue
			}
			out.Gradient += co * grad
			out.Kv += co * kv
			out.Hz += co * (top - bottom)
			weights += co
		}
	}
	if weights == 0 {
		return KvSample{}, nil
	}
	out.Gradient /= weights
	out.Kv /= weights
	out.Hz /= weights
	return out, nil
}

// columnKv fits the spline to one water column.
func (ip *Interpolator) columnKv(pair *dataset.Pair, field string, i, j int, depth, t, dt float64) (grad, kv float64, ok bool) {
	if ip.nz < 2 {
		return 0, 0, false
	}
	pick := func(f *dataset.Frame) *sparse.DenseArray {
		a, _ := f.Scalar(field)
		return a
	}
	profile := make([]float64, ip.nz)
	for k := range profile {
		v, ok := ip.blend(pair, pick, field, t, k, j, i)
		if !ok {
			return 0, 0, false
		}
		profile[k] = v
	}
	zrho := pair.Tp0.ZRho
	x, y := float64(i), float64(j)
	top := float64(ip.nz) - 1.00001

	z := math.Min(ip.Depth2Z(x, y, depth), top)
	k := int(z)
	zk, _ := ip.value(zrho, "z_rho", k, j, i)
	s := newSplineSegment(profile, k)
	ddepth := depth - zk
	grad = s.derivative(ddepth)

	shifted := depth + 0.5*grad*dt
	zz := math.Min(ip.Depth2Z(x, y, shifted), top)
	if d := zz - math.Floor(z); d >= 1 || d < 0 {
		k = int(zz)
		s = newSplineSegment(profile, k)
		zk, _ = ip.value(zrho, "z_rho", k, j, i)
	}
	kv = math.Max(0, s.eval(shifted-zk))
	return grad, kv, true
}

// splineSegment is the cubic a*d^3 + b*d^2 + c*d + e between levels k
// and k+1 of a natural spline.
type splineSegment struct{ a, b, c, e float64 }

func newSplineSegment(x []float64, k int) splineSegment {
	m0, m1 := secondDiff(x, k), secondDiff(x, k+1)
	return splineSegment{
		a: (m1 - m0) / 6,
		b: m0 / 2,
		c: (x[k+1] - x[k]) - (m1+2*m0)/6,
		e: x[k],
	}
}

func (s splineSegment) eval(d float64) float64 {
	return s.e + d*(s.c+d*(s.b+d*s.a))
}

func (s splineSegment) derivative(d float64) float64 {
	return s.c + d*(2*s.b+3*s.a*d)
}

// secondDiff is zero at both ends of the profile.
func secondDiff(x []float64, k int) float64 {
	if len(x) < 3 {
		return 0
	}
	if k <= 0 || k >= len(x)-1 {
		return 0
	}
	return x[k+1] - 2*x[k] + x[k-1]
}
