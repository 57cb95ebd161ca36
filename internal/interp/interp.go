// Package interp samples the staggered dataset fields at fractional grid
// positions, blending the two frames that bracket the simulation time.
//
// Every sample skips neighbours that are dry or hold NaN and normalises by
// the weights it actually used. Indices that fall outside an array are
// logged and contribute nothing.
package interp

import (
	"math"

	"github.com/ctessum/sparse"
	"github.com/sirupsen/logrus"

	"github.com/san-kum/driftsim/internal/dataset"
	"github.com/san-kum/driftsim/internal/drift"
	"github.com/san-kum/driftsim/internal/grid"
)

// FrameSource publishes the current frame pair.
type FrameSource interface {
	Current() *dataset.Pair
	Static() *dataset.Static
}

// Interpolator samples a FrameSource. It holds no per-sample state and
// can be shared by concurrent readers of the same source.
type Interpolator struct {
	src    FrameSource
	static *dataset.Static
	g      *grid.Geometry
	nz     int
	log    logrus.FieldLogger
}

func New(src FrameSource, log logrus.FieldLogger) *Interpolator {
	if log == nil {
		log = logrus.StandardLogger()
	}
	st := src.Static()
	return &Interpolator{
		src:    src,
		static: st,
		g:      st.Geometry,
		nz:     st.Nz(),
		log:    log,
	}
}

func (ip *Interpolator) Geometry() *grid.Geometry { return ip.g }

// Nz is the number of rho levels, 1 in 2D.
func (ip *Interpolator) Nz() int { return ip.nz }

func (ip *Interpolator) Is3D() bool { return ip.static.Is3D() }

func (ip *Interpolator) IsOnEdge(x, y float64) bool { return ip.g.IsOnEdge(x, y) }

// Velocity returns (dx/dt, dy/dt, dz/dt) in grid units per second.
func (ip *Interpolator) Velocity(p drift.Point, t float64) drift.Point {
	v := drift.Point{X: ip.Ux(p, t), Y: ip.Vy(p, t)}
	if ip.Is3D() {
		v.Z = ip.Wz(p, t)
	}
	return v
}

// clampZ bounds a level coordinate and returns how many levels a vertical
// stencil may span.
func (ip *Interpolator) clampZ(z float64) (float64, int) {
	if !ip.Is3D() {
		return 0, 1
	}
	return math.Max(0, math.Min(z, float64(ip.nz)-1.00001)), 2
}

func (ip *Interpolator) stencil(x, y float64) int {
	if ip.g.IsCloseToCoast(x, y) {
		return 1
	}
	return 2
}

func floorOrRound(v float64, n int) int {
	if n == 1 {
		return int(math.Round(v))
	}
	return int(math.Floor(v))
}

// value reads one element, logging instead of panicking when the index is
// outside the array. NaN values are reported as missing.
func (ip *Interpolator) value(a *sparse.DenseArray, field string, idx ...int) (float64, bool) {
	if a == nil {
		return 0, false
	}
	if err := a.CheckIndex(idx); err != nil {
		ip.log.WithFields(logrus.Fields{
			"field": field,
			"index": idx,
			"shape": a.Shape,
		}).WithError(err).Warn("interpolation index outside field")
		return 0, false
	}
	v := a.Get(idx...)
	if math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// blend reads the same element from both frames and mixes them in time.
func (ip *Interpolator) blend(p *dataset.Pair, pick func(*dataset.Frame) *sparse.DenseArray, field string, t float64, idx ...int) (float64, bool) {
	v0, ok0 := ip.value(pick(p.Tp0), field, idx...)
	v1, ok1 := ip.value(pick(p.Tp1), field, idx...)
	if !ok0 || !ok1 {
		return 0, false
	}
	return p.Blend(v0, v1, t), true
}

func pickU(f *dataset.Frame) *sparse.DenseArray { return f.U }
func pickV(f *dataset.Frame) *sparse.DenseArray { return f.V }
func pickW(f *dataset.Frame) *sparse.DenseArray { return f.W }

// Ux is the xi velocity in grid units per second. u lives on the faces
// between rho columns, half a cell off in x.
func (ip *Interpolator) Ux(p drift.Point, t float64) float64 {
	pair := ip.src.Current()
	n := ip.stencil(p.X, p.Y)
	kz, nk := ip.clampZ(p.Z)
	i := int(math.Round(p.X))
	j := floorOrRound(p.Y, n)
	k := int(math.Floor(kz))
	dx, dy, dz := p.X-float64(i), p.Y-float64(j), kz-float64(k)

	var sum, weights float64
	for ii := 0; ii < 2; ii++ {
		for jj := 0; jj < n; jj++ {
			if !ip.g.IsInWater(i+ii-1, j+jj) && !ip.g.IsInWater(i+ii, j+jj) {
				continue
			}
			for kk := 0; kk < nk; kk++ {
				co := math.Abs((0.5 - float64(ii) - dx) * (1 - float64(jj) - dy) * (1 - float64(kk) - dz))
				u, ok := ip.blend(pair, pickU, "u", t, k+kk, j+jj, i+ii-1)
				if !ok {
					continue
				}
				sum += co * u * ip.g.FaceInvDX(i+ii, j+jj)
				weights += co
			}
		}
	}
	if weights == 0 {
		return 0
	}
	return sum / weights
}

// Vy is the eta velocity in grid units per second.
func (ip *Interpolator) Vy(p drift.Point, t float64) float64 {
	pair := ip.src.Current()
	n := ip.stencil(p.X, p.Y)
	kz, nk := ip.clampZ(p.Z)
	i := floorOrRound(p.X, n)
	j := int(math.Round(p.Y))
	k := int(math.Floor(kz))
	dx, dy, dz := p.X-float64(i), p.Y-float64(j), kz-float64(k)

	var sum, weights float64
	for ii := 0; ii < n; ii++ {
		for jj := 0; jj < 2; jj++ {
			if !ip.g.IsInWater(i+ii, j+jj-1) && !ip.g.IsInWater(i+ii, j+jj) {
				continue
			}
			for kk := 0; kk < nk; kk++ {
				co := math.Abs((1 - float64(ii) - dx) * (0.5 - float64(jj) - dy) * (1 - float64(kk) - dz))
				v, ok := ip.blend(pair, pickV, "v", t, k+kk, j+jj-1, i+ii)
				if !ok {
					continue
				}
				sum += co * v * ip.g.FaceInvDY(i+ii, j+jj)
				weights += co
			}
		}
	}
	if weights == 0 {
		return 0
	}
	return sum / weights
}

// Wz is the vertical velocity in levels per second, zero in 2D.
func (ip *Interpolator) Wz(p drift.Point, t float64) float64 {
	if !ip.Is3D() {
		return 0
	}
	pair := ip.src.Current()
	n := ip.stencil(p.X, p.Y)
	kz, _ := ip.clampZ(p.Z)
	i := floorOrRound(p.X, n)
	j := floorOrRound(p.Y, n)
	k := int(math.Round(kz))
	dx, dy, dz := p.X-float64(i), p.Y-float64(j), kz-float64(k)

	var sum, weights float64
	for ii := 0; ii < n; ii++ {
		for jj := 0; jj < n; jj++ {
			if !ip.g.IsInWater(i+ii, j+jj) {
				continue
			}
			for kk := 0; kk < 2; kk++ {
				co := math.Abs((1 - float64(ii) - dx) * (1 - float64(jj) - dy) * (0.5 - float64(kk) - dz))
				w, ok := ip.blend(pair, pickW, "w", t, k+kk, j+jj, i+ii)
				if !ok {
					continue
				}
				top, ok1 := ip.value(pair.Tp0.ZW, "z_w", min(k+kk+1, ip.nz), j+jj, i+ii)
				bottom, ok2 := ip.value(pair.Tp0.ZW, "z_w", max(k+kk-1, 0), j+jj, i+ii)
				if !ok1 || !ok2 || top == bottom {
					continue
				}
				sum += 2 * co * w / (top - bottom)
				weights += co
			}
		}
	}
	if weights == 0 {
		return 0
	}
	return sum / weights
}
