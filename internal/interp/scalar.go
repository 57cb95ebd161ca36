package interp

import (
	"fmt"
	"math"

	"github.com/ctessum/sparse"

	"github.com/san-kum/driftsim/internal/dataset"
	"github.com/san-kum/driftsim/internal/drift"
)

// Scalar samples a rho-point field loaded by the dataset manager. 3D
// fields are interpolated trilinearly, 2D fields bilinearly. A field that
// was never loaded yields NaN and drift.ErrUnknownField.
func (ip *Interpolator) Scalar(name string, p drift.Point, t float64) (float64, error) {
	pair := ip.src.Current()
	f0, ok := pair.Tp0.Scalar(name)
	if !ok {
		return math.NaN(), fmt.Errorf("interp: field %q: %w", name, drift.ErrUnknownField)
	}
	pick := func(f *dataset.Frame) *sparse.DenseArray {
		a, _ := f.Scalar(name)
		return a
	}

	n := ip.stencil(p.X, p.Y)
	i := floorOrRound(p.X, n)
	j := floorOrRound(p.Y, n)
	dx, dy := p.X-float64(i), p.Y-float64(j)

	nk, k, dz := 1, 0, 0.0
	is3D := len(f0.Shape) == 3
	if is3D {
		kz := math.Max(0, math.Min(p.Z, float64(f0.Shape[0])-1.00001))
		k = int(math.Floor(kz))
		dz = kz - float64(k)
		if f0.Shape[0] > 1 {
			nk = 2
		}
	}

	var sum, weights float64
	for ii := 0; ii < n; ii++ {
		for jj := 0; jj < n; jj++ {
			if !ip.g.IsInWater(i+ii, j+jj) {
				continue
			}
			for kk := 0; kk < nk; kk++ {
				co := math.Abs((1 - float64(ii) - dx) * (1 - float64(jj) - dy) * (1 - float64(kk) - dz))
				var v float64
				var ok bool
				if is3D {
					v, ok = ip.blend(pair, pick, name, t, k+kk, j+jj, i+ii)
				} else {
					v, ok = ip.blend(pair, pick, name, t, j+jj, i+ii)
				}
				if !ok {
					continue
				}
				sum += co * v
				weights += co
			}
		}
	}
	if weights == 0 {
		return math.NaN(), nil
	}
	return sum / weights, nil
}

// HasField reports whether the named scalar is available.
func (ip *Interpolator) HasField(name string) bool {
	p := ip.src.Current()
	if p == nil {
		return false
	}
	_, ok := p.Tp0.Scalar(name)
	return ok
}
