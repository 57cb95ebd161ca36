package interp

import "math"

// Z2Depth converts a level coordinate into a depth in metres, negative
// below the surface, using the free surface of the earlier frame.
func (ip *Interpolator) Z2Depth(x, y, z float64) float64 {
	if !ip.Is3D() {
		return 0
	}
	zrho := ip.src.Current().Tp0.ZRho
	kz := math.Max(0, math.Min(z, float64(ip.nz)-1.00001))
	i, j, k := int(math.Floor(x)), int(math.Floor(y)), int(math.Floor(kz))
	dx, dy, dz := x-float64(i), y-float64(j), kz-float64(k)

	var depth, weights float64
	for ii := 0; ii < 2; ii++ {
		for jj := 0; jj < 2; jj++ {
			if !ip.g.IsInWater(i+ii, j+jj) {
				continue
			}
			for kk := 0; kk < 2; kk++ {
				co := math.Abs((1 - float64(ii) - dx) * (1 - float64(jj) - dy) * (1 - float64(kk) - dz))
				zr, ok := ip.value(zrho, "z_rho", k+kk, j+jj, i+ii)
				if !ok {
					continue
				}
				depth += co * zr
				weights += co
			}
		}
	}
	if weights == 0 {
		return 0
	}
	return depth / weights
}

// levelDepth is the depth of rho level k interpolated horizontally.
func (ip *Interpolator) levelDepth(x, y float64, k int) float64 {
	zrho := ip.src.Current().Tp0.ZRho
	i, j := int(math.Floor(x)), int(math.Floor(y))
	dx, dy := x-float64(i), y-float64(j)
	var depth, weights float64
	for ii := 0; ii < 2; ii++ {
		for jj := 0; jj < 2; jj++ {
			if !ip.g.IsInWater(i+ii, j+jj) {
				continue
			}
			zr, ok := ip.value(zrho, "z_rho", k, j+jj, i+ii)
			if !ok {
				continue
			}
			co := math.Abs((1 - float64(ii) - dx) * (1 - float64(jj) - dy))
			depth += co * zr
			weights += co
		}
	}
	if weights == 0 {
		return 0
	}
	return depth / weights
}

// Depth2Z converts a depth in metres into a level coordinate. Depths above
// the top rho level map to nz-1, depths below the bottom one to 0.
func (ip *Interpolator) Depth2Z(x, y, depth float64) float64 {
	if !ip.Is3D() {
		return 0
	}
	lk := ip.nz - 1
	for lk > 0 && ip.levelDepth(x, y, lk) > depth {
		lk--
	}
	if lk == ip.nz-1 {
		return float64(lk)
	}
	pr := ip.levelDepth(x, y, lk)
	next := ip.levelDepth(x, y, lk+1)
	if next == pr {
		return float64(lk)
	}
	return math.Max(0, float64(lk)+(depth-pr)/(next-pr))
}

// Bottom is the depth of the deepest rho level at (x, y).
func (ip *Interpolator) Bottom(x, y float64) float64 {
	return ip.Z2Depth(x, y, 0)
}

func (ip *Interpolator) Geo2Grid(lon, lat float64) (x, y float64, ok bool) {
	return ip.g.Geo2Grid(lon, lat)
}

func (ip *Interpolator) Grid2Geo(x, y float64) (lon, lat float64) {
	return ip.g.Grid2Geo(x, y)
}

// IsInWater reports whether the rho cell nearest (x, y) is wet.
func (ip *Interpolator) IsInWater(x, y float64) bool {
	return ip.g.IsInWaterAt(x, y)
}
