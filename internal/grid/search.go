package grid

import (
	"math"

	"github.com/ctessum/geom"
)

// Geo2Grid locates a geographic position on the grid. It walks the outline
// of a sub-rectangle of rho points and halves it along xi and eta in turn
// until a single cell remains, then solves for the fractional offsets inside that
// cell. ok is false, with (0, 0), when the point lies outside the grid.
func (g *Geometry) Geo2Grid(lon, lat float64) (x, y float64, ok bool) {
	imin, imax := 0, g.Nx-1
	jmin, jmax := 0, g.Ny-1
	pt := geom.Point{X: lon, Y: lat}
	if !g.contains(pt, imin, imax, jmin, jmax) {
		return 0, 0, false
	}

	for imax-imin > 1 || jmax-jmin > 1 {
		if imax-imin > 1 {
			i0 := (imin + imax) / 2
			if g.contains(pt, imin, i0, jmin, jmax) {
				imax = i0
			} else {
				imin = i0
			}
		}
		if jmax-jmin > 1 {
			j0 := (jmin + jmax) / 2
			if g.contains(pt, imin, imax, jmin, j0) {
				jmax = j0
			} else {
				jmin = j0
			}
		}
	}

	lon0, lat0 := g.Lon(imin, jmin), g.Lat(imin, jmin)
	dy1 := g.Lat(imin, jmin+1) - lat0
	dx1 := g.Lon(imin, jmin+1) - lon0
	dy2 := g.Lat(imin+1, jmin) - lat0
	dx2 := g.Lon(imin+1, jmin) - lon0
	det := dx2*dy1 - dy2*dx1

	c1 := lon*dy1 - lat*dx1
	c2 := lon0*dy2 - lat0*dx2
	dxi := ((c1*dx2-c2*dx1)/det - lon0) / dx2
	c1 = lon0*dy1 - lat0*dx1
	c2 = lon*dy2 - lat*dx2
	deta := ((c1*dy2-c2*dy1)/det - lat0) / dy1

	return float64(imin) + clamp01(dxi), float64(jmin) + clamp01(deta), true
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}

// outline traces the rho points along the border of [imin,imax]x[jmin,jmax]
// counter-clockwise in index space and closes the ring.
func (g *Geometry) outline(imin, imax, jmin, jmax int) geom.Polygon {
	ring := make([]geom.Point, 0, 2*(imax-imin+jmax-jmin)+1)
	add := func(i, j int) {
		ring = append(ring, geom.Point{X: g.Lon(i, j), Y: g.Lat(i, j)})
	}
	for i := imin; i < imax; i++ {
		add(i, jmin)
	}
	for j := jmin; j < jmax; j++ {
		add(imax, j)
	}
	for i := imax; i > imin; i-- {
		add(i, jmax)
	}
	for j := jmax; j > jmin; j-- {
		add(imin, j)
	}
	ring = append(ring, ring[0])
	return geom.Polygon{ring}
}

func (g *Geometry) contains(pt geom.Point, imin, imax, jmin, jmax int) bool {
	return pt.Within(g.outline(imin, imax, jmin, jmax)) != geom.Outside
}

// Grid2Geo interpolates longitude and latitude bilinearly at a fractional
// grid position, clamped just inside the array.
func (g *Geometry) Grid2Geo(x, y float64) (lon, lat float64) {
	x = math.Max(0.00001, math.Min(x, float64(g.Nx)-1.00001))
	y = math.Max(0.00001, math.Min(y, float64(g.Ny)-1.00001))
	i, j := int(math.Floor(x)), int(math.Floor(y))
	dx, dy := x-float64(i), y-float64(j)
	for ii := 0; ii < 2; ii++ {
		for jj := 0; jj < 2; jj++ {
			co := math.Abs((1 - float64(ii) - dx) * (1 - float64(jj) - dy))
			lon += co * g.Lon(i+ii, j+jj)
			lat += co * g.Lat(i+ii, j+jj)
		}
	}
	return lon, lat
}
