// Package grid describes the static computational grid: rho-point
// coordinates, bathymetry, land mask and horizontal cell metrics, together
// with the conversions between geographic and grid space.
package grid

import (
	"fmt"
	"math"

	"github.com/ctessum/geom"
	"github.com/ctessum/sparse"

	"github.com/san-kum/driftsim/internal/drift"
)

// Convention selects how cell metrics are combined on staggered faces.
type Convention int

const (
	// ROMS grids carry pm/pn inverse metrics; face factors average the inverses.
	ROMS Convention = iota
	// MARS grids carry metres between half-cell points; face factors invert the mean.
	MARS
)

func (c Convention) String() string {
	switch c {
	case ROMS:
		return "roms"
	case MARS:
		return "mars"
	}
	return fmt.Sprintf("convention(%d)", int(c))
}

const (
	// OffDomainBathy is returned by Bathy for land or out-of-range cells.
	OffDomainBathy = -999.0

	waterThreshold = 0.1
)

// Geometry is immutable once built. Every 2D array is shaped [ny][nx].
type Geometry struct {
	Nx, Ny     int
	Convention Convention

	lon, lat *sparse.DenseArray
	h, mask  *sparse.DenseArray
	pm, pn   *sparse.DenseArray
}

// Arrays groups the rho-point fields a Geometry is built from.
type Arrays struct {
	Lon, Lat *sparse.DenseArray
	H, Mask  *sparse.DenseArray
	Pm, Pn   *sparse.DenseArray
}

// NewROMS builds a geometry whose metrics come straight from pm and pn.
func NewROMS(a Arrays) (*Geometry, error) {
	if a.Lon == nil || a.Lat == nil || a.H == nil || a.Pm == nil || a.Pn == nil {
		return nil, fmt.Errorf("grid: roms geometry needs lon, lat, h, pm and pn: %w", drift.ErrMissingVariable)
	}
	if len(a.Lon.Shape) != 2 {
		return nil, fmt.Errorf("grid: lon must be 2D, got shape %v: %w", a.Lon.Shape, drift.ErrDimensionMismatch)
	}
	ny, nx := a.Lon.Shape[0], a.Lon.Shape[1]
	mask := a.Mask
	if mask == nil {
		mask = sparse.ZerosDense(ny, nx)
		for n, h := range a.H.Elements {
			if h > 0 {
				mask.Elements[n] = 1
			}
		}
	}
	for name, arr := range map[string]*sparse.DenseArray{"lat": a.Lat, "h": a.H, "mask": mask, "pm": a.Pm, "pn": a.Pn} {
		if len(arr.Shape) != 2 || arr.Shape[0] != ny || arr.Shape[1] != nx {
			return nil, fmt.Errorf("grid: %s has shape %v, want [%d %d]: %w", name, arr.Shape, ny, nx, drift.ErrDimensionMismatch)
		}
	}
	return &Geometry{
		Nx: nx, Ny: ny,
		Convention: ROMS,
		lon:        a.Lon, lat: a.Lat,
		h: a.H, mask: mask,
		pm: a.Pm, pn: a.Pn,
	}, nil
}

// NewMARS builds a geometry from 1D longitude and latitude axes. The mask
// is derived from the bathymetry and the metrics from geodesic distances
// between half-cell points, with edge rows and columns copied inward.
func NewMARS(lon1d, lat1d []float64, h *sparse.DenseArray) (*Geometry, error) {
	nx, ny := len(lon1d), len(lat1d)
	if nx < 3 || ny < 3 {
		return nil, fmt.Errorf("grid: mars geometry needs at least 3x3 points, got %dx%d: %w", nx, ny, drift.ErrDimensionMismatch)
	}
	if h == nil || len(h.Shape) != 2 || h.Shape[0] != ny || h.Shape[1] != nx {
		return nil, fmt.Errorf("grid: bathymetry must be [%d %d]: %w", ny, nx, drift.ErrDimensionMismatch)
	}
	g := &Geometry{
		Nx: nx, Ny: ny,
		Convention: MARS,
		lon:        sparse.ZerosDense(ny, nx),
		lat:        sparse.ZerosDense(ny, nx),
		h:          h,
		mask:       sparse.ZerosDense(ny, nx),
		pm:         sparse.ZerosDense(ny, nx),
		pn:         sparse.ZerosDense(ny, nx),
	}
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			n := j*nx + i
			g.lon.Elements[n] = lon1d[i]
			g.lat.Elements[n] = lat1d[j]
			if hv := h.Elements[n]; hv >= 0 && !math.IsNaN(hv) {
				g.mask.Elements[n] = 1
			}
		}
	}
	g.computeMetrics()
	return g, nil
}

func (g *Geometry) computeMetrics() {
	dxu := sparse.ZerosDense(g.Ny, g.Nx)
	dyv := sparse.ZerosDense(g.Ny, g.Nx)
	for j := 1; j < g.Ny-1; j++ {
		for i := 1; i < g.Nx-1; i++ {
			lon1, lat1 := g.Grid2Geo(float64(i)-0.5, float64(j))
			lon2, lat2 := g.Grid2Geo(float64(i)+0.5, float64(j))
			dxu.Set(GeodesicDistance(lat1, lon1, lat2, lon2), j, i)
			lon1, lat1 = g.Grid2Geo(float64(i), float64(j)-0.5)
			lon2, lat2 = g.Grid2Geo(float64(i), float64(j)+0.5)
			dyv.Set(GeodesicDistance(lat1, lon1, lat2, lon2), j, i)
		}
	}
	for j := 0; j < g.Ny; j++ {
		for _, arr := range []*sparse.DenseArray{dxu, dyv} {
			arr.Set(arr.Get(j, 1), j, 0)
			arr.Set(arr.Get(j, g.Nx-2), j, g.Nx-1)
		}
	}
	for i := 0; i < g.Nx; i++ {
		for _, arr := range []*sparse.DenseArray{dxu, dyv} {
			arr.Set(arr.Get(1, i), 0, i)
			arr.Set(arr.Get(g.Ny-2, i), g.Ny-1, i)
		}
	}
	for n := range dxu.Elements {
		g.pm.Elements[n] = 1 / dxu.Elements[n]
		g.pn.Elements[n] = 1 / dyv.Elements[n]
	}
}

func (g *Geometry) inRange(i, j int) bool {
	return i >= 0 && i < g.Nx && j >= 0 && j < g.Ny
}

func (g *Geometry) at(a *sparse.DenseArray, i, j int) float64 {
	return a.Elements[j*g.Nx+i]
}

// clampI and clampJ keep neighbour lookups on the array.
func (g *Geometry) clampI(i int) int { return max(0, min(i, g.Nx-1)) }
func (g *Geometry) clampJ(j int) int { return max(0, min(j, g.Ny-1)) }

func (g *Geometry) Lon(i, j int) float64 { return g.at(g.lon, g.clampI(i), g.clampJ(j)) }
func (g *Geometry) Lat(i, j int) float64 { return g.at(g.lat, g.clampI(i), g.clampJ(j)) }

// H returns the raw bathymetry, positive downward, without the water test.
func (g *Geometry) H(i, j int) float64 { return g.at(g.h, g.clampI(i), g.clampJ(j)) }

func (g *Geometry) Pm(i, j int) float64 { return g.at(g.pm, g.clampI(i), g.clampJ(j)) }
func (g *Geometry) Pn(i, j int) float64 { return g.at(g.pn, g.clampI(i), g.clampJ(j)) }

// DX is the cell width in metres along xi.
func (g *Geometry) DX(i, j int) float64 { return 1 / g.Pm(i, j) }

// DY is the cell width in metres along eta.
func (g *Geometry) DY(i, j int) float64 { return 1 / g.Pn(i, j) }

// IsInWater reports whether rho cell (i, j) is wet. Out-of-range cells are dry.
func (g *Geometry) IsInWater(i, j int) bool {
	if !g.inRange(i, j) {
		return false
	}
	return g.at(g.mask, i, j) > waterThreshold
}

// IsInWaterAt tests the cell containing the fractional position.
func (g *Geometry) IsInWaterAt(x, y float64) bool {
	return g.IsInWater(int(math.Round(x)), int(math.Round(y)))
}

// IsOnEdge reports positions within one cell of the domain boundary.
func (g *Geometry) IsOnEdge(x, y float64) bool {
	return x > float64(g.Nx)-2 || x < 1 || y > float64(g.Ny)-2 || y < 1
}

// IsCloseToCoast reports whether any of the three neighbours of the
// quarter cell holding (x, y) is dry.
func (g *Geometry) IsCloseToCoast(x, y float64) bool {
	i, j := int(math.Round(x)), int(math.Round(y))
	ii, jj := -1, -1
	if i == int(x) {
		ii = 1
	}
	if j == int(y) {
		jj = 1
	}
	return !(g.IsInWater(i+ii, j) && g.IsInWater(i+ii, j+jj) && g.IsInWater(i, j+jj))
}

// Bathy returns the water depth at a wet cell, OffDomainBathy otherwise.
func (g *Geometry) Bathy(i, j int) float64 {
	if !g.IsInWater(i, j) {
		return OffDomainBathy
	}
	return g.at(g.h, i, j)
}

// FaceInvDX converts a u velocity on the face between rho columns i-1 and
// i of row j into grid units per second.
func (g *Geometry) FaceInvDX(i, j int) float64 {
	j = g.clampJ(j)
	ia, ib := g.clampI(i-1), g.clampI(i)
	if g.Convention == MARS {
		return 2 / (g.DX(ia, j) + g.DX(ib, j))
	}
	return 0.5 * (g.at(g.pm, ia, j) + g.at(g.pm, ib, j))
}

// FaceInvDY is the v counterpart of FaceInvDX, between rows j-1 and j.
func (g *Geometry) FaceInvDY(i, j int) float64 {
	i = g.clampI(i)
	ja, jb := g.clampJ(j-1), g.clampJ(j)
	if g.Convention == MARS {
		return 2 / (g.DY(i, ja) + g.DY(i, jb))
	}
	return 0.5 * (g.at(g.pn, i, ja) + g.at(g.pn, i, jb))
}

// UFaceHalfWidth is half the eta-extent of the u face between columns i-1
// and i, the factor turning a summed layer thickness into a transport.
func (g *Geometry) UFaceHalfWidth(i, j int) float64 {
	if g.Convention == MARS {
		return 0.25 * (g.DY(i, j) + g.DY(i-1, j))
	}
	return 1 / (g.Pn(i, j) + g.Pn(i-1, j))
}

// VFaceHalfWidth is the v counterpart of UFaceHalfWidth.
func (g *Geometry) VFaceHalfWidth(i, j int) float64 {
	if g.Convention == MARS {
		return 0.25 * (g.DX(i, j) + g.DX(i, j-1))
	}
	return 1 / (g.Pm(i, j) + g.Pm(i, j-1))
}

// InvArea is 1/(dx*dy) at a rho point.
func (g *Geometry) InvArea(i, j int) float64 {
	return g.Pm(i, j) * g.Pn(i, j)
}

// Adimensionalize converts a length in metres into grid units at (x, y).
func (g *Geometry) Adimensionalize(v, x, y float64) float64 {
	i, j := g.clampI(int(math.Round(x))), g.clampJ(int(math.Round(y)))
	if g.Convention == MARS {
		return 2 * v / (g.DY(i, j) + g.DX(i, j))
	}
	return 0.5 * v * (g.Pm(i, j) + g.Pn(i, j))
}

// Bounds returns the lon/lat extent of the rho points.
func (g *Geometry) Bounds() *geom.Bounds {
	b := geom.NewBounds()
	for n := range g.lon.Elements {
		b.Extend(geom.NewBoundsPoint(geom.Point{X: g.lon.Elements[n], Y: g.lat.Elements[n]}))
	}
	return b
}

// WetFraction is the share of wet rho cells.
func (g *Geometry) WetFraction() float64 {
	wet := 0
	for _, m := range g.mask.Elements {
		if m > waterThreshold {
			wet++
		}
	}
	return float64(wet) / float64(len(g.mask.Elements))
}
