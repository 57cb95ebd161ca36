package grid

import (
	"fmt"

	"github.com/ctessum/sparse"

	"github.com/san-kum/driftsim/internal/drift"
)

// RegularSpec describes a rectilinear lon/lat grid built in memory.
type RegularSpec struct {
	Nx, Ny     int
	Lon0, Lat0 float64 // south-west rho point, degrees
	DLon, DLat float64 // spacing, degrees
	// Depth returns the bathymetry at rho point (i, j); values <= 0 are land.
	Depth func(i, j int) float64
}

// NewRegular builds a ROMS-convention geometry whose pm/pn come from the
// geodesic size of each cell.
func NewRegular(s RegularSpec) (*Geometry, error) {
	if s.Nx < 3 || s.Ny < 3 {
		return nil, fmt.Errorf("grid: regular grid needs at least 3x3 points, got %dx%d: %w", s.Nx, s.Ny, drift.ErrInvalidConfig)
	}
	if s.DLon <= 0 || s.DLat <= 0 {
		return nil, fmt.Errorf("grid: spacing must be positive, got %g x %g: %w", s.DLon, s.DLat, drift.ErrInvalidConfig)
	}
	a := Arrays{
		Lon:  sparse.ZerosDense(s.Ny, s.Nx),
		Lat:  sparse.ZerosDense(s.Ny, s.Nx),
		H:    sparse.ZerosDense(s.Ny, s.Nx),
		Mask: sparse.ZerosDense(s.Ny, s.Nx),
		Pm:   sparse.ZerosDense(s.Ny, s.Nx),
		Pn:   sparse.ZerosDense(s.Ny, s.Nx),
	}
	for j := 0; j < s.Ny; j++ {
		lat := s.Lat0 + float64(j)*s.DLat
		dy := GeodesicDistance(lat-s.DLat/2, 0, lat+s.DLat/2, 0)
		for i := 0; i < s.Nx; i++ {
			lon := s.Lon0 + float64(i)*s.DLon
			a.Lon.Set(lon, j, i)
			a.Lat.Set(lat, j, i)
			a.Pm.Set(1/GeodesicDistance(lat, lon-s.DLon/2, lat, lon+s.DLon/2), j, i)
			a.Pn.Set(1/dy, j, i)
			h := 100.0
			if s.Depth != nil {
				h = s.Depth(i, j)
			}
			a.H.Set(h, j, i)
			if h > 0 {
				a.Mask.Set(1, j, i)
			}
		}
	}
	return NewROMS(a)
}
