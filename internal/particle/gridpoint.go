// Package particle holds the state of a single drifting individual: its
// position in grid and geographic coordinates, its age, its fate and the
// trait components attached to it.
package particle

import (
	"errors"
	"math"
)

// ErrExclusiveMove is returned when two actions both ask to replace the
// pending move on the same axis within one step.
var ErrExclusiveMove = errors.New("particle: two actions request exclusivity on the same axis")

// Locator converts between grid and geographic coordinates.
type Locator interface {
	Geo2Grid(lon, lat float64) (x, y float64, ok bool)
	Grid2Geo(x, y float64) (lon, lat float64)
	Depth2Z(x, y, depth float64) float64
	Z2Depth(x, y, z float64) float64
}

// GridPoint is a position known in two coordinate systems. Only one side is
// authoritative at a time: setting one side marks the other stale until
// the next Geo2Grid or Grid2Geo.
type GridPoint struct {
	x, y, z         float64
	lon, lat, depth float64

	move         [3]float64
	exclH, exclV bool

	geoStaleH, geoStaleV   bool // lon/lat or depth must be recomputed
	gridStaleH, gridStaleV bool // x/y or z must be recomputed

	is3D bool
	nz   int
}

// NewGridPoint returns an unplaced point. nz bounds z to [0, nz-1].
func NewGridPoint(is3D bool, nz int) GridPoint {
	nan := math.NaN()
	return GridPoint{
		x: -1, y: -1, z: -1,
		lon: nan, lat: nan, depth: nan,
		is3D: is3D,
		nz:   nz,
	}
}

func (g *GridPoint) Is3D() bool { return g.is3D }

func (g *GridPoint) X() float64 { return g.x }
func (g *GridPoint) Y() float64 { return g.y }
func (g *GridPoint) Z() float64 { return g.z }

func (g *GridPoint) Lon() float64   { return g.lon }
func (g *GridPoint) Lat() float64   { return g.lat }
func (g *GridPoint) Depth() float64 { return g.depth }

// Grid returns the grid coordinates, Z is zero in 2D.
func (g *GridPoint) Grid() (x, y, z float64) {
	if !g.is3D {
		return g.x, g.y, 0
	}
	return g.x, g.y, g.z
}

func (g *GridPoint) SetX(x float64) {
	if g.x != x {
		g.x = x
		g.geoStaleH = true
	}
}

func (g *GridPoint) SetY(y float64) {
	if g.y != y {
		g.y = y
		g.geoStaleH = true
	}
}

// SetZ stores z bounded to the level range.
func (g *GridPoint) SetZ(z float64) {
	if g.z != z {
		g.z = g.bound(z)
		g.geoStaleV = true
	}
}

func (g *GridPoint) bound(z float64) float64 {
	return math.Max(0, math.Min(float64(g.nz-1), z))
}

func (g *GridPoint) SetLon(lon float64) {
	if g.lon != lon {
		g.lon = lon
		g.gridStaleH = true
	}
}

func (g *GridPoint) SetLat(lat float64) {
	if g.lat != lat {
		g.lat = lat
		g.gridStaleH = true
	}
}

func (g *GridPoint) SetDepth(depth float64) {
	if g.depth != depth {
		g.depth = depth
		g.gridStaleV = true
	}
}

// Geo2Grid refreshes the grid side if the geographic side changed. It
// returns false when lon/lat fall outside the domain.
func (g *GridPoint) Geo2Grid(loc Locator) bool {
	if g.gridStaleH {
		x, y, ok := loc.Geo2Grid(g.lon, g.lat)
		if !ok {
			return false
		}
		g.x, g.y = x, y
		g.gridStaleH = false
	}
	if g.is3D && g.gridStaleV {
		g.z = g.bound(loc.Depth2Z(g.x, g.y, g.depth))
		g.gridStaleV = false
	}
	return true
}

// Grid2Geo refreshes the geographic side if the grid side changed.
func (g *GridPoint) Grid2Geo(loc Locator) {
	if g.geoStaleH {
		g.lon, g.lat = loc.Grid2Geo(g.x, g.y)
		g.geoStaleH = false
	}
	if g.is3D && g.geoStaleV {
		g.depth = loc.Z2Depth(g.x, g.y, g.z)
		g.geoStaleV = false
	}
}

// GeoStale reports whether lon/lat/depth lag behind the grid side.
func (g *GridPoint) GeoStale() bool {
	return g.geoStaleH || (g.is3D && g.geoStaleV)
}

// Increment adds move to the pending displacement. An exclusive increment
// replaces what earlier actions accumulated on that axis and freezes it for
// the rest of the step.
func (g *GridPoint) Increment(dx, dy, dz float64, exclusiveH, exclusiveV bool) error {
	if g.exclH && exclusiveH {
		return ErrExclusiveMove
	}
	if g.exclV && exclusiveV {
		return ErrExclusiveMove
	}
	if !g.exclH {
		if exclusiveH {
			g.move[0], g.move[1] = dx, dy
			g.exclH = true
		} else {
			g.move[0] += dx
			g.move[1] += dy
		}
	}
	if g.is3D && !g.exclV {
		if exclusiveV {
			g.move[2] = dz
			g.exclV = true
		} else {
			g.move[2] += dz
		}
	}
	return nil
}

// Move returns the pending displacement.
func (g *GridPoint) Move() (dx, dy, dz float64) {
	return g.move[0], g.move[1], g.move[2]
}

// SetHorizontalMove overrides the pending horizontal displacement, as the
// coastline handling does once every action has contributed.
func (g *GridPoint) SetHorizontalMove(dx, dy float64) {
	g.move[0], g.move[1] = dx, dy
}

// DiscardMove drops the pending displacement without applying it.
func (g *GridPoint) DiscardMove() {
	g.move = [3]float64{}
	g.exclH, g.exclV = false, false
}

// ApplyMove adds the pending displacement to the grid coordinates and
// resets it.
func (g *GridPoint) ApplyMove() {
	g.SetX(g.x + g.move[0])
	g.SetY(g.y + g.move[1])
	if g.is3D {
		g.SetZ(g.z + g.move[2])
	}
	g.move = [3]float64{}
	g.exclH, g.exclV = false, false
}
