package action

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/driftsim/internal/drift"
	"github.com/san-kum/driftsim/internal/particle"
)

// Coastline decides what happens to a move that ends on land.
type Coastline int

const (
	Beaching Coastline = iota
	Bouncing
	Standstill
	NoCoastline
)

func ParseCoastline(s string) (Coastline, error) {
	switch strings.ToLower(s) {
	case "", "beaching":
		return Beaching, nil
	case "bouncing":
		return Bouncing, nil
	case "standstill":
		return Standstill, nil
	case "none":
		return NoCoastline, nil
	}
	return Beaching, fmt.Errorf("action: unknown coastline behaviour %q: %w", s, drift.ErrInvalidConfig)
}

func (c Coastline) String() string {
	switch c {
	case Bouncing:
		return "bouncing"
	case Standstill:
		return "standstill"
	case NoCoastline:
		return "none"
	default:
		return "beaching"
	}
}

// WaterTester reports whether a fractional grid position is wet.
type WaterTester interface {
	IsInWater(x, y float64) bool
	IsOnEdge(x, y float64) bool
}

// Move applies the pending displacement of p according to c. A move ending
// on the domain edge kills the particle as out of domain whatever c is;
// only moves that stay inside are checked against the coast.
func (c Coastline) Move(p *particle.Particle, w WaterTester) {
	dx, dy, _ := p.Move()
	if w.IsOnEdge(p.X()+dx, p.Y()+dy) {
		p.ApplyMove()
		p.Kill(particle.DeadOut)
		return
	}
	switch c {
	case Beaching:
		p.ApplyMove()
		if !w.IsInWater(p.X(), p.Y()) {
			p.Kill(particle.DeadBeach)
			return
		}
	case Bouncing:
		bx, by := bounce(w, p.X(), p.Y(), dx, dy, 0)
		p.SetHorizontalMove(bx, by)
		p.ApplyMove()
	case Standstill:
		if !w.IsInWater(p.X()+dx, p.Y()+dy) {
			p.SetHorizontalMove(0, 0)
		}
		p.ApplyMove()
	default:
		p.ApplyMove()
	}
	if w.IsOnEdge(p.X(), p.Y()) {
		p.Kill(particle.DeadOut)
	}
}

const (
	bounceSearch = 1000
	bounceDepth  = 10
)

// bounce reflects (dx, dy) off the coast it crosses. The impact point is
// found by bisection along the move; a cell face is crossed where a
// coordinate sits half way between two rho points.
func bounce(w WaterTester, x, y, dx, dy float64, iter int) (float64, float64) {
	if w.IsInWater(x+dx, y+dy) {
		return dx, dy
	}
	var meridional, zonal bool
	s, ds, sign := 0.0, 1.0, 1.0
	for n := 0; n < bounceSearch && !meridional && !zonal; n++ {
		ds *= 0.5
		s += sign * ds
		xs, ys := x+s*dx, y+s*dy
		if w.IsInWater(xs, ys) {
			sign = 1
		} else {
			sign = -1
		}
		meridional = dx != 0 && onFace(xs)
		zonal = dy != 0 && onFace(ys)
	}

	dx1 := math.Round(x) + math.Copysign(0.5, dx) - x
	dy1 := math.Round(y) + math.Copysign(0.5, dy) - y
	ndx, ndy := dx, dy
	switch {
	case meridional && zonal:
		ndx, ndy = 2*dx1-dx, 2*dy1-dy
	case meridional:
		ndx = 2*dx1 - dx
	case zonal:
		ndy = 2*dy1 - dy
	}
	if !w.IsInWater(x+ndx, y+ndy) && iter < bounceDepth {
		return bounce(w, x, y, ndx, ndy, iter+1)
	}
	return ndx, ndy
}

func onFace(v float64) bool {
	return math.Abs(math.Round(v+0.5)-(v+0.5)) < 1e-8
}
