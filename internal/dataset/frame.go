// Package dataset reads hydrodynamic model output and keeps the pair of
// time frames bracketing the current simulation time.
package dataset

import (
	"math"

	"github.com/ctessum/sparse"

	"github.com/san-kum/driftsim/internal/grid"
	"github.com/san-kum/driftsim/internal/vertical"
)

// Frame is one fully loaded record. It is never modified after the
// manager publishes it.
type Frame struct {
	Rank int
	Time float64

	U, V *sparse.DenseArray // [nz][ny][nx-1], [nz][ny-1][nx]
	W    *sparse.DenseArray // [nz+1][ny][nx]; nil for 2D datasets

	Zeta     *sparse.DenseArray // [ny][nx]; nil for 2D datasets
	ZW, ZRho *sparse.DenseArray

	Scalars map[string]*sparse.DenseArray
}

// Scalar returns a named field and whether it was loaded.
func (f *Frame) Scalar(name string) (*sparse.DenseArray, bool) {
	a, ok := f.Scalars[name]
	return a, ok
}

// Pair brackets the simulation time between two frames. For backward runs
// Tp1 precedes Tp0 in time.
type Pair struct {
	Tp0, Tp1 *Frame
	Dt       float64 // |Tp1.Time - Tp0.Time|
}

// Frac is the weight of Tp1 at time t.
func (p *Pair) Frac(t float64) float64 {
	if p.Dt == 0 {
		return 0
	}
	return (p.Dt - math.Abs(p.Tp1.Time-t)) / p.Dt
}

// Blend mixes a value sampled on both frames.
func (p *Pair) Blend(v0, v1, t float64) float64 {
	frac := p.Frac(t)
	return (1-frac)*v0 + frac*v1
}

// Static is the time-invariant part of a dataset.
type Static struct {
	Geometry *grid.Geometry
	Levels   *vertical.Levels // nil for 2D datasets
}

// Nz is the number of rho levels, 1 for 2D datasets.
func (s *Static) Nz() int {
	if s.Levels == nil {
		return 1
	}
	return s.Levels.Nz
}

// Is3D reports whether the dataset resolves the vertical.
func (s *Static) Is3D() bool { return s.Levels != nil }

// Record holds the raw fields of one time record as read from disk.
type Record struct {
	U, V    *sparse.DenseArray
	Zeta    *sparse.DenseArray
	Scalars map[string]*sparse.DenseArray
}

// Reader gives access to a hydrodynamic dataset.
type Reader interface {
	Static() *Static
	NumRecords() int
	Time(rank int) (float64, error)
	// Record reads the fields of a record. Scalars that do not exist in the
	// dataset are left out of the result.
	Record(rank int, scalars []string) (*Record, error)
	Close() error
}
