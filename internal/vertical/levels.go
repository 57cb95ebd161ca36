// Package vertical computes terrain-following sigma levels and the
// vertical velocity implied by horizontal transport divergence.
package vertical

import (
	"fmt"
	"math"

	"github.com/ctessum/sparse"

	"github.com/san-kum/driftsim/internal/drift"
)

// Transform selects the sigma-to-depth formula.
type Transform int

const (
	// Old is the original ROMS transform: hc*(s-Cs) + Cs*h.
	Old Transform = iota
	// New is the Rutgers/UCLA transform: h*(s*hc + Cs*h)/(hc + h).
	New
	// Linear spreads levels evenly over the column (z = s*h).
	Linear
)

// ParseTransform maps the VertCoordType attribute onto a Transform.
func ParseTransform(s string) (Transform, error) {
	switch s {
	case "", "OLD", "old":
		return Old, nil
	case "NEW", "new":
		return New, nil
	case "LINEAR", "linear", "MARS", "mars":
		return Linear, nil
	}
	return Old, fmt.Errorf("vertical: unknown coordinate transform %q: %w", s, drift.ErrInvalidConfig)
}

// Levels holds the time-invariant rho and w depths, negative below the
// surface, for every column of the grid.
type Levels struct {
	Nz        int
	Hc        float64
	CsR, CsW  []float64
	Transform Transform

	h        *sparse.DenseArray
	zRho, zW *sparse.DenseArray // [nz][ny][nx], [nz+1][ny][nx]
}

// SigmaRho returns the stretched coordinate of rho level k.
func SigmaRho(k, nz int) float64 { return (float64(k-nz) + 0.5) / float64(nz) }

// SigmaW returns the stretched coordinate of w level k.
func SigmaW(k, nz int) float64 { return float64(k-nz) / float64(nz) }

// NewLevels computes the constant levels over bathymetry h ([ny][nx]).
// With the Linear transform csR and csW may be nil.
func NewLevels(nz int, hc float64, csR, csW []float64, tr Transform, h *sparse.DenseArray) (*Levels, error) {
	if nz < 1 {
		return nil, fmt.Errorf("vertical: need at least one level, got %d: %w", nz, drift.ErrInvalidConfig)
	}
	if h == nil || len(h.Shape) != 2 {
		return nil, fmt.Errorf("vertical: bathymetry must be 2D: %w", drift.ErrDimensionMismatch)
	}
	if tr == Linear {
		hc = 0
		csR, csW = make([]float64, nz), make([]float64, nz+1)
		for k := range csR {
			csR[k] = SigmaRho(k, nz)
		}
		for k := range csW {
			csW[k] = SigmaW(k, nz)
		}
	}
	if len(csR) != nz || len(csW) != nz+1 {
		return nil, fmt.Errorf("vertical: Cs_r has %d values and Cs_w %d, want %d and %d: %w",
			len(csR), len(csW), nz, nz+1, drift.ErrDimensionMismatch)
	}

	ny, nx := h.Shape[0], h.Shape[1]
	l := &Levels{
		Nz: nz, Hc: hc,
		CsR: csR, CsW: csW,
		Transform: tr,
		h:         h,
		zRho:      sparse.ZerosDense(nz, ny, nx),
		zW:        sparse.ZerosDense(nz+1, ny, nx),
	}
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			hh := h.Get(j, i)
			for k := 0; k < nz; k++ {
				l.zRho.Set(l.depth(SigmaRho(k, nz), csR[k], hh), k, j, i)
			}
			l.zW.Set(-hh, 0, j, i)
			for k := 1; k < nz; k++ {
				l.zW.Set(l.depth(SigmaW(k, nz), csW[k], hh), k, j, i)
			}
			l.zW.Set(0, nz, j, i)
		}
	}
	return l, nil
}

func (l *Levels) depth(sc, cs, h float64) float64 {
	if l.Transform == New {
		return h * (sc*l.Hc + cs*h) / (l.Hc + h)
	}
	return l.Hc*(sc-cs) + cs*h
}

// ZRhoConst is the constant depth of rho level k at (i, j).
func (l *Levels) ZRhoConst(k, j, i int) float64 { return l.zRho.Get(k, j, i) }

// ZWConst is the constant depth of w level k at (i, j).
func (l *Levels) ZWConst(k, j, i int) float64 { return l.zW.Get(k, j, i) }

// H returns the bathymetry the levels were computed over.
func (l *Levels) H(j, i int) float64 { return l.h.Get(j, i) }

// ZRho returns rho depths adjusted for the free surface zeta ([ny][nx]).
// A nil zeta yields a copy of the constant levels.
func (l *Levels) ZRho(zeta *sparse.DenseArray) *sparse.DenseArray {
	return l.adjust(l.zRho, zeta)
}

// ZW returns w depths adjusted for the free surface.
func (l *Levels) ZW(zeta *sparse.DenseArray) *sparse.DenseArray {
	return l.adjust(l.zW, zeta)
}

func (l *Levels) adjust(cst, zeta *sparse.DenseArray) *sparse.DenseArray {
	out := cst.Copy()
	if zeta == nil {
		return out
	}
	nk, ny, nx := cst.Shape[0], cst.Shape[1], cst.Shape[2]
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			z := zeta.Get(j, i)
			if math.IsNaN(z) {
				continue
			}
			if z == 999 {
				z = 0
			}
			h := l.h.Get(j, i)
			for k := 0; k < nk; k++ {
				n := (k*ny+j)*nx + i
				out.Elements[n] = AdjustForZeta(cst.Elements[n], z, h)
			}
		}
	}
	return out
}

// AdjustForZeta stretches a constant level z over a column of depth h
// whose surface sits at zeta.
func AdjustForZeta(z, zeta, h float64) float64 {
	if h == 0 {
		return z
	}
	return z + zeta*(1+z/h)
}
