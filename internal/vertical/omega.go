package vertical

import (
	"fmt"
	"math"

	"github.com/ctessum/sparse"

	"github.com/san-kum/driftsim/internal/drift"
	"github.com/san-kum/driftsim/internal/grid"
)

// ComputeW diagnoses the vertical velocity on w levels from the horizontal
// transports through each cell face.
//
// zw is [nz+1][ny][nx], u is [nz][ny][>=nx-1] with u[k][j][i-1] on the face
// between rho columns i-1 and i, v is [nz][>=ny-1][nx] likewise. The result
// is [nz+1][ny][nx] in metres per second with w = 0 at the bottom and at
// the surface.
func ComputeW(g *grid.Geometry, zw, u, v *sparse.DenseArray) (*sparse.DenseArray, error) {
	nx, ny := g.Nx, g.Ny
	if len(zw.Shape) != 3 || zw.Shape[1] != ny || zw.Shape[2] != nx {
		return nil, fmt.Errorf("vertical: z_w shape %v does not match grid %dx%d: %w", zw.Shape, nx, ny, drift.ErrDimensionMismatch)
	}
	nz := zw.Shape[0] - 1
	if len(u.Shape) != 3 || u.Shape[0] != nz || u.Shape[1] != ny || u.Shape[2] < nx-1 {
		return nil, fmt.Errorf("vertical: u shape %v does not match %d levels: %w", u.Shape, nz, drift.ErrDimensionMismatch)
	}
	if len(v.Shape) != 3 || v.Shape[0] != nz || v.Shape[1] < ny-1 || v.Shape[2] != nx {
		return nil, fmt.Errorf("vertical: v shape %v does not match %d levels: %w", v.Shape, nz, drift.ErrDimensionMismatch)
	}

	dz := func(k, j, i int) float64 { return zw.Get(k+1, j, i) - zw.Get(k, j, i) }
	finite := func(x float64) float64 {
		if math.IsNaN(x) {
			return 0
		}
		return x
	}

	huon := sparse.ZerosDense(nz, ny, nx)
	hvom := sparse.ZerosDense(nz, ny, nx)
	for k := 0; k < nz; k++ {
		for j := 0; j < ny; j++ {
			for i := 1; i < nx; i++ {
				t := (dz(k, j, i) + dz(k, j, i-1)) * g.UFaceHalfWidth(i, j) * u.Get(k, j, i-1)
				huon.Set(finite(t), k, j, i)
			}
		}
		for j := 1; j < ny; j++ {
			for i := 0; i < nx; i++ {
				t := (dz(k, j, i) + dz(k, j-1, i)) * g.VFaceHalfWidth(i, j) * v.Get(k, j-1, i)
				hvom.Set(finite(t), k, j, i)
			}
		}
	}

	w := sparse.ZerosDense(nz+1, ny, nx)
	col := make([]float64, nz+1)
	for j := ny - 2; j >= 0; j-- {
		for i := 0; i < nx-1; i++ {
			col[0] = 0
			for k := 1; k <= nz; k++ {
				col[k] = col[k-1] +
					huon.Get(k-1, j, i) - huon.Get(k-1, j, i+1) +
					hvom.Get(k-1, j, i) - hvom.Get(k-1, j+1, i)
			}
			bottom := zw.Get(0, j, i)
			depth := zw.Get(nz, j, i) - bottom
			var wrk float64
			if depth != 0 {
				wrk = col[nz] / depth
			}
			for k := nz - 1; k > 0; k-- {
				col[k] -= wrk * (zw.Get(k, j, i) - bottom)
			}
			col[nz] = 0
			for k := 0; k <= nz; k++ {
				w.Set(col[k], k, j, i)
			}
		}
	}

	for k := 0; k <= nz; k++ {
		for j := 0; j < ny; j++ {
			w.Set(w.Get(k, j, 1), k, j, 0)
			w.Set(w.Get(k, j, nx-2), k, j, nx-1)
		}
		for i := 0; i < nx; i++ {
			w.Set(w.Get(k, 1, i), k, 0, i)
			w.Set(w.Get(k, ny-2, i), k, ny-1, i)
		}
	}

	for k := 0; k <= nz; k++ {
		for j := 0; j < ny; j++ {
			for i := 0; i < nx; i++ {
				w.Set(w.Get(k, j, i)*g.InvArea(i, j), k, j, i)
			}
		}
	}
	return w, nil
}
