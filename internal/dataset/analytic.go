package dataset

import (
	"fmt"
	"math"

	"github.com/ctessum/sparse"

	"github.com/san-kum/driftsim/internal/drift"
	"github.com/san-kum/driftsim/internal/grid"
	"github.com/san-kum/driftsim/internal/vertical"
)

// Field names served by the analytic dataset.
const (
	FieldTemp = "temp"
	FieldSalt = "salt"
	FieldKv   = "AKt"
)

// AnalyticSpec describes a synthetic ocean on a regular grid.
type AnalyticSpec struct {
	Grid grid.RegularSpec
	Nz   int // 0 builds a 2D dataset

	U, V float64 // m/s
	// Period rotates the current through a full turn, in seconds. Zero
	// keeps it steady.
	Period float64

	SurfaceTemp, BottomTemp float64
	Salinity                float64
	Kv                      float64 // m2/s
	Depth                   float64 // flat bottom when Grid.Depth is nil

	Start, Interval float64 // seconds
	Records         int
}

// DefaultAnalyticSpec is a 30x20 shelf patch with a weak eastward current.
func DefaultAnalyticSpec() AnalyticSpec {
	return AnalyticSpec{
		Grid: grid.RegularSpec{
			Nx: 30, Ny: 20,
			Lon0: -5, Lat0: 44,
			DLon: 0.05, DLat: 0.05,
		},
		Nz:          10,
		U:           0.1,
		SurfaceTemp: 16, BottomTemp: 11,
		Salinity: 35,
		Kv:       1e-3,
		Depth:    100,
		Interval: 3600,
		Records:  24 * 30,
	}
}

// Analytic serves AnalyticSpec fields from memory.
type Analytic struct {
	spec   AnalyticSpec
	static *Static
}

func NewAnalytic(spec AnalyticSpec) (*Analytic, error) {
	if spec.Records < 2 || spec.Interval <= 0 {
		return nil, fmt.Errorf("dataset: analytic needs two or more records and a positive interval: %w", drift.ErrInvalidConfig)
	}
	if spec.Grid.Depth == nil {
		depth := spec.Depth
		if depth <= 0 {
			depth = 100
		}
		spec.Grid.Depth = func(int, int) float64 { return depth }
	}
	g, err := grid.NewRegular(spec.Grid)
	if err != nil {
		return nil, err
	}
	st := &Static{Geometry: g}
	if spec.Nz > 0 {
		h := sparse.ZerosDense(g.Ny, g.Nx)
		for j := 0; j < g.Ny; j++ {
			for i := 0; i < g.Nx; i++ {
				h.Set(math.Max(g.H(i, j), 1), j, i)
			}
		}
		if st.Levels, err = vertical.NewLevels(spec.Nz, 0, nil, nil, vertical.Linear, h); err != nil {
			return nil, err
		}
	}
	return &Analytic{spec: spec, static: st}, nil
}

func (a *Analytic) Static() *Static { return a.static }

func (a *Analytic) NumRecords() int { return a.spec.Records }

func (a *Analytic) Time(rank int) (float64, error) {
	if rank < 0 || rank >= a.spec.Records {
		return 0, fmt.Errorf("dataset: rank %d outside [0, %d): %w", rank, a.spec.Records, drift.ErrEndOfDataset)
	}
	return a.spec.Start + float64(rank)*a.spec.Interval, nil
}

// current returns the velocity at time t.
func (a *Analytic) current(t float64) (u, v float64) {
	if a.spec.Period == 0 {
		return a.spec.U, a.spec.V
	}
	phase := 2 * math.Pi * (t - a.spec.Start) / a.spec.Period
	s, c := math.Sincos(phase)
	return a.spec.U*c - a.spec.V*s, a.spec.U*s + a.spec.V*c
}

func (a *Analytic) Record(rank int, scalars []string) (*Record, error) {
	t, err := a.Time(rank)
	if err != nil {
		return nil, err
	}
	g := a.static.Geometry
	nz := a.static.Nz()
	uu, vv := a.current(t)

	rec := &Record{
		U:       sparse.ZerosDense(nz, g.Ny, g.Nx-1),
		V:       sparse.ZerosDense(nz, g.Ny-1, g.Nx),
		Scalars: make(map[string]*sparse.DenseArray),
	}
	for n := range rec.U.Elements {
		rec.U.Elements[n] = uu
	}
	for n := range rec.V.Elements {
		rec.V.Elements[n] = vv
	}
	if a.static.Is3D() {
		rec.Zeta = sparse.ZerosDense(g.Ny, g.Nx)
	}

	for _, name := range scalars {
		var f func(k int) float64
		switch name {
		case FieldTemp:
			f = func(k int) float64 {
				frac := (float64(k) + 0.5) / float64(nz)
				return a.spec.BottomTemp + frac*(a.spec.SurfaceTemp-a.spec.BottomTemp)
			}
		case FieldSalt:
			f = func(int) float64 { return a.spec.Salinity }
		case FieldKv:
			f = func(int) float64 { return a.spec.Kv }
		default:
			continue
		}
		arr := sparse.ZerosDense(nz, g.Ny, g.Nx)
		for k := 0; k < nz; k++ {
			val := f(k)
			for n := k * g.Ny * g.Nx; n < (k+1)*g.Ny*g.Nx; n++ {
				arr.Elements[n] = val
			}
		}
		rec.Scalars[name] = arr
	}
	return rec, nil
}

func (a *Analytic) Close() error { return nil }
