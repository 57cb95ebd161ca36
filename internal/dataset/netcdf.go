package dataset

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ctessum/sparse"
	"github.com/sirupsen/logrus"

	"github.com/san-kum/driftsim/internal/drift"
	"github.com/san-kum/driftsim/internal/grid"
	"github.com/san-kum/driftsim/internal/vertical"
)

// Names maps the fields the engine needs onto dataset variable names.
type Names struct {
	Convention grid.Convention

	Lon, Lat string
	H, Mask  string
	Pm, Pn   string
	U, V     string
	Zeta     string
	Time     string

	Hc, CsR, CsW string
}

// ROMSNames are the usual ROMS history file variables.
func ROMSNames() Names {
	return Names{
		Convention: grid.ROMS,
		Lon:        "lon_rho", Lat: "lat_rho",
		H: "h", Mask: "mask_rho",
		Pm: "pm", Pn: "pn",
		U: "u", V: "v",
		Zeta: "zeta",
		Time: "ocean_time",
		Hc:   "hc", CsR: "Cs_r", CsW: "Cs_w",
	}
}

// MARSNames are the MARS3D variables. MARS uses 1D coordinate axes and
// evenly spread sigma levels.
func MARSNames() Names {
	return Names{
		Convention: grid.MARS,
		Lon:        "longitude", Lat: "latitude",
		H: "H0",
		U: "UZ", V: "VZ",
		Zeta: "XE",
		Time: "time",
	}
}

// NetCDF reads a time series split over one or more files sharing a grid.
type NetCDF struct {
	names  Names
	files  []*ncFile
	times  []float64
	owner  []int // file index per global rank
	local  []int // rank within the owning file
	static *Static
	log    logrus.FieldLogger
}

// OpenNetCDF opens the files, orders them by their first time and reads
// the grid from the first one.
func OpenNetCDF(paths []string, names Names, log logrus.FieldLogger) (*NetCDF, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("dataset: no input files: %w", drift.ErrInvalidConfig)
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	d := &NetCDF{names: names, log: log}
	for _, p := range paths {
		nc, err := openNC(p)
		if err != nil {
			d.Close()
			return nil, err
		}
		d.files = append(d.files, nc)
	}

	first := make([]float64, len(d.files))
	fileTimes := make([][]float64, len(d.files))
	for n, nc := range d.files {
		ts, err := readTimes(nc, names.Time)
		if err != nil {
			d.Close()
			return nil, err
		}
		if len(ts) == 0 {
			d.Close()
			return nil, fmt.Errorf("dataset: %s has no records: %w", nc.path, drift.ErrMissingVariable)
		}
		fileTimes[n], first[n] = ts, ts[0]
	}
	order := make([]int, len(d.files))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return first[order[a]] < first[order[b]] })
	sorted := make([]*ncFile, len(order))
	for n, o := range order {
		sorted[n] = d.files[o]
		for r, t := range fileTimes[o] {
			d.times = append(d.times, t)
			d.owner = append(d.owner, n)
			d.local = append(d.local, r)
		}
	}
	d.files = sorted

	static, err := d.readStatic(d.files[0])
	if err != nil {
		d.Close()
		return nil, err
	}
	d.static = static
	d.log.WithFields(logrus.Fields{
		"files":   len(d.files),
		"records": len(d.times),
		"nx":      static.Geometry.Nx,
		"ny":      static.Geometry.Ny,
		"nz":      static.Nz(),
	}).Info("dataset opened")
	return d, nil
}

func readTimes(nc *ncFile, name string) ([]float64, error) {
	if !nc.has(name) {
		return nil, fmt.Errorf("dataset: time variable %q in %s: %w", name, nc.path, drift.ErrMissingVariable)
	}
	if !nc.cdf.Header.IsRecordVariable(name) {
		a, err := ReadVariable(nc.cdf, name, 0)
		if err != nil {
			return nil, err
		}
		return a.Elements, nil
	}
	ts := make([]float64, nc.numRecs)
	for r := range ts {
		a, err := ReadVariable(nc.cdf, name, r)
		if err != nil {
			return nil, err
		}
		ts[r] = a.Elements[0]
	}
	return ts, nil
}

func (d *NetCDF) readStatic(nc *ncFile) (*Static, error) {
	read := func(name string) (*sparse.DenseArray, error) {
		if name == "" {
			return nil, nil
		}
		a, err := ReadVariable(nc.cdf, name, 0)
		if err != nil {
			return nil, fmt.Errorf("dataset: grid of %s: %w", nc.path, err)
		}
		return a, nil
	}
	lon, err := read(d.names.Lon)
	if err != nil {
		return nil, err
	}
	lat, err := read(d.names.Lat)
	if err != nil {
		return nil, err
	}
	h, err := read(d.names.H)
	if err != nil {
		return nil, err
	}

	var g *grid.Geometry
	switch d.names.Convention {
	case grid.MARS:
		g, err = grid.NewMARS(lon.Elements, lat.Elements, h)
	default:
		a := grid.Arrays{Lon: lon, Lat: lat, H: h}
		if a.Pm, err = read(d.names.Pm); err != nil {
			return nil, err
		}
		if a.Pn, err = read(d.names.Pn); err != nil {
			return nil, err
		}
		if nc.has(d.names.Mask) {
			if a.Mask, err = read(d.names.Mask); err != nil {
				return nil, err
			}
		}
		g, err = grid.NewROMS(a)
	}
	if err != nil {
		return nil, err
	}

	uDims := nc.cdf.Header.Lengths(d.names.U)
	if uDims == nil {
		return nil, fmt.Errorf("dataset: velocity %q in %s: %w", d.names.U, nc.path, drift.ErrMissingVariable)
	}
	st := &Static{Geometry: g}
	if len(uDims) < 4 {
		return st, nil
	}
	nz := uDims[1]

	tr := vertical.Linear
	var hc float64
	var csR, csW []float64
	if d.names.Convention != grid.MARS {
		if tr, err = vertical.ParseTransform(attrString(nc.cdf, "", "VertCoordType")); err != nil {
			return nil, err
		}
		if hc, err = d.sigmaParam(nc, d.names.Hc); err != nil {
			return nil, err
		}
		if csR, err = d.sigmaCurve(nc, d.names.CsR); err != nil {
			return nil, err
		}
		if csW, err = d.sigmaCurve(nc, d.names.CsW); err != nil {
			return nil, err
		}
	}
	st.Levels, err = vertical.NewLevels(nz, hc, csR, csW, tr, h)
	if err != nil {
		return nil, err
	}
	return st, nil
}

// sigmaParam reads hc from a global attribute, as UCLA files store it, or
// from a variable, as Rutgers files do.
func (d *NetCDF) sigmaParam(nc *ncFile, name string) (float64, error) {
	vals, err := d.sigmaCurve(nc, name)
	if err != nil {
		return 0, err
	}
	return vals[0], nil
}

func (d *NetCDF) sigmaCurve(nc *ncFile, name string) ([]float64, error) {
	if vals, ok := attrFloats(nc.cdf, "", name); ok && len(vals) > 0 {
		return vals, nil
	}
	if nc.has(name) {
		a, err := ReadVariable(nc.cdf, name, 0)
		if err != nil {
			return nil, err
		}
		return a.Elements, nil
	}
	return nil, fmt.Errorf("dataset: s-coordinate parameter %q found neither among variables nor global attributes: %w",
		name, drift.ErrMissingVariable)
}

func (d *NetCDF) Static() *Static { return d.static }

func (d *NetCDF) NumRecords() int { return len(d.times) }

func (d *NetCDF) Time(rank int) (float64, error) {
	if rank < 0 || rank >= len(d.times) {
		return 0, fmt.Errorf("dataset: rank %d outside [0, %d): %w", rank, len(d.times), drift.ErrEndOfDataset)
	}
	return d.times[rank], nil
}

// Times returns every record time in order.
func (d *NetCDF) Times() []float64 { return append([]float64(nil), d.times...) }

func (d *NetCDF) Record(rank int, scalars []string) (*Record, error) {
	if rank < 0 || rank >= len(d.times) {
		return nil, fmt.Errorf("dataset: rank %d outside [0, %d): %w", rank, len(d.times), drift.ErrEndOfDataset)
	}
	nc, r := d.files[d.owner[rank]], d.local[rank]
	nz := d.static.Nz()

	u, err := d.velocity(nc, d.names.U, r, nz)
	if err != nil {
		return nil, err
	}
	v, err := d.velocity(nc, d.names.V, r, nz)
	if err != nil {
		return nil, err
	}
	rec := &Record{U: u, V: v, Scalars: make(map[string]*sparse.DenseArray, len(scalars))}
	if d.static.Is3D() {
		if rec.Zeta, err = ReadVariable(nc.cdf, d.names.Zeta, r); err != nil {
			return nil, err
		}
	}
	for _, name := range scalars {
		if !nc.has(name) {
			continue
		}
		a, err := ReadVariable(nc.cdf, name, r)
		if err != nil {
			return nil, err
		}
		rec.Scalars[name] = a
	}
	return rec, nil
}

// velocity reads a velocity component and gives 2D fields a single level.
func (d *NetCDF) velocity(nc *ncFile, name string, rank, nz int) (*sparse.DenseArray, error) {
	a, err := ReadVariable(nc.cdf, name, rank)
	if err != nil {
		return nil, err
	}
	if len(a.Shape) == 3 {
		return a, nil
	}
	if len(a.Shape) != 2 || nz != 1 {
		return nil, fmt.Errorf("dataset: %q has shape %v: %w", name, a.Shape, drift.ErrDimensionMismatch)
	}
	out := sparse.ZerosDense(1, a.Shape[0], a.Shape[1])
	copy(out.Elements, a.Elements)
	return out, nil
}

func (d *NetCDF) Close() error {
	var errs []error
	for _, nc := range d.files {
		if nc != nil {
			errs = append(errs, nc.Close())
		}
	}
	return errors.Join(errs...)
}
