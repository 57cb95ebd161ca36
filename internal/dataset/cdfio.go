package dataset

import (
	"fmt"
	"math"
	"os"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"

	"github.com/san-kum/driftsim/internal/drift"
)

// ncFile is an open NetCDF file together with its record count.
type ncFile struct {
	path    string
	f       *os.File
	cdf     *cdf.File
	numRecs int
}

func openNC(path string) (*ncFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	cf, err := cdf.Open(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("dataset: reading header of %s: %w", path, err)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	return &ncFile{
		path:    path,
		f:       f,
		cdf:     cf,
		numRecs: int(cf.Header.NumRecs(fi.Size())),
	}, nil
}

func (nc *ncFile) Close() error { return nc.f.Close() }

func (nc *ncFile) has(name string) bool {
	return name != "" && nc.cdf.Header.Lengths(name) != nil
}

// OpenFile opens a NetCDF file for reading with ReadVariable.
func OpenFile(path string) (*cdf.File, *os.File, error) {
	nc, err := openNC(path)
	if err != nil {
		return nil, nil, err
	}
	return nc.cdf, nc.f, nil
}

// NumRecords returns the number of records in a file opened with OpenFile.
func NumRecords(cf *cdf.File, f *os.File) (int, error) {
	fi, err := f.Stat()
	if err != nil {
		return 0, err
	}
	return int(cf.Header.NumRecs(fi.Size())), nil
}

// ReadVariable reads a variable as float64, applying scale_factor and
// add_offset and turning _FillValue into NaN. For record variables rec
// selects the record, which is dropped from the returned shape. rec is
// ignored for fixed-size variables.
func ReadVariable(f *cdf.File, name string, rec int) (*sparse.DenseArray, error) {
	lengths := f.Header.Lengths(name)
	if lengths == nil {
		return nil, fmt.Errorf("dataset: variable %q: %w", name, drift.ErrMissingVariable)
	}
	dims := append([]int(nil), lengths...)
	var begin, end []int
	if f.Header.IsRecordVariable(name) {
		dims = dims[1:]
		begin, end = make([]int, len(lengths)), make([]int, len(lengths))
		begin[0], end[0] = rec, rec+1
	}
	n := 1
	for _, d := range dims {
		n *= d
	}
	if len(dims) == 0 {
		dims = []int{1}
	}

	r := f.Reader(name, begin, end)
	buf := r.Zero(n)
	if _, err := r.Read(buf); err != nil {
		return nil, fmt.Errorf("dataset: reading %q record %d: %v", name, rec, err)
	}

	scale, offset := 1.0, 0.0
	if v, ok := attrFloat(f, name, "scale_factor"); ok {
		scale = v
	}
	if v, ok := attrFloat(f, name, "add_offset"); ok {
		offset = v
	}
	fill, hasFill := attrFloat(f, name, "_FillValue")

	data := sparse.ZerosDense(dims...)
	put := func(i int, raw float64) {
		if hasFill && raw == fill {
			data.Elements[i] = math.NaN()
			return
		}
		data.Elements[i] = raw*scale + offset
	}
	switch vals := buf.(type) {
	case []float32:
		for i, v := range vals {
			put(i, float64(v))
		}
	case []float64:
		for i, v := range vals {
			put(i, v)
		}
	case []int16:
		for i, v := range vals {
			put(i, float64(v))
		}
	case []int32:
		for i, v := range vals {
			put(i, float64(v))
		}
	case []uint8:
		for i, v := range vals {
			put(i, float64(v))
		}
	default:
		return nil, fmt.Errorf("dataset: variable %q has unsupported type %T", name, buf)
	}
	return data, nil
}

// attrFloat reads the first value of a numeric attribute. An empty
// variable name reads a global attribute.
func attrFloat(f *cdf.File, variable, name string) (float64, bool) {
	vals, ok := attrFloats(f, variable, name)
	if !ok || len(vals) == 0 {
		return 0, false
	}
	return vals[0], true
}

func attrFloats(f *cdf.File, variable, name string) ([]float64, bool) {
	switch a := f.Header.GetAttribute(variable, name).(type) {
	case []float64:
		return append([]float64(nil), a...), true
	case []float32:
		out := make([]float64, len(a))
		for i, v := range a {
			out[i] = float64(v)
		}
		return out, true
	case []int32:
		out := make([]float64, len(a))
		for i, v := range a {
			out[i] = float64(v)
		}
		return out, true
	case []int16:
		out := make([]float64, len(a))
		for i, v := range a {
			out[i] = float64(v)
		}
		return out, true
	}
	return nil, false
}

func attrString(f *cdf.File, variable, name string) string {
	if s, ok := f.Header.GetAttribute(variable, name).(string); ok {
		return s
	}
	return ""
}
