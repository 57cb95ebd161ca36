// Package output writes particle trajectories to NetCDF.
//
// The file has an unlimited time dimension and one drifter dimension
// sized to the release capacity. Drifters not released yet carry NaN
// positions and a mortality of -1; dead ones keep NaN positions and the
// code of their cause.
package output

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/ctessum/cdf"
	"github.com/sirupsen/logrus"

	"github.com/san-kum/driftsim/internal/particle"
)

const notReleased = -1

// Writer is a sim.Observer recording every RecordFrequency-th step.
type Writer struct {
	path     string
	f        *os.File
	cf       *cdf.File
	n        int
	freq     int
	trackers []Tracker
	rec      int
	buf      *bufferPool
	log      logrus.FieldLogger
}

// Options tunes a Writer. Attributes become global attributes.
type Options struct {
	RecordFrequency int
	Trackers        []Tracker
	Attributes      map[string]string
	Log             logrus.FieldLogger
}

// Create writes the header of a trajectory file for n drifters.
func Create(path string, n int, opts Options) (*Writer, error) {
	if n <= 0 {
		return nil, fmt.Errorf("output: need at least one drifter, got %d", n)
	}
	if opts.RecordFrequency <= 0 {
		opts.RecordFrequency = 1
	}
	if opts.Log == nil {
		opts.Log = logrus.StandardLogger()
	}

	h := cdf.NewHeader([]string{"time", "drifter"}, []int{0, n})
	for k, v := range opts.Attributes {
		h.AddAttribute("", k, v)
	}
	h.AddVariable("time", []string{"time"}, []float64{0})
	h.AddAttribute("time", "units", "seconds")
	for _, v := range []struct{ name, units string }{
		{"lon", "degrees_east"},
		{"lat", "degrees_north"},
		{"depth", "m"},
		{"age", "s"},
	} {
		h.AddVariable(v.name, []string{"time", "drifter"}, []float32{0})
		h.AddAttribute(v.name, "units", v.units)
	}
	h.AddVariable("mortality", []string{"time", "drifter"}, []int32{0})
	h.AddAttribute("mortality", "description", mortalityLegend())
	for _, tr := range opts.Trackers {
		h.AddVariable(tr.Name(), []string{"time", "drifter"}, []float32{0})
		if u := tr.Units(); u != "" {
			h.AddAttribute(tr.Name(), "units", u)
		}
	}
	h.Define()
	if errs := h.Check(); len(errs) > 0 {
		return nil, fmt.Errorf("output: invalid header: %v", errs[0])
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	cf, err := cdf.Create(f, h)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("output: %s: %w", path, err)
	}
	return &Writer{
		path:     path,
		f:        f,
		cf:       cf,
		n:        n,
		freq:     opts.RecordFrequency,
		trackers: opts.Trackers,
		buf:      newBufferPool(n),
		log:      opts.Log,
	}, nil
}

func mortalityLegend() string {
	s := fmt.Sprintf("%d not released", notReleased)
	for _, c := range particle.Causes {
		s += fmt.Sprintf(", %d %s", c.Code(), c)
	}
	return s
}

func (w *Writer) Path() string { return w.path }

// Records is the number of records written so far.
func (w *Writer) Records() int { return w.rec }

func (w *Writer) OnStep(step int, t float64, pop []*particle.Particle) error {
	if step%w.freq != 0 {
		return nil
	}
	if len(pop) > w.n {
		return fmt.Errorf("output: %d particles for %d drifters", len(pop), w.n)
	}
	if _, err := w.cf.Writer("time", []int{w.rec}, nil).Write([]float64{t}); err != nil {
		return fmt.Errorf("output: writing time: %w", err)
	}

	nan := float32(math.NaN())
	column := func(get func(p *particle.Particle) float64) []float32 {
		b := w.buf.Get()
		for i := range b {
			b[i] = nan
		}
		for i, p := range pop {
			if p.IsLiving() {
				b[i] = float32(get(p))
			}
		}
		return b
	}
	cols := map[string]func(p *particle.Particle) float64{
		"lon":   (*particle.Particle).Lon,
		"lat":   (*particle.Particle).Lat,
		"depth": (*particle.Particle).Depth,
		"age":   func(p *particle.Particle) float64 { return p.Age },
	}
	for _, tr := range w.trackers {
		cols[tr.Name()] = func(p *particle.Particle) float64 { return tr.Sample(p, t) }
	}
	for name, get := range cols {
		b := column(get)
		_, err := w.cf.Writer(name, []int{w.rec, 0}, nil).Write(b)
		w.buf.Put(b)
		if err != nil {
			return fmt.Errorf("output: writing %s: %w", name, err)
		}
	}

	mort := make([]int32, w.n)
	for i := range mort {
		mort[i] = notReleased
	}
	for i, p := range pop {
		mort[i] = int32(p.Cause().Code())
	}
	if _, err := w.cf.Writer("mortality", []int{w.rec, 0}, nil).Write(mort); err != nil {
		return fmt.Errorf("output: writing mortality: %w", err)
	}

	w.rec++
	w.log.WithFields(logrus.Fields{"record": w.rec, "time": t}).Debug("trajectory record written")
	return nil
}

// Close fixes the record count in the header and closes the file.
func (w *Writer) Close() error {
	if err := cdf.UpdateNumRecs(w.f); err != nil {
		w.f.Close()
		return err
	}
	return w.f.Close()
}
