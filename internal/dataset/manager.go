package dataset

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/driftsim/internal/drift"
	"github.com/san-kum/driftsim/internal/vertical"
)

// Manager keeps the frame pair bracketing the simulation time and swaps
// it as time advances. Readers of Current always see a complete pair.
type Manager struct {
	reader  Reader
	static  *Static
	scalars []string
	dir     drift.Direction
	log     logrus.FieldLogger

	current atomic.Pointer[Pair]
	missing map[string]bool
}

// NewManager prepares a manager that loads the given scalar fields along
// with the velocities.
func NewManager(r Reader, scalars []string, dir drift.Direction, log logrus.FieldLogger) *Manager {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if dir == 0 {
		dir = drift.Forward
	}
	return &Manager{
		reader:  r,
		static:  r.Static(),
		scalars: scalars,
		dir:     dir,
		log:     log,
		missing: make(map[string]bool),
	}
}

func (m *Manager) Static() *Static { return m.static }

func (m *Manager) Direction() drift.Direction { return m.dir }

// Current returns the published pair, nil before Init.
func (m *Manager) Current() *Pair { return m.current.Load() }

// Init loads the pair bracketing t.
func (m *Manager) Init(t float64) error {
	rank, err := m.findRank(t)
	if err != nil {
		return err
	}
	tp0, err := m.load(rank)
	if err != nil {
		return err
	}
	tp1, err := m.load(rank + int(m.dir))
	if err != nil {
		return err
	}
	for _, name := range m.scalars {
		if _, ok := tp0.Scalars[name]; !ok && !m.missing[name] {
			m.missing[name] = true
			m.log.WithField("field", name).Warn("field not found in dataset, samples will be NaN")
		}
	}
	m.publish(tp0, tp1)
	return nil
}

// Update advances the pair until it brackets t again.
func (m *Manager) Update(t float64) error {
	p := m.current.Load()
	if p == nil {
		return m.Init(t)
	}
	tp0, tp1 := p.Tp0, p.Tp1
	advanced := false
	for m.crossed(t, tp1.Time) {
		next, err := m.load(tp1.Rank + int(m.dir))
		if err != nil {
			return err
		}
		tp0, tp1 = tp1, next
		advanced = true
	}
	if advanced {
		m.publish(tp0, tp1)
	}
	return nil
}

func (m *Manager) crossed(t, t1 float64) bool {
	if m.dir == drift.Forward {
		return t >= t1
	}
	return t <= t1
}

func (m *Manager) publish(tp0, tp1 *Frame) {
	m.current.Store(&Pair{Tp0: tp0, Tp1: tp1, Dt: math.Abs(tp1.Time - tp0.Time)})
	m.log.WithFields(logrus.Fields{
		"rank": tp1.Rank,
		"time": tp1.Time,
	}).Debug("dataset frame advanced")
}

// findRank returns the rank r such that time[r] <= t < time[r+1] going
// forward, or time[r-1] < t <= time[r] going backward.
func (m *Manager) findRank(t float64) (int, error) {
	n := m.reader.NumRecords()
	times := make([]float64, n)
	for r := range times {
		tr, err := m.reader.Time(r)
		if err != nil {
			return 0, err
		}
		times[r] = tr
	}
	return FindRank(times, t, m.dir)
}

// FindRank locates t in an ascending time axis. The returned rank always
// has a successor in direction dir.
func FindRank(times []float64, t float64, dir drift.Direction) (int, error) {
	n := len(times)
	if n < 2 {
		return 0, fmt.Errorf("dataset: need two records, have %d: %w", n, drift.ErrEndOfDataset)
	}
	if dir == drift.Backward {
		if t <= times[0] || t > times[n-1] {
			return 0, fmt.Errorf("dataset: time %g outside (%g, %g]: %w", t, times[0], times[n-1], drift.ErrEndOfDataset)
		}
		r := 1
		for times[r] < t {
			r++
		}
		return r, nil
	}
	if t < times[0] || t >= times[n-1] {
		return 0, fmt.Errorf("dataset: time %g outside [%g, %g): %w", t, times[0], times[n-1], drift.ErrEndOfDataset)
	}
	r := 0
	for times[r+1] <= t {
		r++
	}
	return r, nil
}

// load reads a record and derives the vertical fields. ComputeW runs here,
// before the frame can be published.
func (m *Manager) load(rank int) (*Frame, error) {
	if rank < 0 || rank >= m.reader.NumRecords() {
		return nil, fmt.Errorf("dataset: no record %d: %w", rank, drift.ErrEndOfDataset)
	}
	t, err := m.reader.Time(rank)
	if err != nil {
		return nil, err
	}
	rec, err := m.reader.Record(rank, m.scalars)
	if err != nil {
		return nil, fmt.Errorf("dataset: record %d: %w", rank, err)
	}
	f := &Frame{
		Rank:    rank,
		Time:    t,
		U:       rec.U,
		V:       rec.V,
		Zeta:    rec.Zeta,
		Scalars: rec.Scalars,
	}
	if l := m.static.Levels; l != nil {
		f.ZW = l.ZW(rec.Zeta)
		f.ZRho = l.ZRho(rec.Zeta)
		if f.W, err = vertical.ComputeW(m.static.Geometry, f.ZW, f.U, f.V); err != nil {
			return nil, fmt.Errorf("dataset: record %d: %w", rank, err)
		}
	}
	return f, nil
}
