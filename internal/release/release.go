// Package release decides where and when particles enter a simulation.
//
// A [Releaser] produces initial positions; a [Schedule] pairs releasers
// with release times and hands them out as simulation time crosses them.
package release

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/driftsim/internal/config"
	"github.com/san-kum/driftsim/internal/drift"
	"github.com/san-kum/driftsim/internal/zone"
)

// Position is a release point. Depth is in metres, negative below the
// surface, and ignored by 2D datasets.
type Position struct {
	Lon, Lat, Depth float64
}

// Domain is the part of the grid a releaser needs to place particles.
type Domain interface {
	Geo2Grid(lon, lat float64) (x, y float64, ok bool)
	IsInWater(x, y float64) bool
}

// Releaser produces the positions of one release event.
type Releaser interface {
	Positions(d Domain, rng *rand.Rand) ([]Position, error)
}

// inWater reports whether (lon, lat) lies on a wet cell of d.
func inWater(d Domain, lon, lat float64) bool {
	x, y, ok := d.Geo2Grid(lon, lat)
	return ok && d.IsInWater(x, y)
}

// Event is a releaser due at Time.
type Event struct {
	Time   float64
	Source Releaser
}

// Schedule hands out release events in the direction of time.
type Schedule struct {
	events []Event
	dir    drift.Direction
	next   int
}

func NewSchedule(dir drift.Direction, events ...Event) *Schedule {
	s := &Schedule{events: append([]Event(nil), events...), dir: dir}
	sort.SliceStable(s.events, func(a, b int) bool {
		return float64(dir)*s.events[a].Time < float64(dir)*s.events[b].Time
	})
	return s
}

// Due returns the events reached at time t that were not returned before.
func (s *Schedule) Due(t float64) []Event {
	first := s.next
	for s.next < len(s.events) && float64(s.dir)*(s.events[s.next].Time-t) <= 0 {
		s.next++
	}
	return s.events[first:s.next]
}

// Done reports whether every event has been handed out.
func (s *Schedule) Done() bool { return s.next == len(s.events) }

func (s *Schedule) Len() int { return len(s.events) }

// Times lists the release times in schedule order.
func (s *Schedule) Times() []float64 {
	out := make([]float64, len(s.events))
	for i, e := range s.events {
		out[i] = e.Time
	}
	return out
}

// New builds the schedule described by cfg. Without release times,
// everything is released at start. Zone releases split Number evenly
// across the events.
func New(cfg config.ReleaseConfig, start float64, dir drift.Direction, log logrus.FieldLogger) (*Schedule, error) {
	times := cfg.Times
	if len(times) == 0 {
		times = []float64{start}
	}
	var src Releaser
	switch cfg.Type {
	case "", "zone":
		z, err := zone.New("release", cfg.Polygon)
		if err != nil {
			return nil, err
		}
		z.WithDepth(cfg.DepthMin, cfg.DepthMax)
		n := cfg.Number / len(times)
		if n < 1 {
			return nil, fmt.Errorf("release: %d particles for %d release events: %w", cfg.Number, len(times), drift.ErrInvalidConfig)
		}
		src = NewZone(z, n)
	case "text":
		src = &TextFile{Path: cfg.File, Log: log}
	case "netcdf":
		src = &NetCDF{Path: cfg.File}
	default:
		return nil, fmt.Errorf("release: unknown type %q: %w", cfg.Type, drift.ErrInvalidConfig)
	}
	events := make([]Event, len(times))
	for i, t := range times {
		events[i] = Event{Time: t, Source: src}
	}
	return NewSchedule(dir, events...), nil
}

// Capacity is the number of particles the schedule will release at most.
// File based releasers are read once to count their points.
func (s *Schedule) Capacity(d Domain) (int, error) {
	n := 0
	for _, e := range s.events {
		if z, ok := e.Source.(*Zone); ok {
			n += z.Number
			continue
		}
		pts, err := e.Source.Positions(d, nil)
		if err != nil {
			return 0, err
		}
		n += len(pts)
	}
	return n, nil
}
