// Package integrators turns a sampled velocity field into a displacement in
// grid coordinates over one time step.
package integrators

import "github.com/san-kum/driftsim/internal/drift"

// Field is the velocity source a scheme samples. Velocities are in grid
// units per second.
type Field interface {
	Velocity(p drift.Point, t float64) drift.Point
	IsOnEdge(x, y float64) bool
}

// Scheme computes the displacement of a particle at p over [t, t+dt].
// A negative dt integrates backward in time.
type Scheme interface {
	Advect(f Field, p drift.Point, t, dt float64) drift.Point
}
