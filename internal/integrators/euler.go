package integrators

import "github.com/san-kum/driftsim/internal/drift"

type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Advect(f Field, p drift.Point, t, dt float64) drift.Point {
	return f.Velocity(p, t).Scale(dt)
}
