package integrators

import "github.com/san-kum/driftsim/internal/drift"

// RK4 is the classic fourth order Runge-Kutta scheme. When an intermediate
// point lands on the domain edge it stops early and returns the partial
// horizontal move, leaving the edge check to the caller.
type RK4 struct{}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) Advect(f Field, p drift.Point, t, dt float64) drift.Point {
	k1 := f.Velocity(p, t).Scale(dt)

	pk := p.Add(k1.Scale(0.5))
	if f.IsOnEdge(pk.X, pk.Y) {
		return k1.Scale(0.5).Horizontal()
	}
	k2 := f.Velocity(pk, t+dt*0.5).Scale(dt)

	pk = p.Add(k2.Scale(0.5))
	if f.IsOnEdge(pk.X, pk.Y) {
		return k2.Scale(0.5).Horizontal()
	}
	k3 := f.Velocity(pk, t+dt*0.5).Scale(dt)

	pk = p.Add(k3)
	if f.IsOnEdge(pk.X, pk.Y) {
		return k3.Horizontal()
	}
	k4 := f.Velocity(pk, t+dt).Scale(dt)

	return k1.Add(k2.Scale(2)).Add(k3.Scale(2)).Add(k4).Scale(1.0 / 6.0)
}
