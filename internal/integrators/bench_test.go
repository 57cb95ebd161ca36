package integrators

import (
	"testing"

	"github.com/san-kum/driftsim/internal/drift"
)

func BenchmarkEuler(b *testing.B) {
	integrator := NewEuler()
	f := &rotatingField{cx: 10, cy: 10}
	p := drift.Point{X: 11, Y: 10}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p = p.Add(integrator.Advect(f, p, 0, 0.01))
	}
}

func BenchmarkRK4(b *testing.B) {
	integrator := NewRK4()
	f := &rotatingField{cx: 10, cy: 10}
	p := drift.Point{X: 11, Y: 10}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p = p.Add(integrator.Advect(f, p, 0, 0.01))
	}
}
