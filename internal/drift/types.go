package drift

import "math"

type Point struct {
	X, Y, Z float64
}

func (p Point) Add(o Point) Point {
	return Point{p.X + o.X, p.Y + o.Y, p.Z + o.Z}
}

func (p Point) Sub(o Point) Point {
	return Point{p.X - o.X, p.Y - o.Y, p.Z - o.Z}
}

func (p Point) Scale(f float64) Point {
	return Point{p.X * f, p.Y * f, p.Z * f}
}

// Horizontal drops the vertical component.
func (p Point) Horizontal() Point {
	return Point{X: p.X, Y: p.Y}
}

func (p Point) IsValid() bool {
	for _, v := range [3]float64{p.X, p.Y, p.Z} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (p Point) Norm() float64 {
	return math.Sqrt(p.X*p.X + p.Y*p.Y + p.Z*p.Z)
}

// MaxAbs returns the largest absolute component.
func (p Point) MaxAbs() float64 {
	return math.Max(math.Abs(p.X), math.Max(math.Abs(p.Y), math.Abs(p.Z)))
}

// Direction is the sign of time, +1 forward and -1 backward.
type Direction int

const (
	Forward  Direction = 1
	Backward Direction = -1
)

func DirectionOf(dt float64) Direction {
	if dt < 0 {
		return Backward
	}
	return Forward
}
