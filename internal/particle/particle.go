package particle

import "math"

// Trait is a per-particle component updated once per step after the
// physical and biological actions, such as growth or recruitment.
type Trait interface {
	Name() string
	ApplyStep(p *Particle, t, dt float64)
}

// Particle is one drifting individual.
type Particle struct {
	GridPoint

	Index int
	Age   float64 // seconds since release

	cause  Cause
	locked bool
	traits []Trait
}

func New(index int, is3D bool, nz int) *Particle {
	return &Particle{
		GridPoint: NewGridPoint(is3D, nz),
		Index:     index,
	}
}

func (p *Particle) IsLiving() bool { return p.cause == Alive }

func (p *Particle) Cause() Cause { return p.cause }

// Kill records the first cause of death and blanks the geographic
// coordinates. Later calls are ignored.
func (p *Particle) Kill(c Cause) {
	if p.cause != Alive || c == Alive {
		return
	}
	p.cause = c
	nan := math.NaN()
	p.lon, p.lat, p.depth = nan, nan, nan
	p.geoStaleH, p.geoStaleV = false, false
	p.DiscardMove()
}

func (p *Particle) IsLocked() bool { return p.locked }
func (p *Particle) Lock()          { p.locked = true }
func (p *Particle) Unlock()        { p.locked = false }

// IncrementAge adds one step, whichever way time runs.
func (p *Particle) IncrementAge(dt float64) {
	p.Age += math.Abs(dt)
}

// AddTrait appends a trait. Traits run in insertion order; adding a name
// that is already present replaces it in place.
func (p *Particle) AddTrait(tr Trait) {
	for i, t := range p.traits {
		if t.Name() == tr.Name() {
			p.traits[i] = tr
			return
		}
	}
	p.traits = append(p.traits, tr)
}

// Trait looks a component up by name.
func (p *Particle) Trait(name string) (Trait, bool) {
	for _, t := range p.traits {
		if t.Name() == name {
			return t, true
		}
	}
	return nil, false
}

func (p *Particle) Traits() []Trait { return p.traits }

// ApplyTraits steps every trait of a living particle.
func (p *Particle) ApplyTraits(t, dt float64) {
	for _, tr := range p.traits {
		if !p.IsLiving() {
			return
		}
		tr.ApplyStep(p, t, dt)
	}
}
