package action

import (
	"fmt"
	"math"
	"strconv"

	"github.com/san-kum/driftsim/internal/config"
	"github.com/san-kum/driftsim/internal/drift"
	"github.com/san-kum/driftsim/internal/particle"
	"github.com/san-kum/driftsim/internal/zone"
)

const recruitmentTrait = "recruitment"

// RecruitmentModel recruits a particle once it has spent duration_min days
// in one recruitment zone while old or long enough.
type RecruitmentModel struct {
	zones       []*zone.Zone
	durationMin float64 // seconds
	ageMin      float64 // seconds
	lengthMin   float64 // mm
	byLength    bool
	stopMoving  bool
}

func NewRecruitment(env *Env, params config.Params) (*RecruitmentModel, error) {
	polys, err := params.Polygons("zones")
	if err != nil {
		return nil, err
	}
	if poly, err := params.Points("polygon"); err != nil {
		return nil, err
	} else if poly != nil {
		polys = append(polys, poly)
	}
	if len(polys) == 0 {
		return nil, fmt.Errorf("action: recruitment needs a polygon or zones: %w", drift.ErrInvalidConfig)
	}

	m := &RecruitmentModel{}
	for i, poly := range polys {
		z, err := zone.New("recruitment-"+strconv.Itoa(i), poly)
		if err != nil {
			return nil, err
		}
		m.zones = append(m.zones, z)
	}

	days, err := params.Float("duration_min", 0)
	if err != nil {
		return nil, err
	}
	m.durationMin = days * oneDay
	if m.stopMoving, err = params.Bool("stop_moving", false); err != nil {
		return nil, err
	}
	if params.Has("length_min") {
		if !env.Growth {
			return nil, fmt.Errorf("action: recruitment by length needs the growth trait: %w", drift.ErrInvalidConfig)
		}
		m.byLength = true
		m.lengthMin, err = params.Float("length_min", 0)
		return m, err
	}
	days, err = params.Float("age_min", 0)
	m.ageMin = days * oneDay
	return m, err
}

func (m *RecruitmentModel) NewTrait() particle.Trait {
	return &Recruitment{model: m, zone: -1, Zone: -1, done: make([]bool, len(m.zones))}
}

func (m *RecruitmentModel) eligible(p *particle.Particle) bool {
	if !m.byLength {
		return p.Age >= m.ageMin
	}
	g, ok := growthOf(p)
	return ok && g.Length >= m.lengthMin
}

// Recruitment tracks the time one particle has spent in its current zone.
type Recruitment struct {
	model     *RecruitmentModel
	zone      int
	timeIn    float64
	done      []bool
	Recruited bool
	Zone      int // last zone recruited in, -1 before
}

func (r *Recruitment) Name() string { return recruitmentTrait }

func (r *Recruitment) ApplyStep(p *particle.Particle, t, dt float64) {
	m := r.model
	if r.Recruited && m.stopMoving {
		p.Lock()
		return
	}
	current := zone.Find(m.zones, p.Lon(), p.Lat())
	if current < 0 || r.done[current] || !m.eligible(p) {
		return
	}
	if current == r.zone {
		r.timeIn += math.Abs(dt)
	} else {
		r.timeIn = 0
	}
	r.zone = current
	if r.timeIn >= m.durationMin {
		r.done[current] = true
		r.Recruited = true
		r.Zone = current
		if m.stopMoving {
			p.Lock()
		}
	}
}

// RecruitedZone returns the zone a particle was last recruited in, -1 if
// it was not recruited yet, and false when p has no recruitment trait.
func RecruitedZone(p *particle.Particle) (int, bool) {
	tr, found := p.Trait(recruitmentTrait)
	if !found {
		return -1, false
	}
	r, ok := tr.(*Recruitment)
	if !ok {
		return -1, false
	}
	return r.Zone, true
}
