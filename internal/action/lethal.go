package action

import (
	"fmt"
	"math"

	"github.com/san-kum/driftsim/internal/config"
	"github.com/san-kum/driftsim/internal/dataset"
	"github.com/san-kum/driftsim/internal/drift"
	"github.com/san-kum/driftsim/internal/particle"
)

// LethalTemp kills particles that drift into water too cold or too warm.
// Thresholds depend on the growth stage when growth is enabled, on an age
// table when one is given, and are constant otherwise.
type LethalTemp struct {
	env       *Env
	tempField string
	ages      []float64 // seconds
	cold      []float64
	hot       []float64
	byStage   bool
}

func NewLethalTemp(env *Env, params config.Params) (Action, error) {
	l := &LethalTemp{env: env}
	var err error
	if l.tempField, err = params.String("temperature_field", dataset.FieldTemp); err != nil {
		return nil, err
	}
	if !env.Field.HasField(l.tempField) {
		return nil, fmt.Errorf("action: lethal_temp field %q: %w", l.tempField, drift.ErrMissingVariable)
	}
	cold, err := params.Float("cold", math.Inf(-1))
	if err != nil {
		return nil, err
	}
	hot, err := params.Float("hot", math.Inf(1))
	if err != nil {
		return nil, err
	}

	if env.Growth {
		l.byStage = true
		l.cold, l.hot = make([]float64, 2), make([]float64, 2)
		for i, stage := range []string{"egg", "larva"} {
			if l.cold[i], err = params.Float("cold_"+stage, cold); err != nil {
				return nil, err
			}
			if l.hot[i], err = params.Float("hot_"+stage, hot); err != nil {
				return nil, err
			}
		}
		return l, nil
	}

	hours, err := params.Floats("ages")
	if err != nil {
		return nil, err
	}
	if len(hours) == 0 {
		l.cold, l.hot = []float64{cold}, []float64{hot}
		return l, nil
	}
	if l.cold, err = params.Floats("cold_values"); err != nil {
		return nil, err
	}
	if l.hot, err = params.Floats("hot_values"); err != nil {
		return nil, err
	}
	if len(l.cold) != len(hours) || len(l.hot) != len(hours) {
		return nil, fmt.Errorf("action: lethal_temp table sizes differ: %w", drift.ErrInvalidConfig)
	}
	for _, h := range hours {
		l.ages = append(l.ages, h*3600)
	}
	return l, nil
}

func (l *LethalTemp) Name() string { return "lethal_temp" }
func (l *LethalTemp) Phase() Phase { return Biological }

func (l *LethalTemp) thresholds(p *particle.Particle) (cold, hot float64) {
	switch {
	case l.byStage:
		i := 1
		if g, ok := growthOf(p); !ok || g.Stage == Egg {
			i = 0
		}
		return l.cold[i], l.hot[i]
	case len(l.ages) > 0:
		return interval(l.ages, l.cold, p.Age), interval(l.ages, l.hot, p.Age)
	default:
		return l.cold[0], l.hot[0]
	}
}

func (l *LethalTemp) Execute(p *particle.Particle, t, dt float64) error {
	temp, err := l.env.Field.Scalar(l.tempField, position(p), t)
	if err != nil {
		return err
	}
	if math.IsNaN(temp) {
		return nil
	}
	cold, hot := l.thresholds(p)
	switch {
	case temp <= cold:
		p.Kill(particle.DeadCold)
	case temp >= hot:
		p.Kill(particle.DeadHot)
	}
	return nil
}
