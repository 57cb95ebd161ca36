package action

import (
	"fmt"
	"math"

	"github.com/san-kum/driftsim/internal/config"
	"github.com/san-kum/driftsim/internal/dataset"
	"github.com/san-kum/driftsim/internal/drift"
	"github.com/san-kum/driftsim/internal/particle"
)

const hdispAttempts = 5

// HDisp is a random walk whose amplitude follows the turbulent
// dissipation rate epsilon and the local cell size.
type HDisp struct {
	env       *Env
	epsilon16 float64
}

func NewHDisp(env *Env, params config.Params) (Action, error) {
	eps, err := params.Float("epsilon", 1e-9)
	if err != nil {
		return nil, err
	}
	if eps <= 0 {
		return nil, fmt.Errorf("action: hdisp epsilon must be positive, got %g: %w", eps, drift.ErrInvalidConfig)
	}
	return &HDisp{env: env, epsilon16: math.Pow(eps, 1.0/6.0)}, nil
}

func (h *HDisp) Name() string { return "hdisp" }
func (h *HDisp) Phase() Phase { return Physical }

func (h *HDisp) Execute(p *particle.Particle, t, dt float64) error {
	dx, dy := h.move(p.X(), p.Y(), dt)
	return p.Increment(dx, dy, 0, false, false)
}

// move draws until the particle stays in water, giving up with no move.
func (h *HDisp) move(x, y, dt float64) (float64, float64) {
	g := h.env.Field.Geometry()
	i, j := int(math.Round(x)), int(math.Round(y))
	dxm, dym := g.DX(i, j), g.DY(i, j)
	dL := 0.5 * (dxm + dym)
	cff := math.Sqrt(2*math.Abs(dt)) * h.epsilon16 * math.Pow(dL, 2.0/3.0)

	for n := 0; n < hdispAttempts; n++ {
		dx := (2*h.env.Rand.Float64() - 1) * cff / dxm
		dy := (2*h.env.Rand.Float64() - 1) * cff / dym
		if h.env.Field.IsInWater(x+dx, y+dy) {
			return dx, dy
		}
	}
	return 0, 0
}

// VDisp is a random walk through the vertical diffusivity profile, with
// the drift correction that keeps particles from piling up where the
// diffusivity is low.
type VDisp struct {
	env   *Env
	field string
}

func NewVDisp(env *Env, params config.Params) (Action, error) {
	if !env.Field.Is3D() {
		return nil, fmt.Errorf("action: vertical dispersion needs a 3D dataset: %w", drift.ErrInvalidConfig)
	}
	field, err := params.String("kv_field", dataset.FieldKv)
	if err != nil {
		return nil, err
	}
	if !env.Field.HasField(field) {
		return nil, fmt.Errorf("action: vdisp field %q: %w", field, drift.ErrMissingVariable)
	}
	return &VDisp{env: env, field: field}, nil
}

func (v *VDisp) Name() string { return "vdisp" }
func (v *VDisp) Phase() Phase { return Physical }

func (v *VDisp) Execute(p *particle.Particle, t, dt float64) error {
	kv, err := v.env.Field.Kv(v.field, position(p), t, dt)
	if err != nil {
		return err
	}
	if kv.Hz == 0 {
		return nil
	}
	r := 2*v.env.Rand.Float64() - 1
	dz := (kv.Gradient*dt + r*math.Sqrt(6*kv.Kv*math.Abs(dt))) / kv.Hz
	return p.Increment(0, 0, v.reflect(p.Z(), dz), false, false)
}

// reflect mirrors a move that would cross the bottom or the surface.
func (v *VDisp) reflect(z, dz float64) float64 {
	top := float64(v.env.Field.Nz() - 1)
	switch nz := z + dz; {
	case nz < 0:
		return -(2*z + dz)
	case nz >= top:
		return 2*(top-z) - dz
	}
	return dz
}
