package config

import (
	"fmt"

	"github.com/spf13/cast"

	"github.com/san-kum/driftsim/internal/drift"
)

// Params holds the free-form parameters of an action. Values come from
// yaml untyped and are converted on access.
type Params map[string]interface{}

func (p Params) Has(key string) bool {
	_, ok := p[key]
	return ok
}

func (p Params) Float(key string, def float64) (float64, error) {
	v, ok := p[key]
	if !ok {
		return def, nil
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, paramError(key, err)
	}
	return f, nil
}

func (p Params) Int(key string, def int) (int, error) {
	v, ok := p[key]
	if !ok {
		return def, nil
	}
	i, err := cast.ToIntE(v)
	if err != nil {
		return 0, paramError(key, err)
	}
	return i, nil
}

func (p Params) Bool(key string, def bool) (bool, error) {
	v, ok := p[key]
	if !ok {
		return def, nil
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return false, paramError(key, err)
	}
	return b, nil
}

func (p Params) String(key, def string) (string, error) {
	v, ok := p[key]
	if !ok {
		return def, nil
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return "", paramError(key, err)
	}
	return s, nil
}

// Floats reads a list of numbers.
func (p Params) Floats(key string) ([]float64, error) {
	v, ok := p[key]
	if !ok {
		return nil, nil
	}
	if fs, ok := v.([]float64); ok {
		return fs, nil
	}
	items, err := cast.ToSliceE(v)
	if err != nil {
		return nil, paramError(key, err)
	}
	out := make([]float64, len(items))
	for i, it := range items {
		if out[i], err = cast.ToFloat64E(it); err != nil {
			return nil, paramError(key, err)
		}
	}
	return out, nil
}

// Points reads a list of [x, y] pairs.
func (p Params) Points(key string) ([][2]float64, error) {
	v, ok := p[key]
	if !ok {
		return nil, nil
	}
	if pts, ok := v.([][2]float64); ok {
		return pts, nil
	}
	items, err := cast.ToSliceE(v)
	if err != nil {
		return nil, paramError(key, err)
	}
	out := make([][2]float64, len(items))
	for i, it := range items {
		xy, err := cast.ToSliceE(it)
		if err != nil || len(xy) != 2 {
			return nil, paramError(key, fmt.Errorf("item %d is not an [x, y] pair", i))
		}
		for k := range xy {
			if out[i][k], err = cast.ToFloat64E(xy[k]); err != nil {
				return nil, paramError(key, err)
			}
		}
	}
	return out, nil
}

func paramError(key string, err error) error {
	return fmt.Errorf("config: parameter %q: %v: %w", key, err, drift.ErrInvalidConfig)
}

// Polygons reads a list of polygons, each a list of [x, y] pairs.
func (p Params) Polygons(key string) ([][][2]float64, error) {
	v, ok := p[key]
	if !ok {
		return nil, nil
	}
	if polys, ok := v.([][][2]float64); ok {
		return polys, nil
	}
	items, err := cast.ToSliceE(v)
	if err != nil {
		return nil, paramError(key, err)
	}
	out := make([][][2]float64, len(items))
	for i, it := range items {
		pts, err := Params{key: it}.Points(key)
		if err != nil {
			return nil, err
		}
		out[i] = pts
	}
	return out, nil
}
