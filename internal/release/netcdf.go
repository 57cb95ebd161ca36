package release

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/san-kum/driftsim/internal/dataset"
	"github.com/san-kum/driftsim/internal/drift"
)

// NetCDF re-releases the particles still alive in the last record of a
// trajectory file written by an earlier run.
type NetCDF struct {
	Path string
}

func (r *NetCDF) Positions(d Domain, _ *rand.Rand) ([]Position, error) {
	cf, f, err := dataset.OpenFile(r.Path)
	if err != nil {
		return nil, fmt.Errorf("release: %w", err)
	}
	defer f.Close()

	n, err := dataset.NumRecords(cf, f)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, fmt.Errorf("release: %s has no record: %w", r.Path, drift.ErrMissingVariable)
	}
	last := n - 1
	lon, err := dataset.ReadVariable(cf, "lon", last)
	if err != nil {
		return nil, err
	}
	lat, err := dataset.ReadVariable(cf, "lat", last)
	if err != nil {
		return nil, err
	}
	dead, err := dataset.ReadVariable(cf, "mortality", last)
	if err != nil {
		return nil, err
	}
	depth, err := dataset.ReadVariable(cf, "depth", last)
	if errors.Is(err, drift.ErrMissingVariable) {
		depth, err = nil, nil
	}
	if err != nil {
		return nil, err
	}

	var out []Position
	for i, v := range lon.Elements {
		if dead.Elements[i] != 0 || math.IsNaN(v) {
			continue
		}
		p := Position{Lon: v, Lat: lat.Elements[i]}
		if depth != nil {
			p.Depth = depth.Elements[i]
		}
		if !inWater(d, p.Lon, p.Lat) {
			continue
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("release: no living particle in %s: %w", r.Path, drift.ErrOutsideDomain)
	}
	return out, nil
}
