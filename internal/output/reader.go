package output

import (
	"fmt"
	"math"

	"github.com/san-kum/driftsim/internal/dataset"
)

type TrackPoint struct {
	Time  float64 `json:"time"`
	Lon   float64 `json:"lon"`
	Lat   float64 `json:"lat"`
	Depth float64 `json:"depth"`
}

// Track is the recorded path of one drifter. Fate is the mortality code
// of the last record.
type Track struct {
	ID     int          `json:"id"`
	Fate   int          `json:"fate"`
	Points []TrackPoint `json:"points"`
}

// ReadTracks reads a trajectory file back into one track per drifter.
// Records where a drifter is unreleased or dead are left out of its path.
func ReadTracks(path string) ([]Track, error) {
	cf, f, err := dataset.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("output: %w", err)
	}
	defer f.Close()

	nrec, err := dataset.NumRecords(cf, f)
	if err != nil {
		return nil, err
	}
	n := cf.Header.Lengths("lon")
	if n == nil {
		return nil, fmt.Errorf("output: %s is not a trajectory file", path)
	}
	tracks := make([]Track, n[1])
	for i := range tracks {
		tracks[i] = Track{ID: i, Fate: notReleased}
	}

	for rec := 0; rec < nrec; rec++ {
		vars := make(map[string][]float64, 5)
		for _, name := range []string{"time", "lon", "lat", "depth", "mortality"} {
			v, err := dataset.ReadVariable(cf, name, rec)
			if err != nil {
				return nil, err
			}
			vars[name] = v.Elements
		}
		t := vars["time"][0]
		for i := range tracks {
			tracks[i].Fate = int(vars["mortality"][i])
			lon := vars["lon"][i]
			if math.IsNaN(lon) {
				continue
			}
			tracks[i].Points = append(tracks[i].Points, TrackPoint{
				Time:  t,
				Lon:   lon,
				Lat:   vars["lat"][i],
				Depth: vars["depth"][i],
			})
		}
	}
	return tracks, nil
}
