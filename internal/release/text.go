package release

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"

	"github.com/san-kum/driftsim/internal/drift"
)

// TextFile releases one particle per line of "lon lat [depth]". Blank
// lines and lines starting with # are skipped, and so are points on land
// or outside the grid.
type TextFile struct {
	Path string
	Log  logrus.FieldLogger
}

func (r *TextFile) Positions(d Domain, _ *rand.Rand) ([]Position, error) {
	f, err := os.Open(r.Path)
	if err != nil {
		return nil, fmt.Errorf("release: %w", err)
	}
	defer f.Close()

	pts, err := ParseText(f)
	if err != nil {
		return nil, fmt.Errorf("release: %s: %w", r.Path, err)
	}
	log := r.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	out := pts[:0]
	for _, p := range pts {
		if !inWater(d, p.Lon, p.Lat) {
			log.WithFields(logrus.Fields{"lon": p.Lon, "lat": p.Lat, "file": r.Path}).Warn("release point outside the water, skipped")
			continue
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("release: no usable point in %s: %w", r.Path, drift.ErrOutsideDomain)
	}
	return out, nil
}

// ParseText reads release points, one per line. Depths may be written
// either sign and are returned negative.
func ParseText(r io.Reader) ([]Position, error) {
	var out []Position
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		fields := strings.Fields(s)
		if len(fields) < 2 || len(fields) > 3 {
			return nil, fmt.Errorf("line %d: want lon lat [depth], got %q: %w", line, s, drift.ErrInvalidConfig)
		}
		var vals [3]float64
		for i, fv := range fields {
			v, err := cast.ToFloat64E(fv)
			if err != nil {
				return nil, fmt.Errorf("line %d: %v: %w", line, err, drift.ErrInvalidConfig)
			}
			vals[i] = v
		}
		out = append(out, Position{Lon: vals[0], Lat: vals[1], Depth: -math.Abs(vals[2])})
	}
	return out, sc.Err()
}
