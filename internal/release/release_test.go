package release

import (
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ctessum/cdf"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/driftsim/internal/config"
	"github.com/san-kum/driftsim/internal/drift"
	"github.com/san-kum/driftsim/internal/zone"
)

// basin maps lon/lat to grid indices one degree per cell over [0, 10)
// and is dry east of lon 6.
type basin struct{}

func (basin) Geo2Grid(lon, lat float64) (float64, float64, bool) {
	if lon < 0 || lon >= 10 || lat < 0 || lat >= 10 {
		return math.NaN(), math.NaN(), false
	}
	return lon, lat, true
}

func (basin) IsInWater(x, y float64) bool { return x < 6 }

func square(t *testing.T, lon0, lat0, side float64) *zone.Zone {
	t.Helper()
	z, err := zone.New("square", [][2]float64{{lon0, lat0}, {lon0 + side, lat0}, {lon0 + side, lat0 + side}, {lon0, lat0 + side}})
	require.NoError(t, err)
	return z
}

func TestZoneRelease(t *testing.T) {
	z := square(t, 4, 4, 4).WithDepth(0, -20)
	r := NewZone(z, 200)
	pts, err := r.Positions(basin{}, rand.New(rand.NewSource(7)))
	require.NoError(t, err)
	require.Len(t, pts, 200)
	for _, p := range pts {
		assert.True(t, z.Contains(p.Lon, p.Lat))
		assert.Less(t, p.Lon, 6.0, "released on land")
		assert.GreaterOrEqual(t, p.Depth, -20.0)
		assert.LessOrEqual(t, p.Depth, 0.0)
	}

	again, err := r.Positions(basin{}, rand.New(rand.NewSource(7)))
	require.NoError(t, err)
	assert.Equal(t, pts, again, "same seed, same release")
}

func TestZoneReleaseOnLand(t *testing.T) {
	r := NewZone(square(t, 7, 2, 2), 3)
	_, err := r.Positions(basin{}, rand.New(rand.NewSource(1)))
	assert.ErrorIs(t, err, drift.ErrOutsideDomain)
}

func TestParseText(t *testing.T) {
	in := `# lon lat depth
1.5 2.5 10

3 4
  5.25   6 -7.5
`
	pts, err := ParseText(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []Position{
		{Lon: 1.5, Lat: 2.5, Depth: -10},
		{Lon: 3, Lat: 4},
		{Lon: 5.25, Lat: 6, Depth: -7.5},
	}, pts)

	for _, bad := range []string{"1", "1 2 3 4", "1 north"} {
		_, err := ParseText(strings.NewReader(bad))
		assert.ErrorIs(t, err, drift.ErrInvalidConfig, bad)
	}
}

func TestTextFileSkipsLand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "release.txt")
	require.NoError(t, os.WriteFile(path, []byte("1 1\n8 1\n2 2 5\n"), 0644))

	log, hook := test.NewNullLogger()
	r := &TextFile{Path: path, Log: log}
	pts, err := r.Positions(basin{}, nil)
	require.NoError(t, err)
	assert.Len(t, pts, 2)
	require.Len(t, hook.Entries, 1)
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Equal(t, 8.0, hook.LastEntry().Data["lon"])

	_, err = (&TextFile{Path: filepath.Join(t.TempDir(), "missing.txt")}).Positions(basin{}, nil)
	assert.Error(t, err)
}

func writeTrajectory(t *testing.T, path string) {
	t.Helper()
	h := cdf.NewHeader([]string{"time", "drifter"}, []int{0, 3})
	h.AddVariable("time", []string{"time"}, []float64{0})
	for _, name := range []string{"lon", "lat", "depth"} {
		h.AddVariable(name, []string{"time", "drifter"}, []float32{0})
	}
	h.AddVariable("mortality", []string{"time", "drifter"}, []int32{0})
	h.Define()

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	cf, err := cdf.Create(f, h)
	require.NoError(t, err)

	nan := float32(math.NaN())
	records := []struct {
		lon, lat, depth []float32
		dead            []int32
	}{
		{[]float32{1, 2, 3}, []float32{1, 1, 1}, []float32{-1, -2, -3}, []int32{0, 0, 0}},
		{[]float32{1.5, nan, 3.5}, []float32{2, nan, 2}, []float32{-5, nan, -6}, []int32{0, 2, 0}},
	}
	for r, rec := range records {
		_, err = cf.Writer("time", []int{r}, nil).Write([]float64{float64(r) * 3600})
		require.NoError(t, err)
		for name, vals := range map[string][]float32{"lon": rec.lon, "lat": rec.lat, "depth": rec.depth} {
			_, err = cf.Writer(name, []int{r, 0}, nil).Write(vals)
			require.NoError(t, err)
		}
		_, err = cf.Writer("mortality", []int{r, 0}, nil).Write(rec.dead)
		require.NoError(t, err)
	}
	require.NoError(t, cdf.UpdateNumRecs(f))
}

func TestNetCDFRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "previous.nc")
	writeTrajectory(t, path)

	pts, err := (&NetCDF{Path: path}).Positions(basin{}, nil)
	require.NoError(t, err)
	assert.Equal(t, []Position{
		{Lon: 1.5, Lat: 2, Depth: -5},
		{Lon: 3.5, Lat: 2, Depth: -6},
	}, pts)
}

type fixed []Position

func (f fixed) Positions(Domain, *rand.Rand) ([]Position, error) { return f, nil }

func TestSchedule(t *testing.T) {
	a, b, c := fixed{{Lon: 1}}, fixed{{Lon: 2}}, fixed{{Lon: 3}}

	fwd := NewSchedule(drift.Forward, Event{7200, c}, Event{0, a}, Event{3600, b})
	assert.Equal(t, []float64{0, 3600, 7200}, fwd.Times())
	n, err := fwd.Capacity(basin{})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Len(t, fwd.Due(0), 1)
	assert.Empty(t, fwd.Due(1800))
	assert.Len(t, fwd.Due(7200), 2)
	assert.Empty(t, fwd.Due(9000))
	assert.True(t, fwd.Done())

	bwd := NewSchedule(drift.Backward, Event{0, a}, Event{7200, c}, Event{3600, b})
	assert.Equal(t, []float64{7200, 3600, 0}, bwd.Times())
	due := bwd.Due(5400)
	require.Len(t, due, 1)
	assert.Equal(t, 7200.0, due[0].Time)
	assert.False(t, bwd.Done())
}

func TestNewFromConfig(t *testing.T) {
	cfg := config.DefaultConfig().Release
	cfg.Number = 90
	cfg.Times = []float64{0, 3600, 7200}
	s, err := New(cfg, 0, drift.Forward, nil)
	require.NoError(t, err)
	require.Equal(t, 3, s.Len())
	assert.Equal(t, 30, s.Due(0)[0].Source.(*Zone).Number)
	n, err := s.Capacity(basin{})
	require.NoError(t, err)
	assert.Equal(t, 90, n)

	s, err = New(config.ReleaseConfig{Type: "text", File: "x.txt"}, 500, drift.Backward, nil)
	require.NoError(t, err)
	assert.Equal(t, []float64{500}, s.Times())

	cfg.Number = 2
	_, err = New(cfg, 0, drift.Forward, nil)
	assert.ErrorIs(t, err, drift.ErrInvalidConfig)
	_, err = New(config.ReleaseConfig{Type: "grid"}, 0, drift.Forward, nil)
	assert.ErrorIs(t, err, drift.ErrInvalidConfig)
}
