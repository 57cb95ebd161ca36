package dataset

import (
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/driftsim/internal/drift"
	"github.com/san-kum/driftsim/internal/grid"
)

func smallAnalytic(t *testing.T) *Analytic {
	t.Helper()
	spec := DefaultAnalyticSpec()
	spec.Grid = grid.RegularSpec{Nx: 8, Ny: 6, Lon0: 0, Lat0: 45, DLon: 0.02, DLat: 0.02}
	spec.Nz = 4
	spec.Records = 5
	spec.Interval = 3600
	a, err := NewAnalytic(spec)
	require.NoError(t, err)
	return a
}

func TestFindRank(t *testing.T) {
	times := []float64{0, 10, 20, 30}
	tests := []struct {
		name string
		t    float64
		dir  drift.Direction
		want int
		err  bool
	}{
		{"forward start", 0, drift.Forward, 0, false},
		{"forward inside", 15, drift.Forward, 1, false},
		{"forward on record", 20, drift.Forward, 2, false},
		{"forward at end", 30, drift.Forward, 0, true},
		{"forward before", -1, drift.Forward, 0, true},
		{"backward end", 30, drift.Backward, 3, false},
		{"backward inside", 15, drift.Backward, 2, false},
		{"backward on record", 10, drift.Backward, 1, false},
		{"backward at start", 0, drift.Backward, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FindRank(times, tt.t, tt.dir)
			if tt.err {
				assert.ErrorIs(t, err, drift.ErrEndOfDataset)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestManagerForward(t *testing.T) {
	m := NewManager(smallAnalytic(t), []string{FieldTemp}, drift.Forward, nil)
	assert.Nil(t, m.Current())

	require.NoError(t, m.Init(1800))
	p := m.Current()
	require.NotNil(t, p)
	assert.Equal(t, 0, p.Tp0.Rank)
	assert.Equal(t, 1, p.Tp1.Rank)
	assert.Equal(t, 3600.0, p.Dt)
	assert.InDelta(t, 0.5, p.Frac(1800), 1e-12)
	assert.InDelta(t, 0.25, p.Blend(0, 1, 900), 1e-12)

	require.NoError(t, m.Update(3000))
	assert.Same(t, p, m.Current(), "no swap inside the pair")

	require.NoError(t, m.Update(7300))
	p2 := m.Current()
	assert.NotSame(t, p, p2)
	assert.Equal(t, 2, p2.Tp0.Rank)
	assert.Equal(t, 3, p2.Tp1.Rank)

	err := m.Update(5 * 3600)
	assert.True(t, errors.Is(err, drift.ErrEndOfDataset))
}

func TestManagerBackward(t *testing.T) {
	m := NewManager(smallAnalytic(t), nil, drift.Backward, nil)
	require.NoError(t, m.Init(4*3600))
	p := m.Current()
	assert.Equal(t, 4, p.Tp0.Rank)
	assert.Equal(t, 3, p.Tp1.Rank)
	assert.InDelta(t, 0.0, p.Frac(4*3600), 1e-12)

	require.NoError(t, m.Update(2.5*3600))
	p = m.Current()
	assert.Equal(t, 3, p.Tp0.Rank)
	assert.Equal(t, 2, p.Tp1.Rank)
	assert.InDelta(t, 0.5, p.Frac(2.5*3600), 1e-12)
}

func TestManagerFrames(t *testing.T) {
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	m := NewManager(smallAnalytic(t), []string{FieldTemp, "chlorophyll"}, drift.Forward, log)
	require.NoError(t, m.Init(0))

	f := m.Current().Tp0
	require.NotNil(t, f.W)
	assert.Equal(t, []int{5, 6, 8}, f.W.Shape)
	for _, w := range f.W.Elements {
		assert.InDelta(t, 0, w, 1e-12)
	}
	assert.Equal(t, []int{5, 6, 8}, f.ZW.Shape)
	assert.Equal(t, []int{4, 6, 8}, f.ZRho.Shape)

	temp, ok := f.Scalar(FieldTemp)
	require.True(t, ok)
	assert.Greater(t, temp.Get(3, 2, 2), temp.Get(0, 2, 2))
	_, ok = f.Scalar("chlorophyll")
	assert.False(t, ok)

	var warned bool
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel && e.Data["field"] == "chlorophyll" {
			warned = true
		}
	}
	assert.True(t, warned)
}

func TestAnalyticRotatingCurrent(t *testing.T) {
	spec := DefaultAnalyticSpec()
	spec.Nz = 0
	spec.U, spec.V = 0.2, 0
	spec.Period = 4 * 3600
	spec.Records = 6
	a, err := NewAnalytic(spec)
	require.NoError(t, err)
	assert.False(t, a.Static().Is3D())
	assert.Equal(t, 1, a.Static().Nz())

	rec, err := a.Record(1, nil)
	require.NoError(t, err)
	assert.Nil(t, rec.Zeta)
	assert.InDelta(t, 0, rec.U.Get(0, 3, 3), 1e-12)
	assert.InDelta(t, 0.2, rec.V.Get(0, 3, 3), 1e-12)

	_, err = a.Time(6)
	assert.ErrorIs(t, err, drift.ErrEndOfDataset)
	_, err = NewAnalytic(AnalyticSpec{Records: 1})
	assert.ErrorIs(t, err, drift.ErrInvalidConfig)
}
