package measure

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMode(t *testing.T) {
	for _, s := range []string{"distance", "multi-distance", "height", "area", " Area "} {
		_, err := ParseMode(s)
		assert.NoError(t, err, s)
	}

	_, err := ParseMode("volume")
	assert.ErrorIs(t, err, ErrInvalidMode)
	assert.Contains(t, err.Error(), "multi-distance")
}

func TestMeasure(t *testing.T) {
	paris := Point{Lon: 2.3522, Lat: 48.8566, Alt: 35}
	eiffel := Point{Lon: 2.2945, Lat: 48.8584, Alt: 330}
	london := Point{Lon: -0.1278, Lat: 51.5074, Alt: 11}

	t.Run("distance", func(t *testing.T) {
		res, err := Measure(ModeDistance, []Point{paris, london})
		require.NoError(t, err)
		assert.Equal(t, ModeDistance, res.Type)
		assert.InDelta(t, 343556, res.Value, 500)
		assert.Len(t, res.Points, 2)
	})

	t.Run("multi-distance", func(t *testing.T) {
		res, err := Measure(ModeMultiDistance, []Point{eiffel, paris, london})
		require.NoError(t, err)
		expected := HaversineDistance(eiffel.Lat, eiffel.Lon, paris.Lat, paris.Lon) +
			HaversineDistance(paris.Lat, paris.Lon, london.Lat, london.Lon)
		assert.InDelta(t, expected, res.Value, 1e-6)
	})

	t.Run("height", func(t *testing.T) {
		res, err := Measure(ModeHeight, []Point{eiffel, paris})
		require.NoError(t, err)
		assert.Equal(t, 295.0, res.Value)
	})

	t.Run("area", func(t *testing.T) {
		square := []Point{{Lon: 0, Lat: 0}, {Lon: 0.009, Lat: 0}, {Lon: 0.009, Lat: 0.009}, {Lon: 0, Lat: 0.009}}
		res, err := Measure(ModeArea, square)
		require.NoError(t, err)
		assert.InEpsilon(t, 1e6, res.Value, 0.05)
	})

	t.Run("result owns its points", func(t *testing.T) {
		pts := []Point{paris, london}
		res, err := Measure(ModeDistance, pts)
		require.NoError(t, err)
		pts[0].Lat = 0
		assert.Equal(t, paris.Lat, res.Points[0].Lat)
	})
}

func TestMeasureErrors(t *testing.T) {
	p := Point{Lon: 1, Lat: 1}

	cases := []struct {
		name   string
		mode   Mode
		points []Point
		err    error
	}{
		{"unknown mode", Mode("volume"), []Point{p, p}, ErrInvalidMode},
		{"empty mode", Mode(""), []Point{p, p}, ErrInvalidMode},
		{"distance one point", ModeDistance, []Point{p}, ErrTooFewPoints},
		{"distance three points", ModeDistance, []Point{p, p, p}, ErrTooManyPoints},
		{"height one point", ModeHeight, []Point{p}, ErrTooFewPoints},
		{"multi-distance one point", ModeMultiDistance, []Point{p}, ErrTooFewPoints},
		{"area two points", ModeArea, []Point{p, p}, ErrTooFewPoints},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Measure(tc.mode, tc.points)
			assert.ErrorIs(t, err, tc.err)
		})
	}
}
