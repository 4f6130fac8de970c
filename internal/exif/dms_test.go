package exif

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToDecimalDegrees(t *testing.T) {
	cases := []struct {
		name     string
		in       DMS
		expected float64
	}{
		{"well formed", DMS{46, 22, 16.33}, 46.371202777},
		{"scaled seconds", DMS{0, 0, 1425}, 23.75 / 3600},
		{"zero", DMS{0, 0, 0}, 0},
		{"minutes overflow", DMS{10, 75, 0}, 11.25},
		{"scaled seconds with minutes", DMS{48, 51, 1425.6}, 48 + 51.0/60 + 23.76/3600},
		{"minutes overflow blocks descale", DMS{1, 70, 90}, 2 + 11.0/60 + 30.0/3600},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.expected, ToDecimalDegrees(tc.in), 1e-8)
		})
	}
}

func TestToDecimalDegreesDescaleBeforeCarry(t *testing.T) {
	// 1425 must become 23.75 s, not 23 min 45 s carried into minutes
	got := ToDecimalDegrees(DMS{0, 0, 1425})
	assert.InDelta(t, 23.75/3600, got, 1e-12)
	assert.NotEqual(t, 23.75/60, got)
}

func TestToDecimalDegreesMonotonic(t *testing.T) {
	base := DMS{12, 30, 30}
	v := ToDecimalDegrees(base)

	assert.Greater(t, ToDecimalDegrees(DMS{13, 30, 30}), v)
	assert.Greater(t, ToDecimalDegrees(DMS{12, 31, 30}), v)
	assert.Greater(t, ToDecimalDegrees(DMS{12, 30, 31}), v)
}

func TestToDecimalDegreesRoundTrip(t *testing.T) {
	for _, dec := range []float64{0, 0.5, 2.3522, 46.371203, 48.8566, 89.999, 179.9999} {
		d := math.Floor(dec)
		m := math.Floor((dec - d) * 60)
		s := ((dec-d)*60 - m) * 60
		assert.InDelta(t, dec, ToDecimalDegrees(DMS{d, m, s}), 1.0/3600, "decimal %v", dec)
	}
}
