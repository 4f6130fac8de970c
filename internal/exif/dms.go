package exif

import "math"

// DMS is a degrees/minutes/seconds angle as stored in EXIF GPS rationals.
// Values come straight from the encoder and are not guaranteed to be in range.
type DMS struct {
	Degrees float64
	Minutes float64
	Seconds float64
}

// ToDecimalDegrees converts a DMS triple to unsigned decimal degrees.
//
// Some encoders write seconds as total arc-seconds scaled by 60 (1425 instead of
// 23.75); that is undone before any carrying so the scaled value is not pushed
// into minutes. Remaining overflow is carried seconds -> minutes -> degrees.
func ToDecimalDegrees(v DMS) float64 {
	d, m, s := v.Degrees, v.Minutes, v.Seconds

	if s >= 60 && m < 60 {
		s = s / 60
	}

	if s >= 60 {
		carry := math.Floor(s / 60)
		s -= carry * 60
		m += carry
	}

	if m >= 60 {
		carry := math.Floor(m / 60)
		m -= carry * 60
		d += carry
	}

	return d + m/60 + s/3600
}
