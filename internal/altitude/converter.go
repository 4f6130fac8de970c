// Package altitude converts heights between mean sea level (geoid) and the
// WGS84 ellipsoid.
package altitude

import (
	"context"
	"fmt"

	"github.com/bstardust/geokit/internal/exif"
)

// UndulationSource returns the geoid height above the ellipsoid at a point.
// *geoid.Provider satisfies it.
type UndulationSource interface {
	Undulation(ctx context.Context, lat, lon float64) (float64, error)
}

// Converter applies geoid undulations to altitudes
type Converter struct {
	source UndulationSource
}

// NewConverter creates a converter backed by source
func NewConverter(source UndulationSource) *Converter {
	return &Converter{source: source}
}

// MSLToWGS84 converts an altitude above mean sea level to ellipsoidal height
func (c *Converter) MSLToWGS84(ctx context.Context, alt, lat, lon float64) (float64, error) {
	n, err := c.source.Undulation(ctx, lat, lon)
	if err != nil {
		return 0, fmt.Errorf("failed to get geoid undulation: %w", err)
	}
	return alt + n, nil
}

// WGS84ToMSL converts an ellipsoidal height to altitude above mean sea level
func (c *Converter) WGS84ToMSL(ctx context.Context, alt, lat, lon float64) (float64, error) {
	n, err := c.source.Undulation(ctx, lat, lon)
	if err != nil {
		return 0, fmt.Errorf("failed to get geoid undulation: %w", err)
	}
	return alt - n, nil
}

// CoordinateToWGS84 returns a copy of an EXIF GPS fix with its altitude
// lifted from MSL to the ellipsoid. A fix without altitude is returned as is.
func (c *Converter) CoordinateToWGS84(ctx context.Context, coord exif.Coordinate) (exif.Coordinate, error) {
	if coord.Altitude == nil {
		return coord, nil
	}

	h, err := c.MSLToWGS84(ctx, *coord.Altitude, coord.Latitude, coord.Longitude)
	if err != nil {
		return coord, err
	}
	coord.Altitude = &h
	return coord, nil
}
