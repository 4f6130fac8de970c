package cli

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/bstardust/geokit/internal/measure"
	"github.com/bstardust/geokit/pkg/common"
)

func parseNumber(field, s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, common.NewValidationError(field, fmt.Sprintf("%q is not a number", s))
	}
	return v, nil
}

func parseLatitude(s string) (float64, error) {
	lat, err := parseNumber("latitude", s)
	if err != nil {
		return 0, err
	}
	if lat < -90 || lat > 90 {
		return 0, common.NewValidationError("latitude", fmt.Sprintf("%v is outside [-90, 90]", lat))
	}
	return lat, nil
}

func parseLongitude(s string) (float64, error) {
	lon, err := parseNumber("longitude", s)
	if err != nil {
		return 0, err
	}
	if lon < -180 || lon > 360 {
		return 0, common.NewValidationError("longitude", fmt.Sprintf("%v is outside [-180, 360]", lon))
	}
	return lon, nil
}

// parseLatLon reads a latitude followed by a longitude
func parseLatLon(latArg, lonArg string) (float64, float64, error) {
	lat, err := parseLatitude(latArg)
	if err != nil {
		return 0, 0, err
	}
	lon, err := parseLongitude(lonArg)
	if err != nil {
		return 0, 0, err
	}
	return lat, lon, nil
}

// parsePoint reads "lon,lat" or "lon,lat,alt"
func parsePoint(s string) (measure.Point, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 && len(parts) != 3 {
		return measure.Point{}, common.NewValidationError("point", fmt.Sprintf("%q must be lon,lat[,alt]", s))
	}

	lon, err := parseLongitude(parts[0])
	if err != nil {
		return measure.Point{}, err
	}
	lat, err := parseLatitude(parts[1])
	if err != nil {
		return measure.Point{}, err
	}

	p := measure.Point{Lon: lon, Lat: lat}
	if len(parts) == 3 {
		if p.Alt, err = parseNumber("altitude", parts[2]); err != nil {
			return measure.Point{}, err
		}
	}
	return p, nil
}

func parsePoints(args []string) ([]measure.Point, error) {
	points := make([]measure.Point, 0, len(args))
	for _, arg := range args {
		p, err := parsePoint(arg)
		if err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, nil
}

// measureError turns engine input errors into CLI validation errors
func measureError(err error) error {
	switch {
	case errors.Is(err, measure.ErrInvalidMode):
		return common.NewValidationError("mode", err.Error())
	case errors.Is(err, measure.ErrTooFewPoints), errors.Is(err, measure.ErrTooManyPoints):
		return common.NewValidationError("points", err.Error())
	default:
		return err
	}
}
