package measure

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Mode selects what Measure computes
type Mode string

const (
	ModeDistance      Mode = "distance"
	ModeMultiDistance Mode = "multi-distance"
	ModeHeight        Mode = "height"
	ModeArea          Mode = "area"
)

// Modes lists every supported mode
var Modes = []Mode{ModeDistance, ModeMultiDistance, ModeHeight, ModeArea}

var (
	ErrInvalidMode   = errors.New("invalid measurement mode")
	ErrTooFewPoints  = errors.New("too few points for measurement")
	ErrTooManyPoints = errors.New("too many points for measurement")
)

// Result is one completed measurement. Value is meters, or square meters for area.
type Result struct {
	Type   Mode    `json:"type"`
	Value  float64 `json:"value"`
	Points []Point `json:"points"`
}

// ParseMode validates a mode name
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	for _, valid := range Modes {
		if m == valid {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q (valid: %s)", ErrInvalidMode, s, joinModes())
}

func joinModes() string {
	names := make([]string, len(Modes))
	for i, m := range Modes {
		names[i] = string(m)
	}
	return strings.Join(names, ", ")
}

// Measure runs one measurement over points.
//
//   - distance: great-circle distance between exactly two points
//   - multi-distance: length of the polyline through two or more points
//   - height: vertical separation of exactly two points
//   - area: enclosed area of three or more points
func Measure(mode Mode, points []Point) (Result, error) {
	var value float64

	switch mode {
	case ModeDistance:
		if err := checkCount(mode, points, 2, 2); err != nil {
			return Result{}, err
		}
		value = HaversineDistance(points[0].Lat, points[0].Lon, points[1].Lat, points[1].Lon)
	case ModeMultiDistance:
		if err := checkCount(mode, points, 2, 0); err != nil {
			return Result{}, err
		}
		value = PathLength(points)
	case ModeHeight:
		if err := checkCount(mode, points, 2, 2); err != nil {
			return Result{}, err
		}
		value = math.Abs(points[1].Alt - points[0].Alt)
	case ModeArea:
		if err := checkCount(mode, points, 3, 0); err != nil {
			return Result{}, err
		}
		value = SphericalArea(points)
	default:
		return Result{}, fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}

	pts := make([]Point, len(points))
	copy(pts, points)
	return Result{Type: mode, Value: value, Points: pts}, nil
}

// checkCount enforces min <= len(points) <= max; max 0 means unbounded
func checkCount(mode Mode, points []Point, min, max int) error {
	if len(points) < min {
		return fmt.Errorf("%w: %s needs at least %d, got %d", ErrTooFewPoints, mode, min, len(points))
	}
	if max > 0 && len(points) > max {
		return fmt.Errorf("%w: %s takes %d, got %d", ErrTooManyPoints, mode, max, len(points))
	}
	return nil
}
