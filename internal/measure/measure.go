// Package measure implements great-circle distance and area on a spherical Earth.
package measure

import "math"

const (
	// EarthRadius is the mean Earth radius in meters
	EarthRadius = 6371000.0

	// MetersPerDegree is the length of one degree of latitude (and of
	// longitude at the equator) used by the shoelace approximations
	MetersPerDegree = 111320.0

	// degenerateAngle is about 6 micrometers on the ground
	degenerateAngle = 1e-12
)

// Point is a position in decimal degrees with an optional altitude in meters
type Point struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
	Alt float64 `json:"alt,omitempty"`
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// HaversineDistance returns the great-circle distance in meters
func HaversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	return EarthRadius * centralAngle(lat1, lon1, lat2, lon2)
}

// centralAngle is the angular distance in radians between two points
func centralAngle(lat1, lon1, lat2, lon2 float64) float64 {
	phi1, phi2 := radians(lat1), radians(lat2)
	dPhi := radians(lat2 - lat1)
	dLambda := radians(lon2 - lon1)

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	// rounding can push a just past 1 for antipodal points
	a = math.Min(1, math.Max(0, a))
	return 2 * math.Asin(math.Sqrt(a))
}

// PathLength sums the great-circle lengths of consecutive segments
func PathLength(points []Point) float64 {
	total := 0.0
	for i := 1; i < len(points); i++ {
		total += HaversineDistance(points[i-1].Lat, points[i-1].Lon, points[i].Lat, points[i].Lon)
	}
	return total
}

// SphericalArea returns the area in square meters enclosed by points.
//
// Triangles use L'Huilier's theorem and are exact on the sphere. Larger
// polygons use a latitude-corrected shoelace sum, which is an approximation
// intended for small polygons; it is not a geodesic polygon area.
// Fewer than three points yield 0.
func SphericalArea(points []Point) float64 {
	switch {
	case len(points) < 3:
		return 0
	case len(points) == 3:
		return triangleArea(points[0], points[1], points[2])
	default:
		return correctedShoelace(points)
	}
}

func triangleArea(p1, p2, p3 Point) float64 {
	a := centralAngle(p1.Lat, p1.Lon, p2.Lat, p2.Lon)
	b := centralAngle(p2.Lat, p2.Lon, p3.Lat, p3.Lon)
	c := centralAngle(p3.Lat, p3.Lon, p1.Lat, p1.Lon)
	s := (a + b + c) / 2

	// Collinear or coincident vertices: a side equals the sum of the other two
	if s-a <= degenerateAngle || s-b <= degenerateAngle || s-c <= degenerateAngle {
		return 0
	}

	prod := math.Tan(s/2) * math.Tan((s-a)/2) * math.Tan((s-b)/2) * math.Tan((s-c)/2)
	if !(prod > 0) {
		return 0
	}

	e := 4 * math.Atan(math.Sqrt(prod))
	area := e * EarthRadius * EarthRadius
	if math.IsNaN(area) || math.IsInf(area, 0) {
		return 0
	}
	return area
}

// correctedShoelace weights each edge's cross term by the cosine of the edge's
// mean latitude, then scales degrees to meters at the polygon's mean latitude.
// Cross terms are taken relative to the first vertex, with longitudes unwrapped
// across the antimeridian, so the result does not depend on where the polygon
// sits in absolute coordinates.
func correctedShoelace(points []Point) float64 {
	origin := points[0]
	n := len(points)

	xs := make([]float64, n)
	ys := make([]float64, n)
	latSum := 0.0
	for i, p := range points {
		xs[i] = unwrap(p.Lon - origin.Lon)
		ys[i] = p.Lat - origin.Lat
		latSum += p.Lat
	}

	sum := 0.0
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		avgLat := (points[i].Lat + points[j].Lat) / 2
		sum += (xs[i]*ys[j] - xs[j]*ys[i]) * math.Cos(radians(avgLat))
	}
	sum = math.Abs(sum / 2)

	meanLat := latSum / float64(n)
	area := sum * MetersPerDegree * math.Cos(radians(meanLat)) * MetersPerDegree
	if math.IsNaN(area) {
		return 0
	}
	return area
}

// PlanarArea is the uncorrected flat shoelace area, treating a degree as
// MetersPerDegree on both axes. Kept for comparison with SphericalArea.
func PlanarArea(points []Point) float64 {
	n := len(points)
	if n < 3 {
		return 0
	}

	sum := 0.0
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += points[i].Lon*points[j].Lat - points[j].Lon*points[i].Lat
	}
	return math.Abs(sum/2) * MetersPerDegree * MetersPerDegree
}

// unwrap maps a longitude difference into [-180, 180)
func unwrap(d float64) float64 {
	d = math.Mod(d+180, 360)
	if d < 0 {
		d += 360
	}
	return d - 180
}
