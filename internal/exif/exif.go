// internal/exif/exif.go
package exif

import (
	"strings"
	"time"

	goexif "github.com/rwcarlsen/goexif/exif"
)

// DateTimeLayout is the fixed EXIF timestamp layout "YYYY:MM:DD HH:MM:SS"
const DateTimeLayout = "2006:01:02 15:04:05"

// dateTimeFields are tried in order: capture original, digitized, file modify
var dateTimeFields = []goexif.FieldName{
	goexif.DateTimeOriginal,
	goexif.DateTimeDigitized,
	goexif.DateTime,
}

// Coordinate is a GPS fix in signed decimal degrees
type Coordinate struct {
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Altitude  *float64 `json:"altitude,omitempty"`
}

// CameraInfo represents camera parameters; every field is optional
type CameraInfo struct {
	Make            string   `json:"make,omitempty"`
	Model           string   `json:"model,omitempty"`
	FocalLengthMM   *float64 `json:"focalLengthMm,omitempty"`
	FocalLength35mm *int     `json:"focalLength35mm,omitempty"`
	ImageWidth      *int     `json:"imageWidth,omitempty"`
	ImageHeight     *int     `json:"imageHeight,omitempty"`
	Orientation     *int     `json:"orientation,omitempty"`
}

// IsEmpty reports whether no camera field was found
func (c CameraInfo) IsEmpty() bool {
	return c.Make == "" && c.Model == "" && c.FocalLengthMM == nil && c.FocalLength35mm == nil &&
		c.ImageWidth == nil && c.ImageHeight == nil && c.Orientation == nil
}

// GPS extracts the GPS fix. Both latitude and longitude must be present.
func (t Tags) GPS() (*Coordinate, bool) {
	latVal, okLat := t.Get(goexif.GPSLatitude)
	lonVal, okLon := t.Get(goexif.GPSLongitude)
	if !okLat || !okLon {
		return nil, false
	}

	lat, ok := dmsFromValue(latVal)
	if !ok {
		return nil, false
	}
	lon, ok := dmsFromValue(lonVal)
	if !ok {
		return nil, false
	}

	latitude := ToDecimalDegrees(lat)
	if t.ref(goexif.GPSLatitudeRef, "N") == "S" {
		latitude = -latitude
	}
	longitude := ToDecimalDegrees(lon)
	if t.ref(goexif.GPSLongitudeRef, "E") == "W" {
		longitude = -longitude
	}

	coord := &Coordinate{Latitude: latitude, Longitude: longitude}

	if altVal, ok := t.Get(goexif.GPSAltitude); ok {
		if alt, ok := altVal.Number(0); ok {
			// 1 = below sea level
			if refVal, ok := t.Get(goexif.GPSAltitudeRef); ok {
				if ref, ok := refVal.Number(0); ok && ref == 1 {
					alt = -alt
				}
			}
			coord.Altitude = &alt
		}
	}

	return coord, true
}

// CaptureTime returns the first timestamp tag that parses, interpreted in loc
func (t Tags) CaptureTime(loc *time.Location) (*time.Time, bool) {
	if loc == nil {
		loc = time.UTC
	}
	for _, name := range dateTimeFields {
		v, ok := t.Get(name)
		if !ok {
			continue
		}
		ts, err := time.ParseInLocation(DateTimeLayout, strings.TrimSpace(v.Text), loc)
		if err != nil {
			continue
		}
		return &ts, true
	}
	return nil, false
}

// Camera collects whichever camera tags are present
func (t Tags) Camera() CameraInfo {
	var info CameraInfo

	if v, ok := t.Get(goexif.Make); ok {
		info.Make = strings.TrimSpace(v.Text)
	}
	if v, ok := t.Get(goexif.Model); ok {
		info.Model = strings.TrimSpace(v.Text)
	}
	if v, ok := t.Get(goexif.FocalLength); ok {
		if f, ok := v.Number(0); ok {
			info.FocalLengthMM = &f
		}
	}
	info.FocalLength35mm = t.intField(goexif.FocalLengthIn35mmFilm)
	info.ImageWidth = t.intField(goexif.PixelXDimension)
	info.ImageHeight = t.intField(goexif.PixelYDimension)
	info.Orientation = t.intField(goexif.Orientation)

	return info
}

func (t Tags) intField(name goexif.FieldName) *int {
	v, ok := t.Get(name)
	if !ok {
		return nil
	}
	f, ok := v.Number(0)
	if !ok {
		return nil
	}
	i := int(f)
	return &i
}

func (t Tags) ref(name goexif.FieldName, fallback string) string {
	v, ok := t.Get(name)
	if !ok {
		return fallback
	}
	s := strings.ToUpper(strings.TrimSpace(v.Text))
	if s == "" {
		return fallback
	}
	return s[:1]
}

func dmsFromValue(v Value) (DMS, bool) {
	if len(v.Numbers) == 0 {
		return DMS{}, false
	}
	var out DMS
	out.Degrees = v.Numbers[0]
	if m, ok := v.Number(1); ok {
		out.Minutes = m
	}
	if s, ok := v.Number(2); ok {
		out.Seconds = s
	}
	return out, true
}
