// Package takeout reads the JSON sidecars Google Takeout writes next to each photo.
package takeout

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/bstardust/geokit/internal/exif"
)

// ErrNoSidecar means no sidecar exists for the image
var ErrNoSidecar = errors.New("no takeout sidecar")

// Sidecar is the subset of a Takeout photo sidecar geokit reads
type Sidecar struct {
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	PhotoTakenTime Timestamp `json:"photoTakenTime"`
	GeoData        GeoData   `json:"geoData"`
	GeoDataExif    GeoData   `json:"geoDataExif"`
}

// Timestamp holds Unix seconds encoded as a string
type Timestamp struct {
	Timestamp string `json:"timestamp"`
	Formatted string `json:"formatted"`
}

// GeoData is a position as Google Photos stores it. All zero means unknown.
type GeoData struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Altitude  float64 `json:"altitude"`
}

func (g GeoData) known() bool {
	return g.Latitude != 0 || g.Longitude != 0
}

// candidates lists sidecar names in the order Takeout exports have used them
func candidates(imagePath string) []string {
	ext := path.Ext(imagePath)
	return []string{
		imagePath + ".json",
		imagePath + ".supplemental-metadata.json",
		strings.TrimSuffix(imagePath, ext) + ".json",
	}
}

// Read finds and parses the sidecar for imagePath in fsys
func Read(fsys fs.FS, imagePath string) (*Sidecar, error) {
	for _, name := range candidates(imagePath) {
		data, err := fs.ReadFile(fsys, name)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read sidecar %s: %w", name, err)
		}

		var s Sidecar
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("failed to parse sidecar %s: %w", name, err)
		}
		return &s, nil
	}
	return nil, ErrNoSidecar
}

// Coordinate returns the user-visible position, falling back to the one
// Google recorded from the original EXIF
func (s *Sidecar) Coordinate() (*exif.Coordinate, bool) {
	for _, g := range []GeoData{s.GeoData, s.GeoDataExif} {
		if !g.known() {
			continue
		}
		c := &exif.Coordinate{Latitude: g.Latitude, Longitude: g.Longitude}
		if g.Altitude != 0 {
			alt := g.Altitude
			c.Altitude = &alt
		}
		return c, true
	}
	return nil, false
}

// CaptureTime returns photoTakenTime in UTC
func (s *Sidecar) CaptureTime() (*time.Time, bool) {
	if s.PhotoTakenTime.Timestamp == "" {
		return nil, false
	}
	secs, err := strconv.ParseInt(s.PhotoTakenTime.Timestamp, 10, 64)
	if err != nil || secs <= 0 {
		return nil, false
	}
	t := time.Unix(secs, 0).UTC()
	return &t, true
}
