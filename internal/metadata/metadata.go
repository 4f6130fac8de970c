package metadata

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	// Registered decoders for dimension probing
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/bradfitz/latlong"

	"github.com/bstardust/geokit/internal/exif"
	"github.com/bstardust/geokit/internal/logger"
)

// ImageMetadata is everything recovered from one image file.
// Any field may be missing; a missing field is never an error.
type ImageMetadata struct {
	FilePath    string           `json:"filePath"`
	FileName    string           `json:"fileName"`
	GPS         *exif.Coordinate `json:"gps,omitempty"`
	CaptureTime *time.Time       `json:"captureTime,omitempty"`
	Camera      exif.CameraInfo  `json:"camera"`
	Width       *int             `json:"width,omitempty"`
	Height      *int             `json:"height,omitempty"`
}

// Extractor extracts metadata from image files
type Extractor struct {
	timezone *time.Location
	// zoneFromGPS reads capture times in the zone at the GPS position
	zoneFromGPS bool
}

// NewExtractor creates a new metadata extractor. Capture times carry no zone
// in EXIF and are interpreted in timezone.
func NewExtractor(timezone *time.Location) *Extractor {
	if timezone == nil {
		timezone = time.UTC
	}
	return &Extractor{
		timezone: timezone,
	}
}

// NewGPSZoneExtractor creates an extractor that interprets capture times in
// the time zone at the photo's GPS position, and in fallback otherwise
func NewGPSZoneExtractor(fallback *time.Location) *Extractor {
	e := NewExtractor(fallback)
	e.zoneFromGPS = true
	return e
}

// ExtractAll reads the image at path from the local filesystem
func (e *Extractor) ExtractAll(path string) *ImageMetadata {
	md := &ImageMetadata{
		FilePath: path,
		FileName: filepath.Base(path),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		logDecodeFailure(path, "open", err)
		return md
	}

	e.fill(md, data)
	return md
}

// ExtractFromFS reads the image at path inside fsys (a directory or zip archive)
func (e *Extractor) ExtractFromFS(fsys fs.FS, path string) *ImageMetadata {
	md := &ImageMetadata{
		FilePath: path,
		FileName: filepath.Base(path),
	}

	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		logDecodeFailure(path, "open", err)
		return md
	}

	e.fill(md, data)
	return md
}

// Extract reads the image from r; name is used for reporting only
func (e *Extractor) Extract(name string, r io.Reader) *ImageMetadata {
	md := &ImageMetadata{
		FilePath: name,
		FileName: filepath.Base(name),
	}

	data, err := io.ReadAll(r)
	if err != nil {
		logDecodeFailure(name, "read", err)
		return md
	}

	e.fill(md, data)
	return md
}

func (e *Extractor) fill(md *ImageMetadata, data []byte) {
	if w, h, err := decodeDimensions(data); err != nil {
		logDecodeFailure(md.FilePath, "dimensions", err)
	} else {
		md.Width, md.Height = &w, &h
	}

	tags, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		logDecodeFailure(md.FilePath, "exif", err)
		return
	}

	if gps, ok := tags.GPS(); ok {
		md.GPS = gps
	}
	if ts, ok := tags.CaptureTime(e.captureZone(md.GPS)); ok {
		md.CaptureTime = ts
	}
	md.Camera = tags.Camera()

	// Fall back to the EXIF pixel dimensions when the container could not be decoded
	if md.Width == nil && md.Camera.ImageWidth != nil && md.Camera.ImageHeight != nil {
		w, h := *md.Camera.ImageWidth, *md.Camera.ImageHeight
		md.Width, md.Height = &w, &h
	}
}

func (e *Extractor) captureZone(gps *exif.Coordinate) *time.Location {
	if !e.zoneFromGPS || gps == nil {
		return e.timezone
	}
	if loc := ZoneAt(gps.Latitude, gps.Longitude); loc != nil {
		return loc
	}
	return e.timezone
}

// ZoneAt returns the IANA time zone at a position, or nil over open sea
// and wherever the zone database lacks the name
func ZoneAt(lat, lon float64) *time.Location {
	name := latlong.LookupZoneName(lat, lon)
	if name == "" {
		return nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		logger.Debug("Unknown time zone %s at %f,%f: %v", name, lat, lon, err)
		return nil
	}
	return loc
}

func decodeDimensions(data []byte) (int, int, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read image dimensions: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}

func logDecodeFailure(path, stage string, err error) {
	logger.WithFields(logger.Fields{
		"file":  path,
		"stage": stage,
	}).Warnf("metadata unavailable: %v", err)
}

// ToMap flattens metadata into string pairs for key=value output
func (m *ImageMetadata) ToMap() map[string]string {
	result := make(map[string]string)

	result["file-path"] = m.FilePath
	result["file-name"] = m.FileName

	if m.GPS != nil {
		result["gps-latitude"] = fmt.Sprintf("%f", m.GPS.Latitude)
		result["gps-longitude"] = fmt.Sprintf("%f", m.GPS.Longitude)
		if m.GPS.Altitude != nil {
			result["gps-altitude"] = fmt.Sprintf("%.2f", *m.GPS.Altitude)
		}
	}
	if m.CaptureTime != nil {
		result["capture-time"] = m.CaptureTime.Format(time.RFC3339)
	}
	if m.Width != nil && m.Height != nil {
		result["width"] = strconv.Itoa(*m.Width)
		result["height"] = strconv.Itoa(*m.Height)
	}

	c := m.Camera
	if c.Make != "" {
		result["camera-make"] = c.Make
	}
	if c.Model != "" {
		result["camera-model"] = c.Model
	}
	if c.FocalLengthMM != nil {
		result["focal-length-mm"] = strconv.FormatFloat(*c.FocalLengthMM, 'f', -1, 64)
	}
	if c.FocalLength35mm != nil {
		result["focal-length-35mm"] = strconv.Itoa(*c.FocalLength35mm)
	}
	if c.Orientation != nil {
		result["orientation"] = strconv.Itoa(*c.Orientation)
	}

	return result
}
