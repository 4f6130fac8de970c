package metadata

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bstardust/geokit/internal/exif/exiftest"
)

func parisJPEG() []byte {
	alt := exiftest.Rational{3550, 100}
	return exiftest.JPEG(exiftest.Fixture{
		Width: 64, Height: 48,
		Make: "FUJIFILM", Model: "X-T4",
		DateTimeOriginal: "2023:07:14 21:05:33",
		GPS: &exiftest.GPS{
			LatRef: "N", Lat: exiftest.DecimalToDMS(48.8566),
			LonRef: "E", Lon: exiftest.DecimalToDMS(2.3522),
			Alt: &alt,
		},
	})
}

func TestExtractAll(t *testing.T) {
	path := filepath.Join(t.TempDir(), "paris.jpg")
	require.NoError(t, os.WriteFile(path, parisJPEG(), 0o644))

	loc := time.FixedZone("CEST", 2*60*60)
	md := NewExtractor(loc).ExtractAll(path)

	assert.Equal(t, path, md.FilePath)
	assert.Equal(t, "paris.jpg", md.FileName)

	require.NotNil(t, md.GPS)
	assert.InDelta(t, 48.8566, md.GPS.Latitude, 0.001)
	assert.InDelta(t, 2.3522, md.GPS.Longitude, 0.001)
	require.NotNil(t, md.GPS.Altitude)
	assert.InDelta(t, 35.5, *md.GPS.Altitude, 0.01)

	require.NotNil(t, md.CaptureTime)
	assert.Equal(t, time.Date(2023, 7, 14, 21, 5, 33, 0, loc).Unix(), md.CaptureTime.Unix())

	assert.Equal(t, "FUJIFILM", md.Camera.Make)
	assert.Equal(t, "X-T4", md.Camera.Model)

	require.NotNil(t, md.Width)
	require.NotNil(t, md.Height)
	assert.Equal(t, 64, *md.Width)
	assert.Equal(t, 48, *md.Height)
}

func TestExtractFromFS(t *testing.T) {
	var pngBuf bytes.Buffer
	require.NoError(t, png.Encode(&pngBuf, image.NewRGBA(image.Rect(0, 0, 12, 7))))

	fsys := fstest.MapFS{
		"album/paris.jpg":  {Data: parisJPEG()},
		"album/plain.png":  {Data: pngBuf.Bytes()},
		"album/broken.jpg": {Data: []byte("definitely not a jpeg")},
	}
	e := NewExtractor(nil)

	t.Run("with exif", func(t *testing.T) {
		md := e.ExtractFromFS(fsys, "album/paris.jpg")
		require.NotNil(t, md.GPS)
		assert.Equal(t, "paris.jpg", md.FileName)
	})

	t.Run("no exif keeps dimensions", func(t *testing.T) {
		md := e.ExtractFromFS(fsys, "album/plain.png")
		assert.Nil(t, md.GPS)
		assert.Nil(t, md.CaptureTime)
		assert.True(t, md.Camera.IsEmpty())
		require.NotNil(t, md.Width)
		assert.Equal(t, 12, *md.Width)
		assert.Equal(t, 7, *md.Height)
	})

	t.Run("undecodable file", func(t *testing.T) {
		md := e.ExtractFromFS(fsys, "album/broken.jpg")
		require.NotNil(t, md)
		assert.Nil(t, md.GPS)
		assert.Nil(t, md.Width)
	})

	t.Run("missing file", func(t *testing.T) {
		md := e.ExtractFromFS(fsys, "album/gone.jpg")
		require.NotNil(t, md)
		assert.Equal(t, "gone.jpg", md.FileName)
		assert.Nil(t, md.GPS)
	})
}

func TestExtractAllMissingFile(t *testing.T) {
	md := NewExtractor(time.UTC).ExtractAll(filepath.Join(t.TempDir(), "nope.jpg"))
	require.NotNil(t, md)
	assert.Nil(t, md.GPS)
	assert.Nil(t, md.CaptureTime)
	assert.Nil(t, md.Width)
}

func TestExtractFromReader(t *testing.T) {
	md := NewExtractor(time.UTC).Extract("stream.jpg", bytes.NewReader(parisJPEG()))
	require.NotNil(t, md.GPS)
	assert.Equal(t, "stream.jpg", md.FileName)
}

func TestToMap(t *testing.T) {
	md := NewExtractor(time.UTC).Extract("paris.jpg", bytes.NewReader(parisJPEG()))
	m := md.ToMap()

	assert.Equal(t, "paris.jpg", m["file-name"])
	assert.Equal(t, "FUJIFILM", m["camera-make"])
	assert.Equal(t, "64", m["width"])
	assert.Equal(t, "35.50", m["gps-altitude"])
	assert.Equal(t, "2023-07-14T21:05:33Z", m["capture-time"])
	assert.Contains(t, m, "gps-latitude")
	assert.NotContains(t, m, "orientation")
}

func TestGPSZoneExtractor(t *testing.T) {
	md := NewGPSZoneExtractor(time.UTC).Extract("paris.jpg", bytes.NewReader(parisJPEG()))

	require.NotNil(t, md.CaptureTime)
	assert.Equal(t, "Europe/Paris", md.CaptureTime.Location().String())
	// 21:05:33 CEST
	assert.Equal(t, time.Date(2023, 7, 14, 19, 5, 33, 0, time.UTC), md.CaptureTime.UTC())

	noGPS := exiftest.JPEG(exiftest.Fixture{Width: 8, Height: 8, DateTimeOriginal: "2023:07:14 21:05:33"})
	md = NewGPSZoneExtractor(time.UTC).Extract("plain.jpg", bytes.NewReader(noGPS))
	require.NotNil(t, md.CaptureTime)
	assert.Equal(t, time.UTC, md.CaptureTime.Location())
}

func TestZoneAt(t *testing.T) {
	loc := ZoneAt(35.6762, 139.6503)
	require.NotNil(t, loc)
	assert.Equal(t, "Asia/Tokyo", loc.String())
}
