package fileinfo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsImageFile(t *testing.T) {
	for _, name := range []string{"a.jpg", "B.JPEG", "dir/c.png", "d.heic", "e.TIF", "f.webp"} {
		assert.True(t, IsImageFile(name), name)
	}
	for _, name := range []string{"a.mp4", "b.json", "c", "archive.zip", "jpg"} {
		assert.False(t, IsImageFile(name), name)
	}
}

func TestIsZipFile(t *testing.T) {
	assert.True(t, IsZipFile("takeout-001.zip"))
	assert.True(t, IsZipFile("PHOTOS.ZIP"))
	assert.False(t, IsZipFile("photo.jpg"))
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "image/jpeg", ContentType("IMG_0001.JPG"))
	assert.Equal(t, "image/heic", ContentType("x.heic"))
	assert.Equal(t, "application/zip", ContentType("a.zip"))
	assert.Equal(t, "application/octet-stream", ContentType("WW15MGH"))
}
