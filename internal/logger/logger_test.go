package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		SetLevel("info")
		SetFormat("text")
	})
	return &buf
}

func TestSetLevel(t *testing.T) {
	buf := capture(t)

	SetLevel("warn")
	Info("hidden %d", 1)
	Warn("shown %d", 2)
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown 2")

	buf.Reset()
	SetLevel("DEBUG")
	Debug("details")
	assert.Contains(t, buf.String(), "details")

	buf.Reset()
	SetLevel("nonsense")
	Debug("dropped")
	Info("kept")
	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), "kept")
}

func TestJSONFieldsFormat(t *testing.T) {
	buf := capture(t)
	SetFormat("json")

	WithFields(Fields{"file": "a.jpg", "stage": "exif"}).Warnf("metadata unavailable: %s", "eof")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "a.jpg", entry["file"])
	assert.Equal(t, "exif", entry["stage"])
	assert.Equal(t, "warning", entry["level"])
	assert.Equal(t, "metadata unavailable: eof", entry["msg"])
}
