package geoid

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeArchive(t *testing.T, dir string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, "download.archive")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func copyTestdata(t *testing.T, dir, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return writeArchive(t, dir, data)
}

func TestExtractGrid(t *testing.T) {
	grid := coarseGrid()
	readme := member{"README.txt", []byte("EGM96 15' grid")}

	cases := []struct {
		name    string
		archive func(t *testing.T, dir string) string
		format  string
	}{
		{
			name: "zip with nested upper-case member",
			archive: func(t *testing.T, dir string) string {
				return writeArchive(t, dir, zipArchive(t, readme, member{"EGM96/WW15MGH.GRD", grid}))
			},
			format: "zip",
		},
		{
			name: "zip with lower-case member",
			archive: func(t *testing.T, dir string) string {
				return writeArchive(t, dir, zipArchive(t, member{"egm96-15.grd", grid}))
			},
			format: "zip",
		},
		{
			name: "tar.bz2",
			archive: func(t *testing.T, dir string) string {
				return copyTestdata(t, dir, "egm96-coarse.tar.bz2")
			},
			format: "tar.bz2",
		},
		{
			name: "tar.gz",
			archive: func(t *testing.T, dir string) string {
				return writeArchive(t, dir, tarGzArchive(t, readme, member{"data/WW15MGH.grd", grid}))
			},
			format: "tar.gz",
		},
		{
			name: "bare grid",
			archive: func(t *testing.T, dir string) string {
				return writeArchive(t, dir, grid)
			},
			format: "bare",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			dest := filepath.Join(dir, GridFileName)

			format, err := ExtractGrid(tc.archive(t, dir), dest)
			require.NoError(t, err)
			assert.Equal(t, tc.format, format)

			g, err := LoadGrid(dest)
			require.NoError(t, err)
			h, err := g.Height(46.371203, 4.635514)
			require.NoError(t, err)
			assert.InDelta(t, surface(46.371203, 4.635514), h, 1e-6)
		})
	}
}

func TestExtractGridNoMember(t *testing.T) {
	readme := member{"README.txt", []byte("no grid in here")}

	archives := map[string]func(t *testing.T, dir string) string{
		"zip": func(t *testing.T, dir string) string {
			return writeArchive(t, dir, zipArchive(t, readme))
		},
		"tar.bz2": func(t *testing.T, dir string) string {
			return copyTestdata(t, dir, "no-grid.tar.bz2")
		},
		"tar.gz": func(t *testing.T, dir string) string {
			return writeArchive(t, dir, tarGzArchive(t, readme))
		},
	}

	for name, build := range archives {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			dest := filepath.Join(dir, GridFileName)

			_, err := ExtractGrid(build(t, dir), dest)
			assert.ErrorIs(t, err, ErrGridNotFound)
			assert.NoFileExists(t, dest)
		})
	}
}

func TestExtractGridUnsupported(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, GridFileName)
	path := writeArchive(t, dir, []byte("<html><body>maintenance</body></html>"))

	_, err := ExtractGrid(path, dest)
	assert.ErrorIs(t, err, ErrUnsupportedArchive)
	assert.NoFileExists(t, dest)

	// no temp files left behind
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
