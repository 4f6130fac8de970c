package geoid

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/require"
)

// surface is the plane sampled by the synthetic grids; bilinear interpolation
// reproduces it exactly between nodes.
func surface(lat, lon float64) float64 {
	return 0.5*lat + 0.1*lon + 10
}

// coarseGrid renders surface on a 30 degree global grid (7x13 samples)
func coarseGrid() []byte {
	return renderGrid(-90, 90, 0, 360, 30, 30, surface)
}

func renderGrid(south, north, west, east, dlat, dlon float64, f func(lat, lon float64) float64) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "%f %f %f %f %f %f\n", south, north, west, east, dlat, dlon)
	for lat := north; lat >= south; lat -= dlat {
		for lon := west; lon <= east; lon += dlon {
			fmt.Fprintf(&b, " %.6f", f(lat, lon))
		}
		b.WriteString("\n")
	}
	return []byte(b.String())
}

type member struct {
	name string
	data []byte
}

func zipArchive(t *testing.T, members ...member) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, m := range members {
		w, err := zw.Create(m.name)
		require.NoError(t, err)
		_, err = w.Write(m.data)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func tarGzArchive(t *testing.T, members ...member) []byte {
	t.Helper()
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gw)
	for _, m := range members {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     m.name,
			Mode:     0o644,
			Size:     int64(len(m.data)),
			Typeflag: tar.TypeReg,
		}))
		_, err := tw.Write(m.data)
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gw.Close())
	return buf.Bytes()
}
