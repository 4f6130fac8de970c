package geoid

import (
	"archive/tar"
	"archive/zip"
	"bufio"
	"compress/bzip2"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/bstardust/geokit/internal/logger"
)

// errNotFormat means a reader did not recognise the archive and the next one should run
var errNotFormat = errors.New("not this format")

type archiveFormat struct {
	name    string
	extract func(archivePath string, w io.Writer) error
}

// formats are tried in order; the first that recognises the file wins
var formats = []archiveFormat{
	{"zip", extractZip},
	{"tar.bz2", extractTarBz2},
	{"tar.gz", extractTarGz},
	{"bare", copyBareGrid},
}

// ExtractGrid writes the first .grd member of the archive at archivePath to dest.
// dest is replaced atomically, so readers never observe a partial grid.
func ExtractGrid(archivePath, dest string) (string, error) {
	for _, p := range formats {
		err := writeAtomic(dest, func(w io.Writer) error {
			return p.extract(archivePath, w)
		})
		if errors.Is(err, errNotFormat) {
			logger.Debug("Archive %s is not %s", archivePath, p.name)
			continue
		}
		if err != nil {
			return p.name, fmt.Errorf("failed to extract %s archive: %w", p.name, err)
		}
		return p.name, nil
	}
	return "", ErrUnsupportedArchive
}

func isGridName(name string) bool {
	return strings.EqualFold(path.Ext(name), ".grd")
}

func writeAtomic(dest string, fill func(w io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".grid-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	bw := bufio.NewWriter(tmp)
	if err := fill(bw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := bw.Flush(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write grid: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close grid: %w", err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to move grid into place: %w", err)
	}
	return nil
}

func extractZip(archivePath string, w io.Writer) error {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return errNotFormat
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.FileInfo().IsDir() || !isGridName(f.Name) {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return fmt.Errorf("failed to open member %s: %w", f.Name, err)
		}
		defer rc.Close()

		logger.Debug("Extracting %s from zip archive", f.Name)
		if _, err := io.Copy(w, rc); err != nil {
			return fmt.Errorf("failed to read member %s: %w", f.Name, err)
		}
		return nil
	}
	return ErrGridNotFound
}

func extractTarBz2(archivePath string, w io.Writer) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer f.Close()

	return extractTar(bzip2.NewReader(bufio.NewReader(f)), w)
}

func extractTarGz(archivePath string, w io.Writer) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer f.Close()

	zr, err := gzip.NewReader(bufio.NewReader(f))
	if err != nil {
		return errNotFormat
	}
	defer zr.Close()

	return extractTar(zr, w)
}

// extractTar treats a failure to read the first header as "not a tar stream"
func extractTar(r io.Reader, w io.Writer) error {
	tr := tar.NewReader(r)
	first := true
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			if first {
				return errNotFormat
			}
			return ErrGridNotFound
		}
		if err != nil {
			if first {
				return errNotFormat
			}
			return fmt.Errorf("failed to read tar header: %w", err)
		}
		first = false

		if hdr.Typeflag != tar.TypeReg || !isGridName(hdr.Name) {
			continue
		}

		logger.Debug("Extracting %s from tar archive", hdr.Name)
		if _, err := io.Copy(w, tr); err != nil {
			return fmt.Errorf("failed to read member %s: %w", hdr.Name, err)
		}
		return nil
	}
}

// copyBareGrid accepts a file that is itself a grid: six numeric header fields up front
func copyBareGrid(archivePath string, w io.Writer) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	head, _ := br.Peek(512)
	fields := strings.Fields(string(head))
	if len(fields) < 7 {
		return errNotFormat
	}
	for _, s := range fields[:6] {
		if _, err := strconv.ParseFloat(s, 64); err != nil {
			return errNotFormat
		}
	}

	if _, err := io.Copy(w, br); err != nil {
		return fmt.Errorf("failed to copy grid: %w", err)
	}
	return nil
}
