package fshelper

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/bstardust/geokit/internal/fileinfo"
)

// NameFS is a named filesystem with the root its files are listed from
type NameFS interface {
	fs.FS
	Name() string
	Root() string
}

// DirFS represents a directory filesystem with a name
type DirFS struct {
	fs.FS
	name string
	root string
}

// Name returns the name of the filesystem
func (d *DirFS) Name() string {
	return d.name
}

// Root returns "." for a directory, or the file name for a single-file source
func (d *DirFS) Root() string {
	return d.root
}

// ZipFS represents a zip filesystem with a name
type ZipFS struct {
	*zip.Reader
	name string
	rc   io.Closer
}

// Name returns the name of the filesystem
func (z *ZipFS) Name() string {
	return z.name
}

// Root returns the archive root
func (z *ZipFS) Root() string {
	return "."
}

// Close closes the zip file
func (z *ZipFS) Close() error {
	if z.rc != nil {
		return z.rc.Close()
	}
	return nil
}

// ParsePath expands paths (directories, zip archives, image files or glob
// patterns matching those) into filesystems
func ParsePath(paths []string) ([]NameFS, error) {
	var fsyss []NameFS

	for _, path := range paths {
		// Check if the path is a glob pattern
		matches, err := filepath.Glob(path)
		if err != nil {
			CloseAll(fsyss)
			return nil, fmt.Errorf("invalid glob pattern %s: %w", path, err)
		}

		if len(matches) == 0 {
			// No matches, try as a direct path
			if _, err := os.Stat(path); err != nil {
				CloseAll(fsyss)
				if os.IsNotExist(err) {
					return nil, fmt.Errorf("path does not exist: %s", path)
				}
				return nil, fmt.Errorf("error accessing path %s: %w", path, err)
			}
			matches = []string{path}
		}

		for _, match := range matches {
			info, err := os.Stat(match)
			if err != nil {
				CloseAll(fsyss)
				return nil, fmt.Errorf("error accessing path %s: %w", match, err)
			}

			switch {
			case info.IsDir():
				fsyss = append(fsyss, &DirFS{
					FS:   os.DirFS(match),
					name: filepath.Base(match),
					root: ".",
				})
			case fileinfo.IsZipFile(match):
				zipFS, err := OpenZip(match)
				if err != nil {
					CloseAll(fsyss)
					return nil, fmt.Errorf("error opening zip file %s: %w", match, err)
				}
				fsyss = append(fsyss, zipFS)
			case fileinfo.IsImageFile(match):
				fsyss = append(fsyss, &DirFS{
					FS:   os.DirFS(filepath.Dir(match)),
					name: filepath.Base(match),
					root: filepath.Base(match),
				})
			default:
				CloseAll(fsyss)
				return nil, fmt.Errorf("unsupported file type: %s", match)
			}
		}
	}

	return fsyss, nil
}

// OpenZip opens a zip file and returns a filesystem
func OpenZip(path string) (*ZipFS, error) {
	zipFile, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening zip file: %w", err)
	}

	info, err := zipFile.Stat()
	if err != nil {
		zipFile.Close()
		return nil, fmt.Errorf("error getting zip file info: %w", err)
	}

	zipReader, err := zip.NewReader(zipFile, info.Size())
	if err != nil {
		zipFile.Close()
		return nil, fmt.Errorf("error creating zip reader: %w", err)
	}

	return &ZipFS{
		Reader: zipReader,
		name:   filepath.Base(path),
		rc:     zipFile,
	}, nil
}

// ListImages returns the sorted paths of every image file under fsys.Root()
func ListImages(fsys NameFS) ([]string, error) {
	var files []string

	err := fs.WalkDir(fsys, fsys.Root(), func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if fileinfo.IsImageFile(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error listing %s: %w", fsys.Name(), err)
	}

	sort.Strings(files)
	return files, nil
}

// CloseAll closes every filesystem that holds an open handle
func CloseAll(fsyss []NameFS) {
	for _, fsys := range fsyss {
		if c, ok := fsys.(io.Closer); ok {
			c.Close()
		}
	}
}
