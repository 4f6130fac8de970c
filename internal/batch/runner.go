// Package batch runs metadata extraction over many image sources concurrently.
package batch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/bstardust/geokit/internal/exif"
	"github.com/bstardust/geokit/internal/fileinfo"
	"github.com/bstardust/geokit/internal/fshelper"
	"github.com/bstardust/geokit/internal/logger"
	"github.com/bstardust/geokit/internal/metadata"
	"github.com/bstardust/geokit/internal/metrics"
	"github.com/bstardust/geokit/internal/progress"
	"github.com/bstardust/geokit/internal/takeout"
	"github.com/bstardust/geokit/internal/worker"
)

// Output formats
const (
	FormatJSON = "json"
	FormatText = "text"
)

// Where a record's GPS position came from
const (
	GPSSourceExif    = "exif"
	GPSSourceSidecar = "takeout-sidecar"
)

// CoordinateConverter lifts an MSL GPS fix to ellipsoidal height
type CoordinateConverter interface {
	CoordinateToWGS84(ctx context.Context, coord exif.Coordinate) (exif.Coordinate, error)
}

// Record is one output line
type Record struct {
	*metadata.ImageMetadata
	Source        string   `json:"source"`
	ContentType   string   `json:"contentType"`
	GPSSource     string   `json:"gpsSource,omitempty"`
	WGS84Altitude *float64 `json:"wgs84Altitude,omitempty"`
	Error         string   `json:"error,omitempty"`
}

// Runner handles the extraction process
type Runner struct {
	extractor *metadata.Extractor
	converter CoordinateConverter
	pool      *worker.Pool
	progress  *progress.Reporter
	out       io.Writer
	format    string

	mu  sync.Mutex
	enc *json.Encoder
}

// New creates a Runner. converter may be nil, in which case altitudes are
// reported as found.
func New(extractor *metadata.Extractor, converter CoordinateConverter, pool *worker.Pool,
	reporter *progress.Reporter, out io.Writer, format string) *Runner {
	return &Runner{
		extractor: extractor,
		converter: converter,
		pool:      pool,
		progress:  reporter,
		out:       out,
		format:    format,
		enc:       json.NewEncoder(out),
	}
}

type job struct {
	fsys fshelper.NameFS
	path string
}

// Run extracts every image in sources and writes one record per image
func (r *Runner) Run(ctx context.Context, sources []fshelper.NameFS) error {
	var jobs []job
	for _, src := range sources {
		files, err := fshelper.ListImages(src)
		if err != nil {
			return fmt.Errorf("failed to list images: %w", err)
		}
		for _, f := range files {
			jobs = append(jobs, job{fsys: src, path: f})
		}
	}

	r.progress.Start(len(jobs))

	for _, j := range jobs {
		j := j
		err := r.pool.Submit(ctx, func() {
			r.process(ctx, j)
		})
		if err != nil {
			// Let in-flight images finish before reporting the interruption
			r.pool.Wait()
			r.progress.Finish()
			return err
		}
	}

	r.pool.Wait()
	r.progress.Finish()

	return nil
}

func (r *Runner) process(ctx context.Context, j job) {
	md := r.extractor.ExtractFromFS(j.fsys, j.path)
	rec := Record{
		ImageMetadata: md,
		Source:        j.fsys.Name(),
		ContentType:   fileinfo.ContentType(j.path),
	}
	if md.GPS != nil {
		rec.GPSSource = GPSSourceExif
	}
	if md.GPS == nil || md.CaptureTime == nil {
		applySidecar(j, &rec)
	}

	switch {
	case md.GPS == nil:
		metrics.ImagesProcessed.WithLabelValues("no_gps").Inc()
		r.progress.NoGPS(j.path)
	case r.converter != nil && md.GPS.Altitude != nil:
		lifted, err := r.converter.CoordinateToWGS84(ctx, *md.GPS)
		if err != nil {
			logger.WithFields(logger.Fields{"file": j.path, "stage": "wgs84"}).Errorf("altitude conversion failed: %v", err)
			rec.Error = err.Error()
			metrics.ImagesProcessed.WithLabelValues("failed").Inc()
			r.progress.Error(j.path, err)
			break
		}
		rec.WGS84Altitude = lifted.Altitude
		metrics.ImagesProcessed.WithLabelValues("located").Inc()
		r.progress.Located(j.path)
	default:
		metrics.ImagesProcessed.WithLabelValues("located").Inc()
		r.progress.Located(j.path)
	}

	if err := r.write(rec); err != nil {
		logger.Error("Failed to write record for %s: %v", j.path, err)
	}
}

// applySidecar fills what EXIF lacked from a Google Takeout sidecar
func applySidecar(j job, rec *Record) {
	sc, err := takeout.Read(j.fsys, j.path)
	if err != nil {
		if !errors.Is(err, takeout.ErrNoSidecar) {
			logger.WithFields(logger.Fields{"file": j.path, "stage": "sidecar"}).Warnf("%v", err)
		}
		return
	}

	if rec.GPS == nil {
		if c, ok := sc.Coordinate(); ok {
			rec.GPS = c
			rec.GPSSource = GPSSourceSidecar
		}
	}
	if rec.CaptureTime == nil {
		if ts, ok := sc.CaptureTime(); ok {
			rec.CaptureTime = ts
		}
	}
}

func (r *Runner) write(rec Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.format == FormatText {
		return writeText(r.out, rec)
	}
	return r.enc.Encode(rec)
}

func writeText(w io.Writer, rec Record) error {
	m := rec.ToMap()
	m["source"] = rec.Source
	m["content-type"] = rec.ContentType
	if rec.GPSSource != "" {
		m["gps-source"] = rec.GPSSource
	}
	if rec.WGS84Altitude != nil {
		m["wgs84-altitude"] = fmt.Sprintf("%.2f", *rec.WGS84Altitude)
	}
	if rec.Error != "" {
		m["error"] = rec.Error
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if _, err := fmt.Fprintf(w, "%s=%s\n", k, m[k]); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w)
	return err
}
