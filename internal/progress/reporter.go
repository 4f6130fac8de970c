// internal/progress/reporter.go
package progress

import (
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/bstardust/geokit/internal/logger"
)

// Counts is a snapshot of reported outcomes
type Counts struct {
	Total     int
	Located   int
	NoGPS     int
	Failed    int
	Processed int
}

// Reporter tracks and reports batch extraction progress
type Reporter struct {
	mu             sync.Mutex
	total          int
	located        int
	noGPS          int
	failed         int
	startTime      time.Time
	lastUpdateTime time.Time
	updateInterval time.Duration
}

// New creates a new progress reporter
func New() *Reporter {
	return &Reporter{
		updateInterval: 2 * time.Second,
	}
}

// Start initializes the progress reporter with the total number of images
func (r *Reporter) Start(total int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.total = total
	r.located = 0
	r.noGPS = 0
	r.failed = 0
	r.startTime = time.Now()
	r.lastUpdateTime = time.Now()

	logger.Info("Starting extraction of %s images", humanize.Comma(int64(total)))
}

// Located marks an image whose GPS fix was recovered
func (r *Reporter) Located(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.located++
	r.updateProgress()
}

// NoGPS marks an image that carries no usable GPS fix
func (r *Reporter) NoGPS(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.noGPS++
	r.updateProgress()
}

// Error marks an image whose processing failed
func (r *Reporter) Error(path string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.failed++
	logger.Debug("Failed %s: %v", path, err)
	r.updateProgress()
}

// Counts returns the current tallies
func (r *Reporter) Counts() Counts {
	r.mu.Lock()
	defer r.mu.Unlock()

	return Counts{
		Total:     r.total,
		Located:   r.located,
		NoGPS:     r.noGPS,
		Failed:    r.failed,
		Processed: r.located + r.noGPS + r.failed,
	}
}

// Finish completes the progress reporting
func (r *Reporter) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()

	duration := time.Since(r.startTime)

	logger.Info("Extraction complete: %d/%d images located, %d without GPS, %d errors in %s",
		r.located, r.total, r.noGPS, r.failed, duration.Round(time.Millisecond))
}

// updateProgress logs progress at most once per update interval
func (r *Reporter) updateProgress() {
	now := time.Now()
	if now.Sub(r.lastUpdateTime) < r.updateInterval {
		return
	}

	r.lastUpdateTime = now
	duration := now.Sub(r.startTime)
	processed := r.located + r.noGPS + r.failed

	if processed == 0 || r.total == 0 {
		return
	}

	percentage := float64(processed) / float64(r.total) * 100

	timePerImage := duration / time.Duration(processed)
	remaining := timePerImage * time.Duration(r.total-processed)

	logger.Info("Progress: %.1f%% (%d/%d, %d located, %d without GPS, %d errors) ETA: %s",
		percentage, processed, r.total, r.located, r.noGPS, r.failed, remaining.Round(time.Second))
}
