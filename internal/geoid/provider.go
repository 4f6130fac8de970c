// Package geoid provides EGM96 geoid undulations backed by a lazily
// provisioned grid file.
package geoid

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/singleflight"

	"github.com/bstardust/geokit/internal/logger"
	"github.com/bstardust/geokit/internal/metrics"
)

// DefaultDataURL is the NGA download for the EGM96 15-minute interpolation grid
const DefaultDataURL = "https://earth-info.nga.mil/php/download.php?file=egm-96interpolation"

// DefaultDownloadTimeout bounds a single grid download
const DefaultDownloadTimeout = 5 * time.Minute

// State is the lifecycle of the in-memory model
type State int32

const (
	StateUnloaded State = iota
	StateAcquiring
	StateLoaded
)

func (s State) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateAcquiring:
		return "acquiring"
	case StateLoaded:
		return "loaded"
	default:
		return "unknown"
	}
}

// Options configures a Provider
type Options struct {
	DataURL         string
	CacheDir        string
	CacheSize       int
	DownloadTimeout time.Duration
	// Fetcher defaults to http, https and file sources
	Fetcher Fetcher
	// Retry applies to the download step; the zero value tries once
	Retry RetryConfig
}

// Provider answers undulation queries. The grid is acquired on the first
// lookup; concurrent first lookups share one acquisition.
type Provider struct {
	mu         sync.RWMutex
	url        string
	grid       *Grid
	state      State
	generation uint64

	cacheDir string
	timeout  time.Duration
	fetcher  Fetcher
	retry    RetryConfig
	cache    *UndulationCache
	group    singleflight.Group
}

// NewProvider creates a provider in the unloaded state. Nothing touches the
// network or disk until the first lookup.
func NewProvider(opts Options) *Provider {
	if opts.DataURL == "" {
		opts.DataURL = DefaultDataURL
	}
	if opts.DownloadTimeout <= 0 {
		opts.DownloadTimeout = DefaultDownloadTimeout
	}
	if opts.Fetcher == nil {
		opts.Fetcher = NewSchemeFetcher(nil, nil)
	}

	return &Provider{
		url:      opts.DataURL,
		cacheDir: opts.CacheDir,
		timeout:  opts.DownloadTimeout,
		fetcher:  opts.Fetcher,
		retry:    opts.Retry,
		cache:    NewUndulationCache(opts.CacheSize),
	}
}

// Undulation returns the geoid height above the WGS84 ellipsoid in meters.
// Repeated calls for the same (rounded) coordinate return the memoized value.
func (p *Provider) Undulation(ctx context.Context, lat, lon float64) (float64, error) {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lon, 0) || lat < -90 || lat > 90 {
		return 0, fmt.Errorf("%w: lat=%v lon=%v", ErrInvalidCoordinate, lat, lon)
	}

	k := keyFor(lat, lon)
	if v, ok := p.cache.get(k); ok {
		metrics.UndulationCacheHits.Inc()
		return v, nil
	}

	grid, gen, err := p.model(ctx)
	if err != nil {
		return 0, err
	}

	rlat, rlon := k.coords()
	v, err := grid.Height(rlat, rlon)
	if err != nil {
		return 0, err
	}
	metrics.UndulationCacheMisses.Inc()

	p.mu.RLock()
	if p.generation == gen {
		p.cache.add(k, v)
	}
	p.mu.RUnlock()

	return v, nil
}

// SetDataSourceURL changes where the grid is fetched from. A different URL
// drops the loaded model, the memoized values and the cached grid file.
func (p *Provider) SetDataSourceURL(rawURL string) {
	if rawURL == "" {
		rawURL = DefaultDataURL
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if rawURL == p.url {
		return
	}
	p.url = rawURL
	p.resetLocked()

	if err := p.removeGridFile(); err != nil {
		logger.Warn("Failed to remove cached grid: %v", err)
	}
	logger.Info("Geoid data source set to %s", rawURL)
}

// DataSourceURL returns the configured data source
func (p *Provider) DataSourceURL() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.url
}

// ClearCache drops the in-memory model and memoized lookups. The grid file
// on disk is kept, so the next lookup reloads without downloading.
func (p *Provider) ClearCache() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resetLocked()
}

// DeleteGridFile clears the cache and removes the grid file from disk
func (p *Provider) DeleteGridFile() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resetLocked()
	return p.removeGridFile()
}

// State returns the current lifecycle state
func (p *Provider) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// GridPath returns the location of the cached grid file
func (p *Provider) GridPath() string {
	return filepath.Join(p.cacheDir, GridFileName)
}

// CacheLen returns the number of memoized lookups
func (p *Provider) CacheLen() int {
	return p.cache.Len()
}

func (p *Provider) resetLocked() {
	p.grid = nil
	p.state = StateUnloaded
	p.generation++
	p.cache.Purge()
}

func (p *Provider) removeGridFile() error {
	if err := os.Remove(p.GridPath()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove grid file: %w", err)
	}
	return nil
}

type loadResult struct {
	grid *Grid
	gen  uint64
}

// model returns the loaded grid, acquiring it if needed
func (p *Provider) model(ctx context.Context) (*Grid, uint64, error) {
	p.mu.RLock()
	grid, gen, src := p.grid, p.generation, p.url
	p.mu.RUnlock()
	if grid != nil {
		return grid, gen, nil
	}

	ch := p.group.DoChan(strconv.FormatUint(gen, 10), func() (interface{}, error) {
		return p.load(gen, src)
	})

	select {
	case <-ctx.Done():
		return nil, 0, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, 0, res.Err
		}
		lr := res.Val.(loadResult)
		return lr.grid, lr.gen, nil
	}
}

// load runs once per generation at a time. It uses its own deadline so one
// cancelled caller does not abort the acquisition others are waiting on.
func (p *Provider) load(gen uint64, src string) (loadResult, error) {
	p.mu.Lock()
	if p.generation == gen && p.grid != nil {
		g := p.grid
		p.mu.Unlock()
		return loadResult{grid: g, gen: gen}, nil
	}
	if p.generation == gen {
		p.state = StateAcquiring
	}
	p.mu.Unlock()

	start := time.Now()
	grid, result, err := p.acquire(gen, src)
	metrics.GridLoadDuration.Observe(time.Since(start).Seconds())
	metrics.GridAcquisitions.WithLabelValues(scheme(src), result).Inc()

	p.mu.Lock()
	defer p.mu.Unlock()

	if err != nil {
		if p.generation == gen {
			p.state = StateUnloaded
		}
		logger.WithFields(logger.Fields{"url": src, "stage": "acquire"}).Errorf("geoid acquisition failed: %v", err)
		return loadResult{}, &AcquisitionError{URL: src, Err: err}
	}

	// A reset while loading means this grid belongs to a torn-down model
	if p.generation == gen {
		p.grid = grid
		p.state = StateLoaded
	}
	return loadResult{grid: grid, gen: gen}, nil
}

func (p *Provider) acquire(gen uint64, src string) (*Grid, string, error) {
	if err := os.MkdirAll(p.cacheDir, 0o755); err != nil {
		return nil, metrics.ResultFailed, fmt.Errorf("failed to create cache directory: %w", err)
	}

	gridPath := p.GridPath()
	result := metrics.ResultCached

	if _, err := os.Stat(gridPath); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, metrics.ResultFailed, fmt.Errorf("failed to stat grid file: %w", err)
		}
		if err := p.download(gen, src, gridPath); err != nil {
			return nil, metrics.ResultFailed, err
		}
		result = metrics.ResultDownloaded
	}

	grid, err := LoadGrid(gridPath)
	if err != nil {
		// A corrupt cached grid would otherwise fail every retry
		p.mu.RLock()
		if p.generation == gen {
			os.Remove(gridPath)
		}
		p.mu.RUnlock()
		return nil, metrics.ResultFailed, err
	}

	rows, cols := grid.Size()
	logger.Info("Loaded geoid grid %s (%dx%d samples)", gridPath, rows, cols)
	return grid, result, nil
}

func (p *Provider) download(gen uint64, src, gridPath string) error {
	archive, err := os.CreateTemp(p.cacheDir, "egm96-*.archive")
	if err != nil {
		return fmt.Errorf("failed to create archive file: %w", err)
	}
	archivePath := archive.Name()
	defer os.Remove(archivePath)

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	logger.Info("Downloading EGM96 grid data from %s", src)
	var n int64
	err = retryWithBackoff(ctx, "grid download", func() error {
		// a failed attempt may have left partial data behind
		if err := archive.Truncate(0); err != nil {
			return fmt.Errorf("failed to reset archive file: %w", err)
		}
		if _, err := archive.Seek(0, io.SeekStart); err != nil {
			return fmt.Errorf("failed to reset archive file: %w", err)
		}
		var err error
		n, err = p.fetcher.Fetch(ctx, src, archive)
		return err
	}, p.retry)
	if cerr := archive.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("failed to write archive: %w", cerr)
	}
	if err != nil {
		return err
	}
	metrics.GridDownloadBytes.Add(float64(n))
	logger.Info("Download complete: %s", humanize.Bytes(uint64(n)))

	staged := fmt.Sprintf("%s.gen-%d", gridPath, gen)
	format, err := ExtractGrid(archivePath, staged)
	if err != nil {
		return err
	}
	if err := p.commitGrid(gen, staged, gridPath); err != nil {
		return err
	}
	logger.Info("Extracted grid (%s source) to %s", format, gridPath)
	return nil
}

// commitGrid moves a staged grid into place unless the provider was reset
// since the load started; a reset may have switched the data source.
func (p *Provider) commitGrid(gen uint64, staged, gridPath string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.generation != gen {
		os.Remove(staged)
		return errStaleLoad
	}
	if err := os.Rename(staged, gridPath); err != nil {
		os.Remove(staged)
		return fmt.Errorf("failed to move grid into place: %w", err)
	}
	return nil
}

func scheme(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" {
		return "unknown"
	}
	return u.Scheme
}
