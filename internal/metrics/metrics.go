package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bstardust/geokit/internal/logger"
)

var (
	UndulationCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "geokit",
		Subsystem: "geoid",
		Name:      "cache_hits_total",
		Help:      "Undulation lookups served from the LRU cache",
	})

	UndulationCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "geokit",
		Subsystem: "geoid",
		Name:      "cache_misses_total",
		Help:      "Undulation lookups computed from the grid",
	})

	GridAcquisitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "geokit",
		Subsystem: "geoid",
		Name:      "acquisitions_total",
		Help:      "Geoid grid provisioning attempts by outcome",
	}, []string{"source", "result"})

	GridDownloadBytes = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "geokit",
		Subsystem: "geoid",
		Name:      "download_bytes_total",
		Help:      "Bytes fetched from geoid data sources",
	})

	GridLoadDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "geokit",
		Subsystem: "geoid",
		Name:      "load_duration_seconds",
		Help:      "Time spent provisioning and parsing the geoid grid",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
	})

	ImagesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "geokit",
		Subsystem: "exif",
		Name:      "images_processed_total",
		Help:      "Images run through metadata extraction by outcome",
	}, []string{"result"})
)

// Acquisition outcomes
const (
	ResultCached     = "cached"
	ResultDownloaded = "downloaded"
	ResultFailed     = "failed"
)

// Serve exposes /metrics on addr until ctx is cancelled
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info("Serving metrics on %s/metrics", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
