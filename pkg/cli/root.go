package cli

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bstardust/geokit/internal/config"
	"github.com/bstardust/geokit/internal/geoid"
	"github.com/bstardust/geokit/internal/logger"
	"github.com/bstardust/geokit/internal/metrics"
)

// app carries what every subcommand needs once the root command has
// resolved configuration
type app struct {
	configFile  string
	logLevel    string
	logFormat   string
	metricsAddr string
	dataURL     string
	cacheDir    string

	cfg      *config.Config
	provider *geoid.Provider
}

func Execute() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interruption signals
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-signalCh
		logger.Info("Received interrupt signal, shutting down gracefully...")
		cancel()
	}()

	rootCmd := newRootCommand(os.Stdout)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logger.Error("Error executing command: %v", err)
		os.Exit(1)
	}
}

func newRootCommand(out io.Writer) *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "geokit",
		Short: "Photo geolocation toolkit",
		Long: `Extract GPS positions from photo EXIF data, convert altitudes between mean sea level
and the WGS84 ellipsoid using the EGM96 geoid, and measure distances and areas on the globe.

Negative coordinates must follow "--", for example: geokit undulation -- -33.86 151.21`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	rootCmd.SetOut(out)

	// Global flags
	defaults := config.New()
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "Config file (default ./geokit.yaml)")
	flags.StringVar(&a.logLevel, "log-level", defaults.LogLevel, "Log level (debug, info, warn, error)")
	flags.StringVar(&a.logFormat, "log-format", defaults.LogFormat, "Log format (text, json)")
	flags.StringVar(&a.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9090")
	flags.StringVar(&a.dataURL, "data-url", "", "EGM96 grid source (https://, http://, file:// or s3://bucket/key)")
	flags.StringVar(&a.cacheDir, "cache-dir", "", "Directory holding the downloaded grid")

	// Add commands
	rootCmd.AddCommand(newExifCommand(a))
	rootCmd.AddCommand(newUndulationCommand(a))
	rootCmd.AddCommand(newConvertCommand(a))
	rootCmd.AddCommand(newDistanceCommand())
	rootCmd.AddCommand(newMeasureCommand())
	rootCmd.AddCommand(newCacheCommand(a))

	return rootCmd
}

// setup loads configuration, lets explicitly set flags override it and
// wires the shared services
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configFile)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = a.logFormat
	}
	if flags.Changed("data-url") {
		cfg.Geoid.DataURL = a.dataURL
	}
	if flags.Changed("cache-dir") {
		cfg.Geoid.CacheDir = a.cacheDir
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger.SetLevel(cfg.LogLevel)
	logger.SetFormat(cfg.LogFormat)

	if a.metricsAddr != "" {
		ctx := cmd.Context()
		go func() {
			if err := metrics.Serve(ctx, a.metricsAddr); err != nil {
				logger.Error("Metrics server failed: %v", err)
			}
		}()
	}

	a.cfg = cfg
	a.provider = newProvider(cfg.Geoid)
	return nil
}

func newProvider(cfg config.GeoidConfig) *geoid.Provider {
	var s3cfg *geoid.S3Config
	if cfg.S3.Endpoint != "" {
		s3cfg = &geoid.S3Config{
			Endpoint:  cfg.S3.Endpoint,
			Region:    cfg.S3.Region,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			UseSSL:    cfg.S3.UseSSL,
		}
	}

	retry := geoid.DefaultRetryConfig()
	retry.MaxRetries = cfg.MaxRetries
	if cfg.RetryBackoff > 0 {
		retry.InitialBackoff = cfg.RetryBackoff
	}

	return geoid.NewProvider(geoid.Options{
		DataURL:         cfg.DataURL,
		CacheDir:        cfg.CacheDir,
		CacheSize:       cfg.CacheSize,
		DownloadTimeout: cfg.DownloadTimeout,
		Fetcher:         geoid.NewSchemeFetcher(nil, s3cfg),
		Retry:           retry,
	})
}
