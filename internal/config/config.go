package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bstardust/geokit/internal/geoid"
	"github.com/bstardust/geokit/pkg/common"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// TimezoneAuto selects the time zone at each photo's GPS position
const TimezoneAuto = "auto"

// Config represents the application configuration
type Config struct {
	LogLevel  string        `mapstructure:"log_level"`
	LogFormat string        `mapstructure:"log_format"`
	Geoid     GeoidConfig   `mapstructure:"geoid"`
	Extract   ExtractConfig `mapstructure:"extract"`
}

// GeoidConfig controls where the EGM96 grid comes from and how lookups are cached
type GeoidConfig struct {
	DataURL         string        `mapstructure:"data_url"`
	CacheDir        string        `mapstructure:"cache_dir"`
	CacheSize       int           `mapstructure:"cache_size"`
	DownloadTimeout time.Duration `mapstructure:"download_timeout"`
	MaxRetries      int           `mapstructure:"max_retries"`
	RetryBackoff    time.Duration `mapstructure:"retry_backoff"`
	S3              S3Config      `mapstructure:"s3"`
}

// S3Config represents the S3 connection used for s3:// grid sources
type S3Config struct {
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

// ExtractConfig represents batch EXIF extraction options
type ExtractConfig struct {
	Concurrency int    `mapstructure:"concurrency"`
	Timezone    string `mapstructure:"timezone"`
}

// New creates a new configuration with default values
func New() *Config {
	return &Config{
		LogLevel:  "info",
		LogFormat: "text",
		Geoid: GeoidConfig{
			DataURL:         geoid.DefaultDataURL,
			CacheDir:        DefaultCacheDir(),
			CacheSize:       1000,
			DownloadTimeout: 5 * time.Minute,
			MaxRetries:      0,
			RetryBackoff:    time.Second,
			S3: S3Config{
				Region: "us-east-1",
				UseSSL: true,
			},
		},
		Extract: ExtractConfig{
			Concurrency: 4,
			Timezone:    "UTC",
		},
	}
}

// DefaultCacheDir returns the per-user hidden cache directory for grid data
func DefaultCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".cache", "geokit", "geoid")
	}
	return filepath.Join(home, ".cache", "geokit", "geoid")
}

// Load reads configuration from an optional file, a .env file and GEOKIT_* environment variables
func Load(configFile string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	defaults := New()
	v := viper.New()

	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("log_format", defaults.LogFormat)
	v.SetDefault("geoid.data_url", defaults.Geoid.DataURL)
	v.SetDefault("geoid.cache_dir", defaults.Geoid.CacheDir)
	v.SetDefault("geoid.cache_size", defaults.Geoid.CacheSize)
	v.SetDefault("geoid.download_timeout", defaults.Geoid.DownloadTimeout)
	v.SetDefault("geoid.max_retries", defaults.Geoid.MaxRetries)
	v.SetDefault("geoid.retry_backoff", defaults.Geoid.RetryBackoff)
	v.SetDefault("geoid.s3.endpoint", defaults.Geoid.S3.Endpoint)
	v.SetDefault("geoid.s3.region", defaults.Geoid.S3.Region)
	v.SetDefault("geoid.s3.access_key", "")
	v.SetDefault("geoid.s3.secret_key", "")
	v.SetDefault("geoid.s3.use_ssl", defaults.Geoid.S3.UseSSL)
	v.SetDefault("extract.concurrency", defaults.Extract.Concurrency)
	v.SetDefault("extract.timezone", defaults.Extract.Timezone)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName("geokit")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		_ = v.ReadInConfig() // OK if missing
	}

	// GEOKIT_GEOID_DATA_URL -> geoid.data_url
	v.SetEnvPrefix("GEOKIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that configuration values are usable
func (c *Config) Validate() error {
	var errs []string

	if c.Geoid.DataURL == "" {
		errs = append(errs, "geoid.data_url is required")
	}
	if c.Geoid.CacheDir == "" {
		errs = append(errs, "geoid.cache_dir is required")
	}
	if c.Geoid.CacheSize <= 0 {
		errs = append(errs, fmt.Sprintf("geoid.cache_size must be positive, got %d", c.Geoid.CacheSize))
	}
	if c.Geoid.DownloadTimeout <= 0 {
		errs = append(errs, "geoid.download_timeout must be positive")
	}
	if c.Geoid.MaxRetries < 0 {
		errs = append(errs, fmt.Sprintf("geoid.max_retries must not be negative, got %d", c.Geoid.MaxRetries))
	}
	if strings.HasPrefix(c.Geoid.DataURL, "s3://") && c.Geoid.S3.Endpoint == "" {
		errs = append(errs, "geoid.s3.endpoint is required for s3:// data sources")
	}
	if c.Extract.Concurrency <= 0 {
		errs = append(errs, fmt.Sprintf("extract.concurrency must be positive, got %d", c.Extract.Concurrency))
	}
	if !c.ZoneFromGPS() {
		if _, err := time.LoadLocation(c.Extract.Timezone); err != nil {
			errs = append(errs, fmt.Sprintf("extract.timezone %q is invalid", c.Extract.Timezone))
		}
	}

	if len(errs) > 0 {
		return common.NewConfigError("validation failed:\n  - " + strings.Join(errs, "\n  - "))
	}
	return nil
}

// Location returns the timezone EXIF timestamps are interpreted in. With
// TimezoneAuto this is the fallback for photos without a GPS position.
func (c *Config) Location() *time.Location {
	if c.ZoneFromGPS() {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Extract.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ZoneFromGPS reports whether capture times follow the photo's position
func (c *Config) ZoneFromGPS() bool {
	return c.Extract.Timezone == TimezoneAuto
}
