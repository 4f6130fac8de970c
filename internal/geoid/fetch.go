package geoid

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/bstardust/geokit/internal/logger"
)

// Fetcher copies the resource at rawURL into w and returns the byte count
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string, w io.Writer) (int64, error)
}

// HTTPFetcher downloads http:// and https:// sources
type HTTPFetcher struct {
	Client *http.Client
}

// Fetch performs a GET and streams the body into w
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string, w io.Writer) (int64, error) {
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "geokit")

	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, &StatusError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("failed to read response body: %w", err)
	}
	return n, nil
}

// FileFetcher copies file:// sources; useful for mirrors on shared storage
type FileFetcher struct{}

// Fetch copies the local file named by rawURL into w
func (FileFetcher) Fetch(ctx context.Context, rawURL string, w io.Writer) (int64, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return 0, fmt.Errorf("invalid file URL: %w", err)
	}

	src, err := os.Open(u.Path)
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", u.Path, err)
	}
	defer src.Close()

	n, err := io.Copy(w, src)
	if err != nil {
		return n, fmt.Errorf("failed to copy %s: %w", u.Path, err)
	}
	return n, nil
}

// S3Config holds connection settings for s3:// sources
type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// S3Fetcher downloads s3://bucket/key sources from any S3-compatible store
type S3Fetcher struct {
	config S3Config

	once   sync.Once
	client *minio.Client
	err    error
}

// NewS3Fetcher creates a fetcher; the client is built on first use
func NewS3Fetcher(cfg S3Config) *S3Fetcher {
	return &S3Fetcher{config: cfg}
}

func (f *S3Fetcher) minioClient() (*minio.Client, error) {
	f.once.Do(func() {
		if f.config.Endpoint == "" {
			f.err = fmt.Errorf("S3 endpoint is required for s3:// data sources")
			return
		}

		endpoint := strings.TrimPrefix(f.config.Endpoint, "https://")
		endpoint = strings.TrimPrefix(endpoint, "http://")

		f.client, f.err = minio.New(endpoint, &minio.Options{
			Creds:        credentials.NewStaticV4(f.config.AccessKey, f.config.SecretKey, ""),
			Secure:       f.config.UseSSL,
			Region:       f.config.Region,
			BucketLookup: minio.BucketLookupAuto,
		})
		if f.err != nil {
			f.err = fmt.Errorf("failed to create S3 client: %w", f.err)
			return
		}
		logger.Debug("Created S3 client for endpoint %s", endpoint)
	})
	return f.client, f.err
}

// Fetch streams the object into w
func (f *S3Fetcher) Fetch(ctx context.Context, rawURL string, w io.Writer) (int64, error) {
	bucket, key, err := parseS3URL(rawURL)
	if err != nil {
		return 0, err
	}

	client, err := f.minioClient()
	if err != nil {
		return 0, err
	}

	obj, err := client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return 0, fmt.Errorf("failed to get object: %w", err)
	}
	defer obj.Close()

	n, err := io.Copy(w, obj)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return n, fmt.Errorf("object s3://%s/%s does not exist: %w", bucket, key, err)
		}
		return n, fmt.Errorf("failed to read object: %w", err)
	}
	return n, nil
}

func parseS3URL(rawURL string) (bucket, key string, err error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", fmt.Errorf("invalid S3 URL: %w", err)
	}
	bucket = u.Host
	key = strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("invalid S3 URL %q: expected s3://bucket/key", rawURL)
	}
	return bucket, key, nil
}

// SchemeFetcher routes a URL to the fetcher registered for its scheme
type SchemeFetcher map[string]Fetcher

// NewSchemeFetcher registers http, https and file; s3 is added when s3cfg is non-nil
func NewSchemeFetcher(client *http.Client, s3cfg *S3Config) SchemeFetcher {
	h := &HTTPFetcher{Client: client}
	sf := SchemeFetcher{
		"http":  h,
		"https": h,
		"file":  FileFetcher{},
	}
	if s3cfg != nil {
		sf["s3"] = NewS3Fetcher(*s3cfg)
	}
	return sf
}

// Fetch dispatches on the URL scheme
func (sf SchemeFetcher) Fetch(ctx context.Context, rawURL string, w io.Writer) (int64, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return 0, fmt.Errorf("invalid data source URL: %w", err)
	}
	f, ok := sf[strings.ToLower(u.Scheme)]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
	return f.Fetch(ctx, rawURL, w)
}
