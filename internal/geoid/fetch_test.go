package geoid

import (
	"bytes"
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseS3URL(t *testing.T) {
	bucket, key, err := parseS3URL("s3://grids/egm96/WW15MGH.zip")
	require.NoError(t, err)
	assert.Equal(t, "grids", bucket)
	assert.Equal(t, "egm96/WW15MGH.zip", key)

	for _, bad := range []string{"s3://grids", "s3:///key", "s3://grids/"} {
		_, _, err := parseS3URL(bad)
		assert.Error(t, err, bad)
	}
}

func TestS3FetcherRequiresEndpoint(t *testing.T) {
	f := NewS3Fetcher(S3Config{})
	_, err := f.Fetch(context.Background(), "s3://grids/egm96.zip", &bytes.Buffer{})
	assert.ErrorContains(t, err, "endpoint is required")
}

func TestHTTPFetcher(t *testing.T) {
	srv := newGridServer(t, []byte("payload"))

	var buf bytes.Buffer
	n, err := (&HTTPFetcher{}).Fetch(context.Background(), srv.URL, &buf)
	require.NoError(t, err)
	assert.EqualValues(t, 7, n)
	assert.Equal(t, "payload", buf.String())

	srv.set(http.StatusNotFound, nil)
	_, err = (&HTTPFetcher{}).Fetch(context.Background(), srv.URL, &buf)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
}

func TestHTTPFetcherTimeout(t *testing.T) {
	srv := newGridServer(t, []byte("slow"))
	srv.setDelay(200 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := (&HTTPFetcher{}).Fetch(ctx, srv.URL, &bytes.Buffer{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSchemeFetcher(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grid.grd")
	require.NoError(t, os.WriteFile(path, []byte("grid bytes"), 0o644))

	sf := NewSchemeFetcher(nil, nil)
	var buf bytes.Buffer
	_, err := sf.Fetch(context.Background(), "FILE://"+path, &buf)
	require.NoError(t, err)
	assert.Equal(t, "grid bytes", buf.String())

	_, err = sf.Fetch(context.Background(), "s3://grids/egm96.zip", &buf)
	assert.ErrorIs(t, err, ErrUnsupportedScheme)

	withS3 := NewSchemeFetcher(nil, &S3Config{Endpoint: "localhost:9000"})
	assert.Contains(t, withS3, "s3")
}

// Integration tests require a running S3-compatible server, e.g.
// docker run -p 9000:9000 minio/minio server /data
func TestIntegrationS3Source(t *testing.T) {
	if os.Getenv("GEOKIT_INTEGRATION") != "true" {
		t.Skip("Skipping integration test. Set GEOKIT_INTEGRATION=true to run")
	}

	cfg := S3Config{
		Endpoint:  getEnvOrDefault("TEST_S3_ENDPOINT", "localhost:9000"),
		Region:    getEnvOrDefault("TEST_S3_REGION", "us-east-1"),
		AccessKey: getEnvOrDefault("TEST_S3_ACCESS_KEY", "minioadmin"),
		SecretKey: getEnvOrDefault("TEST_S3_SECRET_KEY", "minioadmin"),
		UseSSL:    os.Getenv("TEST_S3_USE_SSL") == "true",
	}
	bucket := getEnvOrDefault("TEST_S3_BUCKET", "geokit-test")

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	require.NoError(t, err)

	exists, err := client.BucketExists(ctx, bucket)
	require.NoError(t, err)
	if !exists {
		require.NoError(t, client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: cfg.Region}))
	}

	archive := zipArchive(t, member{"WW15MGH.GRD", coarseGrid()})
	key := "integration/egm96-" + time.Now().Format("20060102150405") + ".zip"
	_, err = client.PutObject(ctx, bucket, key, bytes.NewReader(archive), int64(len(archive)),
		minio.PutObjectOptions{ContentType: "application/zip"})
	require.NoError(t, err)
	defer client.RemoveObject(context.Background(), bucket, key, minio.RemoveObjectOptions{})

	p := NewProvider(Options{
		DataURL:  "s3://" + bucket + "/" + key,
		CacheDir: t.TempDir(),
		Fetcher:  NewSchemeFetcher(nil, &cfg),
	})
	n, err := p.Undulation(ctx, 12.5, 45)
	require.NoError(t, err)
	assert.InDelta(t, surface(12.5, 45), n, 1e-6)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
