//go:build integration

// Package testutils provides shared test infrastructure for integration tests.
package testutils

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/airbusgeo/godal"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"gocloud.dev/blob"
)

// Raster describes a single band test raster in EPSG:4326.
type Raster struct {
	Width  int
	Height int

	// Origin is the world position of the top-left corner of pixel (0,0).
	// Pixels are one degree wide.
	OriginX float64
	OriginY float64

	DataType godal.DataType
	NoData   *float64

	// Value returns the sample at (row, col).
	Value func(row, col int) float64
}

// WriteGeoTIFF writes r to path, creating parent directories.
func WriteGeoTIFF(t *testing.T, path string, r Raster) {
	t.Helper()

	godal.RegisterAll()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("create dir: %v", err)
	}

	ds, err := godal.Create(godal.GTiff, path, 1, r.DataType, r.Width, r.Height)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer func() {
		if err := ds.Close(); err != nil {
			t.Fatalf("close %s: %v", path, err)
		}
	}()

	if err := ds.SetGeoTransform([6]float64{r.OriginX, 1, 0, r.OriginY, 0, -1}); err != nil {
		t.Fatalf("set geotransform: %v", err)
	}
	sr, err := godal.NewSpatialRefFromEPSG(4326)
	if err != nil {
		t.Fatalf("spatial ref: %v", err)
	}
	defer sr.Close()
	if err := ds.SetSpatialRef(sr); err != nil {
		t.Fatalf("set spatial ref: %v", err)
	}

	band := ds.Bands()[0]
	if r.NoData != nil {
		if err := band.SetNoData(*r.NoData); err != nil {
			t.Fatalf("set nodata: %v", err)
		}
	}

	data := make([]float64, r.Width*r.Height)
	for row := 0; row < r.Height; row++ {
		for col := 0; col < r.Width; col++ {
			data[row*r.Width+col] = r.Value(row, col)
		}
	}
	if err := band.Write(0, 0, data, r.Width, r.Height); err != nil {
		t.Fatalf("write band: %v", err)
	}
}

// ReadBand reads band 1 of the raster at path along with its description.
func ReadBand(t *testing.T, path string) (data []float64, width, height int, desc string) {
	t.Helper()

	godal.RegisterAll()
	ds, err := godal.Open(path, godal.RasterOnly())
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer ds.Close()

	st := ds.Structure()
	band := ds.Bands()[0]
	data = make([]float64, st.SizeX*st.SizeY)
	if err := band.Read(0, 0, data, st.SizeX, st.SizeY); err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return data, st.SizeX, st.SizeY, band.Description()
}

// FileServer serves files from a directory with range request support and
// counts the requests it receives.
type FileServer struct {
	*httptest.Server
	Requests atomic.Int64
}

// StartFileServer serves dir over HTTP. http.FileServer answers Range
// requests, which /vsicurl/ relies on.
func StartFileServer(t *testing.T, dir string) *FileServer {
	t.Helper()

	fs := &FileServer{}
	files := http.FileServer(http.Dir(dir))
	fs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fs.Requests.Add(1)
		files.ServeHTTP(w, r)
	}))
	t.Cleanup(fs.Close)
	return fs
}

// MinioEnv contains connection information for a Minio test environment.
type MinioEnv struct {
	Container testcontainers.Container
	BucketURL string
	Endpoint  string
	AccessKey string
	SecretKey string
}

// Close terminates the Minio container.
func (e *MinioEnv) Close(ctx context.Context) error {
	if e.Container != nil {
		return e.Container.Terminate(ctx)
	}
	return nil
}

// OpenBucket opens a gocloud bucket connection to the Minio environment.
func (e *MinioEnv) OpenBucket(ctx context.Context) (*blob.Bucket, error) {
	return blob.OpenBucket(ctx, e.BucketURL)
}

// ObjectURL returns the bucket URL of key, keeping the connection
// parameters of the bucket.
func (e *MinioEnv) ObjectURL(key string) string {
	base, query, _ := strings.Cut(e.BucketURL, "?")
	return base + "/" + key + "?" + query
}

// StartMinioContainer starts a Minio container with a pre-created bucket.
// Returns a MinioEnv with connection information.
func StartMinioContainer(t *testing.T, ctx context.Context, bucketName string) *MinioEnv {
	t.Helper()

	const (
		accessKey = "minioadmin"
		secretKey = "minioadmin"
	)

	// Create a network for minio and mc to communicate
	networkName := "minio-test-net-" + strconv.FormatInt(time.Now().UnixNano(), 10)
	network, err := testcontainers.GenericNetwork(ctx, testcontainers.GenericNetworkRequest{
		NetworkRequest: testcontainers.NetworkRequest{
			Name: networkName,
		},
	})
	if err != nil {
		t.Fatalf("create network: %v", err)
	}
	t.Cleanup(func() { network.Remove(ctx) })

	minioReq := testcontainers.ContainerRequest{
		Image:        "minio/minio:latest",
		ExposedPorts: []string{"9000/tcp"},
		Networks:     []string{networkName},
		NetworkAliases: map[string][]string{
			networkName: {"minio"},
		},
		Env: map[string]string{
			"MINIO_ROOT_USER":     accessKey,
			"MINIO_ROOT_PASSWORD": secretKey,
		},
		Cmd:        []string{"server", "/data"},
		WaitingFor: wait.ForHTTP("/minio/health/ready").WithPort("9000"),
	}

	minioContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: minioReq,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("start minio container: %v", err)
	}

	createBucketWithMC(t, ctx, networkName, accessKey, secretKey, bucketName)

	host, err := minioContainer.Host(ctx)
	if err != nil {
		t.Fatalf("get container host: %v", err)
	}
	port, err := minioContainer.MappedPort(ctx, "9000")
	if err != nil {
		t.Fatalf("get container port: %v", err)
	}
	endpoint := fmt.Sprintf("%s:%s", host, port.Port())

	// gocloud S3 URL with query parameters for minio
	bucketURL := fmt.Sprintf("s3://%s?endpoint=http://%s&use_path_style=true&disable_https=true&region=us-east-1",
		bucketName,
		endpoint,
	)

	// gocloud reads credentials from the environment
	t.Setenv("AWS_ACCESS_KEY_ID", accessKey)
	t.Setenv("AWS_SECRET_ACCESS_KEY", secretKey)

	return &MinioEnv{
		Container: minioContainer,
		BucketURL: bucketURL,
		Endpoint:  endpoint,
		AccessKey: accessKey,
		SecretKey: secretKey,
	}
}

// createBucketWithMC creates a bucket using a separate minio/mc container.
func createBucketWithMC(t *testing.T, ctx context.Context, networkName, accessKey, secretKey, bucketName string) {
	t.Helper()

	mcReq := testcontainers.ContainerRequest{
		Image:      "minio/mc:latest",
		Networks:   []string{networkName},
		Entrypoint: []string{"/bin/sh", "-c"},
		Cmd: []string{
			fmt.Sprintf(
				"/usr/bin/mc config host add myminio http://minio:9000 %s %s && "+
					"/usr/bin/mc mb myminio/%s; "+
					"exit 0",
				accessKey, secretKey, bucketName,
			),
		},
		WaitingFor: wait.ForExit(),
	}

	mcContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: mcReq,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("start mc container: %v", err)
	}
	defer mcContainer.Terminate(ctx)
}
