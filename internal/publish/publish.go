package publish

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"hash"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"
)

// ErrNoObject is returned when the destination key is empty.
var ErrNoObject = errors.New("publish: no destination object")

// ManifestSuffix is appended to the object key to name its manifest.
const ManifestSuffix = ".manifest.json"

// Manifest describes a published raster.
type Manifest struct {
	RunID       string            `json:"run_id"`
	Object      string            `json:"object"`
	Size        int64             `json:"size"`
	Checksum    string            `json:"checksum,omitempty"`
	ContentType string            `json:"content_type"`
	Service     string            `json:"service,omitempty"`
	Coverage    string            `json:"coverage,omitempty"`
	SourceURL   string            `json:"source_url,omitempty"`
	Request     map[string]string `json:"request,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	StartedAt   time.Time         `json:"started_at"`
	CompletedAt time.Time         `json:"completed_at"`
}

// Options configures Upload.
type Options struct {
	RunID           string
	ContentType     string
	Service         string
	Coverage        string
	SourceURL       string
	Request         map[string]string
	Metadata        map[string]string
	ComputeChecksum bool // default: true
}

// Option is a functional option for configuring Upload.
type Option func(*Options)

// WithRunID sets the run id recorded in the manifest. A random UUID is used
// when unset.
func WithRunID(id string) Option {
	return func(o *Options) {
		o.RunID = id
	}
}

// WithContentType sets the content type of the object.
// Default: derived from the file extension.
func WithContentType(contentType string) Option {
	return func(o *Options) {
		o.ContentType = contentType
	}
}

// WithSource records the coverage the raster was extracted from.
func WithSource(service, coverage, url string) Option {
	return func(o *Options) {
		o.Service = service
		o.Coverage = coverage
		o.SourceURL = url
	}
}

// WithRequest records the request options of the run.
func WithRequest(request map[string]string) Option {
	return func(o *Options) {
		o.Request = request
	}
}

// WithMetadata sets caller-defined metadata stored with the object and in
// the manifest.
func WithMetadata(metadata map[string]string) Option {
	return func(o *Options) {
		o.Metadata = metadata
	}
}

// WithChecksum enables or disables SHA-256 computation during the upload.
func WithChecksum(compute bool) Option {
	return func(o *Options) {
		o.ComputeChecksum = compute
	}
}

// ManifestPath returns the key of the manifest of dest.
func ManifestPath(dest string) string {
	return dest + ManifestSuffix
}

// Upload copies the local file src to dest and writes its manifest.
func Upload(ctx context.Context, bucket *blob.Bucket, src, dest string, options ...Option) (*Manifest, error) {
	opts := Options{ComputeChecksum: true}
	for _, opt := range options {
		opt(&opts)
	}
	if dest == "" {
		return nil, ErrNoObject
	}
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}
	if opts.ContentType == "" {
		opts.ContentType = contentType(src)
	}

	manifest := &Manifest{
		RunID:       opts.RunID,
		Object:      dest,
		ContentType: opts.ContentType,
		Service:     opts.Service,
		Coverage:    opts.Coverage,
		SourceURL:   opts.SourceURL,
		Request:     opts.Request,
		Metadata:    opts.Metadata,
		StartedAt:   time.Now().UTC(),
	}

	f, err := os.Open(src)
	if err != nil {
		return nil, fmt.Errorf("publish: open %s: %w", src, err)
	}
	defer f.Close()

	size, checksum, err := writeObject(ctx, bucket, dest, f, opts)
	if err != nil {
		return nil, err
	}
	manifest.Size = size
	manifest.Checksum = checksum
	manifest.CompletedAt = time.Now().UTC()

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("publish: marshal manifest: %w", err)
	}
	if err := bucket.WriteAll(ctx, ManifestPath(dest), data, &blob.WriterOptions{
		ContentType: "application/json",
	}); err != nil {
		return nil, fmt.Errorf("publish: write manifest: %w", err)
	}

	return manifest, nil
}

// writeObject streams r to key. A failed copy cancels the writer so that
// nothing is committed, then removes any partial object.
func writeObject(ctx context.Context, bucket *blob.Bucket, key string, r io.Reader, opts Options) (int64, string, error) {
	wctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w, err := bucket.NewWriter(wctx, key, &blob.WriterOptions{
		ContentType: opts.ContentType,
		Metadata:    opts.Metadata,
	})
	if err != nil {
		return 0, "", fmt.Errorf("publish: create writer: %w", err)
	}

	var h hash.Hash
	dst := io.Writer(w)
	if opts.ComputeChecksum {
		h = sha256.New()
		dst = io.MultiWriter(w, h)
	}

	n, err := io.Copy(dst, r)
	if err != nil {
		cancel()
		w.Close()
		bucket.Delete(context.Background(), key) // best effort
		return 0, "", fmt.Errorf("publish: upload %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return 0, "", fmt.Errorf("publish: commit %s: %w", key, err)
	}

	var checksum string
	if h != nil {
		checksum = hex.EncodeToString(h.Sum(nil))
	}
	return n, checksum, nil
}

// ReadManifest reads the manifest of dest.
func ReadManifest(ctx context.Context, bucket *blob.Bucket, dest string) (*Manifest, error) {
	data, err := bucket.ReadAll(ctx, ManifestPath(dest))
	if err != nil {
		return nil, fmt.Errorf("publish: read manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("publish: unmarshal manifest: %w", err)
	}
	return &m, nil
}

// Delete removes a published object and its manifest. A missing object is
// not an error; a missing manifest is.
func Delete(ctx context.Context, bucket *blob.Bucket, dest string) error {
	if _, err := ReadManifest(ctx, bucket, dest); err != nil {
		return err
	}
	if err := bucket.Delete(ctx, dest); err != nil && !IsNotExist(err) {
		return fmt.Errorf("publish: delete %s: %w", dest, err)
	}
	if err := bucket.Delete(ctx, ManifestPath(dest)); err != nil {
		return fmt.Errorf("publish: delete manifest: %w", err)
	}
	return nil
}

func contentType(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".tif", ".tiff":
		return "image/tiff"
	case ".vrt", ".xml":
		return "application/xml"
	case ".nc":
		return "application/x-netcdf"
	default:
		return "application/octet-stream"
	}
}

// IsNotExist reports whether err means the object or its manifest does not exist.
func IsNotExist(err error) bool {
	return gcerrors.Code(err) == gcerrors.NotFound
}
