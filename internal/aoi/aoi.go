package aoi

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"strings"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/memblob"

	soilhttp "github.com/digital-idiot/SoilMatrix/internal/http"
	"github.com/digital-idiot/SoilMatrix/pkg/extract"
)

// DefaultMaxSize bounds the size of an area of interest document.
const DefaultMaxSize = 64 << 20

var (
	// ErrUnsupportedGeometry is returned for geometries without area.
	ErrUnsupportedGeometry = errors.New("aoi: unsupported geometry")

	// ErrFormat is returned when a document is neither GeoJSON, WKT nor WKB.
	ErrFormat = errors.New("aoi: unrecognised format")

	// ErrTooLarge is returned when a document exceeds Options.MaxSize.
	ErrTooLarge = errors.New("aoi: document too large")
)

// Options configures Load.
type Options struct {
	// CRS overrides the CRS declared by the document.
	CRS string

	// MaxSize bounds the document size in bytes.
	// Default: DefaultMaxSize
	MaxSize int64

	// HTTP fetches http(s) sources. Default: a client with default options
	HTTP *soilhttp.Client

	// OpenBucket opens bucket sources. Default: blob.OpenBucket
	OpenBucket func(ctx context.Context, urlstr string) (*blob.Bucket, error)
}

func (o Options) withDefaults() Options {
	if o.MaxSize <= 0 {
		o.MaxSize = DefaultMaxSize
	}
	if o.HTTP == nil {
		o.HTTP = soilhttp.NewClient(soilhttp.DefaultOptions())
	}
	if o.OpenBucket == nil {
		o.OpenBucket = blob.OpenBucket
	}
	return o
}

// Load reads and parses the area of interest at src.
func Load(ctx context.Context, src string, opts Options) (extract.AOI, error) {
	opts = opts.withDefaults()

	data, err := Read(ctx, src, opts)
	if err != nil {
		return extract.AOI{}, err
	}

	area, err := Parse(data)
	if err != nil {
		return extract.AOI{}, fmt.Errorf("parse %s: %w", src, err)
	}
	if opts.CRS != "" {
		area.CRS = opts.CRS
	}
	return area, nil
}

// Read returns the raw document at src.
func Read(ctx context.Context, src string, opts Options) ([]byte, error) {
	opts = opts.withDefaults()

	u, err := url.Parse(src)
	if err != nil || len(u.Scheme) < 2 {
		// Plain path, including Windows drive letters.
		return readFile(src, opts.MaxSize)
	}

	switch u.Scheme {
	case "http", "https":
		data, err := opts.HTTP.Fetch(ctx, src, opts.MaxSize)
		if errors.Is(err, soilhttp.ErrTooLarge) {
			return nil, fmt.Errorf("%w: %s", ErrTooLarge, src)
		}
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", src, err)
		}
		return data, nil
	default:
		return readBlob(ctx, src, opts)
	}
}

func readFile(name string, maxSize int64) ([]byte, error) {
	fi, err := os.Stat(name)
	if err != nil {
		return nil, fmt.Errorf("read area of interest: %w", err)
	}
	if fi.Size() > maxSize {
		return nil, fmt.Errorf("%w: %s is %d bytes", ErrTooLarge, name, fi.Size())
	}
	return os.ReadFile(name)
}

func readBlob(ctx context.Context, src string, opts Options) ([]byte, error) {
	bucketURL, key, err := SplitBucketURL(src)
	if err != nil {
		return nil, err
	}

	bucket, err := opts.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, fmt.Errorf("open bucket %s: %w", bucketURL, err)
	}
	defer bucket.Close()

	attrs, err := bucket.Attributes(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", src, err)
	}
	if attrs.Size > opts.MaxSize {
		return nil, fmt.Errorf("%w: %s is %d bytes", ErrTooLarge, src, attrs.Size)
	}

	data, err := bucket.ReadAll(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", src, err)
	}
	return data, nil
}

// SplitBucketURL splits an object URL into the bucket URL understood by
// blob.OpenBucket and the object key. For file:// URLs the bucket is the
// parent directory; for every other scheme it is the host. Query parameters
// stay with the bucket.
func SplitBucketURL(src string) (bucketURL, key string, err error) {
	u, err := url.Parse(src)
	if err != nil {
		return "", "", fmt.Errorf("parse object url: %w", err)
	}

	if u.Scheme == "file" {
		dir, file := path.Split(u.Path)
		if file == "" {
			return "", "", fmt.Errorf("object url %q has no key", src)
		}
		u.Path = strings.TrimSuffix(dir, "/")
		if u.Path == "" {
			u.Path = "/"
		}
		return u.String(), file, nil
	}

	key = strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return "", "", fmt.Errorf("object url %q needs a bucket and a key", src)
	}
	u.Path = ""
	u.RawPath = ""
	return u.String(), key, nil
}
