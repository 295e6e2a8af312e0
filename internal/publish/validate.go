package publish

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"gocloud.dev/blob"
)

// ValidationResult contains the results of validating a published raster.
type ValidationResult struct {
	Valid    bool     // true if the object exists and matches the manifest
	Size     int64    // size from the manifest
	Missing  bool     // the object does not exist
	Errors   []string // detailed error messages
	Manifest *Manifest
}

// Validate checks that the object described by the manifest of dest exists
// with the recorded size. With verifyChecksum the object is downloaded and
// its SHA-256 compared with the manifest.
//
// Returns an error if the manifest cannot be read or the store cannot be
// reached. A missing object or a mismatch is reported in the result with
// Valid=false.
func Validate(ctx context.Context, bucket *blob.Bucket, dest string, verifyChecksum bool) (*ValidationResult, error) {
	manifest, err := ReadManifest(ctx, bucket, dest)
	if err != nil {
		return nil, err
	}

	result := &ValidationResult{
		Valid:    true,
		Size:     manifest.Size,
		Errors:   make([]string, 0),
		Manifest: manifest,
	}

	attrs, err := bucket.Attributes(ctx, manifest.Object)
	if err != nil {
		if IsNotExist(err) {
			result.Valid = false
			result.Missing = true
			result.Errors = append(result.Errors, fmt.Sprintf("object missing: %s", manifest.Object))
			return result, nil
		}
		return nil, fmt.Errorf("publish: check object: %w", err)
	}

	if attrs.Size != manifest.Size {
		result.Valid = false
		result.Errors = append(result.Errors,
			fmt.Sprintf("size mismatch: expected %d, got %d", manifest.Size, attrs.Size))
		return result, nil
	}

	if !verifyChecksum || manifest.Checksum == "" {
		return result, nil
	}

	r, err := bucket.NewReader(ctx, manifest.Object, nil)
	if err != nil {
		return nil, fmt.Errorf("publish: open object: %w", err)
	}
	defer r.Close()

	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return nil, fmt.Errorf("publish: read object: %w", err)
	}
	if sum := hex.EncodeToString(h.Sum(nil)); sum != manifest.Checksum {
		result.Valid = false
		result.Errors = append(result.Errors,
			fmt.Sprintf("checksum mismatch: expected %s, got %s", manifest.Checksum, sum))
	}
	return result, nil
}
