package main

import (
	"flag"
	"fmt"
	"os"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/s3blob"

	"github.com/digital-idiot/SoilMatrix/internal/publish"
)

// runValidate checks that a published raster exists and matches its
// manifest.
func runValidate(args []string) int {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)

	bucket := fs.String("bucket", "", "Bucket URL (required)")
	object := fs.String("object", "", "Object path (required)")
	checksum := fs.Bool("checksum", false, "Download the object and verify its SHA-256")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: soilmatrix validate [options]

Verify that a published raster exists with the size recorded in its
manifest. With -checksum the object is downloaded and hashed.

Options:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return ExitInvalidArgs
	}

	if *bucket == "" || *object == "" {
		fmt.Fprintln(os.Stderr, "Error: -bucket and -object are required")
		fs.Usage()
		return ExitInvalidArgs
	}

	ctx, cancel := signalContext()
	defer cancel()

	bkt, err := blob.OpenBucket(ctx, *bucket)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening bucket: %v\n", err)
		return ExitStorageError
	}
	defer bkt.Close()

	result, err := publish.Validate(ctx, bkt, *object, *checksum)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if publish.IsNotExist(err) {
			return ExitNotFound
		}
		return ExitStorageError
	}

	m := result.Manifest
	fmt.Printf("File: %s\n", *object)
	fmt.Printf("Run: %s\n", m.RunID)
	if m.Service != "" {
		fmt.Printf("Coverage: %s/%s\n", m.Service, m.Coverage)
	}
	fmt.Printf("Size: %d bytes\n", result.Size)

	if result.Valid {
		fmt.Println("Status: VALID")
		return ExitSuccess
	}

	fmt.Println("Status: INVALID")
	if len(result.Errors) > 0 {
		fmt.Println("\nErrors:")
		for _, e := range result.Errors {
			fmt.Printf("  - %s\n", e)
		}
	}
	return ExitValidationFailed
}
