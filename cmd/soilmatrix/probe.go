package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	soilhttp "github.com/digital-idiot/SoilMatrix/internal/http"
	"github.com/digital-idiot/SoilMatrix/internal/progress"
	"github.com/digital-idiot/SoilMatrix/pkg/catalog"
)

// runProbe resolves a coverage and reports what its source serves, without
// reading any pixels.
func runProbe(args []string) int {
	fs := flag.NewFlagSet("probe", flag.ExitOnError)

	baseURL := fs.String("base-url", catalog.DefaultBaseURL, "SoilGrids data root")
	service := fs.String("service", "", "Service id (required)")
	coverage := fs.String("coverage", "", "Coverage id (required)")
	timeout := fs.Duration("timeout", 30*time.Second, "Request timeout")
	retryAttempts := fs.Int("retry-attempts", 3, "Max retry attempts")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: soilmatrix probe [options]

Show the size, ETag, last modification time and container format of a
coverage source.

Options:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return ExitInvalidArgs
	}

	if *service == "" || *coverage == "" {
		fmt.Fprintln(os.Stderr, "Error: -service and -coverage are required")
		fs.Usage()
		return ExitInvalidArgs
	}

	url, err := catalog.New(catalog.WithBaseURL(*baseURL)).SourceURL(*service, *coverage)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitNotFound
	}

	ctx, cancel := signalContext()
	defer cancel()

	opts := soilhttp.DefaultOptions()
	opts.Timeout = *timeout
	opts.RetryAttempts = *retryAttempts
	client := soilhttp.NewClient(opts)

	info, err := client.Head(ctx, url)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error accessing source URL: %v\n", err)
		if errors.Is(err, soilhttp.ErrNotFound) {
			return ExitNotFound
		}
		return ExitSourceError
	}

	fmt.Printf("URL: %s\n", url)
	fmt.Printf("Size: %s (%d bytes)\n", progress.FormatBytes(info.Size), info.Size)
	if info.ETag != "" {
		fmt.Printf("ETag: %s\n", info.ETag)
	}
	if !info.LastModified.IsZero() {
		fmt.Printf("Last modified: %s\n", info.LastModified.Format(time.RFC3339))
	}
	if info.ContentType != "" {
		fmt.Printf("Content type: %s\n", info.ContentType)
	}
	fmt.Printf("Range requests: %t\n", info.AcceptsRanges)

	if !info.AcceptsRanges {
		// GDAL cannot stream the source without range support.
		fmt.Fprintln(os.Stderr, "[soilmatrix] Warning: server does not advertise range requests")
		return ExitSuccess
	}

	format, _, err := client.Sniff(ctx, url)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading source header: %v\n", err)
		return ExitSourceError
	}
	fmt.Printf("Format: %s\n", format)
	return ExitSuccess
}
