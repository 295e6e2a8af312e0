// Package http provides the HTTP client used outside the raster pipeline:
// probing coverage URLs and downloading area of interest documents.
//
// This package handles:
//   - HEAD requests to get coverage metadata
//   - Range requests to sniff the container format
//   - Size-limited downloads of small documents
//   - Retry with exponential backoff on transport and 5xx failures
//
// Raster reads themselves go through GDAL, which has its own HTTP stack.
//
// # Usage
//
//	client := http.NewClient(http.DefaultOptions())
//
//	info, err := client.Head(ctx, url)
//	// info.Size, info.ETag, info.LastModified
//
//	format, head, err := client.Sniff(ctx, url)
//	// format == http.FormatVRT, head.Total
//
//	data, err := client.Fetch(ctx, aoiURL, 64<<20)
package http
