// Package publish copies extraction results to object storage.
//
// A published raster is stored under its object key next to a JSON
// manifest describing the run that produced it:
//
//	{bucket}/{dest}
//	{bucket}/{dest}.manifest.json
//
// The manifest records a run id, the service and coverage, the source URL,
// the request options, the object size and its SHA-256 checksum. It is
// written only after the raster upload has been committed, so a manifest
// always refers to a complete object.
//
// Storage is accessed through gocloud.dev/blob, so any bucket URL it
// understands (s3://, gs://, file://, mem://) works.
//
// # Usage
//
//	bucket, err := blob.OpenBucket(ctx, "s3://results?region=eu-west-1")
//	manifest, err := publish.Upload(ctx, bucket, "phh2o.tif", "runs/phh2o.tif",
//	    publish.WithSource("phh2o", "0-5cm_mean", url),
//	    publish.WithRequest(map[string]string{"convert": "true"}),
//	)
//
//	result, err := publish.Validate(ctx, bucket, "runs/phh2o.tif", true)
//	// result.Valid, result.Errors
package publish
