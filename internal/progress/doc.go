// Package progress provides progress reporting for coverage extractions.
//
// This package outputs human-readable progress information to stderr,
// including completion percentage, tile counts, and ETA. A [Reporter]
// implements extract.ProgressReporter; every task it hears about ends
// with either a completion or an abort line.
//
// # Usage
//
//	reporter := progress.NewReporter(progress.Options{
//	    Output:    os.Stderr,
//	    Transient: false,
//	})
//
//	reporter.Start()
//	defer reporter.Stop()
//
//	err := extract.Extract(ctx, req, extract.Options{Progress: reporter, ...})
//
// # Output Format
//
//	[soilmatrix] Extracting: phh2o_0-5cm_mean
//	[soilmatrix] phh2o_0-5cm_mean: 42.0% | 21/50 tiles | ETA: 3s
//	[soilmatrix] phh2o_0-5cm_mean: 100.0% | 50/50 tiles | Complete! (7s)
package progress
