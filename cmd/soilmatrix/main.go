package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/digital-idiot/SoilMatrix/internal/aoi"
	"github.com/digital-idiot/SoilMatrix/pkg/catalog"
	"github.com/digital-idiot/SoilMatrix/pkg/extract"
)

// Exit codes
const (
	ExitSuccess          = 0
	ExitGeneralError     = 1
	ExitInvalidArgs      = 2
	ExitNotFound         = 3
	ExitGeometryError    = 4
	ExitSourceError      = 5
	ExitStorageError     = 6
	ExitValidationFailed = 7
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return ExitInvalidArgs
	}

	command := args[0]
	cmdArgs := args[1:]

	switch command {
	case "fetch":
		return runFetch(cmdArgs)
	case "services":
		return runServices(cmdArgs)
	case "url":
		return runURL(cmdArgs)
	case "probe":
		return runProbe(cmdArgs)
	case "validate":
		return runValidate(cmdArgs)
	case "delete":
		return runDelete(cmdArgs)
	case "help", "-h", "--help":
		printUsage()
		return ExitSuccess
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		return ExitInvalidArgs
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `Usage: soilmatrix <command> [options]

Commands:
  fetch     Clip a SoilGrids coverage to an area of interest and write a raster
  services  List services, or the coverages of one service
  url       Print the source URL of a coverage
  probe     Show size, ETag and format of a coverage source
  validate  Verify a published raster against its manifest
  delete    Remove a published raster and its manifest

Run 'soilmatrix <command> -h' for command-specific help.`)
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			fmt.Fprintln(os.Stderr, "\n[soilmatrix] Received interrupt, shutting down...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

// exitCode maps an error to the exit code table.
func exitCode(err error) int {
	var ioErr *extract.IOError
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, catalog.ErrNotFound):
		return ExitNotFound
	case errors.Is(err, extract.ErrGeometry),
		errors.Is(err, aoi.ErrUnsupportedGeometry),
		errors.Is(err, aoi.ErrFormat):
		return ExitGeometryError
	case errors.Is(err, extract.ErrInvalidRequest):
		return ExitInvalidArgs
	case errors.As(err, &ioErr):
		return ExitSourceError
	default:
		return ExitGeneralError
	}
}
