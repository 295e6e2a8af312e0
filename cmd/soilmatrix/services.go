package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/digital-idiot/SoilMatrix/pkg/catalog"
)

// runServices lists the registered services, or the coverages of the
// service named by the first argument.
func runServices(args []string) int {
	fs := flag.NewFlagSet("services", flag.ExitOnError)

	asJSON := fs.Bool("json", false, "Print JSON instead of a table")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: soilmatrix services [options] [service]

List the registered SoilGrids services. With a service id, list its
coverages instead.

Options:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return ExitInvalidArgs
	}

	var err error
	switch fs.NArg() {
	case 0:
		err = listServices(os.Stdout, catalog.Default, *asJSON)
	case 1:
		err = listCoverages(os.Stdout, catalog.Default, fs.Arg(0), *asJSON)
	default:
		fs.Usage()
		return ExitInvalidArgs
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, catalog.ErrNotFound) {
			return ExitNotFound
		}
		return ExitGeneralError
	}
	return ExitSuccess
}

type serviceJSON struct {
	ID               string   `json:"id"`
	Description      string   `json:"description"`
	Category         string   `json:"category"`
	SourceUnit       string   `json:"source_unit,omitempty"`
	TargetUnit       string   `json:"target_unit,omitempty"`
	ConversionFactor float64  `json:"conversion_factor,omitempty"`
	Coverages        []string `json:"coverages"`
}

func listServices(w io.Writer, cat *catalog.Catalog, asJSON bool) error {
	var services []catalog.Service
	for _, id := range cat.Services() {
		svc, err := cat.Service(id)
		if err != nil {
			return err
		}
		services = append(services, svc)
	}

	if asJSON {
		out := make([]serviceJSON, len(services))
		for i, svc := range services {
			out[i] = serviceJSON{
				ID:               svc.ID,
				Description:      svc.Description,
				Category:         svc.Category.String(),
				SourceUnit:       svc.SourceUnit,
				TargetUnit:       svc.TargetUnit,
				ConversionFactor: svc.ConversionFactor,
				Coverages:        svc.Coverages,
			}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SERVICE\tCATEGORY\tUNIT\tCONVERTED\tCOVERAGES\tDESCRIPTION")
	for _, svc := range services {
		converted := "-"
		if svc.Convertible() {
			converted = fmt.Sprintf("%s (/%s)", svc.TargetUnit, strconv.FormatFloat(svc.ConversionFactor, 'g', -1, 64))
		}
		unit := svc.SourceUnit
		if unit == "" {
			unit = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n",
			svc.ID, svc.Category, unit, converted, len(svc.Coverages), svc.Description)
	}
	return tw.Flush()
}

func listCoverages(w io.Writer, cat *catalog.Catalog, service string, asJSON bool) error {
	coverages, err := cat.Coverages(service)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(coverages)
	}
	for _, c := range coverages {
		fmt.Fprintln(w, c)
	}
	return nil
}

// runURL prints the source URL of a coverage.
func runURL(args []string) int {
	fs := flag.NewFlagSet("url", flag.ExitOnError)

	baseURL := fs.String("base-url", catalog.DefaultBaseURL, "SoilGrids data root")
	service := fs.String("service", "", "Service id (required)")
	coverage := fs.String("coverage", "", "Coverage id (required)")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: soilmatrix url [options]

Print the source URL of a coverage.

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
	fmt.Println(url)
	return ExitSuccess
}
