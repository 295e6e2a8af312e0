package catalog

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// DefaultBaseURL is the root of the public SoilGrids file service.
const DefaultBaseURL = "https://files.isric.org/soilgrids/latest/data"

// File extensions used when building source URLs.
const (
	VirtualExt = "vrt"
	RasterExt  = "tif"
)

// ErrNotFound is returned when a service or coverage is not registered.
var ErrNotFound = errors.New("catalog: not found")

// NotFoundError describes the identifier that failed a lookup.
// It matches ErrNotFound with errors.Is.
type NotFoundError struct {
	Service  string
	Coverage string // empty when the service itself is unknown
}

func (e *NotFoundError) Error() string {
	if e.Coverage == "" {
		return fmt.Sprintf("catalog: unknown service %q", e.Service)
	}
	return fmt.Sprintf("catalog: unknown coverage %q for service %q", e.Coverage, e.Service)
}

// Is reports whether target is ErrNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// Category selects the URL naming rule of a service.
type Category int

const (
	// Quantitative services hold multi-depth measurements.
	Quantitative Category = iota
	// Classification services hold one coverage per categorical land class.
	Classification
	// BooleanLayer services hold a single boolean raster.
	BooleanLayer
)

func (c Category) String() string {
	switch c {
	case Quantitative:
		return "quantitative"
	case Classification:
		return "classification"
	case BooleanLayer:
		return "boolean"
	default:
		return fmt.Sprintf("category(%d)", int(c))
	}
}

// Service describes one registered service.
//
// SourceUnit, TargetUnit and ConversionFactor are either all set or all zero.
type Service struct {
	ID               string
	Description      string
	Category         Category
	SourceUnit       string
	TargetUnit       string
	ConversionFactor float64
	Coverages        []string
}

// Convertible reports whether values of the service can be rescaled.
func (s Service) Convertible() bool {
	return s.ConversionFactor > 0
}

// Catalog answers lookups over the static service table.
type Catalog struct {
	baseURL  string
	services map[string]Service
	order    []string
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithBaseURL overrides the root URL used by SourceURL.
func WithBaseURL(url string) Option {
	return func(c *Catalog) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// Default is the catalog pointing at the public SoilGrids service.
var Default = New()

// New returns a catalog over the built-in service table.
func New(opts ...Option) *Catalog {
	c := &Catalog{
		baseURL:  DefaultBaseURL,
		services: services,
		order:    serviceOrder,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the root URL of the catalog.
func (c *Catalog) BaseURL() string {
	return c.baseURL
}

// Services returns the registered service ids in table order.
func (c *Catalog) Services() []string {
	return slices.Clone(c.order)
}

// ServiceExists reports whether id is a registered service.
func (c *Catalog) ServiceExists(id string) bool {
	_, ok := c.services[id]
	return ok
}

// Service returns a copy of the descriptor of id.
func (c *Catalog) Service(id string) (Service, error) {
	s, err := c.lookup(id)
	if err != nil {
		return Service{}, err
	}
	s.Coverages = slices.Clone(s.Coverages)
	return s, nil
}

// Coverages returns the coverage ids of a service in registration order.
// Depth coverages list the statistics in the same order at every depth.
func (c *Catalog) Coverages(id string) ([]string, error) {
	s, err := c.lookup(id)
	if err != nil {
		return nil, err
	}
	return slices.Clone(s.Coverages), nil
}

// CoverageExists reports whether coverage is registered for the service.
// It fails only when the service itself is unknown.
func (c *Catalog) CoverageExists(id, coverage string) (bool, error) {
	s, err := c.lookup(id)
	if err != nil {
		return false, err
	}
	return slices.Contains(s.Coverages, coverage), nil
}

// SourceUnit returns the unit of the raw values; empty for unitless services.
func (c *Catalog) SourceUnit(id string) (string, error) {
	s, err := c.lookup(id)
	if err != nil {
		return "", err
	}
	return s.SourceUnit, nil
}

// TargetUnit returns the unit after conversion; empty for unitless services.
func (c *Catalog) TargetUnit(id string) (string, error) {
	s, err := c.lookup(id)
	if err != nil {
		return "", err
	}
	return s.TargetUnit, nil
}

// ConversionFactor returns the divisor turning source values into target
// values, or 0 when the service has none.
func (c *Catalog) ConversionFactor(id string) (float64, error) {
	s, err := c.lookup(id)
	if err != nil {
		return 0, err
	}
	return s.ConversionFactor, nil
}

// Description returns the human readable description of a service.
func (c *Catalog) Description(id string) (string, error) {
	s, err := c.lookup(id)
	if err != nil {
		return "", err
	}
	return s.Description, nil
}

// SourceURL builds the URL of a coverage following the category rule of its
// service.
func (c *Catalog) SourceURL(id, coverage string) (string, error) {
	ok, err := c.CoverageExists(id, coverage)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", &NotFoundError{Service: id, Coverage: coverage}
	}

	s := c.services[id]
	switch s.Category {
	case Classification:
		return fmt.Sprintf("%s/%s/%s.%s", c.baseURL, id, coverage, VirtualExt), nil
	case BooleanLayer:
		return fmt.Sprintf("%s/%s/%s.%s", c.baseURL, id, coverage, RasterExt), nil
	default:
		return fmt.Sprintf("%s/%s/%s_%s.%s", c.baseURL, id, id, coverage, VirtualExt), nil
	}
}

func (c *Catalog) lookup(id string) (Service, error) {
	s, ok := c.services[id]
	if !ok {
		return Service{}, &NotFoundError{Service: id}
	}
	return s, nil
}
