// Package metrics counts extraction work with Prometheus collectors and
// exports them in the node exporter textfile format.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/digital-idiot/SoilMatrix/pkg/extract"
)

// Recorder holds the collectors of one process. It implements
// extract.TileObserver.
type Recorder struct {
	registry *prometheus.Registry

	tiles       *prometheus.CounterVec
	extractions *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

var _ extract.TileObserver = (*Recorder)(nil)

// New creates a recorder with its own registry.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		tiles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "soilmatrix_tiles_total",
			Help: "Tiles written, by service and branch (read or fill)",
		}, []string{"service", "branch"}),
		extractions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "soilmatrix_extractions_total",
			Help: "Extractions finished, by service and status",
		}, []string{"service", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "soilmatrix_extract_duration_seconds",
			Help:    "Extraction duration in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		}, []string{"service"}),
	}
	r.registry.MustRegister(r.tiles, r.extractions, r.duration)
	return r
}

// ObserveTile counts one written tile.
func (r *Recorder) ObserveTile(service string, branch extract.Branch) {
	r.tiles.WithLabelValues(service, branch.String()).Inc()
}

// ObserveExtract records a finished extraction.
func (r *Recorder) ObserveExtract(service string, d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	r.extractions.WithLabelValues(service, status).Inc()
	r.duration.WithLabelValues(service).Observe(d.Seconds())
}

// Registry returns the registry holding every collector.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// WriteTextfile writes the current values to path atomically.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
