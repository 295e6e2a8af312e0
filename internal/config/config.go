package config

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/digital-idiot/SoilMatrix/internal/progress"
	"github.com/digital-idiot/SoilMatrix/pkg/catalog"
)

// EnvPrefix prefixes every environment variable read by LoadFromEnv.
const EnvPrefix = "SOILMATRIX_"

// Config defines configuration for the soilmatrix CLI.
type Config struct {
	BaseURL  string `yaml:"base_url"`
	Service  string `yaml:"service"`
	Coverage string `yaml:"coverage"`
	AOI      string `yaml:"aoi"`
	AOICRS   string `yaml:"aoi_crs"`
	Output   string `yaml:"output"`

	TileHeight    int               `yaml:"tile_height"`
	TileWidth     int               `yaml:"tile_width"`
	Resampling    string            `yaml:"resampling"`
	Convert       bool              `yaml:"convert"`
	AllTouched    bool              `yaml:"all_touched"`
	Invert        bool              `yaml:"invert"`
	WriterOptions map[string]string `yaml:"writer_options"`
	GDALOptions   map[string]string `yaml:"gdal_options"`

	Progress  bool `yaml:"progress"`
	Transient bool `yaml:"transient"`

	Bucket      string `yaml:"bucket"`
	Object      string `yaml:"object"`
	MetricsFile string `yaml:"metrics_file"`
	MaxAOISize  int64  `yaml:"max_aoi_size"`

	Log  LogConfig  `yaml:"log"`
	HTTP HTTPConfig `yaml:"http"`
}

// LogConfig defines logging output.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// HTTPConfig defines the HTTP client used to probe sources and fetch AOIs.
type HTTPConfig struct {
	Timeout time.Duration `yaml:"timeout"`
	Retry   RetryConfig   `yaml:"retry"`
}

// RetryConfig defines retry behavior.
type RetryConfig struct {
	Attempts   int           `yaml:"attempts"`
	Backoff    time.Duration `yaml:"backoff"`
	MaxBackoff time.Duration `yaml:"max_backoff"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		BaseURL:    catalog.DefaultBaseURL,
		TileHeight: 512,
		TileWidth:  512,
		Resampling: "nearest",
		Progress:   true,
		MaxAOISize: 64 * 1024 * 1024, // 64MiB
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		HTTP: HTTPConfig{
			Timeout: 30 * time.Second,
			Retry: RetryConfig{
				Attempts:   3,
				Backoff:    time.Second,
				MaxBackoff: 10 * time.Second,
			},
		},
	}
}

// yamlConfig is used for YAML unmarshaling with string durations and sizes.
type yamlConfig struct {
	BaseURL       string            `yaml:"base_url"`
	Service       string            `yaml:"service"`
	Coverage      string            `yaml:"coverage"`
	AOI           string            `yaml:"aoi"`
	AOICRS        string            `yaml:"aoi_crs"`
	Output        string            `yaml:"output"`
	TileHeight    int               `yaml:"tile_height"`
	TileWidth     int               `yaml:"tile_width"`
	Resampling    string            `yaml:"resampling"`
	Convert       bool              `yaml:"convert"`
	AllTouched    bool              `yaml:"all_touched"`
	Invert        bool              `yaml:"invert"`
	WriterOptions map[string]string `yaml:"writer_options"`
	GDALOptions   map[string]string `yaml:"gdal_options"`
	Progress      *bool             `yaml:"progress"`
	Transient     bool              `yaml:"transient"`
	Bucket        string            `yaml:"bucket"`
	Object        string            `yaml:"object"`
	MetricsFile   string            `yaml:"metrics_file"`
	MaxAOISize    string            `yaml:"max_aoi_size"`
	Log           LogConfig         `yaml:"log"`
	HTTP          yamlHTTPConfig    `yaml:"http"`
}

type yamlHTTPConfig struct {
	Timeout string          `yaml:"timeout"`
	Retry   yamlRetryConfig `yaml:"retry"`
}

type yamlRetryConfig struct {
	Attempts   int    `yaml:"attempts"`
	Backoff    string `yaml:"backoff"`
	MaxBackoff string `yaml:"max_backoff"`
}

// LoadFromFile loads configuration from a YAML file.
func LoadFromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return Config{}, fmt.Errorf("parse config file: %w", err)
	}

	cfg := Default()
	cfg = cfg.Merge(Config{
		BaseURL:       yc.BaseURL,
		Service:       yc.Service,
		Coverage:      yc.Coverage,
		AOI:           yc.AOI,
		AOICRS:        yc.AOICRS,
		Output:        yc.Output,
		TileHeight:    yc.TileHeight,
		TileWidth:     yc.TileWidth,
		Resampling:    yc.Resampling,
		Convert:       yc.Convert,
		AllTouched:    yc.AllTouched,
		Invert:        yc.Invert,
		WriterOptions: yc.WriterOptions,
		GDALOptions:   yc.GDALOptions,
		Transient:     yc.Transient,
		Bucket:        yc.Bucket,
		Object:        yc.Object,
		MetricsFile:   yc.MetricsFile,
		Log:           yc.Log,
		HTTP:          HTTPConfig{Retry: RetryConfig{Attempts: yc.HTTP.Retry.Attempts}},
	})
	if yc.Progress != nil {
		cfg.Progress = *yc.Progress
	}

	if yc.MaxAOISize != "" {
		size, err := progress.ParseBytes(yc.MaxAOISize)
		if err != nil {
			return Config{}, fmt.Errorf("parse max_aoi_size: %w", err)
		}
		cfg.MaxAOISize = size
	}
	if yc.HTTP.Timeout != "" {
		d, err := time.ParseDuration(yc.HTTP.Timeout)
		if err != nil {
			return Config{}, fmt.Errorf("parse http.timeout: %w", err)
		}
		cfg.HTTP.Timeout = d
	}
	if yc.HTTP.Retry.Backoff != "" {
		d, err := time.ParseDuration(yc.HTTP.Retry.Backoff)
		if err != nil {
			return Config{}, fmt.Errorf("parse http.retry.backoff: %w", err)
		}
		cfg.HTTP.Retry.Backoff = d
	}
	if yc.HTTP.Retry.MaxBackoff != "" {
		d, err := time.ParseDuration(yc.HTTP.Retry.MaxBackoff)
		if err != nil {
			return Config{}, fmt.Errorf("parse http.retry.max_backoff: %w", err)
		}
		cfg.HTTP.Retry.MaxBackoff = d
	}

	return cfg, nil
}

// LoadDotEnv loads variables from .env style files into the process
// environment without overriding variables that are already set. With no
// arguments it reads ./.env and ignores a missing file.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		if _, err := os.Stat(".env"); errors.Is(err, os.ErrNotExist) {
			return nil
		}
	}
	if err := godotenv.Load(paths...); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

// LoadFromEnv loads configuration from environment variables.
// Environment variables use the SOILMATRIX_ prefix.
func (c *Config) LoadFromEnv() error {
	strs := map[string]*string{
		"BASE_URL":     &c.BaseURL,
		"SERVICE":      &c.Service,
		"COVERAGE":     &c.Coverage,
		"AOI":          &c.AOI,
		"AOI_CRS":      &c.AOICRS,
		"OUTPUT":       &c.Output,
		"RESAMPLING":   &c.Resampling,
		"BUCKET":       &c.Bucket,
		"OBJECT":       &c.Object,
		"METRICS_FILE": &c.MetricsFile,
		"LOG_LEVEL":    &c.Log.Level,
		"LOG_FORMAT":   &c.Log.Format,
	}
	for key, dst := range strs {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}

	bools := map[string]*bool{
		"CONVERT":     &c.Convert,
		"ALL_TOUCHED": &c.AllTouched,
		"INVERT":      &c.Invert,
		"PROGRESS":    &c.Progress,
		"TRANSIENT":   &c.Transient,
	}
	for key, dst := range bools {
		if v := getenv(key); v != "" {
			*dst = v == "true" || v == "1"
		}
	}

	ints := map[string]*int{
		"TILE_HEIGHT":    &c.TileHeight,
		"TILE_WIDTH":     &c.TileWidth,
		"RETRY_ATTEMPTS": &c.HTTP.Retry.Attempts,
	}
	for key, dst := range ints {
		if v := getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("parse %s%s: %w", EnvPrefix, key, err)
			}
			*dst = n
		}
	}

	durations := map[string]*time.Duration{
		"HTTP_TIMEOUT":      &c.HTTP.Timeout,
		"RETRY_BACKOFF":     &c.HTTP.Retry.Backoff,
		"RETRY_MAX_BACKOFF": &c.HTTP.Retry.MaxBackoff,
	}
	for key, dst := range durations {
		if v := getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("parse %s%s: %w", EnvPrefix, key, err)
			}
			*dst = d
		}
	}

	if v := getenv("MAX_AOI_SIZE"); v != "" {
		size, err := progress.ParseBytes(v)
		if err != nil {
			return fmt.Errorf("parse %sMAX_AOI_SIZE: %w", EnvPrefix, err)
		}
		c.MaxAOISize = size
	}

	pairs := map[string]*map[string]string{
		"WRITER_OPTIONS": &c.WriterOptions,
		"GDAL_OPTIONS":   &c.GDALOptions,
	}
	for key, dst := range pairs {
		if v := getenv(key); v != "" {
			m, err := ParseKeyValues(v)
			if err != nil {
				return fmt.Errorf("parse %s%s: %w", EnvPrefix, key, err)
			}
			*dst = mergeMaps(*dst, m)
		}
	}

	return nil
}

func getenv(key string) string {
	return os.Getenv(EnvPrefix + key)
}

// Validate validates the configuration of an extraction.
func (c *Config) Validate() error {
	if c.Service == "" {
		return errors.New("config: service is required")
	}
	if c.Coverage == "" {
		return errors.New("config: coverage is required")
	}
	if c.AOI == "" {
		return errors.New("config: aoi is required")
	}
	if c.Output == "" {
		return errors.New("config: output is required")
	}
	if c.TileHeight <= 0 || c.TileWidth <= 0 {
		return errors.New("config: tile size must be positive")
	}
	if c.Object != "" && c.Bucket == "" {
		return errors.New("config: object requires a bucket")
	}
	if c.MaxAOISize <= 0 {
		return errors.New("config: max_aoi_size must be positive")
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("config: unknown log format %q", c.Log.Format)
	}
	return nil
}

// Merge merges override values into c, returning a new Config.
// Zero values in override are ignored. Option maps are merged key by key.
func (c Config) Merge(override Config) Config {
	if override.BaseURL != "" {
		c.BaseURL = override.BaseURL
	}
	if override.Service != "" {
		c.Service = override.Service
	}
	if override.Coverage != "" {
		c.Coverage = override.Coverage
	}
	if override.AOI != "" {
		c.AOI = override.AOI
	}
	if override.AOICRS != "" {
		c.AOICRS = override.AOICRS
	}
	if override.Output != "" {
		c.Output = override.Output
	}
	if override.TileHeight != 0 {
		c.TileHeight = override.TileHeight
	}
	if override.TileWidth != 0 {
		c.TileWidth = override.TileWidth
	}
	if override.Resampling != "" {
		c.Resampling = override.Resampling
	}
	if override.Convert {
		c.Convert = override.Convert
	}
	if override.AllTouched {
		c.AllTouched = override.AllTouched
	}
	if override.Invert {
		c.Invert = override.Invert
	}
	if override.Progress {
		c.Progress = override.Progress
	}
	if override.Transient {
		c.Transient = override.Transient
	}
	c.WriterOptions = mergeMaps(c.WriterOptions, override.WriterOptions)
	c.GDALOptions = mergeMaps(c.GDALOptions, override.GDALOptions)
	if override.Bucket != "" {
		c.Bucket = override.Bucket
	}
	if override.Object != "" {
		c.Object = override.Object
	}
	if override.MetricsFile != "" {
		c.MetricsFile = override.MetricsFile
	}
	if override.MaxAOISize != 0 {
		c.MaxAOISize = override.MaxAOISize
	}
	if override.Log.Level != "" {
		c.Log.Level = override.Log.Level
	}
	if override.Log.Format != "" {
		c.Log.Format = override.Log.Format
	}
	if override.HTTP.Timeout != 0 {
		c.HTTP.Timeout = override.HTTP.Timeout
	}
	if override.HTTP.Retry.Attempts != 0 {
		c.HTTP.Retry.Attempts = override.HTTP.Retry.Attempts
	}
	if override.HTTP.Retry.Backoff != 0 {
		c.HTTP.Retry.Backoff = override.HTTP.Retry.Backoff
	}
	if override.HTTP.Retry.MaxBackoff != 0 {
		c.HTTP.Retry.MaxBackoff = override.HTTP.Retry.MaxBackoff
	}
	return c
}

func mergeMaps(base, override map[string]string) map[string]string {
	if len(override) == 0 {
		return base
	}
	out := make(map[string]string, len(base)+len(override))
	maps.Copy(out, base)
	maps.Copy(out, override)
	return out
}

// ParseKeyValues parses "key=value,key=value" into a map. Keys are trimmed;
// an empty string yields an empty map.
func ParseKeyValues(s string) (map[string]string, error) {
	out := make(map[string]string)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		k, v, ok := strings.Cut(part, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid option %q: expected key=value", part)
		}
		out[k] = strings.TrimSpace(v)
	}
	return out, nil
}

// FormatKeyValues is the inverse of ParseKeyValues, with keys sorted.
func FormatKeyValues(m map[string]string) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + m[k]
	}
	return strings.Join(parts, ",")
}
