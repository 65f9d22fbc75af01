package config

import (
	"path/filepath"
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for ReviewGoat.
type Config struct {
	Scraper ScraperConfig `mapstructure:"scraper" yaml:"scraper"`
	Fetcher FetcherConfig `mapstructure:"fetcher" yaml:"fetcher"`
	Parser  ParserConfig  `mapstructure:"parser"  yaml:"parser"`
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`
	Charts  ChartsConfig  `mapstructure:"charts"  yaml:"charts"`
	Server  ServerConfig  `mapstructure:"server"  yaml:"server"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// ScraperConfig controls the review walk for a product.
type ScraperConfig struct {
	// ReviewURL is a printf template receiving the product id.
	ReviewURL   string            `mapstructure:"review_url"  yaml:"review_url"`
	MaxPages    int               `mapstructure:"max_pages"   yaml:"max_pages"`
	Concurrency int               `mapstructure:"concurrency" yaml:"concurrency"`
	Headers     map[string]string `mapstructure:"headers"     yaml:"headers"`

	// DedupReviews drops reviews whose id already appeared earlier in a walk.
	DedupReviews bool `mapstructure:"dedup_reviews" yaml:"dedup_reviews"`
}

// FetcherConfig controls the HTTP client.
type FetcherConfig struct {
	Timeout         time.Duration `mapstructure:"timeout"           yaml:"timeout"`
	FollowRedirects bool          `mapstructure:"follow_redirects"  yaml:"follow_redirects"`
	MaxRedirects    int           `mapstructure:"max_redirects"     yaml:"max_redirects"`
	MaxBodySize     int64         `mapstructure:"max_body_size"     yaml:"max_body_size"`
	TLSInsecure     bool          `mapstructure:"tls_insecure"      yaml:"tls_insecure"`
	IdleConnTimeout time.Duration `mapstructure:"idle_conn_timeout" yaml:"idle_conn_timeout"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"    yaml:"max_idle_conns"`
}

// ParserConfig carries selector overrides applied on top of the built-in
// selector table.
type ParserConfig struct {
	Rules []ParseRule `mapstructure:"rules" yaml:"rules"`
}

// ParseRule overrides a single named selector.
type ParseRule struct {
	Name      string `mapstructure:"name"      yaml:"name"`
	Selector  string `mapstructure:"selector"  yaml:"selector"`
	Type      string `mapstructure:"type"      yaml:"type"` // css, xpath
	Attribute string `mapstructure:"attribute" yaml:"attribute"`
	Default   string `mapstructure:"default"   yaml:"default"`
}

// StorageConfig controls persistence.
type StorageConfig struct {
	Type      string      `mapstructure:"type"       yaml:"type"` // file, mongodb
	DataDir   string      `mapstructure:"data_dir"   yaml:"data_dir"`
	ExportDir string      `mapstructure:"export_dir" yaml:"export_dir"`
	Mongo     MongoConfig `mapstructure:"mongo"      yaml:"mongo"`
}

// MongoConfig configures the MongoDB backend.
type MongoConfig struct {
	URI      string        `mapstructure:"uri"      yaml:"uri"`
	Database string        `mapstructure:"database" yaml:"database"`
	Timeout  time.Duration `mapstructure:"timeout"  yaml:"timeout"`
}

// ChartsConfig controls chart rendering.
type ChartsConfig struct {
	OutputDir string `mapstructure:"output_dir" yaml:"output_dir"`
	Width     int    `mapstructure:"width"      yaml:"width"`
	Height    int    `mapstructure:"height"     yaml:"height"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Addr           string        `mapstructure:"addr"            yaml:"addr"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// MetricsConfig controls Prometheus metrics.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path"    yaml:"path"`
}

// ExportDirectory returns the directory exports are written to.
func (c StorageConfig) ExportDirectory() string {
	if c.ExportDir != "" {
		return c.ExportDir
	}
	return filepath.Join(c.DataDir, "opinions")
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Scraper: ScraperConfig{
			ReviewURL:   "https://www.ceneo.pl/%s#tab=reviews",
			MaxPages:    0,
			Concurrency: 2,
			Headers: map[string]string{
				"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
				"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
				"Accept-Language": "pl-PL,pl;q=0.9,en;q=0.8",
			},
		},
		Fetcher: FetcherConfig{
			Timeout:         30 * time.Second,
			FollowRedirects: true,
			MaxRedirects:    10,
			MaxBodySize:     10 * 1024 * 1024, // 10MB
			IdleConnTimeout: 90 * time.Second,
			MaxIdleConns:    10,
		},
		Storage: StorageConfig{
			Type:    "file",
			DataDir: "./data",
			Mongo: MongoConfig{
				URI:      "mongodb://localhost:27017",
				Database: "reviewgoat",
				Timeout:  10 * time.Second,
			},
		},
		Charts: ChartsConfig{
			OutputDir: "./static/images/charts",
			Width:     640,
			Height:    480,
		},
		Server: ServerConfig{
			Addr:           ":8080",
			RequestTimeout: 5 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Path:    "/metrics",
		},
	}
}
