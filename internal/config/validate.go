package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	if err := validateReviewURL(cfg.Scraper.ReviewURL); err != nil {
		return err
	}
	if cfg.Scraper.MaxPages < 0 {
		return fmt.Errorf("scraper.max_pages must be >= 0, got %d", cfg.Scraper.MaxPages)
	}
	if cfg.Scraper.Concurrency < 1 {
		return fmt.Errorf("scraper.concurrency must be >= 1, got %d", cfg.Scraper.Concurrency)
	}

	if cfg.Fetcher.Timeout <= 0 {
		return fmt.Errorf("fetcher.timeout must be > 0")
	}
	if cfg.Fetcher.MaxBodySize <= 0 {
		return fmt.Errorf("fetcher.max_body_size must be > 0")
	}
	if cfg.Fetcher.MaxRedirects < 0 {
		return fmt.Errorf("fetcher.max_redirects must be >= 0")
	}

	for _, rule := range cfg.Parser.Rules {
		if rule.Name == "" {
			return fmt.Errorf("parser.rules: rule without name")
		}
		if rule.Type != "" && rule.Type != "css" && rule.Type != "xpath" {
			return fmt.Errorf("parser.rules[%s]: type must be 'css' or 'xpath', got %q", rule.Name, rule.Type)
		}
	}

	switch cfg.Storage.Type {
	case "file":
		if cfg.Storage.DataDir == "" {
			return fmt.Errorf("storage.data_dir must be set for file storage")
		}
	case "mongodb":
		if cfg.Storage.Mongo.URI == "" || cfg.Storage.Mongo.Database == "" {
			return fmt.Errorf("storage.mongo.uri and storage.mongo.database must be set for mongodb storage")
		}
	default:
		return fmt.Errorf("storage.type %q is not supported (valid: file, mongodb)", cfg.Storage.Type)
	}

	if cfg.Charts.OutputDir == "" {
		return fmt.Errorf("charts.output_dir must be set")
	}
	if cfg.Charts.Width < 100 || cfg.Charts.Height < 100 {
		return fmt.Errorf("charts.width and charts.height must be >= 100")
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug/info/warn/error, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", cfg.Logging.Format)
	}

	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with '/', got %q", cfg.Metrics.Path)
	}

	return nil
}

// validateReviewURL checks the review URL template yields an http(s) URL.
func validateReviewURL(tmpl string) error {
	if strings.Count(tmpl, "%s") != 1 {
		return fmt.Errorf("scraper.review_url must contain exactly one %%s placeholder, got %q", tmpl)
	}
	u, err := url.Parse(fmt.Sprintf(tmpl, "0"))
	if err != nil {
		return fmt.Errorf("scraper.review_url: invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scraper.review_url scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("scraper.review_url must have a host")
	}
	return nil
}
