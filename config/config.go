package config

import (
	"fmt"
	"net/url"
	"time"
)

// Fetcher kinds.
const (
	FetcherHTTP    = "http"
	FetcherBrowser = "browser"
)

// Config holds scraper configuration.
type Config struct {
	BaseURL          string
	PageOverride     int // 0 keeps each category's default page count
	PageDelay        time.Duration
	CategoryDelay    time.Duration
	Timeout          time.Duration
	WaitTimeout      time.Duration
	MaxRetries       int
	RetryBackoff     time.Duration
	RetryBackoffMax  time.Duration
	Fetcher          string // http or browser
	Headless         bool
	OutputDir        string
	OutputFormat     string // csv, json, dual, or xlsx
	BatchSize        int
	CategoriesFile   string
	DedupeCacheSize  int
	IDPrefix         string
	DatabaseURL      string
	MetricsAddr      string
	UserAgent        string
	Verbose          bool
	RespectRobotsTxt bool
}

// DefaultConfig returns polite defaults for jumia.ma.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:          "https://www.jumia.ma",
		PageOverride:     0,
		PageDelay:        2 * time.Second,
		CategoryDelay:    5 * time.Second,
		Timeout:          60 * time.Second,
		WaitTimeout:      20 * time.Second,
		MaxRetries:       2,
		RetryBackoff:     time.Second,
		RetryBackoffMax:  10 * time.Second,
		Fetcher:          FetcherHTTP,
		Headless:         true,
		OutputDir:        "output",
		OutputFormat:     "csv",
		BatchSize:        64,
		CategoriesFile:   "",
		DedupeCacheSize:  0,
		IDPrefix:         "JUM",
		DatabaseURL:      "",
		MetricsAddr:      "",
		UserAgent:        "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		Verbose:          false,
		RespectRobotsTxt: false,
	}
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}

	parsedURL, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("base URL must include a host")
	}

	if c.PageOverride < 0 {
		return fmt.Errorf("page override cannot be negative")
	}
	if c.PageDelay < 0 {
		return fmt.Errorf("page delay cannot be negative")
	}
	if c.CategoryDelay < 0 {
		return fmt.Errorf("category delay cannot be negative")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.WaitTimeout <= 0 {
		return fmt.Errorf("wait timeout must be positive")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}
	if c.RetryBackoff < 0 {
		return fmt.Errorf("retry backoff cannot be negative")
	}
	if c.RetryBackoffMax < 0 {
		return fmt.Errorf("retry backoff max cannot be negative")
	}
	if c.RetryBackoffMax > 0 && c.RetryBackoff > c.RetryBackoffMax {
		return fmt.Errorf("retry backoff (%s) cannot exceed retry backoff max (%s)", c.RetryBackoff, c.RetryBackoffMax)
	}
	if c.Fetcher != FetcherHTTP && c.Fetcher != FetcherBrowser {
		return fmt.Errorf("fetcher must be http or browser")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output directory cannot be empty")
	}
	switch c.OutputFormat {
	case "csv", "json", "dual", "xlsx":
	default:
		return fmt.Errorf("output format must be csv, json, dual, or xlsx")
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive")
	}
	if c.DedupeCacheSize < 0 {
		return fmt.Errorf("dedupe cache size cannot be negative")
	}
	if c.IDPrefix == "" {
		return fmt.Errorf("id prefix cannot be empty")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}

	return nil
}
