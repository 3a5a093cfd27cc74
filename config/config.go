package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Scrape  ScrapeConfig
	Browser BrowserConfig
	Export  ExportConfig
	Server  ServerConfig
	Log     LogConfig
}

// ScrapeConfig controls the retrieval controller and the run coordinator.
type ScrapeConfig struct {
	// TargetURL is the index quote page to scrape.
	TargetURL string // default: "https://stooq.com/q/i/?s=^spx"

	// StaticTimeout is the deadline for one static HTTP fetch.
	StaticTimeout time.Duration // default: 30s

	// DynamicWaitTimeout bounds the wait for the data table to
	// materialize during an escalated (rendered) fetch.
	DynamicWaitTimeout time.Duration // default: 15s

	// BaseDelay seeds both backoff curves: linear for transient errors,
	// exponential (base * 2^attempt) for rate-limit responses.
	BaseDelay time.Duration // default: 1s

	// MaxRetries is the retry budget per target.
	MaxRetries int // default: 3

	// RateLimitDelay is the mandatory inter-request spacing applied
	// before every attempt, including the first.
	RateLimitDelay time.Duration // default: 1s

	// MinRows is the smallest row count a located table must have to be
	// accepted as the index table rather than a stray snippet.
	MinRows int // default: 50

	// MaxPages bounds how many pagination pages are followed.
	MaxPages int // default: 5

	// RunDeadline caps total run time; checked at page boundaries only.
	// Zero means no cap.
	RunDeadline time.Duration // default: 10m
}

// BrowserConfig controls the rendered fetch path (headless Chromium).
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string
}

// ExportConfig controls CSV output.
type ExportConfig struct {
	// OutputDir is where CSV files are written.
	OutputDir string // default: "./data"

	// FilenamePrefix is the CSV filename prefix.
	FilenamePrefix string // default: "sp500_data"

	// IncludeTimestamp appends a timestamp to generated filenames.
	IncludeTimestamp bool // default: true
}

// ServerConfig controls the optional HTTP serve mode.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"

	// RequestsPerSecond and Burst shape the per-IP token bucket.
	RequestsPerSecond float64 // default: 1
	Burst             int     // default: 3
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "text"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Scrape: ScrapeConfig{
			TargetURL:          envOr("SCRAPTOR_URL", "https://stooq.com/q/i/?s=^spx"),
			StaticTimeout:      envDurationOr("SCRAPTOR_STATIC_TIMEOUT", 30*time.Second),
			DynamicWaitTimeout: envDurationOr("SCRAPTOR_DYNAMIC_WAIT", 15*time.Second),
			BaseDelay:          envDurationOr("SCRAPTOR_BASE_DELAY", time.Second),
			MaxRetries:         envIntOr("SCRAPTOR_MAX_RETRIES", 3),
			RateLimitDelay:     envDurationOr("SCRAPTOR_RATE_DELAY", time.Second),
			MinRows:            envIntOr("SCRAPTOR_MIN_ROWS", 50),
			MaxPages:           envIntOr("SCRAPTOR_MAX_PAGES", 5),
			RunDeadline:        envDurationOr("SCRAPTOR_RUN_DEADLINE", 10*time.Minute),
		},
		Browser: BrowserConfig{
			Headless:   envBoolOr("SCRAPTOR_HEADLESS", true),
			NoSandbox:  envBoolOr("SCRAPTOR_NO_SANDBOX", false),
			BrowserBin: os.Getenv("SCRAPTOR_BROWSER_BIN"),
		},
		Export: ExportConfig{
			OutputDir:        envOr("SCRAPTOR_OUTPUT_DIR", "./data"),
			FilenamePrefix:   envOr("SCRAPTOR_FILE_PREFIX", "sp500_data"),
			IncludeTimestamp: envBoolOr("SCRAPTOR_FILE_TIMESTAMP", true),
		},
		Server: ServerConfig{
			Host:              envOr("SCRAPTOR_HOST", "0.0.0.0"),
			Port:              envIntOr("SCRAPTOR_PORT", 8080),
			Mode:              envOr("SCRAPTOR_MODE", "release"),
			RequestsPerSecond: envFloatOr("SCRAPTOR_RATE_RPS", 1.0),
			Burst:             envIntOr("SCRAPTOR_RATE_BURST", 3),
		},
		Log: LogConfig{
			Level:  envOr("SCRAPTOR_LOG_LEVEL", "info"),
			Format: envOr("SCRAPTOR_LOG_FORMAT", "text"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(strings.TrimSpace(v)); err == nil {
			return d
		}
	}
	return fallback
}
