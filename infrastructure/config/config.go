// Package config provides configuration loading and validation for the
// textlift service.
package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"
)

// Engine names accepted by OCR.Engine.
const (
	EngineTesseract = "tesseract"
	EngineMock      = "mock"
)

// Config is the full service configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server" json:"server"`
	Upload    UploadConfig    `yaml:"upload" json:"upload"`
	OCR       OCRConfig       `yaml:"ocr" json:"ocr"`
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`
	Cache     CacheConfig     `yaml:"cache" json:"cache"`
	Logging   LoggingConfig   `yaml:"logging" json:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host               string `yaml:"host" json:"host"`
	Port               int    `yaml:"port" json:"port"`
	ReadTimeoutSeconds int    `yaml:"read_timeout_seconds" json:"read_timeout_seconds"`
}

// UploadConfig bounds and filters inbound image uploads.
type UploadConfig struct {
	MaxFileSizeBytes int64    `yaml:"max_file_size_bytes" json:"max_file_size_bytes"`
	AllowedFormats   []string `yaml:"allowed_formats" json:"allowed_formats"`
}

// OCRConfig selects and tunes the OCR engine.
type OCRConfig struct {
	Engine                 string   `yaml:"engine" json:"engine"`
	Languages              []string `yaml:"languages" json:"languages"`
	TimeoutSeconds         int      `yaml:"timeout_seconds" json:"timeout_seconds"`
	MaxConcurrent          int      `yaml:"max_concurrent" json:"max_concurrent"`
	RetryMaxAttempts       int      `yaml:"retry_max_attempts" json:"retry_max_attempts"`
	RetryInitialDelayMS    int      `yaml:"retry_initial_delay_ms" json:"retry_initial_delay_ms"`
	RetryBackoffMultiplier float64  `yaml:"retry_backoff_multiplier" json:"retry_backoff_multiplier"`
	BreakerThreshold       int      `yaml:"breaker_threshold" json:"breaker_threshold"`
	BreakerTimeoutSeconds  int      `yaml:"breaker_timeout_seconds" json:"breaker_timeout_seconds"`
}

// RateLimitConfig configures the per-client sliding window.
type RateLimitConfig struct {
	MaxRequests   int `yaml:"max_requests" json:"max_requests"`
	WindowSeconds int `yaml:"window_seconds" json:"window_seconds"`
}

// CacheConfig configures the result cache.
type CacheConfig struct {
	MaxItems   int `yaml:"max_items" json:"max_items"`
	TTLSeconds int `yaml:"ttl_seconds" json:"ttl_seconds"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// Default returns the configuration used when no file is supplied.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:               "0.0.0.0",
			Port:               8080,
			ReadTimeoutSeconds: 20,
		},
		Upload: UploadConfig{
			MaxFileSizeBytes: 10 * 1024 * 1024,
			AllowedFormats:   []string{"jpeg", "jpg", "png", "gif"},
		},
		OCR: OCRConfig{
			Engine:                 EngineTesseract,
			TimeoutSeconds:         15,
			MaxConcurrent:          10,
			RetryMaxAttempts:       2,
			RetryInitialDelayMS:    100,
			RetryBackoffMultiplier: 2.0,
			BreakerThreshold:       5,
			BreakerTimeoutSeconds:  30,
		},
		RateLimit: RateLimitConfig{
			MaxRequests:   60,
			WindowSeconds: 60,
		},
		Cache: CacheConfig{
			MaxItems:   512,
			TTLSeconds: 600,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Validate checks the configuration and reports every violation found.
// The admission layer constructors also validate their own inputs; failing
// here keeps a bad deployment from starting at all.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be in [1, 65535], got %d", c.Server.Port))
	}
	if c.Server.ReadTimeoutSeconds <= 0 {
		errs = append(errs, fmt.Errorf("server.read_timeout_seconds must be positive, got %d", c.Server.ReadTimeoutSeconds))
	}
	if c.Upload.MaxFileSizeBytes <= 0 {
		errs = append(errs, fmt.Errorf("upload.max_file_size_bytes must be positive, got %d", c.Upload.MaxFileSizeBytes))
	}
	if len(c.Upload.AllowedFormats) == 0 {
		errs = append(errs, errors.New("upload.allowed_formats must not be empty"))
	}
	if c.OCR.Engine != EngineTesseract && c.OCR.Engine != EngineMock {
		errs = append(errs, fmt.Errorf("ocr.engine must be %q or %q, got %q", EngineTesseract, EngineMock, c.OCR.Engine))
	}
	if c.OCR.TimeoutSeconds <= 0 {
		errs = append(errs, fmt.Errorf("ocr.timeout_seconds must be positive, got %d", c.OCR.TimeoutSeconds))
	}
	if c.RateLimit.MaxRequests <= 0 {
		errs = append(errs, fmt.Errorf("rate_limit.max_requests must be positive, got %d", c.RateLimit.MaxRequests))
	}
	if c.RateLimit.WindowSeconds <= 0 {
		errs = append(errs, fmt.Errorf("rate_limit.window_seconds must be positive, got %d", c.RateLimit.WindowSeconds))
	}
	if c.Cache.MaxItems <= 0 {
		errs = append(errs, fmt.Errorf("cache.max_items must be positive, got %d", c.Cache.MaxItems))
	}
	if c.Cache.TTLSeconds <= 0 {
		errs = append(errs, fmt.Errorf("cache.ttl_seconds must be positive, got %d", c.Cache.TTLSeconds))
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		errs = append(errs, fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format))
	}

	return errors.Join(errs...)
}

// Addr returns the listen address in host:port form.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// CacheTTL returns the cache TTL as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}

// RateLimitWindow returns the sliding window as a duration.
func (c *Config) RateLimitWindow() time.Duration {
	return time.Duration(c.RateLimit.WindowSeconds) * time.Second
}

// OCRTimeout returns the per-recognition timeout as a duration.
func (c *Config) OCRTimeout() time.Duration {
	return time.Duration(c.OCR.TimeoutSeconds) * time.Second
}

// ReadTimeout returns the HTTP read timeout as a duration.
func (c *Config) ReadTimeout() time.Duration {
	return time.Duration(c.Server.ReadTimeoutSeconds) * time.Second
}
