// Package config provides configuration loading from environment variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Static errors for configuration validation.
var (
	// ErrScratchInsideOutput is returned when SCRATCH_DIR equals OUTPUT_DIR or lies inside it.
	ErrScratchInsideOutput = errors.New("config: SCRATCH_DIR must not be OUTPUT_DIR or inside it")
	// ErrInvalidFrameRate is returned when FRAME_RATE is not positive.
	ErrInvalidFrameRate = errors.New("config: FRAME_RATE must be positive")
	// ErrInvalidJPEGQuality is returned when JPEG_QUALITY is outside 1..100.
	ErrInvalidJPEGQuality = errors.New("config: JPEG_QUALITY must be between 1 and 100")
	// ErrInvalidDefaultDuration is returned when DEFAULT_DURATION_SEC is not positive.
	ErrInvalidDefaultDuration = errors.New("config: DEFAULT_DURATION_SEC must be positive")
	// ErrInvalidTimeout is returned when PROCESS_TIMEOUT_SEC is negative.
	ErrInvalidTimeout = errors.New("config: PROCESS_TIMEOUT_SEC must not be negative")
)

// Config holds all configuration for the application.
type Config struct {
	// Storage settings
	OutputDir  string `env:"OUTPUT_DIR, default=/tmp/gridcomposer/output" json:"output_dir"`
	ScratchDir string `env:"SCRATCH_DIR, default=/tmp/gridcomposer/scratch" json:"scratch_dir"`

	// External tools
	FFmpegPath  string `env:"FFMPEG_PATH, default=ffmpeg" json:"ffmpeg_path"`
	FFprobePath string `env:"FFPROBE_PATH, default=ffprobe" json:"ffprobe_path"`

	// Processing settings
	FrameRate          int     `env:"FRAME_RATE, default=30" json:"frame_rate"`
	JPEGQuality        int     `env:"JPEG_QUALITY, default=90" json:"jpeg_quality"`
	DefaultDurationSec float64 `env:"DEFAULT_DURATION_SEC, default=5" json:"default_duration_sec"`
	ProcessTimeoutSec  int     `env:"PROCESS_TIMEOUT_SEC, default=0" json:"process_timeout_sec"`

	// Optional S3 settings
	S3Bucket           string `env:"S3_BUCKET" json:"s3_bucket,omitempty"`
	S3Region           string `env:"S3_REGION" json:"s3_region,omitempty"`
	S3Endpoint         string `env:"S3_ENDPOINT" json:"s3_endpoint,omitempty"`
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID" json:"-"`     // Masked in JSON
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" json:"-"` // Masked in JSON

	// Logging settings
	LogFormat string `env:"LOG_FORMAT, default=text" json:"log_format"` // "json" or "text"
	LogLevel  string `env:"LOG_LEVEL, default=info" json:"log_level"`   // "debug", "info", "warn", "error"
}

// S3Enabled returns true if S3 configuration is provided.
func (c *Config) S3Enabled() bool {
	return c.S3Bucket != "" && c.S3Region != ""
}

// ProcessTimeout returns the per-request deadline, or zero for none.
func (c *Config) ProcessTimeout() time.Duration {
	return time.Duration(c.ProcessTimeoutSec) * time.Second
}

// Load reads configuration from environment variables using go-envconfig
// and validates it.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := envconfig.Process(context.Background(), cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks value ranges and that scratch artifacts can never land in
// the output directory.
func (c *Config) Validate() error {
	if c.FrameRate <= 0 {
		return ErrInvalidFrameRate
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return ErrInvalidJPEGQuality
	}
	if c.DefaultDurationSec <= 0 {
		return ErrInvalidDefaultDuration
	}
	if c.ProcessTimeoutSec < 0 {
		return ErrInvalidTimeout
	}
	if within(c.ScratchDir, c.OutputDir) {
		return ErrScratchInsideOutput
	}
	return nil
}

// within reports whether dir is parent or lies below it.
func within(dir, parent string) bool {
	if dir == "" || parent == "" {
		return false
	}
	rel, err := filepath.Rel(filepath.Clean(parent), filepath.Clean(dir))
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// NewLogger creates a structured logger based on the configuration.
// When LogFormat is "json", it outputs JSON logs suitable for production.
// Otherwise, it outputs human-readable text logs.
func (c *Config) NewLogger() *slog.Logger {
	level := parseLogLevel(c.LogLevel)

	var handler slog.Handler
	if strings.ToLower(c.LogFormat) == "json" {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		})
	} else {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		})
	}

	return slog.New(handler)
}

// String returns a string representation of the config with sensitive values masked.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{OutputDir: %s, ScratchDir: %s, FFmpegPath: %s, FFprobePath: %s, FrameRate: %d, JPEGQuality: %d, DefaultDurationSec: %g, ProcessTimeoutSec: %d, S3Bucket: %s, S3Region: %s, S3Endpoint: %s, LogFormat: %s, LogLevel: %s}",
		c.OutputDir,
		c.ScratchDir,
		c.FFmpegPath,
		c.FFprobePath,
		c.FrameRate,
		c.JPEGQuality,
		c.DefaultDurationSec,
		c.ProcessTimeoutSec,
		c.S3Bucket,
		c.S3Region,
		c.S3Endpoint,
		c.LogFormat,
		c.LogLevel,
	)
}

// parseLogLevel converts a string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
