// Package bootstrap provides dependency initialization for the grid compositor.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/maauso/gridcomposer/internal/compose"
	"github.com/maauso/gridcomposer/internal/config"
	"github.com/maauso/gridcomposer/internal/media"
	"github.com/maauso/gridcomposer/internal/storage"
)

// Dependencies holds all initialized dependencies for the CLI.
type Dependencies struct {
	Composer  *compose.Service
	Publisher storage.Publisher
}

// NewDependencies creates and initializes all dependencies for the application.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	// Initialize scratch and output areas
	scratch, err := storage.NewScratch(cfg.ScratchDir)
	if err != nil {
		return nil, fmt.Errorf("create scratch area: %w", err)
	}
	outputs, err := storage.NewOutputDir(cfg.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	logger.Info("local storage configured",
		slog.String("scratch_dir", scratch.Root()),
		slog.String("output_dir", outputs.Dir()),
	)

	// Initialize media processor; it is both the prober and the encoder
	processor := media.NewFFmpegProcessor(cfg.FFmpegPath, media.WithFFprobePath(cfg.FFprobePath))

	svc := compose.NewService(
		processor,
		processor,
		scratch,
		outputs,
		logger,
		compose.WithFrameRate(cfg.FrameRate),
		compose.WithJPEGQuality(cfg.JPEGQuality),
		compose.WithDefaultDuration(cfg.DefaultDurationSec),
		compose.WithTimeout(cfg.ProcessTimeout()),
	)

	publisher, err := initPublisher(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	return &Dependencies{
		Composer:  svc,
		Publisher: publisher,
	}, nil
}

// initPublisher creates the S3 publisher when configured, or a no-op one.
func initPublisher(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.Publisher, error) {
	if !cfg.S3Enabled() {
		return storage.NopPublisher{}, nil
	}

	pub, err := storage.NewS3Publisher(ctx, storage.S3Config{
		Bucket:          cfg.S3Bucket,
		Region:          cfg.S3Region,
		Endpoint:        cfg.S3Endpoint,
		AccessKeyID:     cfg.AWSAccessKeyID,
		SecretAccessKey: cfg.AWSSecretAccessKey,
	})
	if err != nil {
		return nil, fmt.Errorf("create S3 publisher: %w", err)
	}
	logger.Info("S3 publishing configured",
		slog.String("bucket", cfg.S3Bucket),
		slog.String("region", cfg.S3Region),
	)
	return pub, nil
}
