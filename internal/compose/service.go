package compose

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/maauso/gridcomposer/internal/media"
	"github.com/maauso/gridcomposer/internal/raster"
	"github.com/maauso/gridcomposer/internal/storage"
)

// Service is the entry point of the compositor. It validates a request and
// routes it to the raster path or the timeline path.
type Service struct {
	raster   *raster.Compositor
	timeline *Timeline
	outputs  *storage.OutputDir
	logger   *slog.Logger

	frameRate       int
	jpegQuality     int
	defaultDuration float64
	timeout         time.Duration
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithFrameRate sets the frame rate of staged and composite video.
func WithFrameRate(fps int) ServiceOption {
	return func(s *Service) {
		if fps > 0 {
			s.frameRate = fps
		}
	}
}

// WithJPEGQuality sets the quality of still composites.
func WithJPEGQuality(q int) ServiceOption {
	return func(s *Service) {
		if q > 0 && q <= 100 {
			s.jpegQuality = q
		}
	}
}

// WithDefaultDuration sets the video length used when no source supplies one.
func WithDefaultDuration(sec float64) ServiceOption {
	return func(s *Service) {
		if sec > 0 {
			s.defaultDuration = sec
		}
	}
}

// WithTimeout bounds each request, including every external process it starts.
// Zero means no deadline beyond the caller's context.
func WithTimeout(d time.Duration) ServiceOption {
	return func(s *Service) {
		if d >= 0 {
			s.timeout = d
		}
	}
}

// NewService wires a Service from its collaborators.
func NewService(prober media.Prober, enc media.Encoder, scratch *storage.Scratch, outputs *storage.OutputDir, logger *slog.Logger, opts ...ServiceOption) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		outputs:         outputs,
		logger:          logger,
		frameRate:       media.DefaultFrameRate,
		jpegQuality:     raster.DefaultQuality,
		defaultDuration: DefaultDurationSec,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.raster = raster.NewCompositor(s.jpegQuality)
	stager := NewStager(enc, s.frameRate, logger)
	s.timeline = NewTimeline(prober, enc, stager, scratch, outputs, s.defaultDuration, logger)
	return s
}

// Compose produces the composite for req. Each call is independent and
// safe to run concurrently with others.
func (s *Service) Compose(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	requestID := storage.Token()
	logger := s.logger.With(
		slog.String("request_id", requestID),
		slog.String("layout", string(req.Layout)),
		slog.Int("width", req.Width),
		slog.Int("height", req.Height),
		slog.Int("slots", len(req.Slots)),
	)

	start := time.Now()
	var (
		res *Result
		err error
	)
	if req.HasVideo() {
		logger.Info("composing video")
		res, err = s.timelineFor(logger).Compose(ctx, req)
	} else {
		logger.Info("composing image")
		res, err = s.composeImage(req)
	}
	if err != nil {
		logger.Error("composition failed",
			slog.String("error", err.Error()),
			slog.Duration("elapsed", time.Since(start)),
		)
		return nil, err
	}

	logger.Info("composition complete",
		slog.String("output", res.Name),
		slog.Int64("size_bytes", res.SizeBytes),
		slog.Duration("elapsed", time.Since(start)),
	)
	return res, nil
}

// timelineFor returns a timeline that logs with the request-scoped logger.
func (s *Service) timelineFor(logger *slog.Logger) *Timeline {
	t := *s.timeline
	t.logger = logger
	st := *t.stager
	st.logger = logger
	t.stager = &st
	return &t
}

func (s *Service) composeImage(req Request) (*Result, error) {
	tiles := make(map[int]string, len(req.Slots))
	for idx, src := range req.Slots {
		tiles[idx] = src.Path
	}

	output := s.outputs.NewPath(".jpg")
	if err := s.raster.Compose(req.Layout, req.Width, req.Height, tiles, output); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConversion, err)
	}

	info, err := os.Stat(output)
	if err != nil {
		_ = os.Remove(output)
		return nil, fmt.Errorf("%w: stat composite: %w", ErrConversion, err)
	}

	return &Result{
		Path:      output,
		Name:      filepath.Base(output),
		SizeBytes: info.Size(),
		Kind:      media.KindImage,
		MimeType:  "image/jpeg",
	}, nil
}
