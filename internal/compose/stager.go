package compose

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/maauso/gridcomposer/internal/layout"
	"github.com/maauso/gridcomposer/internal/media"
	"github.com/maauso/gridcomposer/internal/raster"
	"github.com/maauso/gridcomposer/internal/storage"
)

// StagedClip is one slot normalized to its geometry and the target duration.
type StagedClip struct {
	Slot int
	Path string
	// HasAudio is true if the clip carries an audio stream.
	HasAudio bool
}

// Stager converts each slot into a uniform video clip.
type Stager struct {
	enc       media.Encoder
	frameRate int
	logger    *slog.Logger
}

// NewStager creates a Stager. A non-positive frameRate uses media.DefaultFrameRate.
func NewStager(enc media.Encoder, frameRate int, logger *slog.Logger) *Stager {
	if frameRate <= 0 {
		frameRate = media.DefaultFrameRate
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Stager{enc: enc, frameRate: frameRate, logger: logger}
}

// StageVideo re-encodes a video source, carrying audio when info reports any.
func (s *Stager) StageVideo(ctx context.Context, scope *storage.Scope, slot int, src Source, geom layout.Slot, durationSec float64, info media.Info) (StagedClip, error) {
	out := scope.NewPath(fmt.Sprintf("scaled-video-%d", slot), ".mp4")
	s.logger.Debug("scaling video",
		slog.Int("slot", slot),
		slog.String("source", src.Path),
		slog.Bool("has_audio", info.HasAudio),
	)

	err := s.enc.ScaleVideo(ctx, media.ScaleVideoJob{
		Input:       src.Path,
		Output:      out,
		Width:       geom.Width,
		Height:      geom.Height,
		FrameRate:   s.frameRate,
		DurationSec: durationSec,
		WithAudio:   info.HasAudio,
	})
	if err != nil {
		return StagedClip{}, fmt.Errorf("%w: scale video for slot %d: %w", ErrConversion, slot, err)
	}
	return StagedClip{Slot: slot, Path: out, HasAudio: info.HasAudio}, nil
}

// StageImage holds an image source as a silent clip, converting it to JPEG
// first when it is in any other format.
func (s *Stager) StageImage(ctx context.Context, scope *storage.Scope, slot int, src Source, geom layout.Slot, durationSec float64) (StagedClip, error) {
	image := src.Path
	if !raster.IsBaselineJPEG(image) {
		converted := scope.NewPath(fmt.Sprintf("converted-%d", slot), ".jpg")
		if err := raster.NormalizeToJPEG(image, converted); err != nil {
			return StagedClip{}, fmt.Errorf("%w: convert image for slot %d: %w", ErrConversion, slot, err)
		}
		s.logger.Debug("converted image to jpeg", slog.Int("slot", slot), slog.String("path", converted))
		image = converted
	}

	out := scope.NewPath(fmt.Sprintf("image-video-%d", slot), ".mp4")
	err := s.enc.StillToVideo(ctx, media.StillVideoJob{
		Image:       image,
		Output:      out,
		Width:       geom.Width,
		Height:      geom.Height,
		FrameRate:   s.frameRate,
		DurationSec: durationSec,
	})
	if err != nil {
		return StagedClip{}, fmt.Errorf("%w: image to video for slot %d: %w", ErrConversion, slot, err)
	}
	return StagedClip{Slot: slot, Path: out}, nil
}

// StageBlank synthesizes a white silent clip for a slot with no source.
func (s *Stager) StageBlank(ctx context.Context, scope *storage.Scope, slot int, geom layout.Slot, durationSec float64) (StagedClip, error) {
	out := scope.NewPath(fmt.Sprintf("blank-video-%d", slot), ".mp4")
	err := s.enc.BlankVideo(ctx, media.BlankVideoJob{
		Output:      out,
		Color:       "white",
		Width:       geom.Width,
		Height:      geom.Height,
		FrameRate:   s.frameRate,
		DurationSec: durationSec,
	})
	if err != nil {
		return StagedClip{}, fmt.Errorf("%w: blank clip for slot %d: %w", ErrConversion, slot, err)
	}
	return StagedClip{Slot: slot, Path: out}, nil
}
