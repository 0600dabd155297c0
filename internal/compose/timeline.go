package compose

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/maauso/gridcomposer/internal/layout"
	"github.com/maauso/gridcomposer/internal/media"
	"github.com/maauso/gridcomposer/internal/storage"
)

// Timeline runs the video path: resolve duration, stage every slot, build
// the filter graph, encode, publish. Phases run strictly in order and the
// first failure ends the request.
type Timeline struct {
	prober          media.Prober
	enc             media.Encoder
	stager          *Stager
	scratch         *storage.Scratch
	outputs         *storage.OutputDir
	defaultDuration float64
	logger          *slog.Logger
}

// NewTimeline creates a Timeline. A non-positive defaultDuration uses DefaultDurationSec.
func NewTimeline(prober media.Prober, enc media.Encoder, stager *Stager, scratch *storage.Scratch, outputs *storage.OutputDir, defaultDuration float64, logger *slog.Logger) *Timeline {
	if defaultDuration <= 0 {
		defaultDuration = DefaultDurationSec
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Timeline{
		prober:          prober,
		enc:             enc,
		stager:          stager,
		scratch:         scratch,
		outputs:         outputs,
		defaultDuration: defaultDuration,
		logger:          logger,
	}
}

// Compose builds an MP4 composite for req, which must already be valid.
// Every scratch artifact is removed before returning, whatever the outcome.
func (t *Timeline) Compose(ctx context.Context, req Request) (*Result, error) {
	slots, err := layout.Geometry(req.Layout, req.Width, req.Height)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidLayout, err)
	}

	scope, err := t.scratch.NewScope(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConversion, err)
	}
	defer t.cleanup(scope)

	infos, duration, err := t.resolveDuration(ctx, req)
	if err != nil {
		return nil, err
	}
	t.logger.Info("resolved target duration",
		slog.Float64("duration_sec", duration),
		slog.Int("video_slots", len(infos)),
	)

	clips, audioInput, err := t.stage(ctx, scope, req, slots, infos, duration)
	if err != nil {
		return nil, err
	}

	graph, err := BuildFilterGraph(req.Layout, req.Width, req.Height, len(clips))
	if err != nil {
		return nil, err
	}

	inputs := make([]string, len(clips))
	for i, c := range clips {
		inputs[i] = c.Path
	}

	output := t.outputs.NewPath(".mp4")
	t.logger.Info("encoding composite",
		slog.String("output", output),
		slog.Int("inputs", len(inputs)),
		slog.Int("audio_input", audioInput),
	)
	err = t.enc.Compose(ctx, media.ComposeJob{
		Inputs:       inputs,
		Filter:       graph,
		FilterOutput: VideoOutLabel,
		AudioInput:   audioInput,
		DurationSec:  duration,
		Output:       output,
	})
	if err != nil {
		t.removePartial(output)
		return nil, fmt.Errorf("%w: encode composite: %w", ErrConversion, err)
	}

	info, err := os.Stat(output)
	if err != nil {
		t.removePartial(output)
		return nil, fmt.Errorf("%w: stat composite: %w", ErrConversion, err)
	}

	return &Result{
		Path:        output,
		Name:        filepath.Base(output),
		SizeBytes:   info.Size(),
		Kind:        media.KindVideo,
		MimeType:    "video/mp4",
		DurationSec: duration,
	}, nil
}

// resolveDuration probes every video slot in ascending order and picks the
// target duration: the forced value if set, else the longest video, else
// the default. A video whose duration is unknown counts as the default.
func (t *Timeline) resolveDuration(ctx context.Context, req Request) (map[int]media.Info, float64, error) {
	infos := make(map[int]media.Info)
	longest := 0.0
	for _, idx := range req.SlotIndices() {
		src := req.Slots[idx]
		if src.Kind != media.KindVideo {
			continue
		}
		info, err := t.prober.Probe(ctx, src.Path)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: slot %d (%s): %w", ErrProbe, idx, filepath.Base(src.Path), err)
		}
		d := info.DurationSec
		if d <= 0 {
			d = t.defaultDuration
		}
		t.logger.Debug("probed video", slog.Int("slot", idx), slog.Float64("duration_sec", d), slog.Bool("has_audio", info.HasAudio))
		infos[idx] = info
		if d > longest {
			longest = d
		}
	}

	switch {
	case req.ForcedDurationSec > 0:
		return infos, req.ForcedDurationSec, nil
	case longest > 0:
		return infos, longest, nil
	default:
		return infos, t.defaultDuration, nil
	}
}

// stage produces one clip per layout slot in slot order and returns the
// input index of the audio donor: the first video slot with audio.
func (t *Timeline) stage(ctx context.Context, scope *storage.Scope, req Request, slots []layout.Slot, infos map[int]media.Info, duration float64) ([]StagedClip, int, error) {
	clips := make([]StagedClip, 0, len(slots))
	audioInput := media.NoAudio

	for idx, geom := range slots {
		src, ok := req.Slots[idx]

		var (
			clip StagedClip
			err  error
		)
		switch {
		case !ok:
			clip, err = t.stager.StageBlank(ctx, scope, idx, geom, duration)
		case src.Kind == media.KindVideo:
			info := infos[idx]
			if audioInput == media.NoAudio && info.HasAudio {
				audioInput = len(clips)
				t.logger.Info("selected audio donor", slog.Int("slot", idx), slog.Int("input", audioInput))
			}
			clip, err = t.stager.StageVideo(ctx, scope, idx, src, geom, duration, info)
		default:
			clip, err = t.stager.StageImage(ctx, scope, idx, src, geom, duration)
		}
		if err != nil {
			return nil, media.NoAudio, err
		}
		clips = append(clips, clip)
	}

	if audioInput == media.NoAudio {
		t.logger.Info("no audio source found, composite will be silent")
	}
	return clips, audioInput, nil
}

// cleanup removes the request's scratch scope. Failures are logged as
// warnings and never change the request outcome.
func (t *Timeline) cleanup(scope *storage.Scope) {
	for _, err := range scope.Cleanup() {
		t.logger.Warn("resource cleanup warning", slog.String("error", err.Error()))
	}
}

func (t *Timeline) removePartial(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		t.logger.Warn("resource cleanup warning",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
	}
}
