package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
)

// Static errors for media operations.
var (
	// ErrInvalidDimensions is returned when the provided dimensions are not positive.
	ErrInvalidDimensions = errors.New("invalid dimensions: width and height must be positive")
	// ErrInvalidDuration is returned when duration is not positive.
	ErrInvalidDuration = errors.New("invalid duration: must be positive")
	// ErrNoInputs is returned when a compose job has no inputs.
	ErrNoInputs = errors.New("no inputs provided")
	// ErrAudioInputOutOfRange is returned when the audio donor is not one of the inputs.
	ErrAudioInputOutOfRange = errors.New("audio input index out of range")
	// ErrFFprobeExecution is returned when ffprobe command fails.
	ErrFFprobeExecution = errors.New("ffprobe execution failed")
)

// Encoding constants shared by staged clips and the final composite.
const (
	DefaultFrameRate = 30
	stagePreset      = "ultrafast"
	composePreset    = "medium"
	videoCRF         = "23"
	pixelFormat      = "yuv420p"
	audioBitrate     = "192k"
	audioSampleRate  = "48000"
	audioChannels    = "2"
)

// FFmpegProcessor implements Encoder and Prober using the ffmpeg and ffprobe CLIs.
type FFmpegProcessor struct {
	// ffmpegPath is the path to the ffmpeg binary. Defaults to "ffmpeg".
	ffmpegPath string
	// ffprobePath is the path to the ffprobe binary. Defaults to "ffprobe".
	ffprobePath string
}

// Option configures an FFmpegProcessor.
type Option func(*FFmpegProcessor)

// WithFFprobePath overrides the ffprobe binary location.
func WithFFprobePath(path string) Option {
	return func(p *FFmpegProcessor) {
		if path != "" {
			p.ffprobePath = path
		}
	}
}

// NewFFmpegProcessor creates a new FFmpegProcessor.
// If ffmpegPath is empty, it defaults to "ffmpeg" (found via PATH).
func NewFFmpegProcessor(ffmpegPath string, opts ...Option) *FFmpegProcessor {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	p := &FFmpegProcessor{ffmpegPath: ffmpegPath, ffprobePath: "ffprobe"}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Verify interface implementation at compile time.
var (
	_ Encoder = (*FFmpegProcessor)(nil)
	_ Prober  = (*FFmpegProcessor)(nil)
)

// ScaleVideo re-encodes a source video to the job's geometry and duration.
func (p *FFmpegProcessor) ScaleVideo(ctx context.Context, job ScaleVideoJob) error {
	if err := checkGeometry(job.Width, job.Height, job.DurationSec); err != nil {
		return err
	}
	return p.runFFmpeg(ctx, scaleVideoArgs(job))
}

// StillToVideo turns one image into a video clip holding that frame.
func (p *FFmpegProcessor) StillToVideo(ctx context.Context, job StillVideoJob) error {
	if err := checkGeometry(job.Width, job.Height, job.DurationSec); err != nil {
		return err
	}
	return p.runFFmpeg(ctx, stillVideoArgs(job))
}

// BlankVideo writes a solid-color clip with no audio.
func (p *FFmpegProcessor) BlankVideo(ctx context.Context, job BlankVideoJob) error {
	if err := checkGeometry(job.Width, job.Height, job.DurationSec); err != nil {
		return err
	}
	return p.runFFmpeg(ctx, blankVideoArgs(job))
}

// Compose encodes the final interleaved MP4 from the staged inputs.
func (p *FFmpegProcessor) Compose(ctx context.Context, job ComposeJob) error {
	if len(job.Inputs) == 0 {
		return ErrNoInputs
	}
	if job.DurationSec <= 0 {
		return fmt.Errorf("%w: got %.2f", ErrInvalidDuration, job.DurationSec)
	}
	if job.AudioInput != NoAudio && (job.AudioInput < 0 || job.AudioInput >= len(job.Inputs)) {
		return fmt.Errorf("%w: %d of %d", ErrAudioInputOutOfRange, job.AudioInput, len(job.Inputs))
	}
	return p.runFFmpeg(ctx, composeArgs(job))
}

func checkGeometry(w, h int, duration float64) error {
	if w <= 0 || h <= 0 {
		return fmt.Errorf("%w: width=%d, height=%d", ErrInvalidDimensions, w, h)
	}
	if duration <= 0 {
		return fmt.Errorf("%w: got %.2f", ErrInvalidDuration, duration)
	}
	return nil
}

func frameRate(fps int) string {
	if fps <= 0 {
		fps = DefaultFrameRate
	}
	return strconv.Itoa(fps)
}

func seconds(d float64) string {
	return strconv.FormatFloat(d, 'f', 3, 64)
}

func scaleFilter(w, h int) string {
	return fmt.Sprintf("scale=%d:%d,setsar=1", w, h)
}

func stageVideoCodecArgs() []string {
	return []string{
		"-c:v", "libx264",
		"-preset", stagePreset,
		"-crf", videoCRF,
		"-pix_fmt", pixelFormat,
	}
}

func audioCodecArgs() []string {
	return []string{
		"-c:a", "aac",
		"-profile:a", "aac_low",
		"-b:a", audioBitrate,
		"-ar", audioSampleRate,
		"-ac", audioChannels,
	}
}

func scaleVideoArgs(job ScaleVideoJob) []string {
	args := []string{
		"-y",
		"-i", job.Input,
		"-map", "0:v:0",
	}
	if job.WithAudio {
		args = append(args, "-map", "0:a:0")
	}
	args = append(args,
		"-vf", scaleFilter(job.Width, job.Height),
		"-r", frameRate(job.FrameRate),
	)
	args = append(args, stageVideoCodecArgs()...)
	if job.WithAudio {
		args = append(args, audioCodecArgs()...)
	} else {
		args = append(args, "-an")
	}
	return append(args, "-t", seconds(job.DurationSec), job.Output)
}

func stillVideoArgs(job StillVideoJob) []string {
	args := []string{
		"-y",
		"-loop", "1", // Repeat the single input frame
		"-framerate", frameRate(job.FrameRate),
		"-t", seconds(job.DurationSec),
		"-i", job.Image,
		"-vf", scaleFilter(job.Width, job.Height),
		"-r", frameRate(job.FrameRate),
	}
	args = append(args, stageVideoCodecArgs()...)
	return append(args, "-an", "-t", seconds(job.DurationSec), job.Output)
}

func blankVideoArgs(job BlankVideoJob) []string {
	color := job.Color
	if color == "" {
		color = "white"
	}
	src := fmt.Sprintf("color=c=%s:s=%dx%d:r=%s:d=%s",
		color, job.Width, job.Height, frameRate(job.FrameRate), seconds(job.DurationSec))
	args := []string{
		"-y",
		"-f", "lavfi",
		"-i", src,
		"-vf", "setsar=1",
	}
	args = append(args, stageVideoCodecArgs()...)
	return append(args, "-an", "-t", seconds(job.DurationSec), job.Output)
}

func composeArgs(job ComposeJob) []string {
	args := []string{"-y"}
	for _, in := range job.Inputs {
		args = append(args, "-i", in)
	}
	args = append(args,
		"-filter_complex", job.Filter,
		"-map", "["+job.FilterOutput+"]",
	)
	if job.AudioInput != NoAudio {
		args = append(args, "-map", fmt.Sprintf("%d:a:0", job.AudioInput))
		args = append(args, audioCodecArgs()...)
	} else {
		args = append(args, "-an")
	}
	args = append(args,
		"-c:v", "libx264",
		"-preset", composePreset,
		"-crf", videoCRF,
		"-pix_fmt", pixelFormat,
		"-t", seconds(job.DurationSec),
		"-movflags", "+faststart",
		job.Output,
	)
	return args
}

// runFFmpeg executes ffmpeg with the given arguments and returns an error
// containing stderr output if the command fails.
func (p *FFmpegProcessor) runFFmpeg(ctx context.Context, args []string) error {
	// #nosec G204 - ffmpegPath is set by the application, not user input
	cmd := exec.CommandContext(ctx, p.ffmpegPath, append([]string{"-hide_banner", "-nostdin"}, args...)...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("ffmpeg cancelled: %w", ctx.Err())
		}
		return &FFmpegError{
			Args:   args,
			Stderr: stderr.String(),
			Err:    err,
		}
	}

	return nil
}

// FFmpegError represents an error from running ffmpeg, including the stderr output.
type FFmpegError struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *FFmpegError) Error() string {
	return fmt.Sprintf("ffmpeg error: %v\nargs: %v\nstderr: %s", e.Err, e.Args, e.Stderr)
}

func (e *FFmpegError) Unwrap() error {
	return e.Err
}
