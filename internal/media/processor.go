// Package media provides source inspection and the ffmpeg-backed encoding
// operations the compositor needs.
package media

import "context"

// Kind is the resolved media class of a source file.
type Kind string

const (
	// KindImage is a static raster image.
	KindImage Kind = "image"
	// KindVideo is a time-based clip, with or without audio.
	KindVideo Kind = "video"
)

// IsValid returns true if the kind is known.
func (k Kind) IsValid() bool {
	return k == KindImage || k == KindVideo
}

// Info describes what a probe learned about a media file.
type Info struct {
	// DurationSec is the container duration in seconds; zero when unknown.
	DurationSec float64
	// HasAudio is true if at least one audio stream is present.
	HasAudio bool
	// HasVideo is true if at least one video stream is present.
	HasVideo bool
}

// Prober inspects a media file.
type Prober interface {
	// Probe returns duration and stream presence for path.
	Probe(ctx context.Context, path string) (Info, error)
}

// NoAudio marks a ComposeJob that is muxed without an audio track.
const NoAudio = -1

// ScaleVideoJob re-encodes a video to fixed geometry, frame rate and duration.
type ScaleVideoJob struct {
	Input     string
	Output    string
	Width     int
	Height    int
	FrameRate int
	// DurationSec hard-trims the output; shorter inputs are not looped.
	DurationSec float64
	// WithAudio carries the input's audio as AAC-LC 48 kHz stereo.
	WithAudio bool
}

// StillVideoJob holds a single image for DurationSec at the given geometry.
type StillVideoJob struct {
	Image       string
	Output      string
	Width       int
	Height      int
	FrameRate   int
	DurationSec float64
}

// BlankVideoJob synthesizes a solid-color silent clip.
type BlankVideoJob struct {
	Output      string
	Color       string
	Width       int
	Height      int
	FrameRate   int
	DurationSec float64
}

// ComposeJob combines staged inputs through a filter graph into one file.
type ComposeJob struct {
	Inputs []string
	// Filter is a filter_complex expression whose video result is labelled FilterOutput.
	Filter       string
	FilterOutput string
	// AudioInput is the index into Inputs that donates audio, or NoAudio.
	AudioInput  int
	DurationSec float64
	Output      string
}

// Encoder runs the encoding operations of the video path.
// Each call blocks until the external process exits or ctx is done.
type Encoder interface {
	ScaleVideo(ctx context.Context, job ScaleVideoJob) error
	StillToVideo(ctx context.Context, job StillVideoJob) error
	BlankVideo(ctx context.Context, job BlankVideoJob) error
	Compose(ctx context.Context, job ComposeJob) error
}
