// Package compose turns a grid layout and a set of image or video sources
// into a single composite asset: a JPEG when every source is a still image,
// otherwise an MP4 with one selected audio track.
package compose

import (
	"errors"
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"

	"github.com/maauso/gridcomposer/internal/layout"
	"github.com/maauso/gridcomposer/internal/media"
)

// Static errors surfaced by the compositor. Match them with errors.Is.
var (
	// ErrInvalidLayout is returned for an unknown layout or an out-of-range slot index.
	ErrInvalidLayout = errors.New("invalid layout")
	// ErrInvalidRequest is returned for any other malformed request field.
	ErrInvalidRequest = errors.New("invalid composition request")
	// ErrProbe is returned when a source cannot be inspected.
	ErrProbe = errors.New("probe failed")
	// ErrConversion is returned when resizing, staging or encoding fails.
	ErrConversion = errors.New("conversion failed")
)

// DefaultDurationSec is the video length used when no source supplies one.
const DefaultDurationSec = 5.0

var validate = validator.New(validator.WithRequiredStructEnabled())

// Source is one slot's input file and its resolved media kind.
type Source struct {
	Path string     `json:"path" validate:"required"`
	Kind media.Kind `json:"kind" validate:"required,oneof=image video"`
}

// DetectSource sniffs the file at path and returns it as a Source.
func DetectSource(path string) (Source, error) {
	kind, err := media.DetectKind(path)
	if err != nil {
		return Source{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return Source{Path: path, Kind: kind}, nil
}

// Request describes one composition.
type Request struct {
	Layout layout.Type `json:"layout" validate:"required"`
	// Slots maps a slot index to its source. Indices inside the layout but
	// absent from the map render as white.
	Slots  map[int]Source `json:"slots" validate:"required,min=1,dive"`
	Width  int            `json:"width" validate:"gt=0,lte=10000"`
	Height int            `json:"height" validate:"gt=0,lte=10000"`
	// ForcedDurationSec overrides the probed duration when positive.
	ForcedDurationSec float64 `json:"forced_duration_sec,omitempty" validate:"omitempty,gt=0"`
}

// Validate checks the request without touching the filesystem.
func (r *Request) Validate() error {
	required, err := layout.RequiredSlots(r.Layout)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidLayout, err)
	}
	for idx := range r.Slots {
		if idx < 0 || idx >= required {
			return fmt.Errorf("%w: slot %d outside [0, %d) for %s", ErrInvalidLayout, idx, required, r.Layout)
		}
	}
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return nil
}

// HasVideo reports whether any slot holds a video, which selects the timeline path.
func (r *Request) HasVideo() bool {
	for _, s := range r.Slots {
		if s.Kind == media.KindVideo {
			return true
		}
	}
	return false
}

// SlotIndices returns the populated slot indices in ascending order.
func (r *Request) SlotIndices() []int {
	idx := make([]int, 0, len(r.Slots))
	for i := range r.Slots {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	return idx
}

// Result is the finished composite. The caller owns the file at Path.
type Result struct {
	Path      string     `json:"path"`
	Name      string     `json:"name"`
	SizeBytes int64      `json:"size_bytes"`
	Kind      media.Kind `json:"kind"`
	MimeType  string     `json:"mime_type"`
	// DurationSec is set for video results only.
	DurationSec float64 `json:"duration_sec,omitempty"`
	// URL is set when the result was published to remote storage.
	URL string `json:"url,omitempty"`
}
