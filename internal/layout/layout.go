// Package layout maps a layout identifier and canvas size to the rectangles
// each source occupies on the output canvas.
package layout

import (
	"errors"
	"fmt"
)

// ErrUnknownLayout is returned for any identifier outside the fixed layout family.
var ErrUnknownLayout = errors.New("unknown layout type")

// Type identifies one of the fixed slot arrangements.
type Type string

const (
	// SplitHorizontal stacks two full-width rows.
	SplitHorizontal Type = "split-horizontal"
	// Triple stacks three full-width rows.
	Triple Type = "triple"
	// Quad is a 2x2 grid.
	Quad Type = "quad"
	// Fullscreen is a single slot covering the whole canvas.
	Fullscreen Type = "fullscreen"
)

// Types lists every supported layout in a stable order.
var Types = []Type{SplitHorizontal, Triple, Quad, Fullscreen}

// IsValid returns true if t is a known layout.
func (t Type) IsValid() bool {
	switch t {
	case SplitHorizontal, Triple, Quad, Fullscreen:
		return true
	default:
		return false
	}
}

// Slot is the rectangle one source occupies on the canvas.
type Slot struct {
	X      int
	Y      int
	Width  int
	Height int
}

// RequiredSlots returns the exact number of slots t defines.
func RequiredSlots(t Type) (int, error) {
	switch t {
	case SplitHorizontal:
		return 2, nil
	case Triple:
		return 3, nil
	case Quad:
		return 4, nil
	case Fullscreen:
		return 1, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownLayout, t)
	}
}

// Geometry returns the slot rectangles for t on a width x height canvas,
// ordered by slot index.
//
// Sizes are floor-divided and remainders are never redistributed, so a canvas
// that does not divide evenly leaves a strip on the right or bottom edge that
// no slot covers.
func Geometry(t Type, width, height int) ([]Slot, error) {
	switch t {
	case SplitHorizontal:
		return rows(2, width, height), nil
	case Triple:
		return rows(3, width, height), nil
	case Quad:
		w, h := width/2, height/2
		return []Slot{
			{X: 0, Y: 0, Width: w, Height: h},
			{X: w, Y: 0, Width: w, Height: h},
			{X: 0, Y: h, Width: w, Height: h},
			{X: w, Y: h, Width: w, Height: h},
		}, nil
	case Fullscreen:
		return []Slot{{X: 0, Y: 0, Width: width, Height: height}}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownLayout, t)
	}
}

func rows(n, width, height int) []Slot {
	h := height / n
	slots := make([]Slot, n)
	for i := range slots {
		slots[i] = Slot{X: 0, Y: i * h, Width: width, Height: h}
	}
	return slots
}
