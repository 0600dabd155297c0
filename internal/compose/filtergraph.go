package compose

import (
	"fmt"
	"strings"

	"github.com/maauso/gridcomposer/internal/layout"
)

// VideoOutLabel names the composited video stream in the filter graph.
const VideoOutLabel = "v"

// BuildFilterGraph returns the filter_complex expression that stacks inputs
// staged clips, supplied in slot order, into one width x height stream
// labelled VideoOutLabel. inputs must equal the layout's slot count.
func BuildFilterGraph(lt layout.Type, width, height, inputs int) (string, error) {
	required, err := layout.RequiredSlots(lt)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidLayout, err)
	}
	if inputs != required {
		return "", fmt.Errorf("%w: %s needs %d inputs, got %d", ErrInvalidLayout, lt, required, inputs)
	}

	var b strings.Builder
	switch lt {
	case layout.SplitHorizontal, layout.Triple:
		for i := 0; i < inputs; i++ {
			fmt.Fprintf(&b, "[%d:v]setsar=1[s%d];", i, i)
		}
		for i := 0; i < inputs; i++ {
			fmt.Fprintf(&b, "[s%d]", i)
		}
		fmt.Fprintf(&b, "vstack=inputs=%d[%s]", inputs, VideoOutLabel)
	case layout.Quad:
		hw, hh := width/2, height/2
		for i := 0; i < inputs; i++ {
			fmt.Fprintf(&b, "[%d:v]scale=%d:%d,setsar=1[s%d];", i, hw, hh, i)
		}
		b.WriteString("[s0][s1]hstack=inputs=2[top];")
		b.WriteString("[s2][s3]hstack=inputs=2[bottom];")
		fmt.Fprintf(&b, "[top][bottom]vstack=inputs=2[%s]", VideoOutLabel)
	case layout.Fullscreen:
		fmt.Fprintf(&b, "[0:v]scale=%d:%d,setsar=1[%s]", width, height, VideoOutLabel)
	}
	return b.String(), nil
}
