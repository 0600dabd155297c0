package media

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// ErrUnsupportedMedia is returned when a file is neither an image nor a video.
var ErrUnsupportedMedia = errors.New("unsupported media type")

// DetectKind sniffs the file content at path and classifies it.
func DetectKind(path string) (Kind, error) {
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return "", fmt.Errorf("detect media type: %w", err)
	}
	return kindFromMIME(mt.String())
}

func kindFromMIME(mime string) (Kind, error) {
	base, _, _ := strings.Cut(mime, ";")
	switch {
	case strings.HasPrefix(base, "image/"):
		return KindImage, nil
	case strings.HasPrefix(base, "video/"):
		return KindVideo, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedMedia, base)
	}
}
