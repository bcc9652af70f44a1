package ingest

import (
	"errors"

	"media-processor/internal/classify"
	"media-processor/internal/decode"
)

// Error categories. Stage errors wrap one of these with %w.
var (
	ErrUnsupportedFormat = decode.ErrUnsupportedFormat
	ErrDecodeFailure     = decode.ErrDecode
	ErrModelLoadFailure  = classify.ErrModelLoad
	ErrIOFailure         = errors.New("i/o failure")

	// ErrSourceUnreadable is the only error Ingest returns: the stored file
	// cannot be opened at all.
	ErrSourceUnreadable = errors.New("source file unreadable")
)

// category names the error taxonomy entry err belongs to.
func category(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnsupportedFormat):
		return "unsupported_format"
	case errors.Is(err, ErrDecodeFailure):
		return "decode_failure"
	case errors.Is(err, ErrModelLoadFailure):
		return "model_load_failure"
	default:
		return "io_failure"
	}
}
