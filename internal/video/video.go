package video

import (
	"errors"
	"image"
)

// ErrOpen is returned when a video stream cannot be opened.
var ErrOpen = errors.New("video stream could not be opened")

// ErrNoFrame is returned when no frame can be read at the requested index.
var ErrNoFrame = errors.New("no frame could be read")

// Capture is an open video stream.
type Capture interface {
	// FrameCount is the number of frames reported by the container; 0 when unknown.
	FrameCount() int
	// FPS is the reported frame rate; 0 when unknown.
	FPS() float64
	Width() int
	Height() int
	// ReadFrame seeks to index and decodes that frame with RGB channel order.
	ReadFrame(index int) (image.Image, error)
	Close() error
}

// Opener opens a Capture for a path.
type Opener interface {
	Open(path string) (Capture, error)
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func(path string) (Capture, error)

// Open calls f(path).
func (f OpenerFunc) Open(path string) (Capture, error) {
	return f(path)
}

// RepresentativeFrame returns the frame a thumbnail is taken from: a quarter
// of the way into the stream, clamped to the last frame, or frame 0 when the
// count is unknown.
func RepresentativeFrame(frameCount int) int {
	if frameCount <= 0 {
		return 0
	}
	return min(int(float64(frameCount)*0.25), frameCount-1)
}

// Duration returns frameCount / fps in seconds. ok is false when fps is not
// positive.
func Duration(frameCount int, fps float64) (seconds float64, ok bool) {
	if fps <= 0 {
		return 0, false
	}
	return float64(frameCount) / fps, true
}
