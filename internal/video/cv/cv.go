package cv

import (
	"fmt"
	"image"

	"media-processor/internal/logging"
	"media-processor/internal/video"

	"gocv.io/x/gocv"
)

// capture wraps gocv.VideoCapture.
type capture struct {
	vc   *gocv.VideoCapture
	path string
}

// Open opens path with OpenCV's VideoCapture. It satisfies video.OpenerFunc.
func Open(path string) (video.Capture, error) {
	vc, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", video.ErrOpen, err)
	}
	if !vc.IsOpened() {
		_ = vc.Close()
		return nil, fmt.Errorf("%w: %s", video.ErrOpen, path)
	}
	return &capture{vc: vc, path: path}, nil
}

// Opener returns an Opener backed by Open.
func Opener() video.Opener {
	return video.OpenerFunc(Open)
}

func (c *capture) FrameCount() int {
	n := int(c.vc.Get(gocv.VideoCaptureFrameCount))
	if n < 0 {
		return 0
	}
	return n
}

func (c *capture) FPS() float64 {
	return c.vc.Get(gocv.VideoCaptureFPS)
}

func (c *capture) Width() int {
	return int(c.vc.Get(gocv.VideoCaptureFrameWidth))
}

func (c *capture) Height() int {
	return int(c.vc.Get(gocv.VideoCaptureFrameHeight))
}

func (c *capture) ReadFrame(index int) (image.Image, error) {
	if index > 0 {
		c.vc.Set(gocv.VideoCapturePosFrames, float64(index))
	}

	frame := gocv.NewMat()
	defer frame.Close()

	if ok := c.vc.Read(&frame); !ok || frame.Empty() {
		return nil, fmt.Errorf("%w: frame %d of %s", video.ErrNoFrame, index, c.path)
	}

	// OpenCV decodes to BGR; ToImage reorders 3-channel mats to RGB.
	img, err := frame.ToImage()
	if err != nil {
		return nil, fmt.Errorf("convert frame: %w", err)
	}

	logging.Debug("Read frame %d of %s (%dx%d)", index, c.path, frame.Cols(), frame.Rows())
	return img, nil
}

func (c *capture) Close() error {
	return c.vc.Close()
}
