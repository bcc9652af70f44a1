package decode

import (
	"errors"
	"fmt"
	"image"
	"os"

	"media-processor/internal/logging"

	"github.com/disintegration/imaging"

	// Decoders beyond the ones imaging registers
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var (
	// ErrUnsupportedFormat is returned for containers no decoder handles.
	ErrUnsupportedFormat = errors.New("unsupported image format")
	// ErrDecode is returned when a recognised file cannot be decoded.
	ErrDecode = errors.New("image decode failed")
	// ErrHEIFUnavailable is returned for HEIF input when no HEIF decoder is set.
	ErrHEIFUnavailable = errors.New("HEIF decoder not available")
)

// HEIFFunc decodes a HEIC/HEIF file. The returned image must already have its
// EXIF orientation applied.
type HEIFFunc func(path string) (image.Image, error)

// HEIFSizeFunc reports the stored (pre-orientation) pixel size of a HEIC/HEIF
// file.
type HEIFSizeFunc func(path string) (width, height int, err error)

// Decoder turns image files into pixels.
type Decoder struct {
	heif     HEIFFunc
	heifSize HEIFSizeFunc
}

// New creates a Decoder. heif may be nil, in which case HEIF input fails with
// ErrHEIFUnavailable.
func New(heif HEIFFunc) *Decoder {
	return &Decoder{heif: heif}
}

// WithHEIFSize sets the reader Dimensions uses for HEIF input and returns d.
func (d *Decoder) WithHEIFSize(size HEIFSizeFunc) *Decoder {
	d.heifSize = size
	return d
}

// Decode returns the decoded image and its sniffed format. Images in ordinary
// formats are returned as stored, without applying EXIF orientation; HEIF
// images come back already oriented.
func (d *Decoder) Decode(path string) (image.Image, Format, error) {
	format, err := SniffFile(path)
	if err != nil {
		return nil, FormatUnknown, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	if format == FormatHEIF || HasHEIFExtension(path) {
		return d.decodeHEIF(path)
	}

	switch format {
	case FormatAVIF, FormatMP4:
		return nil, format, fmt.Errorf("%s: %w", format, ErrUnsupportedFormat)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, format, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logging.Warn("failed to close image file %s: %v", path, err)
		}
	}()

	img, err := imaging.Decode(file)
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, format, fmt.Errorf("%s: %w", format, ErrUnsupportedFormat)
		}
		return nil, format, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return img, format, nil
}

func (d *Decoder) decodeHEIF(path string) (image.Image, Format, error) {
	if d.heif == nil {
		return nil, FormatHEIF, ErrHEIFUnavailable
	}
	img, err := d.heif(path)
	if err != nil {
		return nil, FormatHEIF, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return img, FormatHEIF, nil
}

// Dimensions returns the stored pixel size of an image, before any EXIF
// orientation. Ordinary formats are read from the header only. HEIF uses the
// size reader when one is set; otherwise the file is decoded and the size of
// the oriented pixels is returned, so width and height may be swapped.
func (d *Decoder) Dimensions(path string) (width, height int, err error) {
	if IsHEIF(path) {
		if d.heifSize != nil {
			w, h, err := d.heifSize(path)
			if err != nil {
				return 0, 0, fmt.Errorf("%w: %v", ErrDecode, err)
			}
			return w, h, nil
		}
		img, _, err := d.decodeHEIF(path)
		if err != nil {
			return 0, 0, err
		}
		b := img.Bounds()
		return b.Dx(), b.Dy(), nil
	}

	file, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer func() {
		if err := file.Close(); err != nil {
			logging.Warn("failed to close image file %s: %v", path, err)
		}
	}()

	cfg, _, err := image.DecodeConfig(file)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return cfg.Width, cfg.Height, nil
}
