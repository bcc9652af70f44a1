package thumbnail

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"

	"media-processor/internal/decode"
	"media-processor/internal/filesystem"
	"media-processor/internal/logging"
	"media-processor/internal/mediatypes"
	"media-processor/internal/metrics"
	"media-processor/internal/video"

	"github.com/disintegration/imaging"
	"golang.org/x/sync/singleflight"
)

// JPEGQuality is the encoder quality for every thumbnail.
const JPEGQuality = 85

// ErrEncode is returned when a thumbnail cannot be encoded or written.
var ErrEncode = errors.New("thumbnail encode failed")

// ImageDecoder decodes image files. HEIF results must already be oriented.
type ImageDecoder interface {
	Decode(path string) (image.Image, decode.Format, error)
}

// Options configures a Generator.
type Options struct {
	// Dir is where thumb_{stem}.jpg files are written.
	Dir string
	// Mount is the web path prefix Dir is served under.
	Mount string
	// Width and Height bound the thumbnail. Zero means 200.
	Width, Height int
	Decoder       ImageDecoder
	// Videos opens video streams; nil disables video thumbnails.
	Videos video.Opener
	// Orientation returns the EXIF orientation (1..8) of a file.
	Orientation func(path string) int
}

// Generator produces bounded JPEG thumbnails for images and videos.
type Generator struct {
	dir         string
	mount       string
	width       int
	height      int
	decoder     ImageDecoder
	videos      video.Opener
	orientation func(string) int
	group       singleflight.Group
}

// New creates a Generator.
func New(opts Options) *Generator {
	g := &Generator{
		dir:         opts.Dir,
		mount:       opts.Mount,
		width:       opts.Width,
		height:      opts.Height,
		decoder:     opts.Decoder,
		videos:      opts.Videos,
		orientation: opts.Orientation,
	}
	if g.width <= 0 {
		g.width = 200
	}
	if g.height <= 0 {
		g.height = 200
	}
	if g.mount == "" {
		g.mount = "/thumbnails"
	}
	if g.orientation == nil {
		g.orientation = func(string) int { return 1 }
	}
	logging.Debug("Thumbnail generator: dir %s, box %dx%d", g.dir, g.width, g.height)
	return g
}

// Name returns the thumbnail file name for a source path.
func Name(sourcePath string) string {
	base := filepath.Base(sourcePath)
	return "thumb_" + strings.TrimSuffix(base, filepath.Ext(base)) + ".jpg"
}

// TargetPath returns where the thumbnail for sourcePath is stored.
func (g *Generator) TargetPath(sourcePath string) string {
	return filepath.Join(g.dir, Name(sourcePath))
}

// WebPath returns the served path of the thumbnail for sourcePath.
func (g *Generator) WebPath(sourcePath string) string {
	return path.Join(g.mount, Name(sourcePath))
}

// Generate creates the thumbnail and returns its web path. ok is false when
// no thumbnail could be produced; the cause is logged.
func (g *Generator) Generate(sourcePath string, kind mediatypes.MediaKind) (webPath string, ok bool) {
	webPath, err := g.Create(sourcePath, kind)
	if err != nil {
		logging.Warn("Thumbnail failed for %s: %v", sourcePath, err)
		return "", false
	}
	return webPath, true
}

// Create is Generate with the failure cause. An existing thumbnail is
// returned without regenerating it, and concurrent calls for the same target
// share one run.
func (g *Generator) Create(sourcePath string, kind mediatypes.MediaKind) (string, error) {
	if kind != mediatypes.KindImage && kind != mediatypes.KindVideo {
		return "", fmt.Errorf("%s: %w", kind, decode.ErrUnsupportedFormat)
	}

	target := g.TargetPath(sourcePath)
	webPath := g.WebPath(sourcePath)

	if filesystem.Exists(target) {
		logging.Debug("Thumbnail exists: %s", target)
		metrics.ThumbnailCacheHits.Inc()
		return webPath, nil
	}

	_, err, shared := g.group.Do(target, func() (interface{}, error) {
		if filesystem.Exists(target) {
			metrics.ThumbnailCacheHits.Inc()
			return nil, nil
		}
		return nil, g.render(sourcePath, target, kind)
	})
	if shared {
		logging.Debug("Thumbnail generation shared for %s", target)
	}
	if err != nil {
		return "", err
	}
	return webPath, nil
}

func (g *Generator) render(sourcePath, target string, kind mediatypes.MediaKind) error {
	start := time.Now()
	kindLabel := kind.String()
	defer func() {
		metrics.ThumbnailGenerationDuration.WithLabelValues(kindLabel).Observe(time.Since(start).Seconds())
	}()

	logging.Debug("Thumbnail generating: %s (type: %s)", sourcePath, kindLabel)

	var (
		thumb image.Image
		err   error
	)
	if kind == mediatypes.KindImage {
		thumb, err = g.imageThumbnail(sourcePath)
	} else {
		thumb, err = g.videoThumbnail(sourcePath)
	}
	if err != nil {
		metrics.ThumbnailGenerationsTotal.WithLabelValues(kindLabel, "error_decode").Inc()
		return err
	}

	err = filesystem.WriteAtomic(target, func(w io.Writer) error {
		return imaging.Encode(w, thumb, imaging.JPEG, imaging.JPEGQuality(JPEGQuality))
	})
	if err != nil {
		metrics.ThumbnailGenerationsTotal.WithLabelValues(kindLabel, "error_write").Inc()
		return fmt.Errorf("%w: %v", ErrEncode, err)
	}

	metrics.ThumbnailGenerationsTotal.WithLabelValues(kindLabel, "success").Inc()
	logging.Debug("Thumbnail written: %s (%dx%d)", target, thumb.Bounds().Dx(), thumb.Bounds().Dy())
	return nil
}

func (g *Generator) imageThumbnail(sourcePath string) (image.Image, error) {
	if g.decoder == nil {
		return nil, fmt.Errorf("%w: no image decoder", decode.ErrDecode)
	}

	img, format, err := g.decoder.Decode(sourcePath)
	metrics.ThumbnailImageDecodeByFormat.WithLabelValues(string(format)).Inc()
	if err != nil {
		return nil, err
	}

	if format != decode.FormatHEIF {
		img = ApplyOrientation(img, g.orientation(sourcePath))
	}

	return imaging.Fit(FlattenOnWhite(img), g.width, g.height, imaging.Lanczos), nil
}

func (g *Generator) videoThumbnail(sourcePath string) (image.Image, error) {
	if g.videos == nil {
		return nil, fmt.Errorf("%w: video decoding not available", decode.ErrUnsupportedFormat)
	}

	capture, err := g.videos.Open(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", decode.ErrDecode, err)
	}
	defer func() {
		if err := capture.Close(); err != nil {
			logging.Warn("failed to close video %s: %v", sourcePath, err)
		}
	}()

	index := video.RepresentativeFrame(capture.FrameCount())
	frame, err := capture.ReadFrame(index)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", decode.ErrDecode, err)
	}

	return ResizeLongSide(frame, max(g.width, g.height)), nil
}

// ApplyOrientation returns img transformed so that it displays upright for the
// given EXIF orientation. Values outside 2..8 return img unchanged.
func ApplyOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.Transpose(img)
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.Transverse(img)
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}

// FlattenOnWhite composites images with transparency onto a white background.
// Opaque images are returned unchanged.
func FlattenOnWhite(img image.Image) image.Image {
	if o, ok := img.(interface{ Opaque() bool }); ok && o.Opaque() {
		return img
	}
	b := img.Bounds()
	bg := imaging.New(b.Dx(), b.Dy(), color.White)
	return imaging.Overlay(bg, img, image.Pt(0, 0), 1.0)
}

// ResizeLongSide scales img so its longer side equals size, keeping the
// aspect ratio.
func ResizeLongSide(img image.Image, size int) image.Image {
	b := img.Bounds()
	if b.Dx() >= b.Dy() {
		return imaging.Resize(img, size, 0, imaging.Lanczos)
	}
	return imaging.Resize(img, 0, size, imaging.Lanczos)
}
