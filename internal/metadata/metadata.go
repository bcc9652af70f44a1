package metadata

import (
	"time"

	"media-processor/internal/logging"
	"media-processor/internal/mediatypes"
	"media-processor/internal/video"
)

// Metadata holds the fields derived from a media file. Every field is
// independently optional; nil means the value could not be determined.
type Metadata struct {
	Width        *int       `json:"width,omitempty"`
	Height       *int       `json:"height,omitempty"`
	Duration     *float64   `json:"duration,omitempty"`
	Latitude     *float64   `json:"latitude,omitempty"`
	Longitude    *float64   `json:"longitude,omitempty"`
	CreationDate *time.Time `json:"creation_date,omitempty"`
}

// Dimensioner reports the stored pixel size of an image file, before EXIF
// orientation is applied.
type Dimensioner interface {
	Dimensions(path string) (width, height int, err error)
}

// Extractor derives Metadata from images and videos.
type Extractor struct {
	images Dimensioner
	videos video.Opener
}

// NewExtractor creates an Extractor. videos may be nil, in which case video
// files yield empty Metadata.
func NewExtractor(images Dimensioner, videos video.Opener) *Extractor {
	return &Extractor{images: images, videos: videos}
}

// Extract never fails: each field that cannot be read is left nil.
func (e *Extractor) Extract(path string, kind mediatypes.MediaKind) Metadata {
	switch kind {
	case mediatypes.KindImage:
		return e.extractImage(path)
	case mediatypes.KindVideo:
		return e.extractVideo(path)
	default:
		return Metadata{}
	}
}

func (e *Extractor) extractImage(path string) Metadata {
	var md Metadata

	if e.images != nil {
		if w, h, err := e.images.Dimensions(path); err == nil {
			md.Width, md.Height = &w, &h
		} else {
			logging.Debug("metadata: no dimensions for %s: %v", path, err)
		}
	}

	tags := readTags(path)
	if tags.hasGPS {
		md.Latitude, md.Longitude = &tags.latitude, &tags.longitude
	}
	if tags.taken != nil {
		md.CreationDate = tags.taken
	}

	return md
}

func (e *Extractor) extractVideo(path string) Metadata {
	var md Metadata
	if e.videos == nil {
		return md
	}

	capture, err := e.videos.Open(path)
	if err != nil {
		logging.Warn("metadata: could not open video %s: %v", path, err)
		return md
	}
	defer func() {
		if err := capture.Close(); err != nil {
			logging.Warn("metadata: failed to close video %s: %v", path, err)
		}
	}()

	if w, h := capture.Width(), capture.Height(); w > 0 && h > 0 {
		md.Width, md.Height = &w, &h
	}
	if d, ok := video.Duration(capture.FrameCount(), capture.FPS()); ok {
		md.Duration = &d
	}

	return md
}
