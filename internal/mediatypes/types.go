package mediatypes

import (
	"path/filepath"
	"strings"
)

// MediaKind is the single classification of an ingested file. It is computed
// once at the ingestion boundary and passed through every stage.
type MediaKind int

const (
	// KindUnsupported is a file no stage knows how to decode.
	KindUnsupported MediaKind = iota
	// KindImage is a still image, including HEIC/HEIF containers.
	KindImage
	// KindVideo is a video stream.
	KindVideo
)

// String returns the lowercase name used in logs and metric labels.
func (k MediaKind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindVideo:
		return "video"
	default:
		return "unsupported"
	}
}

// ImageExtensions maps file extensions to whether they are supported image formats.
var ImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
	".tiff": true,
	".tif":  true,
	".heic": true,
	".heif": true,
}

// VideoExtensions maps file extensions to whether they are supported video formats.
var VideoExtensions = map[string]bool{
	".mp4":  true,
	".mkv":  true,
	".avi":  true,
	".mov":  true,
	".wmv":  true,
	".flv":  true,
	".webm": true,
	".m4v":  true,
	".mpeg": true,
	".mpg":  true,
	".3gp":  true,
	".ts":   true,
}

// heifExtensions always resolve to KindImage, whatever MIME the client sent.
// Browsers commonly upload HEIC as application/octet-stream or video/quicktime.
var heifExtensions = map[string]bool{
	".heic": true,
	".heif": true,
}

// MimeTypes maps file extensions to their MIME types.
var MimeTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".webp": "image/webp",
	".tiff": "image/tiff",
	".tif":  "image/tiff",
	".heic": "image/heic",
	".heif": "image/heif",

	".mp4":  "video/mp4",
	".mkv":  "video/x-matroska",
	".avi":  "video/x-msvideo",
	".mov":  "video/quicktime",
	".wmv":  "video/x-ms-wmv",
	".flv":  "video/x-flv",
	".webm": "video/webm",
	".m4v":  "video/x-m4v",
	".mpeg": "video/mpeg",
	".mpg":  "video/mpeg",
	".3gp":  "video/3gpp",
	".ts":   "video/mp2t",
}

// Ext returns the lowercase extension of filename including the leading dot.
func Ext(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}

// KindForExtension returns the kind implied by a lowercase extension alone.
func KindForExtension(ext string) MediaKind {
	if ImageExtensions[ext] {
		return KindImage
	}
	if VideoExtensions[ext] {
		return KindVideo
	}
	return KindUnsupported
}

// ResolveKind derives the MediaKind for a stored file from its declared MIME
// type. HEIC/HEIF extensions override the MIME. An empty or generic MIME falls
// back to the extension tables.
func ResolveKind(mimeType, filename string) MediaKind {
	ext := Ext(filename)
	if heifExtensions[ext] {
		return KindImage
	}

	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}

	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return KindImage
	case strings.HasPrefix(mimeType, "video/"):
		return KindVideo
	case mimeType == "" || mimeType == "application/octet-stream":
		return KindForExtension(ext)
	}
	return KindUnsupported
}

// GetMimeType returns the MIME type for a given file extension.
// The extension should be lowercase and include the leading dot (e.g., ".jpg").
// Returns "application/octet-stream" if the extension is not recognized.
func GetMimeType(ext string) string {
	if mime, ok := MimeTypes[ext]; ok {
		return mime
	}
	return "application/octet-stream"
}
