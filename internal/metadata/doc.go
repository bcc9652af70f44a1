// Package metadata derives dimensions, GPS coordinates, capture date and
// duration from media files.
//
// EXIF is read with goexif, which handles JPEG and TIFF; PNG, WebP and HEIF
// fall back to imagemeta. Extraction never fails as a whole: a field that
// cannot be read is simply left nil.
package metadata
