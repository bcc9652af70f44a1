package metadata

import (
	"fmt"
	"os"
	"strings"
	"time"

	"media-processor/internal/decode"
	"media-processor/internal/logging"

	"github.com/bep/imagemeta"
	"github.com/rwcarlsen/goexif/exif"
)

// exifDateLayout is the EXIF DateTimeOriginal layout.
const exifDateLayout = "2006:01:02 15:04:05"

// tagSet is the subset of EXIF the processor uses.
type tagSet struct {
	orientation int
	hasGPS      bool
	latitude    float64
	longitude   float64
	taken       *time.Time
}

// ToDecimalDegrees converts degrees, minutes and seconds to signed decimal
// degrees. ref "S" and "W" give negative values.
func ToDecimalDegrees(deg, min, sec float64, ref string) float64 {
	v := deg + min/60 + sec/3600
	switch strings.ToUpper(strings.TrimSpace(ref)) {
	case "S", "W":
		return -v
	}
	return v
}

// validCoordinates reports whether lat and lon fall inside ±90 / ±180.
func validCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// ReadOrientation returns the EXIF orientation of an image, 1 when absent or
// outside 1..8.
func ReadOrientation(path string) int {
	if o := readTags(path).orientation; o >= 1 && o <= 8 {
		return o
	}
	return 1
}

// readTags reads EXIF with goexif, falling back to imagemeta for containers
// goexif cannot parse (PNG, WebP, HEIF).
func readTags(path string) tagSet {
	tags, err := readWithGoexif(path)
	if err == nil {
		return tags
	}
	logging.Debug("metadata: goexif could not read %s: %v", path, err)

	tags, err = readWithImagemeta(path)
	if err != nil {
		logging.Debug("metadata: no EXIF data in %s: %v", path, err)
	}
	return tags
}

func readWithGoexif(path string) (tags tagSet, err error) {
	file, err := os.Open(path)
	if err != nil {
		return tags, err
	}
	defer file.Close()

	// goexif can panic on malformed IFDs
	defer func() {
		if r := recover(); r != nil {
			tags, err = tagSet{}, fmt.Errorf("goexif panic: %v", r)
		}
	}()

	x, err := exif.Decode(file)
	if err != nil {
		return tags, err
	}

	if tag, err := x.Get(exif.Orientation); err == nil {
		if v, err := tag.Int(0); err == nil {
			tags.orientation = v
		}
	}

	lat, latOK := goexifCoordinate(x, exif.GPSLatitude, exif.GPSLatitudeRef)
	lon, lonOK := goexifCoordinate(x, exif.GPSLongitude, exif.GPSLongitudeRef)
	if latOK && lonOK && validCoordinates(lat, lon) {
		tags.hasGPS, tags.latitude, tags.longitude = true, lat, lon
	}

	if tag, err := x.Get(exif.DateTimeOriginal); err == nil {
		if s, err := tag.StringVal(); err == nil {
			tags.taken = parseExifDate(s)
		}
	}

	return tags, nil
}

// goexifCoordinate reads a degrees/minutes/seconds rational triple and its
// optional hemisphere reference.
func goexifCoordinate(x *exif.Exif, field, refField exif.FieldName) (float64, bool) {
	tag, err := x.Get(field)
	if err != nil || tag.Count < 3 {
		return 0, false
	}

	var parts [3]float64
	for i := range parts {
		num, den, err := tag.Rat2(i)
		if err != nil || den == 0 {
			return 0, false
		}
		parts[i] = float64(num) / float64(den)
	}

	ref := ""
	if refTag, err := x.Get(refField); err == nil {
		ref, _ = refTag.StringVal()
	}
	return ToDecimalDegrees(parts[0], parts[1], parts[2], ref), true
}

// imagemetaFormats maps sniffed containers to the formats imagemeta decodes.
var imagemetaFormats = map[decode.Format]imagemeta.ImageFormat{
	decode.FormatJPEG: imagemeta.JPEG,
	decode.FormatPNG:  imagemeta.PNG,
	decode.FormatWebP: imagemeta.WebP,
	decode.FormatTIFF: imagemeta.TIFF,
	decode.FormatHEIF: imagemeta.HEIF,
}

// wantedEXIF lists the EXIF tags the imagemeta fallback keeps.
var wantedEXIF = map[string]bool{
	"Orientation":      true,
	"DateTimeOriginal": true,
	"GPSLatitude":      true,
	"GPSLatitudeRef":   true,
	"GPSLongitude":     true,
	"GPSLongitudeRef":  true,
}

func readWithImagemeta(path string) (tagSet, error) {
	var tags tagSet

	format, err := decode.SniffFile(path)
	if err != nil {
		return tags, err
	}
	imgFormat, ok := imagemetaFormats[format]
	if !ok {
		return tags, fmt.Errorf("no EXIF reader for %s", format)
	}

	file, err := os.Open(path)
	if err != nil {
		return tags, err
	}
	defer file.Close()

	var found imagemeta.Tags
	_, err = imagemeta.Decode(imagemeta.Options{
		R:           file,
		ImageFormat: imgFormat,
		Sources:     imagemeta.EXIF,
		ShouldHandleTag: func(ti imagemeta.TagInfo) bool {
			return wantedEXIF[ti.Tag]
		},
		HandleTag: func(ti imagemeta.TagInfo) error {
			found.Add(ti)
			return nil
		},
	})
	if err != nil {
		return tags, err
	}

	exifTags := found.EXIF()
	if ti, ok := exifTags["Orientation"]; ok {
		tags.orientation = toInt(ti.Value)
	}
	if lat, lon, err := found.GetLatLong(); err == nil && validCoordinates(lat, lon) && (lat != 0 || lon != 0) {
		tags.hasGPS, tags.latitude, tags.longitude = true, lat, lon
	}
	if ti, ok := exifTags["DateTimeOriginal"]; ok {
		if s, ok := ti.Value.(string); ok {
			tags.taken = parseExifDate(s)
		}
	}

	return tags, nil
}

func parseExifDate(s string) *time.Time {
	s = strings.TrimRight(strings.TrimSpace(s), "\x00")
	t, err := time.Parse(exifDateLayout, s)
	if err != nil {
		return nil
	}
	return &t
}

func toInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case uint16:
		return int(n)
	case uint32:
		return int(n)
	case uint8:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}
