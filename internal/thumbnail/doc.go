// Package thumbnail renders bounded JPEG previews of images and videos.
//
// Images are decoded, turned upright from their EXIF orientation, flattened
// onto white and fitted into the configured box without upscaling. Videos
// contribute the frame a quarter of the way in, scaled so its longer side
// matches the box. Thumbnails are named thumb_{stem}.jpg, written atomically
// and never regenerated once present.
package thumbnail
