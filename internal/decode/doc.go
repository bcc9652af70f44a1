// Package decode identifies image containers by their magic bytes and decodes
// them to image.Image.
//
// JPEG, PNG, GIF, WebP, BMP and TIFF are decoded in pure Go. HEIC/HEIF goes
// through a HEIFFunc supplied by the caller (see package heif), so this
// package and its tests never link libvips.
package decode
