// Package heif decodes HEIC/HEIF photos through libvips (govips).
//
// Call Init once at startup and pass Decode to decode.New. The package needs
// libvips with libheif at build and run time, which is why it is kept apart
// from the pure-Go decode package.
package heif
