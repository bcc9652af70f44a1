// Package mediatypes resolves the MediaKind of an ingested file.
//
// It has no dependencies beyond the standard library so every pipeline stage
// can import it without cycles.
//
// # Kinds
//
//	mediatypes.KindImage       // still images, HEIC/HEIF included
//	mediatypes.KindVideo       // video streams
//	mediatypes.KindUnsupported // everything else; stages short-circuit
//
// # Resolution
//
// ResolveKind looks at the declared MIME type first:
//
//	kind := mediatypes.ResolveKind("image/jpeg", "/uploads/a.jpg") // KindImage
//	kind = mediatypes.ResolveKind("video/quicktime", "IMG_1.HEIC") // KindImage
//	kind = mediatypes.ResolveKind("", "clip.mp4")                  // KindVideo
//
// The .heic/.heif extension always wins over the MIME. An empty or
// application/octet-stream MIME falls back to the extension tables.
package mediatypes
