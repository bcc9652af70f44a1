// Package indexer discovers stored media files for batch ingestion.
//
// [Scan] walks a directory tree and returns, in natural order, every regular
// file whose extension maps to an image or video kind, with the MIME type the
// extension implies. Hidden files and directories (prefixed with '.') and any
// excluded directory, typically the processor's own output directories, are
// skipped. Unreadable subdirectories are logged and skipped; only an
// unreadable root is an error.
package indexer
