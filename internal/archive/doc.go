// Package archive writes the canonically named processed copy of an ingested
// file: {date}-{event}{ext}, suffixed -1, -2, ... when the name is taken.
// Copies are created exclusively, so an existing file is never overwritten.
package archive
