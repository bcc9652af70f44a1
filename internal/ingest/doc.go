// Package ingest runs the processing pipeline for a stored media file:
// thumbnail, metadata, classification (images only) and the processed copy.
//
// Stages run sequentially and independently. A stage that fails or panics is
// recorded in the result and in the media_processor_stage_total metric, and
// its fields stay empty; the remaining stages still run. Ingest only returns
// an error when the source file itself cannot be read.
package ingest
