// Package main provides the mediaproc command, the entry point of the media
// processor.
//
// mediaproc runs the ingestion pipeline for files that are already stored on
// disk. For every file it produces a JPEG thumbnail, extracts dimensions,
// duration, GPS coordinates and capture date, classifies the event the scene
// shows and writes a canonically named copy into the processed directory.
//
// # Commands
//
//   - ingest FILE... | --dir DIR: run the pipeline for each file (concurrently,
//     bounded by INGEST_WORKERS) and print the results as JSON
//   - reclassify FILE: classify again, or apply --label, and archive a new copy
//     when the label changed
//   - provision --manifest m.yaml: download pinned model artifacts into
//     MODELS_DIR, verifying each SHA-256
//   - serve: health probes, Prometheus metrics and read-only file servers for
//     the thumbnail and processed directories
//   - config: print the effective configuration and build information
//
// # Environment Variables
//
//   - STORAGE_DIR: base directory for the other directories (default: ./storage)
//   - UPLOADS_DIR, THUMBNAILS_DIR, PROCESSED_DIR, MODELS_DIR: artifact directories
//   - THUMBNAIL_WIDTH, THUMBNAIL_HEIGHT: thumbnail bounding box (default: 200)
//   - AI_MODEL: clip, opencv_dnn or opencv_yolo (default: clip)
//   - CLASSIFIER_CATALOG: YAML file replacing the embedded event catalog
//   - PROCESSED_REPLACE_POLICY: keep or remove the previous copy on reclassify
//   - THUMBNAILS_MOUNT, PROCESSED_MOUNT: web path prefixes of the directories
//   - PORT: serve listen port (default: 8080)
//   - METRICS_ENABLED: expose /metrics (default: true)
//   - LOG_LEVEL: debug, info, warn or error (default: info)
//   - INGEST_WORKERS: pin the batch ingestion worker count
//   - MEMORY_LIMIT, MEMORY_RATIO: derive GOMEMLIMIT from the container limit
//
// A .env file in the working directory is loaded first if present.
//
// # Build Requirements
//
// The binary links libvips (HEIC/HEIF decoding) and OpenCV (video frames and
// DNN inference) through cgo.
package main
