// Package classify assigns a best-effort event label to an image.
//
// Two strategies are available. The embedding strategy compares a CLIP image
// embedding with the text embeddings of the catalog events and reports the
// softmax probability of the closest one. The detection strategy runs an
// object detector and scores weighted categories of expected object classes.
//
// Model inference is abstracted behind ImageEncoder and Detector so that the
// scoring logic has no native dependencies; the OpenCV adapters live in
// internal/vision. Models load lazily on the first call and a failed load is
// retried on the next one. Classify never returns an error: every failure
// yields the unknown label with zero confidence.
package classify
