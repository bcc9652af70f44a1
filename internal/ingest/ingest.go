package ingest

import (
	"errors"
	"fmt"
	"os"
	"runtime/debug"
	"time"

	"media-processor/internal/classify"
	"media-processor/internal/logging"
	"media-processor/internal/mediatypes"
	"media-processor/internal/metadata"
	"media-processor/internal/metrics"
)

// Stage names used in results, logs and metric labels.
const (
	StageThumbnail = "thumbnail"
	StageMetadata  = "metadata"
	StageClassify  = "classify"
	StageArchive   = "archive"
)

// Stage outcomes.
const (
	StatusSuccess = "success"
	StatusSkipped = "skipped"
	StatusFailed  = "failed"
	StatusPanic   = "panic"
)

// Thumbnailer produces a thumbnail and returns its web path.
type Thumbnailer interface {
	Create(path string, kind mediatypes.MediaKind) (string, error)
}

// MetadataExtractor derives metadata; it never fails.
type MetadataExtractor interface {
	Extract(path string, kind mediatypes.MediaKind) metadata.Metadata
}

// Archiver writes processed copies.
type Archiver interface {
	Copy(src string, creationDate *time.Time, eventLabel string) (string, error)
	Replace(src string, creationDate *time.Time, eventLabel, previous string) (string, bool)
}

// StageResult records how one stage went.
type StageResult struct {
	Stage    string `json:"stage"`
	Status   string `json:"status"`
	Category string `json:"category,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Result holds everything derived from one ingested file. Fields of failed
// stages are left empty.
type Result struct {
	Path           string            `json:"path"`
	Kind           string            `json:"kind"`
	ThumbnailPath  string            `json:"thumbnail_path,omitempty"`
	Metadata       metadata.Metadata `json:"metadata"`
	Classification *classify.Result  `json:"classification,omitempty"`
	ProcessedPath  string            `json:"processed_path,omitempty"`
	Stages         []StageResult     `json:"stages"`
}

// Coordinator runs the ingestion pipeline for stored files.
type Coordinator struct {
	thumbnails Thumbnailer
	metadata   MetadataExtractor
	classifier classify.Classifier
	archiver   Archiver
}

// New creates a Coordinator. A nil classifier disables classification.
func New(thumbnails Thumbnailer, extractor MetadataExtractor, classifier classify.Classifier, archiver Archiver) *Coordinator {
	return &Coordinator{
		thumbnails: thumbnails,
		metadata:   extractor,
		classifier: classifier,
		archiver:   archiver,
	}
}

// checkSource verifies path names a readable regular file.
func checkSource(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSourceUnreadable, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSourceUnreadable, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrSourceUnreadable, path)
	}
	return nil
}

// Ingest derives the thumbnail, metadata, classification (images only) and
// processed copy for a stored file. Stage failures leave their fields empty;
// the only error is ErrSourceUnreadable.
func (c *Coordinator) Ingest(path, mimeType string) (*Result, error) {
	start := time.Now()
	metrics.IngestionsInFlight.Inc()
	defer metrics.IngestionsInFlight.Dec()

	kind := mediatypes.ResolveKind(mimeType, path)
	if err := checkSource(path); err != nil {
		metrics.IngestionsTotal.WithLabelValues(kind.String(), "error").Inc()
		return nil, err
	}

	logging.Debug("Ingesting %s (mime %q, kind %s)", path, mimeType, kind)
	res := &Result{Path: path, Kind: kind.String()}

	c.stage(res, StageThumbnail, kind != mediatypes.KindUnsupported, func() error {
		web, err := c.thumbnails.Create(path, kind)
		if err != nil {
			return err
		}
		res.ThumbnailPath = web
		return nil
	})

	c.stage(res, StageMetadata, kind != mediatypes.KindUnsupported, func() error {
		res.Metadata = c.metadata.Extract(path, kind)
		return nil
	})

	c.stage(res, StageClassify, kind == mediatypes.KindImage && c.classifier != nil, func() error {
		r := c.classifier.Classify(path)
		res.Classification = &r
		return nil
	})

	c.stage(res, StageArchive, true, func() error {
		label := ""
		if res.Classification != nil {
			label = res.Classification.Label
		}
		web, err := c.archiver.Copy(path, res.Metadata.CreationDate, label)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrIOFailure, err)
		}
		res.ProcessedPath = web
		return nil
	})

	metrics.IngestionsTotal.WithLabelValues(kind.String(), "success").Inc()
	metrics.IngestionDuration.WithLabelValues(kind.String()).Observe(time.Since(start).Seconds())
	logging.Info("Ingested %s in %v (thumbnail=%t, processed=%t)",
		path, time.Since(start), res.ThumbnailPath != "", res.ProcessedPath != "")
	return res, nil
}

// stage runs fn unless enabled is false, recovering panics and recording the
// outcome on res and in metrics.
func (c *Coordinator) stage(res *Result, name string, enabled bool, fn func() error) {
	if !enabled {
		res.Stages = append(res.Stages, StageResult{Stage: name, Status: StatusSkipped})
		metrics.StageTotal.WithLabelValues(name, StatusSkipped).Inc()
		return
	}

	start := time.Now()
	sr := StageResult{Stage: name, Status: StatusSuccess}
	func() {
		defer func() {
			if r := recover(); r != nil {
				logging.Error("Stage %s panicked on %s: %v\n%s", name, res.Path, r, debug.Stack())
				sr.Status = StatusPanic
				sr.Error = fmt.Sprint(r)
			}
		}()
		if err := fn(); err != nil {
			sr.Status = StatusFailed
			sr.Category = category(err)
			sr.Error = err.Error()
			logging.Warn("Stage %s failed for %s: %v", name, res.Path, err)
		}
	}()

	metrics.StageDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	metrics.StageTotal.WithLabelValues(name, sr.Status).Inc()
	res.Stages = append(res.Stages, sr)
}

// ReclassifyRequest describes a file to classify again.
type ReclassifyRequest struct {
	Path string
	// CreationDate is the capture date stored with the media record.
	CreationDate *time.Time
	// PreviousLabel is the event label currently stored.
	PreviousLabel string
	// PreviousCopy is the web path of the current processed copy, if any.
	PreviousCopy string
	// Label overrides the classifier when set.
	Label string
}

// ReclassifyResult is the outcome of Reclassify.
type ReclassifyResult struct {
	Classification classify.Result `json:"classification"`
	// ProcessedPath is the new copy, or PreviousCopy when nothing changed.
	ProcessedPath string `json:"processed_path,omitempty"`
	Archived      bool   `json:"archived"`
}

// Reclassify classifies an image again, or applies an explicit label, and
// archives a new copy when the label changed or there was no copy. The
// archiver's replace policy decides what happens to the previous copy.
func (c *Coordinator) Reclassify(req ReclassifyRequest) (*ReclassifyResult, error) {
	if err := checkSource(req.Path); err != nil {
		return nil, err
	}

	res := &ReclassifyResult{ProcessedPath: req.PreviousCopy}
	switch {
	case req.Label != "":
		res.Classification = classify.Result{Label: req.Label, Confidence: 1, Backend: "manual"}
	case c.classifier != nil:
		res.Classification = c.safeClassify(req.Path)
	default:
		return nil, errors.New("no classifier configured")
	}

	if res.Classification.Label == req.PreviousLabel && req.PreviousCopy != "" {
		logging.Debug("Label unchanged for %s (%s), keeping %s", req.Path, req.PreviousLabel, req.PreviousCopy)
		return res, nil
	}

	web, ok := c.archiver.Replace(req.Path, req.CreationDate, res.Classification.Label, req.PreviousCopy)
	metrics.StageTotal.WithLabelValues(StageArchive, statusOf(ok)).Inc()
	if ok {
		res.ProcessedPath = web
		res.Archived = true
	}
	logging.Info("Reclassified %s: %q -> %q", req.Path, req.PreviousLabel, res.Classification.Label)
	return res, nil
}

func (c *Coordinator) safeClassify(path string) (r classify.Result) {
	defer func() {
		if p := recover(); p != nil {
			logging.Error("Classifier panicked on %s: %v", path, p)
			r = classify.Unknown(c.classifier.Backend())
			metrics.StageTotal.WithLabelValues(StageClassify, StatusPanic).Inc()
		}
	}()
	r = c.classifier.Classify(path)
	metrics.StageTotal.WithLabelValues(StageClassify, StatusSuccess).Inc()
	return r
}

func statusOf(ok bool) string {
	if ok {
		return StatusSuccess
	}
	return StatusFailed
}
