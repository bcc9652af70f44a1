package classify

import (
	"errors"
	"fmt"
	"image"
	"runtime/debug"
	"sync"
	"time"

	"media-processor/internal/decode"
	"media-processor/internal/logging"
	"media-processor/internal/metrics"
)

// UnknownLabel is reported whenever no event can be assigned.
const UnknownLabel = "unknown"

// ErrModelLoad wraps every model loading failure.
var ErrModelLoad = errors.New("model load failed")

// Result is the outcome of classifying one image.
type Result struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Backend    string  `json:"backend"`
}

// Unknown returns the failure result for a backend.
func Unknown(backend string) Result {
	return Result{Label: UnknownLabel, Confidence: 0, Backend: backend}
}

// IsUnknown reports whether r carries no event.
func (r Result) IsUnknown() bool {
	return r.Label == "" || r.Label == UnknownLabel
}

// Classifier assigns an event label to an image. Classify never fails; any
// error yields Unknown.
type Classifier interface {
	Classify(path string) Result
	Backend() string
}

// ImageDecoder decodes image files.
type ImageDecoder interface {
	Decode(path string) (image.Image, decode.Format, error)
}

// lazyModel loads a model on first use. Concurrent first callers wait for a
// single load; a failed load is not remembered, so the next call tries again.
type lazyModel[T any] struct {
	mu      sync.Mutex
	loaded  bool
	value   T
	backend string
	load    func() (T, error)
}

func (l *lazyModel[T]) get() (T, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.loaded {
		return l.value, nil
	}

	start := time.Now()
	v, err := l.load()
	metrics.ModelLoadDuration.WithLabelValues(l.backend).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ModelLoadsTotal.WithLabelValues(l.backend, "error").Inc()
		var zero T
		return zero, fmt.Errorf("%w: %s: %v", ErrModelLoad, l.backend, err)
	}

	metrics.ModelLoadsTotal.WithLabelValues(l.backend, "success").Inc()
	logging.Info("Loaded %s model in %v", l.backend, time.Since(start))
	l.value, l.loaded = v, true
	return v, nil
}

// run executes one classification with timing, metrics and panic recovery.
func run(backend, path string, fn func() (Result, error)) (res Result) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			logging.Error("Classifier %s panicked on %s: %v\n%s", backend, path, r, debug.Stack())
			res = Unknown(backend)
			metrics.ClassificationsTotal.WithLabelValues(backend, "error").Inc()
		}
		metrics.ClassificationDuration.WithLabelValues(backend).Observe(time.Since(start).Seconds())
	}()

	res, err := fn()
	if err != nil {
		logging.Warn("Classification failed for %s (%s): %v", path, backend, err)
		metrics.ClassificationsTotal.WithLabelValues(backend, "error").Inc()
		return Unknown(backend)
	}

	res.Backend = backend
	if res.IsUnknown() {
		res.Label = UnknownLabel
		metrics.ClassificationsTotal.WithLabelValues(backend, "unknown").Inc()
	} else {
		metrics.ClassificationsTotal.WithLabelValues(backend, "labeled").Inc()
		metrics.ClassificationLabels.WithLabelValues(backend, res.Label).Inc()
	}
	logging.Debug("Classified %s as %q (%.3f, %s)", path, res.Label, res.Confidence, backend)
	return res
}
