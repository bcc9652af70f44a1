package classify

import (
	"fmt"
	"strings"
)

// Strategy selects the classification backend.
type Strategy int

const (
	// StrategyEmbedding compares a CLIP image embedding against catalog text
	// embeddings.
	StrategyEmbedding Strategy = iota
	// StrategyDetection runs an object detector and scores categories from
	// the detected classes.
	StrategyDetection
)

// Backend identifiers reported in results and metric labels.
const (
	BackendCLIP = "clip"
	BackendYOLO = "yolo"
)

// ParseStrategy maps an AI_MODEL token to a Strategy. "clip" selects the
// embedding backend; "opencv_dnn" and "opencv_yolo" both select detection.
func ParseStrategy(token string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(token)) {
	case "clip":
		return StrategyEmbedding, nil
	case "opencv_dnn", "opencv_yolo":
		return StrategyDetection, nil
	default:
		return 0, fmt.Errorf("unknown classifier %q (want clip, opencv_dnn or opencv_yolo)", token)
	}
}

// Backend returns the backend identifier for the strategy.
func (s Strategy) Backend() string {
	if s == StrategyDetection {
		return BackendYOLO
	}
	return BackendCLIP
}

func (s Strategy) String() string {
	switch s {
	case StrategyEmbedding:
		return "embedding"
	case StrategyDetection:
		return "detection"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// Loaders supplies the model loaders for each strategy.
type Loaders struct {
	Embedding EmbeddingLoader
	Detector  DetectorLoader
}

// New builds the classifier for strategy s. Models are not loaded until the
// first Classify call.
func New(s Strategy, decoder ImageDecoder, catalog *Catalog, loaders Loaders) Classifier {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	if s == StrategyDetection {
		return NewDetection(decoder, catalog.Categories, loaders.Detector)
	}
	return NewEmbedding(decoder, catalog.Events, loaders.Embedding)
}
