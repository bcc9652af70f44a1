package vision

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"media-processor/internal/classify"
)

// Artifact file names inside the models directory.
const (
	CLIPImageModelFile     = "clip-vit-b32-image.onnx"
	CLIPTextEmbeddingsFile = "clip-vit-b32-text-embeddings.json"
	YOLOConfigFile         = "yolov3.cfg"
	YOLOWeightsFile        = "yolov3.weights"
	YOLONamesFile          = "coco.names"
)

// Layout locates model artifacts in a models directory.
type Layout struct {
	Dir string
}

func (l Layout) path(name string) string { return filepath.Join(l.Dir, name) }

// CLIPImageModel returns the ONNX image encoder path.
func (l Layout) CLIPImageModel() string { return l.path(CLIPImageModelFile) }

// CLIPTextEmbeddings returns the text embeddings path.
func (l Layout) CLIPTextEmbeddings() string { return l.path(CLIPTextEmbeddingsFile) }

// YOLOConfig returns the darknet cfg path.
func (l Layout) YOLOConfig() string { return l.path(YOLOConfigFile) }

// YOLOWeights returns the darknet weights path.
func (l Layout) YOLOWeights() string { return l.path(YOLOWeightsFile) }

// YOLONames returns the class names path.
func (l Layout) YOLONames() string { return l.path(YOLONamesFile) }

// Required lists the artifacts a strategy needs.
func (l Layout) Required(s classify.Strategy) []string {
	if s == classify.StrategyDetection {
		return []string{l.YOLOConfig(), l.YOLOWeights(), l.YOLONames()}
	}
	return []string{l.CLIPImageModel(), l.CLIPTextEmbeddings()}
}

// Missing returns the required artifacts that are not regular files.
func (l Layout) Missing(s classify.Strategy) []string {
	var missing []string
	for _, p := range l.Required(s) {
		info, err := os.Stat(p)
		if err != nil || !info.Mode().IsRegular() {
			missing = append(missing, p)
		}
	}
	return missing
}

// ReadLabels reads one class name per line, skipping blank lines.
func ReadLabels(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open labels: %w", err)
	}
	defer f.Close()

	var labels []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			labels = append(labels, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read labels: %w", err)
	}
	if len(labels) == 0 {
		return nil, errors.New("labels file is empty")
	}
	return labels, nil
}

// ReadTextEmbeddings reads a JSON object mapping each prompt to its text
// embedding. Every vector must have the same non-zero length.
func ReadTextEmbeddings(path string) (map[string][]float32, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read text embeddings: %w", err)
	}

	var m map[string][]float32
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse text embeddings: %w", err)
	}
	if len(m) == 0 {
		return nil, errors.New("text embeddings file is empty")
	}

	dim := -1
	for prompt, v := range m {
		if len(v) == 0 {
			return nil, fmt.Errorf("empty embedding for %q", prompt)
		}
		if dim >= 0 && len(v) != dim {
			return nil, fmt.Errorf("embedding for %q has %d dims, want %d", prompt, len(v), dim)
		}
		dim = len(v)
	}
	return m, nil
}
