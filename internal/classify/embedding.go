package classify

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// LogitScale is the CLIP temperature applied to cosine similarities.
const LogitScale = 100.0

// CLIPInputSize is the square side of the CLIP image encoder input.
const CLIPInputSize = 224

var (
	clipMean = [3]float32{0.48145466, 0.4578275, 0.40821073}
	clipStd  = [3]float32{0.26862954, 0.26130258, 0.27577711}
)

// ImageEncoder maps an image to an embedding vector.
type ImageEncoder interface {
	EncodeImage(img image.Image) ([]float32, error)
}

// EmbeddingModel is everything the embedding strategy needs: the image
// encoder and the text embeddings of the catalog prompts.
type EmbeddingModel struct {
	Encoder ImageEncoder
	Text    map[string][]float32
}

// EmbeddingLoader loads an EmbeddingModel.
type EmbeddingLoader func() (*EmbeddingModel, error)

type embeddingState struct {
	encoder ImageEncoder
	text    [][]float32 // normalized, aligned with events
}

// EmbeddingClassifier labels an image with the catalog event whose text
// embedding is closest to the image embedding.
type EmbeddingClassifier struct {
	decoder ImageDecoder
	events  []string
	model   lazyModel[*embeddingState]
}

// NewEmbedding creates an embedding-similarity classifier over events. The
// model is loaded on the first Classify call.
func NewEmbedding(decoder ImageDecoder, events []string, load EmbeddingLoader) *EmbeddingClassifier {
	c := &EmbeddingClassifier{decoder: decoder, events: events}
	c.model = lazyModel[*embeddingState]{
		backend: BackendCLIP,
		load: func() (*embeddingState, error) {
			m, err := load()
			if err != nil {
				return nil, err
			}
			return prepareText(m, events)
		},
	}
	return c
}

func prepareText(m *EmbeddingModel, events []string) (*embeddingState, error) {
	if m == nil || m.Encoder == nil {
		return nil, errors.New("embedding model has no image encoder")
	}
	if len(events) == 0 {
		return nil, errors.New("event catalog is empty")
	}

	text := make([][]float32, len(events))
	for i, event := range events {
		v, ok := m.Text[event]
		if !ok {
			return nil, fmt.Errorf("no text embedding for %q", event)
		}
		n, err := L2Normalize(v)
		if err != nil {
			return nil, fmt.Errorf("text embedding for %q: %w", event, err)
		}
		if i > 0 && len(n) != len(text[0]) {
			return nil, fmt.Errorf("text embedding for %q has %d dims, want %d", event, len(n), len(text[0]))
		}
		text[i] = n
	}
	return &embeddingState{encoder: m.Encoder, text: text}, nil
}

// Backend returns the backend identifier.
func (c *EmbeddingClassifier) Backend() string { return BackendCLIP }

// Classify returns the most probable catalog event and its softmax
// probability.
func (c *EmbeddingClassifier) Classify(path string) Result {
	return run(BackendCLIP, path, func() (Result, error) {
		state, err := c.model.get()
		if err != nil {
			return Result{}, err
		}

		img, _, err := c.decoder.Decode(path)
		if err != nil {
			return Result{}, err
		}

		emb, err := state.encoder.EncodeImage(img)
		if err != nil {
			return Result{}, fmt.Errorf("encode image: %w", err)
		}
		emb, err = L2Normalize(emb)
		if err != nil {
			return Result{}, fmt.Errorf("image embedding: %w", err)
		}

		logits := make([]float64, len(state.text))
		for i, t := range state.text {
			if len(t) != len(emb) {
				return Result{}, fmt.Errorf("image embedding has %d dims, text has %d", len(emb), len(t))
			}
			logits[i] = LogitScale * dot(emb, t)
		}

		probs := Softmax(logits)
		best := argmax(probs)
		return Result{Label: c.events[best], Confidence: probs[best]}, nil
	})
}

// L2Normalize returns v scaled to unit length. A zero vector is an error.
func L2Normalize(v []float32) ([]float32, error) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 || math.IsNaN(sum) || math.IsInf(sum, 0) {
		return nil, errors.New("vector cannot be normalized")
	}
	norm := math.Sqrt(sum)
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out, nil
}

func dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}

// Softmax converts logits to probabilities that sum to 1.
func Softmax(logits []float64) []float64 {
	if len(logits) == 0 {
		return nil
	}
	maxLogit := logits[0]
	for _, l := range logits[1:] {
		maxLogit = math.Max(maxLogit, l)
	}

	out := make([]float64, len(logits))
	var sum float64
	for i, l := range logits {
		out[i] = math.Exp(l - maxLogit)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// argmax returns the index of the largest value; ties go to the first.
func argmax(v []float64) int {
	best := 0
	for i := 1; i < len(v); i++ {
		if v[i] > v[best] {
			best = i
		}
	}
	return best
}

// PrepareCLIPInput resizes img so its short side is 224 with bicubic
// resampling, center-crops 224×224 and returns the mean/std normalized pixels
// as a 1×3×224×224 NCHW float32 tensor in RGB order.
func PrepareCLIPInput(img image.Image) []float32 {
	b := img.Bounds()
	var resized image.Image
	if b.Dx() <= b.Dy() {
		resized = imaging.Resize(img, CLIPInputSize, 0, imaging.CatmullRom)
	} else {
		resized = imaging.Resize(img, 0, CLIPInputSize, imaging.CatmullRom)
	}
	crop := imaging.CropCenter(resized, CLIPInputSize, CLIPInputSize)

	const plane = CLIPInputSize * CLIPInputSize
	out := make([]float32, 3*plane)
	for y := 0; y < CLIPInputSize; y++ {
		for x := 0; x < CLIPInputSize; x++ {
			i := crop.PixOffset(x, y)
			p := y*CLIPInputSize + x
			for c := 0; c < 3; c++ {
				v := float32(crop.Pix[i+c]) / 255
				out[c*plane+p] = (v - clipMean[c]) / clipStd[c]
			}
		}
	}
	return out
}
