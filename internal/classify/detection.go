package classify

import (
	"fmt"
	"image"
	"math"
	"sort"
)

const (
	// DetectionThreshold is the minimum class score kept from detector output.
	DetectionThreshold = 0.5
	// NMSThreshold is the IoU above which overlapping boxes of the same
	// class are suppressed.
	NMSThreshold = 0.45
	// ScoreFloor is the category score at or below which the result is unknown.
	ScoreFloor = 0.3

	diversityBonus = 0.15
	diversityCap   = 5
)

// Detection is one detected object.
type Detection struct {
	Class      string
	Confidence float64
	Box        image.Rectangle
}

// DetectionSet is the detector output for one image, each confidence above
// DetectionThreshold.
type DetectionSet []Detection

// Detector finds objects in an image.
type Detector interface {
	Detect(img image.Image) (DetectionSet, error)
}

// DetectorLoader loads a Detector.
type DetectorLoader func() (Detector, error)

// DetectionClassifier scores catalog categories from detected objects.
type DetectionClassifier struct {
	decoder    ImageDecoder
	categories []Category
	detector   lazyModel[Detector]
}

// NewDetection creates an object-detection classifier. The detector is
// loaded on the first Classify call.
func NewDetection(decoder ImageDecoder, categories []Category, load DetectorLoader) *DetectionClassifier {
	return &DetectionClassifier{
		decoder:    decoder,
		categories: categories,
		detector:   lazyModel[Detector]{backend: BackendYOLO, load: load},
	}
}

// Backend returns the backend identifier.
func (c *DetectionClassifier) Backend() string { return BackendYOLO }

// Classify detects objects and returns the best scoring category.
func (c *DetectionClassifier) Classify(path string) Result {
	return run(BackendYOLO, path, func() (Result, error) {
		det, err := c.detector.get()
		if err != nil {
			return Result{}, err
		}

		img, _, err := c.decoder.Decode(path)
		if err != nil {
			return Result{}, err
		}

		dets, err := det.Detect(img)
		if err != nil {
			return Result{}, fmt.Errorf("detect: %w", err)
		}

		label, conf := ScoreDetections(dets, c.categories)
		return Result{Label: label, Confidence: conf}, nil
	})
}

// ScoreDetections scores every category as the weighted sum of matching
// detection confidences, boosted by 15% for each distinct matching class
// beyond the first (up to five). The best category wins, ties going to the
// earlier one. A best score at or below ScoreFloor yields unknown with the
// highest raw detection confidence.
func ScoreDetections(dets DetectionSet, categories []Category) (string, float64) {
	bestLabel, bestScore := "", 0.0
	for _, cat := range categories {
		classes := make(map[string]bool, len(cat.Classes))
		for _, cl := range cat.Classes {
			classes[cl] = true
		}

		score := 0.0
		distinct := make(map[string]bool)
		for _, d := range dets {
			if classes[d.Class] {
				score += d.Confidence * cat.Weight
				distinct[d.Class] = true
			}
		}
		if len(distinct) > 0 {
			score *= 1 + diversityBonus*float64(min(len(distinct), diversityCap)-1)
		}
		if score > bestScore {
			bestLabel, bestScore = cat.Event, score
		}
	}

	if bestScore <= ScoreFloor {
		maxRaw := 0.0
		for _, d := range dets {
			maxRaw = max(maxRaw, d.Confidence)
		}
		return UnknownLabel, maxRaw
	}
	return bestLabel, bestScore
}

// ParseYOLOOutput converts darknet YOLO output rows into detections. Each row
// holds the normalized center x, center y, width, height, objectness and then
// one score per label. A row is kept when its best class score exceeds
// threshold. Overlapping boxes are then reduced with per-class NMS.
func ParseYOLOOutput(rows [][]float32, labels []string, imgW, imgH int, threshold float64) DetectionSet {
	var out DetectionSet
	for _, row := range rows {
		if len(row) <= 5 {
			continue
		}
		scores := row[5:]
		best := 0
		for i := 1; i < len(scores); i++ {
			if scores[i] > scores[best] {
				best = i
			}
		}
		conf := float64(scores[best])
		if conf <= threshold || best >= len(labels) {
			continue
		}

		cx, cy := float64(row[0])*float64(imgW), float64(row[1])*float64(imgH)
		w, h := float64(row[2])*float64(imgW), float64(row[3])*float64(imgH)
		// float32 outputs land just off whole pixels; round, don't truncate
		out = append(out, Detection{
			Class:      labels[best],
			Confidence: conf,
			Box:        image.Rect(roundPx(cx-w/2), roundPx(cy-h/2), roundPx(cx+w/2), roundPx(cy+h/2)),
		})
	}
	return NMS(out, NMSThreshold)
}

func roundPx(v float64) int { return int(math.Round(v)) }

// NMS keeps the most confident box of every group of same-class boxes
// overlapping by more than iouThreshold. The result is ordered by confidence.
func NMS(dets DetectionSet, iouThreshold float64) DetectionSet {
	sorted := make(DetectionSet, len(dets))
	copy(sorted, dets)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Confidence > sorted[j].Confidence
	})

	kept := make(DetectionSet, 0, len(sorted))
	for _, d := range sorted {
		suppressed := false
		for _, k := range kept {
			if k.Class == d.Class && IoU(k.Box, d.Box) > iouThreshold {
				suppressed = true
				break
			}
		}
		if !suppressed {
			kept = append(kept, d)
		}
	}
	return kept
}

// IoU returns the intersection over union of two rectangles.
func IoU(a, b image.Rectangle) float64 {
	inter := a.Intersect(b)
	if inter.Empty() {
		return 0
	}
	ia := float64(inter.Dx() * inter.Dy())
	union := float64(a.Dx()*a.Dy()+b.Dx()*b.Dy()) - ia
	if union <= 0 {
		return 0
	}
	return ia / union
}
