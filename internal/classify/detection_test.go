package classify

import (
	"image"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestScoreDetections(t *testing.T) {
	single := []Category{{Event: "concert", Weight: 0.5, Classes: []string{"person"}}}
	table := []Category{
		{Event: "sports event", Weight: 1.2, Classes: []string{"sports ball", "person", "baseball bat"}},
		{Event: "family gathering", Weight: 0.8, Classes: []string{"person", "diningtable"}},
	}

	tests := []struct {
		name       string
		dets       DetectionSet
		categories []Category
		wantLabel  string
		wantConf   float64
	}{
		{
			name:       "no detections",
			categories: table,
			wantLabel:  UnknownLabel,
			wantConf:   0,
		},
		{
			name:       "just below floor",
			dets:       DetectionSet{{Class: "person", Confidence: 0.58}},
			categories: single,
			wantLabel:  UnknownLabel,
			wantConf:   0.58,
		},
		{
			name:       "just above floor",
			dets:       DetectionSet{{Class: "person", Confidence: 0.62}},
			categories: single,
			wantLabel:  "concert",
			wantConf:   0.31,
		},
		{
			name:       "no matching category",
			dets:       DetectionSet{{Class: "toaster", Confidence: 0.9}, {Class: "oven", Confidence: 0.7}},
			categories: table,
			wantLabel:  UnknownLabel,
			wantConf:   0.9,
		},
		{
			name: "diversity bonus",
			dets: DetectionSet{
				{Class: "sports ball", Confidence: 0.6},
				{Class: "person", Confidence: 0.8},
			},
			categories: table,
			wantLabel:  "sports event",
			// (0.6+0.8)*1.2*1.15
			wantConf: 1.932,
		},
		{
			name: "repeated class counts once for bonus",
			dets: DetectionSet{
				{Class: "person", Confidence: 0.7},
				{Class: "person", Confidence: 0.7},
				{Class: "diningtable", Confidence: 0.9},
			},
			categories: []Category{table[1]},
			wantLabel:  "family gathering",
			// (0.7+0.7+0.9)*0.8*1.15
			wantConf: 2.116,
		},
		{
			name:       "tie goes to first category",
			dets:       DetectionSet{{Class: "person", Confidence: 0.9}},
			categories: []Category{{Event: "a", Weight: 1, Classes: []string{"person"}}, {Event: "b", Weight: 1, Classes: []string{"person"}}},
			wantLabel:  "a",
			wantConf:   0.9,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			label, conf := ScoreDetections(tt.dets, tt.categories)
			if label != tt.wantLabel {
				t.Errorf("label = %q, want %q", label, tt.wantLabel)
			}
			if math.Abs(conf-tt.wantConf) > 1e-9 {
				t.Errorf("confidence = %v, want %v", conf, tt.wantConf)
			}
		})
	}
}

func TestDiversityMultiplierCapped(t *testing.T) {
	classes := []string{"a", "b", "c", "d", "e", "f", "g"}
	cat := []Category{{Event: "many", Weight: 1, Classes: classes}}

	var dets DetectionSet
	for _, c := range classes {
		dets = append(dets, Detection{Class: c, Confidence: 0.6})
	}

	_, conf := ScoreDetections(dets, cat)
	want := 0.6 * 7 * (1 + 0.15*4)
	if math.Abs(conf-want) > 1e-9 {
		t.Errorf("confidence = %v, want %v", conf, want)
	}
}

func TestParseYOLOOutput(t *testing.T) {
	labels := []string{"person", "dog", "cat"}
	rows := [][]float32{
		{0.5, 0.5, 0.2, 0.4, 0.9, 0.8, 0.1, 0.0},
		// overlaps the first person box, lower score
		{0.51, 0.5, 0.2, 0.4, 0.9, 0.7, 0.1, 0.0},
		{0.1, 0.1, 0.1, 0.1, 0.9, 0.0, 0.0, 0.55},
		// below threshold
		{0.8, 0.8, 0.1, 0.1, 0.9, 0.3, 0.4, 0.2},
		// exactly the threshold is dropped
		{0.8, 0.2, 0.1, 0.1, 0.9, 0.0, 0.5, 0.0},
		{0.1},
	}

	got := ParseYOLOOutput(rows, labels, 100, 100, DetectionThreshold)

	var classes []string
	for _, d := range got {
		classes = append(classes, d.Class)
		if d.Confidence <= DetectionThreshold {
			t.Errorf("kept %s with confidence %v", d.Class, d.Confidence)
		}
	}
	if diff := cmp.Diff([]string{"person", "cat"}, classes); diff != "" {
		t.Errorf("classes mismatch (-want +got):\n%s", diff)
	}

	if want := image.Rect(40, 30, 60, 70); got[0].Box != want {
		t.Errorf("person box = %v, want %v", got[0].Box, want)
	}
	if want := image.Rect(5, 5, 15, 15); got[1].Box != want {
		t.Errorf("cat box = %v, want %v", got[1].Box, want)
	}
}

func TestParseYOLOOutputRoundsCorners(t *testing.T) {
	tests := []struct {
		name string
		row  []float32
		w, h int
		want image.Rectangle
	}{
		{"tenths on 100px", []float32{0.3, 0.7, 0.2, 0.2, 1, 0.9}, 100, 100, image.Rect(20, 60, 40, 80)},
		{"odd frame size", []float32{0.5, 0.5, 0.1, 0.3, 1, 0.9}, 640, 480, image.Rect(288, 168, 352, 312)},
		{"quarter pixel offsets", []float32{0.5, 0.5, 0.25, 0.25, 1, 0.9}, 10, 10, image.Rect(4, 4, 6, 6)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseYOLOOutput([][]float32{tt.row}, []string{"person"}, tt.w, tt.h, DetectionThreshold)
			if len(got) != 1 {
				t.Fatalf("got %d detections, want 1", len(got))
			}
			if got[0].Box != tt.want {
				t.Errorf("box = %v, want %v", got[0].Box, tt.want)
			}
		})
	}
}

func TestNMS(t *testing.T) {
	dets := DetectionSet{
		{Class: "person", Confidence: 0.6, Box: image.Rect(0, 0, 10, 10)},
		{Class: "person", Confidence: 0.9, Box: image.Rect(1, 1, 11, 11)},
		{Class: "dog", Confidence: 0.7, Box: image.Rect(1, 1, 11, 11)},
		{Class: "person", Confidence: 0.8, Box: image.Rect(50, 50, 60, 60)},
	}

	got := NMS(dets, NMSThreshold)
	want := DetectionSet{dets[1], dets[3], dets[2]}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("NMS mismatch (-want +got):\n%s", diff)
	}
}

func TestIoU(t *testing.T) {
	tests := []struct {
		name string
		a, b image.Rectangle
		want float64
	}{
		{"identical", image.Rect(0, 0, 10, 10), image.Rect(0, 0, 10, 10), 1},
		{"disjoint", image.Rect(0, 0, 10, 10), image.Rect(20, 20, 30, 30), 0},
		{"half", image.Rect(0, 0, 10, 10), image.Rect(5, 0, 15, 10), 50.0 / 150.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IoU(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("IoU = %v, want %v", got, tt.want)
			}
		})
	}
}
