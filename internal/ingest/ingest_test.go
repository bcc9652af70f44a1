package ingest

import (
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"math"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"media-processor/internal/archive"
	"media-processor/internal/classify"
	"media-processor/internal/decode"
	"media-processor/internal/exiftest"
	"media-processor/internal/mediatypes"
	"media-processor/internal/metadata"
	"media-processor/internal/thumbnail"
)

var (
	_ Thumbnailer       = (*thumbnail.Generator)(nil)
	_ MetadataExtractor = (*metadata.Extractor)(nil)
	_ Archiver          = (*archive.Archiver)(nil)
)

type countingDecoder struct {
	inner *decode.Decoder
	calls atomic.Int32
}

func (d *countingDecoder) Decode(path string) (image.Image, decode.Format, error) {
	d.calls.Add(1)
	return d.inner.Decode(path)
}

func (d *countingDecoder) Dimensions(path string) (int, int, error) {
	d.calls.Add(1)
	return d.inner.Dimensions(path)
}

type fakeClassifier struct {
	label string
	calls atomic.Int32
	panic bool
}

func (c *fakeClassifier) Classify(string) classify.Result {
	c.calls.Add(1)
	if c.panic {
		panic("classifier exploded")
	}
	return classify.Result{Label: c.label, Confidence: 0.9, Backend: "fake"}
}

func (c *fakeClassifier) Backend() string { return "fake" }

type env struct {
	coord      *Coordinator
	decoder    *countingDecoder
	classifier *fakeClassifier
	thumbs     string
	processed  string
}

func newEnv(t *testing.T, label string, policy archive.ReplacePolicy) *env {
	t.Helper()
	e := &env{
		decoder:    &countingDecoder{inner: decode.New(nil)},
		classifier: &fakeClassifier{label: label},
		thumbs:     t.TempDir(),
		processed:  t.TempDir(),
	}
	gen := thumbnail.New(thumbnail.Options{
		Dir:         e.thumbs,
		Decoder:     e.decoder,
		Orientation: metadata.ReadOrientation,
	})
	e.coord = New(gen, metadata.NewExtractor(e.decoder, nil), e.classifier,
		archive.New(archive.Options{Dir: e.processed, Policy: policy}))
	return e
}

// halfRed is w×h with a red left half and a blue right half.
func halfRed(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.RGBA{B: 255, A: 255}
			if x < w/2 {
				c = color.RGBA{R: 255, A: 255}
			}
			img.Set(x, y, c)
		}
	}
	return img
}

func stageStatuses(res *Result) map[string]string {
	out := make(map[string]string)
	for _, s := range res.Stages {
		out[s.Stage] = s.Status
	}
	return out
}

func TestIngestEndToEnd(t *testing.T) {
	e := newEnv(t, "Beach Day", archive.PolicyKeep)
	src := filepath.Join(t.TempDir(), "IMG_1234.jpg")
	err := exiftest.WriteJPEG(src, halfRed(400, 200), exiftest.Fields{
		Orientation:      6,
		DateTimeOriginal: "2023:07:15 14:30:00",
		GPS: &exiftest.GPS{
			Lat:    [3][2]uint32{{40, 1}, {26, 1}, {46, 1}},
			LatRef: "N",
			Lon:    [3][2]uint32{{73, 1}, {59, 1}, {11, 1}},
			LonRef: "W",
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	res, err := e.coord.Ingest(src, "image/jpeg")
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}

	want := map[string]string{
		StageThumbnail: StatusSuccess,
		StageMetadata:  StatusSuccess,
		StageClassify:  StatusSuccess,
		StageArchive:   StatusSuccess,
	}
	if diff := cmp.Diff(want, stageStatuses(res)); diff != "" {
		t.Errorf("stage statuses mismatch (-want +got):\n%s", diff)
	}

	if res.Kind != mediatypes.KindImage.String() {
		t.Errorf("Kind = %q", res.Kind)
	}
	if res.ThumbnailPath != "/thumbnails/thumb_IMG_1234.jpg" {
		t.Errorf("ThumbnailPath = %q", res.ThumbnailPath)
	}

	f, err := os.Open(filepath.Join(e.thumbs, "thumb_IMG_1234.jpg"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	thumb, err := jpeg.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	if b := thumb.Bounds(); b.Dx() != 100 || b.Dy() != 200 {
		t.Errorf("thumbnail = %dx%d, want 100x200 after rotation", b.Dx(), b.Dy())
	}
	if r, _, b, _ := thumb.At(50, 20).RGBA(); r < b {
		t.Errorf("top of rotated thumbnail should be red, got %v", thumb.At(50, 20))
	}

	md := res.Metadata
	if md.Latitude == nil || math.Abs(*md.Latitude-40.4461) > 1e-4 {
		t.Errorf("Latitude = %v, want ~40.4461", md.Latitude)
	}
	if md.Longitude == nil || math.Abs(*md.Longitude+73.9864) > 1e-4 {
		t.Errorf("Longitude = %v, want ~-73.9864", md.Longitude)
	}
	if md.Width == nil || *md.Width != 400 {
		t.Errorf("Width = %v, want 400", md.Width)
	}

	if res.Classification == nil || res.Classification.Label != "Beach Day" {
		t.Errorf("Classification = %+v", res.Classification)
	}
	if res.ProcessedPath != "/processed/2023-07-15-beach-day.jpg" {
		t.Errorf("ProcessedPath = %q", res.ProcessedPath)
	}
	if _, err := os.Stat(filepath.Join(e.processed, "2023-07-15-beach-day.jpg")); err != nil {
		t.Errorf("processed copy missing: %v", err)
	}
}

func TestIngestUnsupportedNeverDecodes(t *testing.T) {
	e := newEnv(t, "concert", archive.PolicyKeep)
	src := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(src, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	mtime := time.Date(2022, 5, 6, 12, 0, 0, 0, time.Local)
	if err := os.Chtimes(src, mtime, mtime); err != nil {
		t.Fatal(err)
	}

	res, err := e.coord.Ingest(src, "text/plain")
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}

	if got := e.decoder.calls.Load(); got != 0 {
		t.Errorf("decoder calls = %d, want 0", got)
	}
	if got := e.classifier.calls.Load(); got != 0 {
		t.Errorf("classifier calls = %d, want 0", got)
	}

	want := map[string]string{
		StageThumbnail: StatusSkipped,
		StageMetadata:  StatusSkipped,
		StageClassify:  StatusSkipped,
		StageArchive:   StatusSuccess,
	}
	if diff := cmp.Diff(want, stageStatuses(res)); diff != "" {
		t.Errorf("stage statuses mismatch (-want +got):\n%s", diff)
	}
	if res.ThumbnailPath != "" || res.Classification != nil {
		t.Errorf("unexpected derived fields: %+v", res)
	}
	if res.ProcessedPath != "/processed/2022-05-06-no-event.txt" {
		t.Errorf("ProcessedPath = %q", res.ProcessedPath)
	}
}

func TestIngestUnreadableSource(t *testing.T) {
	e := newEnv(t, "concert", archive.PolicyKeep)

	for name, path := range map[string]string{
		"missing":   filepath.Join(t.TempDir(), "gone.jpg"),
		"directory": t.TempDir(),
	} {
		t.Run(name, func(t *testing.T) {
			res, err := e.coord.Ingest(path, "image/jpeg")
			if !errors.Is(err, ErrSourceUnreadable) {
				t.Errorf("Ingest() error = %v, want ErrSourceUnreadable", err)
			}
			if res != nil {
				t.Errorf("Ingest() result = %+v, want nil", res)
			}
		})
	}
}

func TestIngestCorruptImageDegrades(t *testing.T) {
	e := newEnv(t, "concert", archive.PolicyKeep)
	src := filepath.Join(t.TempDir(), "broken.jpg")
	if err := os.WriteFile(src, []byte{0xFF, 0xD8, 0xFF, 0xE0, 0, 0}, 0o644); err != nil {
		t.Fatal(err)
	}

	res, err := e.coord.Ingest(src, "image/jpeg")
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}

	var thumbStage StageResult
	for _, s := range res.Stages {
		if s.Stage == StageThumbnail {
			thumbStage = s
		}
	}
	if thumbStage.Status != StatusFailed || thumbStage.Category != "decode_failure" {
		t.Errorf("thumbnail stage = %+v, want failed/decode_failure", thumbStage)
	}
	if res.ThumbnailPath != "" {
		t.Errorf("ThumbnailPath = %q, want empty", res.ThumbnailPath)
	}
	if res.Metadata.Width != nil {
		t.Errorf("Width = %v, want nil", *res.Metadata.Width)
	}
	if res.ProcessedPath == "" {
		t.Error("archive should still run after earlier stage failures")
	}
}

func TestIngestRecoversStagePanic(t *testing.T) {
	e := newEnv(t, "", archive.PolicyKeep)
	e.classifier.panic = true
	src := filepath.Join(t.TempDir(), "a.jpg")
	if err := exiftest.WriteJPEG(src, halfRed(20, 20), exiftest.Fields{}); err != nil {
		t.Fatal(err)
	}

	res, err := e.coord.Ingest(src, "image/jpeg")
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if got := stageStatuses(res)[StageClassify]; got != StatusPanic {
		t.Errorf("classify status = %q, want panic", got)
	}
	if res.Classification != nil {
		t.Errorf("Classification = %+v, want nil", res.Classification)
	}
	if got := stageStatuses(res)[StageArchive]; got != StatusSuccess {
		t.Errorf("archive status = %q, want success", got)
	}
}

func TestReclassify(t *testing.T) {
	date := time.Date(2023, 7, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name         string
		classifier   string
		policy       archive.ReplacePolicy
		req          ReclassifyRequest
		wantLabel    string
		wantArchived bool
		wantPrevGone bool
	}{
		{
			name:       "label unchanged keeps copy",
			classifier: "concert",
			policy:     archive.PolicyRemove,
			req:        ReclassifyRequest{PreviousLabel: "concert", PreviousCopy: "/processed/2023-07-15-concert.jpg"},
			wantLabel:  "concert",
		},
		{
			name:         "label changed keep policy",
			classifier:   "wedding ceremony",
			policy:       archive.PolicyKeep,
			req:          ReclassifyRequest{PreviousLabel: "concert", PreviousCopy: "/processed/2023-07-15-concert.jpg"},
			wantLabel:    "wedding ceremony",
			wantArchived: true,
		},
		{
			name:         "label changed remove policy",
			classifier:   "wedding ceremony",
			policy:       archive.PolicyRemove,
			req:          ReclassifyRequest{PreviousLabel: "concert", PreviousCopy: "/processed/2023-07-15-concert.jpg"},
			wantLabel:    "wedding ceremony",
			wantArchived: true,
			wantPrevGone: true,
		},
		{
			name:         "explicit label",
			classifier:   "concert",
			policy:       archive.PolicyKeep,
			req:          ReclassifyRequest{PreviousLabel: "concert", PreviousCopy: "/processed/2023-07-15-concert.jpg", Label: "city tour"},
			wantLabel:    "city tour",
			wantArchived: true,
		},
		{
			name:         "no previous copy",
			classifier:   "concert",
			policy:       archive.PolicyKeep,
			req:          ReclassifyRequest{PreviousLabel: "concert"},
			wantLabel:    "concert",
			wantArchived: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t, tt.classifier, tt.policy)
			src := filepath.Join(t.TempDir(), "a.jpg")
			if err := exiftest.WriteJPEG(src, halfRed(10, 10), exiftest.Fields{}); err != nil {
				t.Fatal(err)
			}
			prev := filepath.Join(e.processed, "2023-07-15-concert.jpg")
			if err := os.WriteFile(prev, []byte("old"), 0o644); err != nil {
				t.Fatal(err)
			}

			req := tt.req
			req.Path = src
			req.CreationDate = &date
			res, err := e.coord.Reclassify(req)
			if err != nil {
				t.Fatalf("Reclassify() error = %v", err)
			}

			if res.Classification.Label != tt.wantLabel {
				t.Errorf("label = %q, want %q", res.Classification.Label, tt.wantLabel)
			}
			if res.Archived != tt.wantArchived {
				t.Errorf("Archived = %v, want %v", res.Archived, tt.wantArchived)
			}
			if !tt.wantArchived && res.ProcessedPath != tt.req.PreviousCopy {
				t.Errorf("ProcessedPath = %q, want previous %q", res.ProcessedPath, tt.req.PreviousCopy)
			}
			if tt.wantArchived && res.ProcessedPath == tt.req.PreviousCopy {
				t.Errorf("ProcessedPath was not updated")
			}

			_, statErr := os.Stat(prev)
			if gone := os.IsNotExist(statErr); gone != tt.wantPrevGone {
				t.Errorf("previous copy removed = %v, want %v", gone, tt.wantPrevGone)
			}
		})
	}
}

func TestReclassifyUnreadable(t *testing.T) {
	e := newEnv(t, "concert", archive.PolicyKeep)
	_, err := e.coord.Reclassify(ReclassifyRequest{Path: filepath.Join(t.TempDir(), "gone.jpg")})
	if !errors.Is(err, ErrSourceUnreadable) {
		t.Errorf("Reclassify() error = %v, want ErrSourceUnreadable", err)
	}
}

func TestCategory(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{decode.ErrUnsupportedFormat, "unsupported_format"},
		{decode.ErrDecode, "decode_failure"},
		{classify.ErrModelLoad, "model_load_failure"},
		{ErrIOFailure, "io_failure"},
		{errors.New("other"), "io_failure"},
	}
	for _, tt := range tests {
		if got := category(tt.err); got != tt.want {
			t.Errorf("category(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
