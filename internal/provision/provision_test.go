package provision

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
)

func digest(data string) string {
	sum := sha256.Sum256([]byte(data))
	return hex.EncodeToString(sum[:])
}

func newServer(t *testing.T, files map[string]string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		body, ok := files[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestRun(t *testing.T) {
	srv, hits := newServer(t, map[string]string{
		"/coco.names":  "person\nbicycle\n",
		"/yolov3.cfg":  "[net]\n",
		"/corrupt.bin": "tampered",
	})
	dir := t.TempDir()

	m := &Manifest{Artifacts: []Artifact{
		{Name: "coco.names", URL: srv.URL + "/coco.names", SHA256: digest("person\nbicycle\n")},
		{Name: "yolov3.cfg", URL: srv.URL + "/yolov3.cfg", SHA256: digest("[net]\n")},
		{Name: "corrupt.bin", URL: srv.URL + "/corrupt.bin", SHA256: digest("original")},
		{Name: "missing.bin", URL: srv.URL + "/missing.bin", SHA256: digest("x")},
	}}
	if err := m.Validate(); err != nil {
		t.Fatal(err)
	}

	p := &Provisioner{Dir: dir, Client: srv.Client(), Workers: 2}
	outcomes, err := p.Run(context.Background(), m)
	if err == nil {
		t.Fatal("expected error for failed artifacts")
	}

	want := []string{StatusDownloaded, StatusDownloaded, StatusFailed, StatusFailed}
	for i, o := range outcomes {
		if o.Status != want[i] {
			t.Errorf("%s: status = %s, want %s (err %v)", o.Name, o.Status, want[i], o.Err)
		}
	}
	if !errors.Is(outcomes[2].Err, ErrChecksum) {
		t.Errorf("corrupt.bin err = %v, want ErrChecksum", outcomes[2].Err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "coco.names"))
	if err != nil || string(data) != "person\nbicycle\n" {
		t.Errorf("coco.names = %q, %v", data, err)
	}
	if _, err := os.Stat(filepath.Join(dir, "corrupt.bin")); !os.IsNotExist(err) {
		t.Errorf("corrupt artifact should not be written, stat err = %v", err)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 2 {
		t.Errorf("models dir has %d entries, want 2 (no temp files)", len(entries))
	}

	// Second run skips what is already present.
	before := hits.Load()
	outcomes, err = p.Run(context.Background(), &Manifest{Artifacts: m.Artifacts[:2]})
	if err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	for _, o := range outcomes {
		if o.Status != StatusSkipped {
			t.Errorf("%s: status = %s, want skipped", o.Name, o.Status)
		}
	}
	if hits.Load() != before {
		t.Errorf("second run made %d requests, want 0", hits.Load()-before)
	}
}

func TestRunReplacesStaleFile(t *testing.T) {
	srv, _ := newServer(t, map[string]string{"/model.onnx": "new weights"})
	dir := t.TempDir()
	target := filepath.Join(dir, "model.onnx")
	if err := os.WriteFile(target, []byte("old weights"), 0o644); err != nil {
		t.Fatal(err)
	}

	p := &Provisioner{Dir: dir, Client: srv.Client()}
	outcomes, err := p.Run(context.Background(), &Manifest{Artifacts: []Artifact{
		{Name: "model.onnx", URL: srv.URL + "/model.onnx", SHA256: digest("new weights")},
	}})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if outcomes[0].Status != StatusDownloaded || outcomes[0].Bytes != int64(len("new weights")) {
		t.Errorf("outcome = %+v", outcomes[0])
	}
	if data, _ := os.ReadFile(target); string(data) != "new weights" {
		t.Errorf("model.onnx = %q", data)
	}
}

func TestParseManifest(t *testing.T) {
	sum := digest("x")
	tests := []struct {
		name    string
		yaml    string
		wantErr bool
	}{
		{"valid", "artifacts:\n  - name: a.bin\n    url: https://example.com/a\n    sha256: " + sum + "\n", false},
		{"uppercase digest", "artifacts:\n  - name: a.bin\n    url: https://example.com/a\n    sha256: \"" + upper(sum) + "\"\n", false},
		{"empty", "artifacts: []\n", true},
		{"path in name", "artifacts:\n  - name: ../a.bin\n    url: https://example.com/a\n    sha256: " + sum + "\n", true},
		{"bad scheme", "artifacts:\n  - name: a.bin\n    url: ftp://example.com/a\n    sha256: " + sum + "\n", true},
		{"short digest", "artifacts:\n  - name: a.bin\n    url: https://example.com/a\n    sha256: abc\n", true},
		{"duplicate", "artifacts:\n  - name: a.bin\n    url: https://example.com/a\n    sha256: " + sum + "\n  - name: a.bin\n    url: https://example.com/b\n    sha256: " + sum + "\n", true},
		{"bad yaml", "artifacts: [\n", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := ParseManifest([]byte(tt.yaml))
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseManifest() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && m.Artifacts[0].SHA256 != sum {
				t.Errorf("digest not normalized: %q", m.Artifacts[0].SHA256)
			}
		})
	}
}

func upper(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'f' {
			b[i] = c - 'a' + 'A'
		}
	}
	return string(b)
}

func TestLoadManifest(t *testing.T) {
	if _, err := LoadManifest(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing manifest")
	}
}
