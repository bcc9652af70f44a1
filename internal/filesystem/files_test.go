package filesystem

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

type recordingObserver struct {
	mu  sync.Mutex
	ops []string
}

func (r *recordingObserver) ObserveOperation(volume, operation string, _ float64, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	status := "ok"
	if err != nil {
		status = "error"
	}
	r.ops = append(r.ops, volume+":"+operation+":"+status)
}

func TestWriteAtomic(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "thumb_a.jpg")

	err := WriteAtomic(dst, func(w io.Writer) error {
		_, err := w.Write([]byte("jpeg bytes"))
		return err
	})
	if err != nil {
		t.Fatalf("WriteAtomic() error = %v", err)
	}

	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(data) != "jpeg bytes" {
		t.Errorf("content = %q, want %q", data, "jpeg bytes")
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("directory has %d entries, want 1 (temp file left behind?)", len(entries))
	}
}

func TestWriteAtomicFailureLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "thumb_a.jpg")
	boom := errors.New("encode failed")

	err := WriteAtomic(dst, func(w io.Writer) error {
		_, _ = w.Write([]byte("partial"))
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WriteAtomic() error = %v, want %v", err, boom)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("directory has %d entries after failure, want 0", len(entries))
	}
}

func TestWriteAtomicReplacesExisting(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "thumb_a.jpg")
	if err := os.WriteFile(dst, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := WriteAtomic(dst, func(w io.Writer) error {
		_, err := io.WriteString(w, "new")
		return err
	}); err != nil {
		t.Fatalf("WriteAtomic() error = %v", err)
	}

	data, _ := os.ReadFile(dst)
	if string(data) != "new" {
		t.Errorf("content = %q, want %q", data, "new")
	}
}

func TestCopyExclusive(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.jpg")
	dst := filepath.Join(dir, "2024-06-01-beach-day.jpg")
	if err := os.WriteFile(src, []byte("original"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := CopyExclusive(src, dst); err != nil {
		t.Fatalf("CopyExclusive() error = %v", err)
	}
	data, _ := os.ReadFile(dst)
	if string(data) != "original" {
		t.Errorf("copied content = %q, want %q", data, "original")
	}

	err := CopyExclusive(src, dst)
	if !errors.Is(err, fs.ErrExist) {
		t.Errorf("second CopyExclusive() error = %v, want fs.ErrExist", err)
	}
}

func TestCopyExclusiveMissingSource(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "out.jpg")

	if err := CopyExclusive(filepath.Join(dir, "missing.jpg"), dst); err == nil {
		t.Fatal("CopyExclusive() expected error for missing source")
	}
	if Exists(dst) {
		t.Error("destination should not be created when the source is missing")
	}
}

func TestRemoveWithin(t *testing.T) {
	root := t.TempDir()
	processed := filepath.Join(root, "processed")
	if err := os.MkdirAll(processed, 0o755); err != nil {
		t.Fatal(err)
	}
	inside := filepath.Join(processed, "old.jpg")
	outside := filepath.Join(root, "keep.jpg")
	for _, p := range []string{inside, outside} {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		name    string
		path    string
		wantErr error
		gone    bool
	}{
		{name: "file inside", path: inside, gone: true},
		{name: "missing file inside", path: filepath.Join(processed, "nope.jpg")},
		{name: "file outside", path: outside, wantErr: ErrOutsideDirectory},
		{name: "traversal", path: filepath.Join(processed, "..", "keep.jpg"), wantErr: ErrOutsideDirectory},
		{name: "directory itself", path: processed, wantErr: ErrOutsideDirectory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := RemoveWithin(processed, tt.path)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("RemoveWithin() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("RemoveWithin() error = %v", err)
			}
			if tt.gone && Exists(tt.path) {
				t.Errorf("%s still exists", tt.path)
			}
		})
	}

	if !Exists(outside) {
		t.Error("file outside the directory was removed")
	}
}

func TestObserverReceivesOperations(t *testing.T) {
	dir := t.TempDir()
	rec := &recordingObserver{}
	SetObserver(rec)
	SetDefaultVolumeResolver(NewVolumeResolver(map[string]string{"thumbnails": dir}))
	t.Cleanup(func() {
		SetObserver(nil)
		SetDefaultVolumeResolver(nil)
	})

	_ = WriteAtomic(filepath.Join(dir, "a.jpg"), func(w io.Writer) error { return nil })
	_ = CopyExclusive(filepath.Join(dir, "missing"), filepath.Join(dir, "b.jpg"))

	got := strings.Join(rec.ops, ",")
	want := "thumbnails:write:ok,thumbnails:copy:error"
	if got != want {
		t.Errorf("observed = %q, want %q", got, want)
	}
}
