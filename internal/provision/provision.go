package provision

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"media-processor/internal/filesystem"
	"media-processor/internal/logging"
	"media-processor/internal/metrics"
	"media-processor/internal/workers"
)

// ErrChecksum is returned when a downloaded artifact does not match its
// pinned digest.
var ErrChecksum = errors.New("checksum mismatch")

// Status of one artifact after provisioning.
const (
	StatusDownloaded = "downloaded"
	StatusSkipped    = "skipped"
	StatusFailed     = "failed"
)

// Outcome reports what happened to one artifact.
type Outcome struct {
	Name   string
	Status string
	Bytes  int64
	Err    error
}

// Provisioner downloads manifest artifacts into a directory.
type Provisioner struct {
	Dir    string
	Client *http.Client
	// Workers bounds concurrent downloads. Zero uses workers.ForIO(4).
	Workers int
}

// Run provisions every artifact. Artifacts already present with the pinned
// checksum are skipped. Outcomes are returned in manifest order; the error is
// non-nil when any artifact failed.
func (p *Provisioner) Run(ctx context.Context, m *Manifest) ([]Outcome, error) {
	if err := os.MkdirAll(p.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create models dir: %w", err)
	}

	n := p.Workers
	if n <= 0 {
		n = workers.ForIO(4)
	}

	outcomes := make([]Outcome, len(m.Artifacts))
	var (
		mu     sync.Mutex
		failed []string
	)
	// Per-artifact failures go into outcomes; Each never sees an error.
	_ = workers.Each(ctx, n, len(m.Artifacts), func(ctx context.Context, i int) error {
		o := p.provisionOne(ctx, m.Artifacts[i])
		outcomes[i] = o
		metrics.ProvisionArtifactsTotal.WithLabelValues(o.Status).Inc()
		if o.Err != nil {
			mu.Lock()
			failed = append(failed, o.Name)
			mu.Unlock()
		}
		return nil
	})

	if len(failed) > 0 {
		return outcomes, fmt.Errorf("%d artifact(s) failed: %v", len(failed), failed)
	}
	return outcomes, nil
}

func (p *Provisioner) provisionOne(ctx context.Context, a Artifact) Outcome {
	target := filepath.Join(p.Dir, a.Name)

	if sum, err := fileSHA256(target); err == nil && sum == a.SHA256 {
		logging.Debug("provision: %s already present", a.Name)
		return Outcome{Name: a.Name, Status: StatusSkipped}
	}

	start := time.Now()
	n, err := p.download(ctx, a, target)
	if err != nil {
		logging.Error("provision: %s: %v", a.Name, err)
		return Outcome{Name: a.Name, Status: StatusFailed, Err: err}
	}
	logging.Info("provision: downloaded %s (%d bytes) in %v", a.Name, n, time.Since(start))
	return Outcome{Name: a.Name, Status: StatusDownloaded, Bytes: n}
}

// download streams the artifact into place through WriteAtomic, hashing as
// it goes. A checksum mismatch aborts the write so target is never replaced
// by a bad file.
func (p *Provisioner) download(ctx context.Context, a Artifact, target string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.URL, nil)
	if err != nil {
		return 0, err
	}

	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("GET %s: %s", a.URL, resp.Status)
	}

	var written int64
	err = filesystem.WriteAtomic(target, func(w io.Writer) error {
		h := sha256.New()
		n, err := io.Copy(io.MultiWriter(w, h), resp.Body)
		written = n
		if err != nil {
			return fmt.Errorf("download: %w", err)
		}
		if got := hex.EncodeToString(h.Sum(nil)); got != a.SHA256 {
			return fmt.Errorf("%w: got %s, want %s", ErrChecksum, got, a.SHA256)
		}
		return nil
	})
	return written, err
}

func fileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
