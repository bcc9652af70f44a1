package archive

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode"

	"media-processor/internal/filesystem"
	"media-processor/internal/logging"
	"media-processor/internal/metrics"
)

const (
	// DateLayout formats the date prefix of a processed name.
	DateLayout = "2006-01-02"
	// UnknownDate is used when neither a capture date nor an mtime is known.
	UnknownDate = "unknown-date"
	// NoEvent is used when the event label is absent or slugs to nothing.
	NoEvent = "no-event"

	maxSuffix = 10000
)

// ErrNoFreeName is returned when every suffixed name is taken.
var ErrNoFreeName = errors.New("no free processed name")

// Options configures an Archiver.
type Options struct {
	// Dir is where processed copies are written.
	Dir string
	// Mount is the web path prefix Dir is served under.
	Mount  string
	Policy ReplacePolicy
}

// Archiver writes canonically named copies of ingested files.
type Archiver struct {
	dir    string
	mount  string
	policy ReplacePolicy
}

// New creates an Archiver.
func New(opts Options) *Archiver {
	a := &Archiver{dir: opts.Dir, mount: opts.Mount, policy: opts.Policy}
	if a.mount == "" {
		a.mount = "/processed"
	}
	if a.policy == "" {
		a.policy = PolicyKeep
	}
	return a
}

// Policy returns the configured replace policy.
func (a *Archiver) Policy() ReplacePolicy { return a.policy }

// Slug turns an event label into a file name component: lowercase, each
// whitespace rune or '/' or '\' becomes '-', and anything other than letters,
// digits and '-' is dropped. An empty result becomes "no-event".
func Slug(label string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(label) {
		switch {
		case unicode.IsSpace(r), r == '/', r == '\\':
			b.WriteByte('-')
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '-':
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return NoEvent
	}
	return b.String()
}

// DatePart returns the date prefix for src: the capture date if known, else
// the file's modification time, else "unknown-date".
func DatePart(src string, creationDate *time.Time) string {
	if creationDate != nil && !creationDate.IsZero() {
		return creationDate.Format(DateLayout)
	}
	if info, err := os.Stat(src); err == nil {
		return info.ModTime().Format(DateLayout)
	}
	return UnknownDate
}

// ParseDate parses a capture date given as YYYY-MM-DD or RFC 3339. An empty
// string means no date.
func ParseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{DateLayout, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("invalid date %q (want YYYY-MM-DD or RFC 3339)", s)
}

// BaseName returns the unsuffixed processed name, {date}-{event}{ext}.
func BaseName(src string, creationDate *time.Time, eventLabel string) string {
	return DatePart(src, creationDate) + "-" + Slug(eventLabel) + filepath.Ext(src)
}

func suffixed(base string, n int) string {
	if n == 0 {
		return base
	}
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext) + "-" + strconv.Itoa(n) + ext
}

// Archive copies src into the processed directory and returns the web path
// of the copy. ok is false when no copy was written; the cause is logged.
func (a *Archiver) Archive(src string, creationDate *time.Time, eventLabel string) (webPath string, ok bool) {
	webPath, err := a.Copy(src, creationDate, eventLabel)
	if err != nil {
		logging.Warn("Archive failed for %s: %v", src, err)
		return "", false
	}
	return webPath, true
}

// Copy is Archive with the failure cause. Taken names get -1, -2, ...
// suffixes; an existing file is never overwritten.
func (a *Archiver) Copy(src string, creationDate *time.Time, eventLabel string) (string, error) {
	base := BaseName(src, creationDate, eventLabel)

	for n := 0; n < maxSuffix; n++ {
		name := suffixed(base, n)
		err := filesystem.CopyExclusive(src, filepath.Join(a.dir, name))
		if err == nil {
			metrics.ArchiveCopiesTotal.WithLabelValues("success").Inc()
			logging.Debug("Archived %s as %s", src, name)
			return path.Join(a.mount, name), nil
		}
		if !errors.Is(err, fs.ErrExist) {
			metrics.ArchiveCopiesTotal.WithLabelValues("error").Inc()
			return "", err
		}
		metrics.ArchiveCollisions.Inc()
	}

	metrics.ArchiveCopiesTotal.WithLabelValues("error").Inc()
	return "", fmt.Errorf("%s: %w", base, ErrNoFreeName)
}

// Replace archives src and then applies the replace policy to previous, the
// web path (or file path) of the earlier copy. The previous copy is only
// removed under PolicyRemove, only after the new copy is written, and only if
// it lives in the processed directory.
func (a *Archiver) Replace(src string, creationDate *time.Time, eventLabel, previous string) (webPath string, ok bool) {
	webPath, ok = a.Archive(src, creationDate, eventLabel)
	if !ok || previous == "" || a.policy != PolicyRemove {
		return webPath, ok
	}

	target := a.resolve(previous)
	if err := filesystem.RemoveWithin(a.dir, target); err != nil {
		logging.Warn("Could not remove previous copy %s: %v", previous, err)
		return webPath, ok
	}
	metrics.ArchiveRemovedCopies.Inc()
	logging.Debug("Removed previous copy %s", target)
	return webPath, ok
}

// resolve maps a web path under the mount to a file in the processed
// directory. Other paths are returned unchanged for RemoveWithin to confine.
func (a *Archiver) resolve(previous string) string {
	prefix := strings.TrimSuffix(a.mount, "/") + "/"
	if rest, found := strings.CutPrefix(previous, prefix); found {
		return filepath.Join(a.dir, filepath.FromSlash(rest))
	}
	if !filepath.IsAbs(previous) {
		return filepath.Join(a.dir, previous)
	}
	return previous
}
