package filesystem

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// ErrOutsideDirectory is returned by RemoveWithin when the target path does
// not live inside the given directory.
var ErrOutsideDirectory = errors.New("path is outside the permitted directory")

// tempPath returns a hidden, uniquely named sibling of dst.
func tempPath(dst string) string {
	return filepath.Join(filepath.Dir(dst), "."+filepath.Base(dst)+"."+uuid.NewString()+".tmp")
}

// WriteAtomic streams write's output to a temporary file next to dst and
// renames it into place, so readers never see a partially written file at dst.
// On any error the temporary file is removed and dst is untouched.
func WriteAtomic(dst string, write func(w io.Writer) error) (err error) {
	done := track("write", dst)
	defer func() { done(err) }()

	tmp := tempPath(dst)
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	if err = write(f); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err = f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err = os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}

// CopyExclusive copies src to dst, creating dst with O_EXCL. It returns an
// error satisfying errors.Is(err, fs.ErrExist) when dst is already taken, so
// two concurrent callers can never overwrite each other. A partial dst left by
// a failed copy is removed.
func CopyExclusive(src, dst string) (err error) {
	done := track("copy", dst)
	defer func() { done(err) }()

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}

	if _, err = io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return fmt.Errorf("copy bytes: %w", err)
	}
	if err = out.Close(); err != nil {
		_ = os.Remove(dst)
		return fmt.Errorf("close destination: %w", err)
	}
	return nil
}

// RemoveWithin removes path only if it resolves to a regular file inside dir.
// A missing file is not an error.
func RemoveWithin(dir, path string) (err error) {
	done := track("remove", path)
	defer func() { done(err) }()

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if rel, ok := relWithin(absDir, absPath); !ok || rel == "." {
		return fmt.Errorf("%s: %w", path, ErrOutsideDirectory)
	}

	info, err := os.Lstat(absPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s is not a regular file", path)
	}
	return os.Remove(absPath)
}

// Exists reports whether path exists. Errors other than "not exist" count as
// existing so callers don't clobber files they can't inspect.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, os.ErrNotExist)
}
