package indexer

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"media-processor/internal/logging"
	"media-processor/internal/mediatypes"

	"github.com/facette/natsort"
)

// Options controls what Scan returns.
type Options struct {
	// SkipHidden skips files and directories starting with "."
	SkipHidden bool
	// Recursive descends into subdirectories.
	Recursive bool
	// IncludeUnsupported also returns files of no known media kind.
	IncludeUnsupported bool
	// Exclude lists directories that are never entered.
	Exclude []string
}

// DefaultOptions returns a recursive scan that skips hidden entries.
func DefaultOptions() Options {
	return Options{SkipHidden: true, Recursive: true}
}

// File is one discovered file.
type File struct {
	Path string
	MIME string
	Kind mediatypes.MediaKind
	Size int64
}

// Scan walks root and returns the media files found, in natural path order
// (IMG_2.jpg before IMG_10.jpg).
func Scan(ctx context.Context, root string, opts Options) ([]File, error) {
	start := time.Now()

	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", root, err)
	}

	excluded := make(map[string]bool, len(opts.Exclude))
	for _, dir := range opts.Exclude {
		if abs, err := filepath.Abs(dir); err == nil {
			excluded[abs] = true
		}
	}

	var files []File
	skipped := 0

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if path == root {
				return err
			}
			logging.Warn("Skipping %s: %v", path, err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		name := d.Name()
		hidden := opts.SkipHidden && path != root && strings.HasPrefix(name, ".")

		if d.IsDir() {
			if path == root {
				return nil
			}
			if hidden || excluded[path] || !opts.Recursive {
				return fs.SkipDir
			}
			return nil
		}

		if hidden || !d.Type().IsRegular() {
			return nil
		}

		ext := mediatypes.Ext(name)
		kind := mediatypes.KindForExtension(ext)
		if kind == mediatypes.KindUnsupported && !opts.IncludeUnsupported {
			skipped++
			return nil
		}

		f := File{Path: path, MIME: mediatypes.GetMimeType(ext), Kind: kind}
		if info, err := d.Info(); err == nil {
			f.Size = info.Size()
		}
		files = append(files, f)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}
	sort.SliceStable(files, func(i, j int) bool {
		return natsort.Compare(files[i].Path, files[j].Path)
	})

	logging.Info("Scanned %s: %d media file(s), %d other file(s) skipped in %v",
		root, len(files), skipped, time.Since(start).Round(time.Millisecond))
	return files, nil
}

// Paths returns the paths of files in order.
func Paths(files []File) []string {
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}
	return paths
}
