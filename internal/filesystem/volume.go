package filesystem

import (
	"path/filepath"
	"sort"
	"strings"
)

// UnknownVolume labels paths outside every configured directory.
const UnknownVolume = "unknown"

// VolumeResolver labels paths with the configured directory containing them,
// for metric labels. The deepest matching directory wins, so a thumbnails
// directory nested in the storage directory is still labeled "thumbnails".
type VolumeResolver struct {
	dirs []labeledDir
}

type labeledDir struct {
	dir   string
	label string
}

// NewVolumeResolver creates a resolver from label → directory. Empty
// directories are ignored.
func NewVolumeResolver(volumes map[string]string) *VolumeResolver {
	vr := &VolumeResolver{dirs: make([]labeledDir, 0, len(volumes))}
	for label, dir := range volumes {
		if dir == "" {
			continue
		}
		if abs, err := filepath.Abs(dir); err == nil {
			dir = abs
		}
		vr.dirs = append(vr.dirs, labeledDir{dir: filepath.Clean(dir), label: label})
	}
	sort.Slice(vr.dirs, func(i, j int) bool {
		return len(vr.dirs[i].dir) > len(vr.dirs[j].dir)
	})
	return vr
}

// Resolve returns the label for path, or UnknownVolume.
func (vr *VolumeResolver) Resolve(path string) string {
	if vr == nil {
		return UnknownVolume
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return UnknownVolume
	}
	for _, d := range vr.dirs {
		if _, ok := relWithin(d.dir, abs); ok {
			return d.label
		}
	}
	return UnknownVolume
}

// relWithin returns path relative to dir. ok is false when path is outside
// dir. Both must be absolute and clean.
func relWithin(dir, path string) (rel string, ok bool) {
	rel, err := filepath.Rel(dir, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return rel, true
}
