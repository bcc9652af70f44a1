package filesystem

import "testing"

func TestVolumeResolverResolve(t *testing.T) {
	vr := NewVolumeResolver(map[string]string{
		"storage":    "/data",
		"thumbnails": "/data/thumbnails",
		"processed":  "/data/processed",
	})

	tests := []struct {
		path string
		want string
	}{
		{"/data/thumbnails/thumb_a.jpg", "thumbnails"},
		{"/data/processed/2024-01-01-no-event.jpg", "processed"},
		{"/data/processed", "processed"},
		{"/data/uploads/a.jpg", "storage"},
		{"/data/thumbnailsX/a.jpg", "storage"},
		{"/tmp/a.jpg", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := vr.Resolve(tt.path); got != tt.want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestVolumeResolverNil(t *testing.T) {
	var vr *VolumeResolver
	if got := vr.Resolve("/anything"); got != "unknown" {
		t.Errorf("nil resolver Resolve() = %q, want unknown", got)
	}
}

func TestVolumeResolverIgnoresEmptyDirs(t *testing.T) {
	vr := NewVolumeResolver(map[string]string{
		"models":    "",
		"processed": "/data/processed/",
	})

	if got := vr.Resolve("/data/processed/a.jpg"); got != "processed" {
		t.Errorf("Resolve() = %q, want processed", got)
	}
	if got := vr.Resolve("/"); got != UnknownVolume {
		t.Errorf("Resolve(/) = %q, want %s", got, UnknownVolume)
	}
}
