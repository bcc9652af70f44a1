package provision

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Artifact is one file to download into the models directory.
type Artifact struct {
	// Name is the file name inside the models directory.
	Name   string `yaml:"name"`
	URL    string `yaml:"url"`
	SHA256 string `yaml:"sha256"`
}

// Manifest lists the model artifacts to provision.
type Manifest struct {
	Artifacts []Artifact `yaml:"artifacts"`
}

// LoadManifest reads and validates a YAML manifest.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return ParseManifest(data)
}

// ParseManifest decodes and validates a YAML manifest.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks every artifact has a plain file name, an http(s) URL and a
// 64 character hex SHA-256. Names must be unique.
func (m *Manifest) Validate() error {
	if len(m.Artifacts) == 0 {
		return errors.New("manifest has no artifacts")
	}
	seen := make(map[string]bool, len(m.Artifacts))
	for i := range m.Artifacts {
		a := &m.Artifacts[i]
		a.SHA256 = strings.ToLower(strings.TrimSpace(a.SHA256))

		if a.Name == "" || a.Name != filepath.Base(a.Name) || a.Name == "." || a.Name == ".." {
			return fmt.Errorf("artifact %d: invalid name %q", i, a.Name)
		}
		if seen[a.Name] {
			return fmt.Errorf("artifact %q listed twice", a.Name)
		}
		seen[a.Name] = true

		if !strings.HasPrefix(a.URL, "https://") && !strings.HasPrefix(a.URL, "http://") {
			return fmt.Errorf("artifact %q: url must be http or https", a.Name)
		}
		if b, err := hex.DecodeString(a.SHA256); err != nil || len(b) != 32 {
			return fmt.Errorf("artifact %q: sha256 must be 64 hex characters", a.Name)
		}
	}
	return nil
}
