package trace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Sentinel manifest validation errors.
var (
	ErrManifestNoEvents = errors.New("trace: manifest lacks an events path")
	ErrManifestNoMemory = errors.New("trace: manifest lacks a memory path")
)

// Manifest describes a recorded trace session: where its event log and
// memory-usage series live, plus an optional human label. Relative paths
// are resolved against the manifest's own directory.
type Manifest struct {
	Events string `yaml:"events"`
	Memory string `yaml:"memory"`
	Label  string `yaml:"label,omitempty"`
}

// LoadManifest reads and validates a YAML trace manifest, resolving
// relative paths against the manifest directory.
func LoadManifest(path string) (Manifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("trace: read manifest %s: %w", path, err)
	}

	var m Manifest

	err = yaml.Unmarshal(raw, &m)
	if err != nil {
		return Manifest{}, fmt.Errorf("trace: parse manifest %s: %w", path, err)
	}

	if m.Events == "" {
		return Manifest{}, ErrManifestNoEvents
	}

	if m.Memory == "" {
		return Manifest{}, ErrManifestNoMemory
	}

	dir := filepath.Dir(path)

	if !filepath.IsAbs(m.Events) {
		m.Events = filepath.Join(dir, m.Events)
	}

	if !filepath.IsAbs(m.Memory) {
		m.Memory = filepath.Join(dir, m.Memory)
	}

	return m, nil
}
