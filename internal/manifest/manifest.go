// Package manifest discovers declarative widget manifests. Each widget
// lives in its own directory under the widgets dir with a `widget.yaml`
// describing the window it declares; the daemon materializes every
// discovered widget at startup and follows the directory for changes.
package manifest

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/aurapanel/aurapanel/internal/model"
)

// FileName is the manifest file looked for inside each widget directory.
const FileName = "widget.yaml"

// Manifest declares one widget window.
type Manifest struct {
	ID      string `yaml:"id"`
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Kind selects the window-config defaults: "bar" or "float".
	Kind model.Kind `yaml:"kind"`

	Position model.Position      `yaml:"position"`
	Window   *model.WindowConfig `yaml:"window"`

	// Entry overrides the URL the window loads; empty uses the
	// coordinator origin with the window's role parameters.
	Entry string `yaml:"entry"`
}

// Validate rejects manifests the controllers would choke on later.
func (m *Manifest) Validate() error {
	if m.ID == "" {
		return fmt.Errorf("manifest missing id")
	}
	switch m.Kind {
	case "", model.KindBar, model.KindFloat:
	default:
		return fmt.Errorf("manifest %s: unknown kind %q", m.ID, m.Kind)
	}
	return nil
}

// Flags resolves the effective window configuration.
func (m *Manifest) Flags() model.WindowConfig {
	kind := m.Kind
	if kind == "" {
		kind = model.KindFloat
	}
	if m.Window != nil {
		return *m.Window
	}
	return model.DefaultWindowConfig(kind)
}

// Load reads and validates a single manifest file.
func Load(path string) (*Manifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	if m.Version == "" {
		m.Version = "0.1.0"
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Discover walks the widgets directory and returns every valid manifest,
// sorted by id. Directories without a manifest are skipped; unparsable
// manifests are logged and skipped so one broken widget cannot take the
// rest down.
func Discover(dir string, logger *slog.Logger) ([]Manifest, error) {
	if logger == nil {
		logger = slog.Default()
	}

	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create widgets dir: %w", err)
		}
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read widgets dir: %w", err)
	}

	var manifests []Manifest
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name(), FileName)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		m, err := Load(path)
		if err != nil {
			logger.Warn("skipping widget manifest", "path", path, "error", err)
			continue
		}
		manifests = append(manifests, *m)
	}

	sort.Slice(manifests, func(i, j int) bool { return manifests[i].ID < manifests[j].ID })
	return manifests, nil
}
