package wheelhouse

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

const manifestFile = "manifest.json"

// Manifest records the last fully successful provisioning run. It exists
// for reporting only: wheel existence, not the manifest, drives the
// build-if-missing decision.
type Manifest struct {
	ID          string            `json:"id"`
	CompletedAt time.Time         `json:"completed_at"`
	Packages    map[string]string `json:"packages"` // name -> pinned version
}

// NewManifest creates a manifest for a run that just completed.
func NewManifest(packages map[string]string) *Manifest {
	return &Manifest{
		ID:          uuid.New().String(),
		CompletedAt: time.Now().UTC(),
		Packages:    packages,
	}
}

// SaveManifest writes the manifest into the wheelhouse directory.
func (w *Wheelhouse) SaveManifest(m *Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	path := filepath.Join(w.dir, manifestFile)
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write manifest %s: %w", path, err)
	}
	return nil
}

// LoadManifest reads the manifest from the wheelhouse directory. A missing
// manifest returns (nil, nil): the wheelhouse may predate manifests or the
// pipeline may never have completed.
func (w *Wheelhouse) LoadManifest() (*Manifest, error) {
	path := filepath.Join(w.dir, manifestFile)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	return &m, nil
}
