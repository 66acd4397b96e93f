package wheelhouse

import (
	"os"
	"path/filepath"
	"testing"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatalf("touch %s: %v", path, err)
	}
}

func TestHas(t *testing.T) {
	dir := t.TempDir()
	w := New(dir)
	touch(t, filepath.Join(dir, "mmcv-2.1.0-cp312-cp312-linux_x86_64.whl"))

	tests := []struct {
		name    string
		version string
		want    bool
	}{
		{"mmcv", "2.1.0", true},
		{"mmcv", "2.1.1", false},
		{"mmaction2", "2.1.0", false},
		{"mm", "2.1.0", false},
	}

	for _, tt := range tests {
		got, err := w.Has(tt.name, tt.version)
		if err != nil {
			t.Fatalf("Has(%s, %s): %v", tt.name, tt.version, err)
		}
		if got != tt.want {
			t.Errorf("Has(%s, %s) = %v, want %v", tt.name, tt.version, got, tt.want)
		}
	}
}

func TestHasEmptyDir(t *testing.T) {
	w := New(filepath.Join(t.TempDir(), "missing"))
	got, err := w.Has("mmcv", "2.1.0")
	if err != nil {
		t.Fatalf("Has: %v", err)
	}
	if got {
		t.Error("Has reported a wheel in a nonexistent directory")
	}
}

func TestEnsureAndPurge(t *testing.T) {
	base := t.TempDir()
	whDir := filepath.Join(base, ".wheelhouse")
	checkout := filepath.Join(base, ".mmcv")

	w := New(whDir)
	if err := w.Ensure(); err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(checkout, ".git"), 0755); err != nil {
		t.Fatalf("mkdir checkout: %v", err)
	}
	touch(t, filepath.Join(whDir, "mmcv-2.1.0-any.whl"))

	// Purge removes both, and purging again with everything absent is fine.
	for i := 0; i < 2; i++ {
		if err := w.Purge(checkout); err != nil {
			t.Fatalf("Purge (pass %d): %v", i+1, err)
		}
	}
	for _, dir := range []string{whDir, checkout} {
		if _, err := os.Stat(dir); !os.IsNotExist(err) {
			t.Errorf("%s still exists after purge", dir)
		}
	}
}

func TestManifestRoundTrip(t *testing.T) {
	w := New(t.TempDir())

	m := NewManifest(map[string]string{"mmcv": "2.1.0", "mmengine": "0.10.7"})
	if m.ID == "" {
		t.Fatal("manifest ID is empty")
	}
	if err := w.SaveManifest(m); err != nil {
		t.Fatalf("SaveManifest: %v", err)
	}

	loaded, err := w.LoadManifest()
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	if loaded == nil {
		t.Fatal("LoadManifest returned nil for saved manifest")
	}
	if loaded.ID != m.ID {
		t.Errorf("ID = %s, want %s", loaded.ID, m.ID)
	}
	if loaded.Packages["mmengine"] != "0.10.7" {
		t.Errorf("Packages = %v", loaded.Packages)
	}
}

func TestLoadManifestMissing(t *testing.T) {
	w := New(t.TempDir())
	m, err := w.LoadManifest()
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	if m != nil {
		t.Errorf("expected nil manifest, got %+v", m)
	}
}
