// Package wheelhouse manages the build-output directory that holds locally
// built wheel files. A wheel's presence on disk is the only state the
// pipeline consults to decide whether a package needs rebuilding.
package wheelhouse

import (
	"fmt"
	"os"
	"path/filepath"
)

// Wheelhouse wraps the directory wheels are built into.
type Wheelhouse struct {
	dir string
}

// New creates a Wheelhouse for the given directory. The directory is not
// created until Ensure is called.
func New(dir string) *Wheelhouse {
	return &Wheelhouse{dir: dir}
}

// Dir returns the wheelhouse directory path.
func (w *Wheelhouse) Dir() string {
	return w.dir
}

// Ensure creates the wheelhouse directory if it does not exist.
func (w *Wheelhouse) Ensure() error {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return fmt.Errorf("failed to create wheelhouse directory %s: %w", w.dir, err)
	}
	return nil
}

// Has reports whether a built wheel for the exact name and version already
// exists. The trailing wildcard covers the platform/ABI tags in the wheel
// filename, which are not interpreted.
func (w *Wheelhouse) Has(name, version string) (bool, error) {
	pattern := filepath.Join(w.dir, fmt.Sprintf("%s-%s-*.whl", name, version))
	matches, err := filepath.Glob(pattern)
	if err != nil {
		// Only possible with a malformed pattern, which the fixed
		// name/version inputs never produce.
		return false, fmt.Errorf("invalid glob pattern %s: %w", pattern, err)
	}
	return len(matches) > 0, nil
}

// Purge removes the wheelhouse directory and every listed checkout
// directory. Absent directories are ignored.
func (w *Wheelhouse) Purge(checkouts ...string) error {
	if err := RemoveDirIfExists(w.dir); err != nil {
		return err
	}
	for _, dir := range checkouts {
		if err := RemoveDirIfExists(dir); err != nil {
			return err
		}
	}
	return nil
}

// RemoveDirIfExists removes a directory tree, treating absence as success.
func RemoveDirIfExists(dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to remove directory %s: %w", dir, err)
	}
	return nil
}
