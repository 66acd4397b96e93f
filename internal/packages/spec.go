// Package packages defines the three managed packages and the provisioning
// state machine that builds and installs each one.
package packages

import (
	"path/filepath"

	"github.com/mmstack/mmsetup/internal/patch"
)

// Pinned versions of the managed packages. Each selects both the git tag to
// clone (v<version>) and the wheel filename expected in the wheelhouse.
const (
	MMCVVersion     = "2.1.0"
	MMActionVersion = "1.2.0"
	MMEngineVersion = "0.10.7"
)

// PatchOp is one source rewrite applied to a fresh checkout before building.
type PatchOp struct {
	// File is the target path relative to the checkout directory.
	File string
	// Apply rewrites the resolved file in place.
	Apply func(path string) error
}

// Spec describes one managed package. Specs are immutable and defined once
// at process start.
type Spec struct {
	Name    string
	Version string
	Repo    string
	Dir     string // local checkout directory
	Patches []PatchOp
}

// Tag returns the pinned git tag for the package.
func (s Spec) Tag() string {
	return "v" + s.Version
}

// Requirement returns the exact pip requirement string for the package.
func (s Spec) Requirement() string {
	return s.Name + "==" + s.Version
}

// Specs returns the managed packages in build order. mmcv must precede
// mmaction2 and mmengine, matching the upstream stack's expectations.
func Specs() []Spec {
	versionGetter := func(version string) func(string) error {
		return func(path string) error {
			return patch.RewriteVersionGetter(path, version)
		}
	}

	return []Spec{
		{
			Name:    "mmcv",
			Version: MMCVVersion,
			Repo:    "https://github.com/open-mmlab/mmcv.git",
			Dir:     ".mmcv",
		},
		{
			Name:    "mmaction2",
			Version: MMActionVersion,
			Repo:    "https://github.com/open-mmlab/mmaction2.git",
			Dir:     ".mmaction2",
			Patches: []PatchOp{
				{File: filepath.Join("mmaction", "apis", "inference.py"), Apply: patch.InjectTorchLoadWeightsOnly},
				{File: "setup.py", Apply: versionGetter(MMActionVersion)},
			},
		},
		{
			Name:    "mmengine",
			Version: MMEngineVersion,
			Repo:    "https://github.com/open-mmlab/mmengine",
			Dir:     ".mmengine",
			Patches: []PatchOp{
				{File: "setup.py", Apply: versionGetter(MMEngineVersion)},
				{File: filepath.Join("mmengine", "runner", "checkpoint.py"), Apply: patch.InjectTorchLoadWeightsOnly},
			},
		},
	}
}

// CheckoutDirs returns the checkout directories of all managed packages.
func CheckoutDirs() []string {
	specs := Specs()
	dirs := make([]string, 0, len(specs))
	for _, s := range specs {
		dirs = append(dirs, s.Dir)
	}
	return dirs
}

// Versions returns the name -> pinned version map of all managed packages.
func Versions() map[string]string {
	specs := Specs()
	versions := make(map[string]string, len(specs))
	for _, s := range specs {
		versions[s.Name] = s.Version
	}
	return versions
}
