package packages

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/mmstack/mmsetup/internal/executor"
	"github.com/mmstack/mmsetup/internal/wheelhouse"
)

// Provisioner builds and installs managed packages. Each package goes
// through: artifact check -> (clean, clone, strip metadata, patch, build)
// -> install. The build phase is skipped entirely when a wheel for the
// exact name and version already exists.
type Provisioner struct {
	runner     executor.Runner
	wheels     *wheelhouse.Wheelhouse
	venvPython string
}

// NewProvisioner creates a Provisioner.
func NewProvisioner(runner executor.Runner, wheels *wheelhouse.Wheelhouse, venvPython string) *Provisioner {
	return &Provisioner{
		runner:     runner,
		wheels:     wheels,
		venvPython: venvPython,
	}
}

// Provision ensures the package is built and installed. Any failure is
// terminal for the whole pipeline; nothing is retried.
func (p *Provisioner) Provision(ctx context.Context, spec Spec) error {
	built, err := p.wheels.Has(spec.Name, spec.Version)
	if err != nil {
		return err
	}
	if !built {
		if err := p.build(ctx, spec); err != nil {
			return err
		}
	}
	return p.install(ctx, spec)
}

// build produces the package's wheel from a fresh patched checkout.
func (p *Provisioner) build(ctx context.Context, spec Spec) error {
	if err := wheelhouse.RemoveDirIfExists(spec.Dir); err != nil {
		return err
	}

	clone := executor.Command{
		Label: "clone " + spec.Name,
		Name:  "git",
		Args:  []string{"clone", "--depth", "1", "--branch", spec.Tag(), spec.Repo, spec.Dir},
		Mode:  executor.Quiet,
	}
	if err := p.runner.Run(ctx, clone); err != nil {
		return err
	}

	// The build tool must not treat the checkout as a nested repository.
	if err := wheelhouse.RemoveDirIfExists(filepath.Join(spec.Dir, ".git")); err != nil {
		return err
	}

	for _, op := range spec.Patches {
		if err := op.Apply(filepath.Join(spec.Dir, op.File)); err != nil {
			return fmt.Errorf("patch %s: %w", spec.Name, err)
		}
	}

	wheel := executor.Command{
		Label: "build " + spec.Name + " wheel",
		Name:  p.venvPython,
		Args: []string{
			"-m", "pip", "wheel", "-v",
			"./" + spec.Dir,
			"--no-deps",
			"--no-build-isolation",
			"--wheel-dir", p.wheels.Dir(),
		},
		Mode: executor.Quiet,
	}
	return p.runner.Run(ctx, wheel)
}

// install installs the locally built wheel into the virtualenv. The index
// is disabled so the installer can only ever resolve to the wheelhouse,
// never a remote substitute.
func (p *Provisioner) install(ctx context.Context, spec Spec) error {
	install := executor.Command{
		Label: "install " + spec.Name,
		Name:  "uv",
		Args: []string{
			"pip", "install", "-v",
			"--python", p.venvPython,
			"--no-deps",
			"--no-index",
			"--find-links", p.wheels.Dir(),
			spec.Requirement(),
		},
		Mode: executor.Quiet,
	}
	return p.runner.Run(ctx, install)
}
