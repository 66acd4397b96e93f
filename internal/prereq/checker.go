// Package prereq ensures the external tools the pipeline needs are
// available: the uv environment manager, the Python virtualenv, and pip
// build tooling inside it.
package prereq

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/mmstack/mmsetup/internal/executor"
)

// Runner is the subset of the command runner the checks need. The extra
// methods let a discovered uv directory be made visible to subsequent
// commands without mutating the process environment.
type Runner interface {
	Run(ctx context.Context, cmd executor.Command) error
	Probe(ctx context.Context, name string, args ...string) bool
	PrependPath(dir string)
}

// Checker performs the prerequisite checks.
type Checker struct {
	runner     Runner
	python     string // interpreter version for `uv venv`
	venvPython string // path to the virtualenv's interpreter
}

// NewChecker creates a Checker.
func NewChecker(runner Runner, python, venvPython string) *Checker {
	return &Checker{
		runner:     runner,
		python:     python,
		venvPython: venvPython,
	}
}

// EnsureUV makes `uv` runnable. It probes the inherited PATH first, then
// well-known install locations, and finally bootstraps uv with the official
// installer script via curl or wget.
func (c *Checker) EnsureUV(ctx context.Context) error {
	if c.runner.Probe(ctx, "uv", "--version") {
		return nil
	}

	for _, dir := range uvCandidateDirs() {
		if isExecutable(filepath.Join(dir, "uv")) {
			c.runner.PrependPath(dir)
			if c.runner.Probe(ctx, "uv", "--version") {
				return nil
			}
		}
	}

	var install executor.Command
	switch {
	case commandExists("curl"):
		install = executor.Command{
			Label: "install uv",
			Name:  "sh",
			Args:  []string{"-c", "curl -LsSf https://astral.sh/uv/install.sh | sh"},
			Mode:  executor.Quiet,
		}
	case commandExists("wget"):
		install = executor.Command{
			Label: "install uv",
			Name:  "sh",
			Args:  []string{"-c", "wget -qO- https://astral.sh/uv/install.sh | sh"},
			Mode:  executor.Quiet,
		}
	default:
		return errors.New("uv is missing and cannot be auto-installed because neither curl nor wget is available")
	}
	if err := c.runner.Run(ctx, install); err != nil {
		return err
	}

	for _, dir := range uvCandidateDirs() {
		if isExecutable(filepath.Join(dir, "uv")) {
			c.runner.PrependPath(dir)
		}
	}
	if c.runner.Probe(ctx, "uv", "--version") {
		return nil
	}

	return errors.New("uv installation completed but `uv` is still not on PATH; " +
		"source your shell rc or add ~/.local/bin to PATH")
}

// EnsureVenv creates the Python virtual environment if its interpreter is
// missing.
func (c *Checker) EnsureVenv(ctx context.Context) error {
	if _, err := os.Stat(c.venvPython); err == nil {
		return nil
	}
	return c.runner.Run(ctx, executor.Command{
		Label: "create virtual environment",
		Name:  "uv",
		Args:  []string{"venv", "--python", c.python},
		Mode:  executor.Quiet,
	})
}

// EnsurePipTooling installs pip, setuptools and wheel into the virtualenv
// when pip is not importable. setuptools is capped below 81, where the
// build interface the pinned packages rely on was removed.
func (c *Checker) EnsurePipTooling(ctx context.Context) error {
	if c.runner.Probe(ctx, c.venvPython, "-c", "import pip") {
		return nil
	}
	return c.runner.Run(ctx, executor.Command{
		Label: "install pip tooling",
		Name:  "uv",
		Args:  []string{"pip", "install", "--python", c.venvPython, "pip", "setuptools<81", "wheel"},
		Mode:  executor.Quiet,
	})
}

// uvCandidateDirs returns the directories the uv installer is known to
// drop its binary into.
func uvCandidateDirs() []string {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	return []string{
		filepath.Join(home, ".local", "bin"),
		filepath.Join(home, ".cargo", "bin"),
	}
}

// isExecutable reports whether path is a regular file with any execute bit.
func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	return info.Mode().Perm()&0111 != 0
}

// commandExists reports whether name resolves to an executable on PATH.
func commandExists(name string) bool {
	for _, dir := range filepath.SplitList(os.Getenv("PATH")) {
		if dir == "" {
			continue
		}
		if isExecutable(filepath.Join(dir, name)) {
			return true
		}
	}
	return false
}
