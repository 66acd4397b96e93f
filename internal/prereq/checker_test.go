package prereq

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mmstack/mmsetup/internal/executor"
)

// fakeRunner scripts probe results and records commands and PATH changes.
// probeFn, when set, overrides the static probes map so a probe result can
// depend on runner state; onRun can simulate a command's side effects.
type fakeRunner struct {
	probes   map[string]bool
	probeFn  func(name string) bool
	onRun    func(cmd executor.Command) error
	commands []executor.Command
	prepends []string
}

func (f *fakeRunner) Run(ctx context.Context, cmd executor.Command) error {
	f.commands = append(f.commands, cmd)
	if f.onRun != nil {
		return f.onRun(cmd)
	}
	return nil
}

func (f *fakeRunner) Probe(ctx context.Context, name string, args ...string) bool {
	if f.probeFn != nil {
		return f.probeFn(name)
	}
	return f.probes[name]
}

func (f *fakeRunner) PrependPath(dir string) {
	f.prepends = append(f.prepends, dir)
}

func TestEnsureUVAlreadyAvailable(t *testing.T) {
	runner := &fakeRunner{probes: map[string]bool{"uv": true}}
	c := NewChecker(runner, "3.12", ".venv/bin/python")

	if err := c.EnsureUV(context.Background()); err != nil {
		t.Fatalf("EnsureUV: %v", err)
	}
	if len(runner.commands) != 0 {
		t.Errorf("unexpected commands: %v", runner.commands)
	}
}

// installFakeUV drops an executable uv stub into dir, creating it first.
func installFakeUV(t *testing.T, dir string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("creating %s: %v", dir, err)
	}
	if err := os.WriteFile(filepath.Join(dir, "uv"), []byte("#!/bin/sh\nexit 0\n"), 0755); err != nil {
		t.Fatalf("writing fake uv: %v", err)
	}
}

func TestEnsureUVFindsExistingCandidateDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	binDir := filepath.Join(home, ".local", "bin")
	installFakeUV(t, binDir)

	runner := &fakeRunner{}
	runner.probeFn = func(name string) bool {
		return name == "uv" && len(runner.prepends) > 0
	}
	c := NewChecker(runner, "3.12", ".venv/bin/python")

	if err := c.EnsureUV(context.Background()); err != nil {
		t.Fatalf("EnsureUV: %v", err)
	}
	if len(runner.prepends) != 1 || runner.prepends[0] != binDir {
		t.Errorf("prepends = %v, want [%s]", runner.prepends, binDir)
	}
	if len(runner.commands) != 0 {
		t.Errorf("unexpected bootstrap: %v", runner.commands)
	}
}

func TestEnsureUVBootstrapsWithCurl(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	tools := t.TempDir()
	if err := os.WriteFile(filepath.Join(tools, "curl"), []byte("#!/bin/sh\n"), 0755); err != nil {
		t.Fatalf("writing curl stub: %v", err)
	}
	t.Setenv("PATH", tools)

	binDir := filepath.Join(home, ".cargo", "bin")
	runner := &fakeRunner{}
	runner.onRun = func(cmd executor.Command) error {
		installFakeUV(t, binDir)
		return nil
	}
	runner.probeFn = func(name string) bool {
		return name == "uv" && len(runner.prepends) > 0
	}
	c := NewChecker(runner, "3.12", ".venv/bin/python")

	if err := c.EnsureUV(context.Background()); err != nil {
		t.Fatalf("EnsureUV: %v", err)
	}
	if len(runner.commands) != 1 {
		t.Fatalf("commands = %v", runner.commands)
	}
	install := runner.commands[0]
	if install.Name != "sh" || !strings.Contains(install.Args[1], "curl -LsSf") {
		t.Errorf("unexpected bootstrap command: %s %v", install.Name, install.Args)
	}
	found := false
	for _, dir := range runner.prepends {
		if dir == binDir {
			found = true
		}
	}
	if !found {
		t.Errorf("install dir not prepended: %v", runner.prepends)
	}
}

func TestEnsureUVBootstrapsWithWgetWhenCurlAbsent(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	tools := t.TempDir()
	if err := os.WriteFile(filepath.Join(tools, "wget"), []byte("#!/bin/sh\n"), 0755); err != nil {
		t.Fatalf("writing wget stub: %v", err)
	}
	t.Setenv("PATH", tools)

	runner := &fakeRunner{}
	c := NewChecker(runner, "3.12", ".venv/bin/python")

	err := c.EnsureUV(context.Background())
	if err == nil || !strings.Contains(err.Error(), "still not on PATH") {
		t.Fatalf("err = %v, want still-not-on-PATH", err)
	}
	if len(runner.commands) != 1 || !strings.Contains(runner.commands[0].Args[1], "wget -qO-") {
		t.Errorf("unexpected bootstrap command: %v", runner.commands)
	}
}

func TestEnsureUVNoDownloaderAvailable(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("PATH", t.TempDir())

	runner := &fakeRunner{}
	c := NewChecker(runner, "3.12", ".venv/bin/python")

	err := c.EnsureUV(context.Background())
	if err == nil || !strings.Contains(err.Error(), "neither curl nor wget") {
		t.Fatalf("err = %v, want neither-curl-nor-wget", err)
	}
	if len(runner.commands) != 0 {
		t.Errorf("unexpected commands: %v", runner.commands)
	}
}

// End to end against the real runner: uv lives outside the inherited PATH
// and must still be runnable once its directory is discovered.
func TestEnsureUVDiscoversInstallOutsidePATH(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	binDir := filepath.Join(home, ".local", "bin")
	installFakeUV(t, binDir)
	t.Setenv("PATH", t.TempDir())

	runner := executor.NewOSRunner(false)
	c := NewChecker(runner, "3.12", ".venv/bin/python")

	if err := c.EnsureUV(context.Background()); err != nil {
		t.Fatalf("EnsureUV: %v", err)
	}
	if len(runner.ExtraPath) != 1 || runner.ExtraPath[0] != binDir {
		t.Errorf("ExtraPath = %v, want [%s]", runner.ExtraPath, binDir)
	}
}

func TestEnsureVenvSkipsWhenInterpreterExists(t *testing.T) {
	dir := t.TempDir()
	python := filepath.Join(dir, "python")
	if err := os.WriteFile(python, []byte("#!/bin/sh\n"), 0755); err != nil {
		t.Fatalf("writing fake python: %v", err)
	}

	runner := &fakeRunner{}
	c := NewChecker(runner, "3.12", python)
	if err := c.EnsureVenv(context.Background()); err != nil {
		t.Fatalf("EnsureVenv: %v", err)
	}
	if len(runner.commands) != 0 {
		t.Errorf("venv was recreated: %v", runner.commands)
	}
}

func TestEnsureVenvCreatesWhenMissing(t *testing.T) {
	runner := &fakeRunner{}
	c := NewChecker(runner, "3.12", filepath.Join(t.TempDir(), "absent", "python"))

	if err := c.EnsureVenv(context.Background()); err != nil {
		t.Fatalf("EnsureVenv: %v", err)
	}
	if len(runner.commands) != 1 {
		t.Fatalf("commands = %v", runner.commands)
	}
	cmd := runner.commands[0]
	if cmd.Name != "uv" || cmd.Args[0] != "venv" {
		t.Errorf("unexpected command: %s %v", cmd.Name, cmd.Args)
	}
}

func TestEnsurePipToolingInstallsWhenMissing(t *testing.T) {
	runner := &fakeRunner{probes: map[string]bool{}}
	c := NewChecker(runner, "3.12", ".venv/bin/python")

	if err := c.EnsurePipTooling(context.Background()); err != nil {
		t.Fatalf("EnsurePipTooling: %v", err)
	}
	if len(runner.commands) != 1 {
		t.Fatalf("commands = %v", runner.commands)
	}

	args := runner.commands[0].Args
	foundCap := false
	for _, a := range args {
		if a == "setuptools<81" {
			foundCap = true
		}
	}
	if !foundCap {
		t.Errorf("setuptools cap missing from %v", args)
	}
}

func TestEnsurePipToolingSkipsWhenImportable(t *testing.T) {
	runner := &fakeRunner{probes: map[string]bool{".venv/bin/python": true}}
	c := NewChecker(runner, "3.12", ".venv/bin/python")

	if err := c.EnsurePipTooling(context.Background()); err != nil {
		t.Fatalf("EnsurePipTooling: %v", err)
	}
	if len(runner.commands) != 0 {
		t.Errorf("pip tooling reinstalled: %v", runner.commands)
	}
}

func TestIsExecutable(t *testing.T) {
	dir := t.TempDir()

	exe := filepath.Join(dir, "uv")
	if err := os.WriteFile(exe, []byte("#!/bin/sh\n"), 0755); err != nil {
		t.Fatalf("writing file: %v", err)
	}
	plain := filepath.Join(dir, "readme")
	if err := os.WriteFile(plain, []byte("text"), 0644); err != nil {
		t.Fatalf("writing file: %v", err)
	}

	if !isExecutable(exe) {
		t.Error("executable file not detected")
	}
	if isExecutable(plain) {
		t.Error("non-executable file detected as executable")
	}
	if isExecutable(filepath.Join(dir, "absent")) {
		t.Error("missing file detected as executable")
	}
	if isExecutable(dir) {
		t.Error("directory detected as executable")
	}
}
