// Package executor runs the external commands the provisioning pipeline
// depends on (git, uv, the virtualenv's python) with a dual output policy:
// quiet steps capture output and dump it only on failure, streamed steps
// inherit the caller's stdio.
package executor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
)

// OutputMode selects how a command's stdout/stderr are handled.
type OutputMode int

const (
	// Quiet captures output in memory and dumps it to the error stream
	// only when the command fails.
	Quiet OutputMode = iota
	// Stream attaches the command directly to the caller's stdout/stderr.
	Stream
)

// Command describes one external process invocation.
type Command struct {
	// Label identifies the invocation in error messages and verbose output.
	Label string
	// Name is the program to run, resolved against PATH.
	Name string
	Args []string
	// Dir is the working directory; empty means the caller's.
	Dir string
	Mode OutputMode
}

// SpawnError reports that a command could not be started at all.
type SpawnError struct {
	Label string
	Err   error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to spawn command: %s: %v", e.Label, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// ExitError reports that a command ran and exited non-zero.
type ExitError struct {
	Label  string
	Status int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("command failed (%s) with exit status %d", e.Label, e.Status)
}

// Runner executes external commands. The OS implementation is used in
// production; tests substitute fakes.
type Runner interface {
	Run(ctx context.Context, cmd Command) error
}

// OSRunner is the production Runner built on os/exec.
type OSRunner struct {
	// ForceStream overrides every command's mode to Stream and announces
	// each invocation. Set when the user asks for verbose output.
	ForceStream bool
	// ExtraPath holds directories prepended to PATH in the child's
	// environment. Populated when a needed tool is discovered outside the
	// inherited PATH; threading it here keeps the parent environment
	// untouched.
	ExtraPath []string
	// Out and ErrOut are the streams used for Stream mode and failure
	// dumps. Default to os.Stdout/os.Stderr.
	Out    io.Writer
	ErrOut io.Writer
}

// NewOSRunner creates an OSRunner with standard streams.
func NewOSRunner(forceStream bool) *OSRunner {
	return &OSRunner{
		ForceStream: forceStream,
		Out:         os.Stdout,
		ErrOut:      os.Stderr,
	}
}

// PrependPath records a directory to prepend to PATH for every subsequent
// command. Duplicates are ignored.
func (r *OSRunner) PrependPath(dir string) {
	for _, existing := range r.ExtraPath {
		if existing == dir {
			return
		}
	}
	r.ExtraPath = append([]string{dir}, r.ExtraPath...)
}

// resolve locates a bare command name in the ExtraPath dirs. os/exec
// resolves names against the parent's PATH when the command is constructed,
// so directories recorded after startup are invisible to it; setting the
// binary path explicitly makes them take effect.
func (r *OSRunner) resolve(name string) string {
	if len(r.ExtraPath) == 0 || strings.ContainsRune(name, os.PathSeparator) {
		return ""
	}
	for _, dir := range r.ExtraPath {
		candidate := filepath.Join(dir, name)
		info, err := os.Stat(candidate)
		if err == nil && info.Mode().IsRegular() && info.Mode().Perm()&0111 != 0 {
			return candidate
		}
	}
	return ""
}

// environ returns the child environment, with ExtraPath dirs ahead of the
// inherited PATH entries.
func (r *OSRunner) environ() []string {
	env := os.Environ()
	if len(r.ExtraPath) == 0 {
		return env
	}
	for i, kv := range env {
		if strings.HasPrefix(kv, "PATH=") {
			env[i] = "PATH=" + strings.Join(r.ExtraPath, string(os.PathListSeparator)) +
				string(os.PathListSeparator) + strings.TrimPrefix(kv, "PATH=")
			return env
		}
	}
	return append(env, "PATH="+strings.Join(r.ExtraPath, string(os.PathListSeparator)))
}

// Run executes cmd synchronously. Stream mode (or ForceStream) inherits the
// configured output streams; Quiet mode buffers both streams and dumps them
// under labeled sections when the command exits non-zero.
func (r *OSRunner) Run(ctx context.Context, cmd Command) error {
	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	if path := r.resolve(cmd.Name); path != "" {
		c.Path = path
		c.Err = nil
	}
	c.Dir = cmd.Dir
	c.Env = r.environ()
	c.Stdin = nil

	if r.ForceStream {
		fmt.Fprintf(r.Out, "%s %s %s\n",
			color.New(color.FgHiBlack).Sprint("$"), cmd.Name, strings.Join(cmd.Args, " "))
	}

	if r.ForceStream || cmd.Mode == Stream {
		c.Stdout = r.Out
		c.Stderr = r.ErrOut
		return r.wait(c, cmd.Label, nil, nil)
	}

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr
	return r.wait(c, cmd.Label, &stdout, &stderr)
}

func (r *OSRunner) wait(c *exec.Cmd, label string, stdout, stderr *bytes.Buffer) error {
	if err := c.Start(); err != nil {
		return &SpawnError{Label: label, Err: err}
	}
	err := c.Wait()
	if err == nil {
		return nil
	}

	if exitErr, ok := err.(*exec.ExitError); ok {
		if stdout != nil || stderr != nil {
			r.dumpFailure(label, stdout, stderr)
		}
		return &ExitError{Label: label, Status: exitErr.ExitCode()}
	}
	return &SpawnError{Label: label, Err: err}
}

// dumpFailure writes the captured output of a failed quiet command to the
// error stream so the user can diagnose it.
func (r *OSRunner) dumpFailure(label string, stdout, stderr *bytes.Buffer) {
	fmt.Fprintln(r.ErrOut)
	fmt.Fprintf(r.ErrOut, "%s %s\n", color.New(color.FgRed, color.Bold).Sprint("Command failed:"), label)
	if stdout != nil && stdout.Len() > 0 {
		fmt.Fprintln(r.ErrOut, color.YellowString("--- stdout ---"))
		fmt.Fprintln(r.ErrOut, stdout.String())
	}
	if stderr != nil && stderr.Len() > 0 {
		fmt.Fprintln(r.ErrOut, color.YellowString("--- stderr ---"))
		fmt.Fprintln(r.ErrOut, stderr.String())
	}
}

// Probe runs a command discarding all output and reports only whether it
// succeeded. Used for availability checks like `uv --version`.
func (r *OSRunner) Probe(ctx context.Context, name string, args ...string) bool {
	c := exec.CommandContext(ctx, name, args...)
	if path := r.resolve(name); path != "" {
		c.Path = path
		c.Err = nil
	}
	c.Env = r.environ()
	c.Stdout = io.Discard
	c.Stderr = io.Discard
	return c.Run() == nil
}
