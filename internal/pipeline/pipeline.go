// Package pipeline runs an ordered list of named steps, timing each one and
// aborting on the first failure. Rendering is delegated entirely to an
// output.StepReporter so the scheduling logic stays testable.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/mmstack/mmsetup/internal/output"
)

// Step is one named, fallible unit of work. Steps are consumed once and
// never retried.
type Step struct {
	Name string
	Run  func(ctx context.Context) error
}

// Runner executes steps sequentially.
type Runner struct {
	reporter output.StepReporter
}

// NewRunner creates a Runner reporting through the given reporter.
func NewRunner(reporter output.StepReporter) *Runner {
	return &Runner{reporter: reporter}
}

// Run executes the steps in order. The first failing step's error is
// returned wrapped with its name; subsequent steps do not run.
func (r *Runner) Run(ctx context.Context, steps []Step) error {
	total := len(steps)
	for i, step := range steps {
		index := i + 1
		r.reporter.StepStart(step.Name, index, total)

		started := time.Now()
		err := step.Run(ctx)
		elapsed := time.Since(started)

		r.reporter.StepDone(step.Name, index, total, elapsed, err)
		if err != nil {
			return fmt.Errorf("step failed: %s: %w", step.Name, err)
		}
	}
	return nil
}
