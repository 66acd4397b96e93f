package output

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// StepReporter receives step lifecycle events from the pipeline.
// The pipeline never renders anything itself; it only emits events.
type StepReporter interface {
	// StepStart is called immediately before a step's action runs.
	StepStart(name string, index, total int)
	// StepDone is called after the action returns, with its elapsed time.
	// err is nil on success.
	StepDone(name string, index, total int, elapsed time.Duration, err error)
}

// NewReporter selects the reporter for the current mode: static log lines
// when verbose or when stderr is not a terminal, an animated spinner
// otherwise.
func NewReporter(logger *Logger, verbose bool) StepReporter {
	if verbose || !term.IsTerminal(int(os.Stderr.Fd())) {
		return NewLogReporter(logger)
	}
	return NewSpinnerReporter(os.Stderr)
}

// LogReporter renders step events as static colored log lines.
type LogReporter struct {
	logger *Logger
}

// NewLogReporter creates a LogReporter writing through the given logger.
func NewLogReporter(logger *Logger) *LogReporter {
	if logger == nil {
		logger = DefaultLogger
	}
	return &LogReporter{logger: logger}
}

func (r *LogReporter) StepStart(name string, index, total int) {
	arrow := color.New(color.FgCyan, color.Bold).Sprint("→")
	r.logger.Println("%s [%d/%d] %s", arrow, index, total, color.CyanString(name))
}

func (r *LogReporter) StepDone(name string, index, total int, elapsed time.Duration, err error) {
	r.logger.Println("%s", stepSummary(name, index, total, elapsed, err))
}

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// SpinnerReporter renders the running step as an animated single line,
// replaced by a static summary line when the step finishes.
// The repaint goroutine is purely cosmetic; it never touches program state.
type SpinnerReporter struct {
	out io.Writer

	mu      sync.Mutex
	frame   int
	label   string
	started time.Time
	stop    chan struct{}
	done    chan struct{}
	running bool
}

// NewSpinnerReporter creates a SpinnerReporter writing to out.
func NewSpinnerReporter(out io.Writer) *SpinnerReporter {
	return &SpinnerReporter{out: out}
}

func (s *SpinnerReporter) StepStart(name string, index, total int) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.label = fmt.Sprintf("[%d/%d] %s", index, total, name)
	s.started = time.Now()
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	s.mu.Unlock()

	go func() {
		ticker := time.NewTicker(90 * time.Millisecond)
		defer ticker.Stop()
		defer close(s.done)

		s.render()
		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
				s.render()
			}
		}
	}()
}

func (s *SpinnerReporter) StepDone(name string, index, total int, elapsed time.Duration, err error) {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stop)
	s.mu.Unlock()

	<-s.done
	fmt.Fprintf(s.out, "\r%80s\r", "")
	fmt.Fprintln(s.out, stepSummary(name, index, total, elapsed, err))
}

func (s *SpinnerReporter) render() {
	s.mu.Lock()
	label := s.label
	elapsed := time.Since(s.started)
	frame := spinnerFrames[s.frame]
	s.frame = (s.frame + 1) % len(spinnerFrames)
	s.mu.Unlock()

	glyph := color.New(color.FgCyan, color.Bold).Sprint(frame)
	fmt.Fprintf(s.out, "\r%s %s %s          ", glyph, label, color.New(color.FgHiBlack).Sprint(FormatElapsed(elapsed)))
}

// stepSummary formats the final per-step status line, identical for both
// reporters: glyph, [i/n], name, elapsed.
func stepSummary(name string, index, total int, elapsed time.Duration, err error) string {
	dim := color.New(color.FgHiBlack).Sprintf("(%s)", FormatElapsed(elapsed))
	if err != nil {
		return fmt.Sprintf("%s [%d/%d] %s %s",
			color.New(color.FgRed, color.Bold).Sprint("✖"), index, total, color.RedString(name), dim)
	}
	return fmt.Sprintf("%s [%d/%d] %s %s",
		color.New(color.FgGreen, color.Bold).Sprint("✔"), index, total, color.GreenString(name), dim)
}
