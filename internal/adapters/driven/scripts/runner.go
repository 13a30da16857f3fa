// Package scripts runs configured maintenance commands as child processes.
package scripts

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/reqbridge/internal/core/domain"
	"github.com/custodia-labs/reqbridge/internal/core/ports/driven"
)

const (
	// DefaultTimeout bounds a script without its own timeout.
	DefaultTimeout = 10 * time.Minute

	// waitDelay is how long output may keep flowing after the process is killed.
	waitDelay = 5 * time.Second
)

// Ensure Runner implements the interface.
var _ driven.ScriptRunner = (*Runner)(nil)

// Runner executes scripts by name.
type Runner struct {
	scripts map[string]domain.Script
}

// NewRunner creates a runner for the configured scripts.
func NewRunner(scripts []domain.Script) *Runner {
	r := &Runner{scripts: make(map[string]domain.Script, len(scripts))}
	for _, s := range scripts {
		r.scripts[s.Name] = s
	}
	return r
}

// Names lists the configured scripts, sorted.
func (r *Runner) Names() []string {
	names := make([]string, 0, len(r.scripts))
	for name := range r.scripts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run executes the named script. Stdout and stderr are interleaved into
// out one complete line at a time.
func (r *Runner) Run(ctx context.Context, name string, out io.Writer) error {
	script, ok := r.scripts[name]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrUnknownScript, name)
	}
	if len(script.Command) == 0 {
		return fmt.Errorf("%w: script %s has no command", domain.ErrInvalidInput, name)
	}

	timeout := script.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	w := newLineWriter(out)
	cmd := exec.CommandContext(ctx, script.Command[0], script.Command[1:]...)
	cmd.Stdout = w
	cmd.Stderr = w
	cmd.WaitDelay = waitDelay

	err := cmd.Run()
	if flushErr := w.Close(); err == nil {
		err = flushErr
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("timed out after %s", timeout)
	}
	if err != nil {
		return fmt.Errorf("run %s: %w", script.Command[0], err)
	}
	return nil
}

// flusher is implemented by http.ResponseWriter implementations that stream.
type flusher interface {
	Flush()
}

// lineWriter forwards whole lines to out and flushes after each write.
type lineWriter struct {
	mu  sync.Mutex
	out io.Writer
	buf bytes.Buffer
}

func newLineWriter(out io.Writer) *lineWriter {
	return &lineWriter{out: out}
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf.Write(p)
	idx := bytes.LastIndexByte(w.buf.Bytes(), '\n')
	if idx < 0 {
		return len(p), nil
	}

	complete := w.buf.Next(idx + 1)
	if _, err := w.out.Write(complete); err != nil {
		return 0, err
	}
	w.flush()
	return len(p), nil
}

// Close writes any unterminated last line.
func (w *lineWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.buf.Len() == 0 {
		return nil
	}
	if _, err := w.out.Write(w.buf.Bytes()); err != nil {
		return err
	}
	w.buf.Reset()
	w.flush()
	return nil
}

func (w *lineWriter) flush() {
	if f, ok := w.out.(flusher); ok {
		f.Flush()
	}
}
