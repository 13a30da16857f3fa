package driven

import (
	"context"
	"io"
)

// ScriptRunner runs configured maintenance commands.
type ScriptRunner interface {
	// Run executes the named script, copying its stdout and stderr to out
	// as output is produced.
	Run(ctx context.Context, name string, out io.Writer) error

	// Names lists the configured scripts.
	Names() []string
}
