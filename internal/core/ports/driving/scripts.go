package driving

import (
	"context"
	"io"
)

// ScriptService runs maintenance scripts on demand.
type ScriptService interface {
	// Run streams the named script's output to out until it exits.
	Run(ctx context.Context, name string, out io.Writer) error

	// Names lists the scripts that can be run.
	Names() []string
}
