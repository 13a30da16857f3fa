// Package logger provides levelled logging for reqbridge.
// Info, warning and error messages are always printed; debug messages and
// section headers only appear when verbose mode is enabled via --verbose.
// Level tags are coloured when colour output is enabled.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
)

var (
	mu         sync.RWMutex
	verbose    bool
	colored    = !color.NoColor
	timestamps bool
	output     io.Writer = os.Stderr
	now                  = time.Now
)

var (
	debugTag = color.New(color.FgHiBlack)
	infoTag  = color.New(color.FgCyan)
	warnTag  = color.New(color.FgYellow)
	errorTag = color.New(color.FgRed, color.Bold)
)

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer for logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// SetColor enables or disables coloured level tags.
func SetColor(enabled bool) {
	mu.Lock()
	defer mu.Unlock()
	colored = enabled
}

// SetTimestamps prefixes every line with the current time when enabled.
func SetTimestamps(enabled bool) {
	mu.Lock()
	defer mu.Unlock()
	timestamps = enabled
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		write(debugTag, "[DEBUG]", format, args...)
	}
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

// Info prints an informational message.
func Info(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	write(infoTag, "[INFO]", format, args...)
}

// Warn prints a warning message.
func Warn(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	write(warnTag, "[WARN]", format, args...)
}

// Error prints an error message.
func Error(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	write(errorTag, "[ERROR]", format, args...)
}

// write formats one line (caller must hold lock).
func write(c *color.Color, tag, format string, args ...any) {
	if colored {
		c.EnableColor()
		tag = c.Sprint(tag)
	}
	prefix := ""
	if timestamps {
		prefix = now().Format("2006-01-02 15:04:05") + " "
	}
	fmt.Fprintf(output, prefix+tag+" "+format+"\n", args...)
}
