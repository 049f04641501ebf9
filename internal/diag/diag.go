// Package diag reports compiler warnings and errors with source line numbers
// and enforces the run-wide fatal error limit.
package diag

import (
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"
)

// DefaultMaxErrors is the number of fatal errors a run tolerates. The error
// after that aborts the run.
const DefaultMaxErrors = 25

// ErrTooManyErrors is returned once the run's fatal error count exceeds its
// limit. Callers must stop compiling every remaining file.
var ErrTooManyErrors = errors.New("too many errors")

// Severity of a diagnostic.
type Severity uint8

const (
	// Warning never fails compilation.
	Warning Severity = iota
	// Error fails the current file and counts toward the run limit.
	Error
)

// String returns "warning" or "error".
func (s Severity) String() string {
	if s == Error {
		return "error"
	}
	return "warning"
}

// Locus selects which source line a diagnostic is attributed to.
type Locus uint8

const (
	// AtDeclaration attributes the diagnostic to the line on which the
	// current declaration started.
	AtDeclaration Locus = iota
	// AtToken attributes the diagnostic to the most recently read token.
	AtToken
)

// Diagnostic is one reported message.
type Diagnostic struct {
	Severity Severity
	File     string
	Line     int
	Message  string
}

// String renders the diagnostic in the "<file>: line <n> : <message>" form.
func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: line %d : %s", d.File, d.Line, d.Message)
}

// Options configures a Run.
type Options struct {
	// MaxErrors is the fatal error limit; <= 0 uses DefaultMaxErrors.
	MaxErrors int
	// Warnings enables printing of warnings. Warnings are counted either way.
	Warnings bool
}

// Run holds the diagnostic state shared by every file of one invocation.
// A Run is not safe for concurrent use; compilation is sequential.
type Run struct {
	out       io.Writer
	logger    *zap.Logger
	maxErrors int
	warnings  bool

	errors  int
	aborted bool
}

// NewRun creates a Run that prints diagnostics to out.
//
// Precondition: out and logger must be non-nil.
// Postcondition: Returns a Run with zero errors.
func NewRun(out io.Writer, logger *zap.Logger, opts Options) *Run {
	limit := opts.MaxErrors
	if limit <= 0 {
		limit = DefaultMaxErrors
	}
	return &Run{
		out:       out,
		logger:    logger,
		maxErrors: limit,
		warnings:  opts.Warnings,
	}
}

// Errors returns the number of fatal errors reported so far in the run.
func (r *Run) Errors() int { return r.errors }

// Aborted reports whether the error limit has been exceeded.
func (r *Run) Aborted() bool { return r.aborted }

// NewContext starts diagnostics for one source file.
func (r *Run) NewContext(file string) *Context {
	return &Context{run: r, File: file}
}

// Context is the per-file compile context threaded through the front end,
// builder, validator and driver. It tracks the current source position and
// the file's own counts.
type Context struct {
	run *Run

	// File is the name used in diagnostics.
	File string

	line     int
	declLine int
	errors   int
	warnings int
}

// BeginDecl records that a declaration starts at line. It also becomes the
// current token line.
func (c *Context) BeginDecl(line int) {
	c.declLine = line
	c.line = line
}

// At records the line of the most recent token.
func (c *Context) At(line int) {
	c.line = line
}

// Line returns the line a diagnostic at locus is attributed to.
func (c *Context) Line(locus Locus) int {
	if locus == AtDeclaration {
		return c.declLine
	}
	return c.line
}

// Errors returns the number of fatal errors reported for this file.
func (c *Context) Errors() int { return c.errors }

// Warnings returns the number of warnings reported for this file.
func (c *Context) Warnings() int { return c.warnings }

// Failed reports whether any fatal error was reported for this file.
func (c *Context) Failed() bool { return c.errors > 0 }

// Logger returns the run's logger.
func (c *Context) Logger() *zap.Logger { return c.run.logger }

// Warnf reports a warning at locus.
func (c *Context) Warnf(locus Locus, format string, args ...any) {
	c.Report(Diagnostic{Severity: Warning, Line: c.Line(locus), Message: fmt.Sprintf(format, args...)})
}

// Errorf reports a fatal error at locus.
//
// Postcondition: returns ErrTooManyErrors when the run limit is exceeded,
// nil otherwise.
func (c *Context) Errorf(locus Locus, format string, args ...any) error {
	return c.Report(Diagnostic{Severity: Error, Line: c.Line(locus), Message: fmt.Sprintf(format, args...)})
}

// Report emits d, filling in the file name when empty.
//
// Postcondition: for errors, returns ErrTooManyErrors once the run limit is
// exceeded; warnings always return nil.
func (c *Context) Report(d Diagnostic) error {
	r := c.run
	if d.File == "" {
		d.File = c.File
	}
	if d.Severity == Warning {
		c.warnings++
		r.logger.Debug("warning", zap.String("file", d.File), zap.Int("line", d.Line), zap.String("message", d.Message))
		if r.warnings {
			fmt.Fprintln(r.out, d.String())
		}
		return nil
	}

	if r.aborted {
		return ErrTooManyErrors
	}
	c.errors++
	r.errors++
	r.logger.Debug("error", zap.String("file", d.File), zap.Int("line", d.Line), zap.String("message", d.Message))
	fmt.Fprintln(r.out, d.String())
	if r.errors > r.maxErrors {
		r.aborted = true
		fmt.Fprintln(r.out, "too many errors")
		return ErrTooManyErrors
	}
	return nil
}
