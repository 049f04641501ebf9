// Package compiler drives a compilation run: it reads each source file,
// hands it to the front end for its format and encodes every level the
// front end declares.
package compiler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/levcomp/internal/config"
	"github.com/cory-johannsen/levcomp/internal/diag"
	"github.com/cory-johannsen/levcomp/internal/frontend"
	"github.com/cory-johannsen/levcomp/internal/frontend/luades"
	"github.com/cory-johannsen/levcomp/internal/frontend/yamldes"
	"github.com/cory-johannsen/levcomp/internal/level/binfmt"
	"github.com/cory-johannsen/levcomp/internal/level/builder"
	"github.com/cory-johannsen/levcomp/internal/level/catalog"
	"github.com/cory-johannsen/levcomp/internal/level/check"
	"github.com/cory-johannsen/levcomp/internal/level/ir"
)

// StdinName is the file name diagnostics use for standard input.
const StdinName = "<stdin>"

// ErrFailed is returned by Run when at least one file did not compile.
var ErrFailed = errors.New("compilation failed")

// Compiler compiles level description files into binary levels. One
// Compiler serves one run; it is not safe for concurrent use.
type Compiler struct {
	cfg    config.CompilerConfig
	out    io.Writer
	logger *zap.Logger
	run    *diag.Run
	names  frontend.Resolver
	prog   *ir.Program

	// Stdin is read when Run is given no files.
	Stdin io.Reader
	// Progress receives the verbose per-level report.
	Progress io.Writer
}

// New returns a Compiler for one run. Warnings and errors go to out, which
// the command line points at the error stream. names may be nil, in which
// case only numeric ids resolve.
//
// Precondition: out and logger must be non-nil.
// Postcondition: Returns a Compiler whose logger carries a fresh run_id.
func New(cfg config.CompilerConfig, names *catalog.Catalog, out io.Writer, logger *zap.Logger) *Compiler {
	logger = logger.With(zap.String("run_id", uuid.NewString()))
	c := &Compiler{
		cfg:      cfg,
		out:      out,
		logger:   logger,
		run:      diag.NewRun(out, logger, diag.Options{MaxErrors: cfg.MaxErrors, Warnings: cfg.Warnings}),
		prog:     ir.NewProgram(),
		Stdin:    os.Stdin,
		Progress: os.Stdout,
	}
	if names != nil {
		c.names = names
	}
	return c
}

// Run compiles every file in order, or standard input when files is empty.
// A file that fails does not stop the others.
//
// Postcondition: Returns nil when every file compiled, diag.ErrTooManyErrors
// when the run was aborted, ctx.Err() when ctx was cancelled, or ErrFailed
// (wrapped with the failure count) otherwise.
func (c *Compiler) Run(ctx context.Context, files []string) error {
	overall := time.Now()
	failed := 0

	if len(files) == 0 {
		src, err := io.ReadAll(c.Stdin)
		if err != nil {
			return fmt.Errorf("reading standard input: %w", err)
		}
		ok, err := c.Compile(ctx, StdinName, src)
		if err != nil {
			return err
		}
		if !ok {
			failed++
		}
	}

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		src, err := os.ReadFile(path)
		if err != nil {
			c.logger.Debug("reading source", zap.String("file", path), zap.Error(err))
			fmt.Fprintf(c.out, "can't open %s for input\n", path)
			failed++
			continue
		}
		ok, err := c.Compile(ctx, path, src)
		if err != nil {
			return err
		}
		if !ok {
			failed++
		}
	}

	c.logger.Info("run complete",
		zap.Int("files_failed", failed),
		zap.Int("errors", c.run.Errors()),
		zap.Duration("elapsed", time.Since(overall).Round(time.Millisecond)))
	if failed > 0 {
		return fmt.Errorf("%w: %d file(s)", ErrFailed, failed)
	}
	return nil
}

// Compile compiles one source file already read into src. name selects the
// front end and appears in diagnostics.
//
// Postcondition: ok reports whether the file compiled without errors. err
// is non-nil only when the run must stop: diag.ErrTooManyErrors or a
// context error.
func (c *Compiler) Compile(ctx context.Context, name string, src []byte) (ok bool, err error) {
	t0 := time.Now()
	dc := c.run.NewContext(name)

	p, perr := c.parser(name)
	if perr != nil {
		dc.At(0)
		if err := dc.Errorf(diag.AtToken, "%v", perr); err != nil {
			return false, err
		}
		return false, nil
	}

	lv := &levels{c: c, dc: dc, seen: make(map[string]int)}
	err = p.Parse(ctx, dc, src, lv)
	c.prog.Reset()
	if err != nil {
		return false, err
	}

	c.logger.Debug("file compiled",
		zap.String("file", name),
		zap.Int("levels", len(lv.written)),
		zap.Int("errors", dc.Errors()),
		zap.Int("warnings", dc.Warnings()),
		zap.Duration("elapsed", time.Since(t0).Round(time.Millisecond)))
	return !dc.Failed(), nil
}

// parser picks the front end for name from the configured format or, for
// "auto", from the file extension. Standard input defaults to Lua.
func (c *Compiler) parser(name string) (frontend.Parser, error) {
	format := c.cfg.Format
	if format == "" || format == "auto" {
		switch strings.ToLower(filepath.Ext(name)) {
		case ".lua":
			format = "lua"
		case ".yaml", ".yml":
			format = "yaml"
		default:
			if name != StdinName {
				return nil, fmt.Errorf("cannot tell the format of %s; name it .lua, .yaml or .yml or pass a format", name)
			}
			format = "lua"
		}
	}
	switch format {
	case "lua":
		return luades.New(c.names, c.cfg.InstructionLimit), nil
	case "yaml":
		return yamldes.New(c.names), nil
	}
	return nil, fmt.Errorf("unknown format %q", format)
}

// OutputPath returns the file a level named name is written to.
func (c *Compiler) OutputPath(name string) string {
	return c.cfg.OutputPrefix + name + c.cfg.Extension
}

// levels implements frontend.Levels for one source file.
type levels struct {
	c  *Compiler
	dc *diag.Context
	b  *builder.Builder

	name string
	line int
	// seen maps level names already declared in the file to their line.
	seen    map[string]int
	written []string
}

func (l *levels) Begin(name string, line int) (*builder.Builder, error) {
	l.c.prog.Reset()
	l.dc.BeginDecl(line)
	l.name, l.line = name, line
	l.b = builder.New(l.dc, l.c.prog)

	switch {
	case name == "":
		if err := l.dc.Errorf(diag.AtDeclaration, "level has no name"); err != nil {
			return l.b, err
		}
	case strings.ContainsAny(name, `/\`):
		if err := l.dc.Errorf(diag.AtDeclaration, "level name '%s' must not contain a path separator", name); err != nil {
			return l.b, err
		}
	default:
		if prev, dup := l.seen[name]; dup {
			l.dc.Warnf(diag.AtDeclaration, "level '%s' already declared at line %d; the later one wins", name, prev)
		}
		l.seen[name] = line
	}
	l.c.logger.Debug("level begin", zap.String("file", l.dc.File), zap.String("level", name), zap.Int("line", line))
	return l.b, nil
}

// End checks the finished level and writes it unless the file has failed.
// The program is reset either way.
func (l *levels) End() error {
	prog := l.c.prog
	defer prog.Reset()

	l.dc.BeginDecl(l.line)
	if err := l.b.Finish(); err != nil {
		return err
	}
	for _, err := range check.Subrooms(prog) {
		var upe *check.UnresolvedParentError
		if !errors.As(err, &upe) {
			continue
		}
		if rerr := l.dc.Report(diag.Diagnostic{Severity: diag.Error, Line: upe.Line, Message: upe.Error()}); rerr != nil {
			return rerr
		}
	}
	if l.dc.Failed() {
		l.c.logger.Debug("level skipped", zap.String("file", l.dc.File), zap.String("level", l.name))
		return nil
	}

	path := l.c.OutputPath(l.name)
	count := prog.Len()
	var buf bytes.Buffer
	if err := binfmt.Encode(&buf, prog); err != nil {
		return l.dc.Errorf(diag.AtDeclaration, "encoding level '%s': %v", l.name, err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		_ = os.Remove(path)
		return l.dc.Errorf(diag.AtDeclaration, "can't write %s: %v", path, err)
	}
	l.written = append(l.written, path)

	l.c.logger.Info("level written",
		zap.String("file", l.dc.File),
		zap.String("level", l.name),
		zap.String("output", path),
		zap.Int("opcodes", count),
		zap.Int("bytes", buf.Len()))
	if l.c.cfg.Verbose {
		fmt.Fprintf(l.c.Progress, "%s: level '%s' -> %s (%d opcodes)\n", l.dc.File, l.name, path, count)
	}
	return nil
}
