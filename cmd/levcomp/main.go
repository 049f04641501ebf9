// Package main provides the level compiler binary. It compiles Lua or YAML
// level descriptions into binary level files.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/levcomp/internal/compiler"
	"github.com/cory-johannsen/levcomp/internal/config"
	"github.com/cory-johannsen/levcomp/internal/level/catalog"
	"github.com/cory-johannsen/levcomp/internal/observability"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run compiles the files named in args. Diagnostics go to stderr and the
// verbose report to stdout.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	start := time.Now()

	flags := flag.NewFlagSet("levcomp", flag.ContinueOnError)
	flags.SetOutput(stderr)
	configPath := flags.String("config", "", "path to configuration file; empty = defaults and LEVCOMP_ environment")
	prefix := flags.String("o", "", "output file name prefix")
	verbose := flags.Bool("v", false, "report every level written")
	warnings := flags.Bool("w", false, "print warnings")
	format := flags.String("format", "", "source format: auto, lua or yaml")
	catalogPath := flags.String("catalog", "", "YAML catalog of monster, object and trap names")
	flags.Usage = func() {
		fmt.Fprintf(flags.Output(), "usage: levcomp [flags] [file ...]\n\nWith no files, reads standard input.\n\n")
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	v, err := config.NewViper(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "levcomp: loading config: %v\n", err)
		return 1
	}
	// Flags given on the command line win over the file and the environment.
	flags.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "o":
			v.Set("compiler.output_prefix", *prefix)
		case "v":
			v.Set("compiler.verbose", *verbose)
		case "w":
			v.Set("compiler.warnings", *warnings)
		case "format":
			v.Set("compiler.format", *format)
		case "catalog":
			v.Set("compiler.catalog", *catalogPath)
		}
	})
	cfg, err := config.LoadFromViper(v)
	if err != nil {
		fmt.Fprintf(stderr, "levcomp: loading config: %v\n", err)
		return 1
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(stderr, "levcomp: initializing logger: %v\n", err)
		return 1
	}
	defer logger.Sync()

	var names *catalog.Catalog
	if cfg.Compiler.Catalog != "" {
		names, err = catalog.LoadFromFile(cfg.Compiler.Catalog)
		if err != nil {
			logger.Error("loading catalog", zap.String("path", cfg.Compiler.Catalog), zap.Error(err))
			return 1
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	c := compiler.New(cfg.Compiler, names, stderr, logger)
	c.Stdin = stdin
	c.Progress = stdout
	err = c.Run(ctx, flags.Args())
	logger.Debug("levcomp finished", zap.Duration("elapsed", time.Since(start)), zap.Error(err))
	switch {
	case err == nil:
		return 0
	case errors.Is(err, compiler.ErrFailed):
	default:
		fmt.Fprintf(stderr, "levcomp: %v\n", err)
	}
	return 1
}
