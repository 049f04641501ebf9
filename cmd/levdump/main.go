// Package main provides levdump, which prints compiled level files as YAML.
package main

import (
	"flag"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/levcomp/internal/level/binfmt"
	"github.com/cory-johannsen/levcomp/internal/level/catalog"
)

func main() {
	catalogPath := flag.String("catalog", "", "YAML catalog used to name monster, object and trap ids")
	flag.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), "usage: levdump [-catalog file] file.lev ...")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(1)
	}

	var names binfmt.Names
	if *catalogPath != "" {
		cat, err := catalog.LoadFromFile(*catalogPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "levdump: %v\n", err)
			os.Exit(1)
		}
		names = cat
	}

	status := 0
	for _, path := range flag.Args() {
		if err := dump(path, names); err != nil {
			fmt.Fprintf(os.Stderr, "levdump: %s: %v\n", path, err)
			status = 1
		}
	}
	os.Exit(status)
}

func dump(path string, names binfmt.Names) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	lvl, err := binfmt.Decode(f)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	if err := enc.Encode(binfmt.Dump(path, lvl, names)); err != nil {
		return fmt.Errorf("writing yaml: %w", err)
	}
	return enc.Close()
}
