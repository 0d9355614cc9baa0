// Copyright 2026 © The Ethos Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jllopis/ethos/cmd/ethos/scaffold"
)

func runInit(global globalFlags, args []string) {
	fs := flag.NewFlagSet("init", flag.ExitOnError)

	name := fs.String("name", "", "Corpus name (default: directory base name)")
	overwrite := fs.Bool("overwrite", false, "Overwrite an existing directory")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: ethos init <directory> [flags]

Generate a new persona corpus with recommended structure.

Arguments:
  directory    Target directory for the new corpus

Flags:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  ethos init my-corpus
  ethos init agents --name team-agents
`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: directory argument required")
		fs.Usage()
		os.Exit(1)
	}

	dir := fs.Arg(0)

	absDir, err := filepath.Abs(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid directory path: %v\n", err)
		os.Exit(1)
	}

	if _, err := os.Stat(absDir); err == nil && !*overwrite {
		fmt.Fprintf(os.Stderr, "Error: directory %q already exists. Use --overwrite to replace.\n", dir)
		os.Exit(1)
	}

	corpusName := *name
	if corpusName == "" {
		corpusName = filepath.Base(absDir)
	}

	fmt.Printf("Creating corpus %q...\n", corpusName)

	if err := scaffold.Generate(absDir, scaffold.Options{Name: corpusName}); err != nil {
		fmt.Fprintf(os.Stderr, "Error generating corpus: %v\n", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("Corpus created.")
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Printf("  cd %s\n", dir)
	fmt.Println("  ethos lint")
	fmt.Println("  ethos list")
}
