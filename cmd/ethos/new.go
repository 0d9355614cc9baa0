// SPDX-License-Identifier: Apache-2.0

package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jllopis/ethos/cmd/ethos/scaffold"
	"github.com/jllopis/ethos/pkg/persona"
)

func runNew(global globalFlags, args []string) {
	fs := flag.NewFlagSet("new", flag.ExitOnError)
	dir := fs.String("dir", "personas", "Directory to write the document into")
	overwrite := fs.Bool("overwrite", false, "Overwrite an existing document")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: ethos new <archetype> <id> [flags]

Scaffold a persona document from an archetype.

Archetypes:
  %s

Flags:
`, strings.Join(scaffold.Archetypes(), ", "))
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  ethos new specialist database-tuner
  ethos new reviewer api-reviewer --dir personas/review
`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "Error: archetype and id arguments required")
		fs.Usage()
		os.Exit(1)
	}

	archetype, id := fs.Arg(0), fs.Arg(1)
	if !scaffold.ValidArchetype(archetype) {
		fmt.Fprintf(os.Stderr, "Error: unknown archetype %q. Valid options: %s\n",
			archetype, strings.Join(scaffold.Archetypes(), ", "))
		os.Exit(1)
	}

	content, err := scaffold.PersonaDoc(archetype, id)
	if err != nil {
		fatal(err)
	}

	// The rendered document must satisfy the same validation the
	// resolver applies, so a bad id fails here instead of at lint time.
	parsed, err := persona.Parse([]byte(content), id+".md", "scaffold")
	if err != nil {
		fatal(fmt.Errorf("invalid persona document for %q: %w", id, err))
	}
	for _, doc := range parsed {
		if err := doc.Validate(); err != nil {
			fatal(fmt.Errorf("invalid persona id %q: %w", id, err))
		}
	}

	path := filepath.Join(*dir, id+".md")
	if _, err := os.Stat(path); err == nil && !*overwrite {
		fmt.Fprintf(os.Stderr, "Error: %s already exists. Use --overwrite to replace.\n", path)
		os.Exit(1)
	}
	if err := os.MkdirAll(*dir, 0o755); err != nil {
		fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		fatal(err)
	}

	fmt.Printf("Created: %s\n", path)
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Printf("  edit %s\n", path)
	fmt.Println("  ethos lint")
}
