// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jllopis/ethos/pkg/corpus"
)

func runBundle(global globalFlags, args []string) {
	if len(args) == 0 {
		fatal(errors.New("usage: ethos bundle <pack|unpack>"))
	}

	switch args[0] {
	case "pack":
		if len(args) != 3 {
			fatal(errors.New("usage: ethos bundle pack <dir> <out>"))
		}
		dir, out := args[1], args[2]
		paths, err := personaFiles(dir)
		if err != nil {
			fatal(err)
		}
		if len(paths) == 0 {
			fatal(fmt.Errorf("no persona documents under %s", dir))
		}
		count, err := corpus.PackFiles(paths, out)
		if err != nil {
			fatal(err)
		}
		if global.JSON {
			printJSON(map[string]any{"documents": count, "bundle": out})
			return
		}
		fmt.Printf("packed %d documents into %s\n", count, out)
	case "unpack":
		if len(args) != 3 {
			fatal(errors.New("usage: ethos bundle unpack <file> <dir>"))
		}
		bundle, dir := args[1], args[2]
		written, err := corpus.Unpack(bundle, dir)
		if err != nil {
			fatal(err)
		}
		if global.JSON {
			printJSON(map[string]any{"files": written})
			return
		}
		for _, path := range written {
			fmt.Println(path)
		}
		fmt.Printf("unpacked %d documents into %s\n", len(written), dir)
	default:
		fatal(fmt.Errorf("unknown bundle command %q", args[0]))
	}
}

// personaFiles collects .md files under dir in a stable order, skipping
// dotfiles and dot-directories.
func personaFiles(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := entry.Name()
		if entry.IsDir() {
			if strings.HasPrefix(name, ".") && path != dir {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ".md") {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}
