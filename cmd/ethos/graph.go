// Copyright 2026 © The Ethos Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/jllopis/ethos/pkg/config"
	"github.com/jllopis/ethos/pkg/delegation"
)

type graphResult struct {
	Format   string              `json:"format"`
	Content  string              `json:"content"`
	Nodes    int                 `json:"nodes"`
	Edges    int                 `json:"edges"`
	Analysis delegation.Analysis `json:"analysis"`
}

func runGraph(ctx context.Context, global globalFlags, cfg *config.Config, args []string) {
	cmd := flag.NewFlagSet("graph", flag.ContinueOnError)
	output := cmd.String("output", "mermaid", "Output format: mermaid, dot, json, yaml")
	focus := cmd.String("focus", "", "Show only the direct targets of this persona")
	if err := cmd.Parse(args); err != nil {
		fatal(err)
	}

	store := loadStore(ctx, cfg)
	reg := store.Current()
	graph := delegation.Build(reg)

	if *focus != "" {
		if _, err := reg.Lookup(*focus); err != nil {
			NewNotFoundError("persona", *focus).PrintError(global.JSON)
			os.Exit(1)
		}
		targets := graph.Targets(*focus)
		if global.JSON {
			printJSON(map[string]any{"persona": *focus, "targets": targets})
			return
		}
		if len(targets) == 0 {
			fmt.Printf("%s delegates to no one\n", *focus)
			return
		}
		for _, target := range targets {
			fmt.Println(target)
		}
		return
	}

	content, err := graph.Export(*output)
	if err != nil {
		fatal(err)
	}

	result := graphResult{
		Format:   *output,
		Content:  content,
		Nodes:    len(graph.Nodes),
		Edges:    len(graph.Edges),
		Analysis: graph.Analyze(),
	}

	if global.JSON {
		printJSON(result)
		return
	}
	fmt.Println(result.Content)
}
