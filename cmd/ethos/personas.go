// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/jllopis/ethos/pkg/config"
	"github.com/jllopis/ethos/pkg/corpus"
	"github.com/jllopis/ethos/pkg/persona"
	"github.com/jllopis/ethos/pkg/serve"
)

type personaRow struct {
	Name        string                   `json:"name"`
	Summary     string                   `json:"summary,omitempty"`
	Tools       []string                 `json:"tools,omitempty"`
	Model       string                   `json:"model,omitempty"`
	Color       string                   `json:"color,omitempty"`
	Source      string                   `json:"source"`
	Path        string                   `json:"path"`
	Examples    int                      `json:"examples"`
	Delegations []persona.DelegationRule `json:"delegations,omitempty"`
	Metadata    map[string]string        `json:"metadata,omitempty"`
}

func toRow(p persona.Persona) personaRow {
	return personaRow{
		Name:        p.Name,
		Summary:     p.Summary,
		Tools:       p.Tools,
		Model:       p.Model,
		Color:       p.Color,
		Source:      p.SourceName,
		Path:        p.Path,
		Examples:    len(p.Examples),
		Delegations: p.Delegations,
		Metadata:    p.Metadata,
	}
}

func runList(ctx context.Context, global globalFlags, cfg *config.Config, args []string) {
	cmd := flag.NewFlagSet("list", flag.ContinueOnError)
	tool := cmd.String("tool", "", "Keep only personas whose allowlist names the tool")
	query := cmd.String("q", "", "Substring match over name and description")
	if err := cmd.Parse(args); err != nil {
		fatal(err)
	}

	store := loadStore(ctx, cfg)
	reg := store.Current()

	needle := strings.ToLower(strings.TrimSpace(*query))
	rows := make([]personaRow, 0, reg.Len())
	for _, p := range reg.List() {
		if *tool != "" && !personaHasTool(p, *tool) {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(p.Name), needle) &&
			!strings.Contains(strings.ToLower(p.Description), needle) {
			continue
		}
		rows = append(rows, toRow(p))
	}

	if global.JSON {
		printJSON(rows)
		return
	}

	writer := newTabWriter()
	writeRow(writer, "NAME", "MODEL", "TOOLS", "SOURCE", "DESCRIPTION")
	for _, row := range rows {
		writeRow(writer, row.Name, row.Model, joinTools(row.Tools), row.Source,
			truncateMessage(row.Summary, 80))
	}
	_ = writer.Flush()
}

func runShow(ctx context.Context, global globalFlags, cfg *config.Config, args []string) {
	cmd := flag.NewFlagSet("show", flag.ContinueOnError)
	format := cmd.String("format", "", "Output format: md, json, html")
	if err := cmd.Parse(args); err != nil {
		fatal(err)
	}
	if cmd.NArg() < 1 {
		fatal(fmt.Errorf("usage: ethos show <id> [--format md|json|html]"))
	}
	id := cmd.Arg(0)

	store := loadStore(ctx, cfg)
	p, err := store.Current().Lookup(id)
	if err != nil {
		NewNotFoundError("persona", id).PrintError(global.JSON)
		os.Exit(1)
	}

	switch *format {
	case "md":
		raw, err := corpus.Pack([]persona.Persona{p})
		if err != nil {
			fatal(err)
		}
		fmt.Print(raw)
		return
	case "html":
		html, err := serve.RenderHTML(p.Body)
		if err != nil {
			fatal(err)
		}
		fmt.Println(html)
		return
	case "json":
		printJSON(toRow(p))
		return
	case "":
	default:
		fatal(fmt.Errorf("unknown format %q; use md, json, or html", *format))
	}

	if global.JSON {
		printJSON(toRow(p))
		return
	}

	writer := newTabWriter()
	writeRow(writer, "NAME", p.Name)
	writeRow(writer, "DESCRIPTION", truncateMessage(p.Summary, 120))
	writeRow(writer, "TOOLS", joinTools(p.Tools))
	writeRow(writer, "MODEL", p.Model)
	writeRow(writer, "SOURCE", p.SourceName)
	writeRow(writer, "PATH", p.Path)
	writeRow(writer, "EXAMPLES", fmt.Sprintf("%d", len(p.Examples)))
	_ = writer.Flush()

	if len(p.Delegations) > 0 {
		fmt.Println()
		writer = newTabWriter()
		writeRow(writer, "TRIGGER", "TARGET")
		for _, rule := range p.Delegations {
			writeRow(writer, truncateMessage(rule.Trigger, 60), rule.Target)
		}
		_ = writer.Flush()
	}
}

func personaHasTool(p persona.Persona, tool string) bool {
	for _, t := range p.Tools {
		if strings.EqualFold(t, tool) {
			return true
		}
	}
	return false
}
