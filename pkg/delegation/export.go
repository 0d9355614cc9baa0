package delegation

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jllopis/ethos/pkg/errors"
)

// Export renders the graph in the named format: mermaid, dot, json or
// yaml.
func (g *Graph) Export(format string) (string, error) {
	switch strings.ToLower(format) {
	case "mermaid":
		return g.toMermaid(), nil
	case "dot":
		return g.toDot(), nil
	case "json":
		data, err := json.MarshalIndent(g, "", "  ")
		if err != nil {
			return "", err
		}
		return string(data), nil
	case "yaml", "yml":
		data, err := yaml.Marshal(g)
		if err != nil {
			return "", err
		}
		return string(data), nil
	default:
		return "", errors.New(errors.CodeInvalidInput,
			fmt.Sprintf("unknown graph format %q; use mermaid, dot, json, or yaml", format), nil)
	}
}

func (g *Graph) toMermaid() string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	for _, node := range g.Nodes {
		sb.WriteString(fmt.Sprintf("    %s[%s]\n", mermaidID(node), node))
	}
	for _, edge := range g.Edges {
		label := mermaidLabel(edge.Trigger)
		if label != "" {
			sb.WriteString(fmt.Sprintf("    %s -->|%s| %s\n",
				mermaidID(edge.From), label, mermaidID(edge.To)))
		} else {
			sb.WriteString(fmt.Sprintf("    %s --> %s\n",
				mermaidID(edge.From), mermaidID(edge.To)))
		}
	}
	return sb.String()
}

// mermaidID makes a persona id safe as a mermaid node identifier.
func mermaidID(id string) string {
	return strings.ReplaceAll(id, "-", "_")
}

func mermaidLabel(trigger string) string {
	label := strings.ReplaceAll(trigger, "|", "/")
	const maxLabel = 40
	if len(label) > maxLabel {
		label = label[:maxLabel-3] + "..."
	}
	return label
}

func (g *Graph) toDot() string {
	var sb strings.Builder
	sb.WriteString("digraph delegations {\n")
	sb.WriteString("    rankdir=LR;\n")
	sb.WriteString("    node [shape=box, style=rounded];\n")
	for _, node := range g.Nodes {
		sb.WriteString(fmt.Sprintf("    %q;\n", node))
	}
	for _, edge := range g.Edges {
		attrs := ""
		if edge.Trigger != "" {
			attrs = fmt.Sprintf(" [label=%q]", mermaidLabel(edge.Trigger))
		}
		sb.WriteString(fmt.Sprintf("    %q -> %q%s;\n", edge.From, edge.To, attrs))
	}
	sb.WriteString("}\n")
	return sb.String()
}
