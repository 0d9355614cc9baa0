package mcp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	mcpgo "github.com/mark3labs/mcp-go/mcp"

	"github.com/jllopis/ethos/pkg/corpus"
	"github.com/jllopis/ethos/pkg/registry"
)

func testResolver(t *testing.T) *corpus.Resolver {
	t.Helper()
	dir := t.TempDir()
	docs := map[string]string{
		"code-reviewer.md": `---
name: code-reviewer
description: reviews code changes
tools: Read, Grep
---
You review diffs carefully.
`,
		"database-tuner.md": `---
name: database-tuner
description: tunes slow database queries
---
You tune queries.
`,
	}
	for name, content := range docs {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return corpus.NewResolver([]corpus.Source{corpus.NewDirSource("test", dir)})
}

func testServer(t *testing.T, opts ...ServerOption) *Server {
	t.Helper()
	resolver := testResolver(t)
	store := registry.NewStore(resolver)
	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	opts = append(opts, WithLintResolver(resolver))
	return NewServer(store, "0.0.0-test", opts...)
}

func callRequest(name string, args map[string]interface{}) mcpgo.CallToolRequest {
	req := mcpgo.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, result *mcpgo.CallToolResult) string {
	t.Helper()
	if result == nil || len(result.Content) == 0 {
		t.Fatal("empty tool result")
	}
	text, ok := result.Content[0].(mcpgo.TextContent)
	if !ok {
		t.Fatalf("unexpected content type %T", result.Content[0])
	}
	return text.Text
}

func TestListPersonasTool(t *testing.T) {
	srv := testServer(t)

	result, err := srv.handleListPersonas(context.Background(), callRequest("list_personas", nil))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var resp struct {
		Personas []struct {
			Name string `json:"name"`
		} `json:"personas"`
		Total int `json:"total"`
	}
	if err := json.Unmarshal([]byte(resultText(t, result)), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Total != 2 || resp.Personas[0].Name != "code-reviewer" {
		t.Errorf("list: %+v", resp)
	}

	result, _ = srv.handleListPersonas(context.Background(),
		callRequest("list_personas", map[string]interface{}{"tool": "Grep"}))
	if !strings.Contains(resultText(t, result), `"total": 1`) {
		t.Errorf("tool filter: %s", resultText(t, result))
	}

	result, _ = srv.handleListPersonas(context.Background(),
		callRequest("list_personas", map[string]interface{}{"query": "slow database"}))
	if !strings.Contains(resultText(t, result), "database-tuner") {
		t.Errorf("query filter: %s", resultText(t, result))
	}
}

func TestGetPersonaTool(t *testing.T) {
	srv := testServer(t)

	result, err := srv.handleGetPersona(context.Background(),
		callRequest("get_persona", map[string]interface{}{"id": "code-reviewer"}))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if result.IsError || !strings.Contains(resultText(t, result), "review diffs") {
		t.Errorf("get body: %s", resultText(t, result))
	}

	result, _ = srv.handleGetPersona(context.Background(),
		callRequest("get_persona", map[string]interface{}{"id": "nobody"}))
	if !result.IsError {
		t.Error("missing persona should be a tool error")
	}

	result, _ = srv.handleGetPersona(context.Background(), callRequest("get_persona", nil))
	if !result.IsError {
		t.Error("missing id should be a tool error")
	}
}

func TestSuggestPersonaToolUnconfigured(t *testing.T) {
	srv := testServer(t)
	result, _ := srv.handleSuggestPersona(context.Background(),
		callRequest("suggest_persona", map[string]interface{}{"text": "review my code"}))
	if !result.IsError {
		t.Error("suggest without an index should be a tool error")
	}
}

func TestLintCorpusTool(t *testing.T) {
	srv := testServer(t)
	result, err := srv.handleLintCorpus(context.Background(), callRequest("lint_corpus", nil))
	if err != nil {
		t.Fatalf("lint: %v", err)
	}
	var resp struct {
		HasErrors bool `json:"has_errors"`
	}
	if err := json.Unmarshal([]byte(resultText(t, result)), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	// Missing example sections produce info findings, not errors.
	if resp.HasErrors {
		t.Errorf("unexpected lint errors: %s", resultText(t, result))
	}
}

func TestReadPersonaResource(t *testing.T) {
	srv := testServer(t)

	req := mcpgo.ReadResourceRequest{}
	req.Params.URI = personaURIPrefix + "database-tuner"
	contents, err := srv.handleReadPersona(context.Background(), req)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	text, ok := contents[0].(mcpgo.TextResourceContents)
	if !ok {
		t.Fatalf("unexpected contents type %T", contents[0])
	}
	if text.MIMEType != "text/markdown" || !strings.Contains(text.Text, "tune queries") {
		t.Errorf("resource: %+v", text)
	}

	req.Params.URI = personaURIPrefix + "ghost"
	if _, err := srv.handleReadPersona(context.Background(), req); err == nil {
		t.Error("missing persona resource should error")
	}
}
