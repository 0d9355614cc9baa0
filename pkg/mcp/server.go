package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/jllopis/ethos/pkg/corpus"
	"github.com/jllopis/ethos/pkg/index"
	"github.com/jllopis/ethos/pkg/lint"
	"github.com/jllopis/ethos/pkg/registry"
)

// personaURIPrefix is the scheme under which personas are exposed as
// MCP resources.
const personaURIPrefix = "ethos://personas/"

// Suggester matches the index suggestion surface. Kept as a local
// interface so the server works without a vector backend.
type Suggester interface {
	Suggest(ctx context.Context, text string, limit int) ([]index.Suggestion, error)
}

// ServerOption configures the MCP server.
type ServerOption func(*Server)

// WithSuggester enables the suggest_persona tool.
func WithSuggester(s Suggester) ServerOption {
	return func(srv *Server) { srv.suggester = s }
}

// WithLintResolver enables the lint_corpus tool. The resolver should
// read the same sources the registry store does.
func WithLintResolver(r *corpus.Resolver) ServerOption {
	return func(srv *Server) { srv.resolver = r }
}

// WithLinter overrides the default linter used by lint_corpus.
func WithLinter(l *lint.Linter) ServerOption {
	return func(srv *Server) { srv.linter = l }
}

// Server exposes the persona registry over the Model Context Protocol.
// It answers from the store's current snapshot, so corpus reloads are
// picked up without restarting the server.
type Server struct {
	store     *registry.Store
	suggester Suggester
	resolver  *corpus.Resolver
	linter    *lint.Linter
	mcpServer *server.MCPServer
}

// NewServer creates an MCP server over the registry store.
func NewServer(store *registry.Store, version string, opts ...ServerOption) *Server {
	s := &Server{
		store:  store,
		linter: lint.New(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mcpServer = server.NewMCPServer(
		"ethos",
		version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions),
	)
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio runs the server on stdin/stdout until the client hangs up.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeHTTP runs the server on the streamable HTTP transport.
func (s *Server) ServeHTTP(addr string) error {
	return server.NewStreamableHTTPServer(s.mcpServer).Start(addr)
}

func (s *Server) registerTools() {
	listTool := mcp.NewTool("list_personas",
		mcp.WithDescription("List personas in the registry, optionally filtered by tool name or a free-text query."),
		mcp.WithString("tool", mcp.Description("Only personas granted this tool.")),
		mcp.WithString("query", mcp.Description("Substring match over persona names and descriptions.")),
	)
	s.mcpServer.AddTool(listTool, s.handleListPersonas)

	getTool := mcp.NewTool("get_persona",
		mcp.WithDescription("Fetch one persona's full Markdown document by id."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Persona id, e.g. code-reviewer.")),
	)
	s.mcpServer.AddTool(getTool, s.handleGetPersona)

	suggestTool := mcp.NewTool("suggest_persona",
		mcp.WithDescription("Suggest the personas best suited for a task description, ranked by semantic similarity."),
		mcp.WithString("text", mcp.Required(), mcp.Description("The task to find a persona for.")),
		mcp.WithNumber("limit", mcp.Description("Maximum suggestions to return, default 5.")),
	)
	s.mcpServer.AddTool(suggestTool, s.handleSuggestPersona)

	lintTool := mcp.NewTool("lint_corpus",
		mcp.WithDescription("Run the corpus lint rules and report findings by severity."),
	)
	s.mcpServer.AddTool(lintTool, s.handleLintCorpus)
}

// registerResources exposes one markdown resource per persona from the
// current snapshot plus a template so reads work for personas added by
// later reloads.
func (s *Server) registerResources() {
	if reg := s.store.Current(); reg != nil {
		for _, p := range reg.List() {
			resource := mcp.NewResource(
				personaURIPrefix+p.Name,
				p.Name,
				mcp.WithResourceDescription(p.Description),
				mcp.WithMIMEType("text/markdown"),
			)
			s.mcpServer.AddResource(resource, s.handleReadPersona)
		}
	}
	template := mcp.NewResourceTemplate(
		personaURIPrefix+"{id}",
		"persona",
		mcp.WithTemplateDescription("A persona document from the registry."),
		mcp.WithTemplateMIMEType("text/markdown"),
	)
	s.mcpServer.AddResourceTemplate(template, s.handleReadPersona)
}

func (s *Server) handleListPersonas(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	reg := s.store.Current()
	if reg == nil {
		return mcp.NewToolResultError("registry not loaded"), nil
	}
	args, _ := request.Params.Arguments.(map[string]interface{})
	tool := stringArg(args, "tool")
	needle := strings.ToLower(stringArg(args, "query"))

	type entry struct {
		Name        string   `json:"name"`
		Description string   `json:"description"`
		Tools       []string `json:"tools,omitempty"`
		Source      string   `json:"source,omitempty"`
	}
	out := []entry{}
	for _, p := range reg.List() {
		if tool != "" && !contains(p.Tools, tool) {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(p.Name), needle) &&
			!strings.Contains(strings.ToLower(p.Description), needle) {
			continue
		}
		out = append(out, entry{Name: p.Name, Description: p.Description, Tools: p.Tools, Source: p.SourceName})
	}
	return jsonResult(map[string]any{"personas": out, "total": len(out)})
}

func (s *Server) handleGetPersona(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	reg := s.store.Current()
	if reg == nil {
		return mcp.NewToolResultError("registry not loaded"), nil
	}
	args, _ := request.Params.Arguments.(map[string]interface{})
	id := stringArg(args, "id")
	if id == "" {
		return mcp.NewToolResultError("id is required"), nil
	}
	p, err := reg.Lookup(id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(p.Body), nil
}

func (s *Server) handleSuggestPersona(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.suggester == nil {
		return mcp.NewToolResultError("suggestion index not configured"), nil
	}
	args, _ := request.Params.Arguments.(map[string]interface{})
	text := stringArg(args, "text")
	limit := intArg(args, "limit")
	suggestions, err := s.suggester.Suggest(ctx, text, limit)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{"suggestions": suggestions})
}

func (s *Server) handleLintCorpus(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.resolver == nil {
		return mcp.NewToolResultError("lint resolver not configured"), nil
	}
	res, err := s.resolver.Resolve()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	findings := s.linter.Run(res)
	return jsonResult(map[string]any{
		"findings":   findings,
		"counts":     lint.CountBySeverity(findings),
		"has_errors": lint.HasErrors(findings),
	})
}

func (s *Server) handleReadPersona(_ context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	reg := s.store.Current()
	if reg == nil {
		return nil, fmt.Errorf("registry not loaded")
	}
	id := strings.TrimPrefix(request.Params.URI, personaURIPrefix)
	p, err := reg.Lookup(id)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "text/markdown",
			Text:     p.Body,
		},
	}, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	payload, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(payload)), nil
}

func stringArg(args map[string]interface{}, key string) string {
	if args == nil {
		return ""
	}
	v, _ := args[key].(string)
	return v
}

func intArg(args map[string]interface{}, key string) int {
	if args == nil {
		return 0
	}
	if v, ok := args[key].(float64); ok {
		return int(v)
	}
	return 0
}

func contains(items []string, want string) bool {
	for _, item := range items {
		if item == want {
			return true
		}
	}
	return false
}

const serverInstructions = `You have access to a persona registry.

Use list_personas to discover available personas, get_persona to read a
persona's full instructions, and suggest_persona to find the best
persona for a task description. Each persona is also exposed as a
markdown resource under ethos://personas/{id}.

Run lint_corpus before publishing corpus changes and fix any findings
with error severity.`
