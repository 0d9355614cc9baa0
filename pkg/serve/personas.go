package serve

import (
	"encoding/base64"
	"net/http"
	"strconv"
	"strings"

	"github.com/jllopis/ethos/pkg/errors"
	"github.com/jllopis/ethos/pkg/persona"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

type listResponse struct {
	Personas      []personaSummary `json:"personas"`
	Total         int              `json:"total"`
	NextPageToken string           `json:"next_page_token,omitempty"`
}

type personaSummary struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Summary     string   `json:"summary,omitempty"`
	Tools       []string `json:"tools,omitempty"`
	Model       string   `json:"model,omitempty"`
	Source      string   `json:"source,omitempty"`
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	reg, err := s.snapshot()
	if err != nil {
		writeError(w, err)
		return
	}
	query := r.URL.Query()
	tool := query.Get("tool")
	needle := strings.ToLower(query.Get("q"))

	var matched []persona.Persona
	for _, p := range reg.List() {
		if tool != "" && !hasTool(p, tool) {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(p.Name), needle) &&
			!strings.Contains(strings.ToLower(p.Description), needle) {
			continue
		}
		matched = append(matched, p)
	}

	pageSize := clampPageSize(parseIntQuery(r, "pageSize"))
	offset := 0
	if token := query.Get("pageToken"); token != "" {
		offset, err = parsePageToken(token)
		if err != nil {
			writeError(w, err)
			return
		}
	}

	resp := listResponse{Personas: []personaSummary{}, Total: len(matched)}
	if offset < len(matched) {
		end := offset + pageSize
		if end > len(matched) {
			end = len(matched)
		}
		for _, p := range matched[offset:end] {
			resp.Personas = append(resp.Personas, summarize(p))
		}
		if end < len(matched) {
			resp.NextPageToken = encodePageToken(end)
		}
	}
	writeJSON(w, resp)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request, id string) {
	reg, err := s.snapshot()
	if err != nil {
		writeError(w, err)
		return
	}
	p, err := reg.Lookup(id)
	if err != nil {
		writeError(w, err)
		return
	}

	switch r.URL.Query().Get("format") {
	case "", "json":
		writeJSON(w, p)
	case "markdown", "md":
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		_, _ = w.Write([]byte(p.Body))
	case "html":
		html, err := RenderHTML(p.Body)
		if err != nil {
			writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(html))
	default:
		writeError(w, errors.New(errors.CodeInvalidInput,
			"unknown format; use json, markdown, or html", nil))
	}
}

func (s *Server) handleDelegations(w http.ResponseWriter, _ *http.Request, id string) {
	reg, err := s.snapshot()
	if err != nil {
		writeError(w, err)
		return
	}
	p, err := reg.Lookup(id)
	if err != nil {
		writeError(w, err)
		return
	}
	rules := p.Delegations
	if rules == nil {
		rules = []persona.DelegationRule{}
	}
	writeJSON(w, map[string]any{"persona": p.Name, "delegations": rules})
}

func summarize(p persona.Persona) personaSummary {
	return personaSummary{
		Name:        p.Name,
		Description: p.Description,
		Summary:     p.Summary,
		Tools:       p.Tools,
		Model:       p.Model,
		Source:      p.SourceName,
	}
}

func hasTool(p persona.Persona, tool string) bool {
	for _, t := range p.Tools {
		if t == tool {
			return true
		}
	}
	return false
}

func clampPageSize(size int) int {
	if size <= 0 {
		return defaultPageSize
	}
	if size > maxPageSize {
		return maxPageSize
	}
	return size
}

func encodePageToken(offset int) string {
	return base64.URLEncoding.EncodeToString([]byte(strconv.Itoa(offset)))
}

func parsePageToken(token string) (int, error) {
	raw, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return 0, errors.New(errors.CodeInvalidInput, "invalid page token", err)
	}
	offset, err := strconv.Atoi(string(raw))
	if err != nil || offset < 0 {
		return 0, errors.New(errors.CodeInvalidInput, "invalid page token", err)
	}
	return offset, nil
}
