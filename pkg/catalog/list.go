package catalog

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/jllopis/ethos/pkg/errors"
	"github.com/jllopis/ethos/pkg/persona"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

// Filter selects and paginates catalog rows.
type Filter struct {
	// Tool keeps only personas whose allowlist names the tool.
	Tool string
	// Query is a case-insensitive substring match over name and
	// description.
	Query     string
	PageSize  int
	PageToken string
}

// Page is one page of list results.
type Page struct {
	Personas      []persona.Persona `json:"personas"`
	Total         int               `json:"total"`
	NextPageToken string            `json:"next_page_token,omitempty"`
}

// List returns a page of personas ordered by id.
func (c *Catalog) List(ctx context.Context, filter Filter) (Page, error) {
	pageSize := clampPageSize(filter.PageSize)
	offset := 0
	if filter.PageToken != "" {
		parsed, err := parsePageToken(filter.PageToken)
		if err != nil {
			return Page{}, err
		}
		offset = parsed
	}

	where, args := buildFilter(filter)
	var total int
	if err := c.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT COUNT(*) FROM %s%s", personaTable, where), args...).Scan(&total); err != nil {
		return Page{}, errors.New(errors.CodeStoreError, "count personas", err)
	}
	page := Page{Personas: []persona.Persona{}, Total: total}
	if offset >= total {
		return page, nil
	}

	query := fmt.Sprintf("SELECT doc_json FROM %s%s ORDER BY id ASC LIMIT ? OFFSET ?", personaTable, where)
	args = append(args, pageSize, offset)
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return Page{}, errors.New(errors.CodeStoreError, "list personas", err)
	}
	defer rows.Close()

	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return Page{}, errors.New(errors.CodeStoreError, "scan persona", err)
		}
		var p persona.Persona
		if err := json.Unmarshal(payload, &p); err != nil {
			return Page{}, errors.New(errors.CodeStoreError, "unmarshal persona", err)
		}
		page.Personas = append(page.Personas, p)
	}
	if err := rows.Err(); err != nil {
		return Page{}, errors.New(errors.CodeStoreError, "list personas", err)
	}

	if next := offset + len(page.Personas); next < total {
		page.NextPageToken = encodePageToken(next)
	}
	return page, nil
}

// Search is List with only a query filter, kept as a convenience for
// the CLI and MCP surface.
func (c *Catalog) Search(ctx context.Context, query string, pageSize int) (Page, error) {
	return c.List(ctx, Filter{Query: query, PageSize: pageSize})
}

func buildFilter(filter Filter) (string, []any) {
	var clauses []string
	var args []any
	if filter.Tool != "" {
		// tools_json is a JSON array of strings; exact-element match.
		clauses = append(clauses, `tools_json LIKE ? ESCAPE '\'`)
		args = append(args, `%"`+escapeLike(filter.Tool)+`"%`)
	}
	if filter.Query != "" {
		clauses = append(clauses, `(name LIKE ? ESCAPE '\' OR description LIKE ? ESCAPE '\')`)
		needle := "%" + escapeLike(filter.Query) + "%"
		args = append(args, needle, needle)
	}
	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func escapeLike(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)
	return replacer.Replace(value)
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
