// Package catalog persists registry snapshots in SQLite so other
// tooling can query the corpus without parsing Markdown.
package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/jllopis/ethos/pkg/errors"
	"github.com/jllopis/ethos/pkg/persona"
	"github.com/jllopis/ethos/pkg/registry"
)

const (
	personaTable    = "personas"
	delegationTable = "delegations"
)

// Catalog is a SQLite-backed projection of a registry snapshot.
type Catalog struct {
	db *sql.DB
}

// Open opens (or creates) a catalog database at path and ensures the
// schema. Use ":memory:" for an ephemeral catalog.
func Open(path string) (*Catalog, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.New(errors.CodeStoreError, "open catalog", err).
			WithContext("path", path)
	}
	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Catalog{db: db}, nil
}

// NewWithDB wraps an existing database handle and ensures the schema.
func NewWithDB(db *sql.DB) (*Catalog, error) {
	if db == nil {
		return nil, errors.New(errors.CodeInvalidInput, "db is nil", nil)
	}
	if err := ensureSchema(db); err != nil {
		return nil, err
	}
	return &Catalog{db: db}, nil
}

// Close releases the underlying database handle.
func (c *Catalog) Close() error { return c.db.Close() }

func ensureSchema(db *sql.DB) error {
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL,
			summary TEXT NOT NULL,
			tools_json TEXT NOT NULL,
			doc_json BLOB NOT NULL,
			source TEXT NOT NULL,
			path TEXT NOT NULL,
			fingerprint TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		);`, personaTable),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_fingerprint ON %s(fingerprint);`, personaTable, personaTable),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			persona_id TEXT NOT NULL,
			ord INTEGER NOT NULL,
			trigger TEXT NOT NULL,
			target TEXT NOT NULL,
			PRIMARY KEY(persona_id, ord)
		);`, delegationTable),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_target ON %s(target);`, delegationTable, delegationTable),
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return errors.New(errors.CodeStoreError, "ensure catalog schema", err)
		}
	}
	return nil
}

// SyncResult summarizes a Sync pass.
type SyncResult struct {
	Upserted  int `json:"upserted"`
	Deleted   int `json:"deleted"`
	Unchanged int `json:"unchanged"`
}

// Sync makes the catalog match the snapshot. Rows are rewritten only
// when the document fingerprint changed; personas that vanished from
// the snapshot are deleted. The whole pass runs in one transaction.
func (c *Catalog) Sync(ctx context.Context, reg *registry.Registry) (SyncResult, error) {
	var result SyncResult

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return result, errors.New(errors.CodeStoreError, "begin sync", err)
	}
	defer func() { _ = tx.Rollback() }()

	existing := make(map[string]string) // id -> fingerprint
	rows, err := tx.QueryContext(ctx, fmt.Sprintf("SELECT id, fingerprint FROM %s", personaTable))
	if err != nil {
		return result, errors.New(errors.CodeStoreError, "read catalog state", err)
	}
	for rows.Next() {
		var id, fingerprint string
		if err := rows.Scan(&id, &fingerprint); err != nil {
			rows.Close()
			return result, errors.New(errors.CodeStoreError, "scan catalog state", err)
		}
		existing[id] = fingerprint
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return result, errors.New(errors.CodeStoreError, "read catalog state", err)
	}
	rows.Close()

	now := time.Now().UTC().UnixMilli()
	live := make(map[string]bool)
	for _, p := range reg.List() {
		live[p.Name] = true
		if existing[p.Name] == p.Fingerprint {
			result.Unchanged++
			continue
		}
		if err := upsertPersona(ctx, tx, p, now); err != nil {
			return result, err
		}
		result.Upserted++
	}
	for id := range existing {
		if live[id] {
			continue
		}
		if err := deletePersona(ctx, tx, id); err != nil {
			return result, err
		}
		result.Deleted++
	}

	if err := tx.Commit(); err != nil {
		return result, errors.New(errors.CodeStoreError, "commit sync", err)
	}
	return result, nil
}

func upsertPersona(ctx context.Context, tx *sql.Tx, p persona.Persona, now int64) error {
	toolsJSON, err := json.Marshal(p.Tools)
	if err != nil {
		return errors.New(errors.CodeStoreError, "marshal tools", err)
	}
	docJSON, err := json.Marshal(p)
	if err != nil {
		return errors.New(errors.CodeStoreError, "marshal persona", err)
	}
	_, err = tx.ExecContext(ctx, fmt.Sprintf(`INSERT INTO %s
		(id, name, description, summary, tools_json, doc_json, source, path, fingerprint, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			summary = excluded.summary,
			tools_json = excluded.tools_json,
			doc_json = excluded.doc_json,
			source = excluded.source,
			path = excluded.path,
			fingerprint = excluded.fingerprint,
			updated_at = excluded.updated_at`, personaTable),
		p.Name, p.Name, p.Description, p.Summary, string(toolsJSON), docJSON,
		p.SourceName, p.Path, p.Fingerprint, now)
	if err != nil {
		return errors.New(errors.CodeStoreError, "upsert persona", err).
			WithContext("persona", p.Name)
	}

	if _, err := tx.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE persona_id = ?", delegationTable), p.Name); err != nil {
		return errors.New(errors.CodeStoreError, "clear delegations", err).
			WithContext("persona", p.Name)
	}
	for ord, rule := range p.Delegations {
		if _, err := tx.ExecContext(ctx,
			fmt.Sprintf("INSERT INTO %s (persona_id, ord, trigger, target) VALUES (?, ?, ?, ?)", delegationTable),
			p.Name, ord, rule.Trigger, rule.Target); err != nil {
			return errors.New(errors.CodeStoreError, "insert delegation", err).
				WithContext("persona", p.Name)
		}
	}
	return nil
}

func deletePersona(ctx context.Context, tx *sql.Tx, id string) error {
	if _, err := tx.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE id = ?", personaTable), id); err != nil {
		return errors.New(errors.CodeStoreError, "delete persona", err).
			WithContext("persona", id)
	}
	if _, err := tx.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE persona_id = ?", delegationTable), id); err != nil {
		return errors.New(errors.CodeStoreError, "delete delegations", err).
			WithContext("persona", id)
	}
	return nil
}

// Get returns the persona with the given id.
func (c *Catalog) Get(ctx context.Context, id string) (persona.Persona, error) {
	var payload []byte
	err := c.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT doc_json FROM %s WHERE id = ?", personaTable), id).Scan(&payload)
	if err != nil {
		if err == sql.ErrNoRows {
			return persona.Persona{}, errors.New(errors.CodeNotFound, "persona not found", nil).
				WithContext("persona", id)
		}
		return persona.Persona{}, errors.New(errors.CodeStoreError, "get persona", err)
	}
	var p persona.Persona
	if err := json.Unmarshal(payload, &p); err != nil {
		return persona.Persona{}, errors.New(errors.CodeStoreError, "unmarshal persona", err)
	}
	return p, nil
}

// Stats summarizes catalog contents.
type Stats struct {
	Personas    int            `json:"personas"`
	Delegations int            `json:"delegations"`
	BySource    map[string]int `json:"by_source"`
}

// Stats returns row counts for status output.
func (c *Catalog) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{BySource: make(map[string]int)}
	if err := c.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT COUNT(*) FROM %s", personaTable)).Scan(&stats.Personas); err != nil {
		return stats, errors.New(errors.CodeStoreError, "count personas", err)
	}
	if err := c.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT COUNT(*) FROM %s", delegationTable)).Scan(&stats.Delegations); err != nil {
		return stats, errors.New(errors.CodeStoreError, "count delegations", err)
	}
	rows, err := c.db.QueryContext(ctx,
		fmt.Sprintf("SELECT source, COUNT(*) FROM %s GROUP BY source", personaTable))
	if err != nil {
		return stats, errors.New(errors.CodeStoreError, "count by source", err)
	}
	defer rows.Close()
	for rows.Next() {
		var source string
		var count int
		if err := rows.Scan(&source, &count); err != nil {
			return stats, errors.New(errors.CodeStoreError, "scan source count", err)
		}
		stats.BySource[source] = count
	}
	return stats, rows.Err()
}
