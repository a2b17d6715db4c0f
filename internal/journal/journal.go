// Package journal keeps a local SQLite log of every write the backend
// confirmed from this machine.
package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JAlbrecht-svg/inkasso-console/internal/model"
)

// Entry is one journal line.
type Entry struct {
	ID        string          `json:"id"`
	Kind      string          `json:"kind"`
	EntityID  string          `json:"entity_id"`
	CaseID    string          `json:"case_id,omitempty"`
	Actor     string          `json:"actor"`
	Summary   string          `json:"summary"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	CreatedAt time.Time       `json:"created_at"`
}

// Filter narrows Entries. Zero values match everything.
type Filter struct {
	CaseID string
	Kind   string
	Limit  int
}

// Journal is the SQLite-backed log.
type Journal struct {
	db    *sql.DB
	actor string
}

// Open creates or opens the journal database at path. actor is stored with
// every entry.
func Open(path, actor string) (*Journal, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create journal directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open(sqliteDriver, dsn(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	db.SetMaxOpenConns(1)

	j := &Journal{db: db, actor: actor}
	if err := j.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate journal: %w", err)
	}
	return j, nil
}

// Close closes the database connection.
func (j *Journal) Close() error {
	return j.db.Close()
}

func (j *Journal) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS journal_entries (
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			entity_id TEXT NOT NULL,
			case_id TEXT,
			actor TEXT NOT NULL,
			summary TEXT NOT NULL,
			payload TEXT,
			timestamp INTEGER NOT NULL,
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_journal_case_id ON journal_entries(case_id)`,
		`CREATE INDEX IF NOT EXISTS idx_journal_timestamp ON journal_entries(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_journal_kind ON journal_entries(kind)`,
	}
	for _, m := range migrations {
		if _, err := j.db.Exec(m); err != nil {
			return fmt.Errorf("failed to execute journal migration: %w", err)
		}
	}
	return nil
}

// Record stores a confirmed change.
func (j *Journal) Record(ctx context.Context, c model.Change) error {
	e := Entry{
		Kind:      string(c.Kind),
		EntityID:  c.EntityID,
		CaseID:    c.CaseID,
		Summary:   c.Summary,
		Timestamp: c.At,
	}
	if c.Payload != nil {
		data, err := json.Marshal(c.Payload)
		if err != nil {
			return fmt.Errorf("failed to marshal journal payload: %w", err)
		}
		e.Payload = data
	}
	return j.Add(ctx, e)
}

// Add inserts an entry, filling in id, actor and timestamps when unset.
func (j *Journal) Add(ctx context.Context, e Entry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Actor == "" {
		e.Actor = j.actor
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	e.CreatedAt = time.Now()

	var payload any
	if len(e.Payload) > 0 {
		payload = string(e.Payload)
	}
	var caseID any
	if e.CaseID != "" {
		caseID = e.CaseID
	}

	_, err := j.db.ExecContext(ctx, `INSERT INTO journal_entries (
		id, kind, entity_id, case_id, actor, summary, payload, timestamp, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Kind, e.EntityID, caseID, e.Actor, e.Summary, payload,
		e.Timestamp.UnixMilli(), e.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to insert journal entry: %w", err)
	}
	return nil
}

// Entries returns matching entries, newest first.
func (j *Journal) Entries(ctx context.Context, f Filter) ([]Entry, error) {
	var (
		where []string
		args  []any
	)
	if f.CaseID != "" {
		where = append(where, "case_id = ?")
		args = append(args, f.CaseID)
	}
	if f.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, f.Kind)
	}
	query := `SELECT id, kind, entity_id, case_id, actor, summary, payload, timestamp, created_at
		FROM journal_entries`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY timestamp DESC, rowid DESC"
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", f.Limit)
	}

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e                    Entry
			caseID, payload      sql.NullString
			timestamp, createdAt int64
		)
		if err := rows.Scan(&e.ID, &e.Kind, &e.EntityID, &caseID, &e.Actor, &e.Summary,
			&payload, &timestamp, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan journal entry: %w", err)
		}
		e.CaseID = caseID.String
		if payload.Valid {
			e.Payload = json.RawMessage(payload.String)
		}
		e.Timestamp = time.UnixMilli(timestamp)
		e.CreatedAt = time.UnixMilli(createdAt)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read journal: %w", err)
	}
	return entries, nil
}

// Prune deletes entries recorded before cutoff and reports how many.
func (j *Journal) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := j.db.ExecContext(ctx, `DELETE FROM journal_entries WHERE timestamp < ?`, cutoff.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to prune journal: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count pruned entries: %w", err)
	}
	return n, nil
}
