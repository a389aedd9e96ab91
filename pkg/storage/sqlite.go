package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/goliatone/go-formdesigner/pkg/schema"
)

// timeLayout sorts lexically for UTC values.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteRepository stores documents in a single SQLite table through the
// pure Go modernc driver.
type SQLiteRepository struct {
	db    *sql.DB
	clock Clock
	owned bool
}

var _ Repository = (*SQLiteRepository)(nil)

// OpenSQLite opens dsn with the "sqlite" driver and runs Migrate.
func OpenSQLite(ctx context.Context, dsn string, opts ...Option) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("storage: open sqlite: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("storage: ping sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("storage: configure sqlite: %w", err)
	}
	repo := NewSQLiteRepository(db, opts...)
	repo.owned = true
	if err := repo.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// NewSQLiteRepository wraps an open handle. The caller keeps ownership of db
// and must call Migrate before use.
func NewSQLiteRepository(db *sql.DB, opts ...Option) *SQLiteRepository {
	return &SQLiteRepository{db: db, clock: buildOptions(opts).clock}
}

// Migrate creates the form_documents table when missing.
func (s *SQLiteRepository) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS form_documents (
			id          TEXT PRIMARY KEY,
			title       TEXT NOT NULL,
			field_count INTEGER NOT NULL,
			document    TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_form_documents_updated
			ON form_documents (updated_at DESC);
	`)
	if err != nil {
		return fmt.Errorf("storage: migrate: %w", err)
	}
	return nil
}

// Close releases the handle when it was opened by OpenSQLite.
func (s *SQLiteRepository) Close() error {
	if s == nil || s.db == nil || !s.owned {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteRepository) Save(ctx context.Context, rec Record) error {
	if err := ValidateID(rec.ID); err != nil {
		return err
	}
	rec = stamp(rec, s.clock)
	payload, err := json.Marshal(rec.Document)
	if err != nil {
		return fmt.Errorf("storage: encode %s: %w", rec.ID, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO form_documents (id, title, field_count, document, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			field_count = excluded.field_count,
			document = excluded.document,
			updated_at = excluded.updated_at`,
		rec.ID, rec.Document.Title, len(rec.Document.Fields), string(payload), rec.UpdatedAt.Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("storage: save %s: %w", rec.ID, err)
	}
	return nil
}

func (s *SQLiteRepository) Load(ctx context.Context, id string) (Record, error) {
	var payload, updated string
	err := s.db.QueryRowContext(ctx,
		`SELECT document, updated_at FROM form_documents WHERE id = ?`, id,
	).Scan(&payload, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("storage: load %s: %w", id, err)
	}

	var doc schema.FormDocument
	if err := json.Unmarshal([]byte(payload), &doc); err != nil {
		return Record{}, fmt.Errorf("storage: decode %s: %w", id, err)
	}
	at, err := time.Parse(timeLayout, updated)
	if err != nil {
		return Record{}, fmt.Errorf("storage: decode %s timestamp: %w", id, err)
	}
	return Record{ID: id, Document: doc, UpdatedAt: at}, nil
}

func (s *SQLiteRepository) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, field_count, updated_at FROM form_documents ORDER BY updated_at DESC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("storage: list: %w", err)
	}
	defer rows.Close()

	out := []Summary{}
	for rows.Next() {
		var (
			item    Summary
			updated string
		)
		if err := rows.Scan(&item.ID, &item.Title, &item.FieldCount, &updated); err != nil {
			return nil, fmt.Errorf("storage: list scan: %w", err)
		}
		if item.UpdatedAt, err = time.Parse(timeLayout, updated); err != nil {
			return nil, fmt.Errorf("storage: list %s timestamp: %w", item.ID, err)
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: list: %w", err)
	}
	return out, nil
}

func (s *SQLiteRepository) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM form_documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("storage: delete %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("storage: delete %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
