package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// SQLiteStore implements Store on a local SQLite database, with each record
// held as a JSON document. The driver is modernc.org/sqlite, registered by
// the caller that opens the *sql.DB.
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteStore wraps an open database handle.
func NewSQLiteStore(db *sql.DB, logger *zap.Logger) *SQLiteStore {
	return &SQLiteStore{db: db, logger: logger}
}

// Init creates the records table if it does not exist.
func (s *SQLiteStore) Init(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS records (
			kind   TEXT NOT NULL,
			id     TEXT NOT NULL,
			fields TEXT NOT NULL,
			PRIMARY KEY (kind, id)
		)`)
	if err != nil {
		return fmt.Errorf("creating records table: %w", err)
	}
	return nil
}

func (s *SQLiteStore) FetchCollection(ctx context.Context, kind string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT fields FROM records WHERE kind = ?`, kind)
	if err != nil {
		return nil, fmt.Errorf("fetching %s collection: %w", kind, err)
	}
	defer rows.Close()
	return s.scanRecords(rows, kind)
}

func (s *SQLiteStore) FetchByIDs(ctx context.Context, kind string, ids []string) ([]Record, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, 0, len(ids)+1)
	args = append(args, kind)
	for _, id := range ids {
		args = append(args, id)
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT fields FROM records WHERE kind = ? AND id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("fetching %s by ids: %w", kind, err)
	}
	defer rows.Close()
	return s.scanRecords(rows, kind)
}

func (s *SQLiteStore) UpdateRecord(ctx context.Context, kind, id string, partial map[string]any) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning update: %w", err)
	}
	defer tx.Rollback()

	var raw string
	err = tx.QueryRowContext(ctx,
		`SELECT fields FROM records WHERE kind = ? AND id = ?`, kind, id).Scan(&raw)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("reading record %s/%s: %w", kind, id, err)
	}

	var rec Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return fmt.Errorf("decoding record %s/%s: %w", kind, id, err)
	}
	for k, v := range partial {
		rec[k] = v
	}
	rec["id"] = id // the identifying key is never patched away

	encoded, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding record %s/%s: %w", kind, id, err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE records SET fields = ? WHERE kind = ? AND id = ?`, string(encoded), kind, id); err != nil {
		return fmt.Errorf("updating record %s/%s: %w", kind, id, err)
	}
	return tx.Commit()
}

func (s *SQLiteStore) DeleteRecord(ctx context.Context, kind, id string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM records WHERE kind = ? AND id = ?`, kind, id)
	if err != nil {
		return fmt.Errorf("deleting record %s/%s: %w", kind, id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting record %s/%s: %w", kind, id, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) InsertRecord(ctx context.Context, kind string, rec Record) error {
	encoded, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding record: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO records (kind, id, fields) VALUES (?, ?, ?)
		ON CONFLICT(kind, id) DO UPDATE SET fields = excluded.fields`,
		kind, rec.ID(), string(encoded))
	if err != nil {
		return fmt.Errorf("inserting record %s/%s: %w", kind, rec.ID(), err)
	}
	return nil
}

func (s *SQLiteStore) scanRecords(rows *sql.Rows, kind string) ([]Record, error) {
	var out []Record
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scanning %s row: %w", kind, err)
		}
		var rec Record
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			// Tolerate a corrupt row rather than failing the whole collection.
			s.logger.Warn("skipping undecodable record",
				zap.String("kind", kind), zap.Error(err))
			continue
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
