package sharedstate

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// SQLiteStore backs the shared-document port with a single JSONB table.
// Update runs inside a BEGIN IMMEDIATE transaction so the check-then-write
// of a guarded mutation is atomic relative to racing clients.
type SQLiteStore struct {
	db     *sql.DB
	broker *Broker
}

func NewSQLiteStore(ctx context.Context, db *sql.DB, broker *Broker) (*SQLiteStore, error) {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS documents (
			key  TEXT PRIMARY KEY,
			data JSONB NOT NULL
		)`)
	if err != nil {
		return nil, fmt.Errorf("creating documents table: %w", err)
	}
	return &SQLiteStore{db: db, broker: broker}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, key string, dest any) error {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT json(data) FROM documents WHERE key = ?`, key,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(data), dest)
}

func (s *SQLiteStore) Set(ctx context.Context, key string, doc any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO documents (key, data) VALUES (?, jsonb(?))`,
		key, string(data),
	)
	if err != nil {
		return err
	}
	s.broker.Publish(key, data)
	return nil
}

func (s *SQLiteStore) Patch(ctx context.Context, key string, patch map[string]any) error {
	return s.Update(ctx, key, func(raw []byte) ([]byte, error) {
		var doc map[string]any
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &doc); err != nil {
				return nil, err
			}
		}
		return json.Marshal(mergeDoc(doc, patch))
	})
}

func (s *SQLiteStore) Update(ctx context.Context, key string, fn func(raw []byte) ([]byte, error)) error {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	// BEGIN IMMEDIATE takes the write lock before the read, so two racing
	// Updates queue at the busy handler instead of both reading and one
	// failing on a stale snapshot at commit.
	if _, err := conn.ExecContext(ctx, "BEGIN IMMEDIATE"); err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			conn.ExecContext(ctx, "ROLLBACK")
		}
	}()

	var data string
	err = conn.QueryRowContext(ctx,
		`SELECT json(data) FROM documents WHERE key = ?`, key,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	next, err := fn([]byte(data))
	if err != nil {
		return err
	}

	if _, err := conn.ExecContext(ctx,
		`UPDATE documents SET data = jsonb(?) WHERE key = ?`, string(next), key,
	); err != nil {
		return err
	}
	if _, err := conn.ExecContext(ctx, "COMMIT"); err != nil {
		return err
	}
	committed = true

	s.broker.Publish(key, next)
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE key = ?`, key,
	)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) Subscribe(key string) chan []byte {
	return s.broker.Subscribe(key)
}

func (s *SQLiteStore) Unsubscribe(key string, ch chan []byte) {
	s.broker.Unsubscribe(key, ch)
}
