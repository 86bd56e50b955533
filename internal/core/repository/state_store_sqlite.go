package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/growzapp/gateway/internal/core/domain"
)

const (
	keySession  = "session"
	keyCurrency = "currency"
)

// SQLiteStateStore implements domain.StateStore on a local SQLite file, the
// durable client storage shared by every run of the gateway on this machine.
// When sealKey is non-empty the session blob is encrypted at rest.
type SQLiteStateStore struct {
	db      *sql.DB
	sealKey string
}

// NewSQLiteStateStore opens (creating if needed) the state database at path.
func NewSQLiteStateStore(path, sealKey string) (*SQLiteStateStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open state db: %w", err)
	}

	s := &SQLiteStateStore{db: db, sealKey: sealKey}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLiteStateStoreWithDB wraps an existing database handle. The schema is
// assumed to exist; tests use this with a mocked handle.
func NewSQLiteStateStoreWithDB(db *sql.DB, sealKey string) *SQLiteStateStore {
	return &SQLiteStateStore{db: db, sealKey: sealKey}
}

func (s *SQLiteStateStore) init() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS client_state (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("init state schema: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *SQLiteStateStore) Close() error { return s.db.Close() }

// SaveSession persists the session record as a single JSON blob.
func (s *SQLiteStateStore) SaveSession(ctx context.Context, rec domain.SessionRecord) error {
	blob, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode session record: %w", err)
	}

	value := string(blob)
	if s.sealKey != "" {
		if value, err = seal(value, s.sealKey); err != nil {
			return fmt.Errorf("seal session record: %w", err)
		}
	}
	return s.put(ctx, keySession, value)
}

// LoadSession returns the persisted session record, (nil, nil) when absent.
// An undecodable record is reported as *domain.CorruptStateError.
func (s *SQLiteStateStore) LoadSession(ctx context.Context) (*domain.SessionRecord, error) {
	value, ok, err := s.get(ctx, keySession)
	if err != nil || !ok {
		return nil, err
	}

	if s.sealKey != "" {
		unsealed, err := unseal(value, s.sealKey)
		if err != nil {
			return nil, &domain.CorruptStateError{Key: keySession, Err: err}
		}
		value = unsealed
	}

	var rec domain.SessionRecord
	if err := json.Unmarshal([]byte(value), &rec); err != nil {
		return nil, &domain.CorruptStateError{Key: keySession, Err: err}
	}
	if !rec.Valid() {
		return nil, &domain.CorruptStateError{Key: keySession, Err: errors.New("record missing token or profile")}
	}
	return &rec, nil
}

// ClearSession removes the persisted session record.
func (s *SQLiteStateStore) ClearSession(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM client_state WHERE key = ?`, keySession)
	if err != nil {
		return fmt.Errorf("clear session record: %w", err)
	}
	return nil
}

// SaveCurrency persists the selected display currency.
func (s *SQLiteStateStore) SaveCurrency(ctx context.Context, code domain.CurrencyCode) error {
	return s.put(ctx, keyCurrency, string(code))
}

// LoadCurrency returns the persisted display currency, "" when never set.
func (s *SQLiteStateStore) LoadCurrency(ctx context.Context) (domain.CurrencyCode, error) {
	value, _, err := s.get(ctx, keyCurrency)
	if err != nil {
		return "", err
	}
	return domain.CurrencyCode(value), nil
}

func (s *SQLiteStateStore) put(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO client_state (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("write state %q: %w", key, err)
	}
	return nil
}

func (s *SQLiteStateStore) get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM client_state WHERE key = ?`, key,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read state %q: %w", key, err)
	}
	return value, true, nil
}
