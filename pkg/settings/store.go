package settings

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"pixgallery/pkg/log"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

const (
	// SettingsKey holds the preference blob.
	SettingsKey = "gallery.settings"
	// CredentialKey holds the raw API key.
	CredentialKey = "gallery.api_key"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var gooseMu sync.Mutex

// Store is the client-local key/value store in SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewStore opens (creating if needed) the database at dbPath and migrates it.
func NewStore(ctx context.Context, dbPath string) (*Store, error) {
	database, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open database: %w", ErrDatabaseError, err)
	}

	if _, err := database.ExecContext(ctx, "PRAGMA journal_mode = WAL"); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("%w: failed to enable WAL mode: %w", ErrDatabaseError, err)
	}

	if err := runMigrations(ctx, database); err != nil {
		_ = database.Close()
		return nil, err
	}

	return &Store{db: database}, nil
}

// goose keeps its FS and dialect in package globals.
func runMigrations(ctx context.Context, db *sql.DB) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(gooseLogger{})
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("%w: failed to set goose dialect: %w", ErrDatabaseError, err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("%w: failed to migrate: %w", ErrDatabaseError, err)
	}
	return nil
}

type gooseLogger struct{}

func (gooseLogger) Printf(format string, v ...interface{}) {
	log.Debug().Msg(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (gooseLogger) Fatalf(format string, v ...interface{}) {
	log.Fatal().Msg(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get %s: %w", ErrDatabaseError, key, err)
	}
	return value, nil
}

func (s *Store) set(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value)
	if err != nil {
		return fmt.Errorf("%w: failed to set %s: %w", ErrDatabaseError, key, err)
	}
	return nil
}

func (s *Store) delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("%w: failed to delete %s: %w", ErrDatabaseError, key, err)
	}
	return nil
}

// LoadSettings reads the stored blob merged over the defaults.
func (s *Store) LoadSettings(ctx context.Context) (Settings, error) {
	blob, err := s.get(ctx, SettingsKey)
	if err != nil {
		return Defaults(), err
	}
	return Merge(blob), nil
}

// SaveSettings stores the whole blob.
func (s *Store) SaveSettings(ctx context.Context, settings Settings) error {
	blob, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	return s.set(ctx, SettingsKey, blob)
}

// LoadCredential returns the stored API key, or "" if none.
func (s *Store) LoadCredential(ctx context.Context) (string, error) {
	value, err := s.get(ctx, CredentialKey)
	if err != nil {
		return "", err
	}
	return string(value), nil
}

// SaveCredential stores the API key as given.
func (s *Store) SaveCredential(ctx context.Context, credential string) error {
	return s.set(ctx, CredentialKey, []byte(credential))
}

// ClearCredential forgets the API key.
func (s *Store) ClearCredential(ctx context.Context) error {
	return s.delete(ctx, CredentialKey)
}
