// Package sqlitebackend stores arrays in a single SQLite database.
// Arrays share one database file and are namespaced by the URL's
// namespace query parameter: sqlite:///data/arrays.db?namespace=temps.
package sqlitebackend

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"net/url"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/arraylab/cloudarray/internal/backend"
)

// Scheme is the URL scheme this backend serves.
const Scheme = "sqlite"

//go:embed migrations/*.sql
var migrations embed.FS

// Register installs the sqlite:// factory.
func Register() {
	backend.RegisterFactory(backend.Factory{
		Scheme:      Scheme,
		Description: "SQLite store, arrays namespaced within one database",
		Open:        open,
		Validate:    validate,
	})
}

func validate(u *url.URL, _ backend.Config) error {
	if u.Path == "" && u.Opaque == "" {
		return fmt.Errorf("database path is required")
	}
	return nil
}

// Store persists one namespace of a shared SQLite database.
type Store struct {
	db        *sql.DB
	namespace string
}

var _ backend.Backend = (*Store)(nil)

func open(_ context.Context, u *url.URL, _ backend.Config) (backend.Backend, error) {
	dsn := u.Path
	if u.Opaque != "" {
		// sqlite:file:mem?mode=memory style DSN passed through verbatim.
		dsn = u.Opaque
		if u.RawQuery != "" {
			dsn += "?" + u.RawQuery
		}
	}
	namespace := u.Query().Get("namespace")
	if namespace == "" {
		namespace = "default"
	}
	return New(dsn, namespace)
}

// New opens the database at dsn, runs pending migrations and returns a
// store bound to the given namespace.
func New(dsn, namespace string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, namespace: namespace}, nil
}

func migrate(db *sql.DB) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("sqlite"); err != nil {
		return fmt.Errorf("set migration dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

func (s *Store) SaveChunk(ctx context.Context, n int, data []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO array_chunks (namespace, chunk_number, payload, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(namespace, chunk_number)
		DO UPDATE SET payload=excluded.payload, updated_at=CURRENT_TIMESTAMP`,
		s.namespace, n, data)
	if err != nil {
		return fmt.Errorf("save chunk %d: %w", n, err)
	}
	return nil
}

func (s *Store) ReadChunk(ctx context.Context, n int) ([]byte, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM array_chunks WHERE namespace = ? AND chunk_number = ?`,
		s.namespace, n).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, backend.ErrChunkNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read chunk %d: %w", n, err)
	}
	return payload, nil
}

func (s *Store) SaveMetadata(ctx context.Context, doc []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO array_metadata (namespace, doc, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(namespace)
		DO UPDATE SET doc=excluded.doc, updated_at=CURRENT_TIMESTAMP`,
		s.namespace, doc)
	if err != nil {
		return fmt.Errorf("save metadata: %w", err)
	}
	return nil
}

func (s *Store) ReadMetadata(ctx context.Context) ([]byte, error) {
	var doc []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT doc FROM array_metadata WHERE namespace = ?`,
		s.namespace).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, backend.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read metadata: %w", err)
	}
	return doc, nil
}

func (s *Store) Delete(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM array_chunks WHERE namespace = ?`, s.namespace); err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM array_metadata WHERE namespace = ?`, s.namespace); err != nil {
		return fmt.Errorf("delete metadata: %w", err)
	}
	return tx.Commit()
}

func (s *Store) Close() error {
	return s.db.Close()
}
