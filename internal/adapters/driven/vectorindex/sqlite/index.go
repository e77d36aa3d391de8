package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/docqa/internal/adapters/driven/vectorindex"
	"github.com/custodia-labs/docqa/internal/adapters/driven/vectorindex/sqlite/migrations"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// DefaultFileName is the database file created inside the data directory.
const DefaultFileName = "vectors.db"

// Index is one named vector index inside a SQLite database.
type Index struct {
	db   *sql.DB
	path string
	name string

	mu   sync.Mutex
	dims int
}

// Open opens (creating if needed) the database at path and binds the index name.
// If path is empty, defaults to ~/.docqa/data/vectors.db.
func Open(path, name string) (*Index, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: index name is required", domain.ErrInvalidInput)
	}
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		path = filepath.Join(home, ".docqa", "data", DefaultFileName)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	if err := migrate(db, migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &Index{db: db, path: path, name: name}, nil
}

// Path returns the database file path.
func (i *Index) Path() string {
	return i.path
}

// EnsureIndex registers the index if it does not exist. An existing index
// keeps its dimensionality; a different request is logged and ignored.
func (i *Index) EnsureIndex(ctx context.Context, dimensions int) error {
	if dimensions <= 0 {
		return fmt.Errorf("%w: dimensions must be positive", domain.ErrInvalidInput)
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	existing, err := i.loadDimensions(ctx)
	switch {
	case err == nil:
		if existing != dimensions {
			logger.Warn("index %q has %d dimensions, embedder reports %d; keeping existing index",
				i.name, existing, dimensions)
		}
		i.dims = existing
		return nil
	case !errors.Is(err, domain.ErrNotFound):
		return err
	}

	if _, err := i.db.ExecContext(ctx,
		"INSERT INTO indexes (name, dimensions) VALUES (?, ?) ON CONFLICT(name) DO NOTHING",
		i.name, dimensions); err != nil {
		return fmt.Errorf("creating index %q: %w", i.name, err)
	}
	logger.Info("created vector index %q (%d dimensions)", i.name, dimensions)
	i.dims = dimensions
	return nil
}

// Upsert writes entries in one transaction. Any wrong-length vector rejects the batch.
func (i *Index) Upsert(ctx context.Context, entries []domain.IndexEntry) (int, error) {
	dims, err := i.dimensions(ctx)
	if err != nil {
		return 0, err
	}
	for _, e := range entries {
		if err := vectorindex.CheckDimensions(dims, e.Vector); err != nil {
			return 0, fmt.Errorf("entry %s: %w", e.ID, err)
		}
	}

	tx, err := i.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO entries (index_name, id, vector, text, source)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(index_name, id) DO UPDATE SET
			vector = excluded.vector,
			text = excluded.text,
			source = excluded.source,
			updated_at = CURRENT_TIMESTAMP
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, i.name, e.ID, vectorindex.EncodeVector(e.Vector),
			e.Metadata.Text, e.Metadata.Source); err != nil {
			return 0, fmt.Errorf("upserting %s: %w", e.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return len(entries), nil
}

// Query loads the index and ranks it against vector.
// An index that was never created has no matches.
func (i *Index) Query(ctx context.Context, vector []float32, topK int) ([]domain.QueryMatch, error) {
	dims, err := i.dimensions(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := vectorindex.CheckDimensions(dims, vector); err != nil {
		return nil, err
	}

	rows, err := i.db.QueryContext(ctx,
		"SELECT id, vector, text, source FROM entries WHERE index_name = ?", i.name)
	if err != nil {
		return nil, fmt.Errorf("querying entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.IndexEntry
	for rows.Next() {
		var (
			e    domain.IndexEntry
			blob []byte
		)
		if err := rows.Scan(&e.ID, &blob, &e.Metadata.Text, &e.Metadata.Source); err != nil {
			return nil, fmt.Errorf("scanning entry: %w", err)
		}
		e.Vector = vectorindex.DecodeVector(blob)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating entries: %w", err)
	}

	return vectorindex.Rank(vector, entries, topK), nil
}

// Count returns the number of entries in the index.
func (i *Index) Count(ctx context.Context) (int, error) {
	var n int
	err := i.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM entries WHERE index_name = ?", i.name).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting entries: %w", err)
	}
	return n, nil
}

// Close closes the database connection.
func (i *Index) Close() error {
	return i.db.Close()
}

// dimensions returns the cached dimensionality, loading it on first use so
// an index created by an earlier process works without EnsureIndex.
func (i *Index) dimensions(ctx context.Context) (int, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.dims > 0 {
		return i.dims, nil
	}
	dims, err := i.loadDimensions(ctx)
	if err != nil {
		return 0, err
	}
	i.dims = dims
	return dims, nil
}

func (i *Index) loadDimensions(ctx context.Context) (int, error) {
	var dims int
	err := i.db.QueryRowContext(ctx, "SELECT dimensions FROM indexes WHERE name = ?", i.name).Scan(&dims)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: index %q", domain.ErrNotFound, i.name)
	}
	if err != nil {
		return 0, fmt.Errorf("reading index %q: %w", i.name, err)
	}
	return dims, nil
}

// migrate runs all pending up migrations in version order.
func migrate(db *sql.DB, fsys fs.FS) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_vectors.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if err := applyMigration(db, version, string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}
	return nil
}

func applyMigration(db *sql.DB, version int, content string) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.Exec(content); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
		return err
	}
	return tx.Commit()
}
