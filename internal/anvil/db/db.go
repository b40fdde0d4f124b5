package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "modernc.org/sqlite"
)

// MemoryPath opens a private in-memory store, mostly for tests.
const MemoryPath = ":memory:"

// SeedSourceKey records where the enchantment and base item tables came from.
const SeedSourceKey = "seed_source"

// DB is the SQLite store behind the catalog, recipes and rules.
type DB struct {
	*sql.DB
	path string
}

// Open opens the store at path, creating parent directories as needed.
// Foreign keys are enforced so deleting an enchantment drops its conflict and
// item type rows.
func Open(path string) (*DB, error) {
	if path != MemoryPath {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("creating database directory: %w", err)
			}
		}
	}

	dsn := fmt.Sprintf("%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if path == MemoryPath {
		// Every pooled connection would otherwise get its own empty database.
		sqlDB.SetMaxOpenConns(1)
	}

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("pinging database %s: %w", path, err)
	}

	return &DB{DB: sqlDB, path: path}, nil
}

// OpenAndInit opens the store and creates any missing tables.
func OpenAndInit(ctx context.Context, path string) (*DB, error) {
	db, err := Open(path)
	if err != nil {
		return nil, err
	}

	if err := InitSchema(ctx, db.DB); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	return db, nil
}

// Path returns the location the store was opened from.
func (db *DB) Path() string {
	return db.path
}

// InTransaction runs fn in a transaction, committing only when fn returns
// nil. A panic in fn rolls back before propagating.
func (db *DB) InTransaction(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// GetSyncMetadata returns the value stored under key, or "" if there is none.
func (db *DB) GetSyncMetadata(ctx context.Context, key string) (string, error) {
	var value string
	err := db.QueryRowContext(ctx, `SELECT value FROM sync_metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("querying sync metadata %s: %w", key, err)
	}
	return value, nil
}

// SetSyncMetadata stores value under key, replacing any earlier value.
func (db *DB) SetSyncMetadata(ctx context.Context, key, value string) error {
	return setSyncMetadata(ctx, db, key, value)
}

func setSyncMetadata(ctx context.Context, ex execer, key, value string) error {
	_, err := ex.ExecContext(ctx, `
		INSERT INTO sync_metadata (key, value, updated_at)
		VALUES (?, ?, datetime('now'))
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, key, value)
	if err != nil {
		return fmt.Errorf("setting sync metadata %s: %w", key, err)
	}
	return nil
}

// SyncRecord describes the last import of one kind of data, such as
// "enchantments" or "rules".
type SyncRecord struct {
	Kind     string
	Count    int
	LastSync time.Time
}

func countKey(kind string) string    { return kind + "_count" }
func lastSyncKey(kind string) string { return kind + "_last_sync" }

// RecordSync stores the row count and time of an import of kind.
func (db *DB) RecordSync(ctx context.Context, kind string, count int, at time.Time) error {
	return db.InTransaction(ctx, func(tx *sql.Tx) error {
		if err := setSyncMetadata(ctx, tx, lastSyncKey(kind), at.UTC().Format(time.RFC3339)); err != nil {
			return err
		}
		return setSyncMetadata(ctx, tx, countKey(kind), strconv.Itoa(count))
	})
}

// GetSyncRecord returns the last import of kind, or nil if it was never imported.
func (db *DB) GetSyncRecord(ctx context.Context, kind string) (*SyncRecord, error) {
	last, err := db.GetSyncMetadata(ctx, lastSyncKey(kind))
	if err != nil {
		return nil, err
	}
	if last == "" {
		return nil, nil
	}

	at, err := time.Parse(time.RFC3339, last)
	if err != nil {
		return nil, fmt.Errorf("parsing %s sync time %q: %w", kind, last, err)
	}
	rawCount, err := db.GetSyncMetadata(ctx, countKey(kind))
	if err != nil {
		return nil, err
	}
	count, err := strconv.Atoi(rawCount)
	if err != nil {
		return nil, fmt.Errorf("parsing %s sync count %q: %w", kind, rawCount, err)
	}

	return &SyncRecord{Kind: kind, Count: count, LastSync: at}, nil
}
