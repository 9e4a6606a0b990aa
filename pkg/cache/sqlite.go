package cache

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

const (
	// AppDirName is the directory created under the user cache dir.
	AppDirName = "files-to-prompt"

	// DBFileName is the completion database inside the cache directory.
	DBFileName = "completions.db"

	busyTimeoutMillis = 10000
)

//go:embed migrations/*.sql
var migrations embed.FS

// Stats summarizes the contents of a SQLite store.
type Stats struct {
	Entries int64 // Number of cached completions.
	Bytes   int64 // Total size of the cached completion text.
}

// SQLite is a durable completion store shared by every process that opens the
// same file. Entries are never evicted.
type SQLite struct {
	db     *sql.DB
	path   string
	logger *zap.Logger
}

// DefaultDir returns the per-user cache directory for the application.
func DefaultDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate user cache directory: %w", err)
	}
	return filepath.Join(base, AppDirName), nil
}

// OpenSQLite opens (creating if needed) the completion database in dir and
// applies pending migrations. An empty dir selects DefaultDir.
func OpenSQLite(ctx context.Context, dir string, logger *zap.Logger) (*SQLite, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dir == "" {
		var err error
		if dir, err = DefaultDir(); err != nil {
			return nil, err
		}
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		logger.Error("Failed to create cache directory", zap.String("dir", dir), zap.Error(err))
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	path := filepath.Join(dir, DBFileName)
	dsn, err := buildDSN(path)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	// One writer per process; other processes wait on the busy timeout.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := migrate(ctx, db, logger); err != nil {
		db.Close()
		return nil, err
	}

	logger.Debug("Opened response cache", zap.String("path", path))
	return &SQLite{db: db, path: path, logger: logger}, nil
}

// buildDSN returns a file: URI for path with the connection pragmas. The path
// is escaped so '#', '?' and '%' in directory names stay part of it.
func buildDSN(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve cache path: %w", err)
	}
	uriPath := filepath.ToSlash(abs)
	if !strings.HasPrefix(uriPath, "/") {
		uriPath = "/" + uriPath
	}
	u := &url.URL{
		Scheme:   "file",
		OmitHost: true,
		Path:     uriPath,
		RawQuery: fmt.Sprintf(
			"_pragma=busy_timeout(%d)&_pragma=journal_mode(wal)&_pragma=synchronous(normal)",
			busyTimeoutMillis,
		),
	}
	return u.String(), nil
}

// migrate brings the schema up to date using the embedded goose migrations.
func migrate(ctx context.Context, db *sql.DB, logger *zap.Logger) error {
	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load cache migrations: %w", err)
	}
	provider, err := goose.NewProvider(goose.DialectSQLite3, db, fsys)
	if err != nil {
		return fmt.Errorf("failed to prepare cache migrations: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		logger.Error("Failed to migrate cache database", zap.Error(err))
		return fmt.Errorf("failed to migrate cache database: %w", err)
	}
	if len(results) > 0 {
		logger.Debug("Applied cache migrations", zap.Int("count", len(results)))
	}
	return nil
}

// Path returns the database file path.
func (s *SQLite) Path() string {
	return s.path
}

// Close releases the database handle.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Get returns the completion stored under fingerprint.
func (s *SQLite) Get(ctx context.Context, fingerprint string) (string, bool, error) {
	var completion string
	err := s.db.QueryRowContext(ctx,
		`SELECT completion FROM completions WHERE fingerprint = ?`, fingerprint,
	).Scan(&completion)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to query completion %s: %w", fingerprint, err)
	}
	return completion, true, nil
}

// Put stores completion under fingerprint. Concurrent writers of the same
// fingerprint resolve as last writer wins.
func (s *SQLite) Put(ctx context.Context, fingerprint, completion string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO completions (fingerprint, completion, created_at) VALUES (?, ?, ?)`,
		fingerprint, completion, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to store completion %s: %w", fingerprint, err)
	}
	return nil
}

// Stats reports how many completions are stored and their total size.
func (s *SQLite) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(LENGTH(CAST(completion AS BLOB))), 0) FROM completions`,
	).Scan(&st.Entries, &st.Bytes)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to read cache stats: %w", err)
	}
	return st, nil
}

// Clear deletes every stored completion and returns how many were removed.
func (s *SQLite) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM completions`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear cache: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count cleared entries: %w", err)
	}
	s.logger.Info("Cleared response cache", zap.String("path", s.path), zap.Int64("entries", n))
	return n, nil
}
