// Package sqlstore provides cache.Store backends on top of database/sql:
// an embedded SQLite file (modernc.org/sqlite) and a shared MySQL server.
// Both keep one row per cache key and replace content with a single upsert.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"

	"github.com/dynsite/dynsite/internal/cache"
	"github.com/dynsite/dynsite/internal/pathkey"
)

func init() {
	cache.MustRegisterBackend("sqlite", func(opts cache.Options) (cache.Store, error) {
		return OpenSQLite(opts.DSN)
	})
	cache.MustRegisterBackend("mysql", func(opts cache.Options) (cache.Store, error) {
		return OpenMySQL(opts.DSN)
	})
}

type dialect struct {
	driver string
	schema string
	upsert string
}

var sqliteDialect = dialect{
	driver: "sqlite",
	schema: `CREATE TABLE IF NOT EXISTS pages (
		cache_key TEXT PRIMARY KEY,
		content TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	)`,
	upsert: `INSERT INTO pages (cache_key, content, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(cache_key) DO UPDATE SET content = excluded.content, updated_at = excluded.updated_at`,
}

var mysqlDialect = dialect{
	driver: "mysql",
	schema: `CREATE TABLE IF NOT EXISTS pages (
		cache_key VARCHAR(255) NOT NULL PRIMARY KEY,
		content MEDIUMTEXT NOT NULL,
		updated_at BIGINT NOT NULL
	) DEFAULT CHARSET=utf8mb4`,
	upsert: `INSERT INTO pages (cache_key, content, updated_at) VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE content = VALUES(content), updated_at = VALUES(updated_at)`,
}

// Store 以 pages 表保存页面片段，键与 fs 后端一致（pathkey.CacheKey）。
type Store struct {
	db      *sql.DB
	dialect dialect
	now     func() time.Time
}

// OpenSQLite 打开（必要时创建）SQLite 缓存文件。
func OpenSQLite(dsn string) (*Store, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("sqlite dsn required")
	}
	if file := sqliteFile(dsn); file != "" && file != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}
	return open(sqliteDialect, withSQLitePragmas(dsn))
}

// OpenMySQL 连接 MySQL，dsn 可以是驱动格式，也可以是 mysql:// URL。
func OpenMySQL(dsn string) (*Store, error) {
	normalized, err := NormalizeMySQLDSN(dsn)
	if err != nil {
		return nil, err
	}
	return open(mysqlDialect, normalized)
}

func open(d dialect, dsn string) (*Store, error) {
	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", d.driver, err)
	}

	db.SetConnMaxLifetime(1 * time.Hour)
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	if _, err := db.Exec(d.schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create %s schema: %w", d.driver, err)
	}

	return &Store{db: db, dialect: d, now: time.Now}, nil
}

func (s *Store) Exists(ctx context.Context, path string) (bool, error) {
	key := pathkey.CacheKey(path)
	if key == "" {
		return false, cache.ErrEmptyKey
	}
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM pages WHERE cache_key = ?`, key).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) Get(ctx context.Context, path string) (string, error) {
	key := pathkey.CacheKey(path)
	if key == "" {
		return "", &cache.ReadError{Key: key, Err: cache.ErrEmptyKey}
	}
	var content string
	err := s.db.QueryRowContext(ctx, `SELECT content FROM pages WHERE cache_key = ?`, key).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return "", cache.ErrNotFound
	}
	if err != nil {
		return "", &cache.ReadError{Key: key, Err: err}
	}
	return content, nil
}

func (s *Store) Put(ctx context.Context, path string, content string) error {
	key := pathkey.CacheKey(path)
	if key == "" {
		return &cache.WriteError{Key: key, Err: cache.ErrEmptyKey}
	}
	if _, err := s.db.ExecContext(ctx, s.dialect.upsert, key, content, s.now().UnixMilli()); err != nil {
		return &cache.WriteError{Key: key, Err: err}
	}
	return nil
}

func (s *Store) Keys(ctx context.Context) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		rows, err := s.db.QueryContext(ctx, `SELECT cache_key FROM pages`)
		if err != nil {
			yield("", err)
			return
		}
		defer rows.Close()

		for rows.Next() {
			var key string
			if err := rows.Scan(&key); err != nil {
				yield("", err)
				return
			}
			if !yield(key, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield("", err)
		}
	}
}

// Close 关闭底层连接池。
func (s *Store) Close() error {
	return s.db.Close()
}

func sqliteFile(dsn string) string {
	file := strings.TrimPrefix(dsn, "file:")
	if idx := strings.Index(file, "?"); idx >= 0 {
		file = file[:idx]
	}
	return file
}

func withSQLitePragmas(dsn string) string {
	if strings.Contains(dsn, "_pragma=") {
		return dsn
	}
	separator := "?"
	if strings.Contains(dsn, "?") {
		separator = "&"
	}
	return dsn + separator + "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}
