// Package database wraps a PostgreSQL connection with convenience methods
// for moving tabular data in and out of pipelines.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/felixgeelhaar/stepflow/internal/domain/dataset"
)

// Config holds connection settings.
type Config struct {
	URL             string
	PingTimeout     time.Duration
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DefaultConfig returns a Config for the given URL with sensible pool limits.
func DefaultConfig(url string) Config {
	return Config{
		URL:             url,
		PingTimeout:     2 * time.Second,
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 30 * time.Minute,
		ConnMaxIdleTime: 5 * time.Minute,
	}
}

// Validate checks the config for inconsistent settings.
func (c Config) Validate() error {
	if c.URL == "" {
		return errors.New("database URL is required")
	}
	if c.PingTimeout <= 0 {
		return errors.New("ping timeout must be positive")
	}
	if c.MaxOpenConns < 1 {
		return errors.New("max open conns must be >= 1")
	}
	if c.MaxIdleConns < 0 {
		return errors.New("max idle conns must be >= 0")
	}
	if c.MaxIdleConns > c.MaxOpenConns {
		return errors.New("max idle conns must be <= max open conns")
	}
	if c.ConnMaxLifetime < 0 {
		return errors.New("conn max lifetime must be >= 0")
	}
	if c.ConnMaxIdleTime < 0 {
		return errors.New("conn max idle time must be >= 0")
	}
	return nil
}

// Conn is a database connection with tabular helpers.
type Conn struct {
	db *sql.DB
}

// Open connects using the pgx stdlib driver and verifies the connection
// with a bounded ping.
func Open(ctx context.Context, cfg Config) (*Conn, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	db, err := sql.Open("pgx", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	return &Conn{db: db}, nil
}

// Close closes the underlying pool.
func (c *Conn) Close() error {
	return c.db.Close()
}

// QueryTable executes a query and loads the result set into a Table.
func (c *Conn) QueryTable(ctx context.Context, query string, args ...any) (*dataset.Table, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	table := dataset.New(columns...)
	for rows.Next() {
		values := make([]any, len(columns))
		scan := make([]any, len(columns))
		for i := range values {
			scan[i] = &values[i]
		}
		if err := rows.Scan(scan...); err != nil {
			return nil, err
		}
		if err := table.AppendRow(values...); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return table, nil
}

// QueryFileTable executes the (single) query contained in a .sql file and
// loads the result set into a Table.
func (c *Conn) QueryFileTable(ctx context.Context, path string) (*dataset.Table, error) {
	query, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return c.QueryTable(ctx, string(query))
}

// ReadTable loads a full database table into a Table.
func (c *Conn) ReadTable(ctx context.Context, name string) (*dataset.Table, error) {
	query := fmt.Sprintf("SELECT * FROM %s", pgx.Identifier{name}.Sanitize())
	return c.QueryTable(ctx, query)
}

// DefaultCacheDir is the directory ReadTableCached uses when none is given.
const DefaultCacheDir = "cache"

// ReadTableCached is ReadTable with a per-table file cache: when a dataset
// file for the table exists under dir it is loaded instead of querying, and
// a fresh query result is written there for the next call. Staleness is the
// caller's responsibility.
func (c *Conn) ReadTableCached(ctx context.Context, name, dir string) (*dataset.Table, error) {
	if dir == "" {
		dir = DefaultCacheDir
	}
	path := filepath.Join(dir, name+".json")

	if _, err := os.Stat(path); err == nil {
		return dataset.Load(path)
	}

	table, err := c.ReadTable(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	if err := table.WriteFile(path); err != nil {
		return nil, err
	}
	return table, nil
}

// InsertTable inserts every row of the Table into the named database table,
// matching the Table's column order, inside a single transaction.
func (c *Conn) InsertTable(ctx context.Context, t *dataset.Table, name string) error {
	columns := t.Columns()
	if len(columns) == 0 {
		return errors.New("table has no columns")
	}

	quoted := make([]string, len(columns))
	placeholders := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = pgx.Identifier{col}.Sanitize()
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	stmt := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		pgx.Identifier{name}.Sanitize(),
		strings.Join(quoted, ", "),
		strings.Join(placeholders, ", "),
	)

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for i := 0; i < t.RowCount(); i++ {
		if _, err := tx.ExecContext(ctx, stmt, t.Row(i)...); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert row %d: %w", i, err)
		}
	}
	return tx.Commit()
}
