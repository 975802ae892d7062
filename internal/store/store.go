package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	_ "github.com/snowflakedb/gosnowflake"

	"flarewatch/internal/common"
	"flarewatch/internal/observability"
	"flarewatch/pkg/errors"
)

const (
	DriverSQLite    = "sqlite3"
	DriverSnowflake = "snowflake"
)

// Store persists raw monthly production, the well index and ranked reports.
type Store struct {
	db     *sql.DB
	driver string
	logger *observability.Logger
	retry  *errors.RetryConfig
}

// Option configures a Store.
type Option func(*Store)

func WithLogger(l *observability.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithRetry overrides the retry policy applied to writes.
func WithRetry(cfg *errors.RetryConfig) Option {
	return func(s *Store) { s.retry = cfg }
}

// New wraps an open database handle.
func New(db *sql.DB, driver string, opts ...Option) *Store {
	s := &Store{
		db:     db,
		driver: driver,
		logger: observability.NewNop(),
		retry: &errors.RetryConfig{
			MaxRetries:     3,
			InitialDelay:   200 * time.Millisecond,
			MaxDelay:       2 * time.Second,
			Multiplier:     2,
			Jitter:         true,
			RetryableError: errors.IsRecoverable,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open connects to the store named by driver and dsn and verifies the
// connection. SQLite databases are created on first use.
func Open(ctx context.Context, driver, dsn string, opts ...Option) (*Store, error) {
	switch driver {
	case DriverSQLite:
		if dir := filepath.Dir(dsn); dir != "." && !strings.HasPrefix(dsn, "file:") {
			if err := os.MkdirAll(dir, common.DirPermissionNormal); err != nil {
				return nil, errors.Wrap(err, errors.ErrCodeStoreOpen, "cannot create database directory").
					WithContext("path", dir)
			}
		}
		if !strings.Contains(dsn, "?") {
			dsn += "?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000"
		}
	case DriverSnowflake:
	default:
		return nil, errors.ConfigError("unsupported store driver "+driver, "store.driver")
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStoreOpen, "cannot open store").
			WithContext("driver", driver)
	}
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(10 * time.Minute)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, errors.ErrCodeStoreOpen, "cannot connect to store").
			WithContext("driver", driver).
			WithSuggestions("Check the store.dsn setting")
	}

	return New(db, driver, opts...), nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Driver returns the database driver name.
func (s *Store) Driver() string {
	return s.driver
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS monthly_production (
		month TEXT NOT NULL,
		seq INTEGER NOT NULL,
		file_no TEXT,
		api_no TEXT,
		pool TEXT,
		date TEXT,
		bbls_oil TEXT,
		mcf_gas TEXT,
		bbls_water TEXT,
		days_produced TEXT,
		oil_sold TEXT,
		mcf_sold TEXT,
		mcf_flared TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS well_index (
		seq INTEGER NOT NULL,
		file_no TEXT,
		spud_date TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS flaring_reports (
		run_id TEXT NOT NULL,
		rank INTEGER NOT NULL,
		file_no INTEGER NOT NULL,
		api_no INTEGER NOT NULL,
		pool TEXT,
		grace_period_end TEXT,
		mcf_flared_after_grace_period TEXT NOT NULL,
		days_produced INTEGER NOT NULL,
		mcf_gas TEXT NOT NULL,
		mcf_sold TEXT NOT NULL,
		mcf_flared TEXT NOT NULL,
		spud_date TEXT,
		anchored_at_collection_start BOOLEAN NOT NULL,
		created_at TEXT NOT NULL
	)`,
}

// Migrate creates missing tables.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range migrations {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, errors.ErrCodeStoreMigration, "migration failed").
				WithContext("statement", firstLine(stmt))
		}
	}
	s.logger.Debug("store migrated")
	return nil
}

func firstLine(stmt string) string {
	if i := strings.IndexByte(stmt, '\n'); i >= 0 {
		return strings.TrimSpace(stmt[:i])
	}
	return stmt
}

// inTx runs fn in a transaction, retrying recoverable failures.
func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	return errors.Retry(ctx, s.retry, func(ctx context.Context) error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return errors.StoreError("cannot begin transaction", "", err)
		}
		if err := fn(tx); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				s.logger.WarnWithFields("rollback failed", map[string]interface{}{"error": rbErr.Error()})
			}
			return err
		}
		if err := tx.Commit(); err != nil {
			return errors.StoreError("cannot commit transaction", "", err)
		}
		return nil
	})
}
