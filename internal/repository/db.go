package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/joseph-ayodele/receipts-monitor/internal/common"
)

// Pool is the subset of *pgxpool.Pool the Postgres stores use.
// pgxmock.PgxPoolIface satisfies it in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// Stores bundles the price and processed-document stores over one connection.
type Stores struct {
	Prices    PriceStore
	Documents DocumentStore

	ping  func(context.Context) error
	close func() error
}

// Open connects to the configured driver and migrates the schema.
func Open(ctx context.Context, cfg common.StoreConfig, logger *zap.Logger) (*Stores, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch cfg.Driver {
	case "postgres":
		pool, err := OpenPostgres(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		s := NewPostgresStores(pool, logger)
		if err := s.Migrate(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		return s, nil
	case "sqlite", "":
		db, err := OpenSQLite(cfg.DSN, logger)
		if err != nil {
			return nil, err
		}
		s := NewSQLiteStores(db, logger)
		if err := s.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
		return s, nil
	default:
		return nil, common.NewAppError("CONFIG_ERROR", "unknown store driver "+cfg.Driver, common.ErrInvalidInput)
	}
}

// Migrate creates the tables if they do not exist.
func (s *Stores) Migrate(ctx context.Context) error {
	type migrator interface{ Migrate(context.Context) error }
	for _, m := range []any{s.Prices, s.Documents} {
		if mm, ok := m.(migrator); ok {
			if err := mm.Migrate(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

// HealthCheck pings the underlying database.
func (s *Stores) HealthCheck(ctx context.Context, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return s.ping(ctx)
}

// Close closes the database connections gracefully
func (s *Stores) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// OpenPostgres creates a pgx pool sized from cfg.
func OpenPostgres(ctx context.Context, cfg common.StoreConfig, logger *zap.Logger) (*pgxpool.Pool, error) {
	logger.Info("repository.postgres.connect", zap.Int32("max_conns", cfg.MaxConns))
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		pc.MinConns = cfg.MinConns
	}
	pc.MaxConnLifetime = cfg.MaxConnLifetime
	pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	pc.ConnConfig.RuntimeParams["application_name"] = "receipts-monitor"

	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	logger.Info("repository.postgres.connected")
	return pool, nil
}

// OpenSQLite opens a SQLite database at dsn and configures WAL mode.
func OpenSQLite(dsn string, logger *zap.Logger) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	// one writer keeps busy errors away
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	logger.Info("repository.sqlite.open", zap.String("dsn", dsn))
	return db, nil
}

// NewPostgresStores builds both stores over pool.
func NewPostgresStores(pool Pool, logger *zap.Logger) *Stores {
	return &Stores{
		Prices:    &PostgresPriceStore{pool: pool, logger: logger},
		Documents: &PostgresDocumentStore{pool: pool, logger: logger},
		ping:      pool.Ping,
		close: func() error {
			pool.Close()
			return nil
		},
	}
}

// NewSQLiteStores builds both stores over db.
func NewSQLiteStores(db *sql.DB, logger *zap.Logger) *Stores {
	return &Stores{
		Prices:    &SQLitePriceStore{db: db, logger: logger},
		Documents: &SQLiteDocumentStore{db: db, logger: logger},
		ping:      db.PingContext,
		close:     db.Close,
	}
}
