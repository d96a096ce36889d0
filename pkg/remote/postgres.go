package remote

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"
	"go.uber.org/zap"
)

// Options tunes Open.
type Options struct {
	// Attempts is how many times to try connecting. Defaults to 3.
	Attempts int
	// RetryDelay is the wait between attempts. Defaults to 2s.
	RetryDelay time.Duration
}

// DB is a connection to the studyplan database.
type DB struct {
	db     *bun.DB
	logger *zap.Logger
}

// Open connects to dsn, retrying while the server is unreachable.
func Open(ctx context.Context, dsn string, logger *zap.Logger, opts Options) (*DB, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Attempts <= 0 {
		opts.Attempts = 3
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 2 * time.Second
	}

	var lastErr error
	for attempt := 1; attempt <= opts.Attempts; attempt++ {
		logger.Debug("Connecting to database",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", opts.Attempts))

		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
		sqldb.SetMaxOpenConns(10)
		sqldb.SetMaxIdleConns(5)
		sqldb.SetConnMaxLifetime(5 * time.Minute)
		sqldb.SetConnMaxIdleTime(time.Minute)

		db := bun.NewDB(sqldb, pgdialect.New())
		if logger.Core().Enabled(zap.DebugLevel) {
			db.AddQueryHook(bundebug.NewQueryHook(
				bundebug.WithVerbose(true),
				bundebug.FromEnv("BUNDEBUG"),
			))
		}

		pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		lastErr = db.PingContext(pingCtx)
		cancel()
		if lastErr == nil {
			logger.Debug("Connected to database", zap.Int("attempt", attempt))
			return &DB{db: db, logger: logger}, nil
		}

		logger.Warn("Failed to connect to database",
			zap.Int("attempt", attempt),
			zap.Error(lastErr))
		if err := db.Close(); err != nil {
			logger.Warn("Failed to close database connection", zap.Error(err))
		}
		if attempt == opts.Attempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("remote: connect: %w", ctx.Err())
		case <-time.After(opts.RetryDelay):
		}
	}
	return nil, fmt.Errorf("remote: connect after %d attempts: %w", opts.Attempts, lastErr)
}

// Bun exposes the underlying handle for packages sharing the database.
func (d *DB) Bun() *bun.DB {
	return d.db
}

// Close closes the connection pool.
func (d *DB) Close() error {
	return d.db.Close()
}

// Documents returns the user state store.
func (d *DB) Documents() *Postgres {
	return NewPostgres(d.db, d.logger)
}

// Groups returns the study group repository.
func (d *DB) Groups() *Groups {
	return NewGroups(d.db, d.logger)
}

// CreateSchema creates every table this package owns. Extra models from
// other packages sharing the database may be passed in.
func (d *DB) CreateSchema(ctx context.Context, extra ...any) error {
	models := []any{
		(*userStateRow)(nil),
		(*Group)(nil),
		(*Member)(nil),
		(*Activity)(nil),
		(*File)(nil),
	}
	models = append(models, extra...)
	for _, m := range models {
		if _, err := d.db.NewCreateTable().Model(m).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("remote: create table for %T: %w", m, err)
		}
	}
	return nil
}
