// Package postgres provides PostgreSQL repository implementations.
package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/Wahyuw1j4/ziyad-book/internal/config"
	"github.com/Wahyuw1j4/ziyad-book/internal/domain"
)

// Querier is the subset of pgx operations shared by *pgxpool.Pool and pgx.Tx.
// Repository queries are written against it so the same code runs inside and
// outside a transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DB wraps a PostgreSQL connection pool with logging and transaction support.
type DB struct {
	pool      *pgxpool.Pool
	logger    *zap.Logger
	txTimeout time.Duration
	txMaxWait time.Duration
}

// NewDB creates a new PostgreSQL database connection.
func NewDB(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*DB, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, domain.Internal(domain.CodeDBInit, "invalid PostgreSQL configuration: "+err.Error())
	}

	poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.MinIdleConns)
	poolConfig.MaxConnLifetime = cfg.ConnMaxLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, domain.Internal(domain.CodeDBInit, "failed to create PostgreSQL pool: "+err.Error())
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, domain.Internal(domain.CodeDBInit, "failed to reach PostgreSQL: "+sanitizeMessage(err.Error()))
	}

	logger.Info("Connected to PostgreSQL",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Name),
		zap.Int("max_conns", cfg.MaxOpenConns),
	)

	return &DB{
		pool:      pool,
		logger:    logger,
		txTimeout: cfg.TxTimeout,
		txMaxWait: cfg.TxMaxWait,
	}, nil
}

// Pool returns the underlying connection pool.
func (db *DB) Pool() *pgxpool.Pool {
	return db.pool
}

// Close closes the database connection pool.
func (db *DB) Close() {
	db.pool.Close()
	db.logger.Info("PostgreSQL connection closed")
}

// Health checks if the database is reachable.
func (db *DB) Health(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

// TxOptions bounds a single transaction. Zero values fall back to the
// configured defaults.
type TxOptions struct {
	// Timeout limits the time the transaction body may run.
	Timeout time.Duration
	// MaxWait limits the time spent waiting for a free connection.
	MaxWait time.Duration
}

// TxFunc is the body of a transaction. All reads and writes must go through
// tx using the supplied ctx, which carries the transaction deadline so a
// blocked query (a lock wait, for instance) is cancelled when the timeout
// expires. Callbacks registered via afterCommit run only after a successful
// commit, in registration order; their failures are logged and never undo or
// replace the transaction result.
type TxFunc func(ctx context.Context, tx pgx.Tx, afterCommit func(func() error)) error

// RunInTx executes fn inside a single transaction. Either every write in fn
// commits, or any returned error (or panic) rolls the whole set back. All
// failures are normalized through MapError, so domain errors raised inside fn
// cross the transaction boundary unchanged.
//
// The book stock read-modify-write path relies on row locks taken with
// SELECT ... FOR UPDATE, so read committed isolation is sufficient to
// serialize conflicting decrements.
func (db *DB) RunInTx(ctx context.Context, opts TxOptions, fn TxFunc) error {
	maxWait := opts.MaxWait
	if maxWait <= 0 {
		maxWait = db.txMaxWait
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = db.txTimeout
	}

	acquireCtx, cancelAcquire := context.WithTimeout(ctx, maxWait)
	defer cancelAcquire()

	conn, err := db.pool.Acquire(acquireCtx)
	if err != nil {
		return MapError(err)
	}
	defer conn.Release()

	txCtx, cancelTx := context.WithTimeout(ctx, timeout)
	defer cancelTx()

	tx, err := conn.BeginTx(txCtx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return MapError(err)
	}

	var callbacks []func() error
	register := func(cb func() error) {
		if cb != nil {
			callbacks = append(callbacks, cb)
		}
	}

	if err := db.runTxFunc(txCtx, tx, register, fn); err != nil {
		if rbErr := tx.Rollback(txCtx); rbErr != nil && rbErr != pgx.ErrTxClosed {
			db.logger.Warn("Transaction rollback failed", zap.Error(rbErr))
		}
		return MapError(err)
	}

	if err := tx.Commit(txCtx); err != nil {
		return MapError(err)
	}

	db.runAfterCommit(callbacks)
	return nil
}

// runTxFunc invokes fn, converting a panic inside the transaction body into
// an error so the transaction still rolls back cleanly.
func (db *DB) runTxFunc(ctx context.Context, tx pgx.Tx, register func(func() error), fn TxFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			db.logger.Error("Panic inside transaction", zap.Any("panic", r))
			err = domain.Internal(domain.CodeDBPanic, "database transaction panicked")
		}
	}()
	return fn(ctx, tx, register)
}

// runAfterCommit invokes registered callbacks once durability is guaranteed.
// A failing or panicking callback is reported and skipped; it cannot undo the
// committed transaction.
func (db *DB) runAfterCommit(callbacks []func() error) {
	for i, cb := range callbacks {
		func() {
			defer func() {
				if r := recover(); r != nil {
					db.logger.Error("Panic in after-commit callback",
						zap.Int("index", i),
						zap.Any("panic", r),
					)
				}
			}()
			if err := cb(); err != nil {
				db.logger.Error("After-commit callback failed",
					zap.Int("index", i),
					zap.Error(err),
				)
			}
		}()
	}
}
