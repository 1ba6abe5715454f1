// Package postgres implements the data access facade on top of PostgreSQL.
// Every session namespace shares the tables, rows are separated by the
// namespace column.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"regexp"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/stephenafamo/bob"

	"github.com/f1data/telemetry-service/log"
	"github.com/f1data/telemetry-service/pkg/model"
	"github.com/f1data/telemetry-service/pkg/repository"
	"github.com/f1data/telemetry-service/pkg/repository/api"
)

type (
	store struct {
		pool  *pgxpool.Pool
		sqlDB *sql.DB
		db    bob.DB
		log   *log.Logger
	}
	Option func(s *store)
)

var (
	_ api.Store    = (*store)(nil)
	_ api.TxRunner = (*store)(nil)

	carCollectionRegex = regexp.MustCompile(`^\d+-.+$`)
)

func WithLogger(l *log.Logger) Option {
	return func(s *store) {
		s.log = l
	}
}

func New(pool *pgxpool.Pool, opts ...Option) api.Store {
	sqlDB := stdlib.OpenDBFromPool(pool)
	s := &store{
		pool:  pool,
		sqlDB: sqlDB,
		db:    bob.NewDB(sqlDB),
		log:   log.Default().Named("store.postgres"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *store) Close() {
	if err := s.sqlDB.Close(); err != nil {
		s.log.Warn("closing sql db", log.ErrorField(err))
	}
	s.pool.Close()
}

// RunInTx executes fn within a transaction. Writes issued by the store with
// the ctx passed to fn take part in the transaction.
//
//nolint:whitespace // editor/linter issue
func (s *store) RunInTx(
	ctx context.Context,
	fn func(ctx context.Context) error,
) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(repository.NewContext(ctx, tx))
	})
}

func (s *store) querier(ctx context.Context) repository.Querier {
	if q := repository.FromContext(ctx); q != nil {
		return q
	}
	return s.pool
}

func translateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return errors.Join(model.ErrNotFound, err)
	case errors.Is(err, context.DeadlineExceeded):
		return errors.Join(model.ErrStoreTimeout, err)
	default:
		return err
	}
}
