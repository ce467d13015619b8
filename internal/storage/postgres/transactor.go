package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"go.uber.org/zap"

	"github.com/GalaDe/finance-link-service/internal/domain"
)

// Querier is the subset of pgx shared by the pool and a transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

type PostgresTransactor struct {
	conn *Postgres
}

var _ domain.Transactor = (*PostgresTransactor)(nil)

func NewPostgresTransactor(conn *Postgres) *PostgresTransactor {
	return &PostgresTransactor{conn}
}

// WithinTransaction runs txFunc in one transaction. Repository calls made with
// the ctx handed to txFunc join it. Commits on nil, rolls back otherwise.
func (p *PostgresTransactor) WithinTransaction(ctx context.Context, txFunc func(ctx context.Context) error) error {
	tx, err := p.conn.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("error begin tx: %w", err)
	}

	err = txFunc(withTx(ctx, tx))
	if err != nil {
		if errRollback := tx.Rollback(ctx); errRollback != nil {
			p.conn.logger.Error("rollback tx", zap.Error(errRollback))
		}
		return err
	}
	if errCommit := tx.Commit(ctx); errCommit != nil {
		return fmt.Errorf("commit tx: %w", errCommit)
	}

	return nil
}

// WithQtx returns the transaction in ctx, or the pool when there is none.
func (p *PostgresTransactor) WithQtx(ctx context.Context) Querier {
	if tx := txFrom(ctx); tx != nil {
		return tx
	}
	return p.conn.Pool
}

type txKey struct{}

func withTx(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

func txFrom(ctx context.Context) pgx.Tx {
	tx, _ := ctx.Value(txKey{}).(pgx.Tx)
	return tx
}
