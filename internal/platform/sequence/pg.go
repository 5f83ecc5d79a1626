package sequence

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wardflow/wardflow/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type pgSequencer struct{ pool *pgxpool.Pool }

// NewPG returns a Sequencer backed by the id_sequences table. When the
// context carries a transaction the counter bump joins it, so an aborted
// admission or bill creation does not consume a serial visible outside it.
func NewPG(pool *pgxpool.Pool) Sequencer {
	return &pgSequencer{pool: pool}
}

func (s *pgSequencer) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return s.pool
}

func (s *pgSequencer) Next(ctx context.Context, scope string) (int64, error) {
	var value int64
	err := s.conn(ctx).QueryRow(ctx, `
		INSERT INTO id_sequences (scope, value) VALUES ($1, 1)
		ON CONFLICT (scope) DO UPDATE SET value = id_sequences.value + 1
		RETURNING value`, scope).Scan(&value)
	if err != nil {
		return 0, fmt.Errorf("advancing sequence %s: %w", scope, err)
	}
	return value, nil
}
