package sequence

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// rowQuerier is satisfied by *pgxpool.Pool.
type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// PGAllocator keeps counters in the sequence_counter table.
//
// It runs on the pool, never on a transaction carried in ctx. The counter row
// lock is held only for the statement, and a booking that later rolls back
// leaves a gap in the sequence.
type PGAllocator struct {
	db rowQuerier
}

func NewPGAllocator(db rowQuerier) *PGAllocator {
	return &PGAllocator{db: db}
}

const allocateSQL = `
	INSERT INTO sequence_counter (key, seq, updated_at)
	VALUES ($1, 1, NOW())
	ON CONFLICT (key) DO UPDATE
		SET seq = sequence_counter.seq + 1, updated_at = NOW()
	RETURNING seq`

func (a *PGAllocator) Allocate(ctx context.Context, key string) (int64, error) {
	var seq int64
	if err := a.db.QueryRow(ctx, allocateSQL, key).Scan(&seq); err != nil {
		return 0, fmt.Errorf("allocate sequence %q: %w", key, err)
	}
	return seq, nil
}
