package postgresql

import (
	"context"
	"time"

	"github.com/bagstore/storefront/internal/db"
	"github.com/bagstore/storefront/internal/workflow"
)

// SequenceRepo hands out per-day counters. The upsert holds the counter row
// lock until the caller's transaction ends, so numbers are gap free and
// unique per prefix and day.
type SequenceRepo struct{}

func NewSequenceRepo() workflow.SequenceRepository {
	return &SequenceRepo{}
}

func (r *SequenceRepo) NextTx(ctx context.Context, tx db.Tx, prefix string, day time.Time) (int, error) {
	var next int
	err := tx.ExecQueryRow(ctx, `
        INSERT INTO daily_sequences (prefix, day, last_value)
        VALUES ($1, $2, 1)
        ON CONFLICT (prefix, day)
        DO UPDATE SET last_value = daily_sequences.last_value + 1
        RETURNING last_value
    `, prefix, day.Format("2006-01-02")).Scan(&next)
	return next, err
}
