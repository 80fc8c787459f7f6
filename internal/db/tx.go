package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"

	"github.com/bagstore/storefront/internal/metrics"
)

const retryBackoff = 50 * time.Millisecond

// WithTx runs fn in a transaction, committing on success and rolling back on
// error or panic. Lock timeouts and deadlocks are retried up to attempts
// times with linear backoff; fn must be safe to run again from scratch.
func WithTx(ctx context.Context, database DB, attempts int, fn func(tx Tx) error) error {
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			metrics.TxRetriesTotal.Inc()
			select {
			case <-ctx.Done():
				return errors.Join(err, ctx.Err())
			case <-time.After(retryBackoff * time.Duration(attempt)):
			}
		}

		err = runTx(ctx, database, fn)
		if err == nil || !IsRetryable(err) {
			return err
		}
	}
	return err
}

func runTx(ctx context.Context, database DB, fn func(tx Tx) error) (err error) {
	tx, err := database.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return errors.Join(err, fmt.Errorf("failed to rollback transaction: %w", rbErr))
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
