package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"
)

// maxContentionRetries bounds how many times a transaction body is
// re-run after a lock-contention failure before giving up.
const maxContentionRetries = 5

// RunInTx executes fn inside a transaction under a retry-on-contention
// policy: when the body fails with a lock/serialization error the entire
// transaction is rolled back and re-run from scratch - there is no
// partial re-application. Any other error rolls back and propagates.
//
// fn must be written to be safely re-runnable: it must not leave state
// outside the transaction between attempts.
func (s *Store) RunInTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	var err error
	for attempt := 0; attempt <= maxContentionRetries; attempt++ {
		if attempt > 0 {
			// Brief linear backoff before re-running the body.
			select {
			case <-time.After(time.Duration(attempt) * 50 * time.Millisecond):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		err = s.runTxOnce(ctx, fn)
		if err == nil {
			return nil
		}
		if !isContention(err) {
			return err
		}
	}
	return fmt.Errorf("transaction failed after %d contention retries: %w", maxContentionRetries, err)
}

func (s *Store) runTxOnce(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		tx.Rollback()
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// isContention reports whether err is a lock-wait/serialization failure
// that warrants re-running the whole transaction.
func isContention(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.Code == sqlite3.ErrBusy || se.Code == sqlite3.ErrLocked
	}
	return false
}
