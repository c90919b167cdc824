package batch

import (
	"errors"
	"fmt"
	"time"
)

// ErrNoOffers is the transient sourcing condition: the offer snapshot
// materialized empty. Catalog replication may be mid-flight; the
// processor retries the whole parse-and-source step.
var ErrNoOffers = errors.New("no eligible offers currently available")

// TransientError is returned when the retry budget for ErrNoOffers runs
// out. It is distinguishable from fatal parse errors so callers can
// schedule a later retry instead of rejecting the upload.
type TransientError struct {
	Attempts int
	Elapsed  time.Duration
	Err      error
}

// Error implements the error interface.
func (e *TransientError) Error() string {
	return fmt.Sprintf("sourcing failed after %d attempts over %s: %v", e.Attempts, e.Elapsed, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// IsTransient reports whether err is (or wraps) a TransientError.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
