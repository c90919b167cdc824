package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/infarma/ordergate/internal/reorder"
	"github.com/infarma/ordergate/internal/store"
)

const (
	// DefaultMaxAttempts bounds retries of the transient no-offers
	// condition.
	DefaultMaxAttempts = 3

	// DefaultRetryBudget bounds the same retries by wall clock.
	DefaultRetryBudget = 2 * time.Minute
)

// Processor handles one uploaded shortage batch for one account.
type Processor struct {
	store *store.Store
	log   *slog.Logger

	clientID  uint64
	userID    uint64
	addressID uint64

	rule store.AutoOrderRule

	maxAttempts int
	budget      time.Duration
	now         func() time.Time

	dir string
}

// Option configures a Processor.
type Option func(*Processor)

// WithRetryBudget overrides the attempt count and wall-clock budget for
// the transient-condition retry loop.
func WithRetryBudget(attempts int, budget time.Duration) Option {
	return func(p *Processor) {
		p.maxAttempts = attempts
		p.budget = budget
	}
}

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(p *Processor) { p.now = now }
}

// WithLogger overrides the default logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Processor) { p.log = l }
}

// New creates a batch processor for one upload. The account must have
// the auto-order service enabled and a sourcing rule configured; either
// missing is a permission error, mirroring order submission.
func New(ctx context.Context, st *store.Store, clientID, userID, addressID uint64, opts ...Option) (*Processor, error) {
	p := &Processor{
		store:       st,
		log:         slog.Default(),
		clientID:    clientID,
		userID:      userID,
		addressID:   addressID,
		maxAttempts: DefaultMaxAttempts,
		budget:      DefaultRetryBudget,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.log = p.log.With("batch", uuid.NewString(), "client", clientID, "address", addressID)

	settings, err := st.AccountSettings(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("batch processor: %w", err)
	}
	if !settings.EnableAutoOrder {
		return nil, &reorder.PermissionError{
			Code:        reorder.CodeOrdersForbidden,
			UserMessage: "The auto-order service is not enabled for this account.",
			Diagnostic:  fmt.Sprintf("client %d has enable_auto_order disabled", clientID),
		}
	}

	rule, err := st.AutoOrderRule(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("batch processor: %w", err)
	}
	if rule == nil {
		return nil, &reorder.PermissionError{
			Code:        reorder.CodeOrdersForbidden,
			UserMessage: "No auto-order sourcing rule is configured for this account.",
			Diagnostic:  fmt.Sprintf("client %d has no auto_order_rules row", clientID),
		}
	}
	p.rule = *rule

	p.dir, err = os.MkdirTemp("", "ordergate-batch-")
	if err != nil {
		return nil, fmt.Errorf("batch processor: %w", err)
	}

	return p, nil
}

// Dir returns the scratch directory holding the extracted upload and
// the produced export files.
func (p *Processor) Dir() string { return p.dir }

// Cleanup removes the scratch directory and everything in it.
func (p *Processor) Cleanup() {
	if p.dir == "" {
		return
	}
	if err := os.RemoveAll(p.dir); err != nil {
		p.log.Error("failed to remove batch scratch directory", "dir", p.dir, "error", err)
	}
}

// ProcessBatch runs the full batch pipeline on an uploaded archive:
// extract, then materialize-parse-source, then serialize. The
// materialize-parse-source step is retried as a whole on the transient
// no-offers condition within the configured attempt/time budget, so
// each attempt sees a fresh offer snapshot and can succeed once catalog
// replication lands; every other failure is wrapped once with context
// and returned immediately.
//
// seq is advanced past every allocated id and returned alongside the
// produced file paths.
func (p *Processor) ProcessBatch(ctx context.Context, fileBytes []byte, seq Sequences) (Sequences, Files, error) {
	path, err := extractSingle(p.dir, fileBytes)
	if err != nil {
		return seq, Files{}, err
	}

	var res *sourceResult
	run := func() error {
		if err := p.store.MaterializeOffers(ctx, p.clientID); err != nil {
			return fmt.Errorf("refresh offer snapshot: %w", err)
		}
		demands, serviceFields, err := parseDemandFile(path)
		if err != nil {
			return err
		}
		res, err = p.sourceOrders(ctx, demands, serviceFields)
		return err
	}

	attempts, err := runWithRetry(ctx, p.maxAttempts, p.budget, p.now, run)
	if err != nil {
		if !IsTransient(err) {
			err = fmt.Errorf("process shortage batch: %w", err)
		}
		return seq, Files{}, err
	}
	if attempts > 1 {
		p.log.Info("sourcing succeeded after retries", "attempts", attempts)
	}

	files, err := p.writeFiles(p.dir, res, &seq)
	if err != nil {
		return seq, Files{}, fmt.Errorf("process shortage batch: %w", err)
	}

	p.log.Info("batch processed",
		"orders", len(res.orders),
		"reportRows", len(res.report))
	return seq, files, nil
}

// runWithRetry re-runs fn while it fails with ErrNoOffers, bounded by
// maxAttempts and budget - whichever limit is hit first surfaces the
// condition as a TransientError. Any other failure stops immediately.
func runWithRetry(ctx context.Context, maxAttempts int, budget time.Duration, now func() time.Time, fn func() error) (int, error) {
	start := now()
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return attempt, err
		}

		err := fn()
		if err == nil {
			return attempt, nil
		}
		if !errors.Is(err, ErrNoOffers) {
			return attempt, err
		}

		elapsed := now().Sub(start)
		if attempt >= maxAttempts || elapsed > budget {
			return attempt, &TransientError{Attempts: attempt, Elapsed: elapsed, Err: err}
		}
	}
}
