package reorder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/infarma/ordergate/internal/order"
	"github.com/infarma/ordergate/internal/store"
)

// PersistPolicy selects which orders of a submission are persisted.
// Two policies exist in the lineage of this system; the choice is an
// explicit configuration decision, never an implicit version difference.
type PersistPolicy int

const (
	// PersistSuccessOnly persists a submission only when every order is
	// still Success after reconciliation. Default.
	PersistSuccessOnly PersistPolicy = iota

	// PersistUnlessDuplicated persists every order that is not fully
	// duplicated, regardless of its per-order outcome.
	PersistUnlessDuplicated
)

// DefaultDedupWindow is the fallback lower bound of the duplicate
// detection window when the user has no committed exchange on record.
const DefaultDedupWindow = 14 * 24 * time.Hour

// Submitter runs the full reconciliation pipeline for one submission.
type Submitter struct {
	store *store.Store
	log   *slog.Logger

	clientID  uint64
	userID    uint64
	addressID uint64

	forceSend     bool
	matchStrategy MatchStrategy
	persistPolicy PersistPolicy
	resultPolicy  order.ResultPolicy
	dedupWindow   time.Duration
	now           func() time.Time

	// token correlates every log record of this submission.
	token string

	orders   []*order.OrderHeader
	settings store.AccountSettings
}

// Option configures a Submitter.
type Option func(*Submitter)

// WithForceSend skips price reconciliation: the client insists the
// submission goes through against its own price snapshot.
func WithForceSend(force bool) Option {
	return func(s *Submitter) { s.forceSend = force }
}

// WithMatchStrategy selects the duplicate matching strategy.
func WithMatchStrategy(m MatchStrategy) Option {
	return func(s *Submitter) { s.matchStrategy = m }
}

// WithPersistPolicy selects the persistence eligibility policy.
func WithPersistPolicy(p PersistPolicy) Option {
	return func(s *Submitter) { s.persistPolicy = p }
}

// WithResultPolicy selects how fully-duplicated orders are reported.
func WithResultPolicy(p order.ResultPolicy) Option {
	return func(s *Submitter) { s.resultPolicy = p }
}

// WithDedupWindow overrides the duplicate detection window.
func WithDedupWindow(d time.Duration) Option {
	return func(s *Submitter) { s.dedupWindow = d }
}

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *Submitter) { s.now = now }
}

// WithLogger overrides the default logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Submitter) { s.log = l }
}

// New creates a Submitter for one submission from the given user on
// behalf of the given ordering address.
func New(st *store.Store, clientID, userID, addressID uint64, opts ...Option) *Submitter {
	s := &Submitter{
		store:         st,
		log:           slog.Default(),
		clientID:      clientID,
		userID:        userID,
		addressID:     addressID,
		matchStrategy: MatchLatestOnly,
		persistPolicy: PersistSuccessOnly,
		resultPolicy:  order.IncludeFullDuplicates,
		dedupWindow:   DefaultDedupWindow,
		now:           time.Now,
		token:         uuid.NewString(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With("submission", s.token, "client", clientID, "address", addressID)
	return s
}

// ParseOrders populates the submitter from a wire-level columnar
// submission. Fails with *order.ValidationError on malformed input;
// nothing touches the database in that case.
func (s *Submitter) ParseOrders(sub order.Submission) error {
	orders, err := order.ParseOrders(sub)
	if err != nil {
		return err
	}
	s.orders = orders
	return nil
}

// Orders exposes the parsed order graph. Read-only for callers; the
// pipeline mutates it in place during Submit.
func (s *Submitter) Orders() []*order.OrderHeader { return s.orders }

// Submit runs the full pipeline and returns the aggregated client-facing
// result string. A fatal error (permission, weekly cap, catalog
// inconsistency, storage failure) aborts the whole submission with
// nothing persisted; reconciliation outcomes are data in the result, not
// errors.
func (s *Submitter) Submit(ctx context.Context) (string, error) {
	settings, err := s.store.AccountSettings(ctx, s.clientID)
	if err != nil {
		return "", fmt.Errorf("submit: %w", err)
	}
	s.settings = settings

	if !settings.AllowOrders {
		return "", &PermissionError{
			Code:        CodeOrdersForbidden,
			UserMessage: "Order submission is not allowed for this account.",
			Diagnostic:  fmt.Sprintf("client %d has allow_orders disabled", s.clientID),
		}
	}

	if err := s.checkWeeklyLimit(ctx); err != nil {
		return "", err
	}

	for _, o := range s.orders {
		o.ClearBeforePost()
	}

	if err := s.checkMinRequirements(ctx); err != nil {
		return "", fmt.Errorf("submit: %w", err)
	}

	if err := s.checkDuplicates(ctx); err != nil {
		return "", fmt.Errorf("submit: %w", err)
	}

	if s.allSuccess() && !s.forceSend {
		if err := s.store.MaterializeOffers(ctx, s.clientID); err != nil {
			return "", fmt.Errorf("submit: %w", err)
		}
		if err := s.checkPrices(ctx); err != nil {
			return "", fmt.Errorf("submit: %w", err)
		}
	}

	if s.shouldPersist() {
		req := store.SaveRequest{
			AddressID:   s.addressID,
			UserID:      s.userID,
			Orders:      s.orders,
			Eligible:    s.persistEligible,
			WithLeaders: settings.CalculateLeaders,
			Now:         s.now(),
		}
		if err := s.store.SaveOrders(ctx, req); err != nil {
			return "", fmt.Errorf("submit: %w", err)
		}
		s.log.Info("submission persisted", "orders", len(s.orders))
	}

	return order.Results(s.orders, s.resultPolicy), nil
}

func (s *Submitter) allSuccess() bool {
	for _, o := range s.orders {
		if o.Result != order.ResultSuccess {
			return false
		}
	}
	return true
}

func (s *Submitter) shouldPersist() bool {
	switch s.persistPolicy {
	case PersistUnlessDuplicated:
		for _, o := range s.orders {
			if !o.FullDuplicated {
				return true
			}
		}
		return false
	default:
		return s.allSuccess() && len(s.orders) > 0
	}
}

func (s *Submitter) persistEligible(o *order.OrderHeader) bool {
	if s.persistPolicy == PersistUnlessDuplicated {
		return true // FullDuplicated is already excluded by the store
	}
	return o.Result == order.ResultSuccess
}
