package reorder

import (
	"context"
	"fmt"
	"time"

	"github.com/infarma/ordergate/internal/order"
	"github.com/infarma/ordergate/internal/store"
)

// MatchStrategy selects which prior orders feed duplicate detection.
type MatchStrategy int

const (
	// MatchLatestOnly considers only the single most recent prior order
	// with the same client order id. Default: matching against older
	// duplicates as well can absorb quantity twice against stale history.
	MatchLatestOnly MatchStrategy = iota

	// MatchAllPrior considers every prior order in the window. Retained
	// from the earlier lineage so reintroducing it is an explicit,
	// visible choice rather than a silent regression.
	MatchAllPrior
)

// checkDuplicates detects resubmissions caused by unreliable client
// retries. For every order still marked Success it matches submitted
// lines against the stored lines of prior orders sharing the client
// order id, absorbing quantity that was already persisted.
func (s *Submitter) checkDuplicates(ctx context.Context) error {
	since, err := s.dedupSince(ctx)
	if err != nil {
		return err
	}

	for _, o := range s.orders {
		if o.Result != order.ResultSuccess {
			continue
		}

		pool, err := s.store.PriorOrderLines(ctx, s.addressID, o.ClientOrderID, since)
		if err != nil {
			return fmt.Errorf("load prior orders for %d: %w", o.ClientOrderID, err)
		}
		if len(pool) == 0 {
			continue
		}

		if s.matchStrategy == MatchLatestOnly {
			// Rows arrive ordered by order id descending, so the first
			// row belongs to the most recent prior order.
			latest := pool[0].OrderID
			filtered := pool[:0]
			for _, p := range pool {
				if p.OrderID == latest {
					filtered = append(filtered, p)
				}
			}
			pool = filtered
		}

		for _, line := range o.Lines {
			pool = s.absorbLine(o, line, pool)
		}

		o.FullDuplicated = o.SavedRowCount() == 0
	}
	return nil
}

// dedupSince computes the window lower bound: the user's last fully
// committed exchange, but never further back than the configured window.
func (s *Submitter) dedupSince(ctx context.Context) (since time.Time, err error) {
	since = s.now().Add(-s.dedupWindow)
	last, ok, err := s.store.LastExchangeTime(ctx, s.userID)
	if err != nil {
		return since, fmt.Errorf("last exchange time: %w", err)
	}
	if ok && last.After(since) {
		since = last
	}
	return since, nil
}

// absorbLine matches one submitted line against the candidate pool and
// returns the pool with any consumed row removed, so a second submitted
// line can never match the same prior row.
func (s *Submitter) absorbLine(o *order.OrderHeader, line *order.OrderLine, pool []store.PriorLine) []store.PriorLine {
	matches := matchPrior(pool, line, matchPrimary)
	if len(matches) == 0 {
		matches = matchPrior(pool, line, matchFallback)
	}

	switch len(matches) {
	case 0:
		return pool

	case 1:
		prior := pool[matches[0]]
		if uint64(line.Quantity) <= uint64(prior.Quantity) {
			line.Duplicated = true
			s.log.Info("duplicate line absorbed",
				"clientOrderId", o.ClientOrderID,
				"user", s.userID,
				"clientLineId", line.ClientLineID,
				"priorOrderId", prior.OrderID,
				"priorLineId", prior.RowID)
		} else {
			line.Quantity -= prior.Quantity
			s.log.Info("duplicate line quantity adjusted",
				"clientOrderId", o.ClientOrderID,
				"user", s.userID,
				"clientLineId", line.ClientLineID,
				"priorOrderId", prior.OrderID,
				"priorLineId", prior.RowID,
				"absorbed", prior.Quantity,
				"remaining", line.Quantity)
		}
		return append(pool[:matches[0]], pool[matches[0]+1:]...)

	default:
		// Anomaly: the natural key should identify at most one prior
		// row. Log with full context and leave the line as submitted.
		s.log.Warn("duplicate match returned multiple prior lines",
			"clientOrderId", o.ClientOrderID,
			"user", s.userID,
			"clientLineId", line.ClientLineID,
			"matches", len(matches))
		return pool
	}
}

func matchPrior(pool []store.PriorLine, line *order.OrderLine, pred func(store.PriorLine, *order.OrderLine) bool) []int {
	var idx []int
	for i, p := range pool {
		if pred(p, line) {
			idx = append(idx, i)
		}
	}
	return idx
}

// matchPrimary is the composite natural key of a stored line.
func matchPrimary(p store.PriorLine, l *order.OrderLine) bool {
	return p.ProductID == l.ProductID &&
		optEqual(p.ProducerID, l.ProducerID) &&
		p.SynonymCode.Present && p.SynonymCode.Value == l.SynonymCode &&
		optEqual(p.ProducerSynonym, l.ProducerSynonym) &&
		p.Junk == l.Junk &&
		p.Await == l.Await &&
		p.Cost.Equal(l.Cost)
}

// matchFallback is the looser filter used when the primary key misses:
// same product from the same producer.
func matchFallback(p store.PriorLine, l *order.OrderLine) bool {
	return p.ProductID == l.ProductID && optEqual(p.ProducerID, l.ProducerID)
}

func optEqual(a, b order.OptUint64) bool {
	if a.Present != b.Present {
		return false
	}
	return !a.Present || a.Value == b.Value
}
