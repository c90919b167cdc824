package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/infarma/ordergate/internal/order"
)

// SaveRequest is one submission's persistence unit. Persistence is
// all-or-nothing across every eligible order in the request.
type SaveRequest struct {
	AddressID uint64
	UserID    uint64
	Orders    []*order.OrderHeader

	// Eligible decides which orders persist. The pipeline supplies the
	// configured policy predicate; fully-duplicated orders are excluded
	// here regardless of it.
	Eligible func(*order.OrderHeader) bool

	// WithLeaders enables the auxiliary competitor-price insert for
	// lines that carry both a cost and a price-list id.
	WithLeaders bool

	Now time.Time
}

// SaveOrders persists every eligible order of one submission inside a
// single transaction under the contention-retry policy. Server order ids
// are reset to zero at the top of the transaction body, so a retried
// body never reuses a stale id. An exchange_log record is written in the
// same transaction; it marks the exchange fully committed and advances
// the duplicate-detection window for the user.
func (s *Store) SaveOrders(ctx context.Context, req SaveRequest) error {
	return s.RunInTx(ctx, func(tx *sql.Tx) error {
		for _, o := range req.Orders {
			if !eligible(req, o) {
				continue
			}
			o.ServerOrderID = 0
		}

		for _, o := range req.Orders {
			if !eligible(req, o) {
				continue
			}
			if err := saveOrder(ctx, tx, req, o); err != nil {
				return err
			}
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO exchange_log (user_id, update_type, request_time)
			VALUES (?, ?, ?)
		`, req.UserID, UpdateTypeOrderPost, formatTime(req.Now))
		if err != nil {
			return fmt.Errorf("log exchange: %w", err)
		}
		return nil
	})
}

func eligible(req SaveRequest, o *order.OrderHeader) bool {
	if o.FullDuplicated {
		return false
	}
	if req.Eligible != nil {
		return req.Eligible(o)
	}
	return true
}

func saveOrder(ctx context.Context, tx *sql.Tx, req SaveRequest, o *order.OrderHeader) error {
	res, err := tx.ExecContext(ctx, `
		INSERT INTO order_heads
		(client_id, client_order_id, price_list_id, region_id, price_date,
		 comment, payment_term, row_count, write_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		req.AddressID,
		o.ClientOrderID,
		o.PriceListID,
		o.RegionID,
		o.PriceDate.UTC().Format(timeFormat),
		o.Comment,
		o.PaymentTerm,
		o.SavedRowCount(),
		formatTime(req.Now),
	)
	if err != nil {
		return fmt.Errorf("save order %d: %w", o.ClientOrderID, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("save order %d: %w", o.ClientOrderID, err)
	}
	o.ServerOrderID = uint64(id)

	for _, l := range o.Lines {
		if l.Duplicated {
			continue
		}
		if err := saveOrderLine(ctx, tx, req, o, l); err != nil {
			return err
		}
	}
	return nil
}

// saveOrderLine inserts one line, deriving the producer id and synonym
// columns by joining the reference tables at insert time. The INSERT ...
// SELECT is anchored on the product row: an unknown product id inserts
// nothing, which is surfaced as a hard error and rolls the whole
// submission back.
func saveOrderLine(ctx context.Context, tx *sql.Tx, req SaveRequest, o *order.OrderHeader, l *order.OrderLine) error {
	res, err := tx.ExecContext(ctx, `
		INSERT INTO order_lines
		(order_id, product_id, producer_id, synonym_code, producer_synonym_code,
		 code, code_cr, quantity, junk, await, cost, request_ratio, min_order_count, order_cost)
		SELECT ?, p.id, COALESCE(pr.id, ps.producer_id), syn.code, ps.code,
		       ?, ?, ?, ?, ?, ?, ?, ?, ?
		FROM products p
		LEFT JOIN synonyms syn ON syn.code = ?
		LEFT JOIN producer_synonyms ps ON ps.code = ?
		LEFT JOIN producers pr ON pr.id = ?
		WHERE p.id = ?
	`,
		o.ServerOrderID,
		l.Code,
		l.CodeCr,
		l.Quantity,
		l.Junk,
		l.Await,
		l.Cost.String(),
		nullUint(l.RequestRatio),
		nullUint(l.MinOrderCount),
		nullDecimal(l.OrderCost),
		l.SynonymCode,
		nullUint(l.ProducerSynonym),
		nullUint(l.ProducerID),
		l.ProductID,
	)
	if err != nil {
		return fmt.Errorf("save line %d of order %d: %w", l.ClientLineID, o.ClientOrderID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("save line %d of order %d: %w", l.ClientLineID, o.ClientOrderID, err)
	}
	if n == 0 {
		return fmt.Errorf("save line %d of order %d: unknown product %d", l.ClientLineID, o.ClientOrderID, l.ProductID)
	}

	lineID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("save line %d of order %d: %w", l.ClientLineID, o.ClientOrderID, err)
	}

	if req.WithLeaders && hasLeaderData(l) {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO order_leaders
			(order_line_id, min_cost, leader_min_cost, min_price_list_id, leader_min_price_list_id)
			VALUES (?, ?, ?, ?, ?)
		`,
			lineID,
			nullDecimal(l.MinCost),
			nullDecimal(l.LeaderMinCost),
			nullUint(l.MinPriceCode),
			nullUint(l.LeaderMinPriceCode),
		)
		if err != nil {
			return fmt.Errorf("save leader for line %d of order %d: %w", l.ClientLineID, o.ClientOrderID, err)
		}
	}

	return nil
}

// hasLeaderData mirrors the persistence contract for the competitor
// price record: a computed cost and a catalog price-list id must both be
// present, from either the min or the leader-min cluster.
func hasLeaderData(l *order.OrderLine) bool {
	return (l.MinCost.Present || l.LeaderMinCost.Present) &&
		(l.MinPriceCode.Present || l.LeaderMinPriceCode.Present)
}

func nullUint(v order.OptUint64) any {
	if !v.Present {
		return nil
	}
	return v.Value
}

func nullDecimal(v order.OptDecimal) any {
	if !v.Present {
		return nil
	}
	return v.Value.String()
}
