package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/infarma/ordergate/internal/order"
)

// timeFormat is the canonical TEXT timestamp layout. Always UTC so that
// lexicographic comparison in SQL matches chronological order.
const timeFormat = "2006-01-02 15:04:05"

// UpdateTypeOrderPost is the exchange_log record kind written when a
// submission commits. MAX(request_time) over these bounds the duplicate
// detection window.
const UpdateTypeOrderPost = 2

func formatTime(t time.Time) string { return t.UTC().Format(timeFormat) }

// LastExchangeTime returns the time of the user's last fully-committed
// order exchange, or ok=false when the user has never committed one.
func (s *Store) LastExchangeTime(ctx context.Context, userID uint64) (time.Time, bool, error) {
	var raw sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT MAX(request_time) FROM exchange_log
		WHERE user_id = ? AND update_type = ?
	`, userID, UpdateTypeOrderPost).Scan(&raw)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("last exchange time: %w", err)
	}
	if !raw.Valid {
		return time.Time{}, false, nil
	}

	t, err := time.Parse(timeFormat, raw.String)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("last exchange time: bad timestamp %q: %w", raw.String, err)
	}
	return t.UTC(), true, nil
}

// PriorLine is one previously persisted order line, the candidate pool
// for duplicate detection.
type PriorLine struct {
	OrderID uint64
	RowID   uint64

	ProductID       uint64
	ProducerID      order.OptUint64
	SynonymCode     order.OptUint64
	ProducerSynonym order.OptUint64
	Junk            bool
	Await           bool
	Cost            decimal.Decimal
	Quantity        uint32
}

// PriorOrderLines loads the lines of every stored order sharing the
// client-generated order id and address, written at or after since.
// Rows are ordered by order row id descending, so the first order id in
// the result is the most recent prior order.
func (s *Store) PriorOrderLines(ctx context.Context, addressID, clientOrderID uint64, since time.Time) ([]PriorLine, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT oh.row_id, ol.row_id, ol.product_id, ol.producer_id,
		       ol.synonym_code, ol.producer_synonym_code, ol.junk, ol.await,
		       ol.cost, ol.quantity
		FROM order_heads oh
		JOIN order_lines ol ON ol.order_id = oh.row_id
		WHERE oh.client_id = ? AND oh.client_order_id = ? AND oh.write_time >= ?
		ORDER BY oh.row_id DESC, ol.row_id
	`, addressID, clientOrderID, formatTime(since))
	if err != nil {
		return nil, fmt.Errorf("prior order lines: %w", err)
	}
	defer rows.Close()

	var lines []PriorLine
	for rows.Next() {
		var l PriorLine
		var producerID, synonymCode, producerSynonym sql.NullInt64
		var rawCost string
		err := rows.Scan(&l.OrderID, &l.RowID, &l.ProductID, &producerID,
			&synonymCode, &producerSynonym, &l.Junk, &l.Await, &rawCost, &l.Quantity)
		if err != nil {
			return nil, fmt.Errorf("scan prior line: %w", err)
		}

		l.Cost, err = decimal.NewFromString(rawCost)
		if err != nil {
			return nil, fmt.Errorf("scan prior line %d: bad cost %q: %w", l.RowID, rawCost, err)
		}
		l.ProducerID = optFromNull(producerID)
		l.SynonymCode = optFromNull(synonymCode)
		l.ProducerSynonym = optFromNull(producerSynonym)
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("prior order lines: %w", err)
	}
	return lines, nil
}

// WeeklySpend sums cost x quantity over every order line the address
// committed at or after weekStart. Summation happens in Go: costs are
// exact decimal TEXT, not floats.
func (s *Store) WeeklySpend(ctx context.Context, addressID uint64, weekStart time.Time) (decimal.Decimal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ol.cost, ol.quantity
		FROM order_heads oh
		JOIN order_lines ol ON ol.order_id = oh.row_id
		WHERE oh.client_id = ? AND oh.write_time >= ?
	`, addressID, formatTime(weekStart))
	if err != nil {
		return decimal.Zero, fmt.Errorf("weekly spend: %w", err)
	}
	defer rows.Close()

	sum := decimal.Zero
	for rows.Next() {
		var rawCost string
		var quantity int64
		if err := rows.Scan(&rawCost, &quantity); err != nil {
			return decimal.Zero, fmt.Errorf("weekly spend: %w", err)
		}
		cost, err := decimal.NewFromString(rawCost)
		if err != nil {
			return decimal.Zero, fmt.Errorf("weekly spend: bad cost %q: %w", rawCost, err)
		}
		sum = sum.Add(cost.Mul(decimal.NewFromInt(quantity)))
	}
	if err := rows.Err(); err != nil {
		return decimal.Zero, fmt.Errorf("weekly spend: %w", err)
	}
	return sum, nil
}

// SequenceSeeds returns the current high-water marks used to seed the
// batch processor's id allocator.
func (s *Store) SequenceSeeds(ctx context.Context) (maxOrderID, maxLineID uint64, err error) {
	err = s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(row_id), 0) FROM order_heads`).Scan(&maxOrderID)
	if err != nil {
		return 0, 0, fmt.Errorf("sequence seeds: %w", err)
	}
	err = s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(row_id), 0) FROM order_lines`).Scan(&maxLineID)
	if err != nil {
		return 0, 0, fmt.Errorf("sequence seeds: %w", err)
	}
	return maxOrderID, maxLineID, nil
}
