package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/infarma/ordergate/internal/order"
)

// MinRequirement is the minimum-order threshold for one
// (address, region, price list) triple.
type MinRequirement struct {
	Threshold decimal.Decimal
	Enforce   bool
}

// MinRequirement loads the configured threshold, or nil when the triple
// has no configured minimum at all.
func (s *Store) MinRequirement(ctx context.Context, addressID, regionID, priceListID uint64) (*MinRequirement, error) {
	var raw string
	var enforce bool
	err := s.db.QueryRowContext(ctx, `
		SELECT min_req, enforce FROM min_requirements
		WHERE address_id = ? AND region_id = ? AND price_list_id = ?
	`, addressID, regionID, priceListID).Scan(&raw, &enforce)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("min requirement: %w", err)
	}

	threshold, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, fmt.Errorf("min requirement: bad threshold %q: %w", raw, err)
	}
	return &MinRequirement{Threshold: threshold, Enforce: enforce}, nil
}

// AccountSettings is the per-account permission and policy record.
type AccountSettings struct {
	AllowOrders      bool
	CheckWeeklyCap   bool
	WeeklyCap        decimal.Decimal
	CalculateLeaders bool
	EnableAutoOrder  bool
}

// AccountSettings loads the settings row for a client. A missing row is
// an error: every ordering account must be provisioned.
func (s *Store) AccountSettings(ctx context.Context, clientID uint64) (AccountSettings, error) {
	var set AccountSettings
	var rawCap string
	err := s.db.QueryRowContext(ctx, `
		SELECT allow_orders, check_weekly_cap, weekly_cap, calculate_leaders, enable_auto_order
		FROM account_settings WHERE client_id = ?
	`, clientID).Scan(&set.AllowOrders, &set.CheckWeeklyCap, &rawCap, &set.CalculateLeaders, &set.EnableAutoOrder)
	if err == sql.ErrNoRows {
		return set, fmt.Errorf("account %d is not provisioned", clientID)
	}
	if err != nil {
		return set, fmt.Errorf("account settings: %w", err)
	}

	set.WeeklyCap, err = decimal.NewFromString(rawCap)
	if err != nil {
		return set, fmt.Errorf("account settings: bad weekly cap %q: %w", rawCap, err)
	}
	return set, nil
}

// AutoOrderRule is the per-account sourcing rule for the batch
// processor.
type AutoOrderRule struct {
	PreferCheap bool
	AvoidJunk   bool
}

// AutoOrderRule loads the sourcing rule for a client, or nil when none
// is configured. The batch processor refuses to run without one.
func (s *Store) AutoOrderRule(ctx context.Context, clientID uint64) (*AutoOrderRule, error) {
	var rule AutoOrderRule
	err := s.db.QueryRowContext(ctx,
		`SELECT prefer_cheap, avoid_junk FROM auto_order_rules WHERE client_id = ?`,
		clientID).Scan(&rule.PreferCheap, &rule.AvoidJunk)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("auto order rule: %w", err)
	}
	return &rule, nil
}

// Offer is one live (supplier line, price, available quantity) tuple
// from the materialized snapshot.
type Offer struct {
	ID          uint64
	PriceListID uint64
	RegionID    uint64
	ProductID   uint64

	ProducerID      order.OptUint64
	SynonymCode     order.OptUint64
	ProducerSynonym order.OptUint64
	Code            string
	CodeCr          string

	Junk  bool
	Await bool

	Cost          decimal.Decimal
	Quantity      order.OptUint64
	RequestRatio  order.OptUint64
	OrderCost     order.OptDecimal
	MinOrderCount order.OptUint64
}

// MaterializeOffers rebuilds the TEMP offers snapshot for the client's
// class: every catalog line on a price list the client sees. The table
// lives on the store's single connection; subsequent Offers and
// AllOffers calls read from it.
func (s *Store) MaterializeOffers(ctx context.Context, clientID uint64) error {
	if _, err := s.db.ExecContext(ctx, `DROP TABLE IF EXISTS temp.offers`); err != nil {
		return fmt.Errorf("materialize offers: drop: %w", err)
	}

	_, err := s.db.ExecContext(ctx, `
		CREATE TEMP TABLE offers AS
		SELECT cl.*
		FROM catalog_lines cl
		JOIN price_availability pa
		  ON pa.price_list_id = cl.price_list_id
		 AND pa.region_id = cl.region_id
		WHERE pa.client_id = ?
	`, clientID)
	if err != nil {
		return fmt.Errorf("materialize offers: %w", err)
	}
	return nil
}

// Offers reads the materialized snapshot for one (price list, region).
// MaterializeOffers must have run on this store first.
func (s *Store) Offers(ctx context.Context, priceListID, regionID uint64) ([]Offer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, price_list_id, region_id, product_id, producer_id,
		       synonym_code, producer_synonym_code, code, code_cr,
		       junk, await, cost, quantity, request_ratio, order_cost, min_order_count
		FROM temp.offers
		WHERE price_list_id = ? AND region_id = ?
	`, priceListID, regionID)
	if err != nil {
		return nil, fmt.Errorf("offers: %w", err)
	}
	defer rows.Close()

	return scanOffers(rows)
}

// AllOffers reads the whole materialized snapshot. Used by the batch
// processor, which sources across every visible price list.
func (s *Store) AllOffers(ctx context.Context) ([]Offer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, price_list_id, region_id, product_id, producer_id,
		       synonym_code, producer_synonym_code, code, code_cr,
		       junk, await, cost, quantity, request_ratio, order_cost, min_order_count
		FROM temp.offers
	`)
	if err != nil {
		return nil, fmt.Errorf("all offers: %w", err)
	}
	defer rows.Close()

	return scanOffers(rows)
}

func scanOffers(rows *sql.Rows) ([]Offer, error) {
	var offers []Offer
	for rows.Next() {
		var o Offer
		var producerID, synonymCode, producerSynonym, quantity, requestRatio, minOrderCount sql.NullInt64
		var code, codeCr, orderCost sql.NullString
		var rawCost string

		err := rows.Scan(
			&o.ID, &o.PriceListID, &o.RegionID, &o.ProductID, &producerID,
			&synonymCode, &producerSynonym, &code, &codeCr,
			&o.Junk, &o.Await, &rawCost, &quantity, &requestRatio, &orderCost, &minOrderCount,
		)
		if err != nil {
			return nil, fmt.Errorf("scan offer: %w", err)
		}

		o.Cost, err = decimal.NewFromString(rawCost)
		if err != nil {
			return nil, fmt.Errorf("scan offer %d: bad cost %q: %w", o.ID, rawCost, err)
		}
		o.ProducerID = optFromNull(producerID)
		o.SynonymCode = optFromNull(synonymCode)
		o.ProducerSynonym = optFromNull(producerSynonym)
		o.Quantity = optFromNull(quantity)
		o.RequestRatio = optFromNull(requestRatio)
		o.MinOrderCount = optFromNull(minOrderCount)
		o.Code = code.String
		o.CodeCr = codeCr.String
		if orderCost.Valid && orderCost.String != "" {
			v, err := decimal.NewFromString(orderCost.String)
			if err != nil {
				return nil, fmt.Errorf("scan offer %d: bad order cost %q: %w", o.ID, orderCost.String, err)
			}
			o.OrderCost = order.SomeDecimal(v)
		}

		offers = append(offers, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan offers: %w", err)
	}
	return offers, nil
}

// ProductIDByName resolves a catalog product by its synonym name.
// Returns 0 and false when nothing matches.
func (s *Store) ProductIDByName(ctx context.Context, name string) (uint64, bool, error) {
	var id uint64
	err := s.db.QueryRowContext(ctx, `
		SELECT product_id FROM synonyms WHERE name = ? AND product_id IS NOT NULL
		LIMIT 1
	`, name).Scan(&id)
	if err == sql.ErrNoRows {
		err = s.db.QueryRowContext(ctx,
			`SELECT id FROM products WHERE name = ? LIMIT 1`, name).Scan(&id)
		if err == sql.ErrNoRows {
			return 0, false, nil
		}
	}
	if err != nil {
		return 0, false, fmt.Errorf("product by name: %w", err)
	}
	return id, true, nil
}

func optFromNull(v sql.NullInt64) order.OptUint64 {
	if !v.Valid {
		return order.OptUint64{}
	}
	return order.SomeUint64(uint64(v.Int64))
}
