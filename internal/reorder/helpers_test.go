package reorder

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/infarma/ordergate/internal/order"
	"github.com/infarma/ordergate/internal/store"
)

// Wednesday; the containing week starts Monday 2026-01-05.
var testNow = time.Date(2026, 1, 7, 12, 0, 0, 0, time.UTC)

const (
	testClientID  = 1
	testUserID    = 2
	testAddressID = 55
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "orders.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func mustExec(t *testing.T, st *store.Store, query string, args ...any) {
	t.Helper()
	_, err := st.DB().Exec(query, args...)
	require.NoError(t, err, "query: %s", query)
}

func countRows(t *testing.T, st *store.Store, table string) int {
	t.Helper()
	var n int
	require.NoError(t, st.DB().QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// seedBase provisions the account and a one-line catalog the pipeline
// can reconcile against: product 100 on price list 5 in region 7 at
// cost 12.5 with no quantity limit.
func seedBase(t *testing.T, st *store.Store) {
	t.Helper()
	mustExec(t, st, `INSERT INTO account_settings (client_id, allow_orders) VALUES (?, 1)`, testClientID)
	mustExec(t, st, `INSERT INTO products (id, name) VALUES (100, 'Aspirin')`)
	mustExec(t, st, `INSERT INTO price_availability (client_id, price_list_id, region_id) VALUES (?, 5, 7)`, testClientID)
	mustExec(t, st, `
		INSERT INTO catalog_lines (id, price_list_id, region_id, product_id, synonym_code, cost, quantity)
		VALUES (501, 5, 7, 100, 9100, '12.5', NULL)
	`)
}

func testOrder(clientOrderID uint64, lines ...*order.OrderLine) *order.OrderHeader {
	return &order.OrderHeader{
		ClientOrderID: clientOrderID,
		PriceListID:   5,
		RegionID:      7,
		PriceDate:     testNow,
		Result:        order.ResultSuccess,
		RowCount:      len(lines),
		Lines:         lines,
	}
}

func testLine(clientLineID, catalogLineID, productID uint64, qty uint32, cost string) *order.OrderLine {
	return &order.OrderLine{
		ClientLineID:  clientLineID,
		CatalogLineID: catalogLineID,
		ProductID:     productID,
		SynonymCode:   9000 + productID,
		Quantity:      qty,
		Cost:          dec(cost),
		Result:        order.LineSuccess,
	}
}

// seedPriorOrder stores one committed order for the test address so it
// becomes a duplicate-detection candidate.
func seedPriorOrder(t *testing.T, st *store.Store, clientOrderID uint64, writeTime string, lines ...*order.OrderLine) {
	t.Helper()
	res, err := st.DB().Exec(`
		INSERT INTO order_heads
		(client_id, client_order_id, price_list_id, region_id, price_date, row_count, write_time)
		VALUES (?, ?, 5, 7, ?, ?, ?)
	`, testAddressID, clientOrderID, writeTime, len(lines), writeTime)
	require.NoError(t, err)
	orderID, err := res.LastInsertId()
	require.NoError(t, err)

	for _, l := range lines {
		_, err := st.DB().Exec(`
			INSERT INTO order_lines
			(order_id, product_id, producer_id, synonym_code, producer_synonym_code, quantity, junk, await, cost)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, orderID, l.ProductID, optArg(l.ProducerID), l.SynonymCode, optArg(l.ProducerSynonym),
			l.Quantity, l.Junk, l.Await, l.Cost.String())
		require.NoError(t, err)
	}
}

func optArg(v order.OptUint64) any {
	if !v.Present {
		return nil
	}
	return v.Value
}

func fixedClock() func() time.Time {
	return func() time.Time { return testNow }
}
