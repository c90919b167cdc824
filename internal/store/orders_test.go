package store

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/infarma/ordergate/internal/order"
)

var testNow = time.Date(2026, 1, 7, 12, 0, 0, 0, time.UTC)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", s, err)
	}
	return d
}

func seedProduct(t *testing.T, st *Store, id uint64, name string) {
	t.Helper()
	mustExec(t, st, `INSERT INTO products (id, name) VALUES (?, ?)`, id, name)
}

func testOrder(t *testing.T, clientOrderID uint64, lines ...*order.OrderLine) *order.OrderHeader {
	t.Helper()
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

func testLine(t *testing.T, clientLineID, productID uint64, qty uint32, cost string) *order.OrderLine {
	t.Helper()
	return &order.OrderLine{
		ClientLineID:  clientLineID,
		CatalogLineID: 500 + clientLineID,
		ProductID:     productID,
		SynonymCode:   9000 + productID,
		Quantity:      qty,
		Cost:          dec(t, cost),
		Result:        order.LineSuccess,
	}
}

func TestSaveOrders_AssignsServerIDs(t *testing.T) {
	st := newTestStore(t)
	seedProduct(t, st, 100, "Aspirin")
	seedProduct(t, st, 101, "Paracetamol")

	o := testOrder(t, 10,
		testLine(t, 1, 100, 4, "12.5"),
		testLine(t, 2, 101, 10, "3.40"),
	)

	req := SaveRequest{AddressID: 55, UserID: 2, Orders: []*order.OrderHeader{o}, Now: testNow}
	if err := st.SaveOrders(context.Background(), req); err != nil {
		t.Fatalf("SaveOrders() error = %v", err)
	}

	if o.ServerOrderID == 0 {
		t.Error("ServerOrderID not assigned")
	}
	if got := countRows(t, st, "order_heads"); got != 1 {
		t.Errorf("order_heads rows = %d, want 1", got)
	}
	if got := countRows(t, st, "order_lines"); got != 2 {
		t.Errorf("order_lines rows = %d, want 2", got)
	}

	var rowCount int
	var writeTime string
	err := st.db.QueryRow(
		`SELECT row_count, write_time FROM order_heads WHERE row_id = ?`, o.ServerOrderID,
	).Scan(&rowCount, &writeTime)
	if err != nil {
		t.Fatalf("read head: %v", err)
	}
	if rowCount != 2 {
		t.Errorf("row_count = %d, want 2", rowCount)
	}
	if writeTime != "2026-01-07 12:00:00" {
		t.Errorf("write_time = %q, want %q", writeTime, "2026-01-07 12:00:00")
	}
}

func TestSaveOrders_WritesExchangeLog(t *testing.T) {
	st := newTestStore(t)
	seedProduct(t, st, 100, "Aspirin")

	o := testOrder(t, 10, testLine(t, 1, 100, 4, "12.5"))
	req := SaveRequest{AddressID: 55, UserID: 2, Orders: []*order.OrderHeader{o}, Now: testNow}
	if err := st.SaveOrders(context.Background(), req); err != nil {
		t.Fatalf("SaveOrders() error = %v", err)
	}

	var userID, updateType uint64
	var requestTime string
	err := st.db.QueryRow(
		`SELECT user_id, update_type, request_time FROM exchange_log`,
	).Scan(&userID, &updateType, &requestTime)
	if err != nil {
		t.Fatalf("read exchange_log: %v", err)
	}
	if userID != 2 || updateType != UpdateTypeOrderPost {
		t.Errorf("exchange_log row = (%d, %d), want (2, %d)", userID, updateType, UpdateTypeOrderPost)
	}
	if requestTime != "2026-01-07 12:00:00" {
		t.Errorf("request_time = %q", requestTime)
	}
}

func TestSaveOrders_SkipsDuplicatedLines(t *testing.T) {
	st := newTestStore(t)
	seedProduct(t, st, 100, "Aspirin")
	seedProduct(t, st, 101, "Paracetamol")

	dup := testLine(t, 2, 101, 10, "3.40")
	dup.Duplicated = true
	o := testOrder(t, 10, testLine(t, 1, 100, 4, "12.5"), dup)

	req := SaveRequest{AddressID: 55, UserID: 2, Orders: []*order.OrderHeader{o}, Now: testNow}
	if err := st.SaveOrders(context.Background(), req); err != nil {
		t.Fatalf("SaveOrders() error = %v", err)
	}

	if got := countRows(t, st, "order_lines"); got != 1 {
		t.Errorf("order_lines rows = %d, want 1", got)
	}
	var rowCount int
	if err := st.db.QueryRow(`SELECT row_count FROM order_heads`).Scan(&rowCount); err != nil {
		t.Fatalf("read head: %v", err)
	}
	if rowCount != 1 {
		t.Errorf("row_count = %d, want saved count 1", rowCount)
	}
}

func TestSaveOrders_SkipsFullDuplicates(t *testing.T) {
	st := newTestStore(t)
	seedProduct(t, st, 100, "Aspirin")

	o := testOrder(t, 10, testLine(t, 1, 100, 4, "12.5"))
	o.FullDuplicated = true

	req := SaveRequest{AddressID: 55, UserID: 2, Orders: []*order.OrderHeader{o}, Now: testNow}
	if err := st.SaveOrders(context.Background(), req); err != nil {
		t.Fatalf("SaveOrders() error = %v", err)
	}

	if got := countRows(t, st, "order_heads"); got != 0 {
		t.Errorf("order_heads rows = %d, want 0", got)
	}
	// The exchange itself still commits.
	if got := countRows(t, st, "exchange_log"); got != 1 {
		t.Errorf("exchange_log rows = %d, want 1", got)
	}
}

func TestSaveOrders_RollbackOnUnknownProduct(t *testing.T) {
	st := newTestStore(t)
	seedProduct(t, st, 100, "Aspirin")

	good := testOrder(t, 10, testLine(t, 1, 100, 4, "12.5"))
	bad := testOrder(t, 11, testLine(t, 2, 999, 1, "1"))

	req := SaveRequest{AddressID: 55, UserID: 2, Orders: []*order.OrderHeader{good, bad}, Now: testNow}
	err := st.SaveOrders(context.Background(), req)
	if err == nil {
		t.Fatal("SaveOrders() expected error for unknown product")
	}
	if !strings.Contains(err.Error(), "unknown product 999") {
		t.Errorf("error = %v, want unknown product", err)
	}

	// Nothing from the submission survives, including the good order.
	for _, table := range []string{"order_heads", "order_lines", "exchange_log"} {
		if got := countRows(t, st, table); got != 0 {
			t.Errorf("%s rows = %d after rollback, want 0", table, got)
		}
	}
}

func TestSaveOrders_DerivesReferenceColumns(t *testing.T) {
	st := newTestStore(t)
	seedProduct(t, st, 100, "Aspirin")
	mustExec(t, st, `INSERT INTO producers (id, name) VALUES (7, 'Bayer')`)
	mustExec(t, st, `INSERT INTO synonyms (code, product_id, name) VALUES (9100, 100, 'ASPIRIN')`)
	mustExec(t, st, `INSERT INTO producer_synonyms (code, producer_id, name) VALUES (8001, 7, 'BAYER')`)

	l := testLine(t, 1, 100, 4, "12.5")
	l.SynonymCode = 9100
	l.ProducerSynonym = order.SomeUint64(8001)
	o := testOrder(t, 10, l)

	req := SaveRequest{AddressID: 55, UserID: 2, Orders: []*order.OrderHeader{o}, Now: testNow}
	if err := st.SaveOrders(context.Background(), req); err != nil {
		t.Fatalf("SaveOrders() error = %v", err)
	}

	var producerID, synonymCode, producerSynonym int64
	err := st.db.QueryRow(
		`SELECT producer_id, synonym_code, producer_synonym_code FROM order_lines`,
	).Scan(&producerID, &synonymCode, &producerSynonym)
	if err != nil {
		t.Fatalf("read line: %v", err)
	}
	if producerID != 7 {
		t.Errorf("producer_id = %d, want 7 (derived via producer synonym)", producerID)
	}
	if synonymCode != 9100 || producerSynonym != 8001 {
		t.Errorf("synonym columns = (%d, %d), want (9100, 8001)", synonymCode, producerSynonym)
	}
}

func TestSaveOrders_LeadersRow(t *testing.T) {
	st := newTestStore(t)
	seedProduct(t, st, 100, "Aspirin")

	l := testLine(t, 1, 100, 4, "12.5")
	l.MinCost = order.SomeDecimal(dec(t, "11.9"))
	l.MinPriceCode = order.SomeUint64(77)
	o := testOrder(t, 10, l)

	req := SaveRequest{
		AddressID:   55,
		UserID:      2,
		Orders:      []*order.OrderHeader{o},
		WithLeaders: true,
		Now:         testNow,
	}
	if err := st.SaveOrders(context.Background(), req); err != nil {
		t.Fatalf("SaveOrders() error = %v", err)
	}

	var minCost string
	var minPriceListID int64
	err := st.db.QueryRow(
		`SELECT min_cost, min_price_list_id FROM order_leaders`,
	).Scan(&minCost, &minPriceListID)
	if err != nil {
		t.Fatalf("read leaders: %v", err)
	}
	if minCost != "11.9" || minPriceListID != 77 {
		t.Errorf("leaders row = (%q, %d), want (\"11.9\", 77)", minCost, minPriceListID)
	}
}

func TestSaveOrders_NoLeadersWithoutPriceCode(t *testing.T) {
	st := newTestStore(t)
	seedProduct(t, st, 100, "Aspirin")

	l := testLine(t, 1, 100, 4, "12.5")
	l.MinCost = order.SomeDecimal(dec(t, "11.9")) // cost without a price list id
	o := testOrder(t, 10, l)

	req := SaveRequest{
		AddressID:   55,
		UserID:      2,
		Orders:      []*order.OrderHeader{o},
		WithLeaders: true,
		Now:         testNow,
	}
	if err := st.SaveOrders(context.Background(), req); err != nil {
		t.Fatalf("SaveOrders() error = %v", err)
	}
	if got := countRows(t, st, "order_leaders"); got != 0 {
		t.Errorf("order_leaders rows = %d, want 0", got)
	}
}

func TestSaveOrders_EligiblePredicate(t *testing.T) {
	st := newTestStore(t)
	seedProduct(t, st, 100, "Aspirin")

	success := testOrder(t, 10, testLine(t, 1, 100, 4, "12.5"))
	rejected := testOrder(t, 11, testLine(t, 2, 100, 1, "1"))
	rejected.Result = order.ResultLessThanMinimum

	req := SaveRequest{
		AddressID: 55,
		UserID:    2,
		Orders:    []*order.OrderHeader{success, rejected},
		Eligible:  func(o *order.OrderHeader) bool { return o.Result == order.ResultSuccess },
		Now:       testNow,
	}
	if err := st.SaveOrders(context.Background(), req); err != nil {
		t.Fatalf("SaveOrders() error = %v", err)
	}

	if got := countRows(t, st, "order_heads"); got != 1 {
		t.Errorf("order_heads rows = %d, want 1", got)
	}
	if success.ServerOrderID == 0 {
		t.Error("eligible order got no server id")
	}
	if rejected.ServerOrderID != 0 {
		t.Error("ineligible order got a server id")
	}
}
