package order

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Submission is the wire-level columnar form of one submission: one slot
// per order in the header arrays, one slot per line in the line arrays,
// lines laid out contiguously per order in submission order. LineCounts
// declares how many lines belong to each order.
//
// Optional numeric fields arrive as strings: empty means absent, anything
// else must be a locale-invariant numeric literal.
type Submission struct {
	ClientOrderIDs []uint64    `json:"client_order_ids"`
	PriceListIDs   []uint64    `json:"price_list_ids"`
	RegionIDs      []uint64    `json:"region_ids"`
	PriceDates     []time.Time `json:"price_dates"`
	Comments       []string    `json:"comments"`
	PaymentTerms   []string    `json:"payment_terms"`
	LineCounts     []int       `json:"line_counts"`

	ClientLineIDs    []uint64 `json:"client_line_ids"`
	CatalogLineIDs   []uint64 `json:"catalog_line_ids"`
	ProductIDs       []uint64 `json:"product_ids"`
	ProducerIDs      []string `json:"producer_ids"`
	SynonymCodes     []uint64 `json:"synonym_codes"`
	ProducerSynonyms []string `json:"producer_synonyms"`
	Codes            []string `json:"codes"`
	CodesCr          []string `json:"codes_cr"`
	Junk             []bool   `json:"junk"`
	Await            []bool   `json:"await"`
	RequestRatios    []string `json:"request_ratios"`
	OrderCosts       []string `json:"order_costs"`
	MinOrderCounts   []string `json:"min_order_counts"`
	Quantities       []uint32 `json:"quantities"`
	Costs            []string `json:"costs"`

	MinCosts            []string `json:"min_costs"`
	MinPriceCodes       []string `json:"min_price_codes"`
	LeaderMinCosts      []string `json:"leader_min_costs"`
	LeaderMinPriceCodes []string `json:"leader_min_price_codes"`
}

// ParseOrders turns a columnar submission into typed order records.
//
// Every LineCounts entry must be non-negative, every header array must
// have exactly len(LineCounts) elements and every line array exactly
// sum(LineCounts) elements; the first mismatch fails
// with a *ValidationError naming the array and both counts, and no partial
// result is returned. Line invariant on success:
// Σ(len(header.Lines)) == sum(LineCounts).
func ParseOrders(sub Submission) ([]*OrderHeader, error) {
	orderCount := len(sub.LineCounts)
	lineCount := 0
	for i, n := range sub.LineCounts {
		// A negative count would still satisfy the sum-based length
		// checks below while overrunning the line arrays.
		if n < 0 {
			return nil, newFieldError("lineCounts", i, fmt.Errorf("negative line count %d", n))
		}
		lineCount += n
	}

	headerArrays := []struct {
		name string
		got  int
	}{
		{"clientOrderIds", len(sub.ClientOrderIDs)},
		{"priceListIds", len(sub.PriceListIDs)},
		{"regionIds", len(sub.RegionIDs)},
		{"priceDates", len(sub.PriceDates)},
		{"comments", len(sub.Comments)},
		{"paymentTerms", len(sub.PaymentTerms)},
	}
	for _, a := range headerArrays {
		if a.got != orderCount {
			return nil, newCountError(a.name, a.got, orderCount)
		}
	}

	lineArrays := []struct {
		name string
		got  int
	}{
		{"clientLineIds", len(sub.ClientLineIDs)},
		{"catalogLineIds", len(sub.CatalogLineIDs)},
		{"productIds", len(sub.ProductIDs)},
		{"producerIds", len(sub.ProducerIDs)},
		{"synonymCodes", len(sub.SynonymCodes)},
		{"producerSynonyms", len(sub.ProducerSynonyms)},
		{"codes", len(sub.Codes)},
		{"codesCr", len(sub.CodesCr)},
		{"junk", len(sub.Junk)},
		{"await", len(sub.Await)},
		{"requestRatios", len(sub.RequestRatios)},
		{"orderCosts", len(sub.OrderCosts)},
		{"minOrderCounts", len(sub.MinOrderCounts)},
		{"quantities", len(sub.Quantities)},
		{"costs", len(sub.Costs)},
		{"minCosts", len(sub.MinCosts)},
		{"minPriceCodes", len(sub.MinPriceCodes)},
		{"leaderMinCosts", len(sub.LeaderMinCosts)},
		{"leaderMinPriceCodes", len(sub.LeaderMinPriceCodes)},
	}
	for _, a := range lineArrays {
		if a.got != lineCount {
			return nil, newCountError(a.name, a.got, lineCount)
		}
	}

	orders := make([]*OrderHeader, 0, orderCount)
	pos := 0
	for i := 0; i < orderCount; i++ {
		comment, err := DecodeLegacyText(sub.Comments[i])
		if err != nil {
			return nil, newFieldError("comments", i, err)
		}

		h := &OrderHeader{
			ClientOrderID: sub.ClientOrderIDs[i],
			PriceListID:   sub.PriceListIDs[i],
			RegionID:      sub.RegionIDs[i],
			PriceDate:     sub.PriceDates[i],
			Comment:       comment,
			PaymentTerm:   sub.PaymentTerms[i],
			Result:        ResultUnknown,
			RowCount:      sub.LineCounts[i],
		}

		for j := pos; j < pos+h.RowCount; j++ {
			line, err := parseLine(sub, j)
			if err != nil {
				return nil, err
			}
			h.Lines = append(h.Lines, line)
		}
		pos += h.RowCount

		orders = append(orders, h)
	}

	return orders, nil
}

func parseLine(sub Submission, j int) (*OrderLine, error) {
	l := &OrderLine{
		ClientLineID:  sub.ClientLineIDs[j],
		CatalogLineID: sub.CatalogLineIDs[j],
		ProductID:     sub.ProductIDs[j],
		SynonymCode:   sub.SynonymCodes[j],
		Code:          sub.Codes[j],
		CodeCr:        sub.CodesCr[j],
		Junk:          sub.Junk[j],
		Await:         sub.Await[j],
		Quantity:      sub.Quantities[j],
		Result:        LineSuccess,
	}

	cost, err := decimal.NewFromString(sub.Costs[j])
	if err != nil {
		return nil, newFieldError("costs", j, err)
	}
	l.Cost = cost

	optInts := []struct {
		name string
		raw  string
		dst  *OptUint64
	}{
		{"producerIds", sub.ProducerIDs[j], &l.ProducerID},
		{"producerSynonyms", sub.ProducerSynonyms[j], &l.ProducerSynonym},
		{"requestRatios", sub.RequestRatios[j], &l.RequestRatio},
		{"minOrderCounts", sub.MinOrderCounts[j], &l.MinOrderCount},
		{"minPriceCodes", sub.MinPriceCodes[j], &l.MinPriceCode},
		{"leaderMinPriceCodes", sub.LeaderMinPriceCodes[j], &l.LeaderMinPriceCode},
	}
	for _, f := range optInts {
		v, err := parseOptUint(f.raw)
		if err != nil {
			return nil, newFieldError(f.name, j, err)
		}
		*f.dst = v
	}

	optDecs := []struct {
		name string
		raw  string
		dst  *OptDecimal
	}{
		{"orderCosts", sub.OrderCosts[j], &l.OrderCost},
		{"minCosts", sub.MinCosts[j], &l.MinCost},
		{"leaderMinCosts", sub.LeaderMinCosts[j], &l.LeaderMinCost},
	}
	for _, f := range optDecs {
		v, err := parseOptDecimal(f.raw)
		if err != nil {
			return nil, newFieldError(f.name, j, err)
		}
		*f.dst = v
	}

	return l, nil
}

func parseOptUint(raw string) (OptUint64, error) {
	if raw == "" {
		return OptUint64{}, nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return OptUint64{}, err
	}
	return SomeUint64(v), nil
}

func parseOptDecimal(raw string) (OptDecimal, error) {
	if raw == "" {
		return OptDecimal{}, nil
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return OptDecimal{}, err
	}
	return SomeDecimal(v), nil
}
