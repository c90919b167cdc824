package batch

import (
	"context"
	"fmt"
	"sort"

	"github.com/infarma/ordergate/internal/order"
	"github.com/infarma/ordergate/internal/store"
)

// ReportStatus is the per-demand outcome reported back to the outlet.
type ReportStatus int

const (
	// StatusOrdered means the demand was fully covered by an offer.
	StatusOrdered ReportStatus = iota

	// StatusNotFound means no catalog product matched the demand name.
	StatusNotFound

	// StatusNoOffer means the product exists but no eligible offer
	// carries it right now.
	StatusNoOffer

	// StatusQuantityAdjusted means an offer was used but the ordered
	// quantity differs from the demanded one (ratio rounding, minimum
	// order multiples, or limited availability).
	StatusQuantityAdjusted
)

// ReportItem is one row of the batch report: the original demand plus
// what sourcing did with it.
type ReportItem struct {
	Demand DemandLine
	Status ReportStatus

	// Line is set when the demand produced an order line.
	Line *order.OrderLine
	// OrderKey identifies which candidate order the line landed in.
	OrderKey orderKey

	ProductID  order.OptUint64
	ProducerID order.OptUint64
}

type orderKey struct {
	PriceListID uint64
	RegionID    uint64
}

// sourceResult is the output of one parse-and-source pass.
type sourceResult struct {
	orders  map[orderKey]*order.OrderHeader
	keys    []orderKey // deterministic order of orders
	report  []ReportItem
	service []string
}

// sourceOrders applies the account's sourcing rule to the demand lines
// against the materialized offer snapshot, producing candidate orders
// and a line-level report.
//
// An empty snapshot is the transient ErrNoOffers condition; the caller
// retries the whole step.
func (p *Processor) sourceOrders(ctx context.Context, demands []DemandLine, serviceFields []string) (*sourceResult, error) {
	offers, err := p.store.AllOffers(ctx)
	if err != nil {
		return nil, fmt.Errorf("load offer snapshot: %w", err)
	}
	if len(offers) == 0 {
		return nil, ErrNoOffers
	}

	res := &sourceResult{
		orders:  make(map[orderKey]*order.OrderHeader),
		service: serviceFields,
	}

	for _, d := range demands {
		item := ReportItem{Demand: d}

		productID, found, err := p.store.ProductIDByName(ctx, d.Product)
		if err != nil {
			return nil, fmt.Errorf("resolve product %q: %w", d.Product, err)
		}
		if !found {
			item.Status = StatusNotFound
			res.report = append(res.report, item)
			continue
		}
		item.ProductID = order.SomeUint64(productID)

		offer := p.pickOffer(offers, productID)
		if offer == nil {
			item.Status = StatusNoOffer
			res.report = append(res.report, item)
			continue
		}
		item.ProducerID = offer.ProducerID

		qty, adjusted := sourcedQuantity(d.Quantity, offer)
		if qty == 0 {
			item.Status = StatusNoOffer
			res.report = append(res.report, item)
			continue
		}

		line := lineFromOffer(offer, qty)
		key := orderKey{PriceListID: offer.PriceListID, RegionID: offer.RegionID}
		head := res.orders[key]
		if head == nil {
			head = &order.OrderHeader{
				PriceListID: key.PriceListID,
				RegionID:    key.RegionID,
				PriceDate:   p.now(),
				Result:      order.ResultSuccess,
			}
			res.orders[key] = head
			res.keys = append(res.keys, key)
		}
		head.Lines = append(head.Lines, line)
		head.RowCount++

		item.Line = line
		item.OrderKey = key
		if adjusted {
			item.Status = StatusQuantityAdjusted
		} else {
			item.Status = StatusOrdered
		}
		res.report = append(res.report, item)
	}

	sort.Slice(res.keys, func(i, j int) bool {
		a, b := res.keys[i], res.keys[j]
		if a.PriceListID != b.PriceListID {
			return a.PriceListID < b.PriceListID
		}
		return a.RegionID < b.RegionID
	})

	return res, nil
}

// pickOffer selects the offer to source a product from: junk offers are
// skipped when the rule says so, and the cheapest eligible offer wins
// under prefer-cheap (first eligible otherwise).
func (p *Processor) pickOffer(offers []store.Offer, productID uint64) *store.Offer {
	var best *store.Offer
	for i := range offers {
		o := &offers[i]
		if o.ProductID != productID {
			continue
		}
		if p.rule.AvoidJunk && o.Junk {
			continue
		}
		if best == nil {
			best = o
			continue
		}
		if p.rule.PreferCheap && o.Cost.LessThan(best.Cost) {
			best = o
		}
	}
	return best
}

// sourcedQuantity applies the offer's order constraints to the demanded
// quantity: minimum order count first, then request-ratio rounding up,
// then capping at availability (rounded down to a ratio multiple).
func sourcedQuantity(demanded uint32, offer *store.Offer) (qty uint32, adjusted bool) {
	qty = demanded

	if offer.MinOrderCount.Present && uint64(qty) < offer.MinOrderCount.Value {
		qty = uint32(offer.MinOrderCount.Value)
	}

	if offer.RequestRatio.Present && offer.RequestRatio.Value > 1 {
		ratio := uint32(offer.RequestRatio.Value)
		if rem := qty % ratio; rem != 0 {
			qty += ratio - rem
		}
	}

	if offer.Quantity.Present && uint64(qty) > offer.Quantity.Value {
		qty = uint32(offer.Quantity.Value)
		if offer.RequestRatio.Present && offer.RequestRatio.Value > 1 {
			qty -= qty % uint32(offer.RequestRatio.Value)
		}
	}

	return qty, qty != demanded
}

func lineFromOffer(offer *store.Offer, qty uint32) *order.OrderLine {
	l := &order.OrderLine{
		CatalogLineID:   offer.ID,
		ProductID:       offer.ProductID,
		ProducerID:      offer.ProducerID,
		ProducerSynonym: offer.ProducerSynonym,
		Code:            offer.Code,
		CodeCr:          offer.CodeCr,
		Junk:            offer.Junk,
		Await:           offer.Await,
		RequestRatio:    offer.RequestRatio,
		OrderCost:       offer.OrderCost,
		MinOrderCount:   offer.MinOrderCount,
		Quantity:        qty,
		Cost:            offer.Cost,
		Result:          order.LineSuccess,
	}
	if offer.SynonymCode.Present {
		l.SynonymCode = offer.SynonymCode.Value
	}
	return l
}
