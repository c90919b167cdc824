package reorder

import (
	"context"
	"fmt"

	"github.com/infarma/ordergate/internal/order"
	"github.com/infarma/ordergate/internal/store"
)

// checkPrices reconciles every non-duplicated line against the
// materialized offer snapshot. Lines diverge monotonically away from
// Success; any divergence flips the owning order to NeedsCorrection.
func (s *Submitter) checkPrices(ctx context.Context) error {
	for _, o := range s.orders {
		offers, err := s.store.Offers(ctx, o.PriceListID, o.RegionID)
		if err != nil {
			return fmt.Errorf("load offers for order %d: %w", o.ClientOrderID, err)
		}

		needsCorrection := false
		for _, line := range o.Lines {
			if line.Duplicated {
				continue
			}

			offer, err := findOffer(offers, line)
			if err != nil {
				return err
			}
			if offer == nil {
				line.Result = order.LineNotFound
			} else {
				compareOffer(line, offer)
			}
			if line.Result != order.LineSuccess {
				needsCorrection = true
			}
		}

		if needsCorrection {
			o.Result = order.ResultNeedsCorrection
		}
	}
	return nil
}

// findOffer locates the live counterpart of a submitted line: primary
// lookup by catalog line id, then a descriptive fallback filter. More
// than one primary match means the catalog itself is corrupt; that is a
// hard error, not a line outcome.
func findOffer(offers []store.Offer, line *order.OrderLine) (*store.Offer, error) {
	var primary []*store.Offer
	for i := range offers {
		if offers[i].ID == line.CatalogLineID {
			primary = append(primary, &offers[i])
		}
	}
	if len(primary) > 1 {
		return nil, &InconsistencyError{CatalogLineID: line.CatalogLineID, Matches: len(primary)}
	}
	if len(primary) == 1 {
		return primary[0], nil
	}

	for i := range offers {
		if describesLine(&offers[i], line) {
			return &offers[i], nil
		}
	}
	return nil, nil
}

// describesLine is the fallback filter: same product, producer and
// junk/backorder flags.
func describesLine(o *store.Offer, line *order.OrderLine) bool {
	return o.ProductID == line.ProductID &&
		optEqual(o.ProducerID, line.ProducerID) &&
		o.Junk == line.Junk &&
		o.Await == line.Await
}

// compareOffer applies the cost/quantity reconciliation rules. Server
// cost and quantity are recorded only on mismatch, per the wire
// contract.
func compareOffer(line *order.OrderLine, offer *store.Offer) {
	if !line.Cost.Equal(offer.Cost) {
		line.Result = order.LineCostMismatch
		line.ServerCost = order.SomeDecimal(offer.Cost)
		if offer.Quantity.Present {
			line.ServerQuantity = offer.Quantity
		}
	}

	if offer.Quantity.Present && offer.Quantity.Value < uint64(line.Quantity) {
		if line.Result == order.LineCostMismatch {
			line.Result = order.LineCostAndQuantityMismatch
		} else {
			line.Result = order.LineQuantityMismatch
			line.ServerCost = order.SomeDecimal(offer.Cost)
			line.ServerQuantity = offer.Quantity
		}
	}
}
