package reorder

import (
	"context"
	"fmt"

	"github.com/infarma/ordergate/internal/order"
)

// minReqMessage is the fixed client-facing rejection text for orders
// below the enforced minimum.
const minReqMessage = "The supplier declined the order: the order total is below the minimum allowed."

// checkMinRequirements applies the per-order spend floor. Every order
// leaves this stage either provisionally Success or LessThanMinimum with
// the threshold attached.
func (s *Submitter) checkMinRequirements(ctx context.Context) error {
	for _, o := range s.orders {
		minReq, err := s.store.MinRequirement(ctx, s.addressID, o.RegionID, o.PriceListID)
		if err != nil {
			return fmt.Errorf("check min requirement for order %d: %w", o.ClientOrderID, err)
		}

		o.Result = order.ResultSuccess
		if minReq == nil || !minReq.Enforce || !minReq.Threshold.IsPositive() {
			continue
		}
		if o.Total().LessThan(minReq.Threshold) {
			o.Result = order.ResultLessThanMinimum
			o.MinReq = minReq.Threshold
			o.ErrorReason = minReqMessage
		}
	}
	return nil
}
