package order

import (
	"fmt"
	"strings"
)

// ResultPolicy selects how fully-duplicated orders appear in the
// aggregated result string. The legacy protocol omitted them entirely;
// newer clients expect every submitted order to be echoed back.
type ResultPolicy int

const (
	// OmitFullDuplicates drops fully-duplicated orders from the result.
	OmitFullDuplicates ResultPolicy = iota

	// IncludeFullDuplicates reports fully-duplicated orders as Success
	// with no server order id.
	IncludeFullDuplicates
)

// Results encodes the per-order outcome tokens in submission order,
// joined with ";". Orders whose result is still Unknown are never
// reported; they were short-circuited by a fatal error upstream.
func Results(orders []*OrderHeader, policy ResultPolicy) string {
	var b strings.Builder
	for _, o := range orders {
		if o.Result == ResultUnknown {
			continue
		}
		if o.FullDuplicated && policy == OmitFullDuplicates {
			continue
		}
		if b.Len() > 0 {
			b.WriteString(";")
		}
		b.WriteString(o.ResultToken())
	}
	return b.String()
}

// ResultToken encodes one order's outcome. Non-Success outcomes carry the
// diff data the client needs to re-render a correction UI: the enforced
// threshold, or per-line server cost/quantity deltas.
func (o *OrderHeader) ResultToken() string {
	var b strings.Builder
	fmt.Fprintf(&b, "ClientOrderId=%d;PostResult=%d", o.ClientOrderID, o.Result.Code())

	switch o.Result {
	case ResultSuccess:
		fmt.Fprintf(&b, ";ServerOrderId=%d", o.ServerOrderID)
	case ResultLessThanMinimum:
		fmt.Fprintf(&b, ";MinReq=%s;ErrorReason=%s", o.MinReq.String(), o.ErrorReason)
	case ResultNeedsCorrection:
		for _, l := range o.Lines {
			if l.Result == LineSuccess || l.Duplicated {
				continue
			}
			fmt.Fprintf(&b, ";ClientPositionId=%d;PositionResult=%d", l.ClientLineID, l.Result.Code())
			if l.ServerCost.Present {
				fmt.Fprintf(&b, ";ServerCost=%s", l.ServerCost.Value.String())
			}
			if l.ServerQuantity.Present {
				fmt.Fprintf(&b, ";ServerQuantity=%d", l.ServerQuantity.Value)
			}
		}
	}

	return b.String()
}
