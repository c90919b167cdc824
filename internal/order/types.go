package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// SendResult is the order-level outcome of one reconciliation pass.
//
// Results are monotone within a pass: an order only ever moves away from
// ResultSuccess once a stage fails it, never back.
type SendResult int

const (
	// ResultUnknown is the state before any stage has run.
	ResultUnknown SendResult = iota

	// ResultSuccess means the order passed every check and is eligible
	// for persistence.
	ResultSuccess

	// ResultLessThanMinimum means the order total is below the enforced
	// minimum-order threshold for its (region, price list).
	ResultLessThanMinimum

	// ResultNeedsCorrection means at least one line diverged from the
	// live catalog and the client must re-confirm.
	ResultNeedsCorrection
)

// Code returns the wire code reported to clients.
// Unknown is never reported; it encodes as -1 defensively.
func (r SendResult) Code() int {
	switch r {
	case ResultSuccess:
		return 0
	case ResultLessThanMinimum:
		return 1
	case ResultNeedsCorrection:
		return 2
	default:
		return -1
	}
}

func (r SendResult) String() string {
	switch r {
	case ResultSuccess:
		return "Success"
	case ResultLessThanMinimum:
		return "LessThanMinimum"
	case ResultNeedsCorrection:
		return "NeedsCorrection"
	default:
		return "Unknown"
	}
}

// LineResult is the per-line outcome of price reconciliation.
// Like SendResult it is monotone: a line only moves away from LineSuccess.
type LineResult int

const (
	LineSuccess LineResult = iota
	LineNotFound
	LineCostMismatch
	LineQuantityMismatch
	LineCostAndQuantityMismatch
)

// Code returns the wire code reported to clients.
func (r LineResult) Code() int { return int(r) }

func (r LineResult) String() string {
	switch r {
	case LineSuccess:
		return "Success"
	case LineNotFound:
		return "NotFound"
	case LineCostMismatch:
		return "CostMismatch"
	case LineQuantityMismatch:
		return "QuantityMismatch"
	case LineCostAndQuantityMismatch:
		return "CostAndQuantityMismatch"
	default:
		return "Unknown"
	}
}

// OptUint64 is a tagged optional integer. Wire submissions encode absent
// values as empty strings; the parser resolves them exactly once at the
// boundary so downstream stages never re-check raw strings.
type OptUint64 struct {
	Value   uint64
	Present bool
}

// SomeUint64 returns a present OptUint64.
func SomeUint64(v uint64) OptUint64 { return OptUint64{Value: v, Present: true} }

// OptDecimal is a tagged optional decimal, same contract as OptUint64.
type OptDecimal struct {
	Value   decimal.Decimal
	Present bool
}

// SomeDecimal returns a present OptDecimal.
func SomeDecimal(v decimal.Decimal) OptDecimal { return OptDecimal{Value: v, Present: true} }

// OrderHeader is one submitted order. Created by ParseOrders, mutated by
// every pipeline stage, terminal once persisted or rejected.
type OrderHeader struct {
	// ClientOrderID is the client-generated order identity used for
	// duplicate detection across retried submissions.
	ClientOrderID uint64

	PriceListID uint64
	RegionID    uint64
	PriceDate   time.Time

	// Comment is the free-text addition note, already decoded from the
	// legacy byte-triplet encoding.
	Comment string

	// PaymentTerm is the optional delayed-payment term. Empty means the
	// client did not request one.
	PaymentTerm string

	// ServerOrderID is 0 until the persister assigns a durable identity.
	ServerOrderID uint64

	Result         SendResult
	FullDuplicated bool

	// MinReq carries the enforced threshold when Result is
	// ResultLessThanMinimum.
	MinReq      decimal.Decimal
	ErrorReason string

	RowCount int
	Lines    []*OrderLine
}

// OrderLine is one position of an order.
type OrderLine struct {
	ClientLineID  uint64
	CatalogLineID uint64
	ProductID     uint64

	ProducerID      OptUint64
	SynonymCode     uint64
	ProducerSynonym OptUint64
	Code            string
	CodeCr          string

	Junk  bool
	Await bool

	RequestRatio  OptUint64
	OrderCost     OptDecimal
	MinOrderCount OptUint64

	Quantity uint32
	Cost     decimal.Decimal

	// Leader/competitor price cluster. All four optional; the persister
	// writes a leaders row only when a cost and a price-list id are both
	// present and the account calculates leaders.
	MinCost            OptDecimal
	MinPriceCode       OptUint64
	LeaderMinCost      OptDecimal
	LeaderMinPriceCode OptUint64

	// Duplicated marks a line fully absorbed by a previously stored
	// order; such lines are dropped from persistence.
	Duplicated bool

	Result LineResult

	// ServerCost and ServerQuantity are populated only on mismatch.
	ServerCost     OptDecimal
	ServerQuantity OptUint64
}

// Total is the order sum: Σ(line cost × quantity) over all lines,
// duplicated or not. Minimum-requirement and weekly-limit checks both
// run against the submitted total.
func (o *OrderHeader) Total() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range o.Lines {
		sum = sum.Add(l.Cost.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return sum
}

// SavedRowCount is the number of lines that will actually be persisted.
func (o *OrderHeader) SavedRowCount() int {
	n := 0
	for _, l := range o.Lines {
		if !l.Duplicated {
			n++
		}
	}
	return n
}

// ClearBeforePost resets all per-pass state so a retried submission
// starts from a clean slate.
func (o *OrderHeader) ClearBeforePost() {
	o.ServerOrderID = 0
	o.Result = ResultUnknown
	o.FullDuplicated = false
	o.MinReq = decimal.Zero
	o.ErrorReason = ""
	for _, l := range o.Lines {
		l.Duplicated = false
		l.Result = LineSuccess
		l.ServerCost = OptDecimal{}
		l.ServerQuantity = OptUint64{}
	}
}
