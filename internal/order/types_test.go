package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderHeader_Total(t *testing.T) {
	o := &OrderHeader{Lines: []*OrderLine{
		{Cost: dec("12.5"), Quantity: 4},
		{Cost: dec("3.40"), Quantity: 10, Duplicated: true},
	}}
	// Duplicated lines still count toward the submitted total.
	assert.True(t, o.Total().Equal(dec("84")), "got %s", o.Total())
}

func TestOrderHeader_SavedRowCount(t *testing.T) {
	o := &OrderHeader{Lines: []*OrderLine{
		{Duplicated: true},
		{},
		{Duplicated: true},
	}}
	assert.Equal(t, 1, o.SavedRowCount())
}

func TestOrderHeader_ClearBeforePost(t *testing.T) {
	o := &OrderHeader{
		ServerOrderID:  9,
		Result:         ResultNeedsCorrection,
		FullDuplicated: true,
		MinReq:         dec("1000"),
		ErrorReason:    "below minimum",
		Lines: []*OrderLine{{
			Duplicated:     true,
			Result:         LineCostMismatch,
			ServerCost:     SomeDecimal(dec("13.1")),
			ServerQuantity: SomeUint64(5),
		}},
	}

	o.ClearBeforePost()

	assert.Zero(t, o.ServerOrderID)
	assert.Equal(t, ResultUnknown, o.Result)
	assert.False(t, o.FullDuplicated)
	assert.True(t, o.MinReq.IsZero())
	assert.Empty(t, o.ErrorReason)
	l := o.Lines[0]
	assert.False(t, l.Duplicated)
	assert.Equal(t, LineSuccess, l.Result)
	assert.False(t, l.ServerCost.Present)
	assert.False(t, l.ServerQuantity.Present)
}

func TestSendResult_Codes(t *testing.T) {
	assert.Equal(t, 0, ResultSuccess.Code())
	assert.Equal(t, 1, ResultLessThanMinimum.Code())
	assert.Equal(t, 2, ResultNeedsCorrection.Code())
	assert.Equal(t, -1, ResultUnknown.Code())
}

func TestLineResult_Codes(t *testing.T) {
	assert.Equal(t, 0, LineSuccess.Code())
	assert.Equal(t, 1, LineNotFound.Code())
	assert.Equal(t, 2, LineCostMismatch.Code())
	assert.Equal(t, 3, LineQuantityMismatch.Code())
	assert.Equal(t, 4, LineCostAndQuantityMismatch.Code())
}
