package order

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestResultToken_Success(t *testing.T) {
	o := &OrderHeader{ClientOrderID: 10, Result: ResultSuccess, ServerOrderID: 42}
	assert.Equal(t, "ClientOrderId=10;PostResult=0;ServerOrderId=42", o.ResultToken())
}

func TestResultToken_LessThanMinimum(t *testing.T) {
	o := &OrderHeader{
		ClientOrderID: 11,
		Result:        ResultLessThanMinimum,
		MinReq:        dec("1000"),
		ErrorReason:   "below minimum",
	}
	assert.Equal(t, "ClientOrderId=11;PostResult=1;MinReq=1000;ErrorReason=below minimum", o.ResultToken())
}

func TestResultToken_NeedsCorrection(t *testing.T) {
	o := &OrderHeader{
		ClientOrderID: 12,
		Result:        ResultNeedsCorrection,
		Lines: []*OrderLine{
			{ClientLineID: 1, Result: LineSuccess},
			{
				ClientLineID:   2,
				Result:         LineCostMismatch,
				ServerCost:     SomeDecimal(dec("13.1")),
				ServerQuantity: SomeUint64(50),
			},
			{ClientLineID: 3, Result: LineNotFound},
		},
	}
	want := "ClientOrderId=12;PostResult=2" +
		";ClientPositionId=2;PositionResult=2;ServerCost=13.1;ServerQuantity=50" +
		";ClientPositionId=3;PositionResult=1"
	assert.Equal(t, want, o.ResultToken())
}

func TestResults_Policies(t *testing.T) {
	orders := []*OrderHeader{
		{ClientOrderID: 1, Result: ResultSuccess, ServerOrderID: 7},
		{ClientOrderID: 2, Result: ResultSuccess, FullDuplicated: true},
		{ClientOrderID: 3, Result: ResultUnknown},
	}

	assert.Equal(t,
		"ClientOrderId=1;PostResult=0;ServerOrderId=7",
		Results(orders, OmitFullDuplicates))

	assert.Equal(t,
		"ClientOrderId=1;PostResult=0;ServerOrderId=7;ClientOrderId=2;PostResult=0;ServerOrderId=0",
		Results(orders, IncludeFullDuplicates))
}

func TestResults_Empty(t *testing.T) {
	assert.Equal(t, "", Results(nil, IncludeFullDuplicates))
}
