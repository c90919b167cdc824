package batch

import (
	"os"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/infarma/ordergate/internal/order"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestWriteFiles_Golden(t *testing.T) {
	line1 := &order.OrderLine{
		CatalogLineID:   501,
		ProductID:       100,
		ProducerID:      order.SomeUint64(7),
		SynonymCode:     9001,
		ProducerSynonym: order.SomeUint64(8001),
		Code:            "A100",
		CodeCr:          "P7",
		Quantity:        4,
		Cost:            dec("12.5"),
	}
	line2 := &order.OrderLine{
		CatalogLineID: 502,
		ProductID:     101,
		SynonymCode:   9002,
		Quantity:      10,
		Cost:          dec("3.4"),
		RequestRatio:  order.SomeUint64(5),
		OrderCost:     order.SomeDecimal(dec("100")),
		MinOrderCount: order.SomeUint64(10),
	}

	key := orderKey{PriceListID: 3, RegionID: 1}
	res := &sourceResult{
		orders: map[orderKey]*order.OrderHeader{
			key: {
				PriceListID: key.PriceListID,
				RegionID:    key.RegionID,
				Result:      order.ResultSuccess,
				Lines:       []*order.OrderLine{line1, line2},
			},
		},
		keys: []orderKey{key},
		report: []ReportItem{
			{
				Demand:     DemandLine{Product: "ASPIRIN", Producer: "BAYER", Quantity: 4},
				Status:     StatusOrdered,
				Line:       line1,
				OrderKey:   key,
				ProductID:  order.SomeUint64(100),
				ProducerID: order.SomeUint64(7),
			},
			{
				Demand: DemandLine{Product: "NOSUCH", Quantity: 1},
				Status: StatusNotFound,
			},
			{
				Demand:    DemandLine{Product: "PARACETAMOL", Quantity: 8, Extra: []string{"9.99", "urgent"}},
				Status:    StatusQuantityAdjusted,
				Line:      line2,
				OrderKey:  key,
				ProductID: order.SomeUint64(101),
			},
		},
		service: []string{"price", "comment"},
	}

	p := &Processor{addressID: 55}
	seq := &Sequences{OrderID: 200, OrderLineID: 300}

	files, err := p.writeFiles(t.TempDir(), res, seq)
	require.NoError(t, err)

	g := goldie.New(t)
	for name, path := range map[string]string{
		"batch_orders":         files.Orders,
		"batch_order_items":    files.OrderItems,
		"batch_report":         files.Report,
		"batch_service_fields": files.ServiceFields,
	} {
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		g.Assert(t, name, data)
	}
}
