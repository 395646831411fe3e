package service

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"go-retail-ws/internal/model"
)

func layer(received string, qty int, cost string) model.InventoryBatch {
	day, _ := time.Parse(time.DateOnly, received)
	return model.InventoryBatch{Quantity: qty, CostPerUnit: decimal.RequireFromString(cost), ReceivedDate: day}
}

func TestValueStock(t *testing.T) {
	// Listed out of order on purpose; valueStock sorts by received date.
	batches := []model.InventoryBatch{
		layer("2024-02-01", 5, "3.00"),
		layer("2024-01-01", 5, "2.00"),
		layer("2023-12-01", 0, "9.00"),
	}
	cost := decimal.RequireFromString("1.00")

	tests := []struct {
		name   string
		method model.ValuationMethod
		stock  int
		want   string
	}{
		{"fifo keeps newest layers", model.ValuationFIFO, 6, "17.00"},
		{"lifo keeps oldest layers", model.ValuationLIFO, 6, "13.00"},
		{"average", model.ValuationAverage, 6, "15.00"},
		{"fifo beyond layers uses cost price", model.ValuationFIFO, 12, "27.00"},
		{"lifo beyond layers uses cost price", model.ValuationLIFO, 12, "27.00"},
		{"empty stock", model.ValuationFIFO, 0, "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertMoney(t, tt.want, valueStock(tt.method, tt.stock, cost, batches))
		})
	}

	t.Run("no layers", func(t *testing.T) {
		assertMoney(t, "4.00", valueStock(model.ValuationAverage, 4, cost, nil))
		assertMoney(t, "4.00", valueStock(model.ValuationFIFO, 4, cost, nil))
	})
}
