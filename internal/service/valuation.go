package service

import (
	"sort"

	"github.com/shopspring/decimal"

	"go-retail-ws/internal/model"
)

// valueStock returns the carrying value of stock units. Batches with
// quantity left are the cost layers. FIFO assumes the oldest layers were
// consumed first, so the units on hand sit in the newest layers; LIFO is the
// reverse. AVERAGE uses the quantity-weighted mean layer cost. Units not
// covered by any layer are valued at costPrice.
func valueStock(method model.ValuationMethod, stock int, costPrice decimal.Decimal, batches []model.InventoryBatch) decimal.Decimal {
	if stock <= 0 {
		return decimal.Zero
	}

	layers := make([]model.InventoryBatch, 0, len(batches))
	for _, b := range batches {
		if b.Quantity > 0 {
			layers = append(layers, b)
		}
	}
	sort.SliceStable(layers, func(i, j int) bool {
		if layers[i].ReceivedDate.Equal(layers[j].ReceivedDate) {
			return layers[i].CreatedAt.Before(layers[j].CreatedAt)
		}
		return layers[i].ReceivedDate.Before(layers[j].ReceivedDate)
	})

	if method == model.ValuationAverage {
		units := 0
		cost := decimal.Zero
		for _, b := range layers {
			units += b.Quantity
			cost = cost.Add(b.CostPerUnit.Mul(decimal.NewFromInt(int64(b.Quantity))))
		}
		if units == 0 {
			return costPrice.Mul(decimal.NewFromInt(int64(stock)))
		}
		return cost.Div(decimal.NewFromInt(int64(units))).Mul(decimal.NewFromInt(int64(stock))).Round(2)
	}

	if method != model.ValuationLIFO {
		// FIFO walks newest to oldest.
		for i, j := 0, len(layers)-1; i < j; i, j = i+1, j-1 {
			layers[i], layers[j] = layers[j], layers[i]
		}
	}

	remaining := stock
	value := decimal.Zero
	for _, b := range layers {
		if remaining == 0 {
			break
		}
		take := min(remaining, b.Quantity)
		value = value.Add(b.CostPerUnit.Mul(decimal.NewFromInt(int64(take))))
		remaining -= take
	}
	if remaining > 0 {
		value = value.Add(costPrice.Mul(decimal.NewFromInt(int64(remaining))))
	}
	return value
}
