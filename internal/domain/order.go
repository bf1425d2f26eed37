package domain

import (
	"errors"
	"fmt"
	"sort"
)

// ErrInvalidOrderLine indicates a requested line with a missing product id or
// non-positive quantity.
var ErrInvalidOrderLine = errors.New("order: invalid line")

// MergeOrderLines aggregates requested lines by product id, summing the
// quantities of duplicate entries. Merging happens before any stock check so a
// caller cannot split one product across several lines to slip past a
// per-line validation. The result is ordered by product id for determinism.
func MergeOrderLines(lines []OrderLine) ([]OrderLine, error) {
	merged := make(map[string]int, len(lines))
	for _, line := range lines {
		if line.ProductID == "" {
			return nil, fmt.Errorf("%w: product id is required", ErrInvalidOrderLine)
		}
		if line.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity for %s must be positive", ErrInvalidOrderLine, line.ProductID)
		}
		merged[line.ProductID] += line.Quantity
	}

	result := make([]OrderLine, 0, len(merged))
	for id, qty := range merged {
		result = append(result, OrderLine{ProductID: id, Quantity: qty})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ProductID < result[j].ProductID })
	return result, nil
}

// OrderTotal sums the detail subtotals in minor units.
func OrderTotal(details []OrderDetail) int64 {
	var total int64
	for _, d := range details {
		total += d.Subtotal
	}
	return total
}
