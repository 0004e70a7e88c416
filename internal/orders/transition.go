package orders

import "fmt"

// StockDelta is one pending adjustment to a stock row.
type StockDelta struct {
	StockID string
	Delta   int
}

// CompletionDeltas consumes stock: one decrement per line item.
func CompletionDeltas(items []ItemSnapshot) []StockDelta {
	out := make([]StockDelta, 0, len(items))
	for _, it := range items {
		out = append(out, StockDelta{StockID: it.StockID, Delta: -it.Quantity})
	}
	return out
}

// CancellationDeltas restores stock: one increment per line item.
func CancellationDeltas(items []ItemSnapshot) []StockDelta {
	out := make([]StockDelta, 0, len(items))
	for _, it := range items {
		out = append(out, StockDelta{StockID: it.StockID, Delta: it.Quantity})
	}
	return out
}

// PlanAdvance computes the next status for an order plus the stock
// adjustments that transition carries. Only the move into completed touches
// stock; every other forward step leaves it alone.
func PlanAdvance(current Status, items []ItemSnapshot) (Status, []StockDelta, error) {
	next, err := Next(current)
	if err != nil {
		return "", nil, err
	}
	if next == StatusCompleted {
		return next, CompletionDeltas(items), nil
	}
	return next, nil, nil
}

// PlanStatusSet computes the stock adjustments for an explicit status write
// through the update path. Cancellation restores stock, completion consumes
// it, anything else is a plain column write. Compensations are
// one-directional: un-cancelling or reversing a completion adjusts nothing.
func PlanStatusSet(to Status, items []ItemSnapshot) []StockDelta {
	switch to {
	case StatusCancelled:
		return CancellationDeltas(items)
	case StatusCompleted:
		return CompletionDeltas(items)
	}
	return nil
}

// TotalCents prices a set of line items against the given product prices.
// Every product must be priced and every quantity positive.
func TotalCents(items []ItemInput, priceCents map[string]int64) (int64, error) {
	var total int64
	for _, it := range items {
		price, ok := priceCents[it.ProductID]
		if !ok {
			return 0, fmt.Errorf("product not found: %s", it.ProductID)
		}
		if it.Quantity <= 0 {
			return 0, fmt.Errorf("invalid quantity for product %s", it.ProductID)
		}
		total += price * int64(it.Quantity)
	}
	return total, nil
}
