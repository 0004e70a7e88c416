package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshot() []ItemSnapshot {
	return []ItemSnapshot{
		{ProductID: "prod-a", StockID: "stock-a", Quantity: 3},
		{ProductID: "prod-b", StockID: "stock-b", Quantity: 1},
	}
}

func apply(stock map[string]int, deltas []StockDelta) {
	for _, d := range deltas {
		stock[d.StockID] += d.Delta
	}
}

func TestPlanAdvanceFromNewLeavesStockAlone(t *testing.T) {
	next, deltas, err := PlanAdvance(StatusNew, snapshot())
	require.NoError(t, err)
	assert.Equal(t, StatusWaitingPayment, next)
	assert.Empty(t, deltas)
}

func TestPlanAdvanceIntoCompletedDecrementsStock(t *testing.T) {
	stock := map[string]int{"stock-a": 10, "stock-b": 5}

	next, deltas, err := PlanAdvance(StatusInProgress, snapshot())
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, next)

	apply(stock, deltas)
	assert.Equal(t, 7, stock["stock-a"])
	assert.Equal(t, 4, stock["stock-b"])
}

func TestPlanAdvanceRejectsClosedOrders(t *testing.T) {
	for _, s := range []Status{StatusCompleted, StatusCancelled} {
		_, _, err := PlanAdvance(s, snapshot())
		assert.ErrorIs(t, err, ErrOrderClosed, "status %s", s)
	}
}

func TestPlanStatusSetCancelledRestoresStock(t *testing.T) {
	stock := map[string]int{"stock-a": 7, "stock-b": 4}

	apply(stock, PlanStatusSet(StatusCancelled, snapshot()))
	assert.Equal(t, 10, stock["stock-a"])
	assert.Equal(t, 5, stock["stock-b"])
}

// Writing completed directly must decrement the same way advance does.
func TestPlanStatusSetCompletedDecrementsStock(t *testing.T) {
	stock := map[string]int{"stock-a": 10, "stock-b": 5}

	apply(stock, PlanStatusSet(StatusCompleted, snapshot()))
	assert.Equal(t, 7, stock["stock-a"])
	assert.Equal(t, 4, stock["stock-b"])
}

func TestPlanStatusSetPlainWritesCarryNoDeltas(t *testing.T) {
	for _, s := range []Status{StatusNew, StatusWaitingPayment, StatusInProgress} {
		assert.Empty(t, PlanStatusSet(s, snapshot()), "status %s", s)
	}
}

// Full lifecycle: advance three times from new; only the last step moves
// stock, and each counter drops by exactly the item quantity.
func TestFullLifecycleStockScenario(t *testing.T) {
	stock := map[string]int{"stock-a": 10, "stock-b": 5}
	s := StatusNew

	for _, want := range []Status{StatusWaitingPayment, StatusInProgress, StatusCompleted} {
		next, deltas, err := PlanAdvance(s, snapshot())
		require.NoError(t, err)
		assert.Equal(t, want, next)
		if want != StatusCompleted {
			assert.Empty(t, deltas)
		}
		apply(stock, deltas)
		s = next
	}

	assert.Equal(t, 7, stock["stock-a"])
	assert.Equal(t, 4, stock["stock-b"])
}

func TestTotalCents(t *testing.T) {
	prices := map[string]int64{"prod-a": 1000, "prod-b": 550}

	total, err := TotalCents([]ItemInput{
		{ProductID: "prod-a", Quantity: 2},
		{ProductID: "prod-b", Quantity: 1},
	}, prices)
	require.NoError(t, err)
	assert.Equal(t, int64(2550), total)
}

func TestTotalCentsRejectsUnknownProduct(t *testing.T) {
	_, err := TotalCents([]ItemInput{{ProductID: "missing", Quantity: 1}}, map[string]int64{})
	assert.ErrorContains(t, err, "product not found")
}

func TestTotalCentsRejectsNonPositiveQuantity(t *testing.T) {
	prices := map[string]int64{"prod-a": 1000}
	for _, qty := range []int{0, -1} {
		_, err := TotalCents([]ItemInput{{ProductID: "prod-a", Quantity: qty}}, prices)
		assert.ErrorContains(t, err, "invalid quantity", "qty %d", qty)
	}
}
