package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thejoaov/cadweb-api/internal/orders"
)

// memOrderStore drives the real transition planning against in-memory state.
type memOrderStore struct {
	mu     sync.Mutex
	orders map[string]orders.Order
	items  map[string][]orders.ItemSnapshot
	stock  map[string]int
	prices map[string]int64
}

func newMemOrderStore() *memOrderStore {
	return &memOrderStore{
		orders: map[string]orders.Order{},
		items:  map[string][]orders.ItemSnapshot{},
		stock:  map[string]int{},
		prices: map[string]int64{},
	}
}

func (s *memOrderStore) Create(_ context.Context, in orders.CreateInput) (orders.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	total, err := orders.TotalCents(in.Items, s.prices)
	if err != nil {
		return orders.Order{}, err
	}
	o := orders.Order{ID: uuid.NewString(), TotalCents: total, Status: orders.StatusNew}
	for _, it := range in.Items {
		o.Items = append(o.Items, orders.Item{
			ID: uuid.NewString(), OrderID: o.ID, ProductID: it.ProductID, Quantity: it.Quantity,
		})
	}
	s.orders[o.ID] = o
	return o, nil
}

func (s *memOrderStore) GetByID(_ context.Context, id string) (orders.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return orders.Order{}, orders.ErrNotFound
	}
	return o, nil
}

func (s *memOrderStore) List(_ context.Context, _ orders.ListParams) ([]orders.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]orders.Order, 0, len(s.orders))
	for _, o := range s.orders {
		out = append(out, o)
	}
	return out, nil
}

func (s *memOrderStore) Table(ctx context.Context, _, _ int) ([]orders.Order, int, error) {
	out, err := s.List(ctx, orders.ListParams{})
	return out, len(out), err
}

func (s *memOrderStore) Update(_ context.Context, id string, patch orders.UpdatePatch) (orders.Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return "", orders.ErrNotFound
	}
	prev := o.Status
	if patch.Status != nil && *patch.Status != o.Status {
		s.applyDeltas(orders.PlanStatusSet(*patch.Status, s.items[id]))
		o.Status = *patch.Status
	}
	s.orders[id] = o
	return prev, nil
}

func (s *memOrderStore) AdvanceStatus(_ context.Context, id string) (orders.Order, orders.Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return orders.Order{}, "", orders.ErrNotFound
	}
	next, deltas, err := orders.PlanAdvance(o.Status, s.items[id])
	if err != nil {
		return orders.Order{}, "", err
	}
	s.applyDeltas(deltas)
	prev := o.Status
	o.Status = next
	s.orders[id] = o
	return o, prev, nil
}

func (s *memOrderStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[id]; !ok {
		return orders.ErrNotFound
	}
	delete(s.orders, id)
	delete(s.items, id)
	return nil
}

func (s *memOrderStore) applyDeltas(deltas []orders.StockDelta) {
	for _, d := range deltas {
		s.stock[d.StockID] += d.Delta
	}
}

func newOrdersRig(store *memOrderStore) *chi.Mux {
	r := chi.NewRouter()
	h := &OrdersHandler{Store: store}
	h.Register(r)
	return r
}

func seedOrder(store *memOrderStore, status orders.Status) string {
	id := uuid.NewString()
	store.orders[id] = orders.Order{ID: id, Status: status, TotalCents: 3550}
	store.items[id] = []orders.ItemSnapshot{
		{ProductID: "prod-a", StockID: "stock-a", Quantity: 3},
		{ProductID: "prod-b", StockID: "stock-b", Quantity: 1},
	}
	store.stock["stock-a"] = 10
	store.stock["stock-b"] = 5
	return id
}

func doRequest(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAdvanceFromNewLeavesStockUnchanged(t *testing.T) {
	store := newMemOrderStore()
	id := seedOrder(store, orders.StatusNew)
	r := newOrdersRig(store)

	w := doRequest(t, r, http.MethodPost, "/orders/"+id+"/advance", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var got orders.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, orders.StatusWaitingPayment, got.Status)
	assert.Equal(t, 10, store.stock["stock-a"])
	assert.Equal(t, 5, store.stock["stock-b"])
}

func TestAdvanceThroughLifecycleDecrementsStockOnce(t *testing.T) {
	store := newMemOrderStore()
	id := seedOrder(store, orders.StatusNew)
	r := newOrdersRig(store)

	for _, want := range []orders.Status{orders.StatusWaitingPayment, orders.StatusInProgress, orders.StatusCompleted} {
		w := doRequest(t, r, http.MethodPost, "/orders/"+id+"/advance", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var got orders.Order
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, want, got.Status)
	}

	assert.Equal(t, 7, store.stock["stock-a"])
	assert.Equal(t, 4, store.stock["stock-b"])
}

func TestAdvanceClosedOrderConflicts(t *testing.T) {
	store := newMemOrderStore()
	r := newOrdersRig(store)

	for _, s := range []orders.Status{orders.StatusCompleted, orders.StatusCancelled} {
		id := seedOrder(store, s)
		w := doRequest(t, r, http.MethodPost, "/orders/"+id+"/advance", nil)
		assert.Equal(t, http.StatusConflict, w.Code, "status %s", s)
	}
}

func TestAdvanceUnknownOrderNotFound(t *testing.T) {
	r := newOrdersRig(newMemOrderStore())
	w := doRequest(t, r, http.MethodPost, "/orders/"+uuid.NewString()+"/advance", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCancelViaUpdateRestoresStock(t *testing.T) {
	store := newMemOrderStore()
	id := seedOrder(store, orders.StatusWaitingPayment)
	store.stock["stock-a"] = 7
	store.stock["stock-b"] = 4
	r := newOrdersRig(store)

	cancelled := orders.StatusCancelled
	w := doRequest(t, r, http.MethodPatch, "/orders/"+id, updateOrderReq{Status: &cancelled})
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, 10, store.stock["stock-a"])
	assert.Equal(t, 5, store.stock["stock-b"])
	assert.Equal(t, orders.StatusCancelled, store.orders[id].Status)
}

func TestCompleteViaUpdateDecrementsStock(t *testing.T) {
	store := newMemOrderStore()
	id := seedOrder(store, orders.StatusInProgress)
	r := newOrdersRig(store)

	completed := orders.StatusCompleted
	w := doRequest(t, r, http.MethodPatch, "/orders/"+id, updateOrderReq{Status: &completed})
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, 7, store.stock["stock-a"])
	assert.Equal(t, 4, store.stock["stock-b"])
	assert.Equal(t, orders.StatusCompleted, store.orders[id].Status)
}

// Repeating the same cancellation must not restore stock a second time.
func TestCancelTwiceRestoresStockExactlyOnce(t *testing.T) {
	store := newMemOrderStore()
	id := seedOrder(store, orders.StatusWaitingPayment)
	store.stock["stock-a"] = 7
	store.stock["stock-b"] = 4
	r := newOrdersRig(store)

	cancelled := orders.StatusCancelled
	for i := 0; i < 2; i++ {
		w := doRequest(t, r, http.MethodPatch, "/orders/"+id, updateOrderReq{Status: &cancelled})
		require.Equal(t, http.StatusOK, w.Code)
	}

	assert.Equal(t, 10, store.stock["stock-a"])
	assert.Equal(t, 5, store.stock["stock-b"])
}

func TestCreateComputesTotalFromProductPrices(t *testing.T) {
	store := newMemOrderStore()
	prodA, prodB := uuid.NewString(), uuid.NewString()
	store.prices[prodA] = 1000
	store.prices[prodB] = 550
	r := newOrdersRig(store)

	w := doRequest(t, r, http.MethodPost, "/orders", createOrderReq{Items: []orders.ItemInput{
		{ProductID: prodA, Quantity: 2},
		{ProductID: prodB, Quantity: 1},
	}})
	require.Equal(t, http.StatusCreated, w.Code)

	var got orders.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, int64(2550), got.TotalCents)
	assert.Equal(t, orders.StatusNew, got.Status)
}

func TestCreateRejectsBadInput(t *testing.T) {
	r := newOrdersRig(newMemOrderStore())

	w := doRequest(t, r, http.MethodPost, "/orders", createOrderReq{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(t, r, http.MethodPost, "/orders", createOrderReq{Items: []orders.ItemInput{
		{ProductID: "not-a-uuid", Quantity: 1},
	}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(t, r, http.MethodPost, "/orders", createOrderReq{Items: []orders.ItemInput{
		{ProductID: uuid.NewString(), Quantity: 0},
	}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetByIDIsReadIdempotent(t *testing.T) {
	store := newMemOrderStore()
	id := seedOrder(store, orders.StatusInProgress)
	r := newOrdersRig(store)

	first := doRequest(t, r, http.MethodGet, "/orders/"+id, nil)
	second := doRequest(t, r, http.MethodGet, "/orders/"+id, nil)
	require.Equal(t, http.StatusOK, first.Code)
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
}

func TestDeleteOrder(t *testing.T) {
	store := newMemOrderStore()
	id := seedOrder(store, orders.StatusNew)
	r := newOrdersRig(store)

	w := doRequest(t, r, http.MethodDelete, "/orders/"+id, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doRequest(t, r, http.MethodDelete, "/orders/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
