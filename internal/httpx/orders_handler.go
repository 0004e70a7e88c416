package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/thejoaov/cadweb-api/internal/auth"
	"github.com/thejoaov/cadweb-api/internal/events"
	kafkax "github.com/thejoaov/cadweb-api/internal/kafka"
	"github.com/thejoaov/cadweb-api/internal/orders"
	"github.com/thejoaov/cadweb-api/internal/redisx"
)

type OrderStore interface {
	Create(ctx context.Context, in orders.CreateInput) (orders.Order, error)
	GetByID(ctx context.Context, id string) (orders.Order, error)
	List(ctx context.Context, p orders.ListParams) ([]orders.Order, error)
	Table(ctx context.Context, pageIndex, pageSize int) ([]orders.Order, int, error)
	Update(ctx context.Context, id string, patch orders.UpdatePatch) (orders.Status, error)
	AdvanceStatus(ctx context.Context, id string) (orders.Order, orders.Status, error)
	Delete(ctx context.Context, id string) error
}

type OrdersHandler struct {
	Store         OrderStore
	CreatedEvents EventPublisher
	StatusEvents  EventPublisher
	Redis         *redis.Client
	Service       string
}

func (h *OrdersHandler) Register(r chi.Router) {
	r.Get("/orders", h.list)
	r.Get("/orders/table", h.table)
	r.Get("/orders/{id}", h.getByID)
	r.Post("/orders", h.create)
	r.Patch("/orders/{id}", h.update)
	r.Post("/orders/{id}/advance", h.advance)
	r.Delete("/orders/{id}", h.delete)
}

type createOrderReq struct {
	Items []orders.ItemInput `json:"items"`
}

func (h *OrdersHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if len(req.Items) == 0 {
		writeError(w, http.StatusBadRequest, "order needs at least one item")
		return
	}
	for _, it := range req.Items {
		if uuid.Validate(it.ProductID) != nil {
			writeError(w, http.StatusBadRequest, "invalid product id: "+it.ProductID)
			return
		}
		if it.Quantity < 1 {
			writeError(w, http.StatusBadRequest, "quantity must be positive")
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	in := orders.CreateInput{Items: req.Items}
	if u, ok := auth.UserFrom(ctx); ok {
		in.UserID = u.ID
	}

	o, err := h.Store.Create(ctx, in)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.cacheStatus(ctx, o.ID, o.Status)

	if h.CreatedEvents != nil {
		items := make([]events.OrderItemQty, 0, len(o.Items))
		for _, it := range o.Items {
			items = append(items, events.OrderItemQty{ProductID: it.ProductID, Quantity: it.Quantity})
		}
		ev := events.New(events.TypeOrderCreated, h.Service, r.Header.Get("X-Request-Id"), o.ID,
			kafkax.MustMarshal(events.OrderCreatedPayload{
				OrderID:    o.ID,
				UserID:     in.UserID,
				Items:      items,
				TotalCents: o.TotalCents,
			}))
		h.CreatedEvents.Publish(events.PartitionKey(o.ID), kafkax.MustMarshal(ev),
			eventHeaders(events.TypeOrderCreated)...)
	}

	writeJSON(w, http.StatusCreated, o)
}

func (h *OrdersHandler) getByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if uuid.Validate(id) != nil {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	o, err := h.Store.GetByID(ctx, id)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) list(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	p := orders.ListParams{
		Page:    queryInt(r, "page", 1),
		PerPage: queryInt(r, "per_page", 10),
		OrderBy: r.URL.Query().Get("order_by"),
		Order:   r.URL.Query().Get("order"),
	}
	out, err := h.Store.List(ctx, p)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *OrdersHandler) table(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	pageIndex := queryInt(r, "page_index", 0)
	pageSize := queryInt(r, "page_size", 10)
	rows, count, err := h.Store.Table(ctx, pageIndex, pageSize)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, tableResponse[orders.Order]{
		Rows:      rows,
		PageCount: pageCount(count, pageSize),
		RowCount:  count,
	})
}

type updateOrderReq struct {
	Status *orders.Status     `json:"status,omitempty"`
	Items  []orders.ItemInput `json:"items,omitempty"`
}

func (h *OrdersHandler) update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if uuid.Validate(id) != nil {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}
	var req updateOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Status != nil && !orders.Valid(*req.Status) {
		writeError(w, http.StatusBadRequest, "unknown status: "+string(*req.Status))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	patch := orders.UpdatePatch{Status: req.Status, Items: req.Items}
	if u, ok := auth.UserFrom(ctx); ok {
		patch.ModifiedByID = &u.ID
	}

	prev, err := h.Store.Update(ctx, id, patch)
	if err != nil {
		h.fail(w, err)
		return
	}

	if req.Status != nil && *req.Status != prev {
		h.cacheStatus(ctx, id, *req.Status)
		h.publishStatus(r, id, prev, *req.Status)
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *OrdersHandler) advance(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if uuid.Validate(id) != nil {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, prev, err := h.Store.AdvanceStatus(ctx, id)
	if err != nil {
		h.fail(w, err)
		return
	}

	h.cacheStatus(ctx, o.ID, o.Status)
	h.publishStatus(r, o.ID, prev, o.Status)

	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if uuid.Validate(id) != nil {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Store.Delete(ctx, id); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *OrdersHandler) publishStatus(r *http.Request, orderID string, from, to orders.Status) {
	if h.StatusEvents == nil {
		return
	}
	ev := events.New(events.TypeOrderStatusChanged, h.Service, r.Header.Get("X-Request-Id"), orderID,
		kafkax.MustMarshal(events.OrderStatusChangedPayload{
			OrderID: orderID,
			From:    string(from),
			To:      string(to),
		}))
	h.StatusEvents.Publish(events.PartitionKey(orderID), kafkax.MustMarshal(ev),
		eventHeaders(events.TypeOrderStatusChanged)...)
}

func (h *OrdersHandler) cacheStatus(ctx context.Context, orderID string, s orders.Status) {
	if h.Redis == nil {
		return
	}
	key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
	_ = h.Redis.Set(ctx, key, `{"status":"`+string(s)+`"}`, redisx.TTLStatusCache).Err()
}

func (h *OrdersHandler) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, orders.ErrNotFound):
		writeError(w, http.StatusNotFound, "order not found")
	case errors.Is(err, orders.ErrOrderClosed):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
