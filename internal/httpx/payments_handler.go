package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/thejoaov/cadweb-api/internal/events"
	kafkax "github.com/thejoaov/cadweb-api/internal/kafka"
	"github.com/thejoaov/cadweb-api/internal/payments"
)

type PaymentStore interface {
	Create(ctx context.Context, in payments.CreateInput) (payments.Payment, error)
	TotalPaidCents(ctx context.Context, orderID string) (int64, error)
}

type PaymentsHandler struct {
	Store   PaymentStore
	Events  EventPublisher
	Service string
}

func (h *PaymentsHandler) Register(r chi.Router) {
	r.Post("/payments", h.create)
}

type createPaymentResp struct {
	payments.Payment
	TotalPaidCents int64 `json:"total_paid_cents"`
}

func (h *PaymentsHandler) create(w http.ResponseWriter, r *http.Request) {
	var req payments.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if uuid.Validate(req.OrderID) != nil {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}
	if req.AmountCents <= 0 {
		writeError(w, http.StatusBadRequest, "amount must be positive")
		return
	}
	if !payments.ValidMethod(req.Method) {
		writeError(w, http.StatusBadRequest, "unknown payment method: "+req.Method)
		return
	}
	if req.PaymentDate.IsZero() {
		req.PaymentDate = time.Now().UTC()
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	p, err := h.Store.Create(ctx, req)
	if err != nil {
		if errors.Is(err, payments.ErrOrderNotFound) {
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	total, err := h.Store.TotalPaidCents(ctx, p.OrderID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if h.Events != nil {
		ev := events.New(events.TypePaymentReceived, h.Service, r.Header.Get("X-Request-Id"), p.OrderID,
			kafkax.MustMarshal(events.PaymentReceivedPayload{
				OrderID:     p.OrderID,
				AmountCents: p.AmountCents,
				Method:      p.Method,
			}))
		h.Events.Publish(events.PartitionKey(p.OrderID), kafkax.MustMarshal(ev),
			eventHeaders(events.TypePaymentReceived)...)
	}

	writeJSON(w, http.StatusCreated, createPaymentResp{Payment: p, TotalPaidCents: total})
}
