package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"
	"unicode"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/thejoaov/cadweb-api/internal/pix"
)

type PixStore interface {
	Simulate(ctx context.Context, in pix.SimulateInput) (pix.Transaction, error)
	GetByTransactionID(ctx context.Context, transactionID string) (pix.Transaction, error)
	DeleteByTransactionID(ctx context.Context, transactionID string) error
}

type PixHandler struct {
	Store PixStore
}

// RegisterPublic mounts the payer-side endpoint: the simulated payment page
// is reached through a shared link, outside any back-office session.
func (h *PixHandler) RegisterPublic(r chi.Router) {
	r.Post("/pix/simulate", h.simulate)
}

func (h *PixHandler) Register(r chi.Router) {
	r.Get("/pix/{transactionID}", h.getByTransactionID)
	r.Delete("/pix/{transactionID}", h.deleteByTransactionID)
}

func (h *PixHandler) simulate(w http.ResponseWriter, r *http.Request) {
	var req pix.SimulateInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if uuid.Validate(req.TransactionID) != nil {
		writeError(w, http.StatusBadRequest, "invalid transaction id")
		return
	}
	req.CPF = digitsOnly(req.CPF)
	if len(req.CPF) != 11 {
		writeError(w, http.StatusBadRequest, "invalid cpf")
		return
	}
	if req.AmountCents <= 0 {
		writeError(w, http.StatusBadRequest, "amount must be positive")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	t, err := h.Store.Simulate(ctx, req)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

// getByTransactionID answers the back-office poll: 404 until the simulated
// payment lands, then the transaction row.
func (h *PixHandler) getByTransactionID(w http.ResponseWriter, r *http.Request) {
	txID := chi.URLParam(r, "transactionID")
	if uuid.Validate(txID) != nil {
		writeError(w, http.StatusBadRequest, "invalid transaction id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	t, err := h.Store.GetByTransactionID(ctx, txID)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *PixHandler) deleteByTransactionID(w http.ResponseWriter, r *http.Request) {
	txID := chi.URLParam(r, "transactionID")
	if uuid.Validate(txID) != nil {
		writeError(w, http.StatusBadRequest, "invalid transaction id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Store.DeleteByTransactionID(ctx, txID); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PixHandler) fail(w http.ResponseWriter, err error) {
	if errors.Is(err, pix.ErrNotFound) {
		writeError(w, http.StatusNotFound, "pix transaction not found")
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}

func digitsOnly(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if unicode.IsDigit(r) {
			out = append(out, r)
		}
	}
	return string(out)
}
