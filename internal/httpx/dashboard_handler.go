package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// Counter is any store that can report its row count.
type Counter interface {
	Count(ctx context.Context) (int, error)
}

type DashboardHandler struct {
	Users    Counter
	Products Counter
	Orders   Counter
}

func (h *DashboardHandler) Register(r chi.Router) {
	r.Get("/dashboard/status", h.status)
}

func (h *DashboardHandler) status(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	usersCount, err := h.Users.Count(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	productsCount, err := h.Products.Count(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	ordersCount, err := h.Orders.Count(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{
		"users_count":    usersCount,
		"products_count": productsCount,
		"orders_count":   ordersCount,
	})
}
