package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/thejoaov/cadweb-api/internal/auth"
	"github.com/thejoaov/cadweb-api/internal/products"
)

// maxStockQuantity mirrors the form-level cap of the back-office.
const maxStockQuantity = 1_000_000

type ProductStore interface {
	Create(ctx context.Context, in products.CreateInput) (products.Product, error)
	GetByID(ctx context.Context, id string) (products.Product, error)
	List(ctx context.Context, p products.ListParams) ([]products.Product, error)
	Table(ctx context.Context, pageIndex, pageSize int) ([]products.Product, int, error)
	Update(ctx context.Context, id string, patch products.UpdatePatch) (products.Product, error)
	SetStock(ctx context.Context, stockID string, quantity int) error
	Delete(ctx context.Context, id string) error
}

type ProductsHandler struct {
	Store ProductStore
}

func (h *ProductsHandler) Register(r chi.Router) {
	r.Get("/products", h.list)
	r.Get("/products/table", h.table)
	r.Post("/products", h.create)
	r.Patch("/products/{id}", h.update)
	r.Put("/products/stock", h.setStock)
	r.Delete("/products/{id}", h.delete)
}

// RegisterPublic mounts the endpoints that do not require a session; product
// detail is readable from the storefront.
func (h *ProductsHandler) RegisterPublic(r chi.Router) {
	r.Get("/products/{id}", h.getByID)
}

type createProductReq struct {
	Name        string  `json:"name"`
	PriceCents  int64   `json:"price_cents"`
	ImageBase64 *string `json:"image_base64,omitempty"`
	Quantity    int     `json:"quantity"`
}

func (h *ProductsHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createProductReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.PriceCents <= 0 {
		writeError(w, http.StatusBadRequest, "price must be positive")
		return
	}
	if req.Quantity < 0 || req.Quantity > maxStockQuantity {
		writeError(w, http.StatusBadRequest, "quantity out of range")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	in := products.CreateInput{
		Name:        req.Name,
		PriceCents:  req.PriceCents,
		ImageBase64: req.ImageBase64,
		Quantity:    req.Quantity,
	}
	if u, ok := auth.UserFrom(ctx); ok {
		in.CreatedByID = u.ID
	}

	p, err := h.Store.Create(ctx, in)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *ProductsHandler) getByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if uuid.Validate(id) != nil {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	p, err := h.Store.GetByID(ctx, id)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *ProductsHandler) list(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	out, err := h.Store.List(ctx, products.ListParams{
		Page:    queryInt(r, "page", 1),
		PerPage: queryInt(r, "per_page", 10),
		OrderBy: r.URL.Query().Get("order_by"),
		Order:   r.URL.Query().Get("order"),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *ProductsHandler) table(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	pageIndex := queryInt(r, "page_index", 0)
	pageSize := queryInt(r, "page_size", 10)
	rows, count, err := h.Store.Table(ctx, pageIndex, pageSize)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, tableResponse[products.Product]{
		Rows:      rows,
		PageCount: pageCount(count, pageSize),
		RowCount:  count,
	})
}

type updateProductReq struct {
	Name        *string `json:"name,omitempty"`
	PriceCents  *int64  `json:"price_cents,omitempty"`
	ImageBase64 *string `json:"image_base64,omitempty"`
	Quantity    *int    `json:"quantity,omitempty"`
}

func (h *ProductsHandler) update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if uuid.Validate(id) != nil {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	var req updateProductReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Name != nil && *req.Name == "" {
		writeError(w, http.StatusBadRequest, "name cannot be empty")
		return
	}
	if req.PriceCents != nil && *req.PriceCents <= 0 {
		writeError(w, http.StatusBadRequest, "price must be positive")
		return
	}
	if req.Quantity != nil && (*req.Quantity < 0 || *req.Quantity > maxStockQuantity) {
		writeError(w, http.StatusBadRequest, "quantity out of range")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	patch := products.UpdatePatch{
		Name:        req.Name,
		PriceCents:  req.PriceCents,
		ImageBase64: req.ImageBase64,
		Quantity:    req.Quantity,
	}
	if u, ok := auth.UserFrom(ctx); ok {
		patch.ModifiedByID = &u.ID
	}

	p, err := h.Store.Update(ctx, id, patch)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type setStockReq struct {
	StockID  string `json:"stock_id"`
	Quantity int    `json:"quantity"`
}

func (h *ProductsHandler) setStock(w http.ResponseWriter, r *http.Request) {
	var req setStockReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if uuid.Validate(req.StockID) != nil {
		writeError(w, http.StatusBadRequest, "invalid stock id")
		return
	}
	if req.Quantity < 0 || req.Quantity > maxStockQuantity {
		writeError(w, http.StatusBadRequest, "quantity out of range")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Store.SetStock(ctx, req.StockID, req.Quantity); err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *ProductsHandler) delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if uuid.Validate(id) != nil {
		writeError(w, http.StatusBadRequest, "invalid product id")
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

func (h *ProductsHandler) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, products.ErrNotFound):
		writeError(w, http.StatusNotFound, "product not found")
	case errors.Is(err, products.ErrStockNotFound):
		writeError(w, http.StatusNotFound, "stock not found")
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
