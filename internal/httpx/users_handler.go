package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/thejoaov/cadweb-api/internal/auth"
	"github.com/thejoaov/cadweb-api/internal/users"
)

type UserStore interface {
	Create(ctx context.Context, in users.CreateInput) (users.User, error)
	GetByID(ctx context.Context, id string) (users.User, error)
	List(ctx context.Context) ([]users.User, error)
	Table(ctx context.Context, pageIndex, pageSize int) ([]users.User, int, error)
	Delete(ctx context.Context, id string) error
}

type UsersHandler struct {
	Store UserStore
}

func (h *UsersHandler) Register(r chi.Router) {
	r.Get("/users", h.list)
	r.Get("/users/table", h.table)
	r.Get("/users/me", h.me)
	r.Post("/signup", h.signup)
	r.Delete("/users/{id}", h.delete)
}

type signupReq struct {
	Name  string  `json:"name"`
	Email string  `json:"email"`
	Image *string `json:"image,omitempty"`
}

// signup registers the profile row for the identity the auth provider just
// issued; the middleware has already verified the session, so the provider's
// user id comes from the context.
func (h *UsersHandler) signup(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.UserFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req signupReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if len(req.Name) < 2 {
		writeError(w, http.StatusBadRequest, "name is too short")
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		writeError(w, http.StatusBadRequest, "invalid email")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	created, err := h.Store.Create(ctx, users.CreateInput{
		ID:    u.ID,
		Name:  req.Name,
		Email: req.Email,
		Image: req.Image,
	})
	if errors.Is(err, users.ErrAlreadyExists) {
		writeError(w, http.StatusConflict, "user already exists")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *UsersHandler) me(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.UserFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	profile, err := h.Store.GetByID(ctx, u.ID)
	if errors.Is(err, users.ErrNotFound) {
		// Authenticated but not yet signed up; return the provider identity.
		writeJSON(w, http.StatusOK, u)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *UsersHandler) list(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	out, err := h.Store.List(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *UsersHandler) table(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	pageIndex := queryInt(r, "page_index", 0)
	pageSize := queryInt(r, "page_size", 10)
	rows, count, err := h.Store.Table(ctx, pageIndex, pageSize)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, tableResponse[users.User]{
		Rows:      rows,
		PageCount: pageCount(count, pageSize),
		RowCount:  count,
	})
}

func (h *UsersHandler) delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if uuid.Validate(id) != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Store.Delete(ctx, id); err != nil {
		if errors.Is(err, users.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
