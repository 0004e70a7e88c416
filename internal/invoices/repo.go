package invoices

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Invoice struct {
	ID         string    `json:"id"`
	OrderID    string    `json:"order_id"`
	Number     string    `json:"number"`
	TotalCents int64     `json:"total_cents"`
	IssuedAt   time.Time `json:"issued_at"`
}

// Number derives a stable invoice number from the order id, so re-processing
// the same completion event can never mint a second number.
func Number(orderID string) string {
	return "NF-" + strings.ToUpper(strings.ReplaceAll(orderID, "-", ""))[:11]
}

type Repo struct{ DB *pgxpool.Pool }

// CreateForOrder issues the invoice for a completed order. Idempotent on
// order id: the second call reports created=false and returns the existing
// row.
func (r *Repo) CreateForOrder(ctx context.Context, orderID string) (Invoice, bool, error) {
	var total int64
	err := r.DB.QueryRow(ctx, `SELECT total_cents FROM orders WHERE id = $1`, orderID).Scan(&total)
	if errors.Is(err, pgx.ErrNoRows) {
		return Invoice{}, false, errors.New("order not found: " + orderID)
	}
	if err != nil {
		return Invoice{}, false, err
	}

	inv := Invoice{
		ID:         uuid.NewString(),
		OrderID:    orderID,
		Number:     Number(orderID),
		TotalCents: total,
	}
	err = r.DB.QueryRow(ctx, `
		INSERT INTO invoices(id, order_id, number, total_cents)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (order_id) DO NOTHING
		RETURNING issued_at`,
		inv.ID, inv.OrderID, inv.Number, inv.TotalCents,
	).Scan(&inv.IssuedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		// Conflict: the invoice already exists.
		existing, err := r.GetByOrderID(ctx, orderID)
		return existing, false, err
	}
	if err != nil {
		return Invoice{}, false, err
	}
	return inv, true, nil
}

func (r *Repo) GetByOrderID(ctx context.Context, orderID string) (Invoice, error) {
	var inv Invoice
	err := r.DB.QueryRow(ctx, `
		SELECT id, order_id, number, total_cents, issued_at
		FROM invoices WHERE order_id = $1`, orderID,
	).Scan(&inv.ID, &inv.OrderID, &inv.Number, &inv.TotalCents, &inv.IssuedAt)
	return inv, err
}
