package payments

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrOrderNotFound = errors.New("order not found")

const (
	MethodCash   = "cash"
	MethodCard   = "card"
	MethodDebit  = "debit"
	MethodPix    = "pix"
	MethodTicket = "ticket"
)

// ValidMethod reports whether m is one of the accepted payment methods.
func ValidMethod(m string) bool {
	switch m {
	case MethodCash, MethodCard, MethodDebit, MethodPix, MethodTicket:
		return true
	}
	return false
}

type Payment struct {
	ID          string    `json:"id"`
	OrderID     string    `json:"order_id"`
	AmountCents int64     `json:"amount_cents"`
	PaymentDate time.Time `json:"payment_date"`
	Method      string    `json:"payment_method"`
	CreatedAt   time.Time `json:"created_at"`
}

type CreateInput struct {
	OrderID     string    `json:"order_id"`
	AmountCents int64     `json:"amount_cents"`
	PaymentDate time.Time `json:"payment_date"`
	Method      string    `json:"payment_method"`
}

type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) Create(ctx context.Context, in CreateInput) (Payment, error) {
	var exists bool
	err := r.DB.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM orders WHERE id = $1)`, in.OrderID).Scan(&exists)
	if err != nil {
		return Payment{}, err
	}
	if !exists {
		return Payment{}, ErrOrderNotFound
	}

	p := Payment{
		ID:          uuid.NewString(),
		OrderID:     in.OrderID,
		AmountCents: in.AmountCents,
		PaymentDate: in.PaymentDate,
		Method:      in.Method,
	}
	err = r.DB.QueryRow(ctx, `
		INSERT INTO payments(id, order_id, amount_cents, payment_date, payment_method)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`,
		p.ID, p.OrderID, p.AmountCents, p.PaymentDate, p.Method,
	).Scan(&p.CreatedAt)
	if err != nil {
		return Payment{}, err
	}
	return p, nil
}

// TotalPaidCents sums every payment recorded against an order. The payment
// modal uses it to decide when the outstanding balance hits zero.
func (r *Repo) TotalPaidCents(ctx context.Context, orderID string) (int64, error) {
	var total int64
	err := r.DB.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount_cents), 0) FROM payments WHERE order_id = $1`,
		orderID).Scan(&total)
	return total, err
}
