// Package pix stores simulated PIX transactions. The standalone payer page
// writes a row; the back-office polls for it by transaction id until it
// lands. No real payment rail is involved.
package pix

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("pix transaction not found")

type Transaction struct {
	ID            string    `json:"id"`
	TransactionID string    `json:"transaction_id"`
	CPF           string    `json:"cpf"`
	AmountCents   int64     `json:"amount_cents"`
	CreatedAt     time.Time `json:"created_at"`
}

type SimulateInput struct {
	TransactionID string `json:"transaction_id"`
	CPF           string `json:"cpf"`
	AmountCents   int64  `json:"amount_cents"`
}

type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) Simulate(ctx context.Context, in SimulateInput) (Transaction, error) {
	t := Transaction{
		ID:            uuid.NewString(),
		TransactionID: in.TransactionID,
		CPF:           in.CPF,
		AmountCents:   in.AmountCents,
	}
	err := r.DB.QueryRow(ctx, `
		INSERT INTO pix_transactions(id, transaction_id, cpf, amount_cents)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`,
		t.ID, t.TransactionID, t.CPF, t.AmountCents,
	).Scan(&t.CreatedAt)
	if err != nil {
		return Transaction{}, err
	}
	return t, nil
}

func (r *Repo) GetByTransactionID(ctx context.Context, transactionID string) (Transaction, error) {
	var t Transaction
	err := r.DB.QueryRow(ctx, `
		SELECT id, transaction_id, cpf, amount_cents, created_at
		FROM pix_transactions WHERE transaction_id = $1`, transactionID,
	).Scan(&t.ID, &t.TransactionID, &t.CPF, &t.AmountCents, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Transaction{}, ErrNotFound
	}
	if err != nil {
		return Transaction{}, err
	}
	return t, nil
}

func (r *Repo) DeleteByTransactionID(ctx context.Context, transactionID string) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM pix_transactions WHERE transaction_id = $1`, transactionID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
