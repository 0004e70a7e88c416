package products

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound      = errors.New("product not found")
	ErrStockNotFound = errors.New("stock row not found")
)

type Repo struct{ DB *pgxpool.Pool }

// Create inserts the stock counter and the product that owns it in one
// transaction.
func (r *Repo) Create(ctx context.Context, in CreateInput) (Product, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Product{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	st := Stock{ID: uuid.NewString(), Quantity: in.Quantity}
	if _, err := tx.Exec(ctx, `INSERT INTO stock(id, quantity) VALUES ($1, $2)`, st.ID, st.Quantity); err != nil {
		return Product{}, err
	}

	p := Product{
		ID:          uuid.NewString(),
		Name:        in.Name,
		PriceCents:  in.PriceCents,
		ImageBase64: in.ImageBase64,
		StockID:     st.ID,
		Stock:       &st,
	}
	if in.CreatedByID != "" {
		p.CreatedByID = &in.CreatedByID
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO products(id, name, price_cents, image_base64, created_by, stock_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`,
		p.ID, p.Name, p.PriceCents, p.ImageBase64, p.CreatedByID, p.StockID,
	).Scan(&p.CreatedAt)
	if err != nil {
		return Product{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Product{}, err
	}
	return p, nil
}

const productColumns = `
	p.id, p.name, p.price_cents, p.image_base64, p.created_by, p.stock_id,
	p.modified_by_id, p.created_at, p.updated_at, s.id, s.quantity`

func (r *Repo) GetByID(ctx context.Context, id string) (Product, error) {
	row := r.DB.QueryRow(ctx, `
		SELECT `+productColumns+`
		FROM products p JOIN stock s ON s.id = p.stock_id
		WHERE p.id = $1`, id)
	p, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	return p, err
}

var listSortable = map[string]string{
	"name":       "p.name",
	"price":      "p.price_cents",
	"created_at": "p.created_at",
	"updated_at": "p.updated_at",
}

func (r *Repo) List(ctx context.Context, params ListParams) ([]Product, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PerPage < 1 {
		params.PerPage = 10
	}
	col, ok := listSortable[params.OrderBy]
	if !ok {
		col = "p.name"
	}
	dir := "ASC"
	if params.Order == "desc" {
		dir = "DESC"
	}

	rows, err := r.DB.Query(ctx, fmt.Sprintf(`
		SELECT `+productColumns+`
		FROM products p JOIN stock s ON s.id = p.stock_id
		ORDER BY %s %s OFFSET $1 LIMIT $2`, col, dir),
		(params.Page-1)*params.PerPage, params.PerPage)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProducts(rows)
}

func (r *Repo) Table(ctx context.Context, pageIndex, pageSize int) ([]Product, int, error) {
	if pageSize < 1 {
		pageSize = 10
	}
	rows, err := r.DB.Query(ctx, `
		SELECT `+productColumns+`
		FROM products p JOIN stock s ON s.id = p.stock_id
		ORDER BY p.name ASC OFFSET $1 LIMIT $2`,
		pageIndex*pageSize, pageSize)
	if err != nil {
		return nil, 0, err
	}
	out, err := scanProducts(rows)
	rows.Close()
	if err != nil {
		return nil, 0, err
	}

	var count int
	if err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&count); err != nil {
		return nil, 0, err
	}
	return out, count, nil
}

// Update patches the product row and, when the patch carries a quantity,
// rewrites the stock counter, in one transaction.
func (r *Repo) Update(ctx context.Context, id string, patch UpdatePatch) (Product, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Product{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var stockID string
	err = tx.QueryRow(ctx, `
		UPDATE products SET
			name = COALESCE($2, name),
			price_cents = COALESCE($3, price_cents),
			image_base64 = COALESCE($4, image_base64),
			modified_by_id = COALESCE($5, modified_by_id),
			updated_at = now()
		WHERE id = $1
		RETURNING stock_id`,
		id, patch.Name, patch.PriceCents, patch.ImageBase64, patch.ModifiedByID,
	).Scan(&stockID)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	if err != nil {
		return Product{}, err
	}

	if patch.Quantity != nil {
		ct, err := tx.Exec(ctx, `UPDATE stock SET quantity = $2, updated_at = now() WHERE id = $1`,
			stockID, *patch.Quantity)
		if err != nil {
			return Product{}, err
		}
		if ct.RowsAffected() != 1 {
			return Product{}, ErrStockNotFound
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Product{}, err
	}
	return r.GetByID(ctx, id)
}

// SetStock rewrites a stock counter directly by its id.
func (r *Repo) SetStock(ctx context.Context, stockID string, quantity int) error {
	ct, err := r.DB.Exec(ctx, `UPDATE stock SET quantity = $2, updated_at = now() WHERE id = $1`,
		stockID, quantity)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrStockNotFound
	}
	return nil
}

func (r *Repo) Delete(ctx context.Context, id string) error {
	// The stock row goes with the product via ON DELETE CASCADE.
	ct, err := r.DB.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&n)
	return n, err
}

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	var st Stock
	err := row.Scan(&p.ID, &p.Name, &p.PriceCents, &p.ImageBase64, &p.CreatedByID,
		&p.StockID, &p.ModifiedByID, &p.CreatedAt, &p.UpdatedAt, &st.ID, &st.Quantity)
	if err != nil {
		return Product{}, err
	}
	p.Stock = &st
	return p, nil
}

func scanProducts(rows pgx.Rows) ([]Product, error) {
	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
