package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("order not found")

type Repo struct{ DB *pgxpool.Pool }

// Create inserts the order row plus its line items in one transaction. The
// total is computed from the products table, never from client input. Stock
// is not touched at creation; it only moves on completion or cancellation.
func (r *Repo) Create(ctx context.Context, in CreateInput) (Order, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Order{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	prices, err := productPrices(ctx, tx, in.Items)
	if err != nil {
		return Order{}, err
	}
	total, err := TotalCents(in.Items, prices)
	if err != nil {
		return Order{}, err
	}

	o := Order{
		ID:         uuid.NewString(),
		TotalCents: total,
		Status:     StatusNew,
	}
	if in.UserID != "" {
		o.UserID = &in.UserID
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO orders(id, total_cents, status, user_id)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`,
		o.ID, o.TotalCents, o.Status, o.UserID,
	).Scan(&o.CreatedAt)
	if err != nil {
		return Order{}, err
	}

	for _, it := range in.Items {
		item := Item{
			ID:        uuid.NewString(),
			OrderID:   o.ID,
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO order_items(id, order_id, product_id, quantity)
			VALUES ($1, $2, $3, $4)`,
			item.ID, item.OrderID, item.ProductID, item.Quantity,
		); err != nil {
			return Order{}, err
		}
		o.Items = append(o.Items, item)
	}

	if err := tx.Commit(ctx); err != nil {
		return Order{}, err
	}
	return o, nil
}

func (r *Repo) GetByID(ctx context.Context, id string) (Order, error) {
	var o Order
	err := r.DB.QueryRow(ctx, `
		SELECT id, total_cents, status, user_id, modified_by_id, created_at, updated_at
		FROM orders WHERE id = $1`, id,
	).Scan(&o.ID, &o.TotalCents, &o.Status, &o.UserID, &o.ModifiedByID, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	if err != nil {
		return Order{}, err
	}

	items, err := r.loadItems(ctx, []string{o.ID})
	if err != nil {
		return Order{}, err
	}
	o.Items = items[o.ID]
	return o, nil
}

// listSortable whitelists client-supplied sort columns.
var listSortable = map[string]string{
	"total":      "total_cents",
	"status":     "status",
	"created_at": "created_at",
}

func (r *Repo) List(ctx context.Context, p ListParams) ([]Order, error) {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PerPage < 1 {
		p.PerPage = 10
	}
	col, ok := listSortable[p.OrderBy]
	if !ok {
		col = "created_at"
	}
	dir := "DESC"
	if p.Order == "asc" {
		dir = "ASC"
	}

	rows, err := r.DB.Query(ctx, fmt.Sprintf(`
		SELECT id, total_cents, status, user_id, modified_by_id, created_at, updated_at
		FROM orders ORDER BY %s %s OFFSET $1 LIMIT $2`, col, dir),
		(p.Page-1)*p.PerPage, p.PerPage)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOrders(rows)
}

// Table returns one dashboard-table page plus the total row count.
func (r *Repo) Table(ctx context.Context, pageIndex, pageSize int) ([]Order, int, error) {
	if pageSize < 1 {
		pageSize = 10
	}
	rows, err := r.DB.Query(ctx, `
		SELECT id, total_cents, status, user_id, modified_by_id, created_at, updated_at
		FROM orders ORDER BY created_at DESC OFFSET $1 LIMIT $2`,
		pageIndex*pageSize, pageSize)
	if err != nil {
		return nil, 0, err
	}
	out, err := scanOrders(rows)
	rows.Close()
	if err != nil {
		return nil, 0, err
	}

	ids := make([]string, 0, len(out))
	for _, o := range out {
		ids = append(ids, o.ID)
	}
	items, err := r.loadItems(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	for i := range out {
		out[i].Items = items[out[i].ID]
	}

	var count int
	if err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM orders`).Scan(&count); err != nil {
		return nil, 0, err
	}
	return out, count, nil
}

// Update applies a partial patch. Everything happens in one transaction: the
// pre-update item snapshot, the additive item inserts, the compensating stock
// writes for an explicit completed/cancelled status, and the order row write.
// Returns the order's status before the patch.
func (r *Repo) Update(ctx context.Context, id string, patch UpdatePatch) (Status, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var current Status
	err = tx.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1 FOR UPDATE`, id).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}

	// Snapshot before inserting patch items: compensation covers the items
	// that existed when the status change was requested. A no-op status write
	// must not compensate twice.
	statusChanging := patch.Status != nil && *patch.Status != current
	var snap []ItemSnapshot
	if statusChanging && (*patch.Status == StatusCancelled || *patch.Status == StatusCompleted) {
		snap, err = lockItemSnapshots(ctx, tx, id)
		if err != nil {
			return "", err
		}
	}

	for _, it := range patch.Items {
		if it.Quantity <= 0 {
			return "", fmt.Errorf("invalid quantity for product %s", it.ProductID)
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO order_items(id, order_id, product_id, quantity)
			VALUES ($1, $2, $3, $4)`,
			uuid.NewString(), id, it.ProductID, it.Quantity,
		); err != nil {
			return "", err
		}
	}

	if statusChanging {
		if err := applyDeltas(ctx, tx, PlanStatusSet(*patch.Status, snap)); err != nil {
			return "", err
		}
	}

	ct, err := tx.Exec(ctx, `
		UPDATE orders SET
			status = COALESCE($2, status),
			modified_by_id = COALESCE($3, modified_by_id),
			updated_at = now()
		WHERE id = $1`,
		id, patch.Status, patch.ModifiedByID)
	if err != nil {
		return "", err
	}
	if ct.RowsAffected() != 1 {
		return "", fmt.Errorf("order %s: row vanished during update", id)
	}

	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return current, nil
}

// AdvanceStatus moves the order one step forward in its lifecycle. The status
// read, the stock decrement on the move into completed, and the status write
// share one transaction, so a crash can never leave stock adjusted with the
// status unchanged. The row lock also serializes concurrent advances on the
// same order. Returns the updated order and the status it advanced from.
func (r *Repo) AdvanceStatus(ctx context.Context, id string) (Order, Status, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Order{}, "", err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var current Status
	err = tx.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1 FOR UPDATE`, id).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, "", ErrNotFound
	}
	if err != nil {
		return Order{}, "", err
	}

	snap, err := lockItemSnapshots(ctx, tx, id)
	if err != nil {
		return Order{}, "", err
	}
	next, deltas, err := PlanAdvance(current, snap)
	if err != nil {
		return Order{}, "", err
	}
	if err := applyDeltas(ctx, tx, deltas); err != nil {
		return Order{}, "", err
	}

	var o Order
	err = tx.QueryRow(ctx, `
		UPDATE orders SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING id, total_cents, status, user_id, modified_by_id, created_at, updated_at`,
		id, next,
	).Scan(&o.ID, &o.TotalCents, &o.Status, &o.UserID, &o.ModifiedByID, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, "", fmt.Errorf("order %s: row vanished during update", id)
	}
	if err != nil {
		return Order{}, "", err
	}

	if err := tx.Commit(ctx); err != nil {
		return Order{}, "", err
	}
	return o, current, nil
}

func (r *Repo) Delete(ctx context.Context, id string) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Items first, the FK points at orders.
	if _, err := tx.Exec(ctx, `DELETE FROM order_items WHERE order_id = $1`, id); err != nil {
		return err
	}
	ct, err := tx.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return tx.Commit(ctx)
}

func (r *Repo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM orders`).Scan(&n)
	return n, err
}

// lockItemSnapshots reads the order's items joined with their stock rows,
// locking the stock rows so concurrent compensations serialize.
func lockItemSnapshots(ctx context.Context, tx pgx.Tx, orderID string) ([]ItemSnapshot, error) {
	rows, err := tx.Query(ctx, `
		SELECT oi.product_id, p.stock_id, oi.quantity
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		JOIN stock s ON s.id = p.stock_id
		WHERE oi.order_id = $1
		FOR UPDATE OF s`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ItemSnapshot
	for rows.Next() {
		var it ItemSnapshot
		if err := rows.Scan(&it.ProductID, &it.StockID, &it.Quantity); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func applyDeltas(ctx context.Context, tx pgx.Tx, deltas []StockDelta) error {
	for _, d := range deltas {
		ct, err := tx.Exec(ctx, `
			UPDATE stock SET quantity = quantity + $2, updated_at = now()
			WHERE id = $1`, d.StockID, d.Delta)
		if err != nil {
			return err
		}
		if ct.RowsAffected() != 1 {
			return fmt.Errorf("stock row not found: %s", d.StockID)
		}
	}
	return nil
}

func productPrices(ctx context.Context, tx pgx.Tx, items []ItemInput) (map[string]int64, error) {
	if len(items) == 0 {
		return nil, errors.New("order has no items")
	}
	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	rows, err := tx.Query(ctx, `SELECT id, price_cents FROM products WHERE id = ANY($1::uuid[])`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	prices := map[string]int64{}
	for rows.Next() {
		var id string
		var price int64
		if err := rows.Scan(&id, &price); err != nil {
			return nil, err
		}
		prices[id] = price
	}
	return prices, rows.Err()
}

func (r *Repo) loadItems(ctx context.Context, orderIDs []string) (map[string][]Item, error) {
	if len(orderIDs) == 0 {
		return map[string][]Item{}, nil
	}
	rows, err := r.DB.Query(ctx, `
		SELECT id, order_id, product_id, quantity
		FROM order_items WHERE order_id = ANY($1::uuid[])
		ORDER BY created_at`, orderIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string][]Item{}
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity); err != nil {
			return nil, err
		}
		out[it.OrderID] = append(out[it.OrderID], it)
	}
	return out, rows.Err()
}

func scanOrders(rows pgx.Rows) ([]Order, error) {
	var out []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.TotalCents, &o.Status, &o.UserID, &o.ModifiedByID, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
