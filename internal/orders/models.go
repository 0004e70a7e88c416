package orders

import "time"

type Order struct {
	ID           string     `json:"id"`
	TotalCents   int64      `json:"total_cents"`
	Status       Status     `json:"status"`
	UserID       *string    `json:"user_id,omitempty"`
	ModifiedByID *string    `json:"modified_by_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
	Items        []Item     `json:"items,omitempty"`
}

type Item struct {
	ID        string `json:"id"`
	OrderID   string `json:"order_id"`
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// ItemInput is a line item as submitted by the client. Prices are never
// trusted from the client; they are read from the products table.
type ItemInput struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// ItemSnapshot is an order item joined with its product's stock reference,
// read under row lock just before a compensating stock write.
type ItemSnapshot struct {
	ProductID string
	StockID   string
	Quantity  int
}

type CreateInput struct {
	UserID string
	Items  []ItemInput
}

// UpdatePatch is a partial order update. Items are appended to the order's
// existing line items, never diffed against them.
type UpdatePatch struct {
	Status       *Status
	Items        []ItemInput
	ModifiedByID *string
}

type ListParams struct {
	Page    int
	PerPage int
	OrderBy string
	Order   string
}
