package products

import "time"

type Product struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	PriceCents   int64      `json:"price_cents"`
	ImageBase64  *string    `json:"image_base64,omitempty"`
	CreatedByID  *string    `json:"created_by,omitempty"`
	StockID      string     `json:"stock_id"`
	ModifiedByID *string    `json:"modified_by_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
	Stock        *Stock     `json:"stock,omitempty"`
}

type Stock struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
}

type CreateInput struct {
	Name        string
	PriceCents  int64
	ImageBase64 *string
	Quantity    int
	CreatedByID string
}

// UpdatePatch is a partial product update. A non-nil Quantity rewrites the
// product's stock counter to that value.
type UpdatePatch struct {
	Name         *string
	PriceCents   *int64
	ImageBase64  *string
	Quantity     *int
	ModifiedByID *string
}

type ListParams struct {
	Page    int
	PerPage int
	OrderBy string
	Order   string
}
