package redisx

import "time"

const (
	// Cache of an order's current status: order_status:{order_id}
	KeyOrderStatus = "order_status:%s"

	// Dedup for event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"

	// Verified auth sessions keyed by token hash: auth_session:{sha256}
	KeyAuthSession = "auth_session:%s"
)

var (
	TTLStatusCache = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
	TTLAuthSession = 5 * time.Minute
)
