package events

const (
	TopicOrderCreated    = "cadweb.order.created"
	TopicOrderStatus     = "cadweb.order.status"
	TopicPaymentReceived = "cadweb.payment.received"
)

// Partition key = order id, so all events for one order keep their order.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
