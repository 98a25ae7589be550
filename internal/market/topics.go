package market

const (
	TopicOrderCreated   = "order.created"
	TopicOrderPaid      = "order.paid"
	TopicOrderCancelled = "order.cancelled"
)

// Partition key = order id, so all events of one order keep their order.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
