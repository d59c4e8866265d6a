package enums

// OutboxEventType names the domain events recorded in the outbox.
type OutboxEventType string

const (
	EventOrderDelivered OutboxEventType = "order.delivered"
	EventOrderCancelled OutboxEventType = "order.cancelled"
	EventReceiptIssued  OutboxEventType = "receipt.issued"
)

// OutboxAggregateType names the aggregate an outbox event belongs to.
type OutboxAggregateType string

const (
	AggregateOrder   OutboxAggregateType = "order"
	AggregateReceipt OutboxAggregateType = "fiscal_receipt"
)
