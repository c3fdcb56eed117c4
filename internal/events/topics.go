package events

// Topic constants for domain events emitted by the checkout flow.
const (
	TopicOrderCreated  = "order.created"
	TopicOrderPaid     = "order.paid"
	TopicPaymentFailed = "payment.failed"
)
