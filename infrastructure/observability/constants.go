package observability

// Metric name prefixes
const (
	MetricPrefix = "lbclottery"
)

// Metric names
const (
	// Ledger metrics
	LedgerOperationsTotal = MetricPrefix + ".ledger.operations_total"
	TicketsPurchasedTotal = MetricPrefix + ".ledger.tickets_purchased_total"
	TicketSalesAmount     = MetricPrefix + ".ledger.ticket_sales_amount"
	FundsWithdrawnAmount  = MetricPrefix + ".ledger.funds_withdrawn_amount"

	// NATS metrics
	NATSMessagesPublishedTotal = MetricPrefix + ".nats.messages_published_total"
)

// Label keys
const (
	LabelOperation = "operation"
	LabelOutcome   = "outcome"
	LabelEventType = "event_type"
)
