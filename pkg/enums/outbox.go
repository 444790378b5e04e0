package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateProduct     OutboxAggregateType = "product"
	AggregateBatch       OutboxAggregateType = "inventory_batch"
	AggregateMovement    OutboxAggregateType = "stock_movement"
	AggregatePurchase    OutboxAggregateType = "purchase"
	AggregateSale        OutboxAggregateType = "sale"
	AggregateEvent       OutboxAggregateType = "event"
	AggregateTransaction OutboxAggregateType = "transaction"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateProduct,
	AggregateBatch,
	AggregateMovement,
	AggregatePurchase,
	AggregateSale,
	AggregateEvent,
	AggregateTransaction,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventBatchReceived      OutboxEventType = "batch_received"
	EventStockDepleted      OutboxEventType = "stock_depleted"
	EventStockAdjusted      OutboxEventType = "stock_adjusted"
	EventPurchaseReceived   OutboxEventType = "purchase_received"
	EventSaleRecorded       OutboxEventType = "sale_recorded"
	EventProductDeactivated OutboxEventType = "product_deactivated"
)

var validOutboxEventTypes = []OutboxEventType{
	EventBatchReceived,
	EventStockDepleted,
	EventStockAdjusted,
	EventPurchaseReceived,
	EventSaleRecorded,
	EventProductDeactivated,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
