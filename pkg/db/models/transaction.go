package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vendibase/vendibase-backend/pkg/enums"
)

// Transaction is a standalone income or expense record outside the sales
// flow (booth fees, travel, miscellaneous income). Expenses tagged to an
// event count against that event's profit.
type Transaction struct {
	ID         uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	Kind       enums.TransactionKind `gorm:"column:kind;type:transaction_kind;not null"`
	Amount     decimal.Decimal       `gorm:"column:amount;type:numeric(12,2);not null"`
	Category   string                `gorm:"column:category"`
	Note       string                `gorm:"column:note"`
	EventID    *uuid.UUID            `gorm:"column:event_id;type:uuid;index"`
	OccurredAt time.Time             `gorm:"column:occurred_at;not null"`
	CreatedAt  time.Time             `gorm:"column:created_at;autoCreateTime"`
}
