package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/vendibase/vendibase-backend/pkg/enums"
)

// StockMovement is an append-only audit record of a stock-affecting
// operation. Rows are never updated or deleted; they outlive the batches
// they reference so historical reports stay reconcilable.
type StockMovement struct {
	ID        uuid.UUID               `gorm:"column:id;type:uuid;primaryKey"`
	ProductID uuid.UUID               `gorm:"column:product_id;type:uuid;not null;index"`
	Direction enums.MovementDirection `gorm:"column:direction;type:movement_direction;not null"`
	Quantity  int                     `gorm:"column:quantity;not null"`
	Cause     enums.MovementCause     `gorm:"column:cause;type:movement_cause;not null"`
	CauseRef  *uuid.UUID              `gorm:"column:cause_ref;type:uuid"`
	Reason    string                  `gorm:"column:reason"`
	CreatedAt time.Time               `gorm:"column:created_at;autoCreateTime"`
}
