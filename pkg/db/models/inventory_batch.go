package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InventoryBatch is a discrete quantity of stock received at a fixed unit
// cost. QuantityAvailable only ever decreases; the unit cost is immutable
// after creation.
type InventoryBatch struct {
	ID                uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	ProductID         uuid.UUID       `gorm:"column:product_id;type:uuid;not null;index:idx_batches_product_received,priority:1"`
	QuantityReceived  int             `gorm:"column:quantity_received;not null"`
	QuantityAvailable int             `gorm:"column:quantity_available;not null"`
	UnitCost          decimal.Decimal `gorm:"column:unit_cost;type:numeric(16,4);not null"`
	ReceivedAt        time.Time       `gorm:"column:received_at;not null;index:idx_batches_product_received,priority:2"`
	PurchaseLineID    *uuid.UUID      `gorm:"column:purchase_line_id;type:uuid"`
	CreatedAt         time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
