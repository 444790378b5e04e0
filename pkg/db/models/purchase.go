package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vendibase/vendibase-backend/pkg/enums"
)

// Purchase is a receipt of goods from a supplier. Freight and the exchange
// rate are captured once per purchase and shared across every line.
type Purchase struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Supplier     string          `gorm:"column:supplier;not null"`
	Currency     enums.Currency  `gorm:"column:currency;type:currency;not null"`
	ExchangeRate decimal.Decimal `gorm:"column:exchange_rate;type:numeric(16,6);not null"`
	FreightTotal decimal.Decimal `gorm:"column:freight_total;type:numeric(12,2);not null"`
	PurchasedAt  time.Time       `gorm:"column:purchased_at;not null"`
	Lines        []PurchaseLine  `gorm:"foreignKey:PurchaseID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// PurchaseLine is one product line within a purchase. Receiving a line
// produces exactly one inventory batch carrying the landed unit cost.
type PurchaseLine struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	PurchaseID     uuid.UUID       `gorm:"column:purchase_id;type:uuid;not null;index"`
	ProductID      uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	Quantity       int             `gorm:"column:quantity;not null"`
	UnitCostSource decimal.Decimal `gorm:"column:unit_cost_source;type:numeric(16,4);not null"`
	FreightPerUnit decimal.Decimal `gorm:"column:freight_per_unit;type:numeric(16,4);not null"`
	LandedUnitCost decimal.Decimal `gorm:"column:landed_unit_cost;type:numeric(16,4);not null"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
}
