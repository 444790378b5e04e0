package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Sale records a completed sale. Monetary figures are fixed at recording
// time; profit derived from them never changes when later purchases shift
// the average cost.
type Sale struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	EventID   *uuid.UUID      `gorm:"column:event_id;type:uuid;index"`
	Customer  string          `gorm:"column:customer"`
	Total     decimal.Decimal `gorm:"column:total;type:numeric(12,2);not null"`
	Tax       decimal.Decimal `gorm:"column:tax;type:numeric(12,2);not null"`
	SoldAt    time.Time       `gorm:"column:sold_at;not null"`
	Lines     []SaleLine      `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}

// SaleLine is one product line within a sale. UnitCost is copied from the
// batches consumed when the sale was recorded.
type SaleLine struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	SaleID    uuid.UUID       `gorm:"column:sale_id;type:uuid;not null;index"`
	ProductID uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	Quantity  int             `gorm:"column:quantity;not null"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	UnitCost  decimal.Decimal `gorm:"column:unit_cost;type:numeric(16,4);not null"`
	LineTotal decimal.Decimal `gorm:"column:line_total;type:numeric(12,2);not null"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}

// Profit returns the line margin: line total minus captured cost of goods.
func (l SaleLine) Profit() decimal.Decimal {
	return l.LineTotal.Sub(l.UnitCost.Mul(decimal.NewFromInt(int64(l.Quantity))))
}
