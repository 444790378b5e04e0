package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event is an exhibition or pop-up with a fixed time window. Sales and
// expense transactions are tagged to it; its status is derived from the
// window at read time and never stored.
type Event struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Name      string          `gorm:"column:name;not null"`
	Venue     string          `gorm:"column:venue"`
	StartsAt  time.Time       `gorm:"column:starts_at;not null"`
	EndsAt    time.Time       `gorm:"column:ends_at;not null"`
	FixedCost decimal.Decimal `gorm:"column:fixed_cost;type:numeric(12,2);not null"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
