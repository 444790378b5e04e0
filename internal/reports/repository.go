package reports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vendibase/vendibase-backend/pkg/db/models"
)

// ProductStock is one row of the per-product stock aggregation.
type ProductStock struct {
	ProductID uuid.UUID `gorm:"column:product_id"`
	Name      string    `gorm:"column:name"`
	SKU       string    `gorm:"column:sku"`
	Stock     int       `gorm:"column:stock"`
}

// Repository owns the read-only aggregation queries behind the dashboard.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// StockByProduct returns remaining stock for every active product,
// including products with no batches left.
func (r *Repository) StockByProduct(ctx context.Context) ([]ProductStock, error) {
	var rows []ProductStock
	err := r.db.WithContext(ctx).
		Table("products").
		Select("products.id AS product_id, products.name AS name, products.sku AS sku, COALESCE(SUM(inventory_batches.quantity_available), 0) AS stock").
		Joins("LEFT JOIN inventory_batches ON inventory_batches.product_id = products.id").
		Where("products.is_active = ?", true).
		Group("products.id, products.name, products.sku").
		Order("products.name ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// SalesBetween returns the sales recorded inside the half-open window
// [from, to), lines included.
func (r *Repository) SalesBetween(ctx context.Context, from, to time.Time) ([]models.Sale, error) {
	var rows []models.Sale
	err := r.db.WithContext(ctx).
		Preload("Lines").
		Where("sold_at >= ? AND sold_at < ?", from, to).
		Order("sold_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
