package inventory

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vendibase/vendibase-backend/pkg/db/models"
	"github.com/vendibase/vendibase-backend/pkg/pagination"
)

// Repository wires together batch and movement persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// CreateBatch inserts a new inventory batch row.
func (r *Repository) CreateBatch(ctx context.Context, batch *models.InventoryBatch) error {
	return r.db.WithContext(ctx).Create(batch).Error
}

// LockBatchesFIFO loads the product's depletable batches in consumption
// order, taking row locks on Postgres so concurrent depletions of the same
// product serialize. sqlite (tests) has no FOR UPDATE; writes there
// serialize on the database lock instead.
func (r *Repository) LockBatchesFIFO(ctx context.Context, productID uuid.UUID) ([]models.InventoryBatch, error) {
	q := r.db.WithContext(ctx)
	if q.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var batches []models.InventoryBatch
	err := q.
		Where("product_id = ? AND quantity_available > 0", productID).
		Order("received_at ASC").
		Order("created_at ASC").
		Order("id ASC").
		Find(&batches).
		Error
	return batches, err
}

// ListBatches returns all batches with remaining stock, unordered reads for
// valuation. No locks are taken.
func (r *Repository) ListBatches(ctx context.Context, productID uuid.UUID) ([]models.InventoryBatch, error) {
	var batches []models.InventoryBatch
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND quantity_available > 0", productID).
		Find(&batches).
		Error
	return batches, err
}

// SetBatchAvailability writes the new remaining quantity for a batch.
func (r *Repository) SetBatchAvailability(ctx context.Context, batchID uuid.UUID, available int) error {
	return r.db.WithContext(ctx).
		Model(&models.InventoryBatch{}).
		Where("id = ?", batchID).
		Update("quantity_available", available).
		Error
}

// SumAvailable totals the remaining quantity across the product's batches.
func (r *Repository) SumAvailable(ctx context.Context, productID uuid.UUID) (int, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.InventoryBatch{}).
		Where("product_id = ?", productID).
		Select("COALESCE(SUM(quantity_available), 0)").
		Scan(&total).
		Error
	return int(total), err
}

// AppendMovement inserts an append-only ledger row. Movements are never
// updated or deleted.
func (r *Repository) AppendMovement(ctx context.Context, movement *models.StockMovement) error {
	return r.db.WithContext(ctx).Create(movement).Error
}

// ListMovements returns the product's ledger newest-first with cursor
// pagination.
func (r *Repository) ListMovements(ctx context.Context, productID uuid.UUID, params pagination.Params) ([]models.StockMovement, string, error) {
	limitWithBuffer := pagination.LimitWithBuffer(params.Limit)

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", err
	}

	q := r.db.WithContext(ctx).
		Where("product_id = ?", productID)
	if cursor != nil {
		q = q.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.StockMovement
	err = q.
		Order("created_at DESC").
		Order("id DESC").
		Limit(limitWithBuffer).
		Find(&rows).
		Error
	if err != nil {
		return nil, "", err
	}

	rows, nextCursor := pagination.Page(rows, params.Limit, func(row models.StockMovement) pagination.Cursor {
		return pagination.Cursor{CreatedAt: row.CreatedAt, ID: row.ID}
	})
	return rows, nextCursor, nil
}

// MovementTotals sums ledger quantities per direction for reconciliation.
func (r *Repository) MovementTotals(ctx context.Context, productID uuid.UUID) (in int, out int, err error) {
	type row struct {
		Direction string
		Total     int64
	}
	var rows []row
	err = r.db.WithContext(ctx).
		Model(&models.StockMovement{}).
		Where("product_id = ?", productID).
		Select("direction, COALESCE(SUM(quantity), 0) AS total").
		Group("direction").
		Scan(&rows).
		Error
	if err != nil {
		return 0, 0, err
	}
	for _, r := range rows {
		switch r.Direction {
		case "IN":
			in = int(r.Total)
		case "OUT":
			out = int(r.Total)
		}
	}
	return in, out, nil
}
