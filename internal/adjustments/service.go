// Package adjustments reconciles physical counts against the batch store.
// Increases create zero-cost batches; decreases deplete FIFO but log a
// single aggregate movement, unlike sales which keep per-line detail.
package adjustments

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/vendibase/vendibase-backend/internal/inventory"
	"github.com/vendibase/vendibase-backend/pkg/db/models"
	"github.com/vendibase/vendibase-backend/pkg/enums"
	pkgerrors "github.com/vendibase/vendibase-backend/pkg/errors"
	"github.com/vendibase/vendibase-backend/pkg/outbox"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type stockMutator interface {
	ReceiveBatchTx(ctx context.Context, tx *gorm.DB, input inventory.ReceiveBatchInput) (*models.InventoryBatch, error)
	DepleteTx(ctx context.Context, tx *gorm.DB, input inventory.DepleteInput) ([]inventory.BatchConsumption, error)
}

// AdjustInput changes a product's stock by Delta units. A positive delta
// receives a batch at UnitCost (zero unless supplied); a negative delta
// depletes oldest-first.
type AdjustInput struct {
	ProductID uuid.UUID
	Delta     int
	UnitCost  decimal.Decimal
	Reason    string
}

// Result reports what an adjustment did.
type Result struct {
	ProductID uuid.UUID
	Delta     int
	BatchID   *uuid.UUID
	Consumed  []inventory.BatchConsumption
}

// Service applies manual stock adjustments.
type Service interface {
	Adjust(ctx context.Context, input AdjustInput) (*Result, error)
}

type service struct {
	tx        txRunner
	inventory stockMutator
	outbox    outboxPublisher
}

// NewService builds the adjustment service.
func NewService(tx txRunner, inv stockMutator, ob outboxPublisher) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if inv == nil {
		return nil, fmt.Errorf("inventory service required")
	}
	if ob == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{tx: tx, inventory: inv, outbox: ob}, nil
}

// StockAdjustedEvent is emitted once per committed adjustment.
type StockAdjustedEvent struct {
	ProductID uuid.UUID `json:"product_id"`
	Delta     int       `json:"delta"`
	Reason    string    `json:"reason"`
}

func (s *service) Adjust(ctx context.Context, input AdjustInput) (*Result, error) {
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if input.Delta == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delta must not be zero")
	}
	if input.UnitCost.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit cost must not be negative")
	}
	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reason required")
	}

	result := &Result{ProductID: input.ProductID, Delta: input.Delta}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if input.Delta > 0 {
			batch, err := s.inventory.ReceiveBatchTx(ctx, tx, inventory.ReceiveBatchInput{
				ProductID: input.ProductID,
				Quantity:  input.Delta,
				UnitCost:  input.UnitCost,
				Cause:     enums.MovementCauseAdjustment,
				Reason:    reason,
			})
			if err != nil {
				return err
			}
			result.BatchID = &batch.ID
		} else {
			// One aggregate OUT movement regardless of batches touched.
			consumed, err := s.inventory.DepleteTx(ctx, tx, inventory.DepleteInput{
				ProductID: input.ProductID,
				Quantity:  -input.Delta,
				Cause:     enums.MovementCauseAdjustment,
				Reason:    reason,
			})
			if err != nil {
				return err
			}
			result.Consumed = consumed
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventStockAdjusted,
			AggregateType: enums.AggregateProduct,
			AggregateID:   input.ProductID,
			Version:       1,
			Data: StockAdjustedEvent{
				ProductID: input.ProductID,
				Delta:     input.Delta,
				Reason:    reason,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
