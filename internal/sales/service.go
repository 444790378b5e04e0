package sales

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/vendibase/vendibase-backend/internal/inventory"
	"github.com/vendibase/vendibase-backend/pkg/db/models"
	"github.com/vendibase/vendibase-backend/pkg/enums"
	pkgerrors "github.com/vendibase/vendibase-backend/pkg/errors"
	"github.com/vendibase/vendibase-backend/pkg/outbox"
	"github.com/vendibase/vendibase-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type stockDepleter interface {
	DepleteTx(ctx context.Context, tx *gorm.DB, input inventory.DepleteInput) ([]inventory.BatchConsumption, error)
}

// RecordLineInput is one product line on a sale.
type RecordLineInput struct {
	ProductID uuid.UUID
	Quantity  int
	UnitPrice decimal.Decimal
}

// RecordInput captures a complete sale.
type RecordInput struct {
	EventID  *uuid.UUID
	Customer string
	Tax      decimal.Decimal
	SoldAt   time.Time
	Lines    []RecordLineInput
}

// Service records sales against the batch store and reads them back.
type Service interface {
	Record(ctx context.Context, input RecordInput) (*models.Sale, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Sale, error)
	List(ctx context.Context, params pagination.Params) ([]models.Sale, string, error)
}

type service struct {
	repo      *Repository
	tx        txRunner
	inventory stockDepleter
	outbox    outboxPublisher
}

// NewService builds the sale service.
func NewService(repo *Repository, tx txRunner, inv stockDepleter, ob outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("sale repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if inv == nil {
		return nil, fmt.Errorf("inventory service required")
	}
	if ob == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{repo: repo, tx: tx, inventory: inv, outbox: ob}, nil
}

// SaleRecordedEvent is emitted once per committed sale.
type SaleRecordedEvent struct {
	SaleID    uuid.UUID       `json:"sale_id"`
	EventID   *uuid.UUID      `json:"event_id,omitempty"`
	Total     decimal.Decimal `json:"total"`
	LineCount int             `json:"line_count"`
}

// Record persists the sale inside one unit of work. Every line depletes
// stock oldest-first; if any line cannot be satisfied the whole sale rolls
// back. Each line's unit cost is the quantity-weighted average of the
// batches it consumed, captured at sale time so profit never shifts when
// later purchases change costs.
func (s *service) Record(ctx context.Context, input RecordInput) (*models.Sale, error) {
	if err := validateRecord(input); err != nil {
		return nil, err
	}

	soldAt := input.SoldAt
	if soldAt.IsZero() {
		soldAt = time.Now().UTC()
	}

	sale := &models.Sale{
		ID:       uuid.New(),
		EventID:  input.EventID,
		Customer: input.Customer,
		Tax:      input.Tax.Round(inventory.MoneyPrecision),
		SoldAt:   soldAt,
	}

	total := decimal.Zero
	for _, line := range input.Lines {
		lineTotal := line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))).Round(inventory.MoneyPrecision)
		total = total.Add(lineTotal)
		sale.Lines = append(sale.Lines, models.SaleLine{
			ID:        uuid.New(),
			SaleID:    sale.ID,
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			LineTotal: lineTotal,
		})
	}
	sale.Total = total.Round(inventory.MoneyPrecision)

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		for i := range sale.Lines {
			line := &sale.Lines[i]
			lineID := line.ID
			consumed, err := s.inventory.DepleteTx(ctx, tx, inventory.DepleteInput{
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
				Cause:     enums.MovementCauseSale,
				CauseRef:  &lineID,
			})
			if err != nil {
				return err
			}
			line.UnitCost = weightedUnitCost(consumed)
		}

		if err := s.repo.WithTx(tx).Create(ctx, sale); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create sale")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventSaleRecorded,
			AggregateType: enums.AggregateSale,
			AggregateID:   sale.ID,
			Version:       1,
			Data: SaleRecordedEvent{
				SaleID:    sale.ID,
				EventID:   sale.EventID,
				Total:     sale.Total,
				LineCount: len(sale.Lines),
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return sale, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Sale, error) {
	sale, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "sale not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sale")
	}
	return sale, nil
}

func (s *service) List(ctx context.Context, params pagination.Params) ([]models.Sale, string, error) {
	rows, next, err := s.repo.List(ctx, params)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, "", err
		}
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list sales")
	}
	return rows, next, nil
}

// Profit sums the margin across the sale's lines using the unit costs
// captured when the sale was recorded.
func Profit(sale *models.Sale) decimal.Decimal {
	total := decimal.Zero
	for _, line := range sale.Lines {
		total = total.Add(line.Profit())
	}
	return total
}

// weightedUnitCost averages the consumed batches' costs by quantity taken.
func weightedUnitCost(consumed []inventory.BatchConsumption) decimal.Decimal {
	totalQty := 0
	totalCost := decimal.Zero
	for _, c := range consumed {
		totalQty += c.Quantity
		totalCost = totalCost.Add(c.UnitCost.Mul(decimal.NewFromInt(int64(c.Quantity))))
	}
	if totalQty == 0 {
		return decimal.Zero
	}
	return totalCost.Div(decimal.NewFromInt(int64(totalQty))).Round(inventory.CostPrecision)
}

func validateRecord(input RecordInput) error {
	if input.Tax.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "tax must not be negative")
	}
	if len(input.Lines) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "sale requires at least one line")
	}
	for i, line := range input.Lines {
		if line.ProductID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("line %d: product id required", i))
		}
		if line.Quantity < 1 {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("line %d: quantity must be at least 1", i))
		}
		if line.UnitPrice.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("line %d: unit price must not be negative", i))
		}
	}
	return nil
}
