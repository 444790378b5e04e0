package purchases

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/vendibase/vendibase-backend/internal/costing"
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

type batchReceiver interface {
	ReceiveBatchTx(ctx context.Context, tx *gorm.DB, input inventory.ReceiveBatchInput) (*models.InventoryBatch, error)
}

// ReceiveLineInput is one product line of an incoming purchase.
type ReceiveLineInput struct {
	ProductID      uuid.UUID
	Quantity       int
	UnitCostSource decimal.Decimal
}

// ReceiveInput is a full purchase receipt.
type ReceiveInput struct {
	Supplier     string
	Currency     enums.Currency
	ExchangeRate decimal.Decimal
	FreightTotal decimal.Decimal
	PurchasedAt  time.Time
	Lines        []ReceiveLineInput
}

// Service records purchase receipts and reads them back.
type Service interface {
	Receive(ctx context.Context, input ReceiveInput) (*models.Purchase, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Purchase, error)
	List(ctx context.Context, params pagination.Params) ([]models.Purchase, string, error)
}

type service struct {
	repo      *Repository
	tx        txRunner
	inventory batchReceiver
	outbox    outboxPublisher
}

// NewService builds the purchase service.
func NewService(repo *Repository, tx txRunner, inv batchReceiver, ob outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("purchase repository required")
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

// PurchaseReceivedEvent is emitted once per committed purchase.
type PurchaseReceivedEvent struct {
	PurchaseID uuid.UUID `json:"purchase_id"`
	Supplier   string    `json:"supplier"`
	LineCount  int       `json:"line_count"`
	TotalUnits int       `json:"total_units"`
}

// Receive records the purchase and creates one inventory batch per line,
// all inside one unit of work. The landed unit cost per line is the
// converted source cost plus the uniform per-unit freight share.
func (s *service) Receive(ctx context.Context, input ReceiveInput) (*models.Purchase, error) {
	if err := validateReceive(input); err != nil {
		return nil, err
	}

	totalUnits := 0
	for _, line := range input.Lines {
		totalUnits += line.Quantity
	}
	freightPerUnit, err := costing.AllocateFreight(input.FreightTotal, totalUnits)
	if err != nil {
		return nil, err
	}

	purchasedAt := input.PurchasedAt
	if purchasedAt.IsZero() {
		purchasedAt = time.Now().UTC()
	}

	purchase := &models.Purchase{
		ID:           uuid.New(),
		Supplier:     strings.TrimSpace(input.Supplier),
		Currency:     input.Currency,
		ExchangeRate: input.ExchangeRate,
		FreightTotal: input.FreightTotal,
		PurchasedAt:  purchasedAt,
	}
	for _, line := range input.Lines {
		landed, err := costing.LandedUnitCost(line.UnitCostSource, input.ExchangeRate, freightPerUnit)
		if err != nil {
			return nil, err
		}
		purchase.Lines = append(purchase.Lines, models.PurchaseLine{
			ID:             uuid.New(),
			PurchaseID:     purchase.ID,
			ProductID:      line.ProductID,
			Quantity:       line.Quantity,
			UnitCostSource: line.UnitCostSource,
			FreightPerUnit: freightPerUnit,
			LandedUnitCost: landed,
		})
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, purchase); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create purchase")
		}

		for i := range purchase.Lines {
			line := &purchase.Lines[i]
			lineID := line.ID
			if _, err := s.inventory.ReceiveBatchTx(ctx, tx, inventory.ReceiveBatchInput{
				ProductID:  line.ProductID,
				Quantity:   line.Quantity,
				UnitCost:   line.LandedUnitCost,
				ReceivedAt: purchasedAt,
				Cause:      enums.MovementCausePurchase,
				CauseRef:   &lineID,
			}); err != nil {
				return err
			}
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPurchaseReceived,
			AggregateType: enums.AggregatePurchase,
			AggregateID:   purchase.ID,
			Version:       1,
			Data: PurchaseReceivedEvent{
				PurchaseID: purchase.ID,
				Supplier:   purchase.Supplier,
				LineCount:  len(purchase.Lines),
				TotalUnits: totalUnits,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return purchase, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Purchase, error) {
	purchase, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "purchase not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load purchase")
	}
	return purchase, nil
}

func (s *service) List(ctx context.Context, params pagination.Params) ([]models.Purchase, string, error) {
	rows, next, err := s.repo.List(ctx, params)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, "", err
		}
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list purchases")
	}
	return rows, next, nil
}

func validateReceive(input ReceiveInput) error {
	if strings.TrimSpace(input.Supplier) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "supplier required")
	}
	if !input.Currency.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid currency %q", input.Currency))
	}
	if input.ExchangeRate.Sign() <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "exchange rate must be positive")
	}
	if input.FreightTotal.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "freight total must not be negative")
	}
	if len(input.Lines) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "purchase requires at least one line")
	}
	for i, line := range input.Lines {
		if line.ProductID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("line %d: product id required", i))
		}
		if line.Quantity < 1 {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("line %d: quantity must be at least 1", i))
		}
		if line.UnitCostSource.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("line %d: unit cost must not be negative", i))
		}
	}
	return nil
}
