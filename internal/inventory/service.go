package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/vendibase/vendibase-backend/pkg/db/models"
	"github.com/vendibase/vendibase-backend/pkg/enums"
	pkgerrors "github.com/vendibase/vendibase-backend/pkg/errors"
	"github.com/vendibase/vendibase-backend/pkg/metrics"
	"github.com/vendibase/vendibase-backend/pkg/outbox"
	"github.com/vendibase/vendibase-backend/pkg/pagination"
)

// CostPrecision is the internal decimal precision for unit costs and
// valuations. Money display rounds to MoneyPrecision.
const (
	CostPrecision  int32 = 4
	MoneyPrecision int32 = 2
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type productFinder interface {
	FindActiveTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Product, error)
}

type valuationCache interface {
	Del(ctx context.Context, keys ...string) error
	ValuationKey(productID string) string
}

// BatchConsumption reports how much of one batch a depletion consumed, and
// at which unit cost. The tuples drive cost attribution on the consuming
// operation.
type BatchConsumption struct {
	BatchID  uuid.UUID
	Quantity int
	UnitCost decimal.Decimal
}

// Valuation summarizes a product's remaining stock value.
type Valuation struct {
	Stock               int
	WeightedAvgUnitCost decimal.Decimal
	TotalValue          decimal.Decimal
}

// ReceiveBatchInput creates one batch of received stock.
type ReceiveBatchInput struct {
	ProductID  uuid.UUID
	Quantity   int
	UnitCost   decimal.Decimal
	ReceivedAt time.Time
	Cause      enums.MovementCause
	CauseRef   *uuid.UUID
	Reason     string
}

// DepleteInput removes stock oldest-batch-first.
type DepleteInput struct {
	ProductID uuid.UUID
	Quantity  int
	Cause     enums.MovementCause
	CauseRef  *uuid.UUID
	Reason    string
}

// Service exposes the batch store, the FIFO depletion engine, and the
// read-side stock queries.
type Service interface {
	ReceiveBatch(ctx context.Context, input ReceiveBatchInput) (*models.InventoryBatch, error)
	ReceiveBatchTx(ctx context.Context, tx *gorm.DB, input ReceiveBatchInput) (*models.InventoryBatch, error)
	Deplete(ctx context.Context, input DepleteInput) ([]BatchConsumption, error)
	DepleteTx(ctx context.Context, tx *gorm.DB, input DepleteInput) ([]BatchConsumption, error)
	CurrentStock(ctx context.Context, productID uuid.UUID) (int, error)
	Valuation(ctx context.Context, productID uuid.UUID) (Valuation, error)
	History(ctx context.Context, productID uuid.UUID, params pagination.Params) ([]models.StockMovement, string, error)
}

type service struct {
	repo     *Repository
	tx       txRunner
	products productFinder
	outbox   outboxPublisher
	stock    *metrics.StockMetrics
	cache    valuationCache
}

// NewService builds the inventory service with the required dependencies.
// Metrics and cache may be nil.
func NewService(repo *Repository, tx txRunner, products productFinder, ob outboxPublisher, stock *metrics.StockMetrics, cache valuationCache) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if products == nil {
		return nil, fmt.Errorf("product finder required")
	}
	if ob == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		repo:     repo,
		tx:       tx,
		products: products,
		outbox:   ob,
		stock:    stock,
		cache:    cache,
	}, nil
}

// invalidateValuation drops the cached dashboard valuation after a stock
// mutation. Best effort; a failed delete just leaves the old row until TTL.
func (s *service) invalidateValuation(ctx context.Context, productID uuid.UUID) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Del(ctx, s.cache.ValuationKey(productID.String()))
}

// BatchReceivedEvent is emitted when stock enters the batch store.
type BatchReceivedEvent struct {
	BatchID   uuid.UUID           `json:"batch_id"`
	ProductID uuid.UUID           `json:"product_id"`
	Quantity  int                 `json:"quantity"`
	UnitCost  decimal.Decimal     `json:"unit_cost"`
	Cause     enums.MovementCause `json:"cause"`
}

// StockDepletedEvent is emitted when stock leaves the batch store.
type StockDepletedEvent struct {
	ProductID    uuid.UUID           `json:"product_id"`
	Quantity     int                 `json:"quantity"`
	Cause        enums.MovementCause `json:"cause"`
	BatchesTaken int                 `json:"batches_taken"`
}

func (s *service) ReceiveBatch(ctx context.Context, input ReceiveBatchInput) (*models.InventoryBatch, error) {
	var batch *models.InventoryBatch
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		created, err := s.ReceiveBatchTx(ctx, tx, input)
		if err != nil {
			return err
		}
		batch = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return batch, nil
}

// ReceiveBatchTx creates the batch and its IN movement inside the caller's
// transaction.
func (s *service) ReceiveBatchTx(ctx context.Context, tx *gorm.DB, input ReceiveBatchInput) (*models.InventoryBatch, error) {
	if err := validateReceive(input); err != nil {
		return nil, err
	}
	if _, err := s.products.FindActiveTx(ctx, tx, input.ProductID); err != nil {
		return nil, err
	}

	repo := s.repo.WithTx(tx)

	receivedAt := input.ReceivedAt
	if receivedAt.IsZero() {
		receivedAt = time.Now().UTC()
	}

	batch := &models.InventoryBatch{
		ID:                uuid.New(),
		ProductID:         input.ProductID,
		QuantityReceived:  input.Quantity,
		QuantityAvailable: input.Quantity,
		UnitCost:          input.UnitCost.Round(CostPrecision),
		ReceivedAt:        receivedAt,
		PurchaseLineID:    purchaseLineRef(input),
	}
	if err := repo.CreateBatch(ctx, batch); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create inventory batch")
	}

	causeRef := input.CauseRef
	if causeRef == nil {
		ref := batch.ID
		causeRef = &ref
	}
	movement := &models.StockMovement{
		ID:        uuid.New(),
		ProductID: input.ProductID,
		Direction: enums.MovementDirectionIn,
		Quantity:  input.Quantity,
		Cause:     input.Cause,
		CauseRef:  causeRef,
		Reason:    input.Reason,
	}
	if err := repo.AppendMovement(ctx, movement); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append stock movement")
	}

	event := outbox.DomainEvent{
		EventType:     enums.EventBatchReceived,
		AggregateType: enums.AggregateBatch,
		AggregateID:   batch.ID,
		Version:       1,
		Data: BatchReceivedEvent{
			BatchID:   batch.ID,
			ProductID: input.ProductID,
			Quantity:  input.Quantity,
			UnitCost:  batch.UnitCost,
			Cause:     input.Cause,
		},
	}
	if err := s.outbox.Emit(ctx, tx, event); err != nil {
		return nil, err
	}

	s.stock.IncMovement(enums.MovementDirectionIn.String(), input.Cause.String())
	s.invalidateValuation(ctx, input.ProductID)
	return batch, nil
}

func (s *service) Deplete(ctx context.Context, input DepleteInput) ([]BatchConsumption, error) {
	var consumed []BatchConsumption
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		result, err := s.DepleteTx(ctx, tx, input)
		if err != nil {
			return err
		}
		consumed = result
		return nil
	})
	if err != nil {
		return nil, err
	}
	return consumed, nil
}

// DepleteTx removes the requested quantity oldest-batch-first inside the
// caller's transaction. The aggregate availability check runs against the
// locked batch rows, so no batch is ever partially decremented before an
// insufficiency surfaces. Exactly one OUT movement is appended for the
// whole request regardless of how many batches were touched.
func (s *service) DepleteTx(ctx context.Context, tx *gorm.DB, input DepleteInput) ([]BatchConsumption, error) {
	if input.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	if input.Cause != enums.MovementCauseSale && input.Cause != enums.MovementCauseAdjustment {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("cause %s cannot deplete stock", input.Cause))
	}
	if _, err := s.products.FindActiveTx(ctx, tx, input.ProductID); err != nil {
		return nil, err
	}

	repo := s.repo.WithTx(tx)

	batches, err := repo.LockBatchesFIFO(ctx, input.ProductID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock inventory batches")
	}

	available := 0
	for _, batch := range batches {
		available += batch.QuantityAvailable
	}
	if available < input.Quantity {
		s.stock.IncRejection(input.Cause.String())
		return nil, pkgerrors.New(
			pkgerrors.CodeInsufficientStock,
			fmt.Sprintf("insufficient stock: %d available", available),
		).WithDetails(map[string]any{
			"available": available,
			"requested": input.Quantity,
		})
	}

	remaining := input.Quantity
	consumed := make([]BatchConsumption, 0, len(batches))
	for _, batch := range batches {
		if remaining == 0 {
			break
		}
		take := batch.QuantityAvailable
		if take > remaining {
			take = remaining
		}
		if err := repo.SetBatchAvailability(ctx, batch.ID, batch.QuantityAvailable-take); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement batch availability")
		}
		consumed = append(consumed, BatchConsumption{
			BatchID:  batch.ID,
			Quantity: take,
			UnitCost: batch.UnitCost,
		})
		remaining -= take
	}

	movement := &models.StockMovement{
		ID:        uuid.New(),
		ProductID: input.ProductID,
		Direction: enums.MovementDirectionOut,
		Quantity:  input.Quantity,
		Cause:     input.Cause,
		CauseRef:  input.CauseRef,
		Reason:    input.Reason,
	}
	if err := repo.AppendMovement(ctx, movement); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append stock movement")
	}

	event := outbox.DomainEvent{
		EventType:     enums.EventStockDepleted,
		AggregateType: enums.AggregateMovement,
		AggregateID:   movement.ID,
		Version:       1,
		Data: StockDepletedEvent{
			ProductID:    input.ProductID,
			Quantity:     input.Quantity,
			Cause:        input.Cause,
			BatchesTaken: len(consumed),
		},
	}
	if err := s.outbox.Emit(ctx, tx, event); err != nil {
		return nil, err
	}

	s.stock.IncMovement(enums.MovementDirectionOut.String(), input.Cause.String())
	s.invalidateValuation(ctx, input.ProductID)
	return consumed, nil
}

func (s *service) CurrentStock(ctx context.Context, productID uuid.UUID) (int, error) {
	total, err := s.repo.SumAvailable(ctx, productID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum available stock")
	}
	return total, nil
}

func (s *service) Valuation(ctx context.Context, productID uuid.UUID) (Valuation, error) {
	batches, err := s.repo.ListBatches(ctx, productID)
	if err != nil {
		return Valuation{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list inventory batches")
	}
	return ComputeValuation(batches), nil
}

// ComputeValuation derives stock, weighted average unit cost, and total
// value from a batch snapshot. The average is 0 when no stock remains.
func ComputeValuation(batches []models.InventoryBatch) Valuation {
	stock := 0
	total := decimal.Zero
	for _, batch := range batches {
		if batch.QuantityAvailable <= 0 {
			continue
		}
		stock += batch.QuantityAvailable
		total = total.Add(batch.UnitCost.Mul(decimal.NewFromInt(int64(batch.QuantityAvailable))))
	}

	valuation := Valuation{Stock: stock, WeightedAvgUnitCost: decimal.Zero, TotalValue: total.Round(CostPrecision)}
	if stock > 0 {
		valuation.WeightedAvgUnitCost = total.Div(decimal.NewFromInt(int64(stock))).Round(CostPrecision)
	}
	return valuation
}

func (s *service) History(ctx context.Context, productID uuid.UUID, params pagination.Params) ([]models.StockMovement, string, error) {
	rows, next, err := s.repo.ListMovements(ctx, productID, params)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, "", err
		}
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stock movements")
	}
	return rows, next, nil
}

func validateReceive(input ReceiveBatchInput) error {
	if input.Quantity < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	if input.UnitCost.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unit cost must not be negative")
	}
	if !input.Cause.AllowsInbound() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("cause %s cannot receive stock", input.Cause))
	}
	return nil
}

func purchaseLineRef(input ReceiveBatchInput) *uuid.UUID {
	if input.Cause != enums.MovementCausePurchase {
		return nil
	}
	return input.CauseRef
}
