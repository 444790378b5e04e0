package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/vendibase/vendibase-backend/pkg/db/models"
	"github.com/vendibase/vendibase-backend/pkg/enums"
	pkgerrors "github.com/vendibase/vendibase-backend/pkg/errors"
	"github.com/vendibase/vendibase-backend/pkg/outbox"
	"github.com/vendibase/vendibase-backend/pkg/pagination"
)

func TestReceiveBatchCreatesBatchAndMovement(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, events := newTestService(t, db)
	ctx := context.Background()
	productID := seedProduct(t, db, true)

	batch, err := svc.ReceiveBatch(ctx, ReceiveBatchInput{
		ProductID: productID,
		Quantity:  10,
		UnitCost:  decimal.RequireFromString("2.5000"),
		Cause:     enums.MovementCausePurchase,
	})
	if err != nil {
		t.Fatalf("receive batch: %v", err)
	}
	if batch.QuantityAvailable != 10 || batch.QuantityReceived != 10 {
		t.Fatalf("unexpected batch quantities: %+v", batch)
	}

	var movements []models.StockMovement
	if err := db.Find(&movements, "product_id = ?", productID).Error; err != nil {
		t.Fatalf("load movements: %v", err)
	}
	if len(movements) != 1 {
		t.Fatalf("expected 1 movement, got %d", len(movements))
	}
	if movements[0].Direction != enums.MovementDirectionIn || movements[0].Quantity != 10 {
		t.Fatalf("unexpected movement: %+v", movements[0])
	}
	if movements[0].Cause != enums.MovementCausePurchase {
		t.Fatalf("unexpected cause: %s", movements[0].Cause)
	}

	if len(events.emitted) != 1 || events.emitted[0].EventType != enums.EventBatchReceived {
		t.Fatalf("expected batch_received event, got %+v", events.emitted)
	}
}

func TestReceiveBatchValidation(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, _ := newTestService(t, db)
	productID := seedProduct(t, db, true)

	cases := []struct {
		name  string
		input ReceiveBatchInput
	}{
		{"zero quantity", ReceiveBatchInput{ProductID: productID, Quantity: 0, Cause: enums.MovementCauseInitial}},
		{"negative cost", ReceiveBatchInput{ProductID: productID, Quantity: 1, UnitCost: decimal.RequireFromString("-1"), Cause: enums.MovementCauseInitial}},
		{"outbound cause", ReceiveBatchInput{ProductID: productID, Quantity: 1, Cause: enums.MovementCauseSale}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.ReceiveBatch(context.Background(), tc.input)
			if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestReceiveBatchInactiveProduct(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, _ := newTestService(t, db)
	productID := seedProduct(t, db, false)

	_, err := svc.ReceiveBatch(context.Background(), ReceiveBatchInput{
		ProductID: productID,
		Quantity:  1,
		Cause:     enums.MovementCauseInitial,
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDepleteConsumesOldestFirst(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, _ := newTestService(t, db)
	ctx := context.Background()
	productID := seedProduct(t, db, true)

	base := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	batchIDs := make([]uuid.UUID, 0, 3)
	for i := 0; i < 3; i++ {
		batch, err := svc.ReceiveBatch(ctx, ReceiveBatchInput{
			ProductID:  productID,
			Quantity:   5,
			UnitCost:   decimal.NewFromInt(int64(i + 1)),
			ReceivedAt: base.Add(time.Duration(i) * time.Hour),
			Cause:      enums.MovementCauseInitial,
		})
		if err != nil {
			t.Fatalf("seed batch %d: %v", i, err)
		}
		batchIDs = append(batchIDs, batch.ID)
	}

	consumed, err := svc.Deplete(ctx, DepleteInput{
		ProductID: productID,
		Quantity:  7,
		Cause:     enums.MovementCauseSale,
	})
	if err != nil {
		t.Fatalf("deplete: %v", err)
	}

	if len(consumed) != 2 {
		t.Fatalf("expected 2 consumption tuples, got %d", len(consumed))
	}
	if consumed[0].BatchID != batchIDs[0] || consumed[0].Quantity != 5 {
		t.Fatalf("unexpected first tuple: %+v", consumed[0])
	}
	if consumed[1].BatchID != batchIDs[1] || consumed[1].Quantity != 2 {
		t.Fatalf("unexpected second tuple: %+v", consumed[1])
	}

	wantAvailable := map[uuid.UUID]int{
		batchIDs[0]: 0,
		batchIDs[1]: 3,
		batchIDs[2]: 5,
	}
	for id, want := range wantAvailable {
		var batch models.InventoryBatch
		if err := db.First(&batch, "id = ?", id).Error; err != nil {
			t.Fatalf("load batch: %v", err)
		}
		if batch.QuantityAvailable != want {
			t.Fatalf("batch %s: expected %d available, got %d", id, want, batch.QuantityAvailable)
		}
	}

	var outMovements []models.StockMovement
	if err := db.Find(&outMovements, "product_id = ? AND direction = ?", productID, enums.MovementDirectionOut).Error; err != nil {
		t.Fatalf("load movements: %v", err)
	}
	if len(outMovements) != 1 || outMovements[0].Quantity != 7 {
		t.Fatalf("expected one OUT movement of 7, got %+v", outMovements)
	}
}

func TestDepleteInsufficientStockLeavesStateUntouched(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, _ := newTestService(t, db)
	ctx := context.Background()
	productID := seedProduct(t, db, true)

	for i := 0; i < 3; i++ {
		if _, err := svc.ReceiveBatch(ctx, ReceiveBatchInput{
			ProductID: productID,
			Quantity:  5,
			Cause:     enums.MovementCauseInitial,
		}); err != nil {
			t.Fatalf("seed batch: %v", err)
		}
	}

	_, err := svc.Deplete(ctx, DepleteInput{
		ProductID: productID,
		Quantity:  20,
		Cause:     enums.MovementCauseSale,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	details, ok := typed.Details().(map[string]any)
	if !ok || details["available"] != 15 {
		t.Fatalf("expected available=15 in details, got %+v", typed.Details())
	}

	stock, err := svc.CurrentStock(ctx, productID)
	if err != nil {
		t.Fatalf("current stock: %v", err)
	}
	if stock != 15 {
		t.Fatalf("expected stock unchanged at 15, got %d", stock)
	}

	var batches []models.InventoryBatch
	if err := db.Find(&batches, "product_id = ?", productID).Error; err != nil {
		t.Fatalf("load batches: %v", err)
	}
	for _, batch := range batches {
		if batch.QuantityAvailable != 5 {
			t.Fatalf("expected no partial decrement, got %+v", batch)
		}
	}

	var count int64
	if err := db.Model(&models.StockMovement{}).
		Where("product_id = ? AND direction = ?", productID, enums.MovementDirectionOut).
		Count(&count).Error; err != nil {
		t.Fatalf("count movements: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no OUT movements, got %d", count)
	}
}

func TestConservationAcrossOperations(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, _ := newTestService(t, db)
	ctx := context.Background()
	productID := seedProduct(t, db, true)

	for _, qty := range []int{10, 4, 6} {
		if _, err := svc.ReceiveBatch(ctx, ReceiveBatchInput{
			ProductID: productID,
			Quantity:  qty,
			Cause:     enums.MovementCauseInitial,
		}); err != nil {
			t.Fatalf("receive: %v", err)
		}
	}
	for _, qty := range []int{3, 8} {
		if _, err := svc.Deplete(ctx, DepleteInput{
			ProductID: productID,
			Quantity:  qty,
			Cause:     enums.MovementCauseSale,
		}); err != nil {
			t.Fatalf("deplete: %v", err)
		}
	}

	repo := NewRepository(db)
	in, out, err := repo.MovementTotals(ctx, productID)
	if err != nil {
		t.Fatalf("movement totals: %v", err)
	}
	stock, err := svc.CurrentStock(ctx, productID)
	if err != nil {
		t.Fatalf("current stock: %v", err)
	}
	if in-out != stock {
		t.Fatalf("conservation violated: in=%d out=%d stock=%d", in, out, stock)
	}
	if stock != 9 {
		t.Fatalf("expected stock 9, got %d", stock)
	}
}

func TestValuationWeightedAverage(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, _ := newTestService(t, db)
	ctx := context.Background()
	productID := seedProduct(t, db, true)

	for _, seed := range []struct {
		qty  int
		cost string
	}{
		{5, "2.5"},
		{5, "7.5"},
	} {
		if _, err := svc.ReceiveBatch(ctx, ReceiveBatchInput{
			ProductID: productID,
			Quantity:  seed.qty,
			UnitCost:  decimal.RequireFromString(seed.cost),
			Cause:     enums.MovementCauseInitial,
		}); err != nil {
			t.Fatalf("receive: %v", err)
		}
	}

	valuation, err := svc.Valuation(ctx, productID)
	if err != nil {
		t.Fatalf("valuation: %v", err)
	}
	if valuation.Stock != 10 {
		t.Fatalf("expected stock 10, got %d", valuation.Stock)
	}
	if !valuation.WeightedAvgUnitCost.Equal(decimal.RequireFromString("5")) {
		t.Fatalf("expected avg 5, got %s", valuation.WeightedAvgUnitCost)
	}
	if !valuation.TotalValue.Equal(decimal.RequireFromString("50")) {
		t.Fatalf("expected total 50, got %s", valuation.TotalValue)
	}
}

func TestValuationEmptyProduct(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, _ := newTestService(t, db)
	productID := seedProduct(t, db, true)

	valuation, err := svc.Valuation(context.Background(), productID)
	if err != nil {
		t.Fatalf("valuation: %v", err)
	}
	if valuation.Stock != 0 || !valuation.WeightedAvgUnitCost.IsZero() || !valuation.TotalValue.IsZero() {
		t.Fatalf("expected zero valuation, got %+v", valuation)
	}
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:inventory_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Product{}, &models.InventoryBatch{}, &models.StockMovement{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestService(t *testing.T, db *gorm.DB) (Service, *stubOutbox) {
	t.Helper()
	events := &stubOutbox{}
	svc, err := NewService(NewRepository(db), gormTxRunner{db: db}, dbProductFinder{}, events, nil, nil)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc, events
}

type stubValuationCache struct {
	dels []string
}

func (c *stubValuationCache) Del(_ context.Context, keys ...string) error {
	c.dels = append(c.dels, keys...)
	return nil
}

func (c *stubValuationCache) ValuationKey(productID string) string {
	return "test:valuation:" + productID
}

func TestHistoryMalformedCursorIsValidationError(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, _ := newTestService(t, db)
	ctx := context.Background()
	productID := seedProduct(t, db, true)

	_, _, err := svc.History(ctx, productID, pagination.Params{Cursor: "not-a-cursor"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestMutationsDropCachedValuation(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	cache := &stubValuationCache{}
	svc, err := NewService(NewRepository(db), gormTxRunner{db: db}, dbProductFinder{}, &stubOutbox{}, nil, cache)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	ctx := context.Background()
	productID := seedProduct(t, db, true)

	if _, err := svc.ReceiveBatch(ctx, ReceiveBatchInput{
		ProductID: productID,
		Quantity:  10,
		UnitCost:  decimal.RequireFromString("2.50"),
		Cause:     enums.MovementCausePurchase,
	}); err != nil {
		t.Fatalf("receive batch: %v", err)
	}
	if _, err := svc.Deplete(ctx, DepleteInput{
		ProductID: productID,
		Quantity:  7,
		Cause:     enums.MovementCauseAdjustment,
		Reason:    "damage",
	}); err != nil {
		t.Fatalf("deplete: %v", err)
	}

	if len(cache.dels) != 2 {
		t.Fatalf("expected one cache delete per mutation, got %d", len(cache.dels))
	}
	want := cache.ValuationKey(productID.String())
	for _, key := range cache.dels {
		if key != want {
			t.Fatalf("unexpected cache key %q, want %q", key, want)
		}
	}
}

func seedProduct(t *testing.T, db *gorm.DB, active bool) uuid.UUID {
	t.Helper()
	product := models.Product{
		ID:       uuid.New(),
		Name:     "Ceramic Mug",
		SKU:      "MUG-" + uuid.NewString()[:8],
		Price:    decimal.RequireFromString("12.00"),
		IsActive: active,
	}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product.ID
}

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type dbProductFinder struct{}

func (dbProductFinder) FindActiveTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := tx.WithContext(ctx).First(&product, "id = ? AND is_active = ?", id, true).Error
	if err == gorm.ErrRecordNotFound {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

type stubOutbox struct {
	emitted []outbox.DomainEvent
}

func (s *stubOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	s.emitted = append(s.emitted, event)
	return nil
}
