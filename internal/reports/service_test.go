package reports

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/vendibase/vendibase-backend/internal/inventory"
	"github.com/vendibase/vendibase-backend/pkg/db/models"
	"github.com/vendibase/vendibase-backend/pkg/enums"
	pkgerrors "github.com/vendibase/vendibase-backend/pkg/errors"
	"github.com/vendibase/vendibase-backend/pkg/outbox"
)

func TestProductValuationCachesResult(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	cache := newStubCache()
	svc, inv := newTestService(t, db, cache)
	ctx := context.Background()

	productID := seedProduct(t, db, "Mug", "MUG-1")
	receiveBatch(t, ctx, inv, productID, 10, "2.50")

	first, err := svc.ProductValuation(ctx, productID)
	if err != nil {
		t.Fatalf("valuation: %v", err)
	}
	if first.Stock != 10 {
		t.Fatalf("expected stock 10, got %d", first.Stock)
	}
	if !first.TotalValue.Equal(decimal.RequireFromString("25")) {
		t.Fatalf("expected total value 25, got %s", first.TotalValue)
	}
	if cache.sets != 1 {
		t.Fatalf("expected one cache write, got %d", cache.sets)
	}

	// Second read must come from the cache, not the batch store.
	second, err := svc.ProductValuation(ctx, productID)
	if err != nil {
		t.Fatalf("cached valuation: %v", err)
	}
	if second.Stock != 10 {
		t.Fatalf("expected cached stock 10, got %d", second.Stock)
	}
	if cache.gets < 2 || cache.sets != 1 {
		t.Fatalf("expected cache hit without rewrite, gets=%d sets=%d", cache.gets, cache.sets)
	}
}

func TestStockMutationInvalidatesValuation(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	cache := newStubCache()
	svc, inv := newTestService(t, db, cache)
	ctx := context.Background()

	productID := seedProduct(t, db, "Tumbler", "TMB-1")
	receiveBatch(t, ctx, inv, productID, 10, "2.50")

	first, err := svc.ProductValuation(ctx, productID)
	if err != nil {
		t.Fatalf("valuation: %v", err)
	}
	if first.Stock != 10 {
		t.Fatalf("expected stock 10, got %d", first.Stock)
	}

	if _, err := inv.Deplete(ctx, inventory.DepleteInput{
		ProductID: productID,
		Quantity:  7,
		Cause:     enums.MovementCauseAdjustment,
		Reason:    "shrinkage",
	}); err != nil {
		t.Fatalf("deplete: %v", err)
	}

	afterDeplete, err := svc.ProductValuation(ctx, productID)
	if err != nil {
		t.Fatalf("valuation after deplete: %v", err)
	}
	if afterDeplete.Stock != 3 {
		t.Fatalf("expected recomputed stock 3 after depleting 7, got %d", afterDeplete.Stock)
	}

	receiveBatch(t, ctx, inv, productID, 5, "4.00")
	afterReceive, err := svc.ProductValuation(ctx, productID)
	if err != nil {
		t.Fatalf("valuation after receive: %v", err)
	}
	if afterReceive.Stock != 8 {
		t.Fatalf("expected recomputed stock 8 after receiving 5, got %d", afterReceive.Stock)
	}
}

func TestInvalidateValuationForcesRecompute(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	cache := newStubCache()
	svc, inv := newTestService(t, db, cache)
	ctx := context.Background()

	productID := seedProduct(t, db, "Print", "PRT-1")
	receiveBatch(t, ctx, inv, productID, 4, "10")

	if _, err := svc.ProductValuation(ctx, productID); err != nil {
		t.Fatalf("valuation: %v", err)
	}
	receiveBatch(t, ctx, inv, productID, 6, "10")
	if err := svc.InvalidateValuation(ctx, productID); err != nil {
		t.Fatalf("invalidate: %v", err)
	}

	fresh, err := svc.ProductValuation(ctx, productID)
	if err != nil {
		t.Fatalf("fresh valuation: %v", err)
	}
	if fresh.Stock != 10 {
		t.Fatalf("expected recomputed stock 10, got %d", fresh.Stock)
	}
}

func TestInventorySummaryTotals(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, inv := newTestService(t, db, nil)
	ctx := context.Background()

	mugs := seedProduct(t, db, "Mug", "MUG-2")
	prints := seedProduct(t, db, "Print", "PRT-2")
	receiveBatch(t, ctx, inv, mugs, 10, "2.50")
	receiveBatch(t, ctx, inv, prints, 5, "8")

	summary, err := svc.InventorySummary(ctx)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if len(summary.Products) != 2 {
		t.Fatalf("expected 2 products, got %d", len(summary.Products))
	}
	if summary.TotalUnits != 15 {
		t.Fatalf("expected 15 total units, got %d", summary.TotalUnits)
	}
	if !summary.TotalValue.Equal(decimal.RequireFromString("65")) {
		t.Fatalf("expected total value 65, got %s", summary.TotalValue)
	}
}

func TestLowStock(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, inv := newTestService(t, db, nil)
	ctx := context.Background()

	plenty := seedProduct(t, db, "Sticker", "STK-1")
	scarce := seedProduct(t, db, "Tote", "TOT-1")
	empty := seedProduct(t, db, "Poster", "PST-1")
	receiveBatch(t, ctx, inv, plenty, 50, "0.20")
	receiveBatch(t, ctx, inv, scarce, 2, "6")
	_ = empty

	low, err := svc.LowStock(ctx, 3)
	if err != nil {
		t.Fatalf("low stock: %v", err)
	}
	if len(low) != 2 {
		t.Fatalf("expected 2 low-stock rows, got %d", len(low))
	}
	for _, row := range low {
		if row.ProductID == plenty {
			t.Fatalf("well-stocked product reported as low")
		}
	}

	if _, err := svc.LowStock(ctx, -1); pkgerrors.As(err) == nil {
		t.Fatalf("expected validation error for negative threshold")
	}
}

func TestProfitSummaryWindow(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, _ := newTestService(t, db, nil)
	ctx := context.Background()

	from := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	seedSale(t, db, from.Add(24*time.Hour), "200", "20", "100", 2, "100")
	seedSale(t, db, from.Add(48*time.Hour), "300", "30", "100", 3, "180")
	// Outside the window, must not count.
	seedSale(t, db, to.Add(time.Hour), "999", "99", "999", 1, "999")

	summary, err := svc.ProfitSummary(ctx, from, to)
	if err != nil {
		t.Fatalf("profit summary: %v", err)
	}
	if summary.SaleCount != 2 {
		t.Fatalf("expected 2 sales, got %d", summary.SaleCount)
	}
	if !summary.TotalSales.Equal(decimal.RequireFromString("500")) {
		t.Fatalf("expected total sales 500, got %s", summary.TotalSales)
	}
	if !summary.CostOfGoods.Equal(decimal.RequireFromString("280")) {
		t.Fatalf("expected cost of goods 280, got %s", summary.CostOfGoods)
	}
	// Line profits: (200-100) + (300-180) = 220; minus tax 50.
	if !summary.GrossProfit.Equal(decimal.RequireFromString("170")) {
		t.Fatalf("expected gross profit 170, got %s", summary.GrossProfit)
	}

	if _, err := svc.ProfitSummary(ctx, to, from); pkgerrors.As(err) == nil {
		t.Fatalf("expected validation error for inverted window")
	}
}

type stubCache struct {
	data map[string]string
	gets int
	sets int
}

func newStubCache() *stubCache {
	return &stubCache{data: map[string]string{}}
}

func (c *stubCache) Get(_ context.Context, key string) (string, error) {
	c.gets++
	value, ok := c.data[key]
	if !ok {
		return "", fmt.Errorf("cache miss")
	}
	return value, nil
}

func (c *stubCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	c.sets++
	payload, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("unexpected payload type %T", value)
	}
	c.data[key] = string(payload)
	return nil
}

func (c *stubCache) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(c.data, key)
	}
	return nil
}

func (c *stubCache) ValuationKey(productID string) string {
	return "test:valuation:" + productID
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

type stubOutbox struct{}

func (stubOutbox) Emit(context.Context, *gorm.DB, outbox.DomainEvent) error { return nil }

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:reports_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	err = db.AutoMigrate(
		&models.Product{},
		&models.InventoryBatch{},
		&models.StockMovement{},
		&models.Sale{},
		&models.SaleLine{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestService(t *testing.T, db *gorm.DB, cache *stubCache) (Service, inventory.Service) {
	t.Helper()
	var c valuationCache
	if cache != nil {
		c = cache
	}
	inv, err := inventory.NewService(inventory.NewRepository(db), gormTxRunner{db: db}, dbProductFinder{}, stubOutbox{}, nil, c)
	if err != nil {
		t.Fatalf("build inventory service: %v", err)
	}
	svc, err := NewService(NewRepository(db), inv, c, time.Minute)
	if err != nil {
		t.Fatalf("build reports service: %v", err)
	}
	return svc, inv
}

func seedProduct(t *testing.T, db *gorm.DB, name, sku string) uuid.UUID {
	t.Helper()
	product := models.Product{
		ID:       uuid.New(),
		Name:     name,
		SKU:      sku,
		Price:    decimal.RequireFromString("9.99"),
		IsActive: true,
	}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product.ID
}

func receiveBatch(t *testing.T, ctx context.Context, inv inventory.Service, productID uuid.UUID, quantity int, unitCost string) {
	t.Helper()
	_, err := inv.ReceiveBatch(ctx, inventory.ReceiveBatchInput{
		ProductID:  productID,
		Quantity:   quantity,
		UnitCost:   decimal.RequireFromString(unitCost),
		ReceivedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Cause:      enums.MovementCauseAdjustment,
		Reason:     "test seed",
	})
	if err != nil {
		t.Fatalf("receive batch: %v", err)
	}
}

func seedSale(t *testing.T, db *gorm.DB, soldAt time.Time, total, tax, unitPrice string, quantity int, lineCost string) {
	t.Helper()
	sale := models.Sale{
		ID:     uuid.New(),
		Total:  decimal.RequireFromString(total),
		Tax:    decimal.RequireFromString(tax),
		SoldAt: soldAt,
	}
	lineTotal := decimal.RequireFromString(unitPrice).Mul(decimal.NewFromInt(int64(quantity)))
	sale.Lines = []models.SaleLine{{
		ID:        uuid.New(),
		SaleID:    sale.ID,
		ProductID: uuid.New(),
		Quantity:  quantity,
		UnitPrice: decimal.RequireFromString(unitPrice),
		UnitCost:  decimal.RequireFromString(lineCost).Div(decimal.NewFromInt(int64(quantity))).Round(4),
		LineTotal: lineTotal,
	}}
	if err := db.Create(&sale).Error; err != nil {
		t.Fatalf("seed sale: %v", err)
	}
}
