package purchases

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/vendibase/vendibase-backend/internal/inventory"
	product "github.com/vendibase/vendibase-backend/internal/products"
	"github.com/vendibase/vendibase-backend/pkg/db/models"
	"github.com/vendibase/vendibase-backend/pkg/enums"
	pkgerrors "github.com/vendibase/vendibase-backend/pkg/errors"
	"github.com/vendibase/vendibase-backend/pkg/outbox"
)

func TestReceiveCreatesOneBatchPerLine(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	productA := seedProduct(t, db)
	productB := seedProduct(t, db)

	purchase, err := svc.Receive(ctx, ReceiveInput{
		Supplier:     "Hangzhou Ceramics Co",
		Currency:     enums.CurrencyUSD,
		ExchangeRate: decimal.NewFromInt(1),
		FreightTotal: decimal.RequireFromString("100"),
		Lines: []ReceiveLineInput{
			{ProductID: productA, Quantity: 3, UnitCostSource: decimal.RequireFromString("10")},
			{ProductID: productB, Quantity: 7, UnitCostSource: decimal.RequireFromString("20")},
		},
	})
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if len(purchase.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(purchase.Lines))
	}

	// Freight 100 over 10 units lands 10 per unit on both lines.
	if !purchase.Lines[0].FreightPerUnit.Equal(decimal.RequireFromString("10")) {
		t.Fatalf("unexpected freight per unit: %s", purchase.Lines[0].FreightPerUnit)
	}
	if !purchase.Lines[0].LandedUnitCost.Equal(decimal.RequireFromString("20")) {
		t.Fatalf("unexpected landed cost line 0: %s", purchase.Lines[0].LandedUnitCost)
	}
	if !purchase.Lines[1].LandedUnitCost.Equal(decimal.RequireFromString("30")) {
		t.Fatalf("unexpected landed cost line 1: %s", purchase.Lines[1].LandedUnitCost)
	}

	var batches []models.InventoryBatch
	if err := db.Order("received_at").Find(&batches).Error; err != nil {
		t.Fatalf("load batches: %v", err)
	}
	if len(batches) != 2 {
		t.Fatalf("expected 2 batches, got %d", len(batches))
	}
	for _, batch := range batches {
		if batch.PurchaseLineID == nil {
			t.Fatalf("expected batch linked to purchase line: %+v", batch)
		}
	}

	var movementCount int64
	if err := db.Model(&models.StockMovement{}).
		Where("cause = ?", enums.MovementCausePurchase).
		Count(&movementCount).Error; err != nil {
		t.Fatalf("count movements: %v", err)
	}
	if movementCount != 2 {
		t.Fatalf("expected 2 IN movements, got %d", movementCount)
	}
}

func TestReceiveConvertsCurrency(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	productID := seedProduct(t, db)

	purchase, err := svc.Receive(context.Background(), ReceiveInput{
		Supplier:     "Jingdezhen Exports",
		Currency:     enums.CurrencyCNY,
		ExchangeRate: decimal.RequireFromString("0.14"),
		FreightTotal: decimal.RequireFromString("50"),
		Lines: []ReceiveLineInput{
			{ProductID: productID, Quantity: 100, UnitCostSource: decimal.RequireFromString("35")},
		},
	})
	if err != nil {
		t.Fatalf("receive: %v", err)
	}

	// 35 CNY x 0.14 + 0.5 freight = 5.40 landed.
	if !purchase.Lines[0].LandedUnitCost.Equal(decimal.RequireFromString("5.4")) {
		t.Fatalf("unexpected landed cost: %s", purchase.Lines[0].LandedUnitCost)
	}
}

func TestReceiveValidation(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	productID := seedProduct(t, db)
	ctx := context.Background()

	cases := []struct {
		name  string
		input ReceiveInput
	}{
		{"no supplier", ReceiveInput{Currency: enums.CurrencyUSD, ExchangeRate: decimal.NewFromInt(1), Lines: []ReceiveLineInput{{ProductID: productID, Quantity: 1}}}},
		{"no lines", ReceiveInput{Supplier: "X", Currency: enums.CurrencyUSD, ExchangeRate: decimal.NewFromInt(1)}},
		{"zero rate", ReceiveInput{Supplier: "X", Currency: enums.CurrencyUSD, ExchangeRate: decimal.Zero, Lines: []ReceiveLineInput{{ProductID: productID, Quantity: 1}}}},
		{"zero quantity line", ReceiveInput{Supplier: "X", Currency: enums.CurrencyUSD, ExchangeRate: decimal.NewFromInt(1), Lines: []ReceiveLineInput{{ProductID: productID, Quantity: 0}}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Receive(ctx, tc.input)
			if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestReceiveRollsBackOnUnknownProduct(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	known := seedProduct(t, db)

	_, err := svc.Receive(context.Background(), ReceiveInput{
		Supplier:     "X",
		Currency:     enums.CurrencyUSD,
		ExchangeRate: decimal.NewFromInt(1),
		Lines: []ReceiveLineInput{
			{ProductID: known, Quantity: 2, UnitCostSource: decimal.NewFromInt(1)},
			{ProductID: uuid.New(), Quantity: 2, UnitCostSource: decimal.NewFromInt(1)},
		},
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}

	var purchases, batches int64
	if err := db.Model(&models.Purchase{}).Count(&purchases).Error; err != nil {
		t.Fatalf("count purchases: %v", err)
	}
	if err := db.Model(&models.InventoryBatch{}).Count(&batches).Error; err != nil {
		t.Fatalf("count batches: %v", err)
	}
	if purchases != 0 || batches != 0 {
		t.Fatalf("expected full rollback, got purchases=%d batches=%d", purchases, batches)
	}
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:purchases_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	err = db.AutoMigrate(
		&models.Product{},
		&models.InventoryBatch{},
		&models.StockMovement{},
		&models.Purchase{},
		&models.PurchaseLine{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	events := &stubOutbox{}
	invSvc, err := inventory.NewService(
		inventory.NewRepository(db),
		gormTxRunner{db: db},
		product.NewRepository(db),
		events,
		nil,
		nil,
	)
	if err != nil {
		t.Fatalf("build inventory service: %v", err)
	}
	svc, err := NewService(NewRepository(db), gormTxRunner{db: db}, invSvc, events)
	if err != nil {
		t.Fatalf("build purchase service: %v", err)
	}
	return svc
}

func seedProduct(t *testing.T, db *gorm.DB) uuid.UUID {
	t.Helper()
	row := models.Product{
		ID:       uuid.New(),
		Name:     "Ceramic Mug",
		SKU:      "MUG-" + uuid.NewString()[:8],
		Price:    decimal.RequireFromString("12.00"),
		IsActive: true,
	}
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return row.ID
}

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type stubOutbox struct {
	emitted []outbox.DomainEvent
}

func (s *stubOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	s.emitted = append(s.emitted, event)
	return nil
}
