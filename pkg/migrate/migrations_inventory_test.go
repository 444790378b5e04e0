package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vendibase/vendibase-backend/pkg/migrate"
)

func TestInventoryMigrationContainsSchemas(t *testing.T) {
	content := readMigration(t, "*_create_inventory_tables.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS inventory_batches",
		"CREATE TABLE IF NOT EXISTS stock_movements",
		"CREATE INDEX IF NOT EXISTS idx_batches_product_received",
		"CONSTRAINT chk_batch_quantities CHECK (quantity_available >= 0 AND quantity_available <= quantity_received)",
		"CONSTRAINT chk_movement_direction CHECK (direction IN ('IN', 'OUT'))",
		"CONSTRAINT chk_movement_cause CHECK (cause IN ('PURCHASE', 'INITIAL', 'ADJUSTMENT', 'SALE'))",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestProductsMigrationContainsSchemas(t *testing.T) {
	content := readMigration(t, "*_create_products_table.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS products",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_products_sku",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestSalesMigrationCapturesUnitCost(t *testing.T) {
	content := readMigration(t, "*_create_events_and_sales_tables.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS sales",
		"CREATE TABLE IF NOT EXISTS sale_lines",
		"unit_cost NUMERIC(16,4)",
		"CONSTRAINT chk_transaction_kind CHECK (kind IN ('income', 'expense'))",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestMigrationsDirValidates(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations dir: %v", err)
	}
}

func readMigration(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration file matching %q", pattern)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}
