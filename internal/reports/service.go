// Package reports serves the read side of the dashboard: stock valuation,
// low-stock warnings, and sales profit summaries. It never writes domain
// state; valuations are cached in Redis and recomputed on a miss.
package reports

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vendibase/vendibase-backend/internal/inventory"
	pkgerrors "github.com/vendibase/vendibase-backend/pkg/errors"
)

type productValuer interface {
	Valuation(ctx context.Context, productID uuid.UUID) (inventory.Valuation, error)
}

type valuationCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	ValuationKey(productID string) string
}

// ProductValuation is a per-product valuation row.
type ProductValuation struct {
	ProductID           uuid.UUID       `json:"product_id"`
	Stock               int             `json:"stock"`
	WeightedAvgUnitCost decimal.Decimal `json:"weighted_avg_unit_cost"`
	TotalValue          decimal.Decimal `json:"total_value"`
}

// InventorySummary aggregates valuations across all active products.
type InventorySummary struct {
	Products   []ProductValuation
	TotalUnits int
	TotalValue decimal.Decimal
}

// ProfitSummary aggregates sales figures over a time window.
type ProfitSummary struct {
	From        time.Time
	To          time.Time
	SaleCount   int
	TotalSales  decimal.Decimal
	TotalTax    decimal.Decimal
	CostOfGoods decimal.Decimal
	GrossProfit decimal.Decimal
}

// Service is the dashboard query surface.
type Service interface {
	ProductValuation(ctx context.Context, productID uuid.UUID) (ProductValuation, error)
	InvalidateValuation(ctx context.Context, productID uuid.UUID) error
	InventorySummary(ctx context.Context) (*InventorySummary, error)
	LowStock(ctx context.Context, threshold int) ([]ProductStock, error)
	ProfitSummary(ctx context.Context, from, to time.Time) (*ProfitSummary, error)
}

type service struct {
	repo     *Repository
	valuer   productValuer
	cache    valuationCache
	cacheTTL time.Duration
}

// NewService builds the reports service. Cache may be nil, in which case
// every valuation is computed from the batch store.
func NewService(repo *Repository, valuer productValuer, cache valuationCache, cacheTTL time.Duration) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("reports repository required")
	}
	if valuer == nil {
		return nil, fmt.Errorf("product valuer required")
	}
	return &service{repo: repo, valuer: valuer, cache: cache, cacheTTL: cacheTTL}, nil
}

func (s *service) ProductValuation(ctx context.Context, productID uuid.UUID) (ProductValuation, error) {
	if productID == uuid.Nil {
		return ProductValuation{}, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}

	if cached, ok := s.cachedValuation(ctx, productID); ok {
		return cached, nil
	}

	valuation, err := s.valuer.Valuation(ctx, productID)
	if err != nil {
		return ProductValuation{}, err
	}
	row := ProductValuation{
		ProductID:           productID,
		Stock:               valuation.Stock,
		WeightedAvgUnitCost: valuation.WeightedAvgUnitCost,
		TotalValue:          valuation.TotalValue,
	}
	s.storeValuation(ctx, row)
	return row, nil
}

func (s *service) InvalidateValuation(ctx context.Context, productID uuid.UUID) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Del(ctx, s.cache.ValuationKey(productID.String()))
}

func (s *service) InventorySummary(ctx context.Context) (*InventorySummary, error) {
	rows, err := s.repo.StockByProduct(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate stock")
	}

	summary := &InventorySummary{
		Products:   make([]ProductValuation, 0, len(rows)),
		TotalValue: decimal.Zero,
	}
	for _, row := range rows {
		valuation, err := s.ProductValuation(ctx, row.ProductID)
		if err != nil {
			return nil, err
		}
		summary.Products = append(summary.Products, valuation)
		summary.TotalUnits += valuation.Stock
		summary.TotalValue = summary.TotalValue.Add(valuation.TotalValue)
	}
	return summary, nil
}

func (s *service) LowStock(ctx context.Context, threshold int) ([]ProductStock, error) {
	if threshold < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "threshold must not be negative")
	}
	rows, err := s.repo.StockByProduct(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate stock")
	}
	low := make([]ProductStock, 0)
	for _, row := range rows {
		if row.Stock <= threshold {
			low = append(low, row)
		}
	}
	return low, nil
}

func (s *service) ProfitSummary(ctx context.Context, from, to time.Time) (*ProfitSummary, error) {
	if from.IsZero() || to.IsZero() || !to.After(from) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "window must end after it starts")
	}

	rows, err := s.repo.SalesBetween(ctx, from, to)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "query sales window")
	}

	summary := &ProfitSummary{
		From:        from,
		To:          to,
		SaleCount:   len(rows),
		TotalSales:  decimal.Zero,
		TotalTax:    decimal.Zero,
		CostOfGoods: decimal.Zero,
	}
	lineProfit := decimal.Zero
	for _, sale := range rows {
		summary.TotalSales = summary.TotalSales.Add(sale.Total)
		summary.TotalTax = summary.TotalTax.Add(sale.Tax)
		for _, line := range sale.Lines {
			cost := line.UnitCost.Mul(decimal.NewFromInt(int64(line.Quantity)))
			summary.CostOfGoods = summary.CostOfGoods.Add(cost)
			lineProfit = lineProfit.Add(line.Profit())
		}
	}
	summary.CostOfGoods = summary.CostOfGoods.Round(inventory.MoneyPrecision)
	summary.GrossProfit = lineProfit.Sub(summary.TotalTax).Round(inventory.MoneyPrecision)
	return summary, nil
}

func (s *service) cachedValuation(ctx context.Context, productID uuid.UUID) (ProductValuation, bool) {
	if s.cache == nil {
		return ProductValuation{}, false
	}
	raw, err := s.cache.Get(ctx, s.cache.ValuationKey(productID.String()))
	if err != nil || raw == "" {
		return ProductValuation{}, false
	}
	var row ProductValuation
	if err := json.Unmarshal([]byte(raw), &row); err != nil {
		return ProductValuation{}, false
	}
	return row, true
}

func (s *service) storeValuation(ctx context.Context, row ProductValuation) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(row)
	if err != nil {
		return
	}
	// Best effort; a failed write just means the next read recomputes.
	_ = s.cache.Set(ctx, s.cache.ValuationKey(row.ProductID.String()), payload, s.cacheTTL)
}
