// Package costing computes landed unit costs for received stock: purchase
// price converted to the reporting currency plus an allocated freight share.
package costing

import (
	"github.com/shopspring/decimal"

	pkgerrors "github.com/vendibase/vendibase-backend/pkg/errors"
)

// Precision is the decimal precision for unit costs.
const Precision int32 = 4

// AllocateFreight returns the per-unit freight share for a purchase. Freight
// is spread uniformly across every unit in the purchase, so a line's total
// share stays proportional to its quantity. A purchase with zero total
// quantity cannot allocate freight.
func AllocateFreight(freightTotal decimal.Decimal, totalQuantity int) (decimal.Decimal, error) {
	if totalQuantity <= 0 {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "cannot allocate freight over zero purchased quantity")
	}
	if freightTotal.IsNegative() {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "freight total must not be negative")
	}
	return freightTotal.Div(decimal.NewFromInt(int64(totalQuantity))).Round(Precision), nil
}

// LandedUnitCost converts the source-currency cost and adds the freight
// share: round(source_cost x exchange_rate + freight_per_unit, 4).
func LandedUnitCost(unitCostSource, exchangeRate, freightPerUnit decimal.Decimal) (decimal.Decimal, error) {
	if unitCostSource.IsNegative() {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "unit cost must not be negative")
	}
	if exchangeRate.Sign() <= 0 {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "exchange rate must be positive")
	}
	if freightPerUnit.IsNegative() {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "freight per unit must not be negative")
	}
	return unitCostSource.Mul(exchangeRate).Add(freightPerUnit).Round(Precision), nil
}
