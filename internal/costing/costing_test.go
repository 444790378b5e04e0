package costing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/vendibase/vendibase-backend/pkg/errors"
)

func TestAllocateFreightUniformPerUnit(t *testing.T) {
	t.Parallel()

	perUnit, err := AllocateFreight(decimal.RequireFromString("100"), 10)
	require.NoError(t, err)
	assert.True(t, perUnit.Equal(decimal.RequireFromString("10")), "per unit = %s", perUnit)

	// Two lines of 3 and 7 units share the same per-unit freight, and the
	// allocated total reconciles with the freight paid.
	lineA := perUnit.Mul(decimal.NewFromInt(3))
	lineB := perUnit.Mul(decimal.NewFromInt(7))
	assert.True(t, lineA.Add(lineB).Equal(decimal.RequireFromString("100")))
}

func TestAllocateFreightRounding(t *testing.T) {
	t.Parallel()

	perUnit, err := AllocateFreight(decimal.RequireFromString("100"), 3)
	require.NoError(t, err)
	assert.True(t, perUnit.Equal(decimal.RequireFromString("33.3333")), "per unit = %s", perUnit)

	// The rounded allocation stays within a half-unit-of-precision per unit.
	total := perUnit.Mul(decimal.NewFromInt(3))
	diff := total.Sub(decimal.RequireFromString("100")).Abs()
	assert.True(t, diff.LessThanOrEqual(decimal.RequireFromString("0.0002")), "diff = %s", diff)
}

func TestAllocateFreightZeroQuantity(t *testing.T) {
	t.Parallel()

	_, err := AllocateFreight(decimal.RequireFromString("100"), 0)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestLandedUnitCost(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		source   string
		rate     string
		freight  string
		expected string
	}{
		{"domestic no freight", "4.50", "1", "0", "4.5"},
		{"converted with freight", "100", "0.055", "1.25", "6.75"},
		{"rounds to four places", "3.333333", "1", "0", "3.3333"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := LandedUnitCost(
				decimal.RequireFromString(tc.source),
				decimal.RequireFromString(tc.rate),
				decimal.RequireFromString(tc.freight),
			)
			require.NoError(t, err)
			assert.True(t, got.Equal(decimal.RequireFromString(tc.expected)), "got %s", got)
		})
	}
}

func TestLandedUnitCostValidation(t *testing.T) {
	t.Parallel()

	one := decimal.NewFromInt(1)
	negative := decimal.NewFromInt(-1)

	_, err := LandedUnitCost(negative, one, decimal.Zero)
	require.NotNil(t, pkgerrors.As(err))

	_, err = LandedUnitCost(one, decimal.Zero, decimal.Zero)
	require.NotNil(t, pkgerrors.As(err))

	_, err = LandedUnitCost(one, one, negative)
	require.NotNil(t, pkgerrors.As(err))
}
