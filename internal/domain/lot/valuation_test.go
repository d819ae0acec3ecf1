package lot_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farmaops/farmacia-stock-api/internal/domain"
	"github.com/farmaops/farmacia-stock-api/internal/domain/entity"
	"github.com/farmaops/farmacia-stock-api/internal/domain/lot"
)

func TestValueProduct(t *testing.T) {
	now := time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)

	lotA := testLot("A", datePtr(2025, 1, 10), 20, 110)
	lotB := testLot("B", datePtr(2025, 2, 1), 30, 100)

	t.Run("FIFO valora cada remanente al costo del propio lote", func(t *testing.T) {
		v, err := lot.ValueProduct([]entity.Lot{lotB, lotA}, lot.ValuationMethodFIFO, 2, false, now)
		require.NoError(t, err)

		assert.True(t, v.TotalQuantity.Equal(decimal.NewFromInt(50)))
		// 20*110 + 30*100 = 5200
		assert.True(t, v.TotalValue.Equal(decimal.NewFromInt(5200)), "total: %s", v.TotalValue)
		require.Len(t, v.LotsUsed, 2)
		assert.Equal(t, "A", v.LotsUsed[0].LotID, "FIFO reporta el más antiguo primero")
		assert.True(t, v.LotsUsed[0].Value.Equal(decimal.NewFromInt(2200)))
	})

	t.Run("LIFO difiere de FIFO solo en el orden reportado", func(t *testing.T) {
		v, err := lot.ValueProduct([]entity.Lot{lotA, lotB}, lot.ValuationMethodLIFO, 2, false, now)
		require.NoError(t, err)
		assert.True(t, v.TotalValue.Equal(decimal.NewFromInt(5200)))
		assert.Equal(t, "B", v.LotsUsed[0].LotID, "LIFO reporta el más reciente primero")
	})

	t.Run("PMP divide el total entre la cantidad", func(t *testing.T) {
		v, err := lot.ValueProduct([]entity.Lot{lotA, lotB}, lot.ValuationMethodPMP, 2, false, now)
		require.NoError(t, err)
		// 5200 / 50 = 104
		assert.True(t, v.UnitValue.Equal(decimal.NewFromInt(104)))
	})

	t.Run("un solo lote degenera al mismo valor en los tres métodos", func(t *testing.T) {
		single := []entity.Lot{lotA}
		for _, method := range []string{lot.ValuationMethodFIFO, lot.ValuationMethodLIFO, lot.ValuationMethodPMP} {
			v, err := lot.ValueProduct(single, method, 2, false, now)
			require.NoError(t, err)
			assert.True(t, v.TotalValue.Equal(decimal.NewFromInt(2200)), "método %s", method)
			assert.True(t, v.UnitValue.Equal(decimal.NewFromInt(110)), "método %s", method)
		}
	})

	t.Run("redondeo una sola vez al final", func(t *testing.T) {
		// Tres lotes con tercios: el redondeo por lote acumularía error.
		third := decimal.NewFromInt(1).Div(decimal.NewFromInt(3))
		l1 := testLot("T1", datePtr(2025, 1, 1), 1, 0)
		l1.UnitCost = third
		l2 := testLot("T2", datePtr(2025, 1, 2), 1, 0)
		l2.UnitCost = third
		l3 := testLot("T3", datePtr(2025, 1, 3), 1, 0)
		l3.UnitCost = third

		v, err := lot.ValueProduct([]entity.Lot{l1, l2, l3}, lot.ValuationMethodFIFO, 2, false, now)
		require.NoError(t, err)
		// 3 * (1/3) = 1.00 exacto; redondear por lote habría dado 0.99
		assert.True(t, v.TotalValue.Equal(decimal.NewFromInt(1)), "total: %s", v.TotalValue)
	})

	t.Run("exclusión de vencidos solo si el flag lo pide", func(t *testing.T) {
		expired := testLot("V", datePtr(2024, 11, 1), 10, 100)

		with, err := lot.ValueProduct([]entity.Lot{expired, lotA}, lot.ValuationMethodFIFO, 2, false, now)
		require.NoError(t, err)
		assert.True(t, with.TotalQuantity.Equal(decimal.NewFromInt(30)))

		without, err := lot.ValueProduct([]entity.Lot{expired, lotA}, lot.ValuationMethodFIFO, 2, true, now)
		require.NoError(t, err)
		assert.True(t, without.TotalQuantity.Equal(decimal.NewFromInt(20)))
	})

	t.Run("sin lotes remanentes devuelve ceros", func(t *testing.T) {
		v, err := lot.ValueProduct(nil, lot.ValuationMethodPMP, 2, false, now)
		require.NoError(t, err)
		assert.True(t, v.TotalQuantity.IsZero())
		assert.True(t, v.TotalValue.IsZero())
		assert.True(t, v.UnitValue.IsZero())
	})

	t.Run("método inválido", func(t *testing.T) {
		_, err := lot.ValueProduct(nil, "HIFO", 2, false, now)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestCostCalculator(t *testing.T) {
	t.Run("promedio ponderado de entrada sobre stock existente", func(t *testing.T) {
		// (100*10 + 50*16) / 150 = 12
		got := lot.CostCalculator(
			decimal.NewFromInt(100), decimal.NewFromInt(10),
			decimal.NewFromInt(50), decimal.NewFromInt(16),
		)
		assert.True(t, got.Equal(decimal.NewFromInt(12)), "got %s", got)
	})

	t.Run("sin stock previo adopta el costo de entrada", func(t *testing.T) {
		got := lot.CostCalculator(decimal.Zero, decimal.Zero, decimal.NewFromInt(50), decimal.NewFromInt(16))
		assert.True(t, got.Equal(decimal.NewFromInt(16)))
	})

	t.Run("suma cero devuelve cero", func(t *testing.T) {
		got := lot.CostCalculator(decimal.Zero, decimal.NewFromInt(10), decimal.Zero, decimal.NewFromInt(16))
		assert.True(t, got.IsZero())
	})
}

func TestBuildPlan(t *testing.T) {
	product := entity.Product{
		LeadTimeDays:   10,
		SafetyStockPct: decimal.NewFromInt(20),
		MaxStockDays:   30,
	}

	t.Run("deriva punto de reorden y cantidad óptima", func(t *testing.T) {
		// consumo 90 en 90 días -> 1/día; ROP = 1*10*1.2 = 12
		plan := lot.BuildPlan(product, decimal.NewFromInt(90), 90, decimal.NewFromInt(6), decimal.NewFromInt(100))
		assert.True(t, plan.DailyConsumption.Equal(decimal.NewFromInt(1)))
		assert.True(t, plan.ReorderPoint.Equal(decimal.NewFromInt(12)), "rop: %s", plan.ReorderPoint)
		// objetivo 30 días = 30 unidades; faltan 24
		assert.True(t, plan.OptimalOrderQty.Equal(decimal.NewFromInt(24)))
		assert.True(t, plan.CoverageDays.Equal(decimal.NewFromInt(6)))
		assert.True(t, plan.EstimatedOrderCost.Equal(decimal.NewFromInt(2400)))
	})

	t.Run("el piso de la banda eleva el punto de reorden", func(t *testing.T) {
		floored := product
		floored.MinStockDays = 15
		// base = 1*10*1.2 = 12; piso = 1*15 = 15
		plan := lot.BuildPlan(floored, decimal.NewFromInt(90), 90, decimal.NewFromInt(6), decimal.NewFromInt(100))
		assert.True(t, plan.ReorderPoint.Equal(decimal.NewFromInt(15)), "rop: %s", plan.ReorderPoint)
	})

	t.Run("sin consumo histórico no sugiere pedido", func(t *testing.T) {
		plan := lot.BuildPlan(product, decimal.Zero, 90, decimal.NewFromInt(6), decimal.NewFromInt(100))
		assert.True(t, plan.DailyConsumption.IsZero())
		assert.True(t, plan.OptimalOrderQty.IsZero())
		assert.True(t, plan.CoverageDays.IsZero())
	})

	t.Run("stock por encima del objetivo no sugiere pedido", func(t *testing.T) {
		plan := lot.BuildPlan(product, decimal.NewFromInt(90), 90, decimal.NewFromInt(40), decimal.NewFromInt(100))
		assert.True(t, plan.OptimalOrderQty.IsZero())
	})
}
