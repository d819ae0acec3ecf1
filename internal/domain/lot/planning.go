package lot

import (
	"github.com/shopspring/decimal"

	"github.com/farmaops/farmacia-stock-api/internal/domain/entity"
)

// Plan es la salida consultiva de planificación de compras de un producto.
// No es estado persistido: se deriva de valorización + consumo histórico.
type Plan struct {
	DailyConsumption   decimal.Decimal
	ReorderPoint       decimal.Decimal
	OptimalOrderQty    decimal.Decimal
	CoverageDays       decimal.Decimal // días de stock al ritmo de consumo actual
	EstimatedOrderCost decimal.Decimal
}

// DailyConsumption promedia el consumo (suma de salidas) sobre la ventana en días.
func DailyConsumption(totalConsumed decimal.Decimal, windowDays int) decimal.Decimal {
	if windowDays <= 0 || totalConsumed.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	return totalConsumed.Div(decimal.NewFromInt(int64(windowDays)))
}

// ReorderPoint = consumo diario * lead time * (1 + % stock de seguridad).
func ReorderPoint(dailyConsumption decimal.Decimal, leadTimeDays int, safetyStockPct decimal.Decimal) decimal.Decimal {
	base := dailyConsumption.Mul(decimal.NewFromInt(int64(leadTimeDays)))
	factor := decimal.NewFromInt(1).Add(safetyStockPct.Div(decimal.NewFromInt(100)))
	return base.Mul(factor)
}

// OptimalOrderQuantity lleva el stock al objetivo de MaxStockDays de cobertura.
// Devuelve cero si el stock actual ya cubre la banda.
func OptimalOrderQuantity(dailyConsumption, currentStock decimal.Decimal, maxStockDays int) decimal.Decimal {
	target := dailyConsumption.Mul(decimal.NewFromInt(int64(maxStockDays)))
	qty := target.Sub(currentStock)
	if qty.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	return qty
}

// BuildPlan arma el plan consultivo de un producto a partir de su consumo en la
// ventana, el stock remanente y su valorización unitaria. El punto de reorden
// nunca queda por debajo del piso de la banda (MinStockDays de cobertura).
func BuildPlan(product entity.Product, totalConsumed decimal.Decimal, windowDays int, currentStock, unitValue decimal.Decimal) Plan {
	daily := DailyConsumption(totalConsumed, windowDays)
	rop := ReorderPoint(daily, product.LeadTimeDays, product.SafetyStockPct)
	if floor := daily.Mul(decimal.NewFromInt(int64(product.MinStockDays))); floor.GreaterThan(rop) {
		rop = floor
	}
	plan := Plan{
		DailyConsumption: daily,
		ReorderPoint:     rop,
		OptimalOrderQty:  OptimalOrderQuantity(daily, currentStock, product.MaxStockDays),
	}
	if daily.GreaterThan(decimal.Zero) {
		plan.CoverageDays = currentStock.Div(daily).Round(1)
	}
	plan.EstimatedOrderCost = plan.OptimalOrderQty.Mul(unitValue)
	return plan
}
