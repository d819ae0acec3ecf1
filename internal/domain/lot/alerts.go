package lot

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/farmaops/farmacia-stock-api/internal/domain/entity"
)

// Niveles de alerta de stock.
const (
	StockLevelNormal    = "normal"
	StockLevelLow       = "low"
	StockLevelCritical  = "critical"
	StockLevelRupture   = "rupture"
	StockLevelOverstock = "overstock"
)

// Niveles de urgencia de vencimiento.
const (
	ExpirationOK          = "ok"
	ExpirationApproaching = "approaching"
	ExpirationCritical    = "critical"
	ExpirationExpired     = "expired"
)

// EffectiveThreshold resuelve el umbral efectivo para un producto:
// umbral de categoría (si existe y está habilitado) sobre el default del producto.
func EffectiveThreshold(product entity.Product, categoryThreshold *entity.AlertThreshold) entity.AlertThreshold {
	if categoryThreshold != nil && categoryThreshold.Enabled {
		return *categoryThreshold
	}
	return entity.AlertThreshold{
		CompanyID:    product.CompanyID,
		LowQty:       product.LowStockQty,
		CriticalQty:  product.CriticalStockQty,
		OverstockQty: product.OverstockQty,
		Enabled:      true,
	}
}

// ClassifyStock clasifica el stock remanente total de un producto contra el
// umbral efectivo. Función pura, sin mutación.
func ClassifyStock(remaining decimal.Decimal, threshold entity.AlertThreshold) string {
	if remaining.LessThanOrEqual(decimal.Zero) {
		return StockLevelRupture
	}
	if threshold.CriticalQty.GreaterThan(decimal.Zero) && remaining.LessThanOrEqual(threshold.CriticalQty) {
		return StockLevelCritical
	}
	if threshold.LowQty.GreaterThan(decimal.Zero) && remaining.LessThanOrEqual(threshold.LowQty) {
		return StockLevelLow
	}
	if threshold.OverstockQty.GreaterThan(decimal.Zero) && remaining.GreaterThan(threshold.OverstockQty) {
		return StockLevelOverstock
	}
	return StockLevelNormal
}

// ClassifyExpiration clasifica la urgencia de vencimiento de un lote según los
// días configurados de alerta y crítico. Lotes sin vencimiento son siempre ok.
func ClassifyExpiration(l entity.Lot, alertDays, criticalDays int, now time.Time) string {
	days, ok := l.DaysToExpiration(now)
	if !ok {
		return ExpirationOK
	}
	// Mismo predicado que Lot.IsExpired: la truncación de días trataría como
	// "critical" un lote vencido hace menos de 24 horas.
	switch {
	case l.IsExpired(now):
		return ExpirationExpired
	case days <= criticalDays:
		return ExpirationCritical
	case days <= alertDays:
		return ExpirationApproaching
	}
	return ExpirationOK
}
