package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto del maestro de catálogo (colaborador externo).
// El motor de lotes solo consume sus campos: familia para resolver la política
// de rotación, umbrales para alertas y parámetros de planificación.
type Product struct {
	ID               string
	CompanyID        string
	SKU              string // código único por empresa
	Name             string
	Description      string
	FamilyID         string // familia/grupo terapéutico, para configuración por familia
	Category         string // categoría de umbrales de alerta
	Price            decimal.Decimal // precio de venta por defecto
	Cost             decimal.Decimal // costo de referencia
	LowStockQty      decimal.Decimal // umbral propio de stock bajo (default si no hay categoría)
	CriticalStockQty decimal.Decimal
	OverstockQty     decimal.Decimal // 0 = sin control
	LeadTimeDays     int             // días de reposición del proveedor
	SafetyStockPct   decimal.Decimal // % de stock de seguridad para punto de reorden
	MinStockDays     int             // banda de días de stock objetivo (planificación)
	MaxStockDays     int
	UnitMeasure      string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
