package dto

import "github.com/shopspring/decimal"

// CreateProductRequest alta mínima en el maestro de productos (colaborador
// externo; el motor solo necesita familia, umbrales y precios por defecto).
type CreateProductRequest struct {
	SKU              string          `json:"sku" validate:"required,max=100"`
	Name             string          `json:"name" validate:"required,max=300"`
	Description      string          `json:"description,omitempty"`
	FamilyID         string          `json:"family_id,omitempty"`
	Category         string          `json:"category,omitempty"`
	Price            decimal.Decimal `json:"price"`
	Cost             decimal.Decimal `json:"cost"`
	LowStockQty      decimal.Decimal `json:"low_stock_qty"`
	CriticalStockQty decimal.Decimal `json:"critical_stock_qty"`
	OverstockQty     decimal.Decimal `json:"overstock_qty"`
	LeadTimeDays     int             `json:"lead_time_days"`
	SafetyStockPct   decimal.Decimal `json:"safety_stock_pct"`
	MinStockDays     int             `json:"min_stock_days"`
	MaxStockDays     int             `json:"max_stock_days"`
	UnitMeasure      string          `json:"unit_measure,omitempty"`
}
