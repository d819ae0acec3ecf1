package dto

import "github.com/shopspring/decimal"

// LotValueDTO aporte de un lote a la valorización.
type LotValueDTO struct {
	LotID     string          `json:"lot_id"`
	LotNumber string          `json:"lot_number"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
	Value     decimal.Decimal `json:"value"`
}

// ValuationResponse valorización del stock remanente de un producto.
type ValuationResponse struct {
	ProductID     string          `json:"product_id"`
	Method        string          `json:"method"`
	TotalQuantity decimal.Decimal `json:"total_quantity"`
	TotalValue    decimal.Decimal `json:"total_value"`
	UnitValue     decimal.Decimal `json:"unit_value"`
	LotsUsed      []LotValueDTO   `json:"lots_used"`
}

// PlanResponse salidas consultivas de planificación de compras.
type PlanResponse struct {
	ProductID          string          `json:"product_id"`
	DailyConsumption   decimal.Decimal `json:"daily_consumption"`
	ReorderPoint       decimal.Decimal `json:"reorder_point"`
	OptimalOrderQty    decimal.Decimal `json:"optimal_order_qty"`
	CoverageDays       decimal.Decimal `json:"coverage_days"`
	EstimatedOrderCost decimal.Decimal `json:"estimated_order_cost"`
}
