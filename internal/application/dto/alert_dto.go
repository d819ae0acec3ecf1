package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// SaveThresholdRequest body para PUT /api/alerts/thresholds.
type SaveThresholdRequest struct {
	ID                     string          `json:"id,omitempty"`
	Category               string          `json:"category,omitempty"` // vacío = default del tenant
	LowQty                 decimal.Decimal `json:"low_qty"`
	CriticalQty            decimal.Decimal `json:"critical_qty"`
	OverstockQty           decimal.Decimal `json:"overstock_qty"`
	ExpirationAlertDays    int             `json:"expiration_alert_days"`
	ExpirationCriticalDays int             `json:"expiration_critical_days"`
	Enabled                bool            `json:"enabled"`
}

// StockAlertResponse clasificación de stock de un producto.
type StockAlertResponse struct {
	ProductID string          `json:"product_id"`
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	Remaining decimal.Decimal `json:"remaining"`
	Level     string          `json:"level"`
}

// ExpirationAlertResponse urgencia de vencimiento de un lote.
type ExpirationAlertResponse struct {
	LotID            string          `json:"lot_id"`
	LotNumber        string          `json:"lot_number"`
	ProductID        string          `json:"product_id"`
	ExpirationDate   *time.Time      `json:"expiration_date,omitempty"`
	DaysToExpiration int             `json:"days_to_expiration"`
	Remaining        decimal.Decimal `json:"remaining"`
	Urgency          string          `json:"urgency"`
}
