package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// AlertThreshold define los niveles de disparo por categoría de producto.
// Consumido de solo lectura por el motor de alertas; el CRUD vive en las
// pantallas de configuración.
type AlertThreshold struct {
	ID                     string
	CompanyID              string
	Category               string // vacío = default del tenant
	LowQty                 decimal.Decimal
	CriticalQty            decimal.Decimal
	OverstockQty           decimal.Decimal // 0 = sin control de sobrestock
	ExpirationAlertDays    int
	ExpirationCriticalDays int
	Enabled                bool
	CreatedAt              time.Time
	UpdatedAt              time.Time
}
