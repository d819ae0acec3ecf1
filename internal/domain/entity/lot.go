package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de un lote. Un lote nunca se elimina físicamente: agotado es un estado.
const (
	LotStatusActive   = "active"
	LotStatusBlocked  = "blocked"
	LotStatusExpired  = "expired"
	LotStatusDepleted = "depleted"
)

// Lot representa un lote: una partida de un producto recibida junta, con su propio
// vencimiento y costo. RemainingQuantity se deriva exclusivamente del libro de
// movimientos; ningún otro camino de código la escribe directamente.
type Lot struct {
	ID               string
	CompanyID        string
	ProductID        string
	LotNumber        string // código humano, no único globalmente
	SupplierID       *string
	ManufactureDate  *time.Time
	ReceptionDate    time.Time
	ExpirationDate   *time.Time
	InitialQuantity  decimal.Decimal // inmutable después de la creación
	RemainingQuantity decimal.Decimal // 0 <= remaining <= initial (salvo stock negativo permitido)
	UnitCost         decimal.Decimal // precio de compra unitario
	UnitPrice        decimal.Decimal // precio de venta sugerido
	Status           string
	Location         string
	StorageCondition string // metadata de conservación (cadena de frío, etc.)
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// IsExpired indica si el lote está vencido a la fecha dada.
func (l *Lot) IsExpired(now time.Time) bool {
	return l.ExpirationDate != nil && l.ExpirationDate.Before(now)
}

// DaysToExpiration devuelve los días hasta el vencimiento (negativo si ya venció).
// ok=false cuando el lote no tiene fecha de vencimiento.
func (l *Lot) DaysToExpiration(now time.Time) (days int, ok bool) {
	if l.ExpirationDate == nil {
		return 0, false
	}
	return int(l.ExpirationDate.Sub(now).Hours() / 24), true
}

// UsagePercentage devuelve el porcentaje consumido del lote (0-100).
func (l *Lot) UsagePercentage() decimal.Decimal {
	if l.InitialQuantity.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	consumed := l.InitialQuantity.Sub(l.RemainingQuantity)
	return consumed.Div(l.InitialQuantity).Mul(decimal.NewFromInt(100)).Round(2)
}
