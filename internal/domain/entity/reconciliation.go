package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de un ítem de reconciliación. pending -> validated | rejected;
// rejected puede pasar a corrected tras aplicarse el movimiento correctivo.
// conforming es terminal desde el inicio: varianza cero, solo registro de auditoría.
const (
	ReconciliationStatusPending    = "pending"
	ReconciliationStatusValidated  = "validated"
	ReconciliationStatusRejected   = "rejected"
	ReconciliationStatusCorrected  = "corrected"
	ReconciliationStatusConforming = "conforming"
)

// ReconciliationItem compara la cantidad contada contra la teórica para un
// producto (y opcionalmente un lote) dentro de una sesión de inventario.
type ReconciliationItem struct {
	ID             string
	CompanyID      string
	SessionID      string
	ProductID      string
	LotID          *string         // presente cuando el conteo es a nivel de lote
	TheoreticalQty decimal.Decimal // leída del almacén de lotes al tomar la foto
	CountedQty     decimal.Decimal // ingreso del operador
	UnitCost       decimal.Decimal // para valorizar la varianza
	Status         string
	ReasonCode     string
	Note           string
	DecidedBy      string
	DecidedAt      *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Variance devuelve contado - teórico.
func (i *ReconciliationItem) Variance() decimal.Decimal {
	return i.CountedQty.Sub(i.TheoreticalQty)
}

// VarianceValue devuelve la varianza valorizada al costo unitario.
func (i *ReconciliationItem) VarianceValue() decimal.Decimal {
	return i.Variance().Mul(i.UnitCost)
}

// IsDecided indica si el ítem ya tiene decisión (estado terminal contable).
func (i *ReconciliationItem) IsDecided() bool {
	switch i.Status {
	case ReconciliationStatusValidated, ReconciliationStatusCorrected, ReconciliationStatusConforming:
		return true
	}
	return false
}

// Estados de una sesión de inventario físico (colaborador externo; aquí solo
// lo mínimo que el motor necesita para anclar los ítems).
const (
	SessionStatusOpen   = "open"
	SessionStatusClosed = "closed"
)

// InventorySession es la sesión de conteo físico a la que pertenecen los ítems.
type InventorySession struct {
	ID        string
	CompanyID string
	Name      string
	Status    string
	CreatedBy string
	CreatedAt time.Time
	ClosedAt  *time.Time
}
