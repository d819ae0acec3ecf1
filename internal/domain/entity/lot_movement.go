package entity

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de movimiento sobre un lote. La dirección del efecto la implica el tipo:
// entry/return aumentan, exit/destruction/transfer disminuyen, adjustment fija
// un objetivo absoluto vía CountedQuantity.
const (
	MovementTypeEntry       = "entry"
	MovementTypeExit        = "exit"
	MovementTypeAdjustment  = "adjustment"
	MovementTypeTransfer    = "transfer"
	MovementTypeReturn      = "return"
	MovementTypeDestruction = "destruction"
)

// IsValidMovementType valida un tipo de movimiento.
func IsValidMovementType(t string) bool {
	switch t {
	case MovementTypeEntry, MovementTypeExit, MovementTypeAdjustment,
		MovementTypeTransfer, MovementTypeReturn, MovementTypeDestruction:
		return true
	}
	return false
}

// LotMovement es una entrada inmutable del libro de movimientos: un cambio de
// cantidad con signo aplicado a un lote, con tipo y referencia causal.
// Única vía de mutación del saldo de un lote.
type LotMovement struct {
	ID               string
	CompanyID        string
	LotID            string
	Type             string
	Quantity         decimal.Decimal  // efecto con signo sobre RemainingQuantity
	CountedQuantity  *decimal.Decimal // solo adjustment: cantidad contada, el libro deriva el delta
	ReferenceType    string           // "reception", "sale", "manual", "reconciliation", etc.
	ReferenceID      string
	ActorID          string
	FromLocation     string
	ToLocation       string
	DestinationLotID *string // solo transfer
	Metadata         json.RawMessage
	CreatedAt        time.Time
}

// IsIncrease indica si el tipo aumenta el saldo del lote.
func IsIncrease(movementType string) bool {
	return movementType == MovementTypeEntry || movementType == MovementTypeReturn
}

// IsDecrease indica si el tipo disminuye el saldo del lote.
func IsDecrease(movementType string) bool {
	switch movementType {
	case MovementTypeExit, MovementTypeDestruction, MovementTypeTransfer:
		return true
	}
	return false
}
