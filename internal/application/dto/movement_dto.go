package dto

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// ApplyMovementRequest body para POST /api/movements.
// quantity es magnitud positiva; la dirección la implica type. Para
// adjustment se envía counted_quantity en lugar de quantity.
type ApplyMovementRequest struct {
	LotID            string           `json:"lot_id" validate:"required,uuid"`
	Type             string           `json:"type" validate:"required,oneof=entry exit adjustment transfer return destruction"`
	Quantity         decimal.Decimal  `json:"quantity"`
	CountedQuantity  *decimal.Decimal `json:"counted_quantity,omitempty"`
	ReferenceType    string           `json:"reference_type,omitempty"`
	ReferenceID      string           `json:"reference_id,omitempty"`
	FromLocation     string           `json:"from_location,omitempty"`
	ToLocation       string           `json:"to_location,omitempty"`
	DestinationLotID *string          `json:"destination_lot_id,omitempty"`
	Metadata         json.RawMessage  `json:"metadata,omitempty"`
	AllowNegative    bool             `json:"allow_negative,omitempty"`
}

// UpdateMovementRequest body para PUT /api/movements/:id (compensación).
type UpdateMovementRequest struct {
	Quantity        decimal.Decimal  `json:"quantity"`
	CountedQuantity *decimal.Decimal `json:"counted_quantity,omitempty"`
}

// MovementResponse salida de un movimiento del libro.
type MovementResponse struct {
	ID               string           `json:"id"`
	LotID            string           `json:"lot_id"`
	Type             string           `json:"type"`
	Quantity         decimal.Decimal  `json:"quantity"` // efecto con signo
	CountedQuantity  *decimal.Decimal `json:"counted_quantity,omitempty"`
	ReferenceType    string           `json:"reference_type,omitempty"`
	ReferenceID      string           `json:"reference_id,omitempty"`
	ActorID          string           `json:"actor_id,omitempty"`
	DestinationLotID *string          `json:"destination_lot_id,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
}
