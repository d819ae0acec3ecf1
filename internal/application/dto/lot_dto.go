package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReceiveLotRequest body para POST /api/lots (recepción de un lote).
type ReceiveLotRequest struct {
	ProductID        string           `json:"product_id" validate:"required,uuid"`
	LotNumber        string           `json:"lot_number" validate:"required,max=100"`
	SupplierID       *string          `json:"supplier_id,omitempty"`
	ManufactureDate  *time.Time       `json:"manufacture_date,omitempty"`
	ExpirationDate   *time.Time       `json:"expiration_date,omitempty"`
	InitialQuantity  decimal.Decimal  `json:"initial_quantity"`
	UnitCost         decimal.Decimal  `json:"unit_cost"`
	UnitPrice        decimal.Decimal  `json:"unit_price"`
	Location         string           `json:"location,omitempty"`
	StorageCondition string           `json:"storage_condition,omitempty"`
}

// LotResponse salida de un lote con los campos derivados que consume la UI.
// days_to_expiration, urgency_level y usage_percentage se computan frescos en
// cada respuesta; no son estado almacenado.
type LotResponse struct {
	ID                string           `json:"id"`
	ProductID         string           `json:"product_id"`
	LotNumber         string           `json:"lot_number"`
	SupplierID        *string          `json:"supplier_id,omitempty"`
	ReceptionDate     time.Time        `json:"reception_date"`
	ExpirationDate    *time.Time       `json:"expiration_date,omitempty"`
	InitialQuantity   decimal.Decimal  `json:"initial_quantity"`
	RemainingQuantity decimal.Decimal  `json:"remaining_quantity"`
	UnitCost          decimal.Decimal  `json:"unit_cost"`
	UnitPrice         decimal.Decimal  `json:"unit_price"`
	Status            string           `json:"status"`
	Location          string           `json:"location,omitempty"`
	DaysToExpiration  *int             `json:"days_to_expiration,omitempty"`
	UrgencyLevel      string           `json:"urgency_level"`
	UsagePercentage   decimal.Decimal  `json:"usage_percentage"`
}
