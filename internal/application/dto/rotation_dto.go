package dto

import "github.com/shopspring/decimal"

// SaveRotationConfigRequest body para PUT /api/rotation/configs.
// product_id y family_id son exclusivos entre sí.
type SaveRotationConfigRequest struct {
	ID                          string  `json:"id,omitempty"`
	ProductID                   *string `json:"product_id,omitempty"`
	FamilyID                    *string `json:"family_id,omitempty"`
	Enabled                     bool    `json:"enabled"`
	Method                      string  `json:"method" validate:"required,oneof=FIFO LIFO"`
	ToleranceDays               int     `json:"tolerance_days"`
	ExcludeExpired              bool    `json:"exclude_expired"`
	ExcludeExpiredFromValuation bool    `json:"exclude_expired_from_valuation"`
	PrioritizePrice             bool    `json:"prioritize_price"`
	RotationAlertDays           int     `json:"rotation_alert_days"`
}

// SelectLotsRequest query para la previsualización de selección de lotes.
type SelectLotsRequest struct {
	ProductID string          `json:"product_id" validate:"required,uuid"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// AllocationResponse una porción asignada a un lote.
type AllocationResponse struct {
	LotID     string          `json:"lot_id"`
	LotNumber string          `json:"lot_number"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
	Depletes  bool            `json:"depletes"`
}

// ComplianceResponse resultado consultivo de la verificación de rotación.
type ComplianceResponse struct {
	Compliant      bool   `json:"compliant"`
	ChosenLotID    string `json:"chosen_lot_id"`
	SuggestedLotID string `json:"suggested_lot_id,omitempty"`
}
