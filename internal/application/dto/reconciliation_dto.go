package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CountDTO un conteo de operador dentro de la foto de sesión.
type CountDTO struct {
	ProductID  string          `json:"product_id" validate:"required,uuid"`
	LotID      *string         `json:"lot_id,omitempty"`
	CountedQty decimal.Decimal `json:"counted_qty"`
}

// SnapshotRequest body para POST /api/reconciliation/sessions.
type SnapshotRequest struct {
	SessionName string     `json:"session_name,omitempty"`
	Counts      []CountDTO `json:"counts" validate:"required,min=1"`
}

// DecisionRequest body para validar/rechazar un ítem.
type DecisionRequest struct {
	ReasonCode string `json:"reason_code,omitempty"`
	Note       string `json:"note,omitempty"`
}

// ReconciliationItemResponse ítem con varianza y varianza valorizada computadas.
type ReconciliationItemResponse struct {
	ID             string          `json:"id"`
	SessionID      string          `json:"session_id"`
	ProductID      string          `json:"product_id"`
	LotID          *string         `json:"lot_id,omitempty"`
	TheoreticalQty decimal.Decimal `json:"theoretical_qty"`
	CountedQty     decimal.Decimal `json:"counted_qty"`
	Variance       decimal.Decimal `json:"variance"`
	VarianceValue  decimal.Decimal `json:"variance_value"`
	Status         string          `json:"status"`
	ReasonCode     string          `json:"reason_code,omitempty"`
	Note           string          `json:"note,omitempty"`
	DecidedBy      string          `json:"decided_by,omitempty"`
	DecidedAt      *time.Time      `json:"decided_at,omitempty"`
}
