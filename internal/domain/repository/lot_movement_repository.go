package repository

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/farmaops/farmacia-stock-api/internal/domain/entity"
)

// LotMovementRepository define el puerto de persistencia del libro de movimientos.
// Los movimientos son append-only; Delete existe solo para el borrado compensado
// que el caso de uso del libro ejecuta dentro de la misma transacción que
// revierte el saldo del lote.
type LotMovementRepository interface {
	Create(movement *entity.LotMovement) error
	GetByID(companyID, id string) (*entity.LotMovement, error)
	// GetTransferInLeg devuelve la entrada pareada de un transfer: el movimiento
	// de entrada cuyo ReferenceID apunta al movimiento de salida dado. nil si no
	// existe.
	GetTransferInLeg(companyID, outMovementID string) (*entity.LotMovement, error)
	Update(movement *entity.LotMovement) error
	Delete(companyID, id string) error
	ListByLot(companyID, lotID string, from, to *time.Time, limit, offset int) ([]*entity.LotMovement, error)
	ListByProduct(companyID, productID string, from, to *time.Time, limit, offset int) ([]*entity.LotMovement, error)
	// SumEffectsByLot devuelve la suma con signo de los efectos aplicados a un
	// lote (verificación de conservación contra initial - remaining).
	SumEffectsByLot(companyID, lotID string) (decimal.Decimal, error)
	// TotalConsumedByProduct suma las salidas (efectos negativos) de un producto
	// en la ventana, para la tasa de consumo histórica de planificación.
	TotalConsumedByProduct(companyID, productID string, from, to time.Time) (decimal.Decimal, error)
}
