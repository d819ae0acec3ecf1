package reconciliation

import (
	"context"

	"github.com/farmaops/farmacia-stock-api/internal/domain/repository"
)

// TxRunner ejecuta una función con los repositorios de reconciliación y del
// libro atados a la misma transacción: la transición del ítem y el movimiento
// correctivo se confirman o revierten juntos. Fallos de serialización/bloqueo
// llegan como domain.ErrConcurrencyConflict.
type TxRunner interface {
	RunReconciliation(ctx context.Context, fn func(
		lotRepo repository.LotRepository,
		movRepo repository.LotMovementRepository,
		reconRepo repository.ReconciliationRepository,
	) error) error
}
