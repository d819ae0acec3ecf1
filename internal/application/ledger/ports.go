package ledger

import (
	"context"

	"github.com/farmaops/farmacia-stock-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando
// repositorios atados a esa tx. Garantiza atomicidad para el libro de
// movimientos: o se crea el movimiento y se actualiza el saldo del lote, o
// ninguna de las dos cosas. Debe traducir fallos de serialización/bloqueo a
// domain.ErrConcurrencyConflict para que el caso de uso pueda reintentar.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		lotRepo repository.LotRepository,
		movRepo repository.LotMovementRepository,
		productRepo repository.ProductRepository,
	) error) error
}
