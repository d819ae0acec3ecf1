package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/farmaops/farmacia-stock-api/internal/application/ledger"
	"github.com/farmaops/farmacia-stock-api/internal/application/reconciliation"
	"github.com/farmaops/farmacia-stock-api/internal/domain"
	"github.com/farmaops/farmacia-stock-api/internal/domain/repository"
)

// Ensure TxRunner implements ledger.TxRunner and reconciliation.TxRunner.
var _ ledger.TxRunner = (*TxRunner)(nil)
var _ reconciliation.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
// Los fallos de serialización/bloqueo se traducen a ErrConcurrencyConflict
// para que los casos de uso reintenten de forma acotada.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(
	lotRepo repository.LotRepository,
	movRepo repository.LotMovementRepository,
	productRepo repository.ProductRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	lotRepo := NewLotRepository(tx)
	movRepo := NewLotMovementRepository(tx)
	productRepo := NewProductRepository(tx)

	if err := fn(lotRepo, movRepo, productRepo); err != nil {
		return translateTxError(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return translateTxError(fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}

// RunReconciliation inicia una transacción con los repos del libro y de
// reconciliación (decisión de ítem + movimiento correctivo atómicos).
func (r *TxRunner) RunReconciliation(ctx context.Context, fn func(
	lotRepo repository.LotRepository,
	movRepo repository.LotMovementRepository,
	reconRepo repository.ReconciliationRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	lotRepo := NewLotRepository(tx)
	movRepo := NewLotMovementRepository(tx)
	reconRepo := NewReconciliationRepository(tx)

	if err := fn(lotRepo, movRepo, reconRepo); err != nil {
		return translateTxError(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return translateTxError(fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}

func translateTxError(err error) error {
	if isSerializationFailure(err) {
		return fmt.Errorf("%w: %v", domain.ErrConcurrencyConflict, err)
	}
	return err
}
