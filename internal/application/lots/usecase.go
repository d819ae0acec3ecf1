package lots

import (
	"context"
	"time"

	"github.com/farmaops/farmacia-stock-api/internal/domain"
	"github.com/farmaops/farmacia-stock-api/internal/domain/entity"
	"github.com/farmaops/farmacia-stock-api/internal/domain/repository"
)

// UseCase consultas de solo lectura sobre lotes y su historial de movimientos.
type UseCase struct {
	lotRepo repository.LotRepository
	movRepo repository.LotMovementRepository
}

// NewUseCase construye el caso de uso de consulta de lotes.
func NewUseCase(lotRepo repository.LotRepository, movRepo repository.LotMovementRepository) *UseCase {
	return &UseCase{lotRepo: lotRepo, movRepo: movRepo}
}

// GetLot devuelve un lote por id.
func (uc *UseCase) GetLot(ctx context.Context, companyID, lotID string) (*entity.Lot, error) {
	l, err := uc.lotRepo.GetByID(companyID, lotID)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, domain.ErrNotFound
	}
	return l, nil
}

// ListByProduct lista los lotes de un producto.
func (uc *UseCase) ListByProduct(ctx context.Context, companyID, productID string, limit, offset int) ([]*entity.Lot, error) {
	return uc.lotRepo.ListByProduct(companyID, productID, limit, offset)
}

// History devuelve el historial de movimientos de un lote en un rango de fechas.
func (uc *UseCase) History(ctx context.Context, companyID, lotID string, from, to *time.Time, limit, offset int) ([]*entity.LotMovement, error) {
	return uc.movRepo.ListByLot(companyID, lotID, from, to, limit, offset)
}

// ProductHistory devuelve el historial de movimientos de todos los lotes de un
// producto en un rango de fechas.
func (uc *UseCase) ProductHistory(ctx context.Context, companyID, productID string, from, to *time.Time, limit, offset int) ([]*entity.LotMovement, error) {
	return uc.movRepo.ListByProduct(companyID, productID, from, to, limit, offset)
}

// Block marca un lote como bloqueado (retiro sanitario, cuarentena).
func (uc *UseCase) Block(ctx context.Context, companyID, lotID string) error {
	return uc.setStatus(companyID, lotID, entity.LotStatusBlocked)
}

// Unblock reactiva un lote bloqueado.
func (uc *UseCase) Unblock(ctx context.Context, companyID, lotID string) error {
	return uc.setStatus(companyID, lotID, entity.LotStatusActive)
}

func (uc *UseCase) setStatus(companyID, lotID, status string) error {
	l, err := uc.lotRepo.GetByID(companyID, lotID)
	if err != nil {
		return err
	}
	if l == nil {
		return domain.ErrNotFound
	}
	if l.Status == entity.LotStatusDepleted {
		return domain.ErrConflict
	}
	return uc.lotRepo.UpdateStatus(companyID, lotID, status)
}
