package reconciliation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/farmaops/farmacia-stock-api/internal/application/ledger"
	"github.com/farmaops/farmacia-stock-api/internal/domain"
	"github.com/farmaops/farmacia-stock-api/internal/domain/entity"
	"github.com/farmaops/farmacia-stock-api/internal/domain/repository"
)

// UseCase es el motor de reconciliación: compara cantidades contadas contra
// teóricas, clasifica varianzas y conduce el flujo validar/rechazar/corregir
// que emite movimientos de ajuste sobre el libro.
type UseCase struct {
	txRunner    TxRunner
	ledgerUC    *ledger.UseCase
	reconRepo   repository.ReconciliationRepository
	lotRepo     repository.LotRepository
	productRepo repository.ProductRepository
}

// NewUseCase construye el motor de reconciliación.
func NewUseCase(
	txRunner TxRunner,
	ledgerUC *ledger.UseCase,
	reconRepo repository.ReconciliationRepository,
	lotRepo repository.LotRepository,
	productRepo repository.ProductRepository,
) *UseCase {
	return &UseCase{
		txRunner:    txRunner,
		ledgerUC:    ledgerUC,
		reconRepo:   reconRepo,
		lotRepo:     lotRepo,
		productRepo: productRepo,
	}
}

// Count es un conteo enviado por el operador. LotID presente cuando el conteo
// es a nivel de lote; vacío cuando es total por producto.
type Count struct {
	ProductID  string
	LotID      *string
	CountedQty decimal.Decimal
}

// SnapshotInput entrada para tomar la foto de una sesión de inventario.
type SnapshotInput struct {
	CompanyID   string
	ActorID     string
	SessionName string
	Counts      []Count
}

// Snapshot crea la sesión y sus ítems: el lado teórico se lee del almacén de
// lotes en este momento, el contado viene del operador. Ítems con varianza
// cero quedan registrados como conforming (auditoría inmutable) y nunca entran
// a la cola pendiente; solo las varianzas distintas de cero son sujetos de
// reconciliación.
func (uc *UseCase) Snapshot(ctx context.Context, input SnapshotInput) (*entity.InventorySession, error) {
	if input.CompanyID == "" || len(input.Counts) == 0 {
		return nil, domain.ErrInvalidInput
	}
	for _, c := range input.Counts {
		if c.ProductID == "" || c.CountedQty.LessThan(decimal.Zero) {
			return nil, domain.ErrInvalidInput
		}
	}

	now := time.Now()
	session := &entity.InventorySession{
		ID:        uuid.New().String(),
		CompanyID: input.CompanyID,
		Name:      input.SessionName,
		Status:    entity.SessionStatusOpen,
		CreatedBy: input.ActorID,
		CreatedAt: now,
	}

	err := uc.txRunner.RunReconciliation(ctx, func(
		lotRepo repository.LotRepository,
		_ repository.LotMovementRepository,
		reconRepo repository.ReconciliationRepository,
	) error {
		if err := reconRepo.CreateSession(session); err != nil {
			return err
		}
		for _, c := range input.Counts {
			item, err := uc.buildItem(lotRepo, session, c, now)
			if err != nil {
				return err
			}
			if err := reconRepo.CreateItem(item); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// buildItem arma un ítem leyendo el lado teórico. Para conteos por producto sin
// lote, la teórica es la suma de remanentes y el ajuste eventual apunta al
// primer lote que la rotación consumiría.
func (uc *UseCase) buildItem(lotRepo repository.LotRepository, session *entity.InventorySession, c Count, now time.Time) (*entity.ReconciliationItem, error) {
	var (
		theoretical decimal.Decimal
		unitCost    decimal.Decimal
		lotID       *string
	)
	if c.LotID != nil && *c.LotID != "" {
		l, err := lotRepo.GetByID(session.CompanyID, *c.LotID)
		if err != nil {
			return nil, err
		}
		if l == nil {
			return nil, domain.ErrNotFound
		}
		theoretical = l.RemainingQuantity
		unitCost = l.UnitCost
		lotID = c.LotID
	} else {
		lots, err := lotRepo.ListAvailableByProduct(session.CompanyID, c.ProductID)
		if err != nil {
			return nil, err
		}
		for _, l := range lots {
			theoretical = theoretical.Add(l.RemainingQuantity)
		}
		if len(lots) > 0 {
			unitCost = lots[0].UnitCost
			id := lots[0].ID
			lotID = &id
		}
	}

	status := entity.ReconciliationStatusPending
	if c.CountedQty.Equal(theoretical) {
		status = entity.ReconciliationStatusConforming
	}
	return &entity.ReconciliationItem{
		ID:             uuid.New().String(),
		CompanyID:      session.CompanyID,
		SessionID:      session.ID,
		ProductID:      c.ProductID,
		LotID:          lotID,
		TheoreticalQty: theoretical,
		CountedQty:     c.CountedQty,
		UnitCost:       unitCost,
		Status:         status,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// Validate acepta la varianza tal cual: emite exactamente un movimiento de
// ajuste igual a la varianza sobre el lote referenciado y marca el ítem como
// validated, todo en una transacción. Una segunda decisión sobre el mismo ítem
// falla con ErrInvalidStateTransition.
func (uc *UseCase) Validate(ctx context.Context, companyID, itemID, reasonCode, note, actorID string) error {
	return uc.decide(ctx, companyID, itemID, reasonCode, note, actorID, entity.ReconciliationStatusPending, entity.ReconciliationStatusValidated, true)
}

// Reject registra el desacuerdo del operador sin tocar stock y marca el ítem
// como rejected. Un Correct posterior aún puede emitir el ajuste.
func (uc *UseCase) Reject(ctx context.Context, companyID, itemID, reasonCode, note, actorID string) error {
	return uc.decide(ctx, companyID, itemID, reasonCode, note, actorID, entity.ReconciliationStatusPending, entity.ReconciliationStatusRejected, false)
}

// Correct emite el movimiento de ajuste de un ítem rechazado y lo pasa a
// corrected (terminal contable).
func (uc *UseCase) Correct(ctx context.Context, companyID, itemID, actorID string) error {
	return uc.decide(ctx, companyID, itemID, "", "", actorID, entity.ReconciliationStatusRejected, entity.ReconciliationStatusCorrected, true)
}

// decide ejecuta una transición del ítem con bloqueo de fila: la lectura del
// estado, el ajuste (si corresponde) y la escritura del nuevo estado son una
// sola unidad atómica, por lo que dos operadores no pueden decidir dos veces.
func (uc *UseCase) decide(ctx context.Context, companyID, itemID, reasonCode, note, actorID, fromStatus, toStatus string, emitAdjustment bool) error {
	if companyID == "" || itemID == "" {
		return domain.ErrInvalidInput
	}
	return uc.txRunner.RunReconciliation(ctx, func(
		lotRepo repository.LotRepository,
		movRepo repository.LotMovementRepository,
		reconRepo repository.ReconciliationRepository,
	) error {
		item, err := reconRepo.GetItemForUpdate(companyID, itemID)
		if err != nil {
			return err
		}
		if item == nil {
			return domain.ErrNotFound
		}
		if item.Status != fromStatus {
			return domain.ErrInvalidStateTransition
		}

		if emitAdjustment && !item.Variance().IsZero() {
			if item.LotID == nil {
				// Producto sin lotes al momento de la foto: no hay lote contra
				// el cual ajustar.
				return domain.ErrConflict
			}
			if _, err := uc.ledgerUC.ApplyAdjustmentInTx(
				lotRepo, movRepo,
				companyID, *item.LotID, actorID,
				item.Variance(), item.CountedQty, item.ID,
			); err != nil {
				return err
			}
		}

		now := time.Now()
		item.Status = toStatus
		if reasonCode != "" {
			item.ReasonCode = reasonCode
		}
		if note != "" {
			item.Note = note
		}
		item.DecidedBy = actorID
		item.DecidedAt = &now
		item.UpdatedAt = now
		return reconRepo.UpdateItem(item)
	})
}

// Annotate actualiza razón y nota de un ítem ya decidido. Los estados
// terminales son inmutables salvo para estas anotaciones de auditoría.
func (uc *UseCase) Annotate(ctx context.Context, companyID, itemID, reasonCode, note string) error {
	item, err := uc.reconRepo.GetItem(companyID, itemID)
	if err != nil {
		return err
	}
	if item == nil {
		return domain.ErrNotFound
	}
	if item.Status == entity.ReconciliationStatusPending {
		return domain.ErrInvalidStateTransition
	}
	item.ReasonCode = reasonCode
	item.Note = note
	item.UpdatedAt = time.Now()
	return uc.reconRepo.UpdateItem(item)
}

// PendingQueue devuelve la cola de varianzas pendientes de decisión.
func (uc *UseCase) PendingQueue(ctx context.Context, companyID string, limit, offset int) ([]*entity.ReconciliationItem, error) {
	return uc.reconRepo.ListPending(companyID, limit, offset)
}

// SessionItems lista los ítems de una sesión, incluidos los conforming.
func (uc *UseCase) SessionItems(ctx context.Context, companyID, sessionID string, limit, offset int) ([]*entity.ReconciliationItem, error) {
	return uc.reconRepo.ListItemsBySession(companyID, sessionID, limit, offset)
}

// CloseSession cierra la sesión de conteo.
func (uc *UseCase) CloseSession(ctx context.Context, companyID, sessionID string) error {
	session, err := uc.reconRepo.GetSession(companyID, sessionID)
	if err != nil {
		return err
	}
	if session == nil {
		return domain.ErrNotFound
	}
	if session.Status != entity.SessionStatusOpen {
		return domain.ErrInvalidStateTransition
	}
	return uc.reconRepo.CloseSession(companyID, sessionID)
}
