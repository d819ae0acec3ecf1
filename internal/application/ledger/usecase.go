package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/farmaops/farmacia-stock-api/internal/domain"
	"github.com/farmaops/farmacia-stock-api/internal/domain/entity"
	"github.com/farmaops/farmacia-stock-api/internal/domain/lot"
	"github.com/farmaops/farmacia-stock-api/internal/domain/repository"
)

// Config ajustes del libro de movimientos.
type Config struct {
	// MaxRetries reintentos internos ante ErrConcurrencyConflict antes de
	// propagarlo al caller. Los callers nunca reintentan por su cuenta.
	MaxRetries int
	// AllowNegativeStock permiso global de stock negativo del tenant; un
	// movimiento puede sobreescribirlo explícitamente con AllowNegative.
	AllowNegativeStock bool
}

// UseCase es el libro de movimientos: único camino de mutación del saldo de un
// lote. Cada operación corre como una transacción corta con bloqueo de fila
// (SELECT FOR UPDATE) sobre el lote.
type UseCase struct {
	txRunner TxRunner
	cfg      Config
}

// NewUseCase construye el libro de movimientos.
func NewUseCase(txRunner TxRunner, cfg Config) *UseCase {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	return &UseCase{txRunner: txRunner, cfg: cfg}
}

// ApplyMovementInput entrada para aplicar un movimiento a un lote.
// Quantity es magnitud positiva; la dirección la implica Type. Para adjustment
// se envía CountedQuantity y el libro deriva el delta efectivo, en lugar de
// confiar en un delta del caller.
type ApplyMovementInput struct {
	CompanyID        string
	ActorID          string
	LotID            string
	Type             string
	Quantity         decimal.Decimal
	CountedQuantity  *decimal.Decimal
	ReferenceType    string
	ReferenceID      string
	FromLocation     string
	ToLocation       string
	DestinationLotID *string
	Metadata         json.RawMessage
	// AllowNegative permite que este movimiento deje el saldo bajo cero
	// (override explícito del permiso global).
	AllowNegative bool
}

// ReceiveLotInput entrada para crear un lote en recepción.
type ReceiveLotInput struct {
	CompanyID        string
	ActorID          string
	ProductID        string
	LotNumber        string
	SupplierID       *string
	ManufactureDate  *time.Time
	ExpirationDate   *time.Time
	InitialQuantity  decimal.Decimal
	UnitCost         decimal.Decimal
	UnitPrice        decimal.Decimal
	Location         string
	StorageCondition string
}

// ReceiveLot crea el lote con su cantidad inicial (la recepción es la creación,
// no un movimiento: el saldo se deriva de initial + suma de movimientos
// posteriores) y actualiza el costo promedio de referencia del producto.
func (uc *UseCase) ReceiveLot(ctx context.Context, input ReceiveLotInput) (*entity.Lot, error) {
	if input.CompanyID == "" || input.ProductID == "" || input.LotNumber == "" {
		return nil, domain.ErrInvalidInput
	}
	if !input.InitialQuantity.GreaterThan(decimal.Zero) || input.UnitCost.LessThan(decimal.Zero) {
		return nil, domain.ErrInvalidInput
	}

	now := time.Now()
	newLot := &entity.Lot{
		ID:                uuid.New().String(),
		CompanyID:         input.CompanyID,
		ProductID:         input.ProductID,
		LotNumber:         input.LotNumber,
		SupplierID:        input.SupplierID,
		ManufactureDate:   input.ManufactureDate,
		ReceptionDate:     now,
		ExpirationDate:    input.ExpirationDate,
		InitialQuantity:   input.InitialQuantity,
		RemainingQuantity: input.InitialQuantity,
		UnitCost:          input.UnitCost,
		UnitPrice:         input.UnitPrice,
		Status:            entity.LotStatusActive,
		Location:          input.Location,
		StorageCondition:  input.StorageCondition,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	err := uc.runWithRetry(ctx, func(
		lotRepo repository.LotRepository,
		_ repository.LotMovementRepository,
		productRepo repository.ProductRepository,
	) error {
		product, err := productRepo.GetByID(input.CompanyID, input.ProductID)
		if err != nil {
			return err
		}
		if product == nil {
			return domain.ErrNotFound
		}
		currentStock, err := productRepo.CurrentStock(input.CompanyID, input.ProductID)
		if err != nil {
			return err
		}
		newCost := lot.CostCalculator(currentStock, product.Cost, input.InitialQuantity, input.UnitCost)
		if err := productRepo.UpdateCost(input.CompanyID, input.ProductID, newCost); err != nil {
			return err
		}
		return lotRepo.Create(newLot)
	})
	if err != nil {
		return nil, err
	}
	return newLot, nil
}

// ApplyMovement valida la entrada y aplica el movimiento de forma atómica:
// bloquea la fila del lote, calcula el efecto con signo, escribe la fila del
// movimiento y persiste el saldo rederivado. Ningún caller concurrente puede
// observar un saldo intermedio.
func (uc *UseCase) ApplyMovement(ctx context.Context, input ApplyMovementInput) (*entity.LotMovement, error) {
	if input.CompanyID == "" || input.LotID == "" {
		return nil, domain.ErrInvalidInput
	}
	if !entity.IsValidMovementType(input.Type) {
		return nil, domain.ErrInvalidMovementType
	}
	switch input.Type {
	case entity.MovementTypeAdjustment:
		if input.CountedQuantity == nil || input.CountedQuantity.LessThan(decimal.Zero) {
			return nil, domain.ErrInvalidInput
		}
	case entity.MovementTypeTransfer:
		if input.DestinationLotID == nil || *input.DestinationLotID == "" || *input.DestinationLotID == input.LotID {
			return nil, domain.ErrInvalidInput
		}
		if !input.Quantity.GreaterThan(decimal.Zero) {
			return nil, domain.ErrInvalidInput
		}
	default:
		if !input.Quantity.GreaterThan(decimal.Zero) {
			return nil, domain.ErrInvalidInput
		}
	}

	var created *entity.LotMovement
	err := uc.runWithRetry(ctx, func(
		lotRepo repository.LotRepository,
		movRepo repository.LotMovementRepository,
		_ repository.ProductRepository,
	) error {
		mov, err := uc.applyInTx(lotRepo, movRepo, input)
		if err != nil {
			return err
		}
		created = mov
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// applyInTx ejecuta la lógica de aplicación dentro de la transacción del caller.
func (uc *UseCase) applyInTx(
	lotRepo repository.LotRepository,
	movRepo repository.LotMovementRepository,
	input ApplyMovementInput,
) (*entity.LotMovement, error) {
	// Bloquea la fila del lote para evitar condiciones de carrera
	l, err := lotRepo.GetForUpdate(input.CompanyID, input.LotID)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, domain.ErrNotFound
	}

	effect, err := uc.effectFor(input, l)
	if err != nil {
		return nil, err
	}

	newRemaining := l.RemainingQuantity.Add(effect)
	if newRemaining.LessThan(decimal.Zero) && !uc.negativeAllowed(input.AllowNegative) {
		return nil, domain.ErrInsufficientQuantity
	}

	now := time.Now()
	mov := &entity.LotMovement{
		ID:               uuid.New().String(),
		CompanyID:        input.CompanyID,
		LotID:            input.LotID,
		Type:             input.Type,
		Quantity:         effect,
		CountedQuantity:  input.CountedQuantity,
		ReferenceType:    input.ReferenceType,
		ReferenceID:      input.ReferenceID,
		ActorID:          input.ActorID,
		FromLocation:     input.FromLocation,
		ToLocation:       input.ToLocation,
		DestinationLotID: input.DestinationLotID,
		Metadata:         input.Metadata,
		CreatedAt:        now,
	}
	if err := movRepo.Create(mov); err != nil {
		return nil, err
	}
	if err := lotRepo.UpdateBalance(input.CompanyID, input.LotID, balanceFor(l, newRemaining)); err != nil {
		return nil, err
	}

	// Transfer: movimiento pareado de entrada en el lote destino, misma transacción.
	if input.Type == entity.MovementTypeTransfer {
		dest, err := lotRepo.GetForUpdate(input.CompanyID, *input.DestinationLotID)
		if err != nil {
			return nil, err
		}
		if dest == nil {
			return nil, domain.ErrNotFound
		}
		inMov := &entity.LotMovement{
			ID:            uuid.New().String(),
			CompanyID:     input.CompanyID,
			LotID:         dest.ID,
			Type:          entity.MovementTypeTransfer,
			Quantity:      input.Quantity,
			ReferenceType: input.ReferenceType,
			ReferenceID:   mov.ID, // referencia causal al movimiento de salida
			ActorID:       input.ActorID,
			FromLocation:  input.FromLocation,
			ToLocation:    input.ToLocation,
			Metadata:      input.Metadata,
			CreatedAt:     now,
		}
		if err := movRepo.Create(inMov); err != nil {
			return nil, err
		}
		destRemaining := dest.RemainingQuantity.Add(input.Quantity)
		if err := lotRepo.UpdateBalance(input.CompanyID, dest.ID, balanceFor(dest, destRemaining)); err != nil {
			return nil, err
		}
	}
	return mov, nil
}

// UpdateMovement es una transacción compensante: revierte el efecto original y
// aplica el nuevo dentro de la misma unidad atómica, rederivando el saldo.
// Para adjustment, countedQuantity reemplaza la cantidad contada original.
func (uc *UseCase) UpdateMovement(ctx context.Context, companyID, movementID string, quantity decimal.Decimal, countedQuantity *decimal.Decimal) (*entity.LotMovement, error) {
	if companyID == "" || movementID == "" {
		return nil, domain.ErrInvalidInput
	}

	var updated *entity.LotMovement
	err := uc.runWithRetry(ctx, func(
		lotRepo repository.LotRepository,
		movRepo repository.LotMovementRepository,
		_ repository.ProductRepository,
	) error {
		mov, err := movRepo.GetByID(companyID, movementID)
		if err != nil {
			return err
		}
		if mov == nil {
			return domain.ErrNotFound
		}
		if mov.Type == entity.MovementTypeTransfer {
			// Un transfer tiene par causal en otro lote; se compensa borrando
			// ambos y aplicando uno nuevo, no editando en sitio.
			return domain.ErrConflict
		}

		l, err := lotRepo.GetForUpdate(companyID, mov.LotID)
		if err != nil {
			return err
		}
		if l == nil {
			return domain.ErrNotFound
		}

		// Saldo sin el efecto original
		reverted := l.RemainingQuantity.Sub(mov.Quantity)

		newInput := ApplyMovementInput{
			CompanyID:       companyID,
			LotID:           mov.LotID,
			Type:            mov.Type,
			Quantity:        quantity,
			CountedQuantity: countedQuantity,
		}
		probe := *l
		probe.RemainingQuantity = reverted
		newEffect, err := uc.effectFor(newInput, &probe)
		if err != nil {
			return err
		}

		newRemaining := reverted.Add(newEffect)
		if newRemaining.LessThan(decimal.Zero) && !uc.cfg.AllowNegativeStock {
			return domain.ErrInsufficientQuantity
		}

		mov.Quantity = newEffect
		mov.CountedQuantity = countedQuantity
		if err := movRepo.Update(mov); err != nil {
			return err
		}
		if err := lotRepo.UpdateBalance(companyID, mov.LotID, balanceFor(l, newRemaining)); err != nil {
			return err
		}
		updated = mov
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteMovement revierte simétricamente el efecto del movimiento sobre el
// saldo del lote y elimina la fila, todo en la misma transacción. Restituye el
// saldo exacto previo al movimiento (round-trip). Los transfers se revierten
// como par completo: borrar una sola pata crearía stock de la nada en el
// agregado del producto.
func (uc *UseCase) DeleteMovement(ctx context.Context, companyID, movementID string) error {
	if companyID == "" || movementID == "" {
		return domain.ErrInvalidInput
	}
	return uc.runWithRetry(ctx, func(
		lotRepo repository.LotRepository,
		movRepo repository.LotMovementRepository,
		_ repository.ProductRepository,
	) error {
		mov, err := movRepo.GetByID(companyID, movementID)
		if err != nil {
			return err
		}
		if mov == nil {
			return domain.ErrNotFound
		}
		if mov.Type == entity.MovementTypeTransfer {
			return uc.deleteTransferPair(lotRepo, movRepo, companyID, mov)
		}

		l, err := lotRepo.GetForUpdate(companyID, mov.LotID)
		if err != nil {
			return err
		}
		if l == nil {
			return domain.ErrNotFound
		}

		newRemaining := l.RemainingQuantity.Sub(mov.Quantity)
		if newRemaining.LessThan(decimal.Zero) && !uc.cfg.AllowNegativeStock {
			return domain.ErrInsufficientQuantity
		}
		if err := movRepo.Delete(companyID, movementID); err != nil {
			return err
		}
		return lotRepo.UpdateBalance(companyID, mov.LotID, balanceFor(l, newRemaining))
	})
}

// deleteTransferPair resuelve el par causal de un transfer (por cualquiera de
// sus dos patas), revierte los dos saldos y elimina ambas filas en la misma
// transacción. Un par cuya contraparte no existe indica corrupción del libro y
// no se toca.
func (uc *UseCase) deleteTransferPair(
	lotRepo repository.LotRepository,
	movRepo repository.LotMovementRepository,
	companyID string,
	mov *entity.LotMovement,
) error {
	out, in := mov, mov
	var err error
	if mov.DestinationLotID != nil {
		// Pata de salida: la entrada lo referencia causalmente
		in, err = movRepo.GetTransferInLeg(companyID, mov.ID)
	} else {
		// Pata de entrada: su ReferenceID es el ID de la salida
		out, err = movRepo.GetByID(companyID, mov.ReferenceID)
	}
	if err != nil {
		return err
	}
	if out == nil || in == nil || out.Type != entity.MovementTypeTransfer || in.Type != entity.MovementTypeTransfer {
		return domain.ErrConflict
	}

	src, err := lotRepo.GetForUpdate(companyID, out.LotID)
	if err != nil {
		return err
	}
	dst, err := lotRepo.GetForUpdate(companyID, in.LotID)
	if err != nil {
		return err
	}
	if src == nil || dst == nil {
		return domain.ErrNotFound
	}

	srcRemaining := src.RemainingQuantity.Sub(out.Quantity)
	dstRemaining := dst.RemainingQuantity.Sub(in.Quantity)
	if dstRemaining.LessThan(decimal.Zero) && !uc.cfg.AllowNegativeStock {
		// El destino ya consumió lo transferido
		return domain.ErrInsufficientQuantity
	}

	if err := movRepo.Delete(companyID, out.ID); err != nil {
		return err
	}
	if err := movRepo.Delete(companyID, in.ID); err != nil {
		return err
	}
	if err := lotRepo.UpdateBalance(companyID, out.LotID, balanceFor(src, srcRemaining)); err != nil {
		return err
	}
	return lotRepo.UpdateBalance(companyID, in.LotID, balanceFor(dst, dstRemaining))
}

// ApplyAdjustmentInTx emite un ajuste con efecto exactamente igual a variance
// usando los repositorios del caller (misma transacción). Lo usa el motor de
// reconciliación para que la decisión del ítem y el movimiento correctivo sean
// una sola unidad atómica. counted es la cantidad contada por el operador.
func (uc *UseCase) ApplyAdjustmentInTx(
	lotRepo repository.LotRepository,
	movRepo repository.LotMovementRepository,
	companyID, lotID, actorID string,
	variance decimal.Decimal,
	counted decimal.Decimal,
	referenceID string,
) (*entity.LotMovement, error) {
	l, err := lotRepo.GetForUpdate(companyID, lotID)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, domain.ErrNotFound
	}
	newRemaining := l.RemainingQuantity.Add(variance)
	if newRemaining.LessThan(decimal.Zero) && !uc.cfg.AllowNegativeStock {
		return nil, domain.ErrInsufficientQuantity
	}
	mov := &entity.LotMovement{
		ID:              uuid.New().String(),
		CompanyID:       companyID,
		LotID:           lotID,
		Type:            entity.MovementTypeAdjustment,
		Quantity:        variance,
		CountedQuantity: &counted,
		ReferenceType:   "reconciliation",
		ReferenceID:     referenceID,
		ActorID:         actorID,
		CreatedAt:       time.Now(),
	}
	if err := movRepo.Create(mov); err != nil {
		return nil, err
	}
	if err := lotRepo.UpdateBalance(companyID, lotID, balanceFor(l, newRemaining)); err != nil {
		return nil, err
	}
	return mov, nil
}

// effectFor calcula el efecto con signo del movimiento sobre el saldo actual.
func (uc *UseCase) effectFor(input ApplyMovementInput, l *entity.Lot) (decimal.Decimal, error) {
	switch {
	case entity.IsIncrease(input.Type):
		return input.Quantity, nil
	case entity.IsDecrease(input.Type):
		return input.Quantity.Neg(), nil
	case input.Type == entity.MovementTypeAdjustment:
		// El delta efectivo se deriva de la cantidad contada, no del caller
		return input.CountedQuantity.Sub(l.RemainingQuantity), nil
	}
	return decimal.Zero, domain.ErrInvalidMovementType
}

func (uc *UseCase) negativeAllowed(override bool) bool {
	return override || uc.cfg.AllowNegativeStock
}

// balanceFor deriva el estado del lote a partir del nuevo saldo: en cero pasa a
// agotado; si un aumento lo revive, vuelve a activo. Bloqueado y vencido se
// conservan.
func balanceFor(l *entity.Lot, remaining decimal.Decimal) repository.RemainingBalance {
	status := l.Status
	switch {
	case remaining.LessThanOrEqual(decimal.Zero):
		status = entity.LotStatusDepleted
	case l.Status == entity.LotStatusDepleted:
		status = entity.LotStatusActive
	}
	return repository.RemainingBalance{Quantity: remaining, Status: status}
}

// runWithRetry centraliza el reintento acotado ante conflictos de concurrencia.
// Solo ErrConcurrencyConflict se reintenta; errores de validación e invariantes
// se propagan siempre.
func (uc *UseCase) runWithRetry(ctx context.Context, fn func(
	repository.LotRepository,
	repository.LotMovementRepository,
	repository.ProductRepository,
) error) error {
	var err error
	for attempt := 1; attempt <= uc.cfg.MaxRetries; attempt++ {
		err = uc.txRunner.Run(ctx, fn)
		if err == nil || !errors.Is(err, domain.ErrConcurrencyConflict) {
			return err
		}
		log.Warn().Int("attempt", attempt).Msg("conflicto de concurrencia en el libro, reintentando")
	}
	return err
}
