package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farmaops/farmacia-stock-api/internal/application/ledger"
	"github.com/farmaops/farmacia-stock-api/internal/domain"
	"github.com/farmaops/farmacia-stock-api/internal/domain/entity"
	"github.com/farmaops/farmacia-stock-api/internal/domain/repository"
)

// --- fakes en memoria ---

type fakeLotRepo struct {
	lots map[string]*entity.Lot
}

func newFakeLotRepo() *fakeLotRepo {
	return &fakeLotRepo{lots: make(map[string]*entity.Lot)}
}

func (r *fakeLotRepo) Create(l *entity.Lot) error {
	cp := *l
	r.lots[l.ID] = &cp
	return nil
}

func (r *fakeLotRepo) GetByID(companyID, id string) (*entity.Lot, error) {
	l, ok := r.lots[id]
	if !ok || l.CompanyID != companyID {
		return nil, nil
	}
	cp := *l
	return &cp, nil
}

func (r *fakeLotRepo) GetForUpdate(companyID, id string) (*entity.Lot, error) {
	return r.GetByID(companyID, id)
}

func (r *fakeLotRepo) UpdateBalance(companyID, id string, balance repository.RemainingBalance) error {
	l, ok := r.lots[id]
	if !ok || l.CompanyID != companyID {
		return domain.ErrNotFound
	}
	l.RemainingQuantity = balance.Quantity
	l.Status = balance.Status
	return nil
}

func (r *fakeLotRepo) ListByProduct(companyID, productID string, limit, offset int) ([]*entity.Lot, error) {
	return nil, nil
}

func (r *fakeLotRepo) ListAvailableByProduct(companyID, productID string) ([]*entity.Lot, error) {
	return nil, nil
}

func (r *fakeLotRepo) ListExpiringBefore(companyID string, days, limit, offset int) ([]*entity.Lot, error) {
	return nil, nil
}

func (r *fakeLotRepo) UpdateStatus(companyID, id, status string) error {
	l, ok := r.lots[id]
	if !ok || l.CompanyID != companyID {
		return domain.ErrNotFound
	}
	l.Status = status
	return nil
}

type fakeMovementRepo struct {
	movements map[string]*entity.LotMovement
}

func newFakeMovementRepo() *fakeMovementRepo {
	return &fakeMovementRepo{movements: make(map[string]*entity.LotMovement)}
}

func (r *fakeMovementRepo) Create(m *entity.LotMovement) error {
	cp := *m
	r.movements[m.ID] = &cp
	return nil
}

func (r *fakeMovementRepo) GetByID(companyID, id string) (*entity.LotMovement, error) {
	m, ok := r.movements[id]
	if !ok || m.CompanyID != companyID {
		return nil, nil
	}
	cp := *m
	return &cp, nil
}

func (r *fakeMovementRepo) GetTransferInLeg(companyID, outMovementID string) (*entity.LotMovement, error) {
	for _, m := range r.movements {
		if m.CompanyID == companyID && m.Type == entity.MovementTypeTransfer && m.ReferenceID == outMovementID {
			cp := *m
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeMovementRepo) Update(m *entity.LotMovement) error {
	if _, ok := r.movements[m.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *m
	r.movements[m.ID] = &cp
	return nil
}

func (r *fakeMovementRepo) Delete(companyID, id string) error {
	m, ok := r.movements[id]
	if !ok || m.CompanyID != companyID {
		return domain.ErrNotFound
	}
	delete(r.movements, id)
	return nil
}

func (r *fakeMovementRepo) ListByLot(companyID, lotID string, from, to *time.Time, limit, offset int) ([]*entity.LotMovement, error) {
	var out []*entity.LotMovement
	for _, m := range r.movements {
		if m.CompanyID == companyID && m.LotID == lotID {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeMovementRepo) ListByProduct(companyID, productID string, from, to *time.Time, limit, offset int) ([]*entity.LotMovement, error) {
	return nil, nil
}

func (r *fakeMovementRepo) SumEffectsByLot(companyID, lotID string) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, m := range r.movements {
		if m.CompanyID == companyID && m.LotID == lotID {
			sum = sum.Add(m.Quantity)
		}
	}
	return sum, nil
}

func (r *fakeMovementRepo) TotalConsumedByProduct(companyID, productID string, from, to time.Time) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

type fakeProductRepo struct {
	products map[string]*entity.Product
	stock    map[string]decimal.Decimal
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{
		products: make(map[string]*entity.Product),
		stock:    make(map[string]decimal.Decimal),
	}
}

func (r *fakeProductRepo) Create(p *entity.Product) error {
	cp := *p
	r.products[p.ID] = &cp
	return nil
}

func (r *fakeProductRepo) GetByID(companyID, id string) (*entity.Product, error) {
	p, ok := r.products[id]
	if !ok || p.CompanyID != companyID {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *fakeProductRepo) List(companyID string, limit, offset int) ([]*entity.Product, error) {
	return nil, nil
}

func (r *fakeProductRepo) UpdateCost(companyID, id string, cost decimal.Decimal) error {
	p, ok := r.products[id]
	if !ok || p.CompanyID != companyID {
		return domain.ErrNotFound
	}
	p.Cost = cost
	return nil
}

func (r *fakeProductRepo) ListWithStock(companyID string) ([]*entity.Product, []repository.ProductStock, error) {
	return nil, nil, nil
}

func (r *fakeProductRepo) CurrentStock(companyID, productID string) (decimal.Decimal, error) {
	return r.stock[productID], nil
}

// fakeTxRunner ejecuta fn directamente sobre los fakes. conflicts simula fallos
// de serialización: devuelve ErrConcurrencyConflict esa cantidad de veces antes
// de dejar pasar la transacción.
type fakeTxRunner struct {
	lots      *fakeLotRepo
	movements *fakeMovementRepo
	products  *fakeProductRepo
	conflicts int
}

func (r *fakeTxRunner) Run(ctx context.Context, fn func(
	repository.LotRepository,
	repository.LotMovementRepository,
	repository.ProductRepository,
) error) error {
	if r.conflicts > 0 {
		r.conflicts--
		return domain.ErrConcurrencyConflict
	}
	return fn(r.lots, r.movements, r.products)
}

// --- fixture ---

const (
	testCompany = "c1"
	testProduct = "p1"
	testActor   = "u1"
)

type fixture struct {
	uc        *ledger.UseCase
	runner    *fakeTxRunner
	lots      *fakeLotRepo
	movements *fakeMovementRepo
	products  *fakeProductRepo
}

func newFixture(cfg ledger.Config) *fixture {
	f := &fixture{
		lots:      newFakeLotRepo(),
		movements: newFakeMovementRepo(),
		products:  newFakeProductRepo(),
	}
	f.runner = &fakeTxRunner{lots: f.lots, movements: f.movements, products: f.products}
	f.uc = ledger.NewUseCase(f.runner, cfg)
	f.products.products[testProduct] = &entity.Product{
		ID:        testProduct,
		CompanyID: testCompany,
		Cost:      decimal.NewFromInt(10),
	}
	return f
}

func (f *fixture) seedLot(id string, remaining int64) {
	f.lots.lots[id] = &entity.Lot{
		ID:                id,
		CompanyID:         testCompany,
		ProductID:         testProduct,
		LotNumber:         "L-" + id,
		InitialQuantity:   decimal.NewFromInt(remaining),
		RemainingQuantity: decimal.NewFromInt(remaining),
		UnitCost:          decimal.NewFromInt(10),
		Status:            entity.LotStatusActive,
	}
}

// assertConservation verifica initial - remaining == -suma(efectos) para un lote.
func (f *fixture) assertConservation(t *testing.T, lotID string) {
	t.Helper()
	l := f.lots.lots[lotID]
	sum, err := f.movements.SumEffectsByLot(testCompany, lotID)
	require.NoError(t, err)
	diff := l.InitialQuantity.Sub(l.RemainingQuantity)
	assert.True(t, diff.Equal(sum.Neg()), "initial-remaining=%s, -sum=%s", diff, sum.Neg())
}

// --- pruebas ---

func TestReceiveLot(t *testing.T) {
	ctx := context.Background()

	t.Run("crea el lote activo y actualiza el costo promedio del producto", func(t *testing.T) {
		f := newFixture(ledger.Config{})
		f.products.stock[testProduct] = decimal.NewFromInt(100)

		l, err := f.uc.ReceiveLot(ctx, ledger.ReceiveLotInput{
			CompanyID:       testCompany,
			ActorID:         testActor,
			ProductID:       testProduct,
			LotNumber:       "L-2024-001",
			InitialQuantity: decimal.NewFromInt(50),
			UnitCost:        decimal.NewFromInt(16),
		})
		require.NoError(t, err)
		assert.Equal(t, entity.LotStatusActive, l.Status)
		assert.True(t, l.RemainingQuantity.Equal(decimal.NewFromInt(50)))

		stored := f.lots.lots[l.ID]
		require.NotNil(t, stored)
		assert.True(t, stored.InitialQuantity.Equal(stored.RemainingQuantity))

		// (100*10 + 50*16) / 150 = 12
		assert.True(t, f.products.products[testProduct].Cost.Equal(decimal.NewFromInt(12)))

		// La recepción no genera fila de movimiento
		assert.Empty(t, f.movements.movements)
	})

	t.Run("rechaza cantidad inicial no positiva", func(t *testing.T) {
		f := newFixture(ledger.Config{})
		_, err := f.uc.ReceiveLot(ctx, ledger.ReceiveLotInput{
			CompanyID:       testCompany,
			ProductID:       testProduct,
			LotNumber:       "L-x",
			InitialQuantity: decimal.Zero,
		})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("producto inexistente", func(t *testing.T) {
		f := newFixture(ledger.Config{})
		_, err := f.uc.ReceiveLot(ctx, ledger.ReceiveLotInput{
			CompanyID:       testCompany,
			ProductID:       "no-existe",
			LotNumber:       "L-x",
			InitialQuantity: decimal.NewFromInt(10),
		})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestApplyMovement(t *testing.T) {
	ctx := context.Background()

	t.Run("salida descuenta y conserva el invariante del saldo", func(t *testing.T) {
		f := newFixture(ledger.Config{})
		f.seedLot("lote-1", 100)

		mov, err := f.uc.ApplyMovement(ctx, ledger.ApplyMovementInput{
			CompanyID: testCompany,
			ActorID:   testActor,
			LotID:     "lote-1",
			Type:      entity.MovementTypeExit,
			Quantity:  decimal.NewFromInt(30),
		})
		require.NoError(t, err)
		assert.True(t, mov.Quantity.Equal(decimal.NewFromInt(-30)), "el efecto se guarda con signo")
		assert.True(t, f.lots.lots["lote-1"].RemainingQuantity.Equal(decimal.NewFromInt(70)))
		f.assertConservation(t, "lote-1")
	})

	t.Run("entrada y devolución aumentan", func(t *testing.T) {
		f := newFixture(ledger.Config{})
		f.seedLot("lote-1", 10)

		for _, typ := range []string{entity.MovementTypeEntry, entity.MovementTypeReturn} {
			_, err := f.uc.ApplyMovement(ctx, ledger.ApplyMovementInput{
				CompanyID: testCompany,
				LotID:     "lote-1",
				Type:      typ,
				Quantity:  decimal.NewFromInt(5),
			})
			require.NoError(t, err)
		}
		assert.True(t, f.lots.lots["lote-1"].RemainingQuantity.Equal(decimal.NewFromInt(20)))
		f.assertConservation(t, "lote-1")
	})

	t.Run("sin saldo suficiente no escribe nada", func(t *testing.T) {
		f := newFixture(ledger.Config{})
		f.seedLot("lote-1", 10)

		_, err := f.uc.ApplyMovement(ctx, ledger.ApplyMovementInput{
			CompanyID: testCompany,
			LotID:     "lote-1",
			Type:      entity.MovementTypeExit,
			Quantity:  decimal.NewFromInt(11),
		})
		assert.ErrorIs(t, err, domain.ErrInsufficientQuantity)
		assert.True(t, f.lots.lots["lote-1"].RemainingQuantity.Equal(decimal.NewFromInt(10)))
		assert.Empty(t, f.movements.movements)
	})

	t.Run("override explícito permite saldo negativo", func(t *testing.T) {
		f := newFixture(ledger.Config{})
		f.seedLot("lote-1", 10)

		_, err := f.uc.ApplyMovement(ctx, ledger.ApplyMovementInput{
			CompanyID:     testCompany,
			LotID:         "lote-1",
			Type:          entity.MovementTypeExit,
			Quantity:      decimal.NewFromInt(15),
			AllowNegative: true,
		})
		require.NoError(t, err)
		assert.True(t, f.lots.lots["lote-1"].RemainingQuantity.Equal(decimal.NewFromInt(-5)))
		assert.Equal(t, entity.LotStatusDepleted, f.lots.lots["lote-1"].Status)
	})

	t.Run("ajuste deriva el delta de la cantidad contada", func(t *testing.T) {
		f := newFixture(ledger.Config{})
		f.seedLot("lote-1", 20)

		counted := decimal.NewFromInt(17)
		mov, err := f.uc.ApplyMovement(ctx, ledger.ApplyMovementInput{
			CompanyID:       testCompany,
			LotID:           "lote-1",
			Type:            entity.MovementTypeAdjustment,
			CountedQuantity: &counted,
		})
		require.NoError(t, err)
		assert.True(t, mov.Quantity.Equal(decimal.NewFromInt(-3)))
		assert.True(t, f.lots.lots["lote-1"].RemainingQuantity.Equal(counted))
		f.assertConservation(t, "lote-1")
	})

	t.Run("ajuste sin cantidad contada es inválido", func(t *testing.T) {
		f := newFixture(ledger.Config{})
		f.seedLot("lote-1", 20)

		_, err := f.uc.ApplyMovement(ctx, ledger.ApplyMovementInput{
			CompanyID: testCompany,
			LotID:     "lote-1",
			Type:      entity.MovementTypeAdjustment,
		})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("agotamiento en cero y reactivación por entrada", func(t *testing.T) {
		f := newFixture(ledger.Config{})
		f.seedLot("lote-1", 10)

		_, err := f.uc.ApplyMovement(ctx, ledger.ApplyMovementInput{
			CompanyID: testCompany,
			LotID:     "lote-1",
			Type:      entity.MovementTypeExit,
			Quantity:  decimal.NewFromInt(10),
		})
		require.NoError(t, err)
		assert.Equal(t, entity.LotStatusDepleted, f.lots.lots["lote-1"].Status)

		_, err = f.uc.ApplyMovement(ctx, ledger.ApplyMovementInput{
			CompanyID: testCompany,
			LotID:     "lote-1",
			Type:      entity.MovementTypeReturn,
			Quantity:  decimal.NewFromInt(4),
		})
		require.NoError(t, err)
		assert.Equal(t, entity.LotStatusActive, f.lots.lots["lote-1"].Status)
		f.assertConservation(t, "lote-1")
	})

	t.Run("tipo desconocido", func(t *testing.T) {
		f := newFixture(ledger.Config{})
		_, err := f.uc.ApplyMovement(ctx, ledger.ApplyMovementInput{
			CompanyID: testCompany,
			LotID:     "lote-1",
			Type:      "teleport",
			Quantity:  decimal.NewFromInt(1),
		})
		assert.ErrorIs(t, err, domain.ErrInvalidMovementType)
	})

	t.Run("lote inexistente", func(t *testing.T) {
		f := newFixture(ledger.Config{})
		_, err := f.uc.ApplyMovement(ctx, ledger.ApplyMovementInput{
			CompanyID: testCompany,
			LotID:     "fantasma",
			Type:      entity.MovementTypeExit,
			Quantity:  decimal.NewFromInt(1),
		})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestApplyMovement_Transfer(t *testing.T) {
	ctx := context.Background()

	t.Run("emite el par salida/entrada en la misma transacción", func(t *testing.T) {
		f := newFixture(ledger.Config{})
		f.seedLot("origen", 50)
		f.seedLot("destino", 5)

		dest := "destino"
		out, err := f.uc.ApplyMovement(ctx, ledger.ApplyMovementInput{
			CompanyID:        testCompany,
			ActorID:          testActor,
			LotID:            "origen",
			Type:             entity.MovementTypeTransfer,
			Quantity:         decimal.NewFromInt(20),
			DestinationLotID: &dest,
		})
		require.NoError(t, err)

		assert.True(t, f.lots.lots["origen"].RemainingQuantity.Equal(decimal.NewFromInt(30)))
		assert.True(t, f.lots.lots["destino"].RemainingQuantity.Equal(decimal.NewFromInt(25)))
		require.Len(t, f.movements.movements, 2)

		inMovs, err := f.movements.ListByLot(testCompany, "destino", nil, nil, 100, 0)
		require.NoError(t, err)
		require.Len(t, inMovs, 1)
		assert.Equal(t, out.ID, inMovs[0].ReferenceID, "la entrada referencia causalmente a la salida")
		assert.True(t, inMovs[0].Quantity.Equal(decimal.NewFromInt(20)))
	})

	t.Run("destino igual al origen es inválido", func(t *testing.T) {
		f := newFixture(ledger.Config{})
		f.seedLot("origen", 50)

		same := "origen"
		_, err := f.uc.ApplyMovement(ctx, ledger.ApplyMovementInput{
			CompanyID:        testCompany,
			LotID:            "origen",
			Type:             entity.MovementTypeTransfer,
			Quantity:         decimal.NewFromInt(5),
			DestinationLotID: &same,
		})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("destino inexistente falla la transacción", func(t *testing.T) {
		f := newFixture(ledger.Config{})
		f.seedLot("origen", 50)

		dest := "fantasma"
		_, err := f.uc.ApplyMovement(ctx, ledger.ApplyMovementInput{
			CompanyID:        testCompany,
			LotID:            "origen",
			Type:             entity.MovementTypeTransfer,
			Quantity:         decimal.NewFromInt(5),
			DestinationLotID: &dest,
		})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestUpdateMovement(t *testing.T) {
	ctx := context.Background()

	t.Run("compensa el efecto original y aplica el nuevo", func(t *testing.T) {
		f := newFixture(ledger.Config{})
		f.seedLot("lote-1", 100)

		mov, err := f.uc.ApplyMovement(ctx, ledger.ApplyMovementInput{
			CompanyID: testCompany,
			LotID:     "lote-1",
			Type:      entity.MovementTypeExit,
			Quantity:  decimal.NewFromInt(5),
		})
		require.NoError(t, err)
		require.True(t, f.lots.lots["lote-1"].RemainingQuantity.Equal(decimal.NewFromInt(95)))

		updated, err := f.uc.UpdateMovement(ctx, testCompany, mov.ID, decimal.NewFromInt(8), nil)
		require.NoError(t, err)
		assert.True(t, updated.Quantity.Equal(decimal.NewFromInt(-8)))
		assert.True(t, f.lots.lots["lote-1"].RemainingQuantity.Equal(decimal.NewFromInt(92)))
		f.assertConservation(t, "lote-1")
	})

	t.Run("no permite editar un transfer en sitio", func(t *testing.T) {
		f := newFixture(ledger.Config{})
		f.seedLot("origen", 50)
		f.seedLot("destino", 5)

		dest := "destino"
		mov, err := f.uc.ApplyMovement(ctx, ledger.ApplyMovementInput{
			CompanyID:        testCompany,
			LotID:            "origen",
			Type:             entity.MovementTypeTransfer,
			Quantity:         decimal.NewFromInt(10),
			DestinationLotID: &dest,
		})
		require.NoError(t, err)

		_, err = f.uc.UpdateMovement(ctx, testCompany, mov.ID, decimal.NewFromInt(5), nil)
		assert.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("rechaza si la compensación dejaría saldo negativo", func(t *testing.T) {
		f := newFixture(ledger.Config{})
		f.seedLot("lote-1", 10)

		mov, err := f.uc.ApplyMovement(ctx, ledger.ApplyMovementInput{
			CompanyID: testCompany,
			LotID:     "lote-1",
			Type:      entity.MovementTypeExit,
			Quantity:  decimal.NewFromInt(5),
		})
		require.NoError(t, err)

		_, err = f.uc.UpdateMovement(ctx, testCompany, mov.ID, decimal.NewFromInt(11), nil)
		assert.ErrorIs(t, err, domain.ErrInsufficientQuantity)
		assert.True(t, f.lots.lots["lote-1"].RemainingQuantity.Equal(decimal.NewFromInt(5)))
	})
}

func TestDeleteMovement(t *testing.T) {
	ctx := context.Background()

	t.Run("restituye el saldo exacto previo al movimiento", func(t *testing.T) {
		f := newFixture(ledger.Config{})
		f.seedLot("lote-1", 100)

		mov, err := f.uc.ApplyMovement(ctx, ledger.ApplyMovementInput{
			CompanyID: testCompany,
			LotID:     "lote-1",
			Type:      entity.MovementTypeExit,
			Quantity:  decimal.NewFromInt(40),
		})
		require.NoError(t, err)
		require.True(t, f.lots.lots["lote-1"].RemainingQuantity.Equal(decimal.NewFromInt(60)))

		require.NoError(t, f.uc.DeleteMovement(ctx, testCompany, mov.ID))
		assert.True(t, f.lots.lots["lote-1"].RemainingQuantity.Equal(decimal.NewFromInt(100)))
		assert.Empty(t, f.movements.movements)
		f.assertConservation(t, "lote-1")
	})

	t.Run("movimiento inexistente", func(t *testing.T) {
		f := newFixture(ledger.Config{})
		err := f.uc.DeleteMovement(ctx, testCompany, "no-existe")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestDeleteMovement_Transfer(t *testing.T) {
	ctx := context.Background()

	transfer := func(t *testing.T, f *fixture) *entity.LotMovement {
		t.Helper()
		dest := "destino"
		out, err := f.uc.ApplyMovement(ctx, ledger.ApplyMovementInput{
			CompanyID:        testCompany,
			LotID:            "origen",
			Type:             entity.MovementTypeTransfer,
			Quantity:         decimal.NewFromInt(20),
			DestinationLotID: &dest,
		})
		require.NoError(t, err)
		return out
	}

	t.Run("borrar la pata de salida revierte el par completo", func(t *testing.T) {
		f := newFixture(ledger.Config{})
		f.seedLot("origen", 50)
		f.seedLot("destino", 5)
		out := transfer(t, f)

		require.NoError(t, f.uc.DeleteMovement(ctx, testCompany, out.ID))

		assert.True(t, f.lots.lots["origen"].RemainingQuantity.Equal(decimal.NewFromInt(50)))
		assert.True(t, f.lots.lots["destino"].RemainingQuantity.Equal(decimal.NewFromInt(5)))
		assert.Empty(t, f.movements.movements, "las dos patas se eliminan juntas")
		f.assertConservation(t, "origen")
		f.assertConservation(t, "destino")
	})

	t.Run("borrar la pata de entrada revierte el mismo par", func(t *testing.T) {
		f := newFixture(ledger.Config{})
		f.seedLot("origen", 50)
		f.seedLot("destino", 5)
		out := transfer(t, f)

		in, err := f.movements.GetTransferInLeg(testCompany, out.ID)
		require.NoError(t, err)
		require.NotNil(t, in)

		require.NoError(t, f.uc.DeleteMovement(ctx, testCompany, in.ID))

		assert.True(t, f.lots.lots["origen"].RemainingQuantity.Equal(decimal.NewFromInt(50)))
		assert.True(t, f.lots.lots["destino"].RemainingQuantity.Equal(decimal.NewFromInt(5)))
		assert.Empty(t, f.movements.movements)
	})

	t.Run("destino que ya consumió lo transferido bloquea la reversión", func(t *testing.T) {
		f := newFixture(ledger.Config{})
		f.seedLot("origen", 50)
		f.seedLot("destino", 5)
		out := transfer(t, f)

		// destino queda en 25; consume 10 y ya no puede devolver 20
		_, err := f.uc.ApplyMovement(ctx, ledger.ApplyMovementInput{
			CompanyID: testCompany,
			LotID:     "destino",
			Type:      entity.MovementTypeExit,
			Quantity:  decimal.NewFromInt(10),
		})
		require.NoError(t, err)

		err = f.uc.DeleteMovement(ctx, testCompany, out.ID)
		assert.ErrorIs(t, err, domain.ErrInsufficientQuantity)
		assert.True(t, f.lots.lots["origen"].RemainingQuantity.Equal(decimal.NewFromInt(30)))
		assert.True(t, f.lots.lots["destino"].RemainingQuantity.Equal(decimal.NewFromInt(15)))
		assert.Len(t, f.movements.movements, 3, "ninguna pata se elimina")
	})

	t.Run("pata sin contraparte no se toca", func(t *testing.T) {
		f := newFixture(ledger.Config{})
		f.seedLot("origen", 50)

		dest := "destino"
		orphan := &entity.LotMovement{
			ID:               "huerfano",
			CompanyID:        testCompany,
			LotID:            "origen",
			Type:             entity.MovementTypeTransfer,
			Quantity:         decimal.NewFromInt(-20),
			DestinationLotID: &dest,
		}
		require.NoError(t, f.movements.Create(orphan))

		err := f.uc.DeleteMovement(ctx, testCompany, "huerfano")
		assert.ErrorIs(t, err, domain.ErrConflict)
		assert.Len(t, f.movements.movements, 1)
	})
}

func TestRetryOnConcurrencyConflict(t *testing.T) {
	ctx := context.Background()

	t.Run("reintenta y termina dentro del tope", func(t *testing.T) {
		f := newFixture(ledger.Config{MaxRetries: 3})
		f.seedLot("lote-1", 100)
		f.runner.conflicts = 2

		_, err := f.uc.ApplyMovement(ctx, ledger.ApplyMovementInput{
			CompanyID: testCompany,
			LotID:     "lote-1",
			Type:      entity.MovementTypeExit,
			Quantity:  decimal.NewFromInt(10),
		})
		require.NoError(t, err)
		assert.True(t, f.lots.lots["lote-1"].RemainingQuantity.Equal(decimal.NewFromInt(90)))
	})

	t.Run("propaga el conflicto agotados los reintentos", func(t *testing.T) {
		f := newFixture(ledger.Config{MaxRetries: 3})
		f.seedLot("lote-1", 100)
		f.runner.conflicts = 3

		_, err := f.uc.ApplyMovement(ctx, ledger.ApplyMovementInput{
			CompanyID: testCompany,
			LotID:     "lote-1",
			Type:      entity.MovementTypeExit,
			Quantity:  decimal.NewFromInt(10),
		})
		assert.ErrorIs(t, err, domain.ErrConcurrencyConflict)
		assert.True(t, f.lots.lots["lote-1"].RemainingQuantity.Equal(decimal.NewFromInt(100)))
	})
}
