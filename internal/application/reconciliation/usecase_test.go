package reconciliation_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farmaops/farmacia-stock-api/internal/application/ledger"
	"github.com/farmaops/farmacia-stock-api/internal/application/reconciliation"
	"github.com/farmaops/farmacia-stock-api/internal/domain"
	"github.com/farmaops/farmacia-stock-api/internal/domain/entity"
	"github.com/farmaops/farmacia-stock-api/internal/domain/repository"
)

// --- fakes en memoria ---

type fakeLotRepo struct {
	lots  map[string]*entity.Lot
	order []string // orden determinista para ListAvailableByProduct
}

func newFakeLotRepo() *fakeLotRepo {
	return &fakeLotRepo{lots: make(map[string]*entity.Lot)}
}

func (r *fakeLotRepo) seed(l entity.Lot) {
	cp := l
	r.lots[l.ID] = &cp
	r.order = append(r.order, l.ID)
}

func (r *fakeLotRepo) Create(l *entity.Lot) error {
	r.seed(*l)
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
	var out []*entity.Lot
	for _, id := range r.order {
		l := r.lots[id]
		if l.CompanyID == companyID && l.ProductID == productID && l.RemainingQuantity.GreaterThan(decimal.Zero) {
			cp := *l
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeLotRepo) ListExpiringBefore(companyID string, days, limit, offset int) ([]*entity.Lot, error) {
	return nil, nil
}

func (r *fakeLotRepo) UpdateStatus(companyID, id, status string) error {
	return nil
}

type fakeMovementRepo struct {
	movements []*entity.LotMovement
}

func (r *fakeMovementRepo) Create(m *entity.LotMovement) error {
	cp := *m
	r.movements = append(r.movements, &cp)
	return nil
}

func (r *fakeMovementRepo) GetByID(companyID, id string) (*entity.LotMovement, error) {
	return nil, nil
}

func (r *fakeMovementRepo) GetTransferInLeg(companyID, outMovementID string) (*entity.LotMovement, error) {
	return nil, nil
}

func (r *fakeMovementRepo) Update(m *entity.LotMovement) error { return nil }

func (r *fakeMovementRepo) Delete(companyID, id string) error { return nil }

func (r *fakeMovementRepo) ListByLot(companyID, lotID string, from, to *time.Time, limit, offset int) ([]*entity.LotMovement, error) {
	return nil, nil
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

type fakeReconRepo struct {
	sessions map[string]*entity.InventorySession
	items    map[string]*entity.ReconciliationItem
}

func newFakeReconRepo() *fakeReconRepo {
	return &fakeReconRepo{
		sessions: make(map[string]*entity.InventorySession),
		items:    make(map[string]*entity.ReconciliationItem),
	}
}

func (r *fakeReconRepo) CreateSession(s *entity.InventorySession) error {
	cp := *s
	r.sessions[s.ID] = &cp
	return nil
}

func (r *fakeReconRepo) GetSession(companyID, id string) (*entity.InventorySession, error) {
	s, ok := r.sessions[id]
	if !ok || s.CompanyID != companyID {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (r *fakeReconRepo) CloseSession(companyID, id string) error {
	s, ok := r.sessions[id]
	if !ok || s.CompanyID != companyID {
		return domain.ErrNotFound
	}
	now := time.Now()
	s.Status = entity.SessionStatusClosed
	s.ClosedAt = &now
	return nil
}

func (r *fakeReconRepo) CreateItem(item *entity.ReconciliationItem) error {
	cp := *item
	r.items[item.ID] = &cp
	return nil
}

func (r *fakeReconRepo) GetItem(companyID, id string) (*entity.ReconciliationItem, error) {
	item, ok := r.items[id]
	if !ok || item.CompanyID != companyID {
		return nil, nil
	}
	cp := *item
	return &cp, nil
}

func (r *fakeReconRepo) GetItemForUpdate(companyID, id string) (*entity.ReconciliationItem, error) {
	return r.GetItem(companyID, id)
}

func (r *fakeReconRepo) UpdateItem(item *entity.ReconciliationItem) error {
	if _, ok := r.items[item.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *item
	r.items[item.ID] = &cp
	return nil
}

func (r *fakeReconRepo) ListItemsBySession(companyID, sessionID string, limit, offset int) ([]*entity.ReconciliationItem, error) {
	var out []*entity.ReconciliationItem
	for _, item := range r.items {
		if item.CompanyID == companyID && item.SessionID == sessionID {
			cp := *item
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeReconRepo) ListPending(companyID string, limit, offset int) ([]*entity.ReconciliationItem, error) {
	var out []*entity.ReconciliationItem
	for _, item := range r.items {
		if item.CompanyID == companyID && item.Status == entity.ReconciliationStatusPending {
			cp := *item
			out = append(out, &cp)
		}
	}
	return out, nil
}

type fakeProductRepo struct{}

func (fakeProductRepo) Create(*entity.Product) error { return nil }

func (fakeProductRepo) GetByID(companyID, id string) (*entity.Product, error) { return nil, nil }

func (fakeProductRepo) List(companyID string, limit, offset int) ([]*entity.Product, error) {
	return nil, nil
}

func (fakeProductRepo) UpdateCost(companyID, id string, cost decimal.Decimal) error { return nil }

func (fakeProductRepo) ListWithStock(companyID string) ([]*entity.Product, []repository.ProductStock, error) {
	return nil, nil, nil
}

func (fakeProductRepo) CurrentStock(companyID, productID string) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

// fakeTxRunner ejecuta las funciones directamente sobre los fakes, sin
// transacción real.
type fakeTxRunner struct {
	lots      *fakeLotRepo
	movements *fakeMovementRepo
	recon     *fakeReconRepo
}

func (r *fakeTxRunner) Run(ctx context.Context, fn func(
	repository.LotRepository,
	repository.LotMovementRepository,
	repository.ProductRepository,
) error) error {
	return fn(r.lots, r.movements, fakeProductRepo{})
}

func (r *fakeTxRunner) RunReconciliation(ctx context.Context, fn func(
	repository.LotRepository,
	repository.LotMovementRepository,
	repository.ReconciliationRepository,
) error) error {
	return fn(r.lots, r.movements, r.recon)
}

// --- fixture ---

const (
	testCompany = "c1"
	testProduct = "p1"
	testActor   = "u1"
)

type fixture struct {
	uc        *reconciliation.UseCase
	lots      *fakeLotRepo
	movements *fakeMovementRepo
	recon     *fakeReconRepo
}

func newFixture() *fixture {
	f := &fixture{
		lots:      newFakeLotRepo(),
		movements: &fakeMovementRepo{},
		recon:     newFakeReconRepo(),
	}
	runner := &fakeTxRunner{lots: f.lots, movements: f.movements, recon: f.recon}
	ledgerUC := ledger.NewUseCase(runner, ledger.Config{})
	f.uc = reconciliation.NewUseCase(runner, ledgerUC, f.recon, f.lots, fakeProductRepo{})
	return f
}

func (f *fixture) seedLot(id string, remaining int64) {
	f.lots.seed(entity.Lot{
		ID:                id,
		CompanyID:         testCompany,
		ProductID:         testProduct,
		LotNumber:         "L-" + id,
		InitialQuantity:   decimal.NewFromInt(remaining),
		RemainingQuantity: decimal.NewFromInt(remaining),
		UnitCost:          decimal.NewFromInt(10),
		Status:            entity.LotStatusActive,
	})
}

// snapshotOne toma una foto de un solo conteo y devuelve el ítem creado.
func (f *fixture) snapshotOne(t *testing.T, c reconciliation.Count) *entity.ReconciliationItem {
	t.Helper()
	session, err := f.uc.Snapshot(context.Background(), reconciliation.SnapshotInput{
		CompanyID:   testCompany,
		ActorID:     testActor,
		SessionName: "conteo mensual",
		Counts:      []reconciliation.Count{c},
	})
	require.NoError(t, err)
	items, err := f.recon.ListItemsBySession(testCompany, session.ID, 100, 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	return items[0]
}

// --- pruebas ---

func TestSnapshot(t *testing.T) {
	ctx := context.Background()

	t.Run("conteo por lote usa el remanente del lote como teórica", func(t *testing.T) {
		f := newFixture()
		f.seedLot("lote-1", 20)

		lotID := "lote-1"
		item := f.snapshotOne(t, reconciliation.Count{
			ProductID:  testProduct,
			LotID:      &lotID,
			CountedQty: decimal.NewFromInt(17),
		})

		assert.Equal(t, entity.ReconciliationStatusPending, item.Status)
		assert.True(t, item.TheoreticalQty.Equal(decimal.NewFromInt(20)))
		assert.True(t, item.Variance().Equal(decimal.NewFromInt(-3)))
		assert.True(t, item.VarianceValue().Equal(decimal.NewFromInt(-30)))
	})

	t.Run("varianza cero queda conforming y fuera de la cola", func(t *testing.T) {
		f := newFixture()
		f.seedLot("lote-1", 20)

		lotID := "lote-1"
		item := f.snapshotOne(t, reconciliation.Count{
			ProductID:  testProduct,
			LotID:      &lotID,
			CountedQty: decimal.NewFromInt(20),
		})
		assert.Equal(t, entity.ReconciliationStatusConforming, item.Status)

		pending, err := f.uc.PendingQueue(ctx, testCompany, 100, 0)
		require.NoError(t, err)
		assert.Empty(t, pending)
	})

	t.Run("conteo por producto suma remanentes y ancla el primer lote disponible", func(t *testing.T) {
		f := newFixture()
		f.seedLot("lote-1", 10)
		f.seedLot("lote-2", 5)

		item := f.snapshotOne(t, reconciliation.Count{
			ProductID:  testProduct,
			CountedQty: decimal.NewFromInt(12),
		})

		assert.True(t, item.TheoreticalQty.Equal(decimal.NewFromInt(15)))
		require.NotNil(t, item.LotID)
		assert.Equal(t, "lote-1", *item.LotID)
	})

	t.Run("producto sin lotes disponibles deja el ítem sin lote ancla", func(t *testing.T) {
		f := newFixture()
		item := f.snapshotOne(t, reconciliation.Count{
			ProductID:  testProduct,
			CountedQty: decimal.NewFromInt(5),
		})
		assert.Nil(t, item.LotID)
		assert.True(t, item.TheoreticalQty.IsZero())
	})

	t.Run("entradas inválidas", func(t *testing.T) {
		f := newFixture()
		_, err := f.uc.Snapshot(ctx, reconciliation.SnapshotInput{CompanyID: testCompany})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)

		_, err = f.uc.Snapshot(ctx, reconciliation.SnapshotInput{
			CompanyID: testCompany,
			Counts:    []reconciliation.Count{{ProductID: testProduct, CountedQty: decimal.NewFromInt(-1)}},
		})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestValidate(t *testing.T) {
	ctx := context.Background()

	t.Run("emite el ajuste exacto de la varianza y marca validated", func(t *testing.T) {
		f := newFixture()
		f.seedLot("lote-1", 20)

		lotID := "lote-1"
		item := f.snapshotOne(t, reconciliation.Count{
			ProductID:  testProduct,
			LotID:      &lotID,
			CountedQty: decimal.NewFromInt(17),
		})

		require.NoError(t, f.uc.Validate(ctx, testCompany, item.ID, "merma", "rotura en góndola", testActor))

		assert.True(t, f.lots.lots["lote-1"].RemainingQuantity.Equal(decimal.NewFromInt(17)))
		require.Len(t, f.movements.movements, 1)
		mov := f.movements.movements[0]
		assert.Equal(t, entity.MovementTypeAdjustment, mov.Type)
		assert.True(t, mov.Quantity.Equal(decimal.NewFromInt(-3)))
		assert.Equal(t, "reconciliation", mov.ReferenceType)
		assert.Equal(t, item.ID, mov.ReferenceID)

		decided, err := f.recon.GetItem(testCompany, item.ID)
		require.NoError(t, err)
		assert.Equal(t, entity.ReconciliationStatusValidated, decided.Status)
		assert.Equal(t, "merma", decided.ReasonCode)
		assert.Equal(t, testActor, decided.DecidedBy)
		assert.NotNil(t, decided.DecidedAt)
	})

	t.Run("una segunda decisión sobre el mismo ítem falla", func(t *testing.T) {
		f := newFixture()
		f.seedLot("lote-1", 20)

		lotID := "lote-1"
		item := f.snapshotOne(t, reconciliation.Count{
			ProductID:  testProduct,
			LotID:      &lotID,
			CountedQty: decimal.NewFromInt(17),
		})

		require.NoError(t, f.uc.Validate(ctx, testCompany, item.ID, "merma", "", testActor))

		err := f.uc.Validate(ctx, testCompany, item.ID, "merma", "", testActor)
		assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)
		// El ajuste no se aplica dos veces
		assert.True(t, f.lots.lots["lote-1"].RemainingQuantity.Equal(decimal.NewFromInt(17)))
		assert.Len(t, f.movements.movements, 1)
	})

	t.Run("ítem conforming no admite decisión", func(t *testing.T) {
		f := newFixture()
		f.seedLot("lote-1", 20)

		lotID := "lote-1"
		item := f.snapshotOne(t, reconciliation.Count{
			ProductID:  testProduct,
			LotID:      &lotID,
			CountedQty: decimal.NewFromInt(20),
		})

		err := f.uc.Validate(ctx, testCompany, item.ID, "", "", testActor)
		assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)
	})

	t.Run("ítem sin lote ancla no puede ajustar", func(t *testing.T) {
		f := newFixture()
		item := f.snapshotOne(t, reconciliation.Count{
			ProductID:  testProduct,
			CountedQty: decimal.NewFromInt(5),
		})
		require.Nil(t, item.LotID)

		err := f.uc.Validate(ctx, testCompany, item.ID, "", "", testActor)
		assert.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("ítem inexistente", func(t *testing.T) {
		f := newFixture()
		err := f.uc.Validate(ctx, testCompany, "no-existe", "", "", testActor)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestRejectAndCorrect(t *testing.T) {
	ctx := context.Background()

	t.Run("rechazar no toca stock; corregir después aplica el ajuste", func(t *testing.T) {
		f := newFixture()
		f.seedLot("lote-1", 20)

		lotID := "lote-1"
		item := f.snapshotOne(t, reconciliation.Count{
			ProductID:  testProduct,
			LotID:      &lotID,
			CountedQty: decimal.NewFromInt(17),
		})

		require.NoError(t, f.uc.Reject(ctx, testCompany, item.ID, "conteo dudoso", "recontar", testActor))
		assert.True(t, f.lots.lots["lote-1"].RemainingQuantity.Equal(decimal.NewFromInt(20)))
		assert.Empty(t, f.movements.movements)

		rejected, err := f.recon.GetItem(testCompany, item.ID)
		require.NoError(t, err)
		assert.Equal(t, entity.ReconciliationStatusRejected, rejected.Status)

		require.NoError(t, f.uc.Correct(ctx, testCompany, item.ID, testActor))
		assert.True(t, f.lots.lots["lote-1"].RemainingQuantity.Equal(decimal.NewFromInt(17)))
		require.Len(t, f.movements.movements, 1)

		corrected, err := f.recon.GetItem(testCompany, item.ID)
		require.NoError(t, err)
		assert.Equal(t, entity.ReconciliationStatusCorrected, corrected.Status)
	})

	t.Run("corregir exige un rechazo previo", func(t *testing.T) {
		f := newFixture()
		f.seedLot("lote-1", 20)

		lotID := "lote-1"
		item := f.snapshotOne(t, reconciliation.Count{
			ProductID:  testProduct,
			LotID:      &lotID,
			CountedQty: decimal.NewFromInt(17),
		})

		err := f.uc.Correct(ctx, testCompany, item.ID, testActor)
		assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)
	})
}

func TestAnnotate(t *testing.T) {
	ctx := context.Background()

	t.Run("ítems pendientes no se anotan", func(t *testing.T) {
		f := newFixture()
		f.seedLot("lote-1", 20)

		lotID := "lote-1"
		item := f.snapshotOne(t, reconciliation.Count{
			ProductID:  testProduct,
			LotID:      &lotID,
			CountedQty: decimal.NewFromInt(17),
		})

		err := f.uc.Annotate(ctx, testCompany, item.ID, "merma", "nota")
		assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)
	})

	t.Run("ítems decididos admiten anotación de auditoría", func(t *testing.T) {
		f := newFixture()
		f.seedLot("lote-1", 20)

		lotID := "lote-1"
		item := f.snapshotOne(t, reconciliation.Count{
			ProductID:  testProduct,
			LotID:      &lotID,
			CountedQty: decimal.NewFromInt(17),
		})
		require.NoError(t, f.uc.Validate(ctx, testCompany, item.ID, "merma", "", testActor))

		require.NoError(t, f.uc.Annotate(ctx, testCompany, item.ID, "vencimiento", "lote vencido en góndola"))

		annotated, err := f.recon.GetItem(testCompany, item.ID)
		require.NoError(t, err)
		assert.Equal(t, "vencimiento", annotated.ReasonCode)
		assert.Equal(t, "lote vencido en góndola", annotated.Note)
		assert.Equal(t, entity.ReconciliationStatusValidated, annotated.Status, "la anotación no cambia el estado")
	})
}

func TestCloseSession(t *testing.T) {
	ctx := context.Background()

	t.Run("cierra una sesión abierta una sola vez", func(t *testing.T) {
		f := newFixture()
		f.seedLot("lote-1", 20)

		session, err := f.uc.Snapshot(ctx, reconciliation.SnapshotInput{
			CompanyID: testCompany,
			Counts:    []reconciliation.Count{{ProductID: testProduct, CountedQty: decimal.NewFromInt(20)}},
		})
		require.NoError(t, err)

		require.NoError(t, f.uc.CloseSession(ctx, testCompany, session.ID))
		assert.Equal(t, entity.SessionStatusClosed, f.recon.sessions[session.ID].Status)

		err = f.uc.CloseSession(ctx, testCompany, session.ID)
		assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)
	})
}
