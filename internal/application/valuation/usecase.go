package valuation

import (
	"context"
	"time"

	"github.com/farmaops/farmacia-stock-api/internal/domain"
	"github.com/farmaops/farmacia-stock-api/internal/domain/entity"
	"github.com/farmaops/farmacia-stock-api/internal/domain/lot"
	"github.com/farmaops/farmacia-stock-api/internal/domain/repository"
)

// Ventana histórica por defecto para la tasa de consumo de planificación.
const consumptionWindowDays = 90

// UseCase valoriza el stock remanente por producto y deriva las salidas
// consultivas de planificación. Lectura pura: nunca muta lotes ni movimientos.
type UseCase struct {
	lotRepo     repository.LotRepository
	movRepo     repository.LotMovementRepository
	productRepo repository.ProductRepository
	companyRepo repository.CompanyRepository
	configRepo  repository.RotationConfigRepository
}

// NewUseCase construye el caso de uso de valorización.
func NewUseCase(
	lotRepo repository.LotRepository,
	movRepo repository.LotMovementRepository,
	productRepo repository.ProductRepository,
	companyRepo repository.CompanyRepository,
	configRepo repository.RotationConfigRepository,
) *UseCase {
	return &UseCase{
		lotRepo:     lotRepo,
		movRepo:     movRepo,
		productRepo: productRepo,
		companyRepo: companyRepo,
		configRepo:  configRepo,
	}
}

// ValueProduct valoriza el remanente del producto con el método indicado
// (FIFO, LIFO o PMP), redondeando una sola vez a la precisión del tenant.
func (uc *UseCase) ValueProduct(ctx context.Context, companyID, productID, method string) (lot.Valuation, error) {
	if !lot.IsValidValuationMethod(method) {
		return lot.Valuation{}, domain.ErrInvalidInput
	}
	precision, excludeExpired, err := uc.valuationSettings(ctx, companyID, productID)
	if err != nil {
		return lot.Valuation{}, err
	}
	lots, err := uc.lotRepo.ListAvailableByProduct(companyID, productID)
	if err != nil {
		return lot.Valuation{}, err
	}
	return lot.ValueProduct(deref(lots), method, precision, excludeExpired, time.Now())
}

// Plan deriva punto de reorden y cantidad óptima de pedido para el producto a
// partir del consumo de los últimos 90 días y la valorización PMP actual.
func (uc *UseCase) Plan(ctx context.Context, companyID, productID string) (lot.Plan, error) {
	product, err := uc.productRepo.GetByID(companyID, productID)
	if err != nil {
		return lot.Plan{}, err
	}
	if product == nil {
		return lot.Plan{}, domain.ErrNotFound
	}
	now := time.Now()
	consumed, err := uc.movRepo.TotalConsumedByProduct(companyID, productID, now.AddDate(0, 0, -consumptionWindowDays), now)
	if err != nil {
		return lot.Plan{}, err
	}
	valuation, err := uc.ValueProduct(ctx, companyID, productID, lot.ValuationMethodPMP)
	if err != nil {
		return lot.Plan{}, err
	}
	return lot.BuildPlan(*product, consumed, consumptionWindowDays, valuation.TotalQuantity, valuation.UnitValue), nil
}

// valuationSettings resuelve la precisión de redondeo del tenant y el flag de
// exclusión de vencidos en valorización (independiente del de consumo).
func (uc *UseCase) valuationSettings(ctx context.Context, companyID, productID string) (int32, bool, error) {
	precision := int32(2)
	company, err := uc.companyRepo.GetByID(companyID)
	if err != nil {
		return 0, false, err
	}
	if company != nil && company.RoundingPrecision > 0 {
		precision = company.RoundingPrecision
	}

	excludeExpired := false
	product, err := uc.productRepo.GetByID(companyID, productID)
	if err != nil {
		return 0, false, err
	}
	if product == nil {
		return 0, false, domain.ErrNotFound
	}
	productCfg, err := uc.configRepo.GetByProduct(companyID, productID)
	if err != nil {
		return 0, false, err
	}
	var familyCfg *entity.RotationConfig
	if product.FamilyID != "" {
		familyCfg, err = uc.configRepo.GetByFamily(companyID, product.FamilyID)
		if err != nil {
			return 0, false, err
		}
	}
	cfg := lot.ResolveConfig(companyID, productCfg, familyCfg)
	excludeExpired = cfg.ExcludeExpiredFromValuation
	return precision, excludeExpired, nil
}

func deref(lots []*entity.Lot) []entity.Lot {
	out := make([]entity.Lot, 0, len(lots))
	for _, l := range lots {
		out = append(out, *l)
	}
	return out
}
