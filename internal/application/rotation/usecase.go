package rotation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/farmaops/farmacia-stock-api/internal/domain"
	"github.com/farmaops/farmacia-stock-api/internal/domain/entity"
	"github.com/farmaops/farmacia-stock-api/internal/domain/lot"
	"github.com/farmaops/farmacia-stock-api/internal/domain/repository"
)

// UseCase resuelve la política de rotación efectiva y selecciona lotes de
// consumo. Solo lee estado de lotes: no reserva ni bloquea; el caller aplica la
// asignación vía el libro y, si otro consumidor ganó el lote, recibe
// ErrInsufficientQuantity y vuelve a seleccionar sobre estado fresco.
type UseCase struct {
	configRepo  repository.RotationConfigRepository
	lotRepo     repository.LotRepository
	productRepo repository.ProductRepository
}

// NewUseCase construye el caso de uso de rotación.
func NewUseCase(
	configRepo repository.RotationConfigRepository,
	lotRepo repository.LotRepository,
	productRepo repository.ProductRepository,
) *UseCase {
	return &UseCase{configRepo: configRepo, lotRepo: lotRepo, productRepo: productRepo}
}

// EffectiveConfig resuelve la configuración aplicable a un producto:
// producto > familia > default del sistema.
func (uc *UseCase) EffectiveConfig(ctx context.Context, companyID, productID string) (entity.RotationConfig, error) {
	product, err := uc.productRepo.GetByID(companyID, productID)
	if err != nil {
		return entity.RotationConfig{}, err
	}
	if product == nil {
		return entity.RotationConfig{}, domain.ErrNotFound
	}
	productCfg, err := uc.configRepo.GetByProduct(companyID, productID)
	if err != nil {
		return entity.RotationConfig{}, err
	}
	var familyCfg *entity.RotationConfig
	if product.FamilyID != "" {
		familyCfg, err = uc.configRepo.GetByFamily(companyID, product.FamilyID)
		if err != nil {
			return entity.RotationConfig{}, err
		}
	}
	return lot.ResolveConfig(companyID, productCfg, familyCfg), nil
}

// SelectLots devuelve las asignaciones (lote, cantidad) que satisfacen la
// cantidad solicitada bajo la política efectiva del producto.
func (uc *UseCase) SelectLots(ctx context.Context, companyID, productID string, requested decimal.Decimal) ([]lot.Allocation, error) {
	cfg, err := uc.EffectiveConfig(ctx, companyID, productID)
	if err != nil {
		return nil, err
	}
	lots, err := uc.lotRepo.ListAvailableByProduct(companyID, productID)
	if err != nil {
		return nil, err
	}
	return lot.SelectLots(cfg, deref(lots), requested, time.Now())
}

// ValidateCompliance verifica, de forma consultiva, si un lote elegido a mano
// es el que la política habría tomado primero. No bloquea ni muta estado.
// Con la rotación deshabilitada todo lote es conforme.
func (uc *UseCase) ValidateCompliance(ctx context.Context, companyID, productID, chosenLotID string) (lot.ComplianceResult, error) {
	cfg, err := uc.EffectiveConfig(ctx, companyID, productID)
	if err != nil {
		return lot.ComplianceResult{}, err
	}
	if !cfg.Enabled {
		return lot.ComplianceResult{Compliant: true, ChosenLotID: chosenLotID}, nil
	}
	lots, err := uc.lotRepo.ListAvailableByProduct(companyID, productID)
	if err != nil {
		return lot.ComplianceResult{}, err
	}
	return lot.ValidateCompliance(cfg, deref(lots), chosenLotID, time.Now()), nil
}

// SaveConfig crea o actualiza una configuración (por producto o por familia,
// exclusivos entre sí).
func (uc *UseCase) SaveConfig(ctx context.Context, cfg *entity.RotationConfig) error {
	if cfg.CompanyID == "" {
		return domain.ErrInvalidInput
	}
	hasProduct := cfg.ProductID != nil && *cfg.ProductID != ""
	hasFamily := cfg.FamilyID != nil && *cfg.FamilyID != ""
	if hasProduct == hasFamily { // ninguno o ambos
		return domain.ErrInvalidInput
	}
	if cfg.Method != entity.RotationMethodFIFO && cfg.Method != entity.RotationMethodLIFO {
		return domain.ErrInvalidInput
	}
	if cfg.ToleranceDays < 0 || cfg.RotationAlertDays < 0 {
		return domain.ErrInvalidInput
	}
	if cfg.ID == "" {
		cfg.ID = uuid.New().String()
	}
	return uc.configRepo.Upsert(cfg)
}

// ListConfigs lista las configuraciones del tenant.
func (uc *UseCase) ListConfigs(ctx context.Context, companyID string, limit, offset int) ([]*entity.RotationConfig, error) {
	return uc.configRepo.List(companyID, limit, offset)
}

// DeleteConfig elimina una configuración; el producto/familia vuelve a heredar.
func (uc *UseCase) DeleteConfig(ctx context.Context, companyID, id string) error {
	return uc.configRepo.Delete(companyID, id)
}

func deref(lots []*entity.Lot) []entity.Lot {
	out := make([]entity.Lot, 0, len(lots))
	for _, l := range lots {
		out = append(out, *l)
	}
	return out
}
