package alerts

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

// Defaults de días de vencimiento cuando el tenant no configuró umbrales.
const (
	defaultExpirationAlertDays    = 90
	defaultExpirationCriticalDays = 30
)

// StockAlert clasificación de stock de un producto.
type StockAlert struct {
	ProductID string
	SKU       string
	Name      string
	Remaining decimal.Decimal
	Level     string
}

// ExpirationAlert clasificación de urgencia de vencimiento de un lote.
type ExpirationAlert struct {
	LotID            string
	LotNumber        string
	ProductID        string
	ExpirationDate   *time.Time
	DaysToExpiration int
	Remaining        decimal.Decimal
	Urgency          string
}

// UseCase deriva alertas de stock y vencimiento del estado actual de lotes y
// umbrales. Solo lectura: no emite mutación alguna; la entrega de
// notificaciones es un colaborador externo.
type UseCase struct {
	lotRepo       repository.LotRepository
	productRepo   repository.ProductRepository
	thresholdRepo repository.AlertThresholdRepository
}

// NewUseCase construye el motor de alertas.
func NewUseCase(
	lotRepo repository.LotRepository,
	productRepo repository.ProductRepository,
	thresholdRepo repository.AlertThresholdRepository,
) *UseCase {
	return &UseCase{lotRepo: lotRepo, productRepo: productRepo, thresholdRepo: thresholdRepo}
}

// ClassifyProduct clasifica el stock remanente de un producto contra su umbral
// efectivo (categoría sobre default del producto).
func (uc *UseCase) ClassifyProduct(ctx context.Context, companyID, productID string) (StockAlert, error) {
	product, err := uc.productRepo.GetByID(companyID, productID)
	if err != nil {
		return StockAlert{}, err
	}
	if product == nil {
		return StockAlert{}, domain.ErrNotFound
	}
	remaining, err := uc.productRepo.CurrentStock(companyID, productID)
	if err != nil {
		return StockAlert{}, err
	}
	threshold, err := uc.effectiveThreshold(companyID, *product)
	if err != nil {
		return StockAlert{}, err
	}
	return StockAlert{
		ProductID: product.ID,
		SKU:       product.SKU,
		Name:      product.Name,
		Remaining: remaining,
		Level:     lot.ClassifyStock(remaining, threshold),
	}, nil
}

// ListStockAlerts barre todos los productos del tenant y devuelve los que no
// están en nivel normal.
func (uc *UseCase) ListStockAlerts(ctx context.Context, companyID string) ([]StockAlert, error) {
	products, stocks, err := uc.productRepo.ListWithStock(companyID)
	if err != nil {
		return nil, err
	}
	stockByProduct := make(map[string]decimal.Decimal, len(stocks))
	for _, s := range stocks {
		stockByProduct[s.ProductID] = s.Remaining
	}

	var out []StockAlert
	for _, p := range products {
		threshold, err := uc.effectiveThreshold(companyID, *p)
		if err != nil {
			return nil, err
		}
		remaining := stockByProduct[p.ID]
		level := lot.ClassifyStock(remaining, threshold)
		if level == lot.StockLevelNormal {
			continue
		}
		out = append(out, StockAlert{
			ProductID: p.ID,
			SKU:       p.SKU,
			Name:      p.Name,
			Remaining: remaining,
			Level:     level,
		})
	}
	return out, nil
}

// ListExpirationAlerts devuelve los lotes con remanente cuya urgencia de
// vencimiento no es ok, usando los días configurados del tenant.
func (uc *UseCase) ListExpirationAlerts(ctx context.Context, companyID string, limit, offset int) ([]ExpirationAlert, error) {
	alertDays, criticalDays, err := uc.expirationDays(companyID)
	if err != nil {
		return nil, err
	}
	lots, err := uc.lotRepo.ListExpiringBefore(companyID, alertDays, limit, offset)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	var out []ExpirationAlert
	for _, l := range lots {
		urgency := lot.ClassifyExpiration(*l, alertDays, criticalDays, now)
		if urgency == lot.ExpirationOK {
			continue
		}
		days, _ := l.DaysToExpiration(now)
		out = append(out, ExpirationAlert{
			LotID:            l.ID,
			LotNumber:        l.LotNumber,
			ProductID:        l.ProductID,
			ExpirationDate:   l.ExpirationDate,
			DaysToExpiration: days,
			Remaining:        l.RemainingQuantity,
			Urgency:          urgency,
		})
	}
	return out, nil
}

// SaveThreshold crea o actualiza un umbral por categoría.
func (uc *UseCase) SaveThreshold(ctx context.Context, threshold *entity.AlertThreshold) error {
	if threshold.CompanyID == "" {
		return domain.ErrInvalidInput
	}
	if threshold.LowQty.LessThan(decimal.Zero) || threshold.CriticalQty.LessThan(decimal.Zero) ||
		threshold.OverstockQty.LessThan(decimal.Zero) {
		return domain.ErrInvalidInput
	}
	if threshold.ID == "" {
		threshold.ID = uuid.New().String()
	}
	return uc.thresholdRepo.Upsert(threshold)
}

// ListThresholds lista los umbrales del tenant.
func (uc *UseCase) ListThresholds(ctx context.Context, companyID string) ([]*entity.AlertThreshold, error) {
	return uc.thresholdRepo.List(companyID)
}

func (uc *UseCase) effectiveThreshold(companyID string, product entity.Product) (entity.AlertThreshold, error) {
	var categoryThreshold *entity.AlertThreshold
	if product.Category != "" {
		t, err := uc.thresholdRepo.GetByCategory(companyID, product.Category)
		if err != nil {
			return entity.AlertThreshold{}, err
		}
		categoryThreshold = t
	}
	return lot.EffectiveThreshold(product, categoryThreshold), nil
}

// expirationDays resuelve los días de alerta/crítico del tenant (umbral con
// categoría vacía) o los defaults.
func (uc *UseCase) expirationDays(companyID string) (alertDays, criticalDays int, err error) {
	alertDays, criticalDays = defaultExpirationAlertDays, defaultExpirationCriticalDays
	t, err := uc.thresholdRepo.GetByCategory(companyID, "")
	if err != nil {
		return 0, 0, err
	}
	if t != nil && t.Enabled {
		if t.ExpirationAlertDays > 0 {
			alertDays = t.ExpirationAlertDays
		}
		if t.ExpirationCriticalDays > 0 {
			criticalDays = t.ExpirationCriticalDays
		}
	}
	return alertDays, criticalDays, nil
}
