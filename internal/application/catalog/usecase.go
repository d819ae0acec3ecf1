package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/farmaops/farmacia-stock-api/internal/application/dto"
	"github.com/farmaops/farmacia-stock-api/internal/domain"
	"github.com/farmaops/farmacia-stock-api/internal/domain/entity"
	"github.com/farmaops/farmacia-stock-api/internal/domain/repository"
)

// UseCase superficie mínima del maestro de productos (colaborador externo del
// motor de lotes): alta y lectura de los campos que el motor consume.
type UseCase struct {
	productRepo repository.ProductRepository
	companyRepo repository.CompanyRepository
}

// NewUseCase construye el caso de uso de catálogo.
func NewUseCase(productRepo repository.ProductRepository, companyRepo repository.CompanyRepository) *UseCase {
	return &UseCase{productRepo: productRepo, companyRepo: companyRepo}
}

// CreateProduct da de alta un producto del tenant.
func (uc *UseCase) CreateProduct(ctx context.Context, companyID string, in dto.CreateProductRequest) (*entity.Product, error) {
	if companyID == "" || in.SKU == "" || in.Name == "" {
		return nil, domain.ErrInvalidInput
	}
	now := time.Now()
	product := &entity.Product{
		ID:               uuid.New().String(),
		CompanyID:        companyID,
		SKU:              in.SKU,
		Name:             in.Name,
		Description:      in.Description,
		FamilyID:         in.FamilyID,
		Category:         in.Category,
		Price:            in.Price,
		Cost:             in.Cost,
		LowStockQty:      in.LowStockQty,
		CriticalStockQty: in.CriticalStockQty,
		OverstockQty:     in.OverstockQty,
		LeadTimeDays:     in.LeadTimeDays,
		SafetyStockPct:   in.SafetyStockPct,
		MinStockDays:     in.MinStockDays,
		MaxStockDays:     in.MaxStockDays,
		UnitMeasure:      in.UnitMeasure,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := uc.productRepo.Create(product); err != nil {
		return nil, err
	}
	return product, nil
}

// GetProduct devuelve un producto del tenant.
func (uc *UseCase) GetProduct(ctx context.Context, companyID, id string) (*entity.Product, error) {
	product, err := uc.productRepo.GetByID(companyID, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	return product, nil
}

// ListProducts lista los productos del tenant.
func (uc *UseCase) ListProducts(ctx context.Context, companyID string, limit, offset int) ([]*entity.Product, error) {
	return uc.productRepo.List(companyID, limit, offset)
}
