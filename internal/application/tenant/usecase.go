package tenant

import (
	"time"

	"github.com/google/uuid"

	"github.com/farmaops/farmacia-stock-api/internal/domain"
	"github.com/farmaops/farmacia-stock-api/internal/domain/entity"
	"github.com/farmaops/farmacia-stock-api/internal/domain/repository"
)

// CreateCompanyInput alta de una farmacia (tenant).
type CreateCompanyInput struct {
	Name              string
	TaxID             string
	Address           string
	Phone             string
	Email             string
	RoundingPrecision int32
}

// UseCase provisión de tenants. Todo lo demás del sistema se acota al
// CompanyID que viaja en el token.
type UseCase struct {
	companyRepo repository.CompanyRepository
}

// NewUseCase construye el caso de uso de tenants.
func NewUseCase(companyRepo repository.CompanyRepository) *UseCase {
	return &UseCase{companyRepo: companyRepo}
}

// CreateCompany registra una nueva farmacia.
func (uc *UseCase) CreateCompany(in CreateCompanyInput) (*entity.Company, error) {
	if in.Name == "" {
		return nil, domain.ErrInvalidInput
	}
	if in.RoundingPrecision < 0 {
		return nil, domain.ErrInvalidInput
	}
	if in.RoundingPrecision == 0 {
		in.RoundingPrecision = 2
	}
	now := time.Now()
	company := &entity.Company{
		ID:                uuid.New().String(),
		Name:              in.Name,
		TaxID:             in.TaxID,
		Address:           in.Address,
		Phone:             in.Phone,
		Email:             in.Email,
		Status:            "active",
		RoundingPrecision: in.RoundingPrecision,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := uc.companyRepo.Create(company); err != nil {
		return nil, err
	}
	return company, nil
}

// GetCompany obtiene una farmacia por ID.
func (uc *UseCase) GetCompany(id string) (*entity.Company, error) {
	company, err := uc.companyRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, domain.ErrNotFound
	}
	return company, nil
}

// ListCompanies lista farmacias con paginación.
func (uc *UseCase) ListCompanies(limit, offset int) ([]*entity.Company, error) {
	return uc.companyRepo.List(limit, offset)
}
