package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/farmaops/farmacia-stock-api/internal/application/dto"
	"github.com/farmaops/farmacia-stock-api/internal/application/tenant"
)

// CreateCompanyRequest alta de una farmacia (tenant).
type CreateCompanyRequest struct {
	Name              string `json:"name" validate:"required,max=300"`
	TaxID             string `json:"tax_id,omitempty"`
	Address           string `json:"address,omitempty"`
	Phone             string `json:"phone,omitempty"`
	Email             string `json:"email,omitempty"`
	RoundingPrecision int32  `json:"rounding_precision,omitempty"` // 0 = default (2)
}

// CompanyHandler maneja la provisión de tenants.
type CompanyHandler struct {
	uc *tenant.UseCase
}

// NewCompanyHandler construye el handler de empresas.
func NewCompanyHandler(uc *tenant.UseCase) *CompanyHandler {
	return &CompanyHandler{uc: uc}
}

// Create godoc
// @Summary      Registrar una farmacia
// @Tags         companies
// @Accept       json
// @Produce      json
// @Param        body  body  CreateCompanyRequest  true  "name"
// @Success      201   {object}  entity.Company
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/companies [post]
func (h *CompanyHandler) Create(c *fiber.Ctx) error {
	var in CreateCompanyRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	company, err := h.uc.CreateCompany(tenant.CreateCompanyInput{
		Name:              in.Name,
		TaxID:             in.TaxID,
		Address:           in.Address,
		Phone:             in.Phone,
		Email:             in.Email,
		RoundingPrecision: in.RoundingPrecision,
	})
	if err != nil {
		return mapDomainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(company)
}

// GetByID godoc
// @Summary      Obtener una farmacia
// @Tags         companies
// @Produce      json
// @Param        id  path  string  true  "ID de la empresa"
// @Success      200  {object}  entity.Company
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/companies/{id} [get]
func (h *CompanyHandler) GetByID(c *fiber.Ctx) error {
	company, err := h.uc.GetCompany(c.Params("id"))
	if err != nil {
		return mapDomainError(c, err)
	}
	return c.JSON(company)
}

// List godoc
// @Summary      Listar farmacias
// @Tags         companies
// @Produce      json
// @Success      200  {array}  entity.Company
// @Router       /api/companies [get]
func (h *CompanyHandler) List(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "paginación inválida"})
	}
	page.DefaultPage()
	list, err := h.uc.ListCompanies(page.Limit, page.Offset)
	if err != nil {
		return mapDomainError(c, err)
	}
	return c.JSON(list)
}
