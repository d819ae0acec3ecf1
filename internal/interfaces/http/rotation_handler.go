package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/farmaops/farmacia-stock-api/internal/application/dto"
	"github.com/farmaops/farmacia-stock-api/internal/application/rotation"
	"github.com/farmaops/farmacia-stock-api/internal/domain/entity"
)

// RotationHandler maneja la política de rotación y la selección de lotes (protegido).
type RotationHandler struct {
	uc *rotation.UseCase
}

// NewRotationHandler construye el handler de rotación.
func NewRotationHandler(uc *rotation.UseCase) *RotationHandler {
	return &RotationHandler{uc: uc}
}

// SelectLots godoc
// @Summary      Previsualizar la selección de lotes para un consumo
// @Description  Aplica la política efectiva (producto > familia > default) y
//               devuelve el desglose por lote. Consultivo: no muta stock.
// @Tags         rotation
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.SelectLotsRequest  true  "product_id, quantity"
// @Success      200   {array}   dto.AllocationResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/rotation/select [post]
func (h *RotationHandler) SelectLots(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	var in dto.SelectLotsRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	allocations, err := h.uc.SelectLots(c.Context(), companyID, in.ProductID, in.Quantity)
	if err != nil {
		return mapDomainError(c, err)
	}
	out := make([]dto.AllocationResponse, 0, len(allocations))
	for _, a := range allocations {
		out = append(out, dto.AllocationResponse{
			LotID:     a.LotID,
			LotNumber: a.LotNumber,
			Quantity:  a.Quantity,
			UnitCost:  a.UnitCost,
			Depletes:  a.Depletes,
		})
	}
	return c.JSON(out)
}

// ValidateCompliance godoc
// @Summary      Verificar si un lote elegido respeta la política
// @Description  Consultivo: informa el lote sugerido cuando el elegido no
//               coincide, pero nunca impide la operación.
// @Tags         rotation
// @Security     Bearer
// @Produce      json
// @Param        product_id  query  string  true  "ID del producto"
// @Param        lot_id      query  string  true  "ID del lote elegido"
// @Success      200  {object}  dto.ComplianceResponse
// @Router       /api/rotation/compliance [get]
func (h *RotationHandler) ValidateCompliance(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	productID := c.Query("product_id")
	lotID := c.Query("lot_id")
	if productID == "" || lotID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "product_id y lot_id son requeridos"})
	}
	result, err := h.uc.ValidateCompliance(c.Context(), companyID, productID, lotID)
	if err != nil {
		return mapDomainError(c, err)
	}
	return c.JSON(dto.ComplianceResponse{
		Compliant:      result.Compliant,
		ChosenLotID:    result.ChosenLotID,
		SuggestedLotID: result.SuggestedLotID,
	})
}

// SaveConfig godoc
// @Summary      Crear o actualizar una configuración de rotación
// @Tags         rotation
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.SaveRotationConfigRequest  true  "product_id o family_id (exclusivos), method FIFO|LIFO"
// @Success      200   {object}  map[string]string
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/rotation/configs [put]
func (h *RotationHandler) SaveConfig(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	var in dto.SaveRotationConfigRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	now := time.Now()
	cfg := &entity.RotationConfig{
		ID:                          in.ID,
		CompanyID:                   companyID,
		ProductID:                   in.ProductID,
		FamilyID:                    in.FamilyID,
		Enabled:                     in.Enabled,
		Method:                      in.Method,
		ToleranceDays:               in.ToleranceDays,
		ExcludeExpired:              in.ExcludeExpired,
		ExcludeExpiredFromValuation: in.ExcludeExpiredFromValuation,
		PrioritizePrice:             in.PrioritizePrice,
		RotationAlertDays:           in.RotationAlertDays,
		CreatedAt:                   now,
		UpdatedAt:                   now,
	}
	if cfg.ID == "" {
		cfg.ID = uuid.New().String()
	}
	if err := h.uc.SaveConfig(c.Context(), cfg); err != nil {
		return mapDomainError(c, err)
	}
	return c.JSON(fiber.Map{"id": cfg.ID, "message": "configuración guardada"})
}

// ListConfigs godoc
// @Summary      Listar configuraciones de rotación
// @Tags         rotation
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  entity.RotationConfig
// @Router       /api/rotation/configs [get]
func (h *RotationHandler) ListConfigs(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "paginación inválida"})
	}
	page.DefaultPage()
	list, err := h.uc.ListConfigs(c.Context(), companyID, page.Limit, page.Offset)
	if err != nil {
		return mapDomainError(c, err)
	}
	return c.JSON(list)
}

// DeleteConfig godoc
// @Summary      Eliminar una configuración de rotación
// @Tags         rotation
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la configuración"
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/rotation/configs/{id} [delete]
func (h *RotationHandler) DeleteConfig(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if err := h.uc.DeleteConfig(c.Context(), companyID, c.Params("id")); err != nil {
		return mapDomainError(c, err)
	}
	return c.JSON(fiber.Map{"message": "configuración eliminada"})
}
