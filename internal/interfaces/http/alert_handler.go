package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/farmaops/farmacia-stock-api/internal/application/alerts"
	"github.com/farmaops/farmacia-stock-api/internal/application/dto"
	"github.com/farmaops/farmacia-stock-api/internal/domain/entity"
)

// AlertHandler maneja alertas de stock y vencimiento (protegido, solo lectura
// salvo el CRUD de umbrales).
type AlertHandler struct {
	uc *alerts.UseCase
}

// NewAlertHandler construye el handler de alertas.
func NewAlertHandler(uc *alerts.UseCase) *AlertHandler {
	return &AlertHandler{uc: uc}
}

// ListStockAlerts godoc
// @Summary      Alertas de stock del tenant
// @Description  Clasifica cada producto contra su umbral efectivo
//               (categoría > producto) y devuelve solo los no normales.
// @Tags         alerts
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.StockAlertResponse
// @Router       /api/alerts/stock [get]
func (h *AlertHandler) ListStockAlerts(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	list, err := h.uc.ListStockAlerts(c.Context(), companyID)
	if err != nil {
		return mapDomainError(c, err)
	}
	out := make([]dto.StockAlertResponse, 0, len(list))
	for _, a := range list {
		out = append(out, toStockAlertResponse(a))
	}
	return c.JSON(out)
}

// ClassifyProduct godoc
// @Summary      Clasificación de stock de un producto
// @Tags         alerts
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del producto"
// @Success      200  {object}  dto.StockAlertResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/alerts/products/{id} [get]
func (h *AlertHandler) ClassifyProduct(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	alert, err := h.uc.ClassifyProduct(c.Context(), companyID, c.Params("id"))
	if err != nil {
		return mapDomainError(c, err)
	}
	return c.JSON(toStockAlertResponse(alert))
}

// ListExpirationAlerts godoc
// @Summary      Lotes próximos a vencer o vencidos con remanente
// @Tags         alerts
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.ExpirationAlertResponse
// @Router       /api/alerts/expiration [get]
func (h *AlertHandler) ListExpirationAlerts(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "paginación inválida"})
	}
	page.DefaultPage()
	list, err := h.uc.ListExpirationAlerts(c.Context(), companyID, page.Limit, page.Offset)
	if err != nil {
		return mapDomainError(c, err)
	}
	out := make([]dto.ExpirationAlertResponse, 0, len(list))
	for _, a := range list {
		out = append(out, dto.ExpirationAlertResponse{
			LotID:            a.LotID,
			LotNumber:        a.LotNumber,
			ProductID:        a.ProductID,
			ExpirationDate:   a.ExpirationDate,
			DaysToExpiration: a.DaysToExpiration,
			Remaining:        a.Remaining,
			Urgency:          a.Urgency,
		})
	}
	return c.JSON(out)
}

// SaveThreshold godoc
// @Summary      Crear o actualizar un umbral de alerta por categoría
// @Tags         alerts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.SaveThresholdRequest  true  "category (vacío = default del tenant), low_qty, critical_qty"
// @Success      200   {object}  map[string]string
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/alerts/thresholds [put]
func (h *AlertHandler) SaveThreshold(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	var in dto.SaveThresholdRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	now := time.Now()
	threshold := &entity.AlertThreshold{
		ID:                     in.ID,
		CompanyID:              companyID,
		Category:               in.Category,
		LowQty:                 in.LowQty,
		CriticalQty:            in.CriticalQty,
		OverstockQty:           in.OverstockQty,
		ExpirationAlertDays:    in.ExpirationAlertDays,
		ExpirationCriticalDays: in.ExpirationCriticalDays,
		Enabled:                in.Enabled,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
	if threshold.ID == "" {
		threshold.ID = uuid.New().String()
	}
	if err := h.uc.SaveThreshold(c.Context(), threshold); err != nil {
		return mapDomainError(c, err)
	}
	return c.JSON(fiber.Map{"id": threshold.ID, "message": "umbral guardado"})
}

// ListThresholds godoc
// @Summary      Listar umbrales de alerta del tenant
// @Tags         alerts
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  entity.AlertThreshold
// @Router       /api/alerts/thresholds [get]
func (h *AlertHandler) ListThresholds(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	list, err := h.uc.ListThresholds(c.Context(), companyID)
	if err != nil {
		return mapDomainError(c, err)
	}
	return c.JSON(list)
}

func toStockAlertResponse(a alerts.StockAlert) dto.StockAlertResponse {
	return dto.StockAlertResponse{
		ProductID: a.ProductID,
		SKU:       a.SKU,
		Name:      a.Name,
		Remaining: a.Remaining,
		Level:     a.Level,
	}
}
