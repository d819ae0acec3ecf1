package http

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/farmaops/farmacia-stock-api/internal/application/dto"
	"github.com/farmaops/farmacia-stock-api/internal/application/ledger"
	"github.com/farmaops/farmacia-stock-api/internal/application/lots"
	"github.com/farmaops/farmacia-stock-api/internal/domain"
	"github.com/farmaops/farmacia-stock-api/internal/domain/entity"
	lotdomain "github.com/farmaops/farmacia-stock-api/internal/domain/lot"
)

// LotHandler maneja las peticiones HTTP del almacén de lotes (protegido).
type LotHandler struct {
	ledgerUC *ledger.UseCase
	lotsUC   *lots.UseCase
	// ventanas por defecto para el nivel de urgencia computado en las respuestas
	alertDays    int
	criticalDays int
}

// NewLotHandler construye el handler de lotes.
func NewLotHandler(ledgerUC *ledger.UseCase, lotsUC *lots.UseCase, alertDays, criticalDays int) *LotHandler {
	return &LotHandler{ledgerUC: ledgerUC, lotsUC: lotsUC, alertDays: alertDays, criticalDays: criticalDays}
}

// Receive godoc
// @Summary      Recepcionar un lote
// @Description  Crea el lote con su cantidad inicial y actualiza el costo
//               promedio de referencia del producto en la misma transacción.
// @Tags         lots
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReceiveLotRequest  true  "product_id, lot_number, initial_quantity, unit_cost"
// @Success      201   {object}  dto.LotResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/lots [post]
func (h *LotHandler) Receive(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	userID := GetUserID(c)
	var in dto.ReceiveLotRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	created, err := h.ledgerUC.ReceiveLot(c.Context(), ledger.ReceiveLotInput{
		CompanyID:        companyID,
		ActorID:          userID,
		ProductID:        in.ProductID,
		LotNumber:        in.LotNumber,
		SupplierID:       in.SupplierID,
		ManufactureDate:  in.ManufactureDate,
		ExpirationDate:   in.ExpirationDate,
		InitialQuantity:  in.InitialQuantity,
		UnitCost:         in.UnitCost,
		UnitPrice:        in.UnitPrice,
		Location:         in.Location,
		StorageCondition: in.StorageCondition,
	})
	if err != nil {
		return mapDomainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(h.toResponse(created, time.Now()))
}

// GetByID godoc
// @Summary      Obtener un lote
// @Tags         lots
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del lote"
// @Success      200  {object}  dto.LotResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/lots/{id} [get]
func (h *LotHandler) GetByID(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	l, err := h.lotsUC.GetLot(c.Context(), companyID, c.Params("id"))
	if err != nil {
		return mapDomainError(c, err)
	}
	return c.JSON(h.toResponse(l, time.Now()))
}

// ListByProduct godoc
// @Summary      Listar lotes de un producto
// @Tags         lots
// @Security     Bearer
// @Produce      json
// @Param        product_id  query  string  true  "ID del producto"
// @Success      200  {object}  map[string]interface{}
// @Router       /api/lots [get]
func (h *LotHandler) ListByProduct(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	productID := c.Query("product_id")
	if productID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "product_id es requerido"})
	}
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "paginación inválida"})
	}
	page.DefaultPage()
	list, err := h.lotsUC.ListByProduct(c.Context(), companyID, productID, page.Limit, page.Offset)
	if err != nil {
		return mapDomainError(c, err)
	}
	now := time.Now()
	out := make([]dto.LotResponse, 0, len(list))
	for _, l := range list {
		out = append(out, h.toResponse(l, now))
	}
	return c.JSON(fiber.Map{
		"lots": out,
		"page": dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Total: len(out)},
	})
}

// History godoc
// @Summary      Historial de movimientos de un lote
// @Tags         lots
// @Security     Bearer
// @Produce      json
// @Param        id    path   string  true   "ID del lote"
// @Param        from  query  string  false  "Desde (RFC3339)"
// @Param        to    query  string  false  "Hasta (RFC3339)"
// @Success      200  {array}  dto.MovementResponse
// @Router       /api/lots/{id}/movements [get]
func (h *LotHandler) History(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	from, to, err := parseDateRange(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "rango de fechas inválido (RFC3339)"})
	}
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "paginación inválida"})
	}
	page.DefaultPage()
	list, err := h.lotsUC.History(c.Context(), companyID, c.Params("id"), from, to, page.Limit, page.Offset)
	if err != nil {
		return mapDomainError(c, err)
	}
	return c.JSON(toMovementResponses(list))
}

// Block godoc
// @Summary      Bloquear un lote (cuarentena)
// @Tags         lots
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del lote"
// @Success      200  {object}  map[string]string
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/lots/{id}/block [post]
func (h *LotHandler) Block(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if err := h.lotsUC.Block(c.Context(), companyID, c.Params("id")); err != nil {
		return mapDomainError(c, err)
	}
	return c.JSON(fiber.Map{"message": "lote bloqueado"})
}

// Unblock godoc
// @Summary      Desbloquear un lote
// @Tags         lots
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del lote"
// @Success      200  {object}  map[string]string
// @Router       /api/lots/{id}/unblock [post]
func (h *LotHandler) Unblock(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if err := h.lotsUC.Unblock(c.Context(), companyID, c.Params("id")); err != nil {
		return mapDomainError(c, err)
	}
	return c.JSON(fiber.Map{"message": "lote desbloqueado"})
}

// toResponse computa los campos derivados frescos en cada respuesta.
func (h *LotHandler) toResponse(l *entity.Lot, now time.Time) dto.LotResponse {
	resp := dto.LotResponse{
		ID:                l.ID,
		ProductID:         l.ProductID,
		LotNumber:         l.LotNumber,
		SupplierID:        l.SupplierID,
		ReceptionDate:     l.ReceptionDate,
		ExpirationDate:    l.ExpirationDate,
		InitialQuantity:   l.InitialQuantity,
		RemainingQuantity: l.RemainingQuantity,
		UnitCost:          l.UnitCost,
		UnitPrice:         l.UnitPrice,
		Status:            l.Status,
		Location:          l.Location,
		UrgencyLevel:      lotdomain.ClassifyExpiration(*l, h.alertDays, h.criticalDays, now),
		UsagePercentage:   l.UsagePercentage(),
	}
	if days, ok := l.DaysToExpiration(now); ok {
		resp.DaysToExpiration = &days
	}
	return resp
}

// parseDateRange lee from/to en RFC3339 de la query; ambos opcionales.
func parseDateRange(c *fiber.Ctx) (*time.Time, *time.Time, error) {
	var from, to *time.Time
	if s := c.Query("from"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return nil, nil, err
		}
		from = &t
	}
	if s := c.Query("to"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return nil, nil, err
		}
		to = &t
	}
	return from, to, nil
}

// mapDomainError traduce errores sentinel de dominio a códigos HTTP.
func mapDomainError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrInvalidMovementType):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
	case errors.Is(err, domain.ErrDuplicate):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "DUPLICATE", Message: err.Error()})
	case errors.Is(err, domain.ErrInsufficientQuantity), errors.Is(err, domain.ErrInsufficientStock):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INSUFFICIENT_STOCK", Message: err.Error()})
	case errors.Is(err, domain.ErrInvalidStateTransition):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INVALID_STATE", Message: err.Error()})
	case errors.Is(err, domain.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: err.Error()})
	case errors.Is(err, domain.ErrConcurrencyConflict):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONCURRENCY_CONFLICT", Message: "conflicto de concurrencia, reintente"})
	case errors.Is(err, domain.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: err.Error()})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
}
