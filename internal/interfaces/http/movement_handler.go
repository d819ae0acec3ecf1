package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/farmaops/farmacia-stock-api/internal/application/dto"
	"github.com/farmaops/farmacia-stock-api/internal/application/ledger"
	"github.com/farmaops/farmacia-stock-api/internal/application/lots"
	"github.com/farmaops/farmacia-stock-api/internal/domain/entity"
)

// MovementHandler maneja las peticiones HTTP del libro de movimientos (protegido).
type MovementHandler struct {
	ledgerUC *ledger.UseCase
	lotsUC   *lots.UseCase
}

// NewMovementHandler construye el handler del libro.
func NewMovementHandler(ledgerUC *ledger.UseCase, lotsUC *lots.UseCase) *MovementHandler {
	return &MovementHandler{ledgerUC: ledgerUC, lotsUC: lotsUC}
}

// Apply godoc
// @Summary      Aplicar un movimiento a un lote
// @Description  Registra la entrada del libro y actualiza el saldo del lote en
//               una sola transacción con bloqueo de fila. Para transfer se
//               emiten los dos movimientos del par atómicamente.
// @Tags         movements
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ApplyMovementRequest  true  "lot_id, type, quantity (o counted_quantity para adjustment)"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/movements [post]
func (h *MovementHandler) Apply(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	userID := GetUserID(c)
	var in dto.ApplyMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	m, err := h.ledgerUC.ApplyMovement(c.Context(), ledger.ApplyMovementInput{
		CompanyID:        companyID,
		ActorID:          userID,
		LotID:            in.LotID,
		Type:             in.Type,
		Quantity:         in.Quantity,
		CountedQuantity:  in.CountedQuantity,
		ReferenceType:    in.ReferenceType,
		ReferenceID:      in.ReferenceID,
		FromLocation:     in.FromLocation,
		ToLocation:       in.ToLocation,
		DestinationLotID: in.DestinationLotID,
		Metadata:         in.Metadata,
		AllowNegative:    in.AllowNegative,
	})
	if err != nil {
		return mapDomainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toMovementResponse(m))
}

// Update godoc
// @Summary      Corregir un movimiento
// @Description  Compensación: revierte el efecto anterior y aplica el nuevo
//               sobre el saldo del lote en la misma transacción. Los transfer
//               no se corrigen; se revierten con un par nuevo.
// @Tags         movements
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID del movimiento"
// @Param        body  body  dto.UpdateMovementRequest  true  "quantity (o counted_quantity)"
// @Success      200   {object}  dto.MovementResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/movements/{id} [put]
func (h *MovementHandler) Update(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	var in dto.UpdateMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	m, err := h.ledgerUC.UpdateMovement(c.Context(), companyID, c.Params("id"), in.Quantity, in.CountedQuantity)
	if err != nil {
		return mapDomainError(c, err)
	}
	return c.JSON(toMovementResponse(m))
}

// Delete godoc
// @Summary      Eliminar un movimiento (reversión simétrica)
// @Tags         movements
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del movimiento"
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/movements/{id} [delete]
func (h *MovementHandler) Delete(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if err := h.ledgerUC.DeleteMovement(c.Context(), companyID, c.Params("id")); err != nil {
		return mapDomainError(c, err)
	}
	return c.JSON(fiber.Map{"message": "movimiento revertido y eliminado"})
}

// ListByProduct godoc
// @Summary      Movimientos de un producto (todos sus lotes)
// @Tags         movements
// @Security     Bearer
// @Produce      json
// @Param        product_id  query  string  true   "ID del producto"
// @Param        from        query  string  false  "Desde (RFC3339)"
// @Param        to          query  string  false  "Hasta (RFC3339)"
// @Success      200  {array}  dto.MovementResponse
// @Router       /api/movements [get]
func (h *MovementHandler) ListByProduct(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	productID := c.Query("product_id")
	if productID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "product_id es requerido"})
	}
	from, to, err := parseDateRange(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "rango de fechas inválido (RFC3339)"})
	}
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "paginación inválida"})
	}
	page.DefaultPage()
	list, err := h.lotsUC.ProductHistory(c.Context(), companyID, productID, from, to, page.Limit, page.Offset)
	if err != nil {
		return mapDomainError(c, err)
	}
	return c.JSON(toMovementResponses(list))
}

func toMovementResponse(m *entity.LotMovement) dto.MovementResponse {
	return dto.MovementResponse{
		ID:               m.ID,
		LotID:            m.LotID,
		Type:             m.Type,
		Quantity:         m.Quantity,
		CountedQuantity:  m.CountedQuantity,
		ReferenceType:    m.ReferenceType,
		ReferenceID:      m.ReferenceID,
		ActorID:          m.ActorID,
		DestinationLotID: m.DestinationLotID,
		CreatedAt:        m.CreatedAt,
	}
}

func toMovementResponses(list []*entity.LotMovement) []dto.MovementResponse {
	out := make([]dto.MovementResponse, 0, len(list))
	for _, m := range list {
		out = append(out, toMovementResponse(m))
	}
	return out
}
