package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/farmaops/farmacia-stock-api/internal/application/dto"
	"github.com/farmaops/farmacia-stock-api/internal/application/reconciliation"
	"github.com/farmaops/farmacia-stock-api/internal/domain/entity"
)

// ReconciliationHandler maneja sesiones de inventario físico y decisiones
// sobre varianzas (protegido).
type ReconciliationHandler struct {
	uc *reconciliation.UseCase
}

// NewReconciliationHandler construye el handler de reconciliación.
func NewReconciliationHandler(uc *reconciliation.UseCase) *ReconciliationHandler {
	return &ReconciliationHandler{uc: uc}
}

// Snapshot godoc
// @Summary      Tomar la foto de una sesión de conteo
// @Description  Crea la sesión y sus ítems en una transacción: el teórico se
//               lee del almacén de lotes en ese instante. Varianza cero queda
//               como conforming; el resto entra pendiente a la cola.
// @Tags         reconciliation
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.SnapshotRequest  true  "counts: product_id, lot_id opcional, counted_qty"
// @Success      201   {object}  map[string]string
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/reconciliation/sessions [post]
func (h *ReconciliationHandler) Snapshot(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	userID := GetUserID(c)
	var in dto.SnapshotRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	counts := make([]reconciliation.Count, 0, len(in.Counts))
	for _, ct := range in.Counts {
		counts = append(counts, reconciliation.Count{
			ProductID:  ct.ProductID,
			LotID:      ct.LotID,
			CountedQty: ct.CountedQty,
		})
	}
	session, err := h.uc.Snapshot(c.Context(), reconciliation.SnapshotInput{
		CompanyID:   companyID,
		ActorID:     userID,
		SessionName: in.SessionName,
		Counts:      counts,
	})
	if err != nil {
		return mapDomainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"session_id": session.ID, "message": "sesión creada"})
}

// SessionItems godoc
// @Summary      Ítems de una sesión
// @Tags         reconciliation
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la sesión"
// @Success      200  {array}  dto.ReconciliationItemResponse
// @Router       /api/reconciliation/sessions/{id}/items [get]
func (h *ReconciliationHandler) SessionItems(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "paginación inválida"})
	}
	page.DefaultPage()
	items, err := h.uc.SessionItems(c.Context(), companyID, c.Params("id"), page.Limit, page.Offset)
	if err != nil {
		return mapDomainError(c, err)
	}
	return c.JSON(toItemResponses(items))
}

// CloseSession godoc
// @Summary      Cerrar una sesión de conteo
// @Tags         reconciliation
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la sesión"
// @Success      200  {object}  map[string]string
// @Router       /api/reconciliation/sessions/{id}/close [post]
func (h *ReconciliationHandler) CloseSession(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if err := h.uc.CloseSession(c.Context(), companyID, c.Params("id")); err != nil {
		return mapDomainError(c, err)
	}
	return c.JSON(fiber.Map{"message": "sesión cerrada"})
}

// PendingQueue godoc
// @Summary      Cola de varianzas pendientes de decisión
// @Tags         reconciliation
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.ReconciliationItemResponse
// @Router       /api/reconciliation/pending [get]
func (h *ReconciliationHandler) PendingQueue(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "paginación inválida"})
	}
	page.DefaultPage()
	items, err := h.uc.PendingQueue(c.Context(), companyID, page.Limit, page.Offset)
	if err != nil {
		return mapDomainError(c, err)
	}
	return c.JSON(toItemResponses(items))
}

// Validate godoc
// @Summary      Validar una varianza (acepta el conteo)
// @Description  Emite el ajuste por la varianza exacta en la misma transacción
//               que cambia el estado del ítem. Idempotencia: un ítem ya
//               decidido responde 409.
// @Tags         reconciliation
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID del ítem"
// @Param        body  body  dto.DecisionRequest  false  "reason_code, note"
// @Success      200   {object}  map[string]string
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/reconciliation/items/{id}/validate [post]
func (h *ReconciliationHandler) Validate(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	userID := GetUserID(c)
	var in dto.DecisionRequest
	if err := c.BodyParser(&in); err != nil && len(c.Body()) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := h.uc.Validate(c.Context(), companyID, c.Params("id"), in.ReasonCode, in.Note, userID); err != nil {
		return mapDomainError(c, err)
	}
	return c.JSON(fiber.Map{"message": "varianza validada y ajuste aplicado"})
}

// Reject godoc
// @Summary      Rechazar una varianza (mantiene el teórico)
// @Tags         reconciliation
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID del ítem"
// @Param        body  body  dto.DecisionRequest  false  "reason_code, note"
// @Success      200   {object}  map[string]string
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/reconciliation/items/{id}/reject [post]
func (h *ReconciliationHandler) Reject(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	userID := GetUserID(c)
	var in dto.DecisionRequest
	if err := c.BodyParser(&in); err != nil && len(c.Body()) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := h.uc.Reject(c.Context(), companyID, c.Params("id"), in.ReasonCode, in.Note, userID); err != nil {
		return mapDomainError(c, err)
	}
	return c.JSON(fiber.Map{"message": "varianza rechazada"})
}

// Correct godoc
// @Summary      Corregir un ítem rechazado (aplica el ajuste a posteriori)
// @Tags         reconciliation
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del ítem"
// @Success      200  {object}  map[string]string
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/reconciliation/items/{id}/correct [post]
func (h *ReconciliationHandler) Correct(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	userID := GetUserID(c)
	if err := h.uc.Correct(c.Context(), companyID, c.Params("id"), userID); err != nil {
		return mapDomainError(c, err)
	}
	return c.JSON(fiber.Map{"message": "ítem corregido y ajuste aplicado"})
}

// Annotate godoc
// @Summary      Anotar un ítem ya decidido (razón/nota, sin efecto contable)
// @Tags         reconciliation
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID del ítem"
// @Param        body  body  dto.DecisionRequest  true  "reason_code, note"
// @Success      200   {object}  map[string]string
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/reconciliation/items/{id} [put]
func (h *ReconciliationHandler) Annotate(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	var in dto.DecisionRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := h.uc.Annotate(c.Context(), companyID, c.Params("id"), in.ReasonCode, in.Note); err != nil {
		return mapDomainError(c, err)
	}
	return c.JSON(fiber.Map{"message": "ítem anotado"})
}

func toItemResponses(items []*entity.ReconciliationItem) []dto.ReconciliationItemResponse {
	out := make([]dto.ReconciliationItemResponse, 0, len(items))
	for _, i := range items {
		out = append(out, dto.ReconciliationItemResponse{
			ID:             i.ID,
			SessionID:      i.SessionID,
			ProductID:      i.ProductID,
			LotID:          i.LotID,
			TheoreticalQty: i.TheoreticalQty,
			CountedQty:     i.CountedQty,
			Variance:       i.Variance(),
			VarianceValue:  i.VarianceValue(),
			Status:         i.Status,
			ReasonCode:     i.ReasonCode,
			Note:           i.Note,
			DecidedBy:      i.DecidedBy,
			DecidedAt:      i.DecidedAt,
		})
	}
	return out
}
