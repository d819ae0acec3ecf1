package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/farmaops/farmacia-stock-api/internal/application/dto"
	"github.com/farmaops/farmacia-stock-api/internal/application/valuation"
	lotdomain "github.com/farmaops/farmacia-stock-api/internal/domain/lot"
)

// ValuationHandler maneja valorización y planificación de compras (protegido, solo lectura).
type ValuationHandler struct {
	uc *valuation.UseCase
}

// NewValuationHandler construye el handler de valorización.
func NewValuationHandler(uc *valuation.UseCase) *ValuationHandler {
	return &ValuationHandler{uc: uc}
}

// ValueProduct godoc
// @Summary      Valorizar el stock remanente de un producto
// @Description  method: FIFO, LIFO o PMP (default FIFO). El redondeo monetario
//               se aplica una sola vez al final con la precisión del tenant.
// @Tags         valuation
// @Security     Bearer
// @Produce      json
// @Param        id      path   string  true   "ID del producto"
// @Param        method  query  string  false  "FIFO | LIFO | PMP"
// @Success      200  {object}  dto.ValuationResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/valuation/products/{id} [get]
func (h *ValuationHandler) ValueProduct(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	productID := c.Params("id")
	method := strings.ToUpper(c.Query("method", lotdomain.ValuationMethodFIFO))
	result, err := h.uc.ValueProduct(c.Context(), companyID, productID, method)
	if err != nil {
		return mapDomainError(c, err)
	}
	lots := make([]dto.LotValueDTO, 0, len(result.LotsUsed))
	for _, lv := range result.LotsUsed {
		lots = append(lots, dto.LotValueDTO{
			LotID:     lv.LotID,
			LotNumber: lv.LotNumber,
			Quantity:  lv.Quantity,
			UnitCost:  lv.UnitCost,
			Value:     lv.Value,
		})
	}
	return c.JSON(dto.ValuationResponse{
		ProductID:     productID,
		Method:        result.Method,
		TotalQuantity: result.TotalQuantity,
		TotalValue:    result.TotalValue,
		UnitValue:     result.UnitValue,
		LotsUsed:      lots,
	})
}

// Plan godoc
// @Summary      Planificación de compras de un producto
// @Description  Punto de reorden, cantidad óptima de pedido y cobertura en
//               días, derivados del consumo histórico. Consultivo.
// @Tags         valuation
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del producto"
// @Success      200  {object}  dto.PlanResponse
// @Router       /api/valuation/products/{id}/plan [get]
func (h *ValuationHandler) Plan(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	productID := c.Params("id")
	plan, err := h.uc.Plan(c.Context(), companyID, productID)
	if err != nil {
		return mapDomainError(c, err)
	}
	return c.JSON(dto.PlanResponse{
		ProductID:          productID,
		DailyConsumption:   plan.DailyConsumption,
		ReorderPoint:       plan.ReorderPoint,
		OptimalOrderQty:    plan.OptimalOrderQty,
		CoverageDays:       plan.CoverageDays,
		EstimatedOrderCost: plan.EstimatedOrderCost,
	})
}
