package http

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/usecase"
)

// SnapshotSource última evaluación programada ya serializada (cache Redis).
type SnapshotSource interface {
	LastSnapshot(ctx context.Context) ([]byte, error)
}

// AnalyticsHandler alertas de stock bajo y valorización.
type AnalyticsHandler struct {
	uc        *usecase.AnalyticsUseCase
	snapshots SnapshotSource
}

// NewAnalyticsHandler construye el handler. snapshots puede ser nil.
func NewAnalyticsHandler(uc *usecase.AnalyticsUseCase, snapshots SnapshotSource) *AnalyticsHandler {
	return &AnalyticsHandler{uc: uc, snapshots: snapshots}
}

// LowStock godoc
// @Summary      Alertas de stock bajo
// @Description  out_of_stock, critical (<= 30% del umbral) y low; meta.critical_items incluye out_of_stock.
// @Tags         inventory
// @Produce      json
// @Param        product_id    query  string  false  "Producto"
// @Param        warehouse_id  query  string  false  "Bodega"
// @Success      200  {object}  dto.LowStockResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/low-stock [get]
func (h *AnalyticsHandler) LowStock(c *fiber.Ctx) error {
	out, err := h.uc.LowStock(c.UserContext(), c.Query("product_id"), c.Query("warehouse_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Valuation godoc
// @Summary      Valorización del inventario
// @Tags         inventory
// @Produce      json
// @Param        warehouse_id  query  string  false  "Bodega"
// @Param        category_id   query  string  false  "Categoría"
// @Success      200  {object}  dto.ValuationResponse
// @Router       /api/inventory/analytics/valuation [get]
func (h *AnalyticsHandler) Valuation(c *fiber.Ctx) error {
	out, err := h.uc.Valuation(c.UserContext(), c.Query("warehouse_id"), c.Query("category_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// WeightedAverageCost godoc
// @Summary      Costo promedio ponderado
// @Description  null cuando ninguna entrada registró costo.
// @Tags         inventory
// @Produce      json
// @Param        product_id    query  string  true   "Producto"
// @Param        warehouse_id  query  string  false  "Bodega"
// @Success      200  {object}  dto.WeightedAverageCostResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/analytics/weighted-average-cost [get]
func (h *AnalyticsHandler) WeightedAverageCost(c *fiber.Ctx) error {
	out, err := h.uc.WeightedAverageCost(c.UserContext(), c.Query("product_id"), c.Query("warehouse_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// LastLowStock godoc
// @Summary      Última evaluación programada de stock bajo
// @Description  Instantánea guardada por el scheduler; solo disponible con Redis configurado.
// @Tags         inventory
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/low-stock/last [get]
func (h *AnalyticsHandler) LastLowStock(c *fiber.Ctx) error {
	raw, err := h.snapshots.LastSnapshot(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	if raw == nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "aún no hay evaluaciones programadas", Kind: "not_found"})
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(raw)
}
