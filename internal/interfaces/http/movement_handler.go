package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/usecase"
)

// MovementHandler maneja el historial de movimientos y los niveles de stock.
type MovementHandler struct {
	uc *usecase.MovementUseCase
}

// NewMovementHandler construye el handler.
func NewMovementHandler(uc *usecase.MovementUseCase) *MovementHandler {
	return &MovementHandler{uc: uc}
}

// Create godoc
// @Summary      Registrar movimiento de stock
// @Description  IN, OUT, ADJUSTMENT (quantity con signo) o TRANSFER (destination_warehouse_id).
// @Tags         stock_movements
// @Accept       json
// @Produce      json
// @Param        X-User-ID  header  string                     false  "Usuario que registra"
// @Param        body       body    dto.CreateMovementRequest  true   "Movimiento"
// @Success      201  {object}  dto.CommitMovementResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/stock_movements [post]
func (h *MovementHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.uc.Create(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// List godoc
// @Summary      Historial de movimientos
// @Description  Orden de confirmación ascendente; sort=desc invierte. include=product,warehouse embebe catálogo.
// @Tags         stock_movements
// @Produce      json
// @Param        product_id      query  string  false  "Producto"
// @Param        warehouse_id    query  string  false  "Bodega (origen o destino)"
// @Param        movement_type   query  string  false  "IN, OUT, TRANSFER, ADJUSTMENT"
// @Param        batch_number    query  string  false  "Lote"
// @Param        from            query  string  false  "Desde (RFC3339 o YYYY-MM-DD)"
// @Param        to              query  string  false  "Hasta (RFC3339 o YYYY-MM-DD)"
// @Param        reference_type  query  string  false  "Tipo de referencia"
// @Param        reference_id    query  string  false  "ID de referencia"
// @Param        include         query  string  false  "product,warehouse"
// @Param        sort            query  string  false  "id|asc, id|desc, created_at|desc"
// @Param        limit           query  int     false  "Límite (default 50, máx 500)"
// @Param        offset          query  int     false  "Desplazamiento"
// @Success      200  {object}  dto.MovementListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/stock_movements [get]
func (h *MovementHandler) List(c *fiber.Ctx) error {
	out, err := h.uc.List(c.UserContext(), movementListQuery(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

func movementListQuery(c *fiber.Ctx) dto.MovementListQuery {
	return dto.MovementListQuery{
		PageRequest:   dto.PageRequest{Limit: c.QueryInt("limit", 0), Offset: c.QueryInt("offset", 0)},
		ProductID:     c.Query("product_id"),
		WarehouseID:   c.Query("warehouse_id"),
		MovementType:  c.Query("movement_type"),
		BatchNumber:   c.Query("batch_number"),
		From:          c.Query("from"),
		To:            c.Query("to"),
		ReferenceType: c.Query("reference_type"),
		ReferenceID:   c.Query("reference_id"),
		Include:       c.Query("include"),
		Sort:          c.Query("sort"),
	}
}

// GetByID godoc
// @Summary      Obtener movimiento
// @Tags         stock_movements
// @Produce      json
// @Param        id       path   string  true   "ID del movimiento"
// @Param        include  query  string  false  "product,warehouse"
// @Success      200  {object}  dto.MovementDTO
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock_movements/{id} [get]
func (h *MovementHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.GetByID(c.UserContext(), c.Params("id"), c.Query("include"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Reverse godoc
// @Summary      Revertir movimiento
// @Description  El historial es inmutable: se agrega el movimiento compensatorio (reference_type movement_reversal).
// @Tags         stock_movements
// @Produce      json
// @Param        X-User-ID  header  string  false  "Usuario que revierte"
// @Param        id         path    string  true   "ID del movimiento"
// @Success      201  {object}  dto.CommitMovementResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/stock_movements/{id} [delete]
func (h *MovementHandler) Reverse(c *fiber.Ctx) error {
	out, err := h.uc.Reverse(c.UserContext(), GetUserID(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetLevel godoc
// @Summary      Nivel de stock
// @Description  Sin batch_number agrega todos los lotes del producto en la bodega.
// @Tags         stock_levels
// @Produce      json
// @Param        product_id    query  string  true   "Producto"
// @Param        warehouse_id  query  string  true   "Bodega"
// @Param        batch_number  query  string  false  "Lote (vacío = unbatched)"
// @Success      200  {object}  dto.StockLevelDTO
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/stock_levels [get]
func (h *MovementHandler) GetLevel(c *fiber.Ctx) error {
	var batch *string
	if c.Context().QueryArgs().Has("batch_number") {
		b := c.Query("batch_number")
		batch = &b
	}
	out, err := h.uc.Level(c.UserContext(), c.Query("product_id"), c.Query("warehouse_id"), batch)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// WarehouseStock godoc
// @Summary      Stock de una bodega
// @Tags         stock_levels
// @Produce      json
// @Param        id          path   string  true   "ID de la bodega"
// @Param        product_id  query  string  false  "Filtrar por producto"
// @Success      200  {object}  dto.StockLevelListResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/warehouses/{id}/stock [get]
func (h *MovementHandler) WarehouseStock(c *fiber.Ctx) error {
	out, err := h.uc.WarehouseStock(c.UserContext(), c.Params("id"), c.Query("product_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
