package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/usecase"
)

// ReservationHandler maneja las reservas de stock.
type ReservationHandler struct {
	uc *usecase.ReservationUseCase
}

// NewReservationHandler construye el handler.
func NewReservationHandler(uc *usecase.ReservationUseCase) *ReservationHandler {
	return &ReservationHandler{uc: uc}
}

// Create godoc
// @Summary      Reservar stock
// @Tags         reservations
// @Accept       json
// @Produce      json
// @Param        X-User-ID  header  string                        false  "Usuario"
// @Param        body       body    dto.CreateReservationRequest  true   "Reserva"
// @Success      201  {object}  dto.ReservationDTO
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/reservations [post]
func (h *ReservationHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateReservationRequest
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
// @Summary      Listar reservas
// @Tags         reservations
// @Produce      json
// @Param        product_id    query  string  false  "Producto"
// @Param        warehouse_id  query  string  false  "Bodega"
// @Param        batch_number  query  string  false  "Lote"
// @Param        status        query  string  false  "active, released, consumed"
// @Success      200  {object}  dto.ReservationListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/reservations [get]
func (h *ReservationHandler) List(c *fiber.Ctx) error {
	out, err := h.uc.List(c.UserContext(), dto.ReservationListQuery{
		ProductID:   c.Query("product_id"),
		WarehouseID: c.Query("warehouse_id"),
		BatchNumber: c.Query("batch_number"),
		Status:      c.Query("status"),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener reserva
// @Tags         reservations
// @Produce      json
// @Param        id  path  string  true  "ID de la reserva"
// @Success      200  {object}  dto.ReservationDTO
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/reservations/{id} [get]
func (h *ReservationHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Release godoc
// @Summary      Liberar reserva
// @Tags         reservations
// @Produce      json
// @Param        id  path  string  true  "ID de la reserva"
// @Success      200  {object}  dto.ReservationDTO
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/reservations/{id}/release [post]
func (h *ReservationHandler) Release(c *fiber.Ctx) error {
	out, err := h.uc.Release(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Consume godoc
// @Summary      Consumir reserva
// @Description  Liquida la reserva con un movimiento OUT (default), ADJUSTMENT o TRANSFER.
// @Tags         reservations
// @Accept       json
// @Produce      json
// @Param        X-User-ID  header  string                         false  "Usuario"
// @Param        id         path    string                         true   "ID de la reserva"
// @Param        body       body    dto.ConsumeReservationRequest  false  "Tipo de movimiento"
// @Success      200  {object}  dto.ConsumeReservationResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/reservations/{id}/consume [post]
func (h *ReservationHandler) Consume(c *fiber.Ctx) error {
	var in dto.ConsumeReservationRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return invalidBody(c)
		}
	}
	out, err := h.uc.Consume(c.UserContext(), GetUserID(c), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
