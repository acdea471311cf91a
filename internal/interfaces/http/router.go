package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/stock-ledger/internal/application/usecase"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	MovementUC    *usecase.MovementUseCase
	ReservationUC *usecase.ReservationUseCase
	AnalyticsUC   *usecase.AnalyticsUseCase
	ExchangeUC    *usecase.ExchangeUseCase

	// AlertSnapshots opcional: sin él no se registra /inventory/low-stock/last.
	AlertSnapshots SnapshotSource
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api", ActorMiddleware())

	movementHandler := NewMovementHandler(deps.MovementUC)

	// Stock movements (append-only; DELETE agrega la reversión)
	movements := api.Group("/stock_movements")
	movements.Get("/", movementHandler.List)
	movements.Post("/", movementHandler.Create)
	movements.Get("/:id", movementHandler.GetByID)
	movements.Delete("/:id", movementHandler.Reverse)

	// Stock levels
	api.Get("/stock_levels", movementHandler.GetLevel)
	api.Get("/warehouses/:id/stock", movementHandler.WarehouseStock)

	// Reservations
	reservations := api.Group("/reservations")
	reservationHandler := NewReservationHandler(deps.ReservationUC)
	reservations.Get("/", reservationHandler.List)
	reservations.Post("/", reservationHandler.Create)
	reservations.Get("/:id", reservationHandler.GetByID)
	reservations.Post("/:id/release", reservationHandler.Release)
	reservations.Post("/:id/consume", reservationHandler.Consume)

	// Inventory analytics
	inv := api.Group("/inventory")
	analyticsHandler := NewAnalyticsHandler(deps.AnalyticsUC, deps.AlertSnapshots)
	inv.Get("/low-stock", analyticsHandler.LowStock)
	if deps.AlertSnapshots != nil {
		inv.Get("/low-stock/last", analyticsHandler.LastLowStock)
	}
	inv.Get("/analytics/valuation", analyticsHandler.Valuation)
	inv.Get("/analytics/weighted-average-cost", analyticsHandler.WeightedAverageCost)

	// CSV exchange
	exchangeHandler := NewExchangeHandler(deps.ExchangeUC)
	inv.Get("/export/inventory", exchangeHandler.ExportInventory)
	inv.Get("/export/movements", exchangeHandler.ExportMovements)
	inv.Post("/import/inventory", exchangeHandler.Import)
}
