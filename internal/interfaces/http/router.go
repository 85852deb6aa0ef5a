package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/reservas-api/internal/application/reservation"
	"github.com/tu-usuario/reservas-api/internal/application/stock"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Manager    *reservation.Manager
	Ledger     *stock.TxLedger
	Transfers  *stock.TransferOrchestrator
	Purchasing *stock.PurchaseOrderProcessor
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Ciclo de vida de reservas (collaborator de checkout)
	reservations := api.Group("/reservations")
	reservationHandler := NewReservationHandler(deps.Manager)
	reservations.Post("/", reservationHandler.Create)
	reservations.Get("/:id", reservationHandler.GetByID)
	reservations.Post("/:id/commit", reservationHandler.Commit)
	reservations.Post("/:id/release", reservationHandler.Release)
	reservations.Post("/:id/extend", reservationHandler.Extend)

	// Stock: disponibilidad, transferencias y recepciones (UI admin)
	stockHandler := NewStockHandler(deps.Ledger, deps.Transfers, deps.Purchasing)
	api.Get("/stock/:warehouseId/:productId", stockHandler.Availability)

	transfers := api.Group("/transfers")
	transfers.Post("/", stockHandler.Transfer)
	transfers.Get("/", stockHandler.TransferHistory)

	api.Post("/purchase-orders/receipts", stockHandler.Receive)
}
