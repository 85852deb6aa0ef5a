package http

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/reservas-api/internal/application/dto"
	"github.com/tu-usuario/reservas-api/internal/application/reservation"
	"github.com/tu-usuario/reservas-api/internal/domain"
	"github.com/tu-usuario/reservas-api/internal/domain/entity"
)

// ReservationHandler maneja las peticiones HTTP del ciclo de vida de reservas
// (el collaborator de checkout: crear al iniciar, commit al pagar, release al
// abandonar, extend con actividad del usuario).
type ReservationHandler struct {
	manager *reservation.Manager
}

// NewReservationHandler construye el handler.
func NewReservationHandler(manager *reservation.Manager) *ReservationHandler {
	return &ReservationHandler{manager: manager}
}

// Create godoc
// @Summary      Crear reserva de stock (inicio de checkout)
// @Tags         reservations
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateReservationRequest  true  "owner_id y líneas {warehouse_id, product_id, quantity}"
// @Success      201   {object}  dto.ReservationResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/reservations [post]
func (h *ReservationHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateReservationRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	lines := make([]entity.ReservationLine, 0, len(in.Lines))
	for _, l := range in.Lines {
		lines = append(lines, entity.ReservationLine{
			WarehouseID: l.WarehouseID,
			ProductID:   l.ProductID,
			Quantity:    l.Quantity,
		})
	}
	res, err := h.manager.Create(c.Context(), in.OwnerID, lines)
	if err != nil {
		return reservationError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewReservationResponse(res))
}

// Commit godoc
// @Summary      Confirmar reserva (pago exitoso)
// @Tags         reservations
// @Produce      json
// @Param        id  path  string  true  "ID de la reserva"
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/reservations/{id}/commit [post]
func (h *ReservationHandler) Commit(c *fiber.Ctx) error {
	if err := h.manager.Commit(c.Context(), c.Params("id")); err != nil {
		return reservationError(c, err)
	}
	return c.JSON(fiber.Map{"message": "reserva confirmada"})
}

// Release godoc
// @Summary      Liberar reserva (abandono explícito del carrito)
// @Tags         reservations
// @Produce      json
// @Param        id  path  string  true  "ID de la reserva"
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/reservations/{id}/release [post]
func (h *ReservationHandler) Release(c *fiber.Ctx) error {
	if err := h.manager.Release(c.Context(), c.Params("id")); err != nil {
		return reservationError(c, err)
	}
	return c.JSON(fiber.Map{"message": "reserva liberada"})
}

// Extend godoc
// @Summary      Extender vigencia de la reserva (actividad en el checkout)
// @Tags         reservations
// @Accept       json
// @Produce      json
// @Param        id    path  string                        true  "ID de la reserva"
// @Param        body  body  dto.ExtendReservationRequest  true  "minutos a partir de ahora"
// @Success      200   {object}  map[string]string
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/reservations/{id}/extend [post]
func (h *ReservationHandler) Extend(c *fiber.Ctx) error {
	var in dto.ExtendReservationRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if in.Minutes <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "minutes debe ser positivo"})
	}
	newExpiry := time.Now().Add(time.Duration(in.Minutes) * time.Minute)
	if err := h.manager.Extend(c.Context(), c.Params("id"), newExpiry); err != nil {
		return reservationError(c, err)
	}
	return c.JSON(fiber.Map{"message": "vigencia extendida", "expires_at": newExpiry})
}

// GetByID godoc
// @Summary      Consultar reserva
// @Tags         reservations
// @Produce      json
// @Param        id  path  string  true  "ID de la reserva"
// @Success      200  {object}  dto.ReservationResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/reservations/{id} [get]
func (h *ReservationHandler) GetByID(c *fiber.Ctx) error {
	res, err := h.manager.Get(c.Context(), c.Params("id"))
	if err != nil {
		return reservationError(c, err)
	}
	return c.JSON(dto.NewReservationResponse(res))
}

// reservationError mapea errores de dominio a códigos HTTP.
func reservationError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "datos inválidos"})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "reserva no encontrada"})
	case errors.Is(err, domain.ErrInsufficientStock):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INSUFFICIENT_STOCK", Message: err.Error()})
	case errors.Is(err, domain.ErrAlreadyResolved):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "ALREADY_RESOLVED", Message: "la reserva ya fue resuelta"})
	case errors.Is(err, domain.ErrInconsistentLedger):
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "LEDGER_INCONSISTENT", Message: "inconsistencia de ledger detectada"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
}
