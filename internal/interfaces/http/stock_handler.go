package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/reservas-api/internal/application/dto"
	"github.com/tu-usuario/reservas-api/internal/application/stock"
	"github.com/tu-usuario/reservas-api/internal/domain"
)

// StockHandler maneja disponibilidad, transferencias entre bodegas y
// recepciones de órdenes de compra (acciones explícitas de operador).
type StockHandler struct {
	ledger     *stock.TxLedger
	transfers  *stock.TransferOrchestrator
	purchasing *stock.PurchaseOrderProcessor
}

// NewStockHandler construye el handler.
func NewStockHandler(ledger *stock.TxLedger, transfers *stock.TransferOrchestrator, purchasing *stock.PurchaseOrderProcessor) *StockHandler {
	return &StockHandler{ledger: ledger, transfers: transfers, purchasing: purchasing}
}

// Availability godoc
// @Summary      Disponibilidad de un producto en una bodega
// @Description  Lectura de display: puede venir del cache (levemente stale).
// @Tags         stock
// @Produce      json
// @Param        warehouseId  path  string  true  "ID de bodega"
// @Param        productId    path  string  true  "ID de producto"
// @Success      200  {object}  entity.Availability
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /api/stock/{warehouseId}/{productId} [get]
func (h *StockHandler) Availability(c *fiber.Ctx) error {
	av, err := h.ledger.DisplayAvailability(c.Context(), c.Params("warehouseId"), c.Params("productId"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(av)
}

// Transfer godoc
// @Summary      Transferir stock entre bodegas
// @Tags         stock
// @Accept       json
// @Produce      json
// @Param        body  body  dto.TransferRequest  true  "origen, destino, producto y cantidad"
// @Success      201   {object}  dto.TransferResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.TransferResponse
// @Router       /api/transfers [post]
func (h *StockHandler) Transfer(c *fiber.Ctx) error {
	var in dto.TransferRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	record, err := h.transfers.Transfer(c.Context(), stock.TransferInput{
		SourceWarehouseID: in.SourceWarehouseID,
		DestWarehouseID:   in.DestWarehouseID,
		ProductID:         in.ProductID,
		Quantity:          in.Quantity,
		RequestedBy:       in.RequestedBy,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrSameWarehouse):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
		case errors.Is(err, domain.ErrInsufficientStock):
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INSUFFICIENT_STOCK", Message: "disponible insuficiente en bodega origen"})
		default:
			// Registro FAILED con rollback aplicado: se devuelve el registro.
			if record != nil {
				return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.NewTransferResponse(record))
			}
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
		}
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewTransferResponse(record))
}

// TransferHistory godoc
// @Summary      Historial de transferencias (UI admin)
// @Tags         stock
// @Produce      json
// @Param        limit  query  int  false  "máximo de registros (default 50)"
// @Success      200  {array}  dto.TransferResponse
// @Router       /api/transfers [get]
func (h *StockHandler) TransferHistory(c *fiber.Ctx) error {
	records, err := h.transfers.History(c.Context(), c.QueryInt("limit", 50))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	out := make([]dto.TransferResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, dto.NewTransferResponse(rec))
	}
	return c.JSON(out)
}

// Receive godoc
// @Summary      Recepción de orden de compra
// @Tags         stock
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReceiveRequest  true  "bodega, producto, cantidad y costo unitario"
// @Success      201   {object}  map[string]string
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/purchase-orders/receipts [post]
func (h *StockHandler) Receive(c *fiber.Ctx) error {
	var in dto.ReceiveRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	receipt, err := h.purchasing.Receive(c.Context(), stock.ReceiveInput{
		WarehouseID: in.WarehouseID,
		ProductID:   in.ProductID,
		Quantity:    in.Quantity,
		UnitCost:    in.UnitCost,
		Reference:   in.Reference,
		ReceivedBy:  in.ReceivedBy,
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "datos inválidos"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "recepción registrada", "receipt_id": receipt.ID})
}
