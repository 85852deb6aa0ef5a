package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrInsufficientStock  = errors.New("stock disponible insuficiente")
	ErrStateConflict      = errors.New("el estado actual no coincide con el esperado")
	ErrAlreadyResolved    = errors.New("la reserva ya fue resuelta por otro actor")
	ErrInconsistentLedger = errors.New("ledger de stock inconsistente")
	ErrDuplicateID        = errors.New("id duplicado (colisión de generación)")
	ErrSameWarehouse      = errors.New("bodega origen y destino no pueden ser la misma")
)
