package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound               = errors.New("recurso no encontrado")
	ErrUserNotFound           = errors.New("usuario no encontrado")
	ErrEmailAlreadyExists     = errors.New("el email ya está registrado")
	ErrInvalidInput           = errors.New("entrada inválida")
	ErrDuplicate              = errors.New("recurso duplicado")
	ErrUnauthorized           = errors.New("no autorizado")
	ErrForbidden              = errors.New("acceso denegado")
	ErrConflict               = errors.New("conflicto con el estado actual")
	ErrInvalidMovementType    = errors.New("tipo de movimiento inválido")
	ErrInsufficientQuantity   = errors.New("cantidad insuficiente en el lote")
	ErrInsufficientStock      = errors.New("stock insuficiente entre lotes del producto")
	ErrConcurrencyConflict    = errors.New("conflicto de concurrencia sobre el lote")
	ErrInvalidStateTransition = errors.New("transición de estado inválida")
)
