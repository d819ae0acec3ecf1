package repository

import (
	"github.com/shopspring/decimal"

	"github.com/farmaops/farmacia-stock-api/internal/domain/entity"
)

// RemainingBalance es el saldo rederivado de un lote tras aplicar un movimiento.
type RemainingBalance struct {
	Quantity decimal.Decimal
	Status   string
}

// LotRepository define el puerto de persistencia de lotes. Todas las consultas
// se acotan al companyID (aislamiento multi-tenant). Los lotes nunca se
// eliminan: el agotamiento es un estado, no un borrado.
type LotRepository interface {
	Create(lot *entity.Lot) error
	GetByID(companyID, id string) (*entity.Lot, error)
	// GetForUpdate bloquea la fila del lote (SELECT FOR UPDATE). Usar solo
	// dentro de una transacción del libro de movimientos.
	GetForUpdate(companyID, id string) (*entity.Lot, error)
	// UpdateBalance persiste el saldo rederivado y el estado. Solo el libro de
	// movimientos debe llamarlo, dentro de la misma transacción del movimiento.
	UpdateBalance(companyID, id string, balance RemainingBalance) error
	ListByProduct(companyID, productID string, limit, offset int) ([]*entity.Lot, error)
	// ListAvailableByProduct devuelve lotes con remanente > 0 (candidatos de
	// rotación y valorización), ordenados por vencimiento ascendente.
	ListAvailableByProduct(companyID, productID string) ([]*entity.Lot, error)
	ListExpiringBefore(companyID string, days, limit, offset int) ([]*entity.Lot, error)
	UpdateStatus(companyID, id, status string) error
}
