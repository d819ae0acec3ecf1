package repository

import (
	"github.com/shopspring/decimal"

	"github.com/farmaops/farmacia-stock-api/internal/domain/entity"
)

// ProductStock es el stock remanente agregado de un producto (suma de lotes).
type ProductStock struct {
	ProductID string
	Remaining decimal.Decimal
}

// ProductRepository define el puerto del maestro de productos (colaborador
// externo). El motor solo necesita lectura más la actualización del costo de
// referencia al recibir lotes.
type ProductRepository interface {
	Create(product *entity.Product) error
	GetByID(companyID, id string) (*entity.Product, error)
	List(companyID string, limit, offset int) ([]*entity.Product, error)
	UpdateCost(companyID, id string, cost decimal.Decimal) error
	// ListWithStock devuelve todos los productos con su remanente agregado,
	// para el barrido de alertas de stock.
	ListWithStock(companyID string) ([]*entity.Product, []ProductStock, error)
	CurrentStock(companyID, productID string) (decimal.Decimal, error)
}
