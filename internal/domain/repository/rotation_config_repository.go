package repository

import "github.com/farmaops/farmacia-stock-api/internal/domain/entity"

// RotationConfigRepository define el puerto de configuración de rotación
// (FIFO/LIFO) por producto o familia.
type RotationConfigRepository interface {
	Upsert(cfg *entity.RotationConfig) error
	GetByID(companyID, id string) (*entity.RotationConfig, error)
	// GetByProduct devuelve la configuración específica del producto, o nil.
	GetByProduct(companyID, productID string) (*entity.RotationConfig, error)
	// GetByFamily devuelve la configuración de la familia, o nil.
	GetByFamily(companyID, familyID string) (*entity.RotationConfig, error)
	List(companyID string, limit, offset int) ([]*entity.RotationConfig, error)
	Delete(companyID, id string) error
}
