package repository

import "github.com/farmaops/farmacia-stock-api/internal/domain/entity"

// AlertThresholdRepository define el puerto de umbrales de alerta por categoría.
type AlertThresholdRepository interface {
	Upsert(threshold *entity.AlertThreshold) error
	GetByCategory(companyID, category string) (*entity.AlertThreshold, error)
	List(companyID string) ([]*entity.AlertThreshold, error)
	Delete(companyID, id string) error
}
