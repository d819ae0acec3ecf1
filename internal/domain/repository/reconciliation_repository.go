package repository

import "github.com/farmaops/farmacia-stock-api/internal/domain/entity"

// ReconciliationRepository define el puerto de persistencia de sesiones de
// inventario físico y sus ítems de reconciliación.
type ReconciliationRepository interface {
	CreateSession(session *entity.InventorySession) error
	GetSession(companyID, id string) (*entity.InventorySession, error)
	CloseSession(companyID, id string) error
	CreateItem(item *entity.ReconciliationItem) error
	GetItem(companyID, id string) (*entity.ReconciliationItem, error)
	// GetItemForUpdate bloquea la fila del ítem (SELECT FOR UPDATE) para que dos
	// decisiones concurrentes sobre el mismo ítem no puedan aplicarse ambas.
	GetItemForUpdate(companyID, id string) (*entity.ReconciliationItem, error)
	UpdateItem(item *entity.ReconciliationItem) error
	ListItemsBySession(companyID, sessionID string, limit, offset int) ([]*entity.ReconciliationItem, error)
	// ListPending devuelve la cola de varianzas pendientes de decisión.
	ListPending(companyID string, limit, offset int) ([]*entity.ReconciliationItem, error)
}
