package entity

import "time"

// Métodos de rotación de lotes.
const (
	RotationMethodFIFO = "FIFO"
	RotationMethodLIFO = "LIFO"
)

// RotationConfig es la política de rotación por producto o por familia.
// A la hora de consumir se resuelve una sola configuración efectiva:
// producto > familia > default del sistema.
type RotationConfig struct {
	ID                          string
	CompanyID                   string
	ProductID                   *string // exclusivo con FamilyID
	FamilyID                    *string
	Enabled                     bool
	Method                      string // FIFO | LIFO
	ToleranceDays               int    // lotes dentro de esta ventana se consideran igual de elegibles
	ExcludeExpired              bool   // excluir lotes vencidos de la selección de consumo
	ExcludeExpiredFromValuation bool   // flag independiente: excluirlos también al valorizar
	PrioritizePrice             bool   // dentro de la ventana de tolerancia, preferir menor costo
	RotationAlertDays           int
	CreatedAt                   time.Time
	UpdatedAt                   time.Time
}

// DefaultRotationConfig devuelve la política por defecto del sistema:
// FIFO habilitado, tolerancia de 7 días, excluye vencidos del consumo,
// no prioriza precio.
func DefaultRotationConfig(companyID string) RotationConfig {
	return RotationConfig{
		CompanyID:                   companyID,
		Enabled:                     true,
		Method:                      RotationMethodFIFO,
		ToleranceDays:               7,
		ExcludeExpired:              true,
		ExcludeExpiredFromValuation: false,
		PrioritizePrice:             false,
		RotationAlertDays:           30,
	}
}
