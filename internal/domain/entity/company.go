package entity

import "time"

// Company representa una farmacia/organización del sistema (tenant).
// Todo acceso del motor se acota a un CompanyID; nunca cruza tenants.
type Company struct {
	ID                string
	Name              string
	TaxID             string
	Address           string
	Phone             string
	Email             string
	Status            string // active, suspended, inactive
	RoundingPrecision int32  // decimales para redondeo monetario de valorizaciones
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
