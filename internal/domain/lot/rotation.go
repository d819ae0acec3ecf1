package lot

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/farmaops/farmacia-stock-api/internal/domain"
	"github.com/farmaops/farmacia-stock-api/internal/domain/entity"
)

// Allocation es una porción de la cantidad solicitada asignada a un lote.
type Allocation struct {
	LotID     string
	LotNumber string
	Quantity  decimal.Decimal
	UnitCost  decimal.Decimal
	Depletes  bool // la asignación consume el lote completo
}

// ComplianceResult es el resultado consultivo de ValidateCompliance.
type ComplianceResult struct {
	Compliant      bool
	ChosenLotID    string
	SuggestedLotID string // lote que la política habría elegido primero
}

// ResolveConfig devuelve la configuración efectiva de rotación:
// configuración por producto > por familia > default del sistema.
// productCfg y familyCfg pueden ser nil.
func ResolveConfig(companyID string, productCfg, familyCfg *entity.RotationConfig) entity.RotationConfig {
	if productCfg != nil {
		return *productCfg
	}
	if familyCfg != nil {
		return *familyCfg
	}
	return entity.DefaultRotationConfig(companyID)
}

// SelectLots ordena los lotes elegibles según la política y asigna la cantidad
// solicitada recorriendo la lista, tomando min(remanente, faltante) de cada lote.
// Solo lee estado: no reserva ni bloquea lotes; el caller debe aplicar la
// asignación vía el libro de movimientos y reintentar si otro consumidor ganó.
func SelectLots(cfg entity.RotationConfig, lots []entity.Lot, requested decimal.Decimal, now time.Time) ([]Allocation, error) {
	if !requested.GreaterThan(decimal.Zero) {
		return nil, domain.ErrInvalidInput
	}

	cfg = effectiveFor(cfg)
	candidates := eligibleLots(cfg, lots, now)
	orderCandidates(cfg, candidates)

	available := decimal.Zero
	for _, l := range candidates {
		available = available.Add(l.RemainingQuantity)
	}
	if available.LessThan(requested) {
		return nil, domain.ErrInsufficientStock
	}

	var allocations []Allocation
	needed := requested
	for _, l := range candidates {
		if !needed.GreaterThan(decimal.Zero) {
			break
		}
		take := decimal.Min(l.RemainingQuantity, needed)
		allocations = append(allocations, Allocation{
			LotID:     l.ID,
			LotNumber: l.LotNumber,
			Quantity:  take,
			UnitCost:  l.UnitCost,
			Depletes:  take.Equal(l.RemainingQuantity),
		})
		needed = needed.Sub(take)
	}
	return allocations, nil
}

// ValidateCompliance verifica si un lote elegido manualmente coincide con el que
// la política habría seleccionado primero. Consultivo: nunca bloquea ni muta.
// Con la política deshabilitada no hay nada que exigir: todo lote es conforme.
func ValidateCompliance(cfg entity.RotationConfig, lots []entity.Lot, chosenLotID string, now time.Time) ComplianceResult {
	if !cfg.Enabled {
		return ComplianceResult{Compliant: true, ChosenLotID: chosenLotID}
	}
	candidates := eligibleLots(cfg, lots, now)
	orderCandidates(cfg, candidates)

	result := ComplianceResult{Compliant: true, ChosenLotID: chosenLotID}
	if len(candidates) == 0 {
		return result
	}
	next := candidates[0]
	if next.ID != chosenLotID {
		result.Compliant = false
		result.SuggestedLotID = next.ID
	}
	return result
}

// effectiveFor normaliza una configuración deshabilitada: sin política activa la
// selección cae al orden FIFO por defecto y no se prioriza por precio. Los
// filtros de elegibilidad (vencidos) se conservan.
func effectiveFor(cfg entity.RotationConfig) entity.RotationConfig {
	if cfg.Enabled {
		return cfg
	}
	cfg.Method = entity.RotationMethodFIFO
	cfg.PrioritizePrice = false
	return cfg
}

// eligibleLots filtra los candidatos: remanente > 0, no bloqueados, y sin
// vencidos cuando la configuración lo exige.
func eligibleLots(cfg entity.RotationConfig, lots []entity.Lot, now time.Time) []entity.Lot {
	candidates := make([]entity.Lot, 0, len(lots))
	for _, l := range lots {
		if !l.RemainingQuantity.GreaterThan(decimal.Zero) {
			continue
		}
		if l.Status == entity.LotStatusBlocked {
			continue
		}
		if cfg.ExcludeExpired && l.IsExpired(now) {
			continue
		}
		candidates = append(candidates, l)
	}
	return candidates
}

// orderCandidates ordena por vencimiento ascendente (FIFO) o descendente (LIFO);
// los lotes sin vencimiento quedan siempre al final, ordenados por recepción.
// Con PrioritizePrice, los lotes cuyos vencimientos caen dentro de la ventana de
// tolerancia se reordenan por costo unitario ascendente.
func orderCandidates(cfg entity.RotationConfig, candidates []entity.Lot) {
	lifo := cfg.Method == entity.RotationMethodLIFO

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		switch {
		case a.ExpirationDate == nil && b.ExpirationDate == nil:
			// Sin vencimiento: decide la fecha de recepción
			if lifo {
				return a.ReceptionDate.After(b.ReceptionDate)
			}
			return a.ReceptionDate.Before(b.ReceptionDate)
		case a.ExpirationDate == nil:
			return false // sin vencimiento al final
		case b.ExpirationDate == nil:
			return true
		}
		if lifo {
			return a.ExpirationDate.After(*b.ExpirationDate)
		}
		return a.ExpirationDate.Before(*b.ExpirationDate)
	})

	if !cfg.PrioritizePrice || cfg.ToleranceDays <= 0 {
		return
	}

	// Reordenar por precio dentro de cada grupo de vencimientos "equivalentes":
	// lotes a menos de ToleranceDays del ancla del grupo.
	tolerance := time.Duration(cfg.ToleranceDays) * 24 * time.Hour
	for start := 0; start < len(candidates); {
		if candidates[start].ExpirationDate == nil {
			break
		}
		anchor := *candidates[start].ExpirationDate
		end := start + 1
		for end < len(candidates) && candidates[end].ExpirationDate != nil {
			gap := candidates[end].ExpirationDate.Sub(anchor)
			if gap < 0 {
				gap = -gap
			}
			if gap > tolerance {
				break
			}
			end++
		}
		group := candidates[start:end]
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].UnitCost.LessThan(group[j].UnitCost)
		})
		start = end
	}
}
