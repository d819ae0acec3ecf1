package lot

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/farmaops/farmacia-stock-api/internal/domain"
	"github.com/farmaops/farmacia-stock-api/internal/domain/entity"
)

// Métodos de valorización del stock remanente.
const (
	ValuationMethodFIFO = "FIFO"
	ValuationMethodLIFO = "LIFO"
	ValuationMethodPMP  = "PMP" // promedio ponderado (CUMP)
)

// IsValidValuationMethod valida un método de valorización.
func IsValidValuationMethod(m string) bool {
	return m == ValuationMethodFIFO || m == ValuationMethodLIFO || m == ValuationMethodPMP
}

// LotValue es el aporte de un lote a la valorización.
type LotValue struct {
	LotID     string
	LotNumber string
	Quantity  decimal.Decimal
	UnitCost  decimal.Decimal
	Value     decimal.Decimal // cantidad * costo, precisión completa
}

// Valuation es el resultado de valorizar el stock remanente de un producto.
// El redondeo monetario se aplica una sola vez al final de la agregación;
// los valores intermedios por lote se mantienen a precisión completa.
type Valuation struct {
	Method        string
	TotalQuantity decimal.Decimal
	TotalValue    decimal.Decimal
	UnitValue     decimal.Decimal
	LotsUsed      []LotValue
}

// ValueProduct valoriza el stock remanente de un producto con el método indicado.
// Lectura pura sobre el estado de los lotes al momento de la llamada.
// FIFO y LIFO valoran cada remanente al costo del propio lote; difieren solo en
// el orden reportado. PMP divide el costo total entre la cantidad total.
// precision es la precisión de redondeo monetario configurada del tenant.
func ValueProduct(lots []entity.Lot, method string, precision int32, excludeExpired bool, now time.Time) (Valuation, error) {
	if !IsValidValuationMethod(method) {
		return Valuation{}, domain.ErrInvalidInput
	}

	remaining := make([]entity.Lot, 0, len(lots))
	for _, l := range lots {
		if !l.RemainingQuantity.GreaterThan(decimal.Zero) {
			continue
		}
		if excludeExpired && l.IsExpired(now) {
			continue
		}
		remaining = append(remaining, l)
	}

	sort.SliceStable(remaining, func(i, j int) bool {
		a, b := remaining[i], remaining[j]
		if method == ValuationMethodLIFO {
			return lotIsOlder(b, a)
		}
		return lotIsOlder(a, b)
	})

	v := Valuation{Method: method}
	totalQty := decimal.Zero
	totalValue := decimal.Zero
	for _, l := range remaining {
		value := l.RemainingQuantity.Mul(l.UnitCost)
		v.LotsUsed = append(v.LotsUsed, LotValue{
			LotID:     l.ID,
			LotNumber: l.LotNumber,
			Quantity:  l.RemainingQuantity,
			UnitCost:  l.UnitCost,
			Value:     value,
		})
		totalQty = totalQty.Add(l.RemainingQuantity)
		totalValue = totalValue.Add(value)
	}

	v.TotalQuantity = totalQty
	v.TotalValue = totalValue.Round(precision)
	if totalQty.GreaterThan(decimal.Zero) {
		v.UnitValue = totalValue.Div(totalQty).Round(precision)
	} else {
		v.UnitValue = decimal.Zero
	}
	return v, nil
}

// lotIsOlder compara antigüedad: vencimiento más próximo primero, recepción como
// desempate, lotes sin vencimiento al final.
func lotIsOlder(a, b entity.Lot) bool {
	switch {
	case a.ExpirationDate == nil && b.ExpirationDate == nil:
		return a.ReceptionDate.Before(b.ReceptionDate)
	case a.ExpirationDate == nil:
		return false
	case b.ExpirationDate == nil:
		return true
	}
	if a.ExpirationDate.Equal(*b.ExpirationDate) {
		return a.ReceptionDate.Before(b.ReceptionDate)
	}
	return a.ExpirationDate.Before(*b.ExpirationDate)
}
