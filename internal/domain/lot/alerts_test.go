package lot_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farmaops/farmacia-stock-api/internal/domain/entity"
	"github.com/farmaops/farmacia-stock-api/internal/domain/lot"
)

func TestClassifyStock(t *testing.T) {
	threshold := entity.AlertThreshold{
		LowQty:       decimal.NewFromInt(20),
		CriticalQty:  decimal.NewFromInt(5),
		OverstockQty: decimal.NewFromInt(100),
		Enabled:      true,
	}

	cases := []struct {
		name      string
		remaining decimal.Decimal
		want      string
	}{
		{"cero es ruptura", decimal.Zero, lot.StockLevelRupture},
		{"negativo es ruptura", decimal.NewFromInt(-3), lot.StockLevelRupture},
		{"en el umbral crítico", decimal.NewFromInt(5), lot.StockLevelCritical},
		{"entre crítico y bajo", decimal.NewFromInt(12), lot.StockLevelLow},
		{"en el umbral bajo", decimal.NewFromInt(20), lot.StockLevelLow},
		{"dentro de la banda normal", decimal.NewFromInt(50), lot.StockLevelNormal},
		{"en el tope no es sobrestock", decimal.NewFromInt(100), lot.StockLevelNormal},
		{"por encima del tope", decimal.NewFromInt(101), lot.StockLevelOverstock},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, lot.ClassifyStock(tc.remaining, threshold))
		})
	}

	t.Run("umbrales en cero desactivan cada control", func(t *testing.T) {
		assert.Equal(t, lot.StockLevelNormal, lot.ClassifyStock(decimal.NewFromInt(1), entity.AlertThreshold{Enabled: true}))
	})
}

func TestEffectiveThreshold(t *testing.T) {
	product := entity.Product{
		CompanyID:        "c1",
		LowStockQty:      decimal.NewFromInt(10),
		CriticalStockQty: decimal.NewFromInt(3),
	}

	t.Run("sin umbral de categoría usa el del producto", func(t *testing.T) {
		got := lot.EffectiveThreshold(product, nil)
		assert.True(t, got.LowQty.Equal(decimal.NewFromInt(10)))
		assert.True(t, got.CriticalQty.Equal(decimal.NewFromInt(3)))
		assert.True(t, got.Enabled)
	})

	t.Run("umbral de categoría habilitado tiene prioridad", func(t *testing.T) {
		cat := &entity.AlertThreshold{
			Category:    "antibioticos",
			LowQty:      decimal.NewFromInt(50),
			CriticalQty: decimal.NewFromInt(15),
			Enabled:     true,
		}
		got := lot.EffectiveThreshold(product, cat)
		assert.True(t, got.LowQty.Equal(decimal.NewFromInt(50)))
	})

	t.Run("umbral de categoría deshabilitado se ignora", func(t *testing.T) {
		cat := &entity.AlertThreshold{LowQty: decimal.NewFromInt(50)}
		got := lot.EffectiveThreshold(product, cat)
		assert.True(t, got.LowQty.Equal(decimal.NewFromInt(10)))
	})
}

func TestClassifyExpiration(t *testing.T) {
	now := time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)
	const alertDays, criticalDays = 90, 30

	cases := []struct {
		name       string
		expiration *time.Time
		want       string
	}{
		{"vencido", datePtr(2024, 11, 1), lot.ExpirationExpired},
		{"dentro de la ventana crítica", datePtr(2024, 12, 20), lot.ExpirationCritical},
		{"justo en el límite crítico", datePtr(2024, 12, 31), lot.ExpirationCritical},
		{"dentro de la ventana de alerta", datePtr(2025, 1, 15), lot.ExpirationApproaching},
		{"lejos del vencimiento", datePtr(2025, 6, 1), lot.ExpirationOK},
		{"sin fecha de vencimiento", nil, lot.ExpirationOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			l := entity.Lot{ExpirationDate: tc.expiration}
			assert.Equal(t, tc.want, lot.ClassifyExpiration(l, alertDays, criticalDays, now))
		})
	}

	t.Run("vencido hace menos de un día coincide con IsExpired", func(t *testing.T) {
		exp := now.Add(-12 * time.Hour)
		l := entity.Lot{ExpirationDate: &exp}
		require.True(t, l.IsExpired(now))
		assert.Equal(t, lot.ExpirationExpired, lot.ClassifyExpiration(l, alertDays, criticalDays, now))
	})
}
