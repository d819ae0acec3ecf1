package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/farmaops/farmacia-stock-api/internal/domain"
	"github.com/farmaops/farmacia-stock-api/internal/domain/entity"
	"github.com/farmaops/farmacia-stock-api/internal/domain/repository"
)

var _ repository.AlertThresholdRepository = (*AlertThresholdRepo)(nil)

// AlertThresholdRepo implementación de AlertThresholdRepository sobre PostgreSQL.
type AlertThresholdRepo struct {
	q Querier
}

// NewAlertThresholdRepository construye el adaptador de umbrales de alerta.
func NewAlertThresholdRepository(q Querier) *AlertThresholdRepo {
	return &AlertThresholdRepo{q: q}
}

const thresholdColumns = `id, company_id, category, low_qty, critical_qty, overstock_qty,
	expiration_alert_days, expiration_critical_days, enabled, created_at, updated_at`

// Upsert inserta o reemplaza el umbral de una categoría (una fila por
// categoría y empresa; categoría vacía = default del tenant).
func (r *AlertThresholdRepo) Upsert(t *entity.AlertThreshold) error {
	query := `
		INSERT INTO alert_thresholds (` + thresholdColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (company_id, category) DO UPDATE SET
			low_qty = EXCLUDED.low_qty, critical_qty = EXCLUDED.critical_qty,
			overstock_qty = EXCLUDED.overstock_qty,
			expiration_alert_days = EXCLUDED.expiration_alert_days,
			expiration_critical_days = EXCLUDED.expiration_critical_days,
			enabled = EXCLUDED.enabled, updated_at = now()`
	_, err := r.q.Exec(context.Background(), query,
		t.ID, t.CompanyID, t.Category, t.LowQty, t.CriticalQty, t.OverstockQty,
		t.ExpirationAlertDays, t.ExpirationCriticalDays, t.Enabled, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert alert threshold: %w", err)
	}
	return nil
}

// GetByCategory devuelve el umbral de una categoría, o nil.
func (r *AlertThresholdRepo) GetByCategory(companyID, category string) (*entity.AlertThreshold, error) {
	query := `SELECT ` + thresholdColumns + ` FROM alert_thresholds WHERE company_id = $1 AND category = $2`
	var t entity.AlertThreshold
	err := r.q.QueryRow(context.Background(), query, companyID, category).Scan(
		&t.ID, &t.CompanyID, &t.Category, &t.LowQty, &t.CriticalQty, &t.OverstockQty,
		&t.ExpirationAlertDays, &t.ExpirationCriticalDays, &t.Enabled, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get alert threshold: %w", err)
	}
	return &t, nil
}

// List lista todos los umbrales del tenant.
func (r *AlertThresholdRepo) List(companyID string) ([]*entity.AlertThreshold, error) {
	query := `SELECT ` + thresholdColumns + ` FROM alert_thresholds WHERE company_id = $1 ORDER BY category`
	rows, err := r.q.Query(context.Background(), query, companyID)
	if err != nil {
		return nil, fmt.Errorf("list alert thresholds: %w", err)
	}
	defer rows.Close()
	var list []*entity.AlertThreshold
	for rows.Next() {
		var t entity.AlertThreshold
		if err := rows.Scan(
			&t.ID, &t.CompanyID, &t.Category, &t.LowQty, &t.CriticalQty, &t.OverstockQty,
			&t.ExpirationAlertDays, &t.ExpirationCriticalDays, &t.Enabled, &t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan alert threshold: %w", err)
		}
		list = append(list, &t)
	}
	return list, rows.Err()
}

// Delete elimina un umbral.
func (r *AlertThresholdRepo) Delete(companyID, id string) error {
	query := `DELETE FROM alert_thresholds WHERE company_id = $1 AND id = $2`
	tag, err := r.q.Exec(context.Background(), query, companyID, id)
	if err != nil {
		return fmt.Errorf("delete alert threshold: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
