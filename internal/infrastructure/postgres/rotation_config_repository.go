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

var _ repository.RotationConfigRepository = (*RotationConfigRepo)(nil)

// RotationConfigRepo implementación de RotationConfigRepository sobre PostgreSQL.
type RotationConfigRepo struct {
	q Querier
}

// NewRotationConfigRepository construye el adaptador de configuración de rotación.
func NewRotationConfigRepository(q Querier) *RotationConfigRepo {
	return &RotationConfigRepo{q: q}
}

const rotationColumns = `id, company_id, product_id, family_id, enabled, method,
	tolerance_days, exclude_expired, exclude_expired_from_valuation,
	prioritize_price, rotation_alert_days, created_at, updated_at`

// Upsert inserta o reemplaza la configuración del producto/familia.
// Índices únicos parciales sobre (company_id, product_id) y
// (company_id, family_id) garantizan una sola configuración por alcance.
func (r *RotationConfigRepo) Upsert(cfg *entity.RotationConfig) error {
	query := `
		INSERT INTO rotation_configs (` + rotationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			enabled = EXCLUDED.enabled, method = EXCLUDED.method,
			tolerance_days = EXCLUDED.tolerance_days,
			exclude_expired = EXCLUDED.exclude_expired,
			exclude_expired_from_valuation = EXCLUDED.exclude_expired_from_valuation,
			prioritize_price = EXCLUDED.prioritize_price,
			rotation_alert_days = EXCLUDED.rotation_alert_days,
			updated_at = now()`
	_, err := r.q.Exec(context.Background(), query,
		cfg.ID, cfg.CompanyID, cfg.ProductID, cfg.FamilyID, cfg.Enabled, cfg.Method,
		cfg.ToleranceDays, cfg.ExcludeExpired, cfg.ExcludeExpiredFromValuation,
		cfg.PrioritizePrice, cfg.RotationAlertDays, cfg.CreatedAt, cfg.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("upsert rotation config: %w", err)
	}
	return nil
}

// GetByID obtiene una configuración por ID.
func (r *RotationConfigRepo) GetByID(companyID, id string) (*entity.RotationConfig, error) {
	query := `SELECT ` + rotationColumns + ` FROM rotation_configs WHERE company_id = $1 AND id = $2`
	return r.scanOne(query, "get rotation config", companyID, id)
}

// GetByProduct devuelve la configuración específica de un producto, o nil.
func (r *RotationConfigRepo) GetByProduct(companyID, productID string) (*entity.RotationConfig, error) {
	query := `SELECT ` + rotationColumns + ` FROM rotation_configs WHERE company_id = $1 AND product_id = $2`
	return r.scanOne(query, "get rotation config by product", companyID, productID)
}

// GetByFamily devuelve la configuración de una familia, o nil.
func (r *RotationConfigRepo) GetByFamily(companyID, familyID string) (*entity.RotationConfig, error) {
	query := `SELECT ` + rotationColumns + ` FROM rotation_configs WHERE company_id = $1 AND family_id = $2`
	return r.scanOne(query, "get rotation config by family", companyID, familyID)
}

// List lista las configuraciones del tenant.
func (r *RotationConfigRepo) List(companyID string, limit, offset int) ([]*entity.RotationConfig, error) {
	query := `
		SELECT ` + rotationColumns + ` FROM rotation_configs
		WHERE company_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(context.Background(), query, companyID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list rotation configs: %w", err)
	}
	defer rows.Close()
	var list []*entity.RotationConfig
	for rows.Next() {
		var c entity.RotationConfig
		if err := rows.Scan(
			&c.ID, &c.CompanyID, &c.ProductID, &c.FamilyID, &c.Enabled, &c.Method,
			&c.ToleranceDays, &c.ExcludeExpired, &c.ExcludeExpiredFromValuation,
			&c.PrioritizePrice, &c.RotationAlertDays, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan rotation config: %w", err)
		}
		list = append(list, &c)
	}
	return list, rows.Err()
}

// Delete elimina una configuración (el alcance vuelve al nivel superior).
func (r *RotationConfigRepo) Delete(companyID, id string) error {
	query := `DELETE FROM rotation_configs WHERE company_id = $1 AND id = $2`
	tag, err := r.q.Exec(context.Background(), query, companyID, id)
	if err != nil {
		return fmt.Errorf("delete rotation config: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *RotationConfigRepo) scanOne(query, op string, args ...any) (*entity.RotationConfig, error) {
	var c entity.RotationConfig
	err := r.q.QueryRow(context.Background(), query, args...).Scan(
		&c.ID, &c.CompanyID, &c.ProductID, &c.FamilyID, &c.Enabled, &c.Method,
		&c.ToleranceDays, &c.ExcludeExpired, &c.ExcludeExpiredFromValuation,
		&c.PrioritizePrice, &c.RotationAlertDays, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &c, nil
}
