package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/farmaops/farmacia-stock-api/internal/domain/entity"
	"github.com/farmaops/farmacia-stock-api/internal/domain/repository"
)

var _ repository.LotRepository = (*LotRepo)(nil)

// LotRepo implementación de LotRepository sobre PostgreSQL (usable con pool o tx).
type LotRepo struct {
	q Querier
}

// NewLotRepository construye el adaptador de lotes. Pasar pool o tx (Querier).
func NewLotRepository(q Querier) *LotRepo {
	return &LotRepo{q: q}
}

const lotColumns = `id, company_id, product_id, lot_number, supplier_id, manufacture_date,
	reception_date, expiration_date, initial_quantity, remaining_quantity,
	unit_cost, unit_price, status, location, storage_condition, created_at, updated_at`

// Create persiste un lote nuevo (recepción).
func (r *LotRepo) Create(lot *entity.Lot) error {
	query := `
		INSERT INTO lots (` + lotColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`
	_, err := r.q.Exec(context.Background(), query,
		lot.ID, lot.CompanyID, lot.ProductID, lot.LotNumber, lot.SupplierID, lot.ManufactureDate,
		lot.ReceptionDate, lot.ExpirationDate, lot.InitialQuantity, lot.RemainingQuantity,
		lot.UnitCost, lot.UnitPrice, lot.Status, lot.Location, lot.StorageCondition,
		lot.CreatedAt, lot.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create lot: %w", err)
	}
	return nil
}

// GetByID obtiene un lote por ID dentro del tenant.
func (r *LotRepo) GetByID(companyID, id string) (*entity.Lot, error) {
	query := `SELECT ` + lotColumns + ` FROM lots WHERE company_id = $1 AND id = $2`
	return r.scanOne(r.q.QueryRow(context.Background(), query, companyID, id), "get lot")
}

// GetForUpdate obtiene el lote y bloquea la fila (SELECT FOR UPDATE).
func (r *LotRepo) GetForUpdate(companyID, id string) (*entity.Lot, error) {
	query := `SELECT ` + lotColumns + ` FROM lots WHERE company_id = $1 AND id = $2 FOR UPDATE`
	return r.scanOne(r.q.QueryRow(context.Background(), query, companyID, id), "get lot for update")
}

// UpdateBalance persiste el saldo rederivado y el estado del lote.
// Solo el libro de movimientos debe llamarlo, dentro de su transacción.
func (r *LotRepo) UpdateBalance(companyID, id string, balance repository.RemainingBalance) error {
	query := `
		UPDATE lots SET remaining_quantity = $3, status = $4, updated_at = now()
		WHERE company_id = $1 AND id = $2`
	tag, err := r.q.Exec(context.Background(), query, companyID, id, balance.Quantity, balance.Status)
	if err != nil {
		return fmt.Errorf("update lot balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update lot balance: lote %s no encontrado", id)
	}
	return nil
}

// ListByProduct lista los lotes de un producto, vencimiento más próximo primero.
func (r *LotRepo) ListByProduct(companyID, productID string, limit, offset int) ([]*entity.Lot, error) {
	query := `
		SELECT ` + lotColumns + ` FROM lots
		WHERE company_id = $1 AND product_id = $2
		ORDER BY expiration_date ASC NULLS LAST, reception_date ASC
		LIMIT $3 OFFSET $4`
	return r.scanMany(query, "list lots by product", companyID, productID, limit, offset)
}

// ListAvailableByProduct devuelve lotes con remanente > 0, vencimiento
// ascendente (candidatos de rotación y valorización).
func (r *LotRepo) ListAvailableByProduct(companyID, productID string) ([]*entity.Lot, error) {
	query := `
		SELECT ` + lotColumns + ` FROM lots
		WHERE company_id = $1 AND product_id = $2 AND remaining_quantity > 0
		ORDER BY expiration_date ASC NULLS LAST, reception_date ASC`
	return r.scanMany(query, "list available lots", companyID, productID)
}

// ListExpiringBefore devuelve lotes con remanente que vencen dentro de days días
// (incluidos los ya vencidos), más urgente primero.
func (r *LotRepo) ListExpiringBefore(companyID string, days, limit, offset int) ([]*entity.Lot, error) {
	query := `
		SELECT ` + lotColumns + ` FROM lots
		WHERE company_id = $1 AND remaining_quantity > 0
		  AND expiration_date IS NOT NULL
		  AND expiration_date <= now() + ($2 * interval '1 day')
		ORDER BY expiration_date ASC
		LIMIT $3 OFFSET $4`
	return r.scanMany(query, "list expiring lots", companyID, days, limit, offset)
}

// UpdateStatus cambia el estado del lote (bloqueo/desbloqueo, vencido).
func (r *LotRepo) UpdateStatus(companyID, id, status string) error {
	query := `UPDATE lots SET status = $3, updated_at = now() WHERE company_id = $1 AND id = $2`
	tag, err := r.q.Exec(context.Background(), query, companyID, id, status)
	if err != nil {
		return fmt.Errorf("update lot status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update lot status: lote %s no encontrado", id)
	}
	return nil
}

func (r *LotRepo) scanOne(row pgx.Row, op string) (*entity.Lot, error) {
	var l entity.Lot
	err := row.Scan(
		&l.ID, &l.CompanyID, &l.ProductID, &l.LotNumber, &l.SupplierID, &l.ManufactureDate,
		&l.ReceptionDate, &l.ExpirationDate, &l.InitialQuantity, &l.RemainingQuantity,
		&l.UnitCost, &l.UnitPrice, &l.Status, &l.Location, &l.StorageCondition,
		&l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &l, nil
}

func (r *LotRepo) scanMany(query, op string, args ...any) ([]*entity.Lot, error) {
	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()
	var list []*entity.Lot
	for rows.Next() {
		var l entity.Lot
		if err := rows.Scan(
			&l.ID, &l.CompanyID, &l.ProductID, &l.LotNumber, &l.SupplierID, &l.ManufactureDate,
			&l.ReceptionDate, &l.ExpirationDate, &l.InitialQuantity, &l.RemainingQuantity,
			&l.UnitCost, &l.UnitPrice, &l.Status, &l.Location, &l.StorageCondition,
			&l.CreatedAt, &l.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan lot: %w", err)
		}
		list = append(list, &l)
	}
	return list, rows.Err()
}
