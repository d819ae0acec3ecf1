package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/farmaops/farmacia-stock-api/internal/domain/entity"
	"github.com/farmaops/farmacia-stock-api/internal/domain/repository"
)

var _ repository.ReconciliationRepository = (*ReconciliationRepo)(nil)

// ReconciliationRepo implementación de ReconciliationRepository sobre PostgreSQL.
type ReconciliationRepo struct {
	q Querier
}

// NewReconciliationRepository construye el adaptador de reconciliación.
func NewReconciliationRepository(q Querier) *ReconciliationRepo {
	return &ReconciliationRepo{q: q}
}

// CreateSession persiste una sesión de inventario físico.
func (r *ReconciliationRepo) CreateSession(s *entity.InventorySession) error {
	query := `
		INSERT INTO inventory_sessions (id, company_id, name, status, created_by, created_at, closed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(context.Background(), query,
		s.ID, s.CompanyID, s.Name, s.Status, s.CreatedBy, s.CreatedAt, s.ClosedAt)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// GetSession obtiene una sesión por ID.
func (r *ReconciliationRepo) GetSession(companyID, id string) (*entity.InventorySession, error) {
	query := `
		SELECT id, company_id, name, status, created_by, created_at, closed_at
		FROM inventory_sessions WHERE company_id = $1 AND id = $2`
	var s entity.InventorySession
	err := r.q.QueryRow(context.Background(), query, companyID, id).Scan(
		&s.ID, &s.CompanyID, &s.Name, &s.Status, &s.CreatedBy, &s.CreatedAt, &s.ClosedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return &s, nil
}

// CloseSession marca la sesión como cerrada.
func (r *ReconciliationRepo) CloseSession(companyID, id string) error {
	query := `
		UPDATE inventory_sessions SET status = $3, closed_at = now()
		WHERE company_id = $1 AND id = $2`
	tag, err := r.q.Exec(context.Background(), query, companyID, id, entity.SessionStatusClosed)
	if err != nil {
		return fmt.Errorf("close session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("close session: sesión %s no encontrada", id)
	}
	return nil
}

const reconItemColumns = `id, company_id, session_id, product_id, lot_id,
	theoretical_qty, counted_qty, unit_cost, status, reason_code, note,
	decided_by, decided_at, created_at, updated_at`

// CreateItem persiste un ítem de reconciliación.
func (r *ReconciliationRepo) CreateItem(i *entity.ReconciliationItem) error {
	query := `
		INSERT INTO reconciliation_items (` + reconItemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	_, err := r.q.Exec(context.Background(), query,
		i.ID, i.CompanyID, i.SessionID, i.ProductID, i.LotID,
		i.TheoreticalQty, i.CountedQty, i.UnitCost, i.Status, i.ReasonCode, i.Note,
		i.DecidedBy, i.DecidedAt, i.CreatedAt, i.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create reconciliation item: %w", err)
	}
	return nil
}

// GetItem obtiene un ítem por ID.
func (r *ReconciliationRepo) GetItem(companyID, id string) (*entity.ReconciliationItem, error) {
	query := `SELECT ` + reconItemColumns + ` FROM reconciliation_items WHERE company_id = $1 AND id = $2`
	return r.scanItem(r.q.QueryRow(context.Background(), query, companyID, id), "get reconciliation item")
}

// GetItemForUpdate obtiene el ítem bloqueando la fila.
func (r *ReconciliationRepo) GetItemForUpdate(companyID, id string) (*entity.ReconciliationItem, error) {
	query := `SELECT ` + reconItemColumns + ` FROM reconciliation_items WHERE company_id = $1 AND id = $2 FOR UPDATE`
	return r.scanItem(r.q.QueryRow(context.Background(), query, companyID, id), "get reconciliation item for update")
}

// UpdateItem persiste la decisión o anotación de un ítem.
func (r *ReconciliationRepo) UpdateItem(i *entity.ReconciliationItem) error {
	query := `
		UPDATE reconciliation_items SET
			status = $3, reason_code = $4, note = $5, decided_by = $6,
			decided_at = $7, updated_at = now()
		WHERE company_id = $1 AND id = $2`
	tag, err := r.q.Exec(context.Background(), query,
		i.CompanyID, i.ID, i.Status, i.ReasonCode, i.Note, i.DecidedBy, i.DecidedAt)
	if err != nil {
		return fmt.Errorf("update reconciliation item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update reconciliation item: ítem %s no encontrado", i.ID)
	}
	return nil
}

// ListItemsBySession lista los ítems de una sesión.
func (r *ReconciliationRepo) ListItemsBySession(companyID, sessionID string, limit, offset int) ([]*entity.ReconciliationItem, error) {
	query := `
		SELECT ` + reconItemColumns + ` FROM reconciliation_items
		WHERE company_id = $1 AND session_id = $2
		ORDER BY created_at ASC
		LIMIT $3 OFFSET $4`
	return r.listItems(query, "list session items", companyID, sessionID, limit, offset)
}

// ListPending devuelve la cola de varianzas pendientes, más antigua primero.
func (r *ReconciliationRepo) ListPending(companyID string, limit, offset int) ([]*entity.ReconciliationItem, error) {
	query := `
		SELECT ` + reconItemColumns + ` FROM reconciliation_items
		WHERE company_id = $1 AND status = $2
		ORDER BY created_at ASC
		LIMIT $3 OFFSET $4`
	return r.listItems(query, "list pending items", companyID, entity.ReconciliationStatusPending, limit, offset)
}

func (r *ReconciliationRepo) scanItem(row pgx.Row, op string) (*entity.ReconciliationItem, error) {
	var i entity.ReconciliationItem
	err := row.Scan(
		&i.ID, &i.CompanyID, &i.SessionID, &i.ProductID, &i.LotID,
		&i.TheoreticalQty, &i.CountedQty, &i.UnitCost, &i.Status, &i.ReasonCode, &i.Note,
		&i.DecidedBy, &i.DecidedAt, &i.CreatedAt, &i.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &i, nil
}

func (r *ReconciliationRepo) listItems(query, op string, args ...any) ([]*entity.ReconciliationItem, error) {
	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()
	var list []*entity.ReconciliationItem
	for rows.Next() {
		var i entity.ReconciliationItem
		if err := rows.Scan(
			&i.ID, &i.CompanyID, &i.SessionID, &i.ProductID, &i.LotID,
			&i.TheoreticalQty, &i.CountedQty, &i.UnitCost, &i.Status, &i.ReasonCode, &i.Note,
			&i.DecidedBy, &i.DecidedAt, &i.CreatedAt, &i.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan reconciliation item: %w", err)
		}
		list = append(list, &i)
	}
	return list, rows.Err()
}
