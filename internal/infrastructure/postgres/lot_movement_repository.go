package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/farmaops/farmacia-stock-api/internal/domain/entity"
	"github.com/farmaops/farmacia-stock-api/internal/domain/repository"
)

var _ repository.LotMovementRepository = (*LotMovementRepo)(nil)

// LotMovementRepo implementación de LotMovementRepository sobre PostgreSQL.
type LotMovementRepo struct {
	q Querier
}

// NewLotMovementRepository construye el adaptador del libro de movimientos.
func NewLotMovementRepository(q Querier) *LotMovementRepo {
	return &LotMovementRepo{q: q}
}

const movementColumns = `id, company_id, lot_id, type, quantity, counted_quantity,
	reference_type, reference_id, actor_id, from_location, to_location,
	destination_lot_id, metadata, created_at`

// Create inserta una entrada del libro.
func (r *LotMovementRepo) Create(m *entity.LotMovement) error {
	query := `
		INSERT INTO lot_movements (` + movementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := r.q.Exec(context.Background(), query,
		m.ID, m.CompanyID, m.LotID, m.Type, m.Quantity, m.CountedQuantity,
		m.ReferenceType, m.ReferenceID, m.ActorID, m.FromLocation, m.ToLocation,
		m.DestinationLotID, m.Metadata, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create movement: %w", err)
	}
	return nil
}

// GetByID obtiene una entrada por ID dentro del tenant.
func (r *LotMovementRepo) GetByID(companyID, id string) (*entity.LotMovement, error) {
	query := `SELECT ` + movementColumns + ` FROM lot_movements WHERE company_id = $1 AND id = $2`
	row := r.q.QueryRow(context.Background(), query, companyID, id)
	m, err := scanMovement(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get movement: %w", err)
	}
	return m, nil
}

// GetTransferInLeg obtiene la entrada pareada de un transfer por su referencia
// causal al movimiento de salida.
func (r *LotMovementRepo) GetTransferInLeg(companyID, outMovementID string) (*entity.LotMovement, error) {
	query := `
		SELECT ` + movementColumns + ` FROM lot_movements
		WHERE company_id = $1 AND type = 'transfer' AND reference_id = $2`
	row := r.q.QueryRow(context.Background(), query, companyID, outMovementID)
	m, err := scanMovement(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get transfer in-leg: %w", err)
	}
	return m, nil
}

// Update reescribe los campos mutables de una entrada. El caso de uso ya
// revirtió el efecto anterior y calculó el nuevo; aquí solo se persiste.
func (r *LotMovementRepo) Update(m *entity.LotMovement) error {
	query := `
		UPDATE lot_movements SET
			type = $3, quantity = $4, counted_quantity = $5, reference_type = $6,
			reference_id = $7, from_location = $8, to_location = $9, metadata = $10
		WHERE company_id = $1 AND id = $2`
	tag, err := r.q.Exec(context.Background(), query,
		m.CompanyID, m.ID, m.Type, m.Quantity, m.CountedQuantity,
		m.ReferenceType, m.ReferenceID, m.FromLocation, m.ToLocation, m.Metadata,
	)
	if err != nil {
		return fmt.Errorf("update movement: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update movement: movimiento %s no encontrado", m.ID)
	}
	return nil
}

// Delete elimina una entrada (solo el borrado compensado del caso de uso).
func (r *LotMovementRepo) Delete(companyID, id string) error {
	query := `DELETE FROM lot_movements WHERE company_id = $1 AND id = $2`
	tag, err := r.q.Exec(context.Background(), query, companyID, id)
	if err != nil {
		return fmt.Errorf("delete movement: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete movement: movimiento %s no encontrado", id)
	}
	return nil
}

// ListByLot lista el historial de un lote, más reciente primero, con filtro
// opcional de rango de fechas.
func (r *LotMovementRepo) ListByLot(companyID, lotID string, from, to *time.Time, limit, offset int) ([]*entity.LotMovement, error) {
	query := `
		SELECT ` + movementColumns + ` FROM lot_movements
		WHERE company_id = $1 AND lot_id = $2
		  AND ($3::timestamptz IS NULL OR created_at >= $3)
		  AND ($4::timestamptz IS NULL OR created_at < $4)
		ORDER BY created_at DESC
		LIMIT $5 OFFSET $6`
	return r.list(query, "list movements by lot", companyID, lotID, from, to, limit, offset)
}

// ListByProduct lista los movimientos de todos los lotes de un producto.
func (r *LotMovementRepo) ListByProduct(companyID, productID string, from, to *time.Time, limit, offset int) ([]*entity.LotMovement, error) {
	query := `
		SELECT ` + movementColumns + ` FROM lot_movements m
		WHERE m.company_id = $1
		  AND m.lot_id IN (SELECT id FROM lots WHERE company_id = $1 AND product_id = $2)
		  AND ($3::timestamptz IS NULL OR m.created_at >= $3)
		  AND ($4::timestamptz IS NULL OR m.created_at < $4)
		ORDER BY m.created_at DESC
		LIMIT $5 OFFSET $6`
	return r.list(query, "list movements by product", companyID, productID, from, to, limit, offset)
}

// SumEffectsByLot suma los efectos con signo aplicados a un lote.
func (r *LotMovementRepo) SumEffectsByLot(companyID, lotID string) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(quantity), 0) FROM lot_movements
		WHERE company_id = $1 AND lot_id = $2`
	var sum decimal.Decimal
	if err := r.q.QueryRow(context.Background(), query, companyID, lotID).Scan(&sum); err != nil {
		return decimal.Zero, fmt.Errorf("sum movement effects: %w", err)
	}
	return sum, nil
}

// TotalConsumedByProduct suma el valor absoluto de los efectos negativos
// (salidas) de un producto en la ventana dada.
func (r *LotMovementRepo) TotalConsumedByProduct(companyID, productID string, from, to time.Time) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(-m.quantity), 0) FROM lot_movements m
		WHERE m.company_id = $1
		  AND m.lot_id IN (SELECT id FROM lots WHERE company_id = $1 AND product_id = $2)
		  AND m.quantity < 0
		  AND m.created_at >= $3 AND m.created_at < $4`
	var total decimal.Decimal
	if err := r.q.QueryRow(context.Background(), query, companyID, productID, from, to).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("total consumed: %w", err)
	}
	return total, nil
}

func (r *LotMovementRepo) list(query, op string, args ...any) ([]*entity.LotMovement, error) {
	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()
	var list []*entity.LotMovement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

func scanMovement(row pgx.Row) (*entity.LotMovement, error) {
	var m entity.LotMovement
	err := row.Scan(
		&m.ID, &m.CompanyID, &m.LotID, &m.Type, &m.Quantity, &m.CountedQuantity,
		&m.ReferenceType, &m.ReferenceID, &m.ActorID, &m.FromLocation, &m.ToLocation,
		&m.DestinationLotID, &m.Metadata, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}
