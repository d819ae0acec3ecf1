package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/farmaops/farmacia-stock-api/internal/domain"
	"github.com/farmaops/farmacia-stock-api/internal/domain/entity"
	"github.com/farmaops/farmacia-stock-api/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de persistencia para productos. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

const productColumns = `id, company_id, sku, name, description, family_id, category,
	price, cost, low_stock_qty, critical_stock_qty, overstock_qty,
	lead_time_days, safety_stock_pct, min_stock_days, max_stock_days,
	unit_measure, created_at, updated_at`

// Create persiste un nuevo producto del maestro.
func (r *ProductRepo) Create(product *entity.Product) error {
	query := `
		INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`
	_, err := r.q.Exec(context.Background(), query,
		product.ID, product.CompanyID, product.SKU, product.Name, product.Description,
		product.FamilyID, product.Category, product.Price, product.Cost,
		product.LowStockQty, product.CriticalStockQty, product.OverstockQty,
		product.LeadTimeDays, product.SafetyStockPct, product.MinStockDays, product.MaxStockDays,
		product.UnitMeasure, product.CreatedAt, product.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// GetByID obtiene un producto por ID dentro del tenant.
func (r *ProductRepo) GetByID(companyID, id string) (*entity.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE company_id = $1 AND id = $2`
	var p entity.Product
	err := r.q.QueryRow(context.Background(), query, companyID, id).Scan(
		&p.ID, &p.CompanyID, &p.SKU, &p.Name, &p.Description, &p.FamilyID, &p.Category,
		&p.Price, &p.Cost, &p.LowStockQty, &p.CriticalStockQty, &p.OverstockQty,
		&p.LeadTimeDays, &p.SafetyStockPct, &p.MinStockDays, &p.MaxStockDays,
		&p.UnitMeasure, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

// List lista productos de la empresa con paginación.
func (r *ProductRepo) List(companyID string, limit, offset int) ([]*entity.Product, error) {
	query := `
		SELECT ` + productColumns + ` FROM products
		WHERE company_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(context.Background(), query, companyID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()
	return scanProducts(rows)
}

// UpdateCost actualiza solo el costo de referencia (lo llama el libro al recibir lotes).
func (r *ProductRepo) UpdateCost(companyID, id string, cost decimal.Decimal) error {
	_, err := r.q.Exec(context.Background(),
		`UPDATE products SET cost = $3, updated_at = now() WHERE company_id = $1 AND id = $2`,
		companyID, id, cost,
	)
	if err != nil {
		return fmt.Errorf("update product cost: %w", err)
	}
	return nil
}

// ListWithStock devuelve todos los productos junto con su remanente agregado
// de lotes, en una sola pasada para el barrido de alertas.
func (r *ProductRepo) ListWithStock(companyID string) ([]*entity.Product, []repository.ProductStock, error) {
	query := `
		SELECT ` + productColumns + `,
			COALESCE((SELECT SUM(remaining_quantity) FROM lots l
				WHERE l.company_id = p.company_id AND l.product_id = p.id), 0) AS remaining
		FROM products p WHERE company_id = $1 ORDER BY name`
	rows, err := r.q.Query(context.Background(), query, companyID)
	if err != nil {
		return nil, nil, fmt.Errorf("list products with stock: %w", err)
	}
	defer rows.Close()

	var products []*entity.Product
	var stocks []repository.ProductStock
	for rows.Next() {
		var p entity.Product
		var remaining decimal.Decimal
		if err := rows.Scan(
			&p.ID, &p.CompanyID, &p.SKU, &p.Name, &p.Description, &p.FamilyID, &p.Category,
			&p.Price, &p.Cost, &p.LowStockQty, &p.CriticalStockQty, &p.OverstockQty,
			&p.LeadTimeDays, &p.SafetyStockPct, &p.MinStockDays, &p.MaxStockDays,
			&p.UnitMeasure, &p.CreatedAt, &p.UpdatedAt, &remaining,
		); err != nil {
			return nil, nil, fmt.Errorf("scan product with stock: %w", err)
		}
		products = append(products, &p)
		stocks = append(stocks, repository.ProductStock{ProductID: p.ID, Remaining: remaining})
	}
	return products, stocks, rows.Err()
}

// CurrentStock devuelve el remanente agregado de un producto.
func (r *ProductRepo) CurrentStock(companyID, productID string) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(remaining_quantity), 0) FROM lots
		WHERE company_id = $1 AND product_id = $2`
	var total decimal.Decimal
	if err := r.q.QueryRow(context.Background(), query, companyID, productID).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("current stock: %w", err)
	}
	return total, nil
}

func scanProducts(rows pgx.Rows) ([]*entity.Product, error) {
	var list []*entity.Product
	for rows.Next() {
		var p entity.Product
		if err := rows.Scan(
			&p.ID, &p.CompanyID, &p.SKU, &p.Name, &p.Description, &p.FamilyID, &p.Category,
			&p.Price, &p.Cost, &p.LowStockQty, &p.CriticalStockQty, &p.OverstockQty,
			&p.LeadTimeDays, &p.SafetyStockPct, &p.MinStockDays, &p.MaxStockDays,
			&p.UnitMeasure, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		list = append(list, &p)
	}
	return list, rows.Err()
}
