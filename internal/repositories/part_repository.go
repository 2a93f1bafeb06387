package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"repairshop_backend/internal/models"

	"github.com/shopspring/decimal"
)

// PartRepository defines the database operations for part categories and
// parts. The current stock of a part is never stored; CurrentQuantity
// projects it from the movement history.
type PartRepository interface {
	CreateCategory(executor SQLExecutor, category *models.PartCategory) (int64, error)
	GetCategoryByID(categoryID int64) (*models.PartCategory, error)
	GetCategories(page, pageSize int) ([]models.PartCategory, int, error)
	UpdateCategory(executor SQLExecutor, category *models.PartCategory) error
	DeleteCategory(executor SQLExecutor, categoryID int64) error

	CreatePart(executor SQLExecutor, part *models.Part) (int64, error)
	GetPartByID(executor SQLExecutor, partID int64) (*models.Part, error)
	GetParts(filters models.PartFilters) ([]models.Part, int, error)
	UpdatePart(executor SQLExecutor, part *models.Part) error
	UpdatePartCost(executor SQLExecutor, partID int64, lastCost, salePrice decimal.Decimal) error
	DeletePart(executor SQLExecutor, partID int64) error

	CurrentQuantity(executor SQLExecutor, partID int64) (int, error)
	CountLowStock() (int, error)
}

type partRepository struct {
	db *sql.DB
}

// NewPartRepository creates a new instance of PartRepository.
func NewPartRepository(db *sql.DB) PartRepository {
	return &partRepository{db: db}
}

// derivedStockExpr projects the current quantity of a part from its
// movement history: entradas count positive, saidas negative, ajustes are
// signed deltas.
const derivedStockExpr = `COALESCE((
	SELECT SUM(CASE WHEN sm.kind = 'saida' THEN -sm.quantity ELSE sm.quantity END)
	FROM stock_movements sm WHERE sm.part_id = p.id), 0)`

// --- Category methods ---

func (r *partRepository) CreateCategory(executor SQLExecutor, category *models.PartCategory) (int64, error) {
	if executor == nil {
		executor = r.db
	}
	query := `INSERT INTO part_categories (name, description, created_at, updated_at)
	          VALUES ($1, $2, $3, $4)
	          RETURNING id`
	now := time.Now()
	err := executor.QueryRow(query, category.Name, category.Description, now, now).Scan(&category.ID)
	if err != nil {
		return 0, mapPQError("creating part category", err)
	}
	category.CreatedAt = now
	category.UpdatedAt = now
	return category.ID, nil
}

func (r *partRepository) GetCategoryByID(categoryID int64) (*models.PartCategory, error) {
	category := &models.PartCategory{}
	query := `SELECT id, name, description, created_at, updated_at
	          FROM part_categories WHERE id = $1`
	err := r.db.QueryRow(query, categoryID).Scan(
		&category.ID, &category.Name, &category.Description, &category.CreatedAt, &category.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, mapPQError(fmt.Sprintf("getting part category %d", categoryID), err)
	}
	return category, nil
}

func (r *partRepository) GetCategories(page, pageSize int) ([]models.PartCategory, int, error) {
	categories := []models.PartCategory{}
	totalCount := 0
	query := `SELECT id, name, description, created_at, updated_at, COUNT(*) OVER() AS total_count
	          FROM part_categories
	          ORDER BY name
	          LIMIT $1 OFFSET $2`
	rows, err := r.db.Query(query, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, mapPQError("querying part categories", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c models.PartCategory
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt, &totalCount); err != nil {
			return nil, 0, mapPQError("scanning part category", err)
		}
		categories = append(categories, c)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, mapPQError("iterating part categories", err)
	}
	return categories, totalCount, nil
}

func (r *partRepository) UpdateCategory(executor SQLExecutor, category *models.PartCategory) error {
	if executor == nil {
		executor = r.db
	}
	query := `UPDATE part_categories SET name = $1, description = $2, updated_at = $3 WHERE id = $4`
	result, err := executor.Exec(query, category.Name, category.Description, time.Now(), category.ID)
	if err != nil {
		return mapPQError(fmt.Sprintf("updating part category %d", category.ID), err)
	}
	return requireRowsAffected(result, fmt.Sprintf("updating part category %d", category.ID))
}

func (r *partRepository) DeleteCategory(executor SQLExecutor, categoryID int64) error {
	if executor == nil {
		executor = r.db
	}
	result, err := executor.Exec(`DELETE FROM part_categories WHERE id = $1`, categoryID)
	if err != nil {
		return mapPQError(fmt.Sprintf("deleting part category %d", categoryID), err)
	}
	return requireRowsAffected(result, fmt.Sprintf("deleting part category %d", categoryID))
}

// --- Part methods ---

func (r *partRepository) CreatePart(executor SQLExecutor, part *models.Part) (int64, error) {
	if executor == nil {
		executor = r.db
	}
	query := `INSERT INTO parts
	            (internal_code, name, description, category_id, minimum_stock, location,
	             last_cost, sale_price, margin_pct, supplier_id, notes, active,
	             created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	          RETURNING id`
	now := time.Now()
	err := executor.QueryRow(query,
		part.InternalCode, part.Name, part.Description, part.CategoryID, part.MinimumStock, part.Location,
		part.LastCost, part.SalePrice, part.MarginPct, part.SupplierID, part.Notes, part.Active,
		now, now,
	).Scan(&part.ID)
	if err != nil {
		return 0, mapPQError("creating part", err)
	}
	part.CreatedAt = now
	part.UpdatedAt = now
	return part.ID, nil
}

func (r *partRepository) GetPartByID(executor SQLExecutor, partID int64) (*models.Part, error) {
	if executor == nil {
		executor = r.db
	}
	part := &models.Part{}
	var currentStock int
	query := `SELECT p.id, p.internal_code, p.name, p.description, p.category_id, p.minimum_stock,
	                 p.location, p.last_cost, p.sale_price, p.margin_pct, p.supplier_id, p.notes,
	                 p.active, p.created_at, p.updated_at,
	                 ` + derivedStockExpr + ` AS current_stock
	          FROM parts p
	          WHERE p.id = $1`
	err := executor.QueryRow(query, partID).Scan(
		&part.ID, &part.InternalCode, &part.Name, &part.Description, &part.CategoryID, &part.MinimumStock,
		&part.Location, &part.LastCost, &part.SalePrice, &part.MarginPct, &part.SupplierID, &part.Notes,
		&part.Active, &part.CreatedAt, &part.UpdatedAt,
		&currentStock,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, mapPQError(fmt.Sprintf("getting part %d", partID), err)
	}
	part.CurrentStock = &currentStock
	return part, nil
}

func (r *partRepository) GetParts(filters models.PartFilters) ([]models.Part, int, error) {
	parts := []models.Part{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`
	    SELECT p.id, p.internal_code, p.name, p.description, p.category_id, p.minimum_stock,
	           p.location, p.last_cost, p.sale_price, p.margin_pct, p.supplier_id, p.notes,
	           p.active, p.created_at, p.updated_at,
	           ` + derivedStockExpr + ` AS current_stock,
	           pc.name AS category_name,
	           COUNT(*) OVER() AS total_count
	    FROM parts p
	    JOIN part_categories pc ON p.category_id = pc.id
	`)

	var conditions []string
	var args []interface{}
	argCounter := 1

	if filters.Search != nil && *filters.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(p.internal_code ILIKE $%d OR p.name ILIKE $%d)", argCounter, argCounter))
		args = append(args, "%"+*filters.Search+"%")
		argCounter++
	}
	if filters.CategoryID != nil {
		conditions = append(conditions, fmt.Sprintf("p.category_id = $%d", argCounter))
		args = append(args, *filters.CategoryID)
		argCounter++
	}
	if filters.ActiveOnly {
		conditions = append(conditions, "p.active = TRUE")
	}
	if filters.LowStockOnly {
		conditions = append(conditions, derivedStockExpr+" <= p.minimum_stock")
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY p.name")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCounter, argCounter+1))
	args = append(args, filters.PageSize, (filters.Page-1)*filters.PageSize)

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, mapPQError("querying parts", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p models.Part
		var currentStock int
		var categoryName string
		if err := rows.Scan(
			&p.ID, &p.InternalCode, &p.Name, &p.Description, &p.CategoryID, &p.MinimumStock,
			&p.Location, &p.LastCost, &p.SalePrice, &p.MarginPct, &p.SupplierID, &p.Notes,
			&p.Active, &p.CreatedAt, &p.UpdatedAt,
			&currentStock, &categoryName, &totalCount,
		); err != nil {
			return nil, 0, mapPQError("scanning part", err)
		}
		p.CurrentStock = &currentStock
		p.Category = &models.PartCategory{ID: p.CategoryID, Name: categoryName}
		parts = append(parts, p)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, mapPQError("iterating parts", err)
	}
	return parts, totalCount, nil
}

func (r *partRepository) UpdatePart(executor SQLExecutor, part *models.Part) error {
	if executor == nil {
		executor = r.db
	}
	query := `UPDATE parts SET
	            name = $1, description = $2, category_id = $3, minimum_stock = $4, location = $5,
	            last_cost = $6, sale_price = $7, margin_pct = $8, supplier_id = $9, notes = $10,
	            active = $11, updated_at = $12
	          WHERE id = $13`
	result, err := executor.Exec(query,
		part.Name, part.Description, part.CategoryID, part.MinimumStock, part.Location,
		part.LastCost, part.SalePrice, part.MarginPct, part.SupplierID, part.Notes,
		part.Active, time.Now(), part.ID,
	)
	if err != nil {
		return mapPQError(fmt.Sprintf("updating part %d", part.ID), err)
	}
	return requireRowsAffected(result, fmt.Sprintf("updating part %d", part.ID))
}

// UpdatePartCost rewrites the cost basis and sale price only, used when an
// inbound movement carries a positive unit value.
func (r *partRepository) UpdatePartCost(executor SQLExecutor, partID int64, lastCost, salePrice decimal.Decimal) error {
	if executor == nil {
		executor = r.db
	}
	query := `UPDATE parts SET last_cost = $1, sale_price = $2, updated_at = $3 WHERE id = $4`
	result, err := executor.Exec(query, lastCost, salePrice, time.Now(), partID)
	if err != nil {
		return mapPQError(fmt.Sprintf("updating cost of part %d", partID), err)
	}
	return requireRowsAffected(result, fmt.Sprintf("updating cost of part %d", partID))
}

func (r *partRepository) DeletePart(executor SQLExecutor, partID int64) error {
	if executor == nil {
		executor = r.db
	}
	result, err := executor.Exec(`DELETE FROM parts WHERE id = $1`, partID)
	if err != nil {
		return mapPQError(fmt.Sprintf("deleting part %d", partID), err)
	}
	return requireRowsAffected(result, fmt.Sprintf("deleting part %d", partID))
}

func (r *partRepository) CurrentQuantity(executor SQLExecutor, partID int64) (int, error) {
	if executor == nil {
		executor = r.db
	}
	var quantity int
	query := `SELECT COALESCE(SUM(CASE WHEN kind = 'saida' THEN -quantity ELSE quantity END), 0)
	          FROM stock_movements WHERE part_id = $1`
	if err := executor.QueryRow(query, partID).Scan(&quantity); err != nil {
		return 0, mapPQError(fmt.Sprintf("deriving stock of part %d", partID), err)
	}
	return quantity, nil
}

func (r *partRepository) CountLowStock() (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM parts p WHERE p.active = TRUE AND ` + derivedStockExpr + ` <= p.minimum_stock`
	if err := r.db.QueryRow(query).Scan(&count); err != nil {
		return 0, mapPQError("counting low stock parts", err)
	}
	return count, nil
}

// requireRowsAffected converts a zero-row update/delete into ErrNotFound.
func requireRowsAffected(result sql.Result, op string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return mapPQError(op, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
