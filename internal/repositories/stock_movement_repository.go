package repositories

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"repairshop_backend/internal/models"
)

// StockMovementRepository defines the database operations for stock
// movements. Movements are immutable: there are no update or delete
// methods.
type StockMovementRepository interface {
	CreateMovement(executor SQLExecutor, movement *models.StockMovement) (int64, error)
	GetMovements(filters models.MovementFilters) ([]models.StockMovement, int, error)
	GetMovementsByWorkOrder(workOrderID int64) ([]models.StockMovement, error)
}

type stockMovementRepository struct {
	db *sql.DB
}

// NewStockMovementRepository creates a new instance of StockMovementRepository.
func NewStockMovementRepository(db *sql.DB) StockMovementRepository {
	return &stockMovementRepository{db: db}
}

func (r *stockMovementRepository) CreateMovement(executor SQLExecutor, movement *models.StockMovement) (int64, error) {
	if executor == nil {
		executor = r.db
	}
	query := `INSERT INTO stock_movements
	            (part_id, kind, quantity, unit_value, work_order_id, supplier_id,
	             invoice_ref, notes, user_id, movement_date, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	          RETURNING id`
	now := time.Now()
	if movement.MovementDate.IsZero() {
		movement.MovementDate = now
	}
	err := executor.QueryRow(query,
		movement.PartID, movement.Kind, movement.Quantity, movement.UnitValue,
		movement.WorkOrderID, movement.SupplierID, movement.InvoiceRef, movement.Notes,
		movement.UserID, movement.MovementDate, now,
	).Scan(&movement.ID)
	if err != nil {
		return 0, mapPQError("creating stock movement", err)
	}
	movement.CreatedAt = now
	return movement.ID, nil
}

func (r *stockMovementRepository) GetMovements(filters models.MovementFilters) ([]models.StockMovement, int, error) {
	movements := []models.StockMovement{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT
	    sm.id, sm.part_id, sm.kind, sm.quantity, sm.unit_value, sm.work_order_id,
	    sm.supplier_id, sm.invoice_ref, sm.notes, sm.user_id, sm.movement_date, sm.created_at,
	    p.internal_code AS part_code, p.name AS part_name,
	    u.full_name AS user_name,
	    COUNT(*) OVER() AS total_count
	  FROM stock_movements sm
	  JOIN parts p ON sm.part_id = p.id
	  LEFT JOIN users u ON sm.user_id = u.id`)

	var conditions []string
	var args []interface{}
	argCounter := 1

	if filters.PartID != nil {
		conditions = append(conditions, fmt.Sprintf("sm.part_id = $%d", argCounter))
		args = append(args, *filters.PartID)
		argCounter++
	}
	if filters.Kind != nil && *filters.Kind != "" {
		conditions = append(conditions, fmt.Sprintf("sm.kind = $%d", argCounter))
		args = append(args, *filters.Kind)
		argCounter++
	}
	if filters.WorkOrderID != nil {
		conditions = append(conditions, fmt.Sprintf("sm.work_order_id = $%d", argCounter))
		args = append(args, *filters.WorkOrderID)
		argCounter++
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY sm.movement_date DESC, sm.created_at DESC")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCounter, argCounter+1))
	args = append(args, filters.PageSize, (filters.Page-1)*filters.PageSize)

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, mapPQError("querying stock movements", err)
	}
	defer rows.Close()

	for rows.Next() {
		var m models.StockMovement
		var partCode, partName string
		var userName sql.NullString
		if err := rows.Scan(
			&m.ID, &m.PartID, &m.Kind, &m.Quantity, &m.UnitValue, &m.WorkOrderID,
			&m.SupplierID, &m.InvoiceRef, &m.Notes, &m.UserID, &m.MovementDate, &m.CreatedAt,
			&partCode, &partName, &userName, &totalCount,
		); err != nil {
			return nil, 0, mapPQError("scanning stock movement", err)
		}
		m.Part = &models.Part{ID: m.PartID, InternalCode: partCode, Name: partName}
		if userName.Valid {
			name := userName.String
			m.User = &models.User{ID: m.UserID, FullName: &name}
		}
		movements = append(movements, m)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, mapPQError("iterating stock movements", err)
	}
	return movements, totalCount, nil
}

func (r *stockMovementRepository) GetMovementsByWorkOrder(workOrderID int64) ([]models.StockMovement, error) {
	movements := []models.StockMovement{}
	query := `SELECT id, part_id, kind, quantity, unit_value, work_order_id, supplier_id,
	                 invoice_ref, notes, user_id, movement_date, created_at
	          FROM stock_movements
	          WHERE work_order_id = $1
	          ORDER BY movement_date DESC`
	rows, err := r.db.Query(query, workOrderID)
	if err != nil {
		return nil, mapPQError(fmt.Sprintf("querying movements of work order %d", workOrderID), err)
	}
	defer rows.Close()

	for rows.Next() {
		var m models.StockMovement
		if err := rows.Scan(
			&m.ID, &m.PartID, &m.Kind, &m.Quantity, &m.UnitValue, &m.WorkOrderID,
			&m.SupplierID, &m.InvoiceRef, &m.Notes, &m.UserID, &m.MovementDate, &m.CreatedAt,
		); err != nil {
			return nil, mapPQError("scanning stock movement", err)
		}
		movements = append(movements, m)
	}
	if err = rows.Err(); err != nil {
		return nil, mapPQError("iterating stock movements", err)
	}
	return movements, nil
}
