package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"repairshop_backend/internal/models"
)

// WorkOrderRepository defines the database operations for work orders,
// their line items and their status history.
type WorkOrderRepository interface {
	// NextOrderNumber allocates the next sequential OS number. The counter
	// row is incremented with a single UPDATE, so the row lock serializes
	// concurrent creations: two transactions can never see the same value.
	NextOrderNumber(executor SQLExecutor) (string, error)

	CreateWorkOrder(executor SQLExecutor, order *models.WorkOrder) (int64, error)
	GetWorkOrderByID(executor SQLExecutor, orderID int64) (*models.WorkOrder, error)
	GetWorkOrders(filters models.WorkOrderFilters) ([]models.WorkOrder, int, error)
	UpdateWorkOrder(executor SQLExecutor, order *models.WorkOrder) error
	CountByStatuses(statuses ...string) (int, error)
	CountOverdue(today time.Time) (int, error)
	CountEnteredSince(since time.Time) (int, error)

	CreatePartUsage(executor SQLExecutor, usage *models.PartUsage) (int64, error)
	GetPartUsagesByOrderID(executor SQLExecutor, orderID int64) ([]models.PartUsage, error)
	UpdatePartUsage(executor SQLExecutor, usage *models.PartUsage) error
	DeletePartUsage(executor SQLExecutor, usageID int64) error

	CreateStatusHistory(executor SQLExecutor, entry *models.StatusHistory) (int64, error)
	GetStatusHistoryByOrderID(orderID int64) ([]models.StatusHistory, error)
}

type workOrderRepository struct {
	db *sql.DB
}

// NewWorkOrderRepository creates a new instance of WorkOrderRepository.
func NewWorkOrderRepository(db *sql.DB) WorkOrderRepository {
	return &workOrderRepository{db: db}
}

func (r *workOrderRepository) NextOrderNumber(executor SQLExecutor) (string, error) {
	if executor == nil {
		executor = r.db
	}
	var next int64
	query := `UPDATE work_order_counter SET last_value = last_value + 1 RETURNING last_value`
	if err := executor.QueryRow(query).Scan(&next); err != nil {
		return "", mapPQError("allocating work order number", err)
	}
	return fmt.Sprintf("OS-%06d", next), nil
}

func (r *workOrderRepository) CreateWorkOrder(executor SQLExecutor, order *models.WorkOrder) (int64, error) {
	if executor == nil {
		executor = r.db
	}
	query := `INSERT INTO work_orders
	            (order_number, customer_id, equipment_type, brand, model, serial_number,
	             reported_defect, found_defect, status, priority, entry_date, evaluation_date,
	             approval_date, estimated_date, completion_date, delivery_date,
	             labor_value, parts_value, discount, total_value,
	             warranty_days, warranty_end_date, attendant_id, technician_id,
	             internal_notes, customer_notes, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
	                  $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28)
	          RETURNING id`
	now := time.Now()
	if order.EntryDate.IsZero() {
		order.EntryDate = now
	}
	err := executor.QueryRow(query,
		order.OrderNumber, order.CustomerID, order.EquipmentType, order.Brand, order.Model, order.SerialNumber,
		order.ReportedDefect, order.FoundDefect, order.Status, order.Priority, order.EntryDate, order.EvaluationDate,
		order.ApprovalDate, order.EstimatedDate, order.CompletionDate, order.DeliveryDate,
		order.LaborValue, order.PartsValue, order.Discount, order.TotalValue,
		order.WarrantyDays, order.WarrantyEndDate, order.AttendantID, order.TechnicianID,
		order.InternalNotes, order.CustomerNotes, now, now,
	).Scan(&order.ID)
	if err != nil {
		return 0, mapPQError("creating work order", err)
	}
	order.CreatedAt = now
	order.UpdatedAt = now
	return order.ID, nil
}

func (r *workOrderRepository) GetWorkOrderByID(executor SQLExecutor, orderID int64) (*models.WorkOrder, error) {
	if executor == nil {
		executor = r.db
	}
	order := &models.WorkOrder{}
	var customerName, customerPhone string
	var customerEmail sql.NullString
	query := `SELECT o.id, o.order_number, o.customer_id, o.equipment_type, o.brand, o.model,
	                 o.serial_number, o.reported_defect, o.found_defect, o.status, o.priority,
	                 o.entry_date, o.evaluation_date, o.approval_date, o.estimated_date,
	                 o.completion_date, o.delivery_date,
	                 o.labor_value, o.parts_value, o.discount, o.total_value,
	                 o.warranty_days, o.warranty_end_date, o.attendant_id, o.technician_id,
	                 o.internal_notes, o.customer_notes, o.created_at, o.updated_at,
	                 c.name, c.primary_phone, c.email
	          FROM work_orders o
	          JOIN customers c ON o.customer_id = c.id
	          WHERE o.id = $1`
	err := executor.QueryRow(query, orderID).Scan(
		&order.ID, &order.OrderNumber, &order.CustomerID, &order.EquipmentType, &order.Brand, &order.Model,
		&order.SerialNumber, &order.ReportedDefect, &order.FoundDefect, &order.Status, &order.Priority,
		&order.EntryDate, &order.EvaluationDate, &order.ApprovalDate, &order.EstimatedDate,
		&order.CompletionDate, &order.DeliveryDate,
		&order.LaborValue, &order.PartsValue, &order.Discount, &order.TotalValue,
		&order.WarrantyDays, &order.WarrantyEndDate, &order.AttendantID, &order.TechnicianID,
		&order.InternalNotes, &order.CustomerNotes, &order.CreatedAt, &order.UpdatedAt,
		&customerName, &customerPhone, &customerEmail,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, mapPQError(fmt.Sprintf("getting work order %d", orderID), err)
	}
	customer := &models.Customer{ID: order.CustomerID, Name: customerName, PrimaryPhone: customerPhone}
	if customerEmail.Valid {
		email := customerEmail.String
		customer.Email = &email
	}
	order.Customer = customer
	return order, nil
}

func (r *workOrderRepository) GetWorkOrders(filters models.WorkOrderFilters) ([]models.WorkOrder, int, error) {
	orders := []models.WorkOrder{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`
	    SELECT o.id, o.order_number, o.customer_id, o.equipment_type, o.brand, o.model,
	           o.serial_number, o.reported_defect, o.found_defect, o.status, o.priority,
	           o.entry_date, o.evaluation_date, o.approval_date, o.estimated_date,
	           o.completion_date, o.delivery_date,
	           o.labor_value, o.parts_value, o.discount, o.total_value,
	           o.warranty_days, o.warranty_end_date, o.attendant_id, o.technician_id,
	           o.internal_notes, o.customer_notes, o.created_at, o.updated_at,
	           c.name AS customer_name, c.primary_phone AS customer_phone,
	           u.full_name AS technician_name,
	           COUNT(*) OVER() AS total_count
	    FROM work_orders o
	    JOIN customers c ON o.customer_id = c.id
	    LEFT JOIN users u ON o.technician_id = u.id
	`)

	var conditions []string
	var args []interface{}
	argCounter := 1

	if filters.Status != nil && *filters.Status != "" {
		conditions = append(conditions, fmt.Sprintf("o.status = $%d", argCounter))
		args = append(args, *filters.Status)
		argCounter++
	}
	if filters.CustomerID != nil {
		conditions = append(conditions, fmt.Sprintf("o.customer_id = $%d", argCounter))
		args = append(args, *filters.CustomerID)
		argCounter++
	}
	if filters.TechnicianID != nil {
		conditions = append(conditions, fmt.Sprintf("o.technician_id = $%d", argCounter))
		args = append(args, *filters.TechnicianID)
		argCounter++
	}
	if filters.Search != nil && *filters.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(o.order_number ILIKE $%d OR c.name ILIKE $%d OR o.brand ILIKE $%d OR o.model ILIKE $%d)",
			argCounter, argCounter, argCounter, argCounter))
		args = append(args, "%"+*filters.Search+"%")
		argCounter++
	}
	if filters.OverdueOnly {
		conditions = append(conditions,
			"o.estimated_date IS NOT NULL AND o.estimated_date < CURRENT_DATE AND o.status NOT IN ('entregue', 'cancelado')")
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY o.entry_date DESC")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCounter, argCounter+1))
	args = append(args, filters.PageSize, (filters.Page-1)*filters.PageSize)

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, mapPQError("querying work orders", err)
	}
	defer rows.Close()

	for rows.Next() {
		var o models.WorkOrder
		var customerName, customerPhone string
		var technicianName sql.NullString
		if err := rows.Scan(
			&o.ID, &o.OrderNumber, &o.CustomerID, &o.EquipmentType, &o.Brand, &o.Model,
			&o.SerialNumber, &o.ReportedDefect, &o.FoundDefect, &o.Status, &o.Priority,
			&o.EntryDate, &o.EvaluationDate, &o.ApprovalDate, &o.EstimatedDate,
			&o.CompletionDate, &o.DeliveryDate,
			&o.LaborValue, &o.PartsValue, &o.Discount, &o.TotalValue,
			&o.WarrantyDays, &o.WarrantyEndDate, &o.AttendantID, &o.TechnicianID,
			&o.InternalNotes, &o.CustomerNotes, &o.CreatedAt, &o.UpdatedAt,
			&customerName, &customerPhone, &technicianName, &totalCount,
		); err != nil {
			return nil, 0, mapPQError("scanning work order", err)
		}
		o.Customer = &models.Customer{ID: o.CustomerID, Name: customerName, PrimaryPhone: customerPhone}
		if o.TechnicianID != nil && technicianName.Valid {
			name := technicianName.String
			o.Technician = &models.User{ID: *o.TechnicianID, FullName: &name}
		}
		orders = append(orders, o)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, mapPQError("iterating work orders", err)
	}
	return orders, totalCount, nil
}

func (r *workOrderRepository) UpdateWorkOrder(executor SQLExecutor, order *models.WorkOrder) error {
	if executor == nil {
		executor = r.db
	}
	query := `UPDATE work_orders SET
	            customer_id = $1, equipment_type = $2, brand = $3, model = $4, serial_number = $5,
	            reported_defect = $6, found_defect = $7, status = $8, priority = $9,
	            evaluation_date = $10, approval_date = $11, estimated_date = $12,
	            completion_date = $13, delivery_date = $14,
	            labor_value = $15, parts_value = $16, discount = $17, total_value = $18,
	            warranty_days = $19, warranty_end_date = $20, technician_id = $21,
	            internal_notes = $22, customer_notes = $23, updated_at = $24
	          WHERE id = $25`
	result, err := executor.Exec(query,
		order.CustomerID, order.EquipmentType, order.Brand, order.Model, order.SerialNumber,
		order.ReportedDefect, order.FoundDefect, order.Status, order.Priority,
		order.EvaluationDate, order.ApprovalDate, order.EstimatedDate,
		order.CompletionDate, order.DeliveryDate,
		order.LaborValue, order.PartsValue, order.Discount, order.TotalValue,
		order.WarrantyDays, order.WarrantyEndDate, order.TechnicianID,
		order.InternalNotes, order.CustomerNotes, time.Now(), order.ID,
	)
	if err != nil {
		return mapPQError(fmt.Sprintf("updating work order %d", order.ID), err)
	}
	return requireRowsAffected(result, fmt.Sprintf("updating work order %d", order.ID))
}

func (r *workOrderRepository) CountByStatuses(statuses ...string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM work_orders WHERE status = ANY($1)`
	if err := r.db.QueryRow(query, pq.Array(statuses)).Scan(&count); err != nil {
		return 0, mapPQError("counting work orders by status", err)
	}
	return count, nil
}

func (r *workOrderRepository) CountOverdue(today time.Time) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM work_orders
	          WHERE estimated_date IS NOT NULL AND estimated_date < $1
	            AND status NOT IN ('entregue', 'cancelado')`
	if err := r.db.QueryRow(query, today).Scan(&count); err != nil {
		return 0, mapPQError("counting overdue work orders", err)
	}
	return count, nil
}

func (r *workOrderRepository) CountEnteredSince(since time.Time) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM work_orders WHERE entry_date >= $1`
	if err := r.db.QueryRow(query, since).Scan(&count); err != nil {
		return 0, mapPQError("counting work orders by entry date", err)
	}
	return count, nil
}

// --- PartUsage methods ---

func (r *workOrderRepository) CreatePartUsage(executor SQLExecutor, usage *models.PartUsage) (int64, error) {
	if executor == nil {
		executor = r.db
	}
	query := `INSERT INTO part_usages (work_order_id, part_id, quantity, unit_price, line_total, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id`
	now := time.Now()
	err := executor.QueryRow(query,
		usage.WorkOrderID, usage.PartID, usage.Quantity, usage.UnitPrice, usage.LineTotal, now,
	).Scan(&usage.ID)
	if err != nil {
		return 0, mapPQError("creating part usage", err)
	}
	usage.CreatedAt = now
	return usage.ID, nil
}

func (r *workOrderRepository) GetPartUsagesByOrderID(executor SQLExecutor, orderID int64) ([]models.PartUsage, error) {
	if executor == nil {
		executor = r.db
	}
	usages := []models.PartUsage{}
	query := `SELECT pu.id, pu.work_order_id, pu.part_id, pu.quantity, pu.unit_price, pu.line_total,
	                 pu.created_at,
	                 p.internal_code, p.name, p.last_cost
	          FROM part_usages pu
	          JOIN parts p ON pu.part_id = p.id
	          WHERE pu.work_order_id = $1
	          ORDER BY pu.id`
	rows, err := executor.Query(query, orderID)
	if err != nil {
		return nil, mapPQError(fmt.Sprintf("querying part usages of work order %d", orderID), err)
	}
	defer rows.Close()

	for rows.Next() {
		var u models.PartUsage
		part := models.Part{}
		if err := rows.Scan(
			&u.ID, &u.WorkOrderID, &u.PartID, &u.Quantity, &u.UnitPrice, &u.LineTotal,
			&u.CreatedAt,
			&part.InternalCode, &part.Name, &part.LastCost,
		); err != nil {
			return nil, mapPQError("scanning part usage", err)
		}
		part.ID = u.PartID
		u.Part = &part
		usages = append(usages, u)
	}
	if err = rows.Err(); err != nil {
		return nil, mapPQError("iterating part usages", err)
	}
	return usages, nil
}

func (r *workOrderRepository) UpdatePartUsage(executor SQLExecutor, usage *models.PartUsage) error {
	if executor == nil {
		executor = r.db
	}
	query := `UPDATE part_usages SET quantity = $1, unit_price = $2, line_total = $3 WHERE id = $4`
	result, err := executor.Exec(query, usage.Quantity, usage.UnitPrice, usage.LineTotal, usage.ID)
	if err != nil {
		return mapPQError(fmt.Sprintf("updating part usage %d", usage.ID), err)
	}
	return requireRowsAffected(result, fmt.Sprintf("updating part usage %d", usage.ID))
}

func (r *workOrderRepository) DeletePartUsage(executor SQLExecutor, usageID int64) error {
	if executor == nil {
		executor = r.db
	}
	result, err := executor.Exec(`DELETE FROM part_usages WHERE id = $1`, usageID)
	if err != nil {
		return mapPQError(fmt.Sprintf("deleting part usage %d", usageID), err)
	}
	return requireRowsAffected(result, fmt.Sprintf("deleting part usage %d", usageID))
}

// --- StatusHistory methods ---

func (r *workOrderRepository) CreateStatusHistory(executor SQLExecutor, entry *models.StatusHistory) (int64, error) {
	if executor == nil {
		executor = r.db
	}
	query := `INSERT INTO status_history (work_order_id, previous_status, new_status, user_id, changed_at, note)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id`
	if entry.ChangedAt.IsZero() {
		entry.ChangedAt = time.Now()
	}
	err := executor.QueryRow(query,
		entry.WorkOrderID, entry.PreviousStatus, entry.NewStatus, entry.UserID, entry.ChangedAt, entry.Note,
	).Scan(&entry.ID)
	if err != nil {
		return 0, mapPQError("creating status history entry", err)
	}
	return entry.ID, nil
}

func (r *workOrderRepository) GetStatusHistoryByOrderID(orderID int64) ([]models.StatusHistory, error) {
	entries := []models.StatusHistory{}
	query := `SELECT id, work_order_id, previous_status, new_status, user_id, changed_at, note
	          FROM status_history
	          WHERE work_order_id = $1
	          ORDER BY changed_at DESC, id DESC`
	rows, err := r.db.Query(query, orderID)
	if err != nil {
		return nil, mapPQError(fmt.Sprintf("querying status history of work order %d", orderID), err)
	}
	defer rows.Close()

	for rows.Next() {
		var e models.StatusHistory
		if err := rows.Scan(&e.ID, &e.WorkOrderID, &e.PreviousStatus, &e.NewStatus, &e.UserID, &e.ChangedAt, &e.Note); err != nil {
			return nil, mapPQError("scanning status history entry", err)
		}
		entries = append(entries, e)
	}
	if err = rows.Err(); err != nil {
		return nil, mapPQError("iterating status history", err)
	}
	return entries, nil
}
