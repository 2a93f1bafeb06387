package services

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"repairshop_backend/internal/models"
	"repairshop_backend/internal/repositories"
)

// OrderLineRequest is one part line on a work order payload. ID is set on
// updates for lines that already exist; its unit price stays frozen.
type OrderLineRequest struct {
	ID        *int64           `json:"id"`
	PartID    int64            `json:"peca_id" binding:"required"`
	Quantity  int              `json:"quantidade" binding:"required,gt=0"`
	UnitPrice *decimal.Decimal `json:"preco_unitario"`
}

// CreateWorkOrderRequest is the intake payload for a new work order.
type CreateWorkOrderRequest struct {
	CustomerID     int64              `json:"cliente_id" binding:"required"`
	EquipmentType  string             `json:"tipo_equipamento" binding:"required"`
	Brand          string             `json:"marca" binding:"required"`
	Model          string             `json:"modelo" binding:"required"`
	SerialNumber   *string            `json:"numero_serie"`
	ReportedDefect string             `json:"defeito_relatado" binding:"required"`
	Priority       string             `json:"prioridade"`
	EstimatedDate  *time.Time         `json:"prazo_estimado"`
	LaborValue     decimal.Decimal    `json:"valor_mao_obra"`
	Discount       decimal.Decimal    `json:"desconto"`
	WarrantyDays   int                `json:"dias_garantia"`
	TechnicianID   *int64             `json:"tecnico_id"`
	InternalNotes  *string            `json:"observacoes_internas"`
	CustomerNotes  *string            `json:"observacoes_cliente"`
	Lines          []OrderLineRequest `json:"pecas_utilizadas" binding:"required,dive"`
}

// UpdateWorkOrderRequest is the edit payload. Lines is the full desired
// line set; the service diffs it against the stored lines.
type UpdateWorkOrderRequest struct {
	EquipmentType  string             `json:"tipo_equipamento" binding:"required"`
	Brand          string             `json:"marca" binding:"required"`
	Model          string             `json:"modelo" binding:"required"`
	SerialNumber   *string            `json:"numero_serie"`
	ReportedDefect string             `json:"defeito_relatado" binding:"required"`
	FoundDefect    *string            `json:"defeito_encontrado"`
	Status         string             `json:"status" binding:"required"`
	Priority       string             `json:"prioridade"`
	EstimatedDate  *time.Time         `json:"prazo_estimado"`
	LaborValue     decimal.Decimal    `json:"valor_mao_obra"`
	Discount       decimal.Decimal    `json:"desconto"`
	WarrantyDays   int                `json:"dias_garantia"`
	TechnicianID   *int64             `json:"tecnico_id"`
	InternalNotes  *string            `json:"observacoes_internas"`
	CustomerNotes  *string            `json:"observacoes_cliente"`
	StatusNote     *string            `json:"observacao_status"`
	Lines          []OrderLineRequest `json:"pecas_utilizadas" binding:"dive"`
}

// WorkOrderService drives the repair lifecycle: intake, line management
// with stock accounting, status milestones, financial postings and
// customer notifications.
type WorkOrderService interface {
	CreateWorkOrder(req CreateWorkOrderRequest, actingUserID int64) (*models.WorkOrder, error)
	GetWorkOrderByID(orderID int64) (*models.WorkOrder, error)
	GetWorkOrders(filters models.WorkOrderFilters) ([]models.WorkOrder, int, error)
	UpdateWorkOrder(orderID int64, req UpdateWorkOrderRequest, actingUserID int64) (*models.WorkOrder, error)
	ChangeStatus(orderID int64, newStatus string, note *string, actingUserID int64) (*models.WorkOrder, error)
	GetStatusHistory(orderID int64) ([]models.StatusHistory, error)
}

type workOrderService struct {
	orderRepo    repositories.WorkOrderRepository
	partRepo     repositories.PartRepository
	customerRepo repositories.CustomerRepository
	inventorySvc InventoryService
	financeSvc   FinanceService
	notifier     Notifier
	company      CompanyConfig
	db           repositories.TxBeginner
}

// NewWorkOrderService creates a new instance of WorkOrderService.
func NewWorkOrderService(
	or repositories.WorkOrderRepository,
	pr repositories.PartRepository,
	cr repositories.CustomerRepository,
	is InventoryService,
	fs FinanceService,
	notifier Notifier,
	company CompanyConfig,
	db *sql.DB,
) WorkOrderService {
	return &workOrderService{
		orderRepo:    or,
		partRepo:     pr,
		customerRepo: cr,
		inventorySvc: is,
		financeSvc:   fs,
		notifier:     notifier,
		company:      company,
		db:           repositories.NewTxBeginner(db),
	}
}

func isValidEquipmentType(t string) bool {
	switch t {
	case models.EquipmentTV, models.EquipmentLaptop, models.EquipmentDesktop,
		models.EquipmentMonitor, models.EquipmentPrinter, models.EquipmentOther:
		return true
	default:
		return false
	}
}

func isValidPriority(p string) bool {
	switch p {
	case models.PriorityLow, models.PriorityNormal, models.PriorityHigh, models.PriorityUrgent:
		return true
	default:
		return false
	}
}

func (s *workOrderService) CreateWorkOrder(req CreateWorkOrderRequest, actingUserID int64) (*models.WorkOrder, error) {
	if !isValidEquipmentType(req.EquipmentType) {
		return nil, fmt.Errorf("%w: unknown equipment type %q", ErrValidation, req.EquipmentType)
	}
	if req.ReportedDefect == "" {
		return nil, fmt.Errorf("%w: reported defect is required", ErrValidation)
	}
	if len(req.Lines) == 0 {
		return nil, fmt.Errorf("%w: at least one part line is required", ErrValidation)
	}
	priority := req.Priority
	if priority == "" {
		priority = models.PriorityNormal
	}
	if !isValidPriority(priority) {
		return nil, fmt.Errorf("%w: unknown priority %q", ErrValidation, priority)
	}

	customer, err := s.customerRepo.GetCustomerByID(req.CustomerID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: customer %d", ErrNotFound, req.CustomerID)
		}
		return nil, fmt.Errorf("failed to fetch customer %d: %w", req.CustomerID, err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	orderNumber, err := s.orderRepo.NextOrderNumber(tx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	order := &models.WorkOrder{
		OrderNumber:    orderNumber,
		CustomerID:     req.CustomerID,
		EquipmentType:  req.EquipmentType,
		Brand:          req.Brand,
		Model:          req.Model,
		SerialNumber:   req.SerialNumber,
		ReportedDefect: req.ReportedDefect,
		Status:         models.StatusReceived,
		Priority:       priority,
		EntryDate:      now,
		EstimatedDate:  req.EstimatedDate,
		LaborValue:     req.LaborValue,
		Discount:       req.Discount,
		WarrantyDays:   req.WarrantyDays,
		AttendantID:    actingUserID,
		TechnicianID:   req.TechnicianID,
		InternalNotes:  req.InternalNotes,
		CustomerNotes:  req.CustomerNotes,
	}

	// Price every line before the header insert so the stored totals are
	// already consistent.
	type pricedLine struct {
		usage models.PartUsage
		part  *models.Part
	}
	pricedLines := make([]pricedLine, 0, len(req.Lines))
	partsValue := decimal.Zero
	for _, line := range req.Lines {
		part, err := s.partRepo.GetPartByID(tx, line.PartID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, fmt.Errorf("%w: part %d", ErrNotFound, line.PartID)
			}
			return nil, fmt.Errorf("failed to fetch part %d: %w", line.PartID, err)
		}
		unitPrice := part.SalePrice
		if line.UnitPrice != nil {
			unitPrice = *line.UnitPrice
		}
		usage := models.PartUsage{
			PartID:    line.PartID,
			Quantity:  line.Quantity,
			UnitPrice: unitPrice,
		}
		usage.CalculateLineTotal()
		partsValue = partsValue.Add(usage.LineTotal)
		pricedLines = append(pricedLines, pricedLine{usage: usage, part: part})
	}
	order.PartsValue = partsValue
	order.CalculateTotal()

	if _, err := s.orderRepo.CreateWorkOrder(tx, order); err != nil {
		return nil, err
	}

	for i := range pricedLines {
		usage := &pricedLines[i].usage
		part := pricedLines[i].part
		usage.WorkOrderID = order.ID
		if _, err := s.orderRepo.CreatePartUsage(tx, usage); err != nil {
			return nil, err
		}
		if err := s.consumeStock(tx, order, part, usage.Quantity, actingUserID); err != nil {
			return nil, err
		}
		cost := part.LastCost.Mul(decimal.NewFromInt(int64(usage.Quantity)))
		description := fmt.Sprintf("Pecas OS %s: %s x%d", order.OrderNumber, part.Name, usage.Quantity)
		if err := s.financeSvc.PostPartUsageExpense(tx, order, description, cost, actingUserID); err != nil {
			return nil, err
		}
		order.PartUsages = append(order.PartUsages, *usage)
	}

	history := &models.StatusHistory{
		WorkOrderID: order.ID,
		NewStatus:   order.Status,
		UserID:      actingUserID,
		ChangedAt:   now,
	}
	if _, err := s.orderRepo.CreateStatusHistory(tx, history); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit work order creation: %w", err)
	}

	order.Customer = customer
	s.notifier.NotifyOrderEvent(EventEntry, order, s.company)
	return order, nil
}

func (s *workOrderService) GetWorkOrderByID(orderID int64) (*models.WorkOrder, error) {
	order, err := s.orderRepo.GetWorkOrderByID(nil, orderID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: work order %d", ErrNotFound, orderID)
		}
		return nil, fmt.Errorf("failed to fetch work order %d: %w", orderID, err)
	}
	usages, err := s.orderRepo.GetPartUsagesByOrderID(nil, orderID)
	if err != nil {
		return nil, err
	}
	order.PartUsages = usages
	return order, nil
}

func (s *workOrderService) GetWorkOrders(filters models.WorkOrderFilters) ([]models.WorkOrder, int, error) {
	return s.orderRepo.GetWorkOrders(filters)
}

func (s *workOrderService) UpdateWorkOrder(orderID int64, req UpdateWorkOrderRequest, actingUserID int64) (*models.WorkOrder, error) {
	if !isValidEquipmentType(req.EquipmentType) {
		return nil, fmt.Errorf("%w: unknown equipment type %q", ErrValidation, req.EquipmentType)
	}
	if !models.IsValidStatus(req.Status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, req.Status)
	}
	priority := req.Priority
	if priority == "" {
		priority = models.PriorityNormal
	}
	if !isValidPriority(priority) {
		return nil, fmt.Errorf("%w: unknown priority %q", ErrValidation, priority)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	order, err := s.orderRepo.GetWorkOrderByID(tx, orderID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: work order %d", ErrNotFound, orderID)
		}
		return nil, err
	}
	existingUsages, err := s.orderRepo.GetPartUsagesByOrderID(tx, orderID)
	if err != nil {
		return nil, err
	}

	finalUsages, err := s.reconcileLines(tx, order, existingUsages, req.Lines, actingUserID)
	if err != nil {
		return nil, err
	}

	previousStatus := order.Status
	order.EquipmentType = req.EquipmentType
	order.Brand = req.Brand
	order.Model = req.Model
	order.SerialNumber = req.SerialNumber
	order.ReportedDefect = req.ReportedDefect
	order.FoundDefect = req.FoundDefect
	order.Status = req.Status
	order.Priority = priority
	order.EstimatedDate = req.EstimatedDate
	order.LaborValue = req.LaborValue
	order.Discount = req.Discount
	order.WarrantyDays = req.WarrantyDays
	order.TechnicianID = req.TechnicianID
	order.InternalNotes = req.InternalNotes
	order.CustomerNotes = req.CustomerNotes

	partsValue := decimal.Zero
	for i := range finalUsages {
		partsValue = partsValue.Add(finalUsages[i].LineTotal)
	}
	order.PartsValue = partsValue
	order.CalculateTotal()

	statusChanged := previousStatus != order.Status
	if statusChanged {
		if err := s.applyStatusEffects(tx, order, actingUserID); err != nil {
			return nil, err
		}
	}

	if err := s.orderRepo.UpdateWorkOrder(tx, order); err != nil {
		return nil, err
	}

	if statusChanged {
		history := &models.StatusHistory{
			WorkOrderID:    order.ID,
			PreviousStatus: &previousStatus,
			NewStatus:      order.Status,
			UserID:         actingUserID,
			Note:           req.StatusNote,
		}
		if _, err := s.orderRepo.CreateStatusHistory(tx, history); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit work order update: %w", err)
	}

	order.PartUsages = finalUsages
	if statusChanged {
		if event := statusEvent(order.Status); event != "" {
			s.notifier.NotifyOrderEvent(event, order, s.company)
		}
	}
	return order, nil
}

// ChangeStatus moves an order to a new status without touching the rest of
// the record. Same side effects as a status change through UpdateWorkOrder.
func (s *workOrderService) ChangeStatus(orderID int64, newStatus string, note *string, actingUserID int64) (*models.WorkOrder, error) {
	if !models.IsValidStatus(newStatus) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, newStatus)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	order, err := s.orderRepo.GetWorkOrderByID(tx, orderID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: work order %d", ErrNotFound, orderID)
		}
		return nil, err
	}
	if order.Status == newStatus {
		return order, nil
	}

	previousStatus := order.Status
	order.Status = newStatus
	if err := s.applyStatusEffects(tx, order, actingUserID); err != nil {
		return nil, err
	}
	if err := s.orderRepo.UpdateWorkOrder(tx, order); err != nil {
		return nil, err
	}
	history := &models.StatusHistory{
		WorkOrderID:    order.ID,
		PreviousStatus: &previousStatus,
		NewStatus:      newStatus,
		UserID:         actingUserID,
		Note:           note,
	}
	if _, err := s.orderRepo.CreateStatusHistory(tx, history); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit status change: %w", err)
	}

	if event := statusEvent(order.Status); event != "" {
		s.notifier.NotifyOrderEvent(event, order, s.company)
	}
	return order, nil
}

// reconcileLines diffs the requested line set against the stored one and
// applies the matching stock movements: removed or shrunk lines restore
// stock, added or grown lines consume it. Frozen unit prices survive.
func (s *workOrderService) reconcileLines(
	tx repositories.SQLExecutor,
	order *models.WorkOrder,
	existing []models.PartUsage,
	requested []OrderLineRequest,
	actingUserID int64,
) ([]models.PartUsage, error) {
	existingByID := make(map[int64]*models.PartUsage, len(existing))
	for i := range existing {
		existingByID[existing[i].ID] = &existing[i]
	}

	final := make([]models.PartUsage, 0, len(requested))
	seen := make(map[int64]bool, len(requested))

	for _, line := range requested {
		if line.ID != nil {
			current, ok := existingByID[*line.ID]
			if !ok || current.WorkOrderID != order.ID {
				return nil, fmt.Errorf("%w: part usage %d does not belong to order %s", ErrValidation, *line.ID, order.OrderNumber)
			}
			seen[*line.ID] = true

			delta := line.Quantity - current.Quantity
			if delta != 0 {
				part, err := s.partRepo.GetPartByID(tx, current.PartID)
				if err != nil {
					return nil, fmt.Errorf("failed to fetch part %d: %w", current.PartID, err)
				}
				if delta > 0 {
					if err := s.consumeStock(tx, order, part, delta, actingUserID); err != nil {
						return nil, err
					}
				} else {
					if err := s.restoreStock(tx, order, part, -delta, actingUserID); err != nil {
						return nil, err
					}
				}
				current.Quantity = line.Quantity
				current.CalculateLineTotal()
				if err := s.orderRepo.UpdatePartUsage(tx, current); err != nil {
					return nil, err
				}
			}
			final = append(final, *current)
			continue
		}

		part, err := s.partRepo.GetPartByID(tx, line.PartID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, fmt.Errorf("%w: part %d", ErrNotFound, line.PartID)
			}
			return nil, fmt.Errorf("failed to fetch part %d: %w", line.PartID, err)
		}
		unitPrice := part.SalePrice
		if line.UnitPrice != nil {
			unitPrice = *line.UnitPrice
		}
		usage := models.PartUsage{
			WorkOrderID: order.ID,
			PartID:      line.PartID,
			Quantity:    line.Quantity,
			UnitPrice:   unitPrice,
		}
		usage.CalculateLineTotal()
		if _, err := s.orderRepo.CreatePartUsage(tx, &usage); err != nil {
			return nil, err
		}
		if err := s.consumeStock(tx, order, part, usage.Quantity, actingUserID); err != nil {
			return nil, err
		}
		cost := part.LastCost.Mul(decimal.NewFromInt(int64(usage.Quantity)))
		description := fmt.Sprintf("Pecas OS %s: %s x%d", order.OrderNumber, part.Name, usage.Quantity)
		if err := s.financeSvc.PostPartUsageExpense(tx, order, description, cost, actingUserID); err != nil {
			return nil, err
		}
		final = append(final, usage)
	}

	for i := range existing {
		if seen[existing[i].ID] {
			continue
		}
		part, err := s.partRepo.GetPartByID(tx, existing[i].PartID)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch part %d: %w", existing[i].PartID, err)
		}
		if err := s.restoreStock(tx, order, part, existing[i].Quantity, actingUserID); err != nil {
			return nil, err
		}
		if err := s.orderRepo.DeletePartUsage(tx, existing[i].ID); err != nil {
			return nil, err
		}
	}
	return final, nil
}

// consumeStock books an outbound movement for an order line, recording the
// part's sale price on the ledger entry.
func (s *workOrderService) consumeStock(tx repositories.SQLExecutor, order *models.WorkOrder, part *models.Part, quantity int, userID int64) error {
	note := fmt.Sprintf("Uso na OS %s", order.OrderNumber)
	movement := &models.StockMovement{
		PartID:      part.ID,
		Kind:        models.MovementOut,
		Quantity:    quantity,
		UnitValue:   part.SalePrice,
		WorkOrderID: &order.ID,
		Notes:       &note,
		UserID:      userID,
	}
	return s.inventorySvc.ApplyMovement(tx, movement)
}

// restoreStock returns quantity units of a part to stock with unit value
// zero, so the part's cost basis is untouched.
func (s *workOrderService) restoreStock(tx repositories.SQLExecutor, order *models.WorkOrder, part *models.Part, quantity int, userID int64) error {
	note := fmt.Sprintf("Estorno da OS %s", order.OrderNumber)
	movement := &models.StockMovement{
		PartID:      part.ID,
		Kind:        models.MovementIn,
		Quantity:    quantity,
		WorkOrderID: &order.ID,
		Notes:       &note,
		UserID:      userID,
	}
	return s.inventorySvc.ApplyMovement(tx, movement)
}

// applyStatusEffects sets first-occurrence milestone timestamps and runs
// the financial side effects keyed on the target status. Timestamps set by
// an earlier pass through the same status are never rewritten.
func (s *workOrderService) applyStatusEffects(tx repositories.SQLExecutor, order *models.WorkOrder, actingUserID int64) error {
	now := time.Now()
	switch order.Status {
	case models.StatusEvaluating:
		if order.EvaluationDate == nil {
			order.EvaluationDate = &now
		}
	case models.StatusApproved:
		if order.ApprovalDate == nil {
			order.ApprovalDate = &now
		}
	case models.StatusDone:
		if order.CompletionDate == nil {
			order.CompletionDate = &now
		}
	case models.StatusDelivered:
		if order.DeliveryDate == nil {
			order.DeliveryDate = &now
			if order.WarrantyDays > 0 && order.WarrantyEndDate == nil {
				end := order.WarrantyEnd(now)
				order.WarrantyEndDate = &end
			}
		}
		if err := s.financeSvc.PostDeliveryRevenue(tx, order, actingUserID); err != nil {
			return err
		}
	}
	return nil
}

// statusEvent maps a target status to its notification event. Statuses
// without a customer-facing event return empty.
func statusEvent(status string) string {
	switch status {
	case models.StatusAwaitingApproval:
		return EventEvaluation
	case models.StatusApproved:
		return EventApproval
	case models.StatusDone:
		return EventCompletion
	case models.StatusDelivered:
		return EventDelivery
	default:
		return ""
	}
}

func (s *workOrderService) GetStatusHistory(orderID int64) ([]models.StatusHistory, error) {
	if _, err := s.orderRepo.GetWorkOrderByID(nil, orderID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: work order %d", ErrNotFound, orderID)
		}
		return nil, err
	}
	return s.orderRepo.GetStatusHistoryByOrderID(orderID)
}
