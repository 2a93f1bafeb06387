package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Work order statuses. Transitions are not restricted to a strict graph:
// the edit form may move an order to any status, and side effects are
// dispatched on the target status.
const (
	StatusReceived         = "recepcao"
	StatusEvaluating       = "avaliacao"
	StatusAwaitingApproval = "aguardando_aprovacao"
	StatusApproved         = "aprovado"
	StatusInRepair         = "em_reparo"
	StatusDone             = "concluido"
	StatusDelivered        = "entregue"
	StatusCancelled        = "cancelado"
)

// Equipment types accepted on a work order.
const (
	EquipmentTV      = "tv"
	EquipmentLaptop  = "notebook"
	EquipmentDesktop = "desktop"
	EquipmentMonitor = "monitor"
	EquipmentPrinter = "impressora"
	EquipmentOther   = "outro"
)

// Work order priorities.
const (
	PriorityLow    = "baixa"
	PriorityNormal = "normal"
	PriorityHigh   = "alta"
	PriorityUrgent = "urgente"
)

// WorkOrder is the aggregate root for a repair job. TotalValue and
// PartsValue are derived caches: PartsValue is the sum of the line totals
// of the attached PartUsage rows and TotalValue is recomputed via
// CalculateTotal on every persist.
type WorkOrder struct {
	ID          int64  `json:"id" db:"id"`
	OrderNumber string `json:"numero_os" db:"order_number"`
	CustomerID  int64  `json:"cliente_id" db:"customer_id" binding:"required"`

	EquipmentType string  `json:"tipo_equipamento" db:"equipment_type" binding:"required"`
	Brand         string  `json:"marca" db:"brand" binding:"required"`
	Model         string  `json:"modelo" db:"model" binding:"required"`
	SerialNumber  *string `json:"numero_serie,omitempty" db:"serial_number"`

	ReportedDefect string  `json:"defeito_relatado" db:"reported_defect" binding:"required"`
	FoundDefect    *string `json:"defeito_encontrado,omitempty" db:"found_defect"`

	Status   string `json:"status" db:"status"`
	Priority string `json:"prioridade" db:"priority"`

	EntryDate      time.Time  `json:"data_entrada" db:"entry_date"`
	EvaluationDate *time.Time `json:"data_avaliacao,omitempty" db:"evaluation_date"`
	ApprovalDate   *time.Time `json:"data_aprovacao,omitempty" db:"approval_date"`
	EstimatedDate  *time.Time `json:"prazo_estimado,omitempty" db:"estimated_date"`
	CompletionDate *time.Time `json:"data_conclusao,omitempty" db:"completion_date"`
	DeliveryDate   *time.Time `json:"data_entrega,omitempty" db:"delivery_date"`

	LaborValue decimal.Decimal `json:"valor_mao_obra" db:"labor_value"`
	PartsValue decimal.Decimal `json:"valor_pecas" db:"parts_value"`
	Discount   decimal.Decimal `json:"desconto" db:"discount"`
	TotalValue decimal.Decimal `json:"valor_total" db:"total_value"`

	WarrantyDays    int        `json:"dias_garantia" db:"warranty_days"`
	WarrantyEndDate *time.Time `json:"data_fim_garantia,omitempty" db:"warranty_end_date"`

	AttendantID  int64  `json:"atendente_id" db:"attendant_id"`
	TechnicianID *int64 `json:"tecnico_id,omitempty" db:"technician_id"`

	InternalNotes *string `json:"observacoes_internas,omitempty" db:"internal_notes"`
	CustomerNotes *string `json:"observacoes_cliente,omitempty" db:"customer_notes"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	Customer   *Customer   `json:"cliente,omitempty"`
	Technician *User       `json:"tecnico,omitempty"`
	PartUsages []PartUsage `json:"pecas_utilizadas,omitempty"`
}

// CalculateTotal recomputes TotalValue from labor, parts and discount and
// returns the new value.
func (o *WorkOrder) CalculateTotal() decimal.Decimal {
	o.TotalValue = o.LaborValue.Add(o.PartsValue).Sub(o.Discount)
	return o.TotalValue
}

// IsTerminal reports whether the order reached a final status.
func (o *WorkOrder) IsTerminal() bool {
	return o.Status == StatusDelivered || o.Status == StatusCancelled
}

// IsOverdueAt reports whether the order has an estimated date, is still
// open and the given day is past that date.
func (o *WorkOrder) IsOverdueAt(now time.Time) bool {
	if o.EstimatedDate == nil || o.IsTerminal() {
		return false
	}
	deadline := o.EstimatedDate.Truncate(24 * time.Hour)
	return now.Truncate(24 * time.Hour).After(deadline)
}

// IsOverdue is IsOverdueAt against the current clock.
func (o *WorkOrder) IsOverdue() bool {
	return o.IsOverdueAt(time.Now())
}

// WarrantyEnd computes the warranty end date from a delivery timestamp.
func (o *WorkOrder) WarrantyEnd(delivered time.Time) time.Time {
	return delivered.AddDate(0, 0, o.WarrantyDays)
}

// IsValidStatus reports whether s is one of the known work order statuses.
func IsValidStatus(s string) bool {
	switch s {
	case StatusReceived, StatusEvaluating, StatusAwaitingApproval, StatusApproved,
		StatusInRepair, StatusDone, StatusDelivered, StatusCancelled:
		return true
	default:
		return false
	}
}

// PartUsage is one part consumed by a work order. UnitPrice is a snapshot
// taken when the line is created; later catalog price changes never touch
// historical orders.
type PartUsage struct {
	ID          int64           `json:"id" db:"id"`
	WorkOrderID int64           `json:"ordem_servico_id" db:"work_order_id"`
	PartID      int64           `json:"peca_id" db:"part_id" binding:"required"`
	Quantity    int             `json:"quantidade" db:"quantity" binding:"required,gt=0"`
	UnitPrice   decimal.Decimal `json:"preco_unitario" db:"unit_price"`
	LineTotal   decimal.Decimal `json:"valor_total" db:"line_total"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`

	Part *Part `json:"peca,omitempty"`
}

// CalculateLineTotal recomputes LineTotal as quantity times the frozen
// unit price and returns the new value.
func (u *PartUsage) CalculateLineTotal() decimal.Decimal {
	u.LineTotal = u.UnitPrice.Mul(decimal.NewFromInt(int64(u.Quantity)))
	return u.LineTotal
}

// StatusHistory is an append-only audit row recording one observed status
// transition. Rows are never updated or deleted by the application.
type StatusHistory struct {
	ID             int64     `json:"id" db:"id"`
	WorkOrderID    int64     `json:"ordem_servico_id" db:"work_order_id"`
	PreviousStatus *string   `json:"status_anterior,omitempty" db:"previous_status"`
	NewStatus      string    `json:"status_novo" db:"new_status"`
	UserID         int64     `json:"usuario_id" db:"user_id"`
	ChangedAt      time.Time `json:"data_alteracao" db:"changed_at"`
	Note           *string   `json:"observacao,omitempty" db:"note"`
}

// WorkOrderFilters narrows work order listings.
type WorkOrderFilters struct {
	Status       *string
	CustomerID   *int64
	TechnicianID *int64
	Search       *string
	OverdueOnly  bool
	Page         int
	PageSize     int
}
