package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Stock movement kinds. An "ajuste" is recorded as a signed delta, so the
// derived quantity of a part is always a plain sum over its movement
// history.
const (
	MovementIn         = "entrada"
	MovementOut        = "saida"
	MovementAdjustment = "ajuste"
)

// PartCategory groups parts. Deletion is rejected while parts reference it.
type PartCategory struct {
	ID          int64     `json:"id" db:"id"`
	Name        string    `json:"nome" db:"name" binding:"required"`
	Description *string   `json:"descricao,omitempty" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Part is a catalog entry for a stocked component. The current quantity is
// never stored: it is derived from the part's stock movements. LastCost is
// rewritten by inbound movements carrying a positive unit value
// (last write wins), and SalePrice follows the margin formula on every save.
type Part struct {
	ID           int64           `json:"id" db:"id"`
	InternalCode string          `json:"codigo_interno" db:"internal_code" binding:"required"`
	Name         string          `json:"nome" db:"name" binding:"required"`
	Description  *string         `json:"descricao,omitempty" db:"description"`
	CategoryID   int64           `json:"categoria_id" db:"category_id" binding:"required"`
	MinimumStock int             `json:"estoque_minimo" db:"minimum_stock"`
	Location     *string         `json:"localizacao,omitempty" db:"location"`
	LastCost     decimal.Decimal `json:"preco_custo" db:"last_cost"`
	SalePrice    decimal.Decimal `json:"preco_venda" db:"sale_price"`
	MarginPct    decimal.Decimal `json:"margem_lucro" db:"margin_pct"`
	SupplierID   *int64          `json:"fornecedor_id,omitempty" db:"supplier_id"`
	Notes        *string         `json:"observacoes,omitempty" db:"notes"`
	Active       bool            `json:"ativo" db:"active"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at" db:"updated_at"`

	Category *PartCategory `json:"categoria,omitempty"`
	Supplier *Supplier     `json:"fornecedor,omitempty"`

	// CurrentStock is the derived quantity, populated on reads. It is not
	// a column.
	CurrentStock *int `json:"quantidade_estoque,omitempty"`

	// RecentMovements is populated on the detail read only.
	RecentMovements []StockMovement `json:"movimentacoes_recentes,omitempty"`
}

// ApplySalePrice recomputes SalePrice from LastCost and MarginPct. Parts
// without a positive cost or margin keep whatever price was set manually.
func (p *Part) ApplySalePrice() {
	if p.LastCost.IsPositive() && p.MarginPct.IsPositive() {
		factor := decimal.NewFromInt(1).Add(p.MarginPct.Div(decimal.NewFromInt(100)))
		p.SalePrice = p.LastCost.Mul(factor).Round(2)
	}
}

// IsLowStock reports whether the derived quantity is at or below the
// configured minimum.
func (p *Part) IsLowStock(current int) bool {
	return current <= p.MinimumStock
}

// StockMovement is one immutable inventory event against a part. Quantity
// is positive for entrada/saida; for ajuste it is a signed delta.
type StockMovement struct {
	ID           int64            `json:"id" db:"id"`
	PartID       int64            `json:"peca_id" db:"part_id" binding:"required"`
	Kind         string           `json:"tipo" db:"kind" binding:"required"`
	Quantity     int              `json:"quantidade" db:"quantity" binding:"required"`
	UnitValue    decimal.Decimal  `json:"valor_unitario" db:"unit_value"`
	WorkOrderID  *int64           `json:"ordem_servico_id,omitempty" db:"work_order_id"`
	SupplierID   *int64           `json:"fornecedor_id,omitempty" db:"supplier_id"`
	InvoiceRef   *string          `json:"nota_fiscal,omitempty" db:"invoice_ref"`
	Notes        *string          `json:"observacoes,omitempty" db:"notes"`
	UserID       int64            `json:"usuario_id" db:"user_id"`
	MovementDate time.Time        `json:"data_movimentacao" db:"movement_date"`
	CreatedAt    time.Time        `json:"created_at" db:"created_at"`

	Part *Part `json:"peca,omitempty"`
	User *User `json:"usuario,omitempty"`
}

// SignedQuantity is the movement's contribution to the derived stock.
func (m *StockMovement) SignedQuantity() int {
	if m.Kind == MovementOut {
		return -m.Quantity
	}
	return m.Quantity
}

// PartFilters narrows part listings.
type PartFilters struct {
	Search       *string
	CategoryID   *int64
	LowStockOnly bool
	ActiveOnly   bool
	Page         int
	PageSize     int
}

// MovementFilters narrows stock movement listings.
type MovementFilters struct {
	PartID      *int64
	Kind        *string
	WorkOrderID *int64
	Page        int
	PageSize    int
}
