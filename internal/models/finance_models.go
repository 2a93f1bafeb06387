package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction kinds.
const (
	KindRevenue = "receita"
	KindExpense = "despesa"
)

// Transaction statuses.
const (
	TransactionPending   = "pendente"
	TransactionPaid      = "pago"
	TransactionCancelled = "cancelado"
)

// Payment methods.
const (
	PaymentCash         = "dinheiro"
	PaymentPix          = "pix"
	PaymentDebitCard    = "cartao_debito"
	PaymentCreditCard   = "cartao_credito"
	PaymentBankTransfer = "transferencia"
	PaymentBoleto       = "boleto"
	PaymentOther        = "outros"
)

// FinancialCategory is a named revenue/expense bucket. (Name, Kind) is
// unique; the posting service creates missing categories on first use.
type FinancialCategory struct {
	ID          int64     `json:"id" db:"id"`
	Name        string    `json:"nome" db:"name" binding:"required"`
	Kind        string    `json:"tipo" db:"kind" binding:"required"`
	Description *string   `json:"descricao,omitempty" db:"description"`
	Color       string    `json:"cor" db:"color"`
	Active      bool      `json:"ativo" db:"active"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// IsValidCategoryKind reports whether k is receita or despesa.
func IsValidCategoryKind(k string) bool {
	return k == KindRevenue || k == KindExpense
}

// Transaction is one ledger posting.
type Transaction struct {
	ID          int64           `json:"id" db:"id"`
	Kind        string          `json:"tipo" db:"kind" binding:"required"`
	CategoryID  int64           `json:"categoria_id" db:"category_id" binding:"required"`
	Description string          `json:"descricao" db:"description" binding:"required"`
	Amount      decimal.Decimal `json:"valor" db:"amount" binding:"required"`
	DueDate     time.Time       `json:"data_vencimento" db:"due_date"`
	PaidDate    *time.Time      `json:"data_pagamento,omitempty" db:"paid_date"`
	Status      string          `json:"status" db:"status"`
	Method      *string         `json:"forma_pagamento,omitempty" db:"method"`
	WorkOrderID *int64          `json:"ordem_servico_id,omitempty" db:"work_order_id"`
	SupplierID  *int64          `json:"fornecedor_id,omitempty" db:"supplier_id"`
	Notes       *string         `json:"observacoes,omitempty" db:"notes"`
	UserID      int64           `json:"usuario_id" db:"user_id"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`

	Category *FinancialCategory `json:"categoria,omitempty"`
}

// IsOverdueAt reports whether the transaction is pending and its due date
// fell before the given day. Derived, never persisted.
func (t *Transaction) IsOverdueAt(now time.Time) bool {
	if t.Status != TransactionPending {
		return false
	}
	due := t.DueDate.Truncate(24 * time.Hour)
	return due.Before(now.Truncate(24 * time.Hour))
}

// IsOverdue is IsOverdueAt against the current clock.
func (t *Transaction) IsOverdue() bool {
	return t.IsOverdueAt(time.Now())
}

// FinancialAccount is a bank account. The balance is derived: initial
// balance plus paid revenue minus paid expense.
type FinancialAccount struct {
	ID             int64           `json:"id" db:"id"`
	Name           string          `json:"nome" db:"name" binding:"required"`
	Bank           string          `json:"banco" db:"bank" binding:"required"`
	Agency         *string         `json:"agencia,omitempty" db:"agency"`
	AccountNumber  *string         `json:"conta,omitempty" db:"account_number"`
	InitialBalance decimal.Decimal `json:"saldo_inicial" db:"initial_balance"`
	Active         bool            `json:"ativo" db:"active"`
	Notes          *string         `json:"observacoes,omitempty" db:"notes"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`

	// CurrentBalance is derived on reads, not a column.
	CurrentBalance *decimal.Decimal `json:"saldo_atual,omitempty"`
}

// TransactionFilters narrows transaction listings.
type TransactionFilters struct {
	Kind        *string
	Status      *string
	CategoryID  *int64
	WorkOrderID *int64
	Month       *string // YYYY-MM
	Page        int
	PageSize    int
}

// FinanceSummary aggregates the month's numbers for the finance dashboard.
type FinanceSummary struct {
	MonthRevenue   decimal.Decimal `json:"receitas_mes"`
	MonthExpense   decimal.Decimal `json:"despesas_mes"`
	MonthProfit    decimal.Decimal `json:"lucro_mes"`
	Receivable     decimal.Decimal `json:"a_receber"`
	Payable        decimal.Decimal `json:"a_pagar"`
	OverdueCount   int             `json:"contas_vencidas"`
}
