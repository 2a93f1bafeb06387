package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"repairshop_backend/internal/models"
	"repairshop_backend/internal/repositories"
	"repairshop_backend/pkg/utils"
)

// Category names the posting methods create on first use.
const (
	CategoryStockPurchase = "Compra de Pecas"
	CategoryPartsCost     = "Pecas e Componentes"
	CategoryRepairRevenue = "Servicos Prestados"
)

// MarkPaidRequest settles a pending transaction.
type MarkPaidRequest struct {
	PaidDate *time.Time `json:"data_pagamento"`
	Method   string     `json:"forma_pagamento" binding:"required"`
}

// FinanceService owns categories, the transaction ledger and accounts, and
// exposes the idempotent posting methods other services call inside their
// own transactions.
type FinanceService interface {
	CreateCategory(category *models.FinancialCategory) error
	GetCategoryByID(categoryID int64) (*models.FinancialCategory, error)
	GetCategories(activeOnly bool) ([]models.FinancialCategory, error)
	UpdateCategory(category *models.FinancialCategory) error
	DeleteCategory(categoryID int64) error

	CreateTransaction(transaction *models.Transaction) error
	GetTransactionByID(transactionID int64) (*models.Transaction, error)
	GetTransactions(filters models.TransactionFilters) ([]models.Transaction, int, error)
	UpdateTransaction(transaction *models.Transaction) error
	MarkTransactionPaid(transactionID int64, req MarkPaidRequest) (*models.Transaction, error)
	CancelTransaction(transactionID int64) error

	GetSummary(month time.Time) (*models.FinanceSummary, error)

	CreateAccount(account *models.FinancialAccount) error
	GetAccounts() ([]models.FinancialAccount, error)
	GetAccountByID(accountID int64) (*models.FinancialAccount, error)
	UpdateAccount(account *models.FinancialAccount) error
	DeleteAccount(accountID int64) error

	// Posting methods run inside the caller's transaction.
	PostStockEntryExpense(tx repositories.SQLExecutor, description string, amount decimal.Decimal, supplierID *int64, dueDate *time.Time, userID int64) error
	PostPartUsageExpense(tx repositories.SQLExecutor, order *models.WorkOrder, description string, amount decimal.Decimal, userID int64) error
	PostDeliveryRevenue(tx repositories.SQLExecutor, order *models.WorkOrder, userID int64) error
}

type financeService struct {
	financeRepo repositories.FinanceRepository
}

// NewFinanceService creates a new instance of FinanceService.
func NewFinanceService(fr repositories.FinanceRepository) FinanceService {
	return &financeService{financeRepo: fr}
}

// --- Categories ---

func (s *financeService) CreateCategory(category *models.FinancialCategory) error {
	if category.Name == "" {
		return fmt.Errorf("%w: category name is required", ErrValidation)
	}
	if !models.IsValidCategoryKind(category.Kind) {
		return fmt.Errorf("%w: unknown category kind %q", ErrValidation, category.Kind)
	}
	if _, err := s.financeRepo.CreateCategory(nil, category); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return fmt.Errorf("%w: category %q (%s) already exists", ErrConflict, category.Name, category.Kind)
		}
		return fmt.Errorf("failed to create financial category: %w", err)
	}
	return nil
}

func (s *financeService) GetCategoryByID(categoryID int64) (*models.FinancialCategory, error) {
	category, err := s.financeRepo.GetCategoryByID(categoryID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: financial category %d", ErrNotFound, categoryID)
		}
		return nil, fmt.Errorf("failed to fetch financial category %d: %w", categoryID, err)
	}
	return category, nil
}

func (s *financeService) GetCategories(activeOnly bool) ([]models.FinancialCategory, error) {
	return s.financeRepo.GetCategories(activeOnly)
}

func (s *financeService) UpdateCategory(category *models.FinancialCategory) error {
	if !models.IsValidCategoryKind(category.Kind) {
		return fmt.Errorf("%w: unknown category kind %q", ErrValidation, category.Kind)
	}
	if err := s.financeRepo.UpdateCategory(nil, category); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("%w: financial category %d", ErrNotFound, category.ID)
		}
		return fmt.Errorf("failed to update financial category %d: %w", category.ID, err)
	}
	return nil
}

func (s *financeService) DeleteCategory(categoryID int64) error {
	if err := s.financeRepo.DeleteCategory(nil, categoryID); err != nil {
		if errors.Is(err, repositories.ErrForeignKeyViolation) {
			return fmt.Errorf("%w: category %d still has transactions", ErrInUse, categoryID)
		}
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("%w: financial category %d", ErrNotFound, categoryID)
		}
		return fmt.Errorf("failed to delete financial category %d: %w", categoryID, err)
	}
	return nil
}

// --- Transactions ---

func validateTransaction(t *models.Transaction) error {
	if !models.IsValidCategoryKind(t.Kind) {
		return fmt.Errorf("%w: unknown transaction kind %q", ErrValidation, t.Kind)
	}
	if t.Description == "" {
		return fmt.Errorf("%w: description is required", ErrValidation)
	}
	if !t.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	if t.DueDate.IsZero() {
		return fmt.Errorf("%w: due date is required", ErrValidation)
	}
	return nil
}

func (s *financeService) CreateTransaction(transaction *models.Transaction) error {
	if err := validateTransaction(transaction); err != nil {
		return err
	}
	if transaction.Status == "" {
		transaction.Status = models.TransactionPending
	}
	if transaction.Status == models.TransactionPaid && transaction.PaidDate == nil {
		now := time.Now()
		transaction.PaidDate = &now
	}
	if _, err := s.financeRepo.CreateTransaction(nil, transaction); err != nil {
		if errors.Is(err, repositories.ErrForeignKeyViolation) {
			return fmt.Errorf("%w: category, order or supplier does not exist", ErrValidation)
		}
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

func (s *financeService) GetTransactionByID(transactionID int64) (*models.Transaction, error) {
	transaction, err := s.financeRepo.GetTransactionByID(transactionID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: transaction %d", ErrNotFound, transactionID)
		}
		return nil, fmt.Errorf("failed to fetch transaction %d: %w", transactionID, err)
	}
	return transaction, nil
}

func (s *financeService) GetTransactions(filters models.TransactionFilters) ([]models.Transaction, int, error) {
	return s.financeRepo.GetTransactions(filters)
}

func (s *financeService) UpdateTransaction(transaction *models.Transaction) error {
	if err := validateTransaction(transaction); err != nil {
		return err
	}
	if err := s.financeRepo.UpdateTransaction(nil, transaction); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("%w: transaction %d", ErrNotFound, transaction.ID)
		}
		return fmt.Errorf("failed to update transaction %d: %w", transaction.ID, err)
	}
	return nil
}

func (s *financeService) MarkTransactionPaid(transactionID int64, req MarkPaidRequest) (*models.Transaction, error) {
	transaction, err := s.GetTransactionByID(transactionID)
	if err != nil {
		return nil, err
	}
	if transaction.Status == models.TransactionCancelled {
		return nil, fmt.Errorf("%w: transaction %d is cancelled", ErrConflict, transactionID)
	}
	paidDate := time.Now()
	if req.PaidDate != nil {
		paidDate = *req.PaidDate
	}
	transaction.Status = models.TransactionPaid
	transaction.PaidDate = &paidDate
	transaction.Method = &req.Method
	if err := s.financeRepo.UpdateTransaction(nil, transaction); err != nil {
		return nil, fmt.Errorf("failed to settle transaction %d: %w", transactionID, err)
	}
	return transaction, nil
}

func (s *financeService) CancelTransaction(transactionID int64) error {
	transaction, err := s.GetTransactionByID(transactionID)
	if err != nil {
		return err
	}
	if transaction.Status == models.TransactionPaid {
		return fmt.Errorf("%w: paid transaction %d cannot be cancelled", ErrConflict, transactionID)
	}
	transaction.Status = models.TransactionCancelled
	if err := s.financeRepo.UpdateTransaction(nil, transaction); err != nil {
		return fmt.Errorf("failed to cancel transaction %d: %w", transactionID, err)
	}
	return nil
}

// --- Summary ---

func (s *financeService) GetSummary(month time.Time) (*models.FinanceSummary, error) {
	monthStart := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, month.Location())
	monthEnd := monthStart.AddDate(0, 1, 0)

	revenue, err := s.financeRepo.SumByKindAndStatus(models.KindRevenue, models.TransactionPaid, &monthStart, &monthEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to sum month revenue: %w", err)
	}
	expense, err := s.financeRepo.SumByKindAndStatus(models.KindExpense, models.TransactionPaid, &monthStart, &monthEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to sum month expense: %w", err)
	}
	receivable, err := s.financeRepo.SumByKindAndStatus(models.KindRevenue, models.TransactionPending, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to sum receivables: %w", err)
	}
	payable, err := s.financeRepo.SumByKindAndStatus(models.KindExpense, models.TransactionPending, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to sum payables: %w", err)
	}
	overdue, err := s.financeRepo.CountOverduePending(time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to count overdue transactions: %w", err)
	}

	return &models.FinanceSummary{
		MonthRevenue: revenue,
		MonthExpense: expense,
		MonthProfit:  revenue.Sub(expense),
		Receivable:   receivable,
		Payable:      payable,
		OverdueCount: overdue,
	}, nil
}

// --- Accounts ---

func (s *financeService) CreateAccount(account *models.FinancialAccount) error {
	if account.Name == "" || account.Bank == "" {
		return fmt.Errorf("%w: account name and bank are required", ErrValidation)
	}
	if _, err := s.financeRepo.CreateAccount(nil, account); err != nil {
		return fmt.Errorf("failed to create financial account: %w", err)
	}
	return nil
}

func (s *financeService) GetAccounts() ([]models.FinancialAccount, error) {
	accounts, err := s.financeRepo.GetAccounts()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch financial accounts: %w", err)
	}

	// Derived balance: initial balance plus the net of settled postings.
	revenue, err := s.financeRepo.SumByKindAndStatus(models.KindRevenue, models.TransactionPaid, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to sum paid revenue: %w", err)
	}
	expense, err := s.financeRepo.SumByKindAndStatus(models.KindExpense, models.TransactionPaid, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to sum paid expense: %w", err)
	}
	net := revenue.Sub(expense)
	for i := range accounts {
		balance := accounts[i].InitialBalance.Add(net)
		accounts[i].CurrentBalance = &balance
	}
	return accounts, nil
}

func (s *financeService) GetAccountByID(accountID int64) (*models.FinancialAccount, error) {
	account, err := s.financeRepo.GetAccountByID(accountID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: financial account %d", ErrNotFound, accountID)
		}
		return nil, fmt.Errorf("failed to fetch financial account %d: %w", accountID, err)
	}

	revenue, err := s.financeRepo.SumByKindAndStatus(models.KindRevenue, models.TransactionPaid, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to sum paid revenue: %w", err)
	}
	expense, err := s.financeRepo.SumByKindAndStatus(models.KindExpense, models.TransactionPaid, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to sum paid expense: %w", err)
	}
	balance := account.InitialBalance.Add(revenue.Sub(expense))
	account.CurrentBalance = &balance
	return account, nil
}

func (s *financeService) UpdateAccount(account *models.FinancialAccount) error {
	if err := s.financeRepo.UpdateAccount(nil, account); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("%w: financial account %d", ErrNotFound, account.ID)
		}
		return fmt.Errorf("failed to update financial account %d: %w", account.ID, err)
	}
	return nil
}

func (s *financeService) DeleteAccount(accountID int64) error {
	if err := s.financeRepo.DeleteAccount(nil, accountID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("%w: financial account %d", ErrNotFound, accountID)
		}
		return fmt.Errorf("failed to delete financial account %d: %w", accountID, err)
	}
	return nil
}

// --- Postings ---

func (s *financeService) PostStockEntryExpense(tx repositories.SQLExecutor, description string, amount decimal.Decimal, supplierID *int64, dueDate *time.Time, userID int64) error {
	category, err := s.financeRepo.GetOrCreateCategory(tx, CategoryStockPurchase, models.KindExpense, models.FinancialCategory{
		Color:  "#dc3545",
		Active: true,
	})
	if err != nil {
		return fmt.Errorf("failed to resolve stock purchase category: %w", err)
	}

	now := time.Now()
	transaction := &models.Transaction{
		Kind:        models.KindExpense,
		CategoryID:  category.ID,
		Description: description,
		Amount:      amount,
		DueDate:     now,
		Status:      models.TransactionPaid,
		PaidDate:    &now,
		SupplierID:  supplierID,
		UserID:      userID,
	}
	// A future due date turns the posting into a payable.
	if dueDate != nil && dueDate.After(now) {
		transaction.DueDate = *dueDate
		transaction.Status = models.TransactionPending
		transaction.PaidDate = nil
	}
	if _, err := s.financeRepo.CreateTransaction(tx, transaction); err != nil {
		return fmt.Errorf("failed to post stock entry expense: %w", err)
	}
	return nil
}

func (s *financeService) PostPartUsageExpense(tx repositories.SQLExecutor, order *models.WorkOrder, description string, amount decimal.Decimal, userID int64) error {
	if !amount.IsPositive() {
		return nil
	}
	category, err := s.financeRepo.GetOrCreateCategory(tx, CategoryPartsCost, models.KindExpense, models.FinancialCategory{
		Color:  "#fd7e14",
		Active: true,
	})
	if err != nil {
		return fmt.Errorf("failed to resolve parts cost category: %w", err)
	}

	now := time.Now()
	transaction := &models.Transaction{
		Kind:        models.KindExpense,
		CategoryID:  category.ID,
		Description: description,
		Amount:      amount,
		DueDate:     now,
		Status:      models.TransactionPaid,
		PaidDate:    &now,
		WorkOrderID: &order.ID,
		UserID:      userID,
	}
	if _, err := s.financeRepo.CreateTransaction(tx, transaction); err != nil {
		return fmt.Errorf("failed to post part usage expense: %w", err)
	}
	return nil
}

func (s *financeService) PostDeliveryRevenue(tx repositories.SQLExecutor, order *models.WorkOrder, userID int64) error {
	exists, err := s.financeRepo.ExistsRevenueForWorkOrder(tx, order.ID)
	if err != nil {
		return fmt.Errorf("failed to check prior revenue of order %s: %w", order.OrderNumber, err)
	}
	if exists {
		utils.LogInfo(fmt.Sprintf("revenue for order %s already posted, skipping", order.OrderNumber))
		return nil
	}
	if !order.TotalValue.IsPositive() {
		return nil
	}

	category, err := s.financeRepo.GetOrCreateCategory(tx, CategoryRepairRevenue, models.KindRevenue, models.FinancialCategory{
		Color:  "#28a745",
		Active: true,
	})
	if err != nil {
		return fmt.Errorf("failed to resolve repair revenue category: %w", err)
	}

	// Dated to the delivery itself, which can pre-date a posting retried
	// on a later save.
	postDate := time.Now()
	if order.DeliveryDate != nil {
		postDate = *order.DeliveryDate
	}
	transaction := &models.Transaction{
		Kind:        models.KindRevenue,
		CategoryID:  category.ID,
		Description: fmt.Sprintf("Servico OS %s", order.OrderNumber),
		Amount:      order.TotalValue,
		DueDate:     postDate,
		Status:      models.TransactionPaid,
		PaidDate:    &postDate,
		WorkOrderID: &order.ID,
		UserID:      userID,
	}
	if _, err := s.financeRepo.CreateTransaction(tx, transaction); err != nil {
		return fmt.Errorf("failed to post delivery revenue for order %s: %w", order.OrderNumber, err)
	}
	return nil
}
