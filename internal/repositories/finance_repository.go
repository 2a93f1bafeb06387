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

// FinanceRepository defines the database operations for financial
// categories, transactions and accounts.
type FinanceRepository interface {
	// Categories
	GetOrCreateCategory(executor SQLExecutor, name, kind string, defaults models.FinancialCategory) (*models.FinancialCategory, error)
	CreateCategory(executor SQLExecutor, category *models.FinancialCategory) (int64, error)
	GetCategoryByID(categoryID int64) (*models.FinancialCategory, error)
	GetCategories(activeOnly bool) ([]models.FinancialCategory, error)
	UpdateCategory(executor SQLExecutor, category *models.FinancialCategory) error
	DeleteCategory(executor SQLExecutor, categoryID int64) error

	// Transactions
	CreateTransaction(executor SQLExecutor, transaction *models.Transaction) (int64, error)
	GetTransactionByID(transactionID int64) (*models.Transaction, error)
	GetTransactions(filters models.TransactionFilters) ([]models.Transaction, int, error)
	UpdateTransaction(executor SQLExecutor, transaction *models.Transaction) error
	ExistsRevenueForWorkOrder(executor SQLExecutor, workOrderID int64) (bool, error)
	SumByKindAndStatus(kind, status string, from, to *time.Time) (decimal.Decimal, error)
	CountOverduePending(today time.Time) (int, error)

	// Accounts
	CreateAccount(executor SQLExecutor, account *models.FinancialAccount) (int64, error)
	GetAccounts() ([]models.FinancialAccount, error)
	GetAccountByID(accountID int64) (*models.FinancialAccount, error)
	UpdateAccount(executor SQLExecutor, account *models.FinancialAccount) error
	DeleteAccount(executor SQLExecutor, accountID int64) error
}

type financeRepository struct {
	db *sql.DB
}

// NewFinanceRepository creates a new instance of FinanceRepository.
func NewFinanceRepository(db *sql.DB) FinanceRepository {
	return &financeRepository{db: db}
}

// --- Category methods ---

// GetOrCreateCategory looks a category up by its (name, kind) pair and
// creates it from defaults when absent. The insert uses ON CONFLICT DO
// NOTHING so two concurrent callers can never produce duplicates; the
// loser of the race rereads the winner's row.
func (r *financeRepository) GetOrCreateCategory(executor SQLExecutor, name, kind string, defaults models.FinancialCategory) (*models.FinancialCategory, error) {
	if executor == nil {
		executor = r.db
	}
	category, err := r.getCategoryByNameKind(executor, name, kind)
	if err == nil {
		return category, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	now := time.Now()
	insert := `INSERT INTO financial_categories (name, kind, description, color, active, created_at, updated_at)
	           VALUES ($1, $2, $3, $4, TRUE, $5, $6)
	           ON CONFLICT (name, kind) DO NOTHING`
	if _, err := executor.Exec(insert, name, kind, defaults.Description, defaults.Color, now, now); err != nil {
		return nil, mapPQError("creating financial category", err)
	}
	return r.getCategoryByNameKind(executor, name, kind)
}

func (r *financeRepository) getCategoryByNameKind(executor SQLExecutor, name, kind string) (*models.FinancialCategory, error) {
	if executor == nil {
		executor = r.db
	}
	category := &models.FinancialCategory{}
	query := `SELECT id, name, kind, description, color, active, created_at, updated_at
	          FROM financial_categories WHERE name = $1 AND kind = $2`
	err := executor.QueryRow(query, name, kind).Scan(
		&category.ID, &category.Name, &category.Kind, &category.Description,
		&category.Color, &category.Active, &category.CreatedAt, &category.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, mapPQError("getting financial category by name/kind", err)
	}
	return category, nil
}

func (r *financeRepository) CreateCategory(executor SQLExecutor, category *models.FinancialCategory) (int64, error) {
	if executor == nil {
		executor = r.db
	}
	query := `INSERT INTO financial_categories (name, kind, description, color, active, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING id`
	now := time.Now()
	err := executor.QueryRow(query,
		category.Name, category.Kind, category.Description, category.Color, category.Active, now, now,
	).Scan(&category.ID)
	if err != nil {
		return 0, mapPQError("creating financial category", err)
	}
	return category.ID, nil
}

func (r *financeRepository) GetCategoryByID(categoryID int64) (*models.FinancialCategory, error) {
	category := &models.FinancialCategory{}
	query := `SELECT id, name, kind, description, color, active, created_at, updated_at
	          FROM financial_categories WHERE id = $1`
	err := r.db.QueryRow(query, categoryID).Scan(
		&category.ID, &category.Name, &category.Kind, &category.Description,
		&category.Color, &category.Active, &category.CreatedAt, &category.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, mapPQError(fmt.Sprintf("getting financial category %d", categoryID), err)
	}
	return category, nil
}

func (r *financeRepository) GetCategories(activeOnly bool) ([]models.FinancialCategory, error) {
	categories := []models.FinancialCategory{}
	query := `SELECT id, name, kind, description, color, active, created_at, updated_at
	          FROM financial_categories`
	if activeOnly {
		query += ` WHERE active = TRUE`
	}
	query += ` ORDER BY kind, name`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, mapPQError("querying financial categories", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c models.FinancialCategory
		if err := rows.Scan(&c.ID, &c.Name, &c.Kind, &c.Description, &c.Color, &c.Active, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, mapPQError("scanning financial category", err)
		}
		categories = append(categories, c)
	}
	if err = rows.Err(); err != nil {
		return nil, mapPQError("iterating financial categories", err)
	}
	return categories, nil
}

func (r *financeRepository) UpdateCategory(executor SQLExecutor, category *models.FinancialCategory) error {
	if executor == nil {
		executor = r.db
	}
	query := `UPDATE financial_categories
	          SET name = $1, kind = $2, description = $3, color = $4, active = $5, updated_at = $6
	          WHERE id = $7`
	result, err := executor.Exec(query,
		category.Name, category.Kind, category.Description, category.Color, category.Active, time.Now(), category.ID,
	)
	if err != nil {
		return mapPQError(fmt.Sprintf("updating financial category %d", category.ID), err)
	}
	return requireRowsAffected(result, fmt.Sprintf("updating financial category %d", category.ID))
}

func (r *financeRepository) DeleteCategory(executor SQLExecutor, categoryID int64) error {
	if executor == nil {
		executor = r.db
	}
	result, err := executor.Exec(`DELETE FROM financial_categories WHERE id = $1`, categoryID)
	if err != nil {
		return mapPQError(fmt.Sprintf("deleting financial category %d", categoryID), err)
	}
	return requireRowsAffected(result, fmt.Sprintf("deleting financial category %d", categoryID))
}

// --- Transaction methods ---

func (r *financeRepository) CreateTransaction(executor SQLExecutor, transaction *models.Transaction) (int64, error) {
	if executor == nil {
		executor = r.db
	}
	query := `INSERT INTO transactions
	            (kind, category_id, description, amount, due_date, paid_date, status, method,
	             work_order_id, supplier_id, notes, user_id, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	          RETURNING id`
	now := time.Now()
	err := executor.QueryRow(query,
		transaction.Kind, transaction.CategoryID, transaction.Description, transaction.Amount,
		transaction.DueDate, transaction.PaidDate, transaction.Status, transaction.Method,
		transaction.WorkOrderID, transaction.SupplierID, transaction.Notes, transaction.UserID,
		now, now,
	).Scan(&transaction.ID)
	if err != nil {
		return 0, mapPQError("creating transaction", err)
	}
	transaction.CreatedAt = now
	transaction.UpdatedAt = now
	return transaction.ID, nil
}

func (r *financeRepository) GetTransactionByID(transactionID int64) (*models.Transaction, error) {
	t := &models.Transaction{}
	var categoryName, categoryKind string
	query := `SELECT t.id, t.kind, t.category_id, t.description, t.amount, t.due_date, t.paid_date,
	                 t.status, t.method, t.work_order_id, t.supplier_id, t.notes, t.user_id,
	                 t.created_at, t.updated_at,
	                 fc.name, fc.kind
	          FROM transactions t
	          JOIN financial_categories fc ON t.category_id = fc.id
	          WHERE t.id = $1`
	err := r.db.QueryRow(query, transactionID).Scan(
		&t.ID, &t.Kind, &t.CategoryID, &t.Description, &t.Amount, &t.DueDate, &t.PaidDate,
		&t.Status, &t.Method, &t.WorkOrderID, &t.SupplierID, &t.Notes, &t.UserID,
		&t.CreatedAt, &t.UpdatedAt,
		&categoryName, &categoryKind,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, mapPQError(fmt.Sprintf("getting transaction %d", transactionID), err)
	}
	t.Category = &models.FinancialCategory{ID: t.CategoryID, Name: categoryName, Kind: categoryKind}
	return t, nil
}

func (r *financeRepository) GetTransactions(filters models.TransactionFilters) ([]models.Transaction, int, error) {
	transactions := []models.Transaction{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`
	    SELECT t.id, t.kind, t.category_id, t.description, t.amount, t.due_date, t.paid_date,
	           t.status, t.method, t.work_order_id, t.supplier_id, t.notes, t.user_id,
	           t.created_at, t.updated_at,
	           fc.name, fc.kind,
	           COUNT(*) OVER() AS total_count
	    FROM transactions t
	    JOIN financial_categories fc ON t.category_id = fc.id
	`)

	var conditions []string
	var args []interface{}
	argCounter := 1

	if filters.Kind != nil && *filters.Kind != "" {
		conditions = append(conditions, fmt.Sprintf("t.kind = $%d", argCounter))
		args = append(args, *filters.Kind)
		argCounter++
	}
	if filters.Status != nil && *filters.Status != "" {
		conditions = append(conditions, fmt.Sprintf("t.status = $%d", argCounter))
		args = append(args, *filters.Status)
		argCounter++
	}
	if filters.CategoryID != nil {
		conditions = append(conditions, fmt.Sprintf("t.category_id = $%d", argCounter))
		args = append(args, *filters.CategoryID)
		argCounter++
	}
	if filters.WorkOrderID != nil {
		conditions = append(conditions, fmt.Sprintf("t.work_order_id = $%d", argCounter))
		args = append(args, *filters.WorkOrderID)
		argCounter++
	}
	if filters.Month != nil && *filters.Month != "" {
		if monthStart, err := time.Parse("2006-01", *filters.Month); err == nil {
			monthEnd := monthStart.AddDate(0, 1, 0)
			conditions = append(conditions, fmt.Sprintf("t.due_date >= $%d AND t.due_date < $%d", argCounter, argCounter+1))
			args = append(args, monthStart, monthEnd)
			argCounter += 2
		}
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY t.due_date DESC")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCounter, argCounter+1))
	args = append(args, filters.PageSize, (filters.Page-1)*filters.PageSize)

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, mapPQError("querying transactions", err)
	}
	defer rows.Close()

	for rows.Next() {
		var t models.Transaction
		var categoryName, categoryKind string
		if err := rows.Scan(
			&t.ID, &t.Kind, &t.CategoryID, &t.Description, &t.Amount, &t.DueDate, &t.PaidDate,
			&t.Status, &t.Method, &t.WorkOrderID, &t.SupplierID, &t.Notes, &t.UserID,
			&t.CreatedAt, &t.UpdatedAt,
			&categoryName, &categoryKind, &totalCount,
		); err != nil {
			return nil, 0, mapPQError("scanning transaction", err)
		}
		t.Category = &models.FinancialCategory{ID: t.CategoryID, Name: categoryName, Kind: categoryKind}
		transactions = append(transactions, t)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, mapPQError("iterating transactions", err)
	}
	return transactions, totalCount, nil
}

func (r *financeRepository) UpdateTransaction(executor SQLExecutor, transaction *models.Transaction) error {
	if executor == nil {
		executor = r.db
	}
	query := `UPDATE transactions SET
	            kind = $1, category_id = $2, description = $3, amount = $4, due_date = $5,
	            paid_date = $6, status = $7, method = $8, work_order_id = $9, supplier_id = $10,
	            notes = $11, updated_at = $12
	          WHERE id = $13`
	result, err := executor.Exec(query,
		transaction.Kind, transaction.CategoryID, transaction.Description, transaction.Amount,
		transaction.DueDate, transaction.PaidDate, transaction.Status, transaction.Method,
		transaction.WorkOrderID, transaction.SupplierID, transaction.Notes, time.Now(), transaction.ID,
	)
	if err != nil {
		return mapPQError(fmt.Sprintf("updating transaction %d", transaction.ID), err)
	}
	return requireRowsAffected(result, fmt.Sprintf("updating transaction %d", transaction.ID))
}

// ExistsRevenueForWorkOrder reports whether a non-cancelled revenue
// transaction is already linked to the work order. Used as the duplicate
// guard for the delivery posting.
func (r *financeRepository) ExistsRevenueForWorkOrder(executor SQLExecutor, workOrderID int64) (bool, error) {
	if executor == nil {
		executor = r.db
	}
	var exists bool
	query := `SELECT EXISTS(
	            SELECT 1 FROM transactions
	            WHERE work_order_id = $1 AND kind = 'receita' AND status <> 'cancelado')`
	if err := executor.QueryRow(query, workOrderID).Scan(&exists); err != nil {
		return false, mapPQError(fmt.Sprintf("checking revenue for work order %d", workOrderID), err)
	}
	return exists, nil
}

func (r *financeRepository) SumByKindAndStatus(kind, status string, from, to *time.Time) (decimal.Decimal, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT COALESCE(SUM(amount), 0) FROM transactions WHERE kind = $1 AND status = $2`)
	args := []interface{}{kind, status}
	argCounter := 3
	if from != nil {
		queryBuilder.WriteString(fmt.Sprintf(" AND paid_date >= $%d", argCounter))
		args = append(args, *from)
		argCounter++
	}
	if to != nil {
		queryBuilder.WriteString(fmt.Sprintf(" AND paid_date <= $%d", argCounter))
		args = append(args, *to)
	}

	var total decimal.Decimal
	if err := r.db.QueryRow(queryBuilder.String(), args...).Scan(&total); err != nil {
		return decimal.Zero, mapPQError("summing transactions", err)
	}
	return total, nil
}

func (r *financeRepository) CountOverduePending(today time.Time) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM transactions WHERE status = 'pendente' AND due_date < $1`
	if err := r.db.QueryRow(query, today).Scan(&count); err != nil {
		return 0, mapPQError("counting overdue transactions", err)
	}
	return count, nil
}

// --- Account methods ---

func (r *financeRepository) CreateAccount(executor SQLExecutor, account *models.FinancialAccount) (int64, error) {
	if executor == nil {
		executor = r.db
	}
	query := `INSERT INTO financial_accounts (name, bank, agency, account_number, initial_balance, active, notes, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          RETURNING id`
	now := time.Now()
	err := executor.QueryRow(query,
		account.Name, account.Bank, account.Agency, account.AccountNumber,
		account.InitialBalance, account.Active, account.Notes, now,
	).Scan(&account.ID)
	if err != nil {
		return 0, mapPQError("creating financial account", err)
	}
	account.CreatedAt = now
	return account.ID, nil
}

func (r *financeRepository) GetAccounts() ([]models.FinancialAccount, error) {
	accounts := []models.FinancialAccount{}
	query := `SELECT id, name, bank, agency, account_number, initial_balance, active, notes, created_at
	          FROM financial_accounts ORDER BY name`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, mapPQError("querying financial accounts", err)
	}
	defer rows.Close()

	for rows.Next() {
		var a models.FinancialAccount
		if err := rows.Scan(&a.ID, &a.Name, &a.Bank, &a.Agency, &a.AccountNumber, &a.InitialBalance, &a.Active, &a.Notes, &a.CreatedAt); err != nil {
			return nil, mapPQError("scanning financial account", err)
		}
		accounts = append(accounts, a)
	}
	if err = rows.Err(); err != nil {
		return nil, mapPQError("iterating financial accounts", err)
	}
	return accounts, nil
}

func (r *financeRepository) GetAccountByID(accountID int64) (*models.FinancialAccount, error) {
	a := &models.FinancialAccount{}
	query := `SELECT id, name, bank, agency, account_number, initial_balance, active, notes, created_at
	          FROM financial_accounts WHERE id = $1`
	err := r.db.QueryRow(query, accountID).Scan(
		&a.ID, &a.Name, &a.Bank, &a.Agency, &a.AccountNumber, &a.InitialBalance, &a.Active, &a.Notes, &a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, mapPQError(fmt.Sprintf("getting financial account %d", accountID), err)
	}
	return a, nil
}

func (r *financeRepository) UpdateAccount(executor SQLExecutor, account *models.FinancialAccount) error {
	if executor == nil {
		executor = r.db
	}
	query := `UPDATE financial_accounts
	          SET name = $1, bank = $2, agency = $3, account_number = $4, initial_balance = $5, active = $6, notes = $7
	          WHERE id = $8`
	result, err := executor.Exec(query,
		account.Name, account.Bank, account.Agency, account.AccountNumber,
		account.InitialBalance, account.Active, account.Notes, account.ID,
	)
	if err != nil {
		return mapPQError(fmt.Sprintf("updating financial account %d", account.ID), err)
	}
	return requireRowsAffected(result, fmt.Sprintf("updating financial account %d", account.ID))
}

func (r *financeRepository) DeleteAccount(executor SQLExecutor, accountID int64) error {
	if executor == nil {
		executor = r.db
	}
	result, err := executor.Exec(`DELETE FROM financial_accounts WHERE id = $1`, accountID)
	if err != nil {
		return mapPQError(fmt.Sprintf("deleting financial account %d", accountID), err)
	}
	return requireRowsAffected(result, fmt.Sprintf("deleting financial account %d", accountID))
}
