package services

import (
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"repairshop_backend/internal/models"
	"repairshop_backend/internal/repositories"
)

// In-memory repository doubles. They ignore the executor argument: the
// service tests exercise business rules, not transaction plumbing.

type fakePartRepo struct {
	parts      map[int64]*models.Part
	stock      map[int64]int
	categories map[int64]*models.PartCategory

	nextPartID     int64
	nextCategoryID int64

	deleteCategoryErr error
	deletePartErr     error
}

func newFakePartRepo() *fakePartRepo {
	return &fakePartRepo{
		parts:      map[int64]*models.Part{},
		stock:      map[int64]int{},
		categories: map[int64]*models.PartCategory{},
	}
}

func (f *fakePartRepo) addPart(part models.Part, stock int) *models.Part {
	f.nextPartID++
	part.ID = f.nextPartID
	f.parts[part.ID] = &part
	f.stock[part.ID] = stock
	return &part
}

func (f *fakePartRepo) CreateCategory(_ repositories.SQLExecutor, category *models.PartCategory) (int64, error) {
	for _, c := range f.categories {
		if c.Name == category.Name {
			return 0, repositories.ErrDuplicateKey
		}
	}
	f.nextCategoryID++
	category.ID = f.nextCategoryID
	stored := *category
	f.categories[category.ID] = &stored
	return category.ID, nil
}

func (f *fakePartRepo) GetCategoryByID(categoryID int64) (*models.PartCategory, error) {
	category, ok := f.categories[categoryID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *category
	return &copied, nil
}

func (f *fakePartRepo) GetCategories(page, pageSize int) ([]models.PartCategory, int, error) {
	return nil, 0, nil
}

func (f *fakePartRepo) UpdateCategory(_ repositories.SQLExecutor, category *models.PartCategory) error {
	if _, ok := f.categories[category.ID]; !ok {
		return repositories.ErrNotFound
	}
	stored := *category
	f.categories[category.ID] = &stored
	return nil
}

func (f *fakePartRepo) DeleteCategory(_ repositories.SQLExecutor, categoryID int64) error {
	if f.deleteCategoryErr != nil {
		return f.deleteCategoryErr
	}
	if _, ok := f.categories[categoryID]; !ok {
		return repositories.ErrNotFound
	}
	delete(f.categories, categoryID)
	return nil
}

func (f *fakePartRepo) CreatePart(_ repositories.SQLExecutor, part *models.Part) (int64, error) {
	for _, p := range f.parts {
		if p.InternalCode == part.InternalCode {
			return 0, repositories.ErrDuplicateKey
		}
	}
	f.nextPartID++
	part.ID = f.nextPartID
	stored := *part
	f.parts[part.ID] = &stored
	f.stock[part.ID] = 0
	return part.ID, nil
}

func (f *fakePartRepo) GetPartByID(_ repositories.SQLExecutor, partID int64) (*models.Part, error) {
	part, ok := f.parts[partID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *part
	return &copied, nil
}

func (f *fakePartRepo) GetParts(filters models.PartFilters) ([]models.Part, int, error) {
	return nil, 0, nil
}

func (f *fakePartRepo) UpdatePart(_ repositories.SQLExecutor, part *models.Part) error {
	if _, ok := f.parts[part.ID]; !ok {
		return repositories.ErrNotFound
	}
	stored := *part
	f.parts[part.ID] = &stored
	return nil
}

func (f *fakePartRepo) UpdatePartCost(_ repositories.SQLExecutor, partID int64, lastCost, salePrice decimal.Decimal) error {
	part, ok := f.parts[partID]
	if !ok {
		return repositories.ErrNotFound
	}
	part.LastCost = lastCost
	part.SalePrice = salePrice
	return nil
}

func (f *fakePartRepo) DeletePart(_ repositories.SQLExecutor, partID int64) error {
	if f.deletePartErr != nil {
		return f.deletePartErr
	}
	if _, ok := f.parts[partID]; !ok {
		return repositories.ErrNotFound
	}
	delete(f.parts, partID)
	return nil
}

func (f *fakePartRepo) CurrentQuantity(_ repositories.SQLExecutor, partID int64) (int, error) {
	return f.stock[partID], nil
}

func (f *fakePartRepo) CountLowStock() (int, error) {
	count := 0
	for id, part := range f.parts {
		if part.Active && part.IsLowStock(f.stock[id]) {
			count++
		}
	}
	return count, nil
}

type fakeMovementRepo struct {
	parts     *fakePartRepo
	movements []models.StockMovement
}

func (f *fakeMovementRepo) CreateMovement(_ repositories.SQLExecutor, movement *models.StockMovement) (int64, error) {
	movement.ID = int64(len(f.movements) + 1)
	f.movements = append(f.movements, *movement)
	if f.parts != nil {
		f.parts.stock[movement.PartID] += movement.SignedQuantity()
	}
	return movement.ID, nil
}

func (f *fakeMovementRepo) GetMovements(filters models.MovementFilters) ([]models.StockMovement, int, error) {
	return f.movements, len(f.movements), nil
}

func (f *fakeMovementRepo) GetMovementsByWorkOrder(workOrderID int64) ([]models.StockMovement, error) {
	var out []models.StockMovement
	for _, m := range f.movements {
		if m.WorkOrderID != nil && *m.WorkOrderID == workOrderID {
			out = append(out, m)
		}
	}
	return out, nil
}

type fakeFinanceRepo struct {
	categories   []models.FinancialCategory
	transactions []models.Transaction
	accounts     []models.FinancialAccount

	sums         map[string]decimal.Decimal
	overdueCount int

	createTransactionErr error
}

func newFakeFinanceRepo() *fakeFinanceRepo {
	return &fakeFinanceRepo{sums: map[string]decimal.Decimal{}}
}

func sumKey(kind, status string) string {
	return kind + "|" + status
}

func (f *fakeFinanceRepo) GetOrCreateCategory(_ repositories.SQLExecutor, name, kind string, defaults models.FinancialCategory) (*models.FinancialCategory, error) {
	for i := range f.categories {
		if f.categories[i].Name == name && f.categories[i].Kind == kind {
			copied := f.categories[i]
			return &copied, nil
		}
	}
	category := defaults
	category.ID = int64(len(f.categories) + 1)
	category.Name = name
	category.Kind = kind
	f.categories = append(f.categories, category)
	return &category, nil
}

func (f *fakeFinanceRepo) CreateCategory(_ repositories.SQLExecutor, category *models.FinancialCategory) (int64, error) {
	for i := range f.categories {
		if f.categories[i].Name == category.Name && f.categories[i].Kind == category.Kind {
			return 0, repositories.ErrDuplicateKey
		}
	}
	category.ID = int64(len(f.categories) + 1)
	f.categories = append(f.categories, *category)
	return category.ID, nil
}

func (f *fakeFinanceRepo) GetCategoryByID(categoryID int64) (*models.FinancialCategory, error) {
	for i := range f.categories {
		if f.categories[i].ID == categoryID {
			copied := f.categories[i]
			return &copied, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeFinanceRepo) GetCategories(activeOnly bool) ([]models.FinancialCategory, error) {
	return f.categories, nil
}

func (f *fakeFinanceRepo) UpdateCategory(_ repositories.SQLExecutor, category *models.FinancialCategory) error {
	for i := range f.categories {
		if f.categories[i].ID == category.ID {
			f.categories[i] = *category
			return nil
		}
	}
	return repositories.ErrNotFound
}

func (f *fakeFinanceRepo) DeleteCategory(_ repositories.SQLExecutor, categoryID int64) error {
	for _, t := range f.transactions {
		if t.CategoryID == categoryID {
			return repositories.ErrForeignKeyViolation
		}
	}
	for i := range f.categories {
		if f.categories[i].ID == categoryID {
			f.categories = append(f.categories[:i], f.categories[i+1:]...)
			return nil
		}
	}
	return repositories.ErrNotFound
}

func (f *fakeFinanceRepo) CreateTransaction(_ repositories.SQLExecutor, transaction *models.Transaction) (int64, error) {
	if f.createTransactionErr != nil {
		return 0, f.createTransactionErr
	}
	transaction.ID = int64(len(f.transactions) + 1)
	f.transactions = append(f.transactions, *transaction)
	return transaction.ID, nil
}

func (f *fakeFinanceRepo) GetTransactionByID(transactionID int64) (*models.Transaction, error) {
	for i := range f.transactions {
		if f.transactions[i].ID == transactionID {
			copied := f.transactions[i]
			return &copied, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeFinanceRepo) GetTransactions(filters models.TransactionFilters) ([]models.Transaction, int, error) {
	return f.transactions, len(f.transactions), nil
}

func (f *fakeFinanceRepo) UpdateTransaction(_ repositories.SQLExecutor, transaction *models.Transaction) error {
	for i := range f.transactions {
		if f.transactions[i].ID == transaction.ID {
			f.transactions[i] = *transaction
			return nil
		}
	}
	return repositories.ErrNotFound
}

func (f *fakeFinanceRepo) ExistsRevenueForWorkOrder(_ repositories.SQLExecutor, workOrderID int64) (bool, error) {
	for _, t := range f.transactions {
		if t.Kind == models.KindRevenue && t.WorkOrderID != nil && *t.WorkOrderID == workOrderID &&
			t.Status != models.TransactionCancelled {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeFinanceRepo) SumByKindAndStatus(kind, status string, from, to *time.Time) (decimal.Decimal, error) {
	if sum, ok := f.sums[sumKey(kind, status)]; ok {
		return sum, nil
	}
	return decimal.Zero, nil
}

func (f *fakeFinanceRepo) CountOverduePending(today time.Time) (int, error) {
	return f.overdueCount, nil
}

func (f *fakeFinanceRepo) CreateAccount(_ repositories.SQLExecutor, account *models.FinancialAccount) (int64, error) {
	account.ID = int64(len(f.accounts) + 1)
	f.accounts = append(f.accounts, *account)
	return account.ID, nil
}

func (f *fakeFinanceRepo) GetAccounts() ([]models.FinancialAccount, error) {
	out := make([]models.FinancialAccount, len(f.accounts))
	copy(out, f.accounts)
	return out, nil
}

func (f *fakeFinanceRepo) GetAccountByID(accountID int64) (*models.FinancialAccount, error) {
	for i := range f.accounts {
		if f.accounts[i].ID == accountID {
			copied := f.accounts[i]
			return &copied, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeFinanceRepo) UpdateAccount(_ repositories.SQLExecutor, account *models.FinancialAccount) error {
	for i := range f.accounts {
		if f.accounts[i].ID == account.ID {
			f.accounts[i] = *account
			return nil
		}
	}
	return repositories.ErrNotFound
}

func (f *fakeFinanceRepo) DeleteAccount(_ repositories.SQLExecutor, accountID int64) error {
	for i := range f.accounts {
		if f.accounts[i].ID == accountID {
			f.accounts = append(f.accounts[:i], f.accounts[i+1:]...)
			return nil
		}
	}
	return repositories.ErrNotFound
}

type fakeWorkOrderRepo struct {
	orders  map[int64]*models.WorkOrder
	usages  map[int64]*models.PartUsage
	history []models.StatusHistory

	counterMu   sync.Mutex
	counter     int64
	nextOrderID int64
	nextUsageID int64

	deletedUsageIDs []int64
}

func newFakeWorkOrderRepo() *fakeWorkOrderRepo {
	return &fakeWorkOrderRepo{
		orders: map[int64]*models.WorkOrder{},
		usages: map[int64]*models.PartUsage{},
	}
}

func (f *fakeWorkOrderRepo) addOrder(order models.WorkOrder) *models.WorkOrder {
	f.nextOrderID++
	order.ID = f.nextOrderID
	f.orders[order.ID] = &order
	return &order
}

func (f *fakeWorkOrderRepo) addUsage(usage models.PartUsage) *models.PartUsage {
	f.nextUsageID++
	usage.ID = f.nextUsageID
	f.usages[usage.ID] = &usage
	return &usage
}

func (f *fakeWorkOrderRepo) NextOrderNumber(_ repositories.SQLExecutor) (string, error) {
	f.counterMu.Lock()
	defer f.counterMu.Unlock()
	f.counter++
	return fmt.Sprintf("OS-%06d", f.counter), nil
}

func (f *fakeWorkOrderRepo) CreateWorkOrder(_ repositories.SQLExecutor, order *models.WorkOrder) (int64, error) {
	f.nextOrderID++
	order.ID = f.nextOrderID
	stored := *order
	f.orders[order.ID] = &stored
	return order.ID, nil
}

func (f *fakeWorkOrderRepo) GetWorkOrderByID(_ repositories.SQLExecutor, orderID int64) (*models.WorkOrder, error) {
	order, ok := f.orders[orderID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *order
	return &copied, nil
}

func (f *fakeWorkOrderRepo) GetWorkOrders(filters models.WorkOrderFilters) ([]models.WorkOrder, int, error) {
	return nil, 0, nil
}

func (f *fakeWorkOrderRepo) UpdateWorkOrder(_ repositories.SQLExecutor, order *models.WorkOrder) error {
	if _, ok := f.orders[order.ID]; !ok {
		return repositories.ErrNotFound
	}
	stored := *order
	f.orders[order.ID] = &stored
	return nil
}

func (f *fakeWorkOrderRepo) CountByStatuses(statuses ...string) (int, error) {
	count := 0
	for _, order := range f.orders {
		for _, s := range statuses {
			if order.Status == s {
				count++
				break
			}
		}
	}
	return count, nil
}

func (f *fakeWorkOrderRepo) CountOverdue(today time.Time) (int, error) {
	count := 0
	for _, order := range f.orders {
		if order.IsOverdueAt(today) {
			count++
		}
	}
	return count, nil
}

func (f *fakeWorkOrderRepo) CountEnteredSince(since time.Time) (int, error) {
	count := 0
	for _, order := range f.orders {
		if !order.EntryDate.Before(since) {
			count++
		}
	}
	return count, nil
}

func (f *fakeWorkOrderRepo) CreatePartUsage(_ repositories.SQLExecutor, usage *models.PartUsage) (int64, error) {
	f.nextUsageID++
	usage.ID = f.nextUsageID
	stored := *usage
	f.usages[usage.ID] = &stored
	return usage.ID, nil
}

func (f *fakeWorkOrderRepo) GetPartUsagesByOrderID(_ repositories.SQLExecutor, orderID int64) ([]models.PartUsage, error) {
	var out []models.PartUsage
	for id := int64(1); id <= f.nextUsageID; id++ {
		if usage, ok := f.usages[id]; ok && usage.WorkOrderID == orderID {
			out = append(out, *usage)
		}
	}
	return out, nil
}

func (f *fakeWorkOrderRepo) UpdatePartUsage(_ repositories.SQLExecutor, usage *models.PartUsage) error {
	if _, ok := f.usages[usage.ID]; !ok {
		return repositories.ErrNotFound
	}
	stored := *usage
	f.usages[usage.ID] = &stored
	return nil
}

func (f *fakeWorkOrderRepo) DeletePartUsage(_ repositories.SQLExecutor, usageID int64) error {
	if _, ok := f.usages[usageID]; !ok {
		return repositories.ErrNotFound
	}
	delete(f.usages, usageID)
	f.deletedUsageIDs = append(f.deletedUsageIDs, usageID)
	return nil
}

func (f *fakeWorkOrderRepo) CreateStatusHistory(_ repositories.SQLExecutor, entry *models.StatusHistory) (int64, error) {
	entry.ID = int64(len(f.history) + 1)
	f.history = append(f.history, *entry)
	return entry.ID, nil
}

func (f *fakeWorkOrderRepo) GetStatusHistoryByOrderID(orderID int64) ([]models.StatusHistory, error) {
	var out []models.StatusHistory
	for _, h := range f.history {
		if h.WorkOrderID == orderID {
			out = append(out, h)
		}
	}
	return out, nil
}

type fakeCustomerRepo struct {
	customers map[int64]*models.Customer
	nextID    int64

	deleteErr error
}

func newFakeCustomerRepo() *fakeCustomerRepo {
	return &fakeCustomerRepo{customers: map[int64]*models.Customer{}}
}

func (f *fakeCustomerRepo) addCustomer(customer models.Customer) *models.Customer {
	f.nextID++
	customer.ID = f.nextID
	f.customers[customer.ID] = &customer
	return &customer
}

func (f *fakeCustomerRepo) CreateCustomer(customer *models.Customer) (int64, error) {
	for _, c := range f.customers {
		if c.Document == customer.Document {
			return 0, repositories.ErrDuplicateKey
		}
	}
	f.nextID++
	customer.ID = f.nextID
	stored := *customer
	f.customers[customer.ID] = &stored
	return customer.ID, nil
}

func (f *fakeCustomerRepo) GetCustomerByID(customerID int64) (*models.Customer, error) {
	customer, ok := f.customers[customerID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *customer
	return &copied, nil
}

func (f *fakeCustomerRepo) GetCustomers(filters models.CustomerFilters) ([]models.Customer, int, error) {
	return nil, 0, nil
}

func (f *fakeCustomerRepo) UpdateCustomer(customer *models.Customer) error {
	if _, ok := f.customers[customer.ID]; !ok {
		return repositories.ErrNotFound
	}
	stored := *customer
	f.customers[customer.ID] = &stored
	return nil
}

func (f *fakeCustomerRepo) DeleteCustomer(customerID int64) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.customers[customerID]; !ok {
		return repositories.ErrNotFound
	}
	delete(f.customers, customerID)
	return nil
}

func (f *fakeCustomerRepo) CountActive() (int, error) {
	count := 0
	for _, c := range f.customers {
		if c.Active {
			count++
		}
	}
	return count, nil
}

type fakeUserRepo struct {
	users  map[int64]*models.User
	nextID int64
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[int64]*models.User{}}
}

func (f *fakeUserRepo) CreateUser(user *models.User) (int64, error) {
	for _, u := range f.users {
		if u.Username == user.Username {
			return 0, repositories.ErrDuplicateKey
		}
	}
	f.nextID++
	user.ID = f.nextID
	stored := *user
	f.users[user.ID] = &stored
	return user.ID, nil
}

func (f *fakeUserRepo) GetUserByID(userID int64) (*models.User, error) {
	user, ok := f.users[userID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUserRepo) GetUserByUsername(username string) (*models.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeUserRepo) GetUsers() ([]models.User, error) {
	var out []models.User
	for id := int64(1); id <= f.nextID; id++ {
		if u, ok := f.users[id]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (f *fakeUserRepo) GetTechnicians() ([]models.User, error) {
	var out []models.User
	for id := int64(1); id <= f.nextID; id++ {
		if u, ok := f.users[id]; ok && u.Role == models.RoleTechnician && u.IsActive {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (f *fakeUserRepo) UpdateUser(user *models.User) error {
	if _, ok := f.users[user.ID]; !ok {
		return repositories.ErrNotFound
	}
	stored := *user
	f.users[user.ID] = &stored
	return nil
}

type notifiedEvent struct {
	event   string
	orderID int64
}

type fakeNotifier struct {
	events []notifiedEvent
}

func (f *fakeNotifier) NotifyOrderEvent(event string, order *models.WorkOrder, company CompanyConfig) {
	f.events = append(f.events, notifiedEvent{event: event, orderID: order.ID})
}

// fakeTx records the commit or rollback outcome of a unit of work. The
// executor methods are never reached because the repository fakes ignore
// their executor argument.

type fakeTx struct {
	committed  bool
	rolledBack bool
}

func (t *fakeTx) Exec(query string, args ...interface{}) (sql.Result, error) {
	return nil, nil
}

func (t *fakeTx) QueryRow(query string, args ...interface{}) *sql.Row {
	return nil
}

func (t *fakeTx) Query(query string, args ...interface{}) (*sql.Rows, error) {
	return nil, nil
}

func (t *fakeTx) Commit() error {
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback() error {
	if !t.committed {
		t.rolledBack = true
	}
	return nil
}

type fakeTxBeginner struct {
	txs      []*fakeTx
	beginErr error
}

func (b *fakeTxBeginner) Begin() (repositories.Tx, error) {
	if b.beginErr != nil {
		return nil, b.beginErr
	}
	tx := &fakeTx{}
	b.txs = append(b.txs, tx)
	return tx, nil
}

func (b *fakeTxBeginner) lastTx(t *testing.T) *fakeTx {
	t.Helper()
	if len(b.txs) == 0 {
		t.Fatal("no transaction was begun")
	}
	return b.txs[len(b.txs)-1]
}
