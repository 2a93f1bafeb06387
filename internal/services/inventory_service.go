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

// RecordMovementRequest is the input for a manual stock movement.
type RecordMovementRequest struct {
	PartID     int64           `json:"peca_id" binding:"required"`
	Kind       string          `json:"tipo" binding:"required"`
	Quantity   int             `json:"quantidade" binding:"required"`
	UnitValue  decimal.Decimal `json:"valor_unitario"`
	SupplierID *int64          `json:"fornecedor_id"`
	InvoiceRef *string         `json:"nota_fiscal"`
	Notes      *string         `json:"observacoes"`
}

// InvoiceEntryLine is one part received on a supplier invoice.
type InvoiceEntryLine struct {
	PartID    int64           `json:"peca_id" binding:"required"`
	Quantity  int             `json:"quantidade" binding:"required,gt=0"`
	UnitValue decimal.Decimal `json:"valor_unitario" binding:"required"`
}

// ImportInvoiceRequest registers every line of a supplier invoice as an
// inbound movement in one transaction.
type ImportInvoiceRequest struct {
	SupplierID int64              `json:"fornecedor_id" binding:"required"`
	InvoiceRef string             `json:"nota_fiscal" binding:"required"`
	Lines      []InvoiceEntryLine `json:"itens" binding:"required,dive"`
}

// InventoryService owns the part catalog and the movement ledger. Stock
// quantities are always derived from the ledger, never stored.
type InventoryService interface {
	CreateCategory(category *models.PartCategory) error
	GetCategoryByID(categoryID int64) (*models.PartCategory, error)
	GetCategories(page, pageSize int) ([]models.PartCategory, int, error)
	UpdateCategory(category *models.PartCategory) error
	DeleteCategory(categoryID int64) error

	CreatePart(part *models.Part) error
	GetPartByID(partID int64) (*models.Part, error)
	GetParts(filters models.PartFilters) ([]models.Part, int, error)
	UpdatePart(part *models.Part) error
	DeletePart(partID int64) error

	RecordMovement(req RecordMovementRequest, userID int64) (*models.StockMovement, error)
	ImportInvoiceMovements(req ImportInvoiceRequest, userID int64) ([]models.StockMovement, error)
	GetMovements(filters models.MovementFilters) ([]models.StockMovement, int, error)

	// ApplyMovement validates and persists one movement inside a caller
	// owned transaction, maintaining the non-negative stock invariant and
	// the part's last cost. Other services compose it into their own units
	// of work.
	ApplyMovement(tx repositories.SQLExecutor, movement *models.StockMovement) error
}

type inventoryService struct {
	partRepo     repositories.PartRepository
	movementRepo repositories.StockMovementRepository
	financeSvc   FinanceService
	db           repositories.TxBeginner
}

// NewInventoryService creates a new instance of InventoryService.
func NewInventoryService(
	pr repositories.PartRepository,
	mr repositories.StockMovementRepository,
	fs FinanceService,
	db *sql.DB,
) InventoryService {
	return &inventoryService{
		partRepo:     pr,
		movementRepo: mr,
		financeSvc:   fs,
		db:           repositories.NewTxBeginner(db),
	}
}

// --- Categories ---

func (s *inventoryService) CreateCategory(category *models.PartCategory) error {
	if category.Name == "" {
		return fmt.Errorf("%w: category name is required", ErrValidation)
	}
	if _, err := s.partRepo.CreateCategory(nil, category); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return fmt.Errorf("%w: category %q already exists", ErrConflict, category.Name)
		}
		return fmt.Errorf("failed to create part category: %w", err)
	}
	return nil
}

func (s *inventoryService) GetCategoryByID(categoryID int64) (*models.PartCategory, error) {
	category, err := s.partRepo.GetCategoryByID(categoryID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: part category %d", ErrNotFound, categoryID)
		}
		return nil, fmt.Errorf("failed to fetch part category %d: %w", categoryID, err)
	}
	return category, nil
}

func (s *inventoryService) GetCategories(page, pageSize int) ([]models.PartCategory, int, error) {
	return s.partRepo.GetCategories(page, pageSize)
}

func (s *inventoryService) UpdateCategory(category *models.PartCategory) error {
	if category.Name == "" {
		return fmt.Errorf("%w: category name is required", ErrValidation)
	}
	if err := s.partRepo.UpdateCategory(nil, category); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("%w: part category %d", ErrNotFound, category.ID)
		}
		return fmt.Errorf("failed to update part category %d: %w", category.ID, err)
	}
	return nil
}

func (s *inventoryService) DeleteCategory(categoryID int64) error {
	if err := s.partRepo.DeleteCategory(nil, categoryID); err != nil {
		if errors.Is(err, repositories.ErrForeignKeyViolation) {
			return fmt.Errorf("%w: category %d still has parts", ErrInUse, categoryID)
		}
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("%w: part category %d", ErrNotFound, categoryID)
		}
		return fmt.Errorf("failed to delete part category %d: %w", categoryID, err)
	}
	return nil
}

// --- Parts ---

func (s *inventoryService) CreatePart(part *models.Part) error {
	if err := validatePart(part); err != nil {
		return err
	}
	part.ApplySalePrice()
	if _, err := s.partRepo.CreatePart(nil, part); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return fmt.Errorf("%w: internal code %q already in use", ErrConflict, part.InternalCode)
		}
		if errors.Is(err, repositories.ErrForeignKeyViolation) {
			return fmt.Errorf("%w: category or supplier does not exist", ErrValidation)
		}
		return fmt.Errorf("failed to create part: %w", err)
	}
	return nil
}

func (s *inventoryService) GetPartByID(partID int64) (*models.Part, error) {
	part, err := s.partRepo.GetPartByID(nil, partID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: part %d", ErrNotFound, partID)
		}
		return nil, fmt.Errorf("failed to fetch part %d: %w", partID, err)
	}

	movements, _, err := s.movementRepo.GetMovements(models.MovementFilters{PartID: &partID, Page: 1, PageSize: 10})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch movements for part %d: %w", partID, err)
	}
	part.RecentMovements = movements
	return part, nil
}

func (s *inventoryService) GetParts(filters models.PartFilters) ([]models.Part, int, error) {
	return s.partRepo.GetParts(filters)
}

func (s *inventoryService) UpdatePart(part *models.Part) error {
	if err := validatePart(part); err != nil {
		return err
	}
	part.ApplySalePrice()
	if err := s.partRepo.UpdatePart(nil, part); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("%w: part %d", ErrNotFound, part.ID)
		}
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return fmt.Errorf("%w: internal code %q already in use", ErrConflict, part.InternalCode)
		}
		return fmt.Errorf("failed to update part %d: %w", part.ID, err)
	}
	return nil
}

func (s *inventoryService) DeletePart(partID int64) error {
	if err := s.partRepo.DeletePart(nil, partID); err != nil {
		if errors.Is(err, repositories.ErrForeignKeyViolation) {
			return fmt.Errorf("%w: part %d has movements or order lines", ErrInUse, partID)
		}
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("%w: part %d", ErrNotFound, partID)
		}
		return fmt.Errorf("failed to delete part %d: %w", partID, err)
	}
	return nil
}

func validatePart(part *models.Part) error {
	if part.InternalCode == "" || part.Name == "" {
		return fmt.Errorf("%w: internal code and name are required", ErrValidation)
	}
	if part.CategoryID == 0 {
		return fmt.Errorf("%w: category is required", ErrValidation)
	}
	if part.MinimumStock < 0 {
		return fmt.Errorf("%w: minimum stock cannot be negative", ErrValidation)
	}
	if part.LastCost.IsNegative() || part.SalePrice.IsNegative() || part.MarginPct.IsNegative() {
		return fmt.Errorf("%w: prices cannot be negative", ErrValidation)
	}
	return nil
}

// --- Movements ---

func (s *inventoryService) RecordMovement(req RecordMovementRequest, userID int64) (*models.StockMovement, error) {
	movement := &models.StockMovement{
		PartID:       req.PartID,
		Kind:         req.Kind,
		Quantity:     req.Quantity,
		UnitValue:    req.UnitValue,
		SupplierID:   req.SupplierID,
		InvoiceRef:   req.InvoiceRef,
		Notes:        req.Notes,
		UserID:       userID,
		MovementDate: time.Now(),
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.ApplyMovement(tx, movement); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit stock movement: %w", err)
	}
	return movement, nil
}

func (s *inventoryService) ImportInvoiceMovements(req ImportInvoiceRequest, userID int64) ([]models.StockMovement, error) {
	if len(req.Lines) == 0 {
		return nil, fmt.Errorf("%w: invoice has no lines", ErrValidation)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	movements := make([]models.StockMovement, 0, len(req.Lines))
	now := time.Now()

	for _, line := range req.Lines {
		movement := models.StockMovement{
			PartID:       line.PartID,
			Kind:         models.MovementIn,
			Quantity:     line.Quantity,
			UnitValue:    line.UnitValue,
			SupplierID:   &req.SupplierID,
			InvoiceRef:   &req.InvoiceRef,
			UserID:       userID,
			MovementDate: now,
		}
		if err := s.ApplyMovement(tx, &movement); err != nil {
			return nil, err
		}
		movements = append(movements, movement)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit invoice import: %w", err)
	}
	return movements, nil
}

func (s *inventoryService) GetMovements(filters models.MovementFilters) ([]models.StockMovement, int, error) {
	return s.movementRepo.GetMovements(filters)
}

func (s *inventoryService) ApplyMovement(tx repositories.SQLExecutor, movement *models.StockMovement) error {
	switch movement.Kind {
	case models.MovementIn, models.MovementOut:
		if movement.Quantity <= 0 {
			return fmt.Errorf("%w: quantity must be positive for %s", ErrValidation, movement.Kind)
		}
	case models.MovementAdjustment:
		if movement.Quantity == 0 {
			return fmt.Errorf("%w: adjustment delta cannot be zero", ErrValidation)
		}
	default:
		return fmt.Errorf("%w: unknown movement kind %q", ErrValidation, movement.Kind)
	}

	part, err := s.partRepo.GetPartByID(tx, movement.PartID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("%w: part %d", ErrNotFound, movement.PartID)
		}
		return fmt.Errorf("failed to fetch part %d: %w", movement.PartID, err)
	}

	if movement.SignedQuantity() < 0 {
		current, err := s.partRepo.CurrentQuantity(tx, movement.PartID)
		if err != nil {
			return fmt.Errorf("failed to compute stock of part %d: %w", movement.PartID, err)
		}
		if current+movement.SignedQuantity() < 0 {
			return fmt.Errorf("%w: part %s has %d in stock, movement removes %d",
				ErrInsufficientStock, part.InternalCode, current, -movement.SignedQuantity())
		}
	}

	if movement.MovementDate.IsZero() {
		movement.MovementDate = time.Now()
	}
	if _, err := s.movementRepo.CreateMovement(tx, movement); err != nil {
		return fmt.Errorf("failed to record stock movement: %w", err)
	}

	// Inbound movements with a unit value rewrite the part's last cost,
	// reprice it through the margin formula and post the purchase expense.
	if movement.Kind == models.MovementIn && movement.UnitValue.IsPositive() {
		part.LastCost = movement.UnitValue
		part.ApplySalePrice()
		if err := s.partRepo.UpdatePartCost(tx, part.ID, part.LastCost, part.SalePrice); err != nil {
			return fmt.Errorf("failed to update cost of part %d: %w", part.ID, err)
		}

		total := movement.UnitValue.Mul(decimal.NewFromInt(int64(movement.Quantity)))
		description := fmt.Sprintf("Compra de pecas: %s x%d", part.Name, movement.Quantity)
		if movement.InvoiceRef != nil && *movement.InvoiceRef != "" {
			description = fmt.Sprintf("%s (NF %s)", description, *movement.InvoiceRef)
		}
		if err := s.financeSvc.PostStockEntryExpense(tx, description, total, movement.SupplierID, nil, movement.UserID); err != nil {
			return err
		}
	}
	return nil
}
