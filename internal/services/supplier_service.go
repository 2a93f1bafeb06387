package services

import (
	"errors"
	"fmt"

	"repairshop_backend/internal/models"
	"repairshop_backend/internal/repositories"
	"repairshop_backend/pkg/utils"
)

// SupplierService owns the supplier registry.
type SupplierService interface {
	CreateSupplier(supplier *models.Supplier) error
	GetSupplierByID(supplierID int64) (*models.Supplier, error)
	GetSuppliers(filters models.SupplierFilters) ([]models.Supplier, int, error)
	UpdateSupplier(supplier *models.Supplier) error
	DeleteSupplier(supplierID int64) error
}

type supplierService struct {
	supplierRepo repositories.SupplierRepository
}

// NewSupplierService creates a new instance of SupplierService.
func NewSupplierService(sr repositories.SupplierRepository) SupplierService {
	return &supplierService{supplierRepo: sr}
}

func validateSupplier(supplier *models.Supplier) error {
	if utils.IsEmpty(supplier.LegalName) || utils.IsEmpty(supplier.CNPJ) || utils.IsEmpty(supplier.Phone) {
		return fmt.Errorf("%w: legal name, CNPJ and phone are required", ErrValidation)
	}
	if supplier.Email != nil && !utils.IsValidEmail(*supplier.Email) {
		return fmt.Errorf("%w: invalid email address %q", ErrValidation, *supplier.Email)
	}
	return nil
}

func (s *supplierService) CreateSupplier(supplier *models.Supplier) error {
	if err := validateSupplier(supplier); err != nil {
		return err
	}
	supplier.Active = true
	if _, err := s.supplierRepo.CreateSupplier(supplier); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return fmt.Errorf("%w: CNPJ %q already registered", ErrConflict, supplier.CNPJ)
		}
		return fmt.Errorf("failed to create supplier: %w", err)
	}
	return nil
}

func (s *supplierService) GetSupplierByID(supplierID int64) (*models.Supplier, error) {
	supplier, err := s.supplierRepo.GetSupplierByID(supplierID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: supplier %d", ErrNotFound, supplierID)
		}
		return nil, fmt.Errorf("failed to fetch supplier %d: %w", supplierID, err)
	}
	return supplier, nil
}

func (s *supplierService) GetSuppliers(filters models.SupplierFilters) ([]models.Supplier, int, error) {
	return s.supplierRepo.GetSuppliers(filters)
}

func (s *supplierService) UpdateSupplier(supplier *models.Supplier) error {
	if err := validateSupplier(supplier); err != nil {
		return err
	}
	if err := s.supplierRepo.UpdateSupplier(supplier); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("%w: supplier %d", ErrNotFound, supplier.ID)
		}
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return fmt.Errorf("%w: CNPJ %q already registered", ErrConflict, supplier.CNPJ)
		}
		return fmt.Errorf("failed to update supplier %d: %w", supplier.ID, err)
	}
	return nil
}

func (s *supplierService) DeleteSupplier(supplierID int64) error {
	if err := s.supplierRepo.DeleteSupplier(supplierID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("%w: supplier %d", ErrNotFound, supplierID)
		}
		return fmt.Errorf("failed to delete supplier %d: %w", supplierID, err)
	}
	return nil
}
