package services

import (
	"errors"
	"fmt"

	"repairshop_backend/internal/models"
	"repairshop_backend/internal/repositories"
	"repairshop_backend/pkg/utils"
)

// CustomerService owns the customer registry.
type CustomerService interface {
	CreateCustomer(customer *models.Customer) error
	GetCustomerByID(customerID int64) (*models.Customer, error)
	GetCustomers(filters models.CustomerFilters) ([]models.Customer, int, error)
	UpdateCustomer(customer *models.Customer) error
	DeleteCustomer(customerID int64) error
}

type customerService struct {
	customerRepo repositories.CustomerRepository
}

// NewCustomerService creates a new instance of CustomerService.
func NewCustomerService(cr repositories.CustomerRepository) CustomerService {
	return &customerService{customerRepo: cr}
}

func validateCustomer(customer *models.Customer) error {
	if utils.IsEmpty(customer.Name) || utils.IsEmpty(customer.Document) || utils.IsEmpty(customer.PrimaryPhone) {
		return fmt.Errorf("%w: name, document and primary phone are required", ErrValidation)
	}
	if customer.Email != nil && !utils.IsValidEmail(*customer.Email) {
		return fmt.Errorf("%w: invalid email address %q", ErrValidation, *customer.Email)
	}
	return nil
}

func (s *customerService) CreateCustomer(customer *models.Customer) error {
	if err := validateCustomer(customer); err != nil {
		return err
	}
	customer.Active = true
	if _, err := s.customerRepo.CreateCustomer(customer); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return fmt.Errorf("%w: document %q already registered", ErrConflict, customer.Document)
		}
		return fmt.Errorf("failed to create customer: %w", err)
	}
	return nil
}

func (s *customerService) GetCustomerByID(customerID int64) (*models.Customer, error) {
	customer, err := s.customerRepo.GetCustomerByID(customerID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: customer %d", ErrNotFound, customerID)
		}
		return nil, fmt.Errorf("failed to fetch customer %d: %w", customerID, err)
	}
	return customer, nil
}

func (s *customerService) GetCustomers(filters models.CustomerFilters) ([]models.Customer, int, error) {
	return s.customerRepo.GetCustomers(filters)
}

func (s *customerService) UpdateCustomer(customer *models.Customer) error {
	if err := validateCustomer(customer); err != nil {
		return err
	}
	if err := s.customerRepo.UpdateCustomer(customer); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("%w: customer %d", ErrNotFound, customer.ID)
		}
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return fmt.Errorf("%w: document %q already registered", ErrConflict, customer.Document)
		}
		return fmt.Errorf("failed to update customer %d: %w", customer.ID, err)
	}
	return nil
}

func (s *customerService) DeleteCustomer(customerID int64) error {
	if err := s.customerRepo.DeleteCustomer(customerID); err != nil {
		if errors.Is(err, repositories.ErrForeignKeyViolation) {
			return fmt.Errorf("%w: customer %d has work orders", ErrInUse, customerID)
		}
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("%w: customer %d", ErrNotFound, customerID)
		}
		return fmt.Errorf("failed to delete customer %d: %w", customerID, err)
	}
	return nil
}
