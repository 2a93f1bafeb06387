package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repairshop_backend/internal/models"
	"repairshop_backend/internal/repositories"
)

func TestCreateCustomer(t *testing.T) {
	t.Run("requires name document and phone", func(t *testing.T) {
		svc := NewCustomerService(newFakeCustomerRepo())
		err := svc.CreateCustomer(&models.Customer{Name: "Maria Souza"})
		require.ErrorIs(t, err, ErrValidation)
	})

	t.Run("activates on create", func(t *testing.T) {
		svc := NewCustomerService(newFakeCustomerRepo())
		customer := &models.Customer{
			Name:         "Maria Souza",
			Document:     "123.456.789-00",
			PrimaryPhone: "(11) 98888-1234",
		}
		require.NoError(t, svc.CreateCustomer(customer))
		assert.True(t, customer.Active)
	})

	t.Run("rejects malformed email", func(t *testing.T) {
		svc := NewCustomerService(newFakeCustomerRepo())
		email := "maria@@exemplo"
		err := svc.CreateCustomer(&models.Customer{
			Name:         "Maria Souza",
			Document:     "123.456.789-00",
			PrimaryPhone: "(11) 98888-1234",
			Email:        &email,
		})
		require.ErrorIs(t, err, ErrValidation)
	})

	t.Run("duplicate document conflicts", func(t *testing.T) {
		repo := newFakeCustomerRepo()
		repo.addCustomer(models.Customer{Name: "Maria Souza", Document: "123.456.789-00", PrimaryPhone: "(11) 98888-1234"})
		svc := NewCustomerService(repo)

		err := svc.CreateCustomer(&models.Customer{
			Name:         "Outra Maria",
			Document:     "123.456.789-00",
			PrimaryPhone: "(11) 97777-0000",
		})
		require.ErrorIs(t, err, ErrConflict)
	})
}

func TestDeleteCustomer(t *testing.T) {
	t.Run("customer with orders is kept", func(t *testing.T) {
		repo := newFakeCustomerRepo()
		repo.deleteErr = repositories.ErrForeignKeyViolation
		svc := NewCustomerService(repo)

		require.ErrorIs(t, svc.DeleteCustomer(1), ErrInUse)
	})

	t.Run("unknown customer", func(t *testing.T) {
		svc := NewCustomerService(newFakeCustomerRepo())
		require.ErrorIs(t, svc.DeleteCustomer(99), ErrNotFound)
	})
}
