package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repairshop_backend/internal/models"
)

func TestGetDashboardSummary(t *testing.T) {
	orderRepo := newFakeWorkOrderRepo()
	partRepo := newFakePartRepo()
	customerRepo := newFakeCustomerRepo()

	now := time.Now()
	pastDue := now.AddDate(0, 0, -10)
	lastYear := now.AddDate(-1, 0, 0)

	orderRepo.addOrder(models.WorkOrder{Status: models.StatusReceived, EntryDate: now})
	orderRepo.addOrder(models.WorkOrder{Status: models.StatusAwaitingApproval, EntryDate: now})
	orderRepo.addOrder(models.WorkOrder{Status: models.StatusInRepair, EntryDate: now, EstimatedDate: &pastDue})
	orderRepo.addOrder(models.WorkOrder{Status: models.StatusDelivered, EntryDate: lastYear})
	orderRepo.addOrder(models.WorkOrder{Status: models.StatusCancelled, EntryDate: lastYear})

	partRepo.addPart(models.Part{InternalCode: "CAP-001", Name: "Capacitor", MinimumStock: 5, Active: true}, 2)
	partRepo.addPart(models.Part{InternalCode: "FON-010", Name: "Fonte", MinimumStock: 2, Active: true}, 8)
	partRepo.addPart(models.Part{InternalCode: "OBS-099", Name: "Obsoleta", MinimumStock: 5, Active: false}, 0)

	customerRepo.addCustomer(models.Customer{Name: "Maria", Document: "1", PrimaryPhone: "1", Active: true})
	customerRepo.addCustomer(models.Customer{Name: "Jose", Document: "2", PrimaryPhone: "2", Active: false})

	svc := NewReportService(orderRepo, partRepo, customerRepo)
	summary, err := svc.GetDashboardSummary()
	require.NoError(t, err)

	assert.Equal(t, 3, summary.OpenOrders)
	assert.Equal(t, 1, summary.AwaitingApproval)
	assert.Equal(t, 1, summary.InRepair)
	assert.Equal(t, 1, summary.OverdueOrders)
	assert.Equal(t, 1, summary.LowStockParts)
	assert.GreaterOrEqual(t, summary.MonthOrders, 3)
	assert.Equal(t, 1, summary.ActiveCustomers)
}
