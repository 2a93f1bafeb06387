package services

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repairshop_backend/internal/models"
)

type workOrderFixture struct {
	orderRepo    *fakeWorkOrderRepo
	partRepo     *fakePartRepo
	customerRepo *fakeCustomerRepo
	financeRepo  *fakeFinanceRepo
	movementRepo *fakeMovementRepo
	notifier     *fakeNotifier
	beginner     *fakeTxBeginner
	svc          *workOrderService
}

func newWorkOrderFixture() *workOrderFixture {
	orderRepo := newFakeWorkOrderRepo()
	partRepo := newFakePartRepo()
	customerRepo := newFakeCustomerRepo()
	financeRepo := newFakeFinanceRepo()
	movementRepo := &fakeMovementRepo{parts: partRepo}
	notifier := &fakeNotifier{}
	beginner := &fakeTxBeginner{}

	financeSvc := NewFinanceService(financeRepo)
	inventorySvc := NewInventoryService(partRepo, movementRepo, financeSvc, nil)

	svc := &workOrderService{
		db:           beginner,
		orderRepo:    orderRepo,
		partRepo:     partRepo,
		customerRepo: customerRepo,
		inventorySvc: inventorySvc,
		financeSvc:   financeSvc,
		notifier:     notifier,
		company:      CompanyConfig{Name: "TecnoFix", Phone: "(11) 99999-0000"},
	}
	return &workOrderFixture{
		orderRepo:    orderRepo,
		partRepo:     partRepo,
		customerRepo: customerRepo,
		financeRepo:  financeRepo,
		movementRepo: movementRepo,
		notifier:     notifier,
		beginner:     beginner,
		svc:          svc,
	}
}

func TestCreateWorkOrderValidation(t *testing.T) {
	line := OrderLineRequest{PartID: 1, Quantity: 1}
	valid := CreateWorkOrderRequest{
		CustomerID:     1,
		EquipmentType:  models.EquipmentLaptop,
		Brand:          "Dell",
		Model:          "Inspiron 15",
		ReportedDefect: "Nao liga",
		Lines:          []OrderLineRequest{line},
	}

	t.Run("unknown equipment type", func(t *testing.T) {
		fix := newWorkOrderFixture()
		req := valid
		req.EquipmentType = "geladeira"
		_, err := fix.svc.CreateWorkOrder(req, 1)
		require.ErrorIs(t, err, ErrValidation)
	})

	t.Run("requires at least one line", func(t *testing.T) {
		fix := newWorkOrderFixture()
		req := valid
		req.Lines = nil
		_, err := fix.svc.CreateWorkOrder(req, 1)
		require.ErrorIs(t, err, ErrValidation)
	})

	t.Run("unknown priority", func(t *testing.T) {
		fix := newWorkOrderFixture()
		req := valid
		req.Priority = "critica"
		_, err := fix.svc.CreateWorkOrder(req, 1)
		require.ErrorIs(t, err, ErrValidation)
	})

	t.Run("unknown customer", func(t *testing.T) {
		fix := newWorkOrderFixture()
		_, err := fix.svc.CreateWorkOrder(valid, 1)
		require.ErrorIs(t, err, ErrNotFound)
	})
}

func TestCreateWorkOrder(t *testing.T) {
	setup := func() (*workOrderFixture, *models.Part, CreateWorkOrderRequest) {
		fix := newWorkOrderFixture()
		customer := fix.customerRepo.addCustomer(models.Customer{Name: "Maria Silva", Active: true})
		part := fix.partRepo.addPart(models.Part{
			InternalCode: "TEL-042",
			Name:         "Tela LED 15.6",
			LastCost:     decimal.NewFromInt(80),
			SalePrice:    decimal.NewFromInt(120),
			Active:       true,
		}, 10)
		req := CreateWorkOrderRequest{
			CustomerID:     customer.ID,
			EquipmentType:  models.EquipmentLaptop,
			Brand:          "Dell",
			Model:          "Inspiron 15",
			ReportedDefect: "Tela trincada",
			LaborValue:     decimal.NewFromInt(150),
			Discount:       decimal.NewFromInt(10),
			Lines:          []OrderLineRequest{{PartID: part.ID, Quantity: 2}},
		}
		return fix, part, req
	}

	t.Run("persists priced order with stock and ledger effects", func(t *testing.T) {
		fix, part, req := setup()

		order, err := fix.svc.CreateWorkOrder(req, 7)
		require.NoError(t, err)

		assert.Equal(t, "OS-000001", order.OrderNumber)
		assert.Equal(t, models.StatusReceived, order.Status)
		assert.True(t, order.PartsValue.Equal(decimal.NewFromInt(240)), "parts value %s", order.PartsValue)
		assert.True(t, order.TotalValue.Equal(decimal.NewFromInt(380)), "total value %s", order.TotalValue)
		require.Len(t, order.PartUsages, 1)
		assert.True(t, order.PartUsages[0].UnitPrice.Equal(decimal.NewFromInt(120)),
			"unit price %s", order.PartUsages[0].UnitPrice)

		assert.Equal(t, 8, fix.partRepo.stock[part.ID])
		require.Len(t, fix.movementRepo.movements, 1)
		movement := fix.movementRepo.movements[0]
		assert.Equal(t, models.MovementOut, movement.Kind)
		assert.True(t, movement.UnitValue.Equal(part.SalePrice), "unit value %s", movement.UnitValue)
		require.NotNil(t, movement.WorkOrderID)
		assert.Equal(t, order.ID, *movement.WorkOrderID)

		require.Len(t, fix.financeRepo.transactions, 1)
		expense := fix.financeRepo.transactions[0]
		assert.True(t, expense.Amount.Equal(decimal.NewFromInt(160)), "amount %s", expense.Amount)
		assert.Equal(t, "Pecas OS OS-000001: Tela LED 15.6 x2", expense.Description)

		require.Len(t, fix.orderRepo.history, 1)
		entry := fix.orderRepo.history[0]
		assert.Equal(t, models.StatusReceived, entry.NewStatus)
		assert.Nil(t, entry.PreviousStatus)
		assert.Equal(t, int64(7), entry.UserID)

		require.Len(t, fix.notifier.events, 1)
		assert.Equal(t, EventEntry, fix.notifier.events[0].event)

		tx := fix.beginner.lastTx(t)
		assert.True(t, tx.committed)
		assert.False(t, tx.rolledBack)
	})

	t.Run("insufficient stock rolls back", func(t *testing.T) {
		fix, _, req := setup()
		req.Lines[0].Quantity = 50

		_, err := fix.svc.CreateWorkOrder(req, 7)
		require.ErrorIs(t, err, ErrInsufficientStock)

		tx := fix.beginner.lastTx(t)
		assert.False(t, tx.committed)
		assert.True(t, tx.rolledBack)
		assert.Empty(t, fix.notifier.events)
	})

	t.Run("failed expense posting rolls back", func(t *testing.T) {
		fix, _, req := setup()
		fix.financeRepo.createTransactionErr = fmt.Errorf("connection reset")

		_, err := fix.svc.CreateWorkOrder(req, 7)
		require.Error(t, err)

		tx := fix.beginner.lastTx(t)
		assert.False(t, tx.committed)
		assert.True(t, tx.rolledBack)
		assert.Empty(t, fix.notifier.events)
	})
}

func TestUpdateWorkOrder(t *testing.T) {
	setup := func() (*workOrderFixture, *models.WorkOrder, *models.Part, *models.PartUsage) {
		fix := newWorkOrderFixture()
		part := fix.partRepo.addPart(models.Part{
			InternalCode: "TEL-042",
			Name:         "Tela LED 15.6",
			LastCost:     decimal.NewFromInt(80),
			SalePrice:    decimal.NewFromInt(120),
			Active:       true,
		}, 10)
		order := fix.orderRepo.addOrder(models.WorkOrder{
			OrderNumber:   "OS-000001",
			EquipmentType: models.EquipmentLaptop,
			Status:        models.StatusInRepair,
		})
		usage := fix.orderRepo.addUsage(models.PartUsage{
			WorkOrderID: order.ID,
			PartID:      part.ID,
			Quantity:    2,
			UnitPrice:   decimal.NewFromInt(120),
			LineTotal:   decimal.NewFromInt(240),
		})
		return fix, order, part, usage
	}

	request := func(part *models.Part, usage *models.PartUsage, status string, quantity int) UpdateWorkOrderRequest {
		return UpdateWorkOrderRequest{
			EquipmentType:  models.EquipmentLaptop,
			Brand:          "Dell",
			Model:          "Inspiron 15",
			ReportedDefect: "Tela trincada",
			Status:         status,
			LaborValue:     decimal.NewFromInt(150),
			Discount:       decimal.NewFromInt(10),
			Lines:          []OrderLineRequest{{ID: &usage.ID, PartID: part.ID, Quantity: quantity}},
		}
	}

	t.Run("recomputes totals from the reconciled lines", func(t *testing.T) {
		fix, order, part, usage := setup()

		updated, err := fix.svc.UpdateWorkOrder(order.ID, request(part, usage, models.StatusInRepair, 3), 7)
		require.NoError(t, err)

		assert.True(t, updated.PartsValue.Equal(decimal.NewFromInt(360)), "parts value %s", updated.PartsValue)
		assert.True(t, updated.TotalValue.Equal(decimal.NewFromInt(500)), "total value %s", updated.TotalValue)
		assert.Equal(t, 9, fix.partRepo.stock[part.ID])

		// Status unchanged, so no history row and no notification.
		assert.Empty(t, fix.orderRepo.history)
		assert.Empty(t, fix.notifier.events)

		tx := fix.beginner.lastTx(t)
		assert.True(t, tx.committed)
	})

	t.Run("status change writes history and notifies", func(t *testing.T) {
		fix, order, part, usage := setup()

		updated, err := fix.svc.UpdateWorkOrder(order.ID, request(part, usage, models.StatusDone, 2), 7)
		require.NoError(t, err)
		assert.Equal(t, models.StatusDone, updated.Status)

		require.Len(t, fix.orderRepo.history, 1)
		entry := fix.orderRepo.history[0]
		require.NotNil(t, entry.PreviousStatus)
		assert.Equal(t, models.StatusInRepair, *entry.PreviousStatus)
		assert.Equal(t, models.StatusDone, entry.NewStatus)

		require.Len(t, fix.notifier.events, 1)
		assert.Equal(t, EventCompletion, fix.notifier.events[0].event)

		tx := fix.beginner.lastTx(t)
		assert.True(t, tx.committed)
	})

	t.Run("line failure rolls back", func(t *testing.T) {
		fix, order, part, usage := setup()

		_, err := fix.svc.UpdateWorkOrder(order.ID, request(part, usage, models.StatusInRepair, 50), 7)
		require.ErrorIs(t, err, ErrInsufficientStock)

		tx := fix.beginner.lastTx(t)
		assert.False(t, tx.committed)
		assert.True(t, tx.rolledBack)
	})
}

func TestReconcileLines(t *testing.T) {
	setup := func() (*workOrderFixture, *models.WorkOrder, *models.Part, *models.PartUsage) {
		fix := newWorkOrderFixture()
		part := fix.partRepo.addPart(models.Part{
			InternalCode: "TEL-042",
			Name:         "Tela LED 15.6",
			LastCost:     decimal.NewFromInt(80),
			SalePrice:    decimal.NewFromInt(120),
			Active:       true,
		}, 10)
		order := fix.orderRepo.addOrder(models.WorkOrder{
			OrderNumber: "OS-000001",
			Status:      models.StatusInRepair,
		})
		usage := fix.orderRepo.addUsage(models.PartUsage{
			WorkOrderID: order.ID,
			PartID:      part.ID,
			Quantity:    2,
			UnitPrice:   decimal.NewFromInt(50),
			LineTotal:   decimal.NewFromInt(100),
		})
		return fix, order, part, usage
	}

	t.Run("quantity increase consumes the difference", func(t *testing.T) {
		fix, order, part, usage := setup()
		existing, err := fix.orderRepo.GetPartUsagesByOrderID(nil, order.ID)
		require.NoError(t, err)

		final, err := fix.svc.reconcileLines(nil, order, existing, []OrderLineRequest{
			{ID: &usage.ID, PartID: part.ID, Quantity: 5},
		}, 1)
		require.NoError(t, err)
		assert.Equal(t, 7, fix.partRepo.stock[part.ID])

		require.Len(t, fix.movementRepo.movements, 1)
		m := fix.movementRepo.movements[0]
		assert.Equal(t, models.MovementOut, m.Kind)
		assert.Equal(t, 3, m.Quantity)
		assert.True(t, m.UnitValue.Equal(part.SalePrice), "unit value %s", m.UnitValue)
		require.NotNil(t, m.WorkOrderID)
		assert.Equal(t, order.ID, *m.WorkOrderID)

		// Frozen unit price survives the quantity change.
		require.Len(t, final, 1)
		assert.True(t, final[0].UnitPrice.Equal(decimal.NewFromInt(50)), "unit price %s", final[0].UnitPrice)
		assert.True(t, final[0].LineTotal.Equal(decimal.NewFromInt(250)), "line total %s", final[0].LineTotal)
	})

	t.Run("quantity decrease restores the difference", func(t *testing.T) {
		fix, order, part, usage := setup()
		existing, err := fix.orderRepo.GetPartUsagesByOrderID(nil, order.ID)
		require.NoError(t, err)

		_, err = fix.svc.reconcileLines(nil, order, existing, []OrderLineRequest{
			{ID: &usage.ID, PartID: part.ID, Quantity: 1},
		}, 1)
		require.NoError(t, err)
		assert.Equal(t, 11, fix.partRepo.stock[part.ID])

		require.Len(t, fix.movementRepo.movements, 1)
		m := fix.movementRepo.movements[0]
		assert.Equal(t, models.MovementIn, m.Kind)
		assert.Equal(t, 1, m.Quantity)

		// The restore carries no unit value, so cost and price stay put.
		stored := fix.partRepo.parts[part.ID]
		assert.True(t, stored.LastCost.Equal(decimal.NewFromInt(80)), "last cost %s", stored.LastCost)
		assert.True(t, stored.SalePrice.Equal(decimal.NewFromInt(120)), "sale price %s", stored.SalePrice)
		assert.Empty(t, fix.financeRepo.transactions, "restores must not post expenses")
	})

	t.Run("removed line restores stock and deletes the usage", func(t *testing.T) {
		fix, order, part, usage := setup()
		existing, err := fix.orderRepo.GetPartUsagesByOrderID(nil, order.ID)
		require.NoError(t, err)

		final, err := fix.svc.reconcileLines(nil, order, existing, nil, 1)
		require.NoError(t, err)
		assert.Empty(t, final)
		assert.Equal(t, 12, fix.partRepo.stock[part.ID])
		assert.Equal(t, []int64{usage.ID}, fix.orderRepo.deletedUsageIDs)
	})

	t.Run("new line freezes sale price and posts the cost", func(t *testing.T) {
		fix, order, part, usage := setup()
		existing, err := fix.orderRepo.GetPartUsagesByOrderID(nil, order.ID)
		require.NoError(t, err)

		final, err := fix.svc.reconcileLines(nil, order, existing, []OrderLineRequest{
			{ID: &usage.ID, PartID: part.ID, Quantity: 2},
			{PartID: part.ID, Quantity: 2},
		}, 1)
		require.NoError(t, err)
		require.Len(t, final, 2)

		added := final[1]
		assert.True(t, added.UnitPrice.Equal(decimal.NewFromInt(120)), "unit price %s", added.UnitPrice)
		assert.True(t, added.LineTotal.Equal(decimal.NewFromInt(240)), "line total %s", added.LineTotal)
		assert.Equal(t, 8, fix.partRepo.stock[part.ID])

		require.Len(t, fix.financeRepo.transactions, 1)
		posted := fix.financeRepo.transactions[0]
		assert.True(t, posted.Amount.Equal(decimal.NewFromInt(160)), "amount %s", posted.Amount)
		assert.Equal(t, "Pecas OS OS-000001: Tela LED 15.6 x2", posted.Description)
	})

	t.Run("rejects usage of another order", func(t *testing.T) {
		fix, order, part, _ := setup()
		other := fix.orderRepo.addOrder(models.WorkOrder{OrderNumber: "OS-000002"})
		foreign := fix.orderRepo.addUsage(models.PartUsage{
			WorkOrderID: other.ID,
			PartID:      part.ID,
			Quantity:    1,
		})
		existing, err := fix.orderRepo.GetPartUsagesByOrderID(nil, order.ID)
		require.NoError(t, err)

		_, err = fix.svc.reconcileLines(nil, order, existing, []OrderLineRequest{
			{ID: &foreign.ID, PartID: part.ID, Quantity: 1},
		}, 1)
		require.ErrorIs(t, err, ErrValidation)
	})

	t.Run("insufficient stock surfaces", func(t *testing.T) {
		fix, order, part, usage := setup()
		existing, err := fix.orderRepo.GetPartUsagesByOrderID(nil, order.ID)
		require.NoError(t, err)

		_, err = fix.svc.reconcileLines(nil, order, existing, []OrderLineRequest{
			{ID: &usage.ID, PartID: part.ID, Quantity: 50},
		}, 1)
		require.ErrorIs(t, err, ErrInsufficientStock)
	})
}

func TestApplyStatusEffects(t *testing.T) {
	t.Run("milestones are set once", func(t *testing.T) {
		fix := newWorkOrderFixture()
		earlier := time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)
		order := &models.WorkOrder{
			ID:             1,
			OrderNumber:    "OS-000001",
			Status:         models.StatusEvaluating,
			EvaluationDate: &earlier,
		}
		require.NoError(t, fix.svc.applyStatusEffects(nil, order, 1))
		assert.True(t, order.EvaluationDate.Equal(earlier), "evaluation date rewritten to %s", order.EvaluationDate)

		order.Status = models.StatusApproved
		require.NoError(t, fix.svc.applyStatusEffects(nil, order, 1))
		assert.NotNil(t, order.ApprovalDate)
	})

	t.Run("delivery sets dates and posts revenue once", func(t *testing.T) {
		fix := newWorkOrderFixture()
		order := &models.WorkOrder{
			ID:           1,
			OrderNumber:  "OS-000001",
			Status:       models.StatusDelivered,
			TotalValue:   decimal.NewFromInt(400),
			WarrantyDays: 90,
		}
		require.NoError(t, fix.svc.applyStatusEffects(nil, order, 1))
		require.NotNil(t, order.DeliveryDate)
		require.NotNil(t, order.WarrantyEndDate)
		assert.True(t, order.WarrantyEndDate.Equal(order.DeliveryDate.AddDate(0, 0, 90)),
			"warranty end %s", order.WarrantyEndDate)
		assert.Len(t, fix.financeRepo.transactions, 1)

		firstDelivery := *order.DeliveryDate
		require.NoError(t, fix.svc.applyStatusEffects(nil, order, 1))
		assert.True(t, order.DeliveryDate.Equal(firstDelivery), "delivery date rewritten to %s", order.DeliveryDate)
		assert.Len(t, fix.financeRepo.transactions, 1, "revenue must not double post")
	})

	t.Run("no warranty end without warranty days", func(t *testing.T) {
		fix := newWorkOrderFixture()
		order := &models.WorkOrder{
			ID:          1,
			OrderNumber: "OS-000001",
			Status:      models.StatusDelivered,
			TotalValue:  decimal.NewFromInt(100),
		}
		require.NoError(t, fix.svc.applyStatusEffects(nil, order, 1))
		assert.Nil(t, order.WarrantyEndDate)
	})
}

func TestStatusEvent(t *testing.T) {
	cases := map[string]string{
		models.StatusAwaitingApproval: EventEvaluation,
		models.StatusApproved:         EventApproval,
		models.StatusDone:             EventCompletion,
		models.StatusDelivered:        EventDelivery,
		models.StatusReceived:         "",
		models.StatusInRepair:         "",
		models.StatusCancelled:        "",
	}
	for status, want := range cases {
		assert.Equal(t, want, statusEvent(status), "status %q", status)
	}
}

func TestNextOrderNumberUniqueUnderConcurrency(t *testing.T) {
	repo := newFakeWorkOrderRepo()
	const creates = 50

	numbers := make(chan string, creates)
	var wg sync.WaitGroup
	for i := 0; i < creates; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			number, err := repo.NextOrderNumber(nil)
			assert.NoError(t, err)
			numbers <- number
		}()
	}
	wg.Wait()
	close(numbers)

	seen := make(map[string]bool, creates)
	for number := range numbers {
		assert.False(t, seen[number], "duplicate order number %s", number)
		seen[number] = true
	}
	require.Len(t, seen, creates)
}
