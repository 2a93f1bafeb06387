package services

import (
	"fmt"
	"time"

	"repairshop_backend/internal/models"
	"repairshop_backend/internal/repositories"
)

// DashboardSummary is the landing-page snapshot.
type DashboardSummary struct {
	OpenOrders       int `json:"ordens_abertas"`
	AwaitingApproval int `json:"aguardando_aprovacao"`
	InRepair         int `json:"em_reparo"`
	OverdueOrders    int `json:"ordens_atrasadas"`
	LowStockParts    int `json:"pecas_estoque_baixo"`
	MonthOrders      int `json:"ordens_mes"`
	ActiveCustomers  int `json:"clientes_ativos"`
}

// ReportService aggregates cross-module counters for the dashboard.
type ReportService interface {
	GetDashboardSummary() (*DashboardSummary, error)
}

type reportService struct {
	orderRepo    repositories.WorkOrderRepository
	partRepo     repositories.PartRepository
	customerRepo repositories.CustomerRepository
}

// NewReportService creates a new instance of ReportService.
func NewReportService(
	or repositories.WorkOrderRepository,
	pr repositories.PartRepository,
	cr repositories.CustomerRepository,
) ReportService {
	return &reportService{orderRepo: or, partRepo: pr, customerRepo: cr}
}

func (s *reportService) GetDashboardSummary() (*DashboardSummary, error) {
	open, err := s.orderRepo.CountByStatuses(
		models.StatusReceived, models.StatusEvaluating, models.StatusAwaitingApproval,
		models.StatusApproved, models.StatusInRepair, models.StatusDone,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to count open orders: %w", err)
	}
	awaiting, err := s.orderRepo.CountByStatuses(models.StatusAwaitingApproval)
	if err != nil {
		return nil, fmt.Errorf("failed to count orders awaiting approval: %w", err)
	}
	inRepair, err := s.orderRepo.CountByStatuses(models.StatusInRepair)
	if err != nil {
		return nil, fmt.Errorf("failed to count orders in repair: %w", err)
	}
	now := time.Now()
	overdue, err := s.orderRepo.CountOverdue(now.Truncate(24 * time.Hour))
	if err != nil {
		return nil, fmt.Errorf("failed to count overdue orders: %w", err)
	}
	lowStock, err := s.partRepo.CountLowStock()
	if err != nil {
		return nil, fmt.Errorf("failed to count low stock parts: %w", err)
	}
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	monthOrders, err := s.orderRepo.CountEnteredSince(monthStart)
	if err != nil {
		return nil, fmt.Errorf("failed to count month orders: %w", err)
	}
	customers, err := s.customerRepo.CountActive()
	if err != nil {
		return nil, fmt.Errorf("failed to count active customers: %w", err)
	}

	return &DashboardSummary{
		OpenOrders:       open,
		AwaitingApproval: awaiting,
		InRepair:         inRepair,
		OverdueOrders:    overdue,
		LowStockParts:    lowStock,
		MonthOrders:      monthOrders,
		ActiveCustomers:  customers,
	}, nil
}
