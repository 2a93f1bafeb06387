package router

import (
	"database/sql"

	"github.com/gin-gonic/gin"

	"repairshop_backend/internal/handlers"
	"repairshop_backend/internal/middleware"
	"repairshop_backend/internal/repositories"
	"repairshop_backend/internal/services"
)

// Setup wires repositories, services and handlers and registers every route
// under /api/v1.
func Setup(engine *gin.Engine, db *sql.DB, company services.CompanyConfig) {
	userRepo := repositories.NewUserRepository(db)
	customerRepo := repositories.NewCustomerRepository(db)
	supplierRepo := repositories.NewSupplierRepository(db)
	partRepo := repositories.NewPartRepository(db)
	movementRepo := repositories.NewStockMovementRepository(db)
	financeRepo := repositories.NewFinanceRepository(db)
	workOrderRepo := repositories.NewWorkOrderRepository(db)

	authService := services.NewAuthService(userRepo)
	customerService := services.NewCustomerService(customerRepo)
	supplierService := services.NewSupplierService(supplierRepo)
	financeService := services.NewFinanceService(financeRepo)
	inventoryService := services.NewInventoryService(partRepo, movementRepo, financeService, db)
	notifier := services.NewLogNotifier()
	workOrderService := services.NewWorkOrderService(
		workOrderRepo, partRepo, customerRepo, inventoryService, financeService, notifier, company, db)
	reportService := services.NewReportService(workOrderRepo, partRepo, customerRepo)

	authHandler := handlers.NewAuthHandler(authService)
	customerHandler := handlers.NewCustomerHandler(customerService)
	supplierHandler := handlers.NewSupplierHandler(supplierService)
	inventoryHandler := handlers.NewInventoryHandler(inventoryService)
	workOrderHandler := handlers.NewWorkOrderHandler(workOrderService)
	financeHandler := handlers.NewFinanceHandler(financeService)
	dashboardHandler := handlers.NewDashboardHandler(reportService)

	apiV1 := engine.Group("/api/v1")

	SetupPublicAuthRoutes(apiV1.Group("/auth"), authHandler)

	authenticated := apiV1.Group("")
	authenticated.Use(middleware.AuthMiddleware())
	{
		SetupAuthenticatedAuthRoutes(authenticated.Group("/auth"), authHandler)
		SetupCustomerRoutes(authenticated, customerHandler)
		SetupSupplierRoutes(authenticated, supplierHandler)
		SetupInventoryRoutes(authenticated, inventoryHandler)
		SetupWorkOrderRoutes(authenticated, workOrderHandler)
		SetupFinanceRoutes(authenticated, financeHandler)
		SetupDashboardRoutes(authenticated, dashboardHandler)
	}
}
