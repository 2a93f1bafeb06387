package router

import (
	"github.com/gin-gonic/gin"

	"repairshop_backend/internal/handlers"
	"repairshop_backend/internal/middleware"
	"repairshop_backend/internal/models"
)

// SetupPublicAuthRoutes sets up the unauthenticated auth routes.
func SetupPublicAuthRoutes(group *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	group.POST("/login", authHandler.Login)
	group.POST("/refresh-token", authHandler.RefreshToken)
}

// SetupAuthenticatedAuthRoutes sets up the auth routes behind the JWT check.
func SetupAuthenticatedAuthRoutes(group *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	group.GET("/me", authHandler.Profile)
	group.POST("/register", middleware.RoleAuthMiddleware(models.RoleAdmin), authHandler.Register)
	group.GET("/users", middleware.RoleAuthMiddleware(models.RoleAdmin), authHandler.GetUsers)
	group.GET("/technicians", authHandler.GetTechnicians)
}

// SetupCustomerRoutes sets up the customer routes.
func SetupCustomerRoutes(authenticatedGroup *gin.RouterGroup, customerHandler *handlers.CustomerHandler) {
	customerRoutes := authenticatedGroup.Group("/customers")
	{
		customerRoutes.POST("", customerHandler.CreateCustomer)
		customerRoutes.GET("", customerHandler.GetCustomers)
		customerRoutes.GET("/:id", customerHandler.GetCustomerByID)
		customerRoutes.PUT("/:id", customerHandler.UpdateCustomer)
		customerRoutes.DELETE("/:id", middleware.RoleAuthMiddleware(models.RoleAdmin), customerHandler.DeleteCustomer)
	}
}

// SetupSupplierRoutes sets up the supplier routes.
func SetupSupplierRoutes(authenticatedGroup *gin.RouterGroup, supplierHandler *handlers.SupplierHandler) {
	supplierRoutes := authenticatedGroup.Group("/suppliers")
	{
		supplierRoutes.POST("", supplierHandler.CreateSupplier)
		supplierRoutes.GET("", supplierHandler.GetSuppliers)
		supplierRoutes.GET("/:id", supplierHandler.GetSupplierByID)
		supplierRoutes.PUT("/:id", supplierHandler.UpdateSupplier)
		supplierRoutes.DELETE("/:id", middleware.RoleAuthMiddleware(models.RoleAdmin), supplierHandler.DeleteSupplier)
	}
}

// SetupInventoryRoutes sets up the part catalog and stock movement routes.
func SetupInventoryRoutes(authenticatedGroup *gin.RouterGroup, inventoryHandler *handlers.InventoryHandler) {
	categoryRoutes := authenticatedGroup.Group("/part-categories")
	{
		categoryRoutes.POST("", inventoryHandler.CreateCategory)
		categoryRoutes.GET("", inventoryHandler.GetCategories)
		categoryRoutes.GET("/:id", inventoryHandler.GetCategoryByID)
		categoryRoutes.PUT("/:id", inventoryHandler.UpdateCategory)
		categoryRoutes.DELETE("/:id", middleware.RoleAuthMiddleware(models.RoleAdmin), inventoryHandler.DeleteCategory)
	}

	partRoutes := authenticatedGroup.Group("/parts")
	{
		partRoutes.POST("", inventoryHandler.CreatePart)
		partRoutes.GET("", inventoryHandler.GetParts)
		partRoutes.GET("/:id", inventoryHandler.GetPartByID)
		partRoutes.PUT("/:id", inventoryHandler.UpdatePart)
		partRoutes.DELETE("/:id", middleware.RoleAuthMiddleware(models.RoleAdmin), inventoryHandler.DeletePart)
	}

	movementRoutes := authenticatedGroup.Group("/stock-movements")
	{
		movementRoutes.POST("", inventoryHandler.CreateMovement)
		movementRoutes.GET("", inventoryHandler.GetMovements)
		movementRoutes.POST("/invoice", inventoryHandler.ImportInvoice)
	}
}

// SetupWorkOrderRoutes sets up the work order routes.
func SetupWorkOrderRoutes(authenticatedGroup *gin.RouterGroup, workOrderHandler *handlers.WorkOrderHandler) {
	orderRoutes := authenticatedGroup.Group("/work-orders")
	{
		orderRoutes.POST("", workOrderHandler.CreateWorkOrder)
		orderRoutes.GET("", workOrderHandler.GetWorkOrders)
		orderRoutes.GET("/:id", workOrderHandler.GetWorkOrderByID)
		orderRoutes.PUT("/:id", workOrderHandler.UpdateWorkOrder)
		orderRoutes.PATCH("/:id/status", workOrderHandler.ChangeStatus)
		orderRoutes.GET("/:id/history", workOrderHandler.GetStatusHistory)
	}
}

// SetupFinanceRoutes sets up the finance routes.
func SetupFinanceRoutes(authenticatedGroup *gin.RouterGroup, financeHandler *handlers.FinanceHandler) {
	financeRoutes := authenticatedGroup.Group("/finance")
	financeRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleAttendant))
	{
		financeRoutes.POST("/categories", financeHandler.CreateCategory)
		financeRoutes.GET("/categories", financeHandler.GetCategories)
		financeRoutes.GET("/categories/:id", financeHandler.GetCategoryByID)
		financeRoutes.PUT("/categories/:id", financeHandler.UpdateCategory)
		financeRoutes.DELETE("/categories/:id", financeHandler.DeleteCategory)

		financeRoutes.POST("/transactions", financeHandler.CreateTransaction)
		financeRoutes.GET("/transactions", financeHandler.GetTransactions)
		financeRoutes.GET("/transactions/:id", financeHandler.GetTransactionByID)
		financeRoutes.PUT("/transactions/:id", financeHandler.UpdateTransaction)
		financeRoutes.PATCH("/transactions/:id/pay", financeHandler.PayTransaction)
		financeRoutes.DELETE("/transactions/:id", financeHandler.CancelTransaction)

		financeRoutes.POST("/accounts", financeHandler.CreateAccount)
		financeRoutes.GET("/accounts", financeHandler.GetAccounts)
		financeRoutes.GET("/accounts/:id", financeHandler.GetAccountByID)
		financeRoutes.PUT("/accounts/:id", financeHandler.UpdateAccount)
		financeRoutes.DELETE("/accounts/:id", financeHandler.DeleteAccount)

		financeRoutes.GET("/summary", financeHandler.GetSummary)
	}
}

// SetupDashboardRoutes sets up the dashboard routes.
func SetupDashboardRoutes(authenticatedGroup *gin.RouterGroup, dashboardHandler *handlers.DashboardHandler) {
	dashboardRoutes := authenticatedGroup.Group("/dashboard")
	{
		dashboardRoutes.GET("/summary", dashboardHandler.GetSummary)
	}
}
