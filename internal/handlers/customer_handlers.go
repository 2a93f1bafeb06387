package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"repairshop_backend/internal/models"
	"repairshop_backend/internal/services"
	"repairshop_backend/pkg/utils"
)

// CustomerHandler holds the customer service.
type CustomerHandler struct {
	customerService services.CustomerService
}

// NewCustomerHandler creates a new CustomerHandler.
func NewCustomerHandler(cs services.CustomerService) *CustomerHandler {
	return &CustomerHandler{customerService: cs}
}

func (h *CustomerHandler) CreateCustomer(c *gin.Context) {
	var customer models.Customer
	if err := c.ShouldBindJSON(&customer); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed,
			"Invalid request payload.", err.Error()))
		return
	}
	if err := h.customerService.CreateCustomer(&customer); err != nil {
		respondServiceError(c, err, "CreateCustomer: customerService.CreateCustomer")
		return
	}
	c.JSON(http.StatusCreated, customer)
}

func (h *CustomerHandler) GetCustomers(c *gin.Context) {
	page, pageSize, ok := parsePagination(c)
	if !ok {
		return
	}
	filters := models.CustomerFilters{Page: page, PageSize: pageSize}
	filters.Search = queryString(c, "search")
	filters.ActiveOnly = c.Query("active") == "true"

	customers, totalCount, err := h.customerService.GetCustomers(filters)
	if err != nil {
		respondServiceError(c, err, "GetCustomers: customerService.GetCustomers")
		return
	}
	c.JSON(http.StatusOK, paginatedResponse{Data: customers, TotalCount: totalCount, Page: page, PageSize: pageSize})
}

func (h *CustomerHandler) GetCustomerByID(c *gin.Context) {
	customerID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	customer, err := h.customerService.GetCustomerByID(customerID)
	if err != nil {
		respondServiceError(c, err, "GetCustomerByID: customerService.GetCustomerByID")
		return
	}
	c.JSON(http.StatusOK, customer)
}

func (h *CustomerHandler) UpdateCustomer(c *gin.Context) {
	customerID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var customer models.Customer
	if err := c.ShouldBindJSON(&customer); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed,
			"Invalid request payload.", err.Error()))
		return
	}
	customer.ID = customerID
	if err := h.customerService.UpdateCustomer(&customer); err != nil {
		respondServiceError(c, err, "UpdateCustomer: customerService.UpdateCustomer")
		return
	}
	c.JSON(http.StatusOK, customer)
}

func (h *CustomerHandler) DeleteCustomer(c *gin.Context) {
	customerID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.customerService.DeleteCustomer(customerID); err != nil {
		respondServiceError(c, err, "DeleteCustomer: customerService.DeleteCustomer")
		return
	}
	c.Status(http.StatusNoContent)
}
