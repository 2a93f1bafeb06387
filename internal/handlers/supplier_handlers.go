package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"repairshop_backend/internal/models"
	"repairshop_backend/internal/services"
	"repairshop_backend/pkg/utils"
)

// SupplierHandler holds the supplier service.
type SupplierHandler struct {
	supplierService services.SupplierService
}

// NewSupplierHandler creates a new SupplierHandler.
func NewSupplierHandler(ss services.SupplierService) *SupplierHandler {
	return &SupplierHandler{supplierService: ss}
}

func (h *SupplierHandler) CreateSupplier(c *gin.Context) {
	var supplier models.Supplier
	if err := c.ShouldBindJSON(&supplier); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed,
			"Invalid request payload.", err.Error()))
		return
	}
	if err := h.supplierService.CreateSupplier(&supplier); err != nil {
		respondServiceError(c, err, "CreateSupplier: supplierService.CreateSupplier")
		return
	}
	c.JSON(http.StatusCreated, supplier)
}

func (h *SupplierHandler) GetSuppliers(c *gin.Context) {
	page, pageSize, ok := parsePagination(c)
	if !ok {
		return
	}
	filters := models.SupplierFilters{Page: page, PageSize: pageSize}
	filters.Search = queryString(c, "search")
	filters.ActiveOnly = c.Query("active") == "true"

	suppliers, totalCount, err := h.supplierService.GetSuppliers(filters)
	if err != nil {
		respondServiceError(c, err, "GetSuppliers: supplierService.GetSuppliers")
		return
	}
	c.JSON(http.StatusOK, paginatedResponse{Data: suppliers, TotalCount: totalCount, Page: page, PageSize: pageSize})
}

func (h *SupplierHandler) GetSupplierByID(c *gin.Context) {
	supplierID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	supplier, err := h.supplierService.GetSupplierByID(supplierID)
	if err != nil {
		respondServiceError(c, err, "GetSupplierByID: supplierService.GetSupplierByID")
		return
	}
	c.JSON(http.StatusOK, supplier)
}

func (h *SupplierHandler) UpdateSupplier(c *gin.Context) {
	supplierID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var supplier models.Supplier
	if err := c.ShouldBindJSON(&supplier); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed,
			"Invalid request payload.", err.Error()))
		return
	}
	supplier.ID = supplierID
	if err := h.supplierService.UpdateSupplier(&supplier); err != nil {
		respondServiceError(c, err, "UpdateSupplier: supplierService.UpdateSupplier")
		return
	}
	c.JSON(http.StatusOK, supplier)
}

func (h *SupplierHandler) DeleteSupplier(c *gin.Context) {
	supplierID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.supplierService.DeleteSupplier(supplierID); err != nil {
		respondServiceError(c, err, "DeleteSupplier: supplierService.DeleteSupplier")
		return
	}
	c.Status(http.StatusNoContent)
}
