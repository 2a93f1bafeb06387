package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"repairshop_backend/internal/models"
	"repairshop_backend/internal/services"
	"repairshop_backend/pkg/utils"
)

// InventoryHandler holds the inventory service.
type InventoryHandler struct {
	inventoryService services.InventoryService
}

// NewInventoryHandler creates a new InventoryHandler.
func NewInventoryHandler(is services.InventoryService) *InventoryHandler {
	return &InventoryHandler{inventoryService: is}
}

// --- Part categories ---

func (h *InventoryHandler) CreateCategory(c *gin.Context) {
	var category models.PartCategory
	if err := c.ShouldBindJSON(&category); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed,
			"Invalid request payload.", err.Error()))
		return
	}
	if err := h.inventoryService.CreateCategory(&category); err != nil {
		respondServiceError(c, err, "CreateCategory: inventoryService.CreateCategory")
		return
	}
	c.JSON(http.StatusCreated, category)
}

func (h *InventoryHandler) GetCategories(c *gin.Context) {
	page, pageSize, ok := parsePagination(c)
	if !ok {
		return
	}
	categories, totalCount, err := h.inventoryService.GetCategories(page, pageSize)
	if err != nil {
		respondServiceError(c, err, "GetCategories: inventoryService.GetCategories")
		return
	}
	c.JSON(http.StatusOK, paginatedResponse{Data: categories, TotalCount: totalCount, Page: page, PageSize: pageSize})
}

func (h *InventoryHandler) GetCategoryByID(c *gin.Context) {
	categoryID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	category, err := h.inventoryService.GetCategoryByID(categoryID)
	if err != nil {
		respondServiceError(c, err, "GetCategoryByID: inventoryService.GetCategoryByID")
		return
	}
	c.JSON(http.StatusOK, category)
}

func (h *InventoryHandler) UpdateCategory(c *gin.Context) {
	categoryID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var category models.PartCategory
	if err := c.ShouldBindJSON(&category); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed,
			"Invalid request payload.", err.Error()))
		return
	}
	category.ID = categoryID
	if err := h.inventoryService.UpdateCategory(&category); err != nil {
		respondServiceError(c, err, "UpdateCategory: inventoryService.UpdateCategory")
		return
	}
	c.JSON(http.StatusOK, category)
}

func (h *InventoryHandler) DeleteCategory(c *gin.Context) {
	categoryID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.inventoryService.DeleteCategory(categoryID); err != nil {
		respondServiceError(c, err, "DeleteCategory: inventoryService.DeleteCategory")
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Parts ---

func (h *InventoryHandler) CreatePart(c *gin.Context) {
	var part models.Part
	if err := c.ShouldBindJSON(&part); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed,
			"Invalid request payload.", err.Error()))
		return
	}
	if err := h.inventoryService.CreatePart(&part); err != nil {
		respondServiceError(c, err, "CreatePart: inventoryService.CreatePart")
		return
	}
	c.JSON(http.StatusCreated, part)
}

func (h *InventoryHandler) GetParts(c *gin.Context) {
	page, pageSize, ok := parsePagination(c)
	if !ok {
		return
	}
	filters := models.PartFilters{Page: page, PageSize: pageSize}
	filters.Search = queryString(c, "search")
	categoryID, ok := queryInt64(c, "categoria_id")
	if !ok {
		return
	}
	filters.CategoryID = categoryID
	filters.LowStockOnly = c.Query("estoque_baixo") == "true"
	filters.ActiveOnly = c.Query("active") == "true"

	parts, totalCount, err := h.inventoryService.GetParts(filters)
	if err != nil {
		respondServiceError(c, err, "GetParts: inventoryService.GetParts")
		return
	}
	c.JSON(http.StatusOK, paginatedResponse{Data: parts, TotalCount: totalCount, Page: page, PageSize: pageSize})
}

func (h *InventoryHandler) GetPartByID(c *gin.Context) {
	partID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	part, err := h.inventoryService.GetPartByID(partID)
	if err != nil {
		respondServiceError(c, err, "GetPartByID: inventoryService.GetPartByID")
		return
	}
	c.JSON(http.StatusOK, part)
}

func (h *InventoryHandler) UpdatePart(c *gin.Context) {
	partID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var part models.Part
	if err := c.ShouldBindJSON(&part); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed,
			"Invalid request payload.", err.Error()))
		return
	}
	part.ID = partID
	if err := h.inventoryService.UpdatePart(&part); err != nil {
		respondServiceError(c, err, "UpdatePart: inventoryService.UpdatePart")
		return
	}
	c.JSON(http.StatusOK, part)
}

func (h *InventoryHandler) DeletePart(c *gin.Context) {
	partID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.inventoryService.DeletePart(partID); err != nil {
		respondServiceError(c, err, "DeletePart: inventoryService.DeletePart")
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Stock movements ---

func (h *InventoryHandler) CreateMovement(c *gin.Context) {
	userID, ok := actingUserID(c)
	if !ok {
		return
	}
	var req services.RecordMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed,
			"Invalid request payload.", err.Error()))
		return
	}
	movement, err := h.inventoryService.RecordMovement(req, userID)
	if err != nil {
		respondServiceError(c, err, "CreateMovement: inventoryService.RecordMovement")
		return
	}
	c.JSON(http.StatusCreated, movement)
}

func (h *InventoryHandler) ImportInvoice(c *gin.Context) {
	userID, ok := actingUserID(c)
	if !ok {
		return
	}
	var req services.ImportInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed,
			"Invalid request payload.", err.Error()))
		return
	}
	movements, err := h.inventoryService.ImportInvoiceMovements(req, userID)
	if err != nil {
		respondServiceError(c, err, "ImportInvoice: inventoryService.ImportInvoiceMovements")
		return
	}
	c.JSON(http.StatusCreated, movements)
}

func (h *InventoryHandler) GetMovements(c *gin.Context) {
	page, pageSize, ok := parsePagination(c)
	if !ok {
		return
	}
	filters := models.MovementFilters{Page: page, PageSize: pageSize}
	partID, ok := queryInt64(c, "peca_id")
	if !ok {
		return
	}
	filters.PartID = partID
	workOrderID, ok := queryInt64(c, "ordem_servico_id")
	if !ok {
		return
	}
	filters.WorkOrderID = workOrderID
	filters.Kind = queryString(c, "tipo")

	movements, totalCount, err := h.inventoryService.GetMovements(filters)
	if err != nil {
		respondServiceError(c, err, "GetMovements: inventoryService.GetMovements")
		return
	}
	c.JSON(http.StatusOK, paginatedResponse{Data: movements, TotalCount: totalCount, Page: page, PageSize: pageSize})
}
