package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"repairshop_backend/internal/models"
	"repairshop_backend/internal/services"
	"repairshop_backend/pkg/utils"
)

// WorkOrderHandler holds the work order service.
type WorkOrderHandler struct {
	workOrderService services.WorkOrderService
}

// NewWorkOrderHandler creates a new WorkOrderHandler.
func NewWorkOrderHandler(ws services.WorkOrderService) *WorkOrderHandler {
	return &WorkOrderHandler{workOrderService: ws}
}

func (h *WorkOrderHandler) CreateWorkOrder(c *gin.Context) {
	userID, ok := actingUserID(c)
	if !ok {
		return
	}
	var req services.CreateWorkOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed,
			"Invalid request payload.", err.Error()))
		return
	}
	order, err := h.workOrderService.CreateWorkOrder(req, userID)
	if err != nil {
		respondServiceError(c, err, "CreateWorkOrder: workOrderService.CreateWorkOrder")
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (h *WorkOrderHandler) GetWorkOrders(c *gin.Context) {
	page, pageSize, ok := parsePagination(c)
	if !ok {
		return
	}
	filters := models.WorkOrderFilters{Page: page, PageSize: pageSize}
	filters.Status = queryString(c, "status")
	customerID, ok := queryInt64(c, "cliente_id")
	if !ok {
		return
	}
	filters.CustomerID = customerID
	technicianID, ok := queryInt64(c, "tecnico_id")
	if !ok {
		return
	}
	filters.TechnicianID = technicianID
	filters.Search = queryString(c, "search")
	filters.OverdueOnly = c.Query("atrasadas") == "true"

	orders, totalCount, err := h.workOrderService.GetWorkOrders(filters)
	if err != nil {
		respondServiceError(c, err, "GetWorkOrders: workOrderService.GetWorkOrders")
		return
	}
	c.JSON(http.StatusOK, paginatedResponse{Data: orders, TotalCount: totalCount, Page: page, PageSize: pageSize})
}

func (h *WorkOrderHandler) GetWorkOrderByID(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	order, err := h.workOrderService.GetWorkOrderByID(orderID)
	if err != nil {
		respondServiceError(c, err, "GetWorkOrderByID: workOrderService.GetWorkOrderByID")
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *WorkOrderHandler) UpdateWorkOrder(c *gin.Context) {
	userID, ok := actingUserID(c)
	if !ok {
		return
	}
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.UpdateWorkOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed,
			"Invalid request payload.", err.Error()))
		return
	}
	order, err := h.workOrderService.UpdateWorkOrder(orderID, req, userID)
	if err != nil {
		respondServiceError(c, err, "UpdateWorkOrder: workOrderService.UpdateWorkOrder")
		return
	}
	c.JSON(http.StatusOK, order)
}

// ChangeStatusRequest is the PATCH payload for the status shortcut.
type ChangeStatusRequest struct {
	Status string  `json:"status" binding:"required"`
	Note   *string `json:"observacao"`
}

func (h *WorkOrderHandler) ChangeStatus(c *gin.Context) {
	userID, ok := actingUserID(c)
	if !ok {
		return
	}
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req ChangeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed,
			"Invalid request payload.", err.Error()))
		return
	}
	order, err := h.workOrderService.ChangeStatus(orderID, req.Status, req.Note, userID)
	if err != nil {
		respondServiceError(c, err, "ChangeStatus: workOrderService.ChangeStatus")
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *WorkOrderHandler) GetStatusHistory(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	history, err := h.workOrderService.GetStatusHistory(orderID)
	if err != nil {
		respondServiceError(c, err, "GetStatusHistory: workOrderService.GetStatusHistory")
		return
	}
	c.JSON(http.StatusOK, history)
}
