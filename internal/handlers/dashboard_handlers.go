package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"repairshop_backend/internal/services"
)

// DashboardHandler holds the report service.
type DashboardHandler struct {
	reportService services.ReportService
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(rs services.ReportService) *DashboardHandler {
	return &DashboardHandler{reportService: rs}
}

// GetSummary returns the landing-page counters.
func (h *DashboardHandler) GetSummary(c *gin.Context) {
	summary, err := h.reportService.GetDashboardSummary()
	if err != nil {
		respondServiceError(c, err, "GetSummary: reportService.GetDashboardSummary")
		return
	}
	c.JSON(http.StatusOK, summary)
}
