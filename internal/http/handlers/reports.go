package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Statistics handles GET /api/statistics
func (h *Handler) Statistics(c *gin.Context) {
	stats, err := h.Reports.Statistics(c.Request.Context(), filterParams(c))
	if err != nil {
		fail(c, "fetch statistics", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// BarChart handles GET /api/bar-chart
func (h *Handler) BarChart(c *gin.Context) {
	bars, err := h.Reports.BarChart(c.Request.Context(), filterParams(c))
	if err != nil {
		fail(c, "fetch bar chart data", err)
		return
	}
	c.JSON(http.StatusOK, bars)
}

// PieChart handles GET /api/pie-chart
func (h *Handler) PieChart(c *gin.Context) {
	pie, err := h.Reports.PieChart(c.Request.Context(), filterParams(c))
	if err != nil {
		fail(c, "fetch pie chart data", err)
		return
	}
	c.JSON(http.StatusOK, pie)
}

// Combined handles GET /api/combined
func (h *Handler) Combined(c *gin.Context) {
	report, err := h.Reports.Combined(c.Request.Context(), filterParams(c))
	if err != nil {
		fail(c, "fetch combined data", err)
		return
	}
	c.JSON(http.StatusOK, report)
}
