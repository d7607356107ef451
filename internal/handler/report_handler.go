package handler

import (
	"net/http"
	"strconv"
	"time"

	"pharmacy/internal/middleware"
	"pharmacy/internal/model"
	"pharmacy/internal/service"
	"pharmacy/pkg/response"

	"github.com/gin-gonic/gin"
)

type ReportHandler struct {
	reportService service.ReportService
}

func NewReportHandler(reportService service.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

func (h *ReportHandler) RegisterRoutes(router *gin.RouterGroup) {
	reports := router.Group("/api/reports")
	{
		reports.GET("/sales", middleware.RequireRole(model.RoleAdmin, model.RoleAccountant), h.Sales)
		reports.GET("/inventory", middleware.RequireRole(model.RoleAdmin, model.RolePharmacist), h.Inventory)
	}
}

// Sales returns revenue, payment count and top sellers for a date range
// @Summary      Sales report
// @Tags         reports
// @Security     BearerAuth
// @Produce      json
// @Param        start_date  query     string  false  "Start date (YYYY-MM-DD), defaults to 30 days ago"
// @Param        end_date    query     string  false  "End date (YYYY-MM-DD), defaults to today"
// @Success      200  {object}  response.Response{data=model.SalesReport}
// @Failure      400  {object}  response.Response
// @Router       /api/reports/sales [get]
func (h *ReportHandler) Sales(c *gin.Context) {
	endDate := time.Now()
	startDate := endDate.AddDate(0, 0, -30)

	if raw := c.Query("start_date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid start_date, expected YYYY-MM-DD"))
			return
		}
		startDate = parsed
	}
	if raw := c.Query("end_date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid end_date, expected YYYY-MM-DD"))
			return
		}
		// Include the whole end day
		endDate = parsed.Add(24*time.Hour - time.Nanosecond)
	}

	report, err := h.reportService.GetSalesReport(c.Request.Context(), startDate, endDate)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, report))
}

// Inventory returns low-stock and soon-to-expire medicines
// @Summary      Inventory report
// @Tags         reports
// @Security     BearerAuth
// @Produce      json
// @Param        expiry_window  query     int  false  "Days ahead to flag expiring medicines (default 30)"
// @Success      200  {object}  response.Response{data=model.InventoryReport}
// @Router       /api/reports/inventory [get]
func (h *ReportHandler) Inventory(c *gin.Context) {
	windowDays := 30
	if raw := c.Query("expiry_window"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			windowDays = parsed
		}
	}

	report, err := h.reportService.GetInventoryReport(c.Request.Context(), windowDays)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, report))
}
