package handler

import (
	"net/http"

	"pharmacy/internal/middleware"
	"pharmacy/internal/model"
	"pharmacy/internal/service"
	"pharmacy/pkg/pagination"
	"pharmacy/pkg/response"

	"github.com/gin-gonic/gin"
)

type PrescriptionHandler struct {
	prescriptionService service.PrescriptionService
}

func NewPrescriptionHandler(prescriptionService service.PrescriptionService) *PrescriptionHandler {
	return &PrescriptionHandler{prescriptionService: prescriptionService}
}

func (h *PrescriptionHandler) RegisterRoutes(router *gin.RouterGroup) {
	prescriptions := router.Group("/api/prescriptions")
	{
		prescriptions.GET("", middleware.RequireAnyRole(), h.List)
		prescriptions.GET("/:id", middleware.RequireAnyRole(), h.Get)
		prescriptions.POST("", middleware.RequireRole(model.RoleAdmin, model.RolePharmacist), h.Create)
		prescriptions.PATCH("/:id/status", middleware.RequireRole(model.RoleAdmin, model.RolePharmacist), h.UpdateStatus)
		prescriptions.DELETE("/:id", middleware.RequireRole(model.RoleAdmin, model.RolePharmacist), h.Delete)
	}
}

// List returns prescriptions filtered by status or order number
// @Summary      List prescriptions
// @Tags         prescriptions
// @Security     BearerAuth
// @Produce      json
// @Param        page    query     int     false  "Page number"
// @Param        limit   query     int     false  "Items per page"
// @Param        status  query     string  false  "Filter by status (PENDING, PAID, DISPENSED, CANCELLED)"
// @Param        search  query     string  false  "Search by order number or customer name"
// @Success      200  {object}  response.Response{data=object}
// @Failure      500  {object}  response.Response
// @Router       /api/prescriptions [get]
func (h *PrescriptionHandler) List(c *gin.Context) {
	params := pagination.Parse(c)
	filter := service.PrescriptionFilter{
		Status: c.Query("status"),
		Search: c.Query("search"),
		Page:   params.Page,
		Limit:  params.Limit,
	}

	prescriptions, total, err := h.prescriptionService.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, response.Paginated(prescriptions, total, params.Page, params.Limit)))
}

// Get returns one prescription with its line items
// @Summary      Get prescription
// @Tags         prescriptions
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Prescription ID"
// @Success      200  {object}  response.Response{data=service.PrescriptionResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/prescriptions/{id} [get]
func (h *PrescriptionHandler) Get(c *gin.Context) {
	prescription, err := h.prescriptionService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, prescription))
}

// Create books a prescription and reserves stock for every line item
// @Summary      Create prescription
// @Description  Creates a PENDING prescription. Stock for all items is validated and deducted atomically; any shortage aborts the whole order.
// @Tags         prescriptions
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreatePrescriptionRequest  true  "Create Prescription Payload"
// @Success      201      {object}  response.Response{data=service.PrescriptionResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response  "Insufficient stock"
// @Router       /api/prescriptions [post]
func (h *PrescriptionHandler) Create(c *gin.Context) {
	var req service.CreatePrescriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	prescription, err := h.prescriptionService.Create(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, prescription))
}

// UpdateStatus cancels or dispenses a prescription
// @Summary      Update prescription status
// @Description  Allowed transitions: PENDING to CANCELLED (restores stock) and PAID to DISPENSED. Payment transitions go through the payments endpoint.
// @Tags         prescriptions
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                       true  "Prescription ID"
// @Param        payload  body      service.UpdateStatusRequest  true  "Target Status"
// @Success      200      {object}  response.Response{data=service.PrescriptionResponse}
// @Failure      409      {object}  response.Response  "Invalid transition"
// @Router       /api/prescriptions/{id}/status [patch]
func (h *PrescriptionHandler) UpdateStatus(c *gin.Context) {
	var req service.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	prescription, err := h.prescriptionService.UpdateStatus(c.Request.Context(), c.GetString("userID"), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, prescription))
}

// Delete removes a prescription, restoring stock if it was still PENDING
// @Summary      Delete prescription
// @Tags         prescriptions
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Prescription ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/prescriptions/{id} [delete]
func (h *PrescriptionHandler) Delete(c *gin.Context) {
	if err := h.prescriptionService.Delete(c.Request.Context(), c.GetString("userID"), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": true}))
}
