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

type PatientHandler struct {
	patientService service.PatientService
}

func NewPatientHandler(patientService service.PatientService) *PatientHandler {
	return &PatientHandler{patientService: patientService}
}

func (h *PatientHandler) RegisterRoutes(router *gin.RouterGroup) {
	patients := router.Group("/api/patients")
	patients.Use(middleware.RequireRole(model.RoleAdmin, model.RolePharmacist))
	{
		patients.GET("", h.List)
		patients.GET("/:id", h.Get)
		patients.POST("", h.Create)
		patients.PUT("/:id", h.Update)
		patients.DELETE("/:id", h.Delete)
	}
}

// List returns registered patients
// @Summary      List patients
// @Tags         patients
// @Security     BearerAuth
// @Produce      json
// @Param        page    query     int     false  "Page number"
// @Param        limit   query     int     false  "Items per page"
// @Param        search  query     string  false  "Search by name or phone"
// @Success      200  {object}  response.Response{data=object}
// @Router       /api/patients [get]
func (h *PatientHandler) List(c *gin.Context) {
	params := pagination.Parse(c)

	patients, total, err := h.patientService.List(c.Request.Context(), params.Page, params.Limit, c.Query("search"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, response.Paginated(patients, total, params.Page, params.Limit)))
}

// Get returns one patient record
// @Summary      Get patient
// @Tags         patients
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Patient ID"
// @Success      200  {object}  response.Response{data=service.PatientResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/patients/{id} [get]
func (h *PatientHandler) Get(c *gin.Context) {
	patient, err := h.patientService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, patient))
}

// Create registers a patient
// @Summary      Create patient
// @Tags         patients
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.PatientRequest  true  "Patient Payload"
// @Success      201      {object}  response.Response{data=service.PatientResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/patients [post]
func (h *PatientHandler) Create(c *gin.Context) {
	var req service.PatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	patient, err := h.patientService.Create(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, patient))
}

// Update edits a patient record
// @Summary      Update patient
// @Tags         patients
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                  true  "Patient ID"
// @Param        payload  body      service.PatientRequest  true  "Patient Payload"
// @Success      200      {object}  response.Response{data=service.PatientResponse}
// @Failure      404      {object}  response.Response
// @Router       /api/patients/{id} [put]
func (h *PatientHandler) Update(c *gin.Context) {
	var req service.PatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	patient, err := h.patientService.Update(c.Request.Context(), c.GetString("userID"), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, patient))
}

// Delete soft-deletes a patient record
// @Summary      Delete patient
// @Tags         patients
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Patient ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/patients/{id} [delete]
func (h *PatientHandler) Delete(c *gin.Context) {
	if err := h.patientService.Delete(c.Request.Context(), c.GetString("userID"), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": true}))
}
