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

type MedicineHandler struct {
	medicineService service.MedicineService
}

func NewMedicineHandler(medicineService service.MedicineService) *MedicineHandler {
	return &MedicineHandler{medicineService: medicineService}
}

func (h *MedicineHandler) RegisterRoutes(router *gin.RouterGroup) {
	medicines := router.Group("/api/medicines")
	{
		medicines.GET("", middleware.RequireAnyRole(), h.List)
		medicines.GET("/:id", middleware.RequireAnyRole(), h.Get)
		medicines.GET("/barcode/:code", middleware.RequireRole(model.RoleAdmin, model.RolePharmacist), h.FindByBarcode)
		medicines.POST("", middleware.RequireRole(model.RoleAdmin, model.RolePharmacist), h.Create)
		medicines.PUT("/:id", middleware.RequireRole(model.RoleAdmin, model.RolePharmacist), h.Update)
		medicines.DELETE("/:id", middleware.RequireRole(model.RoleAdmin, model.RolePharmacist), h.Delete)
		medicines.POST("/:id/stock", middleware.RequireRole(model.RoleAdmin, model.RolePharmacist), h.AdjustStock)
	}
}

// List returns the paginated medicine catalog
// @Summary      List medicines
// @Description  Retrieves a paginated list of medicines with current stock
// @Tags         medicines
// @Security     BearerAuth
// @Produce      json
// @Param        page       query     int     false  "Page number (default 1)"
// @Param        limit      query     int     false  "Items per page (default 20)"
// @Param        search     query     string  false  "Search by medicine name"
// @Param        category   query     string  false  "Filter by category"
// @Param        low_stock  query     bool    false  "Only medicines at or below reorder threshold"
// @Success      200  {object}  response.Response{data=object}
// @Failure      500  {object}  response.Response
// @Router       /api/medicines [get]
func (h *MedicineHandler) List(c *gin.Context) {
	params := pagination.Parse(c)
	filter := service.MedicineFilter{
		Search:   c.Query("search"),
		Category: c.Query("category"),
		LowStock: c.Query("low_stock") == "true",
		Page:     params.Page,
		Limit:    params.Limit,
	}

	medicines, total, err := h.medicineService.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, response.Paginated(medicines, total, params.Page, params.Limit)))
}

// Get returns a single medicine by ID
// @Summary      Get medicine
// @Tags         medicines
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Medicine ID"
// @Success      200  {object}  response.Response{data=service.MedicineResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/medicines/{id} [get]
func (h *MedicineHandler) Get(c *gin.Context) {
	medicine, err := h.medicineService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, medicine))
}

// FindByBarcode looks up a medicine for quick-add at the counter
// @Summary      Find medicine by barcode
// @Tags         medicines
// @Security     BearerAuth
// @Produce      json
// @Param        code  path      string  true  "Barcode"
// @Success      200   {object}  response.Response{data=service.MedicineResponse}
// @Failure      404   {object}  response.Response
// @Router       /api/medicines/barcode/{code} [get]
func (h *MedicineHandler) FindByBarcode(c *gin.Context) {
	medicine, err := h.medicineService.FindByBarcode(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, medicine))
}

// Create adds a new catalog entry
// @Summary      Create medicine
// @Tags         medicines
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateMedicineRequest  true  "Create Medicine Payload"
// @Success      201      {object}  response.Response{data=service.MedicineResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/medicines [post]
func (h *MedicineHandler) Create(c *gin.Context) {
	var req service.CreateMedicineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	medicine, err := h.medicineService.Create(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, medicine))
}

// Update edits an existing catalog entry
// @Summary      Update medicine
// @Tags         medicines
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                         true  "Medicine ID"
// @Param        payload  body      service.UpdateMedicineRequest  true  "Update Medicine Payload"
// @Success      200      {object}  response.Response{data=service.MedicineResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/medicines/{id} [put]
func (h *MedicineHandler) Update(c *gin.Context) {
	var req service.UpdateMedicineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	medicine, err := h.medicineService.Update(c.Request.Context(), c.GetString("userID"), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, medicine))
}

// Delete soft-deletes a catalog entry
// @Summary      Delete medicine
// @Tags         medicines
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Medicine ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/medicines/{id} [delete]
func (h *MedicineHandler) Delete(c *gin.Context) {
	if err := h.medicineService.Delete(c.Request.Context(), c.GetString("userID"), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": true}))
}

// AdjustStock applies a signed stock delta (restock or correction)
// @Summary      Adjust stock
// @Description  Applies a signed delta to a medicine's stock under a row lock
// @Tags         medicines
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                      true  "Medicine ID"
// @Param        payload  body      service.AdjustStockRequest  true  "Adjustment Payload"
// @Success      200      {object}  response.Response{data=service.MedicineResponse}
// @Failure      409      {object}  response.Response
// @Router       /api/medicines/{id}/stock [post]
func (h *MedicineHandler) AdjustStock(c *gin.Context) {
	var req service.AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	medicine, err := h.medicineService.AdjustStock(c.Request.Context(), c.GetString("userID"), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, medicine))
}
