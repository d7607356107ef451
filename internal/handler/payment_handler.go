package handler

import (
	"net/http"
	"time"

	"pharmacy/internal/middleware"
	"pharmacy/internal/model"
	"pharmacy/internal/service"
	"pharmacy/pkg/pagination"
	"pharmacy/pkg/response"

	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	paymentService service.PaymentService
}

func NewPaymentHandler(paymentService service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

func (h *PaymentHandler) RegisterRoutes(router *gin.RouterGroup) {
	payments := router.Group("/api/payments")
	{
		payments.GET("", middleware.RequireRole(model.RoleAdmin, model.RoleAccountant), h.List)
		payments.POST("", middleware.RequireRole(model.RoleAdmin, model.RoleAccountant), h.ProcessPayment)
	}
}

// ProcessPayment settles a pending prescription
// @Summary      Process payment
// @Description  Settles a PENDING prescription. Cash requires tendered >= total and returns change; card and transfer settle at the exact total.
// @Tags         payments
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.ProcessPaymentRequest  true  "Payment Payload"
// @Success      201      {object}  response.Response{data=service.PaymentResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response  "Already settled or insufficient tender"
// @Router       /api/payments [post]
func (h *PaymentHandler) ProcessPayment(c *gin.Context) {
	var req service.ProcessPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	payment, err := h.paymentService.ProcessPayment(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, payment))
}

// List returns settled payments, optionally bounded by date
// @Summary      List payments
// @Tags         payments
// @Security     BearerAuth
// @Produce      json
// @Param        page   query     int     false  "Page number"
// @Param        limit  query     int     false  "Items per page"
// @Param        from   query     string  false  "Start date (YYYY-MM-DD)"
// @Param        to     query     string  false  "End date (YYYY-MM-DD)"
// @Success      200  {object}  response.Response{data=object}
// @Failure      400  {object}  response.Response
// @Router       /api/payments [get]
func (h *PaymentHandler) List(c *gin.Context) {
	params := pagination.Parse(c)
	filter := service.PaymentFilter{Page: params.Page, Limit: params.Limit}

	if raw := c.Query("from"); raw != "" {
		from, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid from date, expected YYYY-MM-DD"))
			return
		}
		filter.From = &from
	}
	if raw := c.Query("to"); raw != "" {
		to, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid to date, expected YYYY-MM-DD"))
			return
		}
		// Include the whole end day
		to = to.Add(24*time.Hour - time.Nanosecond)
		filter.To = &to
	}

	payments, total, err := h.paymentService.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, response.Paginated(payments, total, params.Page, params.Limit)))
}
