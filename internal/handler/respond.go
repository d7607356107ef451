package handler

import (
	"net/http"

	"pharmacy/pkg/apperror"
	"pharmacy/pkg/response"

	"github.com/gin-gonic/gin"
)

// respondError renders a classified business error with its mapped status,
// machine-readable code and structured details. Unclassified errors become
// opaque 500s.
func respondError(c *gin.Context, err error) {
	if typed := apperror.As(err); typed != nil {
		status := apperror.HTTPStatus(typed.Code())
		c.JSON(status, response.ErrorWithCode(status, string(typed.Code()), typed.Message(), typed.Details()))
		return
	}
	c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
}
