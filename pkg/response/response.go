package response

import (
	"errors"
	"net/http"

	"btc-payment-gateway/pkg/apperror"

	"github.com/gin-gonic/gin"
)

// ErrorBody is the error envelope: a machine-readable code plus a short
// human-readable reason.
type ErrorBody struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
}

// OK sends a 200 response with data.
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// Error sends an error response. It checks if err is an *apperror.AppError
// and maps it accordingly, otherwise returns 500.
func Error(c *gin.Context, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.HTTPStatus, ErrorBody{
			ErrorCode: appErr.Code,
			Message:   appErr.Message,
		})
		return
	}

	c.JSON(http.StatusInternalServerError, ErrorBody{
		ErrorCode: "SYS_000",
		Message:   "Internal server error",
	})
}
