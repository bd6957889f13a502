package utils

import (
	"github.com/gin-gonic/gin"

	appErrors "fleet-device-monitor/pkg/errors"
)

// Response is the uniform envelope returned by every endpoint.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, Response{
		Success: false,
		Message: message,
		Error:   message,
	})
}

// ErrorFromErr maps service errors onto the envelope using the error
// taxonomy's HTTP status resolution.
func ErrorFromErr(c *gin.Context, err error) {
	ErrorResponse(c, appErrors.HTTPStatus(err), err.Error())
}
