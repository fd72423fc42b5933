package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/scheduler-engine/pkg/errors"
)

// Envelope is the engine's HTTP response contract: every success and error
// response carries a data payload and a human-readable message.
type Envelope struct {
	Data    interface{} `json:"data"`
	Message string      `json:"message"`
}

// JSON sends a success response with the given status and message.
func JSON(c *gin.Context, status int, data interface{}, message string) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.JSON(status, Envelope{Data: data, Message: message})
}

// Created responds with HTTP 201 Created.
func Created(c *gin.Context, data interface{}, message string) {
	JSON(c, http.StatusCreated, data, message)
}

// Error sends an error response, coding the error onto the data field so the
// envelope shape never changes between success and failure.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.JSON(appErr.Status, Envelope{
		Data: gin.H{
			"code": appErr.Code,
		},
		Message: appErr.Message,
	})
}

// NoContent sends a 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
