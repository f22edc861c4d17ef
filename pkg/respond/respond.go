// Package respond writes the JSON envelope every API response uses:
// {"success": bool, "message": string, "data": any}.
package respond

import (
	"net/http"

	"fanclub/pkg/apperr"

	"github.com/gin-gonic/gin"
)

type Envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data"`
}

func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: data})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Envelope{Success: true, Data: data})
}

func Message(c *gin.Context, message string) {
	c.JSON(http.StatusOK, Envelope{Success: true, Message: message})
}

// Error aborts the request with the status of err's kind. Unclassified errors
// become 500 with a generic message; the original is attached to the context
// for the request logger.
func Error(c *gin.Context, err error) {
	_ = c.Error(err)
	kind := apperr.KindOf(err)
	c.AbortWithStatusJSON(apperr.HTTPStatus(kind), Envelope{
		Success: false,
		Message: apperr.MessageOf(err),
	})
}

// Fail aborts with an explicit status and message.
func Fail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, Envelope{Success: false, Message: message})
}
