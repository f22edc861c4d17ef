package http

import (
	"strconv"

	"fanclub/pkg/apperr"

	"github.com/gin-gonic/gin"
)

type PageSizer func(limit int) int

func pageParams(c *gin.Context, clamp PageSizer) (string, int, error) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return "", 0, apperr.Validation("limit must be a number")
		}
		limit = n
	}
	return c.Query("cursor"), clamp(limit), nil
}
