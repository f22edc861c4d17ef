package http

import (
	"strconv"

	"fanclub/pkg/apperr"

	"github.com/gin-gonic/gin"
)

// PageSizer clamps a requested page size, e.g. config.Config.ClampPageSize.
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

// optionalInt parses a form field that may be absent or empty.
func optionalInt(c *gin.Context, field string) (*int, error) {
	raw := c.PostForm(field)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, apperr.Validation("%s must be a number", field)
	}
	return &n, nil
}
