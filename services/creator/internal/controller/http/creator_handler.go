package http

import (
	"fanclub/pkg/middleware"
	"fanclub/pkg/respond"
	"fanclub/services/creator/internal/usecase"

	"github.com/gin-gonic/gin"
)

type CreatorHandler struct {
	creatorUseCase usecase.CreatorUseCase
	pageSize       PageSizer
}

func NewCreatorHandler(creatorUseCase usecase.CreatorUseCase, pageSize PageSizer) *CreatorHandler {
	return &CreatorHandler{creatorUseCase: creatorUseCase, pageSize: pageSize}
}

// ListCreators godoc
// @Summary      Creator directory
// @Tags         creators
// @Produce      json
// @Param        cursor  query  string  false  "Opaque cursor from the previous page"
// @Param        limit   query  int     false  "Page size"
// @Success      200  {object}  respond.Envelope{data=feed.Page[domain.CreatorSummary]}
// @Router       /creators [get]
func (h *CreatorHandler) ListCreators(c *gin.Context) {
	after, limit, err := pageParams(c, h.pageSize)
	if err != nil {
		respond.Error(c, err)
		return
	}
	page, err := h.creatorUseCase.ListCreators(c.Request.Context(), middleware.UserID(c), after, limit)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, page)
}

// Follow godoc
// @Summary      Follow creator
// @Tags         creators
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  string  true  "Creator ID"
// @Success      200  {object}  respond.Envelope{data=entity.FollowState}
// @Failure      404  {object}  respond.Envelope
// @Router       /creators/{id}/follow [post]
func (h *CreatorHandler) Follow(c *gin.Context) {
	state, err := h.creatorUseCase.Follow(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, state)
}

// Unfollow godoc
// @Summary      Unfollow creator
// @Tags         creators
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  string  true  "Creator ID"
// @Success      200  {object}  respond.Envelope{data=entity.FollowState}
// @Router       /creators/{id}/follow [delete]
func (h *CreatorHandler) Unfollow(c *gin.Context) {
	state, err := h.creatorUseCase.Unfollow(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, state)
}
