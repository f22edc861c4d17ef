package http

import (
	"errors"
	"io"

	"fanclub/pkg/apperr"
	"fanclub/pkg/middleware"
	"fanclub/pkg/respond"
	"fanclub/services/notification/internal/entity"
	"fanclub/services/notification/internal/usecase"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	notificationUseCase usecase.NotificationUseCase
	pageSize            PageSizer
}

func NewNotificationHandler(notificationUseCase usecase.NotificationUseCase, pageSize PageSizer) *NotificationHandler {
	return &NotificationHandler{notificationUseCase: notificationUseCase, pageSize: pageSize}
}

// GetNotifications godoc
// @Summary      Get user notifications
// @Description  Newest first. Pass next_cursor back as cursor for older entries.
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Param        cursor  query  string  false  "Opaque cursor from the previous page"
// @Param        limit   query  int     false  "Page size"
// @Success      200  {object}  respond.Envelope{data=feed.Page[domain.Notification]}
// @Failure      400  {object}  respond.Envelope
// @Failure      401  {object}  respond.Envelope
// @Router       /notifications [get]
func (h *NotificationHandler) GetNotifications(c *gin.Context) {
	after, limit, err := pageParams(c, h.pageSize)
	if err != nil {
		respond.Error(c, err)
		return
	}
	page, err := h.notificationUseCase.List(c.Request.Context(), middleware.UserID(c), after, limit)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, page)
}

// GetUnreadCount godoc
// @Summary      Unread notification count
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  respond.Envelope{data=entity.UnreadCount}
// @Router       /notifications/unread-count [get]
func (h *NotificationHandler) GetUnreadCount(c *gin.Context) {
	count, err := h.notificationUseCase.UnreadCount(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, entity.UnreadCount{UnreadCount: count})
}

// MarkRead godoc
// @Summary      Mark notifications read
// @Description  Marks everything up to up_to as read, or everything when the body is empty.
// @Tags         notifications
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body entity.MarkReadRequest false "Newest notification seen"
// @Success      200  {object}  respond.Envelope{data=entity.UnreadCount}
// @Failure      400  {object}  respond.Envelope
// @Router       /notifications/read [post]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	var req entity.MarkReadRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respond.Error(c, apperr.Validation("%s", err.Error()))
		return
	}
	count, err := h.notificationUseCase.MarkRead(c.Request.Context(), middleware.UserID(c), req.UpTo)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, entity.UnreadCount{UnreadCount: count})
}

// GetMute godoc
// @Summary      Get new-post mute state for a creator
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Param        creator_id path string true "Creator ID"
// @Success      200  {object}  respond.Envelope{data=entity.MuteState}
// @Router       /notifications/mutes/{creator_id} [get]
func (h *NotificationHandler) GetMute(c *gin.Context) {
	state, err := h.notificationUseCase.Muted(c.Request.Context(), middleware.UserID(c), c.Param("creator_id"))
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, state)
}

// Mute godoc
// @Summary      Mute new-post notifications from a creator
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Param        creator_id path string true "Creator ID"
// @Success      200  {object}  respond.Envelope{data=entity.MuteState}
// @Router       /notifications/mutes/{creator_id} [post]
func (h *NotificationHandler) Mute(c *gin.Context) {
	h.setMuted(c, true)
}

// Unmute godoc
// @Summary      Unmute new-post notifications from a creator
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Param        creator_id path string true "Creator ID"
// @Success      200  {object}  respond.Envelope{data=entity.MuteState}
// @Router       /notifications/mutes/{creator_id} [delete]
func (h *NotificationHandler) Unmute(c *gin.Context) {
	h.setMuted(c, false)
}

func (h *NotificationHandler) setMuted(c *gin.Context, muted bool) {
	state, err := h.notificationUseCase.SetMuted(c.Request.Context(), middleware.UserID(c), c.Param("creator_id"), muted)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, state)
}
