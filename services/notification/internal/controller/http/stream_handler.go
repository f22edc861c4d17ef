package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"fanclub/pkg/apperr"
	"fanclub/pkg/logger"
	"fanclub/pkg/middleware"
	"fanclub/pkg/respond"
	"fanclub/services/notification/internal/entity"
	"fanclub/services/notification/internal/repo/cache"
	"fanclub/services/notification/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// StreamHandler pushes unread counts over a websocket as notifications arrive or are read.
type StreamHandler struct {
	notificationUseCase usecase.NotificationUseCase
	inbox               cache.Inbox
	upgrader            websocket.Upgrader
	logger              *logger.Logger
}

func NewStreamHandler(notificationUseCase usecase.NotificationUseCase, inbox cache.Inbox, allowedOrigins []string, logger *logger.Logger) *StreamHandler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &StreamHandler{
		notificationUseCase: notificationUseCase,
		inbox:               inbox,
		logger:              logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// the session cookie rides along, so only known origins may connect
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed[origin]
			},
		},
	}
}

// Stream godoc
// @Summary      Unread count stream
// @Description  WebSocket. Sends {"unread_count": n} on connect and on every change.
// @Tags         notifications
// @Security     BearerAuth
// @Router       /ws/notifications [get]
func (h *StreamHandler) Stream(c *gin.Context) {
	userID := middleware.UserID(c)
	if userID == "" {
		respond.Error(c, apperr.AuthRequired("authentication required"))
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("Failed to upgrade connection to WebSocket: %v", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	pubsub := h.inbox.Subscribe(ctx, userID)
	defer pubsub.Close()
	// subscribed before counting, so no change between the two is lost
	if _, err := pubsub.Receive(ctx); err != nil {
		h.logger.Error("Failed to subscribe to updates for %s: %v", userID, err)
		return
	}

	unread, err := h.notificationUseCase.UnreadCount(ctx, userID)
	if err != nil {
		h.logger.Error("Failed to count unread for %s: %v", userID, err)
		return
	}
	initial, err := json.Marshal(entity.Push{UnreadCount: unread})
	if err != nil {
		h.logger.Error("Failed to encode unread count for %s: %v", userID, err)
		return
	}
	if err := write(conn, websocket.TextMessage, initial); err != nil {
		return
	}

	h.logger.Debug("WebSocket connected for user %s", userID)
	go readUntilClosed(conn, cancel)

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	updates := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			h.logger.Debug("WebSocket disconnected for user %s", userID)
			return
		case msg, ok := <-updates:
			if !ok {
				return
			}
			if err := write(conn, websocket.TextMessage, []byte(msg.Payload)); err != nil {
				h.logger.Warn("Failed to write WebSocket message: %v", err)
				return
			}
		case <-ticker.C:
			if err := write(conn, websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func write(conn *websocket.Conn, messageType int, data []byte) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteMessage(messageType, data)
}

// readUntilClosed drains client frames so pongs and close frames are processed.
func readUntilClosed(conn *websocket.Conn, done context.CancelFunc) {
	defer done()
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
