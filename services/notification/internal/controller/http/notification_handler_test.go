package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fanclub/pkg/apperr"
	"fanclub/pkg/domain"
	"fanclub/pkg/feed"
	"fanclub/pkg/logger"
	"fanclub/pkg/middleware"
	"fanclub/pkg/queue"
	"fanclub/services/notification/internal/entity"
	"fanclub/services/notification/internal/repo/cache"
	"fanclub/services/notification/internal/usecase"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockNotificationUseCase struct {
	mock.Mock
}

func (m *MockNotificationUseCase) HandleEvent(ctx context.Context, event queue.Event) error {
	return m.Called(event).Error(0)
}

func (m *MockNotificationUseCase) List(ctx context.Context, userID, after string, limit int) (feed.Page[domain.Notification], error) {
	args := m.Called(userID, after, limit)
	return args.Get(0).(feed.Page[domain.Notification]), args.Error(1)
}

func (m *MockNotificationUseCase) UnreadCount(ctx context.Context, userID string) (int64, error) {
	args := m.Called(userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockNotificationUseCase) MarkRead(ctx context.Context, userID, upTo string) (int64, error) {
	args := m.Called(userID, upTo)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockNotificationUseCase) Muted(ctx context.Context, userID, creatorID string) (entity.MuteState, error) {
	args := m.Called(userID, creatorID)
	return args.Get(0).(entity.MuteState), args.Error(1)
}

func (m *MockNotificationUseCase) SetMuted(ctx context.Context, userID, creatorID string, muted bool) (entity.MuteState, error) {
	args := m.Called(userID, creatorID, muted)
	return args.Get(0).(entity.MuteState), args.Error(1)
}

var _ usecase.NotificationUseCase = (*MockNotificationUseCase)(nil)

func setupNotificationTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func as(userID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserIDKey, userID)
		c.Next()
	}
}

func clamp(limit int) int {
	if limit <= 0 || limit > 50 {
		return 20
	}
	return limit
}

func TestGetNotifications(t *testing.T) {
	uc := new(MockNotificationUseCase)
	router := setupNotificationTestRouter()
	router.GET("/notifications", as("u1"), NewNotificationHandler(uc, clamp).GetNotifications)

	next := "c2VxOjQ"
	uc.On("List", "u1", "abc", 5).Return(feed.Page[domain.Notification]{
		Items:      []domain.Notification{{ID: "5", UserID: "u1", Type: queue.EventNewLike, Title: "New like"}},
		NextCursor: &next,
		HasMore:    true,
	}, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/notifications?cursor=abc&limit=5", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	data := response["data"].(map[string]interface{})
	assert.Equal(t, next, data["next_cursor"])
	assert.Len(t, data["items"], 1)
}

func TestGetNotifications_BadCursor(t *testing.T) {
	uc := new(MockNotificationUseCase)
	router := setupNotificationTestRouter()
	router.GET("/notifications", as("u1"), NewNotificationHandler(uc, clamp).GetNotifications)
	uc.On("List", "u1", "%%%", 20).Return(feed.Page[domain.Notification]{}, apperr.Validation("invalid cursor"))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/notifications?cursor=%25%25%25", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMarkRead(t *testing.T) {
	tests := []struct {
		name string
		body string
		upTo string
	}{
		{"empty body marks all", "", ""},
		{"up to id", `{"up_to":"7"}`, "7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := new(MockNotificationUseCase)
			router := setupNotificationTestRouter()
			router.POST("/notifications/read", as("u1"), NewNotificationHandler(uc, clamp).MarkRead)
			uc.On("MarkRead", "u1", tt.upTo).Return(int64(0), nil)

			w := httptest.NewRecorder()
			req, _ := http.NewRequest("POST", "/notifications/read", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.JSONEq(t, `{"success":true,"data":{"unread_count":0}}`, w.Body.String())
		})
	}
}

func TestMarkRead_MalformedBody(t *testing.T) {
	uc := new(MockNotificationUseCase)
	router := setupNotificationTestRouter()
	router.POST("/notifications/read", as("u1"), NewNotificationHandler(uc, clamp).MarkRead)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/notifications/read", bytes.NewBufferString(`{"up_to":`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMuteAndUnmute(t *testing.T) {
	uc := new(MockNotificationUseCase)
	h := NewNotificationHandler(uc, clamp)
	router := setupNotificationTestRouter()
	router.POST("/notifications/mutes/:creator_id", as("u1"), h.Mute)
	router.DELETE("/notifications/mutes/:creator_id", as("u1"), h.Unmute)
	uc.On("SetMuted", "u1", "c1", true).Return(entity.MuteState{CreatorID: "c1", Muted: true}, nil)
	uc.On("SetMuted", "u1", "c1", false).Return(entity.MuteState{CreatorID: "c1"}, nil)

	for method, want := range map[string]string{"POST": `true`, "DELETE": `false`} {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(method, "/notifications/mutes/c1", nil)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"success":true,"data":{"creator_id":"c1","muted":`+want+`}}`, w.Body.String())
	}
}

func TestStream_RequiresUser(t *testing.T) {
	router := setupNotificationTestRouter()
	router.GET("/ws/notifications", NewStreamHandler(new(MockNotificationUseCase), nil, nil, logger.NewTest(t)).Stream)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/ws/notifications", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestStream_PushesUnreadCounts(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	inbox := cache.NewInbox(client)
	uc := usecase.NewNotificationUseCase(nil, inbox, logger.NewTest(t))

	router := setupNotificationTestRouter()
	router.GET("/ws/notifications", as("c1"), NewStreamHandler(uc, inbox, []string{"http://localhost:3000"}, logger.NewTest(t)).Stream)
	server := httptest.NewServer(router)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/notifications"

	// foreign origins are refused
	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": []string{"http://evil.example"}})
	require.Error(t, err)
	if resp != nil {
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	}

	conn, _, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": []string{"http://localhost:3000"}})
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var push entity.Push
	require.NoError(t, conn.ReadJSON(&push))
	assert.Equal(t, int64(0), push.UnreadCount)

	require.NoError(t, uc.HandleEvent(context.Background(), queue.Event{
		Type:       queue.EventNewFollower,
		ActorName:  "jun",
		Recipients: []string{"c1"},
	}))

	require.NoError(t, conn.ReadJSON(&push))
	assert.Equal(t, int64(1), push.UnreadCount)
	require.NotNil(t, push.Notification)
	assert.Equal(t, "jun started following you", push.Notification.Message)

	_, err = uc.MarkRead(context.Background(), "c1", "")
	require.NoError(t, err)
	push = entity.Push{}
	require.NoError(t, conn.ReadJSON(&push))
	assert.Equal(t, int64(0), push.UnreadCount)
	assert.Nil(t, push.Notification)
}
