package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"fanclub/pkg/apperr"
	"fanclub/pkg/catalog"
	"fanclub/pkg/composer"
	"fanclub/pkg/domain"
	"fanclub/pkg/entitlement"
	"fanclub/pkg/feed"
	"fanclub/pkg/logger"
	"fanclub/pkg/optimistic"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeEnvelope(w http.ResponseWriter, status int, success bool, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"success": success, "message": message, "data": data})
}

func setupTestClient(t *testing.T, mux *http.ServeMux) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	c, err := New(Config{BaseURL: srv.URL + "/api/v1/"}, logger.NewTest(t))
	require.NoError(t, err)
	return c, srv
}

func TestNew_RequiresBaseURL(t *testing.T) {
	_, err := New(Config{}, nil)
	assert.Error(t, err)
}

func TestLogin_KeepsSessionCookie(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["password"] != "secret1" {
			writeEnvelope(w, http.StatusUnauthorized, false, "invalid credentials", nil)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "jwt-token", Path: "/", HttpOnly: true})
		writeEnvelope(w, http.StatusOK, true, "", map[string]interface{}{
			"token": "jwt-token",
			"user":  map[string]string{"id": "u1", "username": "mina", "role": "creator"},
		})
	})
	mux.HandleFunc("GET /api/v1/users/me", func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie("session")
		if err != nil || cookie.Value != "jwt-token" {
			writeEnvelope(w, http.StatusUnauthorized, false, "authentication required", nil)
			return
		}
		writeEnvelope(w, http.StatusOK, true, "", map[string]string{"id": "u1", "username": "mina", "role": "creator"})
	})
	mux.HandleFunc("POST /api/v1/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, true, "Logged out", nil)
	})
	c, _ := setupTestClient(t, mux)
	ctx := context.Background()

	_, err := c.Login(ctx, "mina@example.com", "wrong")
	assert.True(t, apperr.IsKind(err, apperr.KindAuthRequired))

	user, err := c.Login(ctx, "mina@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	assert.True(t, user.IsCreator())

	me, err := c.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, "mina", me.Username)

	require.NoError(t, c.Logout(ctx))
	_, err = c.Me(ctx)
	assert.True(t, apperr.IsKind(err, apperr.KindAuthRequired))
}

func TestClearSession_WhileRequestsInFlight(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/users/me", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "jwt-token", Path: "/"})
		writeEnvelope(w, http.StatusOK, true, "", map[string]string{"id": "u1"})
	})
	c, srv := setupTestClient(t, mux)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := c.Me(ctx)
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			c.ClearSession()
		}()
	}
	wg.Wait()

	c.ClearSession()
	u, err := url.Parse(srv.URL + "/api/v1/")
	require.NoError(t, err)
	assert.Empty(t, c.httpClient.Jar.Cookies(u))
}

func TestDo_ErrorClassification(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		success bool
		body    string
		want    apperr.Kind
	}{
		{"success false on 200", http.StatusOK, false, "", apperr.KindValidation},
		{"forbidden", http.StatusForbidden, false, "", apperr.KindForbidden},
		{"not found", http.StatusNotFound, false, "", apperr.KindNotFound},
		{"conflict", http.StatusConflict, false, "", apperr.KindConflict},
		{"rate limited", http.StatusTooManyRequests, false, "", apperr.KindNetwork},
		{"server error", http.StatusInternalServerError, false, "", apperr.KindInternal},
		{"not json", http.StatusOK, true, "<html>", apperr.KindInternal},
		{"not json error", http.StatusBadGateway, false, "<html>", apperr.KindNetwork},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("GET /api/v1/postings/p1", func(w http.ResponseWriter, r *http.Request) {
				if tt.body != "" {
					w.WriteHeader(tt.status)
					_, _ = io.WriteString(w, tt.body)
					return
				}
				writeEnvelope(w, tt.status, tt.success, "nope", nil)
			})
			c, _ := setupTestClient(t, mux)

			_, err := c.GetPosting(context.Background(), "p1")
			require.Error(t, err)
			assert.Equal(t, tt.want, apperr.KindOf(err))
		})
	}
}

func TestDo_ServerMessageKept(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/postings/p1/like", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusForbidden, false, "posting is locked", nil)
	})
	c, _ := setupTestClient(t, mux)

	_, err := c.SetLiked(context.Background(), "p1", true)
	assert.Equal(t, "posting is locked", apperr.MessageOf(err))
}

func TestDo_TransportFailureIsNetwork(t *testing.T) {
	c, srv := setupTestClient(t, http.NewServeMux())
	srv.Close()

	_, err := c.UnreadCount(context.Background())
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindNetwork))
	assert.True(t, apperr.IsRetryable(err))
}

func TestDo_CancelledContext(t *testing.T) {
	c, _ := setupTestClient(t, http.NewServeMux())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.UnreadCount(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPostings_DrivesPaginator(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/postings", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "membership", q.Get("filter"))
		assert.Equal(t, "c1", q.Get("creator_id"))
		assert.Equal(t, "2", q.Get("limit"))

		if q.Get("cursor") == "" {
			next := "tok-1"
			writeEnvelope(w, http.StatusOK, true, "", feed.Page[entitlement.View]{
				Items:      []entitlement.View{{ID: "p3"}, {ID: "p2"}},
				NextCursor: &next,
				HasMore:    true,
			})
			return
		}
		assert.Equal(t, "tok-1", q.Get("cursor"))
		writeEnvelope(w, http.StatusOK, true, "", feed.Page[entitlement.View]{
			Items: []entitlement.View{{ID: "p2"}, {ID: "p1"}},
		})
	})
	c, _ := setupTestClient(t, mux)

	p := feed.New[entitlement.View]("postings", c.Postings("c1"), 2, feed.FilterMembership)
	_, err := p.NextPage(context.Background())
	require.NoError(t, err)
	_, err = p.NextPage(context.Background())
	require.NoError(t, err)

	var ids []string
	for _, v := range p.Items() {
		ids = append(ids, v.ID)
	}
	assert.Equal(t, []string{"p3", "p2", "p1"}, ids)
	assert.False(t, p.HasMore())
}

func TestPurchase_ReturnsUnlockedView(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/postings/p1/purchase", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, true, "", entitlement.View{
			ID:     "p1",
			Access: entitlement.Decision{CanView: true},
			Body:   &domain.Body{Text: "unlocked"},
		})
	})
	mux.HandleFunc("POST /api/v1/postings/p2/purchase", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, true, "", entitlement.View{ID: "p2"})
	})
	c, _ := setupTestClient(t, mux)

	view, err := c.Purchase(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "unlocked", view.Body.Text)

	_, err = c.Purchase(context.Background(), "p2")
	assert.True(t, apperr.IsKind(err, apperr.KindInternal))
}

func TestPublish_SendsDraftAsMultipart(t *testing.T) {
	var got map[string]string
	var files []string
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/postings", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		got = map[string]string{}
		for k, v := range r.MultipartForm.Value {
			got[k] = v[0]
		}
		for _, fh := range r.MultipartForm.File["images"] {
			files = append(files, fh.Filename)
		}
		writeEnvelope(w, http.StatusCreated, true, "", entitlement.View{ID: "p-new", Title: got["title"]})
	})
	c, _ := setupTestClient(t, mux)

	cat := catalog.New("c1", []domain.MembershipTier{{ID: "t2", CreatorID: "c1", Name: "Fan", Level: 2, BillingPeriod: domain.BillingMonthly}})
	draft := composer.NewDraft()
	draft.SetContent("Sketches", "page one")
	tier, _ := cat.Get("t2")
	require.NoError(t, draft.RequireTier(tier))
	require.NoError(t, draft.AllowPurchase(700))

	view, err := c.Publish(context.Background(), draft, cat, Image{Filename: "dir/a.png", Body: strings.NewReader("png")})
	require.NoError(t, err)
	assert.Equal(t, "p-new", view.ID)
	assert.Equal(t, map[string]string{"title": "Sketches", "text": "page one", "min_level": "2", "price": "700"}, got)
	assert.Equal(t, []string{"a.png"}, files)
}

func TestPublish_InvalidDraftNotSent(t *testing.T) {
	called := false
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/postings", func(w http.ResponseWriter, r *http.Request) {
		called = true
	})
	c, _ := setupTestClient(t, mux)

	_, err := c.Publish(context.Background(), composer.NewDraft(), nil)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
	assert.False(t, called)
}

func TestTierAPI_WithSyncer(t *testing.T) {
	var mu sync.Mutex
	var deleted []string
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/creators/c1/tiers", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, true, "", []domain.MembershipTier{
			{ID: "t1", CreatorID: "c1", Name: "Supporter", Level: 1, BillingPeriod: domain.BillingMonthly},
		})
	})
	mux.HandleFunc("POST /api/v1/tiers", func(w http.ResponseWriter, r *http.Request) {
		var draft catalog.TierDraft
		require.NoError(t, json.NewDecoder(r.Body).Decode(&draft))
		if draft.Level == 1 {
			writeEnvelope(w, http.StatusConflict, false, "level already used", nil)
			return
		}
		writeEnvelope(w, http.StatusCreated, true, "", domain.MembershipTier{
			ID: "t2", CreatorID: "c1", Name: draft.Name, Level: draft.Level, BillingPeriod: domain.BillingMonthly,
		})
	})
	mux.HandleFunc("DELETE /api/v1/tiers/{id}", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		deleted = append(deleted, r.PathValue("id"))
		mu.Unlock()
		writeEnvelope(w, http.StatusOK, true, "Tier deleted", nil)
	})
	c, _ := setupTestClient(t, mux)
	ctx := context.Background()

	s := catalog.NewSyncer(catalog.New("c1", nil), c, logger.NewTest(t))
	require.NoError(t, s.Load(ctx))
	require.Len(t, s.Catalog().List(), 1)

	tier, err := s.Add(ctx, catalog.TierDraft{Name: "Fan", Level: 2, BillingPeriod: domain.BillingMonthly})
	require.NoError(t, err)
	assert.Equal(t, "t2", tier.ID)
	_, ok := s.Catalog().Get("t2")
	assert.True(t, ok)

	require.NoError(t, s.Remove(ctx, "t1"))
	assert.Equal(t, []string{"t1"}, deleted)
	assert.Len(t, s.Catalog().List(), 1)
}

func TestNotifications(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/notifications", func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.Query().Get("filter"))
		writeEnvelope(w, http.StatusOK, true, "", feed.Page[domain.Notification]{
			Items: []domain.Notification{{ID: "3", Type: "new_post"}},
		})
	})
	mux.HandleFunc("POST /api/v1/notifications/read", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "3", body["up_to"])
		writeEnvelope(w, http.StatusOK, true, "", map[string]int64{"unread_count": 0})
	})
	mux.HandleFunc("POST /api/v1/notifications/mutes/c1", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, true, "", map[string]interface{}{"creator_id": "c1", "muted": true})
	})
	c, _ := setupTestClient(t, mux)
	ctx := context.Background()

	page, err := c.Notifications().FetchPage(ctx, feed.FilterAll, nil, 20)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)

	count, err := c.MarkRead(ctx, "3")
	require.NoError(t, err)
	assert.Zero(t, count)

	muted, err := c.SetMuted(ctx, "c1", true)
	require.NoError(t, err)
	assert.True(t, muted)
}

func TestSetLiked_OptimisticToggle(t *testing.T) {
	var fail atomic.Bool
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/postings/p1/like", func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			writeEnvelope(w, http.StatusServiceUnavailable, false, "try again", nil)
			return
		}
		writeEnvelope(w, http.StatusOK, true, "", LikeState{PostingID: "p1", Liked: r.Method == http.MethodPost, LikeCount: 8})
	})
	c, _ := setupTestClient(t, mux)
	runner := optimistic.NewRunner(logger.NewTest(t))

	view := entitlement.View{ID: "p1", Counters: domain.Counters{Likes: 7}}
	set := func(on bool) {
		if on == view.IsLiked {
			return
		}
		view.IsLiked = on
		if on {
			view.Counters.Likes++
		} else {
			view.Counters.Likes--
		}
	}
	like := func(ctx context.Context, on bool) error {
		_, err := c.SetLiked(ctx, "p1", on)
		return err
	}

	require.NoError(t, runner.Run(context.Background(), optimistic.Toggle("like:p1", view.IsLiked, set, like)))
	assert.True(t, view.IsLiked)
	assert.Equal(t, int64(8), view.Counters.Likes)

	fail.Store(true)
	err := runner.Run(context.Background(), optimistic.Toggle("like:p1", view.IsLiked, set, like))
	assert.True(t, apperr.IsRetryable(err))
	assert.True(t, view.IsLiked)
	assert.Equal(t, int64(8), view.Counters.Likes)
}
